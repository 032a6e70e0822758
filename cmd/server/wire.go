package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-notify-backend/internal/config"
	"github.com/tbourn/go-notify-backend/internal/repo"
	"github.com/tbourn/go-notify-backend/internal/services"
)

// closeFunc releases a storage backend.
type closeFunc func() error

// openChatState opens the configured chat-state backend. The returned
// closeFunc is never nil.
func openChatState(ctx context.Context, cfg config.Config) (services.ChatStateGateway, closeFunc, error) {
	switch cfg.ChatStateBackend {
	case config.ChatStateRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		state := repo.NewRedisChatState(client, cfg.Redis.Key)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := state.Ping(pingCtx); err != nil {
			_ = client.Close()
			return nil, noopClose, fmt.Errorf("redis ping %s: %w", cfg.Redis.Addr, err)
		}
		return state, client.Close, nil

	case config.ChatStateSQLite, "":
		db, err := repo.OpenSQLite(cfg.DBPath)
		if err != nil {
			return nil, noopClose, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, noopClose, err
		}
		if cfg.OTEL.Enabled {
			if err := repo.EnableTracing(db); err != nil {
				_ = sqlDB.Close()
				return nil, noopClose, fmt.Errorf("gorm tracing: %w", err)
			}
		}
		if err := repo.AutoMigrate(db); err != nil {
			_ = sqlDB.Close()
			return nil, noopClose, fmt.Errorf("migrate: %w", err)
		}
		return repo.NewSQLiteChatState(db), sqlDB.Close, nil
	}
	return nil, noopClose, fmt.Errorf("unknown chat state backend %q", cfg.ChatStateBackend)
}

func noopClose() error { return nil }

// webhookRegistrar is the part of the Bot API client used at startup.
type webhookRegistrar interface {
	SetWebhook(ctx context.Context, webhookURL, secret string, dropPending bool) error
}

// registerWebhook calls setWebhook when AUTO_SET_WEBHOOK is on. Failures are
// logged; the service keeps running and the webhook can be set by hand.
func registerWebhook(ctx context.Context, registrar webhookRegistrar, cfg config.Config, lg zerolog.Logger) {
	if !cfg.Telegram.AutoSetWebhook {
		return
	}
	webhookURL := cfg.WebhookURL()
	if webhookURL == "" {
		lg.Warn().Str("event", "telegram_webhook_skipped").Msg("PUBLIC_BASE_URL is empty")
		return
	}

	callCtx, cancel := context.WithTimeout(ctx, cfg.Telegram.HTTPTimeout+time.Second)
	defer cancel()
	err := registrar.SetWebhook(callCtx, webhookURL, cfg.Telegram.WebhookSecret, cfg.Telegram.DropPendingUpdates)

	switch {
	case errors.Is(err, bot.ErrorUnauthorized):
		lg.Error().Err(err).Str("event", "telegram_webhook_failed").Msg("telegram rejected the bot token")
	case err != nil:
		lg.Error().Err(err).Str("event", "telegram_webhook_failed").Msg("telegram_webhook_failed")
	default:
		lg.Info().Str("event", "telegram_webhook_set").Str("url", webhookURL).Msg("telegram_webhook_set")
	}
}
