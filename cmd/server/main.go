// Command server runs the notification backend: contact form intake with
// email delivery, and simulated tasks that report to Telegram.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	_ "github.com/tbourn/go-notify-backend/docs"
	"github.com/tbourn/go-notify-backend/internal/config"
	httpapi "github.com/tbourn/go-notify-backend/internal/http"
	"github.com/tbourn/go-notify-backend/internal/mail"
	"github.com/tbourn/go-notify-backend/internal/observability"
	"github.com/tbourn/go-notify-backend/internal/ratelimit"
	"github.com/tbourn/go-notify-backend/internal/requestid"
	"github.com/tbourn/go-notify-backend/internal/services"
	"github.com/tbourn/go-notify-backend/internal/sysutil"
	"github.com/tbourn/go-notify-backend/internal/telegram"
	"github.com/tbourn/go-notify-backend/internal/worker"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// @title        go-notify-backend API
// @version      1.0
// @description  Contact form intake and Telegram task notifications.
// @BasePath     /
func main() {
	// A missing .env is fine; real environment variables win.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	log.Logger = sysutil.NewLogger(os.Stdout, cfg.LogPretty, cfg.OTEL.ServiceName)
	sysutil.SetLogLevel(cfg.LogLevel)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log.Logger); err != nil {
		log.Fatal().Err(err).Msg("server_exit")
	}
}

func run(ctx context.Context, cfg config.Config, lg zerolog.Logger) error {
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(flushCtx); err != nil {
			lg.Warn().Err(err).Msg("otel_shutdown_failed")
		}
	}()

	chats, closeChats, err := openChatState(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeChats(); err != nil {
			lg.Warn().Err(err).Msg("chat_state_close_failed")
		}
	}()

	mailer := mail.NewSMTPMailer(mail.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		UseTLS:   cfg.SMTP.UseTLS,
		From:     sysutil.FirstNonEmpty(cfg.SMTP.From, cfg.SMTP.Username),
		To:       cfg.SMTP.To,
		Timeout:  cfg.SMTP.Timeout,
	}, lg.With().Str("component", "smtp").Logger())
	if !mailer.Configured() {
		lg.Warn().Msg("smtp not configured: contact submissions are accepted but not emailed")
	}

	bot, err := telegram.NewClient(cfg.Telegram.APIBaseURL, cfg.Telegram.Token, cfg.Telegram.HTTPTimeout)
	if err != nil {
		return err
	}
	registerWebhook(ctx, bot, cfg, lg)

	pool := worker.NewPool(lg.With().Str("component", "worker").Logger())

	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{
		Contact: &services.SubmitContactService{
			Limiter:       ratelimit.NewWindow(),
			RequestIDs:    requestid.Provider{},
			Log:           lg,
			HoneypotField: cfg.Contact.HoneypotField,
			RateWindow:    cfg.Contact.RateLimitWindow,
			RateMax:       cfg.Contact.RateLimitMax,
		},
		Mail:     &services.SendMailService{Mailer: mailer, Log: lg},
		Tasks:    services.NewStartTaskService(chats, bot, lg, cfg.Telegram.RepositoryName, cfg.Telegram.FallbackChatID),
		Telegram: &services.TelegramWebhookService{ChatState: chats, Log: lg, Secret: cfg.Telegram.WebhookSecret},
		Jobs:     pool,
	}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		lg.Info().Str("addr", srv.Addr).Str("version", version).Msg("server_listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	lg.Info().Msg("server_shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error().Err(err).Msg("http_shutdown_failed")
	}

	drainCtx, cancelDrain := context.WithTimeout(context.Background(), cfg.BackgroundDrainTimeout)
	defer cancelDrain()
	if err := pool.Wait(drainCtx); err != nil {
		lg.Warn().Err(err).Int64("inflight", pool.Inflight()).Msg("background_jobs_abandoned")
	}

	lg.Info().Msg("server_exited")
	return nil
}
