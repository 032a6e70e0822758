// Package services – ports
//
// This file declares the collaborators the use cases depend on. Each port has
// one production adapter (rate limiter, request id provider, SMTP, Telegram,
// SQLite/Redis chat state, worker pool) and an in-memory double in tests.
package services

import (
	"context"
	"time"

	"github.com/tbourn/go-notify-backend/internal/domain"
)

// RateLimiter is a fixed-window counter keyed by string identity.
type RateLimiter interface {
	// Hit records an event for key and reports whether it is allowed.
	Hit(key string, window time.Duration, max int) bool
}

// RequestIDProvider returns the correlation id of the request carried by ctx,
// minting one when none is established.
type RequestIDProvider interface {
	NewID(ctx context.Context) string
}

// MailGateway delivers a contact submission by email.
type MailGateway interface {
	SendContactEmail(ctx context.Context, msg domain.ContactMessage, requestID string) error
}

// ChatStateGateway persists the last chat that talked to the bot.
type ChatStateGateway interface {
	// LastChatID returns the stored chat id; ok is false when none was captured.
	LastChatID(ctx context.Context) (id int64, ok bool, err error)
	SetLastChatID(ctx context.Context, id int64) error
}

// Notifier delivers a text message to a chat.
type Notifier interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Scheduler runs fn in the background without the caller waiting for it.
// The context handed to fn keeps the values of ctx but not its cancellation.
type Scheduler interface {
	Go(ctx context.Context, name string, fn func(ctx context.Context))
}
