// Package services defines the use cases of the notification backend: contact
// submission, mail delivery, task start/notification, and Telegram webhook
// handling. This file centralizes service-level error values so that they can
// be returned by service methods and checked by callers.
//
// Translation into HTTP status codes is performed at the handler layer.
package services

import "errors"

// Contact submission errors.
var (
	// ErrHoneypotTriggered indicates that the hidden honeypot field was filled,
	// which only automated clients do.
	ErrHoneypotTriggered = errors.New("honeypot triggered")

	// ErrRateLimitExceeded is returned when a client exceeded the submission
	// budget of an endpoint within the configured window.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// Task and Telegram errors.
var (
	// ErrLastChatNotAvailable is returned when no chat id was ever captured
	// from the bot and no fallback chat id is configured.
	ErrLastChatNotAvailable = errors.New("last chat id is not available: message the bot first or set TELEGRAM_CHAT_ID")

	// ErrInvalidWebhookSecret is returned when a webhook call does not carry
	// the configured secret token.
	ErrInvalidWebhookSecret = errors.New("invalid webhook secret")
)

// errForcedFailure is raised by the task body when the request asked for it.
var errForcedFailure = errors.New("forced failure requested")

// MailDeliveryError wraps a mail transport failure. The transport error is
// kept as the cause.
type MailDeliveryError struct {
	RequestID string
	Err       error
}

func (e *MailDeliveryError) Error() string {
	if e.Err == nil {
		return "mail delivery failed"
	}
	return "mail delivery failed: " + e.Err.Error()
}

// Unwrap exposes the transport error to errors.Is / errors.As.
func (e *MailDeliveryError) Unwrap() error { return e.Err }
