// Package services – SubmitContactService
//
// This file implements the contact submission use case: honeypot check,
// per-endpoint/per-client rate limiting, and request id issuance. It does not
// send mail; the HTTP layer schedules SendMailService once Submit succeeds.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-notify-backend/internal/domain"
	"github.com/tbourn/go-notify-backend/internal/observability"
	"github.com/tbourn/go-notify-backend/internal/requestid"
)

// StatusAccepted is the status of every successful submission.
const StatusAccepted = "accepted"

// SubmitContactResult is returned by a successful submission.
type SubmitContactResult struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}

// SubmitContactService validates that a contact submission may be accepted.
type SubmitContactService struct {
	Limiter    RateLimiter
	RequestIDs RequestIDProvider
	Log        zerolog.Logger

	// HoneypotField is the attribution key legitimate clients leave empty.
	HoneypotField string
	// RateWindow and RateMax bound submissions per endpoint and client.
	RateWindow time.Duration
	RateMax    int
}

// Submit runs, in order: honeypot check, rate limit, request id issuance.
//
// Errors:
//   - ErrHoneypotTriggered when the honeypot field holds a non-blank value
//     (checked before the limiter, so spam never consumes budget).
//   - ErrRateLimitExceeded when endpointKey:clientID is over budget.
func (s *SubmitContactService) Submit(ctx context.Context, msg domain.ContactMessage, clientID, endpointKey, successMessage string) (SubmitContactResult, error) {
	ctx, span := observability.Tracer("services/SubmitContactService").Start(ctx, "Submit",
		trace.WithAttributes(attribute.String("contact.endpoint", endpointKey)),
	)
	defer span.End()

	lg := s.Log.With().
		Str("endpoint", endpointKey).
		Str("client_identifier", clientID).
		Logger()

	if s.honeypotFilled(msg) {
		// never log the honeypot value itself
		lg.Warn().Str("request_id", requestid.FromContext(ctx)).Str("event", "honeypot_triggered").Msg("honeypot_triggered")
		observability.ContactSubmissions.WithLabelValues(endpointKey, observability.OutcomeHoneypot).Inc()
		return SubmitContactResult{}, ErrHoneypotTriggered
	}

	if !s.Limiter.Hit(endpointKey+":"+clientID, s.RateWindow, s.RateMax) {
		lg.Warn().Str("request_id", requestid.FromContext(ctx)).Str("event", "rate_limit_exceeded").Msg("rate_limit_exceeded")
		observability.ContactSubmissions.WithLabelValues(endpointKey, observability.OutcomeRateLimited).Inc()
		return SubmitContactResult{}, ErrRateLimitExceeded
	}

	rid := s.RequestIDs.NewID(ctx)
	lg.Info().Str("event", "contact_accepted").Str("request_id", rid).Msg("contact_accepted")
	observability.ContactSubmissions.WithLabelValues(endpointKey, observability.OutcomeAccepted).Inc()

	return SubmitContactResult{
		RequestID: rid,
		Status:    StatusAccepted,
		Message:   successMessage,
	}, nil
}

// honeypotFilled coerces the honeypot attribution value to a trimmed string.
func (s *SubmitContactService) honeypotFilled(msg domain.ContactMessage) bool {
	field := strings.TrimSpace(s.HoneypotField)
	if field == "" {
		return false
	}
	raw, ok := msg.AttributionValue(field)
	if !ok || raw == nil {
		return false
	}
	var v string
	switch t := raw.(type) {
	case string:
		v = t
	default:
		v = fmt.Sprint(t)
	}
	return strings.TrimSpace(v) != ""
}
