package services

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-notify-backend/internal/domain"
	"github.com/tbourn/go-notify-backend/internal/observability"
)

// SendMailService delivers an accepted contact submission through the mail
// gateway. It makes a single attempt and never retries.
type SendMailService struct {
	Mailer MailGateway
	Log    zerolog.Logger
}

// Execute sends msg and wraps any transport failure in *MailDeliveryError.
func (s *SendMailService) Execute(ctx context.Context, msg domain.ContactMessage, requestID string) error {
	if err := s.Mailer.SendContactEmail(ctx, msg, requestID); err != nil {
		s.Log.Error().
			Err(err).
			Str("event", "mail_delivery_failed").
			Str("request_id", requestID).
			Msg("mail_delivery_failed")
		observability.MailDeliveries.WithLabelValues(observability.OutcomeFailed).Inc()
		return &MailDeliveryError{RequestID: requestID, Err: err}
	}
	observability.MailDeliveries.WithLabelValues(observability.OutcomeSent).Inc()
	return nil
}
