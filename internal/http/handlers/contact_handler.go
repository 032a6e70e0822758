// Contact HTTP handlers.
//
// This file exposes the two contact form endpoints:
//   - POST /contact
//   - POST /mail
//
// Both accept the same payload and differ only in their rate-limit bucket and
// confirmation message. Mail is sent in the background after the 202.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-notify-backend/internal/domain"
	"github.com/tbourn/go-notify-backend/internal/http/middleware"
	"github.com/tbourn/go-notify-backend/internal/services"
)

// Endpoint keys and confirmation messages of the contact routes.
const (
	EndpointContact = "contact"
	EndpointMail    = "mail"

	msgContactAccepted = "Contact request accepted for processing"
	msgMailAccepted    = "Mail request accepted for processing"
)

// ContactRequest is the JSON payload of the contact endpoints. Meta and
// Attribution are free-form; Attribution carries the honeypot field.
type ContactRequest struct {
	Name        string         `json:"name" binding:"required" example:"Jane Doe"`
	Email       string         `json:"email" binding:"required" example:"jane@example.com"`
	Message     string         `json:"message" binding:"required" example:"I'd like a quote."`
	Meta        map[string]any `json:"meta,omitempty" swaggertype:"object"`
	Attribution map[string]any `json:"attribution,omitempty" swaggertype:"object"`
}

func (r ContactRequest) toDomain() (domain.ContactMessage, error) {
	email, err := domain.NewEmailAddress(r.Email)
	if err != nil {
		return domain.ContactMessage{}, err
	}
	return domain.NewContactMessage(r.Name, email, r.Message, r.Meta, r.Attribution)
}

// SubmitContact godoc
// @ID          submitContact
// @Summary     Submit the contact form
// @Description Validates the submission, applies the honeypot and per-client rate limit, and emails it in the background.
// @Tags        Contact
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.ContactRequest  true  "Contact submission"
// @Success     202  {object}  services.SubmitContactResult
// @Failure     400  {object}  handlers.ErrorResponse  "Honeypot triggered"
// @Failure     422  {object}  handlers.ErrorResponse  "Validation error"
// @Failure     429  {object}  handlers.ErrorResponse  "Rate limit exceeded"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal server error"
// @Router      /contact [post]
func (h *Handlers) SubmitContact(c *gin.Context) {
	h.submit(c, EndpointContact, msgContactAccepted)
}

// SubmitMail godoc
// @ID          submitMail
// @Summary     Submit the mail form
// @Description Same contract as /contact with its own rate-limit bucket.
// @Tags        Contact
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.ContactRequest  true  "Contact submission"
// @Success     202  {object}  services.SubmitContactResult
// @Failure     400  {object}  handlers.ErrorResponse  "Honeypot triggered"
// @Failure     422  {object}  handlers.ErrorResponse  "Validation error"
// @Failure     429  {object}  handlers.ErrorResponse  "Rate limit exceeded"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal server error"
// @Router      /mail [post]
func (h *Handlers) SubmitMail(c *gin.Context) {
	h.submit(c, EndpointMail, msgMailAccepted)
}

func (h *Handlers) submit(c *gin.Context, endpointKey, successMessage string) {
	var req ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failValidation(c, err)
		return
	}
	msg, err := req.toDomain()
	if err != nil {
		failValidation(c, err)
		return
	}

	clientID := middleware.ClientIdentity(c)
	lg := middleware.LoggerFrom(c).With().
		Str("endpoint", endpointKey).
		Str("x_forwarded_for", middleware.ForwardedFor(c)).
		Logger()

	ctx := c.Request.Context()
	res, err := h.contact.Submit(ctx, msg, clientID, endpointKey, successMessage)
	switch {
	case errors.Is(err, services.ErrHoneypotTriggered):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	case errors.Is(err, services.ErrRateLimitExceeded):
		fail(c, http.StatusTooManyRequests, ErrCodeRateLimited, err.Error())
		return
	case err != nil:
		failInternal(c, "contact_unexpected_error", err)
		return
	}

	h.jobs.Go(ctx, "send_contact_email", func(ctx context.Context) {
		// failures are logged by the mail service
		_ = h.mail.Execute(ctx, msg, res.RequestID)
	})

	lg.Info().Str("event", "contact_mail_scheduled").Msg("contact_mail_scheduled")
	ok(c, http.StatusAccepted, res)
}
