// Telegram HTTP handlers.
//
// The webhook captures the chat that last wrote to the bot; tasks report to
// that chat. GET /telegram/last_chat exposes it for operators.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-notify-backend/internal/services"
)

// TelegramSecretHeader carries the secret registered with setWebhook.
const TelegramSecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// WebhookResponse acknowledges an update. ChatID is null when the update
// carried no chat.
type WebhookResponse struct {
	OK     bool   `json:"ok" example:"true"`
	ChatID *int64 `json:"chat_id" example:"123456789"`
}

// LastChatResponse is the body of GET /telegram/last_chat.
type LastChatResponse struct {
	LastChatID *int64 `json:"last_chat_id" example:"123456789"`
}

// TelegramWebhook godoc
// @ID          telegramWebhook
// @Summary     Telegram bot webhook
// @Description Stores the chat id of the update so task notifications can reach it.
// @Tags        Telegram
// @Accept      json
// @Produce     json
// @Param       X-Telegram-Bot-Api-Secret-Token  header  string  false  "Webhook secret"
// @Param       body  body  services.TelegramUpdate  true  "Telegram update"
// @Success     200  {object}  handlers.WebhookResponse
// @Failure     403  {object}  handlers.ErrorResponse  "Invalid webhook secret"
// @Failure     422  {object}  handlers.ErrorResponse  "Malformed update"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal server error"
// @Router      /telegram/webhook [post]
func (h *Handlers) TelegramWebhook(c *gin.Context) {
	secret := c.GetHeader(TelegramSecretHeader)
	if err := h.telegram.VerifySecret(secret); err != nil {
		fail(c, http.StatusForbidden, ErrCodeForbidden, err.Error())
		return
	}

	var update services.TelegramUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		failValidation(c, err)
		return
	}

	chatID, found, err := h.telegram.HandleUpdate(c.Request.Context(), update, secret)
	switch {
	case errors.Is(err, services.ErrInvalidWebhookSecret):
		fail(c, http.StatusForbidden, ErrCodeForbidden, err.Error())
		return
	case err != nil:
		failInternal(c, "telegram_webhook_failed", err)
		return
	}

	resp := WebhookResponse{OK: true}
	if found {
		resp.ChatID = &chatID
	}
	ok(c, http.StatusOK, resp)
}

// LastChat godoc
// @ID          telegramLastChat
// @Summary     Last captured Telegram chat
// @Tags        Telegram
// @Produce     json
// @Success     200  {object}  handlers.LastChatResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal server error"
// @Router      /telegram/last_chat [get]
func (h *Handlers) LastChat(c *gin.Context) {
	id, found, err := h.telegram.LastChat(c.Request.Context())
	if err != nil {
		failInternal(c, "telegram_last_chat_failed", err)
		return
	}
	var resp LastChatResponse
	if found {
		resp.LastChatID = &id
	}
	ok(c, http.StatusOK, resp)
}
