package services

import (
	"context"
	"crypto/subtle"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-notify-backend/internal/requestid"
)

// TelegramChat is the chat object of a Telegram update.
type TelegramChat struct {
	ID   int64  `json:"id"`
	Type string `json:"type,omitempty"`
}

// TelegramMessage is the subset of a Telegram message the webhook reads.
type TelegramMessage struct {
	MessageID int64         `json:"message_id"`
	Chat      *TelegramChat `json:"chat,omitempty"`
	Text      string        `json:"text,omitempty"`
}

// TelegramCallbackQuery carries the message an inline button was attached to.
type TelegramCallbackQuery struct {
	ID      string           `json:"id"`
	Message *TelegramMessage `json:"message,omitempty"`
}

// TelegramUpdate is the subset of a Bot API update the webhook reads.
type TelegramUpdate struct {
	UpdateID          int64                  `json:"update_id"`
	Message           *TelegramMessage       `json:"message,omitempty"`
	EditedMessage     *TelegramMessage       `json:"edited_message,omitempty"`
	ChannelPost       *TelegramMessage       `json:"channel_post,omitempty"`
	EditedChannelPost *TelegramMessage       `json:"edited_channel_post,omitempty"`
	CallbackQuery     *TelegramCallbackQuery `json:"callback_query,omitempty"`
}

// ChatID returns the chat the update originates from, if any.
func (u TelegramUpdate) ChatID() (int64, bool) {
	candidates := []*TelegramMessage{u.Message, u.EditedMessage, u.ChannelPost, u.EditedChannelPost}
	if u.CallbackQuery != nil {
		candidates = append(candidates, u.CallbackQuery.Message)
	}
	for _, m := range candidates {
		if m != nil && m.Chat != nil {
			return m.Chat.ID, true
		}
	}
	return 0, false
}

// TelegramWebhookService captures the chat that last talked to the bot so
// tasks know where to report.
type TelegramWebhookService struct {
	ChatState ChatStateGateway
	Log       zerolog.Logger

	// Secret, when non-empty, must match the X-Telegram-Bot-Api-Secret-Token header.
	Secret string
}

// HandleUpdate verifies the secret and persists the update's chat id.
// The returned ok is false when the update carries no chat.
func (s *TelegramWebhookService) HandleUpdate(ctx context.Context, update TelegramUpdate, secret string) (chatID int64, ok bool, err error) {
	if err := s.VerifySecret(secret); err != nil {
		return 0, false, err
	}

	chatID, ok = update.ChatID()
	if !ok {
		return 0, false, nil
	}
	if err := s.ChatState.SetLastChatID(ctx, chatID); err != nil {
		return 0, false, fmt.Errorf("store last chat id: %w", err)
	}
	s.Log.Info().
		Str("request_id", requestid.FromContext(ctx)).
		Str("event", "telegram_chat_captured").
		Int64("chat_id", chatID).
		Int64("update_id", update.UpdateID).
		Msg("telegram_chat_captured")
	return chatID, true, nil
}

// VerifySecret returns ErrInvalidWebhookSecret when a secret is configured
// and the presented one does not match it.
func (s *TelegramWebhookService) VerifySecret(secret string) error {
	if s.Secret != "" && subtle.ConstantTimeCompare([]byte(s.Secret), []byte(secret)) != 1 {
		return ErrInvalidWebhookSecret
	}
	return nil
}

// LastChat returns the stored chat id; ok is false when none is known.
func (s *TelegramWebhookService) LastChat(ctx context.Context) (int64, bool, error) {
	return s.ChatState.LastChatID(ctx)
}
