// Package telegram adapts the go-telegram/bot client to the notifier port:
// sendMessage for task notifications and setWebhook for startup registration.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-telegram/bot"
)

// DefaultBaseURL is the public Bot API endpoint.
const DefaultBaseURL = "https://api.telegram.org"

// ErrNoToken is returned when the client has no bot token.
var ErrNoToken = errors.New("telegram bot token is not configured")

// Client calls the Bot API. A Client without a token fails every call with
// ErrNoToken so the service can run without Telegram configured.
type Client struct {
	BaseURL string
	Timeout time.Duration

	token string
	api   *bot.Bot
}

// NewClient returns a client with a bounded HTTP timeout. baseURL must be an
// absolute http(s) URL; an empty one selects DefaultBaseURL.
func NewClient(baseURL, token string, timeout time.Duration) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("telegram api base url %q is not an absolute http(s) url", baseURL)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{BaseURL: baseURL, Timeout: timeout, token: strings.TrimSpace(token)}
	if c.token == "" {
		return c, nil
	}

	api, err := bot.New(c.token,
		bot.WithServerURL(baseURL),
		bot.WithHTTPClient(timeout, &http.Client{Timeout: timeout}),
		bot.WithSkipGetMe(),
	)
	if err != nil {
		return nil, c.redact("init", err)
	}
	c.api = api
	return c, nil
}

// SendMessage posts text to chatID.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	if c.api == nil {
		return ErrNoToken
	}
	_, err := c.api.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	return c.redact("sendMessage", err)
}

// SetWebhook registers webhookURL with the Bot API. secret, when set, is echoed by
// Telegram in the X-Telegram-Bot-Api-Secret-Token header of every update.
func (c *Client) SetWebhook(ctx context.Context, webhookURL, secret string, dropPending bool) error {
	if c.api == nil {
		return ErrNoToken
	}
	_, err := c.api.SetWebhook(ctx, &bot.SetWebhookParams{
		URL:                webhookURL,
		SecretToken:        secret,
		DropPendingUpdates: dropPending,
	})
	return c.redact("setWebhook", err)
}

// redact prefixes err with the method and removes the bot token, which the
// library embeds in request URLs. Sentinels such as bot.ErrorBadRequest stay
// reachable through errors.Is.
func (c *Client) redact(method string, err error) error {
	if err == nil {
		return nil
	}
	var uerr *url.Error
	if errors.As(err, &uerr) {
		err = uerr.Err
	}
	return &Error{Method: method, msg: strings.ReplaceAll(err.Error(), c.token, "<token>"), err: err}
}

// Error is a failed Bot API call with the token scrubbed from its text.
type Error struct {
	Method string
	msg    string
	err    error
}

func (e *Error) Error() string { return "telegram " + e.Method + ": " + e.msg }

// Unwrap exposes the library error to errors.Is / errors.As.
func (e *Error) Unwrap() error { return e.err }
