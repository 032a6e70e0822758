// Package mail delivers contact submissions over SMTP.
//
// SMTPMailer opens one connection per message and walks the phases
// connect → starttls → login → send. Each phase is logged with the elapsed
// time so a failure log names the step that broke. Nothing is retried.
package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/unicode/norm"

	"github.com/tbourn/go-notify-backend/internal/domain"
)

// Field limits applied to the rendered email.
const (
	MaxRequestIDLen = 128
	MaxNameLen      = 256
	MaxMessageLen   = 6000
	MaxJSONLen      = 3000
)

// ErrNotConfigured is returned when no SMTP host or recipient is set.
var ErrNotConfigured = errors.New("smtp is not configured")

// Config holds SMTP connection settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	UseTLS   bool
	From     string
	To       string
	Timeout  time.Duration
}

// SMTPMailer implements the mail gateway over net/smtp.
type SMTPMailer struct {
	cfg Config
	log zerolog.Logger
	now func() time.Time
}

// NewSMTPMailer returns a mailer. Empty strings are trimmed; a zero timeout
// defaults to 20s.
func NewSMTPMailer(cfg Config, lg zerolog.Logger) *SMTPMailer {
	cfg.Host = strings.TrimSpace(cfg.Host)
	cfg.Username = strings.TrimSpace(cfg.Username)
	cfg.From = strings.TrimSpace(cfg.From)
	cfg.To = strings.TrimSpace(cfg.To)
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	return &SMTPMailer{cfg: cfg, log: lg, now: time.Now}
}

// Configured reports whether a host and recipient are set.
func (m *SMTPMailer) Configured() bool {
	return m.cfg.Host != "" && m.cfg.To != ""
}

// SendContactEmail renders msg and delivers it to the configured recipient.
func (m *SMTPMailer) SendContactEmail(ctx context.Context, msg domain.ContactMessage, requestID string) error {
	if !m.Configured() {
		return ErrNotConfigured
	}

	safeID := SafeText(requestID, MaxRequestIDLen)
	body := BuildMessage(m.cfg.From, m.cfg.To, msg, safeID, m.now())

	lg := m.log.With().
		Str("request_id", safeID).
		Str("smtp_to", m.cfg.To).
		Logger()
	lg.Info().
		Str("event", "smtp_send_start").
		Str("smtp_host", m.cfg.Host).
		Int("smtp_port", m.cfg.Port).
		Bool("smtp_tls_enabled", m.cfg.UseTLS).
		Bool("smtp_auth_enabled", m.cfg.Username != "").
		Msg("smtp_send_start")

	started := time.Now()
	phase, err := m.deliver(ctx, body)
	elapsed := float64(time.Since(started).Microseconds()) / 1000
	if err != nil {
		lg.Error().Err(err).
			Str("event", "smtp_send_failure").
			Str("phase", phase).
			Float64("duration_ms", elapsed).
			Msg("smtp_send_failure")
		return fmt.Errorf("smtp %s: %w", phase, err)
	}
	lg.Info().
		Str("event", "smtp_send_success").
		Float64("duration_ms", elapsed).
		Msg("smtp_send_success")
	return nil
}

// deliver runs the SMTP dialogue and returns the phase it stopped in.
func (m *SMTPMailer) deliver(ctx context.Context, body []byte) (string, error) {
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))

	dialCtx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()
	conn, err := (&net.Dialer{}).DialContext(dialCtx, "tcp", addr)
	if err != nil {
		return "connect", err
	}
	_ = conn.SetDeadline(time.Now().Add(m.cfg.Timeout))

	c, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return "connect", err
	}
	defer c.Close()

	if m.cfg.UseTLS {
		if err := c.StartTLS(&tls.Config{ServerName: m.cfg.Host, MinVersion: tls.VersionTLS12}); err != nil {
			return "starttls", err
		}
	}

	if m.cfg.Username != "" {
		if err := c.Auth(smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)); err != nil {
			return "login", err
		}
	}

	if err := c.Mail(m.cfg.From); err != nil {
		return "send", err
	}
	if err := c.Rcpt(m.cfg.To); err != nil {
		return "send", err
	}
	w, err := c.Data()
	if err != nil {
		return "send", err
	}
	if _, err := w.Write(body); err != nil {
		_ = w.Close()
		return "send", err
	}
	if err := w.Close(); err != nil {
		return "send", err
	}
	if err := c.Quit(); err != nil {
		return "send", err
	}
	return "send", nil
}

// BuildMessage renders the RFC 5322 message for a contact submission.
// requestID must already be sanitized.
func BuildMessage(from, to string, msg domain.ContactMessage, requestID string, now time.Time) []byte {
	lines := []string{
		"request_id: " + requestID,
		"name: " + SafeText(msg.Name(), MaxNameLen),
		"email: " + msg.Email().String(),
		"message: " + SafeText(msg.Message(), MaxMessageLen),
		"meta: " + SafeJSON(msg.Meta(), MaxJSONLen),
		"attribution: " + SafeJSON(msg.Attribution(), MaxJSONLen),
	}

	var b bytes.Buffer
	header := func(k, v string) { fmt.Fprintf(&b, "%s: %s\r\n", k, v) }
	header("From", from)
	header("To", to)
	header("Reply-To", msg.Email().String())
	header("Subject", mime.QEncoding.Encode("utf-8", "[Contact] New request #"+requestID))
	header("Date", now.Format(time.RFC1123Z))
	header("MIME-Version", "1.0")
	header("Content-Type", "text/plain; charset=UTF-8")
	header("Content-Transfer-Encoding", "8bit")
	b.WriteString("\r\n")
	b.WriteString(strings.Join(lines, "\r\n"))
	b.WriteString("\r\n")
	return b.Bytes()
}

// SafeText puts v on a single line and truncates it to max runes, appending
// "..." when cut.
func SafeText(v string, max int) string {
	s := norm.NFC.String(v)
	s = strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
	s = strings.TrimSpace(s)
	if r := []rune(s); len(r) > max {
		return string(r[:max]) + "..."
	}
	return s
}

// SafeJSON renders v as compact JSON and applies SafeText.
func SafeJSON(v any, max int) string {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return SafeText(fmt.Sprint(v), max)
	}
	return SafeText(b.String(), max)
}
