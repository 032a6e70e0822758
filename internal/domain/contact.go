// Package domain defines the core value types of the notification backend:
// contact submissions, task execution requests, and the persisted chat state.
//
// Value types in this package fail closed: constructors validate and normalize
// their input and return a *ValidationError instead of a partially valid value.
package domain

import (
	"maps"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	maxNameRunes    = 120
	maxEmailLen     = 254
	maxMessageRunes = 5000
	maxMessageBytes = 15000
)

var emailRE = regexp.MustCompile("^[A-Za-z0-9.!#$%&'*+/=?^_`{|}~-]+@[A-Za-z0-9-]+(?:\\.[A-Za-z0-9-]+)+$")

// ValidationError reports a malformed field of an incoming value.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + " " + e.Message
}

func invalid(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Message: msg}
}

// EmailAddress is a trimmed, lowercased, syntactically valid address.
type EmailAddress struct {
	value string
}

// NewEmailAddress normalizes raw and checks it against a restricted
// RFC 5322 style pattern (at most 254 characters).
func NewEmailAddress(raw string) (EmailAddress, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case normalized == "":
		return EmailAddress{}, invalid("email", "is required")
	case len(normalized) > maxEmailLen:
		return EmailAddress{}, invalid("email", "is too long")
	case !emailRE.MatchString(normalized):
		return EmailAddress{}, invalid("email", "format is invalid")
	}
	return EmailAddress{value: normalized}, nil
}

// String returns the normalized address.
func (e EmailAddress) String() string { return e.value }

// ContactMessage is a validated contact form submission. Its maps are copied
// on the way in and on the way out, so callers never share mutable state.
type ContactMessage struct {
	name        string
	email       EmailAddress
	message     string
	meta        map[string]any
	attribution map[string]any
}

// NewContactMessage trims name and message and enforces:
//   - name: 1..120 characters
//   - message: 1..5000 characters and at most 15000 bytes of UTF-8
func NewContactMessage(name string, email EmailAddress, message string, meta, attribution map[string]any) (ContactMessage, error) {
	name = strings.TrimSpace(name)
	message = strings.TrimSpace(message)

	switch {
	case name == "":
		return ContactMessage{}, invalid("name", "is required")
	case utf8.RuneCountInString(name) > maxNameRunes:
		return ContactMessage{}, invalid("name", "is too long")
	case email.value == "":
		return ContactMessage{}, invalid("email", "is required")
	case message == "":
		return ContactMessage{}, invalid("message", "is required")
	case utf8.RuneCountInString(message) > maxMessageRunes:
		return ContactMessage{}, invalid("message", "is too long")
	case len(message) > maxMessageBytes:
		return ContactMessage{}, invalid("message", "is too large")
	}

	return ContactMessage{
		name:        name,
		email:       email,
		message:     message,
		meta:        cloneMap(meta),
		attribution: cloneMap(attribution),
	}, nil
}

func (c ContactMessage) Name() string        { return c.name }
func (c ContactMessage) Email() EmailAddress { return c.email }
func (c ContactMessage) Message() string     { return c.message }

// Meta returns a copy of the opaque client metadata.
func (c ContactMessage) Meta() map[string]any { return cloneMap(c.meta) }

// Attribution returns a copy of the attribution map (which carries the honeypot field).
func (c ContactMessage) Attribution() map[string]any { return cloneMap(c.attribution) }

// AttributionValue looks up a single attribution key without copying the map.
func (c ContactMessage) AttributionValue(key string) (any, bool) {
	v, ok := c.attribution[key]
	return v, ok
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return maps.Clone(m)
}
