package services

import (
	"context"
	"sync"
	"time"

	"github.com/tbourn/go-notify-backend/internal/domain"
)

// ---- in-memory doubles, one per port ----

type hitCall struct {
	key    string
	window time.Duration
	max    int
}

type fakeLimiter struct {
	allowed bool
	calls   []hitCall
}

func (f *fakeLimiter) Hit(key string, window time.Duration, max int) bool {
	f.calls = append(f.calls, hitCall{key, window, max})
	return f.allowed
}

type fakeIDs struct{ id string }

func (f fakeIDs) NewID(context.Context) string { return f.id }

type mailCall struct {
	msg       domain.ContactMessage
	requestID string
}

type fakeMailer struct {
	err   error
	calls []mailCall
}

func (f *fakeMailer) SendContactEmail(_ context.Context, msg domain.ContactMessage, requestID string) error {
	f.calls = append(f.calls, mailCall{msg, requestID})
	return f.err
}

type memoryChatState struct {
	mu      sync.Mutex
	id      *int64
	getErr  error
	setErr  error
	setArgs []int64
}

func (m *memoryChatState) LastChatID(context.Context) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return 0, false, m.getErr
	}
	if m.id == nil {
		return 0, false, nil
	}
	return *m.id, true, nil
}

func (m *memoryChatState) SetLastChatID(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setArgs = append(m.setArgs, id)
	if m.setErr != nil {
		return m.setErr
	}
	m.id = &id
	return nil
}

type sentMessage struct {
	chatID int64
	text   string
}

type fakeNotifier struct {
	mu   sync.Mutex
	err  error
	sent []sentMessage
}

func (f *fakeNotifier) SendMessage(_ context.Context, chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{chatID, text})
	return f.err
}

func int64Ptr(v int64) *int64       { return &v }
func float64Ptr(v float64) *float64 { return &v }
func intPtr(v int) *int             { return &v }
func strPtr(v string) *string       { return &v }
