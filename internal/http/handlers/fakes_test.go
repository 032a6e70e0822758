package handlers

import (
	"context"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-notify-backend/internal/domain"
	"github.com/tbourn/go-notify-backend/internal/http/middleware"
	"github.com/tbourn/go-notify-backend/internal/requestid"
	"github.com/tbourn/go-notify-backend/internal/services"
)

type stubContact struct {
	fn    func(ctx context.Context, msg domain.ContactMessage, clientID, endpointKey, successMessage string) (services.SubmitContactResult, error)
	calls int
}

func (s *stubContact) Submit(ctx context.Context, msg domain.ContactMessage, clientID, endpointKey, successMessage string) (services.SubmitContactResult, error) {
	s.calls++
	return s.fn(ctx, msg, clientID, endpointKey, successMessage)
}

type stubMail struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (s *stubMail) Execute(_ context.Context, msg domain.ContactMessage, requestID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, requestID+":"+msg.Email().String())
	return s.err
}

type stubTasks struct {
	start func(ctx context.Context, req domain.TaskExecutionRequest) (domain.StartedTask, error)
	got   domain.TaskExecutionRequest
	ran   []domain.StartedTask
}

func (s *stubTasks) Start(ctx context.Context, req domain.TaskExecutionRequest) (domain.StartedTask, error) {
	s.got = req
	return s.start(ctx, req)
}

func (s *stubTasks) RunAndNotify(_ context.Context, task domain.StartedTask) {
	s.ran = append(s.ran, task)
}

// recordingScheduler keeps jobs until run is called.
type recordingScheduler struct {
	names []string
	jobs  []func(context.Context)
	ctxs  []context.Context
}

func (r *recordingScheduler) Go(ctx context.Context, name string, fn func(context.Context)) {
	r.names = append(r.names, name)
	r.jobs = append(r.jobs, fn)
	r.ctxs = append(r.ctxs, context.WithoutCancel(ctx))
}

func (r *recordingScheduler) run() {
	for i, fn := range r.jobs {
		fn(r.ctxs[i])
	}
}

type deps struct {
	contact  *stubContact
	mail     *stubMail
	tasks    *stubTasks
	telegram services.TelegramWebhookService
	chats    *memoryChats
	jobs     *recordingScheduler
}

// memoryChats is a ChatStateGateway for the real webhook service.
type memoryChats struct {
	id     int64
	ok     bool
	setErr error
	getErr error
}

func (m *memoryChats) LastChatID(context.Context) (int64, bool, error) {
	return m.id, m.ok, m.getErr
}

func (m *memoryChats) SetLastChatID(_ context.Context, id int64) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.id, m.ok = id, true
	return nil
}

func newDeps() *deps {
	d := &deps{
		contact: &stubContact{fn: func(ctx context.Context, _ domain.ContactMessage, _, _, successMessage string) (services.SubmitContactResult, error) {
			return services.SubmitContactResult{RequestID: requestid.FromContext(ctx), Status: services.StatusAccepted, Message: successMessage}, nil
		}},
		mail:  &stubMail{},
		tasks: &stubTasks{},
		chats: &memoryChats{},
		jobs:  &recordingScheduler{},
	}
	d.telegram = services.TelegramWebhookService{ChatState: d.chats, Log: zerolog.Nop()}
	return d
}

func (d *deps) router() *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := New(d.contact, d.mail, d.tasks, &d.telegram, d.jobs)

	r := gin.New()
	r.Use(middleware.RequestID())
	r.GET("/health", h.Health)
	r.POST("/contact", h.SubmitContact)
	r.POST("/mail", h.SubmitMail)
	r.POST("/tasks/start", h.StartTask)
	r.POST("/telegram/webhook", h.TelegramWebhook)
	r.GET("/telegram/last_chat", h.LastChat)
	return r
}
