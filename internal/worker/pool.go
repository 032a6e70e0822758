// Package worker runs fire-and-forget background jobs (mail delivery, task
// runs) and lets the server drain them on shutdown.
package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-notify-backend/internal/observability"
	"github.com/tbourn/go-notify-backend/internal/requestid"
)

// ErrDrainTimeout is returned by Wait when jobs are still running at the deadline.
var ErrDrainTimeout = errors.New("background jobs still running at drain deadline")

// Pool spawns one goroutine per job and tracks them until they finish.
// The zero value is not usable; use NewPool.
type Pool struct {
	wg       sync.WaitGroup
	inflight atomic.Int64
	log      zerolog.Logger
}

// NewPool returns an empty pool.
func NewPool(lg zerolog.Logger) *Pool {
	return &Pool{log: lg}
}

// Go runs fn in a new goroutine. fn receives a context that keeps the values
// of ctx (request id, trace span) but is not cancelled when ctx is, so work
// scheduled from a request outlives the response. Panics are recovered and
// logged.
func (p *Pool) Go(ctx context.Context, name string, fn func(ctx context.Context)) {
	jobCtx := context.WithoutCancel(ctx)

	p.wg.Add(1)
	p.inflight.Add(1)
	observability.BackgroundJobsInflight.Inc()

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				p.log.Error().
					Str("event", "background_job_panic").
					Str("job", name).
					Str("request_id", requestid.FromContext(jobCtx)).
					Interface("panic", rec).
					Msg("background_job_panic")
			}
			observability.BackgroundJobsInflight.Dec()
			p.inflight.Add(-1)
			p.wg.Done()
		}()
		fn(jobCtx)
	}()
}

// Inflight returns the number of jobs currently running.
func (p *Pool) Inflight() int64 { return p.inflight.Load() }

// Wait blocks until every job finished or ctx is done. It returns
// ErrDrainTimeout when jobs were abandoned.
func (p *Pool) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		p.log.Warn().
			Str("event", "background_drain_timeout").
			Int64("inflight", p.Inflight()).
			Msg("background_drain_timeout")
		return ErrDrainTimeout
	}
}
