// Package requestid carries the per-request correlation identifier through an
// explicit context.Context and mints new identifiers when none is present.
//
// The HTTP layer stores the incoming (or generated) X-Request-ID with WithID;
// use cases ask a Provider for the id of the request they are serving.
package requestid

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey struct{}

// WithID returns a copy of ctx carrying id. An empty id leaves ctx unchanged.
func WithID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the id stored in ctx, or "" when there is none.
func FromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// Provider issues correlation ids. The zero value is ready to use and mints
// random UUIDv4 values.
type Provider struct {
	// Generate overrides the fallback generator (tests).
	Generate func() string
}

// NewID returns the id already established for ctx, or a fresh one.
// It never fails.
func (p Provider) NewID(ctx context.Context) string {
	if id := FromContext(ctx); id != "" {
		return id
	}
	if p.Generate != nil {
		return p.Generate()
	}
	return uuid.NewString()
}
