package requestcontext

import (
	"context"
	"time"
)

type contextKeyRequestTime struct{}

// WithTime injects a specific time into a context. Useful for service unit
// tests that skip the HTTP middleware chain, and for CLI commands.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, contextKeyRequestTime{}, t)
}

// Now retrieves the request-scoped time from context so every operation
// within one request observes the same "now". Falls back to time.Now()
// outside an HTTP request.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(contextKeyRequestTime{}).(time.Time); ok {
		return t
	}
	return time.Now()
}
