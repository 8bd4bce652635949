// Package requestcontext carries request-scoped values (correlation ID,
// client metadata, authenticated actor) through context so handlers, services,
// and audit sinks agree on them without plumbing extra parameters.
package requestcontext

import (
	"context"

	"metasignet/pkg/domain"
)

type contextKeyRequestID struct{}
type contextKeyClientMetadata struct{}
type contextKeyActor struct{}

// ClientMetadata describes the calling client as seen at the HTTP edge.
type ClientMetadata struct {
	IP        string
	UserAgent string
	// Device is a coarse family derived from the user agent ("browser",
	// "mobile", "bot", "cli"). Used for audit enrichment only.
	Device string
}

// WithRequestID stores a correlation ID in the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKeyRequestID{}, id)
}

// RequestID returns the correlation ID, or "" outside an HTTP request.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(contextKeyRequestID{}).(string); ok {
		return id
	}
	return ""
}

// WithClientMetadata stores client metadata in the context.
func WithClientMetadata(ctx context.Context, meta ClientMetadata) context.Context {
	return context.WithValue(ctx, contextKeyClientMetadata{}, meta)
}

// GetClientMetadata returns the client metadata, zero-valued when absent.
func GetClientMetadata(ctx context.Context) ClientMetadata {
	if meta, ok := ctx.Value(contextKeyClientMetadata{}).(ClientMetadata); ok {
		return meta
	}
	return ClientMetadata{}
}

// WithActor stores the authenticated actor identity in the context.
func WithActor(ctx context.Context, actor domain.ActorID) context.Context {
	return context.WithValue(ctx, contextKeyActor{}, actor)
}

// Actor returns the authenticated actor, zero-valued when unauthenticated.
func Actor(ctx context.Context) domain.ActorID {
	if actor, ok := ctx.Value(contextKeyActor{}).(domain.ActorID); ok {
		return actor
	}
	return ""
}
