// Package ctxutil carries request-scoped values through context.
// It has no internal dependencies so any package may import it.
package ctxutil

import (
	"context"
	"strings"
)

// ActorKey is the context key for the acting user or process.
type ActorKey struct{}

// WithActorID returns a context naming the actor recorded on movement events.
// Blank actors are ignored.
func WithActorID(ctx context.Context, actorID string) context.Context {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return ctx
	}
	return context.WithValue(ctx, ActorKey{}, actorID)
}

// ActorFromContext returns the actor ID from context, or empty string if not set.
func ActorFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ActorKey{}).(string); ok {
		return v
	}
	return ""
}
