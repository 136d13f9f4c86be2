package middleware

import (
	"context"

	"github.com/angelmondragon/storefront-core/internal/session"
)

type contextKey string

const (
	ctxScope     contextKey = "session_scope"
	ctxSessionID contextKey = "session_id"
)

// ScopeFromContext returns the session scope attached by Session.
func ScopeFromContext(ctx context.Context) (*session.Scope, bool) {
	if ctx == nil {
		return nil, false
	}
	scope, ok := ctx.Value(ctxScope).(*session.Scope)
	return scope, ok && scope != nil
}

func SessionIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxSessionID).(string); ok {
		return v
	}
	return ""
}

// WithScope injects the session scope into the context.
func WithScope(ctx context.Context, scope *session.Scope) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxSessionID, scope.ID)
	return context.WithValue(ctx, ctxScope, scope)
}
