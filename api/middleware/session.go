package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/storefront-core/api/responses"
	"github.com/angelmondragon/storefront-core/internal/session"
	"github.com/angelmondragon/storefront-core/pkg/logger"
)

// SessionHeader carries the client's session id in both directions.
const SessionHeader = "X-Session-ID"

type scopeProvider interface {
	Get(ctx context.Context, id string) (*session.Scope, error)
}

// Session resolves the X-Session-ID header to a store scope. Requests without
// a usable id get a fresh one, echoed back in the response header.
func Session(registry scopeProvider, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(SessionHeader))
			if !session.ValidID(id) {
				id = session.NewID()
			}
			w.Header().Set(SessionHeader, id)

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithSessionID(ctx, id)
			}
			scope, err := registry.Get(ctx, id)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			if email := scope.Email(); email != "" && logg != nil {
				ctx = logg.WithEmail(ctx, email)
			}

			next.ServeHTTP(w, r.WithContext(WithScope(ctx, scope)))
		})
	}
}
