package controllers

import (
	"net/http"

	"github.com/angelmondragon/storefront-core/api/middleware"
	"github.com/angelmondragon/storefront-core/api/responses"
)

func PublicPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"scope": "public", "status": "ok"})
	}
}

// SessionPing echoes the resolved session, letting clients obtain an id.
func SessionPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{"scope": "session", "status": "ok"}
		if scope, ok := middleware.ScopeFromContext(r.Context()); ok {
			payload["session_id"] = scope.ID
			payload["signed_in"] = scope.SignedIn()
		}
		responses.WriteSuccess(w, payload)
	}
}
