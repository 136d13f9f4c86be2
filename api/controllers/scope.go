package controllers

import (
	"net/http"

	"github.com/angelmondragon/storefront-core/api/middleware"
	"github.com/angelmondragon/storefront-core/api/responses"
	"github.com/angelmondragon/storefront-core/internal/session"
	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
	"github.com/angelmondragon/storefront-core/pkg/logger"
)

// requireScope writes an error and returns false when the session middleware
// did not run.
func requireScope(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (*session.Scope, bool) {
	scope, ok := middleware.ScopeFromContext(r.Context())
	if !ok {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session scope missing"))
		return nil, false
	}
	return scope, true
}

// requireEmail also demands a signed-in session.
func requireEmail(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (*session.Scope, string, bool) {
	scope, ok := requireScope(w, r, logg)
	if !ok {
		return nil, "", false
	}
	email := scope.Email()
	if email == "" {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in required"))
		return nil, "", false
	}
	return scope, email, true
}
