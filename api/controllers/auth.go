package controllers

import (
	"net/http"

	"github.com/angelmondragon/storefront-core/api/responses"
	"github.com/angelmondragon/storefront-core/api/validators"
	"github.com/angelmondragon/storefront-core/internal/forms"
	"github.com/angelmondragon/storefront-core/pkg/logger"
)

// AuthSignUp registers an account with the shop. The session stays anonymous.
func AuthSignUp(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ok := requireScope(w, r, logg)
		if !ok {
			return
		}
		var form forms.SignUp
		if err := validators.DecodeJSONBody(w, r, &form); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		user, err := scope.SignUp(r.Context(), form)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, user)
	}
}

func AuthSignIn(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ok := requireScope(w, r, logg)
		if !ok {
			return
		}
		var form forms.SignIn
		if err := validators.DecodeJSONBody(w, r, &form); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		profile, err := scope.SignIn(r.Context(), form)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

func AuthMe(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ok := requireScope(w, r, logg)
		if !ok {
			return
		}
		user, err := scope.Me(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}

func AuthSignOut(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ok := requireScope(w, r, logg)
		if !ok {
			return
		}
		scope.SignOut(r.Context())
		responses.WriteNoContent(w)
	}
}
