package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/storefront-core/api/responses"
	"github.com/angelmondragon/storefront-core/api/validators"
	"github.com/angelmondragon/storefront-core/internal/preferences"
	"github.com/angelmondragon/storefront-core/pkg/logger"
)

type lastSearchBody struct {
	Term string `json:"term" validate:"max=120"`
}

type giftRequest struct {
	ProductID string `json:"productId" validate:"notblank"`
	Message   string `json:"message" validate:"max=500"`
}

func LastSearchGet(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ok := requireScope(w, r, logg)
		if !ok {
			return
		}
		responses.WriteSuccess(w, lastSearchBody{Term: scope.Preferences.LastSearch(r.Context())})
	}
}

func LastSearchPut(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ok := requireScope(w, r, logg)
		if !ok {
			return
		}
		var payload lastSearchBody
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := scope.Preferences.SetLastSearch(r.Context(), payload.Term); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, lastSearchBody{Term: scope.Preferences.LastSearch(r.Context())})
	}
}

// GiftGet answers null when no gift is selected.
func GiftGet(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ok := requireScope(w, r, logg)
		if !ok {
			return
		}
		gift, found := scope.Preferences.Gift(r.Context())
		if !found {
			responses.WriteSuccess(w, nil)
			return
		}
		responses.WriteSuccess(w, gift)
	}
}

func GiftPut(products ProductLookup, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ok := requireScope(w, r, logg)
		if !ok {
			return
		}
		var payload giftRequest
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := products.Product(r.Context(), strings.TrimSpace(payload.ProductID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		gift := preferences.Gift{Product: *product, Message: payload.Message}
		if err := scope.Preferences.SetGift(r.Context(), gift); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		saved, _ := scope.Preferences.Gift(r.Context())
		responses.WriteSuccess(w, saved)
	}
}

func GiftDelete(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ok := requireScope(w, r, logg)
		if !ok {
			return
		}
		if err := scope.Preferences.ClearGift(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
