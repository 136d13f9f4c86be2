package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront-core/api/responses"
	"github.com/angelmondragon/storefront-core/api/validators"
	"github.com/angelmondragon/storefront-core/pkg/logger"
)

type compareRequest struct {
	ProductID string `json:"productId" validate:"notblank"`
}

type compareAddResponse struct {
	Added bool `json:"added"`
	Count int  `json:"count"`
}

func CompareList(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ok := requireScope(w, r, logg)
		if !ok {
			return
		}
		responses.WriteSuccess(w, scope.Compare.Items(r.Context()))
	}
}

func CompareAdd(products ProductLookup, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ok := requireScope(w, r, logg)
		if !ok {
			return
		}
		var payload compareRequest
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id := strings.TrimSpace(payload.ProductID)
		if scope.Compare.Contains(r.Context(), id) {
			responses.WriteSuccess(w, compareAddResponse{Count: scope.Compare.Count(r.Context())})
			return
		}
		product, err := products.Product(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		added, err := scope.Compare.Add(r.Context(), *product)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, compareAddResponse{Added: added, Count: scope.Compare.Count(r.Context())})
	}
}

func CompareRemove(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ok := requireScope(w, r, logg)
		if !ok {
			return
		}
		if err := scope.Compare.Remove(r.Context(), chi.URLParam(r, "productId")); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func CompareClear(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ok := requireScope(w, r, logg)
		if !ok {
			return
		}
		if err := scope.Compare.Clear(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
