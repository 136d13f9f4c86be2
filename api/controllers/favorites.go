package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront-core/api/responses"
	"github.com/angelmondragon/storefront-core/api/validators"
	"github.com/angelmondragon/storefront-core/internal/favorites"
	"github.com/angelmondragon/storefront-core/pkg/logger"
)

type favoriteRequest struct {
	ProductID string `json:"productId" validate:"notblank"`
}

type favoriteAddResponse struct {
	Added     bool                 `json:"added"`
	Favorites []favorites.Favorite `json:"favorites"`
}

func FavoriteList(svc favorites.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, email, ok := requireEmail(w, r, logg)
		if !ok {
			return
		}
		list, err := svc.List(r.Context(), email)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// FavoriteAdd is a no-op for products already in the list.
func FavoriteAdd(svc favorites.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, email, ok := requireEmail(w, r, logg)
		if !ok {
			return
		}
		var payload favoriteRequest
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		added, err := svc.Add(r.Context(), email, payload.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.List(r.Context(), email)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status := http.StatusOK
		if added {
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(w, status, favoriteAddResponse{Added: added, Favorites: list})
	}
}

func FavoriteRemove(svc favorites.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, email, ok := requireEmail(w, r, logg)
		if !ok {
			return
		}
		if err := svc.Remove(r.Context(), email, chi.URLParam(r, "productId")); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
