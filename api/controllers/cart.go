package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront-core/api/responses"
	"github.com/angelmondragon/storefront-core/api/validators"
	"github.com/angelmondragon/storefront-core/internal/cart"
	"github.com/angelmondragon/storefront-core/pkg/enums"
	"github.com/angelmondragon/storefront-core/pkg/logger"
	"github.com/angelmondragon/storefront-core/pkg/types"
)

// ProductLookup resolves product details by id.
type ProductLookup interface {
	Product(ctx context.Context, id string) (*types.Product, error)
}

type addItemRequest struct {
	ProductID string `json:"productId" validate:"notblank"`
	Quantity  int    `json:"quantity" validate:"min=1,max=999"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity" validate:"min=0,max=999"`
}

type reconcileResponse struct {
	Source enums.ReconcileSource `json:"source"`
	Cart   cart.Snapshot         `json:"cart"`
}

type mutationResponse struct {
	Mutation *cart.Mutation `json:"mutation"`
	Cart     cart.Snapshot  `json:"cart"`
}

func CartGet(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ok := requireScope(w, r, logg)
		if !ok {
			return
		}
		responses.WriteSuccess(w, scope.Cart.Snapshot())
	}
}

// CartReconcile pulls the authoritative count. Fallbacks still answer 200 and
// name the source that won.
func CartReconcile(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ok := requireScope(w, r, logg)
		if !ok {
			return
		}
		source, err := scope.Cart.Reconcile(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, reconcileResponse{Source: source, Cart: scope.Cart.Snapshot()})
	}
}

func CartHydrate(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ok := requireScope(w, r, logg)
		if !ok {
			return
		}
		snapshot, err := scope.Cart.Hydrate(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snapshot)
	}
}

func CartAddItem(products ProductLookup, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ok := requireScope(w, r, logg)
		if !ok {
			return
		}
		var payload addItemRequest
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := products.Product(r.Context(), strings.TrimSpace(payload.ProductID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		m, err := scope.Cart.Add(r.Context(), *product, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, mutationResponse{Mutation: m, Cart: scope.Cart.Snapshot()})
	}
}

func CartUpdateItem(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ok := requireScope(w, r, logg)
		if !ok {
			return
		}
		var payload updateItemRequest
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		m, err := scope.Cart.SetQuantity(r.Context(), chi.URLParam(r, "productId"), payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, mutationResponse{Mutation: m, Cart: scope.Cart.Snapshot()})
	}
}

func CartRemoveItem(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ok := requireScope(w, r, logg)
		if !ok {
			return
		}
		m, err := scope.Cart.Remove(r.Context(), chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, mutationResponse{Mutation: m, Cart: scope.Cart.Snapshot()})
	}
}

// CartClear empties the remote cart for signed-in sessions and the local one
// always.
func CartClear(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ok := requireScope(w, r, logg)
		if !ok {
			return
		}
		if !scope.SignedIn() {
			scope.Cart.Clear(r.Context())
			responses.WriteNoContent(w)
			return
		}
		if err := scope.Cart.Reset(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

