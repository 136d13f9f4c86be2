package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront-core/api/middleware"
	"github.com/angelmondragon/storefront-core/api/responses"
	"github.com/angelmondragon/storefront-core/api/validators"
	"github.com/angelmondragon/storefront-core/internal/catalog"
	"github.com/angelmondragon/storefront-core/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
	"github.com/angelmondragon/storefront-core/pkg/logger"
	"github.com/angelmondragon/storefront-core/pkg/types"
)

const (
	maxSearchLength   = 120
	defaultBestCount  = 6
	defaultSuggestCap = 5
)

// Catalog is the product surface the controllers read from.
type Catalog interface {
	PageSize(raw string) int
	Browse(ctx context.Context, q catalog.Query) (catalog.Page, error)
	Product(ctx context.Context, id string) (*types.Product, error)
	Brands(ctx context.Context) ([]string, error)
	Categories(ctx context.Context) ([]types.ProductCategory, error)
	Best(ctx context.Context, n int) ([]types.Product, error)
	Suggest(ctx context.Context, term string, n int) ([]types.Product, error)
}

// ProductList serves one page of the catalog for the query string filters.
func ProductList(svc Catalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query, err := parseCatalogQuery(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.Browse(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if term := query.Filter.Search; term != "" {
			if scope, ok := middleware.ScopeFromContext(r.Context()); ok {
				if err := scope.Preferences.SetLastSearch(r.Context(), term); err != nil {
					logg.Warn(logg.WithField(r.Context(), "error", err.Error()), "last search not saved")
				}
			}
		}
		responses.WriteSuccess(w, page)
	}
}

func parseCatalogQuery(r *http.Request, svc Catalog) (catalog.Query, error) {
	values := r.URL.Query()
	page, err := validators.ParseQueryInt(r, "page", 1, 1, 100000)
	if err != nil {
		return catalog.Query{}, err
	}
	minPrice, err := validators.ParseQueryFloat(r, "min_price")
	if err != nil {
		return catalog.Query{}, err
	}
	maxPrice, err := validators.ParseQueryFloat(r, "max_price")
	if err != nil {
		return catalog.Query{}, err
	}
	if minPrice != nil && maxPrice != nil && *minPrice > *maxPrice {
		return catalog.Query{}, pkgerrors.New(pkgerrors.CodeValidation, "min_price must not exceed max_price")
	}
	discounted, err := validators.ParseQueryBool(r, "discounted")
	if err != nil {
		return catalog.Query{}, err
	}
	inStock, err := validators.ParseQueryBool(r, "in_stock")
	if err != nil {
		return catalog.Query{}, err
	}
	var minRating float64
	if rating, err := validators.ParseQueryFloat(r, "min_rating"); err != nil {
		return catalog.Query{}, err
	} else if rating != nil {
		minRating = *rating
	}
	sort, err := enums.ParseSortDirection(values.Get("sort"))
	if err != nil {
		return catalog.Query{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sort").WithDetails(map[string]any{"field": "sort"})
	}

	return catalog.Query{
		Filter: catalog.FilterConfig{
			Brand:          validators.SanitizeString(values.Get("brand"), maxSearchLength),
			CategoryID:     validators.SanitizeString(values.Get("category"), maxSearchLength),
			Search:         validators.SanitizeString(values.Get("q"), maxSearchLength),
			MinPrice:       minPrice,
			MaxPrice:       maxPrice,
			OnlyDiscounted: discounted,
			MinRating:      minRating,
			OnlyInStock:    inStock,
			Sort:           sort,
		},
		Page:     page,
		PageSize: svc.PageSize(values.Get("page_size")),
	}, nil
}

func ProductBest(svc Catalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := validators.ParseQueryInt(r, "limit", defaultBestCount, 1, 50)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		products, err := svc.Best(r.Context(), n)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, products)
	}
}

func ProductSuggest(svc Catalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		term := validators.SanitizeString(r.URL.Query().Get("q"), maxSearchLength)
		n, err := validators.ParseQueryInt(r, "limit", defaultSuggestCap, 1, 20)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if term == "" {
			responses.WriteSuccess(w, []types.Product{})
			return
		}
		products, err := svc.Suggest(r.Context(), term, n)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, products)
	}
}

func ProductDetail(svc Catalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "productId"))
		if id == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product id is required"))
			return
		}
		product, err := svc.Product(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func BrandList(svc Catalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		brands, err := svc.Brands(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, brands)
	}
}

func CategoryList(svc Catalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := svc.Categories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, categories)
	}
}
