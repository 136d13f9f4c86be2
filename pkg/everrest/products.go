package everrest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
	"github.com/angelmondragon/storefront-core/pkg/types"
)

// ProductPage is one page of the catalog as reported by the server.
type ProductPage struct {
	Total    int             `json:"total"`
	Limit    int             `json:"limit"`
	Page     int             `json:"page"`
	Skip     int             `json:"skip"`
	Products []types.Product `json:"products"`
}

// SearchParams maps to /shop/products/search query parameters.
type SearchParams struct {
	Keywords      string
	CategoryID    string
	Brand         string
	Rating        float64
	PriceMin      *float64
	PriceMax      *float64
	SortBy        string
	SortDirection string
	Page          int
	PageSize      int
}

func pageQuery(page, size int) url.Values {
	if page < 1 {
		page = 1
	}
	q := url.Values{}
	q.Set("page_index", strconv.Itoa(page))
	if size > 0 {
		q.Set("page_size", strconv.Itoa(size))
	}
	return q
}

// FetchProducts returns one page of the whole catalog.
func (c *Client) FetchProducts(ctx context.Context, page, size int) (*ProductPage, error) {
	var out ProductPage
	err := c.do(ctx, request{method: http.MethodGet, path: "/shop/products/all", query: pageQuery(page, size)}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchProductsByCategory returns one page of a category.
func (c *Client) FetchProductsByCategory(ctx context.Context, categoryID string, page, size int) (*ProductPage, error) {
	categoryID = strings.TrimSpace(categoryID)
	if categoryID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category id is required")
	}
	var out ProductPage
	path := fmt.Sprintf("/shop/products/category/%s", url.PathEscape(categoryID))
	if err := c.do(ctx, request{method: http.MethodGet, path: path, query: pageQuery(page, size)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchProductsByBrand returns one page of a brand.
func (c *Client) FetchProductsByBrand(ctx context.Context, brand string, page, size int) (*ProductPage, error) {
	brand = strings.TrimSpace(brand)
	if brand == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "brand is required")
	}
	var out ProductPage
	path := fmt.Sprintf("/shop/products/brand/%s", url.PathEscape(brand))
	if err := c.do(ctx, request{method: http.MethodGet, path: path, query: pageQuery(page, size)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchProduct returns a single product by id.
func (c *Client) FetchProduct(ctx context.Context, id string) (*types.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	var out types.Product
	path := fmt.Sprintf("/shop/products/id/%s", url.PathEscape(id))
	if err := c.do(ctx, request{method: http.MethodGet, path: path}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchBrands lists brand names.
func (c *Client) FetchBrands(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.do(ctx, request{method: http.MethodGet, path: "/shop/products/brands"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchCategories lists product categories.
func (c *Client) FetchCategories(ctx context.Context) ([]types.ProductCategory, error) {
	var out []types.ProductCategory
	if err := c.do(ctx, request{method: http.MethodGet, path: "/shop/products/categories"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SearchProducts runs the server-side search endpoint.
func (c *Client) SearchProducts(ctx context.Context, params SearchParams) (*ProductPage, error) {
	q := pageQuery(params.Page, params.PageSize)
	if v := strings.TrimSpace(params.Keywords); v != "" {
		q.Set("keywords", v)
	}
	if v := strings.TrimSpace(params.CategoryID); v != "" {
		q.Set("category_id", v)
	}
	if v := strings.TrimSpace(params.Brand); v != "" {
		q.Set("brand", v)
	}
	if params.Rating > 0 {
		q.Set("rating", strconv.FormatFloat(params.Rating, 'f', -1, 64))
	}
	if params.PriceMin != nil {
		q.Set("price_min", strconv.FormatFloat(*params.PriceMin, 'f', -1, 64))
	}
	if params.PriceMax != nil {
		q.Set("price_max", strconv.FormatFloat(*params.PriceMax, 'f', -1, 64))
	}
	if params.SortBy != "" {
		q.Set("sort_by", params.SortBy)
	}
	if params.SortDirection != "" {
		q.Set("sort_direction", params.SortDirection)
	}

	var out ProductPage
	if err := c.do(ctx, request{method: http.MethodGet, path: "/shop/products/search", query: q}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
