package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/storefront-core/pkg/config"
	"github.com/angelmondragon/storefront-core/pkg/everrest"
	"github.com/angelmondragon/storefront-core/pkg/logger"
	"github.com/angelmondragon/storefront-core/pkg/pagination"
	"github.com/angelmondragon/storefront-core/pkg/types"
	"golang.org/x/sync/singleflight"
)

// Remote is the catalog part of the shop API.
type Remote interface {
	FetchProducts(ctx context.Context, page, size int) (*everrest.ProductPage, error)
	FetchProductsByCategory(ctx context.Context, categoryID string, page, size int) (*everrest.ProductPage, error)
	FetchProductsByBrand(ctx context.Context, brand string, page, size int) (*everrest.ProductPage, error)
	FetchProduct(ctx context.Context, id string) (*types.Product, error)
	FetchBrands(ctx context.Context) ([]string, error)
	FetchCategories(ctx context.Context) ([]types.ProductCategory, error)
}

// Query is one listing request.
type Query struct {
	Filter   FilterConfig
	Page     int
	PageSize int
}

// Page is what the shopper sees for a Query.
type Page struct {
	Products    []types.Product `json:"products"`
	Pages       []int           `json:"pages"`
	CurrentPage int             `json:"currentPage"`
	PageSize    int             `json:"pageSize"`
	Total       int             `json:"total"`
	ClientSide  bool            `json:"clientSide"`
	Failed      bool            `json:"failed,omitempty"`
}

type endpointKind string

const (
	endpointAll      endpointKind = "all"
	endpointCategory endpointKind = "category"
	endpointBrand    endpointKind = "brand"
)

type endpoint struct {
	kind endpointKind
	key  string
}

func (e endpoint) cacheKey() string {
	return string(e.kind) + ":" + e.key
}

// selectEndpoint prefers the category listing; a brand is then filtered
// locally. The iPhone pseudo brand never maps to the brand endpoint.
func selectEndpoint(cfg FilterConfig) endpoint {
	if id := strings.TrimSpace(cfg.CategoryID); id != "" {
		return endpoint{kind: endpointCategory, key: id}
	}
	if brand := strings.TrimSpace(cfg.Brand); brand != "" && brand != IPhoneBrand {
		return endpoint{kind: endpointBrand, key: brand}
	}
	return endpoint{kind: endpointAll}
}

type batch struct {
	products  []types.Product
	fetchedAt time.Time
}

// Browser serves paged catalog listings. Without active filters it pages on
// the server; with filters it pages locally over products it already holds
// for the endpoint: a cached batch, else the last server page. Only when it
// holds neither does it pull one capped batch.
type Browser struct {
	remote    Remote
	sizes     pagination.Sizes
	batchSize int
	batchTTL  time.Duration
	logg      *logger.Logger
	now       func() time.Time

	mu      sync.Mutex
	batches map[string]batch
	loaded  map[string]batch
	group   singleflight.Group
}

func NewBrowser(remote Remote, cfg config.CatalogConfig, logg *logger.Logger) (*Browser, error) {
	if remote == nil {
		return nil, fmt.Errorf("catalog remote required")
	}
	batchSize := cfg.FilterBatchSize
	if batchSize <= 0 {
		batchSize = 1000
	}
	return &Browser{
		remote:    remote,
		sizes:     pagination.Sizes{Default: cfg.DefaultPageSize, All: cfg.AllPageSize},
		batchSize: batchSize,
		batchTTL:  cfg.BatchTTL,
		logg:      logg,
		now:       time.Now,
		batches:   map[string]batch{},
		loaded:    map[string]batch{},
	}, nil
}

// PageSize resolves a page size token with the configured sizes.
func (b *Browser) PageSize(raw string) int {
	return b.sizes.Parse(raw)
}

// Browse returns one page of the listing. A remote failure yields an empty
// page flagged as failed together with the error.
func (b *Browser) Browse(ctx context.Context, q Query) (Page, error) {
	size := q.PageSize
	if size <= 0 {
		size = b.sizes.Parse("")
	}
	page := max(q.Page, 1)
	ep := selectEndpoint(q.Filter)

	if !HasActiveFilters(q.Filter) {
		resp, err := b.fetch(ctx, ep, page, size)
		if err != nil {
			return b.failed(ctx, ep, page, size, err)
		}
		b.remember(ep, resp.Products)
		products := Filter(resp.Products, q.Filter)
		out := Page{
			Products:    products,
			Pages:       pagination.PageList(resp.Total, resp.Limit),
			CurrentPage: page,
			PageSize:    size,
			Total:       resp.Total,
		}
		// A brand inside a category is filtered here, so the category total
		// no longer describes the listing.
		if ep.kind == endpointCategory && strings.TrimSpace(q.Filter.Brand) != "" {
			out.Total = len(products)
			out.Pages = pagination.PageList(len(products), size)
			if len(out.Pages) == 0 {
				out.Pages = []int{1}
			}
		}
		return out, nil
	}

	products, err := b.holding(ctx, ep)
	if err != nil {
		return b.failed(ctx, ep, page, size, err)
	}
	filtered := Filter(products, q.Filter)
	pages := pagination.PageList(len(filtered), size)
	if len(pages) == 0 {
		pages = []int{1}
	}
	page = pagination.ClampPage(page, len(pages))
	return Page{
		Products:    pagination.Slice(filtered, page, size),
		Pages:       pages,
		CurrentPage: page,
		PageSize:    size,
		Total:       len(filtered),
		ClientSide:  true,
	}, nil
}

// Product returns a single product.
func (b *Browser) Product(ctx context.Context, id string) (*types.Product, error) {
	return b.remote.FetchProduct(ctx, id)
}

// Brands lists distinct brand names. Concurrent callers share one request.
func (b *Browser) Brands(ctx context.Context) ([]string, error) {
	v, err, _ := b.group.Do("brands", func() (any, error) {
		return b.remote.FetchBrands(ctx)
	})
	if err != nil {
		return nil, err
	}
	raw, _ := v.([]string)
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, brand := range raw {
		brand = strings.TrimSpace(brand)
		if brand == "" {
			continue
		}
		if _, ok := seen[brand]; ok {
			continue
		}
		seen[brand] = struct{}{}
		out = append(out, brand)
	}
	return out, nil
}

func (b *Browser) Categories(ctx context.Context) ([]types.ProductCategory, error) {
	v, err, _ := b.group.Do("categories", func() (any, error) {
		return b.remote.FetchCategories(ctx)
	})
	if err != nil {
		return nil, err
	}
	categories, _ := v.([]types.ProductCategory)
	return categories, nil
}

// Best returns the best products of the first catalog batch.
func (b *Browser) Best(ctx context.Context, n int) ([]types.Product, error) {
	products, err := b.batch(ctx, endpoint{kind: endpointAll})
	if err != nil {
		return nil, err
	}
	return BestProducts(products, n), nil
}

// Suggest returns search box suggestions from the cached batch.
func (b *Browser) Suggest(ctx context.Context, term string, n int) ([]types.Product, error) {
	products, err := b.batch(ctx, endpoint{kind: endpointAll})
	if err != nil {
		return nil, err
	}
	return Suggestions(products, term, n), nil
}

// Invalidate drops every cached batch.
func (b *Browser) Invalidate() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.batches = map[string]batch{}
	b.loaded = map[string]batch{}
}

func (b *Browser) remember(ep endpoint, products []types.Product) {
	b.mu.Lock()
	b.loaded[ep.cacheKey()] = batch{products: products, fetchedAt: b.now()}
	b.mu.Unlock()
}

func (b *Browser) fresh(entry batch) bool {
	return b.batchTTL <= 0 || b.now().Sub(entry.fetchedAt) < b.batchTTL
}

// holding returns the products to filter locally for ep, preferring the full
// batch over the last server page and fetching a batch only as a last resort.
func (b *Browser) holding(ctx context.Context, ep endpoint) ([]types.Product, error) {
	key := ep.cacheKey()
	b.mu.Lock()
	cached, haveBatch := b.batches[key]
	page, havePage := b.loaded[key]
	b.mu.Unlock()
	switch {
	case haveBatch && b.fresh(cached):
		return cached.products, nil
	case havePage && b.fresh(page):
		return page.products, nil
	}
	return b.batch(ctx, ep)
}

func (b *Browser) batch(ctx context.Context, ep endpoint) ([]types.Product, error) {
	key := ep.cacheKey()
	b.mu.Lock()
	cached, ok := b.batches[key]
	b.mu.Unlock()
	if ok && b.fresh(cached) {
		return cached.products, nil
	}

	v, err, _ := b.group.Do("batch:"+key, func() (any, error) {
		resp, err := b.fetch(ctx, ep, 1, b.batchSize)
		if err != nil {
			return nil, err
		}
		b.mu.Lock()
		b.batches[key] = batch{products: resp.Products, fetchedAt: b.now()}
		b.mu.Unlock()
		return resp.Products, nil
	})
	if err != nil {
		return nil, err
	}
	products, _ := v.([]types.Product)
	return products, nil
}

func (b *Browser) fetch(ctx context.Context, ep endpoint, page, size int) (*everrest.ProductPage, error) {
	switch ep.kind {
	case endpointCategory:
		return b.remote.FetchProductsByCategory(ctx, ep.key, page, size)
	case endpointBrand:
		return b.remote.FetchProductsByBrand(ctx, ep.key, page, size)
	default:
		return b.remote.FetchProducts(ctx, page, size)
	}
}

func (b *Browser) failed(ctx context.Context, ep endpoint, page, size int, err error) (Page, error) {
	b.logg.Warn(b.logg.WithFields(ctx, map[string]any{
		"endpoint": string(ep.kind),
		"key":      ep.key,
		"error":    err.Error(),
	}), "catalog listing unavailable")
	return Page{
		Products:    []types.Product{},
		Pages:       []int{},
		CurrentPage: page,
		PageSize:    size,
		Failed:      true,
	}, err
}
