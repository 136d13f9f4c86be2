package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-core/pkg/config"
	"github.com/angelmondragon/storefront-core/pkg/everrest"
	"github.com/angelmondragon/storefront-core/pkg/logger"
	"github.com/angelmondragon/storefront-core/pkg/types"
	"github.com/stretchr/testify/require"
)

type fetchCall struct {
	kind string
	key  string
	page int
	size int
}

type stubRemote struct {
	mu       sync.Mutex
	calls    []fetchCall
	page     *everrest.ProductPage
	products []types.Product
	brands   []string
	err      error
}

func (r *stubRemote) record(kind, key string, page, size int) (*everrest.ProductPage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, fetchCall{kind: kind, key: key, page: page, size: size})
	if r.err != nil {
		return nil, r.err
	}
	if r.page != nil {
		return r.page, nil
	}
	return &everrest.ProductPage{Products: r.products, Total: len(r.products), Limit: size, Page: page}, nil
}

func (r *stubRemote) FetchProducts(_ context.Context, page, size int) (*everrest.ProductPage, error) {
	return r.record("all", "", page, size)
}

func (r *stubRemote) FetchProductsByCategory(_ context.Context, id string, page, size int) (*everrest.ProductPage, error) {
	return r.record("category", id, page, size)
}

func (r *stubRemote) FetchProductsByBrand(_ context.Context, brand string, page, size int) (*everrest.ProductPage, error) {
	return r.record("brand", brand, page, size)
}

func (r *stubRemote) FetchProduct(_ context.Context, id string) (*types.Product, error) {
	if r.err != nil {
		return nil, r.err
	}
	return &types.Product{ID: id}, nil
}

func (r *stubRemote) FetchBrands(context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, fetchCall{kind: "brands"})
	return r.brands, r.err
}

func (r *stubRemote) FetchCategories(context.Context) ([]types.ProductCategory, error) {
	return []types.ProductCategory{{ID: "1", Name: "laptops"}}, r.err
}

func (r *stubRemote) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func testCatalogConfig() config.CatalogConfig {
	return config.CatalogConfig{DefaultPageSize: 9, AllPageSize: 38, FilterBatchSize: 1000, BatchTTL: time.Minute}
}

func newTestBrowser(t *testing.T, remote Remote) *Browser {
	t.Helper()
	b, err := NewBrowser(remote, testCatalogConfig(), logger.Nop())
	require.NoError(t, err)
	return b
}

func laptops(n int, stock int) []types.Product {
	out := make([]types.Product, n)
	for i := range out {
		out[i] = types.Product{ID: fmt.Sprintf("l%d", i), Title: "Laptop", Stock: stock, Price: types.NewPrice(float64(100 + i))}
	}
	return out
}

func TestNewBrowserRequiresRemote(t *testing.T) {
	t.Parallel()

	_, err := NewBrowser(nil, testCatalogConfig(), logger.Nop())
	require.Error(t, err)
}

func TestBrowseServerModeThenClientMode(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	remote := &stubRemote{page: &everrest.ProductPage{Total: 27, Limit: 9, Products: laptops(10, 1)}}
	b := newTestBrowser(t, remote)

	page, err := b.Browse(ctx, Query{Page: 1, PageSize: 9})
	require.NoError(t, err)
	require.False(t, page.ClientSide)
	require.Equal(t, []int{1, 2, 3}, page.Pages)
	require.Equal(t, fetchCall{kind: "all", page: 1, size: 9}, remote.calls[0])

	page, err = b.Browse(ctx, Query{Filter: FilterConfig{OnlyInStock: true}, Page: 1, PageSize: 9})
	require.NoError(t, err)
	require.True(t, page.ClientSide)
	require.Equal(t, []int{1, 2}, page.Pages)
	require.Len(t, page.Products, 9)
	require.Equal(t, 1, remote.callCount(), "switching a filter on must reuse the loaded products")

	page, err = b.Browse(ctx, Query{Filter: FilterConfig{OnlyInStock: true, Search: "lap"}, Page: 2, PageSize: 9})
	require.NoError(t, err)
	require.Equal(t, 2, page.CurrentPage)
	require.Len(t, page.Products, 1)
	require.Equal(t, 1, remote.callCount(), "changing filters or page must not refetch")
}

func TestBrowseClientModePrefersFullBatch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	remote := &stubRemote{products: laptops(20, 1)}
	b := newTestBrowser(t, remote)

	_, err := b.Best(ctx, 3)
	require.NoError(t, err)

	remote.mu.Lock()
	remote.page = &everrest.ProductPage{Total: 20, Limit: 9, Products: laptops(9, 1)}
	remote.mu.Unlock()
	_, err = b.Browse(ctx, Query{Page: 1, PageSize: 9})
	require.NoError(t, err)

	page, err := b.Browse(ctx, Query{Filter: FilterConfig{OnlyInStock: true}, PageSize: 9})
	require.NoError(t, err)
	require.Equal(t, 20, page.Total)
	require.Equal(t, 2, remote.callCount())
}

func TestBrowseCategoryWithBrandPagesFilteredCount(t *testing.T) {
	t.Parallel()

	products := laptops(9, 1)
	products[4].Brand = "Asus"
	remote := &stubRemote{page: &everrest.ProductPage{Total: 27, Limit: 9, Products: products}}
	b := newTestBrowser(t, remote)

	page, err := b.Browse(context.Background(), Query{Filter: FilterConfig{CategoryID: "7", Brand: "Asus"}, Page: 1, PageSize: 9})
	require.NoError(t, err)
	require.False(t, page.ClientSide)
	require.Len(t, page.Products, 1)
	require.Equal(t, 1, page.Total)
	require.Equal(t, []int{1}, page.Pages)

	page, err = b.Browse(context.Background(), Query{Filter: FilterConfig{CategoryID: "7"}, Page: 1, PageSize: 9})
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3}, page.Pages)
}

func TestBrowseClientModeResetsOutOfRangePage(t *testing.T) {
	t.Parallel()

	remote := &stubRemote{products: laptops(5, 1)}
	b := newTestBrowser(t, remote)

	page, err := b.Browse(context.Background(), Query{Filter: FilterConfig{Search: "laptop"}, Page: 4, PageSize: 9})
	require.NoError(t, err)
	require.Equal(t, 1, page.CurrentPage)
	require.Len(t, page.Products, 5)
}

func TestBrowseClientModeEmptyKeepsSinglePage(t *testing.T) {
	t.Parallel()

	remote := &stubRemote{products: laptops(3, 0)}
	b := newTestBrowser(t, remote)

	page, err := b.Browse(context.Background(), Query{Filter: FilterConfig{Search: "laptop", OnlyInStock: true}, PageSize: 9})
	require.NoError(t, err)
	require.Empty(t, page.Products)
	require.Equal(t, []int{1}, page.Pages)
}

func TestBrowseSelectsEndpoint(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	remote := &stubRemote{products: laptops(2, 1)}
	b := newTestBrowser(t, remote)

	_, err := b.Browse(ctx, Query{Filter: FilterConfig{CategoryID: "7", Brand: "Asus"}, Page: 2, PageSize: 6})
	require.NoError(t, err)
	_, err = b.Browse(ctx, Query{Filter: FilterConfig{Brand: "Asus"}, PageSize: 6})
	require.NoError(t, err)
	_, err = b.Browse(ctx, Query{Filter: FilterConfig{Brand: IPhoneBrand}, PageSize: 6})
	require.NoError(t, err)

	require.Equal(t, []fetchCall{
		{kind: "category", key: "7", page: 2, size: 6},
		{kind: "brand", key: "Asus", page: 1, size: 6},
		{kind: "all", page: 1, size: 6},
	}, remote.calls)
}

func TestBrowseBatchExpires(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	remote := &stubRemote{products: laptops(2, 1)}
	b := newTestBrowser(t, remote)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }

	q := Query{Filter: FilterConfig{OnlyInStock: true}, PageSize: 9}
	_, err := b.Browse(ctx, q)
	require.NoError(t, err)
	_, err = b.Browse(ctx, q)
	require.NoError(t, err)
	require.Equal(t, 1, remote.callCount())

	now = now.Add(2 * time.Minute)
	_, err = b.Browse(ctx, q)
	require.NoError(t, err)
	require.Equal(t, 2, remote.callCount())

	b.Invalidate()
	_, err = b.Browse(ctx, q)
	require.NoError(t, err)
	require.Equal(t, 3, remote.callCount())
}

func TestBrowseDegradesOnFailure(t *testing.T) {
	t.Parallel()

	remote := &stubRemote{err: errors.New("offline")}
	b := newTestBrowser(t, remote)

	page, err := b.Browse(context.Background(), Query{Page: 3, PageSize: 9})
	require.Error(t, err)
	require.True(t, page.Failed)
	require.Empty(t, page.Products)
	require.Empty(t, page.Pages)

	page, err = b.Browse(context.Background(), Query{Filter: FilterConfig{OnlyInStock: true}})
	require.Error(t, err)
	require.True(t, page.Failed)
	require.Equal(t, 9, page.PageSize)
}

func TestBrandsDeduplicates(t *testing.T) {
	t.Parallel()

	remote := &stubRemote{brands: []string{"Apple", " Asus ", "Apple", ""}}
	b := newTestBrowser(t, remote)

	brands, err := b.Brands(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"Apple", "Asus"}, brands)
}

func TestBestAndSuggestUseCachedBatch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	remote := &stubRemote{products: sampleProducts()}
	b := newTestBrowser(t, remote)

	best, err := b.Best(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, []string{"3", "5"}, ids(best))

	suggestions, err := b.Suggest(ctx, "laptop", SuggestionsLimit)
	require.NoError(t, err)
	require.Equal(t, []string{"1", "2"}, ids(suggestions))
	require.Equal(t, 1, remote.callCount())
}

func TestPageSizeUsesConfig(t *testing.T) {
	t.Parallel()

	b := newTestBrowser(t, &stubRemote{})
	require.Equal(t, 38, b.PageSize("ALL"))
	require.Equal(t, 18, b.PageSize("18"))
	require.Equal(t, 9, b.PageSize("unknown"))
}
