package compare

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/angelmondragon/storefront-core/internal/kvstore"
	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
	"github.com/angelmondragon/storefront-core/pkg/types"
)

// List is the session's side-by-side product comparison.
type List struct {
	mu    sync.Mutex
	state *kvstore.Store
}

func NewList(state *kvstore.Store) (*List, error) {
	if state == nil {
		return nil, fmt.Errorf("compare state store required")
	}
	return &List{state: state}, nil
}

func (l *List) Items(ctx context.Context) []types.Product {
	var items []types.Product
	if !l.state.ReadJSON(ctx, kvstore.KeyCompareList, &items) {
		return []types.Product{}
	}
	return items
}

func (l *List) Count(ctx context.Context) int {
	return len(l.Items(ctx))
}

func (l *List) Contains(ctx context.Context, productID string) bool {
	return indexOf(l.Items(ctx), strings.TrimSpace(productID)) >= 0
}

// Add appends product unless one with the same id is already listed.
func (l *List) Add(ctx context.Context, product types.Product) (bool, error) {
	id := strings.TrimSpace(product.ID)
	if id == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	items := l.Items(ctx)
	if indexOf(items, id) >= 0 {
		return false, nil
	}
	return true, l.save(ctx, append(items, product))
}

func (l *List) Remove(ctx context.Context, productID string) error {
	productID = strings.TrimSpace(productID)
	l.mu.Lock()
	defer l.mu.Unlock()
	items := l.Items(ctx)
	out := make([]types.Product, 0, len(items))
	for _, item := range items {
		if item.ID != productID {
			out = append(out, item)
		}
	}
	return l.save(ctx, out)
}

func (l *List) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.save(ctx, []types.Product{})
}

func (l *List) save(ctx context.Context, items []types.Product) error {
	if err := l.state.WriteJSON(ctx, kvstore.KeyCompareList, items); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to save compare list")
	}
	return nil
}

func indexOf(items []types.Product, id string) int {
	for i, item := range items {
		if item.ID == id {
			return i
		}
	}
	return -1
}
