package receipts

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/angelmondragon/storefront-core/internal/kvstore"
	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
)

// DefaultHistoryCap bounds how many receipts a session keeps.
const DefaultHistoryCap = 50

// History is the newest-first receipt list of one session.
type History struct {
	mu    sync.Mutex
	state *kvstore.Store
	cap   int
}

func NewHistory(state *kvstore.Store, capacity int) (*History, error) {
	if state == nil {
		return nil, fmt.Errorf("receipt state store required")
	}
	if capacity <= 0 {
		capacity = DefaultHistoryCap
	}
	return &History{state: state, cap: capacity}, nil
}

// Save prepends rec and drops the oldest entries beyond the cap. Receipts
// are not deduplicated.
func (h *History) Save(ctx context.Context, rec Receipt) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	existing := h.List(ctx)
	next := make([]Receipt, 0, len(existing)+1)
	next = append(next, rec)
	next = append(next, existing...)
	if len(next) > h.cap {
		next = next[:h.cap]
	}
	if err := h.state.WriteJSON(ctx, kvstore.KeyReceiptHistory, next); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to save receipt")
	}
	return nil
}

// List returns the stored receipts, newest first.
func (h *History) List(ctx context.Context) []Receipt {
	var out []Receipt
	if !h.state.ReadJSON(ctx, kvstore.KeyReceiptHistory, &out) {
		return []Receipt{}
	}
	return out
}

// FindByNumber matches the trimmed number case-insensitively.
func (h *History) FindByNumber(ctx context.Context, number string) (*Receipt, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "receipt number is required")
	}
	for _, rec := range h.List(ctx) {
		if strings.EqualFold(rec.Number, number) {
			found := rec
			return &found, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "receipt not found")
}

func (h *History) Clear(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.state.Delete(ctx, kvstore.KeyReceiptHistory); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to clear receipts")
	}
	return nil
}
