package cart

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-core/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
	"github.com/angelmondragon/storefront-core/pkg/types"
	"github.com/google/uuid"
)

// Mutation is one optimistic cart change. It starts pending, is applied
// locally, and ends committed or rolled back once the remote call returns.
type Mutation struct {
	ID        uuid.UUID           `json:"id"`
	Kind      enums.MutationKind  `json:"kind"`
	ProductID string              `json:"productId"`
	Quantity  int                 `json:"quantity"`
	State     enums.MutationState `json:"state"`
}

func newMutation(kind enums.MutationKind, productID string, quantity int) *Mutation {
	return &Mutation{
		ID:        uuid.New(),
		Kind:      kind,
		ProductID: productID,
		Quantity:  quantity,
		State:     enums.MutationStatePending,
	}
}

func (m *Mutation) transition(next enums.MutationState) error {
	if m.State.IsTerminal() {
		return fmt.Errorf("mutation %s already %s", m.ID, m.State)
	}
	m.State = next
	return nil
}

// Add puts qty more units of product in the cart.
func (s *Store) Add(ctx context.Context, product types.Product, qty int) (*Mutation, error) {
	productID := strings.TrimSpace(product.ID)
	if productID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if qty < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	m := newMutation(enums.MutationKindAdd, productID, qty)

	s.mu.Lock()
	idx := s.indexOfLocked(productID)
	if idx < 0 {
		snapshot := product
		s.lines = append(s.lines, Line{ProductID: productID, Product: &snapshot})
		idx = len(s.lines) - 1
	}
	s.lines[idx].Quantity += qty
	target := s.lines[idx].Quantity
	s.count += qty
	s.unlockAndPublish(ctx)

	_, err := s.remote.MutateCart(ctx, productID, target)
	if err != nil {
		s.mu.Lock()
		s.adjustLocked(productID, -qty, nil)
		s.count = max(0, s.count-qty)
		s.unlockAndPublish(ctx)
		return s.finish(ctx, m, err)
	}
	return s.finish(ctx, m, nil)
}

// Remove drops the whole line for productID.
func (s *Store) Remove(ctx context.Context, productID string) (*Mutation, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	return s.remove(ctx, newMutation(enums.MutationKindRemove, productID, 0))
}

// SetQuantity sets the absolute quantity of an existing line. Zero removes it.
func (s *Store) SetQuantity(ctx context.Context, productID string, qty int) (*Mutation, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if qty < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must not be negative")
	}
	m := newMutation(enums.MutationKindSetQuantity, productID, qty)
	if qty == 0 {
		return s.remove(ctx, m)
	}

	s.mu.Lock()
	idx := s.indexOfLocked(productID)
	if idx < 0 {
		s.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product is not in the cart")
	}
	delta := qty - s.lines[idx].Quantity
	s.lines[idx].Quantity = qty
	s.count = max(0, s.count+delta)
	s.unlockAndPublish(ctx)

	if _, err := s.remote.MutateCart(ctx, productID, qty); err != nil {
		s.mu.Lock()
		s.adjustLocked(productID, -delta, nil)
		s.count = max(0, s.count-delta)
		s.unlockAndPublish(ctx)
		return s.finish(ctx, m, err)
	}
	return s.finish(ctx, m, nil)
}

func (s *Store) remove(ctx context.Context, m *Mutation) (*Mutation, error) {
	s.mu.Lock()
	idx := s.indexOfLocked(m.ProductID)
	if idx < 0 {
		s.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product is not in the cart")
	}
	removed := s.lines[idx]
	s.lines = append(s.lines[:idx:idx], s.lines[idx+1:]...)
	s.count = max(0, s.count-removed.Quantity)
	s.unlockAndPublish(ctx)

	if err := s.remote.RemoveCartLine(ctx, m.ProductID); err != nil {
		s.mu.Lock()
		s.adjustLocked(m.ProductID, removed.Quantity, &removed)
		s.count += removed.Quantity
		s.unlockAndPublish(ctx)
		return s.finish(ctx, m, err)
	}
	return s.finish(ctx, m, nil)
}

// adjustLocked applies a quantity delta to a line. A line that drops to zero
// is removed; a missing line is recreated from template when delta is positive.
func (s *Store) adjustLocked(productID string, delta int, template *Line) {
	idx := s.indexOfLocked(productID)
	if idx < 0 {
		if delta <= 0 {
			return
		}
		line := Line{ProductID: productID}
		if template != nil {
			line = *template
		}
		line.Quantity = delta
		s.lines = append(s.lines, line)
		return
	}
	s.lines[idx].Quantity += delta
	if s.lines[idx].Quantity <= 0 {
		s.lines = append(s.lines[:idx:idx], s.lines[idx+1:]...)
	}
}

// unlockAndPublish persists the state, releases s.mu and notifies subscribers.
func (s *Store) unlockAndPublish(ctx context.Context) {
	s.persistLocked(ctx)
	snap, subs := s.snapshotLocked(), s.subscribersLocked()
	s.mu.Unlock()
	notify(subs, snap)
}

func (s *Store) finish(ctx context.Context, m *Mutation, remoteErr error) (*Mutation, error) {
	next := enums.MutationStateCommitted
	if remoteErr != nil {
		next = enums.MutationStateRolledBack
	}
	if err := m.transition(next); err != nil {
		return m, err
	}
	s.metrics.IncMutation(m.Kind.String(), m.State.String())

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"mutation_id": m.ID.String(),
		"kind":        m.Kind.String(),
		"product_id":  m.ProductID,
	})
	if remoteErr != nil {
		s.logg.Warn(s.logg.WithField(logCtx, "error", remoteErr.Error()), "cart mutation rolled back")
		return m, remoteErr
	}
	s.logg.Debug(logCtx, "cart mutation committed")
	return m, nil
}
