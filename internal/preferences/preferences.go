// Package preferences keeps small per-session shopper choices: the last
// catalog search and the gift selected for an order.
package preferences

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-core/internal/kvstore"
	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
	"github.com/angelmondragon/storefront-core/pkg/types"
)

// Gift is a product picked as a present together with its card message.
type Gift struct {
	Product types.Product `json:"product"`
	Message string        `json:"message"`
}

type Store struct {
	state *kvstore.Store
}

func New(state *kvstore.Store) (*Store, error) {
	if state == nil {
		return nil, fmt.Errorf("preferences state store required")
	}
	return &Store{state: state}, nil
}

// LastSearch returns the stored search string, or "" when none is stored.
func (s *Store) LastSearch(ctx context.Context) string {
	var term string
	if !s.state.ReadJSON(ctx, kvstore.KeyLastSearch, &term) {
		return ""
	}
	return term
}

func (s *Store) SetLastSearch(ctx context.Context, term string) error {
	if err := s.state.WriteJSON(ctx, kvstore.KeyLastSearch, term); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to save search")
	}
	return nil
}

// Gift returns the selected gift, if any.
func (s *Store) Gift(ctx context.Context) (*Gift, bool) {
	var gift Gift
	if !s.state.ReadJSON(ctx, kvstore.KeySelectedGift, &gift) {
		return nil, false
	}
	return &gift, true
}

func (s *Store) SetGift(ctx context.Context, gift Gift) error {
	if strings.TrimSpace(gift.Product.ID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "gift product is required")
	}
	gift.Message = strings.TrimSpace(gift.Message)
	if err := s.state.WriteJSON(ctx, kvstore.KeySelectedGift, gift); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to save gift")
	}
	return nil
}

func (s *Store) ClearGift(ctx context.Context) error {
	if err := s.state.Delete(ctx, kvstore.KeySelectedGift); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to clear gift")
	}
	return nil
}
