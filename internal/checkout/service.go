package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-core/internal/cart"
	"github.com/angelmondragon/storefront-core/internal/forms"
	"github.com/angelmondragon/storefront-core/internal/receipts"
	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
	"github.com/angelmondragon/storefront-core/pkg/logger"
)

type cartState interface {
	Snapshot() cart.Snapshot
	Clear(ctx context.Context)
}

type remoteCheckout interface {
	Checkout(ctx context.Context) error
}

type receiptStore interface {
	Save(ctx context.Context, rec receipts.Receipt) error
}

// Params wires a checkout Service for one session.
type Params struct {
	Cart    cartState
	Remote  remoteCheckout
	History receiptStore
	Issuer  receipts.Issuer
	Logger  *logger.Logger
	Now     func() time.Time
}

// Service places the session's cart as an order.
type Service struct {
	cart    cartState
	remote  remoteCheckout
	history receiptStore
	issuer  receipts.Issuer
	logg    *logger.Logger
	now     func() time.Time
}

func NewService(p Params) (*Service, error) {
	if p.Cart == nil {
		return nil, fmt.Errorf("cart required")
	}
	if p.Remote == nil {
		return nil, fmt.Errorf("checkout remote required")
	}
	if p.History == nil {
		return nil, fmt.Errorf("receipt history required")
	}
	now := p.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		cart:    p.Cart,
		remote:  p.Remote,
		history: p.History,
		issuer:  p.Issuer,
		logg:    p.Logger,
		now:     now,
	}, nil
}

// Execute validates the payment form, snapshots the cart, places the order
// and issues a receipt. An invalid form makes no remote call; a failed
// checkout leaves the cart untouched and issues nothing.
func (s *Service) Execute(ctx context.Context, payment forms.Payment) (*receipts.Receipt, error) {
	if err := forms.Validate(payment); err != nil {
		return nil, err
	}

	snapshot := s.cart.Snapshot()
	if len(snapshot.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")
	}
	total := receipts.ComputeTotal(snapshot.Lines)
	placedAt := s.now()

	if err := s.remote.Checkout(ctx); err != nil {
		return nil, err
	}

	rec := s.issuer.Create(snapshot.Lines, total, placedAt)
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"receipt_number": rec.Number,
		"total":          total.StringFixed(2),
		"lines":          len(snapshot.Lines),
	})
	if err := s.history.Save(ctx, rec); err != nil {
		s.logg.Error(logCtx, "receipt not saved after checkout", err)
	}
	s.cart.Clear(ctx)
	s.logg.Info(logCtx, "order placed")
	return &rec, nil
}
