package session

import (
	"context"
	"encoding/json"
	"time"

	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
	"github.com/angelmondragon/storefront-core/pkg/everrest"
	"github.com/angelmondragon/storefront-core/pkg/logger"
	"github.com/angelmondragon/storefront-core/pkg/types"
)

// remote binds the shared shop client to one session's token. A token whose
// exp has passed is dropped before any call, and a token_expired answer
// drops it after the fact.
type remote struct {
	base  *everrest.Client
	creds *credentials
	skew  time.Duration
	now   func() time.Time
	logg  *logger.Logger
}

func (r *remote) client(ctx context.Context) (*everrest.Client, error) {
	token, _ := r.creds.get()
	if token == "" {
		return r.base, nil
	}
	if exp, ok := tokenExpiry(token); ok && !r.now().Add(r.skew).Before(exp) {
		r.creds.clear(ctx)
		r.logg.Info(r.logg.WithField(ctx, "expired_at", exp), "dropping expired access token")
		return nil, pkgerrors.New(pkgerrors.CodeSessionExpired, "session expired")
	}
	return r.base.WithToken(token), nil
}

func (r *remote) observe(ctx context.Context, err error) error {
	if pkgerrors.IsCode(err, pkgerrors.CodeSessionExpired) {
		r.creds.clear(ctx)
	}
	return err
}

func (r *remote) FetchCart(ctx context.Context) (json.RawMessage, error) {
	c, err := r.client(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := c.FetchCart(ctx)
	return raw, r.observe(ctx, err)
}

func (r *remote) MutateCart(ctx context.Context, productID string, quantity int) (json.RawMessage, error) {
	c, err := r.client(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := c.MutateCart(ctx, productID, quantity)
	return raw, r.observe(ctx, err)
}

func (r *remote) RemoveCartLine(ctx context.Context, productID string) error {
	c, err := r.client(ctx)
	if err != nil {
		return err
	}
	return r.observe(ctx, c.RemoveCartLine(ctx, productID))
}

func (r *remote) ResetCart(ctx context.Context) error {
	c, err := r.client(ctx)
	if err != nil {
		return err
	}
	return r.observe(ctx, c.ResetCart(ctx))
}

func (r *remote) Checkout(ctx context.Context) error {
	c, err := r.client(ctx)
	if err != nil {
		return err
	}
	return r.observe(ctx, c.Checkout(ctx))
}

func (r *remote) FetchProduct(ctx context.Context, id string) (*types.Product, error) {
	return r.base.FetchProduct(ctx, id)
}

func (r *remote) CurrentUser(ctx context.Context) (*everrest.User, error) {
	c, err := r.client(ctx)
	if err != nil {
		return nil, err
	}
	user, err := c.CurrentUser(ctx)
	return user, r.observe(ctx, err)
}
