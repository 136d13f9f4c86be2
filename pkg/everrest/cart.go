package everrest

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
)

type cartLineBody struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity,omitempty"`
}

// FetchCart returns the raw cart payload. Its shape varies between
// endpoints, so callers normalize it themselves.
func (c *Client) FetchCart(ctx context.Context) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.do(ctx, request{method: http.MethodGet, path: "/shop/cart", auth: true}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MutateCart sets the quantity of a product in the user's cart. The first
// mutation creates the cart with POST; once a cart exists the server answers
// errors.user_already_has_cart and the call is retried as PATCH.
func (c *Client) MutateCart(ctx context.Context, productID string, quantity int) (json.RawMessage, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	body := cartLineBody{ID: productID, Quantity: quantity}
	var out json.RawMessage
	err := c.do(ctx, request{method: http.MethodPost, path: "/shop/cart/product", body: body, auth: true}, &out)
	if err == nil {
		return out, nil
	}
	if !HasErrorKey(err, ErrKeyAlreadyHasCart) {
		return nil, err
	}

	out = nil
	if err := c.do(ctx, request{method: http.MethodPatch, path: "/shop/cart/product", body: body, auth: true}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RemoveCartLine deletes a product line from the user's cart.
func (c *Client) RemoveCartLine(ctx context.Context, productID string) error {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	return c.do(ctx, request{method: http.MethodDelete, path: "/shop/cart/product", body: cartLineBody{ID: productID}, auth: true}, nil)
}

// ResetCart deletes the whole cart server-side.
func (c *Client) ResetCart(ctx context.Context) error {
	return c.do(ctx, request{method: http.MethodDelete, path: "/shop/cart", auth: true}, nil)
}

// Checkout completes the purchase of the current server cart.
func (c *Client) Checkout(ctx context.Context) error {
	return c.do(ctx, request{method: http.MethodPost, path: "/shop/cart/checkout", auth: true}, nil)
}
