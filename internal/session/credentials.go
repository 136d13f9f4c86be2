package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/storefront-core/internal/kvstore"
	"github.com/angelmondragon/storefront-core/pkg/logger"
	"github.com/golang-jwt/jwt/v5"
)

// credentials holds the bearer token of a signed-in session and the email it
// was issued for. Both are mirrored into the session state.
type credentials struct {
	mu    sync.RWMutex
	state *kvstore.Store
	logg  *logger.Logger
	token string
	email string
}

func loadCredentials(ctx context.Context, state *kvstore.Store, logg *logger.Logger) *credentials {
	c := &credentials{state: state, logg: logg}
	c.token, _ = state.GetString(ctx, kvstore.KeyAccessToken)
	c.email, _ = state.GetString(ctx, kvstore.KeyUserEmail)
	if c.token == "" {
		c.email = ""
	}
	return c
}

func (c *credentials) get() (token, email string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token, c.email
}

func (c *credentials) set(ctx context.Context, token, email string) error {
	token = strings.TrimSpace(token)
	email = strings.TrimSpace(email)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.state.SetString(ctx, kvstore.KeyAccessToken, token); err != nil {
		return err
	}
	if err := c.state.SetString(ctx, kvstore.KeyUserEmail, email); err != nil {
		return err
	}
	c.token, c.email = token, email
	return nil
}

// clear forgets the token. State failures are logged only.
func (c *credentials) clear(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token, c.email = "", ""
	for _, key := range []string{kvstore.KeyAccessToken, kvstore.KeyUserEmail} {
		if err := c.state.Delete(ctx, key); err != nil {
			c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "credential state delete failed")
		}
	}
}

// tokenExpiry reads the exp claim without verifying the signature; the shop
// API remains the authority on validity. Opaque tokens report false.
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
