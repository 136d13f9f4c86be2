package session

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/angelmondragon/storefront-core/internal/cart"
	"github.com/angelmondragon/storefront-core/internal/checkout"
	"github.com/angelmondragon/storefront-core/internal/compare"
	"github.com/angelmondragon/storefront-core/internal/forms"
	"github.com/angelmondragon/storefront-core/internal/helpchat"
	"github.com/angelmondragon/storefront-core/internal/kvstore"
	"github.com/angelmondragon/storefront-core/internal/preferences"
	"github.com/angelmondragon/storefront-core/internal/receipts"
	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
	"github.com/angelmondragon/storefront-core/pkg/everrest"
	"github.com/angelmondragon/storefront-core/pkg/logger"
)

// Scope is the set of stores owned by one client session.
type Scope struct {
	ID          string
	Cart        *cart.Store
	History     *receipts.History
	Compare     *compare.List
	Preferences *preferences.Store
	Checkout    *checkout.Service
	Chat        *helpchat.Chat

	state    *kvstore.Store
	creds    *credentials
	remote   *remote
	logg     *logger.Logger
	lastSeen atomic.Int64
}

// Profile describes the signed-in user of a session.
type Profile struct {
	Email     string     `json:"email"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

func (s *Scope) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

func (s *Scope) idleSince() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

// Email returns the signed-in email, or "" for anonymous sessions.
func (s *Scope) Email() string {
	_, email := s.creds.get()
	return email
}

func (s *Scope) SignedIn() bool {
	token, _ := s.creds.get()
	return token != ""
}

// SignIn exchanges credentials for a token, stores it and pulls the remote
// cart. A failed cart pull does not fail the sign-in.
func (s *Scope) SignIn(ctx context.Context, form forms.SignIn) (*Profile, error) {
	if err := forms.Validate(form); err != nil {
		return nil, err
	}
	email := strings.TrimSpace(form.Email)
	tokens, err := s.remote.base.SignIn(ctx, email, form.Password)
	if err != nil {
		return nil, err
	}
	if tokens == nil || strings.TrimSpace(tokens.AccessToken) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "sign in returned no access token")
	}
	if err := s.creds.set(ctx, tokens.AccessToken, email); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to store session token")
	}

	logCtx := s.logg.WithEmail(ctx, email)
	if _, err := s.Cart.Reconcile(logCtx); err != nil {
		s.logg.Warn(s.logg.WithField(logCtx, "error", err.Error()), "cart reconcile after sign in failed")
	}
	s.logg.Info(logCtx, "signed in")

	profile := &Profile{Email: email}
	if exp, ok := tokenExpiry(tokens.AccessToken); ok {
		profile.ExpiresAt = &exp
	}
	return profile, nil
}

// SignUp registers an account. It does not sign the session in.
func (s *Scope) SignUp(ctx context.Context, form forms.SignUp) (*everrest.User, error) {
	if err := forms.Validate(form); err != nil {
		return nil, err
	}
	return s.remote.base.SignUp(ctx, form.Request())
}

// SignOut forgets the token and empties the local cart. The server cart is
// kept for the next sign-in.
func (s *Scope) SignOut(ctx context.Context) {
	s.creds.clear(ctx)
	s.Cart.Clear(ctx)
	s.logg.Info(ctx, "signed out")
}

// Me returns the shop profile for the session token.
func (s *Scope) Me(ctx context.Context) (*everrest.User, error) {
	if !s.SignedIn() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in required")
	}
	return s.remote.CurrentUser(ctx)
}

func (s *Scope) close() {
	s.Cart.Close()
}
