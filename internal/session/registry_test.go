package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-core/internal/forms"
	"github.com/angelmondragon/storefront-core/internal/kvstore"
	"github.com/angelmondragon/storefront-core/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
	"github.com/angelmondragon/storefront-core/pkg/everrest"
	"github.com/angelmondragon/storefront-core/pkg/logger"
	"github.com/angelmondragon/storefront-core/pkg/types"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type shopStub struct {
	mu       sync.Mutex
	hits     map[string]int
	token    string
	cartBody string
	cartCode int
}

func (s *shopStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.hits[r.Method+" "+r.URL.Path]++
	token, body, code := s.token, s.cartBody, s.cartCode
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/auth/sign_in":
		_, _ = w.Write([]byte(`{"access_token":"` + token + `"}`))
	case "/shop/cart":
		if code != 0 {
			w.WriteHeader(code)
		}
		_, _ = w.Write([]byte(body))
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not found"}`))
	}
}

func (s *shopStub) count(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[key]
}

type productsStub struct{}

func (productsStub) Product(_ context.Context, id string) (*types.Product, error) {
	return &types.Product{ID: id, Title: "Product " + id}, nil
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": "ana@example.com",
		"exp":   exp.Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

type fixture struct {
	registry *Registry
	backend  *kvstore.Memory
	shop     *shopStub
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		backend: kvstore.NewMemory(),
		shop:    &shopStub{hits: map[string]int{}, cartBody: `{"products":[]}`},
		now:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	srv := httptest.NewServer(f.shop)
	t.Cleanup(srv.Close)

	registry, err := NewRegistry(Params{
		Backend:  f.backend,
		Remote:   everrest.NewClient(everrest.WithBaseURL(srv.URL)),
		Products: productsStub{},
		Logger:   logger.Nop(),
		Session:  config.SessionConfig{IdleTTL: 10 * time.Minute},
		Receipts: config.ReceiptsConfig{HistoryCap: 50},
		JWT:      config.JWTConfig{ExpirySkew: 30 * time.Second},
		Now:      func() time.Time { return f.now },
	})
	require.NoError(t, err)
	f.registry = registry
	return f
}

func TestGetReusesScope(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.registry.Get(ctx, "abc")
	require.NoError(t, err)
	second, err := f.registry.Get(ctx, " abc ")
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, f.registry.Len())

	_, err = f.registry.Get(ctx, "  ")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestSignInStoresTokenAndPullsCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.shop.token = signedToken(t, f.now.Add(time.Hour))
	f.shop.cartBody = `{"products":[{"productId":"p1","quantity":2},{"productId":"p2","quantity":1}]}`

	scope, err := f.registry.Get(ctx, "s1")
	require.NoError(t, err)
	profile, err := scope.SignIn(ctx, forms.SignIn{Email: " ana@example.com ", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", profile.Email)
	require.NotNil(t, profile.ExpiresAt)
	assert.True(t, profile.ExpiresAt.Equal(f.now.Add(time.Hour)))
	assert.Equal(t, 3, scope.Cart.Count())

	f.registry.Close()
	restored, err := f.registry.Get(ctx, "s1")
	require.NoError(t, err)
	assert.NotSame(t, scope, restored)
	assert.True(t, restored.SignedIn())
	assert.Equal(t, "ana@example.com", restored.Email())
	assert.Equal(t, 3, restored.Cart.Count())
}

func TestSignInValidationSkipsNetwork(t *testing.T) {
	f := newFixture(t)
	scope, err := f.registry.Get(context.Background(), "s1")
	require.NoError(t, err)

	_, err = scope.SignIn(context.Background(), forms.SignIn{Email: "not-an-email"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Zero(t, f.shop.count("POST /auth/sign_in"))
}

func TestExpiredTokenIsDroppedBeforeCall(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	scope, err := f.registry.Get(ctx, "s1")
	require.NoError(t, err)
	require.NoError(t, scope.creds.set(ctx, signedToken(t, f.now.Add(10*time.Second)), "ana@example.com"))

	_, err = scope.Cart.Reconcile(ctx)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeSessionExpired))
	assert.False(t, scope.SignedIn())
	assert.Zero(t, f.shop.count("GET /shop/cart"))

	_, ok := scope.state.GetString(ctx, kvstore.KeyAccessToken)
	assert.False(t, ok)
}

func TestRemoteTokenExpiredClearsCredentials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.shop.cartCode = http.StatusUnauthorized
	f.shop.cartBody = `{"error":"Token expired","errorKeys":["errors.token_expired"]}`

	scope, err := f.registry.Get(ctx, "s1")
	require.NoError(t, err)
	require.NoError(t, scope.creds.set(ctx, "opaque-token", "ana@example.com"))

	_, err = scope.Cart.Reconcile(ctx)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeSessionExpired))
	assert.Equal(t, 1, f.shop.count("GET /shop/cart"))
	assert.False(t, scope.SignedIn())
}

func TestSignOutClearsLocalCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	scope, err := f.registry.Get(ctx, "s1")
	require.NoError(t, err)
	require.NoError(t, scope.creds.set(ctx, "opaque-token", "ana@example.com"))
	scope.Cart.SetCount(ctx, 4)

	scope.SignOut(ctx)
	assert.False(t, scope.SignedIn())
	assert.Empty(t, scope.Email())
	assert.Zero(t, scope.Cart.Count())
}

func TestMeRequiresSignIn(t *testing.T) {
	f := newFixture(t)
	scope, err := f.registry.Get(context.Background(), "s1")
	require.NoError(t, err)
	_, err = scope.Me(context.Background())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestEvictIdleKeepsState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	stale, err := f.registry.Get(ctx, "stale")
	require.NoError(t, err)
	stale.Cart.SetCount(ctx, 2)

	f.now = f.now.Add(8 * time.Minute)
	_, err = f.registry.Get(ctx, "fresh")
	require.NoError(t, err)

	f.now = f.now.Add(5 * time.Minute)
	assert.Equal(t, 1, f.registry.EvictIdle(ctx))
	require.Len(t, f.registry.Scopes(), 1)
	assert.Equal(t, "fresh", f.registry.Scopes()[0].ID)

	back, err := f.registry.Get(ctx, "stale")
	require.NoError(t, err)
	assert.Equal(t, 2, back.Cart.Count())
}

func TestEndErasesState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	scope, err := f.registry.Get(ctx, "s1")
	require.NoError(t, err)
	scope.Cart.SetCount(ctx, 2)

	require.NoError(t, f.registry.End(ctx, "s1"))
	assert.Zero(t, f.registry.Len())

	fresh, err := f.registry.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Zero(t, fresh.Cart.Count())
}

func TestFavoritesOutliveSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	added, err := f.registry.Favorites().Add(ctx, "Ana@Example.com", "p1")
	require.NoError(t, err)
	require.True(t, added)
	require.NoError(t, f.registry.End(ctx, "s1"))

	list, err := f.registry.Favorites().List(ctx, "ana@example.com")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Product p1", list[0].Title)
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC)
	got, ok := tokenExpiry(signedToken(t, exp))
	require.True(t, ok)
	assert.True(t, got.Equal(exp))

	_, ok = tokenExpiry("opaque-token")
	assert.False(t, ok)
}
