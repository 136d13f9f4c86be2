package favorites

import (
	"context"
	"testing"

	"github.com/angelmondragon/storefront-core/internal/kvstore"
	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
	"github.com/angelmondragon/storefront-core/pkg/logger"
	"github.com/angelmondragon/storefront-core/pkg/types"
	"github.com/stretchr/testify/require"
)

type stubProducts struct {
	calls int
}

func (s *stubProducts) Product(_ context.Context, id string) (*types.Product, error) {
	s.calls++
	if id == "missing" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return &types.Product{
		ID:     id,
		Title:  "Product " + id,
		Images: []string{id + ".png"},
		Price:  types.NewPrice(12.5),
		Rating: 4.2,
	}, nil
}

func newTestService(t *testing.T) (Service, *kvstore.Store) {
	t.Helper()
	state := kvstore.New(kvstore.NewMemory(), "shared", logger.Nop())
	svc, err := NewService(ServiceParams{State: state, Products: &stubProducts{}})
	require.NoError(t, err)
	return svc, state
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{Products: &stubProducts{}})
	require.Error(t, err)
	_, err = NewService(ServiceParams{State: kvstore.New(kvstore.NewMemory(), "x", nil)})
	require.Error(t, err)
}

func TestAddSkipsDuplicates(t *testing.T) {
	ctx := context.Background()
	svc, state := newTestService(t)

	added, err := svc.Add(ctx, "Nino@Example.com", "p1")
	require.NoError(t, err)
	require.True(t, added)
	added, err = svc.Add(ctx, "nino@example.com", "p1")
	require.NoError(t, err)
	require.False(t, added)

	list, err := svc.List(ctx, "nino@example.com")
	require.NoError(t, err)
	require.Equal(t, []Favorite{{ID: "p1", Title: "Product p1", Image: "p1.png", Price: 12.5, Rating: 4.2}}, list)

	_, ok := state.GetString(ctx, "favorites_nino@example.com")
	require.True(t, ok)
}

func TestListsAreSeparatedByEmail(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.Add(ctx, "a@example.com", "p1")
	require.NoError(t, err)
	list, err := svc.List(ctx, "b@example.com")
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestRemoveToggleClear(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	email := "a@example.com"

	on, err := svc.Toggle(ctx, email, "p1")
	require.NoError(t, err)
	require.True(t, on)
	_, err = svc.Add(ctx, email, "p2")
	require.NoError(t, err)

	on, err = svc.Toggle(ctx, email, "p1")
	require.NoError(t, err)
	require.False(t, on)

	has, err := svc.Contains(ctx, email, "p2")
	require.NoError(t, err)
	require.True(t, has)

	require.NoError(t, svc.Remove(ctx, email, " p2 "))
	list, _ := svc.List(ctx, email)
	require.Empty(t, list)

	_, err = svc.Add(ctx, email, "p3")
	require.NoError(t, err)
	require.NoError(t, svc.Clear(ctx, email))
	list, _ = svc.List(ctx, email)
	require.Empty(t, list)
}

func TestFavoritesErrors(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.List(ctx, " ")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	_, err = svc.Add(ctx, "a@example.com", "")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Add(ctx, "a@example.com", "missing")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestCorruptListReadsEmpty(t *testing.T) {
	ctx := context.Background()
	svc, state := newTestService(t)
	require.NoError(t, state.SetString(ctx, kvstore.FavoritesKey("a@example.com"), "{oops"))

	list, err := svc.List(ctx, "a@example.com")
	require.NoError(t, err)
	require.Empty(t, list)
}
