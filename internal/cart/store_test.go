package cart

import (
	"context"
	"encoding/json"
	"math"
	"sync"
	"testing"

	"github.com/angelmondragon/storefront-core/internal/kvstore"
	"github.com/angelmondragon/storefront-core/pkg/logger"
	"github.com/angelmondragon/storefront-core/pkg/types"
	"github.com/stretchr/testify/require"
)

type stubRemote struct {
	mu sync.Mutex

	cart        json.RawMessage
	fetchErr    error
	mutateErr   error
	removeErr   error
	resetErr    error
	products    map[string]*types.Product
	productErr  map[string]error
	mutateCalls []mutateCall
	removeCalls []string
	resets      int

	// release, when set, blocks MutateCart until closed.
	release chan struct{}
}

type mutateCall struct {
	ProductID string
	Quantity  int
}

func (r *stubRemote) FetchCart(context.Context) (json.RawMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fetchErr != nil {
		return nil, r.fetchErr
	}
	return r.cart, nil
}

func (r *stubRemote) MutateCart(_ context.Context, productID string, quantity int) (json.RawMessage, error) {
	r.mu.Lock()
	r.mutateCalls = append(r.mutateCalls, mutateCall{ProductID: productID, Quantity: quantity})
	release := r.release
	err := r.mutateErr
	r.mu.Unlock()
	if release != nil {
		<-release
	}
	if err != nil {
		return nil, err
	}
	return json.RawMessage(`{}`), nil
}

func (r *stubRemote) RemoveCartLine(_ context.Context, productID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeCalls = append(r.removeCalls, productID)
	return r.removeErr
}

func (r *stubRemote) ResetCart(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resets++
	return r.resetErr
}

func (r *stubRemote) FetchProduct(_ context.Context, id string) (*types.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.productErr[id]; err != nil {
		return nil, err
	}
	if p, ok := r.products[id]; ok {
		return p, nil
	}
	return &types.Product{ID: id, Title: "product " + id}, nil
}

func (r *stubRemote) mutations() []mutateCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]mutateCall(nil), r.mutateCalls...)
}

func newTestState(t *testing.T) *kvstore.Store {
	t.Helper()
	return kvstore.New(kvstore.NewMemory(), "session-"+t.Name(), logger.Nop())
}

func newTestStore(t *testing.T, state *kvstore.Store, remote Remote) *Store {
	t.Helper()
	store, err := NewStore(context.Background(), Params{State: state, Remote: remote, Logger: logger.Nop()})
	require.NoError(t, err)
	return store
}

func TestNewStoreRequiresDependencies(t *testing.T) {
	t.Parallel()

	_, err := NewStore(context.Background(), Params{Remote: &stubRemote{}})
	require.Error(t, err)

	_, err = NewStore(context.Background(), Params{State: newTestState(t)})
	require.Error(t, err)
}

func TestNewStoreRestoresPersistedState(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	state := newTestState(t)
	require.NoError(t, state.WriteJSON(ctx, kvstore.KeyCart, []Line{{ProductID: "p1", Quantity: 2}}))
	require.NoError(t, state.SetString(ctx, kvstore.KeyCartCount, "7"))

	store := newTestStore(t, state, &stubRemote{})
	require.Equal(t, 7, store.Count())
	require.Len(t, store.Lines(), 1)
}

func TestNewStoreIgnoresCorruptState(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	state := newTestState(t)
	require.NoError(t, state.SetString(ctx, kvstore.KeyCart, "{not json"))
	require.NoError(t, state.SetString(ctx, kvstore.KeyCartCount, "abc"))

	store := newTestStore(t, state, &stubRemote{})
	require.Zero(t, store.Count())
	require.Empty(t, store.Lines())
}

func TestSetCount(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	state := newTestState(t)
	store := newTestStore(t, state, &stubRemote{})

	store.SetCount(ctx, 3.7)
	require.Equal(t, 3, store.Count())
	raw, ok := state.GetString(ctx, kvstore.KeyCartCount)
	require.True(t, ok)
	require.Equal(t, "3", raw)

	for _, bad := range []float64{-1, math.NaN(), math.Inf(1)} {
		store.SetCount(ctx, bad)
		require.Zero(t, store.Count())
	}
}

func TestIncrementNeverNegative(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	starts := []float64{0, 1, 5, 12}
	deltas := []float64{-20, -5, -1, 0, 1, 2.5, 7}
	for _, start := range starts {
		for _, delta := range deltas {
			store := newTestStore(t, newTestState(t), &stubRemote{})
			store.SetCount(ctx, start)
			store.Increment(ctx, delta)
			want := int(math.Floor(math.Max(0, start+delta)))
			require.Equalf(t, want, store.Count(), "start=%v delta=%v", start, delta)
		}
	}
}

func TestIncrementNonFiniteCountsAsOne(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t, newTestState(t), &stubRemote{})
	store.SetCount(ctx, 2)
	store.Increment(ctx, math.NaN())
	require.Equal(t, 3, store.Count())
}

func TestSyncFromPayload(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t, newTestState(t), &stubRemote{})
	payload := DecodePayload([]byte(`{"cart":{"items":[{"quantity":2},{"qty":3}]}}`))

	require.Equal(t, 5, store.SyncFromPayload(ctx, payload))
	require.Equal(t, 5, store.Count())
}

func TestCountSaturatesOnHugeValues(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t, newTestState(t), &stubRemote{})

	store.SetCount(ctx, 1e300)
	require.Equal(t, MaxCount, store.Count())
	store.Increment(ctx, 1e20)
	require.Equal(t, MaxCount, store.Count())

	payload := DecodePayload([]byte(`{"items":[{"quantity":1e20},{"quantity":"9e18"},{"quantity":5}]}`))
	require.Equal(t, MaxCount, store.SyncFromPayload(ctx, payload))
	require.Equal(t, MaxCount, store.Count())
}

func TestSubscribeAndClose(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t, newTestState(t), &stubRemote{})

	var seen []int
	unsubscribe := store.Subscribe(func(s Snapshot) { seen = append(seen, s.Count) })
	store.SetCount(ctx, 1)
	store.Increment(ctx, 2)
	unsubscribe()
	store.SetCount(ctx, 9)
	require.Equal(t, []int{1, 3}, seen)

	var afterClose int
	store.Subscribe(func(Snapshot) { afterClose++ })
	store.Close()
	store.SetCount(ctx, 4)
	require.Zero(t, afterClose)

	store.Subscribe(func(Snapshot) { afterClose++ })
	store.SetCount(ctx, 5)
	require.Zero(t, afterClose)
}

func TestClearRemovesPersistedLines(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	state := newTestState(t)
	store := newTestStore(t, state, &stubRemote{})
	_, err := store.Add(ctx, types.Product{ID: "p1"}, 2)
	require.NoError(t, err)

	store.Clear(ctx)
	require.Zero(t, store.Count())
	require.Empty(t, store.Lines())
	_, ok := state.GetString(ctx, kvstore.KeyCart)
	require.False(t, ok)
	raw, _ := state.GetString(ctx, kvstore.KeyCartCount)
	require.Equal(t, "0", raw)
}

func TestResetCallsRemote(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	remote := &stubRemote{}
	store := newTestStore(t, newTestState(t), remote)
	store.SetCount(ctx, 3)

	require.NoError(t, store.Reset(ctx))
	require.Equal(t, 1, remote.resets)
	require.Zero(t, store.Count())
}
