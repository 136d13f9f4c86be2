package cart

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-core/internal/kvstore"
	"github.com/angelmondragon/storefront-core/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
	"github.com/angelmondragon/storefront-core/pkg/types"
	"github.com/stretchr/testify/require"
)

func TestAddCommits(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	remote := &stubRemote{}
	state := newTestState(t)
	store := newTestStore(t, state, remote)

	m, err := store.Add(ctx, types.Product{ID: "p1", Title: "Phone"}, 2)
	require.NoError(t, err)
	require.Equal(t, enums.MutationStateCommitted, m.State)
	require.Equal(t, enums.MutationKindAdd, m.Kind)

	m, err = store.Add(ctx, types.Product{ID: "p1"}, 1)
	require.NoError(t, err)
	require.Equal(t, enums.MutationStateCommitted, m.State)

	lines := store.Lines()
	require.Len(t, lines, 1)
	require.Equal(t, 3, lines[0].Quantity)
	require.Equal(t, "Phone", lines[0].Title())
	require.Equal(t, 3, store.Count())
	require.Equal(t, []mutateCall{{"p1", 2}, {"p1", 3}}, remote.mutations())

	var persisted []Line
	require.True(t, state.ReadJSON(ctx, kvstore.KeyCart, &persisted))
	require.Len(t, persisted, 1)
	require.Equal(t, 3, persisted[0].Quantity)
}

func TestAddValidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	remote := &stubRemote{}
	store := newTestStore(t, newTestState(t), remote)

	_, err := store.Add(ctx, types.Product{ID: " "}, 1)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = store.Add(ctx, types.Product{ID: "p1"}, 0)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	require.Empty(t, remote.mutations())
}

func TestAddRollsBackOnRemoteFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	remote := &stubRemote{}
	state := newTestState(t)
	store := newTestStore(t, state, remote)
	_, err := store.Add(ctx, types.Product{ID: "p1"}, 1)
	require.NoError(t, err)

	remote.mutateErr = pkgerrors.New(pkgerrors.CodeDependency, "down")
	var counts []int
	store.Subscribe(func(s Snapshot) { counts = append(counts, s.Count) })

	m, err := store.Add(ctx, types.Product{ID: "p2"}, 2)
	require.Error(t, err)
	require.Equal(t, enums.MutationStateRolledBack, m.State)
	require.Equal(t, []int{3, 1}, counts)

	lines := store.Lines()
	require.Len(t, lines, 1)
	require.Equal(t, "p1", lines[0].ProductID)
	require.Equal(t, 1, store.Count())

	raw, _ := state.GetString(ctx, kvstore.KeyCartCount)
	require.Equal(t, "1", raw)
}

func TestConcurrentAddsOfSameProduct(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	remote := &stubRemote{release: make(chan struct{})}
	store := newTestStore(t, newTestState(t), remote)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = store.Add(ctx, types.Product{ID: "p1"}, 1)
		}(i)
	}

	require.Eventually(t, func() bool { return len(remote.mutations()) == 2 }, time.Second, 5*time.Millisecond)
	close(remote.release)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	lines := store.Lines()
	require.Len(t, lines, 1)
	require.Equal(t, 2, lines[0].Quantity)
	require.Equal(t, 2, store.Count())

	targets := map[int]bool{}
	for _, call := range remote.mutations() {
		targets[call.Quantity] = true
	}
	require.Equal(t, map[int]bool{1: true, 2: true}, targets)
}

func TestRemove(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	remote := &stubRemote{}
	store := newTestStore(t, newTestState(t), remote)
	_, err := store.Add(ctx, types.Product{ID: "p1"}, 2)
	require.NoError(t, err)
	_, err = store.Add(ctx, types.Product{ID: "p2"}, 1)
	require.NoError(t, err)

	m, err := store.Remove(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, enums.MutationStateCommitted, m.State)
	require.Equal(t, []string{"p1"}, remote.removeCalls)
	require.Equal(t, 1, store.Count())
	require.Len(t, store.Lines(), 1)

	_, err = store.Remove(ctx, "missing")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestRemoveRestoresLineOnFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	remote := &stubRemote{}
	store := newTestStore(t, newTestState(t), remote)
	_, err := store.Add(ctx, types.Product{ID: "p1", Title: "Phone"}, 2)
	require.NoError(t, err)

	remote.removeErr = errors.New("boom")
	m, err := store.Remove(ctx, "p1")
	require.Error(t, err)
	require.Equal(t, enums.MutationStateRolledBack, m.State)

	lines := store.Lines()
	require.Len(t, lines, 1)
	require.Equal(t, 2, lines[0].Quantity)
	require.Equal(t, "Phone", lines[0].Title())
	require.Equal(t, 2, store.Count())
}

func TestSetQuantity(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	remote := &stubRemote{}
	store := newTestStore(t, newTestState(t), remote)
	_, err := store.Add(ctx, types.Product{ID: "p1"}, 1)
	require.NoError(t, err)

	m, err := store.SetQuantity(ctx, "p1", 4)
	require.NoError(t, err)
	require.Equal(t, enums.MutationKindSetQuantity, m.Kind)
	require.Equal(t, 4, store.Count())
	require.Equal(t, mutateCall{"p1", 4}, remote.mutations()[1])

	remote.mutateErr = errors.New("boom")
	_, err = store.SetQuantity(ctx, "p1", 9)
	require.Error(t, err)
	require.Equal(t, 4, store.Lines()[0].Quantity)
	require.Equal(t, 4, store.Count())

	_, err = store.SetQuantity(ctx, "p1", -1)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = store.SetQuantity(ctx, "nope", 2)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestSetQuantityZeroRemovesLine(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	remote := &stubRemote{}
	store := newTestStore(t, newTestState(t), remote)
	_, err := store.Add(ctx, types.Product{ID: "p1"}, 3)
	require.NoError(t, err)

	m, err := store.SetQuantity(ctx, "p1", 0)
	require.NoError(t, err)
	require.Equal(t, enums.MutationKindSetQuantity, m.Kind)
	require.Equal(t, []string{"p1"}, remote.removeCalls)
	require.Empty(t, store.Lines())
	require.Zero(t, store.Count())
}

func TestMutationTransitionIsOneShot(t *testing.T) {
	t.Parallel()

	m := newMutation(enums.MutationKindAdd, "p1", 1)
	require.NoError(t, m.transition(enums.MutationStateCommitted))
	require.Error(t, m.transition(enums.MutationStateRolledBack))
	require.Equal(t, enums.MutationStateCommitted, m.State)
}
