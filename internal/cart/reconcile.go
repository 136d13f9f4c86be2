package cart

import (
	"context"

	"github.com/angelmondragon/storefront-core/internal/kvstore"
	"github.com/angelmondragon/storefront-core/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
	"golang.org/x/sync/errgroup"
)

const hydrateConcurrency = 4

// Reconcile replaces the local cart with the server's. When the server cannot
// be reached it falls back to the persisted lines, then the persisted count,
// then zero. Only an expired session is reported as an error; the fallback
// has been applied by then as well.
func (s *Store) Reconcile(ctx context.Context) (enums.ReconcileSource, error) {
	raw, err := s.remote.FetchCart(ctx)
	if err == nil {
		items := NormalizeItems(DecodePayload(raw))
		s.replace(ctx, linesFromItems(items), CalculateCount(items))
		s.metrics.IncReconcile(enums.ReconcileSourceRemote.String())
		return enums.ReconcileSourceRemote, nil
	}

	source := s.fallback(ctx)
	s.metrics.IncReconcile(source.String())
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"source": source.String(),
		"error":  err.Error(),
	})
	if pkgerrors.IsCode(err, pkgerrors.CodeSessionExpired) {
		s.logg.Warn(logCtx, "cart reconcile hit an expired session")
		return source, err
	}
	s.logg.Info(logCtx, "cart reconcile fell back to local state")
	return source, nil
}

func (s *Store) fallback(ctx context.Context) enums.ReconcileSource {
	var lines []Line
	if s.state.ReadJSON(ctx, kvstore.KeyCart, &lines) && len(lines) > 0 {
		s.replace(ctx, lines, sumQuantities(lines))
		return enums.ReconcileSourceLocalCart
	}
	if n, ok := s.storedCount(ctx); ok {
		s.SetCount(ctx, float64(n))
		return enums.ReconcileSourceLocalCount
	}
	s.replace(ctx, nil, 0)
	return enums.ReconcileSourceZero
}

// Hydrate fetches the server cart and then the detail of every line. A line
// whose detail cannot be loaded keeps whatever snapshot it already had.
func (s *Store) Hydrate(ctx context.Context) (Snapshot, error) {
	raw, err := s.remote.FetchCart(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	items := NormalizeItems(DecodePayload(raw))
	lines := mergeSnapshots(linesFromItems(items), s.Lines())

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(hydrateConcurrency)
	for i := range lines {
		g.Go(func() error {
			product, err := s.remote.FetchProduct(gctx, lines[i].ProductID)
			if err != nil {
				s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
					"product_id": lines[i].ProductID,
					"error":      err.Error(),
				}), "cart line detail unavailable")
				return nil
			}
			lines[i].Product = product
			return nil
		})
	}
	_ = g.Wait()

	s.replace(ctx, lines, CalculateCount(items))
	return s.Snapshot(), nil
}

func (s *Store) replace(ctx context.Context, lines []Line, count int) {
	s.mu.Lock()
	s.lines = mergeSnapshots(lines, s.lines)
	s.count = max(0, count)
	s.unlockAndPublish(ctx)
}
