package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"sync"

	"github.com/angelmondragon/storefront-core/internal/kvstore"
	"github.com/angelmondragon/storefront-core/pkg/logger"
	"github.com/angelmondragon/storefront-core/pkg/metrics"
	"github.com/angelmondragon/storefront-core/pkg/types"
)

// Remote is the subset of the shop API the cart talks to.
type Remote interface {
	FetchCart(ctx context.Context) (json.RawMessage, error)
	MutateCart(ctx context.Context, productID string, quantity int) (json.RawMessage, error)
	RemoveCartLine(ctx context.Context, productID string) error
	ResetCart(ctx context.Context) error
	FetchProduct(ctx context.Context, id string) (*types.Product, error)
}

// Params wires a Store.
type Params struct {
	State   *kvstore.Store
	Remote  Remote
	Logger  *logger.Logger
	Metrics *metrics.CartMetrics
}

// Store owns one session's cart: its lines, its scalar count and the
// subscribers watching them. Every change is mirrored into local state.
type Store struct {
	mu      sync.Mutex
	state   *kvstore.Store
	remote  Remote
	logg    *logger.Logger
	metrics *metrics.CartMetrics

	lines   []Line
	count   int
	subs    map[int]func(Snapshot)
	nextSub int
	closed  bool
}

// NewStore builds a cart store and restores the persisted lines and count.
func NewStore(ctx context.Context, p Params) (*Store, error) {
	if p.State == nil {
		return nil, fmt.Errorf("cart state store required")
	}
	if p.Remote == nil {
		return nil, fmt.Errorf("cart remote required")
	}
	s := &Store{
		state:   p.State,
		remote:  p.Remote,
		logg:    p.Logger,
		metrics: p.Metrics,
		subs:    map[int]func(Snapshot){},
	}
	var lines []Line
	if s.state.ReadJSON(ctx, kvstore.KeyCart, &lines) {
		s.lines = lines
	}
	if n, ok := s.storedCount(ctx); ok {
		s.count = n
	} else {
		s.count = sumQuantities(s.lines)
	}
	return s, nil
}

func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyLines(s.lines)
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// SetCount stores floor(n) for finite non-negative n and 0 otherwise.
func (s *Store) SetCount(ctx context.Context, n float64) {
	s.mu.Lock()
	s.count = sanitizeCount(n)
	s.persistCountLocked(ctx)
	snap, subs := s.snapshotLocked(), s.subscribersLocked()
	s.mu.Unlock()
	notify(subs, snap)
}

// Increment adds by to the count, never going below zero. A non-finite
// delta counts as 1.
func (s *Store) Increment(ctx context.Context, by float64) {
	if math.IsNaN(by) || math.IsInf(by, 0) {
		by = 1
	}
	s.mu.Lock()
	s.count = sanitizeCount(float64(s.count) + by)
	s.persistCountLocked(ctx)
	snap, subs := s.snapshotLocked(), s.subscribersLocked()
	s.mu.Unlock()
	notify(subs, snap)
}

// SyncFromPayload recomputes the count from any cart-shaped payload.
func (s *Store) SyncFromPayload(ctx context.Context, payload any) int {
	count := CalculateCount(NormalizeItems(payload))
	s.SetCount(ctx, float64(count))
	return count
}

// Subscribe registers fn for every later change. The returned func removes it.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || fn == nil {
		return func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Close drops every subscriber. The persisted state stays in place.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.subs = map[int]func(Snapshot){}
}

// Clear empties the cart locally and removes the persisted line array.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	s.lines = nil
	s.count = 0
	if err := s.state.Delete(ctx, kvstore.KeyCart); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cart state delete failed")
	}
	s.persistCountLocked(ctx)
	snap, subs := s.snapshotLocked(), s.subscribersLocked()
	s.mu.Unlock()
	notify(subs, snap)
}

// Reset empties the remote cart, then the local one.
func (s *Store) Reset(ctx context.Context) error {
	if err := s.remote.ResetCart(ctx); err != nil {
		return err
	}
	s.Clear(ctx)
	return nil
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{Lines: copyLines(s.lines), Count: s.count}
}

func (s *Store) subscribersLocked() []func(Snapshot) {
	if len(s.subs) == 0 {
		return nil
	}
	out := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		out = append(out, fn)
	}
	return out
}

func notify(subs []func(Snapshot), snap Snapshot) {
	for _, fn := range subs {
		fn(Snapshot{Lines: copyLines(snap.Lines), Count: snap.Count})
	}
}

// persistLocked mirrors lines and count. Storage failures are logged; the
// in-memory state stays authoritative for the session.
func (s *Store) persistLocked(ctx context.Context) {
	if err := s.state.WriteJSON(ctx, kvstore.KeyCart, copyLines(s.lines)); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cart lines persist failed")
	}
	s.persistCountLocked(ctx)
}

func (s *Store) persistCountLocked(ctx context.Context) {
	if err := s.state.SetString(ctx, kvstore.KeyCartCount, strconv.Itoa(s.count)); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cart count persist failed")
	}
}

func (s *Store) storedCount(ctx context.Context) (int, bool) {
	raw, ok := s.state.GetString(ctx, kvstore.KeyCartCount)
	if !ok {
		return 0, false
	}
	return parseStoredCount(raw)
}

func (s *Store) indexOfLocked(productID string) int {
	for i, line := range s.lines {
		if line.ProductID == productID {
			return i
		}
	}
	return -1
}

func sanitizeCount(n float64) int {
	if math.IsNaN(n) || math.IsInf(n, 0) || n < 0 {
		return 0
	}
	return clampCount(n)
}
