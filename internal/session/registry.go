// Package session owns the per-client store scopes. Each session id gets its
// own cart, receipt history, compare list, preferences, checkout and chat,
// created on first use and torn down on End or after sitting idle.
package session

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/storefront-core/internal/cart"
	"github.com/angelmondragon/storefront-core/internal/checkout"
	"github.com/angelmondragon/storefront-core/internal/compare"
	"github.com/angelmondragon/storefront-core/internal/favorites"
	"github.com/angelmondragon/storefront-core/internal/helpchat"
	"github.com/angelmondragon/storefront-core/internal/kvstore"
	"github.com/angelmondragon/storefront-core/internal/preferences"
	"github.com/angelmondragon/storefront-core/internal/receipts"
	"github.com/angelmondragon/storefront-core/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
	"github.com/angelmondragon/storefront-core/pkg/everrest"
	"github.com/angelmondragon/storefront-core/pkg/logger"
	"github.com/angelmondragon/storefront-core/pkg/metrics"
	"github.com/angelmondragon/storefront-core/pkg/types"
	"github.com/google/uuid"
)

const (
	// SharedNamespace holds state that outlives sessions, such as favorites.
	SharedNamespace = "shared"

	namespacePrefix = "session:"
	maxIDLength     = 128
	defaultIdleTTL  = 30 * time.Minute
)

type productLoader interface {
	Product(ctx context.Context, id string) (*types.Product, error)
}

// Params wires a Registry.
type Params struct {
	Backend  kvstore.Backend
	Remote   *everrest.Client
	Products productLoader
	Logger   *logger.Logger
	Metrics  *metrics.CartMetrics
	Session  config.SessionConfig
	Receipts config.ReceiptsConfig
	JWT      config.JWTConfig
	Now      func() time.Time
}

type Registry struct {
	mu     sync.Mutex
	scopes map[string]*Scope

	backend   kvstore.Backend
	base      *everrest.Client
	logg      *logger.Logger
	metrics   *metrics.CartMetrics
	idleTTL   time.Duration
	skew      time.Duration
	receipts  config.ReceiptsConfig
	favorites favorites.Service
	now       func() time.Time
}

func NewRegistry(p Params) (*Registry, error) {
	if p.Backend == nil {
		return nil, fmt.Errorf("storage backend required")
	}
	if p.Remote == nil {
		return nil, fmt.Errorf("shop client required")
	}
	if p.Products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	favs, err := favorites.NewService(favorites.ServiceParams{
		State:    kvstore.New(p.Backend, SharedNamespace, p.Logger),
		Products: p.Products,
	})
	if err != nil {
		return nil, err
	}
	idle := p.Session.IdleTTL
	if idle <= 0 {
		idle = defaultIdleTTL
	}
	now := p.Now
	if now == nil {
		now = time.Now
	}
	return &Registry{
		scopes:    map[string]*Scope{},
		backend:   p.Backend,
		base:      p.Remote,
		logg:      p.Logger,
		metrics:   p.Metrics,
		idleTTL:   idle,
		skew:      p.JWT.ExpirySkew,
		receipts:  p.Receipts,
		favorites: favs,
		now:       now,
	}, nil
}

// NewID mints a session id for clients that did not send one.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id can name a session.
func ValidID(id string) bool {
	id = strings.TrimSpace(id)
	return id != "" && len(id) <= maxIDLength
}

// Favorites is shared by every session and keyed by email.
func (r *Registry) Favorites() favorites.Service {
	return r.favorites
}

// Get returns the scope for id, building it from persisted state on first use.
func (r *Registry) Get(ctx context.Context, id string) (*Scope, error) {
	id = strings.TrimSpace(id)
	if !ValidID(id) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid session id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if scope, ok := r.scopes[id]; ok {
		scope.touch(r.now())
		return scope, nil
	}

	scope, err := r.build(ctx, id)
	if err != nil {
		return nil, err
	}
	scope.touch(r.now())
	r.scopes[id] = scope
	r.metrics.SetLiveSessions(len(r.scopes))
	r.logg.Info(r.logg.WithSessionID(ctx, id), "session scope opened")
	return scope, nil
}

func (r *Registry) build(ctx context.Context, id string) (*Scope, error) {
	state := kvstore.New(r.backend, namespacePrefix+id, r.logg)
	creds := loadCredentials(ctx, state, r.logg)
	rem := &remote{base: r.base, creds: creds, skew: r.skew, now: r.now, logg: r.logg}

	cartStore, err := cart.NewStore(ctx, cart.Params{
		State:   state,
		Remote:  rem,
		Logger:  r.logg,
		Metrics: r.metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("cart store: %w", err)
	}
	history, err := receipts.NewHistory(state, r.receipts.HistoryCap)
	if err != nil {
		return nil, fmt.Errorf("receipt history: %w", err)
	}
	compareList, err := compare.NewList(state)
	if err != nil {
		return nil, fmt.Errorf("compare list: %w", err)
	}
	prefs, err := preferences.New(state)
	if err != nil {
		return nil, fmt.Errorf("preferences: %w", err)
	}
	checkoutSvc, err := checkout.NewService(checkout.Params{
		Cart:    cartStore,
		Remote:  rem,
		History: history,
		Issuer:  receipts.Issuer{Layout: r.receipts.DateLayout},
		Logger:  r.logg,
		Now:     r.now,
	})
	if err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}

	return &Scope{
		ID:          id,
		Cart:        cartStore,
		History:     history,
		Compare:     compareList,
		Preferences: prefs,
		Checkout:    checkoutSvc,
		Chat:        helpchat.New(),
		state:       state,
		creds:       creds,
		remote:      rem,
		logg:        r.logg,
	}, nil
}

// Scopes returns the live scopes ordered by id.
func (r *Registry) Scopes() []*Scope {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Scope, 0, len(r.scopes))
	for _, scope := range r.scopes {
		out = append(out, scope)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.scopes)
}

// End closes the scope and erases everything persisted for the session.
func (r *Registry) End(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	r.mu.Lock()
	scope, ok := r.scopes[id]
	delete(r.scopes, id)
	live := len(r.scopes)
	r.mu.Unlock()
	r.metrics.SetLiveSessions(live)

	state := kvstore.New(r.backend, namespacePrefix+id, r.logg)
	if ok {
		scope.close()
		state = scope.state
	}
	if err := state.Clear(ctx); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to clear session state")
	}
	r.logg.Info(r.logg.WithSessionID(ctx, id), "session ended")
	return nil
}

// EvictIdle closes scopes unused for longer than the idle TTL. Their
// persisted state is kept, so a returning client picks up where it left.
func (r *Registry) EvictIdle(ctx context.Context) int {
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	var evicted []*Scope
	for id, scope := range r.scopes {
		if scope.idleSince().Before(cutoff) {
			evicted = append(evicted, scope)
			delete(r.scopes, id)
		}
	}
	live := len(r.scopes)
	r.mu.Unlock()

	for _, scope := range evicted {
		scope.close()
	}
	r.metrics.SetLiveSessions(live)
	if len(evicted) > 0 {
		r.logg.Info(r.logg.WithFields(ctx, map[string]any{"evicted": len(evicted), "live": live}), "idle sessions evicted")
	}
	return len(evicted)
}

// Close closes every scope without touching persisted state.
func (r *Registry) Close() {
	r.mu.Lock()
	scopes := r.scopes
	r.scopes = map[string]*Scope{}
	r.mu.Unlock()
	for _, scope := range scopes {
		scope.close()
	}
	r.metrics.SetLiveSessions(0)
}
