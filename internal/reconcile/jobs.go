package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-core/internal/session"
	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
	"github.com/angelmondragon/storefront-core/pkg/logger"
	"go.uber.org/multierr"
)

type sessionRegistry interface {
	Scopes() []*session.Scope
	EvictIdle(ctx context.Context) int
}

type CartJobParams struct {
	Logger   *logger.Logger
	Sessions sessionRegistry
}

// NewCartJob builds the job that reconciles every signed-in cart.
func NewCartJob(params CartJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session registry required")
	}
	return &cartJob{logg: params.Logger, sessions: params.Sessions}, nil
}

type cartJob struct {
	logg     *logger.Logger
	sessions sessionRegistry
}

func (j *cartJob) Name() string { return "cart-reconcile" }

// Run reconciles each signed-in session. Expired sessions are counted but are
// not failures; anything else is collected and reported together.
func (j *cartJob) Run(ctx context.Context) error {
	var (
		errs     []error
		synced   int
		expired  int
		skipped  int
		fellBack int
	)
	for _, scope := range j.sessions.Scopes() {
		if err := ctx.Err(); err != nil {
			return multierr.Append(multierr.Combine(errs...), err)
		}
		if !scope.SignedIn() {
			skipped++
			continue
		}
		source, err := scope.Cart.Reconcile(j.logg.WithSessionID(ctx, scope.ID))
		switch {
		case pkgerrors.IsCode(err, pkgerrors.CodeSessionExpired):
			expired++
		case err != nil:
			errs = append(errs, fmt.Errorf("session %s: %w", scope.ID, err))
		case source.IsFallback():
			fellBack++
		default:
			synced++
		}
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"synced":    synced,
		"fell_back": fellBack,
		"expired":   expired,
		"skipped":   skipped,
	})
	j.logg.Info(logCtx, "cart reconcile loop complete")
	return multierr.Combine(errs...)
}

type EvictionJobParams struct {
	Logger   *logger.Logger
	Sessions sessionRegistry
}

// NewEvictionJob builds the job that closes idle session scopes.
func NewEvictionJob(params EvictionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session registry required")
	}
	return &evictionJob{logg: params.Logger, sessions: params.Sessions}, nil
}

type evictionJob struct {
	logg     *logger.Logger
	sessions sessionRegistry
}

func (j *evictionJob) Name() string { return "session-eviction" }

func (j *evictionJob) Run(ctx context.Context) error {
	j.sessions.EvictIdle(ctx)
	return nil
}

type statePruner interface {
	Prune(ctx context.Context, before time.Time) (int64, error)
}

type PruneJobParams struct {
	Logger *logger.Logger
	Store  statePruner
	MaxAge time.Duration
	Now    func() time.Time
}

// NewPruneJob builds the job that deletes persisted state untouched for
// longer than MaxAge.
func NewPruneJob(params PruneJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("state store required")
	}
	if params.MaxAge <= 0 {
		return nil, fmt.Errorf("max age must be positive")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &pruneJob{logg: params.Logger, store: params.Store, maxAge: params.MaxAge, now: now}, nil
}

type pruneJob struct {
	logg   *logger.Logger
	store  statePruner
	maxAge time.Duration
	now    func() time.Time
}

func (j *pruneJob) Name() string { return "state-prune" }

func (j *pruneJob) Run(ctx context.Context) error {
	removed, err := j.store.Prune(ctx, j.now().Add(-j.maxAge))
	if err != nil {
		return fmt.Errorf("prune state: %w", err)
	}
	if removed > 0 {
		j.logg.Info(j.logg.WithField(ctx, "removed", removed), "stale session state pruned")
	}
	return nil
}
