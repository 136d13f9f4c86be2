package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/storefront-core/api"
	"github.com/angelmondragon/storefront-core/api/controllers"
	"github.com/angelmondragon/storefront-core/api/routes"
	"github.com/angelmondragon/storefront-core/internal/catalog"
	"github.com/angelmondragon/storefront-core/internal/exchange"
	"github.com/angelmondragon/storefront-core/internal/kvstore"
	"github.com/angelmondragon/storefront-core/internal/reconcile"
	"github.com/angelmondragon/storefront-core/internal/session"
	"github.com/angelmondragon/storefront-core/pkg/config"
	"github.com/angelmondragon/storefront-core/pkg/db"
	"github.com/angelmondragon/storefront-core/pkg/env"
	"github.com/angelmondragon/storefront-core/pkg/everrest"
	"github.com/angelmondragon/storefront-core/pkg/logger"
	"github.com/angelmondragon/storefront-core/pkg/metrics"
	"github.com/angelmondragon/storefront-core/pkg/migrate"
	"github.com/angelmondragon/storefront-core/pkg/redis"
)

const serviceName = "storefront"

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "storefront stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var closers []func() error
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			err = multierr.Append(err, closers[i]())
		}
	}()

	pingers := map[string]controllers.Pinger{}

	var redisClient *redis.Client
	if cfg.Redis.URL != "" || cfg.Redis.Address != "" {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		closers = append(closers, redisClient.Close)
		pingers["redis"] = redisClient
	}

	backend, err := openBackend(ctx, cfg, logg, redisClient, &closers)
	if err != nil {
		return err
	}
	pingers["storage"] = backend

	remote := everrest.NewFromConfig(cfg.Remote, everrest.WithStateChangeHook(func(name string, from, to gobreaker.State) {
		logg.Warn(logg.WithFields(context.Background(), map[string]any{
			"breaker": name,
			"from":    from.String(),
			"to":      to.String(),
		}), "circuit breaker state changed")
	}))

	browser, err := catalog.NewBrowser(remote, cfg.Catalog, logg)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	cartMetrics := metrics.NewCartMetrics(reg)
	jobMetrics := metrics.NewJobMetrics(reg)

	sessions, err := session.NewRegistry(session.Params{
		Backend:  backend,
		Remote:   remote,
		Products: browser,
		Logger:   logg,
		Metrics:  cartMetrics,
		Session:  cfg.Session,
		Receipts: cfg.Receipts,
		JWT:      cfg.JWT,
	})
	if err != nil {
		return err
	}
	defer sessions.Close()

	handler := routes.NewRouter(routes.Params{
		Config:   cfg,
		Logger:   logg,
		Sessions: sessions,
		Catalog:  browser,
		Rates:    exchange.DefaultRates,
		Redis:    redisClient,
		Pingers:  pingers,
		Gatherer: reg,
	})

	scheduler, err := newScheduler(cfg, logg, redisClient, sessions, backend, jobMetrics)
	if err != nil {
		return err
	}

	server := api.NewServer(":"+port(cfg), handler)

	ctx = logg.WithFields(ctx, map[string]any{
		"env":     cfg.App.Env,
		"addr":    server.Addr,
		"storage": cfg.Storage.Backend,
	})
	logg.Info(ctx, "starting storefront")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := scheduler.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logg.Info(ctx, "shutting down storefront")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func openBackend(ctx context.Context, cfg *config.Config, logg *logger.Logger, redisClient *redis.Client, closers *[]func() error) (kvstore.Backend, error) {
	switch strings.ToLower(cfg.Storage.Backend) {
	case config.StorageBackendRedis:
		return kvstore.NewRedis(redisClient, cfg.Session.StateTTL), nil
	case config.StorageBackendSQL:
		dbClient, err := db.New(ctx, cfg.DB, logg)
		if err != nil {
			return nil, err
		}
		*closers = append(*closers, dbClient.Close)
		if err := migrate.MaybeAutoRun(ctx, cfg.DB, logg, dbClient); err != nil {
			return nil, err
		}
		return kvstore.NewSQL(dbClient), nil
	default:
		return kvstore.NewMemory(), nil
	}
}

// newScheduler guards cycles with a Redis lock when replicas can share one,
// and with an in-process lock otherwise.
func newScheduler(cfg *config.Config, logg *logger.Logger, redisClient *redis.Client, sessions *session.Registry, backend kvstore.Backend, jobMetrics *metrics.JobMetrics) (*reconcile.Service, error) {
	var lock reconcile.Lock = &reconcile.LocalLock{}
	if redisClient != nil {
		redisLock, err := reconcile.NewRedisLock(redisClient, redisClient.LockKey("reconcile:"+lockScope(cfg.App.Env)), cfg.Session.LockTTL)
		if err != nil {
			return nil, err
		}
		lock = redisLock
	}

	cartJob, err := reconcile.NewCartJob(reconcile.CartJobParams{Logger: logg, Sessions: sessions})
	if err != nil {
		return nil, err
	}
	evictionJob, err := reconcile.NewEvictionJob(reconcile.EvictionJobParams{Logger: logg, Sessions: sessions})
	if err != nil {
		return nil, err
	}

	jobs := reconcile.NewRegistry(cartJob, evictionJob)
	if sqlBackend, ok := backend.(*kvstore.SQL); ok {
		pruneJob, err := reconcile.NewPruneJob(reconcile.PruneJobParams{
			Logger: logg,
			Store:  sqlBackend,
			MaxAge: cfg.Session.StateTTL,
		})
		if err != nil {
			return nil, err
		}
		jobs.Register(pruneJob)
	}

	return reconcile.NewService(reconcile.ServiceParams{
		Logger:   logg,
		Registry: jobs,
		Lock:     lock,
		Metrics:  jobMetrics,
		Interval: cfg.Session.ReconcileInterval,
	})
}

func port(cfg *config.Config) string {
	if p := env.Lookup("PORT"); p != "" {
		return p
	}
	return cfg.App.Port
}

func lockScope(env string) string {
	if env == "" {
		return "local"
	}
	return env
}

