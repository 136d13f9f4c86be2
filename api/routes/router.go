package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-core/api/controllers"
	"github.com/angelmondragon/storefront-core/api/middleware"
	"github.com/angelmondragon/storefront-core/internal/exchange"
	"github.com/angelmondragon/storefront-core/internal/favorites"
	"github.com/angelmondragon/storefront-core/internal/session"
	"github.com/angelmondragon/storefront-core/pkg/config"
	"github.com/angelmondragon/storefront-core/pkg/logger"
	"github.com/angelmondragon/storefront-core/pkg/redis"
)

type sessionRegistry interface {
	Get(ctx context.Context, id string) (*session.Scope, error)
	Favorites() favorites.Service
}

// Params wires the router. Redis is optional; without it checkout replay and
// auth rate limiting are off.
type Params struct {
	Config   *config.Config
	Logger   *logger.Logger
	Sessions sessionRegistry
	Catalog  controllers.Catalog
	Rates    exchange.Rates
	Redis    *redis.Client
	Pingers  map[string]controllers.Pinger
	Gatherer prometheus.Gatherer
}

func NewRouter(p Params) http.Handler {
	cfg, logg := p.Config, p.Logger
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	var (
		idempotencyStore middleware.IdempotencyStore
		rateLimitStore   middleware.RateLimitStore
	)
	if p.Redis != nil {
		idempotencyStore = p.Redis
		rateLimitStore = p.Redis
	}

	signInPolicy := middleware.NewAuthRateLimitPolicy(
		"sign-in",
		cfg.AuthRateLimit.SignInWindow,
		cfg.AuthRateLimit.SignInIPLimit,
		cfg.AuthRateLimit.SignInEmailLimit,
	)
	signUpPolicy := middleware.NewAuthRateLimitPolicy(
		"sign-up",
		cfg.AuthRateLimit.SignUpWindow,
		cfg.AuthRateLimit.SignUpIPLimit,
		cfg.AuthRateLimit.SignUpEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg.App.Env))
		r.Get("/ready", controllers.HealthReady(cfg.App.Env, logg, p.Pingers))
	})

	if p.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(p.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Get("/api/public/ping", controllers.PublicPing())

	favs := p.Sessions.Favorites()

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Session(p.Sessions, logg))

		r.Get("/ping", controllers.SessionPing())

		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(signUpPolicy, rateLimitStore, logg)).Post("/sign-up", controllers.AuthSignUp(logg))
			r.With(middleware.AuthRateLimit(signInPolicy, rateLimitStore, logg)).Post("/sign-in", controllers.AuthSignIn(logg))
			r.Get("/me", controllers.AuthMe(logg))
			r.Post("/sign-out", controllers.AuthSignOut(logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(p.Catalog, logg))
			r.Get("/best", controllers.ProductBest(p.Catalog, logg))
			r.Get("/suggest", controllers.ProductSuggest(p.Catalog, logg))
			r.Get("/{productId}", controllers.ProductDetail(p.Catalog, logg))
		})
		r.Get("/brands", controllers.BrandList(p.Catalog, logg))
		r.Get("/categories", controllers.CategoryList(p.Catalog, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(logg))
			r.Delete("/", controllers.CartClear(logg))
			r.Post("/reconcile", controllers.CartReconcile(logg))
			r.Post("/hydrate", controllers.CartHydrate(logg))
			r.Post("/items", controllers.CartAddItem(p.Catalog, logg))
			r.Patch("/items/{productId}", controllers.CartUpdateItem(logg))
			r.Delete("/items/{productId}", controllers.CartRemoveItem(logg))
		})

		r.With(middleware.Idempotency(idempotencyStore, cfg.AuthRateLimit.CheckoutReplayTTL, logg)).Post("/checkout", controllers.Checkout(logg))

		r.Route("/receipts", func(r chi.Router) {
			r.Get("/", controllers.ReceiptList(logg))
			r.Delete("/", controllers.ReceiptClear(logg))
			r.Get("/{number}", controllers.ReceiptDetail(logg))
		})

		r.Route("/favorites", func(r chi.Router) {
			r.Get("/", controllers.FavoriteList(favs, logg))
			r.Post("/", controllers.FavoriteAdd(favs, logg))
			r.Delete("/{productId}", controllers.FavoriteRemove(favs, logg))
		})

		r.Route("/compare", func(r chi.Router) {
			r.Get("/", controllers.CompareList(logg))
			r.Post("/", controllers.CompareAdd(p.Catalog, logg))
			r.Delete("/", controllers.CompareClear(logg))
			r.Delete("/{productId}", controllers.CompareRemove(logg))
		})

		r.Route("/preferences", func(r chi.Router) {
			r.Get("/last-search", controllers.LastSearchGet(logg))
			r.Put("/last-search", controllers.LastSearchPut(logg))
			r.Get("/gift", controllers.GiftGet(logg))
			r.Put("/gift", controllers.GiftPut(p.Catalog, logg))
			r.Delete("/gift", controllers.GiftDelete(logg))
		})

		r.Route("/chat", func(r chi.Router) {
			r.Get("/", controllers.ChatGet(logg))
			r.Delete("/", controllers.ChatReset(logg))
			r.Post("/messages", controllers.ChatSend(logg))
			r.Get("/questions", controllers.ChatQuestions())
		})

		r.Get("/exchange", controllers.ExchangeConvert(p.Rates, logg))
	})

	return r
}
