package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront/api/controllers"
	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/internal/storefront"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/logger"
)

// RateLimiter counts requests in fixed windows. The Redis client satisfies it.
type RateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Params carries everything the router mounts. A nil RateLimiter disables
// auth throttling and a nil Metrics handler leaves /metrics unmounted.
type Params struct {
	Config    *config.Config
	Logger    *logger.Logger
	Catalog   catalog.Service
	Devices   *storefront.Registry
	RateLimit RateLimiter
	Readiness map[string]controllers.Pinger
	Metrics   http.Handler
}

func NewRouter(p Params) http.Handler {
	cfg, logg := p.Config, p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	signInPolicy := middleware.NewAuthRateLimitPolicy(
		"sign_in",
		cfg.AuthRateLimit.SignInWindow,
		cfg.AuthRateLimit.SignInIPLimit,
		cfg.AuthRateLimit.SignInEmailLimit,
	)
	signUpPolicy := middleware.NewAuthRateLimitPolicy(
		"sign_up",
		cfg.AuthRateLimit.SignUpWindow,
		cfg.AuthRateLimit.SignUpIPLimit,
		cfg.AuthRateLimit.SignUpEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.Readiness))
	})
	if p.Metrics != nil {
		r.Handle("/metrics", p.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(p.Catalog, logg))
			r.Get("/by-slug/{slug}", controllers.ProductBySlug(p.Catalog, logg))
			r.Get("/{productId}/variants", controllers.ProductVariants(p.Catalog, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Device(p.Devices, logg))

			r.Route("/auth", func(r chi.Router) {
				r.With(middleware.AuthRateLimit(signUpPolicy, p.RateLimit, logg)).Post("/sign-up", controllers.AuthSignUp(logg))
				r.With(middleware.AuthRateLimit(signInPolicy, p.RateLimit, logg)).Post("/sign-in", controllers.AuthSignIn(logg))
				r.Post("/sign-out", controllers.AuthSignOut(logg))
				r.Get("/session", controllers.AuthSession(logg))
			})

			r.Route("/profile", func(r chi.Router) {
				r.Use(middleware.RequireSession(cfg.JWT, logg))
				r.Get("/", controllers.ProfileGet(logg))
				r.Patch("/", controllers.ProfileUpdate(logg))
			})

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartGet(logg))
				r.Delete("/", controllers.CartClear(logg))
				r.Post("/refresh", controllers.CartRefresh(logg))
				r.Post("/items", controllers.CartAdd(logg))
				r.Patch("/items/{itemId}", controllers.CartUpdateQuantity(logg))
				r.Delete("/items/{itemId}", controllers.CartRemoveItem(logg))
			})

			r.Route("/wishlist", func(r chi.Router) {
				r.Get("/", controllers.WishlistGet(logg))
				r.Post("/items", controllers.WishlistAdd(logg))
				r.Get("/items/{productId}", controllers.WishlistContains(logg))
				r.Delete("/items/{productId}", controllers.WishlistRemove(logg))
			})
		})
	})

	return r
}
