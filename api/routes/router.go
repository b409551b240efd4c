package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/collections"
	"github.com/angelmondragon/storefront-backend/internal/customers"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	products "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/promotions"
	"github.com/angelmondragon/storefront-backend/internal/reviews"
	"github.com/angelmondragon/storefront-backend/internal/tags"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/storefront-backend/pkg/redis"
)

// RequestStore backs idempotency keys and rate limit counters.
type RequestStore interface {
	pkgredis.IdempotencyStore
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// Dependencies wires the router. Nil services answer 500 on their routes.
type Dependencies struct {
	DB       controllers.Pinger
	Redis    controllers.Pinger
	Store    RequestStore
	Sessions session.AccessSessionChecker
	Metrics  *metrics.HTTPMetrics
	Gatherer prometheus.Gatherer

	Auth        auth.Service
	Collections collections.Service
	Products    products.Service
	Reviews     reviews.Service
	Promotions  promotions.Service
	Tags        tags.Service
	Carts       cart.Service
	Customers   customers.Service
	Orders      orders.Service
	Checkout    checkout.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.Metrics),
		middleware.CORS(cfg.CORS),
	)

	loginPolicy := middleware.AuthRateLimitPolicy{
		Name:       "login",
		Window:     cfg.AuthRateLimit.LoginWindow,
		IPLimit:    cfg.AuthRateLimit.LoginIPLimit,
		EmailLimit: cfg.AuthRateLimit.LoginEmailLimit,
	}
	registerPolicy := middleware.AuthRateLimitPolicy{
		Name:       "register",
		Window:     cfg.AuthRateLimit.RegisterWindow,
		IPLimit:    cfg.AuthRateLimit.RegisterIPLimit,
		EmailLimit: cfg.AuthRateLimit.RegisterEmailLimit,
	}

	var idempotencyStore pkgredis.IdempotencyStore
	if deps.Store != nil {
		idempotencyStore = deps.Store
	}
	idempotent := middleware.Idempotency(idempotencyStore, logg)
	authn := middleware.Auth(cfg.JWT, deps.Sessions, logg)
	staff := middleware.RequireStaff(logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    deps.DB,
			"redis": deps.Redis,
		}))
	})
	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(registerPolicy, deps.Store, logg), idempotent).
				Post("/register", controllers.AuthRegister(deps.Auth, logg))
			r.With(middleware.AuthRateLimit(loginPolicy, deps.Store, logg)).
				Post("/login", controllers.AuthLogin(deps.Auth, logg))
			r.Post("/refresh", controllers.AuthRefresh(deps.Auth, logg))
			r.With(authn).Post("/logout", controllers.AuthLogout(deps.Auth, logg))
		})

		r.Route("/collections", func(r chi.Router) {
			r.Get("/", controllers.CollectionList(deps.Collections, logg))
			r.Get("/{id}", controllers.CollectionGet(deps.Collections, logg))
			r.Group(func(r chi.Router) {
				r.Use(authn, staff)
				r.Post("/", controllers.CollectionCreate(deps.Collections, logg))
				r.Patch("/{id}", controllers.CollectionUpdate(deps.Collections, logg))
				r.Delete("/{id}", controllers.CollectionDelete(deps.Collections, logg))
			})
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(deps.Products, logg))
			r.Get("/{id}", controllers.ProductGet(deps.Products, logg))
			r.Group(func(r chi.Router) {
				r.Use(authn, staff)
				r.Post("/", controllers.ProductCreate(deps.Products, logg))
				r.Patch("/{id}", controllers.ProductUpdate(deps.Products, logg))
				r.Delete("/{id}", controllers.ProductDelete(deps.Products, logg))
			})

			r.Route("/{id}/reviews", func(r chi.Router) {
				r.Get("/", controllers.ReviewList(deps.Reviews, logg))
				r.Post("/", controllers.ReviewCreate(deps.Reviews, logg))
				r.Get("/{reviewID}", controllers.ReviewGet(deps.Reviews, logg))
				r.Patch("/{reviewID}", controllers.ReviewUpdate(deps.Reviews, logg))
				r.Delete("/{reviewID}", controllers.ReviewDelete(deps.Reviews, logg))
			})
		})

		r.Route("/promotions", func(r chi.Router) {
			r.Get("/", controllers.PromotionList(deps.Promotions, logg))
			r.Group(func(r chi.Router) {
				r.Use(authn, staff)
				r.Post("/", controllers.PromotionCreate(deps.Promotions, logg))
				r.Delete("/{id}", controllers.PromotionDelete(deps.Promotions, logg))
			})
		})

		r.Route("/tags", func(r chi.Router) {
			r.Get("/", controllers.TagList(deps.Tags, logg))
			r.Get("/items", controllers.TaggedItemList(deps.Tags, logg))
			r.Group(func(r chi.Router) {
				r.Use(authn, staff)
				r.Post("/", controllers.TagCreate(deps.Tags, logg))
				r.Post("/items", controllers.TaggedItemCreate(deps.Tags, logg))
				r.Delete("/items", controllers.TaggedItemDelete(deps.Tags, logg))
			})
		})

		r.Route("/carts", func(r chi.Router) {
			r.Use(middleware.RateLimit("carts", cfg.RateLimit.Window, cfg.RateLimit.Limit, deps.Store, logg))
			items := controllers.CartItems(deps.Carts, logg)

			r.Post("/", controllers.CartCreate(deps.Carts, logg))
			r.Get("/{id}", controllers.CartGet(deps.Carts, logg))
			r.Delete("/{id}", controllers.CartDelete(deps.Carts, logg))
			r.Get("/{id}/items", items)
			r.With(idempotent).Post("/{id}/items", items)
			r.Get("/{id}/items/{itemID}", items)
			r.Patch("/{id}/items/{itemID}", items)
			r.Delete("/{id}/items/{itemID}", items)
		})

		r.Group(func(r chi.Router) {
			r.Use(authn)

			r.Route("/customers", func(r chi.Router) {
				r.Get("/me", controllers.CustomerMe(deps.Customers, logg))
				r.Put("/me", controllers.CustomerUpdateMe(deps.Customers, logg))
				r.Get("/me/address", controllers.CustomerAddressGet(deps.Customers, logg))
				r.Put("/me/address", controllers.CustomerAddressPut(deps.Customers, logg))
				r.Group(func(r chi.Router) {
					r.Use(staff)
					r.Get("/", controllers.CustomerList(deps.Customers, logg))
					r.Get("/{id}", controllers.CustomerGet(deps.Customers, logg))
					r.Put("/{id}", controllers.CustomerUpdate(deps.Customers, logg))
				})
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.OrderList(deps.Orders, logg))
				r.With(idempotent).Post("/", controllers.OrderCheckout(deps.Checkout, logg))
				r.Get("/{id}", controllers.OrderGet(deps.Orders, logg))
				r.Group(func(r chi.Router) {
					r.Use(staff)
					r.Patch("/{id}/payment-status", controllers.OrderUpdatePaymentStatus(deps.Orders, logg))
					r.Delete("/{id}", controllers.OrderDelete(deps.Orders, logg))
				})
			})
		})
	})

	return r
}
