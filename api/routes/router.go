package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	checkoutsvc "github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	products "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

// Dependencies probed by /health/ready. Nil entries are reported as skipped.
type Dependencies struct {
	DB     controllers.Pinger
	Redis  controllers.Pinger
	PubSub controllers.Pinger
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	deps Dependencies,
	redisClient *redis.Client,
	metricsHandler http.Handler,
	authService auth.Service,
	adminRegisterService auth.AdminRegisterService,
	productService products.Service,
	cartService cart.Service,
	checkoutService checkoutsvc.Service,
	ordersService orders.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.CORS(),
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": deps.DB,
			"redis":    deps.Redis,
			"pubsub":   deps.PubSub,
		}))
	})

	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(productService, logg))
			r.Get("/{productId}", controllers.ProductDetail(productService, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.CartSession(cfg.Cart.SessionCookie, cfg.Cart.SessionTTL, cfg.App.IsProd(), logg))
			r.Use(middleware.Idempotency(redisClient, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(cartService, logg))
				r.Get("/totals", controllers.CartTotals(cartService, logg))
				r.Post("/items", controllers.CartAddItem(cartService, logg))
				r.Patch("/items/{itemId}", controllers.CartUpdateItem(cartService, logg))
				r.Delete("/items/{itemId}", controllers.CartRemoveItem(cartService, logg))
				r.Post("/coupon", controllers.CartApplyCoupon(cartService, logg))
			})
			r.Post("/checkout", controllers.Checkout(checkoutService, logg))
			r.Get("/orders/{orderId}", controllers.OrderDetail(ordersService, logg))
		})
	})

	r.Route("/api/admin/v1/auth", func(r chi.Router) {
		if !cfg.App.IsProd() {
			r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.AdminAuthRegister(adminRegisterService, logg))
		}
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AdminAuthLogin(authService, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(enums.SystemRoleAdmin, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.AdminProductList(productService, logg))
			r.Post("/", controllers.AdminCreateProduct(productService, logg))
			r.Patch("/{productId}", controllers.AdminUpdateProduct(productService, logg))
			r.Delete("/{productId}", controllers.AdminDeleteProduct(productService, logg))
		})
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminOrderList(ordersService, logg))
			r.Get("/{orderId}", controllers.AdminOrderDetail(ordersService, logg))
			r.Post("/{orderId}/status", controllers.AdminOrderStatus(ordersService, logg))
		})
	})

	return r
}

// NewOfflineRouter serves the offline cache process: control endpoints for the
// active worker, metrics, and every other request through the host dispatcher.
func NewOfflineRouter(logg *logger.Logger, host OfflineHost, metricsHandler http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	r.Route("/__offline", func(r chi.Router) {
		r.Post("/message", controllers.OfflineMessage(host, logg))
		r.Post("/push", controllers.OfflinePush(host, logg))
		r.Post("/notification-click", controllers.OfflineNotificationClick(host, logg))
	})

	r.NotFound(host.ServeHTTP)
	r.MethodNotAllowed(host.ServeHTTP)
	return r
}

// OfflineHost is the dispatcher behind the offline router.
type OfflineHost interface {
	controllers.OfflineController
	http.Handler
}
