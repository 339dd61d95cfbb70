package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/belacosmetics/storefront-backend/api/controllers"
	webhookcontrollers "github.com/belacosmetics/storefront-backend/api/controllers/webhooks"
	"github.com/belacosmetics/storefront-backend/api/middleware"
	"github.com/belacosmetics/storefront-backend/internal/auth"
	checkoutsvc "github.com/belacosmetics/storefront-backend/internal/checkout"
	"github.com/belacosmetics/storefront-backend/internal/coupons"
	"github.com/belacosmetics/storefront-backend/internal/dashboard"
	"github.com/belacosmetics/storefront-backend/internal/orders"
	"github.com/belacosmetics/storefront-backend/internal/shipping"
	"github.com/belacosmetics/storefront-backend/pkg/config"
	"github.com/belacosmetics/storefront-backend/pkg/logger"
	pkgredis "github.com/belacosmetics/storefront-backend/pkg/redis"
)

// RouterParams carries everything the HTTP surface needs. Nil services
// answer 500 from their handlers.
type RouterParams struct {
	Config *config.Config
	Logger *logger.Logger

	Readiness   map[string]controllers.Pinger
	Idempotency pkgredis.IdempotencyStore
	RateLimiter middleware.RateLimiterStore
	Metrics     http.Handler

	Auth      auth.Service
	Checkout  checkoutsvc.Service
	Orders    orders.Service
	Coupons   coupons.Service
	Shipping  shipping.Service
	Dashboard dashboard.Service
	Webhook   webhookcontrollers.MercadoPagoWebhookParams
}

func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, params.Readiness, logg))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/webhooks/mercadopago", webhookcontrollers.MercadoPagoWebhook(params.Webhook))
		r.With(middleware.AuthRateLimit(loginPolicy, params.RateLimiter, logg)).
			Post("/auth/login", controllers.AuthLogin(params.Auth, logg))
		r.Post("/pricing/quote", controllers.PricingQuote(params.Checkout, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.With(middleware.Idempotency(params.Idempotency, logg)).
				Post("/checkout", controllers.Checkout(params.Checkout, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.RequireAdmin(logg))

			r.Get("/dashboard", controllers.AdminDashboard(params.Dashboard, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.AdminListOrders(params.Orders, logg))
				r.Get("/{orderId}", controllers.AdminGetOrder(params.Orders, logg))
				r.Patch("/{orderId}", controllers.AdminUpdateOrderStatus(params.Orders, logg))
			})

			r.Route("/coupons", func(r chi.Router) {
				r.Get("/", controllers.AdminListCoupons(params.Coupons, logg))
				r.Post("/", controllers.AdminCreateCoupon(params.Coupons, logg))
				r.Get("/{couponId}", controllers.AdminGetCoupon(params.Coupons, logg))
				r.Put("/{couponId}", controllers.AdminUpdateCoupon(params.Coupons, logg))
				r.Delete("/{couponId}", controllers.AdminDeleteCoupon(params.Coupons, logg))
			})

			r.Route("/shipping-zones", func(r chi.Router) {
				r.Get("/", controllers.AdminListShippingZones(params.Shipping, logg))
				r.Post("/", controllers.AdminCreateShippingZone(params.Shipping, logg))
				r.Get("/{zoneId}", controllers.AdminGetShippingZone(params.Shipping, logg))
				r.Put("/{zoneId}", controllers.AdminUpdateShippingZone(params.Shipping, logg))
				r.Delete("/{zoneId}", controllers.AdminDeleteShippingZone(params.Shipping, logg))
			})
		})
	})

	return r
}
