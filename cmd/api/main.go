package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/belacosmetics/storefront-backend/api/controllers"
	webhookcontrollers "github.com/belacosmetics/storefront-backend/api/controllers/webhooks"
	"github.com/belacosmetics/storefront-backend/api/routes"
	"github.com/belacosmetics/storefront-backend/internal/auth"
	"github.com/belacosmetics/storefront-backend/internal/bootstrap"
	"github.com/belacosmetics/storefront-backend/internal/checkout"
	"github.com/belacosmetics/storefront-backend/internal/coupons"
	"github.com/belacosmetics/storefront-backend/internal/dashboard"
	"github.com/belacosmetics/storefront-backend/internal/orders"
	"github.com/belacosmetics/storefront-backend/internal/payments"
	"github.com/belacosmetics/storefront-backend/internal/pricing"
	"github.com/belacosmetics/storefront-backend/internal/shipping"
	"github.com/belacosmetics/storefront-backend/internal/users"
	mercadopagowebhook "github.com/belacosmetics/storefront-backend/internal/webhooks/mercadopago"
	"github.com/belacosmetics/storefront-backend/pkg/idempotency"
	"github.com/belacosmetics/storefront-backend/pkg/mercadopago"
	"github.com/belacosmetics/storefront-backend/pkg/metrics"
	"github.com/belacosmetics/storefront-backend/pkg/outbox"
)

const (
	webhookDeliveryTTL = 24 * time.Hour
	shutdownTimeout    = 15 * time.Second
)

func main() {
	ctx := context.Background()
	proc, err := bootstrap.Start("api")
	if err != nil {
		proc.Fatal(ctx, "api startup failed", err)
	}
	defer proc.Close()
	cfg, logg := proc.Config, proc.Logger
	fatal := func(msg string, err error) { proc.Fatal(ctx, msg, err) }

	dbClient, err := proc.Database(ctx)
	if err != nil {
		fatal("api startup failed", err)
	}
	redisClient, err := proc.Redis(ctx)
	if err != nil {
		fatal("api startup failed", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	webhookMetrics := metrics.NewWebhookMetrics(reg)

	conn := dbClient.DB()
	usersRepo := users.NewRepository(conn)
	ordersRepo := orders.NewRepository(conn)
	paymentsRepo := payments.NewRepository(conn)
	couponsRepo := coupons.NewRepository(conn)
	shippingRepo := shipping.NewRepository(conn)
	outboxService := outbox.NewService(outbox.NewRepository(conn), logg)

	gateway, err := mercadopago.NewClient(cfg.MercadoPago, cfg.App.PublicURL)
	if err != nil {
		fatal("failed to create mercadopago client", err)
	}

	quoter, err := pricing.NewQuoter(couponsRepo, shippingRepo)
	if err != nil {
		fatal("failed to create quoter", err)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:  usersRepo,
		JWTConfig: cfg.JWT,
	})
	if err != nil {
		fatal("failed to create auth service", err)
	}

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Repository:        checkout.NewRepository(conn),
		Orders:            ordersRepo,
		Payments:          paymentsRepo,
		Coupons:           couponsRepo,
		Users:             usersRepo,
		Quoter:            quoter,
		Gateway:           gateway,
		Transactions:      dbClient,
		Outbox:            outboxService,
		Logger:            logg,
		PendingPaymentTTL: cfg.Checkout.PendingPaymentTTL,
	})
	if err != nil {
		fatal("failed to create checkout service", err)
	}

	ordersService, err := orders.NewService(ordersRepo, dbClient, outboxService)
	if err != nil {
		fatal("failed to create orders service", err)
	}

	couponsService, err := coupons.NewService(couponsRepo)
	if err != nil {
		fatal("failed to create coupons service", err)
	}

	shippingService, err := shipping.NewService(shippingRepo)
	if err != nil {
		fatal("failed to create shipping service", err)
	}

	dashboardService, err := dashboard.NewService(dashboard.NewRepository(conn))
	if err != nil {
		fatal("failed to create dashboard service", err)
	}

	reconciler, err := mercadopagowebhook.NewService(mercadopagowebhook.ServiceParams{
		Payments:      paymentsRepo,
		Orders:        ordersRepo,
		Gateway:       gateway,
		Transactions:  dbClient,
		Outbox:        outboxService,
		Logger:        logg,
		StatusTimeout: cfg.MercadoPago.StatusTimeout,
	})
	if err != nil {
		fatal("failed to create webhook reconciler", err)
	}

	deliveries, err := idempotency.NewManager(redisClient, webhookDeliveryTTL)
	if err != nil {
		fatal("failed to create webhook idempotency manager", err)
	}
	guard, err := mercadopagowebhook.NewDeliveryGuard(deliveries)
	if err != nil {
		fatal("failed to create webhook delivery guard", err)
	}

	router := routes.NewRouter(routes.RouterParams{
		Config: cfg,
		Logger: logg,
		Readiness: map[string]controllers.Pinger{
			"db":    dbClient,
			"redis": redisClient,
		},
		Idempotency: redisClient,
		RateLimiter: redisClient,
		Metrics:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		Auth:        authService,
		Checkout:    checkoutService,
		Orders:      ordersService,
		Coupons:     couponsService,
		Shipping:    shippingService,
		Dashboard:   dashboardService,
		Webhook: webhookcontrollers.MercadoPagoWebhookParams{
			Reconciler: reconciler,
			Guard:      guard,
			Secret:     cfg.MercadoPago.WebhookSecret,
			Metrics:    webhookMetrics,
			Logger:     logg,
		},
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	runCtx, stop := proc.SignalContext()
	defer stop()
	runCtx = logg.WithField(runCtx, "addr", server.Addr)

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(runCtx, "api server listening")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			proc.Fatal(runCtx, "api server stopped", err)
		}
	case <-runCtx.Done():
		logg.Info(runCtx, "api server draining")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "api server shutdown failed", err)
		}
	}
}
