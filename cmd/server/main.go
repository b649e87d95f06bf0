package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quancoi2ka3/sportshop/internal"
	"github.com/quancoi2ka3/sportshop/internal/cart"
	"github.com/quancoi2ka3/sportshop/internal/cartstore"
	"github.com/quancoi2ka3/sportshop/internal/catalog"
	"github.com/quancoi2ka3/sportshop/internal/checkout"
	"github.com/quancoi2ka3/sportshop/internal/coupon"
	"github.com/quancoi2ka3/sportshop/internal/handler/storefront"
	"github.com/quancoi2ka3/sportshop/internal/middleware"
	"github.com/quancoi2ka3/sportshop/internal/payment"
	"github.com/quancoi2ka3/sportshop/internal/router"
	"github.com/quancoi2ka3/sportshop/internal/routes"
	"github.com/quancoi2ka3/sportshop/internal/telemetry"
)

func run() error {
	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize error tracking
	sentryCleanup, err := telemetry.InitSentry(telemetry.SentryConfig{
		DSN:         cfg.Sentry.DSN,
		Enabled:     cfg.Sentry.DSN != "",
		Environment: cfg.Env,
		Release:     cfg.Sentry.Release,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize Sentry: %w", err)
	}
	defer sentryCleanup()

	// Initialize cart persistence
	logger.Info("Initializing cart store...", "backend", cfg.Cart.Backend)
	store, err := cartstore.NewStore(cartstore.Config{
		Backend:       cfg.Cart.Backend,
		Dir:           cfg.Cart.Dir,
		RedisAddr:     cfg.Cart.RedisAddr,
		RedisPassword: cfg.Cart.RedisPassword,
		RedisDB:       cfg.Cart.RedisDB,
		TTL:           cfg.Cart.TTL,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize cart store: %w", err)
	}
	logger.Info("Cart store initialized")

	// Initialize cart service
	cartService := cart.NewService(store, coupon.NewStaticRegistry(), cart.Config{
		ShippingFlatCents:          cfg.Cart.ShippingFlatCents,
		FreeShippingThresholdCents: cfg.Cart.FreeShippingThresholdCents,
		Currency:                   cfg.Cart.Currency,
	})

	// Initialize catalog service (mock backend standing in for the real
	// product system)
	catalogService := catalog.NewMockService(cfg.CatalogLatency)

	// Initialize payment provider. Without an API key in dev we fall back
	// to the mock provider so the full checkout flow works offline.
	var provider payment.Provider
	if cfg.Stripe.SecretKey == "" && cfg.Env == "dev" {
		logger.Warn("No Stripe API key configured; using mock payment provider")
		provider = payment.NewMockProvider()
	} else {
		logger.Info("Initializing Stripe payment provider...")
		stripeConfig := payment.Config{
			SecretKey:                cfg.Stripe.SecretKey,
			EnableAutomaticTax:       cfg.Stripe.EnableAutomaticTax,
			AllowedShippingCountries: cfg.Stripe.AllowedShippingCountries,
			MaxRetries:               3,
		}
		stripeProvider, err := payment.NewStripeProvider(stripeConfig)
		if err != nil {
			return fmt.Errorf("failed to initialize Stripe provider: %w", err)
		}
		logger.Info("Stripe payment provider initialized", "test_mode", stripeConfig.IsTestMode())
		provider = stripeProvider
	}

	// Initialize metrics
	metrics := middleware.NewMetrics("sportshop")
	businessMetrics := telemetry.NewBusinessMetrics("sportshop")

	// Initialize checkout orchestrator
	orchestrator := checkout.NewOrchestrator(cartService, provider, logger,
		checkout.WithMetrics(businessMetrics),
		checkout.WithPolicy(checkout.Policy{
			SettleOnProcessing: cfg.Stripe.SettleOnProcessing,
			MaxActionAttempts:  3,
		}),
	)

	// ==========================================================================
	// Build route dependencies
	// ==========================================================================

	secureCookies := cfg.Env != "dev"
	deps := routes.StorefrontDeps{
		ProductHandler:  storefront.NewProductHandler(catalogService, businessMetrics),
		CartHandler:     storefront.NewCartHandler(cartService, catalogService, businessMetrics, secureCookies),
		CheckoutHandler: storefront.NewCheckoutHandler(orchestrator, provider, secureCookies),
		Metrics:         metrics,
	}

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	r := router.New(
		router.Recovery(logger),
		middleware.RequestID,
		telemetry.SentryMiddleware(),
		middleware.WithRequestLogger(logger),
		metrics.Middleware,
		router.CORS(cfg.AllowedOrigins),
		router.Logger(logger),
	)

	// Static files (product and category images)
	if cfg.StaticDir != "" {
		r.Static("/images/", cfg.StaticDir)
	}

	routes.RegisterStorefrontRoutes(r, deps)

	// ==========================================================================
	// Start server
	// ==========================================================================

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting storefront server", "address", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
