package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bhesbhusa/internal/config"
	"bhesbhusa/internal/database"
	"bhesbhusa/internal/events"
	"bhesbhusa/internal/handler"
	"bhesbhusa/internal/metrics"
	"bhesbhusa/internal/payment"
	"bhesbhusa/internal/ratelimit"
	"bhesbhusa/internal/repository"
	"bhesbhusa/internal/router"
	"bhesbhusa/internal/service"
	"bhesbhusa/internal/shipping"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting bhesbhusa API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	migrator := database.NewMigrator(pool, logger)
	if err := migrator.Up(ctx); err != nil {
		_ = migrator.Close()
		return err
	}
	_ = migrator.Close()

	// Shipping rates: S3 first when enabled, then the local sheet, then defaults
	rates, err := shipping.LoadConfigured(ctx, cfg.Shipping, cfg.S3, logger)
	if err != nil {
		return fmt.Errorf("failed to load shipping rates: %w", err)
	}

	m := metrics.New()

	publisher := events.NewPublisher(cfg.Kafka, logger)
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close event publisher")
		}
	}()

	limiter, closeLimiter, err := ratelimit.New(ctx, cfg.RateLimit, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize rate limiter: %w", err)
	}
	defer func() {
		if err := closeLimiter(); err != nil {
			logger.Error().Err(err).Msg("failed to close rate limiter")
		}
	}()

	gateway := payment.NewStripeGateway(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret, logger)

	// Initialize repositories
	clothesRepo := repository.NewClothesRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)

	// Initialize services
	clothesService := service.NewClothesService(clothesRepo, logger)
	orderService := service.NewOrderService(orderRepo, clothesRepo, rates, publisher, m, logger)
	paymentService := service.NewPaymentService(orderRepo, gateway, service.CheckoutConfig{
		Currency:   cfg.Stripe.Currency,
		SuccessURL: cfg.Stripe.SuccessURL,
		CancelURL:  cfg.Stripe.CancelURL,
	}, publisher, m, logger)

	// Initialize router
	mux := router.New(router.Handlers{
		Clothes: handler.NewClothesHandler(clothesService, logger),
		Order:   handler.NewOrderHandler(orderService, logger),
		Payment: handler.NewPaymentHandler(paymentService, logger),
	}, router.Options{
		APIKey:        cfg.Auth.APIKey,
		AllowedOrigin: cfg.Server.AllowedOrigin,
		Limiter:       limiter,
		Metrics:       m,
	}, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}
