package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"bhesbhusa/internal/database"
	"bhesbhusa/internal/database/dbtest"
	"bhesbhusa/internal/handler"
	"bhesbhusa/internal/metrics"
	"bhesbhusa/internal/payment"
	"bhesbhusa/internal/repository"
	"bhesbhusa/internal/router"
	"bhesbhusa/internal/service"
	"bhesbhusa/internal/shipping"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

const (
	testAPIKey        = "integration-api-key"
	testWebhookSecret = "whsec_integration"
)

// Stack is the application wired against a real database and a stub payment processor.
type Stack struct {
	DB       *dbtest.TestDB
	Handler  http.Handler
	Orders   service.OrderService
	Metrics  *metrics.Metrics
	Sessions *atomic.Int64
}

// SetupStack starts a migrated, seeded database and wires every layer on top of it.
func SetupStack(t *testing.T) *Stack {
	t.Helper()

	db := dbtest.New(t)
	logger := zerolog.Nop()

	if err := database.Seed(context.Background(), db.Pool, logger); err != nil {
		t.Fatalf("failed to seed database: %v", err)
	}

	sessions := &atomic.Int64{}
	processor := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := fmt.Sprintf("cs_test_%d", sessions.Add(1))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     id,
			"object": "checkout.session",
			"url":    "https://checkout.stripe.test/" + id,
		})
	}))
	t.Cleanup(processor.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(processor.URL),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
	gateway := payment.NewStripeGateway("sk_test_integration", testWebhookSecret, logger, payment.WithBackend(backend))

	m := metrics.New()
	clothesRepo := repository.NewClothesRepository(db.Pool, logger)
	orderRepo := repository.NewOrderRepository(db.Pool, logger)

	orders := service.NewOrderService(orderRepo, clothesRepo, shipping.DefaultRates(), nil, m, logger)
	payments := service.NewPaymentService(orderRepo, gateway, service.CheckoutConfig{
		Currency:   "usd",
		SuccessURL: "https://localhost:5173/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  "https://localhost:5173/payment-cancel",
	}, nil, m, logger)

	h := router.New(router.Handlers{
		Clothes: handler.NewClothesHandler(service.NewClothesService(clothesRepo, logger), logger),
		Order:   handler.NewOrderHandler(orders, logger),
		Payment: handler.NewPaymentHandler(payments, logger),
	}, router.Options{
		APIKey:        testAPIKey,
		AllowedOrigin: "https://localhost:5173",
		Metrics:       m,
	}, logger)

	return &Stack{DB: db, Handler: h, Orders: orders, Metrics: m, Sessions: sessions}
}

// SignedWebhook builds a checkout.session.completed delivery for orderID.
func SignedWebhook(t *testing.T, eventID, orderID string) ([]byte, string) {
	t.Helper()

	payload, err := json.Marshal(map[string]any{
		"id":          eventID,
		"object":      "event",
		"type":        "checkout.session.completed",
		"api_version": stripe.APIVersion,
		"data": map[string]any{"object": map[string]any{
			"id":       "cs_test_" + eventID,
			"object":   "checkout.session",
			"metadata": map[string]string{"orderId": orderID},
		}},
	})
	if err != nil {
		t.Fatalf("failed to marshal webhook: %v", err)
	}

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    testWebhookSecret,
		Timestamp: time.Now(),
	})
	return signed.Payload, signed.Header
}
