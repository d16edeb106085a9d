package service

import (
	"context"

	"bhesbhusa/internal/model"

	"github.com/google/uuid"
)

// ClothesService defines read operations on the catalog.
type ClothesService interface {
	// GetAll retrieves catalog entries with pagination.
	GetAll(ctx context.Context, limit, offset int) ([]model.Clothes, error)

	// GetByID retrieves a single catalog entry.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Clothes, error)
}

// OrderService defines operations for order management.
type OrderService interface {
	// CreateOrder prices and persists a checkout payload as a pending order.
	CreateOrder(ctx context.Context, req *model.OrderRequest) (*model.Order, error)

	// GetByID retrieves an order with its items and their clothes records.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// GetByUser retrieves a user's orders newest first.
	GetByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error)

	// GetAll retrieves every order newest first with owner details.
	GetAll(ctx context.Context) ([]model.Order, error)

	// Cancel moves a pending order to CANCELLED.
	Cancel(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// UpdateStatus applies an administrative status transition.
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*model.Order, error)
}

// PaymentService defines the hosted checkout and webhook reconciliation operations.
type PaymentService interface {
	// CreateCheckoutSession opens a hosted payment session for a stored order.
	CreateCheckoutSession(ctx context.Context, req *model.CheckoutSessionRequest) (*model.CheckoutSessionResponse, error)

	// HandleWebhook verifies and applies a payment processor event.
	HandleWebhook(ctx context.Context, payload []byte, signature string) (*model.WebhookResult, error)
}
