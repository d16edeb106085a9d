package repository

import (
	"context"

	"bhesbhusa/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ClothesRepository defines read access to the clothes catalog.
type ClothesRepository interface {
	// GetAll retrieves catalog entries newest first with pagination support.
	GetAll(ctx context.Context, limit, offset int) ([]model.Clothes, error)

	// GetByID retrieves a single catalog entry. Returns nil when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Clothes, error)

	// GetByIDs retrieves every catalog entry whose ID is in ids.
	// Missing IDs are simply absent from the result.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Clothes, error)
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// NextOrderSequence draws the next value of the order number sequence.
	NextOrderSequence(ctx context.Context, tx pgx.Tx) (int64, error)

	// CreateOrder inserts a new order within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts the order's line items in position order.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// GetByID retrieves an order with its items and their clothes records.
	// Returns nil when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// ListByUser retrieves a user's orders newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error)

	// ListAll retrieves every order newest first with its owner expanded.
	ListAll(ctx context.Context) ([]model.Order, error)

	// UpdateStatus moves an order from one status to another.
	// Reports false when the order is absent or no longer in status from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.OrderStatus) (bool, error)

	// RecordPaymentEvent stores a processor event ID.
	// Reports false when the event was already recorded.
	RecordPaymentEvent(ctx context.Context, tx pgx.Tx, eventID, eventType string, orderID uuid.UUID) (bool, error)

	// MarkPaid settles a pending payment and confirms a pending order.
	// Reports false when no order with a pending payment matched.
	MarkPaid(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) (bool, error)

	// Exists reports whether an order row exists.
	Exists(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) (bool, error)
}
