package repository

import (
	"context"
	"errors"
	"fmt"

	"bhesbhusa/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const orderSelect = `
	SELECT o.id, o.order_number, o.user_id,
		o.shipping_method, o.shipping_cost, o.first_name, o.last_name, o.address, o.city,
		o.province, o.country, o.phone, o.email, o.additional_info,
		o.payment_method, o.payment_status, o.status,
		o.subtotal, o.total, o.customer_notes, o.created_at, o.updated_at,
		u.username, u.email
	FROM orders o
	LEFT JOIN users u ON u.id = o.user_id`

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

func (r *orderRepository) NextOrderSequence(ctx context.Context, tx pgx.Tx) (int64, error) {
	var seq int64
	if err := tx.QueryRow(ctx, `SELECT nextval('order_number_seq')`).Scan(&seq); err != nil {
		r.logger.Error().Err(err).Msg("failed to draw order number sequence")
		return 0, fmt.Errorf("failed to draw order number sequence: %w", err)
	}
	return seq, nil
}

// CreateOrder inserts a new order within the provided transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (
			id, order_number, user_id,
			shipping_method, shipping_cost, first_name, last_name, address, city,
			province, country, phone, email, additional_info,
			payment_method, payment_status, status,
			subtotal, total, customer_notes, created_at, updated_at
		) VALUES (
			$1, $2, $3,
			$4, $5, $6, $7, $8, $9,
			$10, $11, $12, $13, $14,
			$15, $16, $17,
			$18, $19, $20, $21, $22
		)
	`

	s := order.Shipping
	_, err := tx.Exec(ctx, query,
		order.ID, order.OrderNumber, order.UserID,
		string(s.Method), toNumeric(order.ShippingCost), s.FirstName, s.LastName, s.Address, s.City,
		s.Province, s.Country, s.Phone, s.Email, s.AdditionalInfo,
		order.PaymentMethod, string(order.PaymentStatus), string(order.Status),
		toNumeric(order.Subtotal), toNumeric(order.Total), order.CustomerNotes, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err, orderUserForeignKey) {
			r.logger.Warn().
				Str("order_id", order.ID.String()).
				Str("user_id", order.UserID.String()).
				Msg("order references unknown user")
			return model.ErrUserNotFound
		}
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Str("order_number", order.OrderNumber).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Str("order_number", order.OrderNumber).
		Msg("order created successfully")

	return nil
}

// CreateOrderItems inserts multiple order items within the provided transaction.
func (r *orderRepository) CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_items (id, order_id, position, cloth_id, title, price, quantity, size)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	batch := &pgx.Batch{}
	for i, item := range items {
		batch.Queue(query, item.ID, item.OrderID, i, item.ClothID, item.Title, toNumeric(item.Price), item.Quantity, item.Size)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(items); i++ {
		if _, err := results.Exec(); err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", items[i].OrderID.String()).
				Str("cloth_id", items[i].ClothID.String()).
				Msg("failed to create order item")
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	r.logger.Debug().
		Int("count", len(items)).
		Msg("order items created successfully")

	return nil
}

// GetByID retrieves an order by its ID along with its items.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := scanOrder(r.pool.QueryRow(ctx, orderSelect+` WHERE o.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("order_id", id.String()).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	orders := []model.Order{*order}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	orders[0].User = nil

	return &orders[0], nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	orders, err := r.list(ctx, orderSelect+` WHERE o.user_id = $1 ORDER BY o.created_at DESC, o.order_number DESC`, userID)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to list user orders")
		return nil, err
	}
	for i := range orders {
		orders[i].User = nil
	}
	return orders, nil
}

func (r *orderRepository) ListAll(ctx context.Context) ([]model.Order, error) {
	orders, err := r.list(ctx, orderSelect+` ORDER BY o.created_at DESC, o.order_number DESC`)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to list orders")
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) list(ctx context.Context, query string, args ...any) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []model.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}
	rows.Close()

	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// attachItems loads the line items of every order in one query and expands
// each item's clothes record when it still exists.
func (r *orderRepository) attachItems(ctx context.Context, orders []model.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(orders))
	index := make(map[uuid.UUID]int, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		index[orders[i].ID] = i
		orders[i].Items = []model.OrderItem{}
	}

	query := `
		SELECT oi.id, oi.order_id, oi.cloth_id, oi.title, oi.price, oi.quantity, oi.size,` + prefixed("c.", clothesColumns) + `
		FROM order_items oi
		LEFT JOIN clothes c ON c.id = oi.cloth_id
		WHERE oi.order_id = ANY($1::uuid[])
		ORDER BY oi.order_id, oi.position
	`

	rows, err := r.pool.Query(ctx, query, uuidStrings(ids))
	if err != nil {
		r.logger.Error().Err(err).Int("orders", len(orders)).Msg("failed to query order items")
		return fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item      model.OrderItem
			price     pgtype.Numeric
			cloth     nullableClothes
			clothCost pgtype.Numeric
		)
		err := rows.Scan(
			&item.ID, &item.OrderID, &item.ClothID, &item.Title, &price, &item.Quantity, &item.Size,
			&cloth.ID, &cloth.Title, &clothCost, &cloth.Category, &cloth.Description, &cloth.Available,
			&cloth.Section, &cloth.Image, &cloth.Tags, &cloth.IsFreeSize, &cloth.AvailableSizes, &cloth.CreatedAt,
		)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order item row")
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		item.Price = fromNumeric(price)
		item.Cloth = cloth.toModel(clothCost)

		i := index[item.OrderID]
		orders[i].Items = append(orders[i].Items, item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order item rows")
		return fmt.Errorf("error iterating order items: %w", err)
	}

	return nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.OrderStatus) (bool, error) {
	query := `
		UPDATE orders
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`

	tag, err := r.pool.Exec(ctx, query, id, string(from), string(to))
	if err != nil {
		r.logger.Error().Err(err).
			Str("order_id", id.String()).
			Str("from", string(from)).
			Str("to", string(to)).
			Msg("failed to update order status")
		return false, fmt.Errorf("failed to update order status: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r *orderRepository) RecordPaymentEvent(ctx context.Context, tx pgx.Tx, eventID, eventType string, orderID uuid.UUID) (bool, error) {
	query := `
		INSERT INTO payment_events (event_id, event_type, order_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (event_id) DO NOTHING
	`

	tag, err := tx.Exec(ctx, query, eventID, eventType, orderID)
	if err != nil {
		r.logger.Error().Err(err).Str("event_id", eventID).Msg("failed to record payment event")
		return false, fmt.Errorf("failed to record payment event: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r *orderRepository) MarkPaid(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) (bool, error) {
	query := `
		UPDATE orders
		SET payment_status = 'PAID',
			status = CASE WHEN status = 'PENDING' THEN 'CONFIRMED' ELSE status END,
			updated_at = NOW()
		WHERE id = $1 AND payment_status = 'PENDING'
	`

	tag, err := tx.Exec(ctx, query, orderID)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to mark order paid")
		return false, fmt.Errorf("failed to mark order paid: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r *orderRepository) Exists(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) (bool, error) {
	var exists bool
	err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, orderID).Scan(&exists)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to check order existence")
		return false, fmt.Errorf("failed to check order existence: %w", err)
	}
	return exists, nil
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var (
		o                             model.Order
		method, paymentStatus, status string
		shippingCost, subtotal, total pgtype.Numeric
		ownerName, ownerEmail         pgtype.Text
	)

	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.UserID,
		&method, &shippingCost, &o.Shipping.FirstName, &o.Shipping.LastName, &o.Shipping.Address, &o.Shipping.City,
		&o.Shipping.Province, &o.Shipping.Country, &o.Shipping.Phone, &o.Shipping.Email, &o.Shipping.AdditionalInfo,
		&o.PaymentMethod, &paymentStatus, &status,
		&subtotal, &total, &o.CustomerNotes, &o.CreatedAt, &o.UpdatedAt,
		&ownerName, &ownerEmail,
	)
	if err != nil {
		return nil, err
	}

	o.Shipping.Method = model.ShippingMethod(method)
	o.ShippingCost = fromNumeric(shippingCost)
	o.Shipping.Cost = o.ShippingCost
	o.PaymentStatus = model.PaymentStatus(paymentStatus)
	o.Status = model.OrderStatus(status)
	o.Subtotal = fromNumeric(subtotal)
	o.Total = fromNumeric(total)
	if ownerName.Valid {
		o.User = &model.OrderOwner{ID: o.UserID, Username: ownerName.String, Email: ownerEmail.String}
	}

	return &o, nil
}

// nullableClothes receives a LEFT JOINed clothes row.
type nullableClothes struct {
	ID             pgtype.UUID
	Title          pgtype.Text
	Category       pgtype.Text
	Description    pgtype.Text
	Available      pgtype.Text
	Section        pgtype.Text
	Image          pgtype.Text
	Tags           []string
	IsFreeSize     pgtype.Bool
	AvailableSizes []string
	CreatedAt      pgtype.Timestamptz
}

func (n nullableClothes) toModel(price pgtype.Numeric) *model.Clothes {
	if !n.ID.Valid {
		return nil
	}
	return &model.Clothes{
		ID:             uuid.UUID(n.ID.Bytes),
		Title:          n.Title.String,
		Price:          fromNumeric(price),
		Category:       n.Category.String,
		Description:    n.Description.String,
		Available:      n.Available.String,
		Section:        n.Section.String,
		Image:          n.Image.String,
		Tags:           n.Tags,
		IsFreeSize:     n.IsFreeSize.Bool,
		AvailableSizes: n.AvailableSizes,
		CreatedAt:      n.CreatedAt.Time,
	}
}
