package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bhesbhusa/internal/events"
	"bhesbhusa/internal/metrics"
	"bhesbhusa/internal/model"
	"bhesbhusa/internal/repository"
	"bhesbhusa/internal/shipping"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// orderService implements OrderService.
type orderService struct {
	orderRepo   repository.OrderRepository
	clothesRepo repository.ClothesRepository
	rates       shipping.Quoter
	publisher   events.Publisher
	metrics     *metrics.Metrics
	logger      zerolog.Logger
	now         func() time.Time
}

// NewOrderService creates a new order service. m may be nil.
func NewOrderService(
	orderRepo repository.OrderRepository,
	clothesRepo repository.ClothesRepository,
	rates shipping.Quoter,
	publisher events.Publisher,
	m *metrics.Metrics,
	logger zerolog.Logger,
) OrderService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &orderService{
		orderRepo:   orderRepo,
		clothesRepo: clothesRepo,
		rates:       rates,
		publisher:   publisher,
		metrics:     m,
		logger:      logger.With().Str("service", "order").Logger(),
		now:         time.Now,
	}
}

// CreateOrder prices the request against the catalog and persists it.
func (s *orderService) CreateOrder(ctx context.Context, req *model.OrderRequest) (*model.Order, error) {
	userID, clothIDs, err := s.validateOrderRequest(req)
	if err != nil {
		return nil, err
	}

	method := model.ShippingMethod(req.Shipping.Method)
	shippingCost, err := s.rates.Quote(method)
	if err != nil {
		return nil, err
	}
	if req.Shipping.Cost != nil && !req.Shipping.Cost.Equal(shippingCost) {
		s.logger.Warn().
			Str("method", string(method)).
			Str("claimed", req.Shipping.Cost.String()).
			Str("expected", shippingCost.String()).
			Msg("shipping cost mismatch")
		return nil, model.ErrShippingCostMismatch
	}

	catalog, err := s.resolveClothes(ctx, clothIDs)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	order := &model.Order{
		ID:            uuid.New(),
		UserID:        userID,
		Shipping:      buildShipping(req.Shipping, shippingCost),
		PaymentStatus: model.PaymentPending,
		Status:        model.StatusPending,
		ShippingCost:  shippingCost,
		CustomerNotes: strings.TrimSpace(req.CustomerNotes),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if req.Payment != nil {
		order.PaymentMethod = strings.TrimSpace(req.Payment.Method)
	}

	order.Items = make([]model.OrderItem, len(req.Items))
	subtotal := decimal.Zero
	for i, item := range req.Items {
		cloth := catalog[clothIDs[i]]
		size := strings.TrimSpace(item.Size)
		if size == "" {
			size = model.DefaultSize
		}
		order.Items[i] = model.OrderItem{
			ID:       uuid.New(),
			OrderID:  order.ID,
			ClothID:  cloth.ID,
			Title:    cloth.Title,
			Price:    cloth.Price,
			Quantity: item.Quantity,
			Size:     size,
		}
		subtotal = subtotal.Add(order.Items[i].LineTotal())
	}
	order.Subtotal = subtotal
	order.Total = subtotal.Add(shippingCost)

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, model.NewPersistenceError("failed to create order", err)
	}

	// Ensure transaction is rolled back on error
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	seq, err := s.orderRepo.NextOrderSequence(ctx, tx)
	if err != nil {
		return nil, model.NewPersistenceError("failed to create order", err)
	}
	order.OrderNumber = formatOrderNumber(now, seq)

	if err = s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		var domainErr *model.DomainError
		if errors.As(err, &domainErr) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to create order")
		return nil, model.NewPersistenceError("failed to create order", err)
	}

	if err = s.orderRepo.CreateOrderItems(ctx, tx, order.Items); err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Int("item_count", len(order.Items)).
			Msg("failed to create order items")
		return nil, model.NewPersistenceError("failed to create order items", err)
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit transaction")
		return nil, model.NewPersistenceError("failed to create order", err)
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("order_number", order.OrderNumber).
		Int("item_count", len(order.Items)).
		Str("total", order.Total.StringFixed(2)).
		Msg("order created successfully")

	s.metrics.OrderCreated()
	s.publish(ctx, events.NewOrderEvent(events.OrderCreated, order))

	return order, nil
}

// GetByID retrieves an order by its ID with all items and clothes details.
func (s *orderService) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to get order")
		return nil, model.NewPersistenceError("failed to get order", err)
	}
	if order == nil {
		s.logger.Debug().Str("order_id", id.String()).Msg("order not found")
		return nil, model.ErrOrderNotFound
	}
	return order, nil
}

func (s *orderService) GetByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	orders, err := s.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, model.NewPersistenceError("failed to list orders", err)
	}
	if len(orders) == 0 {
		return nil, model.ErrNoOrdersForUser
	}
	return orders, nil
}

func (s *orderService) GetAll(ctx context.Context) ([]model.Order, error) {
	orders, err := s.orderRepo.ListAll(ctx)
	if err != nil {
		return nil, model.NewPersistenceError("failed to list orders", err)
	}
	return orders, nil
}

// Cancel moves a pending order to CANCELLED.
func (s *orderService) Cancel(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != model.StatusPending {
		s.logger.Warn().
			Str("order_id", id.String()).
			Str("status", string(current.Status)).
			Msg("cancel rejected for non-pending order")
		return nil, model.ErrOrderNotCancellable
	}

	order, err := s.transition(ctx, current, model.StatusCancelled)
	if err != nil {
		if errors.Is(err, model.ErrStatusChanged) {
			return nil, model.ErrOrderNotCancellable
		}
		return nil, err
	}

	s.publish(ctx, transitionEvent(events.OrderCancelled, order, current.Status))
	return order, nil
}

// UpdateStatus applies an administrative status transition.
func (s *orderService) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*model.Order, error) {
	target := model.OrderStatus(strings.TrimSpace(status))
	if !target.Valid() {
		return nil, model.ErrInvalidStatus.WithMessage(fmt.Sprintf("Invalid status value %q", status))
	}

	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransitionTo(target) {
		return nil, model.ErrInvalidTransition.WithMessage(
			fmt.Sprintf("Cannot change order status from %s to %s", current.Status, target))
	}

	order, err := s.transition(ctx, current, target)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, transitionEvent(events.OrderStatusChanged, order, current.Status))
	return order, nil
}

// transition conditionally moves current to target and returns the stored result.
func (s *orderService) transition(ctx context.Context, current *model.Order, target model.OrderStatus) (*model.Order, error) {
	updated, err := s.orderRepo.UpdateStatus(ctx, current.ID, current.Status, target)
	if err != nil {
		return nil, model.NewPersistenceError("failed to update order status", err)
	}
	if !updated {
		// Either the order vanished or another writer moved it first.
		if _, err := s.GetByID(ctx, current.ID); err != nil {
			return nil, err
		}
		s.logger.Warn().
			Str("order_id", current.ID.String()).
			Str("expected", string(current.Status)).
			Msg("order status changed concurrently")
		return nil, model.ErrStatusChanged
	}

	s.metrics.StatusTransition(string(current.Status), string(target))
	s.logger.Info().
		Str("order_id", current.ID.String()).
		Str("from", string(current.Status)).
		Str("to", string(target)).
		Msg("order status updated")

	return s.GetByID(ctx, current.ID)
}

func (s *orderService) resolveClothes(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Clothes, error) {
	distinct := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			distinct = append(distinct, id)
		}
	}

	found, err := s.clothesRepo.GetByIDs(ctx, distinct)
	if err != nil {
		s.logger.Error().Err(err).Int("count", len(distinct)).Msg("failed to resolve clothes")
		return nil, model.NewPersistenceError("failed to resolve clothes", err)
	}

	catalog := make(map[uuid.UUID]model.Clothes, len(found))
	for _, c := range found {
		catalog[c.ID] = c
	}
	if len(catalog) != len(distinct) {
		s.logger.Warn().
			Int("expected", len(distinct)).
			Int("found", len(catalog)).
			Msg("not all clothing items exist")
		return nil, model.ErrClothesNotFound
	}
	return catalog, nil
}

// validateOrderRequest checks structure and returns the parsed user and clothes IDs.
func (s *orderService) validateOrderRequest(req *model.OrderRequest) (uuid.UUID, []uuid.UUID, error) {
	if req == nil || len(req.Items) == 0 {
		return uuid.Nil, nil, model.ErrNoItems
	}

	if strings.TrimSpace(req.UserID) == "" {
		return uuid.Nil, nil, missingField("userId")
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return uuid.Nil, nil, model.NewValidationError(model.ErrCodeInvalidID, "Invalid userId format")
	}

	clothIDs := make([]uuid.UUID, len(req.Items))
	for i, item := range req.Items {
		id, err := uuid.Parse(item.ClothID)
		if err != nil {
			return uuid.Nil, nil, model.NewValidationError(model.ErrCodeInvalidID,
				fmt.Sprintf("Item %d has an invalid clothId", i))
		}
		if item.Quantity < 1 {
			s.logger.Warn().
				Int("item_index", i).
				Str("cloth_id", item.ClothID).
				Int("quantity", item.Quantity).
				Msg("invalid quantity")
			return uuid.Nil, nil, model.ErrInvalidQuantity
		}
		clothIDs[i] = id
	}

	if err := validateShipping(req.Shipping); err != nil {
		return uuid.Nil, nil, err
	}

	if req.Payment != nil {
		status := model.PaymentStatus(strings.ToUpper(strings.TrimSpace(req.Payment.Status)))
		if status != "" && status != model.PaymentPending {
			return uuid.Nil, nil, model.ErrInvalidPaymentStatus
		}
	}

	return userID, clothIDs, nil
}

func validateShipping(sh *model.ShippingRequest) error {
	if sh == nil {
		return model.ErrMissingShipping
	}
	if strings.TrimSpace(sh.Method) == "" {
		return missingField("shipping.method")
	}
	if !model.ShippingMethod(sh.Method).Valid() {
		return model.ErrInvalidShippingMethod.WithMessage(fmt.Sprintf("Unknown shipping method %q", sh.Method))
	}

	required := []struct{ name, value string }{
		{"shipping.firstName", sh.FirstName},
		{"shipping.lastName", sh.LastName},
		{"shipping.address", sh.Address},
		{"shipping.province", sh.Province},
		{"shipping.phone", sh.Phone},
		{"shipping.email", sh.Email},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return missingField(f.name)
		}
	}
	return nil
}

func missingField(name string) error {
	return model.NewValidationError(model.ErrCodeMissingField, name+" is required")
}

func buildShipping(sh *model.ShippingRequest, cost decimal.Decimal) model.Shipping {
	country := strings.TrimSpace(sh.Country)
	if country == "" {
		country = model.DefaultCountry
	}
	return model.Shipping{
		Method:         model.ShippingMethod(sh.Method),
		Cost:           cost,
		FirstName:      strings.TrimSpace(sh.FirstName),
		LastName:       strings.TrimSpace(sh.LastName),
		Address:        strings.TrimSpace(sh.Address),
		City:           strings.TrimSpace(sh.City),
		Province:       strings.TrimSpace(sh.Province),
		Country:        country,
		Phone:          strings.TrimSpace(sh.Phone),
		Email:          strings.TrimSpace(sh.Email),
		AdditionalInfo: strings.TrimSpace(sh.AdditionalInfo),
	}
}

// formatOrderNumber renders STY-<last 6 digits of unix millis>-<sequence, at least 3 digits>.
func formatOrderNumber(at time.Time, seq int64) string {
	return fmt.Sprintf("STY-%06d-%03d", at.UnixMilli()%1_000_000, seq)
}

func transitionEvent(eventType string, order *model.Order, from model.OrderStatus) events.OrderEvent {
	evt := events.NewOrderEvent(eventType, order)
	evt.PreviousStatus = from
	return evt
}

// publish emits an event without failing the caller.
func (s *orderService) publish(ctx context.Context, evt events.OrderEvent) {
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Warn().Err(err).Str("type", evt.Type).Str("order_id", evt.OrderID).Msg("failed to publish order event")
	}
}
