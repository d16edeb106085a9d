package service

import (
	"context"
	"errors"

	"bhesbhusa/internal/events"
	"bhesbhusa/internal/metrics"
	"bhesbhusa/internal/model"
	"bhesbhusa/internal/payment"
	"bhesbhusa/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

const fallbackItemName = "Clothing Item"

// CheckoutConfig holds the fixed parameters of every checkout session.
type CheckoutConfig struct {
	Currency   string
	SuccessURL string
	CancelURL  string
}

type paymentService struct {
	orderRepo repository.OrderRepository
	gateway   payment.Gateway
	checkout  CheckoutConfig
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// NewPaymentService creates the checkout and webhook service. m may be nil.
func NewPaymentService(
	orderRepo repository.OrderRepository,
	gateway payment.Gateway,
	checkout CheckoutConfig,
	publisher events.Publisher,
	m *metrics.Metrics,
	logger zerolog.Logger,
) PaymentService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &paymentService{
		orderRepo: orderRepo,
		gateway:   gateway,
		checkout:  checkout,
		publisher: publisher,
		metrics:   m,
		logger:    logger.With().Str("service", "payment").Logger(),
	}
}

// CreateCheckoutSession prices the session from the stored order, never from the client copy.
func (s *paymentService) CreateCheckoutSession(ctx context.Context, req *model.CheckoutSessionRequest) (*model.CheckoutSessionResponse, error) {
	if req == nil || req.OrderID == "" || req.Total == nil || len(req.Items) == 0 {
		return nil, model.ErrMissingCheckoutData
	}

	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		return nil, model.NewValidationError(model.ErrCodeInvalidID, "Invalid orderId format")
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", req.OrderID).Msg("failed to load order for checkout")
		return nil, model.NewPersistenceError("failed to load order", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}
	if order.Status == model.StatusCancelled {
		return nil, model.ErrOrderCancelled
	}
	if order.PaymentStatus != model.PaymentPending {
		return nil, model.ErrOrderAlreadyPaid
	}
	if !req.Total.Equal(order.Total) {
		s.logger.Warn().
			Str("order_id", req.OrderID).
			Str("claimed", req.Total.String()).
			Str("stored", order.Total.String()).
			Msg("checkout total mismatch")
		return nil, model.ErrCheckoutTotalMismatch
	}

	params := payment.SessionParams{
		OrderID:    order.ID.String(),
		Currency:   s.checkout.Currency,
		SuccessURL: s.checkout.SuccessURL,
		CancelURL:  s.checkout.CancelURL,
		LineItems:  lineItems(order),
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, params)
	if err != nil {
		s.metrics.CheckoutSession("failed")
		var domainErr *model.DomainError
		if errors.As(err, &domainErr) {
			return nil, domainErr
		}
		return nil, model.ErrCheckoutSessionFailed.WithCause(err)
	}

	s.metrics.CheckoutSession("created")
	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("session_id", session.ID).
		Msg("checkout session ready")

	return &model.CheckoutSessionResponse{ID: session.ID, URL: session.URL}, nil
}

// lineItems lists each item at its snapshot price plus a shipping line when charged.
func lineItems(order *model.Order) []payment.LineItem {
	items := make([]payment.LineItem, 0, len(order.Items)+1)
	for _, item := range order.Items {
		name := item.Title
		if name == "" {
			name = fallbackItemName
		}
		items = append(items, payment.LineItem{
			Name:       name,
			UnitAmount: payment.ToMinorUnits(item.Price),
			Quantity:   int64(item.Quantity),
		})
	}
	if order.ShippingCost.IsPositive() {
		items = append(items, payment.LineItem{
			Name:       "Shipping",
			UnitAmount: payment.ToMinorUnits(order.ShippingCost),
			Quantity:   1,
		})
	}
	return items
}

// HandleWebhook verifies the delivery and settles the order at most once per event.
func (s *paymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) (*model.WebhookResult, error) {
	evt, err := s.gateway.ConstructEvent(payload, signature)
	if err != nil {
		s.metrics.WebhookEvent("unknown", "rejected")
		var domainErr *model.DomainError
		if errors.As(err, &domainErr) {
			return nil, domainErr
		}
		return nil, model.NewValidationError(model.ErrCodeInvalidJSON, "Malformed webhook event").WithCause(err)
	}

	result := &model.WebhookResult{Received: true, EventID: evt.ID, EventType: evt.Type}

	if evt.Type != payment.EventCheckoutSessionCompleted {
		s.logger.Debug().Str("event_id", evt.ID).Str("type", evt.Type).Msg("ignoring webhook event")
		result.Outcome = model.WebhookIgnored
		s.metrics.WebhookEvent(evt.Type, string(result.Outcome))
		return result, nil
	}

	if evt.OrderID == "" {
		s.metrics.WebhookEvent(evt.Type, "rejected")
		return nil, model.ErrMissingOrderMetadata
	}
	orderID, err := uuid.Parse(evt.OrderID)
	if err != nil {
		s.metrics.WebhookEvent(evt.Type, "rejected")
		return nil, model.ErrMissingOrderMetadata.WithMessage("Invalid orderId in metadata")
	}
	result.OrderID = orderID.String()

	outcome, err := s.settle(ctx, evt, orderID)
	if err != nil {
		s.metrics.WebhookEvent(evt.Type, "failed")
		return nil, err
	}

	result.Outcome = outcome
	s.metrics.WebhookEvent(evt.Type, string(outcome))
	s.logger.Info().
		Str("event_id", evt.ID).
		Str("order_id", result.OrderID).
		Str("outcome", string(outcome)).
		Msg("webhook processed")

	if outcome == model.WebhookApplied {
		s.publishPaid(ctx, orderID)
	}

	return result, nil
}

// settle records the event and marks the order paid in one transaction.
func (s *paymentService) settle(ctx context.Context, evt *payment.Event, orderID uuid.UUID) (model.WebhookOutcome, error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return "", model.NewPersistenceError("failed to settle payment", err)
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	recorded, err := s.orderRepo.RecordPaymentEvent(ctx, tx, evt.ID, evt.Type, orderID)
	if err != nil {
		return "", model.NewPersistenceError("failed to settle payment", err)
	}
	if !recorded {
		s.logger.Info().Str("event_id", evt.ID).Msg("duplicate webhook delivery")
		return model.WebhookDuplicate, nil
	}

	paid, err := s.orderRepo.MarkPaid(ctx, tx, orderID)
	if err != nil {
		return "", model.NewPersistenceError("failed to settle payment", err)
	}

	outcome := model.WebhookApplied
	if !paid {
		exists, err := s.orderRepo.Exists(ctx, tx, orderID)
		if err != nil {
			return "", model.NewPersistenceError("failed to settle payment", err)
		}
		if !exists {
			s.logger.Warn().Str("event_id", evt.ID).Str("order_id", orderID.String()).Msg("webhook for unknown order")
			return "", model.ErrOrderNotFound
		}
		outcome = model.WebhookSettled
	}

	if err := tx.Commit(ctx); err != nil {
		return "", model.NewPersistenceError("failed to settle payment", err)
	}
	committed = true

	return outcome, nil
}

func (s *paymentService) publishPaid(ctx context.Context, orderID uuid.UUID) {
	evt := events.OrderEvent{Type: events.OrderPaid, OrderID: orderID.String(), PaymentStatus: model.PaymentPaid}
	if order, err := s.orderRepo.GetByID(ctx, orderID); err == nil && order != nil {
		evt = events.NewOrderEvent(events.OrderPaid, order)
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Warn().Err(err).Str("order_id", evt.OrderID).Msg("failed to publish order event")
	}
}
