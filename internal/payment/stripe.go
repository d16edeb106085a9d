package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"bhesbhusa/internal/model"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/webhook"
)

type stripeGateway struct {
	sessions      session.Client
	webhookSecret string
	logger        zerolog.Logger
}

// Option customises the Stripe gateway.
type Option func(*stripeGateway)

// WithBackend overrides the API backend, e.g. to point at a test server.
func WithBackend(b stripe.Backend) Option {
	return func(g *stripeGateway) {
		g.sessions.B = b
	}
}

// NewStripeGateway creates a Gateway backed by the Stripe API.
func NewStripeGateway(secretKey, webhookSecret string, logger zerolog.Logger, opts ...Option) Gateway {
	g := &stripeGateway{
		sessions: session.Client{
			B:   stripe.GetBackend(stripe.APIBackend),
			Key: secretKey,
		},
		webhookSecret: webhookSecret,
		logger:        logger.With().Str("component", "stripe").Logger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *stripeGateway) CreateCheckoutSession(ctx context.Context, p SessionParams) (*Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		SuccessURL:         stripe.String(p.SuccessURL),
		CancelURL:          stripe.String(p.CancelURL),
		ClientReferenceID:  stripe.String(p.OrderID),
	}
	params.Context = ctx
	params.AddMetadata(MetadataOrderID, p.OrderID)

	for _, item := range p.LineItems {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(p.Currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
				UnitAmount: stripe.Int64(item.UnitAmount),
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}

	s, err := g.sessions.New(params)
	if err != nil {
		msg := err.Error()
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Msg != "" {
			msg = stripeErr.Msg
		}
		g.logger.Error().
			Err(err).
			Str("order_id", p.OrderID).
			Str("stripe_message", msg).
			Msg("failed to create checkout session")
		return nil, model.ErrCheckoutSessionFailed.WithCause(err)
	}

	g.logger.Info().
		Str("order_id", p.OrderID).
		Str("session_id", s.ID).
		Int("line_items", len(p.LineItems)).
		Msg("checkout session created")

	return &Session{ID: s.ID, URL: s.URL}, nil
}

func (g *stripeGateway) ConstructEvent(payload []byte, signature string) (*Event, error) {
	evt, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		Tolerance:                webhook.DefaultTolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		g.logger.Warn().Err(err).Msg("webhook signature verification failed")
		return nil, model.ErrInvalidSignature.WithCause(err)
	}

	out := &Event{ID: evt.ID, Type: string(evt.Type)}
	if out.Type != EventCheckoutSessionCompleted {
		return out, nil
	}
	if evt.Data == nil {
		return nil, model.ErrMissingOrderMetadata
	}

	var cs stripe.CheckoutSession
	if err := json.Unmarshal(evt.Data.Raw, &cs); err != nil {
		return nil, fmt.Errorf("failed to decode checkout session: %w", err)
	}
	out.SessionID = cs.ID
	out.OrderID = cs.Metadata[MetadataOrderID]

	return out, nil
}
