package model

import "github.com/shopspring/decimal"

// CheckoutSessionRequest asks for a hosted payment session for an existing order.
type CheckoutSessionRequest struct {
	OrderID string                `json:"orderId"`
	Total   *decimal.Decimal      `json:"total"`
	Title   string                `json:"title,omitempty"`
	Items   []CheckoutItemRequest `json:"items"`
}

// CheckoutItemRequest is the client's view of a line item to pay for.
type CheckoutItemRequest struct {
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// CheckoutSessionResponse carries the session the client redirects into.
type CheckoutSessionResponse struct {
	ID  string `json:"id"`
	URL string `json:"url,omitempty"`
}

// WebhookOutcome describes what a webhook delivery did.
type WebhookOutcome string

const (
	WebhookApplied   WebhookOutcome = "applied"
	WebhookDuplicate WebhookOutcome = "duplicate"
	WebhookSettled   WebhookOutcome = "already_settled"
	WebhookIgnored   WebhookOutcome = "ignored"
)

// WebhookResult is returned to the payment processor after a delivery.
type WebhookResult struct {
	Received  bool           `json:"received"`
	EventID   string         `json:"eventId"`
	EventType string         `json:"eventType"`
	Outcome   WebhookOutcome `json:"outcome"`
	OrderID   string         `json:"orderId,omitempty"`
}
