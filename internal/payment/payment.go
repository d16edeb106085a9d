// Package payment talks to the hosted-checkout payment processor.
package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

// EventCheckoutSessionCompleted is the only event type that changes order state.
const EventCheckoutSessionCompleted = "checkout.session.completed"

// MetadataOrderID is the session metadata key carrying the order ID.
const MetadataOrderID = "orderId"

// LineItem is one priced row of a checkout session, in minor currency units.
type LineItem struct {
	Name       string
	UnitAmount int64
	Quantity   int64
}

// SessionParams describes a hosted checkout session to create.
type SessionParams struct {
	OrderID    string
	Currency   string
	LineItems  []LineItem
	SuccessURL string
	CancelURL  string
}

// Session is a created checkout session.
type Session struct {
	ID  string
	URL string
}

// Event is a verified webhook delivery. OrderID is set for completed
// checkout sessions that carried order metadata.
type Event struct {
	ID        string
	Type      string
	SessionID string
	OrderID   string
}

// Gateway creates checkout sessions and verifies webhook deliveries.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, params SessionParams) (*Session, error)
	ConstructEvent(payload []byte, signature string) (*Event, error)
}

var hundred = decimal.NewFromInt(100)

// ToMinorUnits converts a major-unit amount to minor units, rounding half away from zero.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}
