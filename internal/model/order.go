package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the fulfilment progress of an order.
type OrderStatus string

const (
	StatusPending    OrderStatus = "PENDING"
	StatusConfirmed  OrderStatus = "CONFIRMED"
	StatusProcessing OrderStatus = "PROCESSING"
	StatusShipped    OrderStatus = "SHIPPED"
	StatusDelivered  OrderStatus = "DELIVERED"
	StatusCancelled  OrderStatus = "CANCELLED"
)

// orderTransitions lists the statuses reachable from each status.
// DELIVERED and CANCELLED are terminal.
var orderTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusProcessing},
	StatusProcessing: {StatusShipped},
	StatusShipped:    {StatusDelivered},
	StatusDelivered:  nil,
	StatusCancelled:  nil,
}

// Valid reports whether s is one of the recognised statuses.
func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// CanTransitionTo reports whether the fulfilment pipeline allows moving from s to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// PaymentStatus is the money-collection progress of an order.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentFailed   PaymentStatus = "FAILED"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

// ShippingMethod is one of the fixed delivery options.
type ShippingMethod string

const (
	ShippingInStorePickup    ShippingMethod = "IN_STORE_PICKUP"
	ShippingInsideTheValley  ShippingMethod = "INSIDE_THE_VALLEY"
	ShippingOutsideTheValley ShippingMethod = "OUTSIDE_THE_VALLEY"
)

// ShippingMethods lists every supported shipping method.
var ShippingMethods = []ShippingMethod{
	ShippingInStorePickup,
	ShippingInsideTheValley,
	ShippingOutsideTheValley,
}

// Valid reports whether m is a supported shipping method.
func (m ShippingMethod) Valid() bool {
	for _, known := range ShippingMethods {
		if m == known {
			return true
		}
	}
	return false
}

// DefaultSize is used when a line item has no size.
const DefaultSize = "Free"

// DefaultCountry is used when the shipping address has no country.
const DefaultCountry = "Nepal"

// Order represents a customer order.
type Order struct {
	ID            uuid.UUID       `json:"id"`
	OrderNumber   string          `json:"orderNumber"`
	UserID        uuid.UUID       `json:"userId"`
	User          *OrderOwner     `json:"user,omitempty"`
	Items         []OrderItem     `json:"items"`
	Shipping      Shipping        `json:"shipping"`
	PaymentMethod string          `json:"paymentMethod,omitempty"`
	PaymentStatus PaymentStatus   `json:"paymentStatus"`
	Status        OrderStatus     `json:"status"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	ShippingCost  decimal.Decimal `json:"shippingCost"`
	Total         decimal.Decimal `json:"total"`
	CustomerNotes string          `json:"customerNotes,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// OrderItem is a line item snapshot; title and price are copied from the catalog at creation.
type OrderItem struct {
	ID       uuid.UUID       `json:"-"`
	OrderID  uuid.UUID       `json:"-"`
	ClothID  uuid.UUID       `json:"clothId"`
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Size     string          `json:"size"`
	Cloth    *Clothes        `json:"cloth,omitempty"`
}

// LineTotal returns price × quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Shipping holds the delivery method, its cost and the contact address.
type Shipping struct {
	Method         ShippingMethod  `json:"method"`
	Cost           decimal.Decimal `json:"cost"`
	FirstName      string          `json:"firstName"`
	LastName       string          `json:"lastName"`
	Address        string          `json:"address"`
	City           string          `json:"city,omitempty"`
	Province       string          `json:"province"`
	Country        string          `json:"country"`
	Phone          string          `json:"phone"`
	Email          string          `json:"email"`
	AdditionalInfo string          `json:"additionalInfo,omitempty"`
}

// OrderOwner is the subset of the owning account shown on admin listings.
type OrderOwner struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"name"`
	Email    string    `json:"email"`
}

// OrderRequest represents the request payload for creating an order.
type OrderRequest struct {
	UserID        string             `json:"userId"`
	Items         []OrderItemRequest `json:"items"`
	Shipping      *ShippingRequest   `json:"shipping"`
	Payment       *PaymentRequest    `json:"payment,omitempty"`
	CustomerNotes string             `json:"customerNotes,omitempty"`
}

// OrderItemRequest represents a single item in an order request.
type OrderItemRequest struct {
	ClothID  string `json:"clothId"`
	Quantity int    `json:"quantity"`
	Size     string `json:"size,omitempty"`
}

// ShippingRequest is the shipping block of a checkout payload.
type ShippingRequest struct {
	Method         string           `json:"method"`
	Cost           *decimal.Decimal `json:"cost,omitempty"`
	FirstName      string           `json:"firstName"`
	LastName       string           `json:"lastName"`
	Address        string           `json:"address"`
	City           string           `json:"city,omitempty"`
	Province       string           `json:"province"`
	Country        string           `json:"country,omitempty"`
	Phone          string           `json:"phone"`
	Email          string           `json:"email"`
	AdditionalInfo string           `json:"additionalInfo,omitempty"`
}

// PaymentRequest is the payment descriptor of a checkout payload.
type PaymentRequest struct {
	Method string `json:"method"`
	Status string `json:"status"`
}

// StatusUpdateRequest is the body of an administrative status update.
type StatusUpdateRequest struct {
	Status string `json:"status"`
}

// OrderResponse wraps an order with a human-readable message.
type OrderResponse struct {
	Message string `json:"message"`
	Order   *Order `json:"order"`
}
