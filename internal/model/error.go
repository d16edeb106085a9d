package model

import (
	"errors"
	"net/http"
)

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ErrorKind classifies a DomainError for transport mapping.
type ErrorKind string

const (
	KindValidation      ErrorKind = "VALIDATION"
	KindNotFound        ErrorKind = "NOT_FOUND"
	KindConflict        ErrorKind = "CONFLICT"
	KindExternalService ErrorKind = "EXTERNAL_SERVICE"
	KindPersistence     ErrorKind = "PERSISTENCE"
)

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON             = "INVALID_JSON"
	ErrCodeMissingField            = "MISSING_FIELD"
	ErrCodeInvalidID               = "INVALID_ID"
	ErrCodeInvalidQuery            = "INVALID_QUERY"
	ErrCodeNoItems                 = "NO_ITEMS"
	ErrCodeInvalidQuantity         = "INVALID_QUANTITY"
	ErrCodeClothesNotFound         = "CLOTHES_NOT_FOUND"
	ErrCodeUserNotFound            = "USER_NOT_FOUND"
	ErrCodeMissingShipping         = "MISSING_SHIPPING"
	ErrCodeInvalidShippingMethod   = "INVALID_SHIPPING_METHOD"
	ErrCodeShippingCostMismatch    = "SHIPPING_COST_MISMATCH"
	ErrCodeInvalidPaymentStatus    = "INVALID_PAYMENT_STATUS"
	ErrCodeOrderNotFound           = "ORDER_NOT_FOUND"
	ErrCodeNoOrdersFound           = "NO_ORDERS_FOUND"
	ErrCodeOrderNotCancellable     = "ORDER_NOT_CANCELLABLE"
	ErrCodeInvalidStatus           = "INVALID_STATUS"
	ErrCodeInvalidStatusTransition = "INVALID_STATUS_TRANSITION"
	ErrCodeStatusChanged           = "STATUS_CHANGED"
	ErrCodeMissingCheckoutData     = "MISSING_CHECKOUT_DATA"
	ErrCodeCheckoutTotalMismatch   = "CHECKOUT_TOTAL_MISMATCH"
	ErrCodeOrderAlreadyPaid        = "ORDER_ALREADY_PAID"
	ErrCodeOrderCancelled          = "ORDER_CANCELLED"
	ErrCodeCheckoutSessionFailed   = "CHECKOUT_SESSION_FAILED"
	ErrCodeInvalidSignature        = "INVALID_SIGNATURE"
	ErrCodeMissingOrderMetadata    = "MISSING_ORDER_METADATA"
	ErrCodeRateLimited             = "RATE_LIMITED"
	ErrCodeUnauthorised            = "UNAUTHORIZED"
	ErrCodeInternalError           = "INTERNAL_ERROR"
)

// DomainError is a business-logic error carrying the kind used to pick a status code.
type DomainError struct {
	Kind    ErrorKind
	Code    string
	Message string
	cause   error
}

func (e *DomainError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

// Unwrap exposes the underlying cause.
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is reports whether target is a DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// WithCause returns a copy of e wrapping err.
func (e *DomainError) WithCause(err error) *DomainError {
	c := *e
	c.cause = err
	return &c
}

// WithMessage returns a copy of e with a more specific message.
func (e *DomainError) WithMessage(message string) *DomainError {
	c := *e
	c.Message = message
	return &c
}

// StatusCode maps the error onto an HTTP status.
func (e *DomainError) StatusCode() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindExternalService:
		if e.Code == ErrCodeInvalidSignature {
			return http.StatusBadRequest
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// NewDomainError creates a new domain error
func NewDomainError(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a validation error with the given code.
func NewValidationError(code, message string) *DomainError {
	return NewDomainError(KindValidation, code, message)
}

// NewPersistenceError wraps a storage failure.
func NewPersistenceError(message string, err error) *DomainError {
	return NewDomainError(KindPersistence, ErrCodeInternalError, message).WithCause(err)
}

// Common domain errors
var (
	ErrNoItems               = NewValidationError(ErrCodeNoItems, "No items provided")
	ErrInvalidQuantity       = NewValidationError(ErrCodeInvalidQuantity, "Quantity must be at least one")
	ErrMissingShipping       = NewValidationError(ErrCodeMissingShipping, "Shipping details are required")
	ErrInvalidShippingMethod = NewValidationError(ErrCodeInvalidShippingMethod, "Unknown shipping method")
	ErrShippingCostMismatch  = NewValidationError(ErrCodeShippingCostMismatch, "Shipping cost does not match the selected method")
	ErrInvalidPaymentStatus  = NewValidationError(ErrCodeInvalidPaymentStatus, "New orders must start with a pending payment")
	ErrInvalidStatus         = NewValidationError(ErrCodeInvalidStatus, "Invalid status value")
	ErrMissingCheckoutData   = NewValidationError(ErrCodeMissingCheckoutData, "Missing required order data")
	ErrCheckoutTotalMismatch = NewValidationError(ErrCodeCheckoutTotalMismatch, "Checkout total does not match the order total")
	ErrMissingOrderMetadata  = NewValidationError(ErrCodeMissingOrderMetadata, "Missing orderId in metadata")

	// ErrClothesNotFound is a batch validation failure and is reported as 400 like other validation errors.
	ErrClothesNotFound = NewValidationError(ErrCodeClothesNotFound, "One or more clothing items not found")
	ErrUserNotFound    = NewValidationError(ErrCodeUserNotFound, "User not found")

	ErrOrderNotFound   = NewDomainError(KindNotFound, ErrCodeOrderNotFound, "Order not found")
	ErrNoOrdersForUser = NewDomainError(KindNotFound, ErrCodeNoOrdersFound, "No orders found for this user")

	ErrOrderNotCancellable = NewDomainError(KindConflict, ErrCodeOrderNotCancellable, "Only pending orders can be cancelled")
	ErrInvalidTransition   = NewDomainError(KindConflict, ErrCodeInvalidStatusTransition, "Status transition is not allowed")
	ErrStatusChanged       = NewDomainError(KindConflict, ErrCodeStatusChanged, "Order status changed, please retry")
	ErrOrderAlreadyPaid    = NewDomainError(KindConflict, ErrCodeOrderAlreadyPaid, "Order is not awaiting payment")
	ErrOrderCancelled      = NewDomainError(KindConflict, ErrCodeOrderCancelled, "Order has been cancelled")

	ErrCheckoutSessionFailed = NewDomainError(KindExternalService, ErrCodeCheckoutSessionFailed, "Failed to create checkout session")
	ErrInvalidSignature      = NewDomainError(KindExternalService, ErrCodeInvalidSignature, "Webhook signature verification failed")
)
