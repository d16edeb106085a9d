package handler

import (
	"io"
	"net/http"

	"bhesbhusa/internal/model"
	"bhesbhusa/internal/service"

	"github.com/rs/zerolog"
)

// maxWebhookBytes caps a webhook body.
const maxWebhookBytes = 65536

// SignatureHeader carries the processor's webhook signature.
const SignatureHeader = "Stripe-Signature"

// PaymentHandler handles hosted checkout and webhook requests.
type PaymentHandler struct {
	service service.PaymentService
	logger  zerolog.Logger
}

// NewPaymentHandler creates a new payment handler.
func NewPaymentHandler(service service.PaymentService, logger zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		logger:  logger.With().Str("handler", "payment").Logger(),
	}
}

// CreateCheckoutSession handles POST /api/order/create-stripe requests.
func (h *PaymentHandler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	var req model.CheckoutSessionRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	session, err := h.service.CreateCheckoutSession(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// Webhook handles POST /api/order/webhook requests. The body is read raw
// because the signature covers the exact bytes sent.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, model.ErrCodeInvalidJSON, "Webhook payload too large", h.logger)
		return
	}

	result, err := h.service.HandleWebhook(r.Context(), payload, r.Header.Get(SignatureHeader))
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
