package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"bhesbhusa/internal/database"
	"bhesbhusa/internal/model"
	"bhesbhusa/internal/payment"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	sitaID   = database.SampleUsers[0].ID
	adminID  = database.SampleUsers[1].ID
	dauraID  = database.SampleClothes[0].ID
	topiID   = database.SampleClothes[2].ID
	shawlID  = database.SampleClothes[3].ID
	noCloth  = "2b1c7a3e-5d4f-4e6a-8b9c-0d1e2f3a0999"
	jsonType = "application/json"
)

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", jsonType)
	req.Header.Set("X-API-Key", testAPIKey)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func deliver(t *testing.T, h http.Handler, eventID, orderID string) *httptest.ResponseRecorder {
	t.Helper()

	payload, signature := SignedWebhook(t, eventID, orderID)
	req := httptest.NewRequest(http.MethodPost, "/api/order/webhook", bytes.NewReader(payload))
	req.Header.Set("Content-Type", jsonType)
	req.Header.Set("Stripe-Signature", signature)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
	return out
}

func orderRequest(items ...model.OrderItemRequest) *model.OrderRequest {
	return &model.OrderRequest{
		UserID: sitaID,
		Items:  items,
		Shipping: &model.ShippingRequest{
			Method:    string(model.ShippingInsideTheValley),
			FirstName: "Sita",
			LastName:  "Sharma",
			Address:   "Thamel Marg 12",
			City:      "Kathmandu",
			Province:  "Bagmati",
			Phone:     "9800000000",
			Email:     "sita@example.com",
		},
		Payment: &model.PaymentRequest{Method: "stripe", Status: "PENDING"},
	}
}

func createOrder(t *testing.T, h http.Handler, req *model.OrderRequest) *model.Order {
	t.Helper()
	w := do(t, h, http.MethodPost, "/api/order/create", req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decode[model.OrderResponse](t, w)
	require.NotNil(t, resp.Order)
	return resp.Order
}

func TestClothesAPI_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	stack := SetupStack(t)

	t.Run("GET /api/clothes lists the seeded catalog", func(t *testing.T) {
		w := do(t, stack.Handler, http.MethodGet, "/api/clothes/", nil)
		require.Equal(t, http.StatusOK, w.Code)

		clothes := decode[[]model.Clothes](t, w)
		assert.Len(t, clothes, len(database.SampleClothes))
	})

	t.Run("GET /api/clothes/{id} returns one item", func(t *testing.T) {
		w := do(t, stack.Handler, http.MethodGet, "/api/clothes/"+topiID, nil)
		require.Equal(t, http.StatusOK, w.Code)

		cloth := decode[model.Clothes](t, w)
		assert.Equal(t, "Dhaka Topi", cloth.Title)
		assert.True(t, cloth.Price.Equal(decimal.NewFromInt(500)))
	})

	t.Run("GET /api/clothes/{id} for an unknown item returns 404", func(t *testing.T) {
		w := do(t, stack.Handler, http.MethodGet, "/api/clothes/"+noCloth, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestOrderAPI_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	stack := SetupStack(t)

	t.Run("POST /api/order/create prices items from the catalog", func(t *testing.T) {
		order := createOrder(t, stack.Handler, orderRequest(
			model.OrderItemRequest{ClothID: topiID, Quantity: 2},
			model.OrderItemRequest{ClothID: dauraID, Quantity: 1, Size: "L"},
		))

		assert.Regexp(t, `^STY-\d{6}-\d{3,}$`, order.OrderNumber)
		assert.Equal(t, model.StatusPending, order.Status)
		assert.Equal(t, model.PaymentPending, order.PaymentStatus)
		assert.True(t, order.Subtotal.Equal(decimal.NewFromInt(5500)), order.Subtotal.String())
		assert.True(t, order.ShippingCost.Equal(decimal.NewFromInt(100)))
		assert.True(t, order.Total.Equal(decimal.NewFromInt(5600)))
		require.Len(t, order.Items, 2)
		assert.Equal(t, model.DefaultSize, order.Items[0].Size)
		assert.Equal(t, "L", order.Items[1].Size)

		w := do(t, stack.Handler, http.MethodGet, "/api/order/"+order.ID.String(), nil)
		require.Equal(t, http.StatusOK, w.Code)
		stored := decode[model.Order](t, w)
		assert.Equal(t, order.OrderNumber, stored.OrderNumber)
		assert.True(t, stored.Total.Equal(order.Total))
	})

	t.Run("POST /api/order/create with an unknown item returns 400 and stores nothing", func(t *testing.T) {
		before := do(t, stack.Handler, http.MethodGet, "/api/order/", nil)
		require.Equal(t, http.StatusOK, before.Code)
		count := len(decode[[]model.Order](t, before))

		w := do(t, stack.Handler, http.MethodPost, "/api/order/create", orderRequest(
			model.OrderItemRequest{ClothID: topiID, Quantity: 1},
			model.OrderItemRequest{ClothID: noCloth, Quantity: 1},
		))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, model.ErrCodeClothesNotFound, decode[model.ErrorResponse](t, w).Error)

		after := do(t, stack.Handler, http.MethodGet, "/api/order/", nil)
		assert.Len(t, decode[[]model.Order](t, after), count)
	})

	t.Run("POST /api/order/create rejects a claimed shipping cost that differs", func(t *testing.T) {
		req := orderRequest(model.OrderItemRequest{ClothID: topiID, Quantity: 1})
		cost := decimal.NewFromInt(5)
		req.Shipping.Cost = &cost

		w := do(t, stack.Handler, http.MethodPost, "/api/order/create", req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, model.ErrCodeShippingCostMismatch, decode[model.ErrorResponse](t, w).Error)
	})

	t.Run("POST /api/order/create for an unknown user returns 400", func(t *testing.T) {
		req := orderRequest(model.OrderItemRequest{ClothID: topiID, Quantity: 1})
		req.UserID = "5d0c6f1e-3b7a-4c2d-9e8f-7a6b5c4d3e2f"

		w := do(t, stack.Handler, http.MethodPost, "/api/order/create", req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, model.ErrCodeUserNotFound, decode[model.ErrorResponse](t, w).Error)
	})

	t.Run("POST /api/order/create accepts the storefront payload and reprices it", func(t *testing.T) {
		body := map[string]any{
			"userId": sitaID,
			"items": []map[string]any{{
				"clothId":  topiID,
				"quantity": 2,
				"size":     "Free",
				"title":    "Dhaka Topi",
				"price":    1,
				"image":    "https://cdn.example.com/topi.jpg",
			}},
			"shipping": map[string]any{
				"method":    string(model.ShippingInsideTheValley),
				"cost":      100,
				"firstName": "Sita",
				"lastName":  "Sharma",
				"address":   "Thamel Marg 12",
				"province":  "Bagmati",
				"phone":     "9800000000",
				"email":     "sita@example.com",
			},
			"payment":       map[string]any{"method": "", "status": "PENDING"},
			"subtotal":      2,
			"shippingCost":  100,
			"total":         102,
			"customerNotes": "",
		}

		w := do(t, stack.Handler, http.MethodPost, "/api/order/create", body)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		order := decode[model.OrderResponse](t, w).Order
		require.NotNil(t, order)
		assert.True(t, order.Subtotal.Equal(decimal.NewFromInt(1000)), order.Subtotal.String())
		assert.True(t, order.Total.Equal(decimal.NewFromInt(1100)), order.Total.String())
	})

	t.Run("POST /api/order/create without API key returns 401", func(t *testing.T) {
		body, err := json.Marshal(orderRequest(model.OrderItemRequest{ClothID: topiID, Quantity: 1}))
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/api/order/create", bytes.NewReader(body))
		req.Header.Set("Content-Type", jsonType)
		w := httptest.NewRecorder()
		stack.Handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("PATCH /api/order/{id} cancels once", func(t *testing.T) {
		order := createOrder(t, stack.Handler, orderRequest(model.OrderItemRequest{ClothID: shawlID, Quantity: 1}))

		w := do(t, stack.Handler, http.MethodPatch, "/api/order/"+order.ID.String(), nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, model.StatusCancelled, decode[model.OrderResponse](t, w).Order.Status)

		w = do(t, stack.Handler, http.MethodPatch, "/api/order/"+order.ID.String(), nil)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, model.ErrCodeOrderNotCancellable, decode[model.ErrorResponse](t, w).Error)
	})

	t.Run("PATCH /api/order/{id}/status walks the pipeline", func(t *testing.T) {
		order := createOrder(t, stack.Handler, orderRequest(model.OrderItemRequest{ClothID: topiID, Quantity: 1}))
		path := "/api/order/" + order.ID.String() + "/status"

		w := do(t, stack.Handler, http.MethodPatch, path, model.StatusUpdateRequest{Status: "SHIPPED"})
		assert.Equal(t, http.StatusConflict, w.Code)

		for _, next := range []model.OrderStatus{model.StatusConfirmed, model.StatusProcessing, model.StatusShipped, model.StatusDelivered} {
			w = do(t, stack.Handler, http.MethodPatch, path, model.StatusUpdateRequest{Status: string(next)})
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.Equal(t, next, decode[model.OrderResponse](t, w).Order.Status)
		}

		w = do(t, stack.Handler, http.MethodPatch, "/api/order/"+order.ID.String(), nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("GET /api/order/user/{userId} for a user without orders returns 404", func(t *testing.T) {
		w := do(t, stack.Handler, http.MethodGet, "/api/order/user/"+adminID, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, model.ErrCodeNoOrdersFound, decode[model.ErrorResponse](t, w).Error)
	})

	t.Run("GET /api/order/user/{userId} lists newest first", func(t *testing.T) {
		w := do(t, stack.Handler, http.MethodGet, "/api/order/user/"+sitaID, nil)
		require.Equal(t, http.StatusOK, w.Code)

		orders := decode[[]model.Order](t, w)
		require.NotEmpty(t, orders)
		for i := 1; i < len(orders); i++ {
			assert.False(t, orders[i].CreatedAt.After(orders[i-1].CreatedAt))
		}
	})
}

func TestCheckoutAndWebhook_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	stack := SetupStack(t)
	order := createOrder(t, stack.Handler, orderRequest(
		model.OrderItemRequest{ClothID: topiID, Quantity: 2},
		model.OrderItemRequest{ClothID: shawlID, Quantity: 1},
	))

	checkout := func(total decimal.Decimal) *httptest.ResponseRecorder {
		return do(t, stack.Handler, http.MethodPost, "/api/order/create-stripe", model.CheckoutSessionRequest{
			OrderID: order.ID.String(),
			Total:   &total,
			Items:   []model.CheckoutItemRequest{{Title: "anything", Price: decimal.NewFromInt(1), Quantity: 1}},
		})
	}

	t.Run("a total that differs from the stored order is rejected", func(t *testing.T) {
		w := checkout(decimal.NewFromInt(1))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, int64(0), stack.Sessions.Load())
	})

	t.Run("a matching total opens a session", func(t *testing.T) {
		w := checkout(order.Total)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		session := decode[model.CheckoutSessionResponse](t, w)
		assert.Equal(t, "cs_test_1", session.ID)
		assert.Equal(t, "https://checkout.stripe.test/cs_test_1", session.URL)
	})

	t.Run("a tampered signature is rejected", func(t *testing.T) {
		payload, _ := SignedWebhook(t, "evt_forged", order.ID.String())
		req := httptest.NewRequest(http.MethodPost, "/api/order/webhook", bytes.NewReader(payload))
		req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")
		w := httptest.NewRecorder()
		stack.Handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, model.ErrCodeInvalidSignature, decode[model.ErrorResponse](t, w).Error)
	})

	t.Run("the completed event settles the order", func(t *testing.T) {
		w := deliver(t, stack.Handler, "evt_paid_1", order.ID.String())
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		result := decode[model.WebhookResult](t, w)
		assert.True(t, result.Received)
		assert.Equal(t, model.WebhookApplied, result.Outcome)
		assert.Equal(t, payment.EventCheckoutSessionCompleted, result.EventType)

		w = do(t, stack.Handler, http.MethodGet, "/api/order/"+order.ID.String(), nil)
		require.Equal(t, http.StatusOK, w.Code)
		settled := decode[model.Order](t, w)
		assert.Equal(t, model.PaymentPaid, settled.PaymentStatus)
		assert.Equal(t, model.StatusConfirmed, settled.Status)
	})

	t.Run("a replayed event is a no-op", func(t *testing.T) {
		before := decode[model.Order](t, do(t, stack.Handler, http.MethodGet, "/api/order/"+order.ID.String(), nil))

		w := deliver(t, stack.Handler, "evt_paid_1", order.ID.String())
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, model.WebhookDuplicate, decode[model.WebhookResult](t, w).Outcome)

		after := decode[model.Order](t, do(t, stack.Handler, http.MethodGet, "/api/order/"+order.ID.String(), nil))
		assert.Equal(t, before.Status, after.Status)
		assert.Equal(t, before.PaymentStatus, after.PaymentStatus)
		assert.True(t, before.UpdatedAt.Equal(after.UpdatedAt))
	})

	t.Run("a second event for a paid order reports it as settled", func(t *testing.T) {
		w := deliver(t, stack.Handler, "evt_paid_2", order.ID.String())
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, model.WebhookSettled, decode[model.WebhookResult](t, w).Outcome)
	})

	t.Run("checkout for a paid order is refused", func(t *testing.T) {
		w := checkout(order.Total)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, model.ErrCodeOrderAlreadyPaid, decode[model.ErrorResponse](t, w).Error)
	})

	t.Run("a paid order can no longer be cancelled", func(t *testing.T) {
		w := do(t, stack.Handler, http.MethodPatch, "/api/order/"+order.ID.String(), nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("an event for an unknown order returns 404", func(t *testing.T) {
		w := deliver(t, stack.Handler, "evt_orphan", "6a8b1c2d-0000-4000-8000-000000000000")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestCORS_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	stack := SetupStack(t)

	t.Run("OPTIONS request returns CORS headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/clothes/", nil)
		w := httptest.NewRecorder()

		stack.Handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "https://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PATCH")
	})
}
