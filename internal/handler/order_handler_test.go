package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bhesbhusa/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockOrderService is a mock implementation of OrderService.
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) CreateOrder(ctx context.Context, req *model.OrderRequest) (*model.Order, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) GetByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderService) GetAll(ctx context.Context) ([]model.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderService) Cancel(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*model.Order, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func orderRouter(svc *MockOrderService) http.Handler {
	h := NewOrderHandler(svc, zerolog.Nop())
	r := chi.NewRouter()
	r.Get("/api/order/", h.GetAll)
	r.Post("/api/order/create", h.Create)
	r.Get("/api/order/user/{userId}", h.GetByUser)
	r.Get("/api/order/{id}", h.GetByID)
	r.Patch("/api/order/{id}", h.Cancel)
	r.Patch("/api/order/{id}/status", h.UpdateStatus)
	return r
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) model.ErrorResponse {
	t.Helper()
	var body model.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

const createBody = `{
	"userId": "7c9e6679-7425-40de-944b-e07fc1f90ae7",
	"items": [{"clothId": "9b2d63f6-0a4e-4a8c-b356-2f1a7f9c6d01", "quantity": 2}],
	"shipping": {"method": "IN_STORE_PICKUP", "firstName": "Sita", "lastName": "Sharma",
		"address": "Thamel", "province": "Bagmati", "phone": "9800000000", "email": "sita@example.com"}
}`

// storefrontBody is the checkout page's payload, including fields the API recomputes.
const storefrontBody = `{
	"userId": "7c9e6679-7425-40de-944b-e07fc1f90ae7",
	"items": [{
		"clothId": "9b2d63f6-0a4e-4a8c-b356-2f1a7f9c6d01",
		"quantity": 2,
		"size": "Free",
		"title": "Dhaka Topi",
		"price": 1,
		"image": "https://cdn.example.com/topi.jpg"
	}],
	"shipping": {"method": "INSIDE_THE_VALLEY", "cost": 100, "firstName": "Sita", "lastName": "Sharma",
		"address": "Thamel", "city": "Kathmandu", "province": "Bagmati", "phone": "9800000000",
		"email": "sita@example.com", "additionalInfo": ""},
	"payment": {"method": "", "status": "PENDING"},
	"subtotal": 2,
	"shippingCost": 100,
	"total": 102,
	"customerNotes": ""
}`

func TestOrderHandler_Create(t *testing.T) {
	orderID := uuid.New()
	created := &model.Order{
		ID:          orderID,
		OrderNumber: "STY-123456-001",
		Status:      model.StatusPending,
		Total:       decimal.NewFromInt(1000),
	}

	tests := []struct {
		name           string
		body           string
		mockReturn     *model.Order
		mockError      error
		expectedStatus int
		expectedCode   string
		expectService  bool
	}{
		{
			name:           "Success",
			body:           createBody,
			mockReturn:     created,
			expectedStatus: http.StatusCreated,
			expectService:  true,
		},
		{
			name:           "Malformed JSON",
			body:           `{"items": [`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidJSON,
		},
		{
			name:           "Display fields are ignored",
			body:           storefrontBody,
			mockReturn:     created,
			expectedStatus: http.StatusCreated,
			expectService:  true,
		},
		{
			name:           "Validation error",
			body:           createBody,
			mockError:      model.ErrNoItems,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeNoItems,
			expectService:  true,
		},
		{
			name:           "Persistence error hides details",
			body:           createBody,
			mockError:      model.NewPersistenceError("failed to create order", errors.New("pq: secret detail")),
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   model.ErrCodeInternalError,
			expectService:  true,
		},
		{
			name:           "Plain error is internal",
			body:           createBody,
			mockError:      errors.New("boom"),
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   model.ErrCodeInternalError,
			expectService:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockOrderService)
			if tt.expectService {
				if tt.mockReturn != nil {
					svc.On("CreateOrder", mock.Anything, mock.AnythingOfType("*model.OrderRequest")).Return(tt.mockReturn, nil)
				} else {
					svc.On("CreateOrder", mock.Anything, mock.AnythingOfType("*model.OrderRequest")).Return(nil, tt.mockError)
				}
			}

			req := httptest.NewRequest(http.MethodPost, "/api/order/create", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			orderRouter(svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			if tt.expectedCode != "" {
				body := decodeError(t, rec)
				assert.Equal(t, tt.expectedCode, body.Error)
				assert.NotContains(t, body.Message, "secret detail")
			} else {
				var resp model.OrderResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.Equal(t, "Order created successfully", resp.Message)
				require.NotNil(t, resp.Order)
				assert.Equal(t, orderID, resp.Order.ID)
			}

			if tt.expectService {
				svc.AssertExpectations(t)
			} else {
				svc.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestOrderHandler_Create_DecodesItems(t *testing.T) {
	svc := new(MockOrderService)
	svc.On("CreateOrder", mock.Anything, mock.MatchedBy(func(req *model.OrderRequest) bool {
		return len(req.Items) == 1 &&
			req.Items[0].Quantity == 2 &&
			req.Shipping != nil &&
			req.Shipping.Method == "IN_STORE_PICKUP"
	})).Return(&model.Order{ID: uuid.New()}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/order/create", strings.NewReader(createBody))
	rec := httptest.NewRecorder()
	orderRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	svc.AssertExpectations(t)
}

func TestOrderHandler_Create_StorefrontPayload(t *testing.T) {
	svc := new(MockOrderService)
	svc.On("CreateOrder", mock.Anything, mock.MatchedBy(func(req *model.OrderRequest) bool {
		return req.UserID == "7c9e6679-7425-40de-944b-e07fc1f90ae7" &&
			len(req.Items) == 1 &&
			req.Items[0].ClothID == "9b2d63f6-0a4e-4a8c-b356-2f1a7f9c6d01" &&
			req.Items[0].Quantity == 2 &&
			req.Items[0].Size == "Free" &&
			req.Shipping != nil &&
			req.Shipping.Cost != nil &&
			req.Shipping.Cost.Equal(decimal.NewFromInt(100)) &&
			req.Payment != nil &&
			req.Payment.Status == "PENDING"
	})).Return(&model.Order{ID: uuid.New()}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/order/create", strings.NewReader(storefrontBody))
	rec := httptest.NewRecorder()
	orderRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	svc.AssertExpectations(t)
}

func TestOrderHandler_GetByID(t *testing.T) {
	orderID := uuid.New()

	tests := []struct {
		name           string
		path           string
		mockReturn     *model.Order
		mockError      error
		expectedStatus int
		expectService  bool
	}{
		{
			name:           "Success",
			path:           "/api/order/" + orderID.String(),
			mockReturn:     &model.Order{ID: orderID, Status: model.StatusPending},
			expectedStatus: http.StatusOK,
			expectService:  true,
		},
		{
			name:           "Invalid UUID",
			path:           "/api/order/invalid-uuid",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Not found",
			path:           "/api/order/" + orderID.String(),
			mockError:      model.ErrOrderNotFound,
			expectedStatus: http.StatusNotFound,
			expectService:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockOrderService)
			if tt.expectService {
				if tt.mockReturn != nil {
					svc.On("GetByID", mock.Anything, orderID).Return(tt.mockReturn, nil)
				} else {
					svc.On("GetByID", mock.Anything, orderID).Return(nil, tt.mockError)
				}
			}

			rec := httptest.NewRecorder()
			orderRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectService {
				svc.AssertExpectations(t)
			} else {
				svc.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestOrderHandler_GetAll(t *testing.T) {
	svc := new(MockOrderService)
	svc.On("GetAll", mock.Anything).Return(nil, nil)

	rec := httptest.NewRecorder()
	orderRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/order/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestOrderHandler_GetByUser(t *testing.T) {
	userID := uuid.New()

	t.Run("orders returned", func(t *testing.T) {
		svc := new(MockOrderService)
		svc.On("GetByUser", mock.Anything, userID).Return([]model.Order{{ID: uuid.New()}, {ID: uuid.New()}}, nil)

		rec := httptest.NewRecorder()
		orderRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/order/user/"+userID.String(), nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		var orders []model.Order
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &orders))
		assert.Len(t, orders, 2)
	})

	t.Run("no orders is not found", func(t *testing.T) {
		svc := new(MockOrderService)
		svc.On("GetByUser", mock.Anything, userID).Return(nil, model.ErrNoOrdersForUser)

		rec := httptest.NewRecorder()
		orderRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/order/user/"+userID.String(), nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, model.ErrCodeNoOrdersFound, decodeError(t, rec).Error)
	})
}

func TestOrderHandler_Cancel(t *testing.T) {
	orderID := uuid.New()

	t.Run("cancelled", func(t *testing.T) {
		svc := new(MockOrderService)
		svc.On("Cancel", mock.Anything, orderID).Return(&model.Order{ID: orderID, Status: model.StatusCancelled}, nil)

		rec := httptest.NewRecorder()
		orderRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/api/order/"+orderID.String(), nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp model.OrderResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, model.StatusCancelled, resp.Order.Status)
	})

	t.Run("not cancellable", func(t *testing.T) {
		svc := new(MockOrderService)
		svc.On("Cancel", mock.Anything, orderID).Return(nil, model.ErrOrderNotCancellable)

		rec := httptest.NewRecorder()
		orderRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/api/order/"+orderID.String(), nil))

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, model.ErrCodeOrderNotCancellable, decodeError(t, rec).Error)
	})
}

func TestOrderHandler_UpdateStatus(t *testing.T) {
	orderID := uuid.New()
	path := "/api/order/" + orderID.String() + "/status"

	tests := []struct {
		name           string
		body           string
		mockError      error
		expectedStatus int
		expectService  bool
	}{
		{"Success", `{"status":"CONFIRMED"}`, nil, http.StatusOK, true},
		{"Missing status", `{}`, nil, http.StatusBadRequest, false},
		{"Unknown field", `{"status":"CONFIRMED","force":true}`, nil, http.StatusBadRequest, false},
		{"Invalid status", `{"status":"LOST"}`, model.ErrInvalidStatus, http.StatusBadRequest, true},
		{"Illegal transition", `{"status":"DELIVERED"}`, model.ErrInvalidTransition, http.StatusConflict, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockOrderService)
			if tt.expectService {
				if tt.mockError == nil {
					svc.On("UpdateStatus", mock.Anything, orderID, "CONFIRMED").
						Return(&model.Order{ID: orderID, Status: model.StatusConfirmed}, nil)
				} else {
					svc.On("UpdateStatus", mock.Anything, orderID, mock.Anything).Return(nil, tt.mockError)
				}
			}

			req := httptest.NewRequest(http.MethodPatch, path, bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			orderRouter(svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if !tt.expectService {
				svc.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}
