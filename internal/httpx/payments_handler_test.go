package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allsale/allsale-api/internal/orders"
	"github.com/allsale/allsale-api/internal/paydunya"
)

// stubRepository implements orders.Repository
type stubRepository struct {
	order  *orders.Order
	getErr error
}

func (s *stubRepository) CreateOrder(_ context.Context, _ orders.CustomerInfo, _ json.RawMessage, _ *orders.CartSnapshot) (*orders.Order, error) {
	return s.order, s.getErr
}
func (s *stubRepository) GetOrder(_ context.Context, _ string) (*orders.Order, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.order, nil
}
func (s *stubRepository) GetOrderByToken(_ context.Context, _ string) (*orders.Order, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.order, nil
}
func (s *stubRepository) UpdateOrderPaymentInit(_ context.Context, _, _, _, _ string) error {
	return nil
}
func (s *stubRepository) ReconcilePaymentStatus(_ context.Context, _ string, _ orders.PaymentStatus, _ orders.OrderStatus) error {
	return nil
}
func (s *stubRepository) RecordTransaction(_ context.Context, orderID, token string, amount int64, currency, method string) (*orders.Transaction, error) {
	return &orders.Transaction{OrderID: orderID, PaydunyaToken: token}, nil
}
func (s *stubRepository) UpdateTransactionFromWebhook(_ context.Context, _, _, _ string, _ json.RawMessage) error {
	return nil
}

// stubGateway implements orders.Gateway
type stubGateway struct {
	invoice *paydunya.Invoice
	status  *paydunya.StatusResult
	err     error
}

func (s *stubGateway) CreateInvoice(_ context.Context, _ paydunya.InvoiceRequest) (*paydunya.Invoice, error) {
	return s.invoice, s.err
}
func (s *stubGateway) CheckStatus(_ context.Context, _ string) (*paydunya.StatusResult, error) {
	return s.status, s.err
}

func paymentsRouter(repo orders.Repository, gw orders.Gateway) *chi.Mux {
	h := &PaymentsHandler{Svc: &orders.Service{Repo: repo, Gateway: gw}}
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func postJSON(r http.Handler, path string, body any) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func testOrder() *orders.Order {
	return &orders.Order{
		ID:            "ORD-1",
		CustomerEmail: "awa@example.sn",
		CustomerName:  "Awa",
		CustomerPhone: "+221770000000",
		TotalAmount:   15000,
		CurrencyCode:  "XOF",
		Status:        orders.OrderPending,
		PaymentStatus: orders.PaymentPending,
	}
}

func TestInitPayment_MissingFields(t *testing.T) {
	r := paymentsRouter(&stubRepository{}, &stubGateway{})

	rec := postJSON(r, "/api/payments/init", map[string]string{"orderId": "ORD-1"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeResponse(t, rec).Error, "Missing required fields")
}

func TestInitPayment_OrderNotFound(t *testing.T) {
	r := paymentsRouter(&stubRepository{getErr: orders.ErrNotFound}, &stubGateway{})

	rec := postJSON(r, "/api/payments/init", map[string]string{
		"orderId": "ORD-404", "paymentMethod": "wave", "returnUrl": "http://r", "cancelUrl": "http://c",
	})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Order not found", decodeResponse(t, rec).Error)
}

func TestInitPayment_AlreadyPaid(t *testing.T) {
	o := testOrder()
	o.PaymentStatus = orders.PaymentCompleted
	r := paymentsRouter(&stubRepository{order: o}, &stubGateway{})

	rec := postJSON(r, "/api/payments/init", map[string]string{
		"orderId": "ORD-1", "paymentMethod": "wave", "returnUrl": "http://r", "cancelUrl": "http://c",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Order is already paid", decodeResponse(t, rec).Error)
}

func TestInitPayment_GatewayErrorPassesMessage(t *testing.T) {
	r := paymentsRouter(
		&stubRepository{order: testOrder()},
		&stubGateway{err: &paydunya.GatewayError{Message: "Invalid master key"}},
	)

	rec := postJSON(r, "/api/payments/init", map[string]string{
		"orderId": "ORD-1", "paymentMethod": "wave", "returnUrl": "http://r", "cancelUrl": "http://c",
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Invalid master key", decodeResponse(t, rec).Error)
}

func TestInitPayment_Success(t *testing.T) {
	r := paymentsRouter(
		&stubRepository{order: testOrder()},
		&stubGateway{invoice: &paydunya.Invoice{Token: "tok_1", URL: "https://pd/checkout/tok_1"}},
	)

	rec := postJSON(r, "/api/payments/init", map[string]string{
		"orderId": "ORD-1", "paymentMethod": "wave", "returnUrl": "http://r", "cancelUrl": "http://c",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			RedirectURL string `json:"redirectUrl"`
			Token       string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "tok_1", resp.Data.Token)
	assert.Equal(t, "https://pd/checkout/tok_1", resp.Data.RedirectURL)
}

func TestCheckPaymentStatus_UnknownToken(t *testing.T) {
	r := paymentsRouter(
		&stubRepository{getErr: orders.ErrNotFound},
		&stubGateway{status: &paydunya.StatusResult{Status: "pending"}},
	)

	req := httptest.NewRequest(http.MethodGet, "/api/payments/tok_x/status", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data struct {
			PaymentStatus string          `json:"paymentStatus"`
			Order         json.RawMessage `json:"order"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "pending", resp.Data.PaymentStatus)
	assert.Equal(t, "null", string(resp.Data.Order))
}

func TestCreateOrder_Validation(t *testing.T) {
	h := &OrdersHandler{Svc: &orders.Service{Repo: &stubRepository{}, Gateway: &stubGateway{}}}
	r := chi.NewRouter()
	h.Register(r)

	rec := postJSON(r, "/api/orders", map[string]any{"customer": map[string]string{"email": "a@b.c"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing required fields: cart, customer, shippingAddress", decodeResponse(t, rec).Error)

	rec = postJSON(r, "/api/orders", map[string]any{
		"cart":            map[string]any{"id": "c1", "lines": []any{map[string]any{}}},
		"customer":        map[string]string{"email": "a@b.c"},
		"shippingAddress": map[string]string{"city": "Dakar"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing customer fields: email, name, phone", decodeResponse(t, rec).Error)
}

func TestCreateOrder_Success(t *testing.T) {
	h := &OrdersHandler{Svc: &orders.Service{Repo: &stubRepository{order: testOrder()}, Gateway: &stubGateway{}}}
	r := chi.NewRouter()
	h.Register(r)

	rec := postJSON(r, "/api/orders", map[string]any{
		"cart":            map[string]any{"id": "c1", "lines": []any{map[string]any{}}},
		"customer":        map[string]string{"email": "awa@example.sn", "name": "Awa", "phone": "+221770000000"},
		"shippingAddress": map[string]string{"city": "Dakar"},
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp struct {
		Data struct {
			Order orderSummary `json:"order"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ORD-1", resp.Data.Order.ID)
	assert.Equal(t, int64(15000), resp.Data.Order.TotalAmount)
}
