package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allsale/allsale-api/internal/orders"
	"github.com/allsale/allsale-api/internal/paydunya"
)

type stubOrderLookup struct {
	order *orders.Order
	err   error
}

func (s *stubOrderLookup) GetOrderByIDAndToken(_ context.Context, _, _ string) (*orders.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.order, nil
}

type stubReconciler struct {
	calls  int
	order  *orders.Order
	token  string
	status string
	amount int64
	err    error
}

func (s *stubReconciler) Reconcile(_ context.Context, o *orders.Order, token, providerStatus string, providerAmount int64, _ json.RawMessage) error {
	s.calls++
	s.order, s.token, s.status, s.amount = o, token, providerStatus, providerAmount
	return s.err
}

func webhookRouterWith(lookup OrderLookup, rec Reconciler) *chi.Mux {
	h := &WebhooksHandler{
		Gateway: paydunya.New("test", "master-key", "pk", "tk"),
		Repo:    lookup,
		Svc:     rec,
	}
	r := chi.NewRouter()
	h.Register(r)
	return r
}

// The reject paths run before any storage access, so nil lookup and
// reconciler are never reached.
func webhookRouter() *chi.Mux {
	return webhookRouterWith(nil, nil)
}

func postWebhook(r http.Handler, key string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/paydunya", bytes.NewReader(body))
	if key != "" {
		req.Header.Set("PAYDUNYA-MASTER-KEY", key)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestWebhook_MissingAuthHeader(t *testing.T) {
	rec := postWebhook(webhookRouter(), "", []byte(`{}`))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	resp := decodeResponse(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "Missing authentication header", resp.Error)
}

func TestWebhook_WrongKey(t *testing.T) {
	rec := postWebhook(webhookRouter(), "not-the-key", []byte(`{}`))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid signature", decodeResponse(t, rec).Error)
}

func TestWebhook_MalformedBody(t *testing.T) {
	rec := postWebhook(webhookRouter(), "master-key", []byte(`{not json`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing required data", decodeResponse(t, rec).Error)
}

func TestWebhook_MissingTokenOrOrderID(t *testing.T) {
	r := webhookRouter()

	// token without order_id
	body, _ := json.Marshal(map[string]any{
		"invoice": map[string]any{"token": "tok_abc", "status": "completed"},
	})
	rec := postWebhook(r, "master-key", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// order_id without token
	body, _ = json.Marshal(map[string]any{
		"invoice":     map[string]any{"status": "completed"},
		"custom_data": map[string]string{"order_id": "ORD-1"},
	})
	rec = postWebhook(r, "master-key", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing required data", decodeResponse(t, rec).Error)
}

func webhookBody(orderID, token, status string, amount int64) []byte {
	body, _ := json.Marshal(map[string]any{
		"response_code": "00",
		"invoice":       map[string]any{"token": token, "status": status, "total_amount": amount},
		"custom_data":   map[string]string{"order_id": orderID},
	})
	return body
}

func TestWebhook_MismatchedPair(t *testing.T) {
	reconciler := &stubReconciler{}
	r := webhookRouterWith(&stubOrderLookup{err: orders.ErrNotFound}, reconciler)

	rec := postWebhook(r, "master-key", webhookBody("ORD-1", "tok_someone_elses", "completed", 15000))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Order not found", decodeResponse(t, rec).Error)
	assert.Zero(t, reconciler.calls)
}

func TestWebhook_ReconcilesOrder(t *testing.T) {
	reconciler := &stubReconciler{}
	r := webhookRouterWith(&stubOrderLookup{order: testOrder()}, reconciler)

	rec := postWebhook(r, "master-key", webhookBody("ORD-1", "tok_abc", "completed", 15000))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeResponse(t, rec).Success)
	require.Equal(t, 1, reconciler.calls)
	assert.Equal(t, "ORD-1", reconciler.order.ID)
	assert.Equal(t, "tok_abc", reconciler.token)
	assert.Equal(t, "completed", reconciler.status)
	assert.Equal(t, int64(15000), reconciler.amount)
}

// Post-auth failures must not surface as 5xx or the provider retries the IPN.
func TestWebhook_ReconcileErrorAnswers200(t *testing.T) {
	reconciler := &stubReconciler{err: errors.New("connection refused")}
	r := webhookRouterWith(&stubOrderLookup{order: testOrder()}, reconciler)

	rec := postWebhook(r, "master-key", webhookBody("ORD-1", "tok_abc", "completed", 15000))

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "Internal error processing webhook", resp.Error)
}

func TestWebhook_LookupErrorAnswers200(t *testing.T) {
	reconciler := &stubReconciler{}
	r := webhookRouterWith(&stubOrderLookup{err: errors.New("connection refused")}, reconciler)

	rec := postWebhook(r, "master-key", webhookBody("ORD-1", "tok_abc", "completed", 15000))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeResponse(t, rec).Success)
	assert.Zero(t, reconciler.calls)
}
