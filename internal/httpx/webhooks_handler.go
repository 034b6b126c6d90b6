package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/allsale/allsale-api/internal/orders"
	"github.com/allsale/allsale-api/internal/paydunya"
	"github.com/allsale/allsale-api/internal/redisx"
)

// OrderLookup resolves the (order id, invoice token) pair a webhook claims.
type OrderLookup interface {
	GetOrderByIDAndToken(ctx context.Context, id, token string) (*orders.Order, error)
}

// Reconciler applies a provider status onto an order.
type Reconciler interface {
	Reconcile(ctx context.Context, o *orders.Order, token, providerStatus string, providerAmount int64, raw json.RawMessage) error
}

// WebhooksHandler receives PayDunya IPN callbacks. Once the shared secret
// checks out and the order is found, the provider always gets a 200 back so
// it does not retry-storm on our internal failures.
type WebhooksHandler struct {
	Gateway *paydunya.Client
	Repo    OrderLookup
	Svc     Reconciler
	Redis   *redis.Client
}

func (h *WebhooksHandler) Register(r *chi.Mux) {
	r.Post("/api/webhooks/paydunya", h.handlePayDunya)
}

func (h *WebhooksHandler) handlePayDunya(w http.ResponseWriter, r *http.Request) {
	key := r.Header.Get("PAYDUNYA-MASTER-KEY")
	if key == "" {
		log.Printf("webhook: missing PAYDUNYA-MASTER-KEY header")
		respondErr(w, http.StatusUnauthorized, "Missing authentication header")
		return
	}
	if !h.Gateway.VerifyWebhookKey(key) {
		log.Printf("webhook: signature verification failed")
		respondErr(w, http.StatusUnauthorized, "Invalid signature")
		return
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		respondErr(w, http.StatusBadRequest, "Missing required data")
		return
	}
	var payload paydunya.WebhookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		respondErr(w, http.StatusBadRequest, "Missing required data")
		return
	}

	token := payload.Invoice.Token
	orderID := payload.CustomData.OrderID
	if token == "" || orderID == "" {
		log.Printf("webhook: missing token or order_id")
		respondErr(w, http.StatusBadRequest, "Missing required data")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// Both id and token must point at the same row; a forged order_id with
	// someone else's token does not pass.
	o, err := h.Repo.GetOrderByIDAndToken(ctx, orderID, token)
	if errors.Is(err, orders.ErrNotFound) {
		log.Printf("webhook: order not found: %s token=%s", orderID, token)
		respondErr(w, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		// Post-auth internal failure: log, answer 200.
		log.Printf("webhook: lookup order %s: %v", orderID, err)
		writeJSON(w, http.StatusOK, Response{Success: false, Error: "Internal error processing webhook"})
		return
	}

	// Replay damper; reconcile itself is idempotent so a miss here is fine.
	dedupKey := fmt.Sprintf(redisx.KeyWebhookDedup, token, payload.Invoice.Status)
	if h.Redis != nil {
		if seen, _ := redisx.Exists(ctx, h.Redis, dedupKey); seen {
			respondOK(w, http.StatusOK, nil)
			return
		}
	}

	if err := h.Svc.Reconcile(ctx, o, token, payload.Invoice.Status, payload.Invoice.TotalAmount, raw); err != nil {
		log.Printf("webhook: reconcile order %s: %v", orderID, err)
		writeJSON(w, http.StatusOK, Response{Success: false, Error: "Internal error processing webhook"})
		return
	}

	if h.Redis != nil {
		_ = h.Redis.Set(ctx, dedupKey, "1", redisx.TTLDedup).Err()
		_ = h.Redis.Del(ctx, fmt.Sprintf(redisx.KeyOrder, orderID)).Err()
	}

	log.Printf("webhook: order %s reconciled from provider status %q", orderID, payload.Invoice.Status)
	respondOK(w, http.StatusOK, nil)
}
