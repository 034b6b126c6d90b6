package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/allsale/allsale-api/internal/orders"
	"github.com/allsale/allsale-api/internal/redisx"
)

type OrdersHandler struct {
	Svc   *orders.Service
	Repo  *orders.Repo
	Redis *redis.Client
}

type createOrderReq struct {
	Cart            *orders.CartSnapshot `json:"cart"`
	Customer        orders.CustomerInfo  `json:"customer"`
	ShippingAddress json.RawMessage      `json:"shippingAddress"`
}

// orderSummary is the creation response: just enough for the storefront to
// move on to payment.
type orderSummary struct {
	ID            string               `json:"id"`
	Status        orders.OrderStatus   `json:"status"`
	PaymentStatus orders.PaymentStatus `json:"payment_status"`
	TotalAmount   int64                `json:"total_amount"`
	CurrencyCode  string               `json:"currency_code"`
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Post("/api/orders", h.createOrder)
	r.Get("/api/orders/{id}", h.getOrder)
	r.Get("/api/orders", h.listOrders)
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Cart == nil || len(req.ShippingAddress) == 0 {
		respondErr(w, http.StatusBadRequest, "Missing required fields: cart, customer, shippingAddress")
		return
	}
	if req.Customer.Email == "" || req.Customer.Name == "" || req.Customer.Phone == "" {
		respondErr(w, http.StatusBadRequest, "Missing customer fields: email, name, phone")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Svc.CreateOrder(ctx, req.Customer, req.ShippingAddress, req.Cart)
	if errors.Is(err, orders.ErrValidation) {
		respondErr(w, http.StatusBadRequest, "Missing required fields: cart, customer, shippingAddress")
		return
	}
	if err != nil {
		log.Printf("create order: %v", err)
		respondErr(w, http.StatusInternalServerError, "Failed to create order")
		return
	}

	respondOK(w, http.StatusCreated, map[string]any{"order": orderSummary{
		ID:            o.ID,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		TotalAmount:   o.TotalAmount,
		CurrencyCode:  o.CurrencyCode,
	}})
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// cache fast path
	key := fmt.Sprintf(redisx.KeyOrder, orderID)
	if h.Redis != nil {
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			respondOK(w, http.StatusOK, map[string]any{"order": json.RawMessage(s)})
			return
		}
	}

	o, err := h.Repo.GetOrder(ctx, orderID)
	if errors.Is(err, orders.ErrNotFound) {
		respondErr(w, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		log.Printf("get order %s: %v", orderID, err)
		respondErr(w, http.StatusInternalServerError, "Failed to fetch order")
		return
	}

	if h.Redis != nil {
		if b, err := json.Marshal(o); err == nil {
			_ = h.Redis.Set(ctx, key, b, redisx.TTLOrderCache).Err()
		}
	}
	respondOK(w, http.StatusOK, map[string]any{"order": o})
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, err := h.Repo.ListOrders(ctx, orders.ListFilter{
		Email:  q.Get("email"),
		Status: q.Get("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		log.Printf("list orders: %v", err)
		respondErr(w, http.StatusInternalServerError, "Failed to fetch orders")
		return
	}
	if list == nil {
		list = []*orders.Order{}
	}
	respondOK(w, http.StatusOK, map[string]any{"orders": list, "total": len(list)})
}
