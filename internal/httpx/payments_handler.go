package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/allsale/allsale-api/internal/orders"
	"github.com/allsale/allsale-api/internal/paydunya"
)

type PaymentsHandler struct {
	Svc *orders.Service
}

type initPaymentReq struct {
	OrderID       string `json:"orderId"`
	PaymentMethod string `json:"paymentMethod"`
	ReturnURL     string `json:"returnUrl"`
	CancelURL     string `json:"cancelUrl"`
}

func (h *PaymentsHandler) Register(r *chi.Mux) {
	r.Post("/api/payments/init", h.initPayment)
	r.Get("/api/payments/{token}/status", h.checkStatus)
}

func (h *PaymentsHandler) initPayment(w http.ResponseWriter, r *http.Request) {
	var req initPaymentReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErr(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 20*time.Second)
	defer cancel()

	init, err := h.Svc.InitiatePayment(ctx, req.OrderID, req.PaymentMethod, req.ReturnURL, req.CancelURL)
	switch {
	case err == nil:
		respondOK(w, http.StatusOK, init)
	case errors.Is(err, orders.ErrValidation):
		respondErr(w, http.StatusBadRequest, "Missing required fields: orderId, paymentMethod, returnUrl, cancelUrl")
	case errors.Is(err, orders.ErrNotFound):
		respondErr(w, http.StatusNotFound, "Order not found")
	case errors.Is(err, orders.ErrAlreadyPaid):
		respondErr(w, http.StatusBadRequest, "Order is already paid")
	default:
		var gw *paydunya.GatewayError
		if errors.As(err, &gw) {
			respondErr(w, http.StatusInternalServerError, gw.Message)
			return
		}
		log.Printf("init payment %s: %v", req.OrderID, err)
		respondErr(w, http.StatusInternalServerError, "Failed to initialize payment")
	}
}

func (h *PaymentsHandler) checkStatus(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	ctx, cancel := context.WithTimeout(r.Context(), 20*time.Second)
	defer cancel()

	status, order, err := h.Svc.CheckStatus(ctx, token)
	if err != nil {
		var gw *paydunya.GatewayError
		if errors.As(err, &gw) {
			respondErr(w, http.StatusInternalServerError, gw.Message)
			return
		}
		log.Printf("check payment status %s: %v", token, err)
		respondErr(w, http.StatusInternalServerError, "Failed to check payment status")
		return
	}
	if status == "" {
		status = "unknown"
	}
	respondOK(w, http.StatusOK, map[string]any{
		"paymentStatus": status,
		"order":         order,
	})
}
