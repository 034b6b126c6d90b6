package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/allsale/allsale-api/internal/cart"
)

type CartHandler struct {
	Repo *cart.Repo
}

func (h *CartHandler) Register(r *chi.Mux) {
	r.Post("/api/cart", h.createCart)
	r.Get("/api/cart/{id}", h.getCart)
	r.Post("/api/cart/{id}/items", h.addItem)
	r.Put("/api/cart/{id}/items", h.updateItem)
	r.Delete("/api/cart/{id}/items/{itemId}", h.removeItem)
}

func (h *CartHandler) createCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.Repo.Create(ctx)
	if err != nil {
		log.Printf("create cart: %v", err)
		respondErr(w, http.StatusInternalServerError, "Failed to create cart")
		return
	}
	respondOK(w, http.StatusCreated, map[string]any{"cart": c})
}

func (h *CartHandler) getCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.Repo.Get(ctx, chi.URLParam(r, "id"))
	if errors.Is(err, cart.ErrCartNotFound) {
		respondErr(w, http.StatusNotFound, "Cart not found")
		return
	}
	if err != nil {
		log.Printf("get cart: %v", err)
		respondErr(w, http.StatusInternalServerError, "Failed to fetch cart")
		return
	}
	respondOK(w, http.StatusOK, map[string]any{"cart": c})
}

func (h *CartHandler) addItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		VariantID string `json:"variantId"`
		Quantity  int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.VariantID == "" {
		respondErr(w, http.StatusBadRequest, "variantId is required")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.Repo.AddItem(ctx, chi.URLParam(r, "id"), req.VariantID, req.Quantity)
	switch {
	case errors.Is(err, cart.ErrCartNotFound):
		respondErr(w, http.StatusNotFound, "Cart not found")
	case errors.Is(err, cart.ErrVariantNotFound):
		respondErr(w, http.StatusNotFound, "Variant not found")
	case err != nil:
		log.Printf("add cart item: %v", err)
		respondErr(w, http.StatusInternalServerError, "Failed to add item to cart")
	default:
		respondOK(w, http.StatusOK, map[string]any{"cart": c})
	}
}

func (h *CartHandler) updateItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ItemID   string `json:"itemId"`
		Quantity *int   `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ItemID == "" || req.Quantity == nil {
		respondErr(w, http.StatusBadRequest, "itemId and quantity are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.Repo.UpdateItem(ctx, chi.URLParam(r, "id"), req.ItemID, *req.Quantity)
	if errors.Is(err, cart.ErrCartNotFound) {
		respondErr(w, http.StatusNotFound, "Cart not found")
		return
	}
	if err != nil {
		log.Printf("update cart item: %v", err)
		respondErr(w, http.StatusInternalServerError, "Failed to update cart item")
		return
	}
	respondOK(w, http.StatusOK, map[string]any{"cart": c})
}

func (h *CartHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.Repo.RemoveItem(ctx, chi.URLParam(r, "id"), chi.URLParam(r, "itemId"))
	if errors.Is(err, cart.ErrCartNotFound) {
		respondErr(w, http.StatusNotFound, "Cart not found")
		return
	}
	if err != nil {
		log.Printf("remove cart item: %v", err)
		respondErr(w, http.StatusInternalServerError, "Failed to remove cart item")
		return
	}
	respondOK(w, http.StatusOK, map[string]any{"cart": c})
}
