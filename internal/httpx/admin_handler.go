package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/allsale/allsale-api/internal/catalog"
	"github.com/allsale/allsale-api/internal/objectstore"
	"github.com/allsale/allsale-api/internal/orders"
)

// AdminHandler is the back-office surface, gated by the X-Admin-API-Key
// shared secret.
type AdminHandler struct {
	Catalog *catalog.Repo
	Orders  *orders.Repo
	Store   *objectstore.Client
	APIKey  string
}

func (h *AdminHandler) Register(r *chi.Mux) {
	r.Route("/api/admin", func(ar chi.Router) {
		ar.Use(h.requireKey)
		ar.Post("/products", h.createProduct)
		ar.Put("/products/{id}", h.updateProduct)
		ar.Delete("/products/{id}", h.deleteProduct)
		ar.Get("/collections", h.listCollections)
		ar.Post("/collections", h.createCollection)
		ar.Delete("/collections/{id}", h.deleteCollection)
		ar.Get("/orders", h.listOrders)
		ar.Put("/orders/{id}/status", h.updateOrderStatus)
		ar.Post("/upload", h.upload)
		ar.Get("/menus", h.listMenus)
		ar.Post("/menus", h.saveMenu)
	})
}

func (h *AdminHandler) requireKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.APIKey == "" || r.Header.Get("X-Admin-API-Key") != h.APIKey {
			respondErr(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *AdminHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var in catalog.CreateProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if in.Handle == "" || in.Title == "" || len(in.Variants) == 0 {
		respondErr(w, http.StatusBadRequest, "handle, title, and variants are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	p, err := h.Catalog.CreateProduct(ctx, &in)
	if err != nil {
		log.Printf("create product: %v", err)
		respondErr(w, http.StatusInternalServerError, "Failed to create product")
		return
	}
	respondOK(w, http.StatusCreated, map[string]any{"product": p})
}

func (h *AdminHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var in catalog.CreateProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondErr(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	p, err := h.Catalog.UpdateProduct(ctx, chi.URLParam(r, "id"), &in)
	if errors.Is(err, catalog.ErrNotFound) {
		respondErr(w, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		log.Printf("update product: %v", err)
		respondErr(w, http.StatusInternalServerError, "Failed to update product")
		return
	}
	respondOK(w, http.StatusOK, map[string]any{"product": p})
}

func (h *AdminHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	err := h.Catalog.DeleteProduct(ctx, chi.URLParam(r, "id"))
	if errors.Is(err, catalog.ErrNotFound) {
		respondErr(w, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		log.Printf("delete product: %v", err)
		respondErr(w, http.StatusInternalServerError, "Failed to delete product")
		return
	}
	respondOK(w, http.StatusOK, nil)
}

func (h *AdminHandler) listCollections(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	cs, err := h.Catalog.ListCollections(ctx)
	if err != nil {
		log.Printf("admin list collections: %v", err)
		respondErr(w, http.StatusInternalServerError, "Failed to fetch collections")
		return
	}
	if cs == nil {
		cs = []*catalog.Collection{}
	}
	respondOK(w, http.StatusOK, map[string]any{"collections": cs})
}

func (h *AdminHandler) createCollection(w http.ResponseWriter, r *http.Request) {
	var in catalog.CreateCollectionInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if in.Handle == "" || in.Title == "" {
		respondErr(w, http.StatusBadRequest, "handle and title are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	c, err := h.Catalog.CreateCollection(ctx, &in)
	if err != nil {
		log.Printf("create collection: %v", err)
		respondErr(w, http.StatusInternalServerError, "Failed to create collection")
		return
	}
	respondOK(w, http.StatusCreated, map[string]any{"collection": c})
}

func (h *AdminHandler) deleteCollection(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	err := h.Catalog.DeleteCollection(ctx, chi.URLParam(r, "id"))
	if errors.Is(err, catalog.ErrNotFound) {
		respondErr(w, http.StatusNotFound, "Collection not found")
		return
	}
	if err != nil {
		log.Printf("delete collection: %v", err)
		respondErr(w, http.StatusInternalServerError, "Failed to delete collection")
		return
	}
	respondOK(w, http.StatusOK, nil)
}

func (h *AdminHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit <= 0 {
		limit = 50
	}
	offset, _ := strconv.Atoi(q.Get("offset"))

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	list, err := h.Orders.ListOrders(ctx, orders.ListFilter{
		Status: q.Get("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		log.Printf("admin list orders: %v", err)
		respondErr(w, http.StatusInternalServerError, "Failed to list orders")
		return
	}
	if list == nil {
		list = []*orders.Order{}
	}
	respondOK(w, http.StatusOK, map[string]any{"orders": list, "total": len(list)})
}

func (h *AdminHandler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if !orders.ValidOrderStatus(req.Status) {
		respondErr(w, http.StatusBadRequest, "invalid status")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	err := h.Orders.UpdateOrderStatus(ctx, chi.URLParam(r, "id"), orders.OrderStatus(req.Status))
	if errors.Is(err, orders.ErrNotFound) {
		respondErr(w, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		log.Printf("update order status: %v", err)
		respondErr(w, http.StatusInternalServerError, "Failed to update order status")
		return
	}
	respondOK(w, http.StatusOK, nil)
}

func (h *AdminHandler) upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		respondErr(w, http.StatusBadRequest, "No file provided")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respondErr(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	ext := strings.TrimPrefix(filepath.Ext(header.Filename), ".")
	if ext == "" {
		ext = "jpg"
	}
	key := "img-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12] + "." + ext

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	url, err := h.Store.Put(ctx, key, header.Header.Get("Content-Type"), file)
	if err != nil {
		log.Printf("upload: %v", err)
		respondErr(w, http.StatusInternalServerError, "Failed to upload file")
		return
	}
	respondOK(w, http.StatusOK, map[string]string{"url": url, "key": key})
}

func (h *AdminHandler) listMenus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	menus, err := h.Catalog.ListMenus(ctx)
	if err != nil {
		log.Printf("list menus: %v", err)
		respondErr(w, http.StatusInternalServerError, "Failed to list menus")
		return
	}
	respondOK(w, http.StatusOK, map[string]any{"menus": menus})
}

func (h *AdminHandler) saveMenu(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Handle string             `json:"handle"`
		Items  []catalog.MenuItem `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Handle == "" {
		respondErr(w, http.StatusBadRequest, "handle is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Catalog.UpsertMenu(ctx, req.Handle, req.Items); err != nil {
		log.Printf("save menu: %v", err)
		respondErr(w, http.StatusInternalServerError, "Failed to save menu")
		return
	}
	respondOK(w, http.StatusOK, nil)
}
