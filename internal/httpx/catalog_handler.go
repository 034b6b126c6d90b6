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

	"github.com/allsale/allsale-api/internal/catalog"
	"github.com/allsale/allsale-api/internal/redisx"
)

type CatalogHandler struct {
	Repo  *catalog.Repo
	Redis *redis.Client
}

func (h *CatalogHandler) Register(r *chi.Mux) {
	r.Get("/api/products", h.listProducts)
	r.Get("/api/products/{handle}", h.getProduct)
	r.Get("/api/products/{handle}/recommendations", h.recommendations)
	r.Get("/api/collections", h.listCollections)
	r.Get("/api/collections/{handle}", h.getCollection)
	r.Get("/api/collections/{handle}/products", h.collectionProducts)
	r.Get("/api/menus/{handle}", h.getMenu)
	r.Get("/api/pages", h.listPages)
	r.Get("/api/pages/{handle}", h.getPage)
}

func (h *CatalogHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	reverse := q.Get("reverse") == "true"

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	ps, err := h.Repo.ListProducts(ctx, q.Get("query"), q.Get("sortKey"), reverse, limit)
	if err != nil {
		log.Printf("list products: %v", err)
		respondErr(w, http.StatusInternalServerError, "Failed to fetch products")
		return
	}
	if ps == nil {
		ps = []*catalog.Product{}
	}
	respondOK(w, http.StatusOK, map[string]any{"products": ps})
}

func (h *CatalogHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "handle")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	key := fmt.Sprintf(redisx.KeyProduct, handle)
	if h.Redis != nil {
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			respondOK(w, http.StatusOK, map[string]any{"product": json.RawMessage(s)})
			return
		}
	}

	p, err := h.Repo.GetProductByHandle(ctx, handle)
	if errors.Is(err, catalog.ErrNotFound) {
		respondErr(w, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		log.Printf("get product %s: %v", handle, err)
		respondErr(w, http.StatusInternalServerError, "Failed to fetch product")
		return
	}

	if h.Redis != nil {
		if b, err := json.Marshal(p); err == nil {
			_ = h.Redis.Set(ctx, key, b, redisx.TTLProductCache).Err()
		}
	}
	respondOK(w, http.StatusOK, map[string]any{"product": p})
}

func (h *CatalogHandler) recommendations(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "handle")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	ps, err := h.Repo.Recommendations(ctx, handle)
	if errors.Is(err, catalog.ErrNotFound) {
		respondErr(w, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		log.Printf("recommendations %s: %v", handle, err)
		respondErr(w, http.StatusInternalServerError, "Failed to fetch recommendations")
		return
	}
	if ps == nil {
		ps = []*catalog.Product{}
	}
	respondOK(w, http.StatusOK, map[string]any{"products": ps})
}

func (h *CatalogHandler) listCollections(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	cs, err := h.Repo.ListCollections(ctx)
	if err != nil {
		log.Printf("list collections: %v", err)
		respondErr(w, http.StatusInternalServerError, "Failed to fetch collections")
		return
	}
	if cs == nil {
		cs = []*catalog.Collection{}
	}
	respondOK(w, http.StatusOK, map[string]any{"collections": cs})
}

func (h *CatalogHandler) getCollection(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "handle")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.Repo.GetCollectionByHandle(ctx, handle)
	if errors.Is(err, catalog.ErrNotFound) {
		respondErr(w, http.StatusNotFound, "Collection not found")
		return
	}
	if err != nil {
		log.Printf("get collection %s: %v", handle, err)
		respondErr(w, http.StatusInternalServerError, "Failed to fetch collection")
		return
	}
	respondOK(w, http.StatusOK, map[string]any{"collection": c})
}

func (h *CatalogHandler) collectionProducts(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "handle")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	ps, err := h.Repo.CollectionProducts(ctx, handle, limit)
	if err != nil {
		log.Printf("collection products %s: %v", handle, err)
		respondErr(w, http.StatusInternalServerError, "Failed to fetch products")
		return
	}
	if ps == nil {
		ps = []*catalog.Product{}
	}
	respondOK(w, http.StatusOK, map[string]any{"products": ps})
}

func (h *CatalogHandler) getMenu(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "handle")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	items, err := h.Repo.GetMenu(ctx, handle)
	if err != nil {
		log.Printf("get menu %s: %v", handle, err)
		respondErr(w, http.StatusInternalServerError, "Failed to fetch menu")
		return
	}
	respondOK(w, http.StatusOK, map[string]any{"menu": items})
}

func (h *CatalogHandler) listPages(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	pages, err := h.Repo.ListPages(ctx)
	if err != nil {
		log.Printf("list pages: %v", err)
		respondErr(w, http.StatusInternalServerError, "Failed to fetch pages")
		return
	}
	if pages == nil {
		pages = []*catalog.Page{}
	}
	respondOK(w, http.StatusOK, map[string]any{"pages": pages})
}

func (h *CatalogHandler) getPage(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "handle")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Repo.GetPageByHandle(ctx, handle)
	if errors.Is(err, catalog.ErrNotFound) {
		respondErr(w, http.StatusNotFound, "Page not found")
		return
	}
	if err != nil {
		log.Printf("get page %s: %v", handle, err)
		respondErr(w, http.StatusInternalServerError, "Failed to fetch page")
		return
	}
	respondOK(w, http.StatusOK, map[string]any{"page": p})
}
