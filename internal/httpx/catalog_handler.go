package httpx

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ariefcatur/go-organic-store/internal/orders"
	"github.com/ariefcatur/go-organic-store/internal/redisx"
	"github.com/ariefcatur/go-organic-store/internal/seed"
)

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	cs, err := h.Store.ListCategories(r.Context())
	if err != nil {
		h.storeError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req orders.NewCategory
	if !decode(w, r, &req) {
		return
	}
	c := orders.Category{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.Store.CreateCategory(r.Context(), c); err != nil {
		h.storeError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	ps, err := h.Store.ListProducts(r.Context(), r.URL.Query().Get("category_id"))
	if err != nil {
		h.storeError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.Store.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.storeError(w, err, "Product not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req orders.NewProduct
	if !decode(w, r, &req) {
		return
	}
	ctx := r.Context()
	if _, err := h.findCategory(ctx, req.CategoryID); err != nil {
		h.storeError(w, err, "Category not found")
		return
	}
	certified := true
	if req.OrganicCertification != nil {
		certified = *req.OrganicCertification
	}
	p := orders.Product{
		ID:                   uuid.NewString(),
		Name:                 req.Name,
		Description:          req.Description,
		Price:                req.Price,
		CategoryID:           req.CategoryID,
		ImageURL:             req.ImageURL,
		StockQuantity:        req.StockQuantity,
		OrganicCertification: certified,
		FarmOrigin:           req.FarmOrigin,
		CreatedAt:            time.Now().UTC(),
	}
	if err := h.Store.CreateProduct(ctx, p); err != nil {
		h.storeError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) findCategory(ctx context.Context, id string) (orders.Category, error) {
	cs, err := h.Store.ListCategories(ctx)
	if err != nil {
		return orders.Category{}, err
	}
	for _, c := range cs {
		if c.ID == id {
			return c, nil
		}
	}
	return orders.Category{}, orders.ErrNotFound
}

// initData seeds the sample catalog once. Concurrent callers in this process
// queue on seedMu; across replicas the Redis lock turns losers away.
func (h *Handler) initData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.seedMu.Lock()
	defer h.seedMu.Unlock()

	if h.Redis != nil {
		ok, release, err := redisx.Lock(ctx, h.Redis, redisx.KeySeedLock, redisx.TTLSeedLock)
		switch {
		case err != nil:
			h.Log.WithError(err).Warn("seed lock unavailable, seeding without it")
		case !ok:
			writeJSON(w, http.StatusOK, messageBody{Message: "Initialization in progress"})
			return
		}
		defer release()
	}

	created, err := seed.Run(ctx, h.Store)
	if err != nil && !errors.Is(err, orders.ErrEmailTaken) {
		h.Log.WithError(err).Error("seed")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if !created && err == nil {
		writeJSON(w, http.StatusOK, messageBody{Message: "Data already initialized"})
		return
	}
	h.Log.Info("sample data initialized")
	writeJSON(w, http.StatusOK, messageBody{Message: "Initial data created successfully"})
}
