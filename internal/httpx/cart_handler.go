package httpx

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-organic-store/internal/metrics"
	"github.com/ariefcatur/go-organic-store/internal/orders"
)

type addToCartReq struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity"`
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	items, err := h.Store.ListCart(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		h.storeError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// addToCart answers a non-positive quantity with 400, not a validation 422.
func (h *Handler) addToCart(w http.ResponseWriter, r *http.Request) {
	var req addToCartReq
	if !decode(w, r, &req) {
		return
	}
	if req.Quantity < 1 {
		metrics.RecordCartAdd("rejected")
		writeError(w, http.StatusBadRequest, "Quantity must be at least 1")
		return
	}
	item, err := h.Store.AddToCart(r.Context(), userFrom(r.Context()).ID, req.ProductID, req.Quantity)
	switch {
	case errors.Is(err, orders.ErrInsufficientStock):
		metrics.RecordCartAdd("out_of_stock")
	case err != nil:
		metrics.RecordCartAdd("error")
	default:
		metrics.RecordCartAdd("ok")
	}
	if err != nil {
		h.storeError(w, err, "Product not found")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *Handler) removeFromCart(w http.ResponseWriter, r *http.Request) {
	err := h.Store.RemoveCartItem(r.Context(), userFrom(r.Context()).ID, chi.URLParam(r, "id"))
	if err != nil {
		h.storeError(w, err, "Cart item not found")
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "Item removed from cart"})
}
