package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	kafkax "github.com/ariefcatur/go-organic-store/internal/kafka"
	"github.com/ariefcatur/go-organic-store/internal/metrics"
	"github.com/ariefcatur/go-organic-store/internal/orders"
	"github.com/ariefcatur/go-organic-store/internal/redisx"
)

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.ListOrders(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		h.storeError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.Store.GetOrder(r.Context(), userFrom(r.Context()).ID, chi.URLParam(r, "id"))
	if err != nil {
		h.storeError(w, err, "Order not found")
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req orders.OrderInput
	if !decode(w, r, &req) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u := userFrom(ctx)
	o, err := h.Store.CreateOrder(ctx, u.ID, req)
	if err != nil {
		h.storeError(w, err, "Product not found")
		return
	}

	h.cacheStatus(ctx, orders.StatusView{OrderID: o.ID, UserID: o.UserID, Status: o.Status, UpdatedAt: o.UpdatedAt})
	h.publish(h.Placed, orders.EventOrderPlaced, o.ID, middleware.GetReqID(ctx), orders.OrderPlacedPayload{
		OrderID:     o.ID,
		UserID:      o.UserID,
		Items:       o.Items,
		TotalAmount: o.TotalAmount,
	})
	writeJSON(w, http.StatusOK, o)
}

// getOrderStatus reads the Redis cache first and falls back to the store,
// refilling the cache on a miss.
func (h *Handler) getOrderStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	u := userFrom(ctx)
	id := chi.URLParam(r, "id")

	if e, ok := h.cachedStatus(ctx, id); ok {
		if e.UserID != u.ID {
			writeError(w, http.StatusNotFound, "Order not found")
			return
		}
		writeJSON(w, http.StatusOK, e)
		return
	}

	o, err := h.Store.GetOrder(ctx, u.ID, id)
	if err != nil {
		h.storeError(w, err, "Order not found")
		return
	}
	e := orders.StatusView{OrderID: o.ID, UserID: o.UserID, Status: o.Status, UpdatedAt: o.UpdatedAt}
	h.cacheStatus(ctx, e)
	writeJSON(w, http.StatusOK, e)
}

func (h *Handler) adminOrders(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.ListAllOrders(r.Context())
	if err != nil {
		h.storeError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) adminUsers(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.ListUsers(r.Context())
	if err != nil {
		h.storeError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) setOrderStatus(w http.ResponseWriter, r *http.Request) {
	status, err := orders.ParseStatus(r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid status")
		return
	}
	ctx := r.Context()
	o, err := h.Store.UpdateOrderStatus(ctx, chi.URLParam(r, "id"), status)
	if err != nil {
		h.storeError(w, err, "Order not found")
		return
	}
	metrics.RecordStatusUpdate(string(status))

	h.dropStatus(ctx, o.ID)
	h.publish(h.Changed, orders.EventOrderStatusChanged, o.ID, middleware.GetReqID(ctx), orders.OrderStatusChangedPayload{
		OrderID:   o.ID,
		UserID:    o.UserID,
		Status:    o.Status,
		ChangedBy: userFrom(ctx).ID,
		ChangedAt: o.UpdatedAt,
	})
	writeJSON(w, http.StatusOK, messageBody{Message: "Order status updated"})
}

func (h *Handler) publish(p Publisher, eventType, orderID, traceID string, payload any) {
	if p == nil {
		return
	}
	ev, err := orders.NewEnvelope(eventType, h.Service, orderID, traceID, payload)
	if err != nil {
		h.Log.WithError(err).WithField("event_type", eventType).Error("build envelope")
		return
	}
	p.Publish(orders.PartitionKey(orderID), kafkax.MustMarshal(ev), kafkax.EventHeaders(eventType)...)
}

func (h *Handler) cachedStatus(ctx context.Context, orderID string) (orders.StatusView, bool) {
	if h.Redis == nil {
		return orders.StatusView{}, false
	}
	s, err := h.Redis.Get(ctx, redisx.StatusKey(orderID)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			h.Log.WithError(err).Warn("read status cache")
		}
		return orders.StatusView{}, false
	}
	var e orders.StatusView
	if err := json.Unmarshal([]byte(s), &e); err != nil || !e.Status.Valid() {
		return orders.StatusView{}, false
	}
	return e, true
}

func (h *Handler) cacheStatus(ctx context.Context, e orders.StatusView) {
	if h.Redis == nil {
		return
	}
	if err := h.Redis.Set(ctx, redisx.StatusKey(e.OrderID), kafkax.MustMarshal(e), redisx.TTLStatusCache).Err(); err != nil {
		h.Log.WithError(err).Warn("write status cache")
	}
}

// dropStatus invalidates the cached entry; the consumer rewrites it once the
// status-changed event is processed.
func (h *Handler) dropStatus(ctx context.Context, orderID string) {
	if h.Redis == nil {
		return
	}
	if err := h.Redis.Del(ctx, redisx.StatusKey(orderID)).Err(); err != nil {
		h.Log.WithError(err).Warn("drop status cache")
	}
}
