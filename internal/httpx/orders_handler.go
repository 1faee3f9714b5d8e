package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/ariefcatur/go-shop-cart.git/internal/checkout"
	"github.com/ariefcatur/go-shop-cart.git/internal/orders"
	"github.com/ariefcatur/go-shop-cart.git/internal/redisx"
)

type OrdersHandler struct {
	Checkout *checkout.Service
	Orders   *orders.Service
	Redis    *redis.Client
}

type orderResp struct {
	OrderID    string            `json:"order_id"`
	Status     string            `json:"status"`
	TotalCents int               `json:"total_cents"`
	Items      []orders.ItemPrice `json:"items"`
	CreatedAt  time.Time         `json:"created_at"`
}

type updateStatusReq struct {
	Status string `json:"status"`
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Post("/checkout", h.convert)
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{id}", h.getOrder)
	r.Patch("/orders/{id}/status", h.updateStatus)
	r.Delete("/orders/{id}", h.deleteOrder)
}

func toResp(rec *orders.Record) orderResp {
	items := make([]orders.ItemPrice, 0, len(rec.Items))
	for _, it := range rec.Items {
		items = append(items, orders.ItemPrice{ProductID: it.ProductID, Qty: it.Qty, PriceCents: it.PriceCents})
	}
	return orderResp{
		OrderID:    rec.Order.ID,
		Status:     rec.Order.Status,
		TotalCents: rec.Order.TotalCents,
		Items:      items,
		CreatedAt:  rec.Order.CreatedAt,
	}
}

func (h *OrdersHandler) convert(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing user"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	ctx = orders.WithTrace(ctx, middleware.GetReqID(r.Context()))

	rec, err := h.Checkout.Convert(ctx, uid)
	if err != nil {
		writeErr(w, err)
		return
	}

	// cart habis di-drain + cache status order baru
	_ = h.Redis.Del(ctx, fmt.Sprintf(redisx.KeyCartView, uid)).Err()
	h.cacheStatus(ctx, rec.Order.ID, rec.Order.Status)

	writeJSON(w, http.StatusCreated, toResp(rec))
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing user"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	recs, err := h.Orders.List(ctx, uid)
	if err != nil {
		writeErr(w, err)
		return
	}
	out := make([]orderResp, 0, len(recs))
	for i := range recs {
		out = append(out, toResp(&recs[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	orderID := chi.URLParam(r, "id")
	if uid == "" || orderID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing fields"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	rec, err := h.Orders.Get(ctx, uid, orderID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResp(rec))
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	var req updateStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if orderID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing id"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	ctx = orders.WithTrace(ctx, middleware.GetReqID(r.Context()))

	rec, err := h.Orders.UpdateStatus(ctx, orderID, req.Status)
	if err != nil {
		writeErr(w, err)
		return
	}
	h.cacheStatus(ctx, orderID, rec.Order.Status)
	writeJSON(w, http.StatusOK, toResp(rec))
}

func (h *OrdersHandler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	orderID := chi.URLParam(r, "id")
	if uid == "" || orderID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing fields"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Orders.Delete(ctx, uid, orderID); err != nil {
		writeErr(w, err)
		return
	}
	_ = h.Redis.Del(ctx, fmt.Sprintf(redisx.KeyOrderStatus, orderID)).Err()
	writeJSON(w, http.StatusOK, map[string]string{"message": "order deleted"})
}

func (h *OrdersHandler) cacheStatus(ctx context.Context, orderID, status string) {
	b, _ := json.Marshal(map[string]string{"status": status})
	_ = h.Redis.Set(ctx, fmt.Sprintf(redisx.KeyOrderStatus, orderID), b, redisx.TTLStatusCache).Err()
}
