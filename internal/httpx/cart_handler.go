package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/ariefcatur/go-shop-cart.git/internal/cart"
	"github.com/ariefcatur/go-shop-cart.git/internal/redisx"
)

type CartHandler struct {
	Cart  *cart.Service
	Redis *redis.Client
}

type addItemReq struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

type updateItemReq struct {
	Qty int `json:"qty"`
}

func (h *CartHandler) Register(r *chi.Mux) {
	r.Get("/cart", h.getCart)
	r.Post("/cart/items", h.addItem)
	r.Patch("/cart/items/{id}", h.updateItem)
	r.Delete("/cart/items/{id}", h.removeItem)
	r.Delete("/cart", h.clear)
}

func (h *CartHandler) getCart(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing user"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// coba cache dulu; DB tetap sumber kebenaran
	key := fmt.Sprintf(redisx.KeyCartView, uid)
	if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
		writeJSON(w, http.StatusOK, json.RawMessage(s))
		return
	}

	v, err := h.Cart.Get(ctx, uid)
	if err != nil {
		writeErr(w, err)
		return
	}
	if b, err := json.Marshal(v); err == nil {
		_ = h.Redis.Set(ctx, key, b, redisx.TTLCartView).Err()
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *CartHandler) addItem(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	var req addItemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if uid == "" || req.ProductID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing fields"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	v, err := h.Cart.AddItem(ctx, uid, req.ProductID, req.Qty)
	if err != nil {
		writeErr(w, err)
		return
	}
	h.invalidate(ctx, uid)
	writeJSON(w, http.StatusCreated, v)
}

func (h *CartHandler) updateItem(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	itemID := chi.URLParam(r, "id")
	var req updateItemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if uid == "" || itemID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing fields"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	v, err := h.Cart.UpdateItem(ctx, uid, itemID, req.Qty)
	if err != nil {
		writeErr(w, err)
		return
	}
	h.invalidate(ctx, uid)
	writeJSON(w, http.StatusOK, v)
}

func (h *CartHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	itemID := chi.URLParam(r, "id")
	if uid == "" || itemID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing fields"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	v, err := h.Cart.RemoveItem(ctx, uid, itemID)
	if err != nil {
		writeErr(w, err)
		return
	}
	h.invalidate(ctx, uid)
	writeJSON(w, http.StatusOK, v)
}

func (h *CartHandler) clear(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing user"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Cart.Clear(ctx, uid); err != nil {
		writeErr(w, err)
		return
	}
	h.invalidate(ctx, uid)
	writeJSON(w, http.StatusOK, map[string]string{"message": "cart cleared"})
}

func (h *CartHandler) invalidate(ctx context.Context, uid string) {
	_ = h.Redis.Del(ctx, fmt.Sprintf(redisx.KeyCartView, uid)).Err()
}
