package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ariefcatur/go-shop-cart.git/internal/catalog"
	"github.com/ariefcatur/go-shop-cart.git/internal/checkout"
	"github.com/ariefcatur/go-shop-cart.git/internal/inventory"
	"github.com/ariefcatur/go-shop-cart.git/internal/orders"
	"github.com/ariefcatur/go-shop-cart.git/internal/store"
)

func NewRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger)
	r.Use(middleware.Timeout(15 * time.Second))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

// userID datang dari layer auth di depan (di luar scope); di sini cuma header.
func userID(r *http.Request) string { return r.Header.Get("X-User-Id") }

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr memetakan taksonomi error domain ke status HTTP. Error selalu
// sampai ke caller dengan konteks; tidak ada yang ditelan diam-diam.
func writeErr(w http.ResponseWriter, err error) {
	var (
		insufficient *inventory.InsufficientStockError
		outOfStock   *checkout.OutOfStockError
		badMove      *orders.InvalidTransitionError
		fault        *inventory.CriticalFaultError
	)
	switch {
	case errors.Is(err, store.ErrUserNotFound),
		errors.Is(err, store.ErrProductNotFound),
		errors.Is(err, store.ErrCartNotFound),
		errors.Is(err, store.ErrCartItemNotFound),
		errors.Is(err, store.ErrOrderNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.As(err, &insufficient):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":      "insufficient stock",
			"product_id": insufficient.ProductID,
			"requested":  insufficient.Requested,
			"available":  insufficient.Available,
		})
	case errors.As(err, &outOfStock):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":   "insufficient stock",
			"details": outOfStock.Details,
		})
	case errors.As(err, &badMove):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, inventory.ErrInvalidQuantity),
		errors.Is(err, orders.ErrInvalidStatus),
		errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, catalog.ErrInvalidProduct):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.As(err, &fault):
		// invariant bocor: 500 + sudah di-log di ledger
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "inventory fault"})
	case errors.Is(err, store.ErrTxAborted):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}
