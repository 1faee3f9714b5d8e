package store

import (
	"context"
	"errors"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrCartNotFound     = errors.New("cart not found")
	ErrCartItemNotFound = errors.New("cart item not found")
	ErrOrderNotFound    = errors.New("order not found")

	// ErrTxAborted: store gagal commit; semua perubahan dalam unit of work batal.
	ErrTxAborted = errors.New("transaction aborted")
)

// Store menjalankan fn di dalam satu unit of work: commit kalau fn return nil,
// rollback total kalau error. Semua operasi multi-row (clear, checkout) dan
// read-modify-write ledger WAJIB lewat sini.
type Store interface {
	Within(ctx context.Context, fn func(tx Tx) error) error
}

// Tx adalah operasi yang tersedia di dalam satu unit of work.
// ProductForUpdate mengunci row product (FOR UPDATE di Postgres) supaya dua
// reservasi konkuren atas product yang sama terserialisasi.
type Tx interface {
	UserExists(ctx context.Context, userID string) (bool, error)

	InsertProduct(ctx context.Context, p *Product) error
	Product(ctx context.Context, productID string) (*Product, error)
	ProductForUpdate(ctx context.Context, productID string) (*Product, error)
	ListProducts(ctx context.Context) ([]Product, error)
	UpdateProductStock(ctx context.Context, productID string, stock, reserved, available int) error

	CartByUser(ctx context.Context, userID string) (*Cart, error)
	CreateCart(ctx context.Context, userID string) (*Cart, error)
	CartItems(ctx context.Context, cartID string) ([]CartItem, error)
	CartItem(ctx context.Context, cartID, itemID string) (*CartItem, error)
	CartItemByProduct(ctx context.Context, cartID, productID string) (*CartItem, error)
	InsertCartItem(ctx context.Context, it *CartItem) error
	UpdateCartItemQty(ctx context.Context, itemID string, qty int) error
	DeleteCartItem(ctx context.Context, itemID string) error
	DeleteCartItems(ctx context.Context, cartID string) error

	InsertOrder(ctx context.Context, o *Order, items []OrderItem) error
	OrderByID(ctx context.Context, orderID string) (*Order, error)
	OrderForUser(ctx context.Context, userID, orderID string) (*Order, error)
	OrdersByUser(ctx context.Context, userID string) ([]Order, error)
	OrderItems(ctx context.Context, orderID string) ([]OrderItem, error)
	UpdateOrderStatus(ctx context.Context, orderID, status string) error
	DeleteOrder(ctx context.Context, orderID string) error
}
