package store

import "time"

type User struct {
	ID    string
	Email string
	Name  string
}

// Product: available selalu turunan max(0, stock-reserved); dihitung ulang
// lewat inventory.DeriveAvailable di setiap mutasi stock/reserved, tidak
// pernah di-set lepas dari derivasi itu.
type Product struct {
	ID          string
	SKU         string
	Name        string
	Description string
	Category    string
	ImageURL    string
	PriceCents  int
	Stock       int
	Reserved    int
	Available   int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Cart struct {
	ID        string
	UserID    string
	CreatedAt time.Time
}

type CartItem struct {
	ID        string
	CartID    string
	ProductID string
	Qty       int
	CreatedAt time.Time
}

type Order struct {
	ID         string
	UserID     string
	Status     string
	TotalCents int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// OrderItem: snapshot harga saat pembelian; tidak pernah di-update.
type OrderItem struct {
	ID         string
	OrderID    string
	ProductID  string
	Qty        int
	PriceCents int
}
