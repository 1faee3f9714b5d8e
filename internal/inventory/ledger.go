package inventory

import (
	"context"
	"log"

	"github.com/ariefcatur/go-shop-cart.git/internal/store"
)

// DeriveAvailable: satu-satunya definisi available. Dipanggil di setiap
// mutasi stock/reserved sebelum persist, tidak pernah di-cache terpisah.
func DeriveAvailable(stock, reserved int) int {
	if a := stock - reserved; a > 0 {
		return a
	}
	return 0
}

// Reserve: tahan qty unit untuk product di dalam tx pemanggil.
// Gagal InsufficientStock kalau available < qty; product row sudah terkunci
// (FOR UPDATE) selama read-modify-write.
func Reserve(ctx context.Context, tx store.Tx, productID string, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	p, err := tx.ProductForUpdate(ctx, productID)
	if err != nil {
		return err
	}
	if avail := DeriveAvailable(p.Stock, p.Reserved); avail < qty {
		return &InsufficientStockError{ProductID: productID, Requested: qty, Available: avail}
	}
	reserved := p.Reserved + qty
	return tx.UpdateProductStock(ctx, productID, p.Stock, reserved, DeriveAvailable(p.Stock, reserved))
}

// Release: lepas qty unit reservasi; reserved di-floor ke 0 supaya
// double-release tidak bikin underflow.
func Release(ctx context.Context, tx store.Tx, productID string, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	p, err := tx.ProductForUpdate(ctx, productID)
	if err != nil {
		return err
	}
	reserved := p.Reserved - qty
	if reserved < 0 {
		reserved = 0
	}
	return tx.UpdateProductStock(ctx, productID, p.Stock, reserved, DeriveAvailable(p.Stock, reserved))
}

// Deduct: potong stock permanen (reservasi terpakai saat checkout).
// Stock tidak boleh negatif; kalau sampai minta lebih dari stock berarti ada
// invariant yang sudah bocor di hulu -> CriticalFault, bukan user error.
func Deduct(ctx context.Context, tx store.Tx, productID string, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	p, err := tx.ProductForUpdate(ctx, productID)
	if err != nil {
		return err
	}
	if p.Stock-qty < 0 {
		fault := &CriticalFaultError{ProductID: productID, Op: "deduct", Stock: p.Stock, Reserved: p.Reserved, Qty: qty}
		log.Printf("INVENTORY FAULT: %v", fault)
		return fault
	}
	stock := p.Stock - qty
	reserved := p.Reserved - qty
	if reserved < 0 {
		reserved = 0
	}
	return tx.UpdateProductStock(ctx, productID, stock, reserved, DeriveAvailable(stock, reserved))
}

// AdjustStock: resync administratif total stock; reserved tidak disentuh,
// available dihitung ulang terhadap reserved yang ada.
func AdjustStock(ctx context.Context, tx store.Tx, productID string, newStock int) (*store.Product, error) {
	if newStock < 0 {
		return nil, ErrInvalidQuantity
	}
	p, err := tx.ProductForUpdate(ctx, productID)
	if err != nil {
		return nil, err
	}
	p.Stock = newStock
	p.Available = DeriveAvailable(p.Stock, p.Reserved)
	if err := tx.UpdateProductStock(ctx, productID, p.Stock, p.Reserved, p.Available); err != nil {
		return nil, err
	}
	return p, nil
}

// Ledger membungkus tiap operasi dalam unit of work sendiri, untuk pemanggil
// yang tidak sedang berada di dalam transaksi lebih besar (mis. admin resync).
type Ledger struct {
	Store store.Store
}

func (l *Ledger) Reserve(ctx context.Context, productID string, qty int) error {
	return l.Store.Within(ctx, func(tx store.Tx) error {
		return Reserve(ctx, tx, productID, qty)
	})
}

func (l *Ledger) Release(ctx context.Context, productID string, qty int) error {
	return l.Store.Within(ctx, func(tx store.Tx) error {
		return Release(ctx, tx, productID, qty)
	})
}

func (l *Ledger) Deduct(ctx context.Context, productID string, qty int) error {
	return l.Store.Within(ctx, func(tx store.Tx) error {
		return Deduct(ctx, tx, productID, qty)
	})
}

func (l *Ledger) AdjustStock(ctx context.Context, productID string, newStock int) (*store.Product, error) {
	var out *store.Product
	err := l.Store.Within(ctx, func(tx store.Tx) error {
		p, err := AdjustStock(ctx, tx, productID, newStock)
		if err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
