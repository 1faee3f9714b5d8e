// Package cart: working set (product, qty) per user. Setiap mutasi item
// konsultasi ke inventory ledger di dalam unit of work yang sama, jadi
// reservasi dan perubahan item commit/rollback bareng.
package cart

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"

	"github.com/ariefcatur/go-shop-cart.git/internal/inventory"
	"github.com/ariefcatur/go-shop-cart.git/internal/store"
)

type Service struct {
	Store store.Store
}

// View: cart yang sudah dimaterialisasi utk response; harga/image/available
// diambil dari product saat ini, TotalCents dihitung dari situ.
type View struct {
	Items      []ViewItem `json:"items"`
	TotalCents int        `json:"total_cents"`
}

type ViewItem struct {
	ItemID     string `json:"item_id"`
	ProductID  string `json:"product_id"`
	Name       string `json:"name"`
	ImageURL   string `json:"image_url"`
	PriceCents int    `json:"price_cents"`
	Qty        int    `json:"qty"`
	Available  int    `json:"available"`
}

// AddItem: reserve hanya DELTA qty (bukan total baru) supaya unit yang sudah
// di-reserve sebelumnya tidak ke-reserve dua kali. Cart dibuat lazy di add
// pertama. Kalau reserve gagal, transaksi batal dan cart tidak berubah.
func (s *Service) AddItem(ctx context.Context, userID, productID string, qty int) (*View, error) {
	if qty <= 0 {
		return nil, inventory.ErrInvalidQuantity
	}
	var view *View
	err := s.Store.Within(ctx, func(tx store.Tx) error {
		if err := requireUser(ctx, tx, userID); err != nil {
			return err
		}
		if _, err := tx.Product(ctx, productID); err != nil {
			return err
		}
		c, err := tx.CartByUser(ctx, userID)
		if errors.Is(err, store.ErrCartNotFound) {
			c, err = tx.CreateCart(ctx, userID)
		}
		if err != nil {
			return err
		}

		if err := inventory.Reserve(ctx, tx, productID, qty); err != nil {
			return err
		}

		it, err := tx.CartItemByProduct(ctx, c.ID, productID)
		switch {
		case err == nil:
			if err := tx.UpdateCartItemQty(ctx, it.ID, it.Qty+qty); err != nil {
				return err
			}
		case errors.Is(err, store.ErrCartItemNotFound):
			it = &store.CartItem{ID: uuid.NewString(), CartID: c.ID, ProductID: productID, Qty: qty}
			if err := tx.InsertCartItem(ctx, it); err != nil {
				return err
			}
		default:
			return err
		}

		view, err = materialize(ctx, tx, c.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// UpdateItem: set qty absolut. newQty <= 0 = remove. Delta positif di-reserve,
// delta negatif di-release; qty item baru ditulis setelah ledger sukses.
func (s *Service) UpdateItem(ctx context.Context, userID, itemID string, newQty int) (*View, error) {
	if newQty <= 0 {
		return s.RemoveItem(ctx, userID, itemID)
	}
	var view *View
	err := s.Store.Within(ctx, func(tx store.Tx) error {
		c, it, err := findItem(ctx, tx, userID, itemID)
		if err != nil {
			return err
		}
		switch delta := newQty - it.Qty; {
		case delta > 0:
			if err := inventory.Reserve(ctx, tx, it.ProductID, delta); err != nil {
				return err
			}
		case delta < 0:
			if err := inventory.Release(ctx, tx, it.ProductID, -delta); err != nil {
				return err
			}
		}
		if err := tx.UpdateCartItemQty(ctx, it.ID, newQty); err != nil {
			return err
		}
		view, err = materialize(ctx, tx, c.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// RemoveItem: release seluruh qty yang ditahan item lalu hapus itemnya.
func (s *Service) RemoveItem(ctx context.Context, userID, itemID string) (*View, error) {
	var view *View
	err := s.Store.Within(ctx, func(tx store.Tx) error {
		c, it, err := findItem(ctx, tx, userID, itemID)
		if err != nil {
			return err
		}
		if err := inventory.Release(ctx, tx, it.ProductID, it.Qty); err != nil {
			return err
		}
		if err := tx.DeleteCartItem(ctx, it.ID); err != nil {
			return err
		}
		view, err = materialize(ctx, tx, c.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// Clear: release semua item lalu hapus semuanya, atomik — tidak boleh ada
// state sebagian-released kalau gagal di tengah.
func (s *Service) Clear(ctx context.Context, userID string) error {
	return s.Store.Within(ctx, func(tx store.Tx) error {
		if err := requireUser(ctx, tx, userID); err != nil {
			return err
		}
		c, err := tx.CartByUser(ctx, userID)
		if errors.Is(err, store.ErrCartNotFound) {
			return nil // belum pernah punya cart, tidak ada yang di-clear
		}
		if err != nil {
			return err
		}
		items, err := tx.CartItems(ctx, c.ID)
		if err != nil {
			return err
		}
		// lock order konsisten dengan checkout: ascending product id
		sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })
		for _, it := range items {
			if err := inventory.Release(ctx, tx, it.ProductID, it.Qty); err != nil {
				return err
			}
		}
		return tx.DeleteCartItems(ctx, c.ID)
	})
}

// Get: view cart user. User tanpa cart dapat shape kosong, bukan error.
func (s *Service) Get(ctx context.Context, userID string) (*View, error) {
	var view *View
	err := s.Store.Within(ctx, func(tx store.Tx) error {
		if err := requireUser(ctx, tx, userID); err != nil {
			return err
		}
		c, err := tx.CartByUser(ctx, userID)
		if errors.Is(err, store.ErrCartNotFound) {
			view = &View{Items: []ViewItem{}}
			return nil
		}
		if err != nil {
			return err
		}
		view, err = materialize(ctx, tx, c.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func requireUser(ctx context.Context, tx store.Tx, userID string) error {
	ok, err := tx.UserExists(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return store.ErrUserNotFound
	}
	return nil
}

func findItem(ctx context.Context, tx store.Tx, userID, itemID string) (*store.Cart, *store.CartItem, error) {
	if err := requireUser(ctx, tx, userID); err != nil {
		return nil, nil, err
	}
	c, err := tx.CartByUser(ctx, userID)
	if errors.Is(err, store.ErrCartNotFound) {
		return nil, nil, store.ErrCartItemNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	it, err := tx.CartItem(ctx, c.ID, itemID)
	if err != nil {
		return nil, nil, err
	}
	return c, it, nil
}

func materialize(ctx context.Context, tx store.Tx, cartID string) (*View, error) {
	items, err := tx.CartItems(ctx, cartID)
	if err != nil {
		return nil, err
	}
	v := &View{Items: make([]ViewItem, 0, len(items))}
	for _, it := range items {
		p, err := tx.Product(ctx, it.ProductID)
		if err != nil {
			return nil, err
		}
		v.Items = append(v.Items, ViewItem{
			ItemID:     it.ID,
			ProductID:  p.ID,
			Name:       p.Name,
			ImageURL:   p.ImageURL,
			PriceCents: p.PriceCents,
			Qty:        it.Qty,
			Available:  p.Available,
		})
		v.TotalCents += p.PriceCents * it.Qty
	}
	return v, nil
}
