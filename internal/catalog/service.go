// Package catalog: surface minimum product — create/get/list + resync stock
// administratif. Listing cuma read biasa, tidak ada risiko konsistensi.
package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/ariefcatur/go-shop-cart.git/internal/inventory"
	"github.com/ariefcatur/go-shop-cart.git/internal/store"
)

var ErrInvalidProduct = errors.New("invalid product")

type NewProduct struct {
	SKU         string `json:"sku"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	ImageURL    string `json:"image_url"`
	PriceCents  int    `json:"price_cents"`
	Stock       int    `json:"stock"`
}

type Service struct {
	Store store.Store
}

func (s *Service) Create(ctx context.Context, in NewProduct) (*store.Product, error) {
	if strings.TrimSpace(in.SKU) == "" || len(strings.TrimSpace(in.Name)) < 2 {
		return nil, ErrInvalidProduct
	}
	if in.PriceCents < 0 || in.Stock < 0 {
		return nil, ErrInvalidProduct
	}
	p := &store.Product{
		ID:          uuid.NewString(),
		SKU:         in.SKU,
		Name:        in.Name,
		Description: in.Description,
		Category:    in.Category,
		ImageURL:    in.ImageURL,
		PriceCents:  in.PriceCents,
		Stock:       in.Stock,
		Reserved:    0,
		Available:   inventory.DeriveAvailable(in.Stock, 0),
	}
	err := s.Store.Within(ctx, func(tx store.Tx) error {
		return tx.InsertProduct(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, productID string) (*store.Product, error) {
	var out *store.Product
	err := s.Store.Within(ctx, func(tx store.Tx) error {
		p, err := tx.Product(ctx, productID)
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

func (s *Service) List(ctx context.Context) ([]store.Product, error) {
	var out []store.Product
	err := s.Store.Within(ctx, func(tx store.Tx) error {
		ps, err := tx.ListProducts(ctx)
		if err != nil {
			return err
		}
		out = ps
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AdjustStock: delegasi ke ledger; reserved tidak berubah, available
// dihitung ulang.
func (s *Service) AdjustStock(ctx context.Context, productID string, newStock int) (*store.Product, error) {
	l := &inventory.Ledger{Store: s.Store}
	return l.AdjustStock(ctx, productID, newStock)
}
