// Package checkout: konversi cart -> order dalam SATU transaksi. Validasi
// ulang availability, deduct stock, snapshot harga, tulis order, kosongkan
// cart — commit semua atau tidak sama sekali.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/ariefcatur/go-shop-cart.git/internal/inventory"
	kafkax "github.com/ariefcatur/go-shop-cart.git/internal/kafka"
	"github.com/ariefcatur/go-shop-cart.git/internal/orders"
	"github.com/ariefcatur/go-shop-cart.git/internal/store"
)

var ErrEmptyCart = errors.New("cart is empty")

// OutOfStockError: satu atau lebih product kekurangan stok saat checkout.
// Details lengkap supaya caller bisa render per-product dan jadi payload
// event order.stock.rejected.
type OutOfStockError struct {
	Details []orders.StockRejectedDetail
}

func (e *OutOfStockError) Error() string {
	ids := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		ids = append(ids, fmt.Sprintf("%s (required %d, available %d)", d.ProductID, d.Required, d.Available))
	}
	return "insufficient stock: " + strings.Join(ids, ", ")
}

type Service struct {
	Store       store.Store
	Events      kafkax.Publisher // topic order.created; boleh nil
	Rejections  kafkax.Publisher // topic order.stock.rejected; boleh nil
	ServiceName string
}

// Convert: drain cart user jadi order PENDING.
//  1. load cart + items dalam satu transactional read
//  2. cart kosong -> EmptyCart
//  3. validasi ulang available >= qty per item terhadap state ledger SAAT INI,
//     di bawah row lock yang sama dengan reserve (bukan read basi)
//  4. deduct per item + snapshot harga product saat ini
//  5. total = sum(price * qty)
//  6. insert order PENDING + items
//  7. hapus semua cart item (container cart-nya tetap)
//  8. commit; gagal di langkah mana pun = rollback total
func (s *Service) Convert(ctx context.Context, userID string) (*orders.Record, error) {
	var rec *orders.Record
	err := s.Store.Within(ctx, func(tx store.Tx) error {
		ok, err := tx.UserExists(ctx, userID)
		if err != nil {
			return err
		}
		if !ok {
			return store.ErrUserNotFound
		}
		c, err := tx.CartByUser(ctx, userID)
		if errors.Is(err, store.ErrCartNotFound) {
			return ErrEmptyCart
		}
		if err != nil {
			return err
		}
		items, err := tx.CartItems(ctx, c.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrEmptyCart
		}

		// lock product ascending by id: urutan konsisten antar transaksi
		// multi-item, hindari deadlock
		sorted := append([]store.CartItem(nil), items...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].ProductID < sorted[j].ProductID })

		products := make(map[string]*store.Product, len(sorted))
		var rejects []orders.StockRejectedDetail
		for _, it := range sorted {
			p, err := tx.ProductForUpdate(ctx, it.ProductID)
			if err != nil {
				return err
			}
			products[p.ID] = p
			// reservasi milik item ini ikut terpakai di deduct; hanya hold
			// pihak lain yang mengurangi stok efektif — kalau tidak, cart
			// yang menahan seluruh sisa stok (available 0) mustahil checkout
			held := p.Reserved - it.Qty
			if held < 0 {
				held = 0
			}
			if avail := inventory.DeriveAvailable(p.Stock, held); avail < it.Qty {
				rejects = append(rejects, orders.StockRejectedDetail{
					ProductID: p.ID, Required: it.Qty, Available: avail,
				})
			}
		}
		if len(rejects) > 0 {
			return &OutOfStockError{Details: rejects}
		}

		orderID := uuid.NewString()
		orderItems := make([]store.OrderItem, 0, len(items))
		total := 0
		for _, it := range items {
			if err := inventory.Deduct(ctx, tx, it.ProductID, it.Qty); err != nil {
				return err
			}
			p := products[it.ProductID]
			orderItems = append(orderItems, store.OrderItem{
				ID:         uuid.NewString(),
				OrderID:    orderID,
				ProductID:  it.ProductID,
				Qty:        it.Qty,
				PriceCents: p.PriceCents, // harga dikunci saat pembelian
			})
			total += p.PriceCents * it.Qty
		}

		o := &store.Order{ID: orderID, UserID: userID, Status: string(orders.StatusPending), TotalCents: total}
		if err := tx.InsertOrder(ctx, o, orderItems); err != nil {
			return err
		}
		if err := tx.DeleteCartItems(ctx, c.ID); err != nil {
			return err
		}
		rec = &orders.Record{Order: *o, Items: orderItems}
		return nil
	})
	if err != nil {
		var oos *OutOfStockError
		if errors.As(err, &oos) {
			s.publishRejected(ctx, userID, oos.Details)
		}
		return nil, err
	}
	s.publishCreated(ctx, rec)
	return rec, nil
}

func (s *Service) publishCreated(ctx context.Context, rec *orders.Record) {
	if s.Events == nil {
		return
	}
	items := make([]orders.ItemPrice, 0, len(rec.Items))
	for _, it := range rec.Items {
		items = append(items, orders.ItemPrice{ProductID: it.ProductID, Qty: it.Qty, PriceCents: it.PriceCents})
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderCreated,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		TraceID:       orders.TraceFrom(ctx),
		CorrelationID: rec.Order.ID,
		Payload: kafkax.MustMarshal(orders.OrderCreatedPayload{
			OrderID:    rec.Order.ID,
			UserID:     rec.Order.UserID,
			Items:      items,
			TotalCents: rec.Order.TotalCents,
		}),
	}
	s.Events.Publish(orders.PartitionKey(rec.Order.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderCreated)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (s *Service) publishRejected(ctx context.Context, userID string, details []orders.StockRejectedDetail) {
	if s.Rejections == nil {
		return
	}
	ev := orders.Envelope{
		EventID:      uuid.NewString(),
		EventType:    orders.EventStockRejected,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     s.ServiceName,
		TraceID:      orders.TraceFrom(ctx),
		Payload: kafkax.MustMarshal(orders.StockRejectedPayload{
			UserID: userID, Reason: "OUT_OF_STOCK", Details: details,
		}),
	}
	s.Rejections.Publish([]byte(userID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventStockRejected)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
