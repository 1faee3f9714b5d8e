package checkout_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-shop-cart.git/internal/cart"
	"github.com/ariefcatur/go-shop-cart.git/internal/checkout"
	"github.com/ariefcatur/go-shop-cart.git/internal/orders"
	"github.com/ariefcatur/go-shop-cart.git/internal/store"
	"github.com/ariefcatur/go-shop-cart.git/internal/store/memstore"
)

type capturedEvent struct {
	key   []byte
	value []byte
}

type fakePublisher struct {
	mu     sync.Mutex
	events []capturedEvent
}

func (f *fakePublisher) Publish(key, value []byte, _ ...kafkago.Header) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, capturedEvent{key: key, value: value})
}

func (f *fakePublisher) last(t *testing.T) orders.Envelope {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.events)
	var env orders.Envelope
	require.NoError(t, json.Unmarshal(f.events[len(f.events)-1].value, &env))
	return env
}

func setup(t *testing.T) (*memstore.Store, *cart.Service, *checkout.Service, *fakePublisher, *fakePublisher) {
	t.Helper()
	st := memstore.New()
	st.PutUser(store.User{ID: "u1", Email: "u1@example.com", Name: "Udin"})
	st.PutProduct(store.Product{
		ID: "p1", SKU: "SKU-1", Name: "Keyboard", PriceCents: 2500,
		Stock: 10, Reserved: 0, Available: 10,
	})
	st.PutProduct(store.Product{
		ID: "p2", SKU: "SKU-2", Name: "Mouse", PriceCents: 1200,
		Stock: 3, Reserved: 0, Available: 3,
	})
	created := &fakePublisher{}
	rejected := &fakePublisher{}
	svc := &checkout.Service{Store: st, Events: created, Rejections: rejected, ServiceName: "test-api"}
	return st, &cart.Service{Store: st}, svc, created, rejected
}

// Skenario penuh: stock=10, add 3 -> available 7, update ke 5 -> available 5,
// convert -> stock 5, reserved 0, available 5, cart kosong, order PENDING
// dengan 1 item qty=5, total = 5 * harga.
func TestConvertScenario(t *testing.T) {
	ctx := orders.WithTrace(context.Background(), "req-abc123")
	st, carts, svc, created, _ := setup(t)

	v, err := carts.AddItem(ctx, "u1", "p1", 3)
	require.NoError(t, err)
	p, _ := st.GetProduct("p1")
	require.Equal(t, 7, p.Available)

	_, err = carts.UpdateItem(ctx, "u1", v.Items[0].ItemID, 5)
	require.NoError(t, err)
	p, _ = st.GetProduct("p1")
	require.Equal(t, 5, p.Available)

	rec, err := svc.Convert(ctx, "u1")
	require.NoError(t, err)

	p, _ = st.GetProduct("p1")
	assert.Equal(t, 5, p.Stock)
	assert.Equal(t, 0, p.Reserved)
	assert.Equal(t, 5, p.Available)

	assert.Equal(t, string(orders.StatusPending), rec.Order.Status)
	assert.Equal(t, 5*2500, rec.Order.TotalCents)
	require.Len(t, rec.Items, 1)
	assert.Equal(t, 5, rec.Items[0].Qty)
	assert.Equal(t, 2500, rec.Items[0].PriceCents)

	cv, err := carts.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, cv.Items) // cart di-drain, container tetap

	env := created.last(t)
	assert.Equal(t, orders.EventOrderCreated, env.EventType)
	assert.Equal(t, rec.Order.ID, env.CorrelationID)
	assert.Equal(t, "req-abc123", env.TraceID)
	var payload orders.OrderCreatedPayload
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, rec.Order.TotalCents, payload.TotalCents)
}

func TestConvertEmptyCart(t *testing.T) {
	ctx := context.Background()
	_, carts, svc, created, _ := setup(t)

	t.Run("NoCartAtAll", func(t *testing.T) {
		_, err := svc.Convert(ctx, "u1")
		assert.ErrorIs(t, err, checkout.ErrEmptyCart)
	})

	t.Run("DrainedCart", func(t *testing.T) {
		v, err := carts.AddItem(ctx, "u1", "p1", 1)
		require.NoError(t, err)
		_, err = carts.RemoveItem(ctx, "u1", v.Items[0].ItemID)
		require.NoError(t, err)
		_, err = svc.Convert(ctx, "u1")
		assert.ErrorIs(t, err, checkout.ErrEmptyCart)
	})

	assert.Empty(t, created.events)
}

// Cart yang menahan SELURUH sisa stok (available 0) tetap bisa checkout:
// reservasi milik item itu sendiri dikonsumsi deduct, bukan penghalang.
// Pemenang rebutan unit terakhir harus bisa membelinya.
func TestConvertConsumesOwnReservation(t *testing.T) {
	ctx := context.Background()
	st, carts, svc, created, rejected := setup(t)

	_, err := carts.AddItem(ctx, "u1", "p2", 3)
	require.NoError(t, err)
	p, _ := st.GetProduct("p2")
	require.Equal(t, 0, p.Available) // seluruh stok ditahan cart ini

	rec, err := svc.Convert(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3*1200, rec.Order.TotalCents)

	p, _ = st.GetProduct("p2")
	assert.Equal(t, 0, p.Stock)
	assert.Equal(t, 0, p.Reserved)
	assert.Equal(t, 0, p.Available)

	assert.Len(t, created.events, 1)
	assert.Empty(t, rejected.events)
}

func TestConvertUnknownUser(t *testing.T) {
	_, _, svc, _, _ := setup(t)
	_, err := svc.Convert(context.Background(), "ghost")
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}

// Validasi ulang di convert pakai state ledger saat ini: reservasi yang
// hilang (stok dikoreksi admin turun) terdeteksi dan seluruh operasi batal.
func TestConvertRevalidatesAgainstCurrentLedger(t *testing.T) {
	ctx := context.Background()
	st, carts, svc, created, rejected := setup(t)

	_, err := carts.AddItem(ctx, "u1", "p2", 3)
	require.NoError(t, err)

	// admin resync: stok p2 tinggal 1, reserved 3 -> available clamp 0
	p, _ := st.GetProduct("p2")
	p.Stock = 1
	p.Available = 0
	st.PutProduct(p)

	_, err = svc.Convert(ctx, "u1")
	var oos *checkout.OutOfStockError
	require.ErrorAs(t, err, &oos)
	require.Len(t, oos.Details, 1)
	assert.Equal(t, "p2", oos.Details[0].ProductID)
	assert.Equal(t, 3, oos.Details[0].Required)
	// hold milik sendiri tidak dihitung: yang benar-benar bisa dibeli = 1
	assert.Equal(t, 1, oos.Details[0].Available)

	// tidak ada order, cart utuh
	assert.Equal(t, 0, st.OrderCount())
	cv, err := carts.Get(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, cv.Items, 1)

	assert.Empty(t, created.events)
	env := rejected.last(t)
	assert.Equal(t, orders.EventStockRejected, env.EventType)
}

// Properti atomicity: gagal di deduct item kedua dari tiga -> tidak ada
// order, tidak ada stock yang berubah permanen, cart + reservasi utuh.
func TestConvertAtomicOnMidDeductFailure(t *testing.T) {
	ctx := context.Background()
	st, carts, svc, created, _ := setup(t)

	_, err := carts.AddItem(ctx, "u1", "p1", 2)
	require.NoError(t, err)
	_, err = carts.AddItem(ctx, "u1", "p2", 1)
	require.NoError(t, err)

	deducts := 0
	st.SetHook(func(op string) error {
		if op == "UpdateProductStock" {
			deducts++
			if deducts == 2 {
				return assert.AnError
			}
		}
		return nil
	})
	_, err = svc.Convert(ctx, "u1")
	require.Error(t, err)
	st.SetHook(nil)

	p1, _ := st.GetProduct("p1")
	p2, _ := st.GetProduct("p2")
	assert.Equal(t, 10, p1.Stock)
	assert.Equal(t, 2, p1.Reserved) // reservasi masih ada
	assert.Equal(t, 3, p2.Stock)
	assert.Equal(t, 1, p2.Reserved)

	assert.Equal(t, 0, st.OrderCount())
	cv, err := carts.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, cv.Items, 2)
	assert.Empty(t, created.events)
}

func TestConvertMultiItemTotals(t *testing.T) {
	ctx := context.Background()
	st, carts, svc, _, _ := setup(t)

	_, err := carts.AddItem(ctx, "u1", "p1", 2)
	require.NoError(t, err)
	_, err = carts.AddItem(ctx, "u1", "p2", 3)
	require.NoError(t, err)

	rec, err := svc.Convert(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2*2500+3*1200, rec.Order.TotalCents)
	require.Len(t, rec.Items, 2)

	p2, _ := st.GetProduct("p2")
	assert.Equal(t, 0, p2.Stock)
	assert.Equal(t, 0, p2.Reserved)
	assert.Equal(t, 0, p2.Available)
}
