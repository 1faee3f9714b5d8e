package orders_test

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

type fakePublisher struct {
	mu     sync.Mutex
	values [][]byte
}

func (f *fakePublisher) Publish(_, value []byte, _ ...kafkago.Header) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values = append(f.values, value)
}

// setup: seed user + product, isi cart, convert jadi satu order PENDING.
func setup(t *testing.T) (*memstore.Store, *orders.Service, *orders.Record, *fakePublisher) {
	t.Helper()
	st := memstore.New()
	st.PutUser(store.User{ID: "u1", Email: "u1@example.com", Name: "Udin"})
	st.PutProduct(store.Product{
		ID: "p1", SKU: "SKU-1", Name: "Keyboard", PriceCents: 2500,
		Stock: 10, Reserved: 0, Available: 10,
	})
	carts := &cart.Service{Store: st}
	_, err := carts.AddItem(context.Background(), "u1", "p1", 2)
	require.NoError(t, err)
	rec, err := (&checkout.Service{Store: st}).Convert(context.Background(), "u1")
	require.NoError(t, err)

	pub := &fakePublisher{}
	return st, &orders.Service{Store: st, Events: pub, ServiceName: "test-api"}, rec, pub
}

func TestListAndGet(t *testing.T) {
	ctx := context.Background()
	_, svc, rec, _ := setup(t)

	recs, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, rec.Order.ID, recs[0].Order.ID)
	require.Len(t, recs[0].Items, 1)

	got, err := svc.Get(ctx, "u1", rec.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.Order.TotalCents, got.Order.TotalCents)

	_, err = svc.Get(ctx, "u1", "nope")
	assert.ErrorIs(t, err, store.ErrOrderNotFound)

	_, err = svc.List(ctx, "ghost")
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("ValidTransitionChain", func(t *testing.T) {
		_, svc, rec, pub := setup(t)
		tctx := orders.WithTrace(ctx, "req-xyz")
		for _, next := range []orders.Status{orders.StatusProcessing, orders.StatusShipped, orders.StatusDelivered} {
			got, err := svc.UpdateStatus(tctx, rec.Order.ID, string(next))
			require.NoError(t, err)
			assert.Equal(t, string(next), got.Order.Status)
		}
		// tiap transisi publish satu event status.changed
		require.Len(t, pub.values, 3)
		var env orders.Envelope
		require.NoError(t, json.Unmarshal(pub.values[0], &env))
		assert.Equal(t, orders.EventStatusChanged, env.EventType)
		assert.Equal(t, "req-xyz", env.TraceID)
		var p orders.StatusChangedPayload
		require.NoError(t, json.Unmarshal(env.Payload, &p))
		assert.Equal(t, "PENDING", p.From)
		assert.Equal(t, "PROCESSING", p.To)
	})

	t.Run("InvalidTransition", func(t *testing.T) {
		_, svc, rec, pub := setup(t)
		_, err := svc.UpdateStatus(ctx, rec.Order.ID, string(orders.StatusDelivered))
		var bad *orders.InvalidTransitionError
		require.ErrorAs(t, err, &bad)
		assert.Equal(t, orders.StatusPending, bad.From)
		assert.Equal(t, orders.StatusDelivered, bad.To)
		assert.Empty(t, pub.values)
	})

	t.Run("UnknownStatusRejected", func(t *testing.T) {
		_, svc, rec, _ := setup(t)
		_, err := svc.UpdateStatus(ctx, rec.Order.ID, "")
		assert.ErrorIs(t, err, orders.ErrInvalidStatus)
		_, err = svc.UpdateStatus(ctx, rec.Order.ID, "PAID")
		assert.ErrorIs(t, err, orders.ErrInvalidStatus)
	})

	t.Run("UnknownOrder", func(t *testing.T) {
		_, svc, _, _ := setup(t)
		_, err := svc.UpdateStatus(ctx, "nope", string(orders.StatusProcessing))
		assert.ErrorIs(t, err, store.ErrOrderNotFound)
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("PurgesRecordWithoutRestoringStock", func(t *testing.T) {
		st, svc, rec, _ := setup(t)
		before, _ := st.GetProduct("p1")

		require.NoError(t, svc.Delete(ctx, "u1", rec.Order.ID))

		_, err := svc.Get(ctx, "u1", rec.Order.ID)
		assert.ErrorIs(t, err, store.ErrOrderNotFound)

		// purge record, BUKAN refund: ledger tidak berubah
		after, _ := st.GetProduct("p1")
		assert.Equal(t, before.Stock, after.Stock)
		assert.Equal(t, before.Reserved, after.Reserved)
		assert.Equal(t, before.Available, after.Available)
	})

	t.Run("UnknownOrder", func(t *testing.T) {
		_, svc, _, _ := setup(t)
		assert.ErrorIs(t, svc.Delete(ctx, "u1", "nope"), store.ErrOrderNotFound)
	})

	t.Run("OtherUsersOrderInvisible", func(t *testing.T) {
		st, svc, rec, _ := setup(t)
		st.PutUser(store.User{ID: "u2"})
		assert.ErrorIs(t, svc.Delete(ctx, "u2", rec.Order.ID), store.ErrOrderNotFound)
	})
}
