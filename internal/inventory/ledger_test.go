package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-shop-cart.git/internal/inventory"
	"github.com/ariefcatur/go-shop-cart.git/internal/store"
	"github.com/ariefcatur/go-shop-cart.git/internal/store/memstore"
)

func TestDeriveAvailable(t *testing.T) {
	assert.Equal(t, 10, inventory.DeriveAvailable(10, 0))
	assert.Equal(t, 7, inventory.DeriveAvailable(10, 3))
	assert.Equal(t, 0, inventory.DeriveAvailable(10, 10))
	// toleransi transient reserved > stock: clamp ke 0, jangan negatif
	assert.Equal(t, 0, inventory.DeriveAvailable(3, 5))
	assert.Equal(t, 0, inventory.DeriveAvailable(0, 0))
}

func setup(t *testing.T, stock, reserved int) (*memstore.Store, *inventory.Ledger) {
	t.Helper()
	st := memstore.New()
	st.PutProduct(store.Product{
		ID: "p1", SKU: "SKU-1", Name: "Keyboard", PriceCents: 2500,
		Stock: stock, Reserved: reserved,
		Available: inventory.DeriveAvailable(stock, reserved),
	})
	return st, &inventory.Ledger{Store: st}
}

func TestReserve(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		st, l := setup(t, 10, 0)
		require.NoError(t, l.Reserve(ctx, "p1", 3))
		p, _ := st.GetProduct("p1")
		assert.Equal(t, 10, p.Stock)
		assert.Equal(t, 3, p.Reserved)
		assert.Equal(t, 7, p.Available)
	})

	t.Run("ExactlyAvailable", func(t *testing.T) {
		st, l := setup(t, 5, 2)
		require.NoError(t, l.Reserve(ctx, "p1", 3))
		p, _ := st.GetProduct("p1")
		assert.Equal(t, 0, p.Available)
	})

	t.Run("Insufficient", func(t *testing.T) {
		st, l := setup(t, 5, 4)
		err := l.Reserve(ctx, "p1", 2)
		var ise *inventory.InsufficientStockError
		require.ErrorAs(t, err, &ise)
		assert.Equal(t, "p1", ise.ProductID)
		assert.Equal(t, 2, ise.Requested)
		assert.Equal(t, 1, ise.Available)
		// gagal = tidak ada perubahan
		p, _ := st.GetProduct("p1")
		assert.Equal(t, 4, p.Reserved)
	})

	t.Run("InvalidQty", func(t *testing.T) {
		_, l := setup(t, 5, 0)
		assert.ErrorIs(t, l.Reserve(ctx, "p1", 0), inventory.ErrInvalidQuantity)
		assert.ErrorIs(t, l.Reserve(ctx, "p1", -1), inventory.ErrInvalidQuantity)
	})

	t.Run("UnknownProduct", func(t *testing.T) {
		_, l := setup(t, 5, 0)
		assert.ErrorIs(t, l.Reserve(ctx, "nope", 1), store.ErrProductNotFound)
	})
}

func TestRelease(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		st, l := setup(t, 10, 4)
		require.NoError(t, l.Release(ctx, "p1", 3))
		p, _ := st.GetProduct("p1")
		assert.Equal(t, 1, p.Reserved)
		assert.Equal(t, 9, p.Available)
	})

	t.Run("ClampsAtZero", func(t *testing.T) {
		// release lebih dari yang ditahan (double release) tidak underflow
		st, l := setup(t, 10, 2)
		require.NoError(t, l.Release(ctx, "p1", 5))
		p, _ := st.GetProduct("p1")
		assert.Equal(t, 0, p.Reserved)
		assert.Equal(t, 10, p.Available)
	})
}

func TestDeduct(t *testing.T) {
	ctx := context.Background()

	t.Run("ConsumesReservation", func(t *testing.T) {
		st, l := setup(t, 10, 4)
		require.NoError(t, l.Deduct(ctx, "p1", 4))
		p, _ := st.GetProduct("p1")
		assert.Equal(t, 6, p.Stock)
		assert.Equal(t, 0, p.Reserved)
		assert.Equal(t, 6, p.Available)
	})

	t.Run("ReservedFloorsAtZero", func(t *testing.T) {
		st, l := setup(t, 10, 1)
		require.NoError(t, l.Deduct(ctx, "p1", 3))
		p, _ := st.GetProduct("p1")
		assert.Equal(t, 7, p.Stock)
		assert.Equal(t, 0, p.Reserved)
	})

	t.Run("CriticalFault", func(t *testing.T) {
		st, l := setup(t, 2, 2)
		err := l.Deduct(ctx, "p1", 3)
		var fault *inventory.CriticalFaultError
		require.ErrorAs(t, err, &fault)
		assert.Equal(t, "p1", fault.ProductID)
		// state tidak berubah
		p, _ := st.GetProduct("p1")
		assert.Equal(t, 2, p.Stock)
		assert.Equal(t, 2, p.Reserved)
	})
}

func TestAdjustStock(t *testing.T) {
	ctx := context.Background()

	t.Run("RecomputesAgainstReserved", func(t *testing.T) {
		st, l := setup(t, 10, 4)
		p, err := l.AdjustStock(ctx, "p1", 6)
		require.NoError(t, err)
		assert.Equal(t, 6, p.Stock)
		assert.Equal(t, 4, p.Reserved) // reserved tidak disentuh
		assert.Equal(t, 2, p.Available)
		got, _ := st.GetProduct("p1")
		assert.Equal(t, 6, got.Stock)
		assert.Equal(t, 2, got.Available)
	})

	t.Run("BelowReservedClampsAvailable", func(t *testing.T) {
		_, l := setup(t, 10, 4)
		p, err := l.AdjustStock(ctx, "p1", 2)
		require.NoError(t, err)
		assert.Equal(t, 0, p.Available)
	})

	t.Run("RejectsNegative", func(t *testing.T) {
		_, l := setup(t, 10, 0)
		_, err := l.AdjustStock(ctx, "p1", -1)
		assert.ErrorIs(t, err, inventory.ErrInvalidQuantity)
	})
}

// Dua reservasi konkuren atas product stock=1: tepat satu sukses, satu
// InsufficientStock, tidak pernah dua-duanya lolos.
func TestReserveConcurrent(t *testing.T) {
	ctx := context.Background()
	st, l := setup(t, 1, 0)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = l.Reserve(ctx, "p1", 1)
		}(i)
	}
	wg.Wait()

	var okCount, insufficientCount int
	for _, err := range results {
		var ise *inventory.InsufficientStockError
		switch {
		case err == nil:
			okCount++
		case errors.As(err, &ise):
			insufficientCount++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, okCount)
	assert.Equal(t, 1, insufficientCount)

	p, _ := st.GetProduct("p1")
	assert.Equal(t, 1, p.Reserved)
	assert.Equal(t, 0, p.Available)
}
