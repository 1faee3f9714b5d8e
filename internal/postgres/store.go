package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ariefcatur/go-shop-cart.git/internal/store"
)

// Store implementasi store.Store di atas pgxpool. Within = satu transaksi
// pgx; commit gagal dibungkus store.ErrTxAborted.
type Store struct {
	Pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store { return &Store{Pool: pool} }

func (s *Store) Within(ctx context.Context, fn func(tx store.Tx) error) error {
	pgtx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("%w: begin: %v", store.ErrTxAborted, err)
	}
	defer func() { _ = pgtx.Rollback(ctx) }()

	if err := fn(&tx{tx: pgtx}); err != nil {
		return err
	}
	if err := pgtx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %v", store.ErrTxAborted, err)
	}
	return nil
}
