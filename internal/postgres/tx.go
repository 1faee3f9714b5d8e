package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/ariefcatur/go-shop-cart.git/internal/store"
)

type tx struct {
	tx pgx.Tx
}

const productCols = `id, sku, name, description, category, image_url,
       price_cents, stock, reserved, available, created_at, updated_at`

func scanProduct(row pgx.Row) (*store.Product, error) {
	var p store.Product
	err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.Description, &p.Category, &p.ImageURL,
		&p.PriceCents, &p.Stock, &p.Reserved, &p.Available, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (t *tx) UserExists(ctx context.Context, userID string) (bool, error) {
	var ok bool
	err := t.tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id=$1)`, userID).Scan(&ok)
	return ok, err
}

func (t *tx) InsertProduct(ctx context.Context, p *store.Product) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO products(id, sku, name, description, category, image_url,
		                     price_cents, stock, reserved, available)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		p.ID, p.SKU, p.Name, p.Description, p.Category, p.ImageURL,
		p.PriceCents, p.Stock, p.Reserved, p.Available)
	return err
}

func (t *tx) Product(ctx context.Context, productID string) (*store.Product, error) {
	return scanProduct(t.tx.QueryRow(ctx, `SELECT `+productCols+` FROM products WHERE id=$1`, productID))
}

// ProductForUpdate kunci row product sampai transaksi selesai; semua
// read-modify-write stock/reserved lewat sini.
func (t *tx) ProductForUpdate(ctx context.Context, productID string) (*store.Product, error) {
	return scanProduct(t.tx.QueryRow(ctx, `SELECT `+productCols+` FROM products WHERE id=$1 FOR UPDATE`, productID))
}

func (t *tx) ListProducts(ctx context.Context) ([]store.Product, error) {
	rows, err := t.tx.Query(ctx, `SELECT `+productCols+` FROM products ORDER BY sku`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Product
	for rows.Next() {
		var p store.Product
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.Description, &p.Category, &p.ImageURL,
			&p.PriceCents, &p.Stock, &p.Reserved, &p.Available, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (t *tx) UpdateProductStock(ctx context.Context, productID string, stock, reserved, available int) error {
	ct, err := t.tx.Exec(ctx, `
		UPDATE products SET stock=$2, reserved=$3, available=$4, updated_at=now()
		WHERE id=$1`, productID, stock, reserved, available)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return store.ErrProductNotFound
	}
	return nil
}

func (t *tx) CartByUser(ctx context.Context, userID string) (*store.Cart, error) {
	var c store.Cart
	err := t.tx.QueryRow(ctx, `SELECT id, user_id, created_at FROM carts WHERE user_id=$1`, userID).
		Scan(&c.ID, &c.UserID, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrCartNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (t *tx) CreateCart(ctx context.Context, userID string) (*store.Cart, error) {
	var c store.Cart
	err := t.tx.QueryRow(ctx, `
		INSERT INTO carts(id, user_id) VALUES (gen_random_uuid(), $1)
		RETURNING id, user_id, created_at`, userID).
		Scan(&c.ID, &c.UserID, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (t *tx) CartItems(ctx context.Context, cartID string) ([]store.CartItem, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT id, cart_id, product_id, qty, created_at
		FROM cart_items WHERE cart_id=$1 ORDER BY created_at`, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.CartItem
	for rows.Next() {
		var it store.CartItem
		if err := rows.Scan(&it.ID, &it.CartID, &it.ProductID, &it.Qty, &it.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (t *tx) CartItem(ctx context.Context, cartID, itemID string) (*store.CartItem, error) {
	var it store.CartItem
	err := t.tx.QueryRow(ctx, `
		SELECT id, cart_id, product_id, qty, created_at
		FROM cart_items WHERE id=$1 AND cart_id=$2`, itemID, cartID).
		Scan(&it.ID, &it.CartID, &it.ProductID, &it.Qty, &it.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrCartItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (t *tx) CartItemByProduct(ctx context.Context, cartID, productID string) (*store.CartItem, error) {
	var it store.CartItem
	err := t.tx.QueryRow(ctx, `
		SELECT id, cart_id, product_id, qty, created_at
		FROM cart_items WHERE cart_id=$1 AND product_id=$2`, cartID, productID).
		Scan(&it.ID, &it.CartID, &it.ProductID, &it.Qty, &it.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrCartItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (t *tx) InsertCartItem(ctx context.Context, it *store.CartItem) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO cart_items(id, cart_id, product_id, qty)
		VALUES ($1,$2,$3,$4)`, it.ID, it.CartID, it.ProductID, it.Qty)
	return err
}

func (t *tx) UpdateCartItemQty(ctx context.Context, itemID string, qty int) error {
	ct, err := t.tx.Exec(ctx, `UPDATE cart_items SET qty=$2 WHERE id=$1`, itemID, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return store.ErrCartItemNotFound
	}
	return nil
}

func (t *tx) DeleteCartItem(ctx context.Context, itemID string) error {
	ct, err := t.tx.Exec(ctx, `DELETE FROM cart_items WHERE id=$1`, itemID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return store.ErrCartItemNotFound
	}
	return nil
}

func (t *tx) DeleteCartItems(ctx context.Context, cartID string) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id=$1`, cartID)
	return err
}

func (t *tx) InsertOrder(ctx context.Context, o *store.Order, items []store.OrderItem) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO orders(id, user_id, status, total_cents)
		VALUES ($1,$2,$3,$4)`, o.ID, o.UserID, o.Status, o.TotalCents)
	if err != nil {
		return err
	}
	for _, it := range items {
		if _, err := t.tx.Exec(ctx, `
			INSERT INTO order_items(id, order_id, product_id, qty, price_cents)
			VALUES ($1,$2,$3,$4,$5)`,
			it.ID, it.OrderID, it.ProductID, it.Qty, it.PriceCents); err != nil {
			return err
		}
	}
	return nil
}

func scanOrder(row pgx.Row) (*store.Order, error) {
	var o store.Order
	err := row.Scan(&o.ID, &o.UserID, &o.Status, &o.TotalCents, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (t *tx) OrderByID(ctx context.Context, orderID string) (*store.Order, error) {
	return scanOrder(t.tx.QueryRow(ctx, `
		SELECT id, user_id, status, total_cents, created_at, updated_at
		FROM orders WHERE id=$1 FOR UPDATE`, orderID))
}

func (t *tx) OrderForUser(ctx context.Context, userID, orderID string) (*store.Order, error) {
	return scanOrder(t.tx.QueryRow(ctx, `
		SELECT id, user_id, status, total_cents, created_at, updated_at
		FROM orders WHERE id=$1 AND user_id=$2`, orderID, userID))
}

func (t *tx) OrdersByUser(ctx context.Context, userID string) ([]store.Order, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT id, user_id, status, total_cents, created_at, updated_at
		FROM orders WHERE user_id=$1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Order
	for rows.Next() {
		var o store.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Status, &o.TotalCents, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (t *tx) OrderItems(ctx context.Context, orderID string) ([]store.OrderItem, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT id, order_id, product_id, qty, price_cents
		FROM order_items WHERE order_id=$1`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.OrderItem
	for rows.Next() {
		var it store.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Qty, &it.PriceCents); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (t *tx) UpdateOrderStatus(ctx context.Context, orderID, status string) error {
	ct, err := t.tx.Exec(ctx, `
		UPDATE orders SET status=$2, updated_at=now() WHERE id=$1`, orderID, status)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return store.ErrOrderNotFound
	}
	return nil
}

func (t *tx) DeleteOrder(ctx context.Context, orderID string) error {
	ct, err := t.tx.Exec(ctx, `DELETE FROM orders WHERE id=$1`, orderID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return store.ErrOrderNotFound
	}
	return nil
}
