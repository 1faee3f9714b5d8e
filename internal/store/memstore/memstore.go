// Package memstore adalah implementasi store.Store in-memory untuk test:
// satu mutex menserialisasi unit of work, commit = swap snapshot, jadi
// rollback otomatis total kalau fn error. Hook dipakai test untuk
// menyuntik kegagalan di tengah transaksi.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ariefcatur/go-shop-cart.git/internal/store"
)

type state struct {
	users      map[string]store.User
	products   map[string]store.Product
	carts      map[string]store.Cart
	cartByUser map[string]string
	items      map[string]store.CartItem
	orders     map[string]store.Order
	orderItems map[string][]store.OrderItem
	seq        int64
}

func newState() *state {
	return &state{
		users:      map[string]store.User{},
		products:   map[string]store.Product{},
		carts:      map[string]store.Cart{},
		cartByUser: map[string]string{},
		items:      map[string]store.CartItem{},
		orders:     map[string]store.Order{},
		orderItems: map[string][]store.OrderItem{},
	}
}

func (s *state) clone() *state {
	c := newState()
	c.seq = s.seq
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.carts {
		c.carts[k] = v
	}
	for k, v := range s.cartByUser {
		c.cartByUser[k] = v
	}
	for k, v := range s.items {
		c.items[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.orderItems {
		c.orderItems[k] = append([]store.OrderItem(nil), v...)
	}
	return c
}

type Store struct {
	mu   sync.Mutex
	st   *state
	hook func(op string) error
}

func New() *Store { return &Store{st: newState()} }

// SetHook dipanggil test: hook dieksekusi di awal tiap operasi mutasi,
// return error = transaksi gagal di titik itu.
func (s *Store) SetHook(fn func(op string) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hook = fn
}

func (s *Store) Within(ctx context.Context, fn func(tx store.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.st.clone()
	if err := fn(&tx{st: work, hook: s.hook}); err != nil {
		return err
	}
	s.st = work
	return nil
}

// ---- seeding / inspeksi langsung (di luar transaksi) ----

func (s *Store) PutUser(u store.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.users[u.ID] = u
}

func (s *Store) PutProduct(p store.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.products[p.ID] = p
}

func (s *Store) GetProduct(id string) (store.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.st.products[id]
	return p, ok
}

func (s *Store) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.orders)
}

type tx struct {
	st   *state
	hook func(op string) error
}

func (t *tx) fail(op string) error {
	if t.hook == nil {
		return nil
	}
	return t.hook(op)
}

func (t *tx) UserExists(_ context.Context, userID string) (bool, error) {
	_, ok := t.st.users[userID]
	return ok, nil
}

func (t *tx) InsertProduct(_ context.Context, p *store.Product) error {
	if err := t.fail("InsertProduct"); err != nil {
		return err
	}
	t.st.products[p.ID] = *p
	return nil
}

func (t *tx) Product(_ context.Context, productID string) (*store.Product, error) {
	p, ok := t.st.products[productID]
	if !ok {
		return nil, store.ErrProductNotFound
	}
	cp := p
	return &cp, nil
}

func (t *tx) ProductForUpdate(ctx context.Context, productID string) (*store.Product, error) {
	// seluruh Within sudah terserialisasi oleh mutex; lock per-row tidak perlu
	return t.Product(ctx, productID)
}

func (t *tx) ListProducts(_ context.Context) ([]store.Product, error) {
	out := make([]store.Product, 0, len(t.st.products))
	for _, p := range t.st.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out, nil
}

func (t *tx) UpdateProductStock(_ context.Context, productID string, stock, reserved, available int) error {
	if err := t.fail("UpdateProductStock"); err != nil {
		return err
	}
	p, ok := t.st.products[productID]
	if !ok {
		return store.ErrProductNotFound
	}
	p.Stock, p.Reserved, p.Available = stock, reserved, available
	p.UpdatedAt = time.Now().UTC()
	t.st.products[productID] = p
	return nil
}

func (t *tx) CartByUser(_ context.Context, userID string) (*store.Cart, error) {
	id, ok := t.st.cartByUser[userID]
	if !ok {
		return nil, store.ErrCartNotFound
	}
	c := t.st.carts[id]
	return &c, nil
}

func (t *tx) CreateCart(_ context.Context, userID string) (*store.Cart, error) {
	if err := t.fail("CreateCart"); err != nil {
		return nil, err
	}
	t.st.seq++
	c := store.Cart{ID: seqID("cart", t.st.seq), UserID: userID, CreatedAt: time.Now().UTC()}
	t.st.carts[c.ID] = c
	t.st.cartByUser[userID] = c.ID
	return &c, nil
}

func (t *tx) CartItems(_ context.Context, cartID string) ([]store.CartItem, error) {
	var out []store.CartItem
	for _, it := range t.st.items {
		if it.CartID == cartID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (t *tx) CartItem(_ context.Context, cartID, itemID string) (*store.CartItem, error) {
	it, ok := t.st.items[itemID]
	if !ok || it.CartID != cartID {
		return nil, store.ErrCartItemNotFound
	}
	cp := it
	return &cp, nil
}

func (t *tx) CartItemByProduct(_ context.Context, cartID, productID string) (*store.CartItem, error) {
	for _, it := range t.st.items {
		if it.CartID == cartID && it.ProductID == productID {
			cp := it
			return &cp, nil
		}
	}
	return nil, store.ErrCartItemNotFound
}

func (t *tx) InsertCartItem(_ context.Context, it *store.CartItem) error {
	if err := t.fail("InsertCartItem"); err != nil {
		return err
	}
	t.st.seq++
	cp := *it
	cp.CreatedAt = time.Unix(0, t.st.seq)
	t.st.items[cp.ID] = cp
	return nil
}

func (t *tx) UpdateCartItemQty(_ context.Context, itemID string, qty int) error {
	if err := t.fail("UpdateCartItemQty"); err != nil {
		return err
	}
	it, ok := t.st.items[itemID]
	if !ok {
		return store.ErrCartItemNotFound
	}
	it.Qty = qty
	t.st.items[itemID] = it
	return nil
}

func (t *tx) DeleteCartItem(_ context.Context, itemID string) error {
	if err := t.fail("DeleteCartItem"); err != nil {
		return err
	}
	if _, ok := t.st.items[itemID]; !ok {
		return store.ErrCartItemNotFound
	}
	delete(t.st.items, itemID)
	return nil
}

func (t *tx) DeleteCartItems(_ context.Context, cartID string) error {
	if err := t.fail("DeleteCartItems"); err != nil {
		return err
	}
	for id, it := range t.st.items {
		if it.CartID == cartID {
			delete(t.st.items, id)
		}
	}
	return nil
}

func (t *tx) InsertOrder(_ context.Context, o *store.Order, items []store.OrderItem) error {
	if err := t.fail("InsertOrder"); err != nil {
		return err
	}
	now := time.Now().UTC()
	cp := *o
	cp.CreatedAt, cp.UpdatedAt = now, now
	t.st.orders[cp.ID] = cp
	t.st.orderItems[cp.ID] = append([]store.OrderItem(nil), items...)
	return nil
}

func (t *tx) OrderByID(_ context.Context, orderID string) (*store.Order, error) {
	o, ok := t.st.orders[orderID]
	if !ok {
		return nil, store.ErrOrderNotFound
	}
	cp := o
	return &cp, nil
}

func (t *tx) OrderForUser(_ context.Context, userID, orderID string) (*store.Order, error) {
	o, ok := t.st.orders[orderID]
	if !ok || o.UserID != userID {
		return nil, store.ErrOrderNotFound
	}
	cp := o
	return &cp, nil
}

func (t *tx) OrdersByUser(_ context.Context, userID string) ([]store.Order, error) {
	var out []store.Order
	for _, o := range t.st.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (t *tx) OrderItems(_ context.Context, orderID string) ([]store.OrderItem, error) {
	return append([]store.OrderItem(nil), t.st.orderItems[orderID]...), nil
}

func (t *tx) UpdateOrderStatus(_ context.Context, orderID, status string) error {
	if err := t.fail("UpdateOrderStatus"); err != nil {
		return err
	}
	o, ok := t.st.orders[orderID]
	if !ok {
		return store.ErrOrderNotFound
	}
	o.Status = status
	o.UpdatedAt = time.Now().UTC()
	t.st.orders[orderID] = o
	return nil
}

func (t *tx) DeleteOrder(_ context.Context, orderID string) error {
	if err := t.fail("DeleteOrder"); err != nil {
		return err
	}
	if _, ok := t.st.orders[orderID]; !ok {
		return store.ErrOrderNotFound
	}
	delete(t.st.orders, orderID)
	delete(t.st.orderItems, orderID)
	return nil
}

func seqID(prefix string, n int64) string {
	const digits = "0123456789"
	buf := [20]byte{}
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = digits[n%10]
		n /= 10
	}
	return prefix + "-" + string(buf[i:])
}
