package redisx

import "time"

const (
	// Cache view cart per user: cart_view:{user_id} -> JSON cart.View.
	// Di-DEL setiap mutasi cart / checkout user tsb.
	KeyCartView = "cart_view:%s"

	// Cache status order: order_status:{order_id} -> {"status": "..."}
	KeyOrderStatus = "order_status:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLCartView    = 2 * time.Minute
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
