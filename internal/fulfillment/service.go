// Package fulfillment: consumer order.created -> majukan order PENDING ke
// PROCESSING lewat state machine orders. Transisi status selanjutnya
// (SHIPPED/DELIVERED) digerakkan sistem gudang di luar scope repo ini.
package fulfillment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/ariefcatur/go-shop-cart.git/internal/kafka"
	"github.com/ariefcatur/go-shop-cart.git/internal/orders"
	"github.com/ariefcatur/go-shop-cart.git/internal/redisx"
)

type Service struct {
	Orders *orders.Service
	Redis  redisx.Cache // nil = tanpa dedup & cache (test)
}

// HandleOrderCreated dipasang sebagai handler consumer.
func (s *Service) HandleOrderCreated(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventOrderCreated {
		return nil // bukan urusan kita
	}

	if s.Redis != nil {
		dkey := fmt.Sprintf(redisx.KeyDedup, "fulfillment", env.EventID)
		if exists, _ := redisx.Exists(ctx, s.Redis, dkey); exists {
			return nil
		}
		_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
	}

	p, err := kafkax.UnwrapPayload[orders.OrderCreatedPayload](env.Payload)
	if err != nil {
		return err
	}

	// trace envelope asal diteruskan ke event status.changed downstream
	ctx = orders.WithTrace(ctx, env.TraceID)
	rec, err := s.Orders.UpdateStatus(ctx, p.OrderID, string(orders.StatusProcessing))
	var bad *orders.InvalidTransitionError
	if errors.As(err, &bad) {
		return nil // sudah lewat PENDING (event ulang / race), aman di-skip
	}
	if err != nil {
		return err
	}

	// refresh cache status supaya API tidak serve PENDING basi sampai TTL
	if s.Redis != nil {
		b, _ := json.Marshal(map[string]string{"status": rec.Order.Status})
		_ = s.Redis.Set(ctx, fmt.Sprintf(redisx.KeyOrderStatus, p.OrderID), b, redisx.TTLStatusCache).Err()
	}
	return nil
}
