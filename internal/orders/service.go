package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/ariefcatur/go-shop-cart.git/internal/kafka"
	"github.com/ariefcatur/go-shop-cart.git/internal/store"
)

type Service struct {
	Store       store.Store
	Events      kafkax.Publisher // topic order.status.changed; boleh nil
	ServiceName string
}

// Record: order + item snapshot utk response.
type Record struct {
	Order store.Order
	Items []store.OrderItem
}

type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition %s -> %s", e.From, e.To)
}

func (s *Service) List(ctx context.Context, userID string) ([]Record, error) {
	var out []Record
	err := s.Store.Within(ctx, func(tx store.Tx) error {
		ok, err := tx.UserExists(ctx, userID)
		if err != nil {
			return err
		}
		if !ok {
			return store.ErrUserNotFound
		}
		os, err := tx.OrdersByUser(ctx, userID)
		if err != nil {
			return err
		}
		out = make([]Record, 0, len(os))
		for _, o := range os {
			items, err := tx.OrderItems(ctx, o.ID)
			if err != nil {
				return err
			}
			out = append(out, Record{Order: o, Items: items})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, userID, orderID string) (*Record, error) {
	var out *Record
	err := s.Store.Within(ctx, func(tx store.Tx) error {
		ok, err := tx.UserExists(ctx, userID)
		if err != nil {
			return err
		}
		if !ok {
			return store.ErrUserNotFound
		}
		o, err := tx.OrderForUser(ctx, userID, orderID)
		if err != nil {
			return err
		}
		items, err := tx.OrderItems(ctx, o.ID)
		if err != nil {
			return err
		}
		out = &Record{Order: *o, Items: items}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateStatus: status divalidasi terhadap himpunan tetap DAN state machine
// (PENDING -> PROCESSING/CANCELLED, PROCESSING -> SHIPPED/CANCELLED,
// SHIPPED -> DELIVERED). Event status.changed dipublish setelah commit.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, newStatus string) (*Record, error) {
	to, err := ParseStatus(newStatus)
	if err != nil {
		return nil, err
	}
	var out *Record
	var from Status
	err = s.Store.Within(ctx, func(tx store.Tx) error {
		o, err := tx.OrderByID(ctx, orderID)
		if err != nil {
			return err
		}
		from = Status(o.Status)
		if !CanTransition(from, to) {
			return &InvalidTransitionError{From: from, To: to}
		}
		if err := tx.UpdateOrderStatus(ctx, orderID, string(to)); err != nil {
			return err
		}
		o.Status = string(to)
		items, err := tx.OrderItems(ctx, orderID)
		if err != nil {
			return err
		}
		out = &Record{Order: *o, Items: items}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publishStatusChanged(ctx, orderID, from, to)
	return out, nil
}

// Delete: purge record order + item-nya. SENGAJA tidak mengembalikan
// stock/reserved — ini pembersihan administratif, bukan cancel-with-refund.
func (s *Service) Delete(ctx context.Context, userID, orderID string) error {
	return s.Store.Within(ctx, func(tx store.Tx) error {
		ok, err := tx.UserExists(ctx, userID)
		if err != nil {
			return err
		}
		if !ok {
			return store.ErrUserNotFound
		}
		if _, err := tx.OrderForUser(ctx, userID, orderID); err != nil {
			return err
		}
		return tx.DeleteOrder(ctx, orderID)
	})
}

func (s *Service) publishStatusChanged(ctx context.Context, orderID string, from, to Status) {
	if s.Events == nil {
		return
	}
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     EventStatusChanged,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		TraceID:       TraceFrom(ctx),
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(StatusChangedPayload{OrderID: orderID, From: string(from), To: string(to)}),
	}
	s.Events.Publish(PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(EventStatusChanged)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
