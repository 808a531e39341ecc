// Package queue defines the order events exchanged over the message broker
// and the publishers and consumers that move them.
package queue

import (
	"context"
	"strconv"
	"time"
)

// Event types carried in OrderEvent.Type.
const (
	EventOrderPlaced        = "order.placed"
	EventOrderStatusChanged = "order.status_changed"
)

// OrderEvent is published after an order is committed or its status is
// changed.  It carries enough for downstream consumers to log, notify, or
// trigger analytics without querying the primary database.
type OrderEvent struct {
	Type          string    `json:"type"`
	OrderID       uint64    `json:"order_id"`
	UserID        uint64    `json:"user_id"`
	Status        string    `json:"status"`
	PaymentMethod string    `json:"payment_method,omitempty"`
	Total         string    `json:"total,omitempty"` // decimal string, e.g. "25.00"
	ItemCount     int       `json:"item_count,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Key is the partition/routing key of the event: "<type>.<order id>".
func (e OrderEvent) Key() string {
	return e.Type + "." + strconv.FormatUint(e.OrderID, 10)
}

// Publisher delivers order events to a broker.
type Publisher interface {
	Publish(ctx context.Context, ev OrderEvent) error
	Close() error
}

// NopPublisher drops every event.  It backs EVENTS_DRIVER=none.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, OrderEvent) error { return nil }
func (NopPublisher) Close() error                              { return nil }
