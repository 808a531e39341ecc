package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order status values with a dedicated notification template.  Other
// strings are accepted and fall back to a generic message.
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// PaymentStatusPending is the payment status of every new order.
const PaymentStatusPending = "pending"

// DefaultPaymentMethod is used when the request omits payment_method.
const DefaultPaymentMethod = "COD"

// Order is the header row of a placed order.  TotalPrice is a snapshot taken
// at creation and is never recomputed from the items.
//
// Fields:
//
//	ID            – primary key identifier.
//	UserID        – owner of the order.
//	TotalPrice    – Σ quantity × unit price at creation time.
//	PaymentMethod – e.g. COD.
//	PaymentStatus – payment state, "pending" on creation.
//	OrderStatus   – fulfilment state, "pending" on creation.
//	CreatedAt     – creation timestamp.
//	Items         – the order lines, loaded on read.
type Order struct {
	ID            uint64          `json:"id"`             // orders.id
	UserID        uint64          `json:"user"`           // orders.user_id
	TotalPrice    decimal.Decimal `json:"total_price"`    // orders.total_price
	PaymentMethod string          `json:"payment_method"` // orders.payment_method
	PaymentStatus string          `json:"payment_status"` // orders.payment_status
	OrderStatus   string          `json:"order_status"`   // orders.order_status
	CreatedAt     time.Time       `json:"created_at"`     // orders.created_at
	Items         []OrderItem     `json:"items"`
}

// OrderItem is an immutable order line.  Price is copied at order time so
// later catalog changes do not alter history.
type OrderItem struct {
	ID        uint64          `json:"id"`       // order_items.id
	OrderID   uint64          `json:"-"`        // order_items.order_id
	ProductID uint64          `json:"product"`  // order_items.product_id
	Name      string          `json:"name"`     // products.name (joined on read)
	Quantity  uint32          `json:"quantity"` // order_items.quantity
	Price     decimal.Decimal `json:"price"`    // order_items.price
	Image     *string         `json:"image"`    // products.image (joined on read)
}

// LineTotal returns quantity × unit price.
func (it OrderItem) LineTotal() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
}
