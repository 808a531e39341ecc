package model

import "time"

// MaxCartQuantity is the most units one cart row may hold.  It matches the
// per-line limit of an order, so a cart can always be checked out.
const MaxCartQuantity = 10_000

// CartItem is one (user, product) row of a cart.  The pair is unique; adding
// the same product again increments Quantity.
type CartItem struct {
	ID        uint64    `json:"id"`         // cart_items.id
	UserID    uint64    `json:"user"`       // cart_items.user_id
	ProductID uint64    `json:"product"`    // cart_items.product_id
	Quantity  uint32    `json:"quantity"`   // cart_items.quantity (>= 1)
	CreatedAt time.Time `json:"created_at"` // cart_items.created_at
}
