package model

import "time"

// Notification is a per-user message produced by an order status change.
type Notification struct {
	ID        uint64    `json:"id"`         // notifications.id
	UserID    uint64    `json:"-"`          // notifications.user_id
	Message   string    `json:"message"`    // notifications.message
	IsRead    bool      `json:"is_read"`    // notifications.is_read
	CreatedAt time.Time `json:"created_at"` // notifications.created_at
}
