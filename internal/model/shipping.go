package model

import "time"

// ShippingAddress is the single current delivery address of a user.  A new
// submission overwrites the previous one.
type ShippingAddress struct {
	ID        uint64    `json:"id"`         // shipping_addresses.id
	UserID    uint64    `json:"user"`       // shipping_addresses.user_id (unique)
	Address   string    `json:"address"`    // shipping_addresses.address
	City      string    `json:"city"`       // shipping_addresses.city
	ZipCode   string    `json:"zip_code"`   // shipping_addresses.zip_code
	Country   string    `json:"country"`    // shipping_addresses.country
	Phone     string    `json:"phone"`      // shipping_addresses.phone
	CreatedAt time.Time `json:"created_at"` // shipping_addresses.created_at
}
