package model

import "time"

// AnonymousName is shown instead of the author for anonymous reviews.
const AnonymousName = "Anonymous"

// Review is a rated comment on a product.  UserID is always the
// authenticated author; Anonymous only changes how the author is displayed.
type Review struct {
	ID          uint64    `json:"id"`           // reviews.id
	ProductID   uint64    `json:"product"`      // reviews.product_id
	UserID      uint64    `json:"user"`         // reviews.user_id
	Rating      int       `json:"rating"`       // reviews.rating
	Comment     string    `json:"comment"`      // reviews.comment
	UserName    *string   `json:"user_name"`    // reviews.user_name (nullable override)
	Anonymous   bool      `json:"anonymous"`    // reviews.anonymous
	CreatedAt   time.Time `json:"created_at"`   // reviews.created_at
	AuthorName  string    `json:"-"`            // users.full_name (joined on read)
	DisplayName string    `json:"display_name"` // resolved by ResolveDisplayName
}

// ResolveDisplayName picks the name shown next to the review.
func (r *Review) ResolveDisplayName() {
	switch {
	case r.Anonymous:
		r.DisplayName = AnonymousName
	case r.UserName != nil && *r.UserName != "":
		r.DisplayName = *r.UserName
	default:
		r.DisplayName = r.AuthorName
	}
}
