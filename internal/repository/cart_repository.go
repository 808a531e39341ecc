package repository

import (
	"context"      // deadlines and cancellation for DB calls
	"database/sql" // sql provides DB primitives

	"github.com/iliyamo/shop-backend/internal/model" // domain types
)

// CartRepo stores one row per (user, product).
type CartRepo struct{ DB *sql.DB }

func NewCartRepo(db *sql.DB) *CartRepo { return &CartRepo{DB: db} }

// Add creates the (user, product) row with qty or increments the existing
// one by qty, atomically, and returns the resulting row.  The upsert relies
// on uq_cart_items_user_product, so concurrent first adds converge on one
// row holding the sum.  The sum never exceeds model.MaxCartQuantity.
// ErrNotFound is returned when the product is absent.
func (r *CartRepo) Add(ctx context.Context, userID, productID uint64, qty uint32) (model.CartItem, error) {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO cart_items (user_id, product_id, quantity) VALUES (?,?,?)
		 ON DUPLICATE KEY UPDATE quantity = LEAST(quantity + VALUES(quantity), ?)`,
		userID, productID, qty, model.MaxCartQuantity)
	if err != nil {
		if isMissingReference(err) {
			return model.CartItem{}, ErrNotFound
		}
		return model.CartItem{}, err
	}
	var it model.CartItem
	err = r.DB.QueryRowContext(ctx,
		"SELECT id,user_id,product_id,quantity,created_at FROM cart_items WHERE user_id=? AND product_id=?",
		userID, productID).Scan(&it.ID, &it.UserID, &it.ProductID, &it.Quantity, &it.CreatedAt)
	return it, notFound(err)
}

// ListByUser returns the caller's cart in insertion order.
func (r *CartRepo) ListByUser(ctx context.Context, userID uint64) ([]model.CartItem, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,user_id,product_id,quantity,created_at FROM cart_items WHERE user_id=? ORDER BY id", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.CartItem, 0)
	for rows.Next() {
		var it model.CartItem
		if err := rows.Scan(&it.ID, &it.UserID, &it.ProductID, &it.Quantity, &it.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// Remove deletes one cart row owned by userID.
func (r *CartRepo) Remove(ctx context.Context, userID, itemID uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM cart_items WHERE id=? AND user_id=?", itemID, userID)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// Clear deletes every cart row of userID.
func (r *CartRepo) Clear(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM cart_items WHERE user_id=?", userID)
	return err
}
