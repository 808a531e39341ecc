package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/shop-backend/internal/model"
)

// ShippingRepo keeps one current shipping address per user.
type ShippingRepo struct{ DB *sql.DB }

func NewShippingRepo(db *sql.DB) *ShippingRepo { return &ShippingRepo{DB: db} }

// Upsert stores a as the user's current address, replacing any previous one,
// and reloads the stored row into a.
func (r *ShippingRepo) Upsert(ctx context.Context, a *model.ShippingAddress) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO shipping_addresses (user_id, address, city, zip_code, country, phone) VALUES (?,?,?,?,?,?)
		 ON DUPLICATE KEY UPDATE address=VALUES(address), city=VALUES(city), zip_code=VALUES(zip_code),
		 country=VALUES(country), phone=VALUES(phone)`,
		a.UserID, a.Address, a.City, a.ZipCode, a.Country, a.Phone)
	if err != nil {
		return err
	}
	return r.DB.QueryRowContext(ctx,
		"SELECT id, created_at FROM shipping_addresses WHERE user_id=?", a.UserID).Scan(&a.ID, &a.CreatedAt)
}

// ListByUser returns the user's address as a list (zero or one element).
func (r *ShippingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.ShippingAddress, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,user_id,address,city,zip_code,country,phone,created_at FROM shipping_addresses WHERE user_id=?", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.ShippingAddress, 0, 1)
	for rows.Next() {
		var a model.ShippingAddress
		if err := rows.Scan(&a.ID, &a.UserID, &a.Address, &a.City, &a.ZipCode, &a.Country, &a.Phone, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
