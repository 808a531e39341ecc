package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/shop-backend/internal/model"
)

// ReviewRepo stores product reviews.
type ReviewRepo struct{ DB *sql.DB }

func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{DB: db} }

// Create inserts rv and fills ID, CreatedAt and the author's name.
// ErrMissingReference is returned when the product or author does not
// exist.
func (r *ReviewRepo) Create(ctx context.Context, rv *model.Review) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO reviews (product_id, user_id, rating, comment, user_name, anonymous) VALUES (?,?,?,?,?,?)",
		rv.ProductID, rv.UserID, rv.Rating, rv.Comment, rv.UserName, rv.Anonymous)
	if err != nil {
		if isMissingReference(err) {
			return ErrMissingReference
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rv.ID = uint64(id)
	err = r.DB.QueryRowContext(ctx,
		"SELECT r.created_at, u.full_name FROM reviews r JOIN users u ON u.id = r.user_id WHERE r.id=?",
		rv.ID).Scan(&rv.CreatedAt, &rv.AuthorName)
	if err != nil {
		return notFound(err)
	}
	rv.ResolveDisplayName()
	return nil
}

// ListByProduct returns every review of a product, anonymous ones included,
// oldest first.
func (r *ReviewRepo) ListByProduct(ctx context.Context, productID uint64) ([]model.Review, error) {
	return r.list(ctx, "WHERE r.product_id=?", productID)
}

// ListAll returns every review, oldest first.
func (r *ReviewRepo) ListAll(ctx context.Context) ([]model.Review, error) {
	return r.list(ctx, "")
}

func (r *ReviewRepo) list(ctx context.Context, where string, args ...any) ([]model.Review, error) {
	q := `SELECT r.id, r.product_id, r.user_id, r.rating, r.comment, r.user_name, r.anonymous, r.created_at, u.full_name
		FROM reviews r
		JOIN users u ON u.id = r.user_id ` + where + `
		ORDER BY r.created_at, r.id`
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Review, 0)
	for rows.Next() {
		var rv model.Review
		if err := rows.Scan(&rv.ID, &rv.ProductID, &rv.UserID, &rv.Rating, &rv.Comment,
			&rv.UserName, &rv.Anonymous, &rv.CreatedAt, &rv.AuthorName); err != nil {
			return nil, err
		}
		rv.ResolveDisplayName()
		out = append(out, rv)
	}
	return out, rows.Err()
}
