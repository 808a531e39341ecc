package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/shop-backend/internal/model"
)

// ProductRepo provides catalog persistence.
type ProductRepo struct{ DB *sql.DB }

func NewProductRepo(db *sql.DB) *ProductRepo { return &ProductRepo{DB: db} }

// ProductFilter narrows List.  Empty fields do not filter.
type ProductFilter struct {
	Search   string // substring of name, brand or description
	Category string // exact category
}

const productColumns = "id,name,brand,price,discount,quantity,description,category,warranty,image,created_at"

func scanProduct(row interface{ Scan(...any) error }, p *model.Product) error {
	return row.Scan(&p.ID, &p.Name, &p.Brand, &p.Price, &p.Discount, &p.Quantity,
		&p.Description, &p.Category, &p.Warranty, &p.Image, &p.CreatedAt)
}

// Create inserts p and sets its ID.
func (r *ProductRepo) Create(ctx context.Context, p *model.Product) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO products (name, brand, price, discount, quantity, description, category, warranty, image)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		p.Name, p.Brand, p.Price, p.Discount, p.Quantity, p.Description, p.Category, p.Warranty, p.Image)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// GetByID fetches one product.
func (r *ProductRepo) GetByID(ctx context.Context, id uint64) (model.Product, error) {
	var p model.Product
	err := scanProduct(r.DB.QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE id=?", id), &p)
	return p, notFound(err)
}

// Update overwrites every mutable column of p.
func (r *ProductRepo) Update(ctx context.Context, p model.Product) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE products SET name=?, brand=?, price=?, discount=?, quantity=?, description=?, category=?, warranty=?, image=?
		 WHERE id=?`,
		p.Name, p.Brand, p.Price, p.Discount, p.Quantity, p.Description, p.Category, p.Warranty, p.Image, p.ID)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// Delete removes a product.  Cart rows, reviews and order lines that
// reference it are removed by the schema's cascades.
func (r *ProductRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM products WHERE id=?", id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// List returns products matching f, newest first.
func (r *ProductRepo) List(ctx context.Context, f ProductFilter) ([]model.Product, error) {
	var (
		where []string
		args  []any
	)
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + escapeLike(s) + "%"
		where = append(where, "(name LIKE ? OR brand LIKE ? OR description LIKE ?)")
		args = append(args, like, like, like)
	}
	if c := strings.TrimSpace(f.Category); c != "" {
		where = append(where, "category = ?")
		args = append(args, c)
	}
	q := "SELECT " + productColumns + " FROM products"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC, id DESC"

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Product, 0)
	for rows.Next() {
		var p model.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// MostSelling ranks products by the total quantity ordered.  limit <= 0
// returns the whole ranking.
func (r *ProductRepo) MostSelling(ctx context.Context, limit int) ([]model.ProductSales, error) {
	q := `SELECT oi.product_id, p.name, p.image, SUM(oi.quantity) AS quantity_sold
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		GROUP BY oi.product_id, p.name, p.image
		ORDER BY quantity_sold DESC, oi.product_id ASC`
	var args []any
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.ProductSales, 0)
	for rows.Next() {
		var s model.ProductSales
		if err := rows.Scan(&s.ProductID, &s.Name, &s.Image, &s.QuantitySold); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// escapeLike escapes the LIKE wildcards in user input.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
