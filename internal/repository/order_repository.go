package repository

import (
	"context"      // deadlines and cancellation for DB calls
	"database/sql" // transactions and row scanning
	"strings"      // placeholder lists for IN clauses

	"github.com/shopspring/decimal" // money totals

	"github.com/iliyamo/shop-backend/internal/model" // domain types
)

// OrderRepo persists orders, their lines, and the notifications produced by
// status changes.
type OrderRepo struct{ DB *sql.DB }

func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{DB: db} }

const orderColumns = "id,user_id,total_price,payment_method,payment_status,order_status,created_at"

func scanOrder(row interface{ Scan(...any) error }, o *model.Order) error {
	return row.Scan(&o.ID, &o.UserID, &o.TotalPrice, &o.PaymentMethod, &o.PaymentStatus, &o.OrderStatus, &o.CreatedAt)
}

// Create inserts the order header and its lines in one transaction.
//
// consumed are the owner's cart rows as read before checkout.  Each one is
// reduced by the quantity that was read, and deleted when nothing is left,
// in the same transaction.  Rows added to the cart after that read are not
// touched.  On success o.ID, o.CreatedAt and every item's ID are set.  A
// line pointing at a missing product yields ErrMissingReference and nothing
// is written.
func (r *OrderRepo) Create(ctx context.Context, o *model.Order, consumed []model.CartItem) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO orders (user_id, total_price, payment_method, payment_status, order_status) VALUES (?,?,?,?,?)",
		o.UserID, o.TotalPrice, o.PaymentMethod, o.PaymentStatus, o.OrderStatus)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)

	for i := range o.Items {
		it := &o.Items[i]
		it.OrderID = o.ID
		res, err := tx.ExecContext(ctx,
			"INSERT INTO order_items (order_id, product_id, quantity, price) VALUES (?,?,?,?)",
			it.OrderID, it.ProductID, it.Quantity, it.Price)
		if err != nil {
			if isMissingReference(err) {
				return ErrMissingReference
			}
			return err
		}
		itemID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		it.ID = uint64(itemID)
	}

	for _, it := range consumed {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM cart_items WHERE id=? AND user_id=? AND quantity<=?",
			it.ID, o.UserID, it.Quantity); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE cart_items SET quantity = quantity - ? WHERE id=? AND user_id=? AND quantity>?",
			it.Quantity, it.ID, o.UserID, it.Quantity); err != nil {
			return err
		}
	}

	if err := tx.QueryRowContext(ctx, "SELECT created_at FROM orders WHERE id=?", o.ID).Scan(&o.CreatedAt); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetByID loads one order with its lines.
func (r *OrderRepo) GetByID(ctx context.Context, id uint64) (model.Order, error) {
	var o model.Order
	if err := scanOrder(r.DB.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE id=?", id), &o); err != nil {
		return model.Order{}, notFound(err)
	}
	orders := []model.Order{o}
	if err := r.attachItems(ctx, orders); err != nil {
		return model.Order{}, err
	}
	return orders[0], nil
}

// ListAll returns every order, newest first.
func (r *OrderRepo) ListAll(ctx context.Context) ([]model.Order, error) {
	return r.list(ctx, "SELECT "+orderColumns+" FROM orders ORDER BY created_at DESC, id DESC")
}

// ListByUser returns the orders of one user, newest first.
func (r *OrderRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Order, error) {
	return r.list(ctx, "SELECT "+orderColumns+" FROM orders WHERE user_id=? ORDER BY created_at DESC, id DESC", userID)
}

func (r *OrderRepo) list(ctx context.Context, q string, args ...any) ([]model.Order, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	out := make([]model.Order, 0)
	for rows.Next() {
		var o model.Order
		if err := scanOrder(rows, &o); err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachItems(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// attachItems loads the lines of all given orders with a single query.
func (r *OrderRepo) attachItems(ctx context.Context, orders []model.Order) error {
	if len(orders) == 0 {
		return nil
	}
	idx := make(map[uint64]int, len(orders))
	args := make([]any, 0, len(orders))
	for i := range orders {
		orders[i].Items = make([]model.OrderItem, 0)
		idx[orders[i].ID] = i
		args = append(args, orders[i].ID)
	}
	q := `SELECT oi.id, oi.order_id, oi.product_id, p.name, oi.quantity, oi.price, p.image
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id IN (` + placeholders(len(args)) + `)
		ORDER BY oi.id`
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Name, &it.Quantity, &it.Price, &it.Image); err != nil {
			return err
		}
		if i, ok := idx[it.OrderID]; ok {
			orders[i].Items = append(orders[i].Items, it)
		}
	}
	return rows.Err()
}

// SetStatus overwrites order_status and inserts one notification for the
// order's owner, in one transaction.  It returns the owner's id.
func (r *OrderRepo) SetStatus(ctx context.Context, orderID uint64, status, message string) (uint64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var ownerID uint64
	if err := tx.QueryRowContext(ctx, "SELECT user_id FROM orders WHERE id=? FOR UPDATE", orderID).Scan(&ownerID); err != nil {
		return 0, notFound(err)
	}
	if _, err := tx.ExecContext(ctx, "UPDATE orders SET order_status=? WHERE id=?", status, orderID); err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO notifications (user_id, message) VALUES (?,?)", ownerID, message); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return ownerID, nil
}

// Totals returns the number of orders and the sum of their totals.
func (r *OrderRepo) Totals(ctx context.Context) (int64, decimal.Decimal, error) {
	var (
		count   int64
		revenue decimal.Decimal
	)
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*), COALESCE(SUM(total_price), 0) FROM orders").Scan(&count, &revenue)
	return count, revenue, err
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
