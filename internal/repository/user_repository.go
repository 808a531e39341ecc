package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/shop-backend/internal/model"
)

// UserRepo persists accounts in the users table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,email,password_hash,full_name,contact,address,is_active,is_staff,is_superuser,created_at,updated_at"

func scanUser(row interface{ Scan(...any) error }, u *model.User) error {
	return row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Contact, &u.Address,
		&u.IsActive, &u.IsStaff, &u.IsSuperuser, &u.CreatedAt, &u.UpdatedAt)
}

// Create inserts u (PasswordHash already computed) and sets its ID.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, full_name, contact, address, is_active, is_staff, is_superuser) VALUES (?,?,?,?,?,?,?,?)",
		u.Email, u.PasswordHash, u.FullName, u.Contact, u.Address, u.IsActive, u.IsStaff, u.IsSuperuser)
	if err != nil {
		if isDuplicate(err) {
			return ErrEmailExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	return nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email), &u)
	return u, notFound(err)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id), &u)
	return u, notFound(err)
}

// List returns every account ordered by id.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.User, 0)
	for rows.Next() {
		var u model.User
		if err := scanUser(rows, &u); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// ListCustomers returns the identities of all non-admin accounts.
func (r *UserRepo) ListCustomers(ctx context.Context) ([]model.ChatUser, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,email,full_name FROM users WHERE is_staff=0 AND is_superuser=0 ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.ChatUser, 0)
	for rows.Next() {
		var cu model.ChatUser
		if err := rows.Scan(&cu.ID, &cu.Email, &cu.FullName); err != nil {
			return nil, err
		}
		out = append(out, cu)
	}
	return out, rows.Err()
}

// FirstStaffID returns the lowest id among staff accounts.
func (r *UserRepo) FirstStaffID(ctx context.Context) (uint64, error) {
	var id uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT id FROM users WHERE is_staff=1 ORDER BY id LIMIT 1").Scan(&id)
	return id, notFound(err)
}

// UpdateProfile overwrites the self-editable fields of u.
func (r *UserRepo) UpdateProfile(ctx context.Context, u model.User) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET email=?, full_name=?, contact=?, address=? WHERE id=?",
		strings.ToLower(strings.TrimSpace(u.Email)), u.FullName, u.Contact, u.Address, u.ID)
	if err != nil {
		if isDuplicate(err) {
			return ErrEmailExists
		}
		return err
	}
	return expectOne(res)
}

// UpdateFlags sets the admin-controlled flags of an account.
func (r *UserRepo) UpdateFlags(ctx context.Context, id uint64, isActive, isStaff bool) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET is_active=?, is_staff=? WHERE id=?", isActive, isStaff, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// Delete removes the account; dependent rows go with it through ON DELETE
// CASCADE.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return err
	}
	return expectOne(res)
}
