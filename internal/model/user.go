package model

import "time"

// Role names derived from a user's privilege flags.  They are carried in
// the access token's "role" claim and checked by RequireRole.
const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

// User represents an account record as stored in the `users` table.  The
// role is never stored; it is derived from IsStaff and IsSuperuser.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	Email        – unique, normalized email address (login identity).
//	PasswordHash – bcrypt hash of the password.
//	FullName     – display name.
//	Contact      – phone or other contact string.
//	Address      – free-form postal address.
//	IsActive     – false when an admin has blocked the account.
//	IsStaff      – staff members are admins.
//	IsSuperuser  – superusers are admins.
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    `json:"id"`           // users.id
	Email        string    `json:"email"`        // users.email
	PasswordHash string    `json:"-"`            // users.password_hash
	FullName     string    `json:"full_name"`    // users.full_name
	Contact      string    `json:"contact"`      // users.contact
	Address      string    `json:"address"`      // users.address
	IsActive     bool      `json:"is_active"`    // users.is_active
	IsStaff      bool      `json:"is_staff"`     // users.is_staff
	IsSuperuser  bool      `json:"is_superuser"` // users.is_superuser
	CreatedAt    time.Time `json:"created_at"`   // users.created_at
	UpdatedAt    time.Time `json:"updated_at"`   // users.updated_at
}

// RoleFor derives the role from the two privilege flags.
func RoleFor(isStaff, isSuperuser bool) string {
	if isStaff || isSuperuser {
		return RoleAdmin
	}
	return RoleCustomer
}

// Role returns the derived role of the user.
func (u User) Role() string { return RoleFor(u.IsStaff, u.IsSuperuser) }

// IsAdmin reports whether the user has the admin role.
func (u User) IsAdmin() bool { return u.Role() == RoleAdmin }

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// SHA‑256 hash of the raw token is persisted.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
