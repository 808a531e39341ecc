package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/iliyamo/shop-backend/internal/model"
	"github.com/iliyamo/shop-backend/internal/repository"
	"github.com/iliyamo/shop-backend/internal/utils"
)

// UserService covers profiles and admin account management.
type UserService struct {
	users      UserStore
	tokens     TokenStore
	cache      CachePurger // nil when response caching is off
	bcryptCost int
	log        zerolog.Logger
}

func NewUserService(users UserStore, tokens TokenStore, cache CachePurger, bcryptCost int, log zerolog.Logger) *UserService {
	return &UserService{users: users, tokens: tokens, cache: cache, bcryptCost: bcryptCost, log: log}
}

// ProfileInput is a partial update of the caller's own profile.
type ProfileInput struct {
	Email    *string `json:"email" validate:"omitempty,email,max=254"`
	FullName *string `json:"full_name" validate:"omitempty,max=255"`
	Contact  *string `json:"contact" validate:"omitempty,max=20"`
	Address  *string `json:"address"`
}

// UserFlagsInput is an admin change to an account.
type UserFlagsInput struct {
	IsActive *bool `json:"is_active"`
	IsStaff  *bool `json:"is_staff"`
}

func (s *UserService) Get(ctx context.Context, id uint64) (model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.User{}, notFoundf("user %d not found", id)
		}
		return model.User{}, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}

// UpdateProfile applies the non-nil fields of in to the caller's account.
func (s *UserService) UpdateProfile(ctx context.Context, id uint64, in ProfileInput) (model.User, error) {
	if in.Email != nil {
		e := strings.ToLower(strings.TrimSpace(*in.Email))
		if e == "" {
			return model.User{}, invalid("email", "This field may not be blank.")
		}
		in.Email = &e
	}
	if err := check(in); err != nil {
		return model.User{}, err
	}
	u, err := s.Get(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	if in.Email != nil {
		u.Email = *in.Email
	}
	if in.FullName != nil {
		u.FullName = strings.TrimSpace(*in.FullName)
	}
	if in.Contact != nil {
		u.Contact = *in.Contact
	}
	if in.Address != nil {
		u.Address = *in.Address
	}
	if err := s.users.UpdateProfile(ctx, u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return model.User{}, errEmailTaken
		}
		return model.User{}, fmt.Errorf("update profile: %w", err)
	}
	return u, nil
}

func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// UpdateFlags activates, blocks, promotes or demotes an account.  Admins
// cannot block or demote themselves.  Blocking revokes every refresh token
// of the account; its access tokens stop working on the next request.
func (s *UserService) UpdateFlags(ctx context.Context, actor Actor, id uint64, in UserFlagsInput) (model.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	wasActive := u.IsActive
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}
	if in.IsStaff != nil {
		u.IsStaff = *in.IsStaff
	}
	if actor.ID == id && (!u.IsActive || !u.IsAdmin()) {
		return model.User{}, kindError(ErrForbidden, "admins cannot block or demote themselves")
	}
	if err := s.users.UpdateFlags(ctx, id, u.IsActive, u.IsStaff); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.User{}, notFoundf("user %d not found", id)
		}
		return model.User{}, fmt.Errorf("update user: %w", err)
	}
	if wasActive && !u.IsActive {
		if err := s.tokens.RevokeAllForUser(ctx, id); err != nil {
			return model.User{}, fmt.Errorf("revoke sessions: %w", err)
		}
	}
	s.log.Info().Uint64("user_id", id).Uint64("by", actor.ID).
		Bool("is_active", u.IsActive).Bool("is_staff", u.IsStaff).Msg("user flags changed")
	return u, nil
}

// Delete removes an account and, through the schema's cascades, everything
// it owns.  Its reviews disappear with it, so cached listings are purged.
func (s *UserService) Delete(ctx context.Context, actor Actor, id uint64) error {
	if actor.ID == id {
		return kindError(ErrForbidden, "admins cannot delete themselves")
	}
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFoundf("user %d not found", id)
		}
		return fmt.Errorf("delete user: %w", err)
	}
	s.log.Info().Uint64("user_id", id).Uint64("by", actor.ID).Msg("user deleted")
	purgeCache(ctx, s.cache, s.log)
	return nil
}

// AdminID returns the first staff account, which storefront chat targets.
func (s *UserService) AdminID(ctx context.Context) (uint64, error) {
	id, err := s.users.FirstStaffID(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, notFoundf("Admin not found")
		}
		return 0, fmt.Errorf("find admin: %w", err)
	}
	return id, nil
}

// EnsureAdmin creates the default staff superuser when email is not taken
// yet.  An existing account with that email is left untouched.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password, fullName string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return false, nil
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return false, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return false, fmt.Errorf("lookup admin: %w", err)
	}
	hash, err := utils.HashPassword(password, s.bcryptCost)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	u := model.User{
		Email:        email,
		PasswordHash: hash,
		FullName:     fullName,
		IsActive:     true,
		IsStaff:      true,
		IsSuperuser:  true,
	}
	if err := s.users.Create(ctx, &u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return false, nil
		}
		return false, fmt.Errorf("create admin: %w", err)
	}
	s.log.Info().Uint64("user_id", u.ID).Str("email", email).Msg("default admin created")
	return true, nil
}
