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

var errEmailTaken = kindError(ErrConflict, "user with this email already exists.")

// AuthConfig holds the token and hashing parameters.
type AuthConfig struct {
	JWTSecret      string
	AccessTTLMin   int
	RefreshTTLDays int
	BcryptCost     int
}

// AuthService registers accounts and issues, rotates and revokes tokens.
type AuthService struct {
	users  UserStore
	tokens TokenStore
	cfg    AuthConfig
	log    zerolog.Logger
}

func NewAuthService(users UserStore, tokens TokenStore, cfg AuthConfig, log zerolog.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, cfg: cfg, log: log}
}

// RegisterInput is the body of POST /register/.
type RegisterInput struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	FullName string `json:"full_name" validate:"max=255"`
	Contact  string `json:"contact" validate:"max=20"`
	Address  string `json:"address"`
}

// Session is the result of a successful login or refresh.
type Session struct {
	Access  utils.AccessToken
	Refresh utils.RefreshToken
	User    model.User
}

// Register creates an active, non-privileged account.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (model.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FullName = strings.TrimSpace(in.FullName)
	if err := check(in); err != nil {
		return model.User{}, err
	}
	hash, err := utils.HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}
	u := model.User{
		Email:        in.Email,
		PasswordHash: hash,
		FullName:     in.FullName,
		Contact:      in.Contact,
		Address:      in.Address,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, &u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return model.User{}, errEmailTaken
		}
		return model.User{}, fmt.Errorf("create user: %w", err)
	}
	s.log.Info().Uint64("user_id", u.ID).Msg("user registered")
	return u, nil
}

// Login verifies credentials and issues a new token pair.  Unknown email,
// wrong password and inactive accounts are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		v := &ValidationError{Fields: map[string]string{}}
		if email == "" {
			v.Fields["email"] = "This field is required."
		}
		if password == "" {
			v.Fields["password"] = "This field is required."
		}
		return Session{}, v
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Session{}, kindError(ErrUnauthorized, "invalid credentials")
		}
		return Session{}, fmt.Errorf("load user: %w", err)
	}
	if !u.IsActive || !utils.VerifyPassword(u.PasswordHash, password) {
		return Session{}, kindError(ErrUnauthorized, "invalid credentials")
	}
	return s.issue(ctx, u)
}

// Refresh validates a refresh token, revokes it and issues a new pair.
func (s *AuthService) Refresh(ctx context.Context, raw string) (Session, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Session{}, invalid("refresh", "This field is required.")
	}
	hash := utils.HashRefreshRaw(raw)
	userID, err := s.tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Session{}, kindError(ErrUnauthorized, "invalid refresh")
		}
		return Session{}, fmt.Errorf("validate refresh: %w", err)
	}
	if err := s.tokens.RevokeByHash(ctx, hash); err != nil {
		return Session{}, fmt.Errorf("revoke refresh: %w", err)
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Session{}, kindError(ErrUnauthorized, "invalid refresh")
		}
		return Session{}, fmt.Errorf("load user: %w", err)
	}
	if !u.IsActive {
		return Session{}, ErrAccountBlocked
	}
	return s.issue(ctx, u)
}

// Logout revokes the given refresh token, or every session of bearerUserID
// when no refresh token is supplied.
func (s *AuthService) Logout(ctx context.Context, bearerUserID uint64, raw string) error {
	raw = strings.TrimSpace(raw)
	switch {
	case raw != "":
		hash := utils.HashRefreshRaw(raw)
		if _, err := s.tokens.ValidateRefresh(ctx, hash); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return kindError(ErrUnauthorized, "invalid refresh token")
			}
			return fmt.Errorf("validate refresh: %w", err)
		}
		if err := s.tokens.RevokeByHash(ctx, hash); err != nil {
			return fmt.Errorf("revoke refresh: %w", err)
		}
		return nil
	case bearerUserID != 0:
		if err := s.tokens.RevokeAllForUser(ctx, bearerUserID); err != nil {
			return fmt.Errorf("revoke sessions: %w", err)
		}
		return nil
	default:
		return invalid("refresh", "provide Authorization header or refresh token")
	}
}

func (s *AuthService) issue(ctx context.Context, u model.User) (Session, error) {
	access, err := utils.NewAccessToken(s.cfg.JWTSecret, utils.Subject{UserID: u.ID, Email: u.Email, Role: u.Role()}, s.cfg.AccessTTLMin)
	if err != nil {
		return Session{}, fmt.Errorf("issue access: %w", err)
	}
	refresh, err := utils.NewRefreshToken(s.cfg.RefreshTTLDays)
	if err != nil {
		return Session{}, fmt.Errorf("issue refresh: %w", err)
	}
	if err := s.tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return Session{}, fmt.Errorf("save refresh: %w", err)
	}
	return Session{Access: access, Refresh: refresh, User: u}, nil
}
