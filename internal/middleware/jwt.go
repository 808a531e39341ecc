package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4" // JWT middleware for Echo
	"github.com/labstack/echo/v4"             // Echo web framework

	"github.com/iliyamo/shop-backend/internal/model"
	"github.com/iliyamo/shop-backend/internal/repository"
	"github.com/iliyamo/shop-backend/internal/utils"
)

// Context keys set by the JWT middlewares.
const (
	KeySubject = "user"    // utils.Subject
	KeyUserID  = "user_id" // uint64
	KeyRole    = "role"    // string
)

// AccountLookup loads the account a token was issued for.  The MySQL user
// repository and the in-memory store both satisfy it.
type AccountLookup interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

var (
	errAccountBlocked = errors.New("account blocked")
	errAccountLookup  = errors.New("account lookup failed")
)

// jwtConfig builds the shared echo-jwt configuration.  With accounts set,
// every token is checked against the stored account: deleted accounts are
// rejected, blocked ones are refused, and the role is taken from the
// current staff flags rather than from the token.
func jwtConfig(secret string, accounts AccountLookup) echojwt.Config {
	return echojwt.Config{
		ContextKey: KeySubject,
		ParseTokenFunc: func(c echo.Context, raw string) (interface{}, error) {
			sub, err := utils.ParseAccessToken(secret, raw)
			if err != nil || accounts == nil {
				return sub, err
			}
			u, err := accounts.GetByID(c.Request().Context(), sub.UserID)
			switch {
			case errors.Is(err, repository.ErrNotFound):
				return nil, utils.ErrInvalidToken
			case err != nil:
				return nil, fmt.Errorf("%w: %w", errAccountLookup, err)
			case !u.IsActive:
				return nil, errAccountBlocked
			}
			sub.Email = u.Email
			sub.Role = model.RoleFor(u.IsStaff, u.IsSuperuser)
			return sub, nil
		},
		SuccessHandler: func(c echo.Context) {
			if sub, ok := c.Get(KeySubject).(utils.Subject); ok {
				c.Set(KeyUserID, sub.UserID)
				c.Set(KeyRole, sub.Role)
			}
		},
	}
}

// JWTAuth validates the Bearer access token and stores its subject, user id
// and role in the context.
//
// A missing or unusable token gets 401 and a blocked account gets 403.
// accounts may be nil, in which case the claims are trusted as signed.
func JWTAuth(secret string, accounts AccountLookup) echo.MiddlewareFunc {
	cfg := jwtConfig(secret, accounts)
	cfg.ErrorHandler = func(c echo.Context, err error) error {
		switch {
		case errors.Is(err, echojwt.ErrJWTMissing):
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
		case errors.Is(err, errAccountBlocked):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "Your account has been blocked by admin."})
		case errors.Is(err, errAccountLookup):
			return err // answered 500 by echo's HTTP error handler
		default:
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
		}
	}
	return echojwt.WithConfig(cfg)
}

// OptionalJWT authenticates the caller when a valid token for an active
// account is present and lets the request through as anonymous otherwise.
func OptionalJWT(secret string, accounts AccountLookup) echo.MiddlewareFunc {
	cfg := jwtConfig(secret, accounts)
	cfg.ContinueOnIgnoredError = true
	cfg.ErrorHandler = func(echo.Context, error) error { return nil }
	return echojwt.WithConfig(cfg)
}
