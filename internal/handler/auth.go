package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/shop-backend/internal/middleware"
	"github.com/iliyamo/shop-backend/internal/model"
	"github.com/iliyamo/shop-backend/internal/service"
)

// AuthHandler serves registration, login, token rotation and the caller's
// own profile.
type AuthHandler struct {
	Auth  *service.AuthService
	Users *service.UserService
	Log   zerolog.Logger
}

func NewAuthHandler(auth *service.AuthService, users *service.UserService, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{Auth: auth, Users: users, Log: log}
}

// ----- DTOs -----

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshReq struct {
	Refresh string `json:"refresh"`
}

type userPart struct {
	ID          uint64 `json:"id"`
	Email       string `json:"email"`
	FullName    string `json:"full_name"`
	Contact     string `json:"contact"`
	Address     string `json:"address"`
	IsActive    bool   `json:"is_active"`
	IsStaff     bool   `json:"is_staff"`
	IsSuperuser bool   `json:"is_superuser"`
	Role        string `json:"role"`
}

func userView(u model.User) userPart {
	return userPart{
		ID:          u.ID,
		Email:       u.Email,
		FullName:    u.FullName,
		Contact:     u.Contact,
		Address:     u.Address,
		IsActive:    u.IsActive,
		IsStaff:     u.IsStaff,
		IsSuperuser: u.IsSuperuser,
		Role:        u.Role(),
	}
}

type authResp struct {
	Access        string    `json:"access"`
	Refresh       string    `json:"refresh"`
	AccessExpires time.Time `json:"access_expires"`
	User          *userPart `json:"user,omitempty"`
}

func sessionView(s service.Session, withUser bool) authResp {
	out := authResp{Access: s.Access.Token, Refresh: s.Refresh.Raw, AccessExpires: s.Access.Exp}
	if withUser {
		u := userView(s.User)
		out.User = &u
	}
	return out
}

// Register creates a customer account.
func (h *AuthHandler) Register(c echo.Context) error {
	var req service.RegisterInput
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if _, err := h.Auth.Register(ctx, req); err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "User registered successfully"})
}

// Login verifies credentials and returns a token pair with the user summary.
// It also serves /token/.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	sess, err := h.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, sessionView(sess, true))
}

// Refresh rotates the refresh token and issues a new access token.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	sess, err := h.Auth.Refresh(ctx, req.Refresh)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, sessionView(sess, false))
}

// Logout revokes the refresh token in the body, or every session of the
// bearer when the body carries none.  The route runs under OptionalJWT.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Auth.Logout(ctx, middleware.UserID(c), req.Refresh); err != nil {
		return respondError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the caller's profile and role.
func (h *AuthHandler) Me(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Users.Get(ctx, uid)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, userView(u))
}

// UpdateMe changes the caller's name, email, contact or address.
func (h *AuthHandler) UpdateMe(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var req service.ProfileInput
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Users.UpdateProfile(ctx, uid, req)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, userView(u))
}
