package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/shop-backend/internal/service"
)

// UserAdminHandler serves the admin account management endpoints.  The
// routes sit behind JWTAuth and RequireRole(admin); the acting admin is
// passed to the service so it can refuse self-demotion and self-deletion.
type UserAdminHandler struct {
	Users *service.UserService
	Log   zerolog.Logger
}

func NewUserAdminHandler(users *service.UserService, log zerolog.Logger) *UserAdminHandler {
	return &UserAdminHandler{Users: users, Log: log}
}

// List handles GET /users/ and returns every account without password
// hashes.
func (h *UserAdminHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	users, err := h.Users.List(ctx)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	out := make([]userPart, 0, len(users)) // never null in JSON
	for _, u := range users {
		out = append(out, userView(u))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *UserAdminHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Users.Get(ctx, id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, userView(u))
}

// Update activates, blocks, promotes or demotes an account.
func (h *UserAdminHandler) Update(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var req service.UserFlagsInput
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Users.UpdateFlags(ctx, actor, id, req)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, userView(u))
}

// Delete removes an account with everything it owns.
func (h *UserAdminHandler) Delete(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Users.Delete(ctx, actor, id); err != nil {
		return respondError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
