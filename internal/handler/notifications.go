package handler

import (
	"net/http" // HTTP status codes

	"github.com/labstack/echo/v4" // Echo web framework
	"github.com/rs/zerolog"       // structured logging

	"github.com/iliyamo/shop-backend/internal/service" // business rules
)

// NotificationHandler lists and acknowledges the notices written when an
// order changes status.
type NotificationHandler struct {
	Notes *service.NotificationService // scoped to the caller
	Log   zerolog.Logger
}

func NewNotificationHandler(notes *service.NotificationService, log zerolog.Logger) *NotificationHandler {
	return &NotificationHandler{Notes: notes, Log: log}
}

// List returns the caller's notifications, newest first.
func (h *NotificationHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	out, err := h.Notes.List(ctx, uid)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, out)
}

// MarkRead handles PATCH /notifications/:id/read/.  Marking a notice that
// is already read succeeds again; another user's notice is not found.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Notes.MarkRead(ctx, uid, id); err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	n, err := h.Notes.MarkAllRead(ctx, uid) // n counts rows that were unread
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "updated": n})
}
