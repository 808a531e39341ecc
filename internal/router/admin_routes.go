package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/shop-backend/internal/handler"
)

// RegisterAdmin registers staff-only routes.  All of them require a valid
// JWT whose role is admin.
func RegisterAdmin(e *echo.Echo, u *handler.UserAdminHandler, s Shop, guard Auth) {
	admin := guard.admin()

	// ---- Users ----
	e.GET("/users/", u.List, admin...)
	e.GET("/users/:id/", u.Get, admin...)
	e.PATCH("/users/:id/", u.Update, admin...)
	e.DELETE("/users/:id/", u.Delete, admin...)

	// ---- Orders ----
	e.PATCH("/orders/:id/status/", s.Orders.UpdateStatus, admin...)
	e.GET("/dashboard/stats/", s.Orders.Dashboard, admin...)

	// ---- Support chat ----
	e.GET("/chat/admin/users/", s.Chat.AdminUsers, admin...)
	e.GET("/chat/admin/messages/", s.Chat.Inbox, admin...)
}
