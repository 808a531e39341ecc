package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/shop-backend/internal/handler"
)

// Shop bundles the handlers behind a signed-in customer's routes.
type Shop struct {
	Cart          *handler.CartHandler
	Orders        *handler.OrderHandler
	Notifications *handler.NotificationHandler
	Shipping      *handler.ShippingHandler
	Chat          *handler.ChatHandler
}

// RegisterCustomer registers the routes any authenticated user may call.
// Ownership is enforced by the services.
func RegisterCustomer(e *echo.Echo, s Shop, guard Auth) {
	auth := guard.required()

	e.GET("/cart/", s.Cart.List, auth)
	e.POST("/cart/", s.Cart.Add, auth)
	e.DELETE("/cart/clear/", s.Cart.Clear, auth)
	e.DELETE("/cart/:id/", s.Cart.Remove, auth)

	e.POST("/orders/create/", s.Orders.Create, auth)
	e.POST("/orders/checkout/", s.Orders.Checkout, auth)
	e.GET("/orders/", s.Orders.List, auth)
	e.GET("/orders/:id/", s.Orders.Get, auth)

	e.GET("/notifications/", s.Notifications.List, auth)
	e.PATCH("/notifications/:id/read/", s.Notifications.MarkRead, auth)
	e.POST("/notifications/read-all/", s.Notifications.MarkAllRead, auth)

	e.GET("/shipping-addresses/", s.Shipping.List, auth)
	e.POST("/shipping-addresses/", s.Shipping.Save, auth)

	e.GET("/chat/", s.Chat.Conversation, auth)
	e.POST("/chat/", s.Chat.Send, auth)
	e.GET("/chat/admin-id/", s.Chat.AdminID, auth)
	e.GET("/chat/threads/", s.Chat.Threads, auth)
	e.POST("/chat/threads/", s.Chat.OpenThread, auth)
	e.GET("/chat/threads/:id/messages/", s.Chat.ThreadMessages, auth)
	e.POST("/chat/threads/:id/messages/", s.Chat.PostThreadMessage, auth)
}
