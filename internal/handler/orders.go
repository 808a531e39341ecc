package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/shop-backend/internal/service"
)

// OrderHandler serves order placement, listing, status changes and the
// admin dashboard.
type OrderHandler struct {
	Orders *service.OrderService
	Log    zerolog.Logger
}

func NewOrderHandler(orders *service.OrderService, log zerolog.Logger) *OrderHandler {
	return &OrderHandler{Orders: orders, Log: log}
}

type statusReq struct {
	OrderStatus string `json:"order_status"`
}

func (h *OrderHandler) Create(c echo.Context) error {
	return h.place(c, false)
}

// Checkout places the order and empties the cart.  Without items in the
// body the cart contents are ordered.
func (h *OrderHandler) Checkout(c echo.Context) error {
	return h.place(c, true)
}

func (h *OrderHandler) place(c echo.Context, checkout bool) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var req service.PlaceOrderInput
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	place := h.Orders.Create
	if checkout {
		place = h.Orders.Checkout
	}
	o, err := place(ctx, uid, req)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, o)
}

// List returns every order to admins and the caller's own to customers.
func (h *OrderHandler) List(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return unauthorized(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	out, err := h.Orders.List(ctx, actor)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) Get(c echo.Context) error {
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
	o, err := h.Orders.Get(ctx, actor, id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, o)
}

// UpdateStatus sets order_status and notifies the owner.
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var req statusReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Orders.UpdateStatus(ctx, id, req.OrderStatus); err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// Dashboard returns order count, revenue and the best sellers.
func (h *OrderHandler) Dashboard(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	st, err := h.Orders.Stats(ctx)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, st)
}
