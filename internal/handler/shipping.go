package handler

import (
	"net/http" // HTTP status codes

	"github.com/labstack/echo/v4" // Echo web framework
	"github.com/rs/zerolog"       // structured logging

	"github.com/iliyamo/shop-backend/internal/service" // business rules
)

// ShippingHandler serves the caller's delivery address.  A user has at
// most one; saving again overwrites it.
type ShippingHandler struct {
	Shipping *service.ShippingService
	Log      zerolog.Logger
}

func NewShippingHandler(shipping *service.ShippingService, log zerolog.Logger) *ShippingHandler {
	return &ShippingHandler{Shipping: shipping, Log: log}
}

func (h *ShippingHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	out, err := h.Shipping.List(ctx, uid)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Save replaces the caller's current address.
func (h *ShippingHandler) Save(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	// bind request body; validation happens in the service
	var req service.ShippingInput
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	a, err := h.Shipping.Save(ctx, uid, req)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, a)
}
