package handler

import (
	"net/http" // HTTP status codes

	"github.com/labstack/echo/v4" // Echo web framework
	"github.com/rs/zerolog"       // structured logging

	"github.com/iliyamo/shop-backend/internal/service" // business rules
)

// CartHandler serves the caller's cart.  Every method runs behind JWTAuth
// and only ever touches the rows of the authenticated user; a row id that
// belongs to someone else is reported as not found.
type CartHandler struct {
	Cart *service.CartService // cart rules: merge on re-add, quantity bounds
	Log  zerolog.Logger       // used for unexpected failures only
}

func NewCartHandler(cart *service.CartService, log zerolog.Logger) *CartHandler {
	return &CartHandler{Cart: cart, Log: log}
}

type addCartReq struct {
	ProductID uint64 `json:"product_id"`
	Quantity  *int   `json:"quantity"` // optional, 1 when absent
}

// List handles GET /cart/ and returns the caller's rows in insertion order.
func (h *CartHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	items, err := h.Cart.List(ctx, uid)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, items)
}

// Add handles POST /cart/.  It puts a product in the cart, or adds to the
// row already holding it, and answers 201 with the resulting row.  Quantity
// defaults to 1.
func (h *CartHandler) Add(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	// bind request body
	var req addCartReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	it, err := h.Cart.Add(ctx, uid, req.ProductID, qty)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, it)
}

// Remove handles DELETE /cart/:id/.
func (h *CartHandler) Remove(c echo.Context) error {
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
	if err := h.Cart.Remove(ctx, uid, id); err != nil {
		return respondError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Clear handles DELETE /cart/clear/ and empties the caller's cart.
func (h *CartHandler) Clear(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Cart.Clear(ctx, uid); err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "cart cleared"})
}
