package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/shop-backend/internal/handler"
)

// RegisterCatalog registers product and review routes.  Reads are public
// and pass through cache; writes to products need an admin token and
// writing a review needs any token.
func RegisterCatalog(e *echo.Echo, p *handler.ProductHandler, guard Auth, cache echo.MiddlewareFunc) {
	auth := guard.required()
	admin := guard.admin()

	e.GET("/products/", p.List, cache)
	e.GET("/products/most-selling/", p.MostSelling, cache)
	e.GET("/products/:id/", p.Get, cache)
	e.GET("/products/:id/reviews/", p.ProductReviews, cache)

	e.POST("/products/", p.Create, admin...)
	e.PUT("/products/:id/", p.Update, admin...)
	e.PATCH("/products/:id/", p.Update, admin...)
	e.DELETE("/products/:id/", p.Delete, admin...)

	e.POST("/products/:id/reviews/", p.CreateProductReview, auth)
	e.GET("/reviews/", p.AllReviews, auth)
	e.POST("/reviews/", p.CreateReview, auth)
}
