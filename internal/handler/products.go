package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/shop-backend/internal/model"
	"github.com/iliyamo/shop-backend/internal/repository"
	"github.com/iliyamo/shop-backend/internal/service"
)

// ProductHandler serves the catalog and product reviews.
type ProductHandler struct {
	Catalog *service.CatalogService
	Reviews *service.ReviewService
	Log     zerolog.Logger
}

func NewProductHandler(catalog *service.CatalogService, reviews *service.ReviewService, log zerolog.Logger) *ProductHandler {
	return &ProductHandler{Catalog: catalog, Reviews: reviews, Log: log}
}

type productView struct {
	model.Product
	DiscountedPrice decimal.Decimal `json:"discounted_price"`
}

func viewProduct(p model.Product) productView {
	return productView{Product: p, DiscountedPrice: p.DiscountedPrice()}
}

// List returns the catalog, optionally narrowed by ?search= and ?category=.
func (h *ProductHandler) List(c echo.Context) error {
	f := repository.ProductFilter{
		Search:   strings.TrimSpace(c.QueryParam("search")),
		Category: strings.TrimSpace(c.QueryParam("category")),
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	items, err := h.Catalog.List(ctx, f)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	out := make([]productView, 0, len(items))
	for _, p := range items {
		out = append(out, viewProduct(p))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ProductHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.Catalog.Get(ctx, id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, viewProduct(p))
}

// Create accepts a JSON body or a multipart form with an optional image.
func (h *ProductHandler) Create(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return unauthorized(c)
	}
	in, img, cleanup, err := h.productInput(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	defer cleanup()
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.Catalog.Create(ctx, actor, in, img)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, viewProduct(p))
}

// Update applies a partial change for both PUT and PATCH.
func (h *ProductHandler) Update(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}
	in, img, cleanup, err := h.productInput(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	defer cleanup()
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.Catalog.Update(ctx, actor, id, in, img)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, viewProduct(p))
}

func (h *ProductHandler) Delete(c echo.Context) error {
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
	if err := h.Catalog.Delete(ctx, actor, id); err != nil {
		return respondError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// MostSelling ranks products by units sold.  ?limit= caps the list.
func (h *ProductHandler) MostSelling(c echo.Context) error {
	limit := 0
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"limit": "A valid integer is required."})
		}
		limit = n
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	out, err := h.Catalog.MostSelling(ctx, limit)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, out)
}

var errBadMultipart = &service.ValidationError{Fields: map[string]string{"non_field_errors": "Malformed multipart form."}}

// productInput reads the product fields from JSON or from a multipart form.
// The returned cleanup closes the uploaded file.
func (h *ProductHandler) productInput(c echo.Context) (service.ProductInput, *service.ImageUpload, func(), error) {
	noop := func() {}
	ct := c.Request().Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(ct, echo.MIMEMultipartForm) {
		var in service.ProductInput
		if err := c.Bind(&in); err != nil {
			return in, nil, noop, &service.ValidationError{Fields: map[string]string{"non_field_errors": "Invalid request body."}}
		}
		return in, nil, noop, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return service.ProductInput{}, nil, noop, errBadMultipart
	}
	in, verr := productFromForm(form.Value)
	if verr != nil {
		return in, nil, noop, verr
	}
	files := form.File["image"]
	if len(files) == 0 {
		return in, nil, noop, nil
	}
	f, err := files[0].Open()
	if err != nil {
		return in, nil, noop, errBadMultipart
	}
	return in, &service.ImageUpload{Filename: files[0].Filename, Body: f}, func() { _ = f.Close() }, nil
}

func productFromForm(v map[string][]string) (service.ProductInput, error) {
	var in service.ProductInput
	fields := map[string]string{}
	str := func(k string) *string {
		if vals, ok := v[k]; ok && len(vals) > 0 {
			s := vals[0]
			return &s
		}
		return nil
	}
	num := func(k string) *int {
		s := str(k)
		if s == nil {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(*s))
		if err != nil {
			fields[k] = "A valid integer is required."
			return nil
		}
		return &n
	}
	in.Name = str("name")
	in.Brand = str("brand")
	in.Description = str("description")
	in.Category = str("category")
	in.Warranty = str("warranty")
	in.Discount = num("discount")
	in.Quantity = num("quantity")
	if s := str("price"); s != nil {
		d, err := decimal.NewFromString(strings.TrimSpace(*s))
		if err != nil {
			fields["price"] = "A valid number is required."
		} else {
			in.Price = &d
		}
	}
	if len(fields) > 0 {
		return in, &service.ValidationError{Fields: fields}
	}
	return in, nil
}

type reviewReq struct {
	Product   uint64  `json:"product"`
	Rating    int     `json:"rating"`
	Comment   string  `json:"comment"`
	UserName  *string `json:"user_name"`
	Anonymous bool    `json:"anonymous"`
}

func (r reviewReq) input(productID uint64) service.ReviewInput {
	return service.ReviewInput{ProductID: productID, Rating: r.Rating, Comment: r.Comment, UserName: r.UserName, Anonymous: r.Anonymous}
}

// ProductReviews lists the reviews of the product in the path.
func (h *ProductHandler) ProductReviews(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	out, err := h.Reviews.ListByProduct(ctx, id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, out)
}

// CreateProductReview posts a review on the product in the path.
func (h *ProductHandler) CreateProductReview(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c)
	}
	return h.createReview(c, func(r reviewReq) uint64 { return id })
}

func (h *ProductHandler) AllReviews(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	out, err := h.Reviews.ListAll(ctx)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, out)
}

// CreateReview posts a review on the product named in the body.
func (h *ProductHandler) CreateReview(c echo.Context) error {
	return h.createReview(c, func(r reviewReq) uint64 { return r.Product })
}

func (h *ProductHandler) createReview(c echo.Context, product func(reviewReq) uint64) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var req reviewReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	rv, err := h.Reviews.Create(ctx, uid, req.input(product(req)))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, rv)
}
