package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/shop-backend/internal/model"
	"github.com/iliyamo/shop-backend/internal/repository"
)

// CatalogService manages products and their images.
type CatalogService struct {
	products ProductStore
	users    UserStore
	images   ImageStore
	cache    CachePurger
	log      zerolog.Logger
}

// NewCatalogService wires the catalog.  images and cache may be nil.
func NewCatalogService(products ProductStore, users UserStore, images ImageStore, cache CachePurger, log zerolog.Logger) *CatalogService {
	return &CatalogService{products: products, users: users, images: images, cache: cache, log: log}
}

// ProductInput carries product fields.  On create every required field must
// be present; on update nil fields are left unchanged.
type ProductInput struct {
	Name        *string          `json:"name" validate:"omitempty,max=255"`
	Brand       *string          `json:"brand" validate:"omitempty,max=100"`
	Price       *decimal.Decimal `json:"price"`
	Discount    *int             `json:"discount" validate:"omitempty,gte=0,lte=100"`
	Quantity    *int             `json:"quantity" validate:"omitempty,gte=0"`
	Description *string          `json:"description"`
	Category    *string          `json:"category" validate:"omitempty,max=100"`
	Warranty    *string          `json:"warranty" validate:"omitempty,max=100"`
}

// maxPrice is the first value that no longer fits DECIMAL(10,2).
var maxPrice = decimal.NewFromInt(100_000_000)

// ImageUpload is an image file received with a product write.
type ImageUpload struct {
	Filename string
	Body     io.Reader
}

func (in ProductInput) validate(creating bool) error {
	if err := check(in); err != nil {
		return err
	}
	fields := map[string]string{}
	if in.Price != nil && in.Price.IsNegative() {
		fields["price"] = "Ensure this value is greater than or equal to 0."
	}
	if in.Price != nil && !in.Price.Equal(in.Price.Round(2)) {
		fields["price"] = "Ensure that there are no more than 2 decimal places."
	}
	if in.Price != nil && in.Price.GreaterThanOrEqual(maxPrice) {
		fields["price"] = "Ensure that there are no more than 10 digits in total."
	}
	if creating {
		required := map[string]bool{
			"name":        in.Name == nil || strings.TrimSpace(*in.Name) == "",
			"brand":       in.Brand == nil || strings.TrimSpace(*in.Brand) == "",
			"price":       in.Price == nil,
			"quantity":    in.Quantity == nil,
			"description": in.Description == nil,
			"category":    in.Category == nil || strings.TrimSpace(*in.Category) == "",
		}
		for f, missing := range required {
			if missing {
				fields[f] = "This field is required."
			}
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func (in ProductInput) apply(p *model.Product) {
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Brand != nil {
		p.Brand = strings.TrimSpace(*in.Brand)
	}
	if in.Price != nil {
		p.Price = in.Price.Round(2)
	}
	if in.Discount != nil {
		p.Discount = *in.Discount
	}
	if in.Quantity != nil {
		p.Quantity = *in.Quantity
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Category != nil {
		p.Category = strings.TrimSpace(*in.Category)
	}
	if in.Warranty != nil {
		if w := strings.TrimSpace(*in.Warranty); w != "" {
			p.Warranty = &w
		} else {
			p.Warranty = nil
		}
	}
}

func (s *CatalogService) List(ctx context.Context, f repository.ProductFilter) ([]model.Product, error) {
	out, err := s.products.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return out, nil
}

func (s *CatalogService) Get(ctx context.Context, id uint64) (model.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Product{}, notFoundf("product %d not found", id)
		}
		return model.Product{}, fmt.Errorf("load product: %w", err)
	}
	return p, nil
}

// Create adds a product on behalf of an admin.  Blocked accounts are
// refused even when their token is still valid.
func (s *CatalogService) Create(ctx context.Context, actor Actor, in ProductInput, img *ImageUpload) (model.Product, error) {
	if err := s.ensureActive(ctx, actor); err != nil {
		return model.Product{}, err
	}
	if err := in.validate(true); err != nil {
		return model.Product{}, err
	}
	var p model.Product
	in.apply(&p)
	if img != nil {
		url, err := s.saveImage(ctx, img)
		if err != nil {
			return model.Product{}, err
		}
		p.Image = &url
	}
	if err := s.products.Create(ctx, &p); err != nil {
		s.dropImage(ctx, p.Image)
		return model.Product{}, fmt.Errorf("create product: %w", err)
	}
	s.purge(ctx)
	s.log.Info().Uint64("product_id", p.ID).Uint64("by", actor.ID).Msg("product created")
	return s.Get(ctx, p.ID)
}

// Update applies a partial change.  A new image replaces and deletes the
// previous one.
func (s *CatalogService) Update(ctx context.Context, actor Actor, id uint64, in ProductInput, img *ImageUpload) (model.Product, error) {
	if err := s.ensureActive(ctx, actor); err != nil {
		return model.Product{}, err
	}
	if err := in.validate(false); err != nil {
		return model.Product{}, err
	}
	p, err := s.Get(ctx, id)
	if err != nil {
		return model.Product{}, err
	}
	in.apply(&p)
	old := p.Image
	if img != nil {
		url, err := s.saveImage(ctx, img)
		if err != nil {
			return model.Product{}, err
		}
		p.Image = &url
	}
	if err := s.products.Update(ctx, p); err != nil {
		if img != nil {
			s.dropImage(ctx, p.Image)
		}
		if errors.Is(err, repository.ErrNotFound) {
			return model.Product{}, notFoundf("product %d not found", id)
		}
		return model.Product{}, fmt.Errorf("update product: %w", err)
	}
	if img != nil {
		s.dropImage(ctx, old)
	}
	s.purge(ctx)
	return p, nil
}

func (s *CatalogService) Delete(ctx context.Context, actor Actor, id uint64) error {
	if err := s.ensureActive(ctx, actor); err != nil {
		return err
	}
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.products.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFoundf("product %d not found", id)
		}
		return fmt.Errorf("delete product: %w", err)
	}
	s.dropImage(ctx, p.Image)
	s.purge(ctx)
	s.log.Info().Uint64("product_id", id).Uint64("by", actor.ID).Msg("product deleted")
	return nil
}

// MostSelling ranks products by quantity sold, best first.
func (s *CatalogService) MostSelling(ctx context.Context, limit int) ([]model.ProductSales, error) {
	out, err := s.products.MostSelling(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("most selling: %w", err)
	}
	return out, nil
}

func (s *CatalogService) ensureActive(ctx context.Context, actor Actor) error {
	u, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return kindError(ErrUnauthorized, "user not found")
		}
		return fmt.Errorf("load actor: %w", err)
	}
	if !u.IsActive {
		return ErrAccountBlocked
	}
	return nil
}

func (s *CatalogService) saveImage(ctx context.Context, img *ImageUpload) (string, error) {
	if s.images == nil {
		return "", invalid("image", "Image uploads are not enabled.")
	}
	url, err := s.images.SaveImage(ctx, img.Filename, img.Body)
	if err != nil {
		s.log.Warn().Err(err).Str("filename", img.Filename).Msg("image rejected")
		return "", invalid("image", "Upload a valid image. The file you uploaded was either not an image or too large.")
	}
	return url, nil
}

func (s *CatalogService) dropImage(ctx context.Context, url *string) {
	if s.images == nil || url == nil {
		return
	}
	if err := s.images.DeleteImage(ctx, *url); err != nil {
		s.log.Warn().Err(err).Str("image", *url).Msg("image cleanup failed")
	}
}

func (s *CatalogService) purge(ctx context.Context) { purgeCache(ctx, s.cache, s.log) }

// purgeCache drops cached public reads after a write that changes them.
// A failed purge is logged; the write itself already succeeded.
func purgeCache(ctx context.Context, cache CachePurger, log zerolog.Logger) {
	if cache == nil {
		return
	}
	if err := cache.Purge(ctx); err != nil {
		log.Warn().Err(err).Msg("response cache purge failed")
	}
}
