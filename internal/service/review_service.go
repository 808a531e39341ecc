package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/iliyamo/shop-backend/internal/model"
	"github.com/iliyamo/shop-backend/internal/repository"
)

// ReviewService records and lists product reviews.
type ReviewService struct {
	reviews  ReviewStore
	products ProductStore
	cache    CachePurger // nil when response caching is off
	log      zerolog.Logger
}

func NewReviewService(reviews ReviewStore, products ProductStore, cache CachePurger, log zerolog.Logger) *ReviewService {
	return &ReviewService{reviews: reviews, products: products, cache: cache, log: log}
}

// ReviewInput is the body of a review submission.  ProductID is taken from
// the path when the route carries one.
type ReviewInput struct {
	ProductID uint64  `json:"product" validate:"required"`
	Rating    int     `json:"rating" validate:"required,gte=1,lte=5"`
	Comment   string  `json:"comment" validate:"required"`
	UserName  *string `json:"user_name" validate:"omitempty,max=255"`
	Anonymous bool    `json:"anonymous"`
}

// Create stores a review authored by userID.  The author is never taken
// from the request body.
func (s *ReviewService) Create(ctx context.Context, userID uint64, in ReviewInput) (model.Review, error) {
	in.Comment = strings.TrimSpace(in.Comment)
	if in.UserName != nil {
		n := strings.TrimSpace(*in.UserName)
		in.UserName = &n
		if n == "" {
			in.UserName = nil
		}
	}
	if err := check(in); err != nil {
		return model.Review{}, err
	}
	if err := s.productExists(ctx, in.ProductID); err != nil {
		return model.Review{}, err
	}
	rv := model.Review{
		ProductID: in.ProductID,
		UserID:    userID,
		Rating:    in.Rating,
		Comment:   in.Comment,
		UserName:  in.UserName,
		Anonymous: in.Anonymous,
	}
	if err := s.reviews.Create(ctx, &rv); err != nil {
		if errors.Is(err, repository.ErrMissingReference) {
			return model.Review{}, notFoundf("product %d not found", in.ProductID)
		}
		return model.Review{}, fmt.Errorf("create review: %w", err)
	}
	// cached review listings of the product are stale now
	purgeCache(ctx, s.cache, s.log)
	return rv, nil
}

// ListByProduct returns every review of a product, anonymous ones included.
func (s *ReviewService) ListByProduct(ctx context.Context, productID uint64) ([]model.Review, error) {
	if err := s.productExists(ctx, productID); err != nil {
		return nil, err
	}
	out, err := s.reviews.ListByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return out, nil
}

func (s *ReviewService) ListAll(ctx context.Context) ([]model.Review, error) {
	out, err := s.reviews.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return out, nil
}

func (s *ReviewService) productExists(ctx context.Context, id uint64) error {
	if _, err := s.products.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFoundf("product %d not found", id)
		}
		return fmt.Errorf("load product: %w", err)
	}
	return nil
}
