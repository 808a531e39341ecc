package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/iliyamo/shop-backend/internal/model"
	"github.com/iliyamo/shop-backend/internal/repository"
)

// CartService manages the per-user cart.
type CartService struct {
	carts    CartStore
	products ProductStore
}

func NewCartService(carts CartStore, products ProductStore) *CartService {
	return &CartService{carts: carts, products: products}
}

// Add puts qty units of a product in the user's cart.  Adding a product that
// is already there increments the existing row; an add that would take the
// row past model.MaxCartQuantity is refused.
func (s *CartService) Add(ctx context.Context, userID, productID uint64, qty int) (model.CartItem, error) {
	if productID == 0 {
		return model.CartItem{}, invalid("product_id", "This field is required.")
	}
	if qty < 1 || qty > model.MaxCartQuantity {
		return model.CartItem{}, invalid("quantity", fmt.Sprintf("Ensure this value is between 1 and %d.", model.MaxCartQuantity))
	}
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.CartItem{}, notFoundf("product %d not found", productID)
		}
		return model.CartItem{}, fmt.Errorf("load product: %w", err)
	}
	if err := s.checkRoom(ctx, userID, productID, qty); err != nil {
		return model.CartItem{}, err
	}
	it, err := s.carts.Add(ctx, userID, productID, uint32(qty))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.CartItem{}, notFoundf("product %d not found", productID)
		}
		return model.CartItem{}, fmt.Errorf("add to cart: %w", err)
	}
	return it, nil
}

// checkRoom refuses an add that would overflow the existing row.  The
// stores clamp the sum as well, for adds racing past this check.
func (s *CartService) checkRoom(ctx context.Context, userID, productID uint64, qty int) error {
	items, err := s.carts.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("list cart: %w", err)
	}
	for _, it := range items {
		if it.ProductID == productID && int(it.Quantity)+qty > model.MaxCartQuantity {
			return invalid("quantity", fmt.Sprintf("Ensure the quantity in the cart does not exceed %d.", model.MaxCartQuantity))
		}
	}
	return nil
}

func (s *CartService) List(ctx context.Context, userID uint64) ([]model.CartItem, error) {
	items, err := s.carts.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	return items, nil
}

// Remove deletes one of the user's cart rows.  Rows of other users are
// reported as not found.
func (s *CartService) Remove(ctx context.Context, userID, itemID uint64) error {
	if err := s.carts.Remove(ctx, userID, itemID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFoundf("cart item %d not found", itemID)
		}
		return fmt.Errorf("remove cart item: %w", err)
	}
	return nil
}

func (s *CartService) Clear(ctx context.Context, userID uint64) error {
	if err := s.carts.Clear(ctx, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
