package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/iliyamo/shop-backend/internal/model"
)

// ShippingService keeps each user's current delivery address.
type ShippingService struct {
	addresses ShippingStore
}

func NewShippingService(addresses ShippingStore) *ShippingService {
	return &ShippingService{addresses: addresses}
}

type ShippingInput struct {
	Address string `json:"address" validate:"required"`
	City    string `json:"city" validate:"required,max=100"`
	ZipCode string `json:"zip_code" validate:"required,max=10"`
	Country string `json:"country" validate:"required,max=100"`
	Phone   string `json:"phone" validate:"required,max=15"`
}

// Save replaces the user's address with in.
func (s *ShippingService) Save(ctx context.Context, userID uint64, in ShippingInput) (model.ShippingAddress, error) {
	a := model.ShippingAddress{
		UserID:  userID,
		Address: strings.TrimSpace(in.Address),
		City:    strings.TrimSpace(in.City),
		ZipCode: strings.TrimSpace(in.ZipCode),
		Country: strings.TrimSpace(in.Country),
		Phone:   strings.TrimSpace(in.Phone),
	}
	if err := check(ShippingInput{a.Address, a.City, a.ZipCode, a.Country, a.Phone}); err != nil {
		return model.ShippingAddress{}, err
	}
	if err := s.addresses.Upsert(ctx, &a); err != nil {
		return model.ShippingAddress{}, fmt.Errorf("save address: %w", err)
	}
	return a, nil
}

func (s *ShippingService) List(ctx context.Context, userID uint64) ([]model.ShippingAddress, error) {
	out, err := s.addresses.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	return out, nil
}
