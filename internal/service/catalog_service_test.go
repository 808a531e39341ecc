package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/shop-backend/internal/repository"
)

type fakeImages struct {
	saved   []string
	deleted []string
}

func (f *fakeImages) SaveImage(_ context.Context, filename string, r io.Reader) (string, error) {
	if !strings.HasSuffix(filename, ".png") {
		return "", errors.New("unsupported")
	}
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	url := "/media/products/" + filename
	f.saved = append(f.saved, url)
	return url, nil
}

func (f *fakeImages) DeleteImage(_ context.Context, url string) error {
	f.deleted = append(f.deleted, url)
	return nil
}

func (f *fixture) catalog(images ImageStore) *CatalogService {
	return NewCatalogService(f.store.Products(), f.store.Users(), images, f.rec, zerolog.Nop())
}

func validProduct() ProductInput {
	return ProductInput{
		Name:        ptr("Kettle"),
		Brand:       ptr("Acme"),
		Price:       ptr(decimal.RequireFromString("200.00")),
		Discount:    ptr(15),
		Quantity:    ptr(3),
		Description: ptr("Boils water"),
		Category:    ptr("kitchen"),
	}
}

func TestCatalogCreateWithImage(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	admin := f.user(t, "admin@example.com", true)
	images := &fakeImages{}
	svc := f.catalog(images)

	p, err := svc.Create(ctx, customer(admin), validProduct(), &ImageUpload{Filename: "a.png", Body: strings.NewReader("png")})
	require.NoError(t, err)
	require.NotNil(t, p.Image)
	assert.Equal(t, "/media/products/a.png", *p.Image)
	assert.Equal(t, "170.00", p.DiscountedPrice().StringFixed(2))
	assert.Equal(t, 1, f.rec.purges)

	_, err = svc.Create(ctx, customer(admin), validProduct(), &ImageUpload{Filename: "a.exe", Body: strings.NewReader("x")})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "image")
}

func TestCatalogCreateValidation(t *testing.T) {
	f := newFixture()
	admin := f.user(t, "admin@example.com", true)
	svc := f.catalog(nil)

	in := validProduct()
	in.Name = nil
	in.Price = ptr(decimal.RequireFromString("-1"))
	in.Discount = ptr(101)
	_, err := svc.Create(context.Background(), customer(admin), in, nil)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "discount")

	in = validProduct()
	in.Name = nil
	in.Price = ptr(decimal.RequireFromString("1.005"))
	_, err = svc.Create(context.Background(), customer(admin), in, nil)
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")
	assert.Contains(t, verr.Fields, "price")
}

func TestCatalogBlockedAdminRefused(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	admin := f.user(t, "admin@example.com", true)
	require.NoError(t, f.store.Users().UpdateFlags(ctx, admin.ID, false, true))

	_, err := f.catalog(nil).Create(ctx, customer(admin), validProduct(), nil)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, "Your account has been blocked by admin.", err.Error())
}

func TestCatalogUpdateReplacesImage(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	admin := f.user(t, "admin@example.com", true)
	images := &fakeImages{}
	svc := f.catalog(images)

	p, err := svc.Create(ctx, customer(admin), validProduct(), &ImageUpload{Filename: "old.png", Body: strings.NewReader("1")})
	require.NoError(t, err)

	got, err := svc.Update(ctx, customer(admin), p.ID, ProductInput{Quantity: ptr(9)}, &ImageUpload{Filename: "new.png", Body: strings.NewReader("2")})
	require.NoError(t, err)
	assert.Equal(t, 9, got.Quantity)
	assert.Equal(t, "Kettle", got.Name)
	assert.Equal(t, "/media/products/new.png", *got.Image)
	assert.Equal(t, []string{"/media/products/old.png"}, images.deleted)

	_, err = svc.Update(ctx, customer(admin), 404, ProductInput{}, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCatalogListAndDelete(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	admin := f.user(t, "admin@example.com", true)
	svc := f.catalog(nil)

	kettle, err := svc.Create(ctx, customer(admin), validProduct(), nil)
	require.NoError(t, err)
	lamp := validProduct()
	lamp.Name, lamp.Category, lamp.Description = ptr("Lamp"), ptr("lighting"), ptr("Bright")
	_, err = svc.Create(ctx, customer(admin), lamp, nil)
	require.NoError(t, err)

	found, err := svc.List(ctx, repository.ProductFilter{Search: "boils"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, kettle.ID, found[0].ID)

	found, err = svc.List(ctx, repository.ProductFilter{Category: "lighting"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Lamp", found[0].Name)

	require.NoError(t, svc.Delete(ctx, customer(admin), kettle.ID))
	_, err = svc.Get(ctx, kettle.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, customer(admin), kettle.ID), ErrNotFound)
}
