package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/shop-backend/internal/model"
	"github.com/iliyamo/shop-backend/internal/repository"
	"github.com/iliyamo/shop-backend/internal/utils"
)

func (f *fixture) users() *UserService {
	return NewUserService(f.store.Users(), f.store.Tokens(), f.rec, 4, zerolog.Nop())
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	u := f.user(t, "me@example.com", false)
	f.user(t, "taken@example.com", false)
	svc := f.users()

	got, err := svc.UpdateProfile(ctx, u.ID, ProfileInput{FullName: ptr("  Jane  "), Contact: ptr("0123")})
	require.NoError(t, err)
	assert.Equal(t, "Jane", got.FullName)
	assert.Equal(t, "0123", got.Contact)
	assert.Equal(t, "me@example.com", got.Email)

	_, err = svc.UpdateProfile(ctx, u.ID, ProfileInput{Email: ptr("TAKEN@example.com")})
	assert.ErrorIs(t, err, ErrConflict)

	var verr *ValidationError
	_, err = svc.UpdateProfile(ctx, u.ID, ProfileInput{Email: ptr(" ")})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "email")
}

func TestUpdateFlagsRefusesSelfDemotion(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	admin := f.user(t, "admin@example.com", true)
	buyer := f.user(t, "buyer@example.com", false)
	svc := f.users()

	_, err := svc.UpdateFlags(ctx, customer(admin), admin.ID, UserFlagsInput{IsStaff: ptr(false)})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.UpdateFlags(ctx, customer(admin), admin.ID, UserFlagsInput{IsActive: ptr(false)})
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := svc.UpdateFlags(ctx, customer(admin), buyer.ID, UserFlagsInput{IsActive: ptr(false), IsStaff: ptr(true)})
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Equal(t, model.RoleAdmin, got.Role())

	_, err = svc.UpdateFlags(ctx, customer(admin), 999, UserFlagsInput{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteUser(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	admin := f.user(t, "admin@example.com", true)
	buyer := f.user(t, "buyer@example.com", false)
	svc := f.users()

	assert.ErrorIs(t, svc.Delete(ctx, customer(admin), admin.ID), ErrForbidden)
	require.NoError(t, svc.Delete(ctx, customer(admin), buyer.ID))
	_, err := svc.Get(ctx, buyer.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, customer(admin), buyer.ID), ErrNotFound)
	assert.Equal(t, 1, f.rec.purges)
}

func TestBlockingRevokesRefreshTokens(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	admin := f.user(t, "admin@example.com", true)
	buyer := f.user(t, "buyer@example.com", false)

	pair, err := f.auth().Login(ctx, "buyer@example.com", "secret-pass")
	require.NoError(t, err)

	_, err = f.users().UpdateFlags(ctx, customer(admin), buyer.ID, UserFlagsInput{IsStaff: ptr(false)})
	require.NoError(t, err)
	_, err = f.store.Tokens().ValidateRefresh(ctx, utils.HashRefreshRaw(pair.Refresh.Raw))
	require.NoError(t, err, "unrelated changes keep sessions")

	_, err = f.users().UpdateFlags(ctx, customer(admin), buyer.ID, UserFlagsInput{IsActive: ptr(false)})
	require.NoError(t, err)
	_, err = f.store.Tokens().ValidateRefresh(ctx, utils.HashRefreshRaw(pair.Refresh.Raw))
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAdminIDAndEnsureAdmin(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	svc := f.users()

	_, err := svc.AdminID(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	created, err := svc.EnsureAdmin(ctx, "Seller@Admin.com", "admin-pass", "Seller")
	require.NoError(t, err)
	assert.True(t, created)
	created, err = svc.EnsureAdmin(ctx, "seller@admin.com", "admin-pass", "Seller")
	require.NoError(t, err)
	assert.False(t, created)

	id, err := svc.AdminID(ctx)
	require.NoError(t, err)
	u, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, u.IsSuperuser)
	assert.Equal(t, "seller@admin.com", u.Email)

	created, err = svc.EnsureAdmin(ctx, "", "", "")
	require.NoError(t, err)
	assert.False(t, created)
}
