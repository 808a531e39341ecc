package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/shop-backend/internal/model"
	"github.com/iliyamo/shop-backend/internal/utils"
)

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	svc := f.auth()

	u, err := svc.Register(ctx, RegisterInput{Email: " New@Example.com ", Password: "long-enough", FullName: "New"})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", u.Email)
	assert.True(t, u.IsActive)
	assert.Equal(t, model.RoleCustomer, u.Role())
	assert.NotEqual(t, "long-enough", u.PasswordHash)

	sess, err := svc.Login(ctx, "NEW@example.com", "long-enough")
	require.NoError(t, err)
	assert.Equal(t, u.ID, sess.User.ID)

	sub, err := utils.ParseAccessToken("test-secret", sess.Access.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, sub.UserID)
	assert.Equal(t, model.RoleCustomer, sub.Role)
}

func TestRegisterDuplicateIsConflict(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	svc := f.auth()
	in := RegisterInput{Email: "dup@example.com", Password: "long-enough"}

	_, err := svc.Register(ctx, in)
	require.NoError(t, err)
	_, err = svc.Register(ctx, in)
	assert.ErrorIs(t, err, ErrConflict)

	users, _ := f.store.Users().List(ctx)
	assert.Len(t, users, 1)
}

func TestRegisterValidation(t *testing.T) {
	_, err := newFixture().auth().Register(context.Background(), RegisterInput{Email: "not-an-email", Password: "short"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "email")
	assert.Contains(t, verr.Fields, "password")
}

func TestLoginFailures(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	blocked := f.user(t, "blocked@example.com", false)
	require.NoError(t, f.store.Users().UpdateFlags(ctx, blocked.ID, false, false))
	f.user(t, "ok@example.com", false)
	svc := f.auth()

	_, err := svc.Login(ctx, "ok@example.com", "wrong-pass")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = svc.Login(ctx, "ghost@example.com", "secret-pass")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = svc.Login(ctx, "blocked@example.com", "secret-pass")
	assert.ErrorIs(t, err, ErrUnauthorized)

	var verr *ValidationError
	_, err = svc.Login(ctx, "", "")
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 2)
}

func TestRefreshRotates(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.user(t, "buyer@example.com", false)
	svc := f.auth()

	first, err := svc.Login(ctx, "buyer@example.com", "secret-pass")
	require.NoError(t, err)
	second, err := svc.Refresh(ctx, first.Refresh.Raw)
	require.NoError(t, err)
	assert.NotEqual(t, first.Refresh.Raw, second.Refresh.Raw)

	_, err = svc.Refresh(ctx, first.Refresh.Raw)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestRefreshBlockedAccount(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	u := f.user(t, "buyer@example.com", false)
	svc := f.auth()

	sess, err := svc.Login(ctx, "buyer@example.com", "secret-pass")
	require.NoError(t, err)
	require.NoError(t, f.store.Users().UpdateFlags(ctx, u.ID, false, false))

	_, err = svc.Refresh(ctx, sess.Refresh.Raw)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestLogout(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	u := f.user(t, "buyer@example.com", false)
	svc := f.auth()

	a, err := svc.Login(ctx, "buyer@example.com", "secret-pass")
	require.NoError(t, err)
	b, err := svc.Login(ctx, "buyer@example.com", "secret-pass")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, 0, a.Refresh.Raw))
	_, err = svc.Refresh(ctx, a.Refresh.Raw)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.ErrorIs(t, svc.Logout(ctx, 0, a.Refresh.Raw), ErrUnauthorized)

	require.NoError(t, svc.Logout(ctx, u.ID, ""))
	_, err = svc.Refresh(ctx, b.Refresh.Raw)
	assert.ErrorIs(t, err, ErrUnauthorized)

	var verr *ValidationError
	assert.ErrorAs(t, svc.Logout(ctx, 0, ""), &verr)
}
