package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/shop-backend/internal/config"
	"github.com/iliyamo/shop-backend/internal/model"
	"github.com/iliyamo/shop-backend/internal/repository"
	"github.com/iliyamo/shop-backend/internal/utils"
)

const secret = "test-secret"

func bearer(t *testing.T, id uint64, role string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, utils.Subject{UserID: id, Email: "u@example.com", Role: role}, 5)
	require.NoError(t, err)
	return "Bearer " + tok.Token
}

func whoami(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"id": UserID(c), "role": Role(c)})
}

func serve(e *echo.Echo, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuth(t *testing.T) {
	e := echo.New()
	e.GET("/me/", whoami, JWTAuth(secret, nil))

	rec := serve(e, http.MethodGet, "/me/", bearer(t, 7, model.RoleAdmin))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":7,"role":"admin"}`, rec.Body.String())

	rec = serve(e, http.MethodGet, "/me/", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing bearer token")

	rec = serve(e, http.MethodGet, "/me/", "Bearer not.a.jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid token")

	other, err := utils.NewAccessToken("other-secret", utils.Subject{UserID: 7, Role: model.RoleAdmin}, 5)
	require.NoError(t, err)
	rec = serve(e, http.MethodGet, "/me/", "Bearer "+other.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOptionalJWT(t *testing.T) {
	e := echo.New()
	e.GET("/whoami", whoami, OptionalJWT(secret, nil))

	rec := serve(e, http.MethodGet, "/whoami", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":0,"role":""}`, rec.Body.String())

	rec = serve(e, http.MethodGet, "/whoami", "Bearer garbage")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":0,"role":""}`, rec.Body.String())

	rec = serve(e, http.MethodGet, "/whoami", bearer(t, 3, model.RoleCustomer))
	assert.JSONEq(t, `{"id":3,"role":"customer"}`, rec.Body.String())
}

// accountStub is an AccountLookup over a fixed set of users.
type accountStub struct {
	users map[uint64]model.User
	err   error
}

func (a accountStub) GetByID(_ context.Context, id uint64) (model.User, error) {
	if a.err != nil {
		return model.User{}, a.err
	}
	u, ok := a.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func TestJWTAuthChecksAccount(t *testing.T) {
	store := accountStub{users: map[uint64]model.User{
		1: {ID: 1, Email: "staff@example.com", IsActive: true, IsStaff: true},
		2: {ID: 2, Email: "demoted@example.com", IsActive: true},
		3: {ID: 3, Email: "blocked@example.com", IsActive: false},
	}}
	e := echo.New()
	e.GET("/me/", whoami, JWTAuth(secret, store))

	// the stored flags win over the role in the claims
	rec := serve(e, http.MethodGet, "/me/", bearer(t, 1, model.RoleCustomer))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":1,"role":"admin"}`, rec.Body.String())
	rec = serve(e, http.MethodGet, "/me/", bearer(t, 2, model.RoleAdmin))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":2,"role":"customer"}`, rec.Body.String())

	rec = serve(e, http.MethodGet, "/me/", bearer(t, 3, model.RoleCustomer))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Your account has been blocked by admin.")

	rec = serve(e, http.MethodGet, "/me/", bearer(t, 9, model.RoleCustomer))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid token")

	e = echo.New()
	e.GET("/me/", whoami, JWTAuth(secret, accountStub{err: errors.New("db down")}))
	rec = serve(e, http.MethodGet, "/me/", bearer(t, 1, model.RoleAdmin))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestOptionalJWTIgnoresBlockedAccount(t *testing.T) {
	store := accountStub{users: map[uint64]model.User{3: {ID: 3, IsActive: false}}}
	e := echo.New()
	e.GET("/whoami", whoami, OptionalJWT(secret, store))

	rec := serve(e, http.MethodGet, "/whoami", bearer(t, 3, model.RoleCustomer))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":0,"role":""}`, rec.Body.String())
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	e.GET("/admin", whoami, JWTAuth(secret, nil), RequireRole(model.RoleAdmin))

	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/admin", bearer(t, 1, model.RoleAdmin)).Code)
	assert.Equal(t, http.StatusForbidden, serve(e, http.MethodGet, "/admin", bearer(t, 2, model.RoleCustomer)).Code)
}

func TestMemoryLimiter(t *testing.T) {
	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Hour,
		TTL:            time.Hour,
		KeyStrategy:    "ip",
		Prefix:         "test:rl",
	}
	e := echo.New()
	e.Use(RateLimit(cfg, nil, zerolog.Nop()))
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })

	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/ping", "").Code)
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/ping", "").Code)
	rec := serve(e, http.MethodGet, "/ping", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "rate limit exceeded")
}

func TestRateLimitDisabled(t *testing.T) {
	e := echo.New()
	e.Use(RateLimit(config.RateLimitConfig{Enabled: false}, nil, zerolog.Nop()))
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/ping", "").Code)
	}
}

func TestCachePayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"ok":true}`))
	require.NoError(t, err)

	status, got, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Equal(t, `{"ok":true}`, string(body))

	_, _, _, ok = decodePayload(bs[:5])
	assert.False(t, ok)
}

func TestCacheKeySeparatesPaths(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "shop:cache", KeyStrategy: "route_query"}
	e := echo.New()
	key := func(target string) string {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
		c.SetPath("/products/:id/")
		return cacheKeyFrom(cfg, c)
	}
	assert.NotEqual(t, key("/products/1/"), key("/products/2/"))
	assert.Equal(t, key("/products/1/?a=1"), key("/products/1/?a=1"))
	assert.Regexp(t, `^shop:cache:[0-9a-f]{40}$`, key("/products/1/"))
}

func TestRedisCacheDisabledPassesThrough(t *testing.T) {
	e := echo.New()
	e.GET("/p", func(c echo.Context) error { return c.String(http.StatusOK, "x") },
		NewRedisCache(config.CacheConfig{Enabled: true}, nil, zerolog.Nop()))
	rec := serve(e, http.MethodGet, "/p", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Cache"))
}

func TestRequestIDAndLogger(t *testing.T) {
	e := echo.New()
	e.Use(RequestID(), RequestLogger(zerolog.Nop()))
	e.GET("/p", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	rec := serve(e, http.MethodGet, "/p", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Len(t, rec.Header().Get(echo.HeaderXRequestID), 36)
}
