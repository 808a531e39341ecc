package router

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/shop-backend/internal/config"
	"github.com/iliyamo/shop-backend/internal/handler"
	"github.com/iliyamo/shop-backend/internal/middleware"
	"github.com/iliyamo/shop-backend/internal/queue"
	"github.com/iliyamo/shop-backend/internal/repository/memstore"
	"github.com/iliyamo/shop-backend/internal/service"
)

const secret = "router-test-secret"

type sink struct{ events []queue.OrderEvent }

func (s *sink) Publish(_ context.Context, ev queue.OrderEvent) error {
	s.events = append(s.events, ev)
	return nil
}

type app struct {
	e      *echo.Echo
	store  *memstore.Store
	events *sink
}

func setupApp(t *testing.T) *app {
	t.Helper()
	log := zerolog.Nop()
	store := memstore.New()
	events := &sink{}

	authSvc := service.NewAuthService(store.Users(), store.Tokens(), service.AuthConfig{
		JWTSecret: secret, AccessTTLMin: 15, RefreshTTLDays: 7, BcryptCost: 4,
	}, log)
	userSvc := service.NewUserService(store.Users(), store.Tokens(), nil, 4, log)
	catalogSvc := service.NewCatalogService(store.Products(), store.Users(), nil, nil, log)
	reviewSvc := service.NewReviewService(store.Reviews(), store.Products(), nil, log)
	orderSvc := service.NewOrderService(store.Orders(), store.Products(), store.Carts(), events, nil, config.PriceSourceCatalog, log)

	_, err := userSvc.EnsureAdmin(context.Background(), "admin@example.com", "admin-pass-1", "Admin")
	require.NoError(t, err)

	e := echo.New()
	UseGlobal(e, Globals{Log: log, BodyLimit: "1M"}, "/media")
	RegisterRoutes(e, nil, "", "/media")
	guard := Auth{Secret: secret, Accounts: store.Users()}
	RegisterAuth(e, handler.NewAuthHandler(authSvc, userSvc, log), guard)
	RegisterCatalog(e, handler.NewProductHandler(catalogSvc, reviewSvc, log), guard,
		middleware.NewRedisCache(config.CacheConfig{}, nil, log))
	shop := Shop{
		Cart:          handler.NewCartHandler(service.NewCartService(store.Carts(), store.Products()), log),
		Orders:        handler.NewOrderHandler(orderSvc, log),
		Notifications: handler.NewNotificationHandler(service.NewNotificationService(store.Notifications()), log),
		Shipping:      handler.NewShippingHandler(service.NewShippingService(store.Shipping()), log),
		Chat:          handler.NewChatHandler(service.NewChatService(store.Chat(), store.Users()), userSvc, log),
	}
	RegisterCustomer(e, shop, guard)
	RegisterAdmin(e, handler.NewUserAdminHandler(userSvc, log), shop, guard)
	return &app{e: e, store: store, events: events}
}

func (a *app) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.e.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type session struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
	User    struct {
		ID   uint64 `json:"id"`
		Role string `json:"role"`
	} `json:"user"`
}

func (a *app) login(t *testing.T, email, password string) session {
	t.Helper()
	w := a.do(t, http.MethodPost, "/login/", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[session](t, w)
}

func (a *app) customer(t *testing.T, email string) session {
	t.Helper()
	w := a.do(t, http.MethodPost, "/register/", "", map[string]string{
		"email": email, "password": "customer-pass", "full_name": "Jane Doe",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return a.login(t, email, "customer-pass")
}

func (a *app) product(t *testing.T, admin session, name, price string) uint64 {
	t.Helper()
	w := a.do(t, http.MethodPost, "/products/", admin.Access, map[string]any{
		"name": name, "brand": "Acme", "price": price, "discount": 0,
		"quantity": 10, "description": "", "category": "kitchen",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[struct {
		ID uint64 `json:"id"`
	}](t, w).ID
}

func TestHealthz(t *testing.T) {
	a := setupApp(t)
	w := a.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestAuthFlow(t *testing.T) {
	a := setupApp(t)
	s := a.customer(t, "jane@example.com")
	assert.Equal(t, "customer", s.User.Role)

	w := a.do(t, http.MethodPost, "/register/", "", map[string]string{"email": "JANE@example.com", "password": "another-pass"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = a.do(t, http.MethodPost, "/register/", "", map[string]string{"email": "not-an-email", "password": "short"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	fields := decode[map[string]string](t, w)
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")

	w = a.do(t, http.MethodPost, "/login/", "", map[string]string{"email": "jane@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(t, http.MethodGet, "/me/", s.Access, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Jane Doe", decode[map[string]any](t, w)["full_name"])

	w = a.do(t, http.MethodGet, "/me/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(t, http.MethodPost, "/token/refresh/", "", map[string]string{"refresh": s.Refresh})
	require.Equal(t, http.StatusOK, w.Code)
	rotated := decode[session](t, w)
	assert.NotEqual(t, s.Refresh, rotated.Refresh)

	w = a.do(t, http.MethodPost, "/token/refresh/", "", map[string]string{"refresh": s.Refresh})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(t, http.MethodPost, "/logout/", "", map[string]string{"refresh": rotated.Refresh})
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = a.do(t, http.MethodPost, "/token/refresh/", "", map[string]string{"refresh": rotated.Refresh})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMissingTrailingSlashIsRewritten(t *testing.T) {
	a := setupApp(t)
	w := a.do(t, http.MethodGet, "/products", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminRoutesRejectCustomers(t *testing.T) {
	a := setupApp(t)
	s := a.customer(t, "jane@example.com")
	for _, path := range []string{"/users/", "/dashboard/stats/", "/chat/admin/messages/"} {
		w := a.do(t, http.MethodGet, path, s.Access, nil)
		assert.Equal(t, http.StatusForbidden, w.Code, path)
	}
	w := a.do(t, http.MethodPost, "/products/", s.Access, map[string]any{"name": "x"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = a.do(t, http.MethodGet, "/users/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRoleFollowsAccountFlags(t *testing.T) {
	a := setupApp(t)
	admin := a.login(t, "admin@example.com", "admin-pass-1")
	s := a.customer(t, "jane@example.com")
	user := "/users/" + strconv.FormatUint(s.User.ID, 10) + "/"

	w := a.do(t, http.MethodPatch, user, admin.Access, map[string]bool{"is_staff": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = a.do(t, http.MethodGet, "/users/", s.Access, nil)
	assert.Equal(t, http.StatusOK, w.Code, "promotion applies to the token already held")

	w = a.do(t, http.MethodPatch, user, admin.Access, map[string]bool{"is_staff": false})
	require.Equal(t, http.StatusOK, w.Code)
	w = a.do(t, http.MethodGet, "/users/", s.Access, nil)
	assert.Equal(t, http.StatusForbidden, w.Code, "demotion applies to the token already held")
}

func TestBlockedAccountIsLockedOut(t *testing.T) {
	a := setupApp(t)
	admin := a.login(t, "admin@example.com", "admin-pass-1")
	kettle := a.product(t, admin, "Kettle", "12.50")
	s := a.customer(t, "jane@example.com")
	w := a.do(t, http.MethodPost, "/cart/", s.Access, map[string]any{"product_id": kettle})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	user := "/users/" + strconv.FormatUint(s.User.ID, 10) + "/"
	w = a.do(t, http.MethodPatch, user, admin.Access, map[string]bool{"is_active": false})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	for _, path := range []string{"/cart/", "/orders/", "/me/"} {
		w = a.do(t, http.MethodGet, path, s.Access, nil)
		assert.Equal(t, http.StatusForbidden, w.Code, path)
		assert.Contains(t, w.Body.String(), "blocked", path)
	}
	w = a.do(t, http.MethodPost, "/orders/checkout/", s.Access, map[string]any{})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, a.events.events)

	// sessions revoked on block stay revoked after reactivation
	w = a.do(t, http.MethodPatch, user, admin.Access, map[string]bool{"is_active": true})
	require.Equal(t, http.StatusOK, w.Code)
	w = a.do(t, http.MethodPost, "/token/refresh/", "", map[string]string{"refresh": s.Refresh})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = a.do(t, http.MethodGet, "/cart/", s.Access, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDeletedAccountTokenIsInvalid(t *testing.T) {
	a := setupApp(t)
	admin := a.login(t, "admin@example.com", "admin-pass-1")
	s := a.customer(t, "jane@example.com")

	w := a.do(t, http.MethodDelete, "/users/"+strconv.FormatUint(s.User.ID, 10)+"/", admin.Access, nil)
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
	w = a.do(t, http.MethodGet, "/cart/", s.Access, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid token")
}

type orderView struct {
	ID          uint64          `json:"id"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	OrderStatus string          `json:"order_status"`
	Items       []struct {
		Product  uint64 `json:"product"`
		Name     string `json:"name"`
		Quantity int    `json:"quantity"`
	} `json:"items"`
}

func TestCheckoutFlow(t *testing.T) {
	a := setupApp(t)
	admin := a.login(t, "admin@example.com", "admin-pass-1")
	s := a.customer(t, "jane@example.com")
	kettle := a.product(t, admin, "Kettle", "12.50")

	w := a.do(t, http.MethodPost, "/cart/", s.Access, map[string]any{"product_id": kettle})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = a.do(t, http.MethodPost, "/cart/", s.Access, map[string]any{"product_id": kettle, "quantity": 1})
	require.Equal(t, http.StatusCreated, w.Code)

	w = a.do(t, http.MethodPost, "/orders/checkout/", s.Access, map[string]any{"payment_method": "COD"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	o := decode[orderView](t, w)
	assert.True(t, decimal.RequireFromString("25.00").Equal(o.TotalPrice), o.TotalPrice.String())
	require.Len(t, o.Items, 1)
	assert.Equal(t, 2, o.Items[0].Quantity)
	assert.Equal(t, "Kettle", o.Items[0].Name)
	require.Len(t, a.events.events, 1)
	assert.Equal(t, "25.00", a.events.events[0].Total)

	w = a.do(t, http.MethodGet, "/cart/", s.Access, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	w = a.do(t, http.MethodPost, "/orders/checkout/", s.Access, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	path := "/orders/" + strconv.FormatUint(o.ID, 10) + "/status/"
	w = a.do(t, http.MethodPatch, path, s.Access, map[string]string{"order_status": "delivered"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = a.do(t, http.MethodPatch, path, admin.Access, map[string]string{"order_status": "delivered"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())

	w = a.do(t, http.MethodGet, "/notifications/", s.Access, nil)
	require.Equal(t, http.StatusOK, w.Code)
	notes := decode[[]struct {
		ID      uint64 `json:"id"`
		Message string `json:"message"`
		IsRead  bool   `json:"is_read"`
	}](t, w)
	require.Len(t, notes, 1)
	assert.Contains(t, notes[0].Message, "delivered")
	assert.False(t, notes[0].IsRead)

	w = a.do(t, http.MethodPost, "/notifications/read-all/", s.Access, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(t, http.MethodGet, "/dashboard/stats/", admin.Access, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[struct {
		TotalOrders  int64           `json:"total_orders"`
		TotalRevenue decimal.Decimal `json:"total_revenue"`
		BestProduct  *struct {
			Name         string `json:"name"`
			QuantitySold int64  `json:"quantity_sold"`
		} `json:"best_product"`
	}](t, w)
	assert.Equal(t, int64(1), stats.TotalOrders)
	assert.True(t, decimal.RequireFromString("25").Equal(stats.TotalRevenue))
	require.NotNil(t, stats.BestProduct)
	assert.Equal(t, "Kettle", stats.BestProduct.Name)
	assert.Equal(t, int64(2), stats.BestProduct.QuantitySold)
}

func TestOrdersAreScopedToOwner(t *testing.T) {
	a := setupApp(t)
	admin := a.login(t, "admin@example.com", "admin-pass-1")
	jane := a.customer(t, "jane@example.com")
	bob := a.customer(t, "bob@example.com")
	mug := a.product(t, admin, "Mug", "4.00")

	w := a.do(t, http.MethodPost, "/orders/create/", jane.Access, map[string]any{
		"items": []map[string]any{{"product": mug, "quantity": 3}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	o := decode[orderView](t, w)

	w = a.do(t, http.MethodGet, "/orders/"+strconv.FormatUint(o.ID, 10)+"/", bob.Access, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(t, http.MethodGet, "/orders/", bob.Access, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]orderView](t, w))

	w = a.do(t, http.MethodGet, "/orders/", admin.Access, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]orderView](t, w), 1)
}

func TestProductMultipartAndReviews(t *testing.T) {
	a := setupApp(t)
	admin := a.login(t, "admin@example.com", "admin-pass-1")
	s := a.customer(t, "jane@example.com")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range map[string]string{
		"name": "Lamp", "brand": "Lumo", "price": "30.00", "discount": "10",
		"quantity": "5", "description": "Desk lamp", "category": "lighting",
	} {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/products/", &body)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+admin.Access)
	w := httptest.NewRecorder()
	a.e.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	p := decode[struct {
		ID              uint64          `json:"id"`
		DiscountedPrice decimal.Decimal `json:"discounted_price"`
	}](t, w)
	assert.True(t, decimal.RequireFromString("27").Equal(p.DiscountedPrice), p.DiscountedPrice.String())

	w = a.do(t, http.MethodGet, "/products/?search=desk", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w), 1)

	reviews := "/products/" + strconv.FormatUint(p.ID, 10) + "/reviews/"
	w = a.do(t, http.MethodPost, reviews, "", map[string]any{"rating": 5, "comment": "bright"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = a.do(t, http.MethodPost, reviews, s.Access, map[string]any{"rating": 5, "comment": "bright", "anonymous": true})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = a.do(t, http.MethodGet, reviews, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]struct {
		DisplayName string `json:"display_name"`
	}](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, "Anonymous", list[0].DisplayName)

	w = a.do(t, http.MethodGet, "/products/999/reviews/", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChatFlow(t *testing.T) {
	a := setupApp(t)
	admin := a.login(t, "admin@example.com", "admin-pass-1")
	s := a.customer(t, "jane@example.com")

	w := a.do(t, http.MethodGet, "/chat/admin-id/", s.Access, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, admin.User.ID, decode[struct {
		AdminID uint64 `json:"admin_id"`
	}](t, w).AdminID)

	w = a.do(t, http.MethodPost, "/chat/", s.Access, map[string]any{"recipient": admin.User.ID, "message": "hello"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = a.do(t, http.MethodGet, "/chat/admin/messages/", admin.Access, nil)
	require.Equal(t, http.StatusOK, w.Code)
	inbox := decode[[]struct {
		SenderID    uint64 `json:"sender_id"`
		SenderEmail string `json:"sender_email"`
		Message     string `json:"message"`
	}](t, w)
	require.Len(t, inbox, 1)
	assert.Equal(t, "jane@example.com", inbox[0].SenderEmail)
	assert.Equal(t, s.User.ID, inbox[0].SenderID)

	w = a.do(t, http.MethodGet, "/chat/?with="+strconv.FormatUint(s.User.ID, 10), admin.Access, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w), 1)

	w = a.do(t, http.MethodPost, "/chat/threads/", s.Access, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	thread := decode[struct {
		ID    uint64 `json:"id"`
		Admin uint64 `json:"admin"`
	}](t, w)
	assert.Equal(t, admin.User.ID, thread.Admin)

	msgs := "/chat/threads/" + strconv.FormatUint(thread.ID, 10) + "/messages/"
	w = a.do(t, http.MethodPost, msgs, s.Access, map[string]string{"text": "order is late"})
	require.Equal(t, http.StatusCreated, w.Code)
	w = a.do(t, http.MethodGet, msgs, admin.Access, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w), 1)

	other := a.customer(t, "bob@example.com")
	w = a.do(t, http.MethodGet, msgs, other.Access, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestShippingAddressUpsert(t *testing.T) {
	a := setupApp(t)
	s := a.customer(t, "jane@example.com")
	addr := map[string]string{"address": "1 Main St", "city": "Springfield", "zip_code": "12345", "country": "US", "phone": "555-0100"}

	w := a.do(t, http.MethodPost, "/shipping-addresses/", s.Access, addr)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	addr["city"] = "Shelbyville"
	w = a.do(t, http.MethodPost, "/shipping-addresses/", s.Access, addr)
	require.Equal(t, http.StatusCreated, w.Code)

	w = a.do(t, http.MethodGet, "/shipping-addresses/", s.Access, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]struct {
		City string `json:"city"`
	}](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, "Shelbyville", list[0].City)
}
