package service

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/shop-backend/internal/model"
	"github.com/iliyamo/shop-backend/internal/queue"
	"github.com/iliyamo/shop-backend/internal/repository"
	"github.com/iliyamo/shop-backend/internal/repository/memstore"
	"github.com/iliyamo/shop-backend/internal/utils"
)

var (
	_ UserStore         = (*memstore.Users)(nil)
	_ TokenStore        = (*memstore.Tokens)(nil)
	_ ProductStore      = (*memstore.Products)(nil)
	_ CartStore         = (*memstore.Carts)(nil)
	_ OrderStore        = (*memstore.Orders)(nil)
	_ ShippingStore     = (*memstore.Shipping)(nil)
	_ ReviewStore       = (*memstore.Reviews)(nil)
	_ ChatStore         = (*memstore.Chat)(nil)
	_ NotificationStore = (*memstore.Notifications)(nil)

	_ UserStore         = (*repository.UserRepo)(nil)
	_ TokenStore        = (*repository.TokenRepo)(nil)
	_ ProductStore      = (*repository.ProductRepo)(nil)
	_ CartStore         = (*repository.CartRepo)(nil)
	_ OrderStore        = (*repository.OrderRepo)(nil)
	_ ShippingStore     = (*repository.ShippingRepo)(nil)
	_ ReviewStore       = (*repository.ReviewRepo)(nil)
	_ ChatStore         = (*repository.ChatRepo)(nil)
	_ NotificationStore = (*repository.NotificationRepo)(nil)
)

// recorder captures published events and cache purges.
type recorder struct {
	mu     sync.Mutex
	events []queue.OrderEvent
	purges int
	err    error
}

func (r *recorder) Publish(_ context.Context, ev queue.OrderEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *recorder) Purge(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.purges++
	return nil
}

type fixture struct {
	store *memstore.Store
	rec   *recorder
}

func newFixture() *fixture {
	return &fixture{store: memstore.New(), rec: &recorder{}}
}

func (f *fixture) user(t *testing.T, email string, admin bool) model.User {
	t.Helper()
	hash, err := utils.HashPassword("secret-pass", 4)
	require.NoError(t, err)
	u := model.User{Email: email, PasswordHash: hash, FullName: "User " + email, IsActive: true, IsStaff: admin}
	require.NoError(t, f.store.Users().Create(context.Background(), &u))
	return u
}

func (f *fixture) product(t *testing.T, name, price string, discount int) model.Product {
	t.Helper()
	p := model.Product{Name: name, Brand: "Acme", Price: decimal.RequireFromString(price), Discount: discount, Quantity: 10, Category: "home"}
	require.NoError(t, f.store.Products().Create(context.Background(), &p))
	return p
}

func (f *fixture) orders(source string) *OrderService {
	return NewOrderService(f.store.Orders(), f.store.Products(), f.store.Carts(), f.rec, f.rec, source, zerolog.Nop())
}

func (f *fixture) carts() *CartService {
	return NewCartService(f.store.Carts(), f.store.Products())
}

func (f *fixture) auth() *AuthService {
	cfg := AuthConfig{JWTSecret: "test-secret", AccessTTLMin: 15, RefreshTTLDays: 7, BcryptCost: 4}
	return NewAuthService(f.store.Users(), f.store.Tokens(), cfg, zerolog.Nop())
}

func customer(u model.User) Actor { return Actor{ID: u.ID, Role: u.Role()} }

func ptr[T any](v T) *T { return &v }
