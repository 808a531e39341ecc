package service

import (
	"context"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/shop-backend/internal/model"
	"github.com/iliyamo/shop-backend/internal/queue"
	"github.com/iliyamo/shop-backend/internal/repository"
)

// Store contracts.  The MySQL repositories and the in-memory store both
// satisfy them and report failures with the repository sentinel errors.

type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	List(ctx context.Context) ([]model.User, error)
	ListCustomers(ctx context.Context) ([]model.ChatUser, error)
	FirstStaffID(ctx context.Context) (uint64, error)
	UpdateProfile(ctx context.Context, u model.User) error
	UpdateFlags(ctx context.Context, id uint64, isActive, isStaff bool) error
	Delete(ctx context.Context, id uint64) error
}

type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

type ProductStore interface {
	Create(ctx context.Context, p *model.Product) error
	GetByID(ctx context.Context, id uint64) (model.Product, error)
	Update(ctx context.Context, p model.Product) error
	Delete(ctx context.Context, id uint64) error
	List(ctx context.Context, f repository.ProductFilter) ([]model.Product, error)
	MostSelling(ctx context.Context, limit int) ([]model.ProductSales, error)
}

type CartStore interface {
	Add(ctx context.Context, userID, productID uint64, qty uint32) (model.CartItem, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.CartItem, error)
	Remove(ctx context.Context, userID, itemID uint64) error
	Clear(ctx context.Context, userID uint64) error
}

type OrderStore interface {
	Create(ctx context.Context, o *model.Order, consumed []model.CartItem) error
	GetByID(ctx context.Context, id uint64) (model.Order, error)
	ListAll(ctx context.Context) ([]model.Order, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Order, error)
	SetStatus(ctx context.Context, orderID uint64, status, message string) (uint64, error)
	Totals(ctx context.Context) (int64, decimal.Decimal, error)
}

type ShippingStore interface {
	Upsert(ctx context.Context, a *model.ShippingAddress) error
	ListByUser(ctx context.Context, userID uint64) ([]model.ShippingAddress, error)
}

type ReviewStore interface {
	Create(ctx context.Context, r *model.Review) error
	ListByProduct(ctx context.Context, productID uint64) ([]model.Review, error)
	ListAll(ctx context.Context) ([]model.Review, error)
}

type ChatStore interface {
	CreateMessage(ctx context.Context, m *model.ChatMessage) error
	Conversation(ctx context.Context, a, b uint64) ([]model.ChatMessage, error)
	Inbox(ctx context.Context, recipientID uint64) ([]model.ChatMessage, error)
	OpenThread(ctx context.Context, customerID, adminID uint64) (model.ChatThread, error)
	GetThread(ctx context.Context, id uint64) (model.ChatThread, error)
	ThreadsFor(ctx context.Context, userID uint64) ([]model.ChatThread, error)
	AddThreadMessage(ctx context.Context, m *model.ThreadMessage) error
	ThreadMessages(ctx context.Context, threadID uint64) ([]model.ThreadMessage, error)
}

type NotificationStore interface {
	ListByUser(ctx context.Context, userID uint64) ([]model.Notification, error)
	MarkRead(ctx context.Context, userID, id uint64) error
	MarkAllRead(ctx context.Context, userID uint64) (int64, error)
}

// ImageStore persists product images and returns their public URL.
type ImageStore interface {
	SaveImage(ctx context.Context, filename string, r io.Reader) (string, error)
	DeleteImage(ctx context.Context, url string) error
}

// CachePurger drops cached catalog responses after a write.
type CachePurger interface {
	Purge(ctx context.Context) error
}

// EventPublisher delivers order events.  queue.Publisher satisfies it.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.OrderEvent) error
}

// Actor is the authenticated caller of a use case.
type Actor struct {
	ID   uint64
	Role string
}

func (a Actor) IsAdmin() bool { return a.Role == model.RoleAdmin }
