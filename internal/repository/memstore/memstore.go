// Package memstore is an in-memory implementation of the shop stores.  It
// mirrors the MySQL repositories closely enough to back service and handler
// tests: the same sentinel errors, unique keys, cascades and orderings.
package memstore

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/shop-backend/internal/model"
	"github.com/iliyamo/shop-backend/internal/repository"
)

type refreshToken struct {
	userID  uint64
	exp     time.Time
	revoked bool
}

// Store holds every table behind a single lock.  Use the typed views
// (Users, Orders, ...) to obtain the per-table store interfaces.
type Store struct {
	mu  sync.RWMutex
	seq map[string]uint64
	now func() time.Time

	users     map[uint64]model.User
	tokens    map[string]refreshToken
	products  map[uint64]model.Product
	carts     map[uint64]model.CartItem
	orders    map[uint64]model.Order
	shipping  map[uint64]model.ShippingAddress // by user id
	reviews   map[uint64]model.Review
	messages  map[uint64]model.ChatMessage
	threads   map[uint64]model.ChatThread
	threadMsg map[uint64]model.ThreadMessage
	notes     map[uint64]model.Notification
}

func New() *Store {
	return &Store{
		seq:       make(map[string]uint64),
		now:       func() time.Time { return time.Now().UTC() },
		users:     make(map[uint64]model.User),
		tokens:    make(map[string]refreshToken),
		products:  make(map[uint64]model.Product),
		carts:     make(map[uint64]model.CartItem),
		orders:    make(map[uint64]model.Order),
		shipping:  make(map[uint64]model.ShippingAddress),
		reviews:   make(map[uint64]model.Review),
		messages:  make(map[uint64]model.ChatMessage),
		threads:   make(map[uint64]model.ChatThread),
		threadMsg: make(map[uint64]model.ThreadMessage),
		notes:     make(map[uint64]model.Notification),
	}
}

// SetClock replaces the timestamp source.  Tests use it to get stable
// orderings.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

func (s *Store) next(table string) uint64 {
	s.seq[table]++
	return s.seq[table]
}

// sortedValues returns the rows of m ordered by less.
func sortedValues[V any](m map[uint64]V, keep func(V) bool, less func(a, b V) int) []V {
	out := make([]V, 0, len(m))
	for _, v := range m {
		if keep == nil || keep(v) {
			out = append(out, v)
		}
	}
	slices.SortFunc(out, less)
	return out
}

// newestFirst orders by timestamp descending and then id descending.
func newestFirst(at1, at2 time.Time, id1, id2 uint64) int {
	if c := at2.Compare(at1); c != 0 {
		return c
	}
	return cmp.Compare(id2, id1)
}

func (s *Store) Users() *Users                 { return &Users{s} }
func (s *Store) Tokens() *Tokens               { return &Tokens{s} }
func (s *Store) Products() *Products           { return &Products{s} }
func (s *Store) Carts() *Carts                 { return &Carts{s} }
func (s *Store) Orders() *Orders               { return &Orders{s} }
func (s *Store) Shipping() *Shipping           { return &Shipping{s} }
func (s *Store) Reviews() *Reviews             { return &Reviews{s} }
func (s *Store) Chat() *Chat                   { return &Chat{s} }
func (s *Store) Notifications() *Notifications { return &Notifications{s} }

// Users is the users table.
type Users struct{ s *Store }

func (r *Users) emailTaken(email string, except uint64) bool {
	for _, u := range r.s.users {
		if u.Email == email && u.ID != except {
			return true
		}
	}
	return false
}

func (r *Users) Create(_ context.Context, u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if r.emailTaken(u.Email, 0) {
		return repository.ErrEmailExists
	}
	u.ID = r.s.next("users")
	u.CreatedAt = r.s.now()
	u.UpdatedAt = u.CreatedAt
	r.s.users[u.ID] = *u
	return nil
}

func (r *Users) GetByEmail(_ context.Context, email string) (model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range r.s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (r *Users) GetByID(_ context.Context, id uint64) (model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (r *Users) List(_ context.Context) ([]model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return sortedValues(r.s.users, nil, func(a, b model.User) int { return cmp.Compare(a.ID, b.ID) }), nil
}

func (r *Users) ListCustomers(_ context.Context) ([]model.ChatUser, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	users := sortedValues(r.s.users,
		func(u model.User) bool { return !u.IsStaff && !u.IsSuperuser },
		func(a, b model.User) int { return cmp.Compare(a.ID, b.ID) })
	out := make([]model.ChatUser, 0, len(users))
	for _, u := range users {
		out = append(out, model.ChatUser{ID: u.ID, Email: u.Email, FullName: u.FullName})
	}
	return out, nil
}

func (r *Users) FirstStaffID(_ context.Context) (uint64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var id uint64
	for _, u := range r.s.users {
		if u.IsStaff && (id == 0 || u.ID < id) {
			id = u.ID
		}
	}
	if id == 0 {
		return 0, repository.ErrNotFound
	}
	return id, nil
}

func (r *Users) UpdateProfile(_ context.Context, u model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.users[u.ID]
	if !ok {
		return repository.ErrNotFound
	}
	email := strings.ToLower(strings.TrimSpace(u.Email))
	if r.emailTaken(email, u.ID) {
		return repository.ErrEmailExists
	}
	cur.Email, cur.FullName, cur.Contact, cur.Address = email, u.FullName, u.Contact, u.Address
	cur.UpdatedAt = r.s.now()
	r.s.users[u.ID] = cur
	return nil
}

func (r *Users) UpdateFlags(_ context.Context, id uint64, isActive, isStaff bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.IsActive, u.IsStaff = isActive, isStaff
	u.UpdatedAt = r.s.now()
	r.s.users[id] = u
	return nil
}

// Delete removes the user and every row that references it.
func (r *Users) Delete(_ context.Context, id uint64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.users, id)
	delete(r.s.shipping, id)
	for h, t := range r.s.tokens {
		if t.userID == id {
			delete(r.s.tokens, h)
		}
	}
	for k, it := range r.s.carts {
		if it.UserID == id {
			delete(r.s.carts, k)
		}
	}
	for k, o := range r.s.orders {
		if o.UserID == id {
			delete(r.s.orders, k)
		}
	}
	for k, rv := range r.s.reviews {
		if rv.UserID == id {
			delete(r.s.reviews, k)
		}
	}
	for k, m := range r.s.messages {
		if m.SenderID == id || m.RecipientID == id {
			delete(r.s.messages, k)
		}
	}
	for k, t := range r.s.threads {
		if t.HasParticipant(id) {
			r.s.dropThread(k)
		}
	}
	for k, m := range r.s.threadMsg {
		if m.SenderID == id {
			delete(r.s.threadMsg, k)
		}
	}
	for k, n := range r.s.notes {
		if n.UserID == id {
			delete(r.s.notes, k)
		}
	}
	return nil
}

func (s *Store) dropThread(id uint64) {
	delete(s.threads, id)
	for k, m := range s.threadMsg {
		if m.ThreadID == id {
			delete(s.threadMsg, k)
		}
	}
}

// Tokens is the refresh_tokens table keyed by hash.
type Tokens struct{ s *Store }

func (r *Tokens) StoreRefresh(_ context.Context, userID uint64, tokenHash string, exp time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, dup := r.s.tokens[tokenHash]; dup {
		return repository.ErrConflict
	}
	if _, ok := r.s.users[userID]; !ok {
		return repository.ErrMissingReference
	}
	r.s.tokens[tokenHash] = refreshToken{userID: userID, exp: exp}
	return nil
}

func (r *Tokens) ValidateRefresh(_ context.Context, tokenHash string) (uint64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.tokens[tokenHash]
	if !ok || t.revoked || r.s.now().After(t.exp) {
		return 0, repository.ErrNotFound
	}
	return t.userID, nil
}

func (r *Tokens) RevokeByHash(_ context.Context, tokenHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if t, ok := r.s.tokens[tokenHash]; ok {
		t.revoked = true
		r.s.tokens[tokenHash] = t
	}
	return nil
}

func (r *Tokens) RevokeAllForUser(_ context.Context, userID uint64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for h, t := range r.s.tokens {
		if t.userID == userID {
			t.revoked = true
			r.s.tokens[h] = t
		}
	}
	return nil
}

// Products is the products table.
type Products struct{ s *Store }

func (r *Products) Create(_ context.Context, p *model.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p.ID = r.s.next("products")
	p.CreatedAt = r.s.now()
	r.s.products[p.ID] = *p
	return nil
}

func (r *Products) GetByID(_ context.Context, id uint64) (model.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.products[id]
	if !ok {
		return model.Product{}, repository.ErrNotFound
	}
	return p, nil
}

func (r *Products) Update(_ context.Context, p model.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.products[p.ID]
	if !ok {
		return repository.ErrNotFound
	}
	p.CreatedAt = cur.CreatedAt
	r.s.products[p.ID] = p
	return nil
}

// Delete removes the product with its cart rows, order lines and reviews.
func (r *Products) Delete(_ context.Context, id uint64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.products, id)
	for k, it := range r.s.carts {
		if it.ProductID == id {
			delete(r.s.carts, k)
		}
	}
	for k, rv := range r.s.reviews {
		if rv.ProductID == id {
			delete(r.s.reviews, k)
		}
	}
	for k, o := range r.s.orders {
		o.Items = slices.DeleteFunc(o.Items, func(it model.OrderItem) bool { return it.ProductID == id })
		r.s.orders[k] = o
	}
	return nil
}

func (r *Products) List(_ context.Context, f repository.ProductFilter) ([]model.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	search := strings.ToLower(strings.TrimSpace(f.Search))
	category := strings.TrimSpace(f.Category)
	keep := func(p model.Product) bool {
		if category != "" && !strings.EqualFold(p.Category, category) {
			return false
		}
		if search == "" {
			return true
		}
		for _, field := range []string{p.Name, p.Brand, p.Description} {
			if strings.Contains(strings.ToLower(field), search) {
				return true
			}
		}
		return false
	}
	return sortedValues(r.s.products, keep, func(a, b model.Product) int {
		return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	}), nil
}

// MostSelling ranks products by the units ordered.  limit <= 0 returns all.
func (r *Products) MostSelling(_ context.Context, limit int) ([]model.ProductSales, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sold := make(map[uint64]int64)
	for _, o := range r.s.orders {
		for _, it := range o.Items {
			sold[it.ProductID] += int64(it.Quantity)
		}
	}
	out := make([]model.ProductSales, 0, len(sold))
	for id, n := range sold {
		p, ok := r.s.products[id]
		if !ok {
			continue
		}
		out = append(out, model.ProductSales{ProductID: id, Name: p.Name, Image: p.Image, QuantitySold: n})
	}
	slices.SortFunc(out, func(a, b model.ProductSales) int {
		if c := cmp.Compare(b.QuantitySold, a.QuantitySold); c != 0 {
			return c
		}
		return cmp.Compare(a.ProductID, b.ProductID)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
