package memstore

import (
	"cmp"
	"context"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/shop-backend/internal/model"
	"github.com/iliyamo/shop-backend/internal/repository"
)

// Carts is the cart_items table with its (user, product) unique key.
type Carts struct{ s *Store }

// Add creates the (user, product) row or increments its quantity.
func (r *Carts) Add(_ context.Context, userID, productID uint64, qty uint32) (model.CartItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[productID]; !ok {
		return model.CartItem{}, repository.ErrNotFound
	}
	if _, ok := r.s.users[userID]; !ok {
		return model.CartItem{}, repository.ErrNotFound
	}
	for k, it := range r.s.carts {
		if it.UserID == userID && it.ProductID == productID {
			it.Quantity = min(it.Quantity+qty, model.MaxCartQuantity)
			r.s.carts[k] = it
			return it, nil
		}
	}
	it := model.CartItem{
		ID:        r.s.next("cart_items"),
		UserID:    userID,
		ProductID: productID,
		Quantity:  qty,
		CreatedAt: r.s.now(),
	}
	r.s.carts[it.ID] = it
	return it, nil
}

func (r *Carts) ListByUser(_ context.Context, userID uint64) ([]model.CartItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return sortedValues(r.s.carts,
		func(it model.CartItem) bool { return it.UserID == userID },
		func(a, b model.CartItem) int { return cmp.Compare(a.ID, b.ID) }), nil
}

func (r *Carts) Remove(_ context.Context, userID, itemID uint64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	it, ok := r.s.carts[itemID]
	if !ok || it.UserID != userID {
		return repository.ErrNotFound
	}
	delete(r.s.carts, itemID)
	return nil
}

func (r *Carts) Clear(_ context.Context, userID uint64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.clearCart(userID)
	return nil
}

func (s *Store) clearCart(userID uint64) {
	for k, it := range s.carts {
		if it.UserID == userID {
			delete(s.carts, k)
		}
	}
}

// Orders is the orders table; items are embedded in each order.
type Orders struct{ s *Store }

// Create stores the order and its items, and optionally clears the owner's
// cart.  Nothing is written when a product is missing.
func (r *Orders) Create(_ context.Context, o *model.Order, consumed []model.CartItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[o.UserID]; !ok {
		return repository.ErrMissingReference
	}
	for _, it := range o.Items {
		if _, ok := r.s.products[it.ProductID]; !ok {
			return repository.ErrMissingReference
		}
	}
	o.ID = r.s.next("orders")
	o.CreatedAt = r.s.now()
	items := make([]model.OrderItem, len(o.Items))
	for i, it := range o.Items {
		it.ID = r.s.next("order_items")
		it.OrderID = o.ID
		items[i] = it
	}
	o.Items = items
	stored := *o
	stored.Items = slices.Clone(items)
	r.s.orders[o.ID] = stored
	for _, c := range consumed {
		it, ok := r.s.carts[c.ID]
		if !ok || it.UserID != o.UserID {
			continue
		}
		if it.Quantity <= c.Quantity {
			delete(r.s.carts, c.ID)
			continue
		}
		it.Quantity -= c.Quantity
		r.s.carts[c.ID] = it
	}
	return nil
}

// withItems returns a copy of o whose lines carry the current product name
// and image, as the SQL join does.
func (s *Store) withItems(o model.Order) model.Order {
	items := make([]model.OrderItem, len(o.Items))
	for i, it := range o.Items {
		if p, ok := s.products[it.ProductID]; ok {
			it.Name, it.Image = p.Name, p.Image
		}
		items[i] = it
	}
	o.Items = items
	return o
}

func (r *Orders) GetByID(_ context.Context, id uint64) (model.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	o, ok := r.s.orders[id]
	if !ok {
		return model.Order{}, repository.ErrNotFound
	}
	return r.s.withItems(o), nil
}

func (r *Orders) ListAll(_ context.Context) ([]model.Order, error) {
	return r.list(func(model.Order) bool { return true }), nil
}

func (r *Orders) ListByUser(_ context.Context, userID uint64) ([]model.Order, error) {
	return r.list(func(o model.Order) bool { return o.UserID == userID }), nil
}

func (r *Orders) list(keep func(model.Order) bool) []model.Order {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := sortedValues(r.s.orders, keep, func(a, b model.Order) int {
		return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	for i := range out {
		out[i] = r.s.withItems(out[i])
	}
	return out
}

// SetStatus overwrites the order status and adds the owner's notification.
func (r *Orders) SetStatus(_ context.Context, orderID uint64, status, message string) (uint64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[orderID]
	if !ok {
		return 0, repository.ErrNotFound
	}
	o.OrderStatus = status
	r.s.orders[orderID] = o
	n := model.Notification{
		ID:        r.s.next("notifications"),
		UserID:    o.UserID,
		Message:   message,
		CreatedAt: r.s.now(),
	}
	r.s.notes[n.ID] = n
	return o.UserID, nil
}

func (r *Orders) Totals(_ context.Context) (int64, decimal.Decimal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sum := decimal.Zero
	for _, o := range r.s.orders {
		sum = sum.Add(o.TotalPrice)
	}
	return int64(len(r.s.orders)), sum, nil
}

// Shipping keeps one address per user.
type Shipping struct{ s *Store }

func (r *Shipping) Upsert(_ context.Context, a *model.ShippingAddress) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[a.UserID]; !ok {
		return repository.ErrMissingReference
	}
	if cur, ok := r.s.shipping[a.UserID]; ok {
		a.ID, a.CreatedAt = cur.ID, cur.CreatedAt
	} else {
		a.ID, a.CreatedAt = r.s.next("shipping_addresses"), r.s.now()
	}
	r.s.shipping[a.UserID] = *a
	return nil
}

func (r *Shipping) ListByUser(_ context.Context, userID uint64) ([]model.ShippingAddress, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]model.ShippingAddress, 0, 1)
	if a, ok := r.s.shipping[userID]; ok {
		out = append(out, a)
	}
	return out, nil
}

// Reviews is the reviews table.
type Reviews struct{ s *Store }

func (r *Reviews) Create(_ context.Context, rv *model.Review) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[rv.ProductID]; !ok {
		return repository.ErrMissingReference
	}
	u, ok := r.s.users[rv.UserID]
	if !ok {
		return repository.ErrMissingReference
	}
	rv.ID = r.s.next("reviews")
	rv.CreatedAt = r.s.now()
	rv.AuthorName = u.FullName
	rv.ResolveDisplayName()
	r.s.reviews[rv.ID] = *rv
	return nil
}

func (r *Reviews) ListByProduct(_ context.Context, productID uint64) ([]model.Review, error) {
	return r.list(func(rv model.Review) bool { return rv.ProductID == productID }), nil
}

func (r *Reviews) ListAll(_ context.Context) ([]model.Review, error) {
	return r.list(nil), nil
}

func (r *Reviews) list(keep func(model.Review) bool) []model.Review {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := sortedValues(r.s.reviews, keep, func(a, b model.Review) int {
		return -newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	for i := range out {
		out[i].AuthorName = r.s.users[out[i].UserID].FullName
		out[i].ResolveDisplayName()
	}
	return out
}

// Chat holds direct messages and threads.
type Chat struct{ s *Store }

func (r *Chat) CreateMessage(_ context.Context, m *model.ChatMessage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	from, ok1 := r.s.users[m.SenderID]
	to, ok2 := r.s.users[m.RecipientID]
	if !ok1 || !ok2 {
		return repository.ErrNotFound
	}
	m.ID = r.s.next("chat_messages")
	m.Timestamp = r.s.now()
	m.SenderName, m.RecipientName = from.Email, to.Email
	r.s.messages[m.ID] = *m
	return nil
}

func (r *Chat) Conversation(_ context.Context, a, b uint64) ([]model.ChatMessage, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return sortedValues(r.s.messages,
		func(m model.ChatMessage) bool {
			return (m.SenderID == a && m.RecipientID == b) || (m.SenderID == b && m.RecipientID == a)
		},
		func(x, y model.ChatMessage) int { return -newestFirst(x.Timestamp, y.Timestamp, x.ID, y.ID) }), nil
}

func (r *Chat) Inbox(_ context.Context, recipientID uint64) ([]model.ChatMessage, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return sortedValues(r.s.messages,
		func(m model.ChatMessage) bool { return m.RecipientID == recipientID },
		func(x, y model.ChatMessage) int { return newestFirst(x.Timestamp, y.Timestamp, x.ID, y.ID) }), nil
}

func (r *Chat) OpenThread(_ context.Context, customerID, adminID uint64) (model.ChatThread, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok1 := r.s.users[customerID]
	_, ok2 := r.s.users[adminID]
	if !ok1 || !ok2 {
		return model.ChatThread{}, repository.ErrNotFound
	}
	for _, t := range r.s.threads {
		if t.CustomerID == customerID && t.AdminID == adminID {
			return t, nil
		}
	}
	t := model.ChatThread{ID: r.s.next("chat_threads"), CustomerID: customerID, AdminID: adminID, CreatedAt: r.s.now()}
	r.s.threads[t.ID] = t
	return t, nil
}

func (r *Chat) GetThread(_ context.Context, id uint64) (model.ChatThread, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.threads[id]
	if !ok {
		return model.ChatThread{}, repository.ErrNotFound
	}
	return t, nil
}

func (r *Chat) ThreadsFor(_ context.Context, userID uint64) ([]model.ChatThread, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return sortedValues(r.s.threads,
		func(t model.ChatThread) bool { return t.HasParticipant(userID) },
		func(a, b model.ChatThread) int { return cmp.Compare(a.ID, b.ID) }), nil
}

func (r *Chat) AddThreadMessage(_ context.Context, m *model.ThreadMessage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.threads[m.ThreadID]; !ok {
		return repository.ErrNotFound
	}
	m.ID = r.s.next("thread_messages")
	m.Timestamp = r.s.now()
	r.s.threadMsg[m.ID] = *m
	return nil
}

func (r *Chat) ThreadMessages(_ context.Context, threadID uint64) ([]model.ThreadMessage, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return sortedValues(r.s.threadMsg,
		func(m model.ThreadMessage) bool { return m.ThreadID == threadID },
		func(a, b model.ThreadMessage) int { return -newestFirst(a.Timestamp, b.Timestamp, a.ID, b.ID) }), nil
}

// Notifications is the notifications table.
type Notifications struct{ s *Store }

func (r *Notifications) ListByUser(_ context.Context, userID uint64) ([]model.Notification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return sortedValues(r.s.notes,
		func(n model.Notification) bool { return n.UserID == userID },
		func(a, b model.Notification) int { return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID) }), nil
}

func (r *Notifications) MarkRead(_ context.Context, userID, id uint64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.notes[id]
	if !ok || n.UserID != userID {
		return repository.ErrNotFound
	}
	n.IsRead = true
	r.s.notes[id] = n
	return nil
}

func (r *Notifications) MarkAllRead(_ context.Context, userID uint64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var changed int64
	for k, n := range r.s.notes {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			r.s.notes[k] = n
			changed++
		}
	}
	return changed, nil
}
