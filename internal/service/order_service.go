package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/shop-backend/internal/config"
	"github.com/iliyamo/shop-backend/internal/model"
	"github.com/iliyamo/shop-backend/internal/queue"
	"github.com/iliyamo/shop-backend/internal/repository"
)

const maxStatusLen = 20

// OrderService places orders and drives their status.
type OrderService struct {
	orders      OrderStore
	products    ProductStore
	carts       CartStore
	events      EventPublisher
	cache       CachePurger
	priceSource string
	log         zerolog.Logger
}

// NewOrderService wires the order flow.  events and cache may be nil.
func NewOrderService(orders OrderStore, products ProductStore, carts CartStore, events EventPublisher, cache CachePurger, priceSource string, log zerolog.Logger) *OrderService {
	if priceSource == "" {
		priceSource = config.PriceSourceCatalog
	}
	return &OrderService{
		orders: orders, products: products, carts: carts,
		events: events, cache: cache, priceSource: priceSource, log: log,
	}
}

// OrderLineInput is one requested line.  Price is only honoured when the
// service trusts client prices.
type OrderLineInput struct {
	ProductID uint64           `json:"product" validate:"required"`
	Quantity  int              `json:"quantity" validate:"required,gte=1,lte=10000"`
	Price     *decimal.Decimal `json:"price"`
}

// PlaceOrderInput is the body of the order creation endpoints.
type PlaceOrderInput struct {
	Items         []OrderLineInput `json:"items" validate:"dive"`
	PaymentMethod string           `json:"payment_method" validate:"max=50"`
}

// StatusMessage renders the notification text for a status change.
func StatusMessage(orderID uint64, status string) string {
	switch status {
	case model.OrderStatusPending:
		return fmt.Sprintf("Your order #%d has been placed.", orderID)
	case model.OrderStatusProcessing:
		return fmt.Sprintf("Your order #%d is being processed by the seller.", orderID)
	case model.OrderStatusShipped:
		return fmt.Sprintf("Your order #%d has been shipped from the seller's warehouse.", orderID)
	case model.OrderStatusDelivered:
		return fmt.Sprintf("Order #%d delivered successfully! Thank you for choosing us. Don't forget to give a review for a better experience.", orderID)
	case model.OrderStatusCancelled:
		return fmt.Sprintf("Your order #%d was cancelled by the seller. Please contact or chat with the seller.", orderID)
	}
	return fmt.Sprintf("Your order #%d status changed to %s.", orderID, capitalize(status))
}

// capitalize upper-cases the first rune and lower-cases the rest.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return strings.ToLower(s)
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

// Create places an order from explicit lines.
func (s *OrderService) Create(ctx context.Context, userID uint64, in PlaceOrderInput) (model.Order, error) {
	if len(in.Items) == 0 {
		return model.Order{}, invalid("items", "At least one item is required.")
	}
	return s.place(ctx, userID, in, nil)
}

// Checkout places an order and empties the cart in the same transaction.
// Without explicit lines the cart rows become the order lines.  Only the
// cart contents read here are removed; anything added meanwhile stays.
func (s *OrderService) Checkout(ctx context.Context, userID uint64, in PlaceOrderInput) (model.Order, error) {
	cart, err := s.carts.ListByUser(ctx, userID)
	if err != nil {
		return model.Order{}, fmt.Errorf("load cart: %w", err)
	}
	if len(in.Items) == 0 {
		if len(cart) == 0 {
			return model.Order{}, invalid("items", "Your cart is empty.")
		}
		for _, it := range cart {
			in.Items = append(in.Items, OrderLineInput{ProductID: it.ProductID, Quantity: int(it.Quantity)})
		}
	}
	if cart == nil {
		cart = []model.CartItem{}
	}
	return s.place(ctx, userID, in, cart)
}

// place builds and stores the order.  A non-nil consumed marks a checkout.
func (s *OrderService) place(ctx context.Context, userID uint64, in PlaceOrderInput, consumed []model.CartItem) (model.Order, error) {
	if err := check(in); err != nil {
		return model.Order{}, err
	}
	method := strings.TrimSpace(in.PaymentMethod)
	if method == "" {
		method = model.DefaultPaymentMethod
	}

	o := model.Order{
		UserID:        userID,
		TotalPrice:    decimal.Zero,
		PaymentMethod: method,
		PaymentStatus: model.PaymentStatusPending,
		OrderStatus:   model.OrderStatusPending,
		Items:         make([]model.OrderItem, 0, len(in.Items)),
	}
	for i, line := range in.Items {
		p, err := s.products.GetByID(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return model.Order{}, invalid(fmt.Sprintf("items[%d].product", i), fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", line.ProductID))
			}
			return model.Order{}, fmt.Errorf("load product: %w", err)
		}
		price, err := s.unitPrice(i, line, p)
		if err != nil {
			return model.Order{}, err
		}
		it := model.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			Image:     p.Image,
			Quantity:  uint32(line.Quantity),
			Price:     price,
		}
		o.Items = append(o.Items, it)
		o.TotalPrice = o.TotalPrice.Add(it.LineTotal())
	}

	if err := s.orders.Create(ctx, &o, consumed); err != nil {
		if errors.Is(err, repository.ErrMissingReference) {
			return model.Order{}, invalid("items", "A product in this order no longer exists.")
		}
		return model.Order{}, fmt.Errorf("create order: %w", err)
	}
	s.log.Info().Uint64("order_id", o.ID).Uint64("user_id", userID).
		Str("total", o.TotalPrice.StringFixed(2)).Int("items", len(o.Items)).Bool("checkout", consumed != nil).
		Msg("order placed")

	s.publish(ctx, queue.OrderEvent{
		Type:          queue.EventOrderPlaced,
		OrderID:       o.ID,
		UserID:        o.UserID,
		Status:        o.OrderStatus,
		PaymentMethod: o.PaymentMethod,
		Total:         o.TotalPrice.StringFixed(2),
		ItemCount:     len(o.Items),
		OccurredAt:    o.CreatedAt,
	})
	// most-selling is served from the catalog cache
	purgeCache(ctx, s.cache, s.log)
	return o, nil
}

func (s *OrderService) unitPrice(i int, line OrderLineInput, p model.Product) (decimal.Decimal, error) {
	if s.priceSource != config.PriceSourceClient || line.Price == nil {
		return p.DiscountedPrice(), nil
	}
	if line.Price.IsNegative() {
		return decimal.Zero, invalid(fmt.Sprintf("items[%d].price", i), "Ensure this value is greater than or equal to 0.")
	}
	return line.Price.Round(2), nil
}

// List returns all orders to admins and only their own to customers.
func (s *OrderService) List(ctx context.Context, actor Actor) ([]model.Order, error) {
	var (
		out []model.Order
		err error
	)
	if actor.IsAdmin() {
		out, err = s.orders.ListAll(ctx)
	} else {
		out, err = s.orders.ListByUser(ctx, actor.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return out, nil
}

// Get returns one order to its owner or an admin.  Other callers get
// ErrNotFound so order ids are not probeable.
func (s *OrderService) Get(ctx context.Context, actor Actor, id uint64) (model.Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Order{}, notFoundf("order %d not found", id)
		}
		return model.Order{}, fmt.Errorf("load order: %w", err)
	}
	if o.UserID != actor.ID && !actor.IsAdmin() {
		return model.Order{}, notFoundf("order %d not found", id)
	}
	return o, nil
}

// UpdateStatus overwrites the order status and notifies the owner.  Both
// writes commit together.
func (s *OrderService) UpdateStatus(ctx context.Context, id uint64, status string) error {
	status = strings.TrimSpace(status)
	if status == "" {
		return invalid("order_status", "This field is required.")
	}
	if utf8.RuneCountInString(status) > maxStatusLen {
		return invalid("order_status", fmt.Sprintf("Ensure this field has no more than %d characters.", maxStatusLen))
	}
	owner, err := s.orders.SetStatus(ctx, id, status, StatusMessage(id, status))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFoundf("order %d not found", id)
		}
		return fmt.Errorf("set status: %w", err)
	}
	s.log.Info().Uint64("order_id", id).Str("status", status).Msg("order status changed")
	s.publish(ctx, queue.OrderEvent{
		Type:       queue.EventOrderStatusChanged,
		OrderID:    id,
		UserID:     owner,
		Status:     status,
		OccurredAt: time.Now().UTC(),
	})
	return nil
}

// Stats summarises sales for the admin dashboard.
func (s *OrderService) Stats(ctx context.Context) (model.SalesStats, error) {
	count, revenue, err := s.orders.Totals(ctx)
	if err != nil {
		return model.SalesStats{}, fmt.Errorf("order totals: %w", err)
	}
	ranking, err := s.products.MostSelling(ctx, 0)
	if err != nil {
		return model.SalesStats{}, fmt.Errorf("most selling: %w", err)
	}
	st := model.SalesStats{TotalOrders: count, TotalRevenue: revenue, MostSellingProducts: ranking}
	if len(ranking) > 0 {
		best := ranking[0]
		st.BestProduct = &best
	}
	return st, nil
}

// publish sends ev after the write has committed.  Broker trouble is logged
// and never fails the request.
func (s *OrderService) publish(ctx context.Context, ev queue.OrderEvent) {
	if s.events == nil {
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	if err := s.events.Publish(pctx, ev); err != nil {
		s.log.Warn().Err(err).Str("event", ev.Key()).Msg("order event not published")
	}
}
