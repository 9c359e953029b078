package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Skotchmaster/storefront/pkg/errs"
	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/services/storefront/internal/metrics"
	"github.com/Skotchmaster/storefront/services/storefront/internal/models"
	"github.com/Skotchmaster/storefront/services/storefront/internal/repo"
	"github.com/google/uuid"
)

// Pricing holds the shipping rules. A zero threshold never waives the fee.
type Pricing struct {
	ShippingFee           int64
	FreeShippingThreshold int64
}

func (p Pricing) ShippingFor(subtotal int64) int64 {
	if p.FreeShippingThreshold > 0 && subtotal >= p.FreeShippingThreshold {
		return 0
	}
	return p.ShippingFee
}

type CheckoutService struct {
	Repo       *repo.GormRepo
	Events     events.Publisher
	Timeline   repo.Timeline
	Metrics    *metrics.Metrics
	Pricing    Pricing
	PaymentTTL time.Duration
	Now        func() time.Time
}

type Summary struct {
	Cart        CartView    `json:"cart"`
	Subtotal    int64       `json:"subtotal"`
	ShippingFee int64       `json:"shipping_fee"`
	Total       int64       `json:"total"`
	Shortfalls  []Shortfall `json:"stock_errors,omitempty"`
	Purchasable bool        `json:"purchasable"`
}

type orderEvent struct {
	Type    string               `json:"type"`
	OrderID uuid.UUID            `json:"order_id"`
	UserID  uuid.UUID            `json:"user_id"`
	Status  models.OrderStatus   `json:"status"`
	Payment models.PaymentStatus `json:"payment_status"`
	Total   int64                `json:"total"`
}

func (s *CheckoutService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// shortfalls compares the per-product sum of cart lines against live stock.
func shortfalls(cart *models.Cart, products map[uuid.UUID]models.Product) []Shortfall {
	qty := cart.QuantitiesByProduct()
	ids := cart.ProductIDs()
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	var out []Shortfall
	for _, id := range ids {
		p, ok := products[id]
		if !ok {
			out = append(out, Shortfall{
				ProductID: id,
				Requested: qty[id],
				Available: 0,
				Message:   "product is no longer available",
			})
			continue
		}
		if qty[id] > p.Stock {
			out = append(out, Shortfall{
				ProductID: id,
				Name:      p.Name,
				Requested: qty[id],
				Available: p.Stock,
				Message:   fmt.Sprintf("only %d %s available (you have %d in cart)", p.Stock, p.Name, qty[id]),
			})
		}
	}
	return out
}

func (s *CheckoutService) load(ctx context.Context, userID uuid.UUID) (*models.Cart, map[uuid.UUID]models.Product, error) {
	cart, err := s.Repo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	products, err := s.Repo.GetProducts(ctx, cart.ProductIDs())
	if err != nil {
		return nil, nil, err
	}
	return cart, products, nil
}

func (s *CheckoutService) ValidateCart(ctx context.Context, userID uuid.UUID) ([]Shortfall, error) {
	cart, products, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return shortfalls(cart, products), nil
}

func (s *CheckoutService) Summary(ctx context.Context, userID uuid.UUID) (*Summary, error) {
	cart, products, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	view := buildView(cart, products)
	sum := &Summary{
		Cart:       view,
		Subtotal:   view.Total,
		Shortfalls: shortfalls(cart, products),
	}
	if len(view.Items) > 0 {
		sum.ShippingFee = s.Pricing.ShippingFor(sum.Subtotal)
	}
	sum.Total = sum.Subtotal + sum.ShippingFee
	sum.Purchasable = len(view.Items) > 0 && len(sum.Shortfalls) == 0
	return sum, nil
}

func (s *CheckoutService) buildOrder(cmd CreateOrderCommand, cart *models.Cart, products map[uuid.UUID]models.Product) *models.Order {
	order := &models.Order{
		UserID:          cmd.UserID,
		ShippingAddress: cmd.ShippingAddress,
		PaymentMethod:   cmd.PaymentMethod,
		PaymentStatus:   cmd.PaymentMethod.InitialPaymentStatus(),
		Status:          models.StatusPending,
		Items:           make([]models.OrderItem, 0, len(cart.Items)),
	}
	for _, it := range cart.Items {
		p := products[it.ProductID]
		line := models.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			Variant:   it.Variant,
			Quantity:  it.Quantity,
			UnitPrice: p.Price,
			LineTotal: p.Price * it.Quantity,
		}
		order.Items = append(order.Items, line)
		order.Subtotal += line.LineTotal
	}
	order.ShippingFee = s.Pricing.ShippingFor(order.Subtotal)
	order.Total = order.Subtotal + order.ShippingFee

	if order.PaymentStatus == models.PaymentAwaitingPayment && s.PaymentTTL > 0 {
		due := s.now().Add(s.PaymentTTL)
		order.PaymentDueAt = &due
	}
	return order
}

// CreateOrder turns the cart into an order. Stock, order and cart change together or not at all.
func (s *CheckoutService) CreateOrder(ctx context.Context, cmd CreateOrderCommand) (order *models.Order, err error) {
	start := time.Now()
	defer func() { s.Metrics.Checkout(start, err) }()

	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	err = withRetry(ctx, func() error {
		cart, products, err := s.load(ctx, cmd.UserID)
		if err != nil {
			return err
		}
		if len(cart.Items) == 0 {
			return fmt.Errorf("cart is empty: %w", errs.ErrValidation)
		}
		if sf := shortfalls(cart, products); len(sf) > 0 {
			return &StockError{Shortfalls: sf}
		}

		order = s.buildOrder(cmd, cart, products)
		return s.Repo.PlaceOrder(ctx, cart, order)
	})
	if err != nil {
		return nil, err
	}

	l := logging.FromContext(ctx)
	l.Info("order_created", "order_id", order.ID, "total", order.Total, "payment_method", order.PaymentMethod)

	if s.Timeline != nil {
		if terr := s.Timeline.Append(ctx, models.TimelineEvent{
			OrderID: order.ID,
			Type:    models.EventOrderCreated,
			To:      order.Status,
			At:      order.CreatedAt,
		}); terr != nil {
			l.Warn("timeline_append_failed", "order_id", order.ID, "error", terr)
		}
	}
	if s.Events != nil {
		if perr := s.Events.PublishEvent(ctx, events.TopicOrder, order.ID.String(), orderEvent{
			Type:    models.EventOrderCreated,
			OrderID: order.ID,
			UserID:  order.UserID,
			Status:  order.Status,
			Payment: order.PaymentStatus,
			Total:   order.Total,
		}); perr != nil {
			l.Warn("order_event_publish_failed", "order_id", order.ID, "error", perr)
		}
	}
	return order, nil
}
