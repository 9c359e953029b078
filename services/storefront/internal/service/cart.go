package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skotchmaster/storefront/pkg/errs"
	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/services/storefront/internal/metrics"
	"github.com/Skotchmaster/storefront/services/storefront/internal/models"
	"github.com/Skotchmaster/storefront/services/storefront/internal/repo"
	"github.com/google/uuid"
)

type CartService struct {
	Repo    *repo.GormRepo
	Events  events.Publisher
	Metrics *metrics.Metrics
}

type CartLine struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Variant   string    `json:"variant,omitempty"`
	UnitPrice int64     `json:"unit_price"`
	Quantity  int64     `json:"quantity"`
	LineTotal int64     `json:"line_total"`
	Stock     int64     `json:"stock"`
}

// CartView is the cart as shown to the shopper; Total is always derived.
type CartView struct {
	ID      uuid.UUID  `json:"id"`
	Version int64      `json:"version"`
	Items   []CartLine `json:"items"`
	Count   int64      `json:"count"`
	Total   int64      `json:"total"`
}

type AddResult struct {
	Cart             CartView `json:"cart"`
	Added            int64    `json:"added"`
	AdjustedQuantity int64    `json:"adjusted_quantity,omitempty"`
	Warning          string   `json:"warning,omitempty"`
}

type cartEvent struct {
	Type      string    `json:"type"`
	UserID    uuid.UUID `json:"user_id"`
	ProductID uuid.UUID `json:"product_id,omitempty"`
	Quantity  int64     `json:"quantity,omitempty"`
}

func buildView(cart *models.Cart, products map[uuid.UUID]models.Product) CartView {
	v := CartView{ID: cart.ID, Version: cart.Version, Items: make([]CartLine, 0, len(cart.Items))}
	for _, it := range cart.Items {
		p, ok := products[it.ProductID]
		if !ok {
			continue
		}
		line := CartLine{
			ID:        it.ID,
			ProductID: it.ProductID,
			Name:      p.Name,
			Variant:   it.Variant,
			UnitPrice: p.Price,
			Quantity:  it.Quantity,
			LineTotal: p.Price * it.Quantity,
			Stock:     p.Stock,
		}
		v.Items = append(v.Items, line)
		v.Count += it.Quantity
		v.Total += line.LineTotal
	}
	return v
}

// GetCart resolves every line against the catalog and drops lines whose product is gone.
func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) (CartView, error) {
	cart, err := s.Repo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return CartView{}, err
	}
	products, err := s.Repo.GetProducts(ctx, cart.ProductIDs())
	if err != nil {
		return CartView{}, err
	}

	if cart.Prune(products) {
		if err := s.Repo.SaveCart(ctx, cart); err != nil && !errors.Is(err, repo.ErrVersionConflict) {
			return CartView{}, err
		}
		logging.FromContext(ctx).Info("cart_pruned", "cart_id", cart.ID)
	}
	return buildView(cart, products), nil
}

func (s *CartService) AddItem(ctx context.Context, cmd AddItemCommand) (res *AddResult, err error) {
	defer func() { s.Metrics.CartMutation("add", err) }()

	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	product, err := s.Repo.GetProduct(ctx, cmd.ProductID)
	if err != nil {
		return nil, notFound("product", err)
	}

	var result AddResult
	err = withRetry(ctx, func() error {
		cart, err := s.Repo.GetOrCreateCart(ctx, cmd.UserID)
		if err != nil {
			return err
		}

		existing := cart.QuantityOf(product.ID)
		headroom := product.Stock - existing
		if headroom <= 0 {
			return &StockError{ProductID: product.ID, Available: product.Stock, InCart: existing}
		}

		add := cmd.Quantity
		result = AddResult{}
		if add > headroom {
			add = headroom
			result.AdjustedQuantity = headroom
			result.Warning = fmt.Sprintf("only %d more items available", headroom)
		}
		cart.Upsert(product.ID, cmd.Variant, add)
		result.Added = add
		return s.Repo.SaveCart(ctx, cart)
	})
	if err != nil {
		return nil, err
	}

	view, err := s.GetCart(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}
	result.Cart = view

	s.publish(ctx, cartEvent{Type: "cart_item_added", UserID: cmd.UserID, ProductID: product.ID, Quantity: result.Added})
	return &result, nil
}

func (s *CartService) UpdateQuantity(ctx context.Context, cmd UpdateQuantityCommand) (view CartView, err error) {
	defer func() { s.Metrics.CartMutation("update", err) }()

	if err := cmd.Validate(); err != nil {
		return CartView{}, err
	}

	err = withRetry(ctx, func() error {
		cart, err := s.Repo.GetOrCreateCart(ctx, cmd.UserID)
		if err != nil {
			return err
		}
		line := cart.Line(cmd.ItemID)
		if line == nil {
			return fmt.Errorf("cart item not found: %w", errs.ErrNotFound)
		}
		product, err := s.Repo.GetProduct(ctx, line.ProductID)
		if err != nil {
			return notFound("product", err)
		}

		others := cart.QuantityOf(product.ID) - line.Quantity
		if cmd.Quantity+others > product.Stock {
			return &StockError{
				ProductID:        product.ID,
				Available:        product.Stock,
				InCart:           others + line.Quantity,
				AdjustedQuantity: max(product.Stock-others, 0),
			}
		}
		line.Quantity = cmd.Quantity
		return s.Repo.SaveCart(ctx, cart)
	})
	if err != nil {
		return CartView{}, err
	}

	s.publish(ctx, cartEvent{Type: "cart_item_updated", UserID: cmd.UserID, Quantity: cmd.Quantity})
	return s.GetCart(ctx, cmd.UserID)
}

func (s *CartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (view CartView, err error) {
	defer func() { s.Metrics.CartMutation("remove", err) }()

	err = withRetry(ctx, func() error {
		cart, err := s.Repo.GetOrCreateCart(ctx, userID)
		if err != nil {
			return err
		}
		if !cart.Remove(itemID) {
			return fmt.Errorf("cart item not found: %w", errs.ErrNotFound)
		}
		return s.Repo.SaveCart(ctx, cart)
	})
	if err != nil {
		return CartView{}, err
	}

	s.publish(ctx, cartEvent{Type: "cart_item_removed", UserID: userID})
	return s.GetCart(ctx, userID)
}

func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) (err error) {
	defer func() { s.Metrics.CartMutation("clear", err) }()

	err = withRetry(ctx, func() error {
		cart, err := s.Repo.GetOrCreateCart(ctx, userID)
		if err != nil {
			return err
		}
		if len(cart.Items) == 0 {
			return nil
		}
		cart.Items = nil
		return s.Repo.SaveCart(ctx, cart)
	})
	if err != nil {
		return err
	}

	s.publish(ctx, cartEvent{Type: "cart_cleared", UserID: userID})
	return nil
}

func (s *CartService) publish(ctx context.Context, ev cartEvent) {
	if s.Events == nil {
		return
	}
	if err := s.Events.PublishEvent(ctx, events.TopicCart, ev.UserID.String(), ev); err != nil {
		logging.FromContext(ctx).Warn("cart_event_publish_failed", "type", ev.Type, "error", err)
	}
}
