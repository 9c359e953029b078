package service

import (
	"fmt"
	"math"
	"strings"

	"github.com/Skotchmaster/storefront/pkg/errs"
	"github.com/Skotchmaster/storefront/services/storefront/internal/models"
	"github.com/google/uuid"
)

// maxLineQuantity keeps a line within what the payment provider can carry.
const maxLineQuantity = math.MaxInt32

type AddItemCommand struct {
	UserID    uuid.UUID
	ProductID uuid.UUID
	Variant   string
	Quantity  int64
}

func (c AddItemCommand) Validate() error {
	if c.ProductID == uuid.Nil {
		return fmt.Errorf("product_id required: %w", errs.ErrValidation)
	}
	if c.Quantity < 1 {
		return fmt.Errorf("quantity must be at least 1: %w", errs.ErrValidation)
	}
	if c.Quantity > maxLineQuantity {
		return fmt.Errorf("quantity must be at most %d: %w", maxLineQuantity, errs.ErrValidation)
	}
	return nil
}

type UpdateQuantityCommand struct {
	UserID   uuid.UUID
	ItemID   uuid.UUID
	Quantity int64
}

func (c UpdateQuantityCommand) Validate() error {
	if c.ItemID == uuid.Nil {
		return fmt.Errorf("item_id required: %w", errs.ErrValidation)
	}
	if c.Quantity < 1 {
		return fmt.Errorf("quantity must be at least 1: %w", errs.ErrValidation)
	}
	if c.Quantity > maxLineQuantity {
		return fmt.Errorf("quantity must be at most %d: %w", maxLineQuantity, errs.ErrValidation)
	}
	return nil
}

type CreateOrderCommand struct {
	UserID          uuid.UUID
	ShippingAddress models.Address
	PaymentMethod   models.PaymentMethod
}

func (c CreateOrderCommand) Validate() error {
	if !c.PaymentMethod.Valid() {
		return fmt.Errorf("payment_method must be one of cod, card, gateway: %w", errs.ErrValidation)
	}
	a := c.ShippingAddress
	if strings.TrimSpace(a.Street) == "" || strings.TrimSpace(a.City) == "" || strings.TrimSpace(a.Country) == "" {
		return fmt.Errorf("shipping address needs street, city and country: %w", errs.ErrValidation)
	}
	return nil
}

type ProcessPaymentCommand struct {
	UserID    uuid.UUID
	OrderID   uuid.UUID
	CardToken string
}
