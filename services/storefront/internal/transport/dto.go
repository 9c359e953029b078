package transport

import (
	"github.com/Skotchmaster/storefront/services/storefront/internal/models"
	"github.com/google/uuid"
)

type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Variant   string    `json:"variant"`
	Quantity  int64     `json:"quantity"`
}

type UpdateQuantityRequest struct {
	ItemID   uuid.UUID `json:"item_id"`
	Quantity int64     `json:"quantity"`
}

type CreateOrderRequest struct {
	ShippingAddress models.Address `json:"shipping_address"`
	PaymentMethod   string         `json:"payment_method"`
}

type PaymentRequest struct {
	CardToken string `json:"card_token"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type ShortfallDTO struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name,omitempty"`
	Requested int64     `json:"requested"`
	Available int64     `json:"available"`
	Message   string    `json:"message"`
}

// StockErrorResponse is the 409 body for stock problems.
type StockErrorResponse struct {
	Error            string         `json:"error"`
	AdjustedQuantity int64          `json:"adjusted_quantity"`
	AvailableStock   int64          `json:"available_stock"`
	CurrentQuantity  int64          `json:"current_quantity"`
	StockErrors      []ShortfallDTO `json:"stock_errors,omitempty"`
}

type ValidateResponse struct {
	Valid       bool           `json:"valid"`
	StockErrors []ShortfallDTO `json:"stock_errors"`
}
