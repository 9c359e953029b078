package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentMethod string

const (
	PaymentCOD     PaymentMethod = "cod"
	PaymentCard    PaymentMethod = "card"
	PaymentGateway PaymentMethod = "gateway"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCOD, PaymentCard, PaymentGateway:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending         PaymentStatus = "pending"
	PaymentAwaitingPayment PaymentStatus = "awaiting_payment"
	PaymentCharging        PaymentStatus = "charging"
	PaymentPaid            PaymentStatus = "paid"
	PaymentExpired         PaymentStatus = "expired"
)

// InitialPaymentStatus: cash on delivery settles at the door, everything
// else waits for the gateway.
func (m PaymentMethod) InitialPaymentStatus() PaymentStatus {
	if m == PaymentCOD {
		return PaymentPending
	}
	return PaymentAwaitingPayment
}

type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zip_code,omitempty"`
	Country string `json:"country"`
}

type Order struct {
	ID              uuid.UUID     `gorm:"primaryKey"                              json:"id"`
	UserID          uuid.UUID     `gorm:"index;not null"                          json:"user_id"`
	Items           []OrderItem   `gorm:"foreignKey:OrderID"                      json:"items"`
	ShippingAddress Address       `gorm:"embedded;embeddedPrefix:ship_"           json:"shipping_address"`
	PaymentMethod   PaymentMethod `gorm:"type:varchar(16);not null"               json:"payment_method"`
	PaymentStatus   PaymentStatus `gorm:"type:varchar(24);index;not null"         json:"payment_status"`
	PaymentRef      string        `json:"payment_ref,omitempty"`
	PaymentDueAt    *time.Time    `gorm:"index"                                   json:"payment_due_at,omitempty"`
	Status          OrderStatus   `gorm:"type:varchar(16);index;not null"         json:"status"`
	Subtotal        int64         `gorm:"not null"                                json:"subtotal"`
	ShippingFee     int64         `gorm:"not null"                                json:"shipping_fee"`
	Total           int64         `gorm:"not null"                                json:"total"`
	Version         int64         `gorm:"not null;default:0"                      json:"version"`
	CreatedAt       time.Time     `gorm:"index"                                   json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// OrderItem is a snapshot taken at checkout; later catalog edits never reach it.
type OrderItem struct {
	ID        uuid.UUID `gorm:"primaryKey"                 json:"id"`
	OrderID   uuid.UUID `gorm:"index;not null"             json:"-"`
	ProductID uuid.UUID `gorm:"not null"                   json:"product_id"`
	Name      string    `gorm:"not null"                   json:"name"`
	Variant   string    `json:"variant,omitempty"`
	Quantity  int64     `gorm:"not null;check:quantity > 0" json:"quantity"`
	UnitPrice int64     `gorm:"not null"                   json:"unit_price"`
	LineTotal int64     `gorm:"not null"                   json:"line_total"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (Order) TableName() string {
	return "orders"
}

func (OrderItem) TableName() string {
	return "order_items"
}

func (o *Order) QuantitiesByProduct() map[uuid.UUID]int64 {
	out := make(map[uuid.UUID]int64, len(o.Items))
	for _, it := range o.Items {
		out[it.ProductID] += it.Quantity
	}
	return out
}
