package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Cart is keyed by user. Version is bumped on every write and checked
// before it, so concurrent writers never overwrite each other.
type Cart struct {
	ID        uuid.UUID  `gorm:"primaryKey"                   json:"id"`
	UserID    uuid.UUID  `gorm:"uniqueIndex;not null"         json:"user_id"`
	Version   int64      `gorm:"not null;default:0"           json:"version"`
	Items     []CartItem `gorm:"foreignKey:CartID"            json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type CartItem struct {
	ID        uuid.UUID `gorm:"primaryKey"                            json:"id"`
	CartID    uuid.UUID `gorm:"uniqueIndex:idx_cart_line;not null"    json:"-"`
	ProductID uuid.UUID `gorm:"uniqueIndex:idx_cart_line;not null"    json:"product_id"`
	Variant   string    `gorm:"uniqueIndex:idx_cart_line;not null"    json:"variant,omitempty"`
	Quantity  int64     `gorm:"not null;check:quantity > 0"           json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}

func (c *Cart) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (c *CartItem) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (Cart) TableName() string {
	return "carts"
}

func (CartItem) TableName() string {
	return "cart_items"
}

// QuantityOf sums every line of the product, across variants.
func (c *Cart) QuantityOf(productID uuid.UUID) int64 {
	var n int64
	for _, it := range c.Items {
		if it.ProductID == productID {
			n += it.Quantity
		}
	}
	return n
}

// QuantitiesByProduct groups lines by product and sums their quantities.
func (c *Cart) QuantitiesByProduct() map[uuid.UUID]int64 {
	out := make(map[uuid.UUID]int64, len(c.Items))
	for _, it := range c.Items {
		out[it.ProductID] += it.Quantity
	}
	return out
}

func (c *Cart) ProductIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(c.Items))
	ids := make([]uuid.UUID, 0, len(c.Items))
	for _, it := range c.Items {
		if _, ok := seen[it.ProductID]; ok {
			continue
		}
		seen[it.ProductID] = struct{}{}
		ids = append(ids, it.ProductID)
	}
	return ids
}

func (c *Cart) Line(itemID uuid.UUID) *CartItem {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return &c.Items[i]
		}
	}
	return nil
}

// Upsert increments the (product, variant) line or appends a new one.
func (c *Cart) Upsert(productID uuid.UUID, variant string, qty int64) *CartItem {
	for i := range c.Items {
		if c.Items[i].ProductID == productID && c.Items[i].Variant == variant {
			c.Items[i].Quantity += qty
			return &c.Items[i]
		}
	}
	c.Items = append(c.Items, CartItem{
		ID:        uuid.New(),
		CartID:    c.ID,
		ProductID: productID,
		Variant:   variant,
		Quantity:  qty,
	})
	return &c.Items[len(c.Items)-1]
}

func (c *Cart) Remove(itemID uuid.UUID) bool {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
	}
	return false
}

// Prune drops lines whose product is not in known and reports whether anything changed.
func (c *Cart) Prune(known map[uuid.UUID]Product) bool {
	kept := c.Items[:0]
	for _, it := range c.Items {
		if _, ok := known[it.ProductID]; ok {
			kept = append(kept, it)
		}
	}
	changed := len(kept) != len(c.Items)
	c.Items = kept
	return changed
}
