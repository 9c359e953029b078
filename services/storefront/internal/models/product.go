package models

import "github.com/google/uuid"

// Product is the storefront's view of a catalog row: only the columns
// checkout reads or decrements.
type Product struct {
	ID       uuid.UUID `gorm:"primaryKey"                          json:"id"`
	Name     string    `gorm:"not null"                            json:"name"`
	Price    int64     `gorm:"not null"                            json:"price"`
	Stock    int64     `gorm:"not null;default:0;check:stock >= 0" json:"stock"`
	IsActive bool      `gorm:"not null;default:true"               json:"is_active"`
}

func (Product) TableName() string {
	return "products"
}
