package repo

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GormRepo struct {
	DB *gorm.DB
}

// ProductFilter narrows the product listing. Zero values mean "any".
type ProductFilter struct {
	CategoryID *uuid.UUID
	Brand      string
	MinPrice   *int64
	MaxPrice   *int64
	Sort       string
}
