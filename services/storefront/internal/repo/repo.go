package repo

import (
	"fmt"

	"github.com/Skotchmaster/storefront/pkg/errs"
	"gorm.io/gorm"
)

var (
	// ErrVersionConflict means another writer bumped the row first; callers reload and retry.
	ErrVersionConflict = fmt.Errorf("version conflict: %w", errs.ErrConflict)
	// ErrInsufficientStock is returned when a conditional decrement touched no row.
	ErrInsufficientStock = fmt.Errorf("insufficient stock: %w", errs.ErrStockExceeded)
)

type GormRepo struct {
	DB *gorm.DB
}
