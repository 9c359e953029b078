package repo

import (
	"context"
	"errors"
	"time"

	"github.com/Skotchmaster/storefront/services/storefront/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Order("cart_items.created_at ASC")
}

func (r *GormRepo) GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	db := r.DB.WithContext(ctx)

	var cart models.Cart
	err := db.Preload("Items", preloadItems).Where("user_id = ?", userID).First(&cart).Error
	if err == nil {
		return &cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	cart = models.Cart{UserID: userID}
	if err := db.Create(&cart).Error; err != nil {
		// lost the race against a concurrent first write for this user
		var existing models.Cart
		if ferr := db.Preload("Items", preloadItems).Where("user_id = ?", userID).First(&existing).Error; ferr == nil {
			return &existing, nil
		}
		return nil, err
	}
	return &cart, nil
}

// SaveCart replaces the cart lines if the stored version still matches cart.Version.
func (r *GormRepo) SaveCart(ctx context.Context, cart *models.Cart) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := bumpCartVersion(tx, cart); err != nil {
			return err
		}
		if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		if len(cart.Items) == 0 {
			return nil
		}
		for i := range cart.Items {
			cart.Items[i].CartID = cart.ID
		}
		return tx.Create(&cart.Items).Error
	})
	if err != nil {
		return err
	}
	cart.Version++
	return nil
}

func bumpCartVersion(tx *gorm.DB, cart *models.Cart) error {
	res := tx.Model(&models.Cart{}).
		Where("id = ? AND version = ?", cart.ID, cart.Version).
		Updates(map[string]any{
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	return nil
}
