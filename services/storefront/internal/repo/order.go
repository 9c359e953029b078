package repo

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Skotchmaster/storefront/services/storefront/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PlaceOrder decrements stock, stores the order with its item snapshot and
// empties the cart in one transaction. Any failure leaves all three untouched.
func (r *GormRepo) PlaceOrder(ctx context.Context, cart *models.Cart, order *models.Order) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := decrementStock(tx, order.QuantitiesByProduct()); err != nil {
			return err
		}
		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		if err := bumpCartVersion(tx, cart); err != nil {
			return err
		}
		return tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error
	})
	if err != nil {
		return err
	}
	cart.Version++
	cart.Items = nil
	return nil
}

// sortedIDs fixes the row lock order so concurrent checkouts cannot deadlock.
func sortedIDs(qty map[uuid.UUID]int64) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(qty))
	for id := range qty {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

func decrementStock(tx *gorm.DB, qty map[uuid.UUID]int64) error {
	for _, id := range sortedIDs(qty) {
		n := qty[id]
		res := tx.Model(&models.Product{}).
			Where("id = ? AND stock >= ?", id, n).
			Update("stock", gorm.Expr("stock - ?", n))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("product %s: %w", id, ErrInsufficientStock)
		}
	}
	return nil
}

func restoreStock(tx *gorm.DB, qty map[uuid.UUID]int64) error {
	for _, id := range sortedIDs(qty) {
		if err := tx.Model(&models.Product{}).
			Where("id = ?", id).
			Update("stock", gorm.Expr("stock + ?", qty[id])).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *GormRepo) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var o models.Order
	if err := r.DB.WithContext(ctx).Preload("Items").Where("id = ?", id).First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *GormRepo) ListOrders(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	err := r.DB.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateOrder persists status and payment fields under the order version check.
// With restock set, the order's quantities go back to the products in the same transaction.
func (r *GormRepo) UpdateOrder(ctx context.Context, order *models.Order, restock bool) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND version = ?", order.ID, order.Version).
			Updates(map[string]any{
				"status":         order.Status,
				"payment_status": order.PaymentStatus,
				"payment_ref":    order.PaymentRef,
				"version":        gorm.Expr("version + 1"),
				"updated_at":     time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrVersionConflict
		}
		if restock {
			return restoreStock(tx, order.QuantitiesByProduct())
		}
		return nil
	})
	if err != nil {
		return err
	}
	order.Version++
	return nil
}

// ListOverdue returns pending orders still awaiting payment whose deadline passed before now.
func (r *GormRepo) ListOverdue(ctx context.Context, now time.Time, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.DB.WithContext(ctx).
		Preload("Items").
		Where("status = ? AND payment_status = ? AND payment_due_at < ?",
			models.StatusPending, models.PaymentAwaitingPayment, now).
		Order("payment_due_at ASC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}
