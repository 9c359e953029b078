package repo

import (
	"context"

	"github.com/Skotchmaster/storefront/services/catalog/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AddReview stores the review and refreshes the product's rating aggregate in one transaction.
func (r *GormRepo) AddReview(ctx context.Context, review *models.Review) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(review).Error; err != nil {
			return err
		}

		var agg struct {
			Count int64
			Avg   float64
		}
		if err := tx.Model(&models.Review{}).
			Select("COUNT(*) AS count, COALESCE(AVG(rating), 0) AS avg").
			Where("product_id = ?", review.ProductID).
			Scan(&agg).Error; err != nil {
			return err
		}

		return tx.Model(&models.Product{}).
			Where("id = ?", review.ProductID).
			Updates(map[string]any{"rating": agg.Avg, "num_reviews": agg.Count}).Error
	})
}

func (r *GormRepo) HasReviewed(ctx context.Context, productID, userID uuid.UUID) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Review{}).
		Where("product_id = ? AND user_id = ?", productID, userID).
		Count(&n).Error
	return n > 0, err
}

func (r *GormRepo) ListReviews(ctx context.Context, productID uuid.UUID) ([]models.Review, error) {
	var out []models.Review
	err := r.DB.WithContext(ctx).Where("product_id = ?", productID).Order("created_at DESC").Find(&out).Error
	return out, err
}

func (r *GormRepo) ListCategories(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	err := r.DB.WithContext(ctx).Order("name ASC").Find(&out).Error
	return out, err
}

func (r *GormRepo) CreateCategory(ctx context.Context, c *models.Category) error {
	return r.DB.WithContext(ctx).Create(c).Error
}

func (r *GormRepo) CategoryExists(ctx context.Context, name, slug string) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Category{}).Where("name = ? OR slug = ?", name, slug).Count(&n).Error
	return n > 0, err
}

func (r *GormRepo) GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var c models.Category
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}
