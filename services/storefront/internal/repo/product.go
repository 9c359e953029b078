package repo

import (
	"context"

	"github.com/Skotchmaster/storefront/services/storefront/internal/models"
	"github.com/google/uuid"
)

func (r *GormRepo) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var p models.Product
	if err := r.DB.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProducts returns the active products among ids, keyed by id. Missing ids are simply absent.
func (r *GormRepo) GetProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	out := make(map[uuid.UUID]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []models.Product
	if err := r.DB.WithContext(ctx).Where("id IN ? AND is_active = ?", ids, true).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, p := range rows {
		out[p.ID] = p
	}
	return out, nil
}
