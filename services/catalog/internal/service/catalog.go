package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Skotchmaster/storefront/pkg/errs"
	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/services/catalog/internal/models"
	"github.com/Skotchmaster/storefront/services/catalog/internal/repo"
	"github.com/Skotchmaster/storefront/services/catalog/internal/search"
	"github.com/Skotchmaster/storefront/services/catalog/internal/transport"
	"github.com/Skotchmaster/storefront/services/catalog/internal/util"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CatalogService struct {
	Repo   *repo.GormRepo
	Search search.Engine
	Events events.Publisher
}

type productEvent struct {
	Type      string    `json:"type"`
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name,omitempty"`
	Price     int64     `json:"price,omitempty"`
	Stock     int64     `json:"stock,omitempty"`
}

func notFound(what string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s not found: %w", what, errs.ErrNotFound)
	}
	return err
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, notFound("product", err)
	}
	return p, nil
}

func (s *CatalogService) GetProducts(ctx context.Context, f repo.ProductFilter, offset, limit int) (int64, []models.Product, error) {
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return 0, nil, fmt.Errorf("min_price above max_price: %w", errs.ErrValidation)
	}
	return s.Repo.GetProducts(ctx, f, offset, limit)
}

func toImages(in []transport.ImageDTO) ([]models.Image, error) {
	out := make([]models.Image, 0, len(in))
	for _, img := range in {
		if strings.TrimSpace(img.URL) == "" {
			return nil, fmt.Errorf("image url required: %w", errs.ErrValidation)
		}
		out = append(out, models.Image{URL: img.URL, PublicID: img.PublicID})
	}
	return out, nil
}

func (s *CatalogService) checkCategory(ctx context.Context, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	if _, err := s.Repo.GetCategory(ctx, *id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("unknown category: %w", errs.ErrValidation)
		}
		return err
	}
	return nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, req transport.CreateProductRequest) (*models.Product, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("name required: %w", errs.ErrValidation)
	}
	if req.Price < 0 {
		return nil, fmt.Errorf("price cannot be negative: %w", errs.ErrValidation)
	}
	if req.Stock < 0 {
		return nil, fmt.Errorf("stock cannot be negative: %w", errs.ErrValidation)
	}
	images, err := toImages(req.Images)
	if err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}

	prod := &models.Product{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		Brand:       req.Brand,
		CategoryID:  req.CategoryID,
		Images:      images,
		IsActive:    true,
	}
	if err := s.Repo.CreateProduct(ctx, prod); err != nil {
		return nil, err
	}

	s.index(ctx, prod)
	s.publish(ctx, productEvent{Type: "product_created", ProductID: prod.ID, Name: prod.Name, Price: prod.Price, Stock: prod.Stock})
	return prod, nil
}

func (s *CatalogService) PatchProduct(ctx context.Context, req transport.PatchProductRequest, id uuid.UUID) (*models.Product, error) {
	fields := map[string]any{}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, fmt.Errorf("name cannot be empty: %w", errs.ErrValidation)
		}
		fields["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return nil, fmt.Errorf("price cannot be negative: %w", errs.ErrValidation)
		}
		fields["price"] = *req.Price
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return nil, fmt.Errorf("stock cannot be negative: %w", errs.ErrValidation)
		}
		fields["stock"] = *req.Stock
	}
	if req.Brand != nil {
		fields["brand"] = *req.Brand
	}
	if req.CategoryID != nil {
		if err := s.checkCategory(ctx, req.CategoryID); err != nil {
			return nil, err
		}
		fields["category_id"] = *req.CategoryID
	}
	if req.IsActive != nil {
		fields["is_active"] = *req.IsActive
	}

	var images []models.Image
	if req.Images != nil {
		var err error
		if images, err = toImages(*req.Images); err != nil {
			return nil, err
		}
	}

	prod, err := s.Repo.UpdateProduct(ctx, id, fields, images)
	if err != nil {
		return nil, notFound("product", err)
	}

	s.index(ctx, prod)
	s.publish(ctx, productEvent{Type: "product_updated", ProductID: prod.ID, Name: prod.Name, Price: prod.Price, Stock: prod.Stock})
	return prod, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		return notFound("product", err)
	}

	if s.Search != nil {
		if err := s.Search.Delete(ctx, id); err != nil {
			logging.FromContext(ctx).Warn("search_delete_failed", "product_id", id, "error", err)
		}
	}
	s.publish(ctx, productEvent{Type: "product_deleted", ProductID: id})
	return nil
}

// SearchProducts asks the search engine first and falls back to the database when it is
// not configured or fails.
func (s *CatalogService) SearchProducts(ctx context.Context, q string, offset, limit int) (int64, []models.Product, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return 0, nil, fmt.Errorf("query required: %w", errs.ErrValidation)
	}

	if s.Search != nil {
		total, ids, err := s.Search.Search(ctx, q, offset, limit)
		if err == nil {
			items, err := s.Repo.GetProductsByIDs(ctx, ids)
			if err != nil {
				return 0, nil, err
			}
			return total, items, nil
		}
		logging.FromContext(ctx).Warn("search_engine_failed", "reason", "falling back to database", "error", err)
	}
	return s.Repo.SearchProducts(ctx, q, offset, limit)
}

func (s *CatalogService) AddReview(ctx context.Context, productID, userID uuid.UUID, req transport.CreateReviewRequest) (*models.Review, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, fmt.Errorf("rating must be between 1 and 5: %w", errs.ErrValidation)
	}
	if _, err := s.Repo.GetProduct(ctx, productID); err != nil {
		return nil, notFound("product", err)
	}

	reviewed, err := s.Repo.HasReviewed(ctx, productID, userID)
	if err != nil {
		return nil, err
	}
	if reviewed {
		return nil, fmt.Errorf("product already reviewed: %w", errs.ErrConflict)
	}

	review := &models.Review{
		ProductID: productID,
		UserID:    userID,
		Rating:    req.Rating,
		Comment:   strings.TrimSpace(req.Comment),
	}
	if err := s.Repo.AddReview(ctx, review); err != nil {
		return nil, err
	}

	s.publish(ctx, productEvent{Type: "review_added", ProductID: productID})
	return review, nil
}

func (s *CatalogService) ListReviews(ctx context.Context, productID uuid.UUID) ([]models.Review, error) {
	if _, err := s.Repo.GetProduct(ctx, productID); err != nil {
		return nil, notFound("product", err)
	}
	return s.Repo.ListReviews(ctx, productID)
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.Repo.ListCategories(ctx)
}

func (s *CatalogService) CreateCategory(ctx context.Context, req transport.CreateCategoryRequest) (*models.Category, error) {
	name := strings.TrimSpace(req.Name)
	slug := util.Slugify(name)
	if name == "" || slug == "" {
		return nil, fmt.Errorf("category name required: %w", errs.ErrValidation)
	}

	exists, err := s.Repo.CategoryExists(ctx, name, slug)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("category %q already exists: %w", name, errs.ErrConflict)
	}

	c := &models.Category{Name: name, Slug: slug, Description: req.Description}
	if err := s.Repo.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CatalogService) index(ctx context.Context, p *models.Product) {
	if s.Search == nil {
		return
	}
	doc := search.Document{
		ID:          p.ID.String(),
		Name:        p.Name,
		Description: p.Description,
		Brand:       p.Brand,
		Price:       p.Price,
	}
	if p.CategoryID != nil {
		doc.CategoryID = p.CategoryID.String()
	}
	if err := s.Search.Index(ctx, doc); err != nil {
		logging.FromContext(ctx).Warn("search_index_failed", "product_id", p.ID, "error", err)
	}
}

func (s *CatalogService) publish(ctx context.Context, ev productEvent) {
	if s.Events == nil {
		return
	}
	if err := s.Events.PublishEvent(ctx, events.TopicProduct, ev.ProductID.String(), ev); err != nil {
		logging.FromContext(ctx).Warn("product_event_publish_failed", "type", ev.Type, "error", err)
	}
}
