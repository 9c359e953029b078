package transport

import "github.com/google/uuid"

type ImageDTO struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
}

type CreateProductRequest struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Price       int64      `json:"price"`
	Stock       int64      `json:"stock"`
	Brand       string     `json:"brand"`
	CategoryID  *uuid.UUID `json:"category_id"`
	Images      []ImageDTO `json:"images"`
}

type PatchProductRequest struct {
	Name        *string     `json:"name"`
	Description *string     `json:"description"`
	Price       *int64      `json:"price"`
	Stock       *int64      `json:"stock"`
	Brand       *string     `json:"brand"`
	CategoryID  *uuid.UUID  `json:"category_id"`
	IsActive    *bool       `json:"is_active"`
	Images      *[]ImageDTO `json:"images"`
}

type CreateReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type CreateCategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type Meta struct {
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
	HasPrev    bool  `json:"has_prev"`
	HasNext    bool  `json:"has_next"`
}

type ListResponse[T any] struct {
	Data []T   `json:"data"`
	Meta Meta `json:"meta"`
}

func NewMeta(page, offset, limit int, total int64) Meta {
	return Meta{
		Page:       page,
		Size:       limit,
		Total:      total,
		TotalPages: (total + int64(limit) - 1) / int64(limit),
		HasPrev:    page > 1,
		HasNext:    int64(offset+limit) < total,
	}
}
