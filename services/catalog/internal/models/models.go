package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Category struct {
	ID          uuid.UUID `gorm:"primaryKey"           json:"id"`
	Name        string    `gorm:"uniqueIndex;not null" json:"name"`
	Slug        string    `gorm:"uniqueIndex;not null" json:"slug"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type Product struct {
	ID          uuid.UUID  `gorm:"primaryKey"                          json:"id"`
	Name        string     `gorm:"not null;index"                      json:"name"`
	Description string     `gorm:"not null;default:''"                 json:"description"`
	Price       int64      `gorm:"not null;check:price >= 0"           json:"price"`
	Stock       int64      `gorm:"not null;default:0;check:stock >= 0" json:"stock"`
	Brand       string     `gorm:"index"                               json:"brand,omitempty"`
	CategoryID  *uuid.UUID `gorm:"index"                               json:"category_id,omitempty"`
	Category    *Category  `gorm:"constraint:OnDelete:SET NULL"        json:"category,omitempty"`
	Images      []Image    `gorm:"constraint:OnDelete:CASCADE"         json:"images"`
	Rating      float64    `gorm:"not null;default:0"                  json:"rating"`
	NumReviews  int64      `gorm:"not null;default:0"                  json:"num_reviews"`
	IsActive    bool       `gorm:"not null;default:true"               json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type Image struct {
	ID        uuid.UUID `gorm:"primaryKey"     json:"-"`
	ProductID uuid.UUID `gorm:"index;not null" json:"-"`
	URL       string    `gorm:"not null"       json:"url"`
	PublicID  string    `json:"public_id,omitempty"`
}

// Review is unique per (product, user).
type Review struct {
	ID        uuid.UUID `gorm:"primaryKey"                                     json:"id"`
	ProductID uuid.UUID `gorm:"uniqueIndex:idx_review_author;not null"         json:"product_id"`
	UserID    uuid.UUID `gorm:"uniqueIndex:idx_review_author;not null"         json:"user_id"`
	Rating    int       `gorm:"not null;check:rating >= 1 AND rating <= 5"     json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

func newID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (c *Category) BeforeCreate(*gorm.DB) error { newID(&c.ID); return nil }
func (p *Product) BeforeCreate(*gorm.DB) error  { newID(&p.ID); return nil }
func (i *Image) BeforeCreate(*gorm.DB) error    { newID(&i.ID); return nil }
func (r *Review) BeforeCreate(*gorm.DB) error   { newID(&r.ID); return nil }
