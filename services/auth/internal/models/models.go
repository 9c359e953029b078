package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           uuid.UUID `gorm:"primaryKey"           json:"id"`
	Username     string    `gorm:"uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null"             json:"-"`
	Role         string    `gorm:"not null"             json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

type Address struct {
	ID        uuid.UUID `gorm:"primaryKey"     json:"id"`
	UserID    uuid.UUID `gorm:"index;not null" json:"-"`
	Street    string    `gorm:"not null"       json:"street"`
	City      string    `gorm:"not null"       json:"city"`
	State     string    `json:"state,omitempty"`
	ZipCode   string    `gorm:"not null"       json:"zip_code"`
	Country   string    `gorm:"not null"       json:"country"`
	IsDefault bool      `gorm:"not null"       json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
}

type WishlistItem struct {
	UserID    uuid.UUID `gorm:"primaryKey" json:"-"`
	ProductID uuid.UUID `gorm:"primaryKey" json:"product_id"`
	CreatedAt time.Time `json:"added_at"`
}

// RefreshToken stores the sha256 of an issued refresh token. A token is usable once.
type RefreshToken struct {
	ID        uuid.UUID `gorm:"primaryKey"`
	UserID    uuid.UUID `gorm:"index;not null"`
	TokenHash string    `gorm:"uniqueIndex;not null"`
	JTI       string    `gorm:"uniqueIndex;not null"`
	ExpiresAt int64     `gorm:"not null"`
	Revoked   bool      `gorm:"not null;default:false"`
}

type PasswordReset struct {
	ID        uuid.UUID `gorm:"primaryKey"`
	UserID    uuid.UUID `gorm:"index;not null"`
	TokenHash string    `gorm:"uniqueIndex;not null"`
	ExpiresAt time.Time `gorm:"not null"`
	Used      bool      `gorm:"not null;default:false"`
}

func newID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (u *User) BeforeCreate(*gorm.DB) error          { newID(&u.ID); return nil }
func (a *Address) BeforeCreate(*gorm.DB) error       { newID(&a.ID); return nil }
func (t *RefreshToken) BeforeCreate(*gorm.DB) error  { newID(&t.ID); return nil }
func (p *PasswordReset) BeforeCreate(*gorm.DB) error { newID(&p.ID); return nil }
