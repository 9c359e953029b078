package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Skotchmaster/storefront/pkg/errs"
	"github.com/Skotchmaster/storefront/services/auth/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AddressInput struct {
	Street    string
	City      string
	State     string
	ZipCode   string
	Country   string
	IsDefault bool
}

func (h *AuthService) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := h.Repo.GetUserById(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user not found: %w", errs.ErrNotFound)
		}
		return nil, err
	}
	return user, nil
}

func (h *AuthService) AddAddress(ctx context.Context, userID uuid.UUID, in AddressInput) (*models.Address, error) {
	addr := &models.Address{
		UserID:    userID,
		Street:    strings.TrimSpace(in.Street),
		City:      strings.TrimSpace(in.City),
		State:     strings.TrimSpace(in.State),
		ZipCode:   strings.TrimSpace(in.ZipCode),
		Country:   strings.TrimSpace(in.Country),
		IsDefault: in.IsDefault,
	}
	if addr.Street == "" || addr.City == "" || addr.ZipCode == "" || addr.Country == "" {
		return nil, fmt.Errorf("street, city, zip_code and country are required: %w", ErrValidation)
	}
	if err := h.Repo.AddAddress(ctx, addr); err != nil {
		return nil, err
	}
	return addr, nil
}

func (h *AuthService) ListAddresses(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	return h.Repo.ListAddresses(ctx, userID)
}

func (h *AuthService) Wishlist(ctx context.Context, userID uuid.UUID) ([]models.WishlistItem, error) {
	return h.Repo.ListWishlist(ctx, userID)
}

func (h *AuthService) AddToWishlist(ctx context.Context, userID, productID uuid.UUID) error {
	return h.Repo.AddToWishlist(ctx, userID, productID)
}

func (h *AuthService) RemoveFromWishlist(ctx context.Context, userID, productID uuid.UUID) error {
	removed, err := h.Repo.RemoveFromWishlist(ctx, userID, productID)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("product not in wishlist: %w", errs.ErrNotFound)
	}
	return nil
}
