package repo

import (
	"context"
	"errors"

	pkg_hash "github.com/Skotchmaster/storefront/pkg/hash"
	"github.com/Skotchmaster/storefront/services/auth/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserExist looks a user up by username or email and checks the password.
func (r *GormRepo) UserExist(ctx context.Context, login, password string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("username = ? OR email = ?", login, login).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !pkg_hash.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

func (r *GormRepo) CreateUserIfNotExists(ctx context.Context, u *models.User) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.User{}).
			Where("username = ? OR email = ?", u.Username, u.Email).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrUserAlreadyExist
		}
		return tx.Create(u).Error
	})
}

func (r *GormRepo) GetUserById(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// AddAddress stores addr. A default address clears the flag on the user's other addresses.
func (r *GormRepo) AddAddress(ctx context.Context, addr *models.Address) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Address{}).Where("user_id = ?", addr.UserID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			addr.IsDefault = true
		}
		if addr.IsDefault {
			if err := tx.Model(&models.Address{}).
				Where("user_id = ?", addr.UserID).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(addr).Error
	})
}

func (r *GormRepo) ListAddresses(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	var out []models.Address
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC").Order("created_at ASC").
		Find(&out).Error
	return out, err
}

func (r *GormRepo) AddToWishlist(ctx context.Context, userID, productID uuid.UUID) error {
	item := models.WishlistItem{UserID: userID, ProductID: productID}
	return r.DB.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		FirstOrCreate(&item).Error
}

// RemoveFromWishlist reports whether a row was deleted.
func (r *GormRepo) RemoveFromWishlist(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	res := r.DB.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.WishlistItem{})
	return res.RowsAffected > 0, res.Error
}

func (r *GormRepo) ListWishlist(ctx context.Context, userID uuid.UUID) ([]models.WishlistItem, error) {
	var out []models.WishlistItem
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&out).Error
	return out, err
}
