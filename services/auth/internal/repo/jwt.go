package repo

import (
	"context"
	"errors"
	"time"

	jwthelp "github.com/Skotchmaster/storefront/pkg/jwt"
	"github.com/Skotchmaster/storefront/services/auth/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func (r *GormRepo) AddRefreshToDB(ctx context.Context, userID uuid.UUID, refreshToken, jti string, exp time.Time) error {
	return r.DB.WithContext(ctx).Create(&models.RefreshToken{
		UserID:    userID,
		TokenHash: jwthelp.Sha256Hex(refreshToken),
		JTI:       jti,
		ExpiresAt: exp.Unix(),
	}).Error
}

func (r *GormRepo) FindRefreshByID(ctx context.Context, jti string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	if err := r.DB.WithContext(ctx).Where("jti = ?", jti).First(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

// RotateRefreshToken revokes oldJTI and stores next in one transaction. The revoke is
// conditional so two concurrent refreshes with the same token cannot both succeed.
func (r *GormRepo) RotateRefreshToken(ctx context.Context, oldJTI string, now time.Time, next *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.RefreshToken{}).
			Where("jti = ? AND revoked = ? AND expires_at >= ?", oldJTI, false, now.Unix()).
			Update("revoked", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrRefreshUnusable
		}
		return tx.Create(next).Error
	})
}

func (r *GormRepo) LogOut(ctx context.Context, refreshToken string) error {
	return r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token_hash = ?", jwthelp.Sha256Hex(refreshToken)).
		Update("revoked", true).Error
}

func (r *GormRepo) CreatePasswordReset(ctx context.Context, userID uuid.UUID, token string, exp time.Time) error {
	return r.DB.WithContext(ctx).Create(&models.PasswordReset{
		UserID:    userID,
		TokenHash: jwthelp.Sha256Hex(token),
		ExpiresAt: exp,
	}).Error
}

// ResetPassword consumes the reset token, stores the new hash and revokes every refresh
// token of the user.
func (r *GormRepo) ResetPassword(ctx context.Context, token, passwordHash string, now time.Time) (uuid.UUID, error) {
	var userID uuid.UUID
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reset models.PasswordReset
		if err := tx.Where("token_hash = ? AND used = ? AND expires_at > ?", jwthelp.Sha256Hex(token), false, now).
			First(&reset).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrResetTokenInvalid
			}
			return err
		}

		res := tx.Model(&models.PasswordReset{}).Where("id = ? AND used = ?", reset.ID, false).Update("used", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrResetTokenInvalid
		}

		if err := tx.Model(&models.User{}).Where("id = ?", reset.UserID).Update("password_hash", passwordHash).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.RefreshToken{}).Where("user_id = ?", reset.UserID).Update("revoked", true).Error; err != nil {
			return err
		}
		userID = reset.UserID
		return nil
	})
	return userID, err
}
