package repo

import (
	"errors"
	"fmt"

	"github.com/Skotchmaster/storefront/pkg/errs"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserAlreadyExist   = fmt.Errorf("user already exists: %w", errs.ErrConflict)
	ErrRefreshUnusable    = errors.New("refresh token expired or revoked")
	ErrResetTokenInvalid  = fmt.Errorf("reset token invalid or expired: %w", errs.ErrValidation)
)

type GormRepo struct {
	DB *gorm.DB
}
