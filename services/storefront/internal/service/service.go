package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Skotchmaster/storefront/pkg/errs"
	"github.com/Skotchmaster/storefront/services/storefront/internal/repo"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	maxAttempts = 3
	baseBackoff = 10 * time.Millisecond
)

// withRetry reruns fn while it fails on a version check, backing off exponentially.
// After the last attempt the conflict is returned as is (it wraps errs.ErrConflict).
func withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err = fn(); !errors.Is(err, repo.ErrVersionConflict) {
			return err
		}
		if attempt == maxAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(baseBackoff << attempt):
		}
	}
	return err
}

func notFound(what string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s not found: %w", what, errs.ErrNotFound)
	}
	return err
}

// Shortfall describes one product the cart holds more of than is in stock.
type Shortfall struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name,omitempty"`
	Requested int64     `json:"requested"`
	Available int64     `json:"available"`
	Message   string    `json:"message"`
}

// StockError carries the numbers a client needs to adjust its request.
type StockError struct {
	ProductID        uuid.UUID
	Available        int64
	InCart           int64
	AdjustedQuantity int64
	Shortfalls       []Shortfall
}

func (e *StockError) Error() string {
	if len(e.Shortfalls) > 0 {
		msgs := make([]string, 0, len(e.Shortfalls))
		for _, s := range e.Shortfalls {
			msgs = append(msgs, s.Message)
		}
		return "insufficient stock: " + strings.Join(msgs, "; ")
	}
	return fmt.Sprintf("only %d items available (you have %d in cart)", e.Available, e.InCart)
}

func (e *StockError) Unwrap() error {
	return errs.ErrStockExceeded
}
