package models

import (
	"fmt"

	"github.com/Skotchmaster/storefront/pkg/errs"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

var (
	ErrInvalidTransition = fmt.Errorf("invalid status transition: %w", errs.ErrConflict)
	// ErrPaymentInProgress: a charge is in flight, the status is frozen until it resolves.
	ErrPaymentInProgress = fmt.Errorf("payment in progress: %w", errs.ErrConflict)
)

var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered, StatusCancelled},
	StatusDelivered:  nil,
	StatusCancelled:  nil,
}

func (s OrderStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

func (s OrderStatus) Terminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

func (s OrderStatus) CanTransitionTo(to OrderStatus) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// TransitionTo moves the order along the status graph or leaves it untouched.
func (o *Order) TransitionTo(to OrderStatus) error {
	if o.PaymentStatus == PaymentCharging {
		return fmt.Errorf("%s -> %s: %w", o.Status, to, ErrPaymentInProgress)
	}
	if !o.Status.CanTransitionTo(to) {
		return fmt.Errorf("%s -> %s: %w", o.Status, to, ErrInvalidTransition)
	}
	o.Status = to
	return nil
}
