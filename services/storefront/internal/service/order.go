package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Skotchmaster/storefront/pkg/errs"
	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/services/storefront/internal/metrics"
	"github.com/Skotchmaster/storefront/services/storefront/internal/models"
	"github.com/Skotchmaster/storefront/services/storefront/internal/payment"
	"github.com/Skotchmaster/storefront/services/storefront/internal/repo"
	"github.com/google/uuid"
)

// errUnchanged lets a mutation decline to write anything.
var errUnchanged = errors.New("unchanged")

const expiryBatch = 100

type OrderService struct {
	Repo      *repo.GormRepo
	Events    events.Publisher
	Timeline  repo.Timeline
	Metrics   *metrics.Metrics
	Gateway   payment.Gateway
	ServerKey string
	Now       func() time.Time
}

func (s *OrderService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *OrderService) ListOrders(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	return s.Repo.ListOrders(ctx, userID)
}

func (s *OrderService) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	o, err := s.Repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, notFound("order", err)
	}
	if o.UserID != userID {
		return nil, fmt.Errorf("order belongs to another user: %w", errs.ErrUnauthorized)
	}
	return o, nil
}

func (s *OrderService) OrderTimeline(ctx context.Context, userID, orderID uuid.UUID) ([]models.TimelineEvent, error) {
	if _, err := s.GetOrder(ctx, userID, orderID); err != nil {
		return nil, err
	}
	if s.Timeline == nil {
		return []models.TimelineEvent{}, nil
	}
	return s.Timeline.List(ctx, orderID)
}

// UpdateStatus is the admin path through the status graph.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, to models.OrderStatus) (*models.Order, error) {
	if !to.Valid() {
		return nil, fmt.Errorf("unknown status %q: %w", to, errs.ErrValidation)
	}

	eventType := models.EventStatusChanged
	if to == models.StatusCancelled {
		eventType = models.EventOrderCancelled
	}
	return s.apply(ctx, orderID, eventType, "", func(o *models.Order) error {
		return o.TransitionTo(to)
	})
}

// Cancel lets the owner cancel an order; stock goes back in the same transaction.
func (s *OrderService) Cancel(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	if _, err := s.GetOrder(ctx, userID, orderID); err != nil {
		return nil, err
	}
	return s.apply(ctx, orderID, models.EventOrderCancelled, "cancelled by customer", func(o *models.Order) error {
		return o.TransitionTo(models.StatusCancelled)
	})
}

// ExpireOverduePayments cancels orders whose payment window closed and returns how many it cancelled.
func (s *OrderService) ExpireOverduePayments(ctx context.Context) (int, error) {
	overdue, err := s.Repo.ListOverdue(ctx, s.now(), expiryBatch)
	if err != nil {
		return 0, err
	}

	l := logging.FromContext(ctx)
	expired := 0
	for _, o := range overdue {
		_, err := s.apply(ctx, o.ID, models.EventPaymentExpired, "payment deadline passed", func(o *models.Order) error {
			if o.PaymentStatus != models.PaymentAwaitingPayment {
				return errUnchanged
			}
			if err := o.TransitionTo(models.StatusCancelled); err != nil {
				return err
			}
			o.PaymentStatus = models.PaymentExpired
			return nil
		})
		if err != nil {
			if errors.Is(err, errUnchanged) {
				continue
			}
			l.Error("order_expiry_failed", "order_id", o.ID, "error", err)
			continue
		}
		expired++
	}
	s.Metrics.Expired(expired)
	return expired, nil
}

// apply persists mutate through update and records the change.
func (s *OrderService) apply(ctx context.Context, orderID uuid.UUID, eventType, note string, mutate func(*models.Order) error) (*models.Order, error) {
	order, from, err := s.update(ctx, orderID, mutate)
	if err != nil {
		return nil, err
	}

	s.record(ctx, order, from, eventType, note)
	return order, nil
}

// update reloads the order, runs mutate and persists it under the version check,
// retrying when another writer got there first. It returns the status the order had before.
func (s *OrderService) update(ctx context.Context, orderID uuid.UUID, mutate func(*models.Order) error) (*models.Order, models.OrderStatus, error) {
	var (
		order *models.Order
		from  models.OrderStatus
	)
	err := withRetry(ctx, func() error {
		o, err := s.Repo.GetOrder(ctx, orderID)
		if err != nil {
			return notFound("order", err)
		}
		from = o.Status
		if err := mutate(o); err != nil {
			return err
		}
		restock := from != models.StatusCancelled && o.Status == models.StatusCancelled
		if err := s.Repo.UpdateOrder(ctx, o, restock); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return order, from, nil
}

func (s *OrderService) record(ctx context.Context, o *models.Order, from models.OrderStatus, eventType, note string) {
	l := logging.FromContext(ctx)
	if from != o.Status {
		s.Metrics.Transition(string(from), string(o.Status))
	}
	l.Info("order_updated", "order_id", o.ID, "from", from, "to", o.Status, "payment_status", o.PaymentStatus)

	if s.Timeline != nil {
		if err := s.Timeline.Append(ctx, models.TimelineEvent{
			OrderID: o.ID,
			Type:    eventType,
			From:    from,
			To:      o.Status,
			Note:    note,
			At:      s.now(),
		}); err != nil {
			l.Warn("timeline_append_failed", "order_id", o.ID, "error", err)
		}
	}
	if s.Events != nil {
		if err := s.Events.PublishEvent(ctx, events.TopicOrder, o.ID.String(), orderEvent{
			Type:    eventType,
			OrderID: o.ID,
			UserID:  o.UserID,
			Status:  o.Status,
			Payment: o.PaymentStatus,
			Total:   o.Total,
		}); err != nil {
			l.Warn("order_event_publish_failed", "order_id", o.ID, "error", err)
		}
	}
}
