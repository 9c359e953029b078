package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skotchmaster/storefront/pkg/errs"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/services/storefront/internal/models"
	"github.com/Skotchmaster/storefront/services/storefront/internal/payment"
	"github.com/google/uuid"
)

func markPaid(ref string) func(*models.Order) error {
	return func(o *models.Order) error {
		if o.PaymentStatus == models.PaymentPaid {
			return fmt.Errorf("order is already paid: %w", errs.ErrConflict)
		}
		o.PaymentStatus = models.PaymentPaid
		o.PaymentRef = ref
		return o.TransitionTo(models.StatusProcessing)
	}
}

func checkPayable(o *models.Order) error {
	switch {
	case o.PaymentStatus == models.PaymentPaid:
		return fmt.Errorf("order is already paid: %w", errs.ErrConflict)
	case o.PaymentStatus == models.PaymentExpired:
		return fmt.Errorf("payment window has expired: %w", errs.ErrConflict)
	case o.PaymentStatus == models.PaymentCharging:
		return models.ErrPaymentInProgress
	case !o.Status.CanTransitionTo(models.StatusProcessing):
		return fmt.Errorf("order is %s: %w", o.Status, models.ErrInvalidTransition)
	}
	return nil
}

// claimPayment marks a charge as in flight; cancel and expiry back off until it resolves.
func claimPayment(o *models.Order) error {
	if err := checkPayable(o); err != nil {
		return err
	}
	o.PaymentStatus = models.PaymentCharging
	return nil
}

// ProcessPayment settles an order through its payment method and moves it to processing.
func (s *OrderService) ProcessPayment(ctx context.Context, cmd ProcessPaymentCommand) (order *models.Order, err error) {
	o, err := s.GetOrder(ctx, cmd.UserID, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	defer func() { s.Metrics.Payment(string(o.PaymentMethod), err) }()

	if err := checkPayable(o); err != nil {
		return nil, err
	}
	if o.PaymentMethod == models.PaymentCOD {
		return s.apply(ctx, o.ID, models.EventOrderPaid, string(o.PaymentMethod), markPaid("cod"))
	}
	if err := s.canSettle(o, cmd.CardToken); err != nil {
		return nil, err
	}

	claimed, _, err := s.update(ctx, o.ID, claimPayment)
	if err != nil {
		return nil, err
	}

	// the claim must be resolved even if the caller goes away mid charge
	detached := context.WithoutCancel(ctx)
	ref, err := s.settle(ctx, claimed, cmd.CardToken)
	if err != nil {
		s.releaseClaim(detached, o.ID)
		return nil, err
	}
	return s.capture(detached, o, ref)
}

func (s *OrderService) canSettle(o *models.Order, cardToken string) error {
	switch o.PaymentMethod {
	case models.PaymentCard:
		if cardToken == "" {
			return fmt.Errorf("card_token required: %w", errs.ErrValidation)
		}
	case models.PaymentGateway:
	default:
		return fmt.Errorf("unsupported payment method %q: %w", o.PaymentMethod, errs.ErrValidation)
	}
	if s.Gateway == nil {
		return payment.ErrNotConfigured
	}
	return nil
}

func (s *OrderService) releaseClaim(ctx context.Context, orderID uuid.UUID) {
	_, _, err := s.update(ctx, orderID, func(o *models.Order) error {
		if o.PaymentStatus != models.PaymentCharging {
			return errUnchanged
		}
		o.PaymentStatus = models.PaymentAwaitingPayment
		return nil
	})
	if err != nil && !errors.Is(err, errUnchanged) {
		logging.FromContext(ctx).Error("payment_claim_release_failed", "order_id", orderID, "error", err)
	}
}

// capture records a settled charge. A gateway notification may have recorded it already.
func (s *OrderService) capture(ctx context.Context, o *models.Order, ref string) (*models.Order, error) {
	paid, err := s.apply(ctx, o.ID, models.EventOrderPaid, string(o.PaymentMethod), func(cur *models.Order) error {
		if cur.PaymentStatus == models.PaymentPaid {
			return errUnchanged
		}
		return markPaid(ref)(cur)
	})
	if errors.Is(err, errUnchanged) {
		return s.Repo.GetOrder(ctx, o.ID)
	}
	if err != nil {
		logging.FromContext(ctx).Error("payment_capture_unrecorded",
			"order_id", o.ID, "transaction_id", ref, "error", err)
		return nil, err
	}
	return paid, nil
}

func (s *OrderService) settle(ctx context.Context, o *models.Order, cardToken string) (string, error) {
	var (
		res *payment.Result
		err error
	)
	if o.PaymentMethod == models.PaymentCard {
		res, err = s.Gateway.Charge(ctx, chargeRequest(o, cardToken))
	} else {
		res, err = s.Gateway.Status(ctx, o.ID.String())
	}
	if err != nil {
		return "", err
	}
	if !res.Settled() {
		return "", fmt.Errorf("transaction %s is %s: %w", res.TransactionID, res.Status, payment.ErrDeclined)
	}
	return res.TransactionID, nil
}

func chargeRequest(o *models.Order, token string) payment.ChargeRequest {
	req := payment.ChargeRequest{
		OrderID:   o.ID.String(),
		Amount:    o.Total,
		CardToken: token,
		Items:     make([]payment.Item, 0, len(o.Items)+1),
	}
	for _, it := range o.Items {
		req.Items = append(req.Items, payment.Item{
			ID:       it.ProductID.String(),
			Name:     it.Name,
			Price:    it.UnitPrice,
			Quantity: it.Quantity,
		})
	}
	if o.ShippingFee > 0 {
		req.Items = append(req.Items, payment.Item{ID: "shipping", Name: "Shipping", Price: o.ShippingFee, Quantity: 1})
	}
	return req
}

// HandleNotification applies a gateway callback. Only settled transactions change the order;
// repeated callbacks for an already paid order are accepted and ignored.
func (s *OrderService) HandleNotification(ctx context.Context, n payment.Notification) error {
	if err := n.Verify(s.ServerKey); err != nil {
		return err
	}
	l := logging.FromContext(ctx).With("order_id", n.OrderID, "transaction_status", n.TransactionStatus)

	orderID, err := uuid.Parse(n.OrderID)
	if err != nil {
		return fmt.Errorf("order_id: %w", errs.ErrValidation)
	}
	if !n.Settled() {
		l.Info("payment_notification_ignored")
		return nil
	}

	_, err = s.apply(ctx, orderID, models.EventOrderPaid, "gateway notification", func(o *models.Order) error {
		if o.PaymentStatus == models.PaymentPaid {
			return errUnchanged
		}
		return markPaid(n.TransactionID)(o)
	})
	if errors.Is(err, errUnchanged) {
		l.Info("payment_notification_duplicate")
		return nil
	}
	return err
}
