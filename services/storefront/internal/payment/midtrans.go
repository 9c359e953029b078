package payment

import (
	"context"
	"fmt"
	"math"

	"github.com/Skotchmaster/storefront/pkg/errs"
	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
)

type Midtrans struct {
	client *coreapi.Client
}

func NewMidtrans(serverKey string, production bool) *Midtrans {
	env := midtrans.Sandbox
	if production {
		env = midtrans.Production
	}

	c := &coreapi.Client{}
	c.New(serverKey, env)
	return &Midtrans{client: c}
}

func (m *Midtrans) Charge(ctx context.Context, req ChargeRequest) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	items, err := itemDetails(req.Items)
	if err != nil {
		return nil, err
	}

	resp, mErr := m.client.ChargeTransaction(&coreapi.ChargeReq{
		PaymentType: coreapi.PaymentTypeCreditCard,
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  req.OrderID,
			GrossAmt: req.Amount,
		},
		CreditCard: &coreapi.CreditCardDetails{
			TokenID:        req.CardToken,
			Authentication: false,
		},
		Items: &items,
	})
	if mErr != nil {
		return nil, fmt.Errorf("midtrans charge %s: %s: %w", req.OrderID, mErr.Message, errs.ErrUpstream)
	}
	return &Result{TransactionID: resp.TransactionID, Status: resp.TransactionStatus}, nil
}

// itemDetails converts line items; midtrans carries quantities as int32.
func itemDetails(in []Item) ([]midtrans.ItemDetails, error) {
	items := make([]midtrans.ItemDetails, 0, len(in))
	for _, it := range in {
		if it.Quantity < 1 || it.Quantity > math.MaxInt32 {
			return nil, fmt.Errorf("item %s: quantity %d out of range: %w", it.ID, it.Quantity, errs.ErrValidation)
		}
		items = append(items, midtrans.ItemDetails{
			ID:    it.ID,
			Name:  it.Name,
			Price: it.Price,
			Qty:   int32(it.Quantity),
		})
	}
	return items, nil
}

func (m *Midtrans) Status(ctx context.Context, orderID string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp, mErr := m.client.CheckTransaction(orderID)
	if mErr != nil {
		return nil, fmt.Errorf("midtrans status %s: %s: %w", orderID, mErr.Message, errs.ErrUpstream)
	}
	return &Result{TransactionID: resp.TransactionID, Status: resp.TransactionStatus}, nil
}
