package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skotchmaster/storefront/pkg/breaker"
	"github.com/Skotchmaster/storefront/pkg/errs"
	"github.com/sony/gobreaker/v2"
)

const (
	StatusCapture    = "capture"
	StatusSettlement = "settlement"
	StatusPending    = "pending"
	StatusDeny       = "deny"
	StatusExpire     = "expire"
	StatusCancel     = "cancel"
)

var (
	ErrDeclined      = fmt.Errorf("payment declined: %w", errs.ErrUpstream)
	ErrUnavailable   = fmt.Errorf("payment gateway unavailable: %w", errs.ErrUpstream)
	ErrNotConfigured = fmt.Errorf("payment gateway not configured: %w", errs.ErrUpstream)
)

type Item struct {
	ID       string
	Name     string
	Price    int64
	Quantity int64
}

type ChargeRequest struct {
	OrderID   string
	Amount    int64
	CardToken string
	Items     []Item
}

type Result struct {
	TransactionID string
	Status        string
}

func (r *Result) Settled() bool {
	return r != nil && (r.Status == StatusCapture || r.Status == StatusSettlement)
}

type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (*Result, error)
	Status(ctx context.Context, orderID string) (*Result, error)
}

// Guarded trips a circuit breaker around the wrapped gateway so a failing
// provider is not hammered by every checkout.
type Guarded struct {
	next Gateway
	cb   *gobreaker.CircuitBreaker[*Result]
}

func WithBreaker(next Gateway, name string) *Guarded {
	return &Guarded{next: next, cb: breaker.New[*Result](name)}
}

func (g *Guarded) Charge(ctx context.Context, req ChargeRequest) (*Result, error) {
	return g.run(func() (*Result, error) { return g.next.Charge(ctx, req) })
}

func (g *Guarded) Status(ctx context.Context, orderID string) (*Result, error) {
	return g.run(func() (*Result, error) { return g.next.Status(ctx, orderID) })
}

func (g *Guarded) run(fn func() (*Result, error)) (*Result, error) {
	res, err := g.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, ErrUnavailable
	}
	return res, err
}

// Disabled is used when no gateway credentials are configured.
type Disabled struct{}

func (Disabled) Charge(context.Context, ChargeRequest) (*Result, error) {
	return nil, ErrNotConfigured
}

func (Disabled) Status(context.Context, string) (*Result, error) {
	return nil, ErrNotConfigured
}
