package metrics

import (
	"errors"
	"time"

	"github.com/Skotchmaster/storefront/pkg/errs"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the storefront business counters. A nil *Metrics records nothing.
type Metrics struct {
	cartMutations    *prometheus.CounterVec
	checkouts        *prometheus.CounterVec
	checkoutDuration prometheus.Histogram
	transitions      *prometheus.CounterVec
	payments         *prometheus.CounterVec
	expired          prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cartMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "cart_mutations_total",
			Help:      "Cart writes by operation and result.",
		}, []string{"op", "result"}),
		checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "checkouts_total",
			Help:      "Order creation attempts by result.",
		}, []string{"result"}),
		checkoutDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "storefront",
			Name:      "checkout_duration_seconds",
			Help:      "Time spent creating an order.",
			Buckets:   prometheus.DefBuckets,
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "order_transitions_total",
			Help:      "Order status transitions.",
		}, []string{"from", "to"}),
		payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "payments_total",
			Help:      "Payment attempts by method and result.",
		}, []string{"method", "result"}),
		expired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "payments_expired_total",
			Help:      "Orders cancelled because their payment deadline passed.",
		}),
	}

	m.cartMutations = register(reg, m.cartMutations)
	m.checkouts = register(reg, m.checkouts)
	m.checkoutDuration = register(reg, m.checkoutDuration)
	m.transitions = register(reg, m.transitions)
	m.payments = register(reg, m.payments)
	m.expired = register(reg, m.expired)
	return m
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if reg == nil {
		return c
	}
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// Result turns an error into a low-cardinality label.
func Result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, errs.ErrStockExceeded):
		return "stock"
	case errors.Is(err, errs.ErrValidation):
		return "validation"
	case errors.Is(err, errs.ErrNotFound):
		return "not_found"
	case errors.Is(err, errs.ErrUnauthorized):
		return "forbidden"
	case errors.Is(err, errs.ErrConflict):
		return "conflict"
	case errors.Is(err, errs.ErrUpstream):
		return "upstream"
	default:
		return "error"
	}
}

func (m *Metrics) CartMutation(op string, err error) {
	if m == nil {
		return
	}
	m.cartMutations.WithLabelValues(op, Result(err)).Inc()
}

func (m *Metrics) Checkout(start time.Time, err error) {
	if m == nil {
		return
	}
	m.checkouts.WithLabelValues(Result(err)).Inc()
	m.checkoutDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) Transition(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) Payment(method string, err error) {
	if m == nil {
		return
	}
	m.payments.WithLabelValues(method, Result(err)).Inc()
}

func (m *Metrics) Expired(n int) {
	if m == nil {
		return
	}
	m.expired.Add(float64(n))
}
