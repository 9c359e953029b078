package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Skotchmaster/storefront/pkg/errs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestResult(t *testing.T) {
	assert.Equal(t, "ok", Result(nil))
	assert.Equal(t, "stock", Result(fmt.Errorf("x: %w", errs.ErrStockExceeded)))
	assert.Equal(t, "conflict", Result(errs.ErrConflict))
	assert.Equal(t, "upstream", Result(errs.ErrUpstream))
	assert.Equal(t, "error", Result(errors.New("boom")))
}

func TestCountersAndReRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	again := New(reg)

	m.CartMutation("add", nil)
	again.CartMutation("add", nil)
	m.Checkout(time.Now(), errs.ErrStockExceeded)
	m.Expired(2)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.cartMutations.WithLabelValues("add", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.checkouts.WithLabelValues("stock")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.expired))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.CartMutation("add", nil)
	m.Checkout(time.Now(), nil)
	m.Transition("pending", "processing")
	m.Payment("card", nil)
	m.Expired(1)
}
