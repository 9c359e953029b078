package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Skotchmaster/storefront/pkg/errs"
	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/services/storefront/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPricingShippingFor(t *testing.T) {
	p := Pricing{ShippingFee: 500, FreeShippingThreshold: 10000}
	assert.Equal(t, int64(500), p.ShippingFor(9999))
	assert.Equal(t, int64(0), p.ShippingFor(10000))
	assert.Equal(t, int64(500), Pricing{ShippingFee: 500}.ShippingFor(1_000_000))
}

func TestCreateOrder_HappyPath(t *testing.T) {
	env := newTestEnv(t)
	mug := env.product(t, "mug", 1200, 10)
	tee := env.product(t, "tee", 2500, 3)
	user := uuid.New()
	env.add(t, user, mug.ID, 2)
	env.add(t, user, tee.ID, 1)

	o := env.order(t, user, models.PaymentCOD)

	assert.Equal(t, models.StatusPending, o.Status)
	assert.Equal(t, models.PaymentPending, o.PaymentStatus)
	assert.Nil(t, o.PaymentDueAt)
	assert.Equal(t, int64(4900), o.Subtotal)
	assert.Equal(t, int64(500), o.ShippingFee)
	assert.Equal(t, int64(5400), o.Total)
	assert.Len(t, o.Items, 2)

	assert.Equal(t, int64(8), env.stock(t, mug.ID))
	assert.Equal(t, int64(2), env.stock(t, tee.ID))

	view, err := env.cart.GetCart(context.Background(), user)
	require.NoError(t, err)
	assert.Empty(t, view.Items)

	assert.Len(t, env.events.Events(events.TopicOrder), 1)
	tl, err := env.timeline.List(context.Background(), o.ID)
	require.NoError(t, err)
	require.Len(t, tl, 1)
	assert.Equal(t, models.EventOrderCreated, tl[0].Type)
}

func TestCreateOrder_PaymentStatusByMethod(t *testing.T) {
	cases := []struct {
		method  models.PaymentMethod
		want    models.PaymentStatus
		withDue bool
	}{
		{models.PaymentCOD, models.PaymentPending, false},
		{models.PaymentCard, models.PaymentAwaitingPayment, true},
		{models.PaymentGateway, models.PaymentAwaitingPayment, true},
	}
	for _, tc := range cases {
		t.Run(string(tc.method), func(t *testing.T) {
			env := newTestEnv(t)
			p := env.product(t, "mug", 100, 5)
			user := uuid.New()
			env.add(t, user, p.ID, 1)

			o := env.order(t, user, tc.method)
			assert.Equal(t, tc.want, o.PaymentStatus)
			if tc.withDue {
				require.NotNil(t, o.PaymentDueAt)
				assert.True(t, o.PaymentDueAt.Equal(env.clock.Now().Add(time.Hour)))
			} else {
				assert.Nil(t, o.PaymentDueAt)
			}
		})
	}
}

func TestCreateOrder_FreeShippingAboveThreshold(t *testing.T) {
	env := newTestEnv(t)
	p := env.product(t, "lamp", 6000, 5)
	user := uuid.New()
	env.add(t, user, p.ID, 2)

	o := env.order(t, user, models.PaymentCOD)
	assert.Zero(t, o.ShippingFee)
	assert.Equal(t, int64(12000), o.Total)
}

func TestCreateOrder_CommandValidation(t *testing.T) {
	env := newTestEnv(t)
	p := env.product(t, "mug", 100, 5)
	user := uuid.New()
	env.add(t, user, p.ID, 1)
	ctx := context.Background()

	_, err := env.checkout.CreateOrder(ctx, CreateOrderCommand{UserID: user, ShippingAddress: address(), PaymentMethod: "barter"})
	assert.True(t, errors.Is(err, errs.ErrValidation))

	_, err = env.checkout.CreateOrder(ctx, CreateOrderCommand{UserID: user, ShippingAddress: models.Address{City: "x"}, PaymentMethod: models.PaymentCOD})
	assert.True(t, errors.Is(err, errs.ErrValidation))

	_, err = env.checkout.CreateOrder(ctx, CreateOrderCommand{UserID: uuid.New(), ShippingAddress: address(), PaymentMethod: models.PaymentCOD})
	assert.True(t, errors.Is(err, errs.ErrValidation), "empty cart")
}

func TestCreateOrder_ShortStockChangesNothing(t *testing.T) {
	env := newTestEnv(t)
	ok := env.product(t, "ok", 100, 10)
	short := env.product(t, "short", 100, 5)
	user := uuid.New()
	ctx := context.Background()
	env.add(t, user, ok.ID, 2)
	env.add(t, user, short.ID, 4)

	require.NoError(t, env.repo.DB.Model(&models.Product{}).Where("id = ?", short.ID).Update("stock", 3).Error)

	_, err := env.checkout.CreateOrder(ctx, CreateOrderCommand{UserID: user, ShippingAddress: address(), PaymentMethod: models.PaymentCOD})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrStockExceeded))

	var se *StockError
	require.True(t, errors.As(err, &se))
	require.Len(t, se.Shortfalls, 1)
	assert.Equal(t, short.ID, se.Shortfalls[0].ProductID)
	assert.Equal(t, int64(3), se.Shortfalls[0].Available)
	assert.Equal(t, int64(4), se.Shortfalls[0].Requested)

	assert.Equal(t, int64(10), env.stock(t, ok.ID))
	assert.Equal(t, int64(3), env.stock(t, short.ID))

	var orders int64
	require.NoError(t, env.repo.DB.Model(&models.Order{}).Count(&orders).Error)
	assert.Zero(t, orders)

	view, err := env.cart.GetCart(ctx, user)
	require.NoError(t, err)
	assert.Len(t, view.Items, 2)
}

func TestCreateOrder_MissingProductAborts(t *testing.T) {
	env := newTestEnv(t)
	p := env.product(t, "gone", 100, 5)
	user := uuid.New()
	env.add(t, user, p.ID, 1)
	require.NoError(t, env.repo.DB.Model(&models.Product{}).Where("id = ?", p.ID).Update("is_active", false).Error)

	_, err := env.checkout.CreateOrder(context.Background(), CreateOrderCommand{UserID: user, ShippingAddress: address(), PaymentMethod: models.PaymentCOD})
	var se *StockError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, int64(0), se.Shortfalls[0].Available)
}

func TestCreateOrder_SnapshotIgnoresLaterPriceChange(t *testing.T) {
	env := newTestEnv(t)
	p := env.product(t, "mug", 1200, 5)
	user := uuid.New()
	env.add(t, user, p.ID, 1)
	o := env.order(t, user, models.PaymentCOD)

	require.NoError(t, env.repo.DB.Model(&models.Product{}).Where("id = ?", p.ID).Updates(map[string]any{"price": 9999, "name": "renamed"}).Error)

	got, err := env.orders.GetOrder(context.Background(), user, o.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, int64(1200), got.Items[0].UnitPrice)
	assert.Equal(t, "mug", got.Items[0].Name)
	assert.Equal(t, o.Total, got.Total)
}

func TestCreateOrder_LastUnitRace(t *testing.T) {
	env := newTestEnv(t)
	p := env.product(t, "last one", 100, 1)
	buyers := []uuid.UUID{uuid.New(), uuid.New()}
	for _, b := range buyers {
		env.add(t, b, p.ID, 1)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []error
	)
	for _, b := range buyers {
		wg.Add(1)
		go func(user uuid.UUID) {
			defer wg.Done()
			_, err := env.checkout.CreateOrder(context.Background(), CreateOrderCommand{
				UserID: user, ShippingAddress: address(), PaymentMethod: models.PaymentCOD,
			})
			mu.Lock()
			results = append(results, err)
			mu.Unlock()
		}(b)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, errors.Is(err, errs.ErrStockExceeded), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, int64(0), env.stock(t, p.ID))
}

func TestValidateCartAndSummary(t *testing.T) {
	env := newTestEnv(t)
	p := env.product(t, "mug", 1000, 5)
	user := uuid.New()
	ctx := context.Background()

	_, err := env.cart.AddItem(ctx, AddItemCommand{UserID: user, ProductID: p.ID, Variant: "blue", Quantity: 3})
	require.NoError(t, err)
	_, err = env.cart.AddItem(ctx, AddItemCommand{UserID: user, ProductID: p.ID, Variant: "red", Quantity: 2})
	require.NoError(t, err)

	sf, err := env.checkout.ValidateCart(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, sf)

	require.NoError(t, env.repo.DB.Model(&models.Product{}).Where("id = ?", p.ID).Update("stock", 4).Error)
	sf, err = env.checkout.ValidateCart(ctx, user)
	require.NoError(t, err)
	require.Len(t, sf, 1)
	assert.Equal(t, int64(5), sf[0].Requested)
	assert.Equal(t, int64(4), sf[0].Available)

	sum, err := env.checkout.Summary(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), sum.Subtotal)
	assert.Equal(t, int64(500), sum.ShippingFee)
	assert.Equal(t, int64(5500), sum.Total)
	assert.False(t, sum.Purchasable)

	empty, err := env.checkout.Summary(ctx, uuid.New())
	require.NoError(t, err)
	assert.Zero(t, empty.Total)
	assert.False(t, empty.Purchasable)
}
