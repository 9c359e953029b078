package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/services/storefront/internal/metrics"
	"github.com/Skotchmaster/storefront/services/storefront/internal/models"
	"github.com/Skotchmaster/storefront/services/storefront/internal/payment"
	"github.com/Skotchmaster/storefront/services/storefront/internal/repo"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	repo     *repo.GormRepo
	events   *events.Recorder
	timeline *repo.MemoryTimeline
	gateway  *stubGateway
	cart     *CartService
	checkout *CheckoutService
	orders   *OrderService
	clock    *clock
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type stubGateway struct {
	mu      sync.Mutex
	result  *payment.Result
	err     error
	charges []payment.ChargeRequest
	lookups []string
	// onCharge runs inside Charge, before the result is returned.
	onCharge func()
}

func (g *stubGateway) Charge(_ context.Context, req payment.ChargeRequest) (*payment.Result, error) {
	if g.onCharge != nil {
		g.onCharge()
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.charges = append(g.charges, req)
	return g.result, g.err
}

func (g *stubGateway) Status(_ context.Context, orderID string) (*payment.Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lookups = append(g.lookups, orderID)
	return g.result, g.err
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.Product{}, &models.Cart{}, &models.CartItem{}, &models.Order{}, &models.OrderItem{},
	))

	r := &repo.GormRepo{DB: db}
	rec := &events.Recorder{}
	tl := repo.NewMemoryTimeline()
	m := metrics.New(prometheus.NewRegistry())
	gw := &stubGateway{result: &payment.Result{TransactionID: "tx-1", Status: payment.StatusCapture}}
	clk := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}

	return &testEnv{
		repo:     r,
		events:   rec,
		timeline: tl,
		gateway:  gw,
		clock:    clk,
		cart:     &CartService{Repo: r, Events: rec, Metrics: m},
		checkout: &CheckoutService{
			Repo:       r,
			Events:     rec,
			Timeline:   tl,
			Metrics:    m,
			Pricing:    Pricing{ShippingFee: 500, FreeShippingThreshold: 10000},
			PaymentTTL: time.Hour,
			Now:        clk.Now,
		},
		orders: &OrderService{
			Repo:      r,
			Events:    rec,
			Timeline:  tl,
			Metrics:   m,
			Gateway:   gw,
			ServerKey: "server-key",
			Now:       clk.Now,
		},
	}
}

func (e *testEnv) product(t *testing.T, name string, price, stock int64) models.Product {
	t.Helper()
	p := models.Product{ID: uuid.New(), Name: name, Price: price, Stock: stock, IsActive: true}
	require.NoError(t, e.repo.DB.Create(&p).Error)
	return p
}

func (e *testEnv) stock(t *testing.T, id uuid.UUID) int64 {
	t.Helper()
	var p models.Product
	require.NoError(t, e.repo.DB.First(&p, "id = ?", id).Error)
	return p.Stock
}

func (e *testEnv) add(t *testing.T, userID, productID uuid.UUID, qty int64) *AddResult {
	t.Helper()
	res, err := e.cart.AddItem(context.Background(), AddItemCommand{UserID: userID, ProductID: productID, Quantity: qty})
	require.NoError(t, err)
	return res
}

func address() models.Address {
	return models.Address{Street: "1 Main St", City: "Springfield", Country: "US"}
}

func (e *testEnv) order(t *testing.T, userID uuid.UUID, method models.PaymentMethod) *models.Order {
	t.Helper()
	o, err := e.checkout.CreateOrder(context.Background(), CreateOrderCommand{
		UserID:          userID,
		ShippingAddress: address(),
		PaymentMethod:   method,
	})
	require.NoError(t, err)
	return o
}
