package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Skotchmaster/storefront/pkg/authclient"
	"github.com/Skotchmaster/storefront/pkg/db"
	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/pkg/logging"
	loggingmw "github.com/Skotchmaster/storefront/pkg/middleware/logging"
	"github.com/Skotchmaster/storefront/services/storefront/internal/config"
	"github.com/Skotchmaster/storefront/services/storefront/internal/httpserver"
	"github.com/Skotchmaster/storefront/services/storefront/internal/jobs"
	"github.com/Skotchmaster/storefront/services/storefront/internal/metrics"
	"github.com/Skotchmaster/storefront/services/storefront/internal/models"
	"github.com/Skotchmaster/storefront/services/storefront/internal/payment"
	"github.com/Skotchmaster/storefront/services/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/services/storefront/internal/service"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	cfg := config.Load()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.DatabaseURL)
	if err != nil {
		cancel()
		log.Fatalf("db init error: %v", err)
	}
	if err := db.Migrate(initCtx, gdb, cfg.AutoMigrate,
		&models.Cart{}, &models.CartItem{}, &models.Order{}, &models.OrderItem{},
	); err != nil {
		cancel()
		log.Fatalf("db migrate error: %v", err)
	}

	var (
		timeline    repo.Timeline = repo.NewMemoryTimeline()
		mongoClient *mongo.Client
	)
	if cfg.MongoURI != "" {
		mongoClient, err = mongo.Connect(initCtx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			cancel()
			log.Fatalf("mongo connect: %v", err)
		}
		if err := mongoClient.Ping(initCtx, nil); err != nil {
			cancel()
			log.Fatalf("mongo ping: %v", err)
		}
		mt := repo.NewMongoTimeline(mongoClient.Database(cfg.MongoDB))
		if err := mt.EnsureIndexes(initCtx); err != nil {
			logger.Warn("timeline_index_failed", "error", err)
		}
		timeline = mt
	}
	cancel()

	publisher, closeEvents := events.New(cfg.KafkaBrokers)

	var gateway payment.Gateway = payment.Disabled{}
	if cfg.MidtransServerKey != "" {
		gateway = payment.WithBreaker(payment.NewMidtrans(cfg.MidtransServerKey, cfg.MidtransProduction), "midtrans")
	} else {
		logger.Warn("payment_gateway_disabled", "reason", "MIDTRANS_SERVER_KEY not set, notifications are rejected")
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	r := &repo.GormRepo{DB: gdb}

	cartService := &service.CartService{Repo: r, Events: publisher, Metrics: m}
	checkoutService := &service.CheckoutService{
		Repo:     r,
		Events:   publisher,
		Timeline: timeline,
		Metrics:  m,
		Pricing: service.Pricing{
			ShippingFee:           cfg.ShippingFee,
			FreeShippingThreshold: cfg.FreeShippingThreshold,
		},
		PaymentTTL: cfg.PaymentTTL,
	}
	orderService := &service.OrderService{
		Repo:      r,
		Events:    publisher,
		Timeline:  timeline,
		Metrics:   m,
		Gateway:   gateway,
		ServerKey: cfg.MidtransServerKey,
	}

	e := echo.New()
	e.HideBanner = true

	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	e.Use(middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(echoprometheus.NewMiddleware("storefront"))
	e.GET("/metrics", echoprometheus.NewHandler())

	httpserver.Register(e, &httpserver.Deps{
		CartHandler:  &httpserver.CartHTTP{Svc: cartService, Checkout: checkoutService},
		OrderHandler: &httpserver.OrderHTTP{Svc: orderService, Checkout: checkoutService},
		JWTSecret:    cfg.JWTAccessSecret,
		AuthClient:   authclient.NewClient(cfg.AuthHTTPURL),
		Ready: func(ctx context.Context) error {
			sqlDB, err := gdb.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	})

	jobCtx, stopJobs := context.WithCancel(logging.IntoContext(context.Background(), logger))
	scheduler, err := jobs.Start(jobCtx, cfg.ExpiryInterval, &jobs.ExpiryJob{
		Orders:  orderService,
		Log:     logger.With("job", "payment_expiry"),
		Timeout: 30 * time.Second,
	})
	if err != nil {
		log.Fatalf("scheduler: %v", err)
	}

	addr := ":" + strconv.Itoa(cfg.ServerPort)
	go func() {
		logger.Info("storefront starting", "addr", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	stopJobs()
	if err := scheduler.Shutdown(); err != nil {
		logger.Warn("scheduler shutdown", "error", err)
	}
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Warn("echo shutdown", "error", err)
	}
	if err := closeEvents(); err != nil {
		logger.Warn("kafka close", "error", err)
	}
	if mongoClient != nil {
		_ = mongoClient.Disconnect(shutdownCtx)
	}
	db.Close(gdb)

	logger.Info("server stopped")
}
