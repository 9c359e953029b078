package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Skotchmaster/storefront/gateway/internal/config"
	"github.com/Skotchmaster/storefront/gateway/internal/httpserver"
	"github.com/Skotchmaster/storefront/pkg/authclient"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/middleware/csrf"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
)

func main() {
	cfg := config.Load()

	logger := logging.New(cfg.LogLevel).With("service", "gateway")
	slog.SetDefault(logger)

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	csrfCfg := csrf.DefaultConfig()
	csrfCfg.Secure = cfg.SecureCookies
	csrfCfg.SkipPaths = httpserver.PublicPaths

	if err := httpserver.Register(e, &httpserver.Deps{
		AuthURL:       cfg.AuthURL,
		CatalogURL:    cfg.CatalogURL,
		StorefrontURL: cfg.StorefrontURL,
		CSRFConfig:    csrfCfg,
		JWTSecret:     cfg.JWTSecret,
		Refresher:     authclient.NewClient(cfg.AuthURL),
		Logger:        logger,
	}); err != nil {
		log.Fatal(err)
	}
	e.Use(echoprometheus.NewMiddleware("gateway"))
	e.GET("/metrics", echoprometheus.NewHandler())

	go func() {
		logger.Info("gateway starting", "addr", cfg.ListenAddr)
		if err := e.Start(cfg.ListenAddr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown: %v", err)
	}
}
