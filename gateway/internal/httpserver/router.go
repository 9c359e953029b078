package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/Skotchmaster/storefront/gateway/internal/middleware"
	authmw "github.com/Skotchmaster/storefront/pkg/middleware/auth"
	"github.com/Skotchmaster/storefront/pkg/middleware/csrf"
	"github.com/labstack/echo/v4"
)

type Deps struct {
	AuthURL       string
	CatalogURL    string
	StorefrontURL string

	CSRFConfig csrf.Config
	JWTSecret  []byte
	Refresher  authmw.Refresher
	Logger     *slog.Logger
}

// PublicPaths bypass the CSRF check: they either create the session or are called by
// machines without a browser cookie jar.
var PublicPaths = []string{
	"/health/live",
	"/health/ready",
	"/metrics",
	"/api/v1/auth/login",
	"/api/v1/auth/register",
	"/api/v1/auth/refresh",
	"/api/v1/auth/password/forgot",
	"/api/v1/auth/password/reset",
	"/api/v1/payments/notifications",
}

var writeMethods = []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete}

func Register(e *echo.Echo, d *Deps) error {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	for _, m := range middleware.Common(logger) {
		e.Use(m)
	}
	e.Use(csrf.Middleware(d.CSRFConfig))

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	authProxy, err := newProxy(d.AuthURL, "/api/v1/auth")
	if err != nil {
		return err
	}
	catalogProxy, err := newProxy(d.CatalogURL, "/api/v1")
	if err != nil {
		return err
	}
	storefrontProxy, err := newProxy(d.StorefrontURL, "/api/v1")
	if err != nil {
		return err
	}

	e.Any("/api/v1/auth/*", authProxy)
	e.GET("/api/v1/catalog/*", catalogProxy)
	e.POST("/api/v1/payments/notifications", storefrontProxy)

	api := e.Group("/api/v1")
	api.Use(middleware.Authenticate(d.JWTSecret, d.Refresher))

	api.Match(writeMethods, "/catalog/*", catalogProxy)
	api.Any("/cart", storefrontProxy)
	api.Any("/cart/*", storefrontProxy)
	api.Any("/checkout/*", storefrontProxy)
	api.Any("/orders", storefrontProxy)
	api.Any("/orders/*", storefrontProxy)
	api.PATCH("/orders/:id/status", storefrontProxy, middleware.RequireRole([]string{"admin"}))

	return nil
}
