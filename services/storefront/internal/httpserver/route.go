package httpserver

import (
	"context"
	"net/http"

	middleware "github.com/Skotchmaster/storefront/pkg/middleware/auth"
	"github.com/labstack/echo/v4"
)

type Deps struct {
	CartHandler  *CartHTTP
	OrderHandler *OrderHTTP
	JWTSecret    []byte
	AuthClient   middleware.Refresher
	Ready        func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return c.NoContent(http.StatusServiceUnavailable)
			}
		}
		return c.NoContent(http.StatusOK)
	})

	authMW := middleware.NewAutoRefreshMiddleware(d.JWTSecret, d.AuthClient)

	cart := e.Group("/cart")
	cart.Use(authMW.RequireAuth)

	cart.GET("", d.CartHandler.GetCart)
	cart.DELETE("", d.CartHandler.Clear)
	cart.POST("/add", d.CartHandler.AddItem)
	cart.PUT("/update", d.CartHandler.UpdateQuantity)
	cart.DELETE("/remove/:itemId", d.CartHandler.RemoveItem)
	cart.POST("/validate", d.CartHandler.Validate)
	cart.GET("/checkout", d.CartHandler.Summary)

	e.POST("/checkout/create", d.OrderHandler.CreateOrder, authMW.RequireAuth)

	orders := e.Group("/orders")
	orders.GET("", d.OrderHandler.ListOrders, authMW.RequireAuth)
	orders.GET("/:id", d.OrderHandler.GetOrder, authMW.RequireAuth)
	orders.GET("/:id/timeline", d.OrderHandler.Timeline, authMW.RequireAuth)
	orders.POST("/:id/payment", d.OrderHandler.ProcessPayment, authMW.RequireAuth)
	orders.POST("/:id/cancel", d.OrderHandler.Cancel, authMW.RequireAuth)
	orders.PATCH("/:id/status", d.OrderHandler.UpdateStatus, authMW.RequireAdmin)

	e.POST("/payments/notifications", d.OrderHandler.PaymentNotification)
}
