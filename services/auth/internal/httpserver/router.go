package httpserver

import (
	"context"
	"net/http"

	"github.com/Skotchmaster/storefront/services/auth/internal/middleware"
	"github.com/labstack/echo/v4"
)

type Deps struct {
	AuthHandler *AuthHTTP
	JWTSecret   []byte
	Ready       func(ctx context.Context) error
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

	authMw := middleware.NewSimpleAuth(d.JWTSecret)

	e.POST("/register", d.AuthHandler.Register)
	e.POST("/login", d.AuthHandler.Login)
	e.POST("/refresh", d.AuthHandler.Refresh)
	e.POST("/logout", d.AuthHandler.LogOut)
	e.POST("/password/forgot", d.AuthHandler.ForgotPassword)
	e.POST("/password/reset", d.AuthHandler.ResetPassword)

	account := e.Group("/account")
	account.Use(authMw.RequireAuth)

	account.GET("/me", d.AuthHandler.Me)
	account.GET("/addresses", d.AuthHandler.ListAddresses)
	account.POST("/addresses", d.AuthHandler.AddAddress)
	account.GET("/wishlist", d.AuthHandler.Wishlist)
	account.POST("/wishlist/:productId", d.AuthHandler.AddToWishlist)
	account.DELETE("/wishlist/:productId", d.AuthHandler.RemoveFromWishlist)
}
