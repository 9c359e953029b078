package httpserver

import (
	"net/http"

	"github.com/Skotchmaster/storefront/pkg/logging"
	authmw "github.com/Skotchmaster/storefront/pkg/middleware/auth"
	"github.com/Skotchmaster/storefront/services/auth/internal/service"
	"github.com/Skotchmaster/storefront/services/auth/internal/transport"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func (h *AuthHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account_me")

	userID, err := authmw.UserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	user, err := h.Svc.Me(ctx, userID)
	if err != nil {
		return httpError(l, "account_me_failed", err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *AuthHTTP) ListAddresses(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account_addresses")

	userID, err := authmw.UserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	addrs, err := h.Svc.ListAddresses(ctx, userID)
	if err != nil {
		return httpError(l, "list_addresses_failed", err)
	}
	return c.JSON(http.StatusOK, addrs)
}

func (h *AuthHTTP) AddAddress(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account_add_address")

	userID, err := authmw.UserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req transport.AddressRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	addr, err := h.Svc.AddAddress(ctx, userID, service.AddressInput{
		Street:    req.Street,
		City:      req.City,
		State:     req.State,
		ZipCode:   req.ZipCode,
		Country:   req.Country,
		IsDefault: req.IsDefault,
	})
	if err != nil {
		return httpError(l, "add_address_failed", err)
	}
	return c.JSON(http.StatusCreated, addr)
}

func (h *AuthHTTP) Wishlist(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account_wishlist")

	userID, err := authmw.UserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	items, err := h.Svc.Wishlist(ctx, userID)
	if err != nil {
		return httpError(l, "wishlist_failed", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *AuthHTTP) AddToWishlist(c echo.Context) error {
	return h.wishlistChange(c, true)
}

func (h *AuthHTTP) RemoveFromWishlist(c echo.Context) error {
	return h.wishlistChange(c, false)
}

func (h *AuthHTTP) wishlistChange(c echo.Context, add bool) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account_wishlist_change")

	userID, err := authmw.UserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "productId is not a uuid")
	}

	if add {
		err = h.Svc.AddToWishlist(ctx, userID, productID)
	} else {
		err = h.Svc.RemoveFromWishlist(ctx, userID, productID)
	}
	if err != nil {
		return httpError(l, "wishlist_change_failed", err)
	}
	return c.NoContent(http.StatusNoContent)
}
