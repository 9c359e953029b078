package httpserver

import (
	"net/http"

	"github.com/Skotchmaster/storefront/pkg/logging"
	middleware "github.com/Skotchmaster/storefront/pkg/middleware/auth"
	"github.com/Skotchmaster/storefront/services/storefront/internal/service"
	"github.com/Skotchmaster/storefront/services/storefront/internal/transport"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type CartHTTP struct {
	Svc      *service.CartService
	Checkout *service.CheckoutService
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, transport.ErrorResponse{Error: "unauthorized"})
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "get.cart")

	userID, err := middleware.UserID(c)
	if err != nil {
		return unauthorized(c)
	}

	view, err := h.Svc.GetCart(ctx, userID)
	if err != nil {
		return fail(c, l, "get_cart_error", err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *CartHTTP) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "add.cart")

	userID, err := middleware.UserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req transport.AddItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "add_to_cart_error", "invalid body", err)
	}

	res, err := h.Svc.AddItem(ctx, service.AddItemCommand{
		UserID:    userID,
		ProductID: req.ProductID,
		Variant:   req.Variant,
		Quantity:  req.Quantity,
	})
	if err != nil {
		return fail(c, l, "add_to_cart_error", err)
	}

	l.Info("item added to cart", "product_id", req.ProductID, "added", res.Added)
	return c.JSON(http.StatusOK, res)
}

func (h *CartHTTP) UpdateQuantity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "update.cart")

	userID, err := middleware.UserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req transport.UpdateQuantityRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "update_cart_error", "invalid body", err)
	}

	view, err := h.Svc.UpdateQuantity(ctx, service.UpdateQuantityCommand{
		UserID:   userID,
		ItemID:   req.ItemID,
		Quantity: req.Quantity,
	})
	if err != nil {
		return fail(c, l, "update_cart_error", err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "remove.cart")

	userID, err := middleware.UserID(c)
	if err != nil {
		return unauthorized(c)
	}

	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		return badRequest(c, l, "remove_from_cart_error", "invalid item id", err)
	}

	view, err := h.Svc.RemoveItem(ctx, userID, itemID)
	if err != nil {
		return fail(c, l, "remove_from_cart_error", err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *CartHTTP) Clear(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "clear.cart")

	userID, err := middleware.UserID(c)
	if err != nil {
		return unauthorized(c)
	}

	if err := h.Svc.Clear(ctx, userID); err != nil {
		return fail(c, l, "clear_cart_error", err)
	}

	l.Info("cart cleared")
	return c.NoContent(http.StatusNoContent)
}

func (h *CartHTTP) Validate(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "validate.cart")

	userID, err := middleware.UserID(c)
	if err != nil {
		return unauthorized(c)
	}

	sf, err := h.Checkout.ValidateCart(ctx, userID)
	if err != nil {
		return fail(c, l, "validate_cart_error", err)
	}
	return c.JSON(http.StatusOK, transport.ValidateResponse{Valid: len(sf) == 0, StockErrors: shortfallDTOs(sf)})
}

func (h *CartHTTP) Summary(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.summary")

	userID, err := middleware.UserID(c)
	if err != nil {
		return unauthorized(c)
	}

	sum, err := h.Checkout.Summary(ctx, userID)
	if err != nil {
		return fail(c, l, "checkout_summary_error", err)
	}
	return c.JSON(http.StatusOK, sum)
}
