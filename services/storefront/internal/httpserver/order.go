package httpserver

import (
	"net/http"

	"github.com/Skotchmaster/storefront/pkg/logging"
	middleware "github.com/Skotchmaster/storefront/pkg/middleware/auth"
	"github.com/Skotchmaster/storefront/services/storefront/internal/models"
	"github.com/Skotchmaster/storefront/services/storefront/internal/payment"
	"github.com/Skotchmaster/storefront/services/storefront/internal/service"
	"github.com/Skotchmaster/storefront/services/storefront/internal/transport"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type OrderHTTP struct {
	Svc      *service.OrderService
	Checkout *service.CheckoutService
}

func (h *OrderHTTP) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "create.order")

	userID, err := middleware.UserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req transport.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "create_order_error", "invalid body", err)
	}

	order, err := h.Checkout.CreateOrder(ctx, service.CreateOrderCommand{
		UserID:          userID,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   models.PaymentMethod(req.PaymentMethod),
	})
	if err != nil {
		return fail(c, l, "create_order_error", err)
	}
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "list.orders")

	userID, err := middleware.UserID(c)
	if err != nil {
		return unauthorized(c)
	}

	orders, err := h.Svc.ListOrders(ctx, userID)
	if err != nil {
		return fail(c, l, "list_orders_error", err)
	}
	return c.JSON(http.StatusOK, orders)
}

// orderParams pulls the caller and the :id path param.
func orderParams(c echo.Context) (userID, orderID uuid.UUID, ok bool) {
	userID, err := middleware.UserID(c)
	if err != nil {
		return uuid.Nil, uuid.Nil, false
	}
	orderID, err = uuid.Parse(c.Param("id"))
	if err != nil {
		return userID, uuid.Nil, true
	}
	return userID, orderID, true
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "get.order")

	userID, orderID, ok := orderParams(c)
	if !ok {
		return unauthorized(c)
	}
	if orderID == uuid.Nil {
		return badRequest(c, l, "get_order_error", "invalid order id", nil)
	}

	order, err := h.Svc.GetOrder(ctx, userID, orderID)
	if err != nil {
		return fail(c, l, "get_order_error", err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) Timeline(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.timeline")

	userID, orderID, ok := orderParams(c)
	if !ok {
		return unauthorized(c)
	}
	if orderID == uuid.Nil {
		return badRequest(c, l, "order_timeline_error", "invalid order id", nil)
	}

	events, err := h.Svc.OrderTimeline(ctx, userID, orderID)
	if err != nil {
		return fail(c, l, "order_timeline_error", err)
	}
	return c.JSON(http.StatusOK, events)
}

func (h *OrderHTTP) ProcessPayment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.payment")

	userID, orderID, ok := orderParams(c)
	if !ok {
		return unauthorized(c)
	}
	if orderID == uuid.Nil {
		return badRequest(c, l, "process_payment_error", "invalid order id", nil)
	}

	var req transport.PaymentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "process_payment_error", "invalid body", err)
	}

	order, err := h.Svc.ProcessPayment(ctx, service.ProcessPaymentCommand{
		UserID:    userID,
		OrderID:   orderID,
		CardToken: req.CardToken,
	})
	if err != nil {
		return fail(c, l, "process_payment_error", err)
	}

	l.Info("order paid", "order_id", order.ID, "payment_method", order.PaymentMethod)
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) Cancel(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.cancel")

	userID, orderID, ok := orderParams(c)
	if !ok {
		return unauthorized(c)
	}
	if orderID == uuid.Nil {
		return badRequest(c, l, "cancel_order_error", "invalid order id", nil)
	}

	order, err := h.Svc.Cancel(ctx, userID, orderID)
	if err != nil {
		return fail(c, l, "cancel_order_error", err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.status")

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, l, "update_status_error", "invalid order id", err)
	}

	var req transport.UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "update_status_error", "invalid body", err)
	}

	order, err := h.Svc.UpdateStatus(ctx, orderID, models.OrderStatus(req.Status))
	if err != nil {
		return fail(c, l, "update_status_error", err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) PaymentNotification(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.notification")

	var n payment.Notification
	if err := c.Bind(&n); err != nil {
		return badRequest(c, l, "payment_notification_error", "invalid body", err)
	}

	if err := h.Svc.HandleNotification(ctx, n); err != nil {
		return fail(c, l, "payment_notification_error", err)
	}
	return c.NoContent(http.StatusOK)
}
