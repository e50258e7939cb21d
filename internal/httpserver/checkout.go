package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/atelierworks/storefront/internal/events"
	"github.com/atelierworks/storefront/internal/models"
	"github.com/atelierworks/storefront/internal/payment"
	"github.com/atelierworks/storefront/internal/service"
	"github.com/atelierworks/storefront/pkg/logging"
)

type CheckoutHTTP struct {
	Svc      *service.CheckoutService
	Gateway  payment.Gateway
	Producer *events.Producer
}

type checkoutResponse struct {
	Order   *models.Order    `json:"order"`
	Session *payment.Session `json:"session,omitempty"`
}

// Checkout finalizes the cart into an order, then asks the gateway for a
// hosted session. The order commits before the gateway is contacted, so a
// gateway failure leaves a PENDING order for the caller to retry or cancel.
func (h *CheckoutHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout")

	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, "unauthorized")
	}

	result, err := h.Svc.Finalize(ctx, userID)
	if err != nil {
		l.Warn("checkout_error", "error", err)
		return writeServiceError(c, err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := h.Producer.Publish(pubCtx, events.TopicOrderEvents, userID.String(), map[string]any{
		"type":     "order_created",
		"user_id":  userID,
		"order_id": result.Order.ID,
		"total":    result.Order.Total,
	}); err != nil {
		l.Error("publish order event", "error", err)
	}

	resp := checkoutResponse{Order: result.Order}
	if h.Gateway != nil {
		session, err := h.Gateway.CreateCheckoutSession(ctx, result.Manifest)
		if err != nil {
			// the order stands; payment can be retried against it later
			l.Error("gateway_error", "order_id", result.Order.ID, "error", err)
			return c.JSON(http.StatusBadGateway, resp)
		}
		resp.Session = session
	}
	return c.JSON(http.StatusCreated, resp)
}

func (h *CheckoutHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "orders.list")

	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, "unauthorized")
	}

	limit, offset := intQuery(c, "limit", 20), intQuery(c, "offset", 0)
	orders, err := h.Svc.ListOrders(ctx, userID, limit, offset)
	if err != nil {
		l.Error("list_orders_error", "error", err)
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *CheckoutHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, "unauthorized")
	}
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, "invalid order id")
	}

	order, err := h.Svc.GetOrder(ctx, userID, orderID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, order)
}

// UpdateStatus records the payment outcome reported for a pending order.
func (h *CheckoutHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "orders.status")

	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, "unauthorized")
	}
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, "invalid order id")
	}

	var req struct {
		Status models.OrderStatus `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, "invalid body")
	}

	order, err := h.Svc.TransitionStatus(ctx, userID, orderID, req.Status)
	if err != nil {
		l.Warn("transition_error", "order_id", orderID, "to", req.Status, "error", err)
		return writeServiceError(c, err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := h.Producer.Publish(pubCtx, events.TopicOrderEvents, userID.String(), map[string]any{
		"type":     "order_status_changed",
		"user_id":  userID,
		"order_id": order.ID,
		"status":   order.Status,
	}); err != nil {
		l.Error("publish order event", "error", err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *CheckoutHTTP) Analytics(c echo.Context) error {
	ctx := c.Request().Context()
	summary, err := h.Svc.SalesSummary(ctx)
	if err != nil {
		logging.FromContext(ctx).Error("analytics_error", "handler", "admin.analytics", "error", err)
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}
