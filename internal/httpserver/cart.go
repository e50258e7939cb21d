package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/atelierworks/storefront/internal/events"
	"github.com/atelierworks/storefront/internal/service"
	"github.com/atelierworks/storefront/pkg/logging"
)

type CartHTTP struct {
	Svc      *service.CartService
	Producer *events.Producer
}

func (h *CartHTTP) publish(c echo.Context, userID uuid.UUID, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.Publish(ctx, events.TopicCartEvents, userID.String(), event); err != nil {
		logging.FromContext(c.Request().Context()).Error("publish cart event", "error", err)
	}
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, "unauthorized")
	}

	view, err := h.Svc.View(ctx, userID)
	if err != nil {
		l.Error("get_cart_error", "error", err)
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *CartHTTP) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, "unauthorized")
	}

	var req struct {
		ProductID uuid.UUID `json:"product_id"`
		Quantity  *uint     `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, "invalid body")
	}
	// only a truly omitted quantity defaults to 1; an explicit zero must
	// fail validation downstream
	quantity := uint(1)
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	item, err := h.Svc.AddItem(ctx, userID, req.ProductID, quantity)
	if err != nil {
		l.Warn("add_to_cart_error", "product_id", req.ProductID, "error", err)
		return writeServiceError(c, err)
	}

	h.publish(c, userID, map[string]any{
		"type":       "cart_item_added",
		"user_id":    userID,
		"product_id": req.ProductID,
		"quantity":   item.Quantity,
	})
	return c.JSON(http.StatusCreated, item)
}

func (h *CartHTTP) UpdateItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update")

	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, "unauthorized")
	}
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, "invalid item id")
	}

	var req struct {
		Quantity uint `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, "invalid body")
	}

	item, err := h.Svc.UpdateItemQuantity(ctx, userID, itemID, req.Quantity)
	if err != nil {
		l.Warn("update_item_error", "item_id", itemID, "error", err)
		return writeServiceError(c, err)
	}

	h.publish(c, userID, map[string]any{
		"type":     "cart_item_updated",
		"user_id":  userID,
		"item_id":  itemID,
		"quantity": item.Quantity,
	})
	return c.JSON(http.StatusOK, item)
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove")

	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, "unauthorized")
	}
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, "invalid item id")
	}

	if err := h.Svc.RemoveItem(ctx, userID, itemID); err != nil {
		l.Warn("remove_item_error", "item_id", itemID, "error", err)
		return writeServiceError(c, err)
	}

	h.publish(c, userID, map[string]any{
		"type":    "cart_item_removed",
		"user_id": userID,
		"item_id": itemID,
	})
	return c.NoContent(http.StatusNoContent)
}

func (h *CartHTTP) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, "unauthorized")
	}

	if err := h.Svc.ClearCart(ctx, userID); err != nil {
		l.Error("clear_cart_error", "error", err)
		return writeServiceError(c, err)
	}

	h.publish(c, userID, map[string]any{
		"type":    "cart_cleared",
		"user_id": userID,
	})
	return c.NoContent(http.StatusNoContent)
}
