package httpserver

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/atelierworks/storefront/internal/service"
	"github.com/atelierworks/storefront/pkg/logging"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func intQuery(c echo.Context, name string, fallback int) int {
	v, err := strconv.Atoi(c.QueryParam(name))
	if err != nil {
		return fallback
	}
	return v
}

func (h *CatalogHTTP) ListProducts(c echo.Context) error {
	ctx := c.Request().Context()

	limit, offset := intQuery(c, "limit", 20), intQuery(c, "offset", 0)
	products, err := h.Svc.ListProducts(ctx, limit, offset)
	if err != nil {
		logging.FromContext(ctx).Error("list_products_error", "handler", "products.list", "error", err)
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, products)
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, "invalid product id")
	}

	p, err := h.Svc.GetProduct(c.Request().Context(), productID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *CatalogHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "products.search")

	query := c.QueryParam("q")
	if query == "" {
		return c.JSON(http.StatusBadRequest, "query parameter q required")
	}

	from, size := intQuery(c, "from", 0), intQuery(c, "size", 20)
	total, products, err := h.Svc.Search(ctx, query, from, size)
	if err != nil {
		l.Error("search_error", "query", query, "error", err)
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"total":    total,
		"products": products,
	})
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "products.create")

	var in service.ProductInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, "invalid body")
	}

	p, err := h.Svc.CreateProduct(ctx, in)
	if err != nil {
		l.Warn("create_product_error", "error", err)
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *CatalogHTTP) UpdateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "products.update")

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, "invalid product id")
	}

	var in service.ProductInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, "invalid body")
	}

	p, err := h.Svc.UpdateProduct(ctx, productID, in)
	if err != nil {
		l.Warn("update_product_error", "product_id", productID, "error", err)
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, "invalid product id")
	}

	if err := h.Svc.DeleteProduct(c.Request().Context(), productID); err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
