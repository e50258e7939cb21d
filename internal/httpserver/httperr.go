package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/atelierworks/storefront/internal/service"
)

// writeServiceError maps service sentinel errors onto HTTP responses. Anything
// unrecognized is a 500 with a generic body; internals never leak to callers.
func writeServiceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrValidation):
		return c.JSON(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUnauthenticated):
		return c.JSON(http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrProductNotFound):
		return c.JSON(http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrConflict):
		return c.JSON(http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrEmptyCart), errors.Is(err, service.ErrInvalidTransition):
		return c.JSON(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrCheckoutFailed):
		return c.JSON(http.StatusBadGateway, "checkout failed, cart left untouched")
	default:
		return c.JSON(http.StatusInternalServerError, "internal error")
	}
}
