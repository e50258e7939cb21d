package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/atelierworks/storefront/internal/service"
)

// credential pulls the caller credential from the Authorization header or the
// accessToken cookie; the header wins when both are present.
func credential(c echo.Context) string {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); h != "" {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if ck, err := c.Cookie("accessToken"); err == nil {
		return ck.Value
	}
	return ""
}

// RequireAuth resolves the caller into a local user and stores the user id and
// role in the echo context for the handlers downstream.
func RequireAuth(identity *service.IdentityService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, err := identity.Resolve(c.Request().Context(), credential(c))
			if err != nil {
				if errors.Is(err, service.ErrUnauthenticated) {
					return c.JSON(http.StatusUnauthorized, "unauthorized")
				}
				return c.JSON(http.StatusInternalServerError, "internal error")
			}
			c.Set("user_id", user.ID.String())
			c.Set("user_role", user.Role)
			return next(c)
		}
	}
}

// AdminOnly must run after RequireAuth.
func AdminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		role, _ := c.Get("user_role").(string)
		if role != "admin" {
			return c.JSON(http.StatusForbidden, "forbidden")
		}
		return next(c)
	}
}

func getUserID(c echo.Context) (uuid.UUID, error) {
	s, ok := c.Get("user_id").(string)
	if !ok || s == "" {
		return uuid.Nil, errors.New("unauthorized")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, errors.New("unauthorized")
	}
	return id, nil
}
