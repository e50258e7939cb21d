package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/atelierworks/storefront/internal/service"
	"github.com/atelierworks/storefront/pkg/logging"
)

type AuthHTTP struct {
	Svc *service.IdentityService
}

func setAccessCookie(c echo.Context, res *service.LoginResult) {
	c.SetCookie(&http.Cookie{
		Name:     "accessToken",
		Value:    res.AccessToken,
		Path:     "/",
		Expires:  res.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Register(ctx, req.Email, req.Name, req.Password)
	if err != nil {
		l.Warn("register_error", "email", req.Email, "error", err)
		return writeServiceError(c, err)
	}

	setAccessCookie(c, res)
	return c.JSON(http.StatusCreated, res)
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		l.Warn("login_error", "email", req.Email, "error", err)
		return writeServiceError(c, err)
	}

	setAccessCookie(c, res)
	return c.JSON(http.StatusOK, res)
}
