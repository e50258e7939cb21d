package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/atelierworks/storefront/internal/service"
)

type Deps struct {
	Identity *service.IdentityService
	Auth     *AuthHTTP
	Cart     *CartHTTP
	Checkout *CheckoutHTTP
	Catalog  *CatalogHTTP
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	e.POST("/auth/register", d.Auth.Register)
	e.POST("/auth/login", d.Auth.Login)

	e.GET("/products", d.Catalog.ListProducts)
	e.GET("/products/:id", d.Catalog.GetProduct)
	e.GET("/search", d.Catalog.Search)

	authed := e.Group("", RequireAuth(d.Identity))

	cart := authed.Group("/cart")
	cart.GET("", d.Cart.GetCart)
	cart.POST("/items", d.Cart.AddToCart)
	cart.PATCH("/items/:id", d.Cart.UpdateItem)
	cart.DELETE("/items/:id", d.Cart.RemoveItem)
	cart.DELETE("", d.Cart.ClearCart)

	authed.POST("/checkout", d.Checkout.Checkout)
	authed.GET("/orders", d.Checkout.ListOrders)
	authed.GET("/orders/:id", d.Checkout.GetOrder)
	authed.POST("/orders/:id/status", d.Checkout.UpdateStatus)

	admin := authed.Group("/admin", AdminOnly)
	admin.POST("/products", d.Catalog.CreateProduct)
	admin.PUT("/products/:id", d.Catalog.UpdateProduct)
	admin.DELETE("/products/:id", d.Catalog.DeleteProduct)
	admin.GET("/analytics", d.Checkout.Analytics)
}
