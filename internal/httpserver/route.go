package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/coffee_shop/internal/logging"
	"github.com/Skotchmaster/coffee_shop/internal/metrics"
)

type Deps struct {
	CatalogHandler *CatalogHTTP
	CartHandler    *CartHTTP
	AuthHandler    *AuthHTTP
	Metrics        *metrics.Metrics
	// Ready reports whether dependencies can serve traffic. Nil means always ready.
	Ready func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready == nil {
			return c.NoContent(http.StatusOK)
		}
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := d.Ready(ctx); err != nil {
			logging.FromContext(ctx).Warn("readiness_failed", "error", err)
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	})
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	}

	e.POST("/login", d.AuthHandler.Login)

	products := e.Group("/products")
	products.GET("", d.CatalogHandler.GetProducts)
	products.POST("/create", d.CatalogHandler.CreateProduct)
	products.GET("/search", d.CatalogHandler.SearchProducts)
	products.GET("/:id", d.CatalogHandler.GetProduct)
	products.POST("/:id/update", d.CatalogHandler.UpdateProduct)
	products.DELETE("/:id", d.CatalogHandler.DeleteProduct)
	products.POST("/:id/comments", d.CatalogHandler.AddComment)
	products.GET("/:id/comments", d.CatalogHandler.ListComments)

	carts := e.Group("/shoppingCarts")
	carts.GET("/active", d.CartHandler.GetActiveCart)
	carts.PUT("", d.CartHandler.UpdateCart)
	carts.POST("", d.CartHandler.AddToCart)
	carts.POST("/checkout", d.CartHandler.Checkout)
}
