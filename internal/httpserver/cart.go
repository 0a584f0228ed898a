package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/coffee_shop/internal/logging"
	"github.com/Skotchmaster/coffee_shop/internal/metrics"
	"github.com/Skotchmaster/coffee_shop/internal/mykafka"
	"github.com/Skotchmaster/coffee_shop/internal/service"
	"github.com/Skotchmaster/coffee_shop/internal/transport"
)

type CartHTTP struct {
	Svc      *service.CartService
	Producer mykafka.Publisher
	Metrics  *metrics.Metrics
}

func (h *CartHTTP) GetActiveCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get_active")

	cart, err := h.Svc.GetEnrichedActiveCart(ctx)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			l.Warn("get_cart_error", "status", 404, "reason", "no active cart")
			return echo.NewHTTPError(http.StatusNotFound, "No active cart found")
		}
		l.Error("get_cart_error", "status", 500, "reason", "cannot load cart", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal Server Error")
	}
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHTTP) UpdateCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update")

	var req transport.UpdateCartRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_cart_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	items, err := h.Svc.UpdateActiveCart(ctx, req.Items)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			l.Warn("update_cart_error", "status", 400, "reason", "invalid items", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
		case errors.Is(err, service.ErrNotFound):
			l.Warn("update_cart_error", "status", 404, "reason", "no active cart")
			return echo.NewHTTPError(http.StatusNotFound, "No active cart found")
		default:
			l.Error("update_cart_error", "status", 500, "reason", "cannot update cart", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "Internal Server Error")
		}
	}

	h.Metrics.CartOp("update")
	publish(ctx, h.Producer, mykafka.TopicCarts, 0, mykafka.NewEvent("cart_updated", map[string]any{"items": len(items)}))
	return c.JSON(http.StatusOK, transport.CartUpdatedResponse{Message: "Cart updated successfully", Items: items})
}

func (h *CartHTTP) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add_item")

	var req transport.AddToCartRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("add_to_cart_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := transport.Validate(req); err != nil {
		l.Warn("add_to_cart_error", "status", 400, "reason", "productId and quantity are required", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	if err := h.Svc.AddItem(ctx, req.ProductID, req.Quantity); err != nil {
		if errors.Is(err, service.ErrValidation) {
			l.Warn("add_to_cart_error", "status", 400, "reason", "productId and quantity are required", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
		}
		l.Error("add_to_cart_error", "status", 500, "reason", "cannot add item to cart", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal Server Error")
	}

	h.Metrics.CartOp("add")
	publish(ctx, h.Producer, mykafka.TopicCarts, req.ProductID, mykafka.NewEvent("cart_item_added", map[string]any{
		"productId": req.ProductID,
		"quantity":  req.Quantity,
	}))
	return c.JSON(http.StatusCreated, transport.MessageResponse{Message: "Product added to cart successfully"})
}

func (h *CartHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.checkout")

	cart, err := h.Svc.Checkout(ctx)
	if err != nil {
		l.Error("checkout_error", "status", 500, "reason", "cannot rotate cart", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal Server Error")
	}

	h.Metrics.CartOp("checkout")
	publish(ctx, h.Producer, mykafka.TopicCarts, cart.ID, mykafka.NewEvent("cart_checked_out", map[string]any{"newCartId": cart.ID}))
	l.Info("checkout_success", "new_cart_id", cart.ID)
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Checkout successfully"})
}
