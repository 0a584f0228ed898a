package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/coffee_shop/internal/logging"
	"github.com/Skotchmaster/coffee_shop/internal/mykafka"
	"github.com/Skotchmaster/coffee_shop/internal/service"
	"github.com/Skotchmaster/coffee_shop/internal/transport"
)

type AuthHTTP struct {
	Svc      *service.AuthService
	Producer mykafka.Publisher
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "reason", "invalid body", "error", err)
		return c.JSON(http.StatusBadRequest, transport.LoginResponse{Message: "Invalid request body"})
	}
	if err := transport.Validate(req); err != nil {
		l.Warn("login_error", "status", 400, "reason", "missing credentials", "error", err)
		return c.JSON(http.StatusBadRequest, transport.LoginResponse{Message: "Invalid request body"})
	}

	user, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			l.Warn("login_error", "status", 401, "reason", "invalid credentials")
			return c.JSON(http.StatusUnauthorized, transport.LoginResponse{Message: "Invalid credentials"})
		case errors.Is(err, service.ErrValidation):
			l.Warn("login_error", "status", 400, "reason", "missing credentials", "error", err)
			return c.JSON(http.StatusBadRequest, transport.LoginResponse{Message: "Invalid request body"})
		default:
			l.Error("login_error", "status", 500, "reason", "cannot check credentials", "error", err)
			return c.JSON(http.StatusInternalServerError, transport.LoginResponse{Message: "Internal Server Error"})
		}
	}

	publish(ctx, h.Producer, mykafka.TopicUsers, user.ID, mykafka.NewEvent("user_logged_in", map[string]any{"userId": user.ID}))
	l.Info("login_success", "user_id", user.ID)
	return c.JSON(http.StatusOK, transport.LoginResponse{
		Success: true,
		Message: "Login successful!",
		User:    &transport.LoginUser{Email: user.Email},
	})
}
