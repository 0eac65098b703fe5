package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/veilpay/veilpay/internal/auth"
)

// RegisterAuthRoutes wires registration and token endpoints. Logout needs the
// caller's account resolved, so it carries the bearer middleware itself.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, loginLimiter, bearer fiber.Handler) {
	r.Post("/auth/register", h.Register)
	r.Post("/auth/login", loginLimiter, h.Login)
	r.Post("/auth/refresh", h.Refresh)
	r.Post("/auth/logout", bearer, h.Logout)
}
