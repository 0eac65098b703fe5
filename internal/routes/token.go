package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/veilpay/veilpay/internal/token"
)

// RegisterTokenRoutes wires the wrap coordinator endpoints.
func RegisterTokenRoutes(r fiber.Router, h *token.Handler, wrapLimiter fiber.Handler) {
	r.Post("/token/wrap/requests", wrapLimiter, h.RequestWrap)
	r.Post("/token/wrap/requests/:requestId/complete", h.CompleteWrap)
	r.Post("/token/unwrap", h.Unwrap)
	r.Get("/token/info", h.Info)
	r.Get("/token/requests/:requestId", h.PendingRequest)
	r.Get("/token/accounts/me/balance", h.MyBalance)
}
