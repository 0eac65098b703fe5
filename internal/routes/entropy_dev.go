package routes

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/veilpay/veilpay/internal/entropy"
)

// RegisterDevEntropyRoutes exposes manual fulfillment for the simulated
// entropy source. Dev only; a production oracle fulfills on its own.
func RegisterDevEntropyRoutes(r fiber.Router, source *entropy.SimulatedSource) {
	r.Post("/dev/entropy/:requestId/fulfill", func(c *fiber.Ctx) error {
		requestID, err := strconv.ParseUint(c.Params("requestId"), 10, 64)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid request id")
		}
		if err := source.Fulfill(requestID); err != nil {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		return c.SendStatus(http.StatusNoContent)
	})
}
