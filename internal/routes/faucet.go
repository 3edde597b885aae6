package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/custard-wallet/custard_ledger/internal/faucet"
)

// RegisterFaucetRoutes wires the faucet endpoint behind its rate limiter.
func RegisterFaucetRoutes(r fiber.Router, h *faucet.Handler, rateLimiter fiber.Handler) {
	if rateLimiter != nil {
		r.Post("/faucet", rateLimiter, h.Send)
		return
	}
	r.Post("/faucet", h.Send)
}
