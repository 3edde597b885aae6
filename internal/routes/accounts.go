package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/custard-wallet/custard_ledger/internal/accounts"
)

// RegisterAccountRoutes wires the raw ledger endpoints.
func RegisterAccountRoutes(r fiber.Router, h *accounts.Handler) {
	group := r.Group("/accounts/:id")
	group.Get("/balance", h.Balance)
	group.Get("/history", h.History)
	group.Get("/count", h.Count)
	group.Get("/net", h.Net)
	group.Post("/entries", h.Append)
}
