package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/custard-wallet/custard_ledger/internal/loyalty"
)

// RegisterLoyaltyRoutes wires loyalty card endpoints.
func RegisterLoyaltyRoutes(r fiber.Router, h *loyalty.Handler) {
	group := r.Group("/loyalty/:member")
	group.Post("/awards", h.Award)
	group.Post("/redemptions", h.Redeem)
	group.Get("/card", h.Card)
}
