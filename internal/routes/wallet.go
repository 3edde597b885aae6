package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/custard-wallet/custard_ledger/internal/wallet"
)

// RegisterWalletRoutes wires the token view endpoints.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler) {
	r.Get("/wallets/:address/summary", h.Summary)
	r.Get("/wallets/:address/balance", h.Balance)
}
