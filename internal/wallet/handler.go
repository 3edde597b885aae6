package wallet

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes wallet HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Summary returns the token view for a wallet address.
func (h *Handler) Summary(c *fiber.Ctx) error {
	address := c.Params("address")
	summary, err := h.service.Summary(c.UserContext(), address, c.QueryInt("offset", 0), c.QueryInt("limit", 0))
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(summaryResponse{
		Address:           summary.Address,
		ShortAddress:      ShortAddress(summary.Address),
		Balance:           summary.Balance,
		TotalTransactions: summary.TotalTransactions,
		Credits:           summary.Credits,
		Debits:            summary.Debits,
		Entries:           ToEntryResponses(summary.Entries),
		AsOf:              summary.AsOf,
	})
}

// Balance returns the wallet balance.
func (h *Handler) Balance(c *fiber.Ctx) error {
	address := CanonicalAddress(c.Params("address"))
	balance, err := h.service.Balance(c.UserContext(), address)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"address": address,
		"balance": balance,
	})
}
