package faucet

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/custard-wallet/custard_ledger/internal/ledger"
	"github.com/custard-wallet/custard_ledger/internal/wallet"
)

// Handler exposes the faucet HTTP endpoint.
type Handler struct {
	service *Service
}

// NewHandler constructs a faucet handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Send pays the faucet amount to the address in the request body.
func (h *Handler) Send(c *fiber.Ctx) error {
	var req SendRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	amount, err := ledger.DeltaFromFloat(req.Amount)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	result, err := h.service.Send(c.UserContext(), SendInput{Address: req.Address, Amount: amount})
	if err != nil {
		if errors.Is(err, ledger.ErrInvalidInput) || errors.Is(err, ledger.ErrUnknownKind) {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	return c.Status(http.StatusCreated).JSON(SendResponse{
		Address:        result.Address,
		Amount:         result.Amount,
		Balance:        result.Balance,
		RelayReference: result.Receipt.Reference,
		Status:         result.Receipt.Status,
		Entry:          wallet.ToEntryResponse(result.Entry),
	})
}
