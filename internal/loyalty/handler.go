package loyalty

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/custard-wallet/custard_ledger/internal/ledger"
	"github.com/custard-wallet/custard_ledger/internal/wallet"
)

// Handler exposes loyalty endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a loyalty handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type awardRequest struct {
	Reason string `json:"reason"`
}

type redeemRequest struct {
	Description string  `json:"description"`
	Points      float64 `json:"points"`
}

type rowResponse struct {
	Sequence    uint64          `json:"sequence"`
	Date        string          `json:"date"`
	Timestamp   time.Time       `json:"timestamp"`
	Description string          `json:"description"`
	Kind        string          `json:"kind"`
	PlusPoints  decimal.Decimal `json:"plus_points"`
	MinusPoints decimal.Decimal `json:"minus_points"`
}

type cardResponse struct {
	Member            string          `json:"member"`
	ShortMember       string          `json:"short_member"`
	Balance           decimal.Decimal `json:"balance"`
	ValidThru         string          `json:"valid_thru"`
	TotalTransactions uint64          `json:"total_transactions"`
	PlusPoints        decimal.Decimal `json:"plus_points"`
	MinusPoints       decimal.Decimal `json:"minus_points"`
	Recent            []rowResponse   `json:"recent"`
}

// Award credits a catalog reward to the member.
func (h *Handler) Award(c *fiber.Ctx) error {
	var req awardRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	reason, err := ParseReason(req.Reason)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	entry, err := h.service.Award(c.UserContext(), c.Params("member"), reason)
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(wallet.ToEntryResponse(entry))
}

// Redeem spends member points on a purchase.
func (h *Handler) Redeem(c *fiber.Ctx) error {
	var req redeemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	points, err := ledger.DeltaFromFloat(req.Points)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	entry, err := h.service.Redeem(c.UserContext(), c.Params("member"), req.Description, points)
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(wallet.ToEntryResponse(entry))
}

// Card renders the member's loyalty card.
func (h *Handler) Card(c *fiber.Ctx) error {
	card, err := h.service.Card(c.UserContext(), c.Params("member"), c.QueryInt("limit", 0))
	if err != nil {
		return mapError(err)
	}

	rows := make([]rowResponse, 0, len(card.Recent))
	for _, r := range card.Recent {
		rows = append(rows, rowResponse{
			Sequence:    r.Sequence,
			Date:        r.Date.Format("Jan 02"),
			Timestamp:   r.Date,
			Description: r.Description,
			Kind:        r.Kind,
			PlusPoints:  r.PlusPoints,
			MinusPoints: r.MinusPoints,
		})
	}
	return c.Status(http.StatusOK).JSON(cardResponse{
		Member:            card.Member,
		ShortMember:       wallet.ShortAddress(card.Member),
		Balance:           card.Balance,
		ValidThru:         card.ValidThru,
		TotalTransactions: card.TotalTransactions,
		PlusPoints:        card.PlusPoints,
		MinusPoints:       card.MinusPoints,
		Recent:            rows,
	})
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrInsufficientPoints):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, ledger.ErrInvalidInput), errors.Is(err, ledger.ErrUnknownKind):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
