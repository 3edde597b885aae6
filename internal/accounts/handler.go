// Package accounts exposes the raw ledger operations over HTTP.
package accounts

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/custard-wallet/custard_ledger/internal/ledger"
	"github.com/custard-wallet/custard_ledger/internal/wallet"
)

const maxHistoryLimit = 500

// Handler serves balance, history, count, net and append for any account id.
type Handler struct {
	ledger ledger.Ledger
}

// NewHandler constructs an accounts handler.
func NewHandler(l ledger.Ledger) *Handler {
	return &Handler{ledger: l}
}

type appendRequest struct {
	Description string          `json:"description"`
	Delta       decimal.Decimal `json:"delta"`
	Kind        string          `json:"kind"`
}

// Balance returns the current balance.
func (h *Handler) Balance(c *fiber.Ctx) error {
	id := accountID(c)
	balance, err := h.ledger.Balance(c.UserContext(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(fiber.Map{"account_id": id, "balance": balance})
}

// History returns a window of entries, most recent first.
func (h *Handler) History(c *fiber.Ctx) error {
	id := accountID(c)
	offset := c.QueryInt("offset", 0)
	limit := c.QueryInt("limit", 20)
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	entries, err := h.ledger.History(c.UserContext(), id, offset, limit)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(fiber.Map{
		"account_id": id,
		"offset":     offset,
		"limit":      limit,
		"entries":    wallet.ToEntryResponses(entries),
	})
}

// Count returns the number of entries ever appended.
func (h *Handler) Count(c *fiber.Ctx) error {
	id := accountID(c)
	count, err := h.ledger.TotalCount(c.UserContext(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(fiber.Map{"account_id": id, "total_count": count})
}

// Net returns the sign-split total selected by the kind query parameter.
func (h *Handler) Net(c *fiber.Ctx) error {
	id := accountID(c)
	kind, err := ledger.ParseKind(c.Query("kind"))
	if err != nil {
		return mapError(err)
	}
	net, err := h.ledger.NetByKind(c.UserContext(), id, kind)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(fiber.Map{"account_id": id, "kind": kind, "net": net})
}

// Append records a new entry.
func (h *Handler) Append(c *fiber.Ctx) error {
	var req appendRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	kind, err := ledger.ParseKind(req.Kind)
	if err != nil {
		return mapError(err)
	}
	entry, err := h.ledger.Append(c.UserContext(), ledger.AppendInput{
		AccountID:   accountID(c),
		Description: strings.TrimSpace(req.Description),
		Delta:       req.Delta,
		Kind:        kind,
	})
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(wallet.ToEntryResponse(entry))
}

func accountID(c *fiber.Ctx) string {
	return wallet.CanonicalAddress(c.Params("id"))
}

func mapError(err error) error {
	if errors.Is(err, ledger.ErrInvalidInput) || errors.Is(err, ledger.ErrUnknownKind) {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return fiber.NewError(http.StatusInternalServerError, err.Error())
}
