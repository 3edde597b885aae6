package wallet

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/custard-wallet/custard_ledger/internal/ledger"
)

// EntryResponse is the JSON form of a ledger entry shared by the HTTP handlers.
type EntryResponse struct {
	ID           string          `json:"id"`
	AccountID    string          `json:"account_id"`
	Sequence     uint64          `json:"sequence"`
	Timestamp    time.Time       `json:"timestamp"`
	Description  string          `json:"description"`
	Delta        decimal.Decimal `json:"delta"`
	Kind         string          `json:"kind"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
}

// ToEntryResponse converts a ledger entry for output.
func ToEntryResponse(e ledger.Entry) EntryResponse {
	return EntryResponse{
		ID:           e.ID,
		AccountID:    e.AccountID,
		Sequence:     e.Sequence,
		Timestamp:    e.Timestamp,
		Description:  e.Description,
		Delta:        e.Delta,
		Kind:         string(e.Kind),
		BalanceAfter: e.BalanceAfter,
	}
}

// ToEntryResponses converts a page of entries, never returning nil.
func ToEntryResponses(entries []ledger.Entry) []EntryResponse {
	out := make([]EntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, ToEntryResponse(e))
	}
	return out
}

type summaryResponse struct {
	Address           string          `json:"address"`
	ShortAddress      string          `json:"short_address"`
	Balance           decimal.Decimal `json:"balance"`
	TotalTransactions uint64          `json:"total_transactions"`
	Credits           decimal.Decimal `json:"credits"`
	Debits            decimal.Decimal `json:"debits"`
	Entries           []EntryResponse `json:"entries"`
	AsOf              time.Time       `json:"as_of"`
}
