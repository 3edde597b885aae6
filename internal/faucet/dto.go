package faucet

import (
	"github.com/shopspring/decimal"

	"github.com/custard-wallet/custard_ledger/internal/wallet"
)

// SendRequest is the body of a faucet request. A missing or zero amount
// selects the default payout.
type SendRequest struct {
	Address string  `json:"address"`
	Amount  float64 `json:"amount"`
}

// SendResponse is returned once both legs are on the ledger.
type SendResponse struct {
	Address        string               `json:"address"`
	Amount         decimal.Decimal      `json:"amount"`
	Balance        decimal.Decimal      `json:"balance"`
	RelayReference string               `json:"relay_reference"`
	Status         string               `json:"status"`
	Entry          wallet.EntryResponse `json:"entry"`
}
