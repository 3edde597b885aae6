// Package ingestion applies append commands delivered over NATS.
package ingestion

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/custard-wallet/custard_ledger/internal/ledger"
	"github.com/custard-wallet/custard_ledger/internal/wallet"
)

// AppendCommand is the wire form of an append sent by collaborating services.
type AppendCommand struct {
	AccountID   string          `json:"account_id"`
	Description string          `json:"description"`
	Delta       decimal.Decimal `json:"delta"`
	Kind        string          `json:"kind"`
}

// Reply is sent back when the message carries a reply subject.
type Reply struct {
	OK    bool                  `json:"ok"`
	Entry *wallet.EntryResponse `json:"entry,omitempty"`
	Error string                `json:"error,omitempty"`
}

// ParseAppendCommand decodes a command into ledger input. Unknown fields are
// rejected so a producer typo does not silently drop data.
func ParseAppendCommand(data []byte) (ledger.AppendInput, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var cmd AppendCommand
	if err := dec.Decode(&cmd); err != nil {
		return ledger.AppendInput{}, fmt.Errorf("%w: decode command: %v", ledger.ErrInvalidInput, err)
	}
	kind, err := ledger.ParseKind(cmd.Kind)
	if err != nil {
		return ledger.AppendInput{}, err
	}
	return ledger.AppendInput{
		AccountID:   wallet.CanonicalAddress(cmd.AccountID),
		Description: strings.TrimSpace(cmd.Description),
		Delta:       cmd.Delta,
		Kind:        kind,
	}, nil
}
