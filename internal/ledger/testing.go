package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

// SeedBalance is a test helper that funds an account with an opening
// adjustment entry, so the seeded balance stays replayable from history.
func SeedBalance(l Ledger, accountID string, amount int64) {
	_, _ = l.Append(context.Background(), AppendInput{
		AccountID:   accountID,
		Description: "Opening balance",
		Delta:       decimal.NewFromInt(amount),
		Kind:        KindAdjustment,
	})
}
