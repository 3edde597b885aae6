package wallet

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/custard-wallet/custard_ledger/internal/ledger"
)

// Summary is the token view of one wallet: balance, lifetime transaction
// count, the sign-split totals and one page of history.
type Summary struct {
	Address           string
	Balance           decimal.Decimal
	TotalTransactions uint64
	Credits           decimal.Decimal
	Debits            decimal.Decimal
	Entries           []ledger.Entry
	AsOf              time.Time
}
