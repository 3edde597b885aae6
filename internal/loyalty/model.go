package loyalty

import (
	"time"

	"github.com/shopspring/decimal"
)

// Card is the loyalty card view of one member.
type Card struct {
	Member            string
	Balance           decimal.Decimal
	ValidThru         string
	TotalTransactions uint64
	PlusPoints        decimal.Decimal
	MinusPoints       decimal.Decimal
	Recent            []Row
}

// Row is one line of the card's history table. Exactly one of PlusPoints
// and MinusPoints is non-zero unless the entry had a zero delta.
type Row struct {
	Sequence    uint64
	Date        time.Time
	Description string
	Kind        string
	PlusPoints  decimal.Decimal
	MinusPoints decimal.Decimal
}
