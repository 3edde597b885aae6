package wallet

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/custard-wallet/custard_ledger/internal/ledger"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// Service exposes read-only wallet views backed by the ledger.
type Service struct {
	ledger ledger.Ledger
}

// NewService builds a wallet service instance.
func NewService(ledger ledger.Ledger) *Service {
	return &Service{ledger: ledger}
}

// Balance returns the ledger balance for the wallet address.
func (s *Service) Balance(ctx context.Context, address string) (decimal.Decimal, error) {
	return s.ledger.Balance(ctx, CanonicalAddress(address))
}

// Summary assembles the token view for an address. A limit of zero selects
// the default page size; larger limits are capped.
func (s *Service) Summary(ctx context.Context, address string, offset, limit int) (Summary, error) {
	id := CanonicalAddress(address)
	limit = PageSize(limit)

	// history first: the balance read afterwards is never older than the page
	entries, err := s.ledger.History(ctx, id, offset, limit)
	if err != nil {
		return Summary{}, err
	}
	balance, err := s.ledger.Balance(ctx, id)
	if err != nil {
		return Summary{}, err
	}
	count, err := s.ledger.TotalCount(ctx, id)
	if err != nil {
		return Summary{}, err
	}
	credits, err := s.ledger.NetByKind(ctx, id, ledger.KindCredit)
	if err != nil {
		return Summary{}, err
	}
	debits, err := s.ledger.NetByKind(ctx, id, ledger.KindDebit)
	if err != nil {
		return Summary{}, err
	}

	return Summary{
		Address:           id,
		Balance:           balance,
		TotalTransactions: count,
		Credits:           credits,
		Debits:            debits,
		Entries:           entries,
		AsOf:              time.Now().UTC(),
	}, nil
}

// PageSize normalises a requested page size.
func PageSize(limit int) int {
	switch {
	case limit == 0:
		return defaultPageSize
	case limit > maxPageSize:
		return maxPageSize
	default:
		return limit
	}
}
