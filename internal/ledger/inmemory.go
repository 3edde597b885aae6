package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// account holds one ledger. Its mutex is the per-account critical section:
// sequence assignment, entry storage and the cached sums change together.
type account struct {
	mu      sync.RWMutex
	entries []Entry
	balance decimal.Decimal
	credits decimal.Decimal
	debits  decimal.Decimal
}

type inMemoryLedger struct {
	mu       sync.RWMutex
	accounts map[string]*account
	now      func() time.Time
}

// Option customises the in-memory ledger.
type Option func(*inMemoryLedger)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *inMemoryLedger) {
		l.now = now
	}
}

// NewInMemory creates a concurrency-safe in-memory ledger. Appends to
// different accounts never contend on a shared lock.
func NewInMemory(opts ...Option) Ledger {
	l := &inMemoryLedger{
		accounts: make(map[string]*account),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *inMemoryLedger) lookup(accountID string) *account {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.accounts[accountID]
}

func (l *inMemoryLedger) getOrCreate(accountID string) *account {
	if acct := l.lookup(accountID); acct != nil {
		return acct
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	acct, ok := l.accounts[accountID]
	if !ok {
		acct = &account{}
		l.accounts[accountID] = acct
	}
	return acct
}

func (l *inMemoryLedger) EnsureAccount(_ context.Context, accountID string) error {
	if err := validate(AppendInput{AccountID: accountID, Kind: KindAdjustment}); err != nil {
		return err
	}
	l.getOrCreate(accountID)
	return nil
}

func (l *inMemoryLedger) Append(_ context.Context, in AppendInput) (Entry, error) {
	if err := validate(in); err != nil {
		return Entry{}, err
	}

	acct := l.getOrCreate(in.AccountID)
	acct.mu.Lock()
	defer acct.mu.Unlock()

	balance := acct.balance.Add(in.Delta)
	entry := Entry{
		ID:           uuid.NewString(),
		AccountID:    in.AccountID,
		Sequence:     uint64(len(acct.entries)) + 1,
		Timestamp:    l.now().UTC(),
		Description:  in.Description,
		Delta:        in.Delta,
		Kind:         in.Kind,
		BalanceAfter: balance,
	}

	acct.entries = append(acct.entries, entry)
	acct.balance = balance
	switch in.Delta.Sign() {
	case 1:
		acct.credits = acct.credits.Add(in.Delta)
	case -1:
		acct.debits = acct.debits.Add(in.Delta)
	}
	return entry, nil
}

func (l *inMemoryLedger) Balance(_ context.Context, accountID string) (decimal.Decimal, error) {
	acct := l.lookup(accountID)
	if acct == nil {
		return decimal.Zero, nil
	}
	acct.mu.RLock()
	defer acct.mu.RUnlock()
	return acct.balance, nil
}

func (l *inMemoryLedger) History(_ context.Context, accountID string, offset, limit int) ([]Entry, error) {
	if limit <= 0 || offset < 0 {
		return []Entry{}, nil
	}
	acct := l.lookup(accountID)
	if acct == nil {
		return []Entry{}, nil
	}

	acct.mu.RLock()
	defer acct.mu.RUnlock()

	n := len(acct.entries)
	if offset >= n {
		return []Entry{}, nil
	}
	count := n - offset
	if count > limit {
		count = limit
	}
	out := make([]Entry, 0, count)
	for i := n - 1 - offset; i >= 0 && len(out) < count; i-- {
		out = append(out, acct.entries[i])
	}
	return out, nil
}

func (l *inMemoryLedger) TotalCount(_ context.Context, accountID string) (uint64, error) {
	acct := l.lookup(accountID)
	if acct == nil {
		return 0, nil
	}
	acct.mu.RLock()
	defer acct.mu.RUnlock()
	return uint64(len(acct.entries)), nil
}

func (l *inMemoryLedger) NetByKind(_ context.Context, accountID string, kind Kind) (decimal.Decimal, error) {
	s, err := sideOf(kind)
	if err != nil {
		return decimal.Zero, err
	}
	acct := l.lookup(accountID)
	if acct == nil {
		return decimal.Zero, nil
	}
	acct.mu.RLock()
	defer acct.mu.RUnlock()
	switch s {
	case sidePositive:
		return acct.credits, nil
	case sideNegative:
		return acct.debits, nil
	default:
		return acct.balance, nil
	}
}
