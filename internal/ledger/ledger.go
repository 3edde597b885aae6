package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidInput occurs when an append carries an empty account id or a
	// delta that is not a finite number.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownKind indicates a classification tag outside the supported set.
	ErrUnknownKind = errors.New("unknown entry kind")
)

// Kind classifies an entry. It never changes the arithmetic, which is driven
// by the sign of Delta alone.
type Kind string

const (
	KindCredit      Kind = "credit"
	KindDebit       Kind = "debit"
	KindTransferIn  Kind = "transfer-in"
	KindTransferOut Kind = "transfer-out"
	KindAdjustment  Kind = "adjustment"
)

// ParseKind maps a wire value onto a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

// Valid reports whether k is one of the enumerated kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindCredit, KindDebit, KindTransferIn, KindTransferOut, KindAdjustment:
		return true
	}
	return false
}

// Entry is an immutable ledger record.
type Entry struct {
	ID           string
	AccountID    string
	Sequence     uint64
	Timestamp    time.Time
	Description  string
	Delta        decimal.Decimal
	Kind         Kind
	BalanceAfter decimal.Decimal
}

// AppendInput carries the caller-supplied part of a new entry.
type AppendInput struct {
	AccountID   string
	Description string
	Delta       decimal.Decimal
	Kind        Kind
}

// Ledger defines the contract implemented by ledger backends (in-memory, Postgres).
//
// Reads against accounts that never received an entry behave as empty
// ledgers; only Append can fail on caller input.
type Ledger interface {
	EnsureAccount(ctx context.Context, accountID string) error
	Append(ctx context.Context, in AppendInput) (Entry, error)
	Balance(ctx context.Context, accountID string) (decimal.Decimal, error)
	History(ctx context.Context, accountID string, offset, limit int) ([]Entry, error)
	TotalCount(ctx context.Context, accountID string) (uint64, error)
	NetByKind(ctx context.Context, accountID string, kind Kind) (decimal.Decimal, error)
}

// DeltaFromFloat converts a float amount into a Delta, rejecting NaN and
// infinities.
func DeltaFromFloat(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, fmt.Errorf("%w: delta must be finite", ErrInvalidInput)
	}
	return decimal.NewFromFloat(f), nil
}

func validate(in AppendInput) error {
	if strings.TrimSpace(in.AccountID) == "" {
		return fmt.Errorf("%w: account id is required", ErrInvalidInput)
	}
	if !in.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownKind, string(in.Kind))
	}
	return nil
}

// sign-split selector shared by the backends.
type side int

const (
	sidePositive side = iota
	sideNegative
	sideAll
)

func sideOf(kind Kind) (side, error) {
	switch kind {
	case KindCredit, KindTransferIn:
		return sidePositive, nil
	case KindDebit, KindTransferOut:
		return sideNegative, nil
	case KindAdjustment:
		return sideAll, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, string(kind))
}
