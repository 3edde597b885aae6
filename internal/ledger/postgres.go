package ledger

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// historyPrealloc bounds the slice capacity reserved before rows arrive.
const historyPrealloc = 512

//go:embed schema.sql
var schemaSQL string

// PostgresLedger persists ledger entries in PostgreSQL. The account row is
// locked FOR UPDATE for the duration of an append, which serialises appends
// per account while leaving other accounts untouched.
type PostgresLedger struct {
	db *pgxpool.Pool
}

// NewPostgresLedger constructs a Postgres-backed ledger implementation.
func NewPostgresLedger(db *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{db: db}
}

// EnsureSchema creates the ledger tables when missing.
func (l *PostgresLedger) EnsureSchema(ctx context.Context) error {
	if _, err := l.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply ledger schema: %w", err)
	}
	return nil
}

// EnsureAccount guarantees an account row exists for the provided id.
func (l *PostgresLedger) EnsureAccount(ctx context.Context, accountID string) error {
	if err := validate(AppendInput{AccountID: accountID, Kind: KindAdjustment}); err != nil {
		return err
	}
	_, err := l.db.Exec(ctx, `INSERT INTO ledger_accounts (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, accountID)
	return err
}

// Append stores the entry and updates the cached account totals in one transaction.
func (l *PostgresLedger) Append(ctx context.Context, in AppendInput) (Entry, error) {
	if err := validate(in); err != nil {
		return Entry{}, err
	}

	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Entry{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if _, err := tx.Exec(ctx, `INSERT INTO ledger_accounts (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, in.AccountID); err != nil {
		return Entry{}, err
	}

	var (
		count      int64
		balanceRaw string
	)
	const lockQuery = `SELECT entry_count, balance::text FROM ledger_accounts WHERE id = $1 FOR UPDATE`
	if err := tx.QueryRow(ctx, lockQuery, in.AccountID).Scan(&count, &balanceRaw); err != nil {
		return Entry{}, fmt.Errorf("lock account %s: %w", in.AccountID, err)
	}
	balance, err := decimal.NewFromString(balanceRaw)
	if err != nil {
		return Entry{}, fmt.Errorf("decode balance for %s: %w", in.AccountID, err)
	}

	entry := Entry{
		ID:           uuid.NewString(),
		AccountID:    in.AccountID,
		Sequence:     uint64(count) + 1,
		Timestamp:    time.Now().UTC(),
		Description:  in.Description,
		Delta:        in.Delta,
		Kind:         in.Kind,
		BalanceAfter: balance.Add(in.Delta),
	}

	if _, err := tx.Exec(ctx, `INSERT INTO ledger_entries (id, account_id, sequence, created_at, description, delta, kind, balance_after)
        VALUES ($1, $2, $3, $4, $5, $6::numeric, $7, $8::numeric)`,
		entry.ID, entry.AccountID, int64(entry.Sequence), entry.Timestamp, entry.Description,
		entry.Delta.String(), string(entry.Kind), entry.BalanceAfter.String()); err != nil {
		return Entry{}, err
	}

	credit, debit := decimal.Zero, decimal.Zero
	switch in.Delta.Sign() {
	case 1:
		credit = in.Delta
	case -1:
		debit = in.Delta
	}
	if _, err := tx.Exec(ctx, `UPDATE ledger_accounts
        SET entry_count = $2, balance = $3::numeric, credits = credits + $4::numeric, debits = debits + $5::numeric
        WHERE id = $1`,
		in.AccountID, int64(entry.Sequence), entry.BalanceAfter.String(), credit.String(), debit.String()); err != nil {
		return Entry{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// Balance returns the cached balance, or zero for an unknown account.
func (l *PostgresLedger) Balance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	return l.accountSum(ctx, accountID, "balance")
}

// History returns a page of entries, most recent first.
func (l *PostgresLedger) History(ctx context.Context, accountID string, offset, limit int) ([]Entry, error) {
	if limit <= 0 || offset < 0 {
		return []Entry{}, nil
	}
	const query = `
        SELECT id, account_id, sequence, created_at, description, delta::text, kind, balance_after::text
        FROM ledger_entries
        WHERE account_id = $1
        ORDER BY sequence DESC
        OFFSET $2 LIMIT $3`
	rows, err := l.db.Query(ctx, query, accountID, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Entry, 0, min(limit, historyPrealloc))
	for rows.Next() {
		var (
			e        Entry
			id       uuid.UUID
			seq      int64
			kind     string
			deltaRaw string
			afterRaw string
		)
		if err := rows.Scan(&id, &e.AccountID, &seq, &e.Timestamp, &e.Description, &deltaRaw, &kind, &afterRaw); err != nil {
			return nil, err
		}
		if e.Delta, err = decimal.NewFromString(deltaRaw); err != nil {
			return nil, err
		}
		if e.BalanceAfter, err = decimal.NewFromString(afterRaw); err != nil {
			return nil, err
		}
		e.ID = id.String()
		e.Sequence = uint64(seq)
		e.Kind = Kind(kind)
		e.Timestamp = e.Timestamp.UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// TotalCount returns the number of entries appended for the account.
func (l *PostgresLedger) TotalCount(ctx context.Context, accountID string) (uint64, error) {
	var count int64
	err := l.db.QueryRow(ctx, `SELECT entry_count FROM ledger_accounts WHERE id = $1`, accountID).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return uint64(count), nil
}

// NetByKind returns the sign-split sum selected by kind.
func (l *PostgresLedger) NetByKind(ctx context.Context, accountID string, kind Kind) (decimal.Decimal, error) {
	s, err := sideOf(kind)
	if err != nil {
		return decimal.Zero, err
	}
	switch s {
	case sidePositive:
		return l.accountSum(ctx, accountID, "credits")
	case sideNegative:
		return l.accountSum(ctx, accountID, "debits")
	default:
		return l.accountSum(ctx, accountID, "balance")
	}
}

// accountSum reads one of the cached numeric columns; column is never user input.
func (l *PostgresLedger) accountSum(ctx context.Context, accountID, column string) (decimal.Decimal, error) {
	query := fmt.Sprintf(`SELECT %s::text FROM ledger_accounts WHERE id = $1`, column)
	var raw string
	if err := l.db.QueryRow(ctx, query, accountID).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return decimal.NewFromString(raw)
}

var _ Ledger = (*PostgresLedger)(nil)
