package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

const verifyPageSize = 500

// Report is the outcome of replaying one account.
type Report struct {
	AccountID string
	Entries   uint64
	Replayed  decimal.Decimal
	Cached    decimal.Decimal
	Problems  []string
}

// OK reports whether the replay matched the cached state.
func (r Report) OK() bool { return len(r.Problems) == 0 }

// Verify replays every entry of an account in sequence order and checks
// that sequences are gapless, each BalanceAfter matches the running sum and
// the final sum equals Balance. Entries appended while the replay runs are
// ignored.
func Verify(ctx context.Context, l Ledger, accountID string) (Report, error) {
	rep := Report{AccountID: accountID, Replayed: decimal.Zero}

	count, err := l.TotalCount(ctx, accountID)
	if err != nil {
		return rep, err
	}
	cached, err := l.Balance(ctx, accountID)
	if err != nil {
		return rep, err
	}
	rep.Entries = count
	rep.Cached = cached

	// History is newest first and offsets shift with every concurrent append,
	// so each page starts below the lowest sequence collected so far.
	all := make([]Entry, 0, count)
	lowest := count + 1
	offset := 0
	for lowest > 1 {
		page, err := l.History(ctx, accountID, offset, verifyPageSize)
		if err != nil {
			return rep, err
		}
		for _, e := range page {
			if e.Sequence < lowest {
				all = append(all, e)
				lowest = e.Sequence
			}
		}
		if len(page) < verifyPageSize {
			break
		}

		latest, err := l.TotalCount(ctx, accountID)
		if err != nil {
			return rep, err
		}
		next := offset + len(page)
		if latest+1 >= lowest {
			if n := int(latest + 1 - lowest); n > offset {
				next = n
			}
		}
		offset = next
	}

	var next uint64 = 1
	for i := len(all) - 1; i >= 0; i-- {
		e := all[i]
		if e.Sequence != next {
			rep.Problems = append(rep.Problems, fmt.Sprintf("sequence %d found where %d expected", e.Sequence, next))
			next = e.Sequence
		}
		next++
		rep.Replayed = rep.Replayed.Add(e.Delta)
		if !e.BalanceAfter.Equal(rep.Replayed) {
			rep.Problems = append(rep.Problems, fmt.Sprintf("entry %d: balance_after %s, replay %s", e.Sequence, e.BalanceAfter, rep.Replayed))
		}
	}
	if next-1 != count {
		rep.Problems = append(rep.Problems, fmt.Sprintf("replayed %d entries, count is %d", next-1, count))
	}

	// only comparable when nothing was appended between the two reads
	if latest, err := l.TotalCount(ctx, accountID); err == nil && latest == count && !rep.Replayed.Equal(cached) {
		rep.Problems = append(rep.Problems, fmt.Sprintf("cached balance %s, replay %s", cached, rep.Replayed))
	}
	return rep, nil
}
