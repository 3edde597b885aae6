package ledger

import (
	"context"
)

// Observer receives append outcomes from a decorated ledger. Implementations
// must not block for long; they run on the caller's goroutine after the
// entry has been stored.
type Observer interface {
	Appended(ctx context.Context, entry Entry)
	Rejected(ctx context.Context, accountID string, err error)
}

type observedLedger struct {
	Ledger
	observers []Observer
}

// WithObservers wraps l so every Append is reported to the given observers.
// Reads pass straight through.
func WithObservers(l Ledger, observers ...Observer) Ledger {
	if len(observers) == 0 {
		return l
	}
	return &observedLedger{Ledger: l, observers: observers}
}

func (o *observedLedger) Append(ctx context.Context, in AppendInput) (Entry, error) {
	entry, err := o.Ledger.Append(ctx, in)
	if err != nil {
		for _, obs := range o.observers {
			obs.Rejected(ctx, in.AccountID, err)
		}
		return Entry{}, err
	}
	for _, obs := range o.observers {
		obs.Appended(ctx, entry)
	}
	return entry, nil
}
