package loyalty

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/custard-wallet/custard_ledger/internal/ledger"
	"github.com/custard-wallet/custard_ledger/internal/notification"
	"github.com/custard-wallet/custard_ledger/internal/wallet"
)

const (
	validThruLayout = "01/2006"
	defaultRecent   = 5
)

// ErrInsufficientPoints is returned when a redemption exceeds the balance.
var ErrInsufficientPoints = errors.New("insufficient points")

// Service records loyalty point movements on the ledger.
type Service struct {
	ledger   ledger.Ledger
	notifier notification.Notifier
	validity time.Duration
	now      func() time.Time
}

// NewService constructs a loyalty service.
func NewService(ledger ledger.Ledger, notifier notification.Notifier, validity time.Duration) *Service {
	if notifier == nil {
		notifier = notification.NoopNotifier{}
	}
	return &Service{ledger: ledger, notifier: notifier, validity: validity, now: time.Now}
}

// Award credits the catalog points for reason to the member.
func (s *Service) Award(ctx context.Context, member string, reason Reason) (ledger.Entry, error) {
	rw, ok := catalog[reason]
	if !ok {
		return ledger.Entry{}, fmt.Errorf("%w: unknown reward %q", ledger.ErrInvalidInput, reason)
	}
	member = wallet.CanonicalAddress(member)

	entry, err := s.ledger.Append(ctx, ledger.AppendInput{
		AccountID:   member,
		Description: rw.description,
		Delta:       decimal.NewFromInt(rw.points),
		Kind:        ledger.KindCredit,
	})
	if err != nil {
		return ledger.Entry{}, err
	}

	_ = s.notifier.Send(ctx, notification.Message{
		Kind:        notification.KindPointsAwarded,
		Destination: member,
		Body:        fmt.Sprintf("You earned %d points: %s", rw.points, rw.description),
	})
	return entry, nil
}

// Redeem debits points for a purchase. The balance check and the append are
// not one atomic step; concurrent redemptions can overdraw by at most one
// purchase.
func (s *Service) Redeem(ctx context.Context, member, description string, points decimal.Decimal) (ledger.Entry, error) {
	if points.Sign() <= 0 {
		return ledger.Entry{}, fmt.Errorf("%w: points must be positive", ledger.ErrInvalidInput)
	}
	if strings.TrimSpace(description) == "" {
		return ledger.Entry{}, fmt.Errorf("%w: description is required", ledger.ErrInvalidInput)
	}
	member = wallet.CanonicalAddress(member)

	balance, err := s.ledger.Balance(ctx, member)
	if err != nil {
		return ledger.Entry{}, err
	}
	if balance.LessThan(points) {
		return ledger.Entry{}, ErrInsufficientPoints
	}

	entry, err := s.ledger.Append(ctx, ledger.AppendInput{
		AccountID:   member,
		Description: description,
		Delta:       points.Neg(),
		Kind:        ledger.KindDebit,
	})
	if err != nil {
		return ledger.Entry{}, err
	}

	_ = s.notifier.Send(ctx, notification.Message{
		Kind:        notification.KindPointsRedeemed,
		Destination: member,
		Body:        fmt.Sprintf("You spent %s points: %s", points.String(), description),
	})
	return entry, nil
}

// Adjust appends a correcting entry with an arbitrary signed delta.
func (s *Service) Adjust(ctx context.Context, member, description string, delta decimal.Decimal) (ledger.Entry, error) {
	return s.ledger.Append(ctx, ledger.AppendInput{
		AccountID:   wallet.CanonicalAddress(member),
		Description: description,
		Delta:       delta,
		Kind:        ledger.KindAdjustment,
	})
}

// Card builds the loyalty card for a member with up to limit recent rows.
func (s *Service) Card(ctx context.Context, member string, limit int) (Card, error) {
	member = wallet.CanonicalAddress(member)
	if limit <= 0 {
		limit = defaultRecent
	} else {
		limit = wallet.PageSize(limit)
	}

	entries, err := s.ledger.History(ctx, member, 0, limit)
	if err != nil {
		return Card{}, err
	}
	balance, err := s.ledger.Balance(ctx, member)
	if err != nil {
		return Card{}, err
	}
	count, err := s.ledger.TotalCount(ctx, member)
	if err != nil {
		return Card{}, err
	}
	plus, err := s.ledger.NetByKind(ctx, member, ledger.KindCredit)
	if err != nil {
		return Card{}, err
	}
	minus, err := s.ledger.NetByKind(ctx, member, ledger.KindDebit)
	if err != nil {
		return Card{}, err
	}

	validThru, err := s.validThru(ctx, member, count)
	if err != nil {
		return Card{}, err
	}

	rows := make([]Row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, toRow(e))
	}

	return Card{
		Member:            member,
		Balance:           balance,
		ValidThru:         validThru,
		TotalTransactions: count,
		PlusPoints:        plus,
		MinusPoints:       minus,
		Recent:            rows,
	}, nil
}

// validThru dates the card from the member's first entry; a member with no
// entries gets a card dated from now.
func (s *Service) validThru(ctx context.Context, member string, count uint64) (string, error) {
	issued := s.now().UTC()
	if count > 0 {
		first, err := s.ledger.History(ctx, member, int(count-1), 1)
		if err != nil {
			return "", err
		}
		if len(first) == 1 {
			issued = first[0].Timestamp
		}
	}
	return issued.Add(s.validity).Format(validThruLayout), nil
}

func toRow(e ledger.Entry) Row {
	row := Row{
		Sequence:    e.Sequence,
		Date:        e.Timestamp,
		Description: e.Description,
		Kind:        string(e.Kind),
		PlusPoints:  decimal.Zero,
		MinusPoints: decimal.Zero,
	}
	switch e.Delta.Sign() {
	case 1:
		row.PlusPoints = e.Delta
	case -1:
		row.MinusPoints = e.Delta
	}
	return row
}
