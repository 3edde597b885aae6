package faucet

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/custard-wallet/custard_ledger/internal/ledger"
	"github.com/custard-wallet/custard_ledger/internal/logging"
	"github.com/custard-wallet/custard_ledger/internal/notification"
)

const (
	testIssuer    = "faucet:issuer"
	testRecipient = "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"
)

var errStoreDown = errors.New("store down")

// failingLedger rejects appends for one account.
type failingLedger struct {
	ledger.Ledger
	failFor string
}

func (l failingLedger) Append(ctx context.Context, in ledger.AppendInput) (ledger.Entry, error) {
	if in.AccountID == l.failFor {
		return ledger.Entry{}, errStoreDown
	}
	return l.Ledger.Append(ctx, in)
}

// cancelingLedger cancels the caller's context while writing the recipient
// leg and, like a database backend, refuses appends on a done context.
type cancelingLedger struct {
	ledger.Ledger
	recipient string
	cancel    context.CancelFunc
}

func (l cancelingLedger) Append(ctx context.Context, in ledger.AppendInput) (ledger.Entry, error) {
	if in.AccountID == l.recipient {
		l.cancel()
	}
	if err := ctx.Err(); err != nil {
		return ledger.Entry{}, err
	}
	return l.Ledger.Append(ctx, in)
}

type recordingNotifier struct {
	messages []notification.Message
}

func (n *recordingNotifier) Send(_ context.Context, m notification.Message) error {
	n.messages = append(n.messages, m)
	return nil
}

func newTestService(t *testing.T, backend ledger.Ledger, notifier notification.Notifier) *Service {
	t.Helper()
	svc, err := NewService(context.Background(), backend, StaticRelay{}, notifier, Config{
		Issuer:        testIssuer,
		DefaultAmount: decimal.NewFromInt(100),
	}, logging.Discard())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestServiceSendDefaultAmount(t *testing.T) {
	ctx := context.Background()
	backend := ledger.NewInMemory()
	notifier := &recordingNotifier{}
	svc := newTestService(t, backend, notifier)

	res, err := svc.Send(ctx, SendInput{Address: "0xfb6916095ca1df60bb79ce92ce3ea74c37c5d359"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if res.Address != testRecipient {
		t.Fatalf("expected canonical recipient, got %s", res.Address)
	}
	if !res.Amount.Equal(decimal.NewFromInt(100)) || !res.Balance.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("unexpected amounts: %+v", res)
	}
	if res.Entry.Kind != ledger.KindTransferIn || res.Receipt.Reference == "" {
		t.Fatalf("unexpected result: %+v", res)
	}

	issuer, err := svc.IssuerBalance(ctx)
	if err != nil {
		t.Fatalf("issuer balance: %v", err)
	}
	if !issuer.Equal(decimal.NewFromInt(-100)) {
		t.Fatalf("expected issuer balance -100, got %s", issuer)
	}
	if len(notifier.messages) != 1 || notifier.messages[0].Kind != notification.KindFaucetTransfer {
		t.Fatalf("expected one faucet notification, got %+v", notifier.messages)
	}
}

func TestServiceSendExplicitAmount(t *testing.T) {
	ctx := context.Background()
	backend := ledger.NewInMemory()
	svc := newTestService(t, backend, nil)

	if _, err := svc.Send(ctx, SendInput{Address: testRecipient, Amount: decimal.RequireFromString("5.002")}); err != nil {
		t.Fatalf("send: %v", err)
	}
	res, err := svc.Send(ctx, SendInput{Address: testRecipient, Amount: decimal.RequireFromString("5.102")})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if !res.Balance.Equal(decimal.RequireFromString("10.104")) {
		t.Fatalf("expected balance 10.104, got %s", res.Balance)
	}
	count, _ := backend.TotalCount(ctx, testIssuer)
	if count != 2 {
		t.Fatalf("expected 2 issuer entries, got %d", count)
	}
}

func TestServiceSendRejectsBadInput(t *testing.T) {
	svc := newTestService(t, ledger.NewInMemory(), nil)
	ctx := context.Background()

	cases := []SendInput{
		{Address: "  "},
		{Address: testIssuer},
		{Address: testRecipient, Amount: decimal.NewFromInt(-1)},
	}
	for _, in := range cases {
		if _, err := svc.Send(ctx, in); !errors.Is(err, ledger.ErrInvalidInput) {
			t.Fatalf("input %+v: expected ErrInvalidInput, got %v", in, err)
		}
	}
}

func TestServiceSendReversesIssuerLeg(t *testing.T) {
	ctx := context.Background()
	backend := ledger.NewInMemory()
	svc := newTestService(t, failingLedger{Ledger: backend, failFor: testRecipient}, nil)

	if _, err := svc.Send(ctx, SendInput{Address: testRecipient, Amount: decimal.NewFromInt(25)}); !errors.Is(err, errStoreDown) {
		t.Fatalf("expected store error, got %v", err)
	}

	balance, _ := backend.Balance(ctx, testIssuer)
	if !balance.IsZero() {
		t.Fatalf("expected issuer balance restored to 0, got %s", balance)
	}
	history, _ := backend.History(ctx, testIssuer, 0, 10)
	if len(history) != 2 {
		t.Fatalf("expected payout and reversal entries, got %d", len(history))
	}
	if history[0].Kind != ledger.KindAdjustment || !history[0].Delta.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("unexpected reversal entry: %+v", history[0])
	}
	if count, _ := backend.TotalCount(ctx, testRecipient); count != 0 {
		t.Fatalf("recipient should have no entries, got %d", count)
	}
}

func TestServiceSendReversesAfterCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	backend := ledger.NewInMemory()
	svc := newTestService(t, cancelingLedger{Ledger: backend, recipient: testRecipient, cancel: cancel}, nil)

	if _, err := svc.Send(ctx, SendInput{Address: testRecipient, Amount: decimal.NewFromInt(25)}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	bg := context.Background()
	balance, _ := backend.Balance(bg, testIssuer)
	if !balance.IsZero() {
		t.Fatalf("expected issuer balance restored to 0, got %s", balance)
	}
	if count, _ := backend.TotalCount(bg, testIssuer); count != 2 {
		t.Fatalf("expected payout and reversal entries, got %d", count)
	}
}

func TestNewServiceRequiresIssuer(t *testing.T) {
	_, err := NewService(context.Background(), ledger.NewInMemory(), nil, nil, Config{DefaultAmount: decimal.NewFromInt(1)}, nil)
	if err == nil {
		t.Fatal("expected error for missing issuer")
	}
}
