package faucet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/custard-wallet/custard_ledger/internal/ledger"
	"github.com/custard-wallet/custard_ledger/internal/notification"
	"github.com/custard-wallet/custard_ledger/internal/wallet"
)

const reversalTimeout = 5 * time.Second

// Service pays tokens from the issuer account to wallet addresses.
type Service struct {
	ledger        ledger.Ledger
	relay         Relay
	notifier      notification.Notifier
	issuer        string
	defaultAmount decimal.Decimal
	logger        *slog.Logger
}

// Config carries the faucet settings taken from the application config.
type Config struct {
	Issuer        string
	DefaultAmount decimal.Decimal
}

// NewService prepares a faucet service ensuring the issuer account exists.
func NewService(ctx context.Context, ledgerBackend ledger.Ledger, relay Relay, notifier notification.Notifier, cfg Config, logger *slog.Logger) (*Service, error) {
	if cfg.Issuer == "" {
		return nil, fmt.Errorf("faucet issuer is required")
	}
	if cfg.DefaultAmount.Sign() <= 0 {
		return nil, fmt.Errorf("faucet default amount must be positive")
	}
	if relay == nil {
		relay = StaticRelay{}
	}
	if notifier == nil {
		notifier = notification.NoopNotifier{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := ledgerBackend.EnsureAccount(ctx, cfg.Issuer); err != nil {
		return nil, err
	}
	return &Service{
		ledger:        ledgerBackend,
		relay:         relay,
		notifier:      notifier,
		issuer:        cfg.Issuer,
		defaultAmount: cfg.DefaultAmount,
		logger:        logger,
	}, nil
}

// SendInput captures one faucet request.
type SendInput struct {
	Address string
	Amount  decimal.Decimal
}

// SendResult is the domain outcome of a payout.
type SendResult struct {
	Address string
	Amount  decimal.Decimal
	Balance decimal.Decimal
	Entry   ledger.Entry
	Receipt Receipt
}

// Send moves the requested amount from the issuer to the address. The
// issuer leg is written first; if the recipient leg fails it is reversed
// with an adjustment entry and the original error is returned.
func (s *Service) Send(ctx context.Context, input SendInput) (SendResult, error) {
	address := wallet.CanonicalAddress(input.Address)
	if address == "" {
		return SendResult{}, fmt.Errorf("%w: address is required", ledger.ErrInvalidInput)
	}
	if address == s.issuer {
		return SendResult{}, fmt.Errorf("%w: cannot pay the issuer", ledger.ErrInvalidInput)
	}
	amount := input.Amount
	switch amount.Sign() {
	case 0:
		amount = s.defaultAmount
	case -1:
		return SendResult{}, fmt.Errorf("%w: amount must not be negative", ledger.ErrInvalidInput)
	}

	short := wallet.ShortAddress(address)
	if _, err := s.ledger.Append(ctx, ledger.AppendInput{
		AccountID:   s.issuer,
		Description: "Faucet payout to " + short,
		Delta:       amount.Neg(),
		Kind:        ledger.KindTransferOut,
	}); err != nil {
		return SendResult{}, err
	}

	entry, err := s.ledger.Append(ctx, ledger.AppendInput{
		AccountID:   address,
		Description: "Faucet transfer",
		Delta:       amount,
		Kind:        ledger.KindTransferIn,
	})
	if err != nil {
		s.reverse(ctx, short, amount, err)
		return SendResult{}, err
	}

	receipt, err := s.relay.Submit(ctx, Transfer{From: s.issuer, To: address, Amount: amount})
	if err != nil {
		// the ledger legs stand; the relay is retried out of band
		s.logger.Warn("faucet relay submit failed", slog.String("address", address), slog.String("error", err.Error()))
		receipt = Receipt{Status: "pending"}
	}

	_ = s.notifier.Send(ctx, notification.Message{
		Kind:        notification.KindFaucetTransfer,
		Destination: address,
		Body:        fmt.Sprintf("%s tokens sent to %s", amount.String(), short),
	})

	return SendResult{
		Address: address,
		Amount:  amount,
		Balance: entry.BalanceAfter,
		Entry:   entry,
		Receipt: receipt,
	}, nil
}

// IssuerBalance returns the remaining (usually negative) issuer balance.
func (s *Service) IssuerBalance(ctx context.Context) (decimal.Decimal, error) {
	return s.ledger.Balance(ctx, s.issuer)
}

// reverse runs detached from the caller's cancellation.
func (s *Service) reverse(ctx context.Context, short string, amount decimal.Decimal, cause error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reversalTimeout)
	defer cancel()

	_, err := s.ledger.Append(ctx, ledger.AppendInput{
		AccountID:   s.issuer,
		Description: "Reversal of faucet payout to " + short,
		Delta:       amount,
		Kind:        ledger.KindAdjustment,
	})
	if err != nil {
		s.logger.Error("faucet reversal failed",
			slog.String("issuer", s.issuer),
			slog.String("amount", amount.String()),
			slog.String("cause", cause.Error()),
			slog.String("error", err.Error()),
		)
		return
	}
	if !errors.Is(cause, context.Canceled) {
		s.logger.Warn("faucet payout reversed", slog.String("recipient", short), slog.String("cause", cause.Error()))
	}
}
