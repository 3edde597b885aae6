package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/custard-wallet/custard_ledger/internal/ledger"
	"github.com/custard-wallet/custard_ledger/internal/observability"
	"github.com/custard-wallet/custard_ledger/internal/wallet"
)

const (
	// QueueGroup load-balances commands across ledger replicas.
	QueueGroup = "ledger"

	applyTimeout = 5 * time.Second
	drainPoll    = 20 * time.Millisecond
)

// Subscriber consumes append commands from a NATS queue subscription.
type Subscriber struct {
	conn    *nats.Conn
	subject string
	ledger  ledger.Ledger
	metrics *observability.Metrics
	logger  *slog.Logger
	sub     *nats.Subscription
}

// NewSubscriber builds a subscriber; metrics may be nil.
func NewSubscriber(conn *nats.Conn, subject string, l ledger.Ledger, metrics *observability.Metrics, logger *slog.Logger) *Subscriber {
	return &Subscriber{conn: conn, subject: subject, ledger: l, metrics: metrics, logger: logger}
}

// Start joins the queue group. Messages are handled on the NATS delivery
// goroutine, so commands for one subscription apply in arrival order.
func (s *Subscriber) Start() error {
	sub, err := s.conn.QueueSubscribe(s.subject, QueueGroup, func(msg *nats.Msg) {
		ctx, cancel := context.WithTimeout(context.Background(), applyTimeout)
		defer cancel()

		reply := s.Handle(ctx, msg.Data)
		if msg.Reply == "" {
			return
		}
		payload, err := json.Marshal(reply)
		if err != nil {
			s.logger.Error("encode ingest reply", slog.Any("error", err))
			return
		}
		if err := msg.Respond(payload); err != nil {
			s.logger.Warn("ingest reply failed", slog.String("reply", msg.Reply), slog.Any("error", err))
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", s.subject, err)
	}
	s.sub = sub
	s.logger.Info("subscribed to append commands", slog.String("subject", s.subject), slog.String("queue", QueueGroup))
	return nil
}

// Handle applies one encoded command and returns the reply envelope.
func (s *Subscriber) Handle(ctx context.Context, data []byte) Reply {
	in, err := ParseAppendCommand(data)
	if err != nil {
		s.count("malformed")
		s.logger.Warn("malformed append command", slog.Any("error", err))
		return Reply{Error: err.Error()}
	}
	entry, err := s.ledger.Append(ctx, in)
	if err != nil {
		s.count("rejected")
		s.logger.Warn("append command rejected", slog.String("account_id", in.AccountID), slog.Any("error", err))
		return Reply{Error: err.Error()}
	}
	s.count("applied")
	resp := wallet.ToEntryResponse(entry)
	return Reply{OK: true, Entry: &resp}
}

// Stop drains the subscription and waits until the queued commands have been
// handled, or ctx expires.
func (s *Subscriber) Stop(ctx context.Context) error {
	if s.sub == nil {
		return nil
	}
	if err := s.sub.Drain(); err != nil {
		return fmt.Errorf("drain %s: %w", s.subject, err)
	}
	return waitDrained(ctx, s.sub.IsValid)
}

// waitDrained polls until the subscription reports itself closed.
func waitDrained(ctx context.Context, valid func() bool) error {
	ticker := time.NewTicker(drainPoll)
	defer ticker.Stop()
	for valid() {
		select {
		case <-ctx.Done():
			return fmt.Errorf("drain not finished: %w", ctx.Err())
		case <-ticker.C:
		}
	}
	return nil
}

func (s *Subscriber) count(outcome string) {
	if s.metrics != nil {
		s.metrics.IngestMessages.WithLabelValues(outcome).Inc()
	}
}
