// Package events publishes ledger activity to Kafka.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/custard-wallet/custard_ledger/internal/ledger"
)

const publishTimeout = 5 * time.Second

// EntryAppended is the message written for every stored entry.
type EntryAppended struct {
	EntryID      string          `json:"entry_id"`
	AccountID    string          `json:"account_id"`
	Sequence     uint64          `json:"sequence"`
	Timestamp    time.Time       `json:"timestamp"`
	Description  string          `json:"description"`
	Delta        decimal.Decimal `json:"delta"`
	Kind         string          `json:"kind"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
}

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher emits EntryAppended messages keyed by account id, so one
// account's events stay in sequence order on a single partition.
type Publisher struct {
	writer MessageWriter
	logger *slog.Logger
}

// NewWriter builds a Kafka writer for the entry topic.
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}
}

// NewPublisher wraps a message writer.
func NewPublisher(writer MessageWriter, logger *slog.Logger) *Publisher {
	return &Publisher{writer: writer, logger: logger}
}

// Publish writes one entry event.
func (p *Publisher) Publish(ctx context.Context, e ledger.Entry) error {
	data, err := json.Marshal(EntryAppended{
		EntryID:      e.ID,
		AccountID:    e.AccountID,
		Sequence:     e.Sequence,
		Timestamp:    e.Timestamp,
		Description:  e.Description,
		Delta:        e.Delta,
		Kind:         string(e.Kind),
		BalanceAfter: e.BalanceAfter,
	})
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.AccountID),
		Value: data,
		Time:  e.Timestamp,
	})
}

// Appended implements ledger.Observer. The append has already committed, so
// a publish failure is logged and not surfaced to the caller.
func (p *Publisher) Appended(ctx context.Context, e ledger.Entry) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := p.Publish(ctx, e); err != nil {
		p.logger.Error("publish entry event failed",
			slog.String("account_id", e.AccountID),
			slog.Uint64("sequence", e.Sequence),
			slog.Any("error", err),
		)
	}
}

// Rejected implements ledger.Observer; rejected appends are not published.
func (p *Publisher) Rejected(context.Context, string, error) {}

// Close flushes and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
