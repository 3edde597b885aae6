package notification

import (
	"context"
	"log/slog"
)

const (
	// KindFaucetTransfer is sent when the faucet pays a wallet.
	KindFaucetTransfer = "faucet_transfer"
	// KindPointsAwarded is sent when a loyalty member earns points.
	KindPointsAwarded = "points_awarded"
	// KindPointsRedeemed is sent when a loyalty member spends points.
	KindPointsRedeemed = "points_redeemed"
)

// Message describes a notification payload.
type Message struct {
	Kind        string
	Destination string
	Body        string
}

// Notifier delivers notifications to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes notifications to the structured logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(ctx context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.InfoContext(ctx, "notification", "kind", message.Kind, "destination", message.Destination, "body", message.Body)
	return nil
}

// NoopNotifier drops every message.
type NoopNotifier struct{}

// Send discards the message.
func (NoopNotifier) Send(context.Context, Message) error { return nil }
