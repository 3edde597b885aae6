package observability

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/custard-wallet/custard_ledger/internal/ledger"
)

// Metrics holds the Prometheus collectors for the ledger service.
type Metrics struct {
	EntriesAppended *prometheus.CounterVec
	AppendsRejected *prometheus.CounterVec
	DeltaVolume     *prometheus.CounterVec

	IngestMessages *prometheus.CounterVec

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EntriesAppended: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_entries_appended_total",
			Help: "Entries stored, by kind",
		}, []string{"kind"}),

		AppendsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_appends_rejected_total",
			Help: "Appends that failed, by reason",
		}, []string{"reason"}),

		DeltaVolume: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_delta_volume_total",
			Help: "Absolute quantity moved by stored entries, split by sign",
		}, []string{"side"}),

		IngestMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_ingest_messages_total",
			Help: "Append commands received over NATS, by outcome",
		}, []string{"outcome"}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_http_requests_total",
			Help: "HTTP requests served",
		}, []string{"method", "route", "status"}),

		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ledger_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Appended implements ledger.Observer.
func (m *Metrics) Appended(_ context.Context, e ledger.Entry) {
	m.EntriesAppended.WithLabelValues(string(e.Kind)).Inc()
	switch e.Delta.Sign() {
	case 1:
		m.DeltaVolume.WithLabelValues("credit").Add(e.Delta.InexactFloat64())
	case -1:
		m.DeltaVolume.WithLabelValues("debit").Add(e.Delta.Neg().InexactFloat64())
	}
}

// Rejected implements ledger.Observer.
func (m *Metrics) Rejected(_ context.Context, _ string, err error) {
	m.AppendsRejected.WithLabelValues(RejectReason(err)).Inc()
}

// RejectReason maps an append error onto a low-cardinality label.
func RejectReason(err error) string {
	switch {
	case errors.Is(err, ledger.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ledger.ErrUnknownKind):
		return "unknown_kind"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "storage"
	}
}

// Middleware records request counts and latency per route pattern.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		} else if err != nil {
			status = fiber.StatusInternalServerError
		}
		route := c.Route().Path
		m.HTTPRequests.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		m.HTTPDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}
