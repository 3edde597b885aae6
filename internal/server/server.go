package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/custard-wallet/custard_ledger/internal/config"
	"github.com/custard-wallet/custard_ledger/internal/events"
	"github.com/custard-wallet/custard_ledger/internal/ingestion"
	"github.com/custard-wallet/custard_ledger/internal/ledger"
	"github.com/custard-wallet/custard_ledger/internal/logging"
	"github.com/custard-wallet/custard_ledger/internal/observability"
	"github.com/custard-wallet/custard_ledger/internal/routes"
)

// Backends groups the optional external connections. Nil members disable
// the matching feature.
type Backends struct {
	DB    *pgxpool.Pool
	Cache *redis.Client
	NATS  *nats.Conn
	Kafka events.MessageWriter
}

// Server wraps the Fiber application, the ledger and its background consumers.
type Server struct {
	app        *fiber.App
	cfg        config.Config
	logger     *slog.Logger
	ledger     ledger.Ledger
	publisher  *events.Publisher
	subscriber *ingestion.Subscriber
}

// New selects the ledger backend, attaches observers and wires routes.
func New(ctx context.Context, cfg config.Config, b Backends, logger *slog.Logger) (*Server, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)

	var backend ledger.Ledger
	if b.DB != nil {
		pg := ledger.NewPostgresLedger(b.DB)
		if err := pg.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		backend = pg
		logger.Info("ledger backend selected", slog.String("backend", "postgres"))
	} else {
		backend = ledger.NewInMemory()
		logger.Warn("ledger backend selected", slog.String("backend", "memory"))
	}

	observers := []ledger.Observer{metrics}
	var publisher *events.Publisher
	if b.Kafka != nil {
		publisher = events.NewPublisher(b.Kafka, logging.Component(logger, "events"))
		observers = append(observers, publisher)
	}
	backend = ledger.WithObservers(backend, observers...)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})
	if err := routes.Setup(app, routes.Deps{
		Cfg:      cfg,
		Ledger:   backend,
		DB:       b.DB,
		Cache:    b.Cache,
		NATS:     b.NATS,
		Metrics:  metrics,
		Registry: reg,
		Logger:   logger,
	}); err != nil {
		return nil, err
	}

	s := &Server{app: app, cfg: cfg, logger: logger, ledger: backend, publisher: publisher}
	if b.NATS != nil {
		s.subscriber = ingestion.NewSubscriber(b.NATS, cfg.NATSSubject, backend, metrics, logging.Component(logger, "ingestion"))
	}
	return s, nil
}

// Listen starts the NATS consumer, if any, then the HTTP server.
func (s *Server) Listen() error {
	if s.subscriber != nil {
		if err := s.subscriber.Start(); err != nil {
			return err
		}
		s.logger.Info("ingestion subscriber started", slog.String("subject", s.cfg.NATSSubject))
	}
	return s.app.Listen(s.cfg.Address())
}

// Shutdown stops accepting HTTP requests, drains the consumer and flushes
// pending events.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if err := s.app.ShutdownWithContext(ctx); err != nil {
		errs = append(errs, err)
	}
	if s.subscriber != nil {
		if err := s.subscriber.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
