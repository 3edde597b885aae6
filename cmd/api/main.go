package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custard-wallet/custard_ledger/internal/config"
	"github.com/custard-wallet/custard_ledger/internal/events"
	"github.com/custard-wallet/custard_ledger/internal/infra"
	"github.com/custard-wallet/custard_ledger/internal/logging"
	"github.com/custard-wallet/custard_ledger/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)
	ctx := context.Background()

	var backends server.Backends

	if cfg.DatabaseURL != "" {
		db, err := infra.NewPostgresPool(ctx, cfg.DatabaseURL, cfg.AppName)
		if err != nil {
			logger.Error("connect postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		backends.DB = db
	}

	if cfg.RedisURL != "" {
		cache, err := infra.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("connect redis", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := cache.Close(); err != nil {
				logger.Warn("close redis", "error", err)
			}
		}()
		backends.Cache = cache
	}

	if cfg.NATSURL != "" {
		nc, err := infra.NewNATSConn(cfg.NATSURL, cfg.AppName, logger)
		if err != nil {
			logger.Error("connect nats", "error", err)
			os.Exit(1)
		}
		defer nc.Close()
		backends.NATS = nc
	}

	if len(cfg.KafkaBrokers) > 0 {
		backends.Kafka = events.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic)
	}

	srv, err := server.New(ctx, cfg, backends, logger)
	if err != nil {
		logger.Error("build server", "error", err)
		os.Exit(1)
	}

	srvErrCh := make(chan error, 1)
	go func() {
		srvErrCh <- srv.Listen()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-srvErrCh:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited cleanly")
}
