package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"harvestbook/internal/amqp"
	"harvestbook/internal/config"
	"harvestbook/internal/log"
	"harvestbook/internal/services"
	"harvestbook/internal/sheets"
	gsheet "harvestbook/internal/sheets/google"
	mem "harvestbook/internal/sheets/memory"
	"harvestbook/internal/storage"
	"harvestbook/internal/worker"
)

func main() {
	_ = godotenv.Load()

	logger := log.Setup(log.ComponentWorker)
	logger.Info("Starting harvestbook-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open SQLite repository", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var mirror sheets.LedgerMirror
	switch cfg.MirrorBackend {
	case "sheets":
		m, err := gsheet.NewFromEnv(ctx)
		if err != nil {
			logger.Error("Failed to initialize sheets mirror", log.FieldError, err)
			os.Exit(1)
		}
		mirror = m
		logger.Info("Audit ledger mirror enabled", "backend", cfg.MirrorBackend)
	case "memory":
		mirror = mem.New()
		logger.Info("Audit ledger mirror enabled", "backend", cfg.MirrorBackend)
	default:
		logger.Info("Audit ledger mirror disabled")
	}

	reconciler := services.NewReconciler(repo, cfg.RepairDrift, cfg.ReconcileBatchSize)
	w := worker.NewReconcileWorker(repo, reconciler, mirror)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeLedgerChanged(ctx, func(msg *amqp.LedgerChangedMessage) error {
			return w.HandleLedgerChange(ctx, msg)
		})
	})
	g.Go(func() error {
		return w.RunSweeper(ctx, cfg.SweepInterval)
	})

	logger.Info("Worker running",
		"sweep_interval", cfg.SweepInterval,
		"repair_drift", cfg.RepairDrift,
		"batch_size", cfg.ReconcileBatchSize)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
