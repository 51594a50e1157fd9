package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/caresys-hbs/caresys/internal/app"
	"github.com/caresys-hbs/caresys/internal/archive"
	"github.com/caresys-hbs/caresys/internal/invoices"
	"github.com/caresys-hbs/caresys/internal/ledger"
	"github.com/caresys-hbs/caresys/internal/payments"
	"github.com/caresys-hbs/caresys/internal/pharmacy"
	"github.com/caresys-hbs/caresys/internal/platform/cache"
	"github.com/caresys-hbs/caresys/internal/platform/db"
	"github.com/caresys-hbs/caresys/internal/shared"
	"github.com/caresys-hbs/caresys/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("connect redis", slog.Any("error", err))
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	auditLogger := shared.NewAuditLogger(pool)

	settingsRepo := archive.NewSettingsRepository(pool)
	archiveService := archive.NewService(logger, map[archive.EntityType]archive.Store{
		archive.EntityPatient: archive.NewSQLStore(pool, "patients", archive.EntityPatient),
		archive.EntityUser:    archive.NewSQLStore(pool, "users", archive.EntityUser),
		archive.EntityInvoice: archive.NewSQLStore(pool, "invoices", archive.EntityInvoice),
		archive.EntityPayment: archive.NewSQLStore(pool, "payments", archive.EntityPayment),
	}, settingsRepo, auditLogger)

	ledgerService := ledger.NewService(logger, []ledger.Source{
		invoices.NewLedgerSource(invoices.NewRepository(pool)),
		payments.NewLedgerSource(payments.NewRepository(pool)),
		pharmacy.NewLedgerSource(pharmacy.NewRepository(pool)),
	}, cfg.LedgerFetchTimeout, nil)
	snapshotCache := ledger.NewSnapshotCache(redisClient, cfg.LedgerSnapshotTTL)

	warmupJob := jobs.NewLedgerWarmupJob(ledgerService, archiveService, snapshotCache, logger, nil)
	integrityJob := jobs.NewArchiveIntegrityJob(pool, logger, nil)

	now := time.Now().UTC()
	warmupTask, err := jobs.NewLedgerWarmupTask(now)
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}
	integrityTask, err := jobs.NewArchiveIntegrityTask(now)
	if err != nil {
		logger.Error("build integrity task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskLedgerWarmup, Handler: warmupJob.Handle},
			{Type: jobs.TaskArchiveIntegrity, Handler: integrityJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "*/15 * * * *", Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "0 2 * * *", Task: integrityTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
