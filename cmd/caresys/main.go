package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/caresys-hbs/caresys/internal/app"
	"github.com/caresys-hbs/caresys/internal/archive"
	"github.com/caresys-hbs/caresys/internal/discounts"
	"github.com/caresys-hbs/caresys/internal/invoices"
	"github.com/caresys-hbs/caresys/internal/ledger"
	"github.com/caresys-hbs/caresys/internal/observability"
	"github.com/caresys-hbs/caresys/internal/patients"
	"github.com/caresys-hbs/caresys/internal/payments"
	"github.com/caresys-hbs/caresys/internal/pharmacy"
	"github.com/caresys-hbs/caresys/internal/platform/cache"
	"github.com/caresys-hbs/caresys/internal/platform/db"
	"github.com/caresys-hbs/caresys/internal/shared"
	"github.com/caresys-hbs/caresys/internal/users"
	"github.com/caresys-hbs/caresys/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		// The snapshot cache degrades to reconciling on every read.
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

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(dbpool)

	discountRepo := discounts.NewRepository(dbpool)
	discountService := discounts.NewService(discountRepo)

	invoiceRepo := invoices.NewRepository(dbpool)
	invoiceService := invoices.NewService(invoiceRepo, discountService)
	invoiceHandler := invoices.NewHandler(logger, invoiceService)

	paymentRepo := payments.NewRepository(dbpool)
	paymentService := payments.NewService(paymentRepo)
	paymentHandler := payments.NewHandler(logger, paymentService)

	pharmacyRepo := pharmacy.NewRepository(dbpool)

	patientRepo := patients.NewRepository(dbpool)
	patientHandler := patients.NewHandler(logger, patientRepo)

	userRepo := users.NewRepository(dbpool)
	userService := users.NewService(userRepo)
	userHandler := users.NewHandler(logger, userService)

	settingsRepo := archive.NewSettingsRepository(dbpool)
	archiveService := archive.NewService(logger, map[archive.EntityType]archive.Store{
		archive.EntityPatient: archive.NewSQLStore(dbpool, "patients", archive.EntityPatient),
		archive.EntityUser:    archive.NewSQLStore(dbpool, "users", archive.EntityUser),
		archive.EntityInvoice: archive.NewSQLStore(dbpool, "invoices", archive.EntityInvoice),
		archive.EntityPayment: archive.NewSQLStore(dbpool, "payments", archive.EntityPayment),
	}, settingsRepo, auditLogger)

	ledgerService := ledger.NewService(logger, []ledger.Source{
		invoices.NewLedgerSource(invoiceRepo),
		payments.NewLedgerSource(paymentRepo),
		pharmacy.NewLedgerSource(pharmacyRepo),
	}, cfg.LedgerFetchTimeout, metrics)
	snapshotCache := ledger.NewSnapshotCache(redisClient, cfg.LedgerSnapshotTTL)
	ledgerHandler := ledger.NewHandler(logger, ledgerService, archiveService, snapshotCache)
	archiveHandler := archive.NewHandler(logger, archiveService, snapshotCache)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		LedgerHandler:   ledgerHandler,
		ArchiveHandler:  archiveHandler,
		InvoicesHandler: invoiceHandler,
		PaymentsHandler: paymentHandler,
		PatientsHandler: patientHandler,
		UsersHandler:    userHandler,
		JobsHandler:     jobHandler,
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
