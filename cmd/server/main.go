package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/Patrick7854/kgl-groceries-system/internal/config"
	"github.com/Patrick7854/kgl-groceries-system/internal/repository/mongodb"
	sheetsrepo "github.com/Patrick7854/kgl-groceries-system/internal/repository/sheets"
	"github.com/Patrick7854/kgl-groceries-system/internal/scheduler"
	"github.com/Patrick7854/kgl-groceries-system/internal/server/handlers"
	"github.com/Patrick7854/kgl-groceries-system/internal/server/router"
	authsvc "github.com/Patrick7854/kgl-groceries-system/internal/service/auth"
	"github.com/Patrick7854/kgl-groceries-system/internal/service/inventory"
	ledgersvc "github.com/Patrick7854/kgl-groceries-system/internal/service/ledger"
	reportingsvc "github.com/Patrick7854/kgl-groceries-system/internal/service/reporting"
	"github.com/Patrick7854/kgl-groceries-system/pkg/clients/alerts"
	"github.com/Patrick7854/kgl-groceries-system/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	mongoRepo, err := mongodb.NewMongoDBRepository(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName)
	if err != nil {
		baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
	}
	defer func() {
		if err := mongoRepo.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	if err := mongoRepo.EnsureIndexes(context.Background()); err != nil {
		baseLogger.Fatal("failed to ensure mongodb indexes", zap.Error(err))
	}

	guard := inventory.NewGuard(mongoRepo, baseLogger.Named("svc.inventory"))
	ledgerSvc := ledgersvc.NewService(mongoRepo, guard, baseLogger.Named("svc.ledger"))
	reportingSvc := reportingsvc.NewService(mongoRepo, baseLogger.Named("svc.reporting"))
	authService := authsvc.NewService(mongoRepo, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, baseLogger.Named("svc.auth"))

	// Optional integrations: spreadsheet export and the alert webhook.
	var exportRepo sheetsrepo.Repository
	if cfg.Sheets.Enabled() {
		exportRepo, err = sheetsrepo.NewGoogleSheetRepository(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		baseLogger.Info("daily summary export enabled")
	} else {
		baseLogger.Warn("sheets credentials missing, daily summary export disabled")
	}

	var alertClient alerts.Client
	if cfg.Alerts.Enabled() {
		alertClient = alerts.NewClient(cfg.Alerts)
		baseLogger.Info("alert webhook enabled")
	} else {
		baseLogger.Warn("alert webhook url missing, stock alerts disabled")
	}

	engine := router.New(authService, router.Handlers{
		Auth:    handlers.NewAuthHandler(authService, baseLogger.Named("handlers.auth")),
		Users:   handlers.NewUserHandler(authService, baseLogger.Named("handlers.users")),
		Produce: handlers.NewProduceHandler(ledgerSvc, baseLogger.Named("handlers.produce")),
		Sales:   handlers.NewSaleHandler(ledgerSvc, reportingSvc, baseLogger.Named("handlers.sales")),
		Credits: handlers.NewCreditHandler(ledgerSvc, reportingSvc, baseLogger.Named("handlers.credits")),
		Reports: handlers.NewReportHandler(reportingSvc, baseLogger.Named("handlers.reports")),
	}, baseLogger.Named("router"))

	sched := scheduler.NewScheduler(*cfg, reportingSvc, exportRepo, alertClient, baseLogger.Named("scheduler"))
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
