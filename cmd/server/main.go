// Pennywatch is a penny-stock screening and trading pipeline: it scans a
// fundamentals universe after market close, builds sized trade
// recommendations, and optionally executes them through the FYERS API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/rmenon/pennywatch/internal/clients/fyers"
	"github.com/rmenon/pennywatch/internal/config"
	"github.com/rmenon/pennywatch/internal/database"
	"github.com/rmenon/pennywatch/internal/modules/execution"
	"github.com/rmenon/pennywatch/internal/modules/fundamentals"
	"github.com/rmenon/pennywatch/internal/modules/marketdata"
	"github.com/rmenon/pennywatch/internal/modules/recommendations"
	"github.com/rmenon/pennywatch/internal/modules/risk"
	"github.com/rmenon/pennywatch/internal/modules/scanner"
	"github.com/rmenon/pennywatch/internal/modules/strategy"
	"github.com/rmenon/pennywatch/internal/modules/technicals"
	"github.com/rmenon/pennywatch/internal/reliability"
	"github.com/rmenon/pennywatch/internal/scheduler"
	"github.com/rmenon/pennywatch/internal/server"
	"github.com/rmenon/pennywatch/pkg/logger"
)

const backupRetentionDays = 30

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load configuration:", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.DevMode)

	log.Info().
		Str("data_dir", cfg.DataDir).
		Int("port", cfg.Port).
		Msg("Starting pennywatch")

	universeDB := mustOpenDB(log, database.Config{
		Path:    filepath.Join(cfg.DataDir, "universe.db"),
		Profile: database.ProfileStandard,
		Name:    "universe",
	})
	defer universeDB.Close()

	historyDB := mustOpenDB(log, database.Config{
		Path:    filepath.Join(cfg.DataDir, "history.db"),
		Profile: database.ProfileCache,
		Name:    "history",
	})
	defer historyDB.Close()

	ledgerDB := mustOpenDB(log, database.Config{
		Path:    filepath.Join(cfg.DataDir, "ledger.db"),
		Profile: database.ProfileLedger,
		Name:    "ledger",
	})
	defer ledgerDB.Close()

	// Data layer
	fundamentalsRepo := fundamentals.NewRepository(filepath.Join(cfg.DataDir, "penny_fundamentals.csv"), log)
	universeRepo := fundamentals.NewUniverseRepository(universeDB.Conn(), log)
	csvSource := marketdata.NewCSVSource(filepath.Join(cfg.DataDir, "eod_prices.csv"), log)
	priceStore := marketdata.NewHistoryDB(historyDB.Conn(), log)
	syncService := marketdata.NewSyncService(csvSource, priceStore, log)

	// Pipeline services
	technicalsService := technicals.NewService(priceStore, log)
	scanService := scanner.NewService(universeRepo, technicalsService, cfg.Scan, log)
	candidateRepo := scanner.NewRepository(ledgerDB.Conn(), log)
	builder := recommendations.NewBuilder(cfg.Risk.Capital, cfg.Risk.MaxRiskPct, cfg.Risk.TopN, log)
	recRepo := recommendations.NewRepository(ledgerDB.Conn(), log)
	swingTrend := strategy.NewSwingTrend(cfg.Strategy, log)
	signalRepo := strategy.NewRepository(ledgerDB.Conn(), log)
	ledger := execution.NewLedger(ledgerDB.Conn(), log)
	sizer := risk.NewPositionSizer(cfg.Risk)

	// Scheduler
	sched := scheduler.New(log)
	mustAddJob(log, sched, "35 15 * * MON-FRI", scheduler.NewHistorySyncJob(syncService))
	mustAddJob(log, sched, "40 15 * * MON-FRI", scheduler.NewDailyScanJob(
		fundamentalsRepo, universeRepo, scanService, candidateRepo, builder, recRepo, cfg, log))
	mustAddJob(log, sched, "50 15 * * MON-FRI", scheduler.NewSwingScanJob(
		fundamentalsRepo, priceStore, swingTrend, signalRepo, cfg, log))

	// Trading jobs only run with broker credentials configured.
	broker, err := fyers.NewClient(cfg.FyersClientID, cfg.FyersAccessToken, log)
	if err != nil {
		log.Warn().Err(err).Msg("FYERS client unavailable, order placement disabled")
	} else {
		trader := execution.NewAutoTrader(recRepo, ledger, broker, log)
		executor := execution.NewPreopenExecutor(signalRepo, ledger, broker, sizer, cfg.Strategy, log)
		mustAddJob(log, sched, "*/30 9-15 * * MON-FRI", scheduler.NewAutoTradeJob(trader))
		mustAddJob(log, sched, "10 9 * * MON-FRI", scheduler.NewPreopenExecuteJob(executor))
	}

	databases := []*database.DB{universeDB, historyDB, ledgerDB}
	mustAddJob(log, sched, "30 16 * * *", reliability.NewMaintenanceJob(databases, log))

	// Cloud backup only runs with storage credentials configured.
	store, err := reliability.NewS3Client(cfg.BackupEndpoint, cfg.BackupAccessKey, cfg.BackupSecretKey, cfg.BackupBucket, log)
	if err != nil {
		log.Warn().Err(err).Msg("Backup storage unavailable, cloud backup disabled")
	} else {
		backupService := reliability.NewBackupService(store, databases, cfg.DataDir, log)
		mustAddJob(log, sched, "0 17 * * *", reliability.NewBackupJob(backupService, backupRetentionDays, log))
	}

	sched.Start()
	defer sched.Stop()

	// HTTP API
	handlers := server.NewHandlers(universeRepo, candidateRepo, recRepo, signalRepo, ledger, log)
	srv := server.New(server.Config{
		Log:      log,
		Config:   cfg,
		Port:     cfg.Port,
		Handlers: handlers,
	})

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}
}

func mustOpenDB(log zerolog.Logger, cfg database.Config) *database.DB {
	db, err := database.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("database", cfg.Name).Msg("Failed to open database")
	}
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Str("database", cfg.Name).Msg("Failed to migrate database")
	}
	return db
}

func mustAddJob(log zerolog.Logger, sched *scheduler.Scheduler, schedule string, job scheduler.Job) {
	if err := sched.AddJob(schedule, job); err != nil {
		log.Fatal().Err(err).Str("job", job.Name()).Msg("Failed to register job")
	}
}
