// Command server runs the EsenTrader Boru API: webhook signal ingestion,
// order journaling and IB gateway proxying.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mustafaesen111/esentrader-boru-api-v2/internal/clients/ibkr"
	"github.com/mustafaesen111/esentrader-boru-api-v2/internal/config"
	"github.com/mustafaesen111/esentrader-boru-api-v2/internal/events"
	"github.com/mustafaesen111/esentrader-boru-api-v2/internal/modules/copytrade"
	"github.com/mustafaesen111/esentrader-boru-api-v2/internal/modules/mode"
	"github.com/mustafaesen111/esentrader-boru-api-v2/internal/modules/orders"
	"github.com/mustafaesen111/esentrader-boru-api-v2/internal/reliability"
	"github.com/mustafaesen111/esentrader-boru-api-v2/internal/server"
	"github.com/mustafaesen111/esentrader-boru-api-v2/pkg/logger"
)

const backupRetentionDays = 30

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().
		Str("data_dir", cfg.DataDir).
		Int("port", cfg.Port).
		Bool("live_trading", cfg.LiveTrading).
		Msg("Starting EsenTrader Boru API")

	bus := events.NewBus(log)
	modeStore := mode.NewStore(cfg.DataDir, bus, log)

	brokerClient := ibkr.NewClient(func() string {
		return modeStore.Resolve().BaseURL()
	}, log)

	journal := orders.NewJournal(cfg.DataDir, log)

	copyEngine := copytrade.NewEngine(bus, log)
	for _, account := range cfg.CopyFollowers {
		copyEngine.AddFollower(copytrade.Follower{AccountID: account})
	}
	if len(cfg.CopyFollowers) > 0 {
		log.Info().Int("followers", len(cfg.CopyFollowers)).Msg("Copy-trade followers registered")
	}

	orderRouter := orders.NewRouter(journal, brokerClient, copyEngine, bus, log)

	var backupService *reliability.BackupService
	var scheduler *cron.Cron
	if cfg.Backup.Enabled() {
		s3Client, err := reliability.NewS3Client(cfg.Backup, log)
		if err != nil {
			log.Error().Err(err).Msg("Failed to initialize backup storage, backups disabled")
		} else {
			backupService = reliability.NewBackupService(s3Client, cfg.DataDir, log)
			scheduler = cron.New()
			_, err := scheduler.AddFunc(cfg.Backup.Schedule, func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
				defer cancel()

				if _, err := backupService.CreateAndUploadBackup(ctx); err != nil {
					log.Error().Err(err).Msg("Scheduled backup failed")
					return
				}
				if err := backupService.RotateOldBackups(ctx, backupRetentionDays); err != nil {
					log.Error().Err(err).Msg("Backup rotation failed")
				}
			})
			if err != nil {
				log.Error().Err(err).Str("schedule", cfg.Backup.Schedule).Msg("Invalid backup schedule")
			} else {
				scheduler.Start()
				log.Info().Str("schedule", cfg.Backup.Schedule).Msg("Backup scheduler started")
			}
		}
	} else {
		log.Info().Msg("Backup storage not configured, skipping backup scheduler")
	}

	srv := server.New(server.Config{
		Log:           log,
		Config:        cfg,
		Port:          cfg.Port,
		DevMode:       cfg.DevMode,
		ModeStore:     modeStore,
		Journal:       journal,
		OrderRouter:   orderRouter,
		BrokerClient:  brokerClient,
		BackupService: backupService,
		EventBus:      bus,
	})

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	srv.StatusMonitor().Start(30 * time.Second)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info().Str("signal", sig.String()).Msg("Shutting down")

	srv.StatusMonitor().Stop()
	if scheduler != nil {
		scheduler.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}

	log.Info().Msg("Shutdown complete")
}
