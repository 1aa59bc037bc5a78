// Package main is the entry point for the payoff dashboard backend.
// It wires the position importer, the payoff/risk analytics engine and the
// HTTP API, plus the background jobs (DTE rollover, cache sweep, backups).
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/askourtis/payoff/internal/config"
	"github.com/askourtis/payoff/internal/database"
	"github.com/askourtis/payoff/internal/events"
	"github.com/askourtis/payoff/internal/modules/analysis"
	analysishandlers "github.com/askourtis/payoff/internal/modules/analysis/handlers"
	"github.com/askourtis/payoff/internal/modules/positions"
	positionshandlers "github.com/askourtis/payoff/internal/modules/positions/handlers"
	pricinghandlers "github.com/askourtis/payoff/internal/modules/pricing/handlers"
	"github.com/askourtis/payoff/internal/reliability"
	"github.com/askourtis/payoff/internal/scheduler"
	"github.com/askourtis/payoff/internal/server"
	"github.com/askourtis/payoff/pkg/logger"
)

// keepSessions is how many import sessions the nightly cleanup retains
const keepSessions = 10

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Use a fallback logger so the configuration error is still logged
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting payoff")

	db, err := database.New(database.Config{
		Path: filepath.Join(cfg.DataDir, "portfolio.db"),
		Name: "portfolio",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open portfolio database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate portfolio database")
	}

	eventBus := events.NewBus(log)

	positionsRepo := positions.NewRepository(db.Conn(), log)
	positionsSvc := positions.NewService(positionsRepo, eventBus, log)

	analysisCache := analysis.NewCache(db.Conn())
	analysisSvc := analysis.NewService(positionsSvc, analysisCache, eventBus, log)

	srv := server.New(server.Config{
		Port:              cfg.Port,
		Log:               log,
		Cfg:               cfg,
		EventBus:          eventBus,
		PositionsHandlers: positionshandlers.NewHandler(positionsSvc, log),
		AnalysisHandlers:  analysishandlers.NewHandler(analysisSvc, log),
		PricingHandlers:   pricinghandlers.NewHandler(cfg.RiskFreeRate, log),
	})

	sched := scheduler.New(log)

	// DTE and at-expiry behavior depend on the calendar date, so cached
	// analysis must roll over at midnight UTC.
	mustAddJob(log, sched, "0 0 0 * * *", scheduler.JobFunc{
		JobName: "dte-rollover",
		Fn: func() error {
			eventBus.Publish(&events.AnalysisInvalidatedData{Reason: "dte_rollover"})
			return nil
		},
	})

	mustAddJob(log, sched, "0 30 * * * *", scheduler.JobFunc{
		JobName: "cache-sweep",
		Fn: func() error {
			n, err := analysisCache.Sweep()
			if err != nil {
				return err
			}
			if n > 0 {
				log.Debug().Int64("deleted", n).Msg("Swept expired cache entries")
			}
			return nil
		},
	})

	mustAddJob(log, sched, "0 15 2 * * *", scheduler.JobFunc{
		JobName: "session-cleanup",
		Fn: func() error {
			_, err := positionsRepo.DeleteOlderSessions(keepSessions)
			return err
		},
	})

	// Cloud backups only when a bucket is configured
	if cfg.Backup != nil {
		backupSvc := reliability.NewBackupService(db.Conn(), cfg.DataDir, log)
		cloudSvc, err := reliability.NewCloudBackupService(
			context.Background(), cfg.Backup, backupSvc, eventBus, log,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize cloud backups")
		}

		mustAddJob(log, sched, cfg.Backup.Schedule, scheduler.JobFunc{
			JobName: "cloud-backup",
			Fn: func() error {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
				defer cancel()
				return cloudSvc.CreateAndUpload(ctx)
			},
		})
		log.Info().Str("bucket", cfg.Backup.Bucket).Msg("Cloud backups enabled")
	}

	sched.Start()
	defer sched.Stop()

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started")

	// Block until SIGINT or SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

// mustAddJob registers a cron job or exits. Schedules are compile-time
// constants or validated configuration, so failure is a programming error.
func mustAddJob(log zerolog.Logger, sched *scheduler.Scheduler, schedule string, job scheduler.Job) {
	if err := sched.AddJob(schedule, job); err != nil {
		log.Fatal().Err(err).Str("job", job.Name()).Msg("Failed to register job")
	}
}
