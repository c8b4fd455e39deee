package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/riverclinic/ubscare/internal/export"
	"github.com/riverclinic/ubscare/internal/identity"
	"github.com/riverclinic/ubscare/internal/lab"
	"github.com/riverclinic/ubscare/internal/schedule"
	"github.com/riverclinic/ubscare/internal/server"
	"github.com/riverclinic/ubscare/internal/store"
	"github.com/riverclinic/ubscare/internal/vaccine"
	"github.com/riverclinic/ubscare/internal/workflow"
	"github.com/riverclinic/ubscare/pkg/config"
	"github.com/riverclinic/ubscare/pkg/interfaces"
	"github.com/riverclinic/ubscare/pkg/logger"
	"github.com/riverclinic/ubscare/pkg/monitoring"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger and metrics
	logger := logger.New(cfg.LogLevel)
	metrics := monitoring.NewMetricsCollector("ubscare")

	// Initialize persistence facade
	bus := store.NewBus()
	var st interfaces.Store
	var probes []monitoring.Prober

	switch cfg.Storage.Backend {
	case "postgres":
		pg, err := store.NewPgStore(&cfg.Storage.Postgres, logger, bus, metrics)
		if err != nil {
			logger.Fatalf("Failed to open postgres store: %v", err)
		}
		defer pg.Close()
		st = pg
		probes = append(probes, func() monitoring.HealthCheck {
			check := monitoring.HealthCheck{Name: "postgres", Status: monitoring.HealthStatusHealthy}
			if err := pg.Ping(); err != nil {
				check.Status = monitoring.HealthStatusUnhealthy
				check.Message = err.Error()
			}
			return check
		})
	default:
		fs, err := store.NewFileStore(cfg.Storage.DataDir, logger, bus, metrics)
		if err != nil {
			logger.Fatalf("Failed to open file store: %v", err)
		}
		st = fs
	}

	// Initialize services
	renderer, err := export.NewJSONRenderer(cfg.Export.OutputDir)
	if err != nil {
		logger.Fatalf("Failed to prepare export directory: %v", err)
	}

	identitySvc := identity.New(st, logger, metrics, &cfg.Session)
	workflowSvc := workflow.New(st, logger, metrics)
	scheduleSvc := schedule.New(st, logger)
	labSvc := lab.New(st, logger)
	vaccineSvc := vaccine.New(st, logger)
	exportSvc := export.New(st, logger, metrics, renderer)

	srv := server.New(&cfg.Server, logger, metrics,
		identitySvc, workflowSvc, scheduleSvc, labSvc, vaccineSvc, exportSvc, probes...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Keep the roster reconciliation loop running for the process lifetime
	// so cross-view refreshes stay honest even if notifications are missed.
	watcher := schedule.NewWatcher(bus, logger,
		time.Duration(cfg.Schedule.RefreshIntervalSeconds)*time.Second,
		func() {
			count, err := scheduleSvc.TodayCensus()
			if err != nil {
				logger.WithComponent("schedule").WithError(err).Warn("Roster reconciliation failed")
				return
			}
			logger.WithComponent("schedule").WithField("pending_today", count).Debug("Roster reconciled")
		})
	go watcher.Run(ctx)

	// Start server in a goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Errorf("Error during shutdown: %v", err)
	}
	logger.Info("Stopped")
}
