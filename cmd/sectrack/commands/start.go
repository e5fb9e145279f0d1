package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/sectrack/internal/api"
	"github.com/wonny/sectrack/internal/api/handlers"
	"github.com/wonny/sectrack/internal/entity"
	"github.com/wonny/sectrack/internal/importer"
	"github.com/wonny/sectrack/internal/jobs"
	"github.com/wonny/sectrack/internal/scheduler"
	"github.com/wonny/sectrack/internal/sensor"
	"github.com/wonny/sectrack/internal/wizard"
)

// flowTTL is how long an untouched wizard flow survives before eviction.
const flowTTL = 15 * time.Minute

// startCmd runs the full service: sensors, scheduler and the HTTP API.
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Run the tracker service",
	Long: `Starts the tracker: authenticates against the pricing API,
materializes sensors for every stored contract, schedules the periodic
jobs and serves the HTTP API.

Example:
  go run ./cmd/sectrack start`,
	RunE: runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	rt, err := initRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := context.Background()

	// Rows written under another entry id are leftovers from a previous
	// installation.
	if err := rt.store.PurgeExcept(ctx, rt.cfg.EntryID); err != nil {
		return fmt.Errorf("purge store: %w", err)
	}

	// Without a working API session nothing below can function.
	if err := rt.api.Authenticate(ctx); err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}

	registry := entity.NewRegistry()
	materializer := sensor.NewMaterializer(
		rt.store, rt.api, registry, rt.logger, rt.cfg.EntryID, rt.cfg.API.ZipCode)
	if err := materializer.Reload(ctx); err != nil {
		return fmt.Errorf("materialize sensors: %w", err)
	}
	defer materializer.Stop()

	best := jobs.NewBestContractsJob(rt.store, rt.api, rt.logger, rt.cfg.EntryID, rt.cfg.API.ZipCode)

	sched := scheduler.New(rt.logger)
	if err := sched.AddJob(best); err != nil {
		return err
	}
	if err := sched.AddJob(jobs.NewStoreMaintenanceJob(rt.store, rt.logger)); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	manager := wizard.NewManager(flowTTL)
	newFlow := func() *wizard.Flow {
		return wizard.New(rt.store, rt.api, rt.logger, rt.cfg.EntryID, materializer.Reload)
	}

	router := api.NewRouter(
		handlers.NewFlowHandler(manager, newFlow, rt.logger),
		handlers.NewServiceHandler(
			rt.store, importer.New(rt.store, rt.logger, rt.cfg.EntryID),
			best, materializer.Reload, rt.logger, rt.cfg.EntryID),
		handlers.NewStateHandler(rt.store, registry, rt.logger, rt.cfg.EntryID),
		handlers.NewStreamHandler(registry.Bus(), rt.logger),
		rt.logger,
	)
	server := api.New(rt.cfg, rt.logger, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
