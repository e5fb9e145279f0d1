package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/sectrack/internal/jobs"
	"github.com/wonny/sectrack/internal/scheduler"
)

// schedulerCmd groups the scheduler commands.
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Manage the job scheduler",
	Long: `Runs the scheduler on its own or manages its jobs.

Registered jobs:
- best_contracts: daily at 6 AM (cheapest contracts refresh)
- store_maintenance: Sunday at 3 AM (sqlite vacuum)

Example:
  go run ./cmd/sectrack scheduler start
  go run ./cmd/sectrack scheduler list
  go run ./cmd/sectrack scheduler run best_contracts`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Run the scheduler standalone",
		RunE:  runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "List registered jobs",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run a job immediately",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

// initScheduler wires a scheduler with every job registered.
func initScheduler(rt *runtime) (*scheduler.Scheduler, error) {
	sched := scheduler.New(rt.logger)

	best := jobs.NewBestContractsJob(rt.store, rt.api, rt.logger, rt.cfg.EntryID, rt.cfg.API.ZipCode)
	if err := sched.AddJob(best); err != nil {
		return nil, err
	}
	if err := sched.AddJob(jobs.NewStoreMaintenanceJob(rt.store, rt.logger)); err != nil {
		return nil, err
	}

	return sched, nil
}

func runScheduler(cmd *cobra.Command, args []string) error {
	rt, err := initRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.api.Authenticate(cmd.Context()); err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}

	sched, err := initScheduler(rt)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	sched.Start()

	fmt.Println("Scheduler started. Registered jobs:")
	for _, jobName := range sched.Jobs() {
		fmt.Printf("  - %s\n", jobName)
	}
	fmt.Println("Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	sched.Stop()
	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	rt, err := initRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	sched, err := initScheduler(rt)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	fmt.Println("Registered jobs:")
	for jobName, stat := range sched.Stats() {
		fmt.Printf("  - %s (%s)\n", jobName, stat.Schedule)
	}
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	rt, err := initRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := cmd.Context()

	var job scheduler.Job
	switch jobName {
	case "best_contracts":
		if err := rt.api.Authenticate(ctx); err != nil {
			return fmt.Errorf("authenticate: %w", err)
		}
		job = jobs.NewBestContractsJob(rt.store, rt.api, rt.logger, rt.cfg.EntryID, rt.cfg.API.ZipCode)
	case "store_maintenance":
		job = jobs.NewStoreMaintenanceJob(rt.store, rt.logger)
	default:
		return fmt.Errorf("unknown job %q", jobName)
	}

	fmt.Printf("Running job: %s\n", jobName)
	if err := job.Run(ctx); err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	fmt.Println("Job completed")
	return nil
}
