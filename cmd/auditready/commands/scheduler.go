package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/auditready/internal/scheduler"
	"github.com/wonny/auditready/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Scheduled job management",
	Long: `Starts the scheduler or manages its jobs.

Subcommands:
  start   - start the scheduler daemon
  list    - list registered jobs and their schedule
  run     - run one job now and wait for it

Example:
  go run ./cmd/auditready scheduler start
  go run ./cmd/auditready scheduler list
  go run ./cmd/auditready scheduler run readiness_sweep`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler",
		Long: `Starts the scheduler and schedules every registered job.

Registered jobs:
- readiness_sweep: AUDIT_SWEEP_SCHEDULE (default every day at 7 AM)
- health_check: every 5 minutes

Stop with Ctrl+C.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "List registered jobs",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run a job now",
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

// newScheduler registers the sweep and health check jobs over d
func newScheduler(d *deps) (*scheduler.Scheduler, error) {
	sched := scheduler.New(d.log)

	sweep := jobs.NewReadinessSweepJob(d.source, d.newSession, d.source, d.cfg.Audit.SweepSchedule, d.log)
	if err := sched.AddJob(sweep); err != nil {
		return nil, err
	}

	var cache jobs.Pinger
	if d.redis != nil && d.redis.Enabled() {
		cache = d.redis
	}
	if err := sched.AddJob(jobs.NewHealthCheckJob(d.db, cache, d.log)); err != nil {
		return nil, err
	}

	return sched, nil
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== AuditReady Scheduler ===")

	d, err := loadDeps(context.Background())
	if err != nil {
		return err
	}
	defer d.close()

	sched, err := newScheduler(d)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	printJobs(sched)
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	d, err := loadDeps(context.Background())
	if err != nil {
		return err
	}
	defer d.close()

	sched, err := newScheduler(d)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	printJobs(sched)
	return nil
}

func printJobs(sched *scheduler.Scheduler) {
	stats := sched.GetJobStats()

	fmt.Println("Registered jobs:")
	for _, name := range sched.GetAllJobs() {
		fmt.Printf("  - %-16s %s\n", name, stats[name].Schedule)
	}
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := loadDeps(ctx)
	if err != nil {
		return err
	}
	defer d.close()

	sched, err := newScheduler(d)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	// manual runs report the first failure instead of retrying
	sched.WithRetry(0, 0)

	fmt.Printf("Running job: %s\n", jobName)

	result, err := sched.RunJobSync(ctx, jobName)
	if err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	if !result.Success {
		PrintError(fmt.Sprintf("%s failed after %d attempt(s): %s", jobName, result.Attempts, result.Error))
		return fmt.Errorf("job %s failed", jobName)
	}

	PrintSuccess(fmt.Sprintf("%s completed in %s", jobName, result.Duration.Round(1e6)))
	return nil
}
