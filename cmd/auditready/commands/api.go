package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/auditready/internal/api"
	"github.com/wonny/auditready/internal/api/handlers"
	"github.com/wonny/auditready/internal/brain"
	"github.com/wonny/auditready/internal/contracts"
	"github.com/wonny/auditready/internal/scheduler"
	"github.com/wonny/auditready/pkg/logger"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long: `Starts the REST + WebSocket API over a single audit session.

Endpoints:
  GET  /health
  GET  /api/outlets                 - outlet directory
  POST /api/audits/{outletId}       - start an audit (supersedes any running one)
  POST /api/audits/refresh          - re-run the current outlet
  GET  /api/audits/state            - state machine status
  GET  /api/audits/log              - progress log
  GET  /api/audits/result           - published scorecard
  GET  /api/audits/stream           - progress log over WebSocket

Example:
  go run ./cmd/auditready api
  go run ./cmd/auditready api --port 8090 --with-scheduler`,
	RunE: runAPIServer,
}

var (
	apiPort       string
	withScheduler bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (default from PORT)")
	apiCmd.Flags().BoolVar(&withScheduler, "with-scheduler", false, "also run the scheduled jobs in-process")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== AuditReady API Server ===")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 1. Config, logger, snapshot source, engine, planner
	d, err := loadDeps(ctx)
	if err != nil {
		return err
	}
	defer d.close()

	if apiPort != "" {
		d.cfg.Port = apiPort
	}
	log := d.log

	// 2. Session
	session := d.newSession()
	unsubscribe := recordOnComplete(ctx, session, d.source, log)
	defer unsubscribe()

	// 3. Handlers, router, server
	auditHandler := handlers.NewAuditHandler(ctx, session, d.source, log)
	streamHandler := handlers.NewStreamHandler(session, log)
	router := api.NewRouter(auditHandler, streamHandler, log)
	server := api.New(d.cfg, log, router)

	// 4. Optional scheduler
	var sched *scheduler.Scheduler
	if withScheduler {
		sched, err = newScheduler(d)
		if err != nil {
			return fmt.Errorf("init scheduler: %w", err)
		}
		sched.Start()
	}

	// 5. Start server with graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	planner := "fallback"
	if d.planner != nil {
		planner = d.cfg.Gemini.Model
	}
	log.WithFields(map[string]interface{}{
		"port":    d.cfg.Port,
		"source":  d.cfg.Audit.SnapshotSource,
		"planner": planner,
	}).Info("API server started")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", d.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	log.Info("Shutting down server...")

	// in-flight runs observe the cancellation and end in ERROR
	cancel()
	if sched != nil {
		sched.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}

// recordOnComplete persists every published result of session via recorder
func recordOnComplete(ctx context.Context, session *brain.Session, recorder contracts.ScoreRecorder, log *logger.Logger) func() {
	return session.Subscribe(func(e brain.Entry) {
		if e.Phase != brain.StateCompleted {
			return
		}
		// listeners run under the session lock
		go recordGeneration(ctx, session, e.Generation, recorder, log)
	})
}

// recordGeneration records the result of run generation unless a newer run has replaced it.
// The newer run records its own result.
func recordGeneration(ctx context.Context, session *brain.Session, generation uint64, recorder contracts.ScoreRecorder, log *logger.Logger) {
	result, ok := session.ResultOf(generation)
	if !ok {
		log.WithField("generation", generation).Debug("Skipping superseded result")
		return
	}
	if err := recorder.RecordScore(ctx, result); err != nil {
		log.WithError(err).WithField("outlet_id", result.OutletID).Warn("Failed to record score")
	}
}
