package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/wonny/auditready/internal/brain"
	"github.com/wonny/auditready/internal/contracts"
	"github.com/wonny/auditready/pkg/logger"
)

// SweepOutcome is the audit result of one outlet in a sweep
type SweepOutcome struct {
	OutletID     int64                     `json:"outlet_id"`
	OutletName   string                    `json:"outlet_name"`
	OverallScore float64                   `json:"overall_score,omitempty"`
	Status       contracts.ReadinessStatus `json:"status,omitempty"`
	PlanProduced bool                      `json:"plan_produced"`
	Degraded     bool                      `json:"degraded,omitempty"`
	Error        string                    `json:"error,omitempty"`
}

// SweepReport summarises one sweep
type SweepReport struct {
	Outcomes []SweepOutcome `json:"outcomes"`
	Green    int            `json:"green"`
	Amber    int            `json:"amber"`
	Red      int            `json:"red"`
	Failed   int            `json:"failed"`
}

// ReadinessSweepJob audits every outlet in the directory, one fresh session each
// ⭐ SSOT: 정기 감사 스윕 스케줄은 이 Job에서만
type ReadinessSweepJob struct {
	directory  contracts.OutletDirectory
	newSession func() *brain.Session
	recorder   contracts.ScoreRecorder // optional
	schedule   string
	logger     *logger.Logger

	mu   sync.Mutex
	last *SweepReport
}

// NewReadinessSweepJob creates a new sweep job
func NewReadinessSweepJob(
	directory contracts.OutletDirectory,
	newSession func() *brain.Session,
	recorder contracts.ScoreRecorder,
	schedule string,
	log *logger.Logger,
) *ReadinessSweepJob {
	if schedule == "" {
		schedule = "0 0 7 * * *"
	}
	return &ReadinessSweepJob{
		directory:  directory,
		newSession: newSession,
		recorder:   recorder,
		schedule:   schedule,
		logger:     log,
	}
}

// Name returns the job name
func (j *ReadinessSweepJob) Name() string {
	return "readiness_sweep"
}

// Schedule returns the cron schedule (default 7 AM daily)
func (j *ReadinessSweepJob) Schedule() string {
	return j.schedule
}

// MaxRetries disables scheduler retries: failed outlets are picked up by the next tick
func (j *ReadinessSweepJob) MaxRetries() int {
	return 0
}

// Run audits all outlets. A failed outlet does not stop the sweep;
// all failures are returned joined.
func (j *ReadinessSweepJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled readiness sweep")

	outlets, err := j.directory.ListOutlets(ctx)
	if err != nil {
		return fmt.Errorf("list outlets: %w", err)
	}

	report := &SweepReport{Outcomes: make([]SweepOutcome, 0, len(outlets))}
	var errs []error

	for _, outlet := range outlets {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}

		outcome := SweepOutcome{OutletID: outlet.ID, OutletName: outlet.Name}
		log := j.logger.WithField("outlet_id", outlet.ID)

		result, err := j.newSession().Run(ctx, outlet)
		if err != nil {
			outcome.Error = err.Error()
			report.Failed++
			errs = append(errs, fmt.Errorf("outlet %d: %w", outlet.ID, err))
			log.WithError(err).Error("Sweep audit failed")
			report.Outcomes = append(report.Outcomes, outcome)
			continue
		}

		outcome.OverallScore = result.OverallScore
		outcome.Status = result.Status
		outcome.PlanProduced = result.Plan != nil
		outcome.Degraded = result.Plan != nil && result.Plan.Degraded

		switch result.Status {
		case contracts.StatusGreen:
			report.Green++
		case contracts.StatusAmber:
			report.Amber++
		default:
			report.Red++
		}

		if j.recorder != nil {
			if err := j.recorder.RecordScore(ctx, result); err != nil {
				log.WithError(err).Warn("Failed to record score")
			}
		}

		log.WithFields(map[string]interface{}{
			"overall":       result.OverallScore,
			"status":        result.Status,
			"plan_produced": outcome.PlanProduced,
		}).Info("Sweep audit completed")

		report.Outcomes = append(report.Outcomes, outcome)
	}

	j.mu.Lock()
	j.last = report
	j.mu.Unlock()

	j.logger.WithFields(map[string]interface{}{
		"outlets": len(report.Outcomes),
		"green":   report.Green,
		"amber":   report.Amber,
		"red":     report.Red,
		"failed":  report.Failed,
	}).Info("Readiness sweep completed")

	return errors.Join(errs...)
}

// LastReport returns the report of the most recent sweep, nil before the first
func (j *ReadinessSweepJob) LastReport() *SweepReport {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.last
}
