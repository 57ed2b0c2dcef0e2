package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/auditready/pkg/database"
	"github.com/wonny/auditready/pkg/logger"
)

// Pinger is anything with a liveness check (redis.Client)
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheckJob checks database and cache connectivity and logs pool stats
type HealthCheckJob struct {
	db     *database.DB // nil when the demo source is used
	cache  Pinger       // optional
	logger *logger.Logger
}

// NewHealthCheckJob creates a new health check job
func NewHealthCheckJob(db *database.DB, cache Pinger, log *logger.Logger) *HealthCheckJob {
	return &HealthCheckJob{
		db:     db,
		cache:  cache,
		logger: log,
	}
}

// Name returns the job name
func (j *HealthCheckJob) Name() string {
	return "health_check"
}

// Schedule returns the cron schedule (every 5 minutes)
func (j *HealthCheckJob) Schedule() string {
	return "0 */5 * * * *"
}

// Run executes the health check
func (j *HealthCheckJob) Run(ctx context.Context) error {
	var errs []error

	if j.db != nil {
		status, err := j.db.HealthCheck(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		} else {
			j.logger.WithFields(map[string]interface{}{
				"total_conns":    status.Stats.TotalConns,
				"idle_conns":     status.Stats.IdleConns,
				"acquired_conns": status.Stats.AcquiredConns,
			}).Debug("Database healthy")
		}
	}

	if j.cache != nil {
		if err := j.cache.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}

	return errors.Join(errs...)
}
