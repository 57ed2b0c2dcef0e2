package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/auditready/internal/brain"
	"github.com/wonny/auditready/internal/contracts"
	"github.com/wonny/auditready/internal/scheduler"
	"github.com/wonny/auditready/internal/scoring"
	"github.com/wonny/auditready/internal/snapshot"
	"github.com/wonny/auditready/pkg/logger"
)

// flakyDemo fails snapshot fetches for the outlets in broken and counts every fetch
type flakyDemo struct {
	*snapshot.Demo
	broken map[int64]bool

	mu      sync.Mutex
	fetches map[int64]int
}

func (d *flakyDemo) FetchSnapshot(ctx context.Context, id int64) (*contracts.Snapshot, error) {
	d.mu.Lock()
	if d.fetches == nil {
		d.fetches = make(map[int64]int)
	}
	d.fetches[id]++
	d.mu.Unlock()

	if d.broken[id] {
		return nil, errors.New("connection refused")
	}
	return d.Demo.FetchSnapshot(ctx, id)
}

func newSweep(src *flakyDemo) *ReadinessSweepJob {
	engine := scoring.NewEngine(scoring.DefaultConfig(), logger.Nop())
	newSession := func() *brain.Session {
		return brain.NewSession(src, engine, nil, brain.DefaultOptions(), logger.Nop())
	}
	return NewReadinessSweepJob(src, newSession, src.Demo, "", logger.Nop())
}

func demoOutlets() []contracts.Outlet {
	all := snapshot.DefaultOutlets()
	return all[:2] // Kangar (GREEN), Penang (RED)
}

func TestReadinessSweepJob_Run(t *testing.T) {
	src := &flakyDemo{Demo: snapshot.NewDemo(demoOutlets()...)}
	job := newSweep(src)

	assert.Equal(t, "readiness_sweep", job.Name())
	assert.Equal(t, "0 0 7 * * *", job.Schedule())
	assert.Nil(t, job.LastReport())

	require.NoError(t, job.Run(context.Background()))

	report := job.LastReport()
	require.NotNil(t, report)
	require.Len(t, report.Outcomes, 2)
	assert.Equal(t, 1, report.Green)
	assert.Equal(t, 1, report.Red)
	assert.Zero(t, report.Failed)

	kangar, penang := report.Outcomes[0], report.Outcomes[1]
	assert.Equal(t, contracts.StatusGreen, kangar.Status)
	assert.False(t, kangar.PlanProduced)

	assert.Equal(t, contracts.StatusRed, penang.Status)
	assert.InDelta(t, 66.6, penang.OverallScore, 0.001)
	assert.True(t, penang.PlanProduced)
	assert.True(t, penang.Degraded) // no plan generator configured

	// scores were recorded back into the directory
	o, err := src.GetOutlet(context.Background(), 2)
	require.NoError(t, err)
	assert.InDelta(t, 66.6, o.LastScore, 0.001)
	assert.Equal(t, contracts.StatusRed, o.LastStatus)
}

func TestReadinessSweepJob_PartialFailure(t *testing.T) {
	src := &flakyDemo{
		Demo:   snapshot.NewDemo(demoOutlets()...),
		broken: map[int64]bool{1: true},
	}
	job := newSweep(src)

	err := job.Run(context.Background())
	require.Error(t, err)

	var fetchErr *brain.SnapshotFetchError
	assert.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, err.Error(), "outlet 1")

	report := job.LastReport()
	require.NotNil(t, report)
	require.Len(t, report.Outcomes, 2)
	assert.Equal(t, 1, report.Failed)
	assert.NotEmpty(t, report.Outcomes[0].Error)
	assert.Equal(t, contracts.StatusRed, report.Outcomes[1].Status)
}

func TestReadinessSweepJob_NotRetriedByScheduler(t *testing.T) {
	src := &flakyDemo{
		Demo:   snapshot.NewDemo(demoOutlets()...),
		broken: map[int64]bool{1: true},
	}
	job := newSweep(src)

	sched := scheduler.New(logger.Nop()).WithRetry(3, time.Millisecond)
	require.NoError(t, sched.AddJob(job))

	res, err := sched.RunJobSync(context.Background(), job.Name())
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, 1, res.Attempts)

	// each outlet audited exactly once for the tick
	assert.Equal(t, map[int64]int{1: 1, 2: 1}, src.fetches)
}

func TestReadinessSweepJob_CustomSchedule(t *testing.T) {
	job := NewReadinessSweepJob(nil, nil, nil, "@every 1h", logger.Nop())
	assert.Equal(t, "@every 1h", job.Schedule())
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func TestHealthCheckJob_Run(t *testing.T) {
	tests := []struct {
		name    string
		cache   Pinger
		wantErr bool
	}{
		{"no dependencies", nil, false},
		{"cache healthy", fakePinger{}, false},
		{"cache down", fakePinger{err: errors.New("dial tcp: refused")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := NewHealthCheckJob(nil, tt.cache, logger.Nop())
			assert.Equal(t, "health_check", job.Name())

			err := job.Run(context.Background())
			if tt.wantErr {
				assert.ErrorContains(t, err, "redis")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
