package brain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrTimeout marks a suspending call (snapshot fetch, plan generation) that hit its deadline
	ErrTimeout = errors.New("deadline exceeded")

	// ErrStaleRun is returned by a run that was superseded by a newer one.
	// Its late results are discarded.
	ErrStaleRun = errors.New("audit run superseded by a newer run")

	// ErrNoOutlet is returned by Refresh before any outlet was audited
	ErrNoOutlet = errors.New("no outlet selected")
)

// SnapshotFetchError: the provider could not supply data. Fatal to the run.
type SnapshotFetchError struct {
	OutletID int64
	Err      error
}

func (e *SnapshotFetchError) Error() string {
	return fmt.Sprintf("snapshot fetch failed for outlet %d: %v", e.OutletID, e.Err)
}

func (e *SnapshotFetchError) Unwrap() error { return e.Err }

// ScoringError: the snapshot could not be scored. Fatal to the run.
type ScoringError struct {
	OutletID int64
	Err      error
}

func (e *ScoringError) Error() string {
	return fmt.Sprintf("scoring failed for outlet %d: %v", e.OutletID, e.Err)
}

func (e *ScoringError) Unwrap() error { return e.Err }

// PlanGenerationError: the plan generator failed. Recovered with a fallback plan.
type PlanGenerationError struct {
	OutletID int64
	Err      error
}

func (e *PlanGenerationError) Error() string {
	return fmt.Sprintf("plan generation failed for outlet %d: %v", e.OutletID, e.Err)
}

func (e *PlanGenerationError) Unwrap() error { return e.Err }

// withTimeout tags err with ErrTimeout when callCtx (not its parent) hit the deadline
func withTimeout(err error, callCtx, parent context.Context, d time.Duration) error {
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) && parent.Err() == nil {
		return fmt.Errorf("%w after %s: %w", ErrTimeout, d, err)
	}
	return err
}
