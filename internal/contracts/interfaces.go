package contracts

import "context"

// SnapshotProvider supplies the raw compliance records of an outlet
// ⭐ SSOT: 입력 스냅샷 공급자 인터페이스
type SnapshotProvider interface {
	FetchSnapshot(ctx context.Context, outletID int64) (*Snapshot, error)
}

// OutletDirectory lists the outlets that can be audited
type OutletDirectory interface {
	ListOutlets(ctx context.Context) ([]Outlet, error)
	GetOutlet(ctx context.Context, id int64) (*Outlet, error)
}

// PlanGenerator produces an improvement plan for a result that missed the goal
// ⭐ SSOT: 개선 계획 생성기 인터페이스
type PlanGenerator interface {
	GeneratePlan(ctx context.Context, result *OutletScoreResult) (*ImprovementPlan, error)
}

// ScoreRecorder persists the latest score of an outlet so the directory can show it
type ScoreRecorder interface {
	RecordScore(ctx context.Context, result *OutletScoreResult) error
}
