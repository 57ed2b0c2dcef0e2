package contracts

import (
	"errors"
	"time"
)

// GoalThreshold is the readiness score an outlet must reach
const GoalThreshold = 85.0

// ReadinessStatus is the traffic-light classification of an overall score
type ReadinessStatus string

const (
	StatusGreen ReadinessStatus = "GREEN"
	StatusAmber ReadinessStatus = "AMBER"
	StatusRed   ReadinessStatus = "RED"
)

// Outcome distinguishes results that met the goal from results that need a plan
type Outcome string

const (
	OutcomeGoalMet Outcome = "GOAL_MET"
	OutcomeNotMet  Outcome = "NOT_MET"
)

// ErrInconsistentResult is returned when the plan does not agree with GoalMet
var ErrInconsistentResult = errors.New("result plan does not match goal status")

// ErrPlanOnGoalMet is returned when a plan is attached to a result that met the goal
var ErrPlanOnGoalMet = errors.New("improvement plan not allowed on a goal-met result")

// ComponentScore is the common part of every component
type ComponentScore struct {
	Name         string  `json:"name"`
	Score        float64 `json:"score"`  // 0 ~ 100, 2dp
	Weight       float64 `json:"weight"` // (0, 1]
	Contribution float64 `json:"contribution"`
}

// MaterialStats are the counts behind the material component
type MaterialStats struct {
	Total        int `json:"total"`
	Compliant    int `json:"compliant"`
	Expired      int `json:"expired"`
	NonCompliant int `json:"non_compliant"`
}

// MenuStats are the counts behind the menu component
type MenuStats struct {
	Total        int `json:"total"`
	Compliant    int `json:"compliant"`
	Partial      int `json:"partial"`
	NonCompliant int `json:"non_compliant"`
}

// DocumentationStats keeps the raw category list
type DocumentationStats struct {
	Categories []DocumentCategory `json:"categories"`
}

// AlertStats are the counts behind the alert component
type AlertStats struct {
	Total  int `json:"total"`
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// MaterialComponent is the material compliance score with its details
type MaterialComponent struct {
	ComponentScore
	Details MaterialStats `json:"details"`
}

// MenuComponent is the menu compliance score with its details
type MenuComponent struct {
	ComponentScore
	Details MenuStats `json:"details"`
}

// DocumentationComponent is the documentation completeness score with its details
type DocumentationComponent struct {
	ComponentScore
	Details DocumentationStats `json:"details"`
}

// AlertComponent is the alert resolution score with its details
type AlertComponent struct {
	ComponentScore
	Details AlertStats `json:"details"`
}

// Components groups the four weighted sub-scores
type Components struct {
	Material      MaterialComponent      `json:"material"`
	Menu          MenuComponent          `json:"menu"`
	Documentation DocumentationComponent `json:"documentation"`
	Alerts        AlertComponent         `json:"alerts"`
}

// List returns the component scores in weighting order
func (c Components) List() []ComponentScore {
	return []ComponentScore{
		c.Material.ComponentScore,
		c.Menu.ComponentScore,
		c.Documentation.ComponentScore,
		c.Alerts.ComponentScore,
	}
}

// ImprovementPlan is the plan generator's answer for a result that missed the goal
type ImprovementPlan struct {
	Gaps           []string `json:"gaps_identified"`
	Plan           string   `json:"improvement_plan"`
	NextReviewDate string   `json:"next_review_date"` // YYYY-MM-DD
	Degraded       bool     `json:"degraded,omitempty"`
}

// OutletScoreResult is the aggregate artifact of one audit run
// ⭐ SSOT: 점수 부분은 생성 후 불변, Plan만 한 번 부착 가능
type OutletScoreResult struct {
	OutletID     int64           `json:"outlet_id"`
	OutletName   string          `json:"outlet_name"`
	OverallScore float64         `json:"overall_score"`
	Status       ReadinessStatus `json:"status"`
	GoalMet      bool            `json:"goal_met"`
	ScoredAt     time.Time       `json:"scored_at"`
	Components   Components      `json:"components"`

	// Plan is nil iff GoalMet
	Plan *ImprovementPlan `json:"plan,omitempty"`
}

// Outcome returns which variant the result is
func (r *OutletScoreResult) Outcome() Outcome {
	if r.GoalMet {
		return OutcomeGoalMet
	}
	return OutcomeNotMet
}

// AttachPlan merges the plan generator's answer into a result that missed the goal
func (r *OutletScoreResult) AttachPlan(plan *ImprovementPlan) error {
	if r.GoalMet {
		return ErrPlanOnGoalMet
	}
	if plan == nil {
		return errors.New("nil improvement plan")
	}

	cp := *plan
	cp.Gaps = append([]string(nil), plan.Gaps...)
	r.Plan = &cp
	return nil
}

// Consistent reports whether the plan field agrees with GoalMet
func (r *OutletScoreResult) Consistent() bool {
	return r.GoalMet == (r.Plan == nil)
}

// Clone returns a deep copy so published results cannot be mutated by callers
func (r *OutletScoreResult) Clone() *OutletScoreResult {
	if r == nil {
		return nil
	}

	cp := *r
	cp.Components.Documentation.Details.Categories = append(
		[]DocumentCategory(nil), r.Components.Documentation.Details.Categories...)
	if r.Plan != nil {
		plan := *r.Plan
		plan.Gaps = append([]string(nil), r.Plan.Gaps...)
		cp.Plan = &plan
	}
	return &cp
}
