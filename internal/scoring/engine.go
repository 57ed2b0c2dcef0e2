package scoring

import (
	"fmt"
	"math"
	"time"

	"github.com/wonny/auditready/internal/contracts"
	"github.com/wonny/auditready/pkg/logger"
)

// Component names as shown to users
const (
	NameMaterial      = "Material Compliance"
	NameMenu          = "Menu Compliance"
	NameDocumentation = "Documentation"
	NameAlerts        = "Alert Resolution"
)

// Engine maps a snapshot to a score result. Apart from reading the clock it has no side effects.
// ⭐ SSOT: 감사 준비도 점수 계산은 여기서만
type Engine struct {
	config     Config
	configHash string
	clock      func() time.Time
	logger     *logger.Logger
}

// NewEngine creates a scoring engine; cfg must already be valid
func NewEngine(cfg Config, log *logger.Logger) *Engine {
	if log == nil {
		log = logger.Nop()
	}

	hash, err := Hash(cfg)
	if err != nil {
		log.WithError(err).Warn("Failed to hash scoring config")
	}

	return &Engine{
		config:     cfg,
		configHash: hash,
		clock:      time.Now,
		logger:     log,
	}
}

// WithClock overrides the clock for testing
func (e *Engine) WithClock(clock func() time.Time) *Engine {
	e.clock = clock
	return e
}

// Config returns the rules the engine scores with
func (e *Engine) Config() Config {
	return e.config
}

// ConfigHash identifies the rules in logs so two scores can be traced to the same config
func (e *Engine) ConfigHash() string {
	return e.configHash
}

// Score computes the four component scores, the weighted overall score and the status.
// Empty categories score 0. A malformed snapshot returns a ValidationError.
func (e *Engine) Score(outlet contracts.Outlet, snapshot *contracts.Snapshot) (*contracts.OutletScoreResult, error) {
	if err := ValidateSnapshot(snapshot); err != nil {
		return nil, err
	}

	w := e.config.Weights

	matScore, matStats := e.materialScore(snapshot.Materials)
	menuScore, menuStats := menuScore(snapshot.MenuItems)
	docScore := documentationScore(snapshot.DocumentCategories)
	alertScore, alertStats := e.alertScore(snapshot.Alerts)

	overall := matScore*w.Material + menuScore*w.Menu + docScore*w.Documentation + alertScore*w.Alerts
	overall = Round2(clamp(overall, 0, 100))

	status := Classify(overall, e.config.Thresholds)

	result := &contracts.OutletScoreResult{
		OutletID:     outlet.ID,
		OutletName:   outlet.Name,
		OverallScore: overall,
		Status:       status,
		GoalMet:      overall >= e.config.Thresholds.Green,
		ScoredAt:     e.clock(),
		Components: contracts.Components{
			Material: contracts.MaterialComponent{
				ComponentScore: component(NameMaterial, matScore, w.Material),
				Details:        matStats,
			},
			Menu: contracts.MenuComponent{
				ComponentScore: component(NameMenu, menuScore, w.Menu),
				Details:        menuStats,
			},
			Documentation: contracts.DocumentationComponent{
				ComponentScore: component(NameDocumentation, docScore, w.Documentation),
				Details: contracts.DocumentationStats{
					Categories: append([]contracts.DocumentCategory(nil), snapshot.DocumentCategories...),
				},
			},
			Alerts: contracts.AlertComponent{
				ComponentScore: component(NameAlerts, alertScore, w.Alerts),
				Details:        alertStats,
			},
		},
	}

	e.logger.WithFields(map[string]interface{}{
		"outlet_id":     outlet.ID,
		"material":      result.Components.Material.Score,
		"menu":          result.Components.Menu.Score,
		"documentation": result.Components.Documentation.Score,
		"alerts":        result.Components.Alerts.Score,
		"overall":       overall,
		"status":        status,
	}).Debug("Calculated readiness score")

	return result, nil
}

// materialScore: base = 100*compliant/total, minus per-record penalties, floored at 0
func (e *Engine) materialScore(materials []contracts.RawMaterial) (float64, contracts.MaterialStats) {
	stats := contracts.MaterialStats{Total: len(materials)}
	for _, m := range materials {
		switch m.Status {
		case contracts.MaterialSafe, contracts.MaterialWarning:
			stats.Compliant++
		case contracts.MaterialExpired:
			stats.Expired++
		case contracts.MaterialNonCompliant:
			stats.NonCompliant++
		}
	}

	base := ratio(stats.Compliant, stats.Total)
	penalty := float64(stats.Expired)*e.config.Penalties.ExpiredMaterial +
		float64(stats.NonCompliant)*e.config.Penalties.NonCompliantMaterial

	return math.Max(0, base-penalty), stats
}

// menuScore is strict: only COMPLIANT items count
func menuScore(items []contracts.MenuItem) (float64, contracts.MenuStats) {
	stats := contracts.MenuStats{Total: len(items)}
	for _, item := range items {
		switch item.Status {
		case contracts.MenuCompliant:
			stats.Compliant++
		case contracts.MenuPartiallyCompliant:
			stats.Partial++
		case contracts.MenuNonCompliant:
			stats.NonCompliant++
		}
	}

	return ratio(stats.Compliant, stats.Total), stats
}

// documentationScore averages per-category completion, each capped at 100
func documentationScore(categories []contracts.DocumentCategory) float64 {
	total := 0.0
	for _, c := range categories {
		total += CategoryCompletion(c)
	}
	return total / float64(max(1, len(categories)))
}

// CategoryCompletion is 100*approved/required, 0 when nothing is required, capped at 100
func CategoryCompletion(c contracts.DocumentCategory) float64 {
	return math.Min(100, ratio(c.Approved, c.Required))
}

// alertScore starts at 100 and subtracts severity-weighted penalties
func (e *Engine) alertScore(alerts []contracts.Alert) (float64, contracts.AlertStats) {
	stats := contracts.AlertStats{Total: len(alerts)}
	for _, a := range alerts {
		switch a.Severity {
		case contracts.SeverityHigh:
			stats.High++
		case contracts.SeverityMedium:
			stats.Medium++
		case contracts.SeverityLow:
			stats.Low++
		}
	}

	p := e.config.Penalties
	penalty := float64(stats.High)*p.HighAlert + float64(stats.Medium)*p.MediumAlert + float64(stats.Low)*p.LowAlert

	return math.Max(0, 100-penalty), stats
}

// Classify maps a score to its status. Bounds are inclusive from below.
func Classify(score float64, t Thresholds) contracts.ReadinessStatus {
	switch {
	case score >= t.Green:
		return contracts.StatusGreen
	case score >= t.Amber:
		return contracts.StatusAmber
	default:
		return contracts.StatusRed
	}
}

// Round2 rounds half away from zero to two decimals
func Round2(v float64) float64 {
	if v < 0 {
		return -math.Floor(-v*100+0.5) / 100
	}
	return math.Floor(v*100+0.5) / 100
}

// ValidateSnapshot rejects snapshots the engine cannot score meaningfully
func ValidateSnapshot(s *contracts.Snapshot) error {
	if s == nil {
		return ValidationError{"snapshot", "is nil"}
	}

	for i, m := range s.Materials {
		if !m.Status.Valid() {
			return ValidationError{fmt.Sprintf("materials[%d].status", i), fmt.Sprintf("unknown status %q", m.Status)}
		}
	}
	for i, item := range s.MenuItems {
		if !item.Status.Valid() {
			return ValidationError{fmt.Sprintf("menu_items[%d].status", i), fmt.Sprintf("unknown status %q", item.Status)}
		}
	}
	for i, c := range s.DocumentCategories {
		if c.Required < 0 {
			return ValidationError{fmt.Sprintf("document_categories[%d].required", i), "must be >= 0"}
		}
		if c.Approved < 0 {
			return ValidationError{fmt.Sprintf("document_categories[%d].approved", i), "must be >= 0"}
		}
	}
	for i, a := range s.Alerts {
		if !a.Severity.Valid() {
			return ValidationError{fmt.Sprintf("alerts[%d].severity", i), fmt.Sprintf("unknown severity %q", a.Severity)}
		}
	}

	return nil
}

func component(name string, score, weight float64) contracts.ComponentScore {
	return contracts.ComponentScore{
		Name:         name,
		Score:        Round2(score),
		Weight:       weight,
		Contribution: Round2(score * weight),
	}
}

// ratio returns 100*num/den, or 0 when den is 0
func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den) * 100
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
