package scoring

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/auditready/internal/contracts"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func newTestEngine() *Engine {
	return NewEngine(DefaultConfig(), nil).WithClock(func() time.Time { return fixedNow })
}

func materials(counts map[contracts.MaterialStatus]int) []contracts.RawMaterial {
	var out []contracts.RawMaterial
	id := int64(1)
	for _, s := range []contracts.MaterialStatus{
		contracts.MaterialSafe, contracts.MaterialWarning, contracts.MaterialExpired, contracts.MaterialNonCompliant,
	} {
		for i := 0; i < counts[s]; i++ {
			out = append(out, contracts.RawMaterial{ID: id, Name: "m", Status: s})
			id++
		}
	}
	return out
}

func menu(counts map[contracts.MenuStatus]int) []contracts.MenuItem {
	var out []contracts.MenuItem
	id := int64(1)
	for _, s := range []contracts.MenuStatus{
		contracts.MenuCompliant, contracts.MenuPartiallyCompliant, contracts.MenuNonCompliant,
	} {
		for i := 0; i < counts[s]; i++ {
			out = append(out, contracts.MenuItem{ID: id, Name: "dish", IsActive: true, Status: s})
			id++
		}
	}
	return out
}

func alerts(high, medium, low int) []contracts.Alert {
	var out []contracts.Alert
	add := func(n int, sev contracts.AlertSeverity) {
		for i := 0; i < n; i++ {
			out = append(out, contracts.Alert{ID: int64(len(out) + 1), Status: "ACTIVE", Severity: sev})
		}
	}
	add(high, contracts.SeverityHigh)
	add(medium, contracts.SeverityMedium)
	add(low, contracts.SeverityLow)
	return out
}

// material 60, menu 90, documentation 94, alerts 88
func scenarioSnapshot() *contracts.Snapshot {
	return &contracts.Snapshot{
		OutletID: 3,
		Materials: materials(map[contracts.MaterialStatus]int{
			contracts.MaterialSafe:         30,
			contracts.MaterialWarning:      6,
			contracts.MaterialExpired:      2,
			contracts.MaterialNonCompliant: 2,
		}),
		MenuItems: menu(map[contracts.MenuStatus]int{
			contracts.MenuCompliant:          18,
			contracts.MenuPartiallyCompliant: 1,
			contracts.MenuNonCompliant:       1,
		}),
		DocumentCategories: []contracts.DocumentCategory{
			{ID: "kitchen", Name: "Kitchen Hygiene", Required: 8, Approved: 8},
			{ID: "training", Name: "Worker Training", Required: 5, Approved: 4},
			{ID: "supplier", Name: "Supplier Management", Required: 10, Approved: 9},
			{ID: "manual", Name: "HAS Manual", Required: 4, Approved: 4},
			{ID: "pest", Name: "Pest Control", Required: 3, Approved: 3},
		},
		Alerts: alerts(1, 2, 3),
	}
}

var scenarioOutlet = contracts.Outlet{ID: 3, Name: "HSM Seremban", Location: "Negeri Sembilan"}

func TestScoreScenario(t *testing.T) {
	r, err := newTestEngine().Score(scenarioOutlet, scenarioSnapshot())
	require.NoError(t, err)

	c := r.Components
	assert.Equal(t, 60.0, c.Material.Score)
	assert.Equal(t, 90.0, c.Menu.Score)
	assert.Equal(t, 94.0, c.Documentation.Score)
	assert.Equal(t, 88.0, c.Alerts.Score)

	assert.Equal(t, 18.0, c.Material.Contribution)
	assert.Equal(t, 22.5, c.Menu.Contribution)
	assert.Equal(t, 23.5, c.Documentation.Contribution)
	assert.Equal(t, 17.6, c.Alerts.Contribution)

	assert.Equal(t, 81.6, r.OverallScore)
	assert.Equal(t, contracts.StatusAmber, r.Status)
	assert.False(t, r.GoalMet)
	assert.Nil(t, r.Plan)
	assert.Equal(t, fixedNow, r.ScoredAt)
	assert.Equal(t, int64(3), r.OutletID)
	assert.Equal(t, "HSM Seremban", r.OutletName)

	assert.Equal(t, contracts.MaterialStats{Total: 40, Compliant: 36, Expired: 2, NonCompliant: 2}, c.Material.Details)
	assert.Equal(t, contracts.MenuStats{Total: 20, Compliant: 18, Partial: 1, NonCompliant: 1}, c.Menu.Details)
	assert.Equal(t, contracts.AlertStats{Total: 6, High: 1, Medium: 2, Low: 3}, c.Alerts.Details)
	assert.Len(t, c.Documentation.Details.Categories, 5)

	// overall agrees with the rounded contributions within rounding tolerance
	sum := 0.0
	for _, cs := range c.List() {
		sum += cs.Score * cs.Weight
	}
	assert.InDelta(t, sum, r.OverallScore, 0.01)

	assert.Equal(t, NameMaterial, c.Material.Name)
	assert.Equal(t, 0.30, c.Material.Weight)
}

func TestScoreIsDeterministic(t *testing.T) {
	e := newTestEngine()
	snap := scenarioSnapshot()

	first, err := e.Score(scenarioOutlet, snap)
	require.NoError(t, err)
	second, err := e.Score(scenarioOutlet, snap)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestScoreEmptySnapshot(t *testing.T) {
	r, err := newTestEngine().Score(scenarioOutlet, &contracts.Snapshot{OutletID: 3})
	require.NoError(t, err)

	// Empty categories score 0, no alerts scores 100
	assert.Equal(t, 0.0, r.Components.Material.Score)
	assert.Equal(t, 0.0, r.Components.Menu.Score)
	assert.Equal(t, 0.0, r.Components.Documentation.Score)
	assert.Equal(t, 100.0, r.Components.Alerts.Score)
	assert.Equal(t, 20.0, r.OverallScore)
	assert.Equal(t, contracts.StatusRed, r.Status)
}

func TestScorePerfectOutlet(t *testing.T) {
	snap := &contracts.Snapshot{
		Materials: materials(map[contracts.MaterialStatus]int{contracts.MaterialSafe: 3, contracts.MaterialWarning: 1}),
		MenuItems: menu(map[contracts.MenuStatus]int{contracts.MenuCompliant: 4}),
		DocumentCategories: []contracts.DocumentCategory{
			{ID: "kitchen", Required: 8, Approved: 8},
		},
	}

	r, err := newTestEngine().Score(scenarioOutlet, snap)
	require.NoError(t, err)

	assert.Equal(t, 100.0, r.OverallScore)
	assert.Equal(t, contracts.StatusGreen, r.Status)
	assert.True(t, r.GoalMet)
	assert.Equal(t, contracts.OutcomeGoalMet, r.Outcome())
}

func TestMaterialPenaltyFloorsAtZero(t *testing.T) {
	snap := &contracts.Snapshot{
		Materials: materials(map[contracts.MaterialStatus]int{
			contracts.MaterialSafe:         5,
			contracts.MaterialExpired:      3,
			contracts.MaterialNonCompliant: 4,
		}),
	}

	r, err := newTestEngine().Score(scenarioOutlet, snap)
	require.NoError(t, err)

	assert.Equal(t, 0.0, r.Components.Material.Score)
	assert.Equal(t, contracts.MaterialStats{Total: 12, Compliant: 5, Expired: 3, NonCompliant: 4}, r.Components.Material.Details)
}

func TestMaterialPenalty(t *testing.T) {
	tests := []struct {
		name     string
		counts   map[contracts.MaterialStatus]int
		expected float64
	}{
		{"all safe", map[contracts.MaterialStatus]int{contracts.MaterialSafe: 4}, 100},
		{"warning counts as compliant", map[contracts.MaterialStatus]int{contracts.MaterialWarning: 2}, 100},
		{"one expired", map[contracts.MaterialStatus]int{contracts.MaterialSafe: 9, contracts.MaterialExpired: 1}, 85},
		{"one non-compliant", map[contracts.MaterialStatus]int{contracts.MaterialSafe: 9, contracts.MaterialNonCompliant: 1}, 80},
		{"thirds", map[contracts.MaterialStatus]int{contracts.MaterialSafe: 2, contracts.MaterialExpired: 1}, 61.67},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := newTestEngine().Score(scenarioOutlet, &contracts.Snapshot{Materials: materials(tt.counts)})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, r.Components.Material.Score)
		})
	}
}

func TestMenuIsStrict(t *testing.T) {
	snap := &contracts.Snapshot{
		MenuItems: menu(map[contracts.MenuStatus]int{
			contracts.MenuCompliant:          1,
			contracts.MenuPartiallyCompliant: 2,
			contracts.MenuNonCompliant:       1,
		}),
	}

	r, err := newTestEngine().Score(scenarioOutlet, snap)
	require.NoError(t, err)

	assert.Equal(t, 25.0, r.Components.Menu.Score)
}

func TestDocumentationCompletion(t *testing.T) {
	tests := []struct {
		name       string
		categories []contracts.DocumentCategory
		expected   float64
	}{
		{"no categories", nil, 0},
		{"zero required counts as 0", []contracts.DocumentCategory{
			{ID: "a", Required: 0, Approved: 0},
			{ID: "b", Required: 4, Approved: 4},
		}, 50},
		{"over-approved capped at 100", []contracts.DocumentCategory{
			{ID: "a", Required: 2, Approved: 5},
			{ID: "b", Required: 4, Approved: 2},
		}, 75},
		{"partial", []contracts.DocumentCategory{
			{ID: "a", Required: 3, Approved: 1},
		}, 33.33},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := newTestEngine().Score(scenarioOutlet, &contracts.Snapshot{DocumentCategories: tt.categories})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, r.Components.Documentation.Score)
		})
	}
}

func TestAlertPenalty(t *testing.T) {
	tests := []struct {
		name              string
		high, medium, low int
		expected          float64
	}{
		{"none", 0, 0, 0, 100},
		{"mixed", 1, 2, 3, 88},
		{"floors at zero", 25, 0, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := newTestEngine().Score(scenarioOutlet, &contracts.Snapshot{Alerts: alerts(tt.high, tt.medium, tt.low)})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, r.Components.Alerts.Score)
		})
	}
}

func TestClassifyBoundaries(t *testing.T) {
	th := DefaultConfig().Thresholds

	tests := []struct {
		score    float64
		expected contracts.ReadinessStatus
	}{
		{100, contracts.StatusGreen},
		{85.00, contracts.StatusGreen},
		{84.99, contracts.StatusAmber},
		{70.00, contracts.StatusAmber},
		{69.99, contracts.StatusRed},
		{0, contracts.StatusRed},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, Classify(tt.score, th), "score %.2f", tt.score)
	}
}

func TestScoreBoundariesUseRoundedOverall(t *testing.T) {
	safe := materials(map[contracts.MaterialStatus]int{contracts.MaterialSafe: 1})
	compliant := menu(map[contracts.MenuStatus]int{contracts.MenuCompliant: 1})

	// material, menu and alerts at 100 contribute 75; documentation fills the rest
	withDocs := func(required, approved int) *contracts.Snapshot {
		return &contracts.Snapshot{
			Materials: safe,
			MenuItems: compliant,
			DocumentCategories: []contracts.DocumentCategory{
				{ID: "kitchen", Required: required, Approved: approved},
			},
		}
	}

	tests := []struct {
		name     string
		snapshot *contracts.Snapshot
		overall  float64
		status   contracts.ReadinessStatus
		goalMet  bool
	}{
		// 75 + 0.25*39.984 = 84.996
		{"84.996 rounds up to green", withDocs(12500, 4998), 85.00, contracts.StatusGreen, true},
		// 75 + 0.25*39.976 = 84.994
		{"84.994 rounds down to amber", withDocs(12500, 4997), 84.99, contracts.StatusAmber, false},
		{"exactly 85", withDocs(5, 2), 85.00, contracts.StatusGreen, true},
		{"exactly 70", &contracts.Snapshot{
			MenuItems: compliant,
			DocumentCategories: []contracts.DocumentCategory{
				{ID: "kitchen", Required: 4, Approved: 4},
			},
		}, 70.00, contracts.StatusAmber, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := newTestEngine().Score(scenarioOutlet, tt.snapshot)
			require.NoError(t, err)

			assert.Equal(t, tt.overall, r.OverallScore)
			assert.Equal(t, tt.status, r.Status)
			assert.Equal(t, tt.goalMet, r.GoalMet)
			// status and goal flag agree with the displayed figure
			assert.Equal(t, Classify(r.OverallScore, DefaultConfig().Thresholds), r.Status)
			assert.Equal(t, r.Status == contracts.StatusGreen, r.GoalMet)
		})
	}
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 0.13, Round2(0.125))
	assert.Equal(t, -0.13, Round2(-0.125))
	assert.Equal(t, 81.6, Round2(18+22.5+23.5+17.6))
	assert.Equal(t, 66.67, Round2(200.0/3))
	assert.Equal(t, 100.0, Round2(100))
}

func TestScoreRejectsMalformedSnapshot(t *testing.T) {
	tests := []struct {
		name  string
		snap  *contracts.Snapshot
		field string
	}{
		{"nil", nil, "snapshot"},
		{"unknown material status", &contracts.Snapshot{
			Materials: []contracts.RawMaterial{{ID: 1, Status: "ROTTEN"}},
		}, "materials[0].status"},
		{"unknown menu status", &contracts.Snapshot{
			MenuItems: []contracts.MenuItem{{ID: 1, Status: "COMPLIANT"}, {ID: 2, Status: ""}},
		}, "menu_items[1].status"},
		{"negative required", &contracts.Snapshot{
			DocumentCategories: []contracts.DocumentCategory{{ID: "a", Required: -1}},
		}, "document_categories[0].required"},
		{"negative approved", &contracts.Snapshot{
			DocumentCategories: []contracts.DocumentCategory{{ID: "a", Required: 1, Approved: -2}},
		}, "document_categories[0].approved"},
		{"unknown severity", &contracts.Snapshot{
			Alerts: []contracts.Alert{{ID: 1, Severity: "CRITICAL"}},
		}, "alerts[0].severity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := newTestEngine().Score(scenarioOutlet, tt.snap)
			require.Error(t, err)
			assert.Nil(t, r)

			var ve ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestScoreCopiesCategories(t *testing.T) {
	snap := scenarioSnapshot()
	r, err := newTestEngine().Score(scenarioOutlet, snap)
	require.NoError(t, err)

	snap.DocumentCategories[0].Approved = 0
	assert.Equal(t, 8, r.Components.Documentation.Details.Categories[0].Approved)
}

func TestFingerprint(t *testing.T) {
	e := newTestEngine()
	a, err := e.Score(scenarioOutlet, scenarioSnapshot())
	require.NoError(t, err)

	later := NewEngine(DefaultConfig(), nil).WithClock(func() time.Time { return fixedNow.Add(time.Hour) })
	b, err := later.Score(scenarioOutlet, scenarioSnapshot())
	require.NoError(t, err)

	fa, err := Fingerprint(a)
	require.NoError(t, err)
	fb, err := Fingerprint(b)
	require.NoError(t, err)
	assert.Equal(t, fa, fb, "ScoredAt must not affect the fingerprint")
	assert.Len(t, fa, 32)

	snap := scenarioSnapshot()
	snap.Alerts = nil
	c, err := e.Score(scenarioOutlet, snap)
	require.NoError(t, err)
	fc, err := Fingerprint(c)
	require.NoError(t, err)
	assert.NotEqual(t, fa, fc)
}
