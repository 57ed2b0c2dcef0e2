package snapshot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/auditready/internal/contracts"
	"github.com/wonny/auditready/internal/scoring"
)

func TestGenerateIsDeterministic(t *testing.T) {
	for id := int64(1); id <= 5; id++ {
		assert.Equal(t, Generate(id), Generate(id), "outlet %d", id)
	}
	assert.NotEqual(t, Generate(1), Generate(2))
}

func TestGenerateShape(t *testing.T) {
	for id := int64(1); id <= 5; id++ {
		snap := Generate(id)

		assert.Equal(t, id, snap.OutletID)
		assert.GreaterOrEqual(t, len(snap.Materials), 30)
		assert.Less(t, len(snap.Materials), 50)
		assert.GreaterOrEqual(t, len(snap.MenuItems), 15)
		assert.Less(t, len(snap.MenuItems), 25)
		assert.Less(t, len(snap.Alerts), 8)
		require.Len(t, snap.DocumentCategories, 5)

		for _, c := range snap.DocumentCategories {
			assert.GreaterOrEqual(t, c.Approved, 0)
			assert.LessOrEqual(t, c.Approved, c.Required)
		}
		require.NoError(t, scoring.ValidateSnapshot(snap))
	}
}

func TestGenerateOutletTwo(t *testing.T) {
	snap := Generate(2)

	require.Len(t, snap.Materials, 38)
	count := map[contracts.MaterialStatus]int{}
	for _, m := range snap.Materials {
		count[m.Status]++
	}
	assert.Equal(t, 32, count[contracts.MaterialSafe])
	assert.Equal(t, 1, count[contracts.MaterialExpired])
	assert.Equal(t, 5, count[contracts.MaterialNonCompliant])
	assert.Equal(t, "Material 1", snap.Materials[0].Name)

	require.Len(t, snap.MenuItems, 23)
	assert.Equal(t, contracts.MenuNonCompliant, snap.MenuItems[16].Status)
	assert.Equal(t, contracts.MenuPartiallyCompliant, snap.MenuItems[21].Status)

	assert.Equal(t, 6, snap.DocumentCategories[0].Approved)
	assert.Equal(t, "Kitchen Hygiene", snap.DocumentCategories[0].Name)

	require.Len(t, snap.Alerts, 4)
	for _, a := range snap.Alerts {
		assert.Equal(t, contracts.SeverityLow, a.Severity)
		assert.Equal(t, "ACTIVE", a.Status)
	}
}

func TestDemoScores(t *testing.T) {
	engine := scoring.NewEngine(scoring.DefaultConfig(), nil)
	d := NewDemo()
	ctx := context.Background()

	tests := []struct {
		id       int64
		material float64
		menu     float64
		docs     float64
		alerts   float64
		status   contracts.ReadinessStatus
	}{
		{1, 100, 100, 84.5, 96, contracts.StatusGreen},
		{2, 29.21, 69.57, 85, 96, contracts.StatusRed},
	}

	for _, tt := range tests {
		outlet, err := d.GetOutlet(ctx, tt.id)
		require.NoError(t, err)
		snap, err := d.FetchSnapshot(ctx, tt.id)
		require.NoError(t, err)

		r, err := engine.Score(*outlet, snap)
		require.NoError(t, err)

		assert.Equal(t, tt.material, r.Components.Material.Score, "outlet %d material", tt.id)
		assert.Equal(t, tt.menu, r.Components.Menu.Score, "outlet %d menu", tt.id)
		assert.Equal(t, tt.docs, r.Components.Documentation.Score, "outlet %d docs", tt.id)
		assert.Equal(t, tt.alerts, r.Components.Alerts.Score, "outlet %d alerts", tt.id)
		assert.Equal(t, tt.status, r.Status, "outlet %d status", tt.id)
	}
}

func TestDemoDirectory(t *testing.T) {
	d := NewDemo()
	ctx := context.Background()

	outlets, err := d.ListOutlets(ctx)
	require.NoError(t, err)
	require.Len(t, outlets, 5)
	for i, o := range outlets {
		assert.Equal(t, int64(i+1), o.ID)
	}
	assert.Equal(t, "HSM Mersing", outlets[4].Name)

	_, err = d.GetOutlet(ctx, 42)
	assert.ErrorIs(t, err, contracts.ErrOutletNotFound)

	_, err = d.FetchSnapshot(ctx, 42)
	assert.ErrorIs(t, err, contracts.ErrOutletNotFound)
}

func TestDemoRecordScore(t *testing.T) {
	d := NewDemo()
	ctx := context.Background()

	err := d.RecordScore(ctx, &contracts.OutletScoreResult{OutletID: 2, OverallScore: 66.6, Status: contracts.StatusRed})
	require.NoError(t, err)

	o, err := d.GetOutlet(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 66.6, o.LastScore)
	assert.Equal(t, contracts.StatusRed, o.LastStatus)

	err = d.RecordScore(ctx, &contracts.OutletScoreResult{OutletID: 99})
	assert.ErrorIs(t, err, contracts.ErrOutletNotFound)
}

func TestDemoLatencyHonoursContext(t *testing.T) {
	d := NewDemo().WithLatency(time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := d.FetchSnapshot(ctx, 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCustomCatalog(t *testing.T) {
	d := NewDemo(contracts.Outlet{ID: 7, Name: "Test Outlet", Location: "Kuala Lumpur"})

	outlets, err := d.ListOutlets(context.Background())
	require.NoError(t, err)
	require.Len(t, outlets, 1)
	assert.Equal(t, int64(7), outlets[0].ID)
}
