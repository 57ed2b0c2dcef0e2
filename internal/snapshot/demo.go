package snapshot

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/wonny/auditready/internal/contracts"
)

// DefaultOutlets is the demo outlet catalog
func DefaultOutlets() []contracts.Outlet {
	return []contracts.Outlet{
		{ID: 1, Name: "HSM Kangar", Location: "Perlis", LastScore: 88.5, LastStatus: contracts.StatusGreen},
		{ID: 2, Name: "HSM Penang", Location: "Penang", LastScore: 68.2, LastStatus: contracts.StatusRed},
		{ID: 3, Name: "HSM Seremban", Location: "Negeri Sembilan", LastScore: 73.0, LastStatus: contracts.StatusAmber},
		{ID: 4, Name: "HSM Melaka", Location: "Melaka", LastScore: 92.1, LastStatus: contracts.StatusGreen},
		{ID: 5, Name: "HSM Mersing", Location: "Johor", LastScore: 45.5, LastStatus: contracts.StatusRed},
	}
}

// Demo serves deterministic generated snapshots for a fixed outlet catalog.
// Implements SnapshotProvider, OutletDirectory and ScoreRecorder.
type Demo struct {
	mu      sync.RWMutex
	outlets map[int64]contracts.Outlet
	latency time.Duration
}

// NewDemo creates a demo source over outlets (DefaultOutlets when empty)
func NewDemo(outlets ...contracts.Outlet) *Demo {
	if len(outlets) == 0 {
		outlets = DefaultOutlets()
	}
	d := &Demo{outlets: make(map[int64]contracts.Outlet, len(outlets))}
	for _, o := range outlets {
		d.outlets[o.ID] = o
	}
	return d
}

// WithLatency makes every fetch wait d, honouring ctx
func (d *Demo) WithLatency(latency time.Duration) *Demo {
	d.latency = latency
	return d
}

// ListOutlets returns the catalog ordered by ID
func (d *Demo) ListOutlets(_ context.Context) ([]contracts.Outlet, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]contracts.Outlet, 0, len(d.outlets))
	for _, o := range d.outlets {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetOutlet returns one outlet or ErrOutletNotFound
func (d *Demo) GetOutlet(_ context.Context, id int64) (*contracts.Outlet, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	o, ok := d.outlets[id]
	if !ok {
		return nil, fmt.Errorf("outlet %d: %w", id, contracts.ErrOutletNotFound)
	}
	return &o, nil
}

// FetchSnapshot generates the snapshot of a catalog outlet
func (d *Demo) FetchSnapshot(ctx context.Context, id int64) (*contracts.Snapshot, error) {
	if _, err := d.GetOutlet(ctx, id); err != nil {
		return nil, err
	}

	if d.latency > 0 {
		timer := time.NewTimer(d.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return Generate(id), nil
}

// RecordScore stores the latest overall score and status in the catalog
func (d *Demo) RecordScore(_ context.Context, r *contracts.OutletScoreResult) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	o, ok := d.outlets[r.OutletID]
	if !ok {
		return fmt.Errorf("outlet %d: %w", r.OutletID, contracts.ErrOutletNotFound)
	}
	o.LastScore = r.OverallScore
	o.LastStatus = r.Status
	d.outlets[r.OutletID] = o
	return nil
}

// Generate builds a deterministic snapshot from the outlet ID.
// Same ID → same snapshot.
func Generate(outletID int64) *contracts.Snapshot {
	seed := outletID * 1234

	snap := &contracts.Snapshot{OutletID: outletID}

	// Materials: 30~49
	materialCount := 30 + int(seed%20)
	snap.Materials = make([]contracts.RawMaterial, materialCount)
	for i := 0; i < materialCount; i++ {
		r := (seed + int64(i)) % 100
		status := contracts.MaterialSafe
		switch {
		case r < 5:
			status = contracts.MaterialNonCompliant
		case r < 15:
			status = contracts.MaterialExpired
		case r < 25:
			status = contracts.MaterialWarning
		}
		snap.Materials[i] = contracts.RawMaterial{
			ID:     int64(i + 1),
			Name:   fmt.Sprintf("Material %d", i+1),
			Status: status,
		}
	}

	// Menu: 15~24
	menuCount := 15 + int(seed%10)
	snap.MenuItems = make([]contracts.MenuItem, menuCount)
	for i := 0; i < menuCount; i++ {
		r := (seed + int64(i)*2) % 100
		status := contracts.MenuCompliant
		switch {
		case r < 10:
			status = contracts.MenuNonCompliant
		case r < 30:
			status = contracts.MenuPartiallyCompliant
		}
		snap.MenuItems[i] = contracts.MenuItem{
			ID:       int64(i + 1),
			Name:     fmt.Sprintf("Menu Item %d", i+1),
			IsActive: true,
			Status:   status,
		}
	}

	snap.DocumentCategories = []contracts.DocumentCategory{
		{ID: "kitchen", Name: "Kitchen Hygiene", Required: 8, Approved: max(0, 8-int(seed%3))},
		{ID: "training", Name: "Worker Training", Required: 5, Approved: max(0, 5-int(seed%4))},
		{ID: "supplier", Name: "Supplier Management", Required: 6, Approved: max(0, 6-int(seed%2))},
		{ID: "manual", Name: "HAS Manual", Required: 4, Approved: max(0, 4-int(seed%3))},
		{ID: "pest", Name: "Pest Control", Required: 3, Approved: 3},
	}

	// Alerts: 0~7
	alertCount := int(seed % 8)
	snap.Alerts = make([]contracts.Alert, alertCount)
	for i := 0; i < alertCount; i++ {
		r := (seed + int64(i)*3) % 100
		severity := contracts.SeverityLow
		switch {
		case r < 20:
			severity = contracts.SeverityHigh
		case r < 50:
			severity = contracts.SeverityMedium
		}
		snap.Alerts[i] = contracts.Alert{
			ID:       int64(i + 1),
			Message:  fmt.Sprintf("Compliance Alert %d", i+1),
			Status:   "ACTIVE",
			Severity: severity,
		}
	}

	return snap
}
