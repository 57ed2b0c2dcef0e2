package snapshot

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/auditready/internal/contracts"
)

// Repository reads outlets and compliance records from the compliance schema.
// Implements SnapshotProvider, OutletDirectory and ScoreRecorder.
// ⭐ SSOT: 컴플라이언스 데이터 저장소는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new compliance repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListOutlets returns every outlet ordered by ID
func (r *Repository) ListOutlets(ctx context.Context) ([]contracts.Outlet, error) {
	query := `
		SELECT id, name, location, COALESCE(last_score, 0), COALESCE(last_status, '')
		FROM compliance.outlets
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query outlets: %w", err)
	}
	defer rows.Close()

	var outlets []contracts.Outlet
	for rows.Next() {
		var o contracts.Outlet
		if err := rows.Scan(&o.ID, &o.Name, &o.Location, &o.LastScore, &o.LastStatus); err != nil {
			return nil, fmt.Errorf("scan outlet: %w", err)
		}
		outlets = append(outlets, o)
	}
	return outlets, rows.Err()
}

// GetOutlet returns one outlet or ErrOutletNotFound
func (r *Repository) GetOutlet(ctx context.Context, id int64) (*contracts.Outlet, error) {
	query := `
		SELECT id, name, location, COALESCE(last_score, 0), COALESCE(last_status, '')
		FROM compliance.outlets
		WHERE id = $1
	`

	var o contracts.Outlet
	err := r.pool.QueryRow(ctx, query, id).Scan(&o.ID, &o.Name, &o.Location, &o.LastScore, &o.LastStatus)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("outlet %d: %w", id, contracts.ErrOutletNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query outlet %d: %w", id, err)
	}
	return &o, nil
}

// FetchSnapshot reads all four record sets inside one read-only repeatable-read
// transaction so the snapshot is consistent.
func (r *Repository) FetchSnapshot(ctx context.Context, outletID int64) (*contracts.Snapshot, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM compliance.outlets WHERE id = $1)`, outletID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check outlet %d: %w", outletID, err)
	}
	if !exists {
		return nil, fmt.Errorf("outlet %d: %w", outletID, contracts.ErrOutletNotFound)
	}

	snap := &contracts.Snapshot{OutletID: outletID}

	if snap.Materials, err = queryMaterials(ctx, tx, outletID); err != nil {
		return nil, err
	}
	if snap.MenuItems, err = queryMenuItems(ctx, tx, outletID); err != nil {
		return nil, err
	}
	if snap.DocumentCategories, err = queryDocumentCategories(ctx, tx, outletID); err != nil {
		return nil, err
	}
	if snap.Alerts, err = queryActiveAlerts(ctx, tx, outletID); err != nil {
		return nil, err
	}

	return snap, nil
}

func queryMaterials(ctx context.Context, tx pgx.Tx, outletID int64) ([]contracts.RawMaterial, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, name, status
		FROM compliance.raw_materials
		WHERE outlet_id = $1
		ORDER BY id
	`, outletID)
	if err != nil {
		return nil, fmt.Errorf("query materials: %w", err)
	}
	defer rows.Close()

	var out []contracts.RawMaterial
	for rows.Next() {
		var m contracts.RawMaterial
		if err := rows.Scan(&m.ID, &m.Name, &m.Status); err != nil {
			return nil, fmt.Errorf("scan material: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func queryMenuItems(ctx context.Context, tx pgx.Tx, outletID int64) ([]contracts.MenuItem, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, name, is_active, status
		FROM compliance.menu_items
		WHERE outlet_id = $1 AND is_active
		ORDER BY id
	`, outletID)
	if err != nil {
		return nil, fmt.Errorf("query menu items: %w", err)
	}
	defer rows.Close()

	var out []contracts.MenuItem
	for rows.Next() {
		var m contracts.MenuItem
		if err := rows.Scan(&m.ID, &m.Name, &m.IsActive, &m.Status); err != nil {
			return nil, fmt.Errorf("scan menu item: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func queryDocumentCategories(ctx context.Context, tx pgx.Tx, outletID int64) ([]contracts.DocumentCategory, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, name, required, approved
		FROM compliance.document_categories
		WHERE outlet_id = $1
		ORDER BY position, id
	`, outletID)
	if err != nil {
		return nil, fmt.Errorf("query document categories: %w", err)
	}
	defer rows.Close()

	var out []contracts.DocumentCategory
	for rows.Next() {
		var c contracts.DocumentCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.Required, &c.Approved); err != nil {
			return nil, fmt.Errorf("scan document category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func queryActiveAlerts(ctx context.Context, tx pgx.Tx, outletID int64) ([]contracts.Alert, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, message, status, severity
		FROM compliance.alerts
		WHERE outlet_id = $1 AND status = 'ACTIVE'
		ORDER BY id
	`, outletID)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	var out []contracts.Alert
	for rows.Next() {
		var a contracts.Alert
		if err := rows.Scan(&a.ID, &a.Message, &a.Status, &a.Severity); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// RecordScore updates last_score and last_status of an outlet
func (r *Repository) RecordScore(ctx context.Context, res *contracts.OutletScoreResult) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE compliance.outlets
		SET last_score = $2, last_status = $3
		WHERE id = $1
	`, res.OutletID, res.OverallScore, string(res.Status))
	if err != nil {
		return fmt.Errorf("record score: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("outlet %d: %w", res.OutletID, contracts.ErrOutletNotFound)
	}
	return nil
}

// SaveOutlet upserts an outlet
func (r *Repository) SaveOutlet(ctx context.Context, o contracts.Outlet) error {
	query := `
		INSERT INTO compliance.outlets (id, name, location, last_score, last_status)
		VALUES ($1, $2, $3, NULLIF($4, 0::double precision), NULLIF($5, ''))
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			location = EXCLUDED.location,
			last_score = EXCLUDED.last_score,
			last_status = EXCLUDED.last_status
	`

	_, err := r.pool.Exec(ctx, query, o.ID, o.Name, o.Location, o.LastScore, string(o.LastStatus))
	return err
}

// ReplaceSnapshot deletes an outlet's records and inserts snap in one transaction
func (r *Repository) ReplaceSnapshot(ctx context.Context, snap *contracts.Snapshot) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, table := range []string{"raw_materials", "menu_items", "document_categories", "alerts"} {
		if _, err := tx.Exec(ctx, "DELETE FROM compliance."+table+" WHERE outlet_id = $1", snap.OutletID); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	batch := &pgx.Batch{}
	for _, m := range snap.Materials {
		batch.Queue(`INSERT INTO compliance.raw_materials (outlet_id, id, name, status) VALUES ($1, $2, $3, $4)`,
			snap.OutletID, m.ID, m.Name, string(m.Status))
	}
	for _, m := range snap.MenuItems {
		batch.Queue(`INSERT INTO compliance.menu_items (outlet_id, id, name, is_active, status) VALUES ($1, $2, $3, $4, $5)`,
			snap.OutletID, m.ID, m.Name, m.IsActive, string(m.Status))
	}
	for i, c := range snap.DocumentCategories {
		batch.Queue(`INSERT INTO compliance.document_categories (outlet_id, id, name, required, approved, position) VALUES ($1, $2, $3, $4, $5, $6)`,
			snap.OutletID, c.ID, c.Name, c.Required, c.Approved, i)
	}
	for _, a := range snap.Alerts {
		batch.Queue(`INSERT INTO compliance.alerts (outlet_id, id, message, status, severity) VALUES ($1, $2, $3, $4, $5)`,
			snap.OutletID, a.ID, a.Message, a.Status, string(a.Severity))
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	return tx.Commit(ctx)
}

// Seed loads the demo catalog and generated snapshots
func (r *Repository) Seed(ctx context.Context, outlets []contracts.Outlet) error {
	for _, o := range outlets {
		if err := r.SaveOutlet(ctx, o); err != nil {
			return fmt.Errorf("save outlet %d: %w", o.ID, err)
		}
		if err := r.ReplaceSnapshot(ctx, Generate(o.ID)); err != nil {
			return fmt.Errorf("seed outlet %d: %w", o.ID, err)
		}
	}
	return nil
}
