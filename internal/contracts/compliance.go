package contracts

import "errors"

// ErrOutletNotFound is returned by directories and providers for unknown outlet IDs
var ErrOutletNotFound = errors.New("outlet not found")

// Outlet is a hospitality outlet subject to audit
type Outlet struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	Location   string          `json:"location"`
	LastScore  float64         `json:"last_score,omitempty"`
	LastStatus ReadinessStatus `json:"last_status,omitempty"`
}

// MaterialStatus is the compliance state of a raw material
type MaterialStatus string

const (
	MaterialSafe         MaterialStatus = "SAFE"
	MaterialWarning      MaterialStatus = "WARNING"
	MaterialExpired      MaterialStatus = "EXPIRED"
	MaterialNonCompliant MaterialStatus = "NON_COMPLIANT"
)

// Valid reports whether s is a known material status
func (s MaterialStatus) Valid() bool {
	switch s {
	case MaterialSafe, MaterialWarning, MaterialExpired, MaterialNonCompliant:
		return true
	}
	return false
}

// MenuStatus is the compliance state of a menu item
type MenuStatus string

const (
	MenuCompliant          MenuStatus = "COMPLIANT"
	MenuPartiallyCompliant MenuStatus = "PARTIALLY_COMPLIANT"
	MenuNonCompliant       MenuStatus = "NON_COMPLIANT"
)

// Valid reports whether s is a known menu status
func (s MenuStatus) Valid() bool {
	switch s {
	case MenuCompliant, MenuPartiallyCompliant, MenuNonCompliant:
		return true
	}
	return false
}

// AlertSeverity grades an alert's penalty weight
type AlertSeverity string

const (
	SeverityHigh   AlertSeverity = "HIGH"
	SeverityMedium AlertSeverity = "MEDIUM"
	SeverityLow    AlertSeverity = "LOW"
)

// Valid reports whether s is a known severity
func (s AlertSeverity) Valid() bool {
	switch s {
	case SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

// RawMaterial is an ingredient or supply item tracked for compliance
type RawMaterial struct {
	ID     int64          `json:"id"`
	Name   string         `json:"name"`
	Status MaterialStatus `json:"status"`
}

// MenuItem is a dish on the outlet's menu
type MenuItem struct {
	ID       int64      `json:"id"`
	Name     string     `json:"name"`
	IsActive bool       `json:"is_active"`
	Status   MenuStatus `json:"status"`
}

// DocumentCategory counts required vs approved documents of one kind
type DocumentCategory struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Required int    `json:"required"`
	Approved int    `json:"approved"`
}

// Alert is an open compliance alert
type Alert struct {
	ID       int64         `json:"id"`
	Message  string        `json:"message"`
	Status   string        `json:"status"`
	Severity AlertSeverity `json:"severity"`
}

// Snapshot is the full set of raw compliance records for one outlet at one point in time
// ⭐ SSOT: 점수 엔진의 유일한 입력
type Snapshot struct {
	OutletID           int64              `json:"outlet_id"`
	Materials          []RawMaterial      `json:"materials"`
	MenuItems          []MenuItem         `json:"menu_items"`
	DocumentCategories []DocumentCategory `json:"document_categories"`
	Alerts             []Alert            `json:"alerts"`
}
