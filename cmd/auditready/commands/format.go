package commands

import (
	"fmt"
	"time"

	"github.com/wonny/auditready/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// PrintJobHeader prints a formatted audit header
func PrintJobHeader(o *contracts.Outlet) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  Audit: %s\n", o.Name)
	PrintSeparator()
	fmt.Printf("  Outlet ID : #%d\n", o.ID)
	fmt.Printf("  Location  : %s\n", o.Location)
	PrintSeparator()
	fmt.Printf("[Audit] Triggered at %s\n", time.Now().Format("2006-01-02 15:04:05"))
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Printf("⚠️  %s\n", message)
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Printf("❌ %s\n", message)
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)

	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	for i := 0; i < totalWidth; i++ {
		fmt.Print("─")
	}
	fmt.Println()
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	for i, val := range values {
		fmt.Printf("%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}

// PrintList prints a bulleted list
func PrintList(items []string) {
	for _, item := range items {
		fmt.Printf("   • %s\n", item)
	}
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}

// statusBadge renders a readiness status with its colour marker
func statusBadge(s contracts.ReadinessStatus) string {
	switch s {
	case contracts.StatusGreen:
		return "🟢 " + string(s)
	case contracts.StatusAmber:
		return "🟠 " + string(s)
	case contracts.StatusRed:
		return "🔴 " + string(s)
	default:
		return "-"
	}
}
