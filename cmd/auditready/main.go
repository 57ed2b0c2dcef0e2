package main

import (
	"os"

	"github.com/wonny/auditready/cmd/auditready/commands"
)

// main is the entry point for the auditready CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/auditready [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
