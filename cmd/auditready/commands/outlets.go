package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// outletsCmd lists the outlet directory
var outletsCmd = &cobra.Command{
	Use:   "outlets",
	Short: "List outlets and their last recorded score",
	RunE:  listOutlets,
}

func init() {
	rootCmd.AddCommand(outletsCmd)
}

func listOutlets(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	d, err := loadDeps(ctx)
	if err != nil {
		return err
	}
	defer d.close()

	outlets, err := d.source.ListOutlets(ctx)
	if err != nil {
		return fmt.Errorf("list outlets: %w", err)
	}

	widths := []int{4, 20, 18, 10, 10}
	PrintTableHeader([]string{"ID", "Name", "Location", "Last", "Status"}, widths)
	for _, o := range outlets {
		last := "-"
		if o.LastStatus != "" {
			last = fmt.Sprintf("%.2f", o.LastScore)
		}
		PrintTableRow([]string{
			fmt.Sprintf("%d", o.ID),
			o.Name,
			o.Location,
			last,
			statusBadge(o.LastStatus),
		}, widths)
	}
	fmt.Printf("\n%d outlets (source: %s)\n", len(outlets), d.cfg.Audit.SnapshotSource)
	return nil
}
