package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/auditready/internal/brain"
	"github.com/wonny/auditready/internal/contracts"
)

// runCmd runs one audit in the foreground
var runCmd = &cobra.Command{
	Use:   "run [outlet_id]",
	Short: "Run an audit for one outlet",
	Long: `Runs fetch → score → analyze → publish for one outlet and prints
the progress log as it happens, followed by the scorecard.

Example:
  go run ./cmd/auditready run 2
  go run ./cmd/auditready run 2 --json
  go run ./cmd/auditready run 1 --source postgres`,
	Args: cobra.ExactArgs(1),
	RunE: runAudit,
}

var runJSON bool

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&runJSON, "json", false, "print the result as JSON")
}

func runAudit(cmd *cobra.Command, args []string) error {
	outletID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid outlet id %q", args[0])
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := loadDeps(ctx)
	if err != nil {
		return err
	}
	defer d.close()

	outlet, err := d.source.GetOutlet(ctx, outletID)
	if err != nil {
		return err
	}

	session := d.newSession()
	if !runJSON {
		PrintJobHeader(outlet)
		unsubscribe := session.Subscribe(func(e brain.Entry) {
			fmt.Println(e.String())
		})
		defer unsubscribe()
	}

	result, err := session.Run(ctx, *outlet)
	if err != nil {
		PrintError(err.Error())
		return err
	}

	if err := d.source.RecordScore(ctx, result); err != nil {
		d.log.WithError(err).Warn("Failed to record score")
	}

	if runJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	PrintScorecard(result)
	return nil
}

// PrintScorecard prints the component table and plan of a result
func PrintScorecard(r *contracts.OutletScoreResult) {
	fmt.Println()
	PrintDoubleSeparator()
	widths := []int{22, 8, 8, 10}
	PrintTableHeader([]string{"Component", "Score", "Weight", "Contrib"}, widths)
	for _, c := range r.Components.List() {
		PrintTableRow([]string{
			c.Name,
			fmt.Sprintf("%.2f", c.Score),
			fmt.Sprintf("%.0f%%", c.Weight*100),
			fmt.Sprintf("%.2f", c.Contribution),
		}, widths)
	}
	PrintSeparator()
	PrintKeyValue("Overall", fmt.Sprintf("%.2f%% (%s)", r.OverallScore, r.Status), 9)
	PrintKeyValue("Goal Met", strconv.FormatBool(r.GoalMet), 9)

	if r.Plan == nil {
		fmt.Println()
		PrintSuccess("Goal met. No improvement plan required.")
		return
	}

	fmt.Println()
	if r.Plan.Degraded {
		PrintWarning("Plan generator unavailable, fallback plan attached")
	}
	fmt.Println("Gaps identified:")
	PrintList(r.Plan.Gaps)
	fmt.Println()
	fmt.Println("Improvement plan:")
	fmt.Println(r.Plan.Plan)
	fmt.Println()
	PrintKeyValue("Next Review", r.Plan.NextReviewDate, 11)
}
