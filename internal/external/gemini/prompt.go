package gemini

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/wonny/auditready/internal/contracts"
)

// SystemPrompt describes the scoring rules and the plan the model must write
const SystemPrompt = `
You are a goal-based intelligent agent calculating audit readiness scores for Hotel Seri Malaysia outlets.

PRIMARY GOAL: Ensure all outlets maintain audit readiness score >= 85%

SCORING ALGORITHM - 4 COMPONENTS:
1. MATERIAL COMPLIANCE (30% weight)
   - Base = (compliant / total) * 100
   - Penalty: Expired * 5, Non-compliant * 10
2. MENU COMPLIANCE (25% weight)
   - Strict mode: (compliant / total) * 100
3. DOCUMENTATION COMPLETENESS (25% weight)
   - Average completion % across all categories.
4. ALERT RESOLUTION (20% weight)
   - Base 100.
   - Penalty: High * 5, Medium * 2, Low * 1.

STATUS CLASSIFICATION:
- >= 85: GREEN
- >= 70: AMBER
- < 70: RED

IMPROVEMENT PLAN GENERATION RULES:
1. Identify top 3 weakest components.
2. Calculate impact (potential points gain).
3. Suggest specific actions based on the specific counts (e.g., "Renew 2 expired certs").
4. Estimate time to GREEN.

Format the output strictly as a JSON object with fields: "gaps_identified" (array of strings),
"improvement_plan" (formatted string) and "next_review_date" (YYYY-MM-DD).
`

const promptTemplate = `
Analyze the following audit data for outlet %q and generate the "Gaps Identified" and "Improvement Plan" exactly as defined in the system prompt.

Current Score: %s%%
Status: %s

Component Data:
1. Material Compliance: Score %s%%
   (Expired: %d, Non-Compliant: %d)
2. Menu Compliance: Score %s%%
   (Non-Compliant: %d, Partial: %d)
3. Documentation: Score %s%%
   (Categories: %s)
4. Alerts: Score %s%%
   (High: %d, Medium: %d, Low: %d)

Return a JSON object with:
- gaps_identified: string[] (2-4 concise gap statements)
- improvement_plan: string (The full formatted text plan as per the template)
- next_review_date: string (YYYY-MM-DD based on logic)
`

// BuildPrompt renders the user prompt for a scored result
func BuildPrompt(r *contracts.OutletScoreResult) (string, error) {
	c := r.Components

	categories, err := json.Marshal(c.Documentation.Details.Categories)
	if err != nil {
		return "", fmt.Errorf("marshal categories: %w", err)
	}

	return fmt.Sprintf(promptTemplate,
		r.OutletName,
		num(r.OverallScore), r.Status,
		num(c.Material.Score), c.Material.Details.Expired, c.Material.Details.NonCompliant,
		num(c.Menu.Score), c.Menu.Details.NonCompliant, c.Menu.Details.Partial,
		num(c.Documentation.Score), categories,
		num(c.Alerts.Score), c.Alerts.Details.High, c.Alerts.Details.Medium, c.Alerts.Details.Low,
	), nil
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
