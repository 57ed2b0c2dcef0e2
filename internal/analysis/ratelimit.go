package analysis

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/auditready/internal/contracts"
)

// RateLimitedGenerator spaces out calls to the plan generator with a token bucket
type RateLimitedGenerator struct {
	next    contracts.PlanGenerator
	limiter *rate.Limiter
}

// NewRateLimitedGenerator allows perMinute calls per minute (burst 1).
// perMinute <= 0 disables limiting.
func NewRateLimitedGenerator(next contracts.PlanGenerator, perMinute int) *RateLimitedGenerator {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(perMinute))
	}
	return &RateLimitedGenerator{
		next:    next,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// GeneratePlan waits for a token, then calls the wrapped generator.
// A context that ends while waiting returns its error.
func (g *RateLimitedGenerator) GeneratePlan(ctx context.Context, result *contracts.OutletScoreResult) (*contracts.ImprovementPlan, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("plan rate limit: %w", err)
	}
	return g.next.GeneratePlan(ctx, result)
}
