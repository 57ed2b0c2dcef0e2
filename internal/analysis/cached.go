package analysis

import (
	"context"
	"time"

	"github.com/wonny/auditready/internal/contracts"
	"github.com/wonny/auditready/internal/scoring"
	"github.com/wonny/auditready/pkg/logger"
	"github.com/wonny/auditready/pkg/redis"
)

// PlanCache is the subset of redis.Cache the generator needs
type PlanCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// CachedGenerator serves plans for an unchanged score from cache.
// Cache failures are logged and never fail the request.
type CachedGenerator struct {
	next   contracts.PlanGenerator
	cache  PlanCache
	ttl    time.Duration
	logger *logger.Logger
}

// NewCachedGenerator wraps next with a plan cache
func NewCachedGenerator(next contracts.PlanGenerator, cache PlanCache, ttl time.Duration, log *logger.Logger) *CachedGenerator {
	if ttl <= 0 {
		ttl = redis.TTLLong
	}
	if log == nil {
		log = logger.Nop()
	}
	return &CachedGenerator{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: log,
	}
}

// GeneratePlan implements contracts.PlanGenerator
func (g *CachedGenerator) GeneratePlan(ctx context.Context, result *contracts.OutletScoreResult) (*contracts.ImprovementPlan, error) {
	fp, err := scoring.Fingerprint(result)
	if err != nil {
		return g.next.GeneratePlan(ctx, result)
	}
	key := redis.PlanKey(result.OutletID, fp)
	log := g.logger.WithFields(map[string]interface{}{
		"outlet_id": result.OutletID,
		"key":       key,
	})

	var cached contracts.ImprovementPlan
	hit, err := g.cache.Get(ctx, key, &cached)
	if err != nil {
		log.WithError(err).Warn("Plan cache read failed")
	} else if hit {
		log.Debug("Plan cache hit")
		return &cached, nil
	}

	plan, err := g.next.GeneratePlan(ctx, result)
	if err != nil {
		return nil, err
	}

	if plan != nil && !plan.Degraded {
		if err := g.cache.Set(ctx, key, plan, g.ttl); err != nil {
			log.WithError(err).Warn("Plan cache write failed")
		}
	}

	return plan, nil
}
