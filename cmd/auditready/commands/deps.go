package commands

import (
	"context"
	"fmt"

	"github.com/wonny/auditready/internal/analysis"
	"github.com/wonny/auditready/internal/brain"
	"github.com/wonny/auditready/internal/contracts"
	"github.com/wonny/auditready/internal/external/gemini"
	"github.com/wonny/auditready/internal/scoring"
	"github.com/wonny/auditready/internal/snapshot"
	"github.com/wonny/auditready/pkg/config"
	"github.com/wonny/auditready/pkg/database"
	"github.com/wonny/auditready/pkg/httputil"
	"github.com/wonny/auditready/pkg/logger"
	"github.com/wonny/auditready/pkg/redis"
)

// snapshotSourceImpl is what every snapshot source provides
type snapshotSourceImpl interface {
	contracts.SnapshotProvider
	contracts.OutletDirectory
	contracts.ScoreRecorder
}

// deps holds everything a command needs, wired from config
type deps struct {
	cfg     *config.Config
	log     *logger.Logger
	db      *database.DB  // nil with the demo source
	redis   *redis.Client // disabled client when REDIS_ENABLED=false
	source  snapshotSourceImpl
	engine  *scoring.Engine
	planner contracts.PlanGenerator // nil → fallback plan
}

// loadDeps wires config → logger → snapshot source → engine → planner
func loadDeps(ctx context.Context) (*deps, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if snapshotSource != "" {
		cfg.Audit.SnapshotSource = snapshotSource
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	// 2. Initialize logger
	log := logger.New(cfg)
	d := &deps{cfg: cfg, log: log}

	// 3. Snapshot source
	switch cfg.Audit.SnapshotSource {
	case config.SnapshotSourcePostgres:
		if cfg.Database.URL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the postgres source")
		}
		db, err := database.New(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		d.db = db
		d.source = snapshot.NewRepository(db.Pool)
		log.Info("Connected to database")
	default:
		d.source = snapshot.NewDemo()
	}

	// 4. Scoring engine
	scoringCfg := scoring.DefaultConfig()
	if path := cfg.Audit.ScoringConfigPath; path != "" {
		scoringCfg, err = scoring.LoadConfig(path)
		if err != nil {
			d.close()
			return nil, fmt.Errorf("load scoring config: %w", err)
		}
	}
	d.engine = scoring.NewEngine(scoringCfg, log)
	log.WithField("scoring_config_hash", d.engine.ConfigHash()).Info("Scoring engine ready")

	// 5. Redis (optional)
	d.redis, err = redis.New(ctx, cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, plan cache disabled")
		d.redis = redis.NewFromRedis(nil)
	}

	// 6. Plan generator (optional)
	if cfg.HasGemini() {
		httpClient := httputil.New(cfg, log)
		client := gemini.NewClient(httpClient, cfg.Gemini.APIKey, cfg.Gemini.Model, log).
			WithBaseURL(cfg.Gemini.BaseURL)

		var planner contracts.PlanGenerator = analysis.NewRateLimitedGenerator(client, cfg.Gemini.RatePerMinute)
		if d.redis.Enabled() {
			cache := redis.NewCache(d.redis, "auditready")
			planner = analysis.NewCachedGenerator(planner, cache, cfg.Audit.PlanCacheTTL, log)
		}
		d.planner = planner
	} else {
		log.Warn("GEMINI_API_KEY not set, failing outlets get the fallback plan")
	}

	return d, nil
}

// newSession creates an idle audit session over the wired dependencies
func (d *deps) newSession() *brain.Session {
	opts := brain.Options{
		FetchTimeout: d.cfg.Audit.FetchTimeout,
		PlanTimeout:  d.cfg.Audit.PlanTimeout,
	}
	if d.planner != nil {
		opts.AnalyzerName = "GEMINI " + d.cfg.Gemini.Model
	}
	return brain.NewSession(d.source, d.engine, d.planner, opts, d.log)
}

func (d *deps) close() {
	if d.redis != nil {
		_ = d.redis.Close()
	}
	if d.db != nil {
		d.db.Close()
	}
}
