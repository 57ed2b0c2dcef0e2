package brain

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/auditready/internal/contracts"
	"github.com/wonny/auditready/internal/scoring"
	"github.com/wonny/auditready/pkg/logger"
)

// State of the audit state machine
type State string

const (
	StateIdle              State = "IDLE"
	StateFetchingData      State = "FETCHING_DATA"
	StateCalculatingScores State = "CALCULATING_SCORES"
	StateAnalyzingGaps     State = "ANALYZING_GAPS"
	StateCompleted         State = "COMPLETED"
	StateError             State = "ERROR"
)

// Terminal reports whether the state ends a run
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateError
}

// Fallback plan published when the plan generator fails
const (
	FallbackGap  = "Error analyzing gaps due to connectivity."
	FallbackPlan = "Could not generate improvement plan. Please check system logs."
)

// Options tune a Session
type Options struct {
	FetchTimeout time.Duration
	PlanTimeout  time.Duration
	AnalyzerName string // shown in "> SENDING DATA TO ..."
}

// DefaultOptions returns the standard run timeouts
func DefaultOptions() Options {
	return Options{
		FetchTimeout: 10 * time.Second,
		PlanTimeout:  30 * time.Second,
		AnalyzerName: "PLAN GENERATOR",
	}
}

// Ticket identifies a started run
type Ticket struct {
	RunID      string `json:"run_id"`
	Generation uint64 `json:"generation"`
}

// Status is a point-in-time view of the session
type Status struct {
	State      State  `json:"state"`
	OutletID   int64  `json:"outlet_id,omitempty"`
	RunID      string `json:"run_id,omitempty"`
	Generation uint64 `json:"generation"`
	Error      string `json:"error,omitempty"`
}

// Session is the audit orchestrator: it runs fetch → score → (analyze) → publish
// for one outlet at a time and owns the current state, progress log and published result.
// ⭐ SSOT: 감사 실행 상태 전이는 여기서만
type Session struct {
	provider contracts.SnapshotProvider
	engine   *scoring.Engine
	planner  contracts.PlanGenerator // nil → always fallback
	opts     Options
	clock    func() time.Time
	logger   *logger.Logger

	mu         sync.Mutex
	state      State
	generation uint64
	runID      string
	outlet     *contracts.Outlet
	entries    []Entry
	result     *contracts.OutletScoreResult
	lastErr    error
	listeners  map[int]Listener
	nextID     int
}

// NewSession creates an idle session
func NewSession(
	provider contracts.SnapshotProvider,
	engine *scoring.Engine,
	planner contracts.PlanGenerator,
	opts Options,
	log *logger.Logger,
) *Session {
	if log == nil {
		log = logger.Nop()
	}
	def := DefaultOptions()
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = def.FetchTimeout
	}
	if opts.PlanTimeout <= 0 {
		opts.PlanTimeout = def.PlanTimeout
	}
	if opts.AnalyzerName == "" {
		opts.AnalyzerName = def.AnalyzerName
	}

	return &Session{
		provider:  provider,
		engine:    engine,
		planner:   planner,
		opts:      opts,
		clock:     time.Now,
		logger:    log,
		state:     StateIdle,
		listeners: make(map[int]Listener),
	}
}

// WithClock overrides the clock for testing
func (s *Session) WithClock(clock func() time.Time) *Session {
	s.clock = clock
	return s
}

// run is the identity a single run carries across suspension points
type run struct {
	id         string
	generation uint64
	outlet     contracts.Outlet
	logger     *logger.Logger
}

// Run executes a complete audit for outlet and returns the published result.
// A run superseded by a newer one returns ErrStaleRun and leaves the session untouched.
func (s *Session) Run(ctx context.Context, outlet contracts.Outlet) (*contracts.OutletScoreResult, error) {
	r := s.begin(outlet)
	return s.execute(ctx, r)
}

// Start begins an audit in the background and returns immediately.
// Any in-flight run is superseded.
func (s *Session) Start(ctx context.Context, outlet contracts.Outlet) Ticket {
	r := s.begin(outlet)
	go func() {
		_, _ = s.execute(ctx, r)
	}()
	return Ticket{RunID: r.id, Generation: r.generation}
}

// Refresh re-runs the audit for the most recently targeted outlet
func (s *Session) Refresh(ctx context.Context) (*contracts.OutletScoreResult, error) {
	s.mu.Lock()
	outlet := s.outlet
	s.mu.Unlock()

	if outlet == nil {
		return nil, ErrNoOutlet
	}
	return s.Run(ctx, *outlet)
}

// begin bumps the generation and resets state, result and log for a new run
func (s *Session) begin(outlet contracts.Outlet) *run {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.runID = uuid.NewString()
	o := outlet
	s.outlet = &o
	s.entries = nil
	s.result = nil
	s.lastErr = nil

	r := &run{
		id:         s.runID,
		generation: s.generation,
		outlet:     outlet,
		logger: s.logger.WithFields(map[string]interface{}{
			"outlet_id":  outlet.ID,
			"run_id":     s.runID,
			"generation": s.generation,
		}),
	}

	s.transitionLocked(r, StateFetchingData)
	s.appendLocked(r,
		info("> INITIATING AUDIT SEQUENCE FOR OUTLET_ID: %d", outlet.ID),
		info("> TARGET: %s (%s)", outlet.Name, outlet.Location),
		info("> EXECUTING COMPONENT QUERIES..."),
		info("  - Fetching Material Data..."),
		info("  - Fetching Menu Data..."),
		info("  - Fetching Document Records..."),
		info("  - Fetching Active Alerts..."),
	)

	return r
}

func (s *Session) execute(ctx context.Context, r *run) (*contracts.OutletScoreResult, error) {
	start := s.clock()

	// 1. Snapshot
	snap, err := s.fetch(ctx, r)
	if err != nil {
		return nil, s.fail(r, err)
	}

	if err := s.advance(r, StateCalculatingScores, info("> DATA RETRIEVED. CALCULATING SCORES...")); err != nil {
		return nil, err
	}

	// 2. Score
	result, err := s.engine.Score(r.outlet, snap)
	if err != nil {
		return nil, s.fail(r, &ScoringError{OutletID: r.outlet.ID, Err: err})
	}

	c := result.Components
	overall := info("> OVERALL SCORE: %s%% (%s)", pct(result.OverallScore), result.Status)
	if result.GoalMet {
		overall.level = LevelSuccess
	} else {
		overall.level = LevelWarning
	}
	if err := s.advance(r, StateCalculatingScores,
		info("  - Material Score: %s%%", pct(c.Material.Score)),
		info("  - Menu Score: %s%%", pct(c.Menu.Score)),
		info("  - Documentation: %s%%", pct(c.Documentation.Score)),
		info("  - Alert Score: %s%%", pct(c.Alerts.Score)),
		overall,
	); err != nil {
		return nil, err
	}

	// 3. Analyze (goal not met only)
	if result.GoalMet {
		if err := s.advance(r, StateCalculatingScores, success("> GOAL MET. NO IMPROVEMENT PLAN REQUIRED.")); err != nil {
			return nil, err
		}
	} else {
		if err := s.analyze(ctx, r, result); err != nil {
			return nil, err
		}
	}

	// 4. Publish
	if !result.Consistent() {
		return nil, s.fail(r, &ScoringError{OutletID: r.outlet.ID, Err: contracts.ErrInconsistentResult})
	}
	if err := s.publish(r, result); err != nil {
		return nil, err
	}

	r.logger.WithFields(map[string]interface{}{
		"overall":     result.OverallScore,
		"status":      result.Status,
		"goal_met":    result.GoalMet,
		"config_hash": s.engine.ConfigHash(),
		"duration_ms": s.clock().Sub(start).Milliseconds(),
	}).Info("Audit run completed")

	return result.Clone(), nil
}

func (s *Session) fetch(ctx context.Context, r *run) (*contracts.Snapshot, error) {
	fctx, cancel := context.WithTimeout(ctx, s.opts.FetchTimeout)
	defer cancel()

	snap, err := s.provider.FetchSnapshot(fctx, r.outlet.ID)
	if err != nil {
		err = withTimeout(err, fctx, ctx, s.opts.FetchTimeout)
		return nil, &SnapshotFetchError{OutletID: r.outlet.ID, Err: err}
	}
	return snap, nil
}

// analyze requests an improvement plan and attaches it to result.
// Plan failures degrade the result; only a stale generation aborts.
func (s *Session) analyze(ctx context.Context, r *run, result *contracts.OutletScoreResult) error {
	threshold := s.engine.Config().Thresholds.Green
	if err := s.advance(r, StateAnalyzingGaps,
		warning("> SCORE < %s%%. INITIATING AI ANALYSIS MODULE...", pct(threshold)),
		info("> SENDING DATA TO %s...", strings.ToUpper(s.opts.AnalyzerName)),
	); err != nil {
		return err
	}

	plan, planErr := s.generate(ctx, r, result)

	if planErr != nil {
		r.logger.WithError(planErr).Warn("Plan generation failed, using fallback plan")
		plan = s.fallbackPlan()
	}

	if err := result.AttachPlan(plan); err != nil {
		return s.fail(r, err)
	}

	if planErr != nil {
		return s.advance(r, StateAnalyzingGaps,
			warning("> PLAN GENERATION FAILED: %v", planErr),
			warning("> FALLBACK PLAN ATTACHED."),
			info("> ANALYSIS COMPLETE."),
		)
	}
	return s.advance(r, StateAnalyzingGaps,
		success("> IMPROVEMENT PLAN GENERATED."),
		info("> ANALYSIS COMPLETE."),
	)
}

func (s *Session) generate(ctx context.Context, r *run, result *contracts.OutletScoreResult) (*contracts.ImprovementPlan, error) {
	if s.planner == nil {
		return nil, &PlanGenerationError{OutletID: r.outlet.ID, Err: fmt.Errorf("no plan generator configured")}
	}

	pctx, cancel := context.WithTimeout(ctx, s.opts.PlanTimeout)
	defer cancel()

	plan, err := s.planner.GeneratePlan(pctx, result.Clone())
	if err != nil {
		err = withTimeout(err, pctx, ctx, s.opts.PlanTimeout)
		return nil, &PlanGenerationError{OutletID: r.outlet.ID, Err: err}
	}
	if plan == nil {
		return nil, &PlanGenerationError{OutletID: r.outlet.ID, Err: fmt.Errorf("empty plan")}
	}
	if plan.NextReviewDate == "" {
		cp := *plan
		cp.NextReviewDate = s.today()
		plan = &cp
	}
	return plan, nil
}

func (s *Session) fallbackPlan() *contracts.ImprovementPlan {
	return &contracts.ImprovementPlan{
		Gaps:           []string{FallbackGap},
		Plan:           FallbackPlan,
		NextReviewDate: s.today(),
		Degraded:       true,
	}
}

func (s *Session) today() string {
	return s.clock().Format("2006-01-02")
}

// advance moves to state and appends lines, unless the run is stale
func (s *Session) advance(r *run, state State, lines ...line) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != r.generation {
		r.logger.Debug("Discarding stale audit step")
		return ErrStaleRun
	}

	s.transitionLocked(r, state)
	s.appendLocked(r, lines...)
	return nil
}

// publish completes the run and makes result visible
func (s *Session) publish(r *run, result *contracts.OutletScoreResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != r.generation {
		r.logger.Debug("Discarding stale audit result")
		return ErrStaleRun
	}

	s.result = result
	s.transitionLocked(r, StateCompleted)
	s.appendLocked(r, success("> AUDIT CYCLE COMPLETED SUCCESSFULLY."))
	return nil
}

// fail moves a current run to ERROR. A stale run's failure is dropped.
func (s *Session) fail(r *run, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != r.generation {
		r.logger.WithError(err).Debug("Discarding stale audit failure")
		return ErrStaleRun
	}

	s.result = nil
	s.lastErr = err
	s.transitionLocked(r, StateError)
	s.appendLocked(r, failure("> CRITICAL ERROR: %v", err))

	r.logger.WithError(err).Error("Audit run failed")
	return err
}

func (s *Session) transitionLocked(r *run, next State) {
	if s.state == next {
		return
	}
	r.logger.WithFields(map[string]interface{}{
		"from":  s.state,
		"state": next,
	}).Info("Audit state transition")
	s.state = next
}

func (s *Session) appendLocked(r *run, lines ...line) {
	for _, l := range lines {
		e := Entry{
			Seq:        len(s.entries) + 1,
			Time:       s.clock(),
			Level:      l.level,
			Phase:      s.state,
			Message:    l.text,
			RunID:      r.id,
			Generation: r.generation,
		}
		s.entries = append(s.entries, e)
		for _, fn := range s.listeners {
			fn(e)
		}
	}
}

// Subscribe registers fn for every new progress entry. Call the returned func to unsubscribe.
func (s *Session) Subscribe(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// State returns the current state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Status returns state, run identity and last error
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		State:      s.state,
		RunID:      s.runID,
		Generation: s.generation,
	}
	if s.outlet != nil {
		st.OutletID = s.outlet.ID
	}
	if s.lastErr != nil {
		st.Error = s.lastErr.Error()
	}
	return st
}

// Entries returns a copy of the current run's progress log in emission order
func (s *Session) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.entries...)
}

// Lines returns the progress log as plain strings
func (s *Session) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := make([]string, len(s.entries))
	for i, e := range s.entries {
		lines[i] = e.String()
	}
	return lines
}

// Result returns the published result. Only a COMPLETED run publishes one.
func (s *Session) Result() (*contracts.OutletScoreResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateCompleted || s.result == nil {
		return nil, false
	}
	return s.result.Clone(), true
}

// ResultOf returns the result published by run generation, false once a newer run has started
func (s *Session) ResultOf(generation uint64) (*contracts.OutletScoreResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != generation || s.state != StateCompleted || s.result == nil {
		return nil, false
	}
	return s.result.Clone(), true
}
