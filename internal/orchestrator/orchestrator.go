package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fyrsmithlabs/mentord/internal/learner"
	"github.com/fyrsmithlabs/mentord/internal/logging"
	"github.com/fyrsmithlabs/mentord/internal/memory"
	"github.com/fyrsmithlabs/mentord/internal/tracelog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/fyrsmithlabs/mentord/internal/orchestrator"

// Trace entry stage names.
const (
	agentSystem   = "System"
	agentParser   = "Parser"
	agentRouter   = "Router"
	agentSolver   = "Solver"
	agentVerifier = "Verifier"
	agentMemory   = "LearningMemory"
	agentUser     = "User"
)

// correctionPreviewLen is how much of a corrected text is quoted in its memory insight.
const correctionPreviewLen = 20

// Orchestrator drives one learner's session through parse, review, route and solve.
//
// The lock is released while collaborators run. Every Submit, CancelReview and
// Reset starts a new generation; a collaborator result that returns for an
// older generation is dropped and the call reports ErrSuperseded.
type Orchestrator struct {
	parser  ParserAgent
	solver  SolverAgent
	gate    ConfidenceGate
	memory  *memory.Store
	profile *learner.Profile

	logger   *logging.Logger
	tracer   trace.Tracer
	metrics  *Metrics
	observer func(tracelog.Entry)
	now      func() time.Time

	mu      sync.Mutex
	gen     uint64
	level   ExplanationLevel
	session *session
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger. Defaults to a nop logger.
func WithLogger(l *logging.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = l
	}
}

// WithTracer sets the OpenTelemetry tracer. Defaults to the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(o *Orchestrator) {
		o.tracer = t
	}
}

// WithMetrics enables Prometheus pipeline metrics.
func WithMetrics(m *Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithObserver registers fn to receive every trace entry as it is appended.
// fn runs with the orchestrator lock held and must not call back into it.
func WithObserver(fn func(tracelog.Entry)) Option {
	return func(o *Orchestrator) {
		o.observer = fn
	}
}

// WithClock overrides the clock used for stage and trace timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// WithExplanationLevel sets the initial explanation level. Defaults to Beginner.
func WithExplanationLevel(level ExplanationLevel) Option {
	return func(o *Orchestrator) {
		o.level = level
	}
}

// New creates an Orchestrator. The store and profile are shared across sessions.
func New(parser ParserAgent, solver SolverAgent, store *memory.Store, profile *learner.Profile, opts ...Option) (*Orchestrator, error) {
	if parser == nil {
		return nil, fmt.Errorf("parser agent cannot be nil")
	}
	if solver == nil {
		return nil, fmt.Errorf("solver agent cannot be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("memory store cannot be nil")
	}
	if profile == nil {
		return nil, fmt.Errorf("learner profile cannot be nil")
	}

	o := &Orchestrator{
		parser:  parser,
		solver:  solver,
		memory:  store,
		profile: profile,
		logger:  logging.NewNop(),
		tracer:  otel.Tracer(instrumentationName),
		now:     time.Now,
		level:   LevelBeginner,
	}
	for _, opt := range opts {
		opt(o)
	}
	if !o.level.Valid() {
		return nil, fmt.Errorf("invalid explanation level %q", o.level)
	}
	o.session = newSession(ModeText, o.now)
	return o, nil
}

// Submit starts a new session for in, discarding the previous one. The learner
// profile and memory store carry over. When the parsed confidence is below
// ReviewThreshold the session stops in AwaitingReview; otherwise it is solved
// before Submit returns.
func (o *Orchestrator) Submit(ctx context.Context, in Input) (SessionState, error) {
	o.mu.Lock()
	gen := o.resetLocked(in.Mode)
	ctx = logging.WithSessionID(ctx, o.session.id)

	if err := in.Validate(); err != nil {
		o.failLocked(ctx, err)
		st := o.snapshotLocked()
		o.mu.Unlock()
		return st, err
	}

	o.logger.Info(ctx, "submission received", zap.String("mode", string(in.Mode)))
	o.metrics.submission(in.Mode)
	o.appendLocked(agentSystem, fmt.Sprintf("Received %s input. Starting pipeline...", in.Mode), tracelog.SeverityInfo)
	o.transitionLocked(ctx, StageParsing)
	o.appendLocked(agentParser, "Analyzing raw input for mathematical structure...", tracelog.SeverityInfo)
	o.mu.Unlock()

	problem, err := o.parse(ctx, in)

	o.mu.Lock()
	if gen != o.gen {
		st := o.snapshotLocked()
		o.mu.Unlock()
		o.logger.Debug(ctx, "discarding superseded parse result")
		return st, ErrSuperseded
	}
	if err != nil {
		o.failLocked(ctx, err)
		st := o.snapshotLocked()
		o.mu.Unlock()
		return st, err
	}

	if problem.RawInput == "" {
		problem.RawInput = in.describe()
	}
	o.session.problem = &problem

	severity := tracelog.SeverityWarning
	if problem.Confidence > 0.7 {
		severity = tracelog.SeveritySuccess
	}
	o.appendLocked(agentParser,
		fmt.Sprintf("Identified topic: %s (Confidence: %.0f%%)", problem.Topic, problem.Confidence*100),
		severity)

	if o.gate.Decide(problem.Confidence) == RequireReview {
		o.transitionLocked(ctx, StageAwaitingReview)
		o.appendLocked(agentSystem, "Low confidence detected. Requesting human verification.", tracelog.SeverityWarning)
		o.metrics.review("requested")
		o.logger.Info(ctx, "awaiting human review", zap.Float64("confidence", problem.Confidence))
		st := o.snapshotLocked()
		o.mu.Unlock()
		return st, nil
	}

	req := o.routeLocked(ctx, problem)
	o.mu.Unlock()
	return o.solve(ctx, gen, req)
}

// ResolveReview accepts the human-verified problem text and continues to solving.
// A text that differs from the parsed one is recorded as a user-correction memory.
func (o *Orchestrator) ResolveReview(ctx context.Context, text string) (SessionState, error) {
	o.mu.Lock()
	ctx = logging.WithSessionID(ctx, o.session.id)

	if o.session.stage != StageAwaitingReview || o.session.problem == nil {
		err := &StateError{Op: "resolve review", Stage: o.session.stage}
		st := o.snapshotLocked()
		o.mu.Unlock()
		return st, err
	}
	if isBlank(text) {
		err := &ValidationError{Field: "text", Reason: "review text cannot be empty"}
		o.failLocked(ctx, err)
		st := o.snapshotLocked()
		o.mu.Unlock()
		return st, err
	}

	problem := *o.session.problem
	if text != problem.Text {
		o.recordInsightLocked(ctx, problem.Topic, correctionInsight(problem.Topic, text), memory.SourceUserCorrection)
		o.appendLocked(agentMemory, "Recorded user correction as new learning pattern.", tracelog.SeverityInfo)
		o.metrics.review("corrected")
	} else {
		o.metrics.review("confirmed")
	}
	o.appendLocked(agentUser, "Human verified/corrected problem text.", tracelog.SeveritySuccess)

	gen := o.gen
	req := o.routeLocked(ctx, problem.Corrected(text))
	o.mu.Unlock()
	return o.solve(ctx, gen, req)
}

// CancelReview abandons a session awaiting review and returns to Idle.
func (o *Orchestrator) CancelReview(ctx context.Context) (SessionState, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.session.stage != StageAwaitingReview {
		return o.snapshotLocked(), &StateError{Op: "cancel review", Stage: o.session.stage}
	}
	o.resetLocked(o.session.mode)
	o.metrics.review("cancelled")
	o.logger.Info(logging.WithSessionID(ctx, o.session.id), "review cancelled")
	return o.snapshotLocked(), nil
}

// Reset discards the current session from any stage and returns to Idle.
// An in-flight collaborator call for the old session is superseded.
func (o *Orchestrator) Reset(ctx context.Context) SessionState {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.resetLocked(o.session.mode)
	o.logger.Debug(logging.WithSessionID(ctx, o.session.id), "session reset")
	return o.snapshotLocked()
}

// SubmitSimilar submits one of the current solution's similar problems as text.
func (o *Orchestrator) SubmitSimilar(ctx context.Context, id string) (SessionState, error) {
	o.mu.Lock()
	if o.session.stage != StageCompleted || o.session.solution == nil {
		err := &StateError{Op: "load similar problem", Stage: o.session.stage}
		st := o.snapshotLocked()
		o.mu.Unlock()
		return st, err
	}
	sp, ok := o.session.solution.Similar(id)
	if !ok {
		st := o.snapshotLocked()
		o.mu.Unlock()
		return st, fmt.Errorf("%w: %q", ErrSimilarNotFound, id)
	}
	o.mu.Unlock()

	return o.Submit(ctx, Input{Mode: ModeText, Text: sp.Text})
}

// SetExplanationLevel changes the explanation depth for subsequent solves.
func (o *Orchestrator) SetExplanationLevel(level ExplanationLevel) error {
	if !level.Valid() {
		return &ValidationError{Field: "explanationLevel", Reason: fmt.Sprintf("explanation level must be Beginner or Advanced, got %q", level)}
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.level = level
	return nil
}

// ExplanationLevel returns the current explanation level.
func (o *Orchestrator) ExplanationLevel() ExplanationLevel {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.level
}

// Session returns a snapshot of the current session.
func (o *Orchestrator) Session() SessionState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

// Trace returns the current session's trace entries.
func (o *Orchestrator) Trace() []tracelog.Entry {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.session.trace.Entries()
}

// Memory returns the shared learning memory store.
func (o *Orchestrator) Memory() *memory.Store {
	return o.memory
}

// routeLocked records Routing and Solving and builds the solver request.
func (o *Orchestrator) routeLocked(ctx context.Context, problem Problem) SolveRequest {
	o.session.problem = &problem
	topic := string(problem.Topic)

	o.transitionLocked(ctx, StageRouting)
	o.appendLocked(agentRouter,
		fmt.Sprintf("User Mastery in %s: %d%%. Adjusting explainer depth.", topic, o.profile.Mastery(topic)),
		tracelog.SeveritySuccess)

	o.transitionLocked(ctx, StageSolving)
	o.appendLocked(agentSolver, "Retrieving RAG context with Learning Memory priority...", tracelog.SeverityInfo)

	return SolveRequest{
		Problem:  problem.clone(),
		Level:    o.level,
		Progress: o.profile.Snapshot(),
		Memory:   o.memory.Retrieve(topic, memory.MaxRetrieve),
	}
}

// solve runs the SolverAgent without the lock and applies its result.
func (o *Orchestrator) solve(ctx context.Context, gen uint64, req SolveRequest) (SessionState, error) {
	sol, err := o.callSolver(ctx, req)

	o.mu.Lock()
	defer o.mu.Unlock()

	if gen != o.gen {
		o.logger.Debug(ctx, "discarding superseded solve result")
		return o.snapshotLocked(), ErrSuperseded
	}
	if err != nil {
		o.failLocked(ctx, err)
		return o.snapshotLocked(), err
	}

	if insight := strings.TrimSpace(sol.GeneratedInsight); insight != "" {
		if o.recordInsightLocked(ctx, req.Problem.Topic, insight, memory.SourceSystem) {
			o.appendLocked(agentMemory, fmt.Sprintf("New RAG chunk generated: \"%s\"", insight), tracelog.SeveritySuccess)
		}
	}

	o.appendLocked(agentSolver, "Solution generated.", tracelog.SeveritySuccess)
	severity := tracelog.SeverityWarning
	if sol.Verification == VerificationVerified {
		severity = tracelog.SeveritySuccess
	}
	o.appendLocked(agentVerifier, fmt.Sprintf("Verification status: %s", sol.Verification), severity)

	o.session.solution = &sol
	o.transitionLocked(ctx, StageCompleted)
	o.logger.Info(ctx, "pipeline completed",
		zap.String("topic", string(req.Problem.Topic)),
		zap.String("verification", string(sol.Verification)),
		zap.Int("steps", len(sol.Steps)),
	)
	return o.snapshotLocked(), nil
}

func (o *Orchestrator) parse(ctx context.Context, in Input) (Problem, error) {
	ctx, span := o.tracer.Start(ctx, "orchestrator.parse",
		trace.WithAttributes(attribute.String("input.mode", string(in.Mode))))
	defer span.End()

	start := time.Now()
	problem, err := o.parser.Parse(ctx, in)
	if err == nil {
		if verr := problem.Validate(); verr != nil {
			err = NewAgentError("parser", KindFormat, verr)
		}
	}
	if err != nil {
		aerr := asAgentError("parser", err)
		o.metrics.agentCall("parser", "error", time.Since(start))
		span.RecordError(aerr)
		span.SetStatus(codes.Error, string(aerr.Kind))
		return Problem{}, aerr
	}

	o.metrics.agentCall("parser", "success", time.Since(start))
	span.SetAttributes(
		attribute.String("problem.topic", string(problem.Topic)),
		attribute.Float64("problem.confidence", problem.Confidence),
	)
	return problem, nil
}

func (o *Orchestrator) callSolver(ctx context.Context, req SolveRequest) (Solution, error) {
	ctx, span := o.tracer.Start(ctx, "orchestrator.solve",
		trace.WithAttributes(
			attribute.String("problem.topic", string(req.Problem.Topic)),
			attribute.String("explanation.level", string(req.Level)),
			attribute.Int("memory.items", len(req.Memory)),
		))
	defer span.End()

	start := time.Now()
	sol, err := o.solver.Solve(ctx, req)
	if err == nil {
		if verr := sol.Validate(); verr != nil {
			err = NewAgentError("solver", KindFormat, verr)
		}
	}
	if err != nil {
		aerr := asAgentError("solver", err)
		o.metrics.agentCall("solver", "error", time.Since(start))
		span.RecordError(aerr)
		span.SetStatus(codes.Error, string(aerr.Kind))
		return Solution{}, aerr
	}

	o.metrics.agentCall("solver", "success", time.Since(start))
	span.SetAttributes(
		attribute.String("solution.verification", string(sol.Verification)),
		attribute.Int("solution.steps", len(sol.Steps)),
	)
	return sol, nil
}

// recordInsightLocked prepends a memory item with success rate 1.0. Items for
// problems without a topic are filed under memory.General.
func (o *Orchestrator) recordInsightLocked(ctx context.Context, topic Topic, insight string, source memory.Source) bool {
	trigger := triggerFor(topic)
	item, err := memory.NewItem(trigger, insight, 1.0, source)
	if err == nil {
		err = o.memory.Insert(*item)
	}
	if err != nil {
		o.logger.Warn(ctx, "failed to record learning memory", zap.Error(err))
		return false
	}
	o.metrics.memoryInsert(string(source))
	o.logger.Debug(ctx, "learning memory recorded",
		zap.String("trigger", trigger),
		zap.String("source", string(source)),
	)
	return true
}

// resetLocked starts a new generation with an empty Idle session.
func (o *Orchestrator) resetLocked(mode Mode) uint64 {
	o.gen++
	o.session = newSession(mode, o.now)
	return o.gen
}

func (o *Orchestrator) transitionLocked(ctx context.Context, stage Stage) {
	from := o.session.stage
	o.session.stage = stage
	o.session.enteredAt = o.now()
	o.metrics.transition(stage)
	o.logger.Debug(ctx, "stage transition",
		zap.String("from", string(from)),
		zap.String("to", string(stage)),
	)
}

func (o *Orchestrator) failLocked(ctx context.Context, err error) {
	o.session.err = err
	o.transitionLocked(ctx, StageError)
	o.appendLocked(agentSystem, UserMessage(err), tracelog.SeverityError)
	o.logger.Warn(ctx, "pipeline failed", zap.Error(err))
}

func (o *Orchestrator) appendLocked(stage, action string, severity tracelog.Severity) {
	e := o.session.trace.Append(stage, action, severity)
	if o.observer != nil {
		o.observer(e)
	}
}

func (o *Orchestrator) snapshotLocked() SessionState {
	st := o.session.snapshot()
	st.ExplanationLevel = o.level
	st.Progress = o.profile.Snapshot()
	st.MemorySize = o.memory.Len()
	return st
}

func correctionInsight(topic Topic, text string) string {
	preview := []rune(text)
	if len(preview) > correctionPreviewLen {
		preview = preview[:correctionPreviewLen]
	}
	return fmt.Sprintf("Corrected scanning error for %s: user specified \"%s...\"", triggerFor(topic), string(preview))
}

// triggerFor files topicless insights under memory.General.
func triggerFor(topic Topic) string {
	if topic == "" {
		return memory.General
	}
	return string(topic)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
