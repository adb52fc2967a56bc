package research

import (
	"context"
	"errors"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/cpunion/dexbot/pkg/types"
)

const (
	DefaultMaxTurns        = 5
	DefaultMaxClarifyTurns = 3
)

// Config bounds a research session.
type Config struct {
	// MaxTurns caps PlanEvaluate invocations; reaching it moves to Report.
	MaxTurns int `yaml:"max_turns"`
	// MaxClarifyTurns is how many clarification rounds may ask follow-up
	// questions before a refined prompt is forced.
	MaxClarifyTurns int `yaml:"max_clarify_turns"`
	// PropagateErrors makes a single failed query abort the Execute step.
	PropagateErrors bool `yaml:"propagate_errors"`
	// ExecuteTimeout bounds each query when positive.
	ExecuteTimeout time.Duration `yaml:"execute_timeout"`
}

// DefaultConfig returns the standard session bounds.
func DefaultConfig() Config {
	return Config{MaxTurns: DefaultMaxTurns, MaxClarifyTurns: DefaultMaxClarifyTurns}
}

// Input is what planning and reporting see of a session.
type Input struct {
	Prompt  string
	Outline string
	Results []types.ExecutionResult
}

// History renders Results for a prompt.
func (in Input) History() string {
	return FormatHistory(in.Results)
}

// Outliner drafts the research outline for a prompt.
type Outliner interface {
	Outline(ctx context.Context, prompt string) (string, error)
}

// Planner decides the next batch of queries, or that research is complete.
type Planner interface {
	Plan(ctx context.Context, in Input) (types.ExecutionPlan, error)
}

// Executor answers a single query using the analysis tools.
type Executor interface {
	Execute(ctx context.Context, query string) (types.ExecutionOutput, error)
}

// Reporter writes the final report.
type Reporter interface {
	Report(ctx context.Context, in Input) (string, error)
}

// OutlinerFunc adapts a function to Outliner.
type OutlinerFunc func(ctx context.Context, prompt string) (string, error)

func (f OutlinerFunc) Outline(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// PlannerFunc adapts a function to Planner.
type PlannerFunc func(ctx context.Context, in Input) (types.ExecutionPlan, error)

func (f PlannerFunc) Plan(ctx context.Context, in Input) (types.ExecutionPlan, error) {
	return f(ctx, in)
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, query string) (types.ExecutionOutput, error)

func (f ExecutorFunc) Execute(ctx context.Context, query string) (types.ExecutionOutput, error) {
	return f(ctx, query)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(ctx context.Context, in Input) (string, error)

func (f ReporterFunc) Report(ctx context.Context, in Input) (string, error) { return f(ctx, in) }

// Options wires a Controller. Clarifier, Logger and Events are optional.
type Options struct {
	Outliner  Outliner
	Planner   Planner
	Executor  Executor
	Reporter  Reporter
	Clarifier Clarifier
	Config    Config
	Logger    *zap.Logger
	Events    EventLogger
}

// Controller runs sessions. It holds no per-session state and may run
// many sessions concurrently.
type Controller struct {
	outliner  Outliner
	planner   Planner
	executor  Executor
	reporter  Reporter
	clarifier Clarifier
	cfg       Config
	logger    *zap.Logger
	events    EventLogger
}

// NewController validates opts and builds a Controller.
func NewController(opts Options) (*Controller, error) {
	if opts.Outliner == nil || opts.Planner == nil || opts.Executor == nil || opts.Reporter == nil {
		return nil, errors.New("research: outliner, planner, executor and reporter are required")
	}
	cfg := opts.Config
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = DefaultMaxTurns
	}
	if cfg.MaxClarifyTurns <= 0 {
		cfg.MaxClarifyTurns = DefaultMaxClarifyTurns
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		outliner:  opts.Outliner,
		planner:   opts.Planner,
		executor:  opts.Executor,
		reporter:  opts.Reporter,
		clarifier: opts.Clarifier,
		cfg:       cfg,
		logger:    logger,
		events:    opts.Events,
	}, nil
}

// Config returns the effective configuration.
func (c *Controller) Config() Config {
	return c.cfg
}

// Run drives s from Outline to End. A non-empty prompt replaces s.Prompt.
// Running a finished session starts over with a fresh turn budget.
// On a fatal error s is left in StatusFailed and the error, an
// *ExternalCallError for collaborator failures, is returned.
func (c *Controller) Run(ctx context.Context, s *State, prompt string) error {
	if s.Done() {
		s.reset()
	}
	if prompt != "" {
		s.Prompt = prompt
	}
	if s.Prompt == "" {
		return errors.New("research: empty prompt")
	}
	s.Status = StatusRunning
	s.Error = ""
	s.touch()
	c.logger.Info("research started", zap.String("session", s.ID), zap.Int("max_turns", c.cfg.MaxTurns))

	var stage Stage = &outlineStage{c: c}
	for stage != nil {
		next, err := stage.Run(ctx, s)
		if err != nil {
			return c.fail(s, err)
		}
		ev := Event{Stage: stage.Name(), Next: stageName(next)}
		if ex, ok := stage.(*executeStage); ok {
			ev.Queries = ex.queries
			ev.Results = len(s.Results)
		}
		c.record(s, ev)
		stage = next
		s.touch()
	}

	s.Status = StatusComplete
	c.logger.Info("research complete",
		zap.String("session", s.ID),
		zap.Int("turns", s.EvaluateTurns),
		zap.Int("results", len(s.Results)),
		zap.Int("citations", len(s.Citations)))
	return nil
}

func (c *Controller) input(s *State) Input {
	return Input{Prompt: s.Prompt, Outline: s.Outline, Results: slices.Clone(s.Results)}
}

func (c *Controller) fail(s *State, err error) error {
	s.Status = StatusFailed
	s.Error = err.Error()
	s.touch()
	stage := ""
	var ext *ExternalCallError
	if errors.As(err, &ext) {
		stage = ext.Stage
	}
	c.logger.Error("research failed",
		zap.String("session", s.ID),
		zap.String("stage", stage),
		zap.String("category", string(Classify(err))),
		zap.Error(err))
	c.record(s, Event{Stage: stage, Error: err.Error(), Category: string(Classify(err))})
	return err
}

func (c *Controller) record(s *State, ev Event) {
	ev.Timestamp = time.Now()
	ev.SessionID = s.ID
	ev.Turn = s.EvaluateTurns
	c.logger.Debug("stage",
		zap.String("session", s.ID),
		zap.String("stage", ev.Stage),
		zap.String("next", ev.Next),
		zap.Int("turn", ev.Turn))
	if c.events == nil {
		return
	}
	if err := c.events.LogEvent(ev); err != nil {
		c.logger.Warn("event log write failed", zap.Error(err))
	}
}
