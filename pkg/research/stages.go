package research

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cpunion/dexbot/pkg/types"
)

// Stage names.
const (
	StageClarify      = "clarify"
	StageOutline      = "outline"
	StagePlanEvaluate = "plan_evaluate"
	StageExecute      = "execute"
	StageReport       = "report"
	StageEnd          = "end"
)

// Stage is one node of the session state machine. Run returns the next
// stage, or nil once the session has reached End.
type Stage interface {
	Name() string
	Run(ctx context.Context, s *State) (Stage, error)
}

func stageName(s Stage) string {
	if s == nil {
		return StageEnd
	}
	return s.Name()
}

type outlineStage struct{ c *Controller }

func (*outlineStage) Name() string { return StageOutline }

func (st *outlineStage) Run(ctx context.Context, s *State) (Stage, error) {
	outline, err := st.c.outliner.Outline(ctx, s.Prompt)
	if err != nil {
		return nil, externalError(StageOutline, err)
	}
	s.Outline = outline
	return &planEvaluateStage{c: st.c}, nil
}

type planEvaluateStage struct{ c *Controller }

func (*planEvaluateStage) Name() string { return StagePlanEvaluate }

func (st *planEvaluateStage) Run(ctx context.Context, s *State) (Stage, error) {
	c := st.c
	if s.EvaluateTurns >= c.cfg.MaxTurns {
		c.logger.Info("turn budget reached", zap.String("session", s.ID), zap.Int("turns", s.EvaluateTurns))
		return &reportStage{c: c}, nil
	}
	s.EvaluateTurns++

	plan, err := c.planner.Plan(ctx, c.input(s))
	if err != nil {
		return nil, externalError(StagePlanEvaluate, err)
	}
	if plan.Thoughts != "" {
		s.Thoughts = append(s.Thoughts, plan.Thoughts)
	}
	if plan.IsComplete {
		return &reportStage{c: c}, nil
	}

	var queries []string
	for _, q := range plan.Queries {
		if q = strings.TrimSpace(q); q != "" {
			queries = append(queries, q)
		}
	}
	if len(queries) == 0 {
		c.logger.Warn("incomplete plan without queries, reporting", zap.String("session", s.ID))
		return &reportStage{c: c}, nil
	}
	return &executeStage{c: c, queries: queries}, nil
}

type executeStage struct {
	c       *Controller
	queries []string
}

func (*executeStage) Name() string { return StageExecute }

// Run executes every query concurrently and appends the results in query
// order once all of them have finished.
func (st *executeStage) Run(ctx context.Context, s *State) (Stage, error) {
	c := st.c
	results := make([]types.ExecutionResult, len(st.queries))

	g, gctx := errgroup.WithContext(ctx)
	for i, q := range st.queries {
		g.Go(func() error {
			out, err := c.executeOne(gctx, q)
			if err != nil {
				if c.cfg.PropagateErrors {
					return &ExternalCallError{Stage: StageExecute, Category: Classify(err), Query: q, Err: err}
				}
				c.logger.Warn("query failed",
					zap.String("session", s.ID),
					zap.String("query", q),
					zap.String("category", string(Classify(err))),
					zap.Error(err))
				results[i] = failedResult(q, err)
				return nil
			}
			results[i] = types.ExecutionResult{
				Query:      q,
				ToolName:   out.ToolName,
				ToolOutput: out.ToolOutput,
				IsSuccess:  out.IsSuccess,
				Summary:    out.Summary,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.Results = append(s.Results, results...)
	c.logger.Info("queries executed", zap.String("session", s.ID), zap.Strings("queries", st.queries))
	return &planEvaluateStage{c: c}, nil
}

// executeOne runs a single query, converting a panic into an error.
func (c *Controller) executeOne(ctx context.Context, q string) (out types.ExecutionOutput, err error) {
	if c.cfg.ExecuteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.ExecuteTimeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("executor panic: %v", r)
		}
	}()
	return c.executor.Execute(ctx, q)
}

func failedResult(q string, err error) types.ExecutionResult {
	return types.ExecutionResult{
		Query:     q,
		IsSuccess: false,
		Summary:   fmt.Sprintf("Query could not be completed (%s): %v", Classify(err), err),
	}
}

type reportStage struct{ c *Controller }

func (*reportStage) Name() string { return StageReport }

func (st *reportStage) Run(ctx context.Context, s *State) (Stage, error) {
	report, err := st.c.reporter.Report(ctx, st.c.input(s))
	if err != nil {
		return nil, externalError(StageReport, err)
	}
	s.Report = report
	s.Citations = BuildCitations(s.Results)
	return nil, nil
}
