package agent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/cpunion/dexbot/pkg/llm"
	"github.com/cpunion/dexbot/pkg/research"
	"github.com/cpunion/dexbot/pkg/types"
)

var planSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"thoughts":    {Type: genai.TypeString, Description: "Reasoning behind the decision."},
		"queries":     {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"is_complete": {Type: genai.TypeBoolean},
	},
	Required: []string{"thoughts", "queries", "is_complete"},
}

var clarifySchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"kind":           {Type: genai.TypeString, Enum: []string{clarifyFollowUp, clarifyRefined}},
		"questions":      {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"refined_prompt": {Type: genai.TypeString},
	},
	Required: []string{"kind"},
}

const (
	clarifyFollowUp = "follow_up"
	clarifyRefined  = "refined"
)

// GeminiOutliner drafts research outlines.
type GeminiOutliner struct{ base }

// NewGeminiOutliner creates an outliner backed by provider.
func NewGeminiOutliner(provider LLMProvider, logger *zap.Logger) *GeminiOutliner {
	return &GeminiOutliner{newBase(provider, logger)}
}

// Outline implements research.Outliner.
func (o *GeminiOutliner) Outline(ctx context.Context, prompt string) (string, error) {
	text, err := o.generate(ctx, research.StageOutline, outlinePrompt(prompt), nil)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: empty outline", research.ErrMalformedOutput)
	}
	return text, nil
}

// GeminiPlanner decides the next queries from structured JSON output.
type GeminiPlanner struct{ base }

// NewGeminiPlanner creates a planner backed by provider.
func NewGeminiPlanner(provider LLMProvider, logger *zap.Logger) *GeminiPlanner {
	return &GeminiPlanner{newBase(provider, logger)}
}

// Plan implements research.Planner.
func (p *GeminiPlanner) Plan(ctx context.Context, in research.Input) (types.ExecutionPlan, error) {
	var plan types.ExecutionPlan
	err := p.generateJSON(ctx, research.StagePlanEvaluate, planPrompt(in), llm.JSONConfig("", planSchema), &plan)
	if err != nil {
		return types.ExecutionPlan{}, err
	}
	p.logger.Debug("plan",
		zap.Bool("complete", plan.IsComplete),
		zap.Strings("queries", plan.Queries))
	return plan, nil
}

// GeminiReporter writes the final markdown report.
type GeminiReporter struct{ base }

// NewGeminiReporter creates a reporter backed by provider.
func NewGeminiReporter(provider LLMProvider, logger *zap.Logger) *GeminiReporter {
	return &GeminiReporter{newBase(provider, logger)}
}

// Report implements research.Reporter.
func (r *GeminiReporter) Report(ctx context.Context, in research.Input) (string, error) {
	text, err := r.generate(ctx, research.StageReport, reportPrompt(in), nil)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: empty report", research.ErrMalformedOutput)
	}
	return text, nil
}

// GeminiClarifier asks follow-up questions or refines the request.
type GeminiClarifier struct{ base }

// NewGeminiClarifier creates a clarifier backed by provider.
func NewGeminiClarifier(provider LLMProvider, logger *zap.Logger) *GeminiClarifier {
	return &GeminiClarifier{newBase(provider, logger)}
}

type clarifyReply struct {
	Kind          string   `json:"kind"`
	Questions     []string `json:"questions"`
	RefinedPrompt string   `json:"refined_prompt"`
}

// Clarify implements research.Clarifier.
func (c *GeminiClarifier) Clarify(ctx context.Context, in research.ClarifyInput) (research.ClarifyOutcome, error) {
	var reply clarifyReply
	err := c.generateJSON(ctx, research.StageClarify, clarifyPrompt(in), llm.JSONConfig("", clarifySchema), &reply)
	if err != nil {
		return nil, err
	}

	switch reply.Kind {
	case clarifyFollowUp:
		if len(reply.Questions) == 0 {
			return nil, fmt.Errorf("%w: follow-up without questions", research.ErrMalformedOutput)
		}
		return research.FollowUpQuestions{Questions: reply.Questions}, nil
	case clarifyRefined:
		return research.RefinedPrompt{Prompt: strings.TrimSpace(reply.RefinedPrompt)}, nil
	default:
		return nil, fmt.Errorf("%w: clarify kind %q", research.ErrMalformedOutput, reply.Kind)
	}
}

var (
	_ research.Outliner  = (*GeminiOutliner)(nil)
	_ research.Planner   = (*GeminiPlanner)(nil)
	_ research.Reporter  = (*GeminiReporter)(nil)
	_ research.Clarifier = (*GeminiClarifier)(nil)
)
