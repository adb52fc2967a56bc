package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	adkagent "google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/adk/tool"
	"google.golang.org/genai"

	"github.com/cpunion/dexbot/pkg/llm"
	"github.com/cpunion/dexbot/pkg/research"
	"github.com/cpunion/dexbot/pkg/types"
)

// DefaultMaxRequests bounds model requests per executed query.
const DefaultMaxRequests = 4

const (
	executorApp  = "dexbot"
	executorUser = "planner"
	executorName = "executor"
	roleModel    = "model"
)

// ExecutorConfig wires an ADKExecutor.
type ExecutorConfig struct {
	Model       model.LLM
	Tools       []tool.Tool
	MaxRequests int // defaults to DefaultMaxRequests
	Logger      *zap.Logger
}

// ADKExecutor answers each query with a fresh tool-calling agent run.
type ADKExecutor struct {
	model       model.LLM
	tools       []tool.Tool
	maxRequests int
	logger      *zap.Logger
}

// NewADKExecutor validates cfg and builds an executor.
func NewADKExecutor(cfg ExecutorConfig) (*ADKExecutor, error) {
	if cfg.Model == nil {
		return nil, errors.New("executor model is required")
	}
	if len(cfg.Tools) == 0 {
		return nil, errors.New("executor needs at least one tool")
	}
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = DefaultMaxRequests
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &ADKExecutor{
		model:       cfg.Model,
		tools:       cfg.Tools,
		maxRequests: cfg.MaxRequests,
		logger:      cfg.Logger,
	}, nil
}

// Execute implements research.Executor. The first tool call and its
// response are recorded on the output; the agent's final text must be the
// {is_success, summary} JSON object.
func (e *ADKExecutor) Execute(ctx context.Context, query string) (types.ExecutionOutput, error) {
	adkAgent, err := llmagent.New(llmagent.Config{
		Name:                     executorName,
		Model:                    e.model,
		Description:              "Answers one research query with the analysis tools",
		Instruction:              executeInstruction,
		Tools:                    e.tools,
		DisallowTransferToParent: true,
		DisallowTransferToPeers:  true,
	})
	if err != nil {
		return types.ExecutionOutput{}, fmt.Errorf("failed to create ADK agent: %w", err)
	}

	sessionService := session.InMemoryService()
	r, err := runner.New(runner.Config{
		AppName:        executorApp,
		Agent:          adkAgent,
		SessionService: sessionService,
	})
	if err != nil {
		return types.ExecutionOutput{}, fmt.Errorf("failed to create runner: %w", err)
	}

	sess, err := sessionService.Create(ctx, &session.CreateRequest{
		AppName: executorApp,
		UserID:  executorUser,
	})
	if err != nil {
		return types.ExecutionOutput{}, fmt.Errorf("failed to create session: %w", err)
	}

	var (
		out      types.ExecutionOutput
		final    string
		requests int
		tokens   int32
	)
	msg := genai.NewContentFromText(query, "user")
	for event, err := range r.Run(ctx, executorUser, sess.Session.ID(), msg, adkagent.RunConfig{}) {
		if err != nil {
			return types.ExecutionOutput{}, classify(err)
		}
		if event == nil || event.Content == nil || event.Partial {
			continue
		}
		if event.UsageMetadata != nil {
			tokens += event.UsageMetadata.TotalTokenCount
		}
		if event.Content.Role == roleModel {
			requests++
			if requests > e.maxRequests {
				return types.ExecutionOutput{}, fmt.Errorf("%w: more than %d model requests for one query",
					research.ErrRateLimited, e.maxRequests)
			}
		}

		var text strings.Builder
		for _, part := range event.Content.Parts {
			switch {
			case part.FunctionCall != nil:
				if out.ToolName == "" {
					out.ToolName = part.FunctionCall.Name
				}
			case part.FunctionResponse != nil:
				if out.ToolOutput == "" && part.FunctionResponse.Name == out.ToolName {
					data, err := json.Marshal(part.FunctionResponse.Response)
					if err != nil {
						return types.ExecutionOutput{}, fmt.Errorf("encode tool output: %w", err)
					}
					out.ToolOutput = string(data)
				}
			case part.Text != "" && !part.Thought:
				text.WriteString(part.Text)
			}
		}
		if text.Len() > 0 && event.Content.Role == roleModel {
			final = text.String()
		}
	}

	if err := e.summarize(final, &out); err != nil {
		return types.ExecutionOutput{}, err
	}
	e.logger.Debug("query executed",
		zap.String("query", query),
		zap.String("tool", out.ToolName),
		zap.Bool("success", out.IsSuccess),
		zap.Int("requests", requests),
		zap.Int32("tokens", tokens))
	return out, nil
}

// summarize decodes the agent's final answer into out. When a tool ran and
// the answer is not JSON, the text is taken as a successful summary.
func (e *ADKExecutor) summarize(final string, out *types.ExecutionOutput) error {
	var answer struct {
		IsSuccess bool   `json:"is_success"`
		Summary   string `json:"summary"`
	}
	err := llm.DecodeJSON(final, &answer)
	switch {
	case err == nil:
		out.IsSuccess = answer.IsSuccess
		out.Summary = answer.Summary
		return nil
	case out.ToolName != "" && strings.TrimSpace(final) != "":
		e.logger.Debug("executor answered in plain text", zap.String("tool", out.ToolName))
		out.IsSuccess = true
		out.Summary = strings.TrimSpace(final)
		return nil
	default:
		return fmt.Errorf("%w: executor answer: %w", research.ErrMalformedOutput, err)
	}
}

var _ research.Executor = (*ADKExecutor)(nil)
