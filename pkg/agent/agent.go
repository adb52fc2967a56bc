// Package agent implements the model-backed research stages.
package agent

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/cpunion/dexbot/pkg/llm"
	"github.com/cpunion/dexbot/pkg/research"
)

// LLMProvider defines the interface for language model backends.
type LLMProvider interface {
	// GenerateWithConfig produces a response given a prompt and an optional
	// generation config.
	GenerateWithConfig(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (string, error)
}

type base struct {
	llm    LLMProvider
	logger *zap.Logger
}

func newBase(provider LLMProvider, logger *zap.Logger) base {
	if logger == nil {
		logger = zap.NewNop()
	}
	return base{llm: provider, logger: logger}
}

func (b base) generate(ctx context.Context, stage, prompt string, cfg *genai.GenerateContentConfig) (string, error) {
	text, err := b.llm.GenerateWithConfig(ctx, prompt, cfg)
	if err != nil {
		b.logger.Warn("model call failed", zap.String("stage", stage), zap.Error(err))
		return "", classify(err)
	}
	return text, nil
}

func (b base) generateJSON(ctx context.Context, stage, prompt string, cfg *genai.GenerateContentConfig, v any) error {
	text, err := b.generate(ctx, stage, prompt, cfg)
	if err != nil {
		return err
	}
	if err := llm.DecodeJSON(text, v); err != nil {
		b.logger.Warn("malformed model output", zap.String("stage", stage), zap.Error(err))
		return fmt.Errorf("%w: %w", research.ErrMalformedOutput, err)
	}
	return nil
}

// classify wraps a model failure with the research sentinel for its kind.
// Context errors pass through untouched.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, research.ErrRateLimited), errors.Is(err, research.ErrUpstream),
		errors.Is(err, research.ErrMalformedOutput):
		return err
	}
	if code, ok := llm.APIStatus(err); ok && code == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %w", research.ErrRateLimited, err)
	}
	return fmt.Errorf("%w: %w", research.ErrUpstream, err)
}
