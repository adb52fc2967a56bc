package research

import (
	"context"
	"fmt"
	"strings"
)

// ClarifyOutcome is either FollowUpQuestions or RefinedPrompt.
type ClarifyOutcome interface {
	clarifyOutcome()
}

// FollowUpQuestions asks the user for more detail before research starts.
type FollowUpQuestions struct {
	Questions []string `json:"questions"`
}

// RefinedPrompt is a prompt ready for research.
type RefinedPrompt struct {
	Prompt string `json:"refined_prompt"`
}

func (FollowUpQuestions) clarifyOutcome() {}
func (RefinedPrompt) clarifyOutcome()     {}

// ClarifyInput is one clarification round. When ForceRefine is set the
// clarifier must return a RefinedPrompt.
type ClarifyInput struct {
	Message     string
	History     []ClarifyExchange
	ForceRefine bool
}

// Clarifier turns a vague request into a research prompt.
type Clarifier interface {
	Clarify(ctx context.Context, in ClarifyInput) (ClarifyOutcome, error)
}

// ClarifierFunc adapts a function to Clarifier.
type ClarifierFunc func(ctx context.Context, in ClarifyInput) (ClarifyOutcome, error)

func (f ClarifierFunc) Clarify(ctx context.Context, in ClarifyInput) (ClarifyOutcome, error) {
	return f(ctx, in)
}

// Clarify runs one clarification round on s. Follow-up questions leave the
// session in StatusClarifying; a refined prompt becomes s.Prompt. Once the
// clarify budget is spent the clarifier is asked to refine unconditionally.
func (c *Controller) Clarify(ctx context.Context, s *State, message string) (ClarifyOutcome, error) {
	s.ClarifyTurns++
	defer s.touch()

	if c.clarifier == nil {
		s.Prompt = message
		return RefinedPrompt{Prompt: message}, nil
	}

	in := ClarifyInput{
		Message:     message,
		History:     s.ClarifyHistory,
		ForceRefine: s.ClarifyTurns > c.cfg.MaxClarifyTurns,
	}
	out, err := c.clarifier.Clarify(ctx, in)
	if err != nil {
		return nil, c.fail(s, externalError(StageClarify, err))
	}

	switch o := out.(type) {
	case FollowUpQuestions:
		if in.ForceRefine {
			return nil, c.fail(s, externalError(StageClarify,
				fmt.Errorf("%w: follow-up questions after the clarify budget", ErrMalformedOutput)))
		}
		s.ClarifyHistory = append(s.ClarifyHistory, ClarifyExchange{Message: message, Questions: o.Questions})
		s.Status = StatusClarifying
		c.record(s, Event{Stage: StageClarify, Next: "elicit"})
		return o, nil
	case RefinedPrompt:
		if strings.TrimSpace(o.Prompt) == "" {
			return nil, c.fail(s, externalError(StageClarify,
				fmt.Errorf("%w: empty refined prompt", ErrMalformedOutput)))
		}
		s.ClarifyHistory = append(s.ClarifyHistory, ClarifyExchange{Message: message})
		s.Prompt = o.Prompt
		s.Status = StatusNew
		c.record(s, Event{Stage: StageClarify, Next: StageOutline})
		return o, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownOutcome, out)
	}
}
