// Package research drives a research session through its stages:
// Outline, then a bounded PlanEvaluate/Execute loop, then Report.
package research

import (
	"time"

	"github.com/google/uuid"

	"github.com/cpunion/dexbot/pkg/types"
)

// Status is the lifecycle position of a session.
type Status string

const (
	StatusNew        Status = "new"
	StatusClarifying Status = "clarifying"
	StatusRunning    Status = "running"
	StatusComplete   Status = "complete"
	StatusFailed     Status = "failed"
)

// ClarifyExchange is one round of follow-up questions and the user's reply.
type ClarifyExchange struct {
	Message   string   `json:"message"`
	Questions []string `json:"questions,omitempty"`
}

// State is everything a session accumulates. It is owned by one controller
// run at a time and is never written concurrently.
type State struct {
	ID             string                  `json:"id"`
	CreatedAt      time.Time               `json:"created_at"`
	UpdatedAt      time.Time               `json:"updated_at"`
	Status         Status                  `json:"status"`
	Prompt         string                  `json:"prompt"`
	ClarifyTurns   int                     `json:"clarify_turns"`
	ClarifyHistory []ClarifyExchange       `json:"clarify_history,omitempty"`
	EvaluateTurns  int                     `json:"evaluate_turns"`
	Outline        string                  `json:"outline"`
	Thoughts       []string                `json:"thoughts,omitempty"`
	Results        []types.ExecutionResult `json:"execution_results"`
	Report         string                  `json:"report"`
	Citations      []types.Citation        `json:"citations"`
	Error          string                  `json:"error,omitempty"`
}

// NewState creates an empty session with a fresh id.
func NewState() *State {
	now := time.Now().UTC()
	return &State{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
		Status:    StatusNew,
		Results:   []types.ExecutionResult{},
		Citations: []types.Citation{},
	}
}

// Done reports whether the session reached a terminal status.
func (s *State) Done() bool {
	return s.Status == StatusComplete || s.Status == StatusFailed
}

// reset clears the output of a previous run. Clarification history is kept.
func (s *State) reset() {
	s.EvaluateTurns = 0
	s.Outline = ""
	s.Thoughts = nil
	s.Results = []types.ExecutionResult{}
	s.Report = ""
	s.Citations = nil
	s.Error = ""
}

func (s *State) touch() {
	s.UpdatedAt = time.Now().UTC()
}

// SuccessfulResults returns the results that may be cited.
func (s *State) SuccessfulResults() []types.ExecutionResult {
	var out []types.ExecutionResult
	for _, r := range s.Results {
		if r.IsSuccess {
			out = append(out, r)
		}
	}
	return out
}

// BuildCitations cites every successful result by its 1-based position in
// the execution history.
func BuildCitations(results []types.ExecutionResult) []types.Citation {
	out := []types.Citation{}
	for i, r := range results {
		if !r.IsSuccess {
			continue
		}
		out = append(out, types.Citation{Index: i + 1, Query: r.Query, ToolName: r.ToolName})
	}
	return out
}
