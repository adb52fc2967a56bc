package agent

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/cpunion/dexbot/pkg/research"
	"github.com/cpunion/dexbot/pkg/types"
)

type reply struct {
	text string
	err  error
}

type fakeProvider struct {
	mu      sync.Mutex
	replies []reply
	prompts []string
	configs []*genai.GenerateContentConfig
}

func (f *fakeProvider) GenerateWithConfig(_ context.Context, prompt string, cfg *genai.GenerateContentConfig) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	f.configs = append(f.configs, cfg)
	if len(f.replies) == 0 {
		return "", errors.New("no fake replies")
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r.text, r.err
}

func texts(ts ...string) *fakeProvider {
	f := &fakeProvider{}
	for _, t := range ts {
		f.replies = append(f.replies, reply{text: t})
	}
	return f
}

func TestPlannerDecodesPlan(t *testing.T) {
	f := texts("```json\n{\"thoughts\":\"need stats\",\"queries\":[\"get gyarados stats\"],\"is_complete\":false}\n```")
	p := NewGeminiPlanner(f, nil)

	plan, err := p.Plan(context.Background(), research.Input{
		Prompt:  "Is Gyarados a good special wall?",
		Outline: "1. Look up Gyarados.",
		Results: []types.ExecutionResult{{Query: "search walls", Summary: "found gyarados", IsSuccess: true}},
	})
	require.NoError(t, err)
	assert.Equal(t, types.ExecutionPlan{Thoughts: "need stats", Queries: []string{"get gyarados stats"}}, plan)

	require.Len(t, f.configs, 1)
	assert.Equal(t, "application/json", f.configs[0].ResponseMIMEType)
	assert.Same(t, planSchema, f.configs[0].ResponseSchema)
	assert.Contains(t, f.prompts[0], "Is Gyarados a good special wall?")
	assert.Contains(t, f.prompts[0], "<summary>found gyarados</summary>")
}

func TestPlannerMalformedOutput(t *testing.T) {
	p := NewGeminiPlanner(texts("I think we are done."), nil)
	_, err := p.Plan(context.Background(), research.Input{Prompt: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, research.ErrMalformedOutput)
	assert.Equal(t, research.CategoryMalformedOutput, research.Classify(err))
}

func TestModelErrorsAreClassified(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want research.ErrorCategory
	}{
		{"rate limited", genai.APIError{Code: http.StatusTooManyRequests, Status: "RESOURCE_EXHAUSTED"}, research.CategoryRateLimited},
		{"server error", genai.APIError{Code: http.StatusInternalServerError}, research.CategoryUpstream},
		{"transport", errors.New("connection reset"), research.CategoryUpstream},
		{"deadline", context.DeadlineExceeded, research.CategoryUpstream},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewGeminiOutliner(&fakeProvider{replies: []reply{{err: tt.err}}}, nil)
			_, err := o.Outline(context.Background(), "prompt")
			require.Error(t, err)
			assert.Equal(t, tt.want, research.Classify(err))
		})
	}
}

func TestOutliner(t *testing.T) {
	f := texts("  1. Find fast fire types.\n2. Compare them.  ")
	o := NewGeminiOutliner(f, nil)
	got, err := o.Outline(context.Background(), "best fire sweeper")
	require.NoError(t, err)
	assert.Equal(t, "1. Find fast fire types.\n2. Compare them.", got)
	assert.Contains(t, f.prompts[0], "<user_prompt>\nbest fire sweeper\n</user_prompt>")
	assert.Nil(t, f.configs[0])

	_, err = NewGeminiOutliner(texts("   "), nil).Outline(context.Background(), "x")
	assert.ErrorIs(t, err, research.ErrMalformedOutput)
}

func TestReporterCitesHistoryPositions(t *testing.T) {
	f := texts("Gyarados walls special attackers [1].")
	r := NewGeminiReporter(f, nil)
	got, err := r.Report(context.Background(), research.Input{
		Prompt: "Is Gyarados bulky?",
		Results: []types.ExecutionResult{
			{Query: "q1", Summary: "s1", IsSuccess: true},
			{Query: "q2", Summary: "s2"},
			{Query: "q3", Summary: "s3", IsSuccess: true},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Gyarados walls special attackers [1].", got)
	assert.Contains(t, f.prompts[0], "[1] q1\ns1")
	assert.Contains(t, f.prompts[0], "[3] q3\ns3")
	assert.NotContains(t, f.prompts[0], "q2")
}

func TestClarifier(t *testing.T) {
	ctx := context.Background()

	t.Run("follow up", func(t *testing.T) {
		c := NewGeminiClarifier(texts(`{"kind":"follow_up","questions":["Which game?"]}`), nil)
		out, err := c.Clarify(ctx, research.ClarifyInput{Message: "build me a team"})
		require.NoError(t, err)
		assert.Equal(t, research.FollowUpQuestions{Questions: []string{"Which game?"}}, out)
	})

	t.Run("refined", func(t *testing.T) {
		c := NewGeminiClarifier(texts(`{"kind":"refined","refined_prompt":" Build a Scarlet team. "}`), nil)
		out, err := c.Clarify(ctx, research.ClarifyInput{Message: "scarlet"})
		require.NoError(t, err)
		assert.Equal(t, research.RefinedPrompt{Prompt: "Build a Scarlet team."}, out)
	})

	t.Run("forced refine prompt carries history", func(t *testing.T) {
		f := texts(`{"kind":"refined","refined_prompt":"p"}`)
		c := NewGeminiClarifier(f, nil)
		_, err := c.Clarify(ctx, research.ClarifyInput{
			Message:     "violet",
			History:     []research.ClarifyExchange{{Message: "build me a team", Questions: []string{"Which game?"}}},
			ForceRefine: true,
		})
		require.NoError(t, err)
		assert.Contains(t, f.prompts[0], "You must not ask more questions")
		assert.Contains(t, f.prompts[0], "user: build me a team\nassistant: Which game?\nuser: violet\n")
	})

	t.Run("malformed", func(t *testing.T) {
		for _, text := range []string{`{"kind":"maybe"}`, `{"kind":"follow_up","questions":[]}`, `nope`} {
			c := NewGeminiClarifier(texts(text), nil)
			_, err := c.Clarify(ctx, research.ClarifyInput{Message: "x"})
			assert.ErrorIs(t, err, research.ErrMalformedOutput, text)
		}
	})
}

func TestGeminiStagesDriveController(t *testing.T) {
	f := texts(
		"1. Analyze the team.",
		`{"thoughts":"analyze","queries":["analyze charizard and gyarados"],"is_complete":false}`,
		`{"thoughts":"enough","queries":[],"is_complete":true}`,
		"The team shares an electric weakness [1].",
	)
	exec := research.ExecutorFunc(func(_ context.Context, q string) (types.ExecutionOutput, error) {
		return types.ExecutionOutput{IsSuccess: true, Summary: "electric x2", ToolName: "analyse_team"}, nil
	})
	c, err := research.NewController(research.Options{
		Outliner: NewGeminiOutliner(f, nil),
		Planner:  NewGeminiPlanner(f, nil),
		Executor: exec,
		Reporter: NewGeminiReporter(f, nil),
	})
	require.NoError(t, err)

	s := research.NewState()
	require.NoError(t, c.Run(context.Background(), s, "charizard and gyarados team?"))
	assert.Equal(t, research.StatusComplete, s.Status)
	assert.Equal(t, "The team shares an electric weakness [1].", s.Report)
	require.Len(t, s.Citations, 1)
	assert.Equal(t, "analyse_team", s.Citations[0].ToolName)
}
