package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpunion/dexbot/pkg/dex/dextest"
	"github.com/cpunion/dexbot/pkg/research"
	"github.com/cpunion/dexbot/pkg/types"
)

func controller(t *testing.T, planErr error) *research.Controller {
	t.Helper()
	return controllerWithEvents(t, planErr, nil)
}

func controllerWithEvents(t *testing.T, planErr error, events research.EventLogger) *research.Controller {
	t.Helper()
	c, err := research.NewController(research.Options{
		Events: events,
		Outliner: research.OutlinerFunc(func(_ context.Context, p string) (string, error) {
			return "1. Look it up.", nil
		}),
		Planner: research.PlannerFunc(func(_ context.Context, in research.Input) (types.ExecutionPlan, error) {
			if planErr != nil {
				return types.ExecutionPlan{}, planErr
			}
			if len(in.Results) > 0 {
				return types.ExecutionPlan{Thoughts: "done", IsComplete: true}, nil
			}
			return types.ExecutionPlan{Thoughts: "look", Queries: []string{"gyarados battle profile"}}, nil
		}),
		Executor: research.ExecutorFunc(func(_ context.Context, q string) (types.ExecutionOutput, error) {
			return types.ExecutionOutput{IsSuccess: true, Summary: "special defense 100", ToolName: "get_creature_profiles"}, nil
		}),
		Reporter: research.ReporterFunc(func(_ context.Context, in research.Input) (string, error) {
			return "## Verdict\n\nGyarados is a **Special Wall** [1].", nil
		}),
		Clarifier: research.ClarifierFunc(func(_ context.Context, in research.ClarifyInput) (research.ClarifyOutcome, error) {
			if len(in.History) == 0 {
				return research.FollowUpQuestions{Questions: []string{"Which game?"}}, nil
			}
			return research.RefinedPrompt{Prompt: "Is Gyarados a special wall in Scarlet?"}, nil
		}),
	})
	require.NoError(t, err)
	return c
}

func newServer(t *testing.T, r Researcher) *Server {
	t.Helper()
	opts := Options{Store: dextest.Store()}
	if r != nil {
		opts.Research = r
		opts.Sessions = research.NewFileSessionStore(t.TempDir())
	}
	s, err := New(opts)
	require.NoError(t, err)
	return s
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestResearchLifecycle(t *testing.T) {
	s := newServer(t, controller(t, nil))

	rec := do(t, s, http.MethodPost, "/api/research", `{"prompt":"Is Gyarados a special wall?"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	st := decode[research.State](t, rec)
	assert.Equal(t, research.StatusComplete, st.Status)
	assert.Equal(t, 2, st.EvaluateTurns)
	require.Len(t, st.Citations, 1)
	assert.Equal(t, 1, st.Citations[0].Index)

	rec = do(t, s, http.MethodGet, "/api/sessions/"+st.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, st.Report, decode[research.State](t, rec).Report)

	rec = do(t, s, http.MethodGet, "/api/sessions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{st.ID}, decode[map[string][]string](t, rec)["sessions"])

	rec = do(t, s, http.MethodGet, "/api/sessions/"+st.ID+"/report.html", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<strong>Special Wall</strong>")
	assert.Contains(t, rec.Body.String(), "get_creature_profiles")
}

func TestSessionEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	events, err := research.NewJSONLLogger(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = events.Close() })

	s, err := New(Options{
		Store:      dextest.Store(),
		Research:   controllerWithEvents(t, nil, events),
		Sessions:   research.NewFileSessionStore(t.TempDir()),
		EventsPath: path,
	})
	require.NoError(t, err)

	first := decode[research.State](t, do(t, s, http.MethodPost, "/api/research", `{"prompt":"Is Gyarados a special wall?"}`))
	do(t, s, http.MethodPost, "/api/research", `{"prompt":"Is Skarmory a physical wall?"}`)

	rec := do(t, s, http.MethodGet, "/api/sessions/"+first.ID+"/events", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[[]research.Event](t, rec)
	require.Len(t, got, 5)
	for _, ev := range got {
		assert.Equal(t, first.ID, ev.SessionID)
	}
	assert.Equal(t, research.StageOutline, got[0].Stage)
	assert.Equal(t, research.StageReport, got[4].Stage)

	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/api/sessions/missing/events", "").Code)

	// Without an event log the route still answers, with no events.
	plain := newServer(t, controller(t, nil))
	st := decode[research.State](t, do(t, plain, http.MethodPost, "/api/research", `{"prompt":"x"}`))
	rec = do(t, plain, http.MethodGet, "/api/sessions/"+st.ID+"/events", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]research.Event](t, rec))
}

func TestResearchErrors(t *testing.T) {
	t.Run("rate limited", func(t *testing.T) {
		s := newServer(t, controller(t, fmt.Errorf("quota: %w", research.ErrRateLimited)))
		rec := do(t, s, http.MethodPost, "/api/research", `{"prompt":"anything"}`)
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		st := decode[research.State](t, rec)
		assert.Equal(t, research.StatusFailed, st.Status)
		assert.NotEmpty(t, st.Error)

		rec = do(t, s, http.MethodGet, "/api/sessions/"+st.ID+"/report.html", "")
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("upstream", func(t *testing.T) {
		s := newServer(t, controller(t, fmt.Errorf("boom: %w", research.ErrUpstream)))
		rec := do(t, s, http.MethodPost, "/api/research", `{"prompt":"anything"}`)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})

	t.Run("validation", func(t *testing.T) {
		s := newServer(t, controller(t, nil))
		assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodPost, "/api/research", `{"prompt":"  "}`).Code)
		assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodPost, "/api/research", `{"prompt":1}`).Code)
		assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/api/sessions/missing", "").Code)
		assert.Equal(t, http.StatusNotFound,
			do(t, s, http.MethodPost, "/api/research", `{"prompt":"x","session_id":"missing"}`).Code)
	})

	t.Run("disabled", func(t *testing.T) {
		s := newServer(t, nil)
		assert.Equal(t, http.StatusServiceUnavailable, do(t, s, http.MethodPost, "/api/research", `{"prompt":"x"}`).Code)
		assert.Equal(t, http.StatusServiceUnavailable, do(t, s, http.MethodGet, "/api/sessions/x", "").Code)
	})
}

func TestClarifyThenResearch(t *testing.T) {
	s := newServer(t, controller(t, nil))

	rec := do(t, s, http.MethodPost, "/api/clarify", `{"message":"is gyarados good?"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	first := decode[ClarifyResponse](t, rec)
	assert.Equal(t, []string{"Which game?"}, first.Questions)
	require.NotNil(t, first.Session)
	assert.Equal(t, research.StatusClarifying, first.Session.Status)

	rec = do(t, s, http.MethodPost, "/api/clarify",
		fmt.Sprintf(`{"message":"scarlet","session_id":%q}`, first.Session.ID))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	second := decode[ClarifyResponse](t, rec)
	assert.Equal(t, "Is Gyarados a special wall in Scarlet?", second.RefinedPrompt)

	rec = do(t, s, http.MethodPost, "/api/research", fmt.Sprintf(`{"session_id":%q}`, first.Session.ID))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	st := decode[research.State](t, rec)
	assert.Equal(t, "Is Gyarados a special wall in Scarlet?", st.Prompt)
	assert.Equal(t, research.StatusComplete, st.Status)
}

func TestSearch(t *testing.T) {
	s := newServer(t, nil)

	rec := do(t, s, http.MethodPost, "/api/search", `{"required_immunities":["ground"],"required_resists":["grass","bug"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode[SearchResponse](t, rec)
	assert.Equal(t, 2, out.Count)
	assert.Equal(t, "charizard", out.Results[0].Name)

	rec = do(t, s, http.MethodPost, "/api/search", `{"include_types":["shadow"]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "shadow")

	rec = do(t, s, http.MethodPost, "/api/search", `{"include_tpyes":["fire"]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchUsesConfiguredLimit(t *testing.T) {
	s, err := New(Options{Store: dextest.Store(), SearchLimit: 3})
	require.NoError(t, err)

	rec := do(t, s, http.MethodPost, "/api/search", `{}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 3, decode[SearchResponse](t, rec).Count)

	rec = do(t, s, http.MethodPost, "/api/search", `{"limit":4}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 4, decode[SearchResponse](t, rec).Count)
}

func TestTeam(t *testing.T) {
	s := newServer(t, nil)

	rec := do(t, s, http.MethodPost, "/api/team", `{"names":["charizard","gyarados"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := rec.Body.String()
	assert.Contains(t, body, `"team_summary"`)
	assert.Contains(t, body, `"critical_weaknesses":["electric","rock","water"]`)

	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodPost, "/api/team", `{"names":[]}`).Code)
}

func TestCreature(t *testing.T) {
	s := newServer(t, nil)

	rec := do(t, s, http.MethodGet, "/api/creatures/Gyarados?groups=battle,moves&version=scarlet-violet", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := rec.Body.String()
	assert.Contains(t, body, `"battle_profile"`)
	assert.Contains(t, body, `"scarlet-violet"`)
	assert.NotContains(t, body, `"sword-shield"`)
	assert.False(t, strings.Contains(body, `"summary"`))

	rec = do(t, s, http.MethodGet, "/api/creatures/missingno", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "missingno")

	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodGet, "/api/creatures/pikachu?groups=stats", "").Code)

	rec = do(t, s, http.MethodGet, "/api/creatures/pikachu?groups=evolution", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"line":["pichu","pikachu","raichu"]`)
	assert.Contains(t, rec.Body.String(), `"evolves_from":"pichu"`)
}

func TestNewRequiresStore(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}
