package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/cpunion/dexbot/pkg/dex"
	"github.com/cpunion/dexbot/pkg/report"
	"github.com/cpunion/dexbot/pkg/research"
	"github.com/cpunion/dexbot/pkg/search"
)

var errResearchDisabled = errors.New("research is not configured")

// ResearchRequest starts or resumes a session.
type ResearchRequest struct {
	Prompt    string `json:"prompt"`
	SessionID string `json:"session_id,omitempty"`
}

// ClarifyRequest is one clarification round.
type ClarifyRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// ClarifyResponse reports the outcome of a clarification round.
type ClarifyResponse struct {
	Session       *research.State `json:"session"`
	Questions     []string        `json:"questions,omitempty"`
	RefinedPrompt string          `json:"refined_prompt,omitempty"`
}

// SearchResponse lists search matches.
type SearchResponse struct {
	Results []search.Summary `json:"results"`
	Count   int              `json:"count"`
}

// TeamRequest names the team members to analyze.
type TeamRequest struct {
	Names []string `json:"names"`
}

func (s *Server) researchEnabled() bool {
	return s.research != nil && s.sessions != nil
}

func (s *Server) session(id string) (*research.State, error) {
	if id == "" {
		return research.NewState(), nil
	}
	return s.sessions.Load(id)
}

func (s *Server) handleResearch(w http.ResponseWriter, r *http.Request) (any, int, error) {
	if !s.researchEnabled() {
		return nil, http.StatusServiceUnavailable, errResearchDisabled
	}
	var req ResearchRequest
	if err := decodeBody(w, r, &req); err != nil {
		return nil, statusFor(err), err
	}
	st, err := s.session(req.SessionID)
	if err != nil {
		return nil, statusFor(err), err
	}
	if strings.TrimSpace(req.Prompt) == "" && st.Prompt == "" {
		return nil, http.StatusBadRequest, errors.New("prompt is required")
	}

	runErr := s.research.Run(r.Context(), st, strings.TrimSpace(req.Prompt))
	if err := s.sessions.Save(st); err != nil {
		s.logger.Error("save session", zap.String("session", st.ID), zap.Error(err))
		return nil, http.StatusInternalServerError, err
	}
	if runErr != nil {
		// The failed state carries the error for the client.
		return st, statusFor(runErr), nil
	}
	return st, http.StatusOK, nil
}

func (s *Server) handleClarify(w http.ResponseWriter, r *http.Request) (any, int, error) {
	if !s.researchEnabled() {
		return nil, http.StatusServiceUnavailable, errResearchDisabled
	}
	var req ClarifyRequest
	if err := decodeBody(w, r, &req); err != nil {
		return nil, statusFor(err), err
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, http.StatusBadRequest, errors.New("message is required")
	}
	st, err := s.session(req.SessionID)
	if err != nil {
		return nil, statusFor(err), err
	}

	out, clarifyErr := s.research.Clarify(r.Context(), st, req.Message)
	if err := s.sessions.Save(st); err != nil {
		return nil, http.StatusInternalServerError, err
	}
	if clarifyErr != nil {
		return ClarifyResponse{Session: st}, statusFor(clarifyErr), nil
	}

	resp := ClarifyResponse{Session: st}
	switch o := out.(type) {
	case research.FollowUpQuestions:
		resp.Questions = o.Questions
	case research.RefinedPrompt:
		resp.RefinedPrompt = o.Prompt
	}
	return resp, http.StatusOK, nil
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) (any, int, error) {
	if s.sessions == nil {
		return nil, http.StatusServiceUnavailable, errResearchDisabled
	}
	ids, err := s.sessions.List()
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	return map[string]any{"sessions": ids}, http.StatusOK, nil
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) (any, int, error) {
	if s.sessions == nil {
		return nil, http.StatusServiceUnavailable, errResearchDisabled
	}
	st, err := s.sessions.Load(chi.URLParam(r, "id"))
	if err != nil {
		return nil, statusFor(err), err
	}
	return st, http.StatusOK, nil
}

func (s *Server) handleSessionEvents(w http.ResponseWriter, r *http.Request) (any, int, error) {
	if s.sessions == nil {
		return nil, http.StatusServiceUnavailable, errResearchDisabled
	}
	st, err := s.sessions.Load(chi.URLParam(r, "id"))
	if err != nil {
		return nil, statusFor(err), err
	}
	if s.events == "" {
		return []research.Event{}, http.StatusOK, nil
	}
	events, err := research.ReadEventsFile(s.events, st.ID)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	return events, http.StatusOK, nil
}

func (s *Server) handleReportHTML(w http.ResponseWriter, r *http.Request) {
	if s.sessions == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": errResearchDisabled.Error()})
		return
	}
	st, err := s.sessions.Load(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, statusFor(err), map[string]any{"error": err.Error()})
		return
	}
	if st.Status != research.StatusComplete {
		writeJSON(w, http.StatusConflict, map[string]any{"error": "session has no report", "status": st.Status})
		return
	}
	page, err := report.HTML(st)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) (any, int, error) {
	var c search.Criteria
	if err := decodeBody(w, r, &c); err != nil {
		return nil, statusFor(err), err
	}
	rows, err := s.search.Search(r.Context(), c)
	if err != nil {
		return nil, statusFor(err), err
	}
	return SearchResponse{Results: rows, Count: len(rows)}, http.StatusOK, nil
}

func (s *Server) handleTeam(w http.ResponseWriter, r *http.Request) (any, int, error) {
	var req TeamRequest
	if err := decodeBody(w, r, &req); err != nil {
		return nil, statusFor(err), err
	}
	if len(req.Names) == 0 {
		return nil, http.StatusBadRequest, errors.New("names is required")
	}
	a, err := s.team.Analyze(r.Context(), req.Names)
	if err != nil {
		return nil, statusFor(err), err
	}
	return a, http.StatusOK, nil
}

// handleCreature looks one creature up. Query parameters: groups (comma
// separated data groups) and version.
func (s *Server) handleCreature(w http.ResponseWriter, r *http.Request) (any, int, error) {
	name := chi.URLParam(r, "name")
	opts := dex.LookupOptions{GameVersion: r.URL.Query().Get("version")}
	if raw := r.URL.Query().Get("groups"); raw != "" {
		for _, g := range strings.Split(raw, ",") {
			group, ok := dex.ParseGroup(strings.TrimSpace(g))
			if !ok {
				return nil, http.StatusBadRequest, errors.New("unknown data group " + g)
			}
			opts.Groups = append(opts.Groups, group)
		}
	}

	entries, err := dex.Lookup(r.Context(), s.store, []string{name}, opts)
	if err != nil {
		return nil, statusFor(err), err
	}
	for _, e := range entries {
		if !e.Found() {
			return nil, statusFor(e.Err), e.Err
		}
		return e, http.StatusOK, nil
	}
	return nil, http.StatusNotFound, &dex.NotFoundError{Name: name}
}
