// Package api serves research sessions and the analysis engine over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/cpunion/dexbot/pkg/dex"
	"github.com/cpunion/dexbot/pkg/research"
	"github.com/cpunion/dexbot/pkg/search"
	"github.com/cpunion/dexbot/pkg/team"
	"github.com/cpunion/dexbot/pkg/typechart"
)

// Researcher runs research sessions. *research.Controller implements it.
type Researcher interface {
	Run(ctx context.Context, s *research.State, prompt string) error
	Clarify(ctx context.Context, s *research.State, message string) (research.ClarifyOutcome, error)
}

// Options wires a Server. Research and Sessions may be nil, in which case
// the research routes answer 503.
type Options struct {
	Store    dex.Store
	Research Researcher
	Sessions research.SessionStore
	Logger   *zap.Logger

	// EventsPath is the JSONL event log read by the session events route.
	EventsPath string
	// SearchLimit caps searches that leave limit unset; zero keeps search.DefaultLimit.
	SearchLimit int
}

// Server is the HTTP API.
type Server struct {
	store    dex.Store
	research Researcher
	sessions research.SessionStore
	events   string
	search   *search.Engine
	team     *team.Analyzer
	logger   *zap.Logger
	router   chi.Router
}

// New builds a Server and its routes.
func New(opts Options) (*Server, error) {
	if opts.Store == nil {
		return nil, errors.New("api: store is required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	s := &Server{
		store:    opts.Store,
		research: opts.Research,
		sessions: opts.Sessions,
		events:   opts.EventsPath,
		search:   search.NewEngine(opts.Store, opts.Logger, search.WithDefaultLimit(opts.SearchLimit)),
		team:     team.New(opts.Store, opts.Logger),
		logger:   opts.Logger,
		router:   chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(s.logRequest)
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", withJSON(func(w http.ResponseWriter, r *http.Request) (any, int, error) {
		return map[string]any{"status": "ok"}, http.StatusOK, nil
	}))

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/research", withJSON(s.handleResearch))
		r.Post("/clarify", withJSON(s.handleClarify))
		r.Get("/sessions", withJSON(s.handleListSessions))
		r.Get("/sessions/{id}", withJSON(s.handleGetSession))
		r.Get("/sessions/{id}/events", withJSON(s.handleSessionEvents))
		r.Get("/sessions/{id}/report.html", s.handleReportHTML)
		r.Post("/search", withJSON(s.handleSearch))
		r.Post("/team", withJSON(s.handleTeam))
		r.Get("/creatures/{name}", withJSON(s.handleCreature))
	})
}

func (s *Server) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

func withJSON(handler func(http.ResponseWriter, *http.Request) (any, int, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, status, err := handler(w, r)
		if err != nil {
			writeJSON(w, status, map[string]any{
				"error": err.Error(),
			})
			return
		}
		writeJSON(w, status, payload)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &badRequestError{err}
	}
	return nil
}

type badRequestError struct{ err error }

func (e *badRequestError) Error() string { return "invalid request body: " + e.err.Error() }
func (e *badRequestError) Unwrap() error { return e.err }

// statusFor maps domain and research errors onto HTTP statuses.
func statusFor(err error) int {
	var (
		badReq   *badRequestError
		criteria *search.InvalidCriteriaError
		typ      *typechart.InvalidTypeError
	)
	switch {
	case errors.As(err, &badReq), errors.As(err, &criteria), errors.As(err, &typ):
		return http.StatusBadRequest
	case errors.Is(err, dex.ErrNotFound), errors.Is(err, research.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	}
	switch research.Classify(err) {
	case research.CategoryRateLimited:
		return http.StatusTooManyRequests
	case research.CategoryUpstream, research.CategoryMalformedOutput:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
