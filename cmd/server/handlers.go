package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"token-pulse/internal/domain"
	"token-pulse/internal/observability"
	"token-pulse/internal/session"
	"token-pulse/internal/storage"
	"token-pulse/internal/summary"
	"token-pulse/internal/view"
)

// StatusResponse is the response for /status endpoint.
type StatusResponse struct {
	Status      string          `json:"status"`
	Uptime      string          `json:"uptime"`
	Session     session.Status  `json:"session"`
	FeedClients int             `json:"feed_clients"`
	LastSummary *summary.Report `json:"last_summary,omitempty"`
}

// TokensResponse is the response for /tokens endpoint.
type TokensResponse struct {
	SessionID string          `json:"session_id"`
	Ticks     uint64          `json:"ticks"`
	Filter    domain.Filter   `json:"filter"`
	Sort      string          `json:"sort,omitempty"`
	Order     string          `json:"order,omitempty"`
	Tokens    []*domain.Token `json:"tokens"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Prometheus metrics
	mux.Handle("/metrics", observability.Handler())

	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /tokens", s.handleTokens)
	mux.HandleFunc("GET /tokens/{id}", s.handleToken)
	mux.HandleFunc("GET /summary", s.handleSummary)
	mux.HandleFunc("POST /reset", s.handleReset)
	mux.HandleFunc("POST /step", s.handleStep)

	// Live feed
	mux.Handle("/ws", s.hub)

	return mux
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Status:      "running",
		Uptime:      time.Since(s.startedAt).Truncate(time.Second).String(),
		Session:     s.session.Status(r.Context()),
		FeedClients: s.hub.Clients(),
	}
	if s.reporter != nil {
		resp.LastSummary = s.reporter.Last()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleTokens returns the live set projected by the filter, sort and
// order query parameters.
func (s *Server) handleTokens(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := domain.FilterAll
	if v := q.Get("filter"); v != "" {
		filter = domain.Filter(v)
		if !filter.Valid() {
			writeError(w, http.StatusBadRequest, view.ErrUnknownFilter)
			return
		}
	}
	field := domain.SortField(q.Get("sort"))
	if field != domain.SortNone && !view.KnownSortField(field) {
		writeError(w, http.StatusBadRequest, errors.New("unknown sort field"))
		return
	}
	order := domain.SortOrder(q.Get("order"))
	if order != "" && order != domain.SortAsc && order != domain.SortDesc {
		writeError(w, http.StatusBadRequest, errors.New("order must be asc or desc"))
		return
	}

	tokens, err := s.session.Snapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, TokensResponse{
		SessionID: s.session.ID(),
		Ticks:     s.session.Ticks(),
		Filter:    filter,
		Sort:      string(field),
		Order:     string(order),
		Tokens:    view.Project(tokens, filter, field, order),
	})
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	tok, err := s.session.Token(r.Context(), r.PathValue("id"))
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, tok)
}

// handleSummary returns a freshly built report.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if s.reporter == nil {
		writeError(w, http.StatusNotFound, errors.New("summary disabled"))
		return
	}
	rep, err := s.reporter.RunNow(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Reset(r.Context()); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	s.logger.Printf("Session reset to %s", s.session.ID())
	writeJSON(w, http.StatusOK, s.session.Status(r.Context()))
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	res, err := s.session.Step(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ticks":         s.session.Ticks(),
		"mutated":       res.Mutated,
		"price_skipped": res.PriceSkipped,
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrNotRunning), errors.Is(err, session.ErrStopped):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, errorResponse{Error: err.Error()})
}
