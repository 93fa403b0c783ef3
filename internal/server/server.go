// Package server exposes the lead pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/fidelis3/Warm-Lead-Sourcer/internal/export"
	"github.com/fidelis3/Warm-Lead-Sourcer/internal/model"
	"github.com/fidelis3/Warm-Lead-Sourcer/internal/pipeline"
	"github.com/fidelis3/Warm-Lead-Sourcer/internal/resilience"
	"github.com/fidelis3/Warm-Lead-Sourcer/internal/store"
)

// Runner executes a lead sourcing request.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) ([]model.EnrichedProfile, error)
}

// CacheAdmin lists and prunes the search cache.
type CacheAdmin interface {
	List(ctx context.Context, filter store.SearchFilter) ([]model.CachedSearch, error)
	Prune(ctx context.Context) (int, error)
}

// BreakerReporter exposes the state of the upstream circuit breakers.
type BreakerReporter interface {
	States() map[string]resilience.CircuitState
}

// Option configures a Server.
type Option func(*Server)

// WithAllowedOrigins sets the CORS allow list. Default is "*".
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.origins = origins
		}
	}
}

// WithBreakers reports breaker states on /health.
func WithBreakers(b BreakerReporter) Option {
	return func(s *Server) { s.breakers = b }
}

// WithPlaceholder sets the export placeholder for missing values.
func WithPlaceholder(p string) Option {
	return func(s *Server) { s.placeholder = p }
}

// Server holds the HTTP handlers.
type Server struct {
	runner      Runner
	cache       CacheAdmin
	origins     []string
	placeholder string
	breakers    BreakerReporter
}

// New creates a Server. cache may be nil, in which case the cache endpoints
// answer 503.
func New(r Runner, cache CacheAdmin, opts ...Option) *Server {
	s := &Server{
		runner:      r,
		cache:       cache,
		origins:     []string{"*"},
		placeholder: export.DefaultPlaceholder,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{requestIDHeader, "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "Service is running"})
	})
	r.Get("/health", s.handleHealth)

	r.Get("/source_leads", s.handleSourceLeads)
	r.Get("/source_leads/export", s.handleExport)

	r.Route("/cache", func(r chi.Router) {
		r.Get("/searches", s.handleListSearches)
		r.Delete("/expired", s.handlePrune)
	})

	return r
}

type healthBody struct {
	Status   string            `json:"status"`
	Breakers map[string]string `json:"breakers,omitempty"`
}

// handleHealth reports "degraded" while any upstream circuit is not closed.
// The process itself is up, so the status code stays 200.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	body := healthBody{Status: "ok"}
	if s.breakers != nil {
		states := s.breakers.States()
		if len(states) > 0 {
			body.Breakers = make(map[string]string, len(states))
		}
		for name, st := range states {
			body.Breakers[name] = st.String()
			if st != resilience.CircuitClosed {
				body.Status = "degraded"
			}
		}
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleSourceLeads(w http.ResponseWriter, r *http.Request) {
	req, err := parseRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	leads, err := s.runner.Run(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if leads == nil {
		leads = []model.EnrichedProfile{}
	}
	writeJSON(w, http.StatusOK, leads)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, r, &pipeline.ValidationError{Message: "format must be csv or xlsx"})
		return
	}
	req, err := parseRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	leads, err := s.runner.Run(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="leads.%s"`, format))
	w.WriteHeader(http.StatusOK)
	if err := format.Write(w, leads, s.placeholder); err != nil {
		zap.L().Error("server: write export failed", zap.String("request_id", RequestIDFrom(r.Context())), zap.Error(err))
	}
}

func (s *Server) handleListSearches(w http.ResponseWriter, r *http.Request) {
	if s.cache == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "cache is not configured", Kind: "unavailable"})
		return
	}

	q := r.URL.Query()
	filter := store.SearchFilter{
		Keywords: q.Get("keywords"),
		Country:  q.Get("country"),
	}
	var err error
	if filter.Limit, err = intParam(q.Get("limit"), 0); err != nil {
		writeError(w, r, &pipeline.ValidationError{Message: "limit must be an integer"})
		return
	}
	if filter.Offset, err = intParam(q.Get("offset"), 0); err != nil {
		writeError(w, r, &pipeline.ValidationError{Message: "offset must be an integer"})
		return
	}
	if since := q.Get("since"); since != "" {
		if filter.Since, err = time.Parse(time.RFC3339, since); err != nil {
			writeError(w, r, &pipeline.ValidationError{Message: "since must be an RFC 3339 timestamp"})
			return
		}
	}

	rows, err := s.cache.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rows == nil {
		rows = []model.CachedSearch{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handlePrune(w http.ResponseWriter, r *http.Request) {
	if s.cache == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "cache is not configured", Kind: "unavailable"})
		return
	}
	n, err := s.cache.Prune(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": n})
}

func parseRequest(r *http.Request) (pipeline.Request, error) {
	q := r.URL.Query()
	page, err := intParam(q.Get("page"), 1)
	if err != nil {
		return pipeline.Request{}, &pipeline.ValidationError{Message: "page must be an integer"}
	}
	return pipeline.Request{
		Link:     q.Get("link"),
		Keywords: q.Get("keywords"),
		Country:  q.Get("country"),
		Page:     page,
	}, nil
}

func intParam(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response failed", zap.Error(err))
	}
}

// Serve listens on port until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, h http.Handler, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("server: listening", zap.Int("port", port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return eris.Wrap(err, "server: listen")
	case <-ctx.Done():
	}

	zap.L().Info("server: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "server: shutdown")
	}
	return nil
}
