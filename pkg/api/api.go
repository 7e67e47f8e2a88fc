// Package api serves the routing pipeline over HTTP.
//
// Routes:
//
//	POST /v1/routes                        route a JSON scenario and store the run
//	GET  /v1/runs                          list stored runs, newest first
//	GET  /v1/runs/{id}                     one run with its routing result
//	GET  /v1/runs/{id}/artifacts/{format}  render a stored run (json, txt, svg, png)
//	GET  /healthz                          liveness
//
// Errors are JSON objects {"error": "...", "code": "..."} whose status
// follows the error code: invalid input is 400, unknown runs 404 and
// cancelled or timed-out routing 504.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/ductrouter/pkg/errors"
	"github.com/matzehuels/ductrouter/pkg/observability"
	"github.com/matzehuels/ductrouter/pkg/pipeline"
	"github.com/matzehuels/ductrouter/pkg/store"
)

// DefaultMaxBodyBytes limits scenario uploads.
const DefaultMaxBodyBytes = 4 << 20

// DefaultRouteTimeout bounds a single POST /v1/routes request.
const DefaultRouteTimeout = 60 * time.Second

// Server handles API requests. Runs are always stored, so a server needs
// both a runner and a store.
type Server struct {
	runner  *pipeline.Runner
	store   store.Store
	logger  *log.Logger
	timeout time.Duration
	maxBody int64
}

// New creates a server. The runner's Store is set to st.
func New(runner *pipeline.Runner, st store.Store, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	runner.Store = st
	return &Server{
		runner:  runner,
		store:   st,
		logger:  logger,
		timeout: DefaultRouteTimeout,
		maxBody: DefaultMaxBodyBytes,
	}
}

// Handler returns the API's router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/routes", s.handleRoute)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
		r.Get("/runs/{id}/artifacts/{format}", s.handleArtifact)
	})
	return r
}

// observe reports each request to the HTTP hooks and logs it. The route
// pattern rather than the raw path is reported, so run IDs do not explode
// metric cardinality.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hooks := observability.HTTP()
		start := time.Now()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		pattern := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			pattern = rc.RoutePattern()
		}
		elapsed := time.Since(start)
		hooks.OnResponse(r.Context(), r.Method, pattern, status, elapsed)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path,
			"status", status, "duration", elapsed, "request_id", middleware.GetReqID(r.Context()))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, code errors.Code, msg string) {
	writeJSON(w, status, map[string]string{"error": msg, "code": string(code)})
}

// writeError maps err's code to a status.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSONError(w, status, code, errors.UserMessage(err))
}

func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidScenario, errors.ErrCodeInvalidFormat,
		errors.ErrCodeInvalidBounds:
		return http.StatusBadRequest
	case errors.ErrCodeRunNotFound:
		return http.StatusNotFound
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}
