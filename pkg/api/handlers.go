package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/ductrouter/pkg/buildinfo"
	"github.com/matzehuels/ductrouter/pkg/errors"
	"github.com/matzehuels/ductrouter/pkg/pipeline"
	"github.com/matzehuels/ductrouter/pkg/render"
	"github.com/matzehuels/ductrouter/pkg/scenario"
	"github.com/matzehuels/ductrouter/pkg/store"
)

// RunSummary describes a stored run without its result.
type RunSummary struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
	ScenarioHash string    `json:"scenario_hash"`
	Terminals    int       `json:"terminals"`
	Routed       int       `json:"routed"`
	Failed       int       `json:"failed"`
}

// RunResponse is a run together with its encoded routing result.
type RunResponse struct {
	RunSummary
	Cached bool            `json:"cached,omitempty"`
	Result json.RawMessage `json:"result"`
}

// RunList is the body of GET /v1/runs.
type RunList struct {
	Runs  []RunSummary `json:"runs"`
	Count int          `json:"count"`
}

func summaryOf(run *store.Run) RunSummary {
	return RunSummary{
		ID:           run.ID,
		Name:         run.Name,
		CreatedAt:    run.CreatedAt,
		ScenarioHash: run.ScenarioHash,
		Terminals:    run.Terminals,
		Routed:       run.Routed,
		Failed:       run.Failed,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"build":     buildinfo.Get(),
	})
}

// handleRoute handles POST /v1/routes. The body is a JSON scenario.
// Query params:
//   - turn_penalty, max_expansions (optional): override the scenario
//   - refresh (optional): bypass the route cache
func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	sc, err := scenario.Decode(r.Body, scenario.FormatJSON)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if sc.Name == "" {
		sc.Name = "api"
	}

	opts := pipeline.Options{Formats: []string{render.FormatJSON}, Store: true}
	q := r.URL.Query()
	if opts.TurnPenalty, err = intParam(q.Get("turn_penalty")); err != nil {
		s.writeError(w, err)
		return
	}
	if opts.MaxExpansions, err = intParam(q.Get("max_expansions")); err != nil {
		s.writeError(w, err)
		return
	}
	opts.Refresh = q.Get("refresh") == "true"

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()
	res, err := s.runner.Execute(ctx, sc, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}

	run, err := s.store.Get(ctx, res.RunID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, RunResponse{
		RunSummary: summaryOf(run),
		Cached:     res.CacheInfo.RouteHit,
		Result:     run.Result,
	})
}

// handleListRuns handles GET /v1/runs.
// Query params:
//   - limit (optional): max results (default 50, at most 1000)
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 1000 {
			limit = parsed
		}
	}
	runs, err := s.store.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := RunList{Runs: make([]RunSummary, 0, len(runs)), Count: len(runs)}
	for _, run := range runs {
		out.Runs = append(out.Runs, summaryOf(run))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleGetRun handles GET /v1/runs/{id}.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, RunResponse{RunSummary: summaryOf(run), Result: run.Result})
}

// handleArtifact handles GET /v1/runs/{id}/artifacts/{format}.
// Query params:
//   - scale (optional): drawing scale for svg and png
//   - costs (optional): "true" labels corners with their F values
func (s *Server) handleArtifact(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	if err := pipeline.ValidateFormat(format); err != nil {
		s.writeError(w, err)
		return
	}
	run, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := run.Decode()
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "decode run %s", run.ID))
		return
	}

	opts := pipeline.Options{Formats: []string{format}, ShowCosts: r.URL.Query().Get("costs") == "true"}
	if sc := r.URL.Query().Get("scale"); sc != "" {
		v, err := strconv.ParseFloat(sc, 64)
		if err != nil || v <= 0 || v > 10 {
			writeJSONError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "scale must be in (0, 10]")
			return
		}
		opts.Scale = v
	}

	artifacts, err := s.runner.Render(r.Context(), res, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifacts[format])
}

var contentTypes = map[string]string{
	render.FormatJSON: "application/json",
	render.FormatText: "text/plain; charset=utf-8",
	render.FormatSVG:  "image/svg+xml",
	render.FormatPNG:  "image/png",
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid integer %q", v)
	}
	return n, nil
}
