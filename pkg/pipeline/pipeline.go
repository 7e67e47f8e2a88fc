// Package pipeline runs a scenario through routing, rendering and storage.
//
// The same pipeline backs the CLI and the HTTP API so both cache, render and
// store runs identically.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Route: build a routing request from the scenario plus option
//     overrides, and route every terminal
//  2. Render: produce the requested artifacts (json, txt, svg, png)
//  3. Store: optionally persist the run so it can be listed and re-rendered
//
// Routing results and artifacts are cached by content: the route key hashes
// the scenario and every option that changes the result, the artifact key
// hashes the encoded result and the render options.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	sc, _ := scenario.Load("level3.toml")
//	result, err := runner.Execute(ctx, sc, pipeline.Options{
//	    Formats: []string{"svg", "txt"},
//	})
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/ductrouter/pkg/cache"
	"github.com/matzehuels/ductrouter/pkg/errors"
	"github.com/matzehuels/ductrouter/pkg/pathfind"
	"github.com/matzehuels/ductrouter/pkg/render"
	"github.com/matzehuels/ductrouter/pkg/routing"
	"github.com/matzehuels/ductrouter/pkg/scenario"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultStep is the grid cell size used when neither the scenario nor
	// the options set one.
	DefaultStep = 1.0

	// DefaultTurnPenalty is the cost of one elbow.
	DefaultTurnPenalty = pathfind.DefaultTurnPenalty

	// DefaultBoundaryMultiplier keeps the search region tight around the
	// trunk and terminals.
	DefaultBoundaryMultiplier = routing.DefaultBoundaryMultiplier

	// DefaultScale is the drawing scale of svg and png artifacts.
	DefaultScale = 1.0
)

// DefaultWorkers is the number of terminals routed concurrently.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// DefaultFormats are rendered when no format is requested.
var DefaultFormats = []string{render.FormatJSON}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options configures one pipeline run. Routing fields override the
// scenario's values when non-zero. The struct is JSON-serializable for API
// requests.
type Options struct {
	// Routing overrides
	Step               float64 `json:"step,omitempty"`
	Clearance          float64 `json:"clearance,omitempty"`
	BoundaryMultiplier float64 `json:"boundary_multiplier,omitempty"`
	TurnPenalty        int     `json:"turn_penalty,omitempty"`
	MaxExpansions      int     `json:"max_expansions,omitempty"`
	Workers            int     `json:"workers,omitempty"`
	Refresh            bool    `json:"refresh,omitempty"`

	// Render options
	Formats   []string `json:"formats,omitempty"`
	Scale     float64  `json:"scale,omitempty"`
	ShowCosts bool     `json:"show_costs,omitempty"`

	// Store saves the run when the runner has a store.
	Store bool `json:"store,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Name is the scenario name.
	Name string

	// ScenarioHash is the content hash of the scenario.
	ScenarioHash string

	// Routing is the routing result.
	Routing *routing.Result

	// ResultHash is the content hash of the encoded routing result.
	ResultHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// RunID is set when the run was stored.
	RunID string

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Terminals  int
	Routed     int
	Failed     int
	Cells      int
	Blocked    int
	RouteTime  time.Duration
	RenderTime time.Duration
	StoreTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	RouteHit  bool // Whether the routing result came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	return render.ValidateFormat(format)
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks the options and fills in defaults. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := errors.ValidateNonNegative("step", o.Step); err != nil {
		return err
	}
	if err := errors.ValidateNonNegative("clearance", o.Clearance); err != nil {
		return err
	}
	if err := errors.ValidateNonNegative("boundary multiplier", o.BoundaryMultiplier); err != nil {
		return err
	}
	if err := errors.ValidateNonNegative("scale", o.Scale); err != nil {
		return err
	}
	if o.MaxExpansions < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "max expansions cannot be negative")
	}
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = DefaultFormats
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
}

// Request builds the routing request for sc with the option overrides
// applied and validates it.
func (o *Options) Request(sc *scenario.Scenario) (routing.Request, error) {
	req, err := sc.Request()
	if err != nil {
		return routing.Request{}, err
	}
	if o.Step > 0 {
		req.Step = o.Step
	}
	if req.Step == 0 {
		req.Step = DefaultStep
	}
	if o.Clearance > 0 {
		req.Clearance = o.Clearance
	}
	if o.BoundaryMultiplier > 0 {
		req.BoundaryMultiplier = o.BoundaryMultiplier
	}
	if o.TurnPenalty != 0 {
		req.TurnPenalty = o.TurnPenalty
	}
	if o.MaxExpansions > 0 {
		req.MaxExpansions = o.MaxExpansions
	}
	if err := req.Validate(); err != nil {
		return routing.Request{}, fmt.Errorf("scenario %q: %w", sc.Name, err)
	}
	return req, nil
}

// RenderOptions returns the options the renderers take.
func (o *Options) RenderOptions() render.Options {
	return render.Options{Scale: o.Scale, ShowCosts: o.ShowCosts}
}

// RouteKeyOpts returns cache key options for the routing stage.
func RouteKeyOpts(req routing.Request) cache.RouteKeyOpts {
	return cache.RouteKeyOpts{
		Step:               req.Step,
		Clearance:          req.Clearance,
		BoundaryMultiplier: req.BoundaryMultiplier,
		TurnPenalty:        req.TurnPenalty,
		MaxExpansions:      req.MaxExpansions,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:    format,
		Scale:     o.Scale,
		ShowCosts: o.ShowCosts,
	}
}
