package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/ductrouter/pkg/cache"
	"github.com/matzehuels/ductrouter/pkg/observability"
	"github.com/matzehuels/ductrouter/pkg/render"
	"github.com/matzehuels/ductrouter/pkg/routing"
	"github.com/matzehuels/ductrouter/pkg/scenario"
	"github.com/matzehuels/ductrouter/pkg/store"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it so caching and storage behave the same everywhere.
//
// The Runner keeps no per-run state, so multiple goroutines can share one
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// Store receives runs executed with Options.Store. Nil disables storage.
	Store store.Store
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete route → render → store pipeline with caching.
func (r *Runner) Execute(ctx context.Context, sc *scenario.Scenario, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	req, err := opts.Request(sc)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Name:         sc.Name,
		ScenarioHash: sc.Hash(),
	}

	// Stage 1: Route
	routeStart := time.Now()
	res, hit, err := r.RouteWithCacheInfo(ctx, result.ScenarioHash, req, opts)
	if err != nil {
		return nil, fmt.Errorf("route: %w", err)
	}
	result.Routing = res
	result.CacheInfo.RouteHit = hit
	result.Stats.RouteTime = time.Since(routeStart)
	result.Stats.Terminals = len(res.Routes)
	result.Stats.Routed = len(res.Succeeded())
	result.Stats.Failed = len(res.Failed())
	result.Stats.Cells = res.Cols * res.Rows
	result.Stats.Blocked = res.Blocked

	r.Logger.Info("routed terminals",
		"scenario", sc.Name,
		"routed", result.Stats.Routed,
		"failed", result.Stats.Failed,
		"cached", hit,
		"duration", result.Stats.RouteTime)
	for _, tr := range res.Failed() {
		r.Logger.Warn("terminal not routed", "terminal", tr.Terminal.ID, "err", tr.Err)
	}

	// Stage 2: Render
	renderStart := time.Now()
	artifacts, resultHash, renderHit, err := r.RenderWithCacheInfo(ctx, res, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.ResultHash = resultHash
	result.CacheInfo.RenderHit = renderHit
	result.Stats.RenderTime = time.Since(renderStart)

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	// Stage 3: Store
	if opts.Store && r.Store != nil {
		storeStart := time.Now()
		run, err := store.NewRun(sc.Name, result.ScenarioHash, res)
		if err != nil {
			return nil, fmt.Errorf("store: %w", err)
		}
		if err := r.Store.Save(ctx, run); err != nil {
			return nil, fmt.Errorf("store: %w", err)
		}
		result.RunID = run.ID
		result.Stats.StoreTime = time.Since(storeStart)
		r.Logger.Info("stored run", "id", run.ID)
	}

	return result, nil
}

// RouteWithCacheInfo routes req, serving and filling the route cache, and
// reports whether the result came from cache.
func (r *Runner) RouteWithCacheInfo(ctx context.Context, scenarioHash string, req routing.Request, opts Options) (*routing.Result, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}
	hooks := observability.Cache()
	cacheKey := r.Keyer.RouteKey(scenarioHash, RouteKeyOpts(req))

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			res, err := scenario.UnmarshalResult(data)
			if err == nil {
				hooks.OnCacheHit(ctx, "route")
				return res, true, nil
			}
			r.Logger.Debug("discarding unreadable cached route", "key", cacheKey, "err", err)
		} else if err != nil {
			r.Logger.Debug("route cache unavailable", "err", err)
		}
	}
	hooks.OnCacheMiss(ctx, "route")

	engine := routing.NewEngine(routing.WithWorkers(opts.Workers), routing.WithLogger(r.Logger))
	res, err := engine.Route(ctx, req)
	if err != nil {
		return nil, false, err
	}

	if data, err := scenario.MarshalResult(res); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLRoute); err == nil {
			hooks.OnCacheSet(ctx, "route", len(data))
		}
	}
	return res, false, nil
}

// Route is a convenience wrapper that calls RouteWithCacheInfo and discards
// the cache hit info.
func (r *Runner) Route(ctx context.Context, scenarioHash string, req routing.Request, opts Options) (*routing.Result, error) {
	res, _, err := r.RouteWithCacheInfo(ctx, scenarioHash, req, opts)
	return res, err
}

// RenderWithCacheInfo generates artifacts with caching. It returns the
// artifacts, the content hash of the encoded result and whether every
// artifact came from cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, res *routing.Result, opts Options) (map[string][]byte, string, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, "", false, err
	}
	hooks := observability.Cache()

	// Compute cache key from the encoded result
	encoded, err := scenario.MarshalResult(res)
	if err != nil {
		return nil, "", false, fmt.Errorf("encode result for cache key: %w", err)
	}
	resultHash := cache.Hash(encoded)

	// Try to get all formats from cache
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		cacheKey := r.Keyer.ArtifactKey(resultHash, opts.ArtifactKeyOpts(format))
		data, hit, err := r.Cache.Get(ctx, cacheKey)
		if err != nil || !hit {
			break
		}
		artifacts[format] = data
	}
	if len(artifacts) == len(opts.Formats) {
		hooks.OnCacheHit(ctx, "artifact")
		return artifacts, resultHash, true, nil
	}
	hooks.OnCacheMiss(ctx, "artifact")

	rendered, err := render.Render(ctx, res, opts.Formats, opts.RenderOptions())
	if err != nil {
		return nil, "", false, err
	}

	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(resultHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact); err == nil {
			hooks.OnCacheSet(ctx, "artifact", len(data))
		}
	}
	return rendered, resultHash, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and
// discards the hash and cache hit info.
func (r *Runner) Render(ctx context.Context, res *routing.Result, opts Options) (map[string][]byte, error) {
	artifacts, _, _, err := r.RenderWithCacheInfo(ctx, res, opts)
	return artifacts, err
}

// Close releases resources held by the runner.
func (r *Runner) Close(ctx context.Context) error {
	var storeErr error
	if r.Store != nil {
		storeErr = r.Store.Close(ctx)
	}
	if nc, ok := r.Cache.(*cache.NullCache); ok {
		routes, artifacts := nc.Misses()
		r.Logger.Debug("caching disabled", "route_lookups", routes, "artifact_lookups", artifacts)
	}
	if r.Cache != nil {
		if err := r.Cache.Close(); err != nil {
			return err
		}
	}
	return storeErr
}
