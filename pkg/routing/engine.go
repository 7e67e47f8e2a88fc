// Package routing connects a set of terminals to a trunk duct.
//
// An [Engine] derives one search region from the trunk and terminals, builds
// a single [grid.Grid] over it, marks the obstacles (inflated by the
// requested clearance) and runs one independent [pathfind.FindPath] per
// terminal from a deterministic branch point on the trunk face.
//
// Per-terminal failures (unreachable, off-grid, budget exhausted) are
// recorded on the terminal's route and do not stop the run. Invalid input,
// a degenerate region and context cancellation abort it.
//
// Terminal searches only read the grid, so an engine built with
// [WithWorkers] routes them in parallel.
package routing

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/ductrouter/pkg/errors"
	"github.com/matzehuels/ductrouter/pkg/geom"
	"github.com/matzehuels/ductrouter/pkg/grid"
	"github.com/matzehuels/ductrouter/pkg/observability"
	"github.com/matzehuels/ductrouter/pkg/pathfind"
)

// Engine routes branch ducts. The zero value is not usable; call NewEngine.
type Engine struct {
	workers int
	logger  *log.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers sets how many terminals are searched concurrently. Values
// below 1 mean sequential routing.
func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = max(n, 1) }
}

// WithLogger sets the logger for the engine and its searches.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine returns an engine that routes terminals one at a time unless
// WithWorkers says otherwise.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{workers: 1, logger: log.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Route runs every terminal of req and returns one route per terminal in
// input order.
func (e *Engine) Route(ctx context.Context, req Request) (*Result, error) {
	began := time.Now()
	hooks := observability.Routing()
	hooks.OnRouteStart(ctx, len(req.Terminals))

	res, err := e.route(ctx, req)
	ok, failed := 0, 0
	if res != nil {
		res.Elapsed = time.Since(began)
		ok, failed = len(res.Succeeded()), len(res.Failed())
	}
	hooks.OnRouteComplete(ctx, ok, failed, time.Since(began), err)
	if err != nil {
		return nil, err
	}
	e.logger.Info("routing complete", "routed", ok, "failed", failed, "elapsed", res.Elapsed.Round(time.Millisecond))
	return res, nil
}

func (e *Engine) route(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	bounds, elevation := SearchBounds(req)
	lo, hi := bounds.Min.WithZ(elevation), bounds.Max.WithZ(elevation)
	g, err := grid.New(lo, hi, req.Step)
	if err != nil {
		return nil, fmt.Errorf("build grid: %w", err)
	}

	obstacles := make([]geom.Rect, len(req.Obstacles))
	for i, o := range req.Obstacles {
		obstacles[i] = o.Inflate(req.Clearance)
	}
	blocked := g.MarkObstacles(obstacles...)
	e.logger.Debug("grid ready", "cols", g.Cols(), "rows", g.Rows(), "step", req.Step,
		"elevation", elevation, "blocked", blocked)

	res := &Result{
		Bounds:    g.Bounds(),
		Step:      req.Step,
		Cols:      g.Cols(),
		Rows:      g.Rows(),
		Elevation: elevation,
		Trunk:     req.Trunk,
		Obstacles: obstacles,
		Blocked:   blocked,
		Routes:    make([]TerminalRoute, len(req.Terminals)),
		grid:      g,
	}

	opts := []pathfind.Option{
		pathfind.WithMaxExpansions(req.MaxExpansions),
		pathfind.WithLogger(e.logger),
	}
	if req.TurnPenalty != 0 {
		opts = append(opts, pathfind.WithTurnPenalty(req.TurnPenalty))
	}

	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(e.workers)
	for i, t := range req.Terminals {
		grp.Go(func() error {
			tr, err := e.routeTerminal(gctx, g, req.Trunk, t, opts)
			if err != nil {
				return err
			}
			res.Routes[i] = tr
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}

func (e *Engine) routeTerminal(ctx context.Context, g *grid.Grid, trunk geom.Rect, t Terminal, opts []pathfind.Option) (TerminalRoute, error) {
	began := time.Now()
	start, heading := BranchPoint(trunk, t.Position)
	start = start.WithZ(g.Elevation())
	goal := t.Position.WithZ(g.Elevation())

	opts = append(opts[:len(opts):len(opts)], pathfind.WithInitialHeading(heading))
	path, err := pathfind.FindPath(ctx, g, start, goal, opts...)
	tr := TerminalRoute{
		Terminal: t,
		Start:    start,
		Heading:  heading,
		Path:     path,
		Err:      err,
		Elapsed:  time.Since(began),
	}
	observability.Routing().OnTerminalRouted(ctx, t.ID, tr.Elapsed, err)

	switch {
	case err == nil:
		e.logger.Debug("terminal routed", "terminal", t.ID, "steps", path.Len(),
			"turns", path.Turns(), "expanded", path.Stats.Expanded)
		return tr, nil
	case errors.Recoverable(err):
		e.logger.Warn("terminal not routed", "terminal", t.ID, "reason", errors.GetCode(err))
		return tr, nil
	default:
		return tr, fmt.Errorf("terminal %s: %w", t.ID, err)
	}
}

// SearchBounds returns the plan region a request is routed in and the
// elevation of the routing plane.
//
// The region is the union of the trunk and all terminals, scaled about its
// center by the boundary multiplier and then padded on each side by one
// step plus the clearance, so a terminal on the union's edge still maps to
// a cell. The elevation is the trunk's mid-height.
func SearchBounds(req Request) (geom.Rect, float64) {
	r := req.Trunk
	for _, t := range req.Terminals {
		r = r.Extend(t.Position)
	}
	r = r.Scale(req.multiplier()).Inflate(req.Step + req.Clearance)
	return r, (req.Trunk.Min.Z + req.Trunk.Max.Z) / 2
}

// BranchPoint picks where a terminal's branch leaves the trunk and the axis
// the branch should leave along.
//
// The terminal is projected onto the trunk's centerline along its long
// axis, clamped into the trunk's extent, and then moved out to the trunk
// face on the terminal's side. The branch heading is perpendicular to the
// long axis.
func BranchPoint(trunk geom.Rect, terminal geom.Point) (geom.Point, grid.Orientation) {
	c := trunk.Center()
	if trunk.Width() >= trunk.Height() {
		p := geom.Point{X: clamp(terminal.X, trunk.Min.X, trunk.Max.X), Y: trunk.Min.Y, Z: c.Z}
		if terminal.Y >= c.Y {
			p.Y = trunk.Max.Y
		}
		return p, grid.Vertical
	}
	p := geom.Point{X: trunk.Min.X, Y: clamp(terminal.Y, trunk.Min.Y, trunk.Max.Y), Z: c.Z}
	if terminal.X >= c.X {
		p.X = trunk.Max.X
	}
	return p, grid.Horizontal
}

func clamp(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}
