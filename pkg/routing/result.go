package routing

import (
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/ductrouter/pkg/errors"
	"github.com/matzehuels/ductrouter/pkg/geom"
	"github.com/matzehuels/ductrouter/pkg/grid"
	"github.com/matzehuels/ductrouter/pkg/pathfind"
)

// TerminalRoute is the outcome for one terminal. Exactly one of Path and Err
// is set.
type TerminalRoute struct {
	Terminal Terminal
	Start    geom.Point
	Heading  grid.Orientation
	Path     *pathfind.Path
	Err      error
	Elapsed  time.Duration
}

// OK reports whether the terminal was routed.
func (r TerminalRoute) OK() bool { return r.Err == nil && r.Path != nil }

// Result holds the region a run was routed in and one route per terminal.
type Result struct {
	Bounds    geom.Rect
	Step      float64
	Cols      int
	Rows      int
	Elevation float64
	Trunk     geom.Rect
	Obstacles []geom.Rect // as marked, after clearance inflation
	Blocked   int
	Routes    []TerminalRoute
	Elapsed   time.Duration

	grid *grid.Grid
}

// Grid returns the grid the run was searched on. Results decoded from disk
// carry no grid, so one is rebuilt from the bounds, step and obstacles.
func (r *Result) Grid() (*grid.Grid, error) {
	if r.grid != nil {
		return r.grid, nil
	}
	g, err := grid.New(r.Bounds.Min, r.Bounds.Max, r.Step)
	if err != nil {
		return nil, err
	}
	g.MarkObstacles(r.Obstacles...)
	r.grid = g
	return g, nil
}

// ByTerminal indexes the routes by terminal ID.
func (r *Result) ByTerminal() map[string]TerminalRoute {
	m := make(map[string]TerminalRoute, len(r.Routes))
	for _, tr := range r.Routes {
		m[tr.Terminal.ID] = tr
	}
	return m
}

// Succeeded returns the routed terminals in input order.
func (r *Result) Succeeded() []TerminalRoute {
	var out []TerminalRoute
	for _, tr := range r.Routes {
		if tr.OK() {
			out = append(out, tr)
		}
	}
	return out
}

// Failed returns the terminals that could not be routed, in input order.
func (r *Result) Failed() []TerminalRoute {
	var out []TerminalRoute
	for _, tr := range r.Routes {
		if !tr.OK() {
			out = append(out, tr)
		}
	}
	return out
}

// TotalLength sums the planar length of all routed paths.
func (r *Result) TotalLength() float64 {
	total := 0.0
	for _, tr := range r.Succeeded() {
		total += float64(tr.Path.Len()) * r.Step
	}
	return total
}

// Summary describes the derived search region and every terminal outcome.
func (r *Result) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "bounds     %v\n", r.Bounds)
	fmt.Fprintf(&b, "grid       %d x %d cells at step %g\n", r.Cols, r.Rows, r.Step)
	fmt.Fprintf(&b, "elevation  %g\n", r.Elevation)
	fmt.Fprintf(&b, "obstacles  %d (%d cells blocked)\n", len(r.Obstacles), r.Blocked)
	for _, tr := range r.Routes {
		if tr.OK() {
			departure := ""
			if tr.Path.DepartureTurn() {
				departure = " (+1 at start)"
			}
			fmt.Fprintf(&b, "  %-16s %3d steps  %d turns%s  cost %d  from %v\n",
				tr.Terminal.ID, tr.Path.Len(), tr.Path.Turns(), departure, tr.Path.Cost(), tr.Start)
			continue
		}
		fmt.Fprintf(&b, "  %-16s %s\n", tr.Terminal.ID, errors.UserMessage(tr.Err))
	}
	return b.String()
}
