// Package pathfind finds axis-aligned duct paths across a grid.
//
// The search is A* over the grid's four-connected topology with an extra
// elbow term: every move costs [StepCost], the heuristic is StepCost times
// the Manhattan distance to the goal, and a turn penalty accumulates each
// time the path switches between horizontal and vertical travel. Candidates
// are ordered by f = g + h + penalty, then by h, then by penalty.
//
// All per-search bookkeeping lives in a table allocated by each call and
// indexed by cell, so a [grid.Grid] can serve any number of concurrent
// searches once obstacle marking is done.
package pathfind

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/matzehuels/ductrouter/pkg/errors"
	"github.com/matzehuels/ductrouter/pkg/geom"
	"github.com/matzehuels/ductrouter/pkg/grid"
	"github.com/matzehuels/ductrouter/pkg/observability"
	"github.com/matzehuels/ductrouter/pkg/pqueue"
)

// contextCheckInterval is how many expansions pass between context checks.
const contextCheckInterval = 256

// FindPath searches g for the cheapest path from start to goal.
//
// Both points are snapped to their nearest cells. The start cell need not be
// walkable, since branch points sit on the trunk face; a blocked goal fails
// at once. Failures carry an error code:
//   - OUT_OF_BOUNDS when start or goal does not map into the grid
//   - NOT_FOUND when the goal cannot be reached
//   - EXHAUSTED when the WithMaxExpansions budget runs out
//   - TIMEOUT when ctx is cancelled or its deadline passes
//
// When start and goal snap to the same cell the path has no steps and the
// error is nil.
func FindPath(ctx context.Context, g *grid.Grid, start, goal geom.Point, opts ...Option) (*Path, error) {
	from, err := g.CellAt(start)
	if err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	to, err := g.CellAt(goal)
	if err != nil {
		return nil, fmt.Errorf("goal: %w", err)
	}
	return findPath(ctx, g, from, to, pqueue.New[*node](64), newConfig(opts))
}

// frontier is the open set. The heap is the only production implementation;
// tests substitute a linear scan to check they agree.
type frontier interface {
	Insert(*node)
	ExtractMin() (*node, error)
	DecreaseKey(*node) error
	Len() int
}

type search struct {
	grid  *grid.Grid
	goal  *grid.Cell
	cfg   config
	nodes []node
	open  frontier
	stats Stats
}

func findPath(ctx context.Context, g *grid.Grid, from, to *grid.Cell, open frontier, cfg config) (*Path, error) {
	began := time.Now()
	hooks := observability.Search()
	hooks.OnSearchStart(ctx, g.Len())

	s := &search{
		grid:  g,
		goal:  to,
		cfg:   cfg,
		nodes: make([]node, g.Len()),
		open:  open,
	}
	path, err := s.run(ctx, from)

	s.stats.Elapsed = time.Since(began)
	hooks.OnSearchComplete(ctx, s.stats.Expanded, path.Len(), s.stats.Elapsed, err)
	if err != nil {
		cfg.logger.Debug("search failed", "from", from.Index, "to", to.Index,
			"expanded", s.stats.Expanded, "err", err)
		return nil, err
	}
	path.Stats = s.stats
	cfg.logger.Debug("search complete", "from", from.Index, "to", to.Index,
		"steps", path.Len(), "turns", path.Turns(), "expanded", s.stats.Expanded,
		"elapsed", s.stats.Elapsed)
	return path, nil
}

func (s *search) run(ctx context.Context, from *grid.Cell) (*Path, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeTimeout, err, "search cancelled before start")
	}
	if from == s.goal {
		return &Path{Start: from.Position, StartIndex: from.Index}, nil
	}
	if !s.goal.Walkable {
		return nil, errors.New(errors.ErrCodeNotFound, "goal %v is blocked", s.goal.Index)
	}

	root := s.node(from)
	root.heading = s.cfg.heading
	root.h = s.heuristic(from)
	root.state = stateOpen
	s.open.Insert(root)
	s.stats.Pushed++

	for s.open.Len() > 0 {
		if s.stats.Expanded%contextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, errors.Wrap(errors.ErrCodeTimeout, err,
					"search aborted after %d expansions", s.stats.Expanded)
			}
		}
		if s.cfg.maxExpansions > 0 && s.stats.Expanded >= s.cfg.maxExpansions {
			return nil, errors.New(errors.ErrCodeExhausted,
				"expansion budget of %d exhausted before reaching %v", s.cfg.maxExpansions, s.goal.Index)
		}

		cur, err := s.open.ExtractMin()
		if err != nil {
			return nil, err
		}
		cur.state = stateClosed
		if cur.cell == s.goal {
			return s.retrace(cur), nil
		}
		s.stats.Expanded++

		for _, nb := range s.grid.Neighbors(cur.cell) {
			if !nb.Walkable {
				continue
			}
			n := s.node(nb)
			if n.state == stateClosed {
				continue
			}

			heading := cur.cell.Index.OrientationTo(nb.Index)
			penalty := cur.penalty
			if cur.heading != grid.NoOrientation && heading != cur.heading {
				penalty += s.cfg.turnPenalty
			}
			g := cur.g + StepCost*cur.cell.Index.Manhattan(nb.Index)
			if n.state == stateOpen && g+penalty >= n.g+n.penalty {
				continue
			}

			n.g, n.penalty, n.heading, n.parent = g, penalty, heading, cur
			if n.state == stateUnseen {
				n.h = s.heuristic(nb)
				n.state = stateOpen
				s.open.Insert(n)
				s.stats.Pushed++
				continue
			}
			if err := s.open.DecreaseKey(n); err != nil {
				return nil, err
			}
			s.stats.DecreaseKeys++
		}
	}
	return nil, errors.New(errors.ErrCodeNotFound,
		"no path to %v after expanding %d cells", s.goal.Index, s.stats.Expanded)
}

func (s *search) heuristic(c *grid.Cell) int {
	return StepCost * c.Index.Manhattan(s.goal.Index)
}

// node returns the side-table entry for c, initializing it on first touch.
func (s *search) node(c *grid.Cell) *node {
	i := s.grid.LinearIndex(c.Index)
	n := &s.nodes[i]
	if n.cell == nil {
		n.cell = c
		n.linear = i
		n.heapIndex = -1
	}
	return n
}

func (s *search) retrace(goal *node) *Path {
	var steps []Step
	n := goal
	for ; n.parent != nil; n = n.parent {
		steps = append(steps, Step{
			Position: n.cell.Position,
			Index:    n.cell.Index,
			Heading:  n.heading,
			G:        n.g,
			H:        n.h,
			Penalty:  n.penalty,
			F:        n.f(),
		})
	}
	slices.Reverse(steps)
	return &Path{Start: n.cell.Position, StartIndex: n.cell.Index, InitialHeading: n.heading, Steps: steps}
}
