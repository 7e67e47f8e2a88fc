// Package grid discretizes a rectangular plan region into square cells.
//
// A Grid is built once per search region and is structural only: it knows
// where each cell sits in the world, which cells are blocked by obstacles,
// and which cells are orthogonally adjacent. It holds no search state, so
// any number of searches may read one Grid concurrently once obstacle
// marking is finished.
//
// # Coordinates
//
// Cell (col, row) sits at Min + (col*Step, row*Step) at the grid's elevation.
// The column count is round((Max.X-Min.X)/Step) with halves rounded away from
// zero, and likewise for rows, so the Max edge itself is usually not a cell
// center. World points map to the nearest cell center.
//
// # Adjacency
//
// Ducts run axis-aligned, so [Grid.Neighbors] only ever returns the four
// orthogonal neighbors. Diagonal moves do not exist at the topology level.
package grid

import (
	"iter"
	"math"

	"github.com/matzehuels/ductrouter/pkg/errors"
	"github.com/matzehuels/ductrouter/pkg/geom"
)

// MaxCells bounds the number of cells a single grid may hold.
const MaxCells = 1 << 24

// Grid is a Cols×Rows array of cells over a bounding rectangle.
type Grid struct {
	min, max  geom.Point
	step      float64
	elevation float64
	cols      int
	rows      int
	cells     []Cell // row-major: cells[row*cols+col]
	blocked   int
}

// New allocates a grid over [min,max] with square cells of size step. All
// cells start walkable and share min.Z as their elevation.
//
// It fails with errors.ErrCodeInvalidBounds if max <= min on either planar
// axis, step <= 0, any value is non-finite, the rounded extent holds no
// cell at all, or the grid would exceed MaxCells.
func New(min, max geom.Point, step float64) (*Grid, error) {
	if !min.Finite() || !max.Finite() || math.IsNaN(step) || math.IsInf(step, 0) {
		return nil, errors.New(errors.ErrCodeInvalidBounds, "grid bounds and step must be finite")
	}
	if step <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidBounds, "step must be positive, got %g", step)
	}
	if max.X <= min.X || max.Y <= min.Y {
		return nil, errors.New(errors.ErrCodeInvalidBounds, "max %v must exceed min %v on both axes", max, min)
	}

	// Size in float space first; the int conversion is undefined past MaxInt.
	fcols := math.Round((max.X - min.X) / step)
	frows := math.Round((max.Y - min.Y) / step)
	if fcols < 1 || frows < 1 {
		return nil, errors.New(errors.ErrCodeInvalidBounds,
			"extent %gx%g holds no cell at step %g", max.X-min.X, max.Y-min.Y, step)
	}
	if fcols*frows > MaxCells {
		return nil, errors.New(errors.ErrCodeInvalidBounds,
			"grid of %.0f x %.0f cells exceeds limit of %d", fcols, frows, MaxCells)
	}
	cols, rows := int(fcols), int(frows)

	g := &Grid{
		min:       min,
		max:       max,
		step:      step,
		elevation: min.Z,
		cols:      cols,
		rows:      rows,
		cells:     make([]Cell, cols*rows),
	}
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			g.cells[row*cols+col] = Cell{
				Position: geom.Point{
					X: min.X + float64(col)*step,
					Y: min.Y + float64(row)*step,
					Z: min.Z,
				},
				Index:    Index{Col: col, Row: row},
				Walkable: true,
			}
		}
	}
	return g, nil
}

// Min returns the lower-left corner of the grid bounds.
func (g *Grid) Min() geom.Point { return g.min }

// Max returns the upper-right corner of the grid bounds.
func (g *Grid) Max() geom.Point { return g.max }

// Bounds returns the grid bounds as a rectangle.
func (g *Grid) Bounds() geom.Rect { return geom.Rect{Min: g.min, Max: g.max} }

// Step returns the cell size.
func (g *Grid) Step() float64 { return g.step }

// Elevation returns the Z shared by every cell.
func (g *Grid) Elevation() float64 { return g.elevation }

// Cols returns the number of columns.
func (g *Grid) Cols() int { return g.cols }

// Rows returns the number of rows.
func (g *Grid) Rows() int { return g.rows }

// Len returns the total number of cells.
func (g *Grid) Len() int { return len(g.cells) }

// BlockedCount returns how many cells obstacle marking has made unwalkable.
func (g *Grid) BlockedCount() int { return g.blocked }

// InBounds reports whether idx addresses a cell of this grid.
func (g *Grid) InBounds(idx Index) bool {
	return idx.Col >= 0 && idx.Col < g.cols && idx.Row >= 0 && idx.Row < g.rows
}

// LinearIndex flattens idx to a position in [0, Len()). The caller must
// ensure idx is in bounds.
func (g *Grid) LinearIndex(idx Index) int { return idx.Row*g.cols + idx.Col }

// IndexOf is the inverse of LinearIndex.
func (g *Grid) IndexOf(linear int) Index {
	return Index{Col: linear % g.cols, Row: linear / g.cols}
}

// Cell returns the cell at idx.
func (g *Grid) Cell(idx Index) (*Cell, bool) {
	if !g.InBounds(idx) {
		return nil, false
	}
	return &g.cells[g.LinearIndex(idx)], true
}

// At returns the cell at (col, row) or nil when out of bounds.
func (g *Grid) At(col, row int) *Cell {
	c, _ := g.Cell(Index{Col: col, Row: row})
	return c
}

// CellAt maps a world position to the nearest cell. It returns an
// errors.ErrCodeOutOfBounds error, never a zero cell, when p lies outside
// [Min,Max] or rounds to an index outside the grid.
func (g *Grid) CellAt(p geom.Point) (*Cell, error) {
	if !p.Finite() {
		return nil, errors.New(errors.ErrCodeOutOfBounds, "point %v is not finite", p)
	}
	if p.X < g.min.X || p.X > g.max.X || p.Y < g.min.Y || p.Y > g.max.Y {
		return nil, errors.New(errors.ErrCodeOutOfBounds, "point %v outside grid %v", p, g.Bounds())
	}
	idx := Index{
		Col: int(math.Round((p.X - g.min.X) / g.step)),
		Row: int(math.Round((p.Y - g.min.Y) / g.step)),
	}
	c, ok := g.Cell(idx)
	if !ok {
		return nil, errors.New(errors.ErrCodeOutOfBounds,
			"point %v maps to %v outside %dx%d grid", p, idx, g.cols, g.rows)
	}
	return c, nil
}

// Neighbors returns the in-bounds orthogonal neighbors of c in the fixed
// order East, West, North, South. Walkability is not filtered here.
func (g *Grid) Neighbors(c *Cell) []*Cell {
	out := make([]*Cell, 0, len(Directions))
	for _, d := range Directions {
		if n, ok := g.Cell(c.Index.Step(d)); ok {
			out = append(out, n)
		}
	}
	return out
}

// Walkable reports whether the cell at idx exists and is not blocked.
func (g *Grid) Walkable(idx Index) bool {
	c, ok := g.Cell(idx)
	return ok && c.Walkable
}

// Cells iterates over all cells in row-major order.
func (g *Grid) Cells() iter.Seq[*Cell] {
	return func(yield func(*Cell) bool) {
		for i := range g.cells {
			if !yield(&g.cells[i]) {
				return
			}
		}
	}
}

// MarkObstacle blocks every cell whose position lies inside the closed
// rectangle r and returns how many cells it newly blocked. Cells on the
// rectangle's boundary count as enclosed. Marking is idempotent and cannot
// be undone.
func (g *Grid) MarkObstacle(r geom.Rect) int {
	if !r.Valid() {
		return 0
	}
	// Only scan the index window the rectangle can touch. Clamp before
	// converting so far-away coordinates cannot overflow int.
	c0 := clampIndex(math.Floor((r.Min.X-g.min.X)/g.step), g.cols)
	c1 := clampIndex(math.Ceil((r.Max.X-g.min.X)/g.step), g.cols)
	r0 := clampIndex(math.Floor((r.Min.Y-g.min.Y)/g.step), g.rows)
	r1 := clampIndex(math.Ceil((r.Max.Y-g.min.Y)/g.step), g.rows)

	n := 0
	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			c := &g.cells[row*g.cols+col]
			if c.Walkable && r.Contains(c.Position) {
				c.Walkable = false
				n++
			}
		}
	}
	g.blocked += n
	return n
}

// clampIndex converts a fractional index to an int within [0, n-1].
func clampIndex(f float64, n int) int {
	return int(max(0, min(float64(n-1), f)))
}

// MarkObstacles marks each rectangle in turn and returns the total number of
// newly blocked cells.
func (g *Grid) MarkObstacles(rs ...geom.Rect) int {
	n := 0
	for _, r := range rs {
		n += g.MarkObstacle(r)
	}
	return n
}
