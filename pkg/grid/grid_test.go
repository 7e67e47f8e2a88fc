package grid

import (
	"math"
	"testing"

	"github.com/matzehuels/ductrouter/pkg/errors"
	"github.com/matzehuels/ductrouter/pkg/geom"
)

func mustGrid(t *testing.T, min, max geom.Point, step float64) *Grid {
	t.Helper()
	g, err := New(min, max, step)
	if err != nil {
		t.Fatalf("New(%v, %v, %v): %v", min, max, step, err)
	}
	return g
}

func TestNewDimensions(t *testing.T) {
	tests := []struct {
		name       string
		min, max   geom.Point
		step       float64
		cols, rows int
	}{
		{"unit 10x10", geom.Pt(0, 0), geom.Pt(10, 10), 1, 10, 10},
		{"half step", geom.Pt(0, 0), geom.Pt(4, 2), 0.5, 8, 4},
		{"rounds half away from zero", geom.Pt(0, 0), geom.Pt(2.5, 3.4), 1, 3, 3},
		{"negative origin", geom.Pt(-5, -2), geom.Pt(5, 2), 2, 5, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := mustGrid(t, tt.min, tt.max, tt.step)
			if g.Cols() != tt.cols || g.Rows() != tt.rows {
				t.Errorf("dims = %dx%d, want %dx%d", g.Cols(), g.Rows(), tt.cols, tt.rows)
			}
			if g.Len() != tt.cols*tt.rows {
				t.Errorf("Len() = %d, want %d", g.Len(), tt.cols*tt.rows)
			}
		})
	}
}

func TestNewInvalidBounds(t *testing.T) {
	tests := []struct {
		name     string
		min, max geom.Point
		step     float64
	}{
		{"zero step", geom.Pt(0, 0), geom.Pt(10, 10), 0},
		{"negative step", geom.Pt(0, 0), geom.Pt(10, 10), -1},
		{"inverted x", geom.Pt(10, 0), geom.Pt(0, 10), 1},
		{"flat y", geom.Pt(0, 5), geom.Pt(10, 5), 1},
		{"nan step", geom.Pt(0, 0), geom.Pt(10, 10), math.NaN()},
		{"infinite max", geom.Pt(0, 0), geom.Pt(math.Inf(1), 10), 1},
		{"extent smaller than half a step", geom.Pt(0, 0), geom.Pt(0.2, 10), 1},
		{"too many cells", geom.Pt(0, 0), geom.Pt(1e10, 1e10), 1},
		{"just over the cell limit", geom.Pt(0, 0), geom.Pt(MaxCells+1, 1), 1},
		{"tiny step", geom.Pt(0, 0), geom.Pt(100, 1), 1e-6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := New(tt.min, tt.max, tt.step)
			if g != nil {
				t.Error("New returned a grid for invalid bounds")
			}
			if !errors.Is(err, errors.ErrCodeInvalidBounds) {
				t.Errorf("err = %v, want code %s", err, errors.ErrCodeInvalidBounds)
			}
		})
	}
}

func TestCellPositions(t *testing.T) {
	min := geom.Point{X: -3, Y: 2, Z: 9.5}
	g := mustGrid(t, min, geom.Point{X: 3, Y: 5, Z: 9.5}, 0.5)

	for c := range g.Cells() {
		want := geom.Point{
			X: min.X + float64(c.Index.Col)*g.Step(),
			Y: min.Y + float64(c.Index.Row)*g.Step(),
			Z: 9.5,
		}
		if c.Position != want {
			t.Fatalf("cell %v at %v, want %v", c.Index, c.Position, want)
		}
		if !c.Walkable {
			t.Fatalf("cell %v not walkable after New", c.Index)
		}
	}
}

func TestCellAtRoundTrip(t *testing.T) {
	grids := []*Grid{
		mustGrid(t, geom.Pt(0, 0), geom.Pt(10, 10), 1),
		mustGrid(t, geom.Pt(-43.8, 12.1), geom.Pt(-19.2, 31.3), 0.25),
		mustGrid(t, geom.Pt(0, 0), geom.Pt(1, 1), 0.1),
	}

	for _, g := range grids {
		n := 0
		for c := range g.Cells() {
			got, err := g.CellAt(c.Position)
			if err != nil {
				t.Fatalf("CellAt(%v): %v", c.Position, err)
			}
			if got != c {
				t.Fatalf("CellAt(%v) = %v, want %v", c.Position, got.Index, c.Index)
			}
			if g.IndexOf(g.LinearIndex(c.Index)) != c.Index {
				t.Fatalf("linear index round trip failed for %v", c.Index)
			}
			n++
		}
		if n != g.Len() {
			t.Errorf("Cells() yielded %d, want %d", n, g.Len())
		}
	}
}

func TestCellAtNearest(t *testing.T) {
	g := mustGrid(t, geom.Pt(0, 0), geom.Pt(10, 10), 1)

	tests := []struct {
		p    geom.Point
		want Index
	}{
		{geom.Pt(0.4, 0.4), Index{0, 0}},
		{geom.Pt(0.5, 2.49), Index{1, 2}}, // halves round away from zero
		{geom.Pt(8.6, 3.1), Index{9, 3}},
	}
	for _, tt := range tests {
		c, err := g.CellAt(tt.p)
		if err != nil {
			t.Fatalf("CellAt(%v): %v", tt.p, err)
		}
		if c.Index != tt.want {
			t.Errorf("CellAt(%v) = %v, want %v", tt.p, c.Index, tt.want)
		}
	}
}

func TestCellAtOutOfBounds(t *testing.T) {
	g := mustGrid(t, geom.Pt(0, 0), geom.Pt(10, 10), 1)

	tests := []struct {
		name string
		p    geom.Point
	}{
		{"left of min", geom.Pt(-0.1, 5)},
		{"below min", geom.Pt(5, -3)},
		{"beyond max", geom.Pt(11, 5)},
		{"inside bounds but rounds past last column", geom.Pt(9.7, 5)},
		{"max corner", geom.Pt(10, 10)},
		{"nan", geom.Pt(math.NaN(), 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := g.CellAt(tt.p)
			if c != nil {
				t.Errorf("CellAt(%v) returned cell %v", tt.p, c.Index)
			}
			if !errors.Is(err, errors.ErrCodeOutOfBounds) {
				t.Errorf("err = %v, want %s", err, errors.ErrCodeOutOfBounds)
			}
		})
	}
}

func TestNeighborsValidity(t *testing.T) {
	g := mustGrid(t, geom.Pt(0, 0), geom.Pt(6, 4), 1)

	for c := range g.Cells() {
		ns := g.Neighbors(c)
		wantCount := 4
		if c.Index.Col == 0 || c.Index.Col == g.Cols()-1 {
			wantCount--
		}
		if c.Index.Row == 0 || c.Index.Row == g.Rows()-1 {
			wantCount--
		}
		if len(ns) != wantCount {
			t.Errorf("%v has %d neighbors, want %d", c.Index, len(ns), wantCount)
		}
		for _, n := range ns {
			if n == c {
				t.Errorf("%v is its own neighbor", c.Index)
			}
			if c.Index.Manhattan(n.Index) != 1 {
				t.Errorf("%v -> %v is not an orthogonal step", c.Index, n.Index)
			}
			if !g.InBounds(n.Index) {
				t.Errorf("%v neighbor %v out of bounds", c.Index, n.Index)
			}
		}
	}
}

func TestNeighborsOrder(t *testing.T) {
	g := mustGrid(t, geom.Pt(0, 0), geom.Pt(3, 3), 1)
	ns := g.Neighbors(g.At(1, 1))
	want := []Index{{2, 1}, {0, 1}, {1, 2}, {1, 0}}
	if len(ns) != len(want) {
		t.Fatalf("got %d neighbors", len(ns))
	}
	for i, n := range ns {
		if n.Index != want[i] {
			t.Errorf("neighbor %d = %v, want %v", i, n.Index, want[i])
		}
	}
}

func TestMarkObstacle(t *testing.T) {
	g := mustGrid(t, geom.Pt(0, 0), geom.Pt(10, 10), 1)

	n := g.MarkObstacle(geom.R(4, 0, 6, 10))
	if n != 30 {
		t.Errorf("MarkObstacle blocked %d cells, want 30 (cols 4..6 x rows 0..9)", n)
	}
	for c := range g.Cells() {
		inside := c.Index.Col >= 4 && c.Index.Col <= 6
		if c.Walkable == inside {
			t.Errorf("cell %v walkable=%v", c.Index, c.Walkable)
		}
	}

	// Idempotent and overlapping.
	if again := g.MarkObstacle(geom.R(4, 0, 6, 10)); again != 0 {
		t.Errorf("re-marking blocked %d new cells", again)
	}
	if overlap := g.MarkObstacle(geom.R(5, 5, 7, 5)); overlap != 1 {
		t.Errorf("overlapping mark blocked %d new cells, want 1", overlap)
	}
	if g.BlockedCount() != 31 {
		t.Errorf("BlockedCount() = %d, want 31", g.BlockedCount())
	}
}

func TestMarkObstacleOutsideGrid(t *testing.T) {
	g := mustGrid(t, geom.Pt(0, 0), geom.Pt(5, 5), 1)
	if n := g.MarkObstacles(geom.R(20, 20, 30, 30), geom.R(-9, -9, -1, -1)); n != 0 {
		t.Errorf("marking outside the grid blocked %d cells", n)
	}
	if n := g.MarkObstacle(geom.R(-10, 2, 100, 2)); n != 5 {
		t.Errorf("full-width strip blocked %d cells, want 5", n)
	}
}

func TestMarkObstacleHugeCoordinates(t *testing.T) {
	g := mustGrid(t, geom.Pt(0, 0), geom.Pt(10, 10), 1)
	if n := g.MarkObstacle(geom.R(4, -1e20, 6, 1e20)); n != 30 {
		t.Errorf("wall spanning ±1e20 blocked %d cells, want 30", n)
	}
	if n := g.MarkObstacle(geom.R(-1e300, -1e300, 1e300, 1e300)); n != 70 {
		t.Errorf("rectangle covering everything blocked %d more cells, want 70", n)
	}
	if n := g.MarkObstacle(geom.R(1e20, 1e20, 2e20, 2e20)); n != 0 {
		t.Errorf("far-away rectangle blocked %d cells", n)
	}
}

func TestOrientation(t *testing.T) {
	a := Index{2, 2}
	if o := a.OrientationTo(a.Step(East)); o != Horizontal {
		t.Errorf("east step orientation = %v", o)
	}
	if o := a.OrientationTo(a.Step(South)); o != Vertical {
		t.Errorf("south step orientation = %v", o)
	}
	if o := a.OrientationTo(a); o != NoOrientation {
		t.Errorf("self orientation = %v", o)
	}
	if Horizontal.Perpendicular() != Vertical || Vertical.Perpendicular() != Horizontal {
		t.Error("Perpendicular() mismatch")
	}
}
