package grid

import (
	"fmt"

	"github.com/matzehuels/ductrouter/pkg/geom"
)

// Cell is one square of the plan grid.
//
// Walkable is fixed at construction or by obstacle marking. Per-search costs
// are deliberately absent; the pathfinder keeps them in its own table keyed by
// cell index.
type Cell struct {
	Position geom.Point
	Index    Index
	Walkable bool
}

// Index addresses a cell by column and row.
type Index struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

// Step returns the index one cell away in direction d.
func (i Index) Step(d Direction) Index {
	return Index{Col: i.Col + d.DCol, Row: i.Row + d.DRow}
}

// Manhattan returns the L1 distance in cells.
func (i Index) Manhattan(j Index) int {
	return abs(i.Col-j.Col) + abs(i.Row-j.Row)
}

// OrientationTo returns the axis of the move from i to an orthogonally
// adjacent j. Equal indices report NoOrientation.
func (i Index) OrientationTo(j Index) Orientation {
	switch {
	case i.Col != j.Col && i.Row == j.Row:
		return Horizontal
	case i.Row != j.Row && i.Col == j.Col:
		return Vertical
	}
	return NoOrientation
}

func (i Index) String() string {
	return fmt.Sprintf("[%d,%d]", i.Col, i.Row)
}

// Orientation is the axis a duct run follows.
type Orientation int

const (
	NoOrientation Orientation = iota
	Horizontal                // along X
	Vertical                  // along Y
)

func (o Orientation) String() string {
	switch o {
	case Horizontal:
		return "horizontal"
	case Vertical:
		return "vertical"
	}
	return "none"
}

// MarshalText encodes the orientation by name.
func (o Orientation) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText decodes a name produced by MarshalText.
func (o *Orientation) UnmarshalText(b []byte) error {
	switch string(b) {
	case "horizontal":
		*o = Horizontal
	case "vertical":
		*o = Vertical
	case "none", "":
		*o = NoOrientation
	default:
		return fmt.Errorf("unknown orientation %q", b)
	}
	return nil
}

// Perpendicular returns the other axis.
func (o Orientation) Perpendicular() Orientation {
	switch o {
	case Horizontal:
		return Vertical
	case Vertical:
		return Horizontal
	}
	return NoOrientation
}

// Direction is a unit step on the grid.
type Direction struct {
	DCol, DRow int
}

var (
	East  = Direction{DCol: 1}
	West  = Direction{DCol: -1}
	North = Direction{DRow: 1}
	South = Direction{DRow: -1}
)

// Directions lists the four orthogonal steps in neighbor order.
var Directions = [...]Direction{East, West, North, South}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
