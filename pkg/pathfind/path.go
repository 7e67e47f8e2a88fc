package pathfind

import (
	"time"

	"github.com/matzehuels/ductrouter/pkg/geom"
	"github.com/matzehuels/ductrouter/pkg/grid"
)

// Step is one cell of a found path with the costs it was reached at.
type Step struct {
	Position geom.Point       `json:"position"`
	Index    grid.Index       `json:"index"`
	Heading  grid.Orientation `json:"heading"`
	G        int              `json:"g"`
	H        int              `json:"h"`
	Penalty  int              `json:"penalty"`
	F        int              `json:"f"`
}

// Stats describes the work a search did.
type Stats struct {
	Expanded     int           `json:"expanded"`
	Pushed       int           `json:"pushed"`
	DecreaseKeys int           `json:"decrease_keys"`
	Elapsed      time.Duration `json:"elapsed"`
}

// Path is the result of a successful search. Steps run from the cell after
// the start through the goal; the start cell itself is only recorded in
// Start and StartIndex. InitialHeading is the heading the search assumed at
// the start, NoOrientation when none was set.
type Path struct {
	Start          geom.Point       `json:"start"`
	StartIndex     grid.Index       `json:"start_index"`
	InitialHeading grid.Orientation `json:"initial_heading,omitempty"`
	Steps          []Step           `json:"steps"`
	Stats          Stats            `json:"stats"`
}

// Segment is a straight run between two consecutive corners.
type Segment struct {
	From, To    geom.Point
	Orientation grid.Orientation
}

// Length returns the planar length of the run.
func (s Segment) Length() float64 { return s.From.Manhattan(s.To) }

// Len returns the number of steps. A nil path has none.
func (p *Path) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Steps)
}

// Goal returns the last position of the path, or Start when the path is empty.
func (p *Path) Goal() geom.Point {
	if len(p.Steps) == 0 {
		return p.Start
	}
	return p.Steps[len(p.Steps)-1].Position
}

// Cost returns the accumulated step and turn cost of the whole path.
func (p *Path) Cost() int {
	if len(p.Steps) == 0 {
		return 0
	}
	last := p.Steps[len(p.Steps)-1]
	return last.G + last.Penalty
}

// Turns counts the elbows along the path, i.e. direction changes between
// consecutive steps. Leaving the start against InitialHeading is charged a
// turn penalty in Cost but is not an elbow; see [Path.DepartureTurn].
func (p *Path) Turns() int {
	if p == nil {
		return 0
	}
	n := 0
	for i := 1; i < len(p.Steps); i++ {
		if p.Steps[i].Heading != p.Steps[i-1].Heading {
			n++
		}
	}
	return n
}

// DepartureTurn reports whether the first move leaves the start against
// InitialHeading. Cost then includes one turn penalty beyond Turns, unless
// penalties were disabled.
func (p *Path) DepartureTurn() bool {
	if p == nil || len(p.Steps) == 0 || p.InitialHeading == grid.NoOrientation {
		return false
	}
	return p.Steps[0].Heading != p.InitialHeading
}

// ChargedTurns returns the number of turn penalties included in Cost.
func (p *Path) ChargedTurns() int {
	n := p.Turns()
	if p.DepartureTurn() {
		n++
	}
	return n
}

// Waypoints returns the start, every corner and the goal.
func (p *Path) Waypoints() []geom.Point {
	if len(p.Steps) == 0 {
		return []geom.Point{p.Start}
	}
	pts := []geom.Point{p.Start}
	for i := 0; i < len(p.Steps)-1; i++ {
		if p.Steps[i].Heading != p.Steps[i+1].Heading {
			pts = append(pts, p.Steps[i].Position)
		}
	}
	return append(pts, p.Steps[len(p.Steps)-1].Position)
}

// Segments returns the straight runs between consecutive waypoints.
func (p *Path) Segments() []Segment {
	pts := p.Waypoints()
	if len(pts) < 2 {
		return nil
	}
	segs := make([]Segment, 0, len(pts)-1)
	for i := 1; i < len(pts); i++ {
		o := grid.Horizontal
		if pts[i].X == pts[i-1].X {
			o = grid.Vertical
		}
		segs = append(segs, Segment{From: pts[i-1], To: pts[i], Orientation: o})
	}
	return segs
}
