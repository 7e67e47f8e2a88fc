// Package geom provides the small amount of planar geometry the router needs:
// world points and axis-aligned rectangles.
//
// Coordinates are model units (whatever the host model uses, typically feet).
// Z is carried through untouched; all routing happens in the XY plane at a
// single elevation.
package geom

import (
	"fmt"
	"math"
)

// Epsilon is the tolerance used for containment tests on world coordinates.
const Epsilon = 1e-9

// Point is a world position. Z is the elevation.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Pt is shorthand for a point on the ground plane.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y, p.Z + q.Z} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y, p.Z - q.Z} }

// WithZ returns p moved to elevation z.
func (p Point) WithZ(z float64) Point { return Point{p.X, p.Y, z} }

// Manhattan returns the planar L1 distance between p and q.
func (p Point) Manhattan(q Point) float64 {
	return math.Abs(p.X-q.X) + math.Abs(p.Y-q.Y)
}

// Finite reports whether all coordinates are finite.
func (p Point) Finite() bool {
	for _, v := range [...]float64{p.X, p.Y, p.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (p Point) String() string {
	return fmt.Sprintf("(%g, %g, %g)", p.X, p.Y, p.Z)
}

// Rect is an axis-aligned box. Containment uses the XY plane only; Z bounds are
// kept so a trunk's vertical extent can be recovered.
type Rect struct {
	Min Point `json:"min"`
	Max Point `json:"max"`
}

// R builds a ground-plane rectangle from two corners in any order.
func R(x0, y0, x1, y1 float64) Rect {
	return Normalize(Point{X: x0, Y: y0}, Point{X: x1, Y: y1})
}

// Normalize builds a rectangle from two arbitrary corners.
func Normalize(a, b Point) Rect {
	return Rect{
		Min: Point{math.Min(a.X, b.X), math.Min(a.Y, b.Y), math.Min(a.Z, b.Z)},
		Max: Point{math.Max(a.X, b.X), math.Max(a.Y, b.Y), math.Max(a.Z, b.Z)},
	}
}

// Bound returns the smallest rectangle enclosing all points. ok is false for
// an empty input.
func Bound(pts ...Point) (r Rect, ok bool) {
	if len(pts) == 0 {
		return Rect{}, false
	}
	r = Rect{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		r = r.Extend(p)
	}
	return r, true
}

// Width is the X extent.
func (r Rect) Width() float64 { return r.Max.X - r.Min.X }

// Height is the Y extent.
func (r Rect) Height() float64 { return r.Max.Y - r.Min.Y }

// Center returns the midpoint of the box, including Z.
func (r Rect) Center() Point {
	return Point{(r.Min.X + r.Max.X) / 2, (r.Min.Y + r.Max.Y) / 2, (r.Min.Z + r.Max.Z) / 2}
}

// Contains reports whether p lies in the closed rectangle on the XY plane.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Min.X-Epsilon && p.X <= r.Max.X+Epsilon &&
		p.Y >= r.Min.Y-Epsilon && p.Y <= r.Max.Y+Epsilon
}

// Extend grows r to include p.
func (r Rect) Extend(p Point) Rect {
	return Rect{
		Min: Point{math.Min(r.Min.X, p.X), math.Min(r.Min.Y, p.Y), math.Min(r.Min.Z, p.Z)},
		Max: Point{math.Max(r.Max.X, p.X), math.Max(r.Max.Y, p.Y), math.Max(r.Max.Z, p.Z)},
	}
}

// Union returns the smallest rectangle containing r and s.
func (r Rect) Union(s Rect) Rect {
	return r.Extend(s.Min).Extend(s.Max)
}

// Inflate grows r by d on every planar side. Negative d shrinks it; the result
// collapses to the center line rather than inverting.
func (r Rect) Inflate(d float64) Rect {
	out := Rect{
		Min: Point{r.Min.X - d, r.Min.Y - d, r.Min.Z},
		Max: Point{r.Max.X + d, r.Max.Y + d, r.Max.Z},
	}
	c := r.Center()
	if out.Min.X > out.Max.X {
		out.Min.X, out.Max.X = c.X, c.X
	}
	if out.Min.Y > out.Max.Y {
		out.Min.Y, out.Max.Y = c.Y, c.Y
	}
	return out
}

// Scale expands r about its center so each planar half-extent is multiplied
// by f. Z is unchanged.
func (r Rect) Scale(f float64) Rect {
	c := r.Center()
	hw, hh := r.Width()/2*f, r.Height()/2*f
	return Rect{
		Min: Point{c.X - hw, c.Y - hh, r.Min.Z},
		Max: Point{c.X + hw, c.Y + hh, r.Max.Z},
	}
}

// Valid reports whether Min <= Max on both planar axes and all values are finite.
func (r Rect) Valid() bool {
	return r.Min.Finite() && r.Max.Finite() && r.Min.X <= r.Max.X && r.Min.Y <= r.Max.Y
}

func (r Rect) String() string {
	return fmt.Sprintf("[%v .. %v]", r.Min, r.Max)
}
