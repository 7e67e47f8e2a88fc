package routing

import (
	"github.com/matzehuels/ductrouter/pkg/errors"
	"github.com/matzehuels/ductrouter/pkg/geom"
)

// DefaultBoundaryMultiplier keeps the search region at the tight union of
// trunk and terminals, plus the fixed padding.
const DefaultBoundaryMultiplier = 1.0

// Terminal is a destination that needs a branch from the trunk.
type Terminal struct {
	ID       string     `json:"id"`
	Position geom.Point `json:"position"`
}

// Request describes one routing run.
type Request struct {
	// Trunk is the plan footprint of the existing main duct. Its Z range
	// sets the routing elevation.
	Trunk geom.Rect

	Terminals []Terminal

	// Step is the grid cell size in model units.
	Step float64

	// Clearance inflates every obstacle and pads the search region.
	Clearance float64

	// BoundaryMultiplier scales the trunk/terminal union about its center.
	// Zero means DefaultBoundaryMultiplier.
	BoundaryMultiplier float64

	Obstacles []geom.Rect

	// TurnPenalty is the cost per elbow. Zero selects the pathfinder's
	// default; a negative value disables the penalty.
	TurnPenalty int

	// MaxExpansions bounds each terminal's search. Zero is unlimited.
	MaxExpansions int
}

func (r *Request) multiplier() float64 {
	if r.BoundaryMultiplier == 0 {
		return DefaultBoundaryMultiplier
	}
	return r.BoundaryMultiplier
}

// Validate checks the request for values no search could use.
func (r *Request) Validate() error {
	if len(r.Terminals) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "at least one terminal is required")
	}
	if !r.Trunk.Valid() {
		return errors.New(errors.ErrCodeInvalidInput, "trunk %v is not a valid rectangle", r.Trunk)
	}
	if err := errors.ValidatePositive("step", r.Step); err != nil {
		return err
	}
	if err := errors.ValidateNonNegative("clearance", r.Clearance); err != nil {
		return err
	}
	if err := errors.ValidateFinite("boundary multiplier", r.BoundaryMultiplier); err != nil {
		return err
	}
	if m := r.multiplier(); m < 1 {
		return errors.New(errors.ErrCodeInvalidInput, "boundary multiplier must be at least 1, got %g", m)
	}
	if r.MaxExpansions < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "max expansions cannot be negative")
	}

	seen := make(map[string]bool, len(r.Terminals))
	for _, t := range r.Terminals {
		if err := errors.ValidateIdentifier("terminal id", t.ID); err != nil {
			return err
		}
		if seen[t.ID] {
			return errors.New(errors.ErrCodeInvalidInput, "duplicate terminal id %q", t.ID)
		}
		seen[t.ID] = true
		if !t.Position.Finite() {
			return errors.New(errors.ErrCodeInvalidInput, "terminal %q position is not finite", t.ID)
		}
	}
	for i, o := range r.Obstacles {
		if !o.Valid() {
			return errors.New(errors.ErrCodeInvalidInput, "obstacle %d is not a valid rectangle", i)
		}
	}
	return nil
}
