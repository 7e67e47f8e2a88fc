// Package scenario reads routing scenarios from TOML or JSON files and
// writes routing results as JSON.
//
// A scenario is everything a routing run needs: the trunk footprint, the
// terminals, the obstacles and the routing parameters. Points are written as
// [x, y] or [x, y, z] arrays:
//
//	name = "level 3 east"
//	step = 0.5
//	clearance = 0.25
//
//	[trunk]
//	min = [0, 0, 10]
//	max = [40, 2, 12]
//
//	[[terminals]]
//	id = "VAV-301"
//	position = [12, 18]
//
//	[[obstacles]]
//	min = [8, 6]
//	max = [16, 9]
package scenario

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/ductrouter/pkg/cache"
	"github.com/matzehuels/ductrouter/pkg/errors"
	"github.com/matzehuels/ductrouter/pkg/geom"
	"github.com/matzehuels/ductrouter/pkg/routing"
)

// Supported scenario formats.
const (
	FormatTOML = "toml"
	FormatJSON = "json"
)

// Scenario is the file form of a routing request.
type Scenario struct {
	Name               string     `toml:"name" json:"name,omitempty"`
	Step               float64    `toml:"step" json:"step"`
	Clearance          float64    `toml:"clearance" json:"clearance,omitempty"`
	BoundaryMultiplier float64    `toml:"boundary_multiplier" json:"boundary_multiplier,omitempty"`
	TurnPenalty        int        `toml:"turn_penalty" json:"turn_penalty,omitempty"`
	MaxExpansions      int        `toml:"max_expansions" json:"max_expansions,omitempty"`
	Trunk              Box        `toml:"trunk" json:"trunk"`
	Terminals          []Terminal `toml:"terminals" json:"terminals"`
	Obstacles          []Box      `toml:"obstacles" json:"obstacles,omitempty"`
}

// Box is an axis-aligned rectangle given by two corners.
type Box struct {
	Min Vec `toml:"min" json:"min"`
	Max Vec `toml:"max" json:"max"`
}

// Terminal is a named destination point.
type Terminal struct {
	ID       string `toml:"id" json:"id"`
	Position Vec    `toml:"position" json:"position"`
}

// Vec is a point written as [x, y] or [x, y, z].
type Vec []float64

// Point converts v to a geom.Point. A missing Z is zero.
func (v Vec) Point() (geom.Point, error) {
	switch len(v) {
	case 2:
		return geom.Point{X: v[0], Y: v[1]}, nil
	case 3:
		return geom.Point{X: v[0], Y: v[1], Z: v[2]}, nil
	}
	return geom.Point{}, errors.New(errors.ErrCodeInvalidScenario, "point needs 2 or 3 coordinates, got %d", len(v))
}

// VecOf converts a point back to its three-element file form.
func VecOf(p geom.Point) Vec { return Vec{p.X, p.Y, p.Z} }

// Rect converts b to a normalized rectangle.
func (b Box) Rect() (geom.Rect, error) {
	lo, err := b.Min.Point()
	if err != nil {
		return geom.Rect{}, err
	}
	hi, err := b.Max.Point()
	if err != nil {
		return geom.Rect{}, err
	}
	return geom.Normalize(lo, hi), nil
}

// Load reads a scenario file. The format follows the file extension.
func Load(path string) (*Scenario, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "scenario %s not found", path)
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s, err := Decode(f, format)
	if err != nil {
		return nil, err
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return s, nil
}

// FormatOf maps a file name to a scenario format.
func FormatOf(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unsupported scenario file %q (want .toml or .json)", path)
}

// Decode parses a scenario in the given format.
func Decode(r io.Reader, format string) (*Scenario, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidScenario, err, "read scenario")
	}

	var s Scenario
	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(data, &s); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidScenario, err, "parse toml")
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&s); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidScenario, err, "parse json")
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported scenario format %q", format)
	}
	return &s, nil
}

// Encode writes s in the given format.
func (s *Scenario) Encode(w io.Writer, format string) error {
	switch format {
	case FormatTOML:
		return toml.NewEncoder(w).Encode(s)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}
	return errors.New(errors.ErrCodeInvalidFormat, "unsupported scenario format %q", format)
}

// Request converts the scenario into a routing request. Only the file shape
// is checked here; value ranges are left to routing.Request.Validate.
func (s *Scenario) Request() (routing.Request, error) {
	trunk, err := s.Trunk.Rect()
	if err != nil {
		return routing.Request{}, errors.Wrap(errors.ErrCodeInvalidScenario, err, "trunk")
	}

	req := routing.Request{
		Trunk:              trunk,
		Step:               s.Step,
		Clearance:          s.Clearance,
		BoundaryMultiplier: s.BoundaryMultiplier,
		TurnPenalty:        s.TurnPenalty,
		MaxExpansions:      s.MaxExpansions,
		Terminals:          make([]routing.Terminal, 0, len(s.Terminals)),
		Obstacles:          make([]geom.Rect, 0, len(s.Obstacles)),
	}
	for _, t := range s.Terminals {
		p, err := t.Position.Point()
		if err != nil {
			return routing.Request{}, errors.Wrap(errors.ErrCodeInvalidScenario, err, "terminal %q", t.ID)
		}
		req.Terminals = append(req.Terminals, routing.Terminal{ID: t.ID, Position: p})
	}
	for i, o := range s.Obstacles {
		r, err := o.Rect()
		if err != nil {
			return routing.Request{}, errors.Wrap(errors.ErrCodeInvalidScenario, err, "obstacle %d", i)
		}
		req.Obstacles = append(req.Obstacles, r)
	}
	return req, nil
}

// Hash returns a content hash of the scenario's routing inputs. The name is
// not part of it.
func (s *Scenario) Hash() string {
	c := *s
	c.Name = ""
	data, _ := json.Marshal(c)
	return cache.Hash(data)
}
