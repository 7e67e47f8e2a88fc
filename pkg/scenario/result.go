package scenario

import (
	"encoding/json"
	"io"
	"time"

	"github.com/matzehuels/ductrouter/pkg/errors"
	"github.com/matzehuels/ductrouter/pkg/geom"
	"github.com/matzehuels/ductrouter/pkg/grid"
	"github.com/matzehuels/ductrouter/pkg/pathfind"
	"github.com/matzehuels/ductrouter/pkg/routing"
)

// resultVersion is bumped whenever the JSON layout changes incompatibly.
const resultVersion = 1

type resultFile struct {
	Version   int           `json:"version"`
	Bounds    geom.Rect     `json:"bounds"`
	Step      float64       `json:"step"`
	Cols      int           `json:"cols"`
	Rows      int           `json:"rows"`
	Elevation float64       `json:"elevation"`
	Trunk     geom.Rect     `json:"trunk"`
	Obstacles []geom.Rect   `json:"obstacles,omitempty"`
	Blocked   int           `json:"blocked"`
	Elapsed   time.Duration `json:"elapsed_ns"`
	Routes    []routeFile   `json:"routes"`
}

type routeFile struct {
	Terminal  routing.Terminal `json:"terminal"`
	Start     geom.Point       `json:"start"`
	Heading   grid.Orientation `json:"heading"`
	Elapsed   time.Duration    `json:"elapsed_ns"`
	Waypoints []geom.Point     `json:"waypoints,omitempty"`
	Path      *pathfind.Path   `json:"path,omitempty"`
	Error     *errorFile       `json:"error,omitempty"`
}

type errorFile struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

// MarshalResult encodes a routing result as indented JSON.
func MarshalResult(res *routing.Result) ([]byte, error) {
	f := resultFile{
		Version:   resultVersion,
		Bounds:    res.Bounds,
		Step:      res.Step,
		Cols:      res.Cols,
		Rows:      res.Rows,
		Elevation: res.Elevation,
		Trunk:     res.Trunk,
		Obstacles: res.Obstacles,
		Blocked:   res.Blocked,
		Elapsed:   res.Elapsed,
		Routes:    make([]routeFile, len(res.Routes)),
	}
	for i, tr := range res.Routes {
		rf := routeFile{
			Terminal: tr.Terminal,
			Start:    tr.Start,
			Heading:  tr.Heading,
			Elapsed:  tr.Elapsed,
		}
		if tr.OK() {
			rf.Path = tr.Path
			rf.Waypoints = tr.Path.Waypoints()
		} else {
			code := errors.GetCode(tr.Err)
			if code == "" {
				code = errors.ErrCodeInternal
			}
			rf.Error = &errorFile{Code: code, Message: errors.UserMessage(tr.Err)}
		}
		f.Routes[i] = rf
	}
	return json.MarshalIndent(f, "", "  ")
}

// UnmarshalResult decodes JSON written by MarshalResult. Route errors come
// back as *errors.Error with their original code.
func UnmarshalResult(data []byte) (*routing.Result, error) {
	var f resultFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode result")
	}
	if f.Version != resultVersion {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported result version %d", f.Version)
	}

	res := &routing.Result{
		Bounds:    f.Bounds,
		Step:      f.Step,
		Cols:      f.Cols,
		Rows:      f.Rows,
		Elevation: f.Elevation,
		Trunk:     f.Trunk,
		Obstacles: f.Obstacles,
		Blocked:   f.Blocked,
		Elapsed:   f.Elapsed,
		Routes:    make([]routing.TerminalRoute, len(f.Routes)),
	}
	for i, rf := range f.Routes {
		tr := routing.TerminalRoute{
			Terminal: rf.Terminal,
			Start:    rf.Start,
			Heading:  rf.Heading,
			Elapsed:  rf.Elapsed,
			Path:     rf.Path,
		}
		switch {
		case rf.Error != nil:
			tr.Path = nil
			tr.Err = errors.New(rf.Error.Code, "%s", rf.Error.Message)
		case rf.Path == nil:
			tr.Err = errors.New(errors.ErrCodeInvalidFormat, "route %q has neither path nor error", rf.Terminal.ID)
		}
		res.Routes[i] = tr
	}
	return res, nil
}

// WriteResultJSON writes res to w as JSON.
func WriteResultJSON(w io.Writer, res *routing.Result) error {
	data, err := MarshalResult(res)
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// ReadResultJSON reads a result written by WriteResultJSON.
func ReadResultJSON(r io.Reader) (*routing.Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return UnmarshalResult(data)
}
