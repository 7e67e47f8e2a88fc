package render

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/ductrouter/pkg/errors"
	"github.com/matzehuels/ductrouter/pkg/geom"
	"github.com/matzehuels/ductrouter/pkg/routing"
	"github.com/matzehuels/ductrouter/pkg/scenario"
)

func routeResult(t *testing.T) *routing.Result {
	t.Helper()
	engine := routing.NewEngine(routing.WithLogger(log.New(io.Discard)))
	res, err := engine.Route(context.Background(), routing.Request{
		Trunk: geom.R(0, 0, 20, 2),
		Terminals: []routing.Terminal{
			{ID: "east", Position: geom.Pt(14, 10)},
			{ID: "boxed", Position: geom.Pt(4, 10)},
		},
		Step:               1,
		BoundaryMultiplier: 1.2,
		Obstacles: []geom.Rect{
			geom.R(12, 5, 16, 7),
			// Ring around the second terminal.
			geom.R(2, 8, 6, 8),
			geom.R(2, 12, 6, 12),
			geom.R(2, 8, 2, 12),
			geom.R(6, 8, 6, 12),
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Succeeded()) != 1 || len(res.Failed()) != 1 {
		t.Fatalf("want one routed and one failed terminal, got %d/%d", len(res.Succeeded()), len(res.Failed()))
	}
	return res
}

func TestValidateFormat(t *testing.T) {
	for _, f := range Formats {
		if err := ValidateFormat(f); err != nil {
			t.Errorf("ValidateFormat(%q) = %v", f, err)
		}
	}
	if err := ValidateFormat("pdf"); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("ValidateFormat(pdf) = %v, want %s", err, errors.ErrCodeInvalidFormat)
	}
}

func TestASCII(t *testing.T) {
	res := routeResult(t)
	out, err := ASCII(res, Options{})
	if err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(out, "\n")
	if len(lines) < res.Rows {
		t.Fatalf("got %d lines, want at least %d map rows", len(lines), res.Rows)
	}
	for i, line := range lines[:res.Rows] {
		if n := len([]rune(line)); n != res.Cols {
			t.Errorf("row %d has %d cells, want %d", i, n, res.Cols)
		}
	}

	grid := strings.Join(lines[:res.Rows], "\n")
	for _, r := range []rune{GlyphBlocked, GlyphTrunk, GlyphStart, GlyphFailed, Marker(0)} {
		if !strings.ContainsRune(grid, r) {
			t.Errorf("map has no %q:\n%s", r, grid)
		}
	}
	if strings.ContainsRune(grid, Marker(1)) {
		t.Errorf("failed terminal drawn with a route marker:\n%s", grid)
	}
	if !strings.Contains(out, "1 east:") || !strings.Contains(out, "x boxed:") {
		t.Errorf("legend missing entries:\n%s", out)
	}
	if strings.Contains(out, "penalty") {
		t.Error("cost table printed without ShowCosts")
	}

	withCosts, _ := ASCII(res, Options{ShowCosts: true})
	if !strings.Contains(withCosts, "penalty") {
		t.Error("ShowCosts did not print a cost table")
	}
}

func TestASCIIGoalMarkerAtTerminal(t *testing.T) {
	res := routeResult(t)
	out, _ := ASCII(res, Options{})
	lines := strings.Split(out, "\n")

	g, err := res.Grid()
	if err != nil {
		t.Fatal(err)
	}
	c, err := g.CellAt(geom.Pt(14, 10))
	if err != nil {
		t.Fatal(err)
	}
	line := []rune(lines[res.Rows-1-c.Index.Row])
	if got := line[c.Index.Col]; got != Marker(0) {
		t.Errorf("terminal cell drawn as %q, want %q", got, Marker(0))
	}
}

func TestPathGlyph(t *testing.T) {
	res := routeResult(t)
	steps := res.Routes[0].Path.Steps
	corners := 0
	for j := range steps {
		if pathGlyph(steps, j) == GlyphCorner {
			corners++
		}
	}
	if want := res.Routes[0].Path.Turns(); corners != want {
		t.Errorf("drew %d corners, path has %d turns", corners, want)
	}
}

func TestToDOT(t *testing.T) {
	res := routeResult(t)
	dot := ToDOT(res, Options{ShowCosts: true})

	for _, want := range []string{
		"graph G {",
		"layout=neato",
		`"trunk" [shape=box`,
		`"obstacle_0"`,
		`"east_0" -- "east_1"`,
		`"failed_boxed"`,
		"xlabel=",
		`label="1"`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q", want)
		}
	}
	if strings.Contains(dot, "->") {
		t.Error("DOT uses directed edges in an undirected graph")
	}

	plain := ToDOT(res, Options{})
	if strings.Contains(plain, "xlabel=") {
		t.Error("xlabel written without ShowCosts")
	}
}

func TestToDOTScale(t *testing.T) {
	res := routeResult(t)
	if ToDOT(res, Options{Scale: 2}) == ToDOT(res, Options{}) {
		t.Error("scale did not change node positions")
	}
	if ToDOT(res, Options{Scale: -1}) != ToDOT(res, Options{}) {
		t.Error("non-positive scale should fall back to 1")
	}
}

func TestCornerCosts(t *testing.T) {
	res := routeResult(t)
	tr := res.Routes[0]
	costs := cornerCosts(tr)
	if len(costs) != len(tr.Path.Waypoints()) {
		t.Fatalf("got %d costs for %d waypoints", len(costs), len(tr.Path.Waypoints()))
	}
	if costs[0] != -1 {
		t.Errorf("start cost = %d, want -1", costs[0])
	}
	last := tr.Path.Steps[len(tr.Path.Steps)-1]
	if costs[len(costs)-1] != last.F {
		t.Errorf("goal cost = %d, want %d", costs[len(costs)-1], last.F)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.00 50.00" width="100" height="50"><g/></svg>`
	if out != want {
		t.Errorf("normalizeViewBox =\n%s\nwant\n%s", out, want)
	}

	noBox := []byte(`<svg><g/></svg>`)
	if got := normalizeViewBox(noBox); !bytes.Equal(got, noBox) {
		t.Errorf("svg without viewBox changed: %s", got)
	}
}

func TestRenderPNG(t *testing.T) {
	res := routeResult(t)
	data, err := RenderPNG(res, Options{ShowCosts: true})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")) {
		t.Errorf("output is not a PNG (first bytes %q)", data[:min(8, len(data))])
	}
}

func TestRender(t *testing.T) {
	res := routeResult(t)
	out, err := Render(context.Background(), res, []string{FormatJSON, FormatText}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d artifacts, want 2", len(out))
	}
	back, err := scenario.UnmarshalResult(out[FormatJSON])
	if err != nil {
		t.Fatalf("json artifact does not decode: %v", err)
	}
	if len(back.Routes) != len(res.Routes) {
		t.Errorf("decoded %d routes, want %d", len(back.Routes), len(res.Routes))
	}

	if _, err := Render(context.Background(), res, []string{"gif"}, Options{}); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("Render(gif) = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Render(ctx, res, []string{FormatText}, Options{}); err == nil {
		t.Error("Render with cancelled context succeeded")
	}
}

func TestMarker(t *testing.T) {
	if Marker(0) != '1' || Marker(9) != 'A' || Marker(35) != '1' {
		t.Errorf("unexpected markers %q %q %q", Marker(0), Marker(9), Marker(35))
	}
}
