package render

import (
	"fmt"
	"strings"

	"github.com/matzehuels/ductrouter/pkg/errors"
	"github.com/matzehuels/ductrouter/pkg/grid"
	"github.com/matzehuels/ductrouter/pkg/pathfind"
	"github.com/matzehuels/ductrouter/pkg/routing"
)

// Glyphs used by [ASCII]. Terminals are drawn with [Marker].
const (
	GlyphFree       = '.'
	GlyphBlocked    = '#'
	GlyphTrunk      = '='
	GlyphStart      = 'o'
	GlyphHorizontal = '-'
	GlyphVertical   = '|'
	GlyphCorner     = '+'
	GlyphFailed     = 'x'
)

// ASCII draws res as a character map, north up, followed by a legend. With
// ShowCosts set, a per-step cost table follows each routed terminal.
func ASCII(res *routing.Result, opts Options) (string, error) {
	g, err := res.Grid()
	if err != nil {
		return "", err
	}

	canvas := make([][]rune, g.Rows())
	for row := range canvas {
		canvas[row] = make([]rune, g.Cols())
	}
	for c := range g.Cells() {
		r := GlyphFree
		switch {
		case !c.Walkable:
			r = GlyphBlocked
		case res.Trunk.Contains(c.Position):
			r = GlyphTrunk
		}
		canvas[c.Index.Row][c.Index.Col] = r
	}

	set := func(idx grid.Index, r rune) {
		if g.InBounds(idx) {
			canvas[idx.Row][idx.Col] = r
		}
	}
	for i, tr := range res.Routes {
		if !tr.OK() {
			if c, err := g.CellAt(tr.Terminal.Position); err == nil {
				set(c.Index, GlyphFailed)
			}
			continue
		}
		steps := tr.Path.Steps
		for j, s := range steps {
			set(s.Index, pathGlyph(steps, j))
		}
		set(tr.Path.StartIndex, GlyphStart)
		if len(steps) > 0 {
			set(steps[len(steps)-1].Index, Marker(i))
		}
	}

	var b strings.Builder
	for row := g.Rows() - 1; row >= 0; row-- {
		b.WriteString(string(canvas[row]))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')

	for i, tr := range res.Routes {
		if !tr.OK() {
			fmt.Fprintf(&b, "%c %s: %s\n", GlyphFailed, tr.Terminal.ID, errors.UserMessage(tr.Err))
			continue
		}
		fmt.Fprintf(&b, "%c %s: %d steps, %d turns, cost %d\n",
			Marker(i), tr.Terminal.ID, tr.Path.Len(), tr.Path.Turns(), tr.Path.Cost())
		if opts.ShowCosts {
			writeCostTable(&b, tr.Path)
		}
	}
	return b.String(), nil
}

// pathGlyph picks the glyph for steps[j]: a corner when the next move
// changes axis, otherwise a straight piece along the heading.
func pathGlyph(steps []pathfind.Step, j int) rune {
	if j+1 < len(steps) && steps[j+1].Heading != steps[j].Heading {
		return GlyphCorner
	}
	if steps[j].Heading == grid.Horizontal {
		return GlyphHorizontal
	}
	return GlyphVertical
}

func writeCostTable(b *strings.Builder, p *pathfind.Path) {
	fmt.Fprintf(b, "    %4s  %-10s %-10s %6s %6s %7s %6s\n", "step", "cell", "heading", "g", "h", "penalty", "f")
	for i, s := range p.Steps {
		fmt.Fprintf(b, "    %4d  %-10s %-10s %6d %6d %7d %6d\n",
			i+1, s.Index, s.Heading, s.G, s.H, s.Penalty, s.F)
	}
}
