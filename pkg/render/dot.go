package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/ductrouter/pkg/geom"
	"github.com/matzehuels/ductrouter/pkg/routing"
)

// cellInches is the drawn size of one grid step at scale 1.
const cellInches = 0.25

// ToDOT converts res to an undirected Graphviz graph for the neato engine.
// Every node carries a pinned pos, so the layout engine only draws: boxes for
// obstacles and the trunk, points for path corners, and one edge per
// straight segment.
func ToDOT(res *routing.Result, opts Options) string {
	unit := cellInches * opts.scale() / res.Step
	origin := res.Bounds.Min
	pos := func(p geom.Point) string {
		return fmt.Sprintf("%.4f,%.4f!", (p.X-origin.X)*unit, (p.Y-origin.Y)*unit)
	}

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  splines=line;\n")
	buf.WriteString("  outputorder=edgesfirst;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [fixedsize=true, fontsize=10, label=\"\"];\n")
	buf.WriteString("  edge [penwidth=2];\n")
	buf.WriteString("\n")

	// Invisible corner nodes keep the drawing at the full search bounds.
	fmt.Fprintf(&buf, "  \"bounds_min\" [shape=point, width=0, style=invis, pos=%q];\n", pos(res.Bounds.Min))
	fmt.Fprintf(&buf, "  \"bounds_max\" [shape=point, width=0, style=invis, pos=%q];\n", pos(res.Bounds.Max))

	box := func(id string, r geom.Rect, attrs string) {
		fmt.Fprintf(&buf, "  %q [shape=box, width=%.4f, height=%.4f, pos=%q, %s];\n",
			id, r.Width()*unit, r.Height()*unit, pos(r.Center()), attrs)
	}
	for i, o := range res.Obstacles {
		box(fmt.Sprintf("obstacle_%d", i), o, `style=filled, fillcolor="#bbbbbb", color="#888888"`)
	}
	box("trunk", res.Trunk, `style=filled, fillcolor="#555555", color="#333333"`)
	buf.WriteString("\n")

	for i, tr := range res.Routes {
		col := hexColor(RouteColor(i))
		if !tr.OK() {
			fmt.Fprintf(&buf, "  %q [shape=plaintext, width=0.3, height=0.3, label=\"x %s\", fontcolor=%q, pos=%q];\n",
				"failed_"+tr.Terminal.ID, tr.Terminal.ID, "#cc0000", pos(tr.Terminal.Position))
			continue
		}

		pts := tr.Path.Waypoints()
		costs := cornerCosts(tr)
		for j, p := range pts {
			id := fmt.Sprintf("%s_%d", tr.Terminal.ID, j)
			attrs := fmt.Sprintf("shape=circle, width=0.08, style=filled, fillcolor=%q, color=%q, pos=%q", col, col, pos(p))
			switch {
			case j == len(pts)-1:
				attrs = fmt.Sprintf("shape=circle, width=0.3, style=filled, fillcolor=%q, color=%q, fontcolor=white, label=%q, pos=%q",
					col, col, string(Marker(i)), pos(p))
			case opts.ShowCosts && costs[j] >= 0:
				attrs += fmt.Sprintf(", xlabel=\"%d\"", costs[j])
			}
			fmt.Fprintf(&buf, "  %q [%s];\n", id, attrs)
		}
		for j := 1; j < len(pts); j++ {
			fmt.Fprintf(&buf, "  %q -- %q [color=%q];\n",
				fmt.Sprintf("%s_%d", tr.Terminal.ID, j-1), fmt.Sprintf("%s_%d", tr.Terminal.ID, j), col)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// cornerCosts returns the F value at each waypoint of tr's path, or -1 for
// the start, which the search never scores.
func cornerCosts(tr routing.TerminalRoute) []int {
	costs := []int{-1}
	steps := tr.Path.Steps
	for i := 0; i < len(steps)-1; i++ {
		if steps[i].Heading != steps[i+1].Heading {
			costs = append(costs, steps[i].F)
		}
	}
	if len(steps) > 0 {
		costs = append(costs, steps[len(steps)-1].F)
	}
	return costs
}

// RenderSVG renders a DOT graph to SVG using Graphviz's neato engine, which
// honours the pinned node positions [ToDOT] writes.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-sized svg header with one whose
// viewBox starts at the origin, so browsers scale the drawing cleanly.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	header := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(header))
}
