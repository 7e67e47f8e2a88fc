package render

import (
	"bytes"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/matzehuels/ductrouter/pkg/geom"
	"github.com/matzehuels/ductrouter/pkg/routing"
)

// pngWidth is the image width at scale 1. The height follows the aspect
// ratio of the search bounds.
const pngWidth = 8 * vg.Inch

// RenderPNG plots res as a plan view.
func RenderPNG(res *routing.Result, opts Options) ([]byte, error) {
	p, err := planPlot(res, opts)
	if err != nil {
		return nil, err
	}

	w := vg.Length(opts.scale()) * pngWidth
	h := w
	if res.Bounds.Width() > 0 {
		h = w * vg.Length(res.Bounds.Height()/res.Bounds.Width())
	}
	// Leave room for the title and axes on very flat regions.
	h = max(h, 2*vg.Inch)

	wt, err := p.WriterTo(w, h, "png")
	if err != nil {
		return nil, fmt.Errorf("png writer: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write png: %w", err)
	}
	return buf.Bytes(), nil
}

func planPlot(res *routing.Result, opts Options) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%d/%d terminals routed at elevation %g",
		len(res.Succeeded()), len(res.Routes), res.Elevation)
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"
	p.X.Min, p.X.Max = res.Bounds.Min.X, res.Bounds.Max.X
	p.Y.Min, p.Y.Max = res.Bounds.Min.Y, res.Bounds.Max.Y
	p.Legend.Top = true

	for _, o := range res.Obstacles {
		poly, err := plotter.NewPolygon(rectXYs(o))
		if err != nil {
			return nil, fmt.Errorf("obstacle polygon: %w", err)
		}
		poly.Color = color.Gray{Y: 0xbb}
		poly.LineStyle.Color = color.Gray{Y: 0x88}
		p.Add(poly)
	}
	trunk, err := plotter.NewPolygon(rectXYs(res.Trunk))
	if err != nil {
		return nil, fmt.Errorf("trunk polygon: %w", err)
	}
	trunk.Color = color.Gray{Y: 0x55}
	p.Add(trunk)
	p.Legend.Add("trunk", trunk)

	var failed plotter.XYs
	for i, tr := range res.Routes {
		if !tr.OK() {
			failed = append(failed, plotter.XY{X: tr.Terminal.Position.X, Y: tr.Terminal.Position.Y})
			continue
		}
		pts := tr.Path.Waypoints()
		line, err := plotter.NewLine(pointXYs(pts))
		if err != nil {
			return nil, fmt.Errorf("path %s: %w", tr.Terminal.ID, err)
		}
		line.Color = RouteColor(i)
		line.Width = vg.Points(2)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("%c %s", Marker(i), tr.Terminal.ID), line)

		if opts.ShowCosts {
			costs := cornerCosts(tr)
			labels := plotter.XYLabels{}
			for j, c := range costs {
				if c < 0 {
					continue
				}
				labels.XYs = append(labels.XYs, plotter.XY{X: pts[j].X, Y: pts[j].Y})
				labels.Labels = append(labels.Labels, fmt.Sprint(c))
			}
			if len(labels.XYs) > 0 {
				l, err := plotter.NewLabels(labels)
				if err != nil {
					return nil, fmt.Errorf("cost labels %s: %w", tr.Terminal.ID, err)
				}
				p.Add(l)
			}
		}
	}

	if len(failed) > 0 {
		sc, err := plotter.NewScatter(failed)
		if err != nil {
			return nil, fmt.Errorf("failed terminals: %w", err)
		}
		sc.GlyphStyle.Shape = draw.CrossGlyph{}
		sc.GlyphStyle.Color = color.RGBA{R: 0xcc, A: 0xff}
		sc.GlyphStyle.Radius = vg.Points(4)
		p.Add(sc)
		p.Legend.Add("unrouted", sc)
	}
	return p, nil
}

func rectXYs(r geom.Rect) plotter.XYs {
	return plotter.XYs{
		{X: r.Min.X, Y: r.Min.Y},
		{X: r.Max.X, Y: r.Min.Y},
		{X: r.Max.X, Y: r.Max.Y},
		{X: r.Min.X, Y: r.Max.Y},
	}
}

func pointXYs(pts []geom.Point) plotter.XYs {
	xys := make(plotter.XYs, len(pts))
	for i, pt := range pts {
		xys[i] = plotter.XY{X: pt.X, Y: pt.Y}
	}
	return xys
}
