// Package render turns routing results into artifacts.
//
// # Overview
//
// Four formats are supported:
//
//   - json: the versioned wire form from [scenario.MarshalResult]
//   - txt: a character map of the grid, see [ASCII]
//   - svg: a Graphviz drawing with every node pinned to its world position,
//     see [ToDOT] and [RenderSVG]
//   - png: a plan view plotted with gonum/plot, see [RenderPNG]
//
// [Render] produces several formats in one call and reports to the
// registered observability render hooks.
//
// # Plan Views
//
// All renderers draw the plan (X/Y) at the run's elevation with Y growing
// upwards: obstacles as they were marked (after clearance inflation), the
// trunk, and one path per routed terminal from its branch point on the trunk
// to the terminal. Terminals that could not be routed are drawn as crosses.
//
// With [Options.ShowCosts] set, paths carry the F value the search reached
// each corner with, which makes turn penalties visible on the drawing.
//
//	dot := render.ToDOT(result, render.Options{ShowCosts: true})
//	svg, err := render.RenderSVG(ctx, dot)
package render
