// Package pkg provides the core libraries for ductrouter branch duct routing.
//
// # Overview
//
// Ductrouter lays out branch ducts from an existing trunk to a set of
// terminals. Each terminal gets an orthogonal path on a uniform plan grid
// found by A* with a penalty per elbow, so routes prefer long straight runs.
//
// # Architecture
//
// The typical data flow:
//
//	Scenario file (TOML or JSON)
//	         ↓
//	    [scenario] package (decode, validate, hash)
//	         ↓
//	    [routing] package (search region, grid, per-terminal A*)
//	         ↓
//	    [render] package (JSON, ASCII plan, SVG, PNG)
//	         ↓
//	    [store] package (optional run history)
//
// [pipeline] ties these stages together with caching and is shared by the
// CLI and the [api] server.
//
// # Main Packages
//
// ## Routing
//
// [geom] - Points and axis-aligned rectangles with closed containment.
//
// [grid] - Uniform cell grid with obstacle marking and 4-neighbourhoods.
//
// [pqueue] - Indexed binary min-heap with decrease-key.
//
// [pathfind] - A* with Manhattan heuristic, turn penalties and expansion
// budgets.
//
// [routing] - Derives the search region and branch points from a trunk and
// routes every terminal, in parallel, into a [routing.Result].
//
// ## Infrastructure
//
// [cache] - Route and artifact cache: file, Redis and null backends.
//
// [store] - Run history: file, MongoDB and in-memory backends.
//
// [observability] - Hooks for searches, routing runs, renders, cache and
// HTTP traffic. No-op by default.
//
// [errors] - Coded errors shared by every package.
//
// # Quick Start
//
//	sc, _ := scenario.Load("plant-room.toml")
//	req, _ := sc.Request()
//	res, _ := routing.NewEngine().Route(ctx, req)
//	fmt.Print(res.Summary())
//
// [scenario]: https://pkg.go.dev/github.com/matzehuels/ductrouter/pkg/scenario
// [routing]: https://pkg.go.dev/github.com/matzehuels/ductrouter/pkg/routing
// [routing.Result]: https://pkg.go.dev/github.com/matzehuels/ductrouter/pkg/routing#Result
// [render]: https://pkg.go.dev/github.com/matzehuels/ductrouter/pkg/render
// [store]: https://pkg.go.dev/github.com/matzehuels/ductrouter/pkg/store
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/ductrouter/pkg/pipeline
// [api]: https://pkg.go.dev/github.com/matzehuels/ductrouter/pkg/api
// [geom]: https://pkg.go.dev/github.com/matzehuels/ductrouter/pkg/geom
// [grid]: https://pkg.go.dev/github.com/matzehuels/ductrouter/pkg/grid
// [pqueue]: https://pkg.go.dev/github.com/matzehuels/ductrouter/pkg/pqueue
// [pathfind]: https://pkg.go.dev/github.com/matzehuels/ductrouter/pkg/pathfind
// [cache]: https://pkg.go.dev/github.com/matzehuels/ductrouter/pkg/cache
// [observability]: https://pkg.go.dev/github.com/matzehuels/ductrouter/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/ductrouter/pkg/errors
package pkg
