package pathfind_test

import (
	"context"
	"fmt"

	"github.com/matzehuels/ductrouter/pkg/geom"
	"github.com/matzehuels/ductrouter/pkg/grid"
	"github.com/matzehuels/ductrouter/pkg/pathfind"
)

func ExampleFindPath() {
	g, err := grid.New(geom.Point{}, geom.Point{X: 5, Y: 5}, 1)
	if err != nil {
		panic(err)
	}

	p, err := pathfind.FindPath(context.Background(), g,
		geom.Point{X: 0, Y: 0}, geom.Point{X: 3, Y: 2},
		pathfind.WithInitialHeading(grid.Horizontal))
	if err != nil {
		panic(err)
	}

	fmt.Printf("%d steps, %d turns, cost %d\n", p.Len(), p.Turns(), p.Cost())
	for _, w := range p.Waypoints() {
		fmt.Printf("(%g, %g)\n", w.X, w.Y)
	}
	// Output:
	// 5 steps, 1 turns, cost 70
	// (0, 0)
	// (3, 0)
	// (3, 2)
}
