package scenario_test

import (
	"fmt"
	"strings"

	"github.com/matzehuels/ductrouter/pkg/scenario"
)

func ExampleDecode() {
	const doc = `
name = "riser"
step = 0.5

[trunk]
min = [0, 0, 3]
max = [6, 1, 3.5]

[[terminals]]
id = "VAV-1"
position = [2, 4]
`
	sc, err := scenario.Decode(strings.NewReader(doc), scenario.FormatTOML)
	if err != nil {
		panic(err)
	}
	req, err := sc.Request()
	if err != nil {
		panic(err)
	}
	fmt.Println(sc.Name, len(req.Terminals), req.Step)
	fmt.Println(req.Trunk.Min.Z, req.Trunk.Max.Z)
	// Output:
	// riser 1 0.5
	// 3 3.5
}
