package pathfind

import "github.com/matzehuels/ductrouter/pkg/grid"

type nodeState uint8

const (
	stateUnseen nodeState = iota
	stateOpen
	stateClosed
)

// node is the per-search record for one cell.
type node struct {
	cell      *grid.Cell
	parent    *node
	linear    int
	g, h      int
	penalty   int
	heading   grid.Orientation // axis of the move into this cell
	state     nodeState
	heapIndex int
}

func (n *node) f() int { return n.g + n.h + n.penalty }

// Compare orders by f, then h, then penalty. The cell's linear index breaks
// any remaining tie so that every open-set implementation pops the same
// sequence.
func (n *node) Compare(o *node) int {
	if d := n.f() - o.f(); d != 0 {
		return d
	}
	if d := n.h - o.h; d != 0 {
		return d
	}
	if d := n.penalty - o.penalty; d != 0 {
		return d
	}
	return n.linear - o.linear
}

func (n *node) HeapIndex() int     { return n.heapIndex }
func (n *node) SetHeapIndex(i int) { n.heapIndex = i }
