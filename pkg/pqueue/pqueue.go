// Package pqueue implements a generic binary min-heap whose items track their
// own position, so a caller can lower an enqueued item's key and restore heap
// order in O(log n) without removing it.
//
// Items implement [Item]: a three-way comparison and a heap-index handle the
// heap keeps current on every move. The heap never copies items, so T is
// normally a pointer type.
//
// Typical use as an A* open set:
//
//	open := pqueue.New[*node](64)
//	open.Insert(start)
//	for open.Len() > 0 {
//	    n, _ := open.ExtractMin()
//	    // ...
//	    if open.Contains(m) {
//	        m.g = better
//	        open.DecreaseKey(m)
//	    }
//	}
package pqueue

import (
	"github.com/matzehuels/ductrouter/pkg/errors"
)

// Item is an element that can live in a Heap.
//
// Compare returns a negative number when the receiver should be extracted
// before other, zero when they tie and a positive number otherwise.
// HeapIndex and SetHeapIndex expose the slot the heap stores the item in;
// SetHeapIndex(-1) marks an item that is not in any heap.
type Item[T any] interface {
	comparable
	Compare(other T) int
	HeapIndex() int
	SetHeapIndex(i int)
}

// Heap is a binary min-heap of items ordered by Compare.
type Heap[T Item[T]] struct {
	items []T
}

// New returns an empty heap with room for capacity items.
func New[T Item[T]](capacity int) *Heap[T] {
	return &Heap[T]{items: make([]T, 0, max(capacity, 0))}
}

// Len returns the number of items in the heap.
func (h *Heap[T]) Len() int { return len(h.items) }

// Contains reports whether item currently sits in this heap.
func (h *Heap[T]) Contains(item T) bool {
	i := item.HeapIndex()
	return i >= 0 && i < len(h.items) && h.items[i] == item
}

// Insert adds item and sifts it up until heap order holds.
func (h *Heap[T]) Insert(item T) {
	item.SetHeapIndex(len(h.items))
	h.items = append(h.items, item)
	h.siftUp(len(h.items) - 1)
}

// Peek returns the minimum item without removing it.
func (h *Heap[T]) Peek() (T, error) {
	if len(h.items) == 0 {
		var zero T
		return zero, errors.New(errors.ErrCodeEmptyQueue, "peek on empty queue")
	}
	return h.items[0], nil
}

// ExtractMin removes and returns the minimum item. The last item moves to the
// root and sifts down. Extracting from an empty heap is a contract violation
// reported as errors.ErrCodeEmptyQueue.
func (h *Heap[T]) ExtractMin() (T, error) {
	var zero T
	n := len(h.items)
	if n == 0 {
		return zero, errors.New(errors.ErrCodeEmptyQueue, "extract from empty queue")
	}

	root := h.items[0]
	last := n - 1
	h.swap(0, last)
	h.items[last] = zero
	h.items = h.items[:last]
	if last > 0 {
		h.siftDown(0)
	}
	root.SetHeapIndex(-1)
	return root, nil
}

// DecreaseKey restores heap order after the caller lowered item's key.
func (h *Heap[T]) DecreaseKey(item T) error {
	if !h.Contains(item) {
		return errors.New(errors.ErrCodeInternal, "decrease-key on item not in queue")
	}
	h.siftUp(item.HeapIndex())
	return nil
}

// Fix restores heap order after item's key changed in either direction.
func (h *Heap[T]) Fix(item T) error {
	if !h.Contains(item) {
		return errors.New(errors.ErrCodeInternal, "fix on item not in queue")
	}
	i := item.HeapIndex()
	if !h.siftDown(i) {
		h.siftUp(i)
	}
	return nil
}

// Items returns the backing slice in heap order. Callers must not modify it.
func (h *Heap[T]) Items() []T { return h.items }

func (h *Heap[T]) less(i, j int) bool {
	return h.items[i].Compare(h.items[j]) < 0
}

func (h *Heap[T]) swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.items[i].SetHeapIndex(i)
	h.items[j].SetHeapIndex(j)
}

func (h *Heap[T]) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !h.less(i, parent) {
			return
		}
		h.swap(i, parent)
		i = parent
	}
}

// siftDown moves the item at i toward the leaves and reports whether it moved.
func (h *Heap[T]) siftDown(i int) bool {
	start := i
	n := len(h.items)
	for {
		left := 2*i + 1
		if left >= n {
			break
		}
		smallest := left
		if right := left + 1; right < n && h.less(right, left) {
			smallest = right
		}
		if !h.less(smallest, i) {
			break
		}
		h.swap(i, smallest)
		i = smallest
	}
	return i > start
}
