// Package peeker forwards a sequence while constantly peeking a few
// elements ahead, preferring to emit smaller elements first.
package peeker

import "container/heap"

// Iterator yields a sequence of Ts. Next returns ok=false once exhausted.
type Iterator[T any] interface {
	Next() (T, bool)
}

type tHeap[T any] struct {
	items []T
	less  func(a, b T) bool
}

func (h *tHeap[T]) Len() int           { return len(h.items) }
func (h *tHeap[T]) Less(i, j int) bool { return h.less(h.items[i], h.items[j]) }
func (h *tHeap[T]) Swap(i, j int)      { h.items[i], h.items[j] = h.items[j], h.items[i] }

func (h *tHeap[T]) Push(x any) { h.items = append(h.items, x.(T)) }

func (h *tHeap[T]) Pop() any {
	old := h.items
	n := len(old)
	item := old[n-1]
	h.items = old[:n-1]
	return item
}

// Peeker maintains a min-heap of peekDistance elements drawn from source,
// so that Next returns the smallest element among what it has seen so far
// rather than strictly the next element source would yield.
type Peeker[T any] struct {
	source       Iterator[T]
	peekDistance int
	less         func(a, b T) bool
	heap         *tHeap[T]
}

// NewPeeker configures a Peeker. peekDistance must be nonnegative; it is
// the number of elements of source the Peeker holds in its heap at once.
func NewPeeker[T any](source Iterator[T], peekDistance int, less func(a, b T) bool) *Peeker[T] {
	if peekDistance < 0 {
		panic("peeker: peek distance must be nonnegative")
	}
	return &Peeker[T]{source: source, peekDistance: peekDistance, less: less}
}

// Initialize primes the heap with up to peekDistance elements. Calling it
// more than once panics.
func (p *Peeker[T]) Initialize() {
	if p.heap != nil {
		panic("peeker: attempted initialization multiple times")
	}
	p.heap = &tHeap[T]{less: p.less}
	for i := 0; i < p.peekDistance; i++ {
		p.step()
	}
}

func (p *Peeker[T]) step() {
	if v, ok := p.source.Next(); ok {
		heap.Push(p.heap, v)
	}
}

// Next draws one more element from source, adds it to the heap, and pops
// and returns the smallest element in the heap.
func (p *Peeker[T]) Next() (T, bool) {
	if p.heap == nil {
		p.Initialize()
	}
	p.step()
	if p.heap.Len() == 0 {
		var zero T
		return zero, false
	}
	return heap.Pop(p.heap).(T), true
}

// Top returns the current top of the heap without consuming it. Always
// ok=false when peekDistance is 0. It is not guaranteed that a following
// call to Next returns this same value.
func (p *Peeker[T]) Top() (T, bool) {
	if p.heap == nil {
		p.Initialize()
	}
	if p.heap.Len() == 0 {
		var zero T
		return zero, false
	}
	return p.heap.items[0], true
}
