package peeker

import "container/heap"

type peekingHeapItem[T any] struct {
	normalized T
	counter    int
	peeker     *Peeker[T]
}

type normHeap[T any] struct {
	items []peekingHeapItem[T]
	less  func(a, b T) bool
}

func (h *normHeap[T]) Len() int { return len(h.items) }

func (h *normHeap[T]) Less(i, j int) bool {
	a, b := h.items[i], h.items[j]
	if h.less(a.normalized, b.normalized) {
		return true
	}
	if h.less(b.normalized, a.normalized) {
		return false
	}
	return a.counter < b.counter
}

func (h *normHeap[T]) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }

func (h *normHeap[T]) Push(x any) { h.items = append(h.items, x.(peekingHeapItem[T])) }

func (h *normHeap[T]) Pop() any {
	old := h.items
	n := len(old)
	item := old[n-1]
	h.items = old[:n-1]
	return item
}

// PeekingHeap merges several roughly-increasing sequences into one,
// always yielding next the smallest element among the current tops of
// each underlying Peeker (by normalizer, with insertion order breaking
// ties).
type PeekingHeap[T any] struct {
	sources      []Iterator[T]
	normalizer   func(T) T
	peekDistance int
	less         func(a, b T) bool
	heap         *normHeap[T]
	counter      int
}

// NewPeekingHeap configures a PeekingHeap over sources. peekDistance must
// be positive; it configures every underlying Peeker.
func NewPeekingHeap[T any](sources []Iterator[T], normalizer func(T) T, peekDistance int, less func(a, b T) bool) *PeekingHeap[T] {
	if peekDistance < 1 {
		panic("peeker: peek distance must be positive")
	}
	return &PeekingHeap[T]{sources: sources, normalizer: normalizer, peekDistance: peekDistance, less: less}
}

// Initialize primes a Peeker per source. Calling it more than once panics.
func (ph *PeekingHeap[T]) Initialize() {
	if ph.heap != nil {
		panic("peeker: attempted initialization multiple times")
	}
	ph.heap = &normHeap[T]{less: ph.less}
	for _, s := range ph.sources {
		p := NewPeeker(s, ph.peekDistance, ph.less)
		p.Initialize()
		ph.add(p)
	}
}

func (ph *PeekingHeap[T]) add(p *Peeker[T]) {
	if top, ok := p.Top(); ok {
		heap.Push(ph.heap, peekingHeapItem[T]{normalized: ph.normalizer(top), counter: ph.counter, peeker: p})
		ph.counter++
	}
}

// Next pops the Peeker whose current top normalizes smallest, advances it,
// and re-adds it to the heap by its new top.
func (ph *PeekingHeap[T]) Next() (T, bool) {
	if ph.heap == nil {
		ph.Initialize()
	}
	if ph.heap.Len() == 0 {
		var zero T
		return zero, false
	}
	item := heap.Pop(ph.heap).(peekingHeapItem[T])
	v, ok := item.peeker.Next()
	if !ok {
		panic("peeker: peeker's top disappeared between heap push and pop")
	}
	t := ph.normalizer(v)
	ph.add(item.peeker)
	return t, true
}
