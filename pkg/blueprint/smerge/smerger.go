// Package smerge combines several roughly-increasing streams of scored
// extractions into a single roughly-increasing stream, lazily computing
// their cartesian product of merges.
package smerge

import (
	"container/heap"

	"github.com/bits-and-blooms/bitset"

	"github.com/instabase/blueprint-go/pkg/blueprint/docregion"
	"github.com/instabase/blueprint-go/pkg/blueprint/extraction"
	"github.com/instabase/blueprint-go/pkg/blueprint/peeker"
	"github.com/instabase/blueprint-go/pkg/blueprint/scoring"
)

func scoreLess(a, b *scoring.ScoredExtraction) bool { return a.Less(*b) }

type stream struct {
	peeker      *peeker.Peeker[*scoring.ScoredExtraction]
	prefilter   docregion.Prefilter
	initialized bool
}

func newStream(source peeker.Iterator[*scoring.ScoredExtraction], prefilter docregion.Prefilter, peekDistance int) *stream {
	return &stream{peeker: peeker.NewPeeker(source, peekDistance, scoreLess), prefilter: prefilter}
}

func (s *stream) initialize() {
	if s.initialized {
		panic("smerge: attempted initialization multiple times")
	}
	s.peeker.Initialize()
	s.initialized = true
}

func (s *stream) advance() (*scoring.ScoredExtraction, bool) {
	v, ok := s.peeker.Next()
	if ok {
		s.prefilter.Add(v)
	}
	return v, ok
}

type emptySource struct{}

func (emptySource) Next() (*scoring.ScoredExtraction, bool) { return nil, false }

func buildTrivialStream() *stream {
	prefilter := docregion.NewTrivialPrefilter()
	empty := scoring.Build(extraction.Empty(), 1, nil)
	prefilter.Add(&empty)
	s := newStream(emptySource{}, prefilter, 1)
	s.initialize()
	return s
}

// Merger combines one ScoredExtraction from each stream, in stream order,
// into a single result. It returns ok=false to discard a combination that
// failed gracefully (e.g. conflicting field assignments).
type Merger func(ts []*scoring.ScoredExtraction) (*scoring.ScoredExtraction, bool)

// StreamSource is one input to a Smerger: a roughly-increasing source of
// scored extractions, paired with the prefilter that narrows what the
// other streams may combine it with.
type StreamSource struct {
	Source    peeker.Iterator[*scoring.ScoredExtraction]
	Prefilter docregion.Prefilter
}

type resultHeap struct {
	items []*scoring.ScoredExtraction
}

func (h *resultHeap) Len() int           { return len(h.items) }
func (h *resultHeap) Less(i, j int) bool { return scoreLess(h.items[i], h.items[j]) }
func (h *resultHeap) Swap(i, j int)      { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *resultHeap) Push(x any)         { h.items = append(h.items, x.(*scoring.ScoredExtraction)) }
func (h *resultHeap) Pop() any {
	old := h.items
	n := len(old)
	item := old[n-1]
	h.items = old[:n-1]
	return item
}

// Smerger combines several roughly-increasing streams of scored
// extractions into a single roughly-increasing stream. For every
// combination of elements across streams it guarantees that combination
// is eventually emitted, with multiplicity, unless allOrNothing is set.
type Smerger struct {
	streams       []*stream
	merger        Merger
	normEstimator func(ts []*scoring.ScoredExtraction) float64
	normGetter    func(t *scoring.ScoredExtraction) float64
	allOrNothing  bool
	optimistic    bool

	heap      *resultHeap
	exhausted *bitset.BitSet // streams[i] known permanently drained, once a peek fails
}

// New configures a Smerger. If using this for extractions and scores as
// the norm, as is typical, the norm functions should negate the score:
// the heap internally returns elements from best to worst via their own
// ordering, but norm comparisons are expected smallest-is-best.
func New(
	sources []StreamSource,
	merger Merger,
	normEstimator func(ts []*scoring.ScoredExtraction) float64,
	normGetter func(t *scoring.ScoredExtraction) float64,
	allOrNothing bool,
	peekDistance int,
	optimistic bool,
) *Smerger {
	if peekDistance < 1 {
		panic("smerge: peek distance must be positive")
	}
	streams := make([]*stream, len(sources))
	for i, s := range sources {
		streams[i] = newStream(s.Source, s.Prefilter, peekDistance)
	}
	return &Smerger{
		streams:       streams,
		merger:        merger,
		normEstimator: normEstimator,
		normGetter:    normGetter,
		allOrNothing:  allOrNothing,
		optimistic:    optimistic,
	}
}

func (sm *Smerger) initialize() {
	if sm.heap != nil {
		panic("smerge: attempted initialization multiple times")
	}
	sm.heap = &resultHeap{}
	sm.exhausted = bitset.New(uint(len(sm.streams)))
	for _, s := range sm.streams {
		s.initialize()
	}

	onlyEmpty := func(s *stream) bool {
		top, ok := s.peeker.Top()
		return ok && top.IsEmpty()
	}

	if sm.allOrNothing {
		anyOnlyEmpty := false
		for _, s := range sm.streams {
			if onlyEmpty(s) {
				anyOnlyEmpty = true
				break
			}
		}
		if anyOnlyEmpty {
			for i, s := range sm.streams {
				if !onlyEmpty(s) {
					sm.streams[i] = buildTrivialStream()
				}
			}
		}
	}

	for i, s := range sm.streams {
		if _, ok := sm.topOrExhausted(i); ok {
			sm.step(s)
		}
	}
}

// topOrExhausted peeks streams[i]'s top, consulting the exhausted bitmap
// first so a stream already known to be drained isn't re-peeked on every
// subsequent call; a peek that comes back empty marks the bit permanently.
func (sm *Smerger) topOrExhausted(i int) (*scoring.ScoredExtraction, bool) {
	if sm.exhausted.Test(uint(i)) {
		return nil, false
	}
	top, ok := sm.streams[i].peeker.Top()
	if !ok {
		sm.exhausted.Set(uint(i))
	}
	return top, ok
}

func cartesianProduct(lists [][]*scoring.ScoredExtraction) [][]*scoring.ScoredExtraction {
	result := [][]*scoring.ScoredExtraction{{}}
	for _, list := range lists {
		var next [][]*scoring.ScoredExtraction
		for _, prefix := range result {
			for _, v := range list {
				combo := make([]*scoring.ScoredExtraction, len(prefix)+1)
				copy(combo, prefix)
				combo[len(prefix)] = v
				next = append(next, combo)
			}
		}
		result = next
	}
	return result
}

func (sm *Smerger) step(steppingStream *stream) {
	t, ok := steppingStream.advance()
	if !ok {
		return
	}

	lists := make([][]*scoring.ScoredExtraction, len(sm.streams))
	for i, s := range sm.streams {
		if s == steppingStream {
			lists[i] = []*scoring.ScoredExtraction{t}
		} else {
			lists[i] = s.prefilter.Get(t)
		}
	}

	for _, combo := range cartesianProduct(lists) {
		if merged, ok := sm.merger(combo); ok {
			heap.Push(sm.heap, merged)
		}
	}
}

func (sm *Smerger) optimisticNorm(target *stream) float64 {
	contributions := make([]*scoring.ScoredExtraction, len(sm.streams))
	for i, s := range sm.streams {
		if s == target {
			top, _ := s.peeker.Top()
			contributions[i] = top
		} else {
			contributions[i] = s.prefilter.Best()
		}
	}
	return sm.normEstimator(contributions)
}

func (sm *Smerger) argMinOptimisticNorm(candidates []*stream) *stream {
	var best *stream
	bestNorm := 0.0
	for _, s := range candidates {
		n := sm.optimisticNorm(s)
		if best == nil || n < bestNorm {
			best = s
			bestNorm = n
		}
	}
	return best
}

func (sm *Smerger) streamsWithTop() []*stream {
	var out []*stream
	for i, s := range sm.streams {
		if _, ok := sm.topOrExhausted(i); ok {
			out = append(out, s)
		}
	}
	return out
}

func (sm *Smerger) mostAppealingStream() (*stream, bool) {
	topNorm := sm.normGetter(sm.heap.items[0])
	var appealing []*stream
	for i, s := range sm.streams {
		if _, ok := sm.topOrExhausted(i); !ok {
			continue
		}
		if sm.optimisticNorm(s) < topNorm {
			appealing = append(appealing, s)
		}
	}
	if len(appealing) == 0 {
		return nil, false
	}
	return sm.argMinOptimisticNorm(appealing), true
}

// Next returns the next merged result in roughly-increasing-quality order,
// or ok=false once every combination has been exhausted.
func (sm *Smerger) Next() (*scoring.ScoredExtraction, bool) {
	if sm.heap == nil {
		sm.initialize()
	}

	allHaveBest := true
	for _, s := range sm.streams {
		if s.prefilter.Best() == nil {
			allHaveBest = false
			break
		}
	}

	if allHaveBest {
		for sm.heap.Len() == 0 {
			candidates := sm.streamsWithTop()
			if len(candidates) == 0 {
				break
			}
			sm.step(sm.argMinOptimisticNorm(candidates))
		}

		if sm.optimistic && sm.heap.Len() != 0 {
			for {
				candidate, ok := sm.mostAppealingStream()
				if !ok {
					break
				}
				sm.step(candidate)
			}
		}
	}

	if sm.heap.Len() == 0 {
		return nil, false
	}
	return heap.Pop(sm.heap).(*scoring.ScoredExtraction), true
}
