package boundtree

import (
	"github.com/instabase/blueprint-go/pkg/blueprint/document"
	"github.com/instabase/blueprint-go/pkg/blueprint/extraction"
	"github.com/instabase/blueprint-go/pkg/blueprint/peeker"
	"github.com/instabase/blueprint-go/pkg/blueprint/rule"
	"github.com/instabase/blueprint-go/pkg/blueprint/scoring"
)

// PickBestNode merges its children's streams into one by always taking
// whichever child's current top normalizes best, re-checking each pick
// against its own rules before yielding it.
type PickBestNode struct {
	base
	children []Node
	heap     *peeker.PeekingHeap[*scoring.ScoredExtraction]
}

// NewPickBestNode builds a PickBestNode over children. peekDistance must
// be positive.
func NewPickBestNode(doc *document.Document, children []Node, rules []rule.Rule, name, uuid string, peekDistance int) *PickBestNode {
	if peekDistance < 1 {
		panic("boundtree: PickBestNode peek distance must be positive")
	}

	legal := map[extraction.Field]bool{}
	for _, c := range children {
		for f := range c.LegalFields() {
			legal[f] = true
		}
	}

	n := &PickBestNode{base: newBase(doc, legal, rules, name, uuid), children: children}

	sources := make([]peeker.Iterator[*scoring.ScoredExtraction], len(children))
	for i, c := range children {
		sources[i] = c
	}
	normalizer := func(t *scoring.ScoredExtraction) *scoring.ScoredExtraction {
		normalized := t.Normalize(n.Mass())
		return &normalized
	}
	less := func(a, b *scoring.ScoredExtraction) bool { return a.Less(*b) }
	n.heap = peeker.NewPeekingHeap(sources, normalizer, peekDistance, less)

	return n
}

func (n *PickBestNode) Next() (*scoring.ScoredExtraction, bool) {
	for {
		t, ok := n.heap.Next()
		if !ok {
			return nil, false
		}
		merged, err := scoring.Merge([]scoring.ScoredExtraction{*t}, n.rules, n.Mass())
		if err == nil && merged.Valid() {
			return n.yielding(&merged), true
		}
	}
}

func (n *PickBestNode) Mass() float64 {
	best := 0.0
	first := true
	for _, c := range n.children {
		m := c.Mass()
		if first || m > best {
			best = m
			first = false
		}
	}
	return best
}

func (n *PickBestNode) ChildNodes() []Node { return n.children }

var _ Node = (*PickBestNode)(nil)
