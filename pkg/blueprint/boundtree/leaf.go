package boundtree

import (
	"github.com/instabase/blueprint-go/internal/blog"
	"github.com/instabase/blueprint-go/pkg/blueprint/document"
	"github.com/instabase/blueprint-go/pkg/blueprint/extraction"
	"github.com/instabase/blueprint-go/pkg/blueprint/rule"
	"github.com/instabase/blueprint-go/pkg/blueprint/scoring"
)

// LeafNode yields a fixed, pre-scored sequence of extractions for a single
// field, skipping any that turn out invalid once its non-atom rules are
// applied.
type LeafNode struct {
	base
	field       extraction.Field
	extractions []*scoring.ScoredExtraction
	i           int
}

// NewLeafNode builds a LeafNode. extractions should already have every
// degree-1 atom rule applied -- LeafNode only re-checks the rest.
func NewLeafNode(doc *document.Document, field extraction.Field, rules []rule.Rule, name, uuid string, extractions []*scoring.ScoredExtraction) *LeafNode {
	return &LeafNode{
		base:        newBase(doc, map[extraction.Field]bool{field: true}, rules, name, uuid),
		field:       field,
		extractions: extractions,
	}
}

func (n *LeafNode) Next() (*scoring.ScoredExtraction, bool) {
	var nonAtomRules []rule.Rule
	for _, r := range n.rules {
		if _, isAtom := r.(*rule.Atom); !isAtom {
			nonAtomRules = append(nonAtomRules, r)
		}
	}

	for n.i < len(n.extractions) {
		candidate := n.extractions[n.i]
		checked, err := scoring.Merge([]scoring.ScoredExtraction{*candidate}, nonAtomRules, n.Mass())
		n.i++
		if err == nil && checked.Valid() {
			return n.yielding(candidate), true
		}
		blog.Errorf("boundtree: leaf %s was constructed with an invalid extraction %v", n.name, candidate)
	}
	return nil, false
}

func (n *LeafNode) Mass() float64       { return 1 }
func (n *LeafNode) ChildNodes() []Node  { return nil }

var _ Node = (*LeafNode)(nil)
