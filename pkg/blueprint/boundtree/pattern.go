package boundtree

import (
	"github.com/instabase/blueprint-go/pkg/blueprint/document"
	"github.com/instabase/blueprint-go/pkg/blueprint/extraction"
	"github.com/instabase/blueprint-go/pkg/blueprint/rule"
	"github.com/instabase/blueprint-go/pkg/blueprint/scoring"
)

// PatternNode re-exposes its child's extractions, dropping any field whose
// name is empty or private (leading underscore) before passing them up --
// private fields stay in the child's own result but never propagate past
// the pattern boundary that introduced them.
type PatternNode struct {
	base
	child Node
}

// NewPatternNode builds a PatternNode over child.
func NewPatternNode(doc *document.Document, child Node, rules []rule.Rule, name, uuid string) *PatternNode {
	legal := map[extraction.Field]bool{}
	for f := range child.LegalFields() {
		if len(f) > 0 && f[0] != '_' {
			legal[f] = true
		}
	}
	return &PatternNode{base: newBase(doc, legal, rules, name, uuid), child: child}
}

func (n *PatternNode) Next() (*scoring.ScoredExtraction, bool) {
	se, ok := n.child.Next()
	if !ok {
		return nil, false
	}
	return n.yielding(n.publicExtraction(se)), true
}

func (n *PatternNode) publicExtraction(se *scoring.ScoredExtraction) *scoring.ScoredExtraction {
	var kept []extraction.Point
	for _, p := range se.Extraction.Assignments {
		if n.legalFields[p.Field] {
			kept = append(kept, p)
		}
	}
	fieldScores := make(scoring.FieldScores, len(n.legalFields))
	for f, s := range se.FieldScores {
		if n.legalFields[f] {
			fieldScores[f] = s
		}
	}
	public := *se
	public.Extraction = extraction.New(kept)
	public.FieldScores = fieldScores
	return &public
}

func (n *PatternNode) Mass() float64      { return float64(len(n.legalFields)) }
func (n *PatternNode) ChildNodes() []Node { return []Node{n.child} }

var _ Node = (*PatternNode)(nil)

// MergeNode re-exposes its child's extractions verbatim, tracking its own
// best-extraction/returned-extractions bookkeeping independently of the
// child's.
type MergeNode struct {
	base
	child Node
}

// NewMergeNode builds a MergeNode over child.
func NewMergeNode(doc *document.Document, child Node, rules []rule.Rule, name, uuid string) *MergeNode {
	return &MergeNode{base: newBase(doc, child.LegalFields(), rules, name, uuid), child: child}
}

func (n *MergeNode) Next() (*scoring.ScoredExtraction, bool) {
	se, ok := n.child.Next()
	if !ok {
		return nil, false
	}
	return n.yielding(se), true
}

func (n *MergeNode) Mass() float64      { return n.child.Mass() }
func (n *MergeNode) ChildNodes() []Node { return []Node{n.child} }

var _ Node = (*MergeNode)(nil)
