// Package boundtree holds the document-bound half of an extraction tree:
// nodes that have already been matched against entities in a specific
// document and so can be iterated for scored extractions directly, from
// best to roughly-worst.
package boundtree

import (
	"github.com/instabase/blueprint-go/pkg/blueprint/document"
	"github.com/instabase/blueprint-go/pkg/blueprint/extraction"
	"github.com/instabase/blueprint-go/pkg/blueprint/peeker"
	"github.com/instabase/blueprint-go/pkg/blueprint/rule"
	"github.com/instabase/blueprint-go/pkg/blueprint/scoring"
)

// Node is a bound extraction-tree node: an iterator of scored extractions,
// narrowed to a document and a fixed set of legal fields and rules.
type Node interface {
	peeker.Iterator[*scoring.ScoredExtraction]

	Document() *document.Document
	LegalFields() map[extraction.Field]bool
	Rules() []rule.Rule
	Name() string
	UUID() string
	Mass() float64
	ChildNodes() []Node
	IsDecidable(r rule.Rule) bool

	// BestExtraction is the highest-scoring extraction yielded so far, or
	// nil if none has been yielded yet.
	BestExtraction() *scoring.ScoredExtraction
	ReturnedExtractions() []*scoring.ScoredExtraction
}

type base struct {
	document    *document.Document
	legalFields map[extraction.Field]bool
	rules       []rule.Rule
	name        string
	uuid        string

	bestExtraction       *scoring.ScoredExtraction
	returnedExtractions  []*scoring.ScoredExtraction
}

func newBase(doc *document.Document, legalFields map[extraction.Field]bool, rules []rule.Rule, name, uuid string) base {
	return base{document: doc, legalFields: legalFields, rules: rules, name: name, uuid: uuid}
}

func (b *base) Document() *document.Document                   { return b.document }
func (b *base) LegalFields() map[extraction.Field]bool          { return b.legalFields }
func (b *base) Rules() []rule.Rule                              { return b.rules }
func (b *base) Name() string                                    { return b.name }
func (b *base) UUID() string                                    { return b.uuid }
func (b *base) BestExtraction() *scoring.ScoredExtraction       { return b.bestExtraction }
func (b *base) ReturnedExtractions() []*scoring.ScoredExtraction { return b.returnedExtractions }

// IsDecidable reports whether every field r depends on is among this
// node's legal fields.
func (b *base) IsDecidable(r rule.Rule) bool {
	return fieldsSubset(r.Fields(), b.legalFields)
}

func (b *base) yielding(se *scoring.ScoredExtraction) *scoring.ScoredExtraction {
	if b.bestExtraction == nil || se.Less(*b.bestExtraction) {
		b.bestExtraction = se
	}
	b.returnedExtractions = append(b.returnedExtractions, se)
	return se
}

func (b *base) String() string { return b.name }

func fieldsSubset(fields []extraction.Field, set map[extraction.Field]bool) bool {
	for _, f := range fields {
		if !set[f] {
			return false
		}
	}
	return true
}

func unionFields(a, b map[extraction.Field]bool) map[extraction.Field]bool {
	out := make(map[extraction.Field]bool, len(a)+len(b))
	for f := range a {
		out[f] = true
	}
	for f := range b {
		out[f] = true
	}
	return out
}

func fieldSetsEqual(a, b map[extraction.Field]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for f := range a {
		if !b[f] {
			return false
		}
	}
	return true
}

// EmptyNode never yields an extraction. It stands in for a subtree that
// could not be bound to the document at all.
type EmptyNode struct {
	base
}

// NewEmptyNode builds an EmptyNode.
func NewEmptyNode(doc *document.Document, name, uuid string) *EmptyNode {
	return &EmptyNode{base: newBase(doc, map[extraction.Field]bool{}, nil, name, uuid)}
}

func (n *EmptyNode) Next() (*scoring.ScoredExtraction, bool) { return nil, false }
func (n *EmptyNode) ChildNodes() []Node                      { return nil }
func (n *EmptyNode) Mass() float64 {
	panic("boundtree: EmptyNode has no mass")
}

var (
	_ Node = (*EmptyNode)(nil)
)
