package tree

import (
	"github.com/instabase/blueprint-go/pkg/blueprint/boundtree"
	"github.com/instabase/blueprint-go/pkg/blueprint/document"
	"github.com/instabase/blueprint-go/pkg/blueprint/extraction"
	"github.com/instabase/blueprint-go/pkg/blueprint/rule"
)

// DefaultPeekDistance is how far a CombineNode looks ahead into each of
// its children by default. Lower values trade search quality for speed;
// the original authors recommend never going below 2.
const DefaultPeekDistance = 2

// CombineNode merges the outputs of two extraction nodes whose fields are
// disjoint, optionally requiring every field to be assigned at once.
type CombineNode struct {
	id           string
	nodeName     string
	node1, node2 Node
	allOrNothing bool
	peekDistance int
	rules        []rule.Rule
}

// NewCombineNode builds a CombineNode over node1 and node2, whose legal
// fields must be disjoint.
func NewCombineNode(node1, node2 Node, allOrNothing bool) *CombineNode {
	return &CombineNode{
		id:           newUUID(),
		node1:        node1,
		node2:        node2,
		allOrNothing: allOrNothing,
		peekDistance: DefaultPeekDistance,
	}
}

func (n *CombineNode) LegalFields() map[extraction.Field]bool {
	return fieldsUnion(n.node1.LegalFields(), n.node2.LegalFields())
}
func (n *CombineNode) ChildNodes() []Node { return []Node{n.node1, n.node2} }
func (n *CombineNode) Rules() []rule.Rule { return n.rules }
func (n *CombineNode) IsDecidable(r rule.Rule) bool { return isDecidable(n.LegalFields(), r) }

func (n *CombineNode) WithRules(rules []rule.Rule) Node {
	cp := *n
	cp.rules = rules
	return &cp
}

func (n *CombineNode) name() string {
	if n.nodeName != "" {
		return n.nodeName
	}
	return "CombineNode(" + commaSepFields(n.LegalFields()) + ")"
}
func (n *CombineNode) uuid() string { return n.id }

func (n *CombineNode) BindTo(doc *document.Document) boundtree.Node {
	return boundtree.NewCombineNode(
		doc,
		n.node1.BindTo(doc),
		n.node2.BindTo(doc),
		withDocument(doc, n.rules),
		n.allOrNothing,
		n.name(),
		n.id,
		n.peekDistance,
	)
}

var _ Node = (*CombineNode)(nil)

// PickBestNode selects the best extractions across several subtrees,
// typically alternative layouts for the same part of a document.
type PickBestNode struct {
	id           string
	nodeName     string
	children     []Node
	peekDistance int
	rules        []rule.Rule
}

// NewPickBestNode builds a PickBestNode over children.
func NewPickBestNode(children []Node) *PickBestNode {
	return &PickBestNode{id: newUUID(), children: children, peekDistance: DefaultPeekDistance}
}

func (n *PickBestNode) LegalFields() map[extraction.Field]bool {
	sets := make([]map[extraction.Field]bool, len(n.children))
	for i, c := range n.children {
		sets[i] = c.LegalFields()
	}
	return fieldsUnion(sets...)
}
func (n *PickBestNode) ChildNodes() []Node { return n.children }
func (n *PickBestNode) Rules() []rule.Rule { return n.rules }
func (n *PickBestNode) IsDecidable(r rule.Rule) bool { return isDecidable(n.LegalFields(), r) }

func (n *PickBestNode) WithRules(rules []rule.Rule) Node {
	cp := *n
	cp.rules = rules
	return &cp
}

func (n *PickBestNode) name() string {
	if n.nodeName != "" {
		return n.nodeName
	}
	return "PickBestNode(" + commaSepFields(n.LegalFields()) + ")"
}
func (n *PickBestNode) uuid() string { return n.id }

func (n *PickBestNode) BindTo(doc *document.Document) boundtree.Node {
	bound := make([]boundtree.Node, len(n.children))
	for i, c := range n.children {
		bound[i] = c.BindTo(doc)
	}
	return boundtree.NewPickBestNode(doc, bound, withDocument(doc, n.rules), n.name(), n.id, n.peekDistance)
}

var _ Node = (*PickBestNode)(nil)
