package tree

import (
	"github.com/instabase/blueprint-go/pkg/blueprint/boundtree"
	"github.com/instabase/blueprint-go/pkg/blueprint/document"
	"github.com/instabase/blueprint-go/pkg/blueprint/extraction"
	"github.com/instabase/blueprint-go/pkg/blueprint/rule"
)

// MergeNode merges the outputs of several extraction nodes, whose fields
// must be pairwise disjoint. Binding it combines its children (adding the
// same disjointness constraints Combine would) and wraps the result with
// its own independent best/returned-extraction bookkeeping.
type MergeNode struct {
	id       string
	nodeName string
	children []Node
	rules    []rule.Rule
}

// NewMergeNode builds a MergeNode over children.
func NewMergeNode(children []Node) *MergeNode {
	return &MergeNode{id: newUUID(), children: children}
}

func (n *MergeNode) LegalFields() map[extraction.Field]bool {
	sets := make([]map[extraction.Field]bool, len(n.children))
	for i, c := range n.children {
		sets[i] = c.LegalFields()
	}
	return fieldsUnion(sets...)
}
func (n *MergeNode) ChildNodes() []Node { return n.children }
func (n *MergeNode) Rules() []rule.Rule { return n.rules }
func (n *MergeNode) IsDecidable(r rule.Rule) bool { return isDecidable(n.LegalFields(), r) }

func (n *MergeNode) WithRules(rules []rule.Rule) Node {
	cp := *n
	cp.rules = rules
	return &cp
}

func (n *MergeNode) name() string {
	if n.nodeName != "" {
		return n.nodeName
	}
	return "MergeNode(" + commaSepFields(n.LegalFields()) + ")"
}
func (n *MergeNode) uuid() string { return n.id }

func (n *MergeNode) BindTo(doc *document.Document) boundtree.Node {
	combined, err := Combine(n.children, false, nil)
	if err != nil {
		panic(err)
	}
	return boundtree.NewMergeNode(doc, combined.BindTo(doc), withDocument(doc, n.rules), n.name(), n.id)
}

var _ Node = (*MergeNode)(nil)

func commaSepFields(fields map[extraction.Field]bool) string {
	out := ""
	for i, f := range sortedFields(fields) {
		if i > 0 {
			out += ", "
		}
		out += f
	}
	return out
}
