// Package tree holds the unbound extraction tree: a Node hierarchy
// describing, independent of any particular document, which fields an
// extraction should assign and what rules those assignments must satisfy.
// Binding a Node to a document (BindTo) produces a boundtree.Node, an
// iterator over scored extractions for that document.
package tree

import (
	"fmt"
	"sort"

	"github.com/fogfish/guid/v2"

	"github.com/instabase/blueprint-go/pkg/blueprint/boundtree"
	"github.com/instabase/blueprint-go/pkg/blueprint/document"
	"github.com/instabase/blueprint-go/pkg/blueprint/extraction"
	"github.com/instabase/blueprint-go/pkg/blueprint/rule"
)

func newUUID() string { return guid.G(guid.Clock).String() }

// UnrecognizedFieldsError is raised when a node's rules mention fields
// outside its legal field set.
type UnrecognizedFieldsError struct {
	Node   string
	Fields map[extraction.Field]bool
}

func (e UnrecognizedFieldsError) Error() string {
	return fmt.Sprintf("tree: rule in %s refers to fields %v not found in its legal fields", e.Node, e.Fields)
}

// OverlappingFieldsError is raised when two sibling nodes being combined
// or merged claim the same field.
type OverlappingFieldsError struct {
	Fields map[extraction.Field]bool
}

func (e OverlappingFieldsError) Error() string {
	return fmt.Sprintf("tree: fields %v appear in more than one child", e.Fields)
}

// Node is a node in an unbound extraction tree.
type Node interface {
	// LegalFields is the set of fields extractions from this node may
	// assign.
	LegalFields() map[extraction.Field]bool
	// ChildNodes is this node's immediate children.
	ChildNodes() []Node
	// Rules returns the rules attached directly at this node (not its
	// descendants).
	Rules() []rule.Rule
	// IsDecidable reports whether r's fields all lie within this node's
	// legal fields.
	IsDecidable(r rule.Rule) bool
	// BindTo resolves this node against a document, producing an
	// iterator over scored extractions.
	BindTo(doc *document.Document) boundtree.Node
	// WithRules returns a copy of this node with its direct rules
	// replaced.
	WithRules(rules []rule.Rule) Node

	name() string
	uuid() string
}

// AllRules yields the rules at node and every descendant, depth-first.
func AllRules(node Node) []rule.Rule {
	rules := append([]rule.Rule(nil), node.Rules()...)
	for _, c := range node.ChildNodes() {
		rules = append(rules, AllRules(c)...)
	}
	return rules
}

// Validate checks that every rule directly attached to node mentions only
// fields node considers legal, plus, for Combine/Merge nodes, that their
// children's fields are pairwise disjoint.
func Validate(node Node) error {
	for _, r := range node.Rules() {
		required := map[extraction.Field]bool{}
		for _, f := range r.Fields() {
			required[f] = true
		}
		legal := node.LegalFields()
		missing := map[extraction.Field]bool{}
		for f := range required {
			if !legal[f] {
				missing[f] = true
			}
		}
		if len(missing) > 0 {
			return UnrecognizedFieldsError{Node: node.name(), Fields: missing}
		}
	}

	switch n := node.(type) {
	case *CombineNode:
		overlap := map[extraction.Field]bool{}
		for f := range n.node1.LegalFields() {
			if n.node2.LegalFields()[f] {
				overlap[f] = true
			}
		}
		if len(overlap) > 0 {
			return OverlappingFieldsError{Fields: overlap}
		}
	case *MergeNode:
		seen := map[extraction.Field]bool{}
		overlap := map[extraction.Field]bool{}
		for _, c := range n.children {
			for f := range c.LegalFields() {
				if seen[f] {
					overlap[f] = true
				}
				seen[f] = true
			}
		}
		if len(overlap) > 0 {
			return OverlappingFieldsError{Fields: overlap}
		}
	}
	return nil
}

func isDecidable(legal map[extraction.Field]bool, r rule.Rule) bool {
	for _, f := range r.Fields() {
		if !legal[f] {
			return false
		}
	}
	return true
}

func fieldsUnion(sets ...map[extraction.Field]bool) map[extraction.Field]bool {
	out := map[extraction.Field]bool{}
	for _, s := range sets {
		for f := range s {
			out[f] = true
		}
	}
	return out
}

func sortedFields(fields map[extraction.Field]bool) []extraction.Field {
	out := make([]extraction.Field, 0, len(fields))
	for f := range fields {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func withDocument(doc *document.Document, rules []rule.Rule) []rule.Rule {
	out := make([]rule.Rule, len(rules))
	for i, r := range rules {
		out[i] = r.WithDocument(doc)
	}
	return out
}

// EmptyNode is a Node with no fields and no rules.
type EmptyNode struct {
	id string
}

// NewEmptyNode builds an EmptyNode.
func NewEmptyNode() *EmptyNode { return &EmptyNode{id: newUUID()} }

func (n *EmptyNode) LegalFields() map[extraction.Field]bool { return map[extraction.Field]bool{} }
func (n *EmptyNode) ChildNodes() []Node                       { return nil }
func (n *EmptyNode) Rules() []rule.Rule                       { return nil }
func (n *EmptyNode) IsDecidable(r rule.Rule) bool              { return isDecidable(n.LegalFields(), r) }
func (n *EmptyNode) WithRules(rules []rule.Rule) Node {
	if len(rules) > 0 {
		panic("tree: EmptyNode cannot carry rules")
	}
	return n
}
func (n *EmptyNode) BindTo(doc *document.Document) boundtree.Node {
	return boundtree.NewEmptyNode(doc, n.name(), n.id)
}
func (n *EmptyNode) name() string { return "EmptyNode()" }
func (n *EmptyNode) uuid() string { return n.id }

var _ Node = (*EmptyNode)(nil)
