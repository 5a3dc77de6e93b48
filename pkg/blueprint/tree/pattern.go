package tree

import (
	"sort"

	"github.com/instabase/blueprint-go/pkg/blueprint/boundtree"
	"github.com/instabase/blueprint-go/pkg/blueprint/document"
	"github.com/instabase/blueprint-go/pkg/blueprint/extraction"
	"github.com/instabase/blueprint-go/pkg/blueprint/graphs"
	"github.com/instabase/blueprint-go/pkg/blueprint/rule"
)

// PatternNode describes a set of fields, typed by entity type, and the
// rules that relate them, without committing to any particular tree
// shape. Each time it is bound to a document, it reconstructs a tree
// (via orderTree) tailored to that document's entity counts and the
// rules' connectivity, then distributes its rules down into that tree.
type PatternNode struct {
	id       string
	nodeName string
	fields   map[extraction.Field]string
	rules    []rule.Rule
}

// NewPatternNode builds a PatternNode over fields (field name -> required
// entity type).
func NewPatternNode(fields map[extraction.Field]string, rules []rule.Rule) *PatternNode {
	return &PatternNode{id: newUUID(), fields: fields, rules: rules}
}

func (n *PatternNode) LegalFields() map[extraction.Field]bool {
	out := make(map[extraction.Field]bool, len(n.fields))
	for f := range n.fields {
		out[f] = true
	}
	return out
}
func (n *PatternNode) ChildNodes() []Node { return nil }
func (n *PatternNode) Rules() []rule.Rule { return n.rules }
func (n *PatternNode) IsDecidable(r rule.Rule) bool { return isDecidable(n.LegalFields(), r) }

func (n *PatternNode) WithRules(rules []rule.Rule) Node {
	cp := *n
	cp.rules = rules
	return &cp
}

func (n *PatternNode) name() string {
	if n.nodeName != "" {
		return n.nodeName
	}
	return "PatternNode(" + commaSepFields(n.LegalFields()) + ")"
}
func (n *PatternNode) uuid() string { return n.id }

func (n *PatternNode) BindTo(doc *document.Document) boundtree.Node {
	root := n.orderTree(doc)
	return boundtree.NewPatternNode(doc, root.BindTo(doc), withDocument(doc, n.rules), n.name(), n.id)
}

var _ Node = (*PatternNode)(nil)

// flattenToAtoms expands every Connective rule down to its Atoms, leaving
// already-atomic rules untouched.
func flattenToAtoms(rules []rule.Rule) []rule.Rule {
	var out []rule.Rule
	for _, r := range rules {
		switch r.(type) {
		case *rule.Conjunction, *rule.Disjunction:
			for _, a := range rule.GetAtoms(r) {
				out = append(out, a)
			}
		default:
			out = append(out, r)
		}
	}
	return out
}

func (n *PatternNode) buildLeafNode(field extraction.Field) *LeafNode {
	var leafRules []rule.Rule
	for _, r := range n.rules {
		fs := map[extraction.Field]bool{}
		for _, f := range r.Fields() {
			fs[f] = true
		}
		if len(fs) == 1 && fs[field] {
			leafRules = append(leafRules, r)
		}
	}
	leaf := NewLeafNode(field, n.fields[field])
	leaf.rules = leafRules
	return leaf
}

// orderTree reconstructs a tree structure for this pattern's fields, tuned
// to document: fields are grouped into components connected by rules,
// each component is turned into a near-balanced combine tree weighted by
// how many assignments each field is likely to have and how restrictive
// the rules between them are, and the resulting components are combined
// together, cheapest first. This structure is not guaranteed optimal.
func (n *PatternNode) orderTree(doc *document.Document) Node {
	fields := sortedFields(n.LegalFields())

	numLeafAssignments := make(map[extraction.Field]int, len(fields))
	for _, f := range fields {
		leaf := n.buildLeafNode(f)
		numLeafAssignments[f] = countRemaining(leaf.BindTo(doc))
	}

	flatRules := flattenToAtoms(n.rules)

	var cliques [][]extraction.Field
	for _, r := range flatRules {
		cliques = append(cliques, r.Fields())
	}
	components := graphs.Components(cliques)

	type weightedComponent struct {
		graph graphs.WeightedMultiGraph[extraction.Field]
		est   float64
	}
	wcs := make([]weightedComponent, 0, len(components))
	for _, component := range components {
		wg := buildWeightedGraph(component, flatRules)
		wcs = append(wcs, weightedComponent{graph: wg, est: estimatedValidAssignments(wg, numLeafAssignments)})
	}
	sort.SliceStable(wcs, func(i, j int) bool { return wcs[i].est < wcs[j].est })

	var root Node
	for _, wc := range wcs {
		tr := buildTreeFromGraph(wc.graph, n.fields, numLeafAssignments)
		if root == nil {
			root = tr
			continue
		}
		combined, err := Combine([]Node{root, tr}, true, nil)
		if err != nil {
			panic(err)
		}
		root = combined
	}
	if root == nil {
		return NewEmptyNode()
	}

	return distributeRules(root, flatRules)
}

// countRemaining drains the rest of a freshly-bound node's extractions to
// get an accurate assignment count; it's only ever called on a just-built
// LeafNode whose first extraction, if any, hasn't been consumed yet.
func countRemaining(n boundtree.Node) int {
	count := 0
	for {
		if _, ok := n.Next(); !ok {
			break
		}
		count++
	}
	return count
}

func buildWeightedGraph(component map[extraction.Field]bool, rules []rule.Rule) graphs.WeightedMultiGraph[extraction.Field] {
	wg := graphs.NewWeightedMultiGraph[extraction.Field]()
	for f := range component {
		wg.Vertices[f] = true
	}
	for _, r := range rules {
		fs := r.Fields()
		inComponent := true
		for _, f := range fs {
			if !component[f] {
				inComponent = false
				break
			}
		}
		if !inComponent {
			continue
		}
		atom, ok := r.(*rule.Atom)
		if !ok {
			continue
		}
		switch len(fs) {
		case 1:
			wg.AddEdge(fs[0], fs[0], atom.Predicate.Leniency())
		case 2:
			v1, v2 := fs[0], fs[1]
			if v1 > v2 {
				v1, v2 = v2, v1
			}
			wg.AddEdge(v1, v2, atom.Predicate.Leniency())
		default:
			// No base predicate currently binds more than two fields.
		}
	}
	return wg
}

func productWeight(wg graphs.WeightedMultiGraph[extraction.Field], edge graphs.Edge[extraction.Field]) float64 {
	p := 1.0
	for _, w := range wg.Weights[edge] {
		p *= w
	}
	return p
}

func estimatedValidAssignments(wg graphs.WeightedMultiGraph[extraction.Field], numLeafAssignments map[extraction.Field]int) float64 {
	leniency := 1.0
	for edge := range wg.Weights {
		for _, w := range wg.Weights[edge] {
			leniency *= w
		}
	}
	possible := 1.0
	for v := range wg.Vertices {
		possible *= float64(numLeafAssignments[v])
	}
	return possible * leniency
}

func buildTreeFromGraph(graph graphs.WeightedMultiGraph[extraction.Field], fieldTypes map[extraction.Field]string, numLeafAssignments map[extraction.Field]int) Node {
	nodeAssociations := make(map[extraction.Field]Node, len(graph.Vertices))
	vertexWeights := make(map[extraction.Field]float64, len(graph.Vertices))
	for v := range graph.Vertices {
		nodeAssociations[v] = NewLeafNode(v, fieldTypes[v])
		selfLoop := graphs.Edge[extraction.Field]{From: v, To: v}
		weight := 1.0
		if graph.Edges[selfLoop] {
			weight = productWeight(graph, selfLoop)
		}
		vertexWeights[v] = float64(numLeafAssignments[v]) * weight
	}

	edgeKey := func(e graphs.Edge[extraction.Field]) float64 {
		return vertexWeights[e.From] * vertexWeights[e.To] * productWeight(graph, e)
	}

	for len(graph.Vertices) > 1 {
		var best graphs.Edge[extraction.Field]
		bestKey := 0.0
		first := true
		for e := range graph.Edges {
			if e.From == e.To {
				continue
			}
			k := edgeKey(e)
			if first || k < bestKey {
				best = e
				bestKey = k
				first = false
			}
		}
		weight := edgeKey(best)
		newNode, err := Combine([]Node{nodeAssociations[best.From], nodeAssociations[best.To]}, true, nil)
		if err != nil {
			panic(err)
		}
		nodeAssociations[best.From] = newNode
		vertexWeights[best.From] = weight
		graph = graph.WithVerticesCollapsed(map[extraction.Field]bool{best.From: true, best.To: true}, best.From)
	}

	for v := range graph.Vertices {
		return nodeAssociations[v]
	}
	panic("tree: buildTreeFromGraph called with an empty graph")
}

// distributeRules pushes rules down into node's CombineNode/LeafNode
// descendants, attaching each rule as deep as its fields allow while
// keeping rules that genuinely span both of a CombineNode's children at
// that CombineNode itself.
func distributeRules(node Node, rules []rule.Rule) Node {
	all := append(append([]rule.Rule{}, rules...), node.Rules()...)

	switch cn := node.(type) {
	case *CombineNode:
		remake := func(child Node) Node {
			var childRules []rule.Rule
			for _, r := range all {
				decidable := false
				for _, a := range rule.GetAtoms(r) {
					if child.IsDecidable(a) {
						decidable = true
						break
					}
				}
				if decidable {
					childRules = append(childRules, r)
				}
			}
			return distributeRules(child, childRules)
		}

		var spanning []rule.Rule
		for _, r := range all {
			if !cn.node1.IsDecidable(r) && !cn.node2.IsDecidable(r) {
				spanning = append(spanning, r)
			}
		}

		cp := *cn
		cp.node1 = remake(cn.node1)
		cp.node2 = remake(cn.node2)
		cp.rules = spanning
		return &cp
	case *LeafNode:
		return cn.WithRules(all)
	default:
		panic("tree: distributeRules only applies to CombineNode/LeafNode subtrees")
	}
}
