package tree

import (
	"sort"

	"github.com/instabase/blueprint-go/pkg/blueprint/boundtree"
	"github.com/instabase/blueprint-go/pkg/blueprint/document"
	"github.com/instabase/blueprint-go/pkg/blueprint/entity"
	"github.com/instabase/blueprint-go/pkg/blueprint/extraction"
	"github.com/instabase/blueprint-go/pkg/blueprint/rule"
	"github.com/instabase/blueprint-go/pkg/blueprint/scoring"
)

// LeafNode assigns a single field to an entity of a given type, scored by
// its rules' predicates.
type LeafNode struct {
	id         string
	nodeName   string
	field      extraction.Field
	entityType string
	rules      []rule.Rule
}

// NewLeafNode builds a LeafNode assigning field to entities of entityType.
func NewLeafNode(field extraction.Field, entityType string) *LeafNode {
	return &LeafNode{id: newUUID(), field: field, entityType: entityType}
}

func (n *LeafNode) LegalFields() map[extraction.Field]bool {
	return map[extraction.Field]bool{n.field: true}
}
func (n *LeafNode) ChildNodes() []Node     { return nil }
func (n *LeafNode) Rules() []rule.Rule     { return n.rules }
func (n *LeafNode) IsDecidable(r rule.Rule) bool { return isDecidable(n.LegalFields(), r) }

func (n *LeafNode) WithRules(rules []rule.Rule) Node {
	cp := *n
	cp.rules = rules
	return &cp
}

func (n *LeafNode) name() string {
	if n.nodeName != "" {
		return n.nodeName
	}
	return "LeafNode(" + n.field + ")"
}
func (n *LeafNode) uuid() string { return n.id }

// leafPredicates returns this node's Atom rules' predicates, alongside the
// UUID of the rule that introduced each one at the same index -- so a
// predicate's scored result can be reattached to a stable identity across
// calls. Predicates are looked up by position rather than as map keys,
// since some predicates (AllHold, AnyHolds, ...) wrap a slice and so
// aren't comparable.
func (n *LeafNode) leafPredicates() ([]rule.Predicate, []string) {
	var predicates []rule.Predicate
	var uuids []string
	for _, r := range n.rules {
		atom, ok := r.(*rule.Atom)
		if !ok {
			continue
		}
		predicates = append(predicates, atom.Predicate)
		uuids = append(uuids, atom.GetUUID())
	}
	return predicates, uuids
}

func (n *LeafNode) scoredAssignments(doc *document.Document) []*scoring.ScoredExtraction {
	predicates, ruleUUIDs := n.leafPredicates()

	candidates := doc.FilterEntities(func(e entity.Entity) bool { return e.Type() == n.entityType })
	assignments := make([]entity.Entity, 0, len(candidates)+1)
	assignments = append(assignments, candidates...)
	assignments = append(assignments, nil)

	type scored struct {
		assignment  entity.Entity
		fieldScore  float64
		ruleScores  map[string]rule.RuleScore
	}
	var valid []scored
	for _, a := range assignments {
		fieldScore, predicateScores := scoring.LeafScore(a, predicates, doc)
		if !scoring.AssignmentIsValid(a, fieldScore) {
			continue
		}
		ruleScores := make(map[string]rule.RuleScore, len(predicateScores))
		for i, ps := range predicateScores {
			ruleScores[ruleUUIDs[i]] = ps.Score
		}
		valid = append(valid, scored{assignment: a, fieldScore: fieldScore, ruleScores: ruleScores})
	}

	sort.SliceStable(valid, func(i, j int) bool { return valid[i].fieldScore > valid[j].fieldScore })

	out := make([]*scoring.ScoredExtraction, len(valid))
	for i, s := range valid {
		var ext extraction.Extraction
		if s.assignment != nil {
			ext = extraction.New([]extraction.Point{{Field: n.field, Entity: s.assignment}})
		} else {
			ext = extraction.Empty()
		}
		fieldScores := scoring.FieldScores{n.field: s.fieldScore}
		se := &scoring.ScoredExtraction{
			Extraction:  ext,
			Score:       scoring.ExtractionScore(fieldScores, 1),
			FieldScores: fieldScores,
			RuleScores:  s.ruleScores,
			Mass:        1,
		}
		out[i] = se
	}
	return out
}

func (n *LeafNode) BindTo(doc *document.Document) boundtree.Node {
	extractions := n.scoredAssignments(doc)
	if len(extractions) == 0 || !extractions[len(extractions)-1].IsEmpty() {
		panic("tree: leaf node's unassigned extraction must be present and sorted last")
	}
	boundRules := make([]rule.Rule, len(n.rules))
	for i, r := range n.rules {
		boundRules[i] = r.WithDocument(doc)
	}
	return boundtree.NewLeafNode(doc, n.field, boundRules, n.name(), n.id, extractions)
}

var _ Node = (*LeafNode)(nil)
