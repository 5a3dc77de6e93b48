package boundtree

import (
	"sort"

	"github.com/instabase/blueprint-go/pkg/blueprint/docregion"
	"github.com/instabase/blueprint-go/pkg/blueprint/document"
	"github.com/instabase/blueprint-go/pkg/blueprint/extraction"
	"github.com/instabase/blueprint-go/pkg/blueprint/formula"
	"github.com/instabase/blueprint-go/pkg/blueprint/rule"
	"github.com/instabase/blueprint-go/pkg/blueprint/scoring"
	"github.com/instabase/blueprint-go/pkg/blueprint/smerge"
)

// CombineNode merges two children's streams of extractions into one,
// narrowing each side's search with a doc-region prefilter built from the
// rules that jointly constrain both sides' fields.
type CombineNode struct {
	base
	node1, node2 Node
	smerger      *smerge.Smerger
}

// NewCombineNode builds a CombineNode. allOrNothing, if set, discards any
// merge that doesn't assign every legal field (unless it assigns none at
// all). peekDistance configures the underlying Smerger's lookahead.
func NewCombineNode(doc *document.Document, node1, node2 Node, rules []rule.Rule, allOrNothing bool, name, uuid string, peekDistance int) *CombineNode {
	legal := unionFields(node1.LegalFields(), node2.LegalFields())
	n := &CombineNode{base: newBase(doc, legal, rules, name, uuid), node1: node1, node2: node2}

	atoms := decidableAtoms(rules, legal)
	phis := make([]formula.Formula, len(atoms))
	for i, a := range atoms {
		phis[i] = a.Phi()
	}
	phi := formula.Simplify(formula.DNF(formula.Conjunction{Formulas: phis}))

	phiRestrictedTo := func(field extraction.Field, feederFields map[extraction.Field]bool) formula.Formula {
		return formula.Simplify(formula.Weaken(phi, field, feederFields))
	}

	prefilterData := func(target, feeder Node) (extraction.Field, formula.Formula) {
		feederFields := feeder.LegalFields()
		best := argMaxField(target.LegalFields(), func(f extraction.Field) int {
			return formula.RestrictivePower(formula.DNF(phiRestrictedTo(f, feederFields)), f, feederFields)
		})
		return best, phiRestrictedTo(best, feederFields)
	}

	buildPrefilter := func(target, feeder Node) docregion.Prefilter {
		if len(target.LegalFields()) > 0 && len(feeder.LegalFields()) > 0 {
			field, phi := prefilterData(target, feeder)
			return docregion.NewDocRegionPrefilter(field, phi, doc)
		}
		return docregion.NewTrivialPrefilter()
	}

	merger := func(ts []*scoring.ScoredExtraction) (*scoring.ScoredExtraction, bool) {
		scored := make([]scoring.ScoredExtraction, len(ts))
		for i, t := range ts {
			scored[i] = *t
		}
		merged, err := scoring.Merge(scored, n.rules, n.Mass())
		if err != nil {
			return nil, false
		}
		if allOrNothing && !fieldSetsEqual(merged.Fields(), legal) && !merged.IsEmpty() {
			return nil, false
		}
		if !merged.Valid() {
			return nil, false
		}
		return &merged, true
	}

	normEstimator := func(ts []*scoring.ScoredExtraction) float64 {
		var scoreMassSum, massSum float64
		for _, t := range ts {
			scoreMassSum += t.Score * t.Mass
			massSum += t.Mass
		}
		return -scoreMassSum / massSum
	}

	normGetter := func(t *scoring.ScoredExtraction) float64 { return -t.Score }

	n.smerger = smerge.New(
		[]smerge.StreamSource{
			{Source: node1, Prefilter: buildPrefilter(node1, node2)},
			{Source: node2, Prefilter: buildPrefilter(node2, node1)},
		},
		merger,
		normEstimator,
		normGetter,
		allOrNothing,
		peekDistance,
		true,
	)

	return n
}

func (n *CombineNode) Next() (*scoring.ScoredExtraction, bool) {
	se, ok := n.smerger.Next()
	if !ok {
		return nil, false
	}
	return n.yielding(se), true
}

func (n *CombineNode) Mass() float64      { return n.node1.Mass() + n.node2.Mass() }
func (n *CombineNode) ChildNodes() []Node { return []Node{n.node1, n.node2} }

var _ Node = (*CombineNode)(nil)

func decidableAtoms(rules []rule.Rule, legalFields map[extraction.Field]bool) []*rule.Atom {
	var atoms []*rule.Atom
	for _, r := range rules {
		for _, a := range rule.GetAtoms(r) {
			if fieldsSubset(a.Fields(), legalFields) {
				atoms = append(atoms, a)
			}
		}
	}
	return atoms
}

// argMaxField picks the field in candidates maximizing score, breaking
// ties by lexical order for determinism.
func argMaxField(candidates map[extraction.Field]bool, score func(extraction.Field) int) extraction.Field {
	fields := make([]extraction.Field, 0, len(candidates))
	for f := range candidates {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var best extraction.Field
	bestScore := 0
	first := true
	for _, f := range fields {
		s := score(f)
		if first || s > bestScore {
			best = f
			bestScore = s
			first = false
		}
	}
	return best
}
