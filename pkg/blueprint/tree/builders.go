package tree

import (
	"fmt"

	"github.com/instabase/blueprint-go/pkg/blueprint/extraction"
	"github.com/instabase/blueprint-go/pkg/blueprint/rule"
)

// Extract builds the most basic extraction tree: a PatternNode that must
// satisfy rules. If fieldTypes is nil, each rule-mentioned field's entity
// type is inferred from whichever of IsDate/IsDollarAmount/IsEntirePhrase
// is applied to it (defaulting to Text), matching the same single-field
// atom scan the original performs.
func Extract(rules []rule.Rule, fieldTypes map[extraction.Field]string) (Node, error) {
	if fieldTypes == nil {
		fieldTypes = map[extraction.Field]string{}
		fields := map[extraction.Field]bool{}
		for _, r := range rules {
			for _, f := range r.Fields() {
				fields[f] = true
			}
		}

		var atoms []*rule.Atom
		for _, r := range rules {
			if a, ok := r.(*rule.Atom); ok {
				atoms = append(atoms, a)
			}
		}
		hasTypeRule := func(field extraction.Field, match func(rule.Predicate) bool) bool {
			for _, a := range atoms {
				fs := a.Fields()
				if len(fs) == 1 && fs[0] == field && match(a.Predicate) {
					return true
				}
			}
			return false
		}
		isDate := func(p rule.Predicate) bool { _, ok := p.(rule.IsDate); return ok }
		isDollar := func(p rule.Predicate) bool { _, ok := p.(rule.IsDollarAmount); return ok }
		isPhrase := func(p rule.Predicate) bool { _, ok := p.(rule.IsEntirePhrase); return ok }

		for f := range fields {
			d := hasTypeRule(f, isDate)
			m := hasTypeRule(f, isDollar)
			p := hasTypeRule(f, isPhrase)
			if d && m && p {
				return nil, fmt.Errorf("tree: field %q cannot be bound to is_date, is_dollar_amount, and is_entire_phrase at once", f)
			}
			switch {
			case d:
				fieldTypes[f] = "Date"
			case m:
				fieldTypes[f] = "DollarAmount"
			default:
				fieldTypes[f] = "Text"
			}
		}
	}

	node := NewPatternNode(fieldTypes, rules)
	if err := Validate(node); err != nil {
		return nil, err
	}
	return node, nil
}

// OverlapPair is a pair of fields, one from each side of a Combine call,
// whose assigned entities are allowed to refer to the same thing in the
// document (exempting them from the default disjointness constraint).
type OverlapPair [2]extraction.Field

func overlapKey(a, b extraction.Field) OverlapPair {
	if a > b {
		a, b = b, a
	}
	return OverlapPair{a, b}
}

// Combine merges several extraction trees covering distinct parts of a
// document into one. By default every pair of fields drawn from distinct
// nodes is constrained to non-overlapping entities; allowedToOverlap
// exempts specific field pairs from that constraint. The order nodes are
// given in can materially affect search performance.
func Combine(nodes []Node, allOrNothing bool, allowedToOverlap []OverlapPair) (Node, error) {
	if len(nodes) == 0 {
		return NewEmptyNode(), nil
	}

	overlap := map[OverlapPair]bool{}
	for _, p := range allowedToOverlap {
		overlap[overlapKey(p[0], p[1])] = true
	}

	var rules []rule.Rule
	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			for _, f1 := range sortedFields(nodes[i].LegalFields()) {
				for _, f2 := range sortedFields(nodes[j].LegalFields()) {
					if overlap[overlapKey(f1, f2)] {
						continue
					}
					rules = append(rules, rule.Apply(rule.AreDisjoint{}, f1, f2))
				}
			}
		}
	}

	result := nodes[0]
	for i := 1; i < len(nodes); i++ {
		result = NewCombineNode(result, nodes[i], allOrNothing)
	}
	result = result.WithRules(append(append([]rule.Rule{}, result.Rules()...), rules...))

	if err := Validate(result); err != nil {
		return nil, err
	}
	return result, nil
}

// PickBest selects the best extractions across several alternative
// subtrees, such as different layouts of the same part of a document.
func PickBest(nodes []Node) (Node, error) {
	node := NewPickBestNode(nodes)
	if err := Validate(node); err != nil {
		return nil, err
	}
	return node, nil
}
