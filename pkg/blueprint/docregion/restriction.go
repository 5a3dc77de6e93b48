// Package docregion describes, and prefilters candidates by, the document
// regions a field is spatially allowed to occupy given another extraction
// it must combine with.
package docregion

import (
	"fmt"

	"github.com/instabase/blueprint-go/pkg/blueprint/document"
	"github.com/instabase/blueprint-go/pkg/blueprint/extraction"
	"github.com/instabase/blueprint-go/pkg/blueprint/formula"
	"github.com/instabase/blueprint-go/pkg/blueprint/scoring"
)

// Conjunction states that a field's doc-region is a subset of Superset (if
// non-nil) and intersects every region in IntersectionSets (if non-nil).
// At least one of the two is always set.
type Conjunction struct {
	Superset         *document.Region
	IntersectionSets []document.Region
}

// Restriction describes a document region in disjunctive normal form: the
// field's doc-region must satisfy at least one of Conjunctions.
type Restriction struct {
	Conjunctions []Conjunction
}

// Result is the outcome of GetDocRegionRestriction: either the restriction
// always holds (AlwaysTrue), never holds (both fields nil/zero), or holds
// exactly when Restriction is satisfied.
type Result struct {
	AlwaysTrue  bool
	Restriction *Restriction
}

// AlwaysFalse reports whether r represents an unsatisfiable restriction.
func (r Result) AlwaysFalse() bool { return !r.AlwaysTrue && r.Restriction == nil }

type regionResult struct {
	region *document.Region
	value  bool
}

func trueResult() regionResult                      { return regionResult{value: true} }
func falseResult() regionResult                      { return regionResult{value: false} }
func concreteResult(r document.Region) regionResult { return regionResult{region: &r} }

func getDocRegion(term formula.DocRegionTerm, mFeeder *scoring.ScoredExtraction, doc *document.Document) (*document.Region, bool) {
	ent, err := mFeeder.Extraction.Get(term.FieldName)
	if err != nil {
		panic(fmt.Sprintf("docregion: field %q has no assignment in feeder extraction", term.FieldName))
	}
	r := document.NewRegion(doc, ent.BBox())
	if term.Transformation == nil {
		return &r, true
	}
	out := term.Transformation(r)
	if out == nil {
		return nil, false
	}
	transformed := out.(document.Region)
	return &transformed, true
}

func processIntersect(lit formula.Intersect, field extraction.Field, mFeeder *scoring.ScoredExtraction, doc *document.Document) regionResult {
	var fieldTerms, nonFieldTerms []formula.DocRegionTerm
	for _, term := range lit.Terms {
		if term.FieldName == field {
			fieldTerms = append(fieldTerms, term)
		} else {
			nonFieldTerms = append(nonFieldTerms, term)
		}
	}
	for _, t := range fieldTerms {
		if t.Transformation != nil {
			panic("docregion: restricted field's intersect term must not carry a transformation")
		}
	}

	feederFields := mFeeder.Extraction.Fields()
	var relevant []formula.DocRegionTerm
	for _, t := range nonFieldTerms {
		if feederFields[t.FieldName] {
			relevant = append(relevant, t)
		}
	}

	if len(fieldTerms) > 0 && len(relevant) == 0 {
		return trueResult()
	}

	regions := make([]*document.Region, 0, len(relevant))
	for _, t := range relevant {
		r, ok := getDocRegion(t, mFeeder, doc)
		if !ok {
			return falseResult()
		}
		regions = append(regions, r)
	}
	intersection, ok := document.IntersectRegions(regions)
	if !ok {
		return falseResult()
	}
	if len(fieldTerms) == 0 {
		return trueResult()
	}
	return concreteResult(intersection)
}

func processIsContained(lit formula.IsContained, field extraction.Field, mFeeder *scoring.ScoredExtraction, doc *document.Document) regionResult {
	if lit.RHS.FieldName == field {
		panic("docregion: is-contained's right-hand side must not be the restricted field")
	}

	feederFields := mFeeder.Extraction.Fields()
	for _, f := range [2]extraction.Field{lit.LHS.FieldName, lit.RHS.FieldName} {
		if f == field {
			continue
		}
		if !feederFields[f] {
			return trueResult()
		}
	}

	rhs, rhsOK := getDocRegion(lit.RHS, mFeeder, doc)

	if lit.LHS.FieldName == field {
		if lit.LHS.Transformation != nil {
			panic("docregion: restricted field's is-contained term must not carry a transformation")
		}
		if !rhsOK {
			return falseResult()
		}
		return concreteResult(*rhs)
	}

	lhs, lhsOK := getDocRegion(lit.LHS, mFeeder, doc)
	if !lhsOK {
		return trueResult()
	}
	if !rhsOK {
		return falseResult()
	}
	if rhs.Contains(lhs) {
		return trueResult()
	}
	return falseResult()
}

type conjunctionResult struct {
	alwaysTrue  bool
	alwaysFalse bool
	conjunction *Conjunction
}

func processConjunction(conj formula.Conjunction, field extraction.Field, mFeeder *scoring.ScoredExtraction, doc *document.Document) conjunctionResult {
	var superset *document.Region
	var intersectionSets []document.Region

	for _, lit := range conj.Formulas {
		switch v := lit.(type) {
		case formula.False:
			return conjunctionResult{alwaysFalse: true}
		case formula.True:
			continue
		case formula.Intersect:
			res := processIntersect(v, field, mFeeder, doc)
			if res.region == nil {
				if !res.value {
					return conjunctionResult{alwaysFalse: true}
				}
				continue
			}
			intersectionSets = append(intersectionSets, *res.region)
		case formula.IsContained:
			res := processIsContained(v, field, mFeeder, doc)
			if res.region == nil {
				if !res.value {
					return conjunctionResult{alwaysFalse: true}
				}
				continue
			}
			if superset == nil {
				superset = res.region
			} else {
				merged, ok := document.IntersectRegions([]*document.Region{superset, res.region})
				if !ok {
					return conjunctionResult{alwaysFalse: true}
				}
				superset = &merged
			}
		}
	}

	if superset != nil && intersectionSets != nil {
		merged := make([]document.Region, 0, len(intersectionSets))
		for i := range intersectionSets {
			is := intersectionSets[i]
			m, ok := document.IntersectRegions([]*document.Region{superset, &is})
			if !ok {
				return conjunctionResult{alwaysFalse: true}
			}
			merged = append(merged, m)
		}
		intersectionSets = merged
	}

	if superset == nil && intersectionSets == nil {
		return conjunctionResult{alwaysTrue: true}
	}
	return conjunctionResult{conjunction: &Conjunction{Superset: superset, IntersectionSets: intersectionSets}}
}

// GetDocRegionRestriction describes, given a spatial formula phi in
// disjunctive normal form whose literals are all over field's doc-region
// and the feeder extraction's fields' doc-regions, the document regions
// field is allowed to occupy.
func GetDocRegionRestriction(field extraction.Field, mFeeder *scoring.ScoredExtraction, phi formula.Formula, doc *document.Document) Result {
	var clauses []formula.Formula
	if d, ok := phi.(formula.Disjunction); ok {
		clauses = d.Formulas
	} else {
		clauses = []formula.Formula{phi}
	}

	var conjunctions []Conjunction
	for _, clause := range clauses {
		var res conjunctionResult
		if conj, ok := clause.(formula.Conjunction); ok {
			res = processConjunction(conj, field, mFeeder, doc)
		} else {
			res = processConjunction(formula.Conjunction{Formulas: []formula.Formula{clause}}, field, mFeeder, doc)
		}
		if res.alwaysTrue {
			return Result{AlwaysTrue: true}
		}
		if res.alwaysFalse {
			continue
		}
		conjunctions = append(conjunctions, *res.conjunction)
	}

	if len(conjunctions) == 0 {
		return Result{}
	}
	return Result{Restriction: &Restriction{Conjunctions: conjunctions}}
}
