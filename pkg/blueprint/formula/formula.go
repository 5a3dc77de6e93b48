// Package formula implements the small propositional logic of spatial
// formulas used to describe, and weaken, how a predicate constrains a
// field's position relative to other fields -- the basis for computing
// doc-region restrictions and prefilters over the spatial index.
package formula

// Field names a thing to be extracted. Kept as a bare string (rather than
// importing the extraction package) to avoid a dependency cycle, since
// extraction-level rules import this package.
type Field = string

// Transformation maps one region to another, e.g. "the band directly
// below this field's box". nil means the identity transformation.
type Transformation func(region interface{}) interface{}

// Formula is the common interface of every node in a spatial formula:
// boolean literals, DocRegionTerm-based literals (Intersect, IsContained),
// and Conjunction/Disjunction connectives over them.
type Formula interface {
	isFormula()
}

// True is the trivially-true formula.
type True struct{}

func (True) isFormula() {}

// False is the trivially-false formula.
type False struct{}

func (False) isFormula() {}

// DocRegionTerm names the doc-region associated with a field, optionally
// passed through a transformation (e.g. "eroded", "the band below").
type DocRegionTerm struct {
	FieldName      Field
	Transformation Transformation
}

// Intersect asserts that the doc-regions of all given terms have a
// nonempty intersection.
type Intersect struct {
	Terms []DocRegionTerm
}

func (Intersect) isFormula() {}

// IsContained asserts that LHS's doc-region is contained in RHS's.
type IsContained struct {
	LHS DocRegionTerm
	RHS DocRegionTerm
}

func (IsContained) isFormula() {}

// Conjunction asserts all of its sub-formulas hold.
type Conjunction struct {
	Formulas []Formula
}

func (Conjunction) isFormula() {}

// Disjunction asserts at least one of its sub-formulas holds.
type Disjunction struct {
	Formulas []Formula
}

func (Disjunction) isFormula() {}

func isNaked(term DocRegionTerm) bool { return term.Transformation == nil }

// termIsComputable reports whether term's doc-region can be computed
// given that only fields have already been assigned.
func termIsComputable(term DocRegionTerm, fields map[Field]bool) bool {
	return fields[term.FieldName]
}

// IsComputable reports whether a literal formula (Intersect/IsContained)
// can be fully evaluated given that only fields have been assigned.
func IsComputable(f Formula, fields map[Field]bool) bool {
	switch lit := f.(type) {
	case Intersect:
		for _, t := range lit.Terms {
			if !termIsComputable(t, fields) {
				return false
			}
		}
		return true
	case IsContained:
		return termIsComputable(lit.LHS, fields) && termIsComputable(lit.RHS, fields)
	default:
		return true
	}
}

// IsRestrictor reports whether literal f restricts target's doc-region: it
// names target "naked" (no transformation) on one side, with the rest of
// the literal computable from fields.
func IsRestrictor(f Formula, target Field, fields map[Field]bool) bool {
	switch lit := f.(type) {
	case Intersect:
		nakedTarget := false
		for _, t := range lit.Terms {
			if t.FieldName == target && isNaked(t) {
				nakedTarget = true
				continue
			}
			if !termIsComputable(t, fields) {
				return false
			}
		}
		return nakedTarget
	case IsContained:
		lhsNaked := lit.LHS.FieldName == target && isNaked(lit.LHS)
		rhsNaked := lit.RHS.FieldName == target && isNaked(lit.RHS)
		if lhsNaked {
			return termIsComputable(lit.RHS, fields)
		}
		if rhsNaked {
			return termIsComputable(lit.LHS, fields)
		}
		return false
	default:
		return false
	}
}

func isShallow(f Formula) bool {
	switch f.(type) {
	case Intersect, IsContained, True, False:
		return true
	default:
		return false
	}
}

// Simplify recursively flattens nested connectives of the same kind and
// removes trivially-true/false sub-formulas.
func Simplify(f Formula) Formula {
	switch v := f.(type) {
	case Conjunction:
		var out []Formula
		for _, sub := range v.Formulas {
			s := Simplify(sub)
			if _, isFalse := s.(False); isFalse {
				return False{}
			}
			if _, isTrue := s.(True); isTrue {
				continue
			}
			if inner, ok := s.(Conjunction); ok {
				out = append(out, inner.Formulas...)
			} else {
				out = append(out, s)
			}
		}
		if len(out) == 0 {
			return True{}
		}
		if len(out) == 1 {
			return out[0]
		}
		return Conjunction{out}
	case Disjunction:
		var out []Formula
		for _, sub := range v.Formulas {
			s := Simplify(sub)
			if _, isTrue := s.(True); isTrue {
				return True{}
			}
			if _, isFalse := s.(False); isFalse {
				continue
			}
			if inner, ok := s.(Disjunction); ok {
				out = append(out, inner.Formulas...)
			} else {
				out = append(out, s)
			}
		}
		if len(out) == 0 {
			return False{}
		}
		if len(out) == 1 {
			return out[0]
		}
		return Disjunction{out}
	default:
		return f
	}
}

// CNF converts f to conjunctive normal form: a Conjunction of Disjunctions
// of literals. This can blow up combinatorially for deeply-nested
// disjunctions-of-conjunctions; kept simple per the upstream FIXME, since
// formulas in practice span only a handful of fields.
func CNF(f Formula) Formula {
	switch v := f.(type) {
	case Conjunction:
		parts := make([]Formula, len(v.Formulas))
		for i, sub := range v.Formulas {
			parts[i] = CNF(sub)
		}
		return Simplify(Conjunction{parts})
	case Disjunction:
		if len(v.Formulas) == 0 {
			return False{}
		}
		clauses := [][]Formula{{}}
		for _, sub := range v.Formulas {
			cnfSub := CNF(sub)
			var conjuncts []Formula
			if c, ok := cnfSub.(Conjunction); ok {
				conjuncts = c.Formulas
			} else {
				conjuncts = []Formula{cnfSub}
			}
			var next [][]Formula
			for _, clause := range clauses {
				for _, conjunct := range conjuncts {
					nc := append(append([]Formula{}, clause...), conjunct)
					next = append(next, nc)
				}
			}
			clauses = next
		}
		disjuncts := make([]Formula, len(clauses))
		for i, clause := range clauses {
			disjuncts[i] = Simplify(Disjunction{clause})
		}
		return Simplify(Conjunction{disjuncts})
	default:
		return f
	}
}

// DNF converts f to disjunctive normal form: a Disjunction of Conjunctions
// of literals. Mutually dual to CNF; see its comment re. blow-up.
func DNF(f Formula) Formula {
	switch v := f.(type) {
	case Disjunction:
		parts := make([]Formula, len(v.Formulas))
		for i, sub := range v.Formulas {
			parts[i] = DNF(sub)
		}
		return Simplify(Disjunction{parts})
	case Conjunction:
		if len(v.Formulas) == 0 {
			return True{}
		}
		clauses := [][]Formula{{}}
		for _, sub := range v.Formulas {
			dnfSub := DNF(sub)
			var disjuncts []Formula
			if d, ok := dnfSub.(Disjunction); ok {
				disjuncts = d.Formulas
			} else {
				disjuncts = []Formula{dnfSub}
			}
			var next [][]Formula
			for _, clause := range clauses {
				for _, disjunct := range disjuncts {
					nc := append(append([]Formula{}, clause...), disjunct)
					next = append(next, nc)
				}
			}
			clauses = next
		}
		conjuncts := make([]Formula, len(clauses))
		for i, clause := range clauses {
			conjuncts[i] = Simplify(Conjunction{clause})
		}
		return Simplify(Disjunction{conjuncts})
	default:
		return f
	}
}

// Weaken replaces every literal that isn't a restrictor of field (given
// fields already assigned) with True, leaving only the part of f that
// actually restricts field's doc-region.
func Weaken(f Formula, field Field, fields map[Field]bool) Formula {
	switch v := f.(type) {
	case Conjunction:
		out := make([]Formula, len(v.Formulas))
		for i, sub := range v.Formulas {
			out[i] = Weaken(sub, field, fields)
		}
		return Simplify(Conjunction{out})
	case Disjunction:
		out := make([]Formula, len(v.Formulas))
		for i, sub := range v.Formulas {
			out[i] = Weaken(sub, field, fields)
		}
		return Simplify(Disjunction{out})
	default:
		if isShallow(f) {
			if _, ok := f.(True); ok {
				return f
			}
			if _, ok := f.(False); ok {
				return f
			}
			if IsRestrictor(f, field, fields) {
				return f
			}
			return True{}
		}
		return f
	}
}

// RestrictivePower estimates how strongly f restricts field's doc-region,
// as the maximum number of restrictor literals across f's DNF conjuncts.
func RestrictivePower(f Formula, field Field, fields map[Field]bool) int {
	dnf := DNF(f)
	var conjuncts [][]Formula
	switch v := dnf.(type) {
	case Disjunction:
		for _, sub := range v.Formulas {
			conjuncts = append(conjuncts, flattenConjunction(sub))
		}
	default:
		conjuncts = append(conjuncts, flattenConjunction(dnf))
	}
	best := 0
	for _, clause := range conjuncts {
		count := 0
		for _, lit := range clause {
			if IsRestrictor(lit, field, fields) {
				count++
			}
		}
		if count > best {
			best = count
		}
	}
	return best
}

func flattenConjunction(f Formula) []Formula {
	if c, ok := f.(Conjunction); ok {
		return c.Formulas
	}
	return []Formula{f}
}
