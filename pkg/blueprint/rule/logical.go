package rule

import (
	"fmt"

	"github.com/instabase/blueprint-go/pkg/blueprint/document"
	"github.com/instabase/blueprint-go/pkg/blueprint/entity"
	"github.com/instabase/blueprint-go/pkg/blueprint/formula"
)

func product(xs []float64) float64 {
	p := 1.0
	for _, x := range xs {
		p *= x
	}
	return p
}

func checkScoreDegree(entities []entity.Entity, degree int) {
	if degree != DegreeAny && len(entities) != degree {
		panic(DegreeError{Degree: degree, Got: len(entities)})
	}
}

func checkPhiDegree(fields []Field, degree int) {
	if degree != DegreeAny && len(fields) != degree {
		panic(DegreeError{Degree: degree, Got: len(fields)})
	}
}

func commonDegree(predicates []Predicate) int {
	degree := DegreeAny
	for _, p := range predicates {
		if p.Degree() == DegreeAny {
			continue
		}
		if degree != DegreeAny && degree != p.Degree() {
			panic(fmt.Sprintf("rule: all_hold/any_holds predicates must share a degree, got %d and %d", degree, p.Degree()))
		}
		degree = p.Degree()
	}
	return degree
}

// AllHold wraps several predicates, scoring as their product ("and").
type AllHold struct {
	BasePredicate
	Predicates []Predicate
	degree     int
	name       string
}

// NewAllHold builds a predicate asserting that every wrapped predicate holds.
func NewAllHold(predicates ...Predicate) *AllHold {
	return &AllHold{Predicates: predicates, degree: commonDegree(predicates), name: "all_hold"}
}

func (a *AllHold) Name() string { return a.name }
func (a *AllHold) Degree() int  { return a.degree }

func (a *AllHold) Score(entities []entity.Entity, doc *document.Document) RuleScore {
	checkScoreDegree(entities, a.degree)
	scores := make([]float64, len(a.Predicates))
	for i, p := range a.Predicates {
		scores[i] = p.Score(entities, doc).Score()
	}
	return AtomScore{product(scores)}
}

func (a *AllHold) Phi(fields []Field) formula.Formula {
	checkPhiDegree(fields, a.degree)
	subs := make([]formula.Formula, len(a.Predicates))
	for i, p := range a.Predicates {
		subs[i] = p.Phi(fields)
	}
	return formula.Simplify(formula.Conjunction{Formulas: subs})
}

// AnyHolds wraps several predicates, scoring as their max ("or").
type AnyHolds struct {
	BasePredicate
	Predicates []Predicate
	degree     int
	name       string
}

func NewAnyHolds(predicates ...Predicate) *AnyHolds {
	return &AnyHolds{Predicates: predicates, degree: commonDegree(predicates), name: "any_holds"}
}

func (a *AnyHolds) Name() string { return a.name }
func (a *AnyHolds) Degree() int  { return a.degree }

func (a *AnyHolds) Score(entities []entity.Entity, doc *document.Document) RuleScore {
	checkScoreDegree(entities, a.degree)
	best := 0.0
	for i, p := range a.Predicates {
		s := p.Score(entities, doc).Score()
		if i == 0 || s > best {
			best = s
		}
	}
	return AtomScore{best}
}

func (a *AnyHolds) Phi(fields []Field) formula.Formula {
	checkPhiDegree(fields, a.degree)
	subs := make([]formula.Formula, len(a.Predicates))
	for i, p := range a.Predicates {
		subs[i] = p.Phi(fields)
	}
	return formula.Simplify(formula.Disjunction{Formulas: subs})
}

// AreDisjoint scores 1 if two fields' assignments share no typeset words,
// 0 if they overlap in any word.
type AreDisjoint struct{ BasePredicate }

func (AreDisjoint) Name() string { return "are_disjoint" }
func (AreDisjoint) Degree() int  { return 2 }

func (AreDisjoint) Score(entities []entity.Entity, doc *document.Document) RuleScore {
	checkScoreDegree(entities, 2)
	w1 := entity.EntityWords(entities[0])
	w2 := entity.EntityWords(entities[1])
	seen := make(map[*entity.Word]bool, len(w1))
	for _, w := range w1 {
		seen[w] = true
	}
	for _, w := range w2 {
		if seen[w] {
			return AtomScore{0}
		}
	}
	return AtomScore{1}
}

var AreDisjointPredicate Predicate = AreDisjoint{}

// Nop always scores 1, regardless of fields or entities.
type Nop struct{ BasePredicate }

func (Nop) Name() string { return "nop" }
func (Nop) Degree() int  { return DegreeAny }
func (Nop) Score([]entity.Entity, *document.Document) RuleScore { return AtomScore{1} }

var NopPredicate Predicate = Nop{}

// Penalize caps a wrapped predicate's score at maxScore.
type Penalize struct {
	BasePredicate
	Wrapped  Predicate
	MaxScore float64
}

func NewPenalize(wrapped Predicate, maxScore float64) *Penalize {
	return &Penalize{Wrapped: wrapped, MaxScore: maxScore}
}

func (p *Penalize) Name() string { return "penalize" }
func (p *Penalize) Degree() int  { return p.Wrapped.Degree() }

func (p *Penalize) Score(entities []entity.Entity, doc *document.Document) RuleScore {
	s := p.Wrapped.Score(entities, doc).Score()
	if s > p.MaxScore {
		s = p.MaxScore
	}
	return AtomScore{s}
}

func (p *Penalize) Phi(fields []Field) formula.Formula { return p.Wrapped.Phi(fields) }

// NonFatal floors a wrapped predicate's score at minScore.
type NonFatal struct {
	BasePredicate
	Wrapped  Predicate
	MinScore float64
}

func NewNonFatal(wrapped Predicate, minScore float64) *NonFatal {
	return &NonFatal{Wrapped: wrapped, MinScore: minScore}
}

func (n *NonFatal) Name() string { return "non_fatal" }
func (n *NonFatal) Degree() int  { return n.Wrapped.Degree() }

func (n *NonFatal) Score(entities []entity.Entity, doc *document.Document) RuleScore {
	s := n.Wrapped.Score(entities, doc).Score()
	if s < n.MinScore {
		s = n.MinScore
	}
	return AtomScore{s}
}

// Negate inverts a wrapped predicate's score (1 - score).
type Negate struct {
	BasePredicate
	Wrapped Predicate
}

func NewNegate(wrapped Predicate) *Negate { return &Negate{Wrapped: wrapped} }

func (n *Negate) Name() string { return "negate" }
func (n *Negate) Degree() int  { return n.Wrapped.Degree() }

func (n *Negate) Score(entities []entity.Entity, doc *document.Document) RuleScore {
	return AtomScore{1 - n.Wrapped.Score(entities, doc).Score()}
}
