// Package rule defines the rule algebra: Predicates (single named
// constraints like "is a date" or "are aligned"), and the Atom/Conjunction/
// Disjunction tree built from them that an extraction is scored against.
package rule

import (
	"fmt"

	"github.com/fogfish/guid/v2"

	"github.com/instabase/blueprint-go/pkg/blueprint/document"
	"github.com/instabase/blueprint-go/pkg/blueprint/entity"
	"github.com/instabase/blueprint-go/pkg/blueprint/extraction"
	"github.com/instabase/blueprint-go/pkg/blueprint/formula"
)

// Field is a field name, as used throughout the extraction pipeline.
type Field = extraction.Field

func newUUID() string {
	return guid.G(guid.Clock).String()
}

// Lenience approximates how permissive a predicate is: roughly, what
// fraction of candidate assignments it is expected not to eliminate.
type Lenience float64

const (
	LenienceLow           Lenience = 0.1
	LenienceMedium        Lenience = 0.3
	LenienceHigh          Lenience = 0.5
	LenienceNotApplicable Lenience = 1.0
)

// DegreeAny marks a predicate that accepts any positive number of fields.
const DegreeAny = -1

// RuleScore is the result of scoring a rule against an extraction.
type RuleScore interface {
	Score() float64
}

// AtomScore is the score produced by a single predicate application.
type AtomScore struct{ ScoreValue float64 }

func (s AtomScore) Score() float64 { return s.ScoreValue }

// ConnectiveScore is the score produced by a Conjunction or Disjunction,
// along with the sub-scores that produced it.
type ConnectiveScore struct {
	ScoreValue float64
	RuleScores map[string]RuleScore
	Kind       string // "conjunction_score" or "disjunction_score"
}

func (s ConnectiveScore) Score() float64 { return s.ScoreValue }

func buildConjunctionScore(scores map[string]RuleScore) ConnectiveScore {
	product := 1.0
	for _, s := range scores {
		product *= s.Score()
	}
	if len(scores) == 0 {
		product = 1.0
	}
	return ConnectiveScore{ScoreValue: product, RuleScores: scores, Kind: "conjunction_score"}
}

func buildDisjunctionScore(scores map[string]RuleScore) ConnectiveScore {
	max := 0.0
	first := true
	for _, s := range scores {
		if first || s.Score() > max {
			max = s.Score()
			first = false
		}
	}
	return ConnectiveScore{ScoreValue: max, RuleScores: scores, Kind: "disjunction_score"}
}

// Predicate is a named, scoreable constraint over a fixed (or "any")
// number of fields. Predicates are compared by pointer identity.
type Predicate interface {
	Name() string
	// Degree is the number of entities this predicate expects, or DegreeAny.
	Degree() int
	// Score computes how well the predicate holds for the given entities.
	Score(entities []entity.Entity, doc *document.Document) RuleScore
	// Phi returns a weakening spatial formula: true whenever this
	// predicate could plausibly score positively for the given fields.
	Phi(fields []Field) formula.Formula
	// Leniency estimates what fraction of candidate assignments this
	// predicate does not eliminate.
	Leniency() float64
}

// BasePredicate supplies Phi/Leniency defaults for concrete predicates to
// embed; concrete predicates still implement Name/Degree/Score themselves.
type BasePredicate struct{}

func (BasePredicate) Phi(fields []Field) formula.Formula { return formula.True{} }
func (BasePredicate) Leniency() float64                  { return float64(LenienceMedium) }

// DegreeError is raised when a predicate is applied to the wrong number of fields.
type DegreeError struct {
	Predicate string
	Degree    int
	Got       int
}

func (e DegreeError) Error() string {
	return fmt.Sprintf("rule: cannot bind %d fields to degree-%d predicate %q", e.Got, e.Degree, e.Predicate)
}

// Apply builds an Atom from a predicate and the fields it is applied to,
// panicking with a DegreeError if the field count doesn't match the
// predicate's declared degree. This mirrors Predicate.__call__.
func Apply(p Predicate, fields ...Field) *Atom {
	if p.Degree() != DegreeAny && len(fields) != p.Degree() {
		panic(DegreeError{Predicate: p.Name(), Degree: p.Degree(), Got: len(fields)})
	}
	return &Atom{Fields_: fields, Predicate: p, UUID: newUUID()}
}

// Rule is implemented by Atom, Conjunction, and Disjunction.
type Rule interface {
	Fields() []Field
	GetUUID() string
	RuleScore(ext extraction.Extraction) RuleScore
	WithDocument(doc *document.Document) Rule
	Atoms() []*Atom
}

// Atom is a single predicate applied to a tuple of fields.
type Atom struct {
	Fields_   []Field
	Predicate Predicate
	UUID      string
	Name      string
	Document  *document.Document
}

func (a *Atom) Fields() []Field  { return a.Fields_ }
func (a *Atom) GetUUID() string  { return a.UUID }
func (a *Atom) Atoms() []*Atom   { return []*Atom{a} }

// Phi returns the atom's weakening spatial formula.
func (a *Atom) Phi() formula.Formula { return a.Predicate.Phi(a.Fields_) }

// WithDocument binds a document to the atom, required before RuleScore
// can be computed once all its fields are present.
func (a *Atom) WithDocument(doc *document.Document) Rule {
	cp := *a
	cp.Document = doc
	return &cp
}

// RuleScore computes this atom's score against extraction. Mirrors the
// original's policy: if the extraction doesn't assign all of this atom's
// fields yet, the rule trivially scores 1 (it isn't yet decidable).
func (a *Atom) RuleScore(ext extraction.Extraction) RuleScore {
	for _, f := range a.Fields_ {
		if !ext.HasField(f) {
			return AtomScore{1.0}
		}
	}
	if a.Document == nil {
		panic(fmt.Sprintf("rule: document not bound to rule %v", a))
	}
	ents := make([]entity.Entity, len(a.Fields_))
	for i, f := range a.Fields_ {
		e, err := ext.Get(f)
		if err != nil {
			panic(err)
		}
		ents[i] = e
	}
	return a.Predicate.Score(ents, a.Document)
}

func (a *Atom) String() string {
	return fmt.Sprintf("%v %s", a.Fields_, a.Predicate.Name())
}

// connectiveKind distinguishes Conjunction from Disjunction scoring.
type connectiveKind int

const (
	kindConjunction connectiveKind = iota
	kindDisjunction
)

// Connective is the shared shape of Conjunction and Disjunction: a named,
// uuid'd collection of sub-rules.
type Connective struct {
	Rules    []Rule
	Name     string
	UUID     string
	Document *document.Document
	kind     connectiveKind
}

func (c *Connective) Fields() []Field {
	seen := make(map[Field]bool)
	var out []Field
	for _, r := range c.Rules {
		for _, f := range r.Fields() {
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	return out
}

func (c *Connective) GetUUID() string { return c.UUID }

func (c *Connective) Atoms() []*Atom {
	var out []*Atom
	for _, r := range c.Rules {
		out = append(out, r.Atoms()...)
	}
	return out
}

func (c *Connective) withDocument(doc *document.Document) *Connective {
	rules := make([]Rule, len(c.Rules))
	for i, r := range c.Rules {
		rules[i] = r.WithDocument(doc)
	}
	cp := *c
	cp.Document = doc
	cp.Rules = rules
	return &cp
}

func (c *Connective) scoreRules(ext extraction.Extraction) map[string]RuleScore {
	out := make(map[string]RuleScore, len(c.Rules))
	for _, r := range c.Rules {
		out[r.GetUUID()] = r.RuleScore(ext)
	}
	return out
}

// Conjunction scores as the product of its sub-rule scores.
type Conjunction struct{ Connective }

func NewConjunction(rules []Rule, name string) *Conjunction {
	return &Conjunction{Connective{Rules: rules, Name: name, UUID: newUUID(), kind: kindConjunction}}
}

func (c *Conjunction) WithDocument(doc *document.Document) Rule {
	return &Conjunction{*c.Connective.withDocument(doc)}
}

func (c *Conjunction) RuleScore(ext extraction.Extraction) RuleScore {
	return buildConjunctionScore(c.scoreRules(ext))
}

// Disjunction scores as the max of its sub-rule scores.
type Disjunction struct{ Connective }

func NewDisjunction(rules []Rule, name string) *Disjunction {
	return &Disjunction{Connective{Rules: rules, Name: name, UUID: newUUID(), kind: kindDisjunction}}
}

func (d *Disjunction) WithDocument(doc *document.Document) Rule {
	return &Disjunction{*d.Connective.withDocument(doc)}
}

func (d *Disjunction) RuleScore(ext extraction.Extraction) RuleScore {
	return buildDisjunctionScore(d.scoreRules(ext))
}

// AnyRuleHolds builds a Disjunction over the given rules.
func AnyRuleHolds(rules ...Rule) Rule { return NewDisjunction(rules, "") }

// AllRulesHold builds a Conjunction over the given rules.
func AllRulesHold(rules ...Rule) Rule { return NewConjunction(rules, "") }

// GetAtoms flattens a rule tree down to its leaf Atoms.
func GetAtoms(r Rule) []*Atom { return r.Atoms() }

// IsDecidable reports whether extraction assigns every field rule depends on.
func IsDecidable(r Rule, ext extraction.Extraction) bool {
	return ext.FieldsSuperset(fieldSet(r.Fields()))
}

func fieldSet(fields []Field) map[Field]bool {
	out := make(map[Field]bool, len(fields))
	for _, f := range fields {
		out[f] = true
	}
	return out
}

// Pairs returns every unordered pair (i<j) of the given fields, used to
// build pairwise conjunctions/disjunctions of degree-2 predicates.
func Pairs(fields []Field) [][2]Field {
	var out [][2]Field
	for i := 0; i < len(fields); i++ {
		for j := i + 1; j < len(fields); j++ {
			out = append(out, [2]Field{fields[i], fields[j]})
		}
	}
	return out
}

// BuildConnective builds a conjunction/disjunction of pairwise atoms for a
// degree-2 predicate applied across 2 or more fields.
func BuildConnective(fields []Field, newPredicate func() Predicate, kind connectiveKind) Rule {
	if len(fields) < 2 {
		panic(fmt.Sprintf("rule: connective constructor needs at least 2 fields, got %d", len(fields)))
	}
	if len(fields) == 2 {
		return Apply(newPredicate(), fields[0], fields[1])
	}
	pairs := Pairs(fields)
	atoms := make([]Rule, len(pairs))
	name := newPredicate().Name()
	for i, pr := range pairs {
		atoms[i] = Apply(newPredicate(), pr[0], pr[1])
	}
	if kind == kindDisjunction {
		return NewDisjunction(atoms, name)
	}
	return NewConjunction(atoms, name)
}

// BuildConjunction is BuildConnective specialized to Conjunction.
func BuildConjunction(fields []Field, newPredicate func() Predicate) Rule {
	return BuildConnective(fields, newPredicate, kindConjunction)
}

// BuildDisjunction is BuildConnective specialized to Disjunction.
func BuildDisjunction(fields []Field, newPredicate func() Predicate) Rule {
	return BuildConnective(fields, newPredicate, kindDisjunction)
}
