package rule

import (
	"github.com/instabase/blueprint-go/pkg/blueprint/document"
	"github.com/instabase/blueprint-go/pkg/blueprint/entity"
)

// degree1Score checks that exactly one entity was passed and returns it.
// Its callers score an entity of the wrong type as 0 rather than erroring
// -- the one explicit exception to the rule that type mismatches are fatal
// Contract errors.
func degree1Score(entities []entity.Entity) entity.Entity {
	checkScoreDegree(entities, 1)
	return entities[0]
}

func orZero(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// IsAddress scores how strongly a field looks like a mailing address.
type IsAddress struct{ BasePredicate }

func (IsAddress) Name() string { return "is_address" }
func (IsAddress) Degree() int  { return 1 }
func (IsAddress) Leniency() float64 { return float64(LenienceNotApplicable) }

func (IsAddress) Score(entities []entity.Entity, _ *document.Document) RuleScore {
	e := degree1Score(entities)
	addr, ok := e.(*entity.Address)
	if !ok {
		return AtomScore{0}
	}
	return AtomScore{orZero(addr.LikenessScore)}
}

// IsDate scores how strongly a field looks like a date.
type IsDate struct{ BasePredicate }

func (IsDate) Name() string { return "is_date" }
func (IsDate) Degree() int  { return 1 }
func (IsDate) Leniency() float64 { return float64(LenienceNotApplicable) }

func (IsDate) Score(entities []entity.Entity, _ *document.Document) RuleScore {
	e := degree1Score(entities)
	d, ok := e.(*entity.Date)
	if !ok {
		return AtomScore{0}
	}
	return AtomScore{orZero(d.LikenessScore)}
}

// IsDollarAmount scores how strongly a field looks like a dollar amount.
type IsDollarAmount struct{ BasePredicate }

func (IsDollarAmount) Name() string { return "is_dollar_amount" }
func (IsDollarAmount) Degree() int  { return 1 }
func (IsDollarAmount) Leniency() float64 { return float64(LenienceNotApplicable) }

func (IsDollarAmount) Score(entities []entity.Entity, _ *document.Document) RuleScore {
	e := degree1Score(entities)
	d, ok := e.(*entity.DollarAmount)
	if !ok {
		return AtomScore{0}
	}
	return AtomScore{orZero(d.LikenessScore)}
}

// IsEntirePhrase scores how strongly a field's assignment is an entire
// maximal horizontal phrase, rather than a sub-span of one.
type IsEntirePhrase struct{ BasePredicate }

func (IsEntirePhrase) Name() string { return "is_entire_phrase" }
func (IsEntirePhrase) Degree() int  { return 1 }
func (IsEntirePhrase) Leniency() float64 { return float64(LenienceNotApplicable) }

func (IsEntirePhrase) Score(entities []entity.Entity, _ *document.Document) RuleScore {
	e := entities[0]
	t, ok := e.(*entity.Text)
	if !ok {
		return AtomScore{0}
	}
	return AtomScore{orZero(t.MaximalityScore)}
}

// IsPersonName scores how strongly a field looks like a person's name.
type IsPersonName struct{ BasePredicate }

func (IsPersonName) Name() string { return "is_person_name" }
func (IsPersonName) Degree() int  { return 1 }
func (IsPersonName) Leniency() float64 { return float64(LenienceNotApplicable) }

func (IsPersonName) Score(entities []entity.Entity, _ *document.Document) RuleScore {
	e := degree1Score(entities)
	p, ok := e.(*entity.PersonName)
	if !ok {
		return AtomScore{0}
	}
	return AtomScore{orZero(p.LikenessScore)}
}

var (
	IsAddressPredicate        Predicate = IsAddress{}
	IsDatePredicate           Predicate = IsDate{}
	IsDollarAmountPredicate   Predicate = IsDollarAmount{}
	IsEntirePhrasePredicate   Predicate = IsEntirePhrase{}
	IsPersonNamePredicate     Predicate = IsPersonName{}
)
