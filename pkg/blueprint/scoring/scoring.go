// Package scoring attaches scores to extractions: how well each field's
// assignment satisfies the rules that mention it, and how well the
// extraction as a whole satisfies the rule set it was built under.
package scoring

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/fogfish/guid/v2"

	"github.com/instabase/blueprint-go/pkg/blueprint/document"
	"github.com/instabase/blueprint-go/pkg/blueprint/entity"
	"github.com/instabase/blueprint-go/pkg/blueprint/extraction"
	"github.com/instabase/blueprint-go/pkg/blueprint/rule"
)

// MinimumFieldScore is a strict lower bound on a valid field score. A field
// score equal to or below this value makes its extraction invalid. Treating
// it as strict (not inclusive) means setting it to 0 to disable the floor
// actually disables it, rather than invalidating every zero-scored field.
const MinimumFieldScore = 0.1

// FieldScores maps each of an extraction's fields to its field score, which
// should lie in [0, 1].
type FieldScores map[extraction.Field]float64

func (fs FieldScores) clone() FieldScores {
	out := make(FieldScores, len(fs))
	for k, v := range fs {
		out[k] = v
	}
	return out
}

// ErrOverlappingRuleScores should never surface in practice; kept as a
// defensive sentinel alongside extraction.Merge's own overlap check.
var ErrOverlappingRuleScores = errors.New("scoring: rule score merge conflict")

// ScoredExtraction pairs an Extraction with the metadata describing how it
// was scored.
type ScoredExtraction struct {
	Extraction  extraction.Extraction
	Score       float64
	FieldScores FieldScores
	RuleScores  map[string]rule.RuleScore
	Mass        float64
	UUID        string
}

// Build produces a default-scored extraction: every field scores 1, and
// the extraction scores 1 overall (0 if it has no fields at all).
func Build(ext extraction.Extraction, mass float64, baseFieldScores FieldScores) ScoredExtraction {
	fields := ext.Fields()
	fs := make(FieldScores, len(fields))
	for f := range fields {
		if v, ok := baseFieldScores[f]; ok {
			fs[f] = v
		} else {
			fs[f] = 1.0
		}
	}
	score := 1.0
	if len(fields) == 0 {
		score = 0.0
	}
	return ScoredExtraction{
		Extraction:  ext,
		Score:       score,
		FieldScores: fs,
		RuleScores:  map[string]rule.RuleScore{},
		Mass:        mass,
		UUID:        guid.G(guid.Clock).String(),
	}
}

// Fields returns the set of fields this extraction assigns.
func (se *ScoredExtraction) Fields() map[extraction.Field]bool { return se.Extraction.Fields() }

// IsEmpty reports whether this extraction carries no assignments.
func (se *ScoredExtraction) IsEmpty() bool { return se.Extraction.IsEmpty() }

// Valid reports whether every field in this extraction has a valid
// assignment, per AssignmentIsValid.
func (se *ScoredExtraction) Valid() bool {
	for field := range se.Fields() {
		if !se.FieldIsValid(field) {
			return false
		}
	}
	return true
}

// FieldScore returns the field score for field, erroring if field isn't
// part of this extraction.
func (se *ScoredExtraction) FieldScore(field extraction.Field) (float64, error) {
	if !se.Extraction.HasField(field) {
		return 0, fmt.Errorf("scoring: field %q not found in extraction", field)
	}
	return se.FieldScores[field], nil
}

// FieldIsValid reports whether field's assignment is valid under its
// current field score.
func (se *ScoredExtraction) FieldIsValid(field extraction.Field) bool {
	ent, err := se.Extraction.Get(field)
	if err != nil {
		panic(err)
	}
	score, err := se.FieldScore(field)
	if err != nil {
		panic(err)
	}
	return AssignmentIsValid(ent, score)
}

// Normalize recomputes this extraction's overall score against a new mass.
func (se ScoredExtraction) Normalize(mass float64) ScoredExtraction {
	se.Score = ExtractionScore(se.FieldScores, mass)
	se.Mass = mass
	return se
}

// Less ranks extractions from highest- to lowest-scoring, so a min-heap of
// ScoredExtractions naturally pops the best one first.
func (se ScoredExtraction) Less(other ScoredExtraction) bool { return se.Score > other.Score }

func (se *ScoredExtraction) pointString(field extraction.Field) string {
	p := se.Extraction.Point(field)
	score := se.FieldScores[field]
	return fmt.Sprintf("(%1.3f) %s", score, p.String())
}

func (se *ScoredExtraction) String() string {
	fields := make([]string, 0, len(se.FieldScores))
	for f := range se.FieldScores {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = se.pointString(f)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// AssignmentIsValid reports whether it is valid to give a field this
// assignment, given the resulting field score. An unassigned field
// (assignment == nil) is always valid unless it somehow has a nonzero
// score, which is a caller bug.
func AssignmentIsValid(assignment entity.Entity, fieldScore float64) bool {
	if assignment == nil && fieldScore != 0 {
		panic(fmt.Sprintf("scoring: assignment to nil cannot have non-zero field score %v", fieldScore))
	}
	return assignment == nil || fieldScore > MinimumFieldScore
}

// ExtractionScore is the sum of field scores divided by the bound node's
// mass: the normalized measure of how well the extraction fits its rules.
func ExtractionScore(fieldScores FieldScores, mass float64) float64 {
	sum := 0.0
	for _, s := range fieldScores {
		sum += s
	}
	return sum / mass
}

// GetRuleScore looks up rule's score in cache, falling back to computing it
// fresh against extraction.
func GetRuleScore(r rule.Rule, ext extraction.Extraction, cache map[string]rule.RuleScore) rule.RuleScore {
	if s, ok := cache[r.GetUUID()]; ok {
		return s
	}
	return r.RuleScore(ext)
}

// Merge combines several scored extractions into one, applying extraRules
// -- rules that weren't already accounted for by any individual extraction,
// typically because they span fields from more than one of them.
func Merge(scoredExtractions []ScoredExtraction, extraRules []rule.Rule, mass float64) (ScoredExtraction, error) {
	exts := make([]extraction.Extraction, len(scoredExtractions))
	for i, se := range scoredExtractions {
		exts[i] = se.Extraction
	}
	merged, err := extraction.Merge(exts)
	if err != nil {
		return ScoredExtraction{}, err
	}

	ruleScores := make(map[string]rule.RuleScore)
	fieldScores := make(FieldScores)
	for _, se := range scoredExtractions {
		for k, v := range se.RuleScores {
			ruleScores[k] = v
		}
		for k, v := range se.FieldScores {
			fieldScores[k] = v
		}
	}

	var decidable, nonDecidable []rule.Rule
	for _, r := range extraRules {
		if rule.IsDecidable(r, merged) {
			decidable = append(decidable, r)
		} else {
			nonDecidable = append(nonDecidable, r)
		}
	}

	for _, r := range extraRules {
		for _, atom := range rule.GetAtoms(r) {
			if rule.IsDecidable(atom, merged) {
				ruleScores[atom.GetUUID()] = GetRuleScore(atom, merged, ruleScores)
			}
		}
	}

	var earlyExits []rule.Rule
	for _, r := range nonDecidable {
		if UpperBound(r, merged, ruleScores) == 0 {
			earlyExits = append(earlyExits, r)
		}
	}

	for _, r := range decidable {
		score := GetRuleScore(r, merged, ruleScores)
		for _, f := range r.Fields() {
			if merged.HasField(f) {
				fieldScores[f] *= score.Score()
			}
		}
		ruleScores[r.GetUUID()] = score
	}

	for _, r := range earlyExits {
		for _, f := range r.Fields() {
			if merged.HasField(f) {
				fieldScores[f] = 0.0
			}
		}
	}

	return ScoredExtraction{
		Extraction:  merged,
		Score:       ExtractionScore(fieldScores, mass),
		FieldScores: fieldScores,
		RuleScores:  ruleScores,
		Mass:        mass,
		UUID:        guid.G(guid.Clock).String(),
	}, nil
}

// UpperBound bounds the best possible score rule could still achieve against
// extraction, used to short-circuit extraction search once a rule can no
// longer be satisfied at all.
func UpperBound(r rule.Rule, ext extraction.Extraction, cache map[string]rule.RuleScore) float64 {
	if s, ok := cache[r.GetUUID()]; ok {
		return s.Score()
	}
	switch v := r.(type) {
	case *rule.Atom:
		if rule.IsDecidable(v, ext) {
			return v.RuleScore(ext).Score()
		}
		return 1.0
	case *rule.Disjunction:
		best := 1.0
		first := true
		for _, sub := range v.Rules {
			b := UpperBound(sub, ext, cache)
			if first || b > best {
				best = b
				first = false
			}
		}
		return best
	case *rule.Conjunction:
		product := 1.0
		for _, sub := range v.Rules {
			product *= UpperBound(sub, ext, cache)
		}
		return product
	default:
		panic(fmt.Sprintf("scoring: unrecognized rule type %T", r))
	}
}

// PredicateScore pairs a predicate with the score it produced, returned by
// LeafScore alongside the combined field score.
type PredicateScore struct {
	Predicate rule.Predicate
	Score     rule.RuleScore
}

// LeafScore computes a field score at a leaf node with respect to
// predicates: the product of each predicate's score against a single
// candidate assignment. A nil assignment scores 0 overall, with each
// predicate recorded as trivially-1 (not yet decidable).
func LeafScore(assignment entity.Entity, predicates []rule.Predicate, doc *document.Document) (float64, []PredicateScore) {
	fieldScore := 1.0
	if assignment == nil {
		fieldScore = 0.0
	}
	scores := make([]PredicateScore, len(predicates))
	for i, p := range predicates {
		var s rule.RuleScore
		if assignment != nil {
			s = p.Score([]entity.Entity{assignment}, doc)
		} else {
			s = rule.AtomScore{ScoreValue: 1.0}
		}
		scores[i] = PredicateScore{Predicate: p, Score: s}
		fieldScore *= s.Score()
	}
	return fieldScore, scores
}
