package rule

import (
	"regexp"
	"strings"

	"github.com/instabase/blueprint-go/pkg/blueprint/document"
	"github.com/instabase/blueprint-go/pkg/blueprint/entity"
	"github.com/instabase/blueprint-go/pkg/blueprint/stringalgos"
)

// TextComparisonFlags controls how TextEquals/TextHasSubstring normalize
// text before comparison.
type TextComparisonFlags int

const (
	TextComparisonNone          TextComparisonFlags = 0
	TextComparisonCaseSensitive TextComparisonFlags = 1 << iota
	TextComparisonNoWhitespace
	TextComparisonAlphabetical
	TextComparisonNumerical
)

const TextComparisonAlphanumerical = TextComparisonAlphabetical | TextComparisonNumerical

var whitespaceRe = regexp.MustCompile(`\s`)
var nonAlnumRe = regexp.MustCompile(`[^a-zA-Z0-9]`)
var nonAlphaRe = regexp.MustCompile(`[^a-zA-Z]`)
var nonNumericRe = regexp.MustCompile(`[^0-9]`)

func textComparisonMassage(flags TextComparisonFlags, s string) string {
	if flags&TextComparisonCaseSensitive == 0 {
		s = strings.ToUpper(s)
	}
	if flags&TextComparisonNoWhitespace != 0 {
		s = whitespaceRe.ReplaceAllString(s, "")
	}
	switch {
	case flags&TextComparisonAlphanumerical == TextComparisonAlphanumerical:
		s = nonAlnumRe.ReplaceAllString(s, "")
	case flags&TextComparisonAlphabetical != 0:
		s = nonAlphaRe.ReplaceAllString(s, "")
	case flags&TextComparisonNumerical != 0:
		s = nonNumericRe.ReplaceAllString(s, "")
	}
	return s
}

func textTaperError(rawError, tolerance, taper int) float64 {
	errv := rawError - tolerance
	if errv < 0 {
		errv = 0
	}
	if errv == 0 {
		return 1.0
	}
	if taper == 0 {
		return 0.0
	}
	ratio := float64(errv) / float64(taper+1)
	if ratio > 1.0 {
		ratio = 1.0
	}
	v := 1.0 - ratio
	if v < 0 {
		v = -v
	}
	return v
}

// LineCountIs scores a field by how many lines it spans, linearly
// interpolating over a score dict of known line counts.
type LineCountIs struct {
	BasePredicate
	ScoreDict map[int]float64
}

func NewLineCountIs(scoreDict map[int]float64) *LineCountIs {
	return &LineCountIs{ScoreDict: scoreDict}
}

func (p *LineCountIs) Name() string { return "line_count_is" }
func (p *LineCountIs) Degree() int  { return 1 }

func lineCountOf(e entity.Entity) int {
	switch v := e.(type) {
	case *entity.Cluster:
		return len(v.Lines)
	case *entity.Address:
		return len(v.Lines)
	default:
		return 1
	}
}

func (p *LineCountIs) Score(entities []entity.Entity, _ *document.Document) RuleScore {
	checkScoreDegree(entities, 1)
	return AtomScore{CountScore(p.ScoreDict, lineCountOf(entities[0]))}
}

// WordCountIs scores a field by how many words it contains.
type WordCountIs struct {
	BasePredicate
	ScoreDict map[int]float64
}

func NewWordCountIs(scoreDict map[int]float64) *WordCountIs {
	return &WordCountIs{ScoreDict: scoreDict}
}

func (p *WordCountIs) Name() string { return "word_count_is" }
func (p *WordCountIs) Degree() int  { return 1 }

func (p *WordCountIs) Score(entities []entity.Entity, _ *document.Document) RuleScore {
	checkScoreDegree(entities, 1)
	t, ok := entities[0].(*entity.Text)
	if !ok {
		return AtomScore{0}
	}
	return AtomScore{CountScore(p.ScoreDict, len(t.Words))}
}

// TextEquals scores how closely a field's text matches one of several
// candidate texts, by edit distance.
type TextEquals struct {
	BasePredicate
	Texts     []string
	Flags     TextComparisonFlags
	Tolerance int
	Taper     int
}

func NewTextEquals(texts []string, flags TextComparisonFlags, tolerance, taper int) *TextEquals {
	return &TextEquals{Texts: texts, Flags: flags, Tolerance: tolerance, Taper: taper}
}

func (p *TextEquals) Name() string { return "text_equals" }
func (p *TextEquals) Degree() int  { return 1 }

func (p *TextEquals) matchScore(candidate, text string) float64 {
	if abs(len(candidate)-len(text)) > p.Tolerance+p.Taper {
		return 0
	}
	errv := stringalgos.EditDistance(candidate, text)
	return textTaperError(errv, p.Tolerance, p.Taper)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func (p *TextEquals) Score(entities []entity.Entity, _ *document.Document) RuleScore {
	checkScoreDegree(entities, 1)
	if len(p.Texts) == 0 {
		return AtomScore{1}
	}
	text, ok := entities[0].EntityText()
	if !ok {
		for _, t := range p.Texts {
			if t == "" {
				return AtomScore{1}
			}
		}
		return AtomScore{0}
	}
	eText := textComparisonMassage(p.Flags, text)

	best := 0.0
	for i, t := range p.Texts {
		massaged := textComparisonMassage(p.Flags, t)
		s := p.matchScore(massaged, eText)
		if i == 0 || s > best {
			best = s
		}
		if best == 1 {
			break
		}
	}
	return AtomScore{best}
}

// TextIsOneOf builds a TextEquals over several candidate texts.
func TextIsOneOf(texts []string, flags TextComparisonFlags, tolerance, taper int) *TextEquals {
	return NewTextEquals(texts, flags, tolerance, taper)
}

// TextEqualsOne builds a TextEquals over a single candidate text.
func TextEqualsOne(text string, flags TextComparisonFlags, tolerance, taper int) *TextEquals {
	return NewTextEquals([]string{text}, flags, tolerance, taper)
}

// TextHasSubstring scores how cheaply text can be edited into a substring
// of a field's text.
type TextHasSubstring struct {
	BasePredicate
	Text      string
	Flags     TextComparisonFlags
	Tolerance int
	Taper     int
}

func NewTextHasSubstring(text string, flags TextComparisonFlags, tolerance, taper int) *TextHasSubstring {
	return &TextHasSubstring{Text: text, Flags: flags, Tolerance: tolerance, Taper: taper}
}

func (p *TextHasSubstring) Name() string { return "text_has_substring" }
func (p *TextHasSubstring) Degree() int  { return 1 }

func (p *TextHasSubstring) Score(entities []entity.Entity, _ *document.Document) RuleScore {
	checkScoreDegree(entities, 1)
	t, ok := entities[0].(*entity.Text)
	if !ok {
		return AtomScore{0}
	}
	localTaper := p.Taper
	if localTaper == 0 {
		localTaper = len(p.Text) / 2
	}
	massagedText := textComparisonMassage(p.Flags, p.Text)
	massagedE := textComparisonMassage(p.Flags, t.TextStr)
	errv := stringalgos.SubstringEditDistance(massagedE, massagedText)
	return AtomScore{textTaperError(errv, p.Tolerance, localTaper)}
}

// TextDoesNotContainSubstring negates TextHasSubstring.
func TextDoesNotContainSubstring(text string, flags TextComparisonFlags, intolerance, taper int) Predicate {
	return NewNegate(NewTextHasSubstring(text, flags, intolerance, taper))
}

// TextMatchesPattern scores a field's text against a wildcard pattern by
// edit distance.
type TextMatchesPattern struct {
	BasePredicate
	Pattern   string
	StandsFor map[rune]string
	Tolerance int
	Taper     int
	HasTaper  bool
}

func NewTextMatchesPattern(pattern string, standsFor map[rune]string, tolerance int, taper int, hasTaper bool) *TextMatchesPattern {
	return &TextMatchesPattern{Pattern: pattern, StandsFor: standsFor, Tolerance: tolerance, Taper: taper, HasTaper: hasTaper}
}

func (p *TextMatchesPattern) Name() string { return "text_matches_pattern" }
func (p *TextMatchesPattern) Degree() int  { return 1 }

func (p *TextMatchesPattern) Score(entities []entity.Entity, _ *document.Document) RuleScore {
	checkScoreDegree(entities, 1)
	t, ok := entities[0].(*entity.Text)
	if !ok {
		return AtomScore{0}
	}
	localTaper := p.Taper
	if !p.HasTaper {
		localTaper = max(len(t.TextStr), len(p.Pattern)) / 2
	}
	errv := stringalgos.PatternEditDistance(t.TextStr, p.Pattern, p.StandsFor)
	return AtomScore{textTaperError(errv, p.Tolerance, localTaper)}
}

// TextPropertiesAre scores a field's text against a bundle of character-
// level properties: length bounds, legal characters, and character
// proportion/count bounds.
type TextPropertiesAre struct {
	BasePredicate
	Length            *lengthBound
	LegalChars        string
	HasLegalChars     bool
	MinCharProportions []charProportion
	MaxCharProportions []charProportion
	MinCharCounts      []charCount
	MaxCharCounts      []charCount
	Tolerance          int
	Taper              int
	HasTaper           bool
}

func (p *TextPropertiesAre) Name() string { return "text_properties_are" }
func (p *TextPropertiesAre) Degree() int  { return 1 }

func (p *TextPropertiesAre) Score(entities []entity.Entity, _ *document.Document) RuleScore {
	checkScoreDegree(entities, 1)
	t, ok := entities[0].(*entity.Text)
	if !ok {
		return AtomScore{0}
	}
	localTaper := p.Taper
	if !p.HasTaper {
		localTaper = len(t.TextStr) / 2
	}

	errv := 0
	if p.Length != nil {
		errv += textLength(t.TextStr, *p.Length)
	}
	if p.HasLegalChars {
		errv += textLegalChars(t.TextStr, p.LegalChars)
	}
	if p.MinCharProportions != nil {
		errv += textMinCharProportions(t.TextStr, p.MinCharProportions)
	}
	if p.MaxCharProportions != nil {
		errv += textMaxCharProportions(t.TextStr, p.MaxCharProportions)
	}
	if p.MinCharCounts != nil {
		errv += textMinCharCounts(t.TextStr, p.MinCharCounts)
	}
	if p.MaxCharCounts != nil {
		errv += textMaxCharCounts(t.TextStr, p.MaxCharCounts)
	}
	return AtomScore{textTaperError(errv, p.Tolerance, localTaper)}
}

// HaveUnequalText scores 1 if two fields' texts differ, 0 if they match.
type HaveUnequalText struct{ BasePredicate }

func (HaveUnequalText) Name() string { return "have_unequal_text" }
func (HaveUnequalText) Degree() int  { return 2 }

func (HaveUnequalText) Score(entities []entity.Entity, _ *document.Document) RuleScore {
	checkScoreDegree(entities, 2)
	t1, _ := entities[0].EntityText()
	t2, _ := entities[1].EntityText()
	if t1 != t2 {
		return AtomScore{1}
	}
	return AtomScore{0}
}

var HaveUnequalTextPredicate Predicate = HaveUnequalText{}

var (
	IsOneLine  = NewLineCountIs(map[int]float64{0: 0, 1: 1, 2: 0})
	IsTwoLines = NewLineCountIs(map[int]float64{1: 0, 2: 1, 3: 0})

	IsOneWord  = NewWordCountIs(map[int]float64{0: 0, 1: 1, 2: 0})
	IsTwoWords = NewWordCountIs(map[int]float64{1: 0, 2: 1, 3: 0})
)
