package rule

import (
	"strconv"
	"strings"

	"github.com/instabase/blueprint-go/pkg/blueprint/document"
	"github.com/instabase/blueprint-go/pkg/blueprint/entity"
)

func numericString(s string, periodAsDelimiter, forceDollarDecimal bool) string {
	var b strings.Builder
	dropRemainingPeriods := periodAsDelimiter
	runes := []rune(s)
	rev := make([]rune, 0, len(runes))
	for i := len(runes) - 1; i >= 0; i-- {
		c := runes[i]
		if c >= '0' && c <= '9' {
			rev = append(rev, c)
		}
		if c == '-' {
			if i == 0 {
				rev = append(rev, c)
			}
		}
		if !dropRemainingPeriods && c == '.' {
			rev = append(rev, c)
			dropRemainingPeriods = true
		}
	}
	if len(rev) == 1 && rev[0] == '.' {
		rev = nil
	}
	for i := len(rev) - 1; i >= 0; i-- {
		b.WriteRune(rev[i])
	}
	result := b.String()

	if forceDollarDecimal && !strings.Contains(result, ".") && len(result) > 2 {
		result = result[:len(result)-2] + "." + result[len(result)-2:]
	}
	return result
}

// sumOf sums the entities' numeric text, weighted by coefficients. Returns
// ok=false if any entity lacks parseable numeric text.
func sumOf(entities []entity.Entity, coefficients []float64, periodAsDelimiter, forceDollarDecimal bool) (float64, bool) {
	if len(entities) != len(coefficients) {
		panic(DegreeError{Predicate: "sum_is_approximately", Degree: len(coefficients), Got: len(entities)})
	}
	total := 0.0
	for i, e := range entities {
		text, _ := e.EntityText()
		numeric := numericString(text, periodAsDelimiter, forceDollarDecimal)
		if numeric == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(numeric, 64)
		if err != nil {
			return 0, false
		}
		total += f * coefficients[i]
	}
	return total, true
}

// SumIsApproximately scores how close a weighted sum of numeric fields
// comes to a target amount.
type SumIsApproximately struct {
	BasePredicate
	Amount              float64
	Coefficients        []float64
	Tolerance           float64
	Taper               float64
	PeriodAsDelimiter   bool
	ForceDollarDecimal  bool
}

func NewSumIsApproximately(amount float64, coefficients []float64, tolerance, taper float64, periodAsDelimiter, forceDollarDecimal bool) *SumIsApproximately {
	return &SumIsApproximately{
		Amount: amount, Coefficients: coefficients, Tolerance: tolerance, Taper: taper,
		PeriodAsDelimiter: periodAsDelimiter, ForceDollarDecimal: forceDollarDecimal,
	}
}

func (s *SumIsApproximately) Name() string { return "sum_is_approximately" }
func (s *SumIsApproximately) Degree() int  { return len(s.Coefficients) }

func (s *SumIsApproximately) Score(entities []entity.Entity, _ *document.Document) RuleScore {
	sum, ok := sumOf(entities, s.Coefficients, s.PeriodAsDelimiter, s.ForceDollarDecimal)
	if !ok {
		return AtomScore{0}
	}
	d := sum - s.Amount
	if d < 0 {
		d = -d
	}
	errv := d - s.Tolerance
	if errv < 0 {
		errv = 0
	}
	if s.Taper == 0 {
		if errv == 0 {
			return AtomScore{1}
		}
		return AtomScore{0}
	}
	ratio := errv / s.Taper
	if ratio > 1 {
		ratio = 1
	}
	return AtomScore{1 - ratio}
}

// SumIsAtLeast scores 1 if a weighted sum of numeric fields meets a lower
// bound, 0 otherwise.
type SumIsAtLeast struct {
	BasePredicate
	LowerBound          float64
	Coefficients        []float64
	Strict              bool
	PeriodAsDelimiter   bool
	ForceDollarDecimal  bool
}

func NewSumIsAtLeast(lowerBound float64, coefficients []float64, strict, periodAsDelimiter, forceDollarDecimal bool) *SumIsAtLeast {
	return &SumIsAtLeast{
		LowerBound: lowerBound, Coefficients: coefficients, Strict: strict,
		PeriodAsDelimiter: periodAsDelimiter, ForceDollarDecimal: forceDollarDecimal,
	}
}

func (s *SumIsAtLeast) Name() string { return "sum_is_at_least" }
func (s *SumIsAtLeast) Degree() int  { return len(s.Coefficients) }

func (s *SumIsAtLeast) Score(entities []entity.Entity, _ *document.Document) RuleScore {
	sum, ok := sumOf(entities, s.Coefficients, s.PeriodAsDelimiter, s.ForceDollarDecimal)
	if !ok {
		return AtomScore{0}
	}
	if sum > s.LowerBound || (!s.Strict && sum == s.LowerBound) {
		return AtomScore{1}
	}
	return AtomScore{0}
}

// SumIsNearZero says a weighted sum of fields is approximately zero.
func SumIsNearZero(coefficients []float64, tolerance, taper float64) *SumIsApproximately {
	return NewSumIsApproximately(0, coefficients, tolerance, taper, false, false)
}

// SumIsZero says a weighted sum of fields is exactly zero.
func SumIsZero(coefficients []float64) *SumIsApproximately {
	return NewSumIsApproximately(0, coefficients, 0, 0, false, false)
}

// SumIsPositive says a weighted sum of fields is positive.
func SumIsPositive(coefficients []float64, strict bool) *SumIsAtLeast {
	return NewSumIsAtLeast(0, coefficients, strict, false, false)
}

// IsNearlyEqualTo says a field is approximately equal to amount.
func IsNearlyEqualTo(amount, tolerance, taper float64) *SumIsApproximately {
	return NewSumIsApproximately(amount, []float64{1}, tolerance, taper, false, false)
}

// IsEqualTo says a field is exactly equal to amount.
func IsEqualTo(amount float64) *SumIsApproximately {
	return NewSumIsApproximately(amount, []float64{1}, 0, 0, false, false)
}

// IsGreaterThan says a field is greater than amount.
func IsGreaterThan(amount float64, strict bool) *SumIsAtLeast {
	return NewSumIsAtLeast(amount, []float64{1}, strict, false, false)
}

// IsLessThan says a field is less than amount.
func IsLessThan(amount float64, strict bool) *SumIsAtLeast {
	return NewSumIsAtLeast(-amount, []float64{-1}, strict, false, false)
}

// AreEqual says two fields are numerically equal.
func AreEqual() *SumIsApproximately { return SumIsZero([]float64{1, -1}) }

// GreaterThanPair says the first of two fields is greater than the second.
func GreaterThanPair(strict bool) *SumIsAtLeast { return SumIsPositive([]float64{1, -1}, strict) }

// LessThanPair says the first of two fields is less than the second.
func LessThanPair(strict bool) *SumIsAtLeast { return SumIsPositive([]float64{-1, 1}, strict) }

// IsZero says a field is numerically zero.
func IsZero() *SumIsApproximately { return IsEqualTo(0) }

// IsPositive says a field is strictly positive.
func IsPositive() *SumIsAtLeast { return IsGreaterThan(0, true) }

// IsNegative says a field is strictly negative.
func IsNegative() *SumIsAtLeast { return IsLessThan(0, true) }

// IsNonnegative says a field is zero or positive.
func IsNonnegative() *SumIsAtLeast { return IsGreaterThan(0, false) }
