package rule

import (
	"github.com/derekparker/trie/v3"
)

// legalCharsTrie indexes a set of legal characters as single-rune keys, so
// repeated membership checks against the same character set (as happens
// scoring TextPropertiesAre over long strings) avoid a linear scan.
func legalCharsTrie(chars string) *trie.Trie {
	t := trie.New()
	for _, c := range chars {
		t.Add(string(c), true)
	}
	return t
}

func countMatching(s string, t *trie.Trie) int {
	n := 0
	for _, c := range s {
		if _, ok := t.Find(string(c)); ok {
			n++
		}
	}
	return n
}

// textLength measures the error between s's length and the given bounds:
// at_least, at_most, exactly (zero value means "unset").
type lengthBound struct {
	AtLeast *int
	AtMost  *int
	Exactly *int
}

func textLength(s string, bound lengthBound) int {
	errors := 0
	l := len([]rune(s))
	if bound.AtMost != nil && l > *bound.AtMost {
		errors += l - *bound.AtMost
	}
	if bound.AtLeast != nil && *bound.AtLeast > l {
		errors += *bound.AtLeast - l
	}
	if bound.Exactly != nil {
		d := *bound.Exactly - l
		if d < 0 {
			d = -d
		}
		errors += d
	}
	return errors
}

func textLegalChars(s, chars string) int {
	t := legalCharsTrie(chars)
	bad := 0
	for _, c := range s {
		if _, ok := t.Find(string(c)); !ok {
			bad++
		}
	}
	return bad
}

// charProportion names a character set and the proportion of a string it
// should make up (a minimum or a maximum, depending on which helper is
// called).
type charProportion struct {
	Chars      string
	Proportion float64
}

func maxErr(x float64) int {
	if x < 0 {
		return 0
	}
	return int(x + 0.5)
}

func textMinCharProportions(s string, bounds []charProportion) int {
	errors := 0
	l := float64(len([]rune(s)))
	for _, b := range bounds {
		t := legalCharsTrie(b.Chars)
		have := float64(countMatching(s, t))
		errors += maxErr(l*b.Proportion - have)
	}
	return errors
}

func textMaxCharProportions(s string, bounds []charProportion) int {
	errors := 0
	l := float64(len([]rune(s)))
	for _, b := range bounds {
		t := legalCharsTrie(b.Chars)
		have := float64(countMatching(s, t))
		errors += maxErr(have - l*b.Proportion)
	}
	return errors
}

// charCount names a character set and the count of it a string should
// contain (a minimum or a maximum).
type charCount struct {
	Chars string
	Count int
}

func textMinCharCounts(s string, bounds []charCount) int {
	errors := 0
	for _, b := range bounds {
		t := legalCharsTrie(b.Chars)
		have := countMatching(s, t)
		if d := b.Count - have; d > 0 {
			errors += d
		}
	}
	return errors
}

func textMaxCharCounts(s string, bounds []charCount) int {
	errors := 0
	for _, b := range bounds {
		t := legalCharsTrie(b.Chars)
		have := countMatching(s, t)
		if d := have - b.Count; d > 0 {
			errors += d
		}
	}
	return errors
}
