package rule

import (
	"testing"

	"github.com/instabase/blueprint-go/pkg/blueprint/entity"
	"github.com/instabase/blueprint-go/pkg/blueprint/geometry"
)

func TestTextEqualsExactMatch(t *testing.T) {
	txt := &entity.Text{TextStr: "hello"}
	pred := NewTextEquals([]string{"hello"}, TextComparisonNone, 1, 1)
	score := pred.Score([]entity.Entity{txt}, nil).Score()
	if score != 1.0 {
		t.Fatalf("got %v want 1.0", score)
	}
}

func TestTextEqualsNoTextsScoresOne(t *testing.T) {
	txt := &entity.Text{TextStr: "hello"}
	pred := NewTextEquals(nil, TextComparisonNone, 1, 1)
	score := pred.Score([]entity.Entity{txt}, nil).Score()
	if score != 1.0 {
		t.Fatalf("got %v want 1.0", score)
	}
}

func TestTextHasSubstringFound(t *testing.T) {
	txt := &entity.Text{TextStr: "hello world"}
	pred := NewTextHasSubstring("world", TextComparisonNone, 0, 1)
	score := pred.Score([]entity.Entity{txt}, nil).Score()
	if score != 1.0 {
		t.Fatalf("got %v want 1.0", score)
	}
}

func TestTextMatchesPatternWildcards(t *testing.T) {
	txt := &entity.Text{TextStr: "123-45-6789"}
	standsFor := map[rune]string{'D': "0123456789"}
	pred := NewTextMatchesPattern("DDD-DD-DDDD", standsFor, 0, 0, true)
	score := pred.Score([]entity.Entity{txt}, nil).Score()
	if score != 1.0 {
		t.Fatalf("got %v want 1.0", score)
	}
}

func TestHaveUnequalTextScoring(t *testing.T) {
	w1 := &entity.Word{Bbox: geometry.BBox{}, Text: "a"}
	w2 := &entity.Word{Bbox: geometry.BBox{}, Text: "b"}
	pred := HaveUnequalText{}
	if score := pred.Score([]entity.Entity{w1, w2}, nil).Score(); score != 1.0 {
		t.Fatalf("got %v want 1.0", score)
	}
	w3 := &entity.Word{Bbox: geometry.BBox{}, Text: "a"}
	if score := pred.Score([]entity.Entity{w1, w3}, nil).Score(); score != 0.0 {
		t.Fatalf("got %v want 0.0", score)
	}
}

func TestWordCountIsNonTextScoresZero(t *testing.T) {
	w := &entity.Word{Bbox: geometry.BBox{}, Text: "a"}
	pred := NewWordCountIs(map[int]float64{1: 1})
	if score := pred.Score([]entity.Entity{w}, nil).Score(); score != 0.0 {
		t.Fatalf("got %v want 0.0", score)
	}
}
