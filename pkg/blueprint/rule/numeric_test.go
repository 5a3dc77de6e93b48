package rule

import (
	"testing"

	"github.com/instabase/blueprint-go/pkg/blueprint/entity"
)

func TestSumIsApproximatelyMatches(t *testing.T) {
	e1 := &entity.Word{Text: "$10.00"}
	e2 := &entity.Word{Text: "$5.00"}
	pred := NewSumIsApproximately(15, []float64{1, 1}, 0.5, 0.5, false, false)
	score := pred.Score([]entity.Entity{e1, e2}, nil).Score()
	if score != 1.0 {
		t.Fatalf("got %v want 1.0", score)
	}
}

func TestSumIsApproximatelyNonNumericScoresZero(t *testing.T) {
	e1 := &entity.Word{Text: "not a number"}
	pred := NewSumIsApproximately(0, []float64{1}, 0.5, 0.5, false, false)
	score := pred.Score([]entity.Entity{e1}, nil).Score()
	if score != 0.0 {
		t.Fatalf("got %v want 0.0", score)
	}
}

func TestSumIsAtLeastStrictBoundary(t *testing.T) {
	e1 := &entity.Word{Text: "10"}
	pred := NewSumIsAtLeast(10, []float64{1}, true, false, false)
	score := pred.Score([]entity.Entity{e1}, nil).Score()
	if score != 0.0 {
		t.Fatalf("got %v want 0.0 (strict inequality)", score)
	}

	nonStrict := NewSumIsAtLeast(10, []float64{1}, false, false, false)
	if score := nonStrict.Score([]entity.Entity{e1}, nil).Score(); score != 1.0 {
		t.Fatalf("got %v want 1.0", score)
	}
}

func TestGreaterThanPair(t *testing.T) {
	e1 := &entity.Word{Text: "20"}
	e2 := &entity.Word{Text: "10"}
	pred := GreaterThanPair(true)
	if score := pred.Score([]entity.Entity{e1, e2}, nil).Score(); score != 1.0 {
		t.Fatalf("got %v want 1.0", score)
	}
}
