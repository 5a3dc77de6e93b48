package scoring

import (
	"testing"

	"github.com/instabase/blueprint-go/pkg/blueprint/entity"
	"github.com/instabase/blueprint-go/pkg/blueprint/extraction"
	"github.com/instabase/blueprint-go/pkg/blueprint/geometry"
)

func word(text string) *entity.Word {
	return &entity.Word{Bbox: geometry.BBox{}, Text: text}
}

func TestBuildDefaultScoredExtraction(t *testing.T) {
	ext := extraction.New([]extraction.Point{{Field: "name", Entity: word("Alice")}})
	se := Build(ext, 1, nil)

	if se.Score != 1.0 {
		t.Fatalf("got score %v want 1.0", se.Score)
	}
	fs, err := se.FieldScore("name")
	if err != nil || fs != 1.0 {
		t.Fatalf("got %v, %v want 1.0, nil", fs, err)
	}
}

func TestBuildEmptyExtractionScoresZero(t *testing.T) {
	se := Build(extraction.Empty(), 1, nil)
	if se.Score != 0.0 {
		t.Fatalf("got %v want 0.0", se.Score)
	}
}

func TestAssignmentIsValidThreshold(t *testing.T) {
	w := word("x")
	if AssignmentIsValid(w, MinimumFieldScore) {
		t.Fatal("expected score equal to minimum to be invalid (strict bound)")
	}
	if !AssignmentIsValid(w, MinimumFieldScore+0.01) {
		t.Fatal("expected score above minimum to be valid")
	}
	if !AssignmentIsValid(nil, 0) {
		t.Fatal("expected nil assignment with zero score to be valid")
	}
}

func TestExtractionScoreDividesByMass(t *testing.T) {
	fs := FieldScores{"a": 0.5, "b": 0.5}
	if got := ExtractionScore(fs, 2); got != 0.5 {
		t.Fatalf("got %v want 0.5", got)
	}
}

func TestMergeDisjointExtractions(t *testing.T) {
	a := Build(extraction.New([]extraction.Point{{Field: "name", Entity: word("Alice")}}), 1, nil)
	b := Build(extraction.New([]extraction.Point{{Field: "amount", Entity: word("$5")}}), 1, nil)

	merged, err := Merge([]ScoredExtraction{a, b}, nil, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !merged.Extraction.HasField("name") || !merged.Extraction.HasField("amount") {
		t.Fatalf("expected merged extraction to carry both fields")
	}
	if merged.Score != 1.0 {
		t.Fatalf("got score %v want 1.0", merged.Score)
	}
}

func TestMergeOverlappingExtractionsErrors(t *testing.T) {
	a := Build(extraction.New([]extraction.Point{{Field: "name", Entity: word("Alice")}}), 1, nil)
	b := Build(extraction.New([]extraction.Point{{Field: "name", Entity: word("Bob")}}), 1, nil)

	if _, err := Merge([]ScoredExtraction{a, b}, nil, 2); err == nil {
		t.Fatal("expected error merging overlapping fields")
	}
}

func TestLeafScoreNilAssignmentScoresZero(t *testing.T) {
	got, scores := LeafScore(nil, nil, nil)
	if got != 0.0 {
		t.Fatalf("got %v want 0.0", got)
	}
	if len(scores) != 0 {
		t.Fatalf("expected no predicate scores, got %v", scores)
	}
}
