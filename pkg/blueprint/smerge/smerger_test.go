package smerge

import (
	"testing"

	"github.com/instabase/blueprint-go/pkg/blueprint/docregion"
	"github.com/instabase/blueprint-go/pkg/blueprint/entity"
	"github.com/instabase/blueprint-go/pkg/blueprint/extraction"
	"github.com/instabase/blueprint-go/pkg/blueprint/geometry"
	"github.com/instabase/blueprint-go/pkg/blueprint/scoring"
)

type sliceSource struct {
	values []*scoring.ScoredExtraction
	i      int
}

func (s *sliceSource) Next() (*scoring.ScoredExtraction, bool) {
	if s.i >= len(s.values) {
		return nil, false
	}
	v := s.values[s.i]
	s.i++
	return v, true
}

func wordEntity(text string) *entity.Word {
	bbox := geometry.BBox{IX: geometry.Interval{A: 0, B: 1}, IY: geometry.Interval{A: 0, B: 1}}
	return &entity.Word{Bbox: bbox, Text: text}
}

func extractionWith(field extraction.Field, score float64) *scoring.ScoredExtraction {
	ext := extraction.New([]extraction.Point{{Field: field, Entity: wordEntity(field)}})
	return &scoring.ScoredExtraction{Extraction: ext, Score: score}
}

func scoredSource(field extraction.Field, scores ...float64) *sliceSource {
	values := make([]*scoring.ScoredExtraction, len(scores))
	for i, s := range scores {
		values[i] = extractionWith(field, s)
	}
	return &sliceSource{values: values}
}

// trivialMerger combines two ScoredExtractions (one per field) into a
// single ScoredExtraction whose score is their sum; it never fails since
// the two test fields never overlap.
func trivialMerger(ts []*scoring.ScoredExtraction) (*scoring.ScoredExtraction, bool) {
	exts := make([]extraction.Extraction, len(ts))
	score := 0.0
	for i, t := range ts {
		exts[i] = t.Extraction
		score += t.Score
	}
	merged, err := extraction.Merge(exts)
	if err != nil {
		return nil, false
	}
	return &scoring.ScoredExtraction{Extraction: merged, Score: score}, true
}

func negatedScore(t *scoring.ScoredExtraction) float64 { return -t.Score }

func negatedScoreEstimator(ts []*scoring.ScoredExtraction) float64 {
	sum := 0.0
	for _, t := range ts {
		if t != nil {
			sum += -t.Score
		}
	}
	return sum
}

func TestSmergerCombinesCartesianProductInDecreasingScore(t *testing.T) {
	a := scoredSource("a", 3, 1)
	b := scoredSource("b", 4, 2)

	sm := New(
		[]StreamSource{
			{Source: a, Prefilter: docregion.NewTrivialPrefilter()},
			{Source: b, Prefilter: docregion.NewTrivialPrefilter()},
		},
		trivialMerger,
		negatedScoreEstimator,
		negatedScore,
		false,
		2,
		false,
	)

	var got []float64
	for {
		m, ok := sm.Next()
		if !ok {
			break
		}
		got = append(got, m.Score)
	}

	if len(got) != 4 {
		t.Fatalf("got %d merges, want 4 (2x2 cartesian product): %v", len(got), got)
	}
	for i := 1; i < len(got); i++ {
		if got[i] > got[i-1] {
			t.Fatalf("results not roughly decreasing: %v", got)
		}
	}
	if got[0] != 7 {
		t.Fatalf("best merge score = %v, want 7 (3+4)", got[0])
	}
}

func TestSmergerAllOrNothingFallsBackToTrivialWhenAStreamIsEmpty(t *testing.T) {
	empty := scoring.Build(extraction.Empty(), 1, nil)
	emptyOnly := &sliceSource{values: []*scoring.ScoredExtraction{&empty}}
	b := scoredSource("b", 5)

	sm := New(
		[]StreamSource{
			{Source: emptyOnly, Prefilter: docregion.NewTrivialPrefilter()},
			{Source: b, Prefilter: docregion.NewTrivialPrefilter()},
		},
		trivialMerger,
		negatedScoreEstimator,
		negatedScore,
		true,
		1,
		false,
	)

	m, ok := sm.Next()
	if !ok {
		t.Fatalf("expected a merge result")
	}
	if m.Score != 0 {
		t.Fatalf("got score %v, want 0 (both sides contribute only the empty extraction)", m.Score)
	}
	if m.Extraction.HasField("b") {
		t.Fatalf("field b should have been dropped by the all-or-nothing fallback: %v", m.Extraction)
	}
}

func TestSmergerDiscardsOverlappingFieldMerges(t *testing.T) {
	a := scoredSource("shared", 10)
	b := scoredSource("shared", 20)

	sm := New(
		[]StreamSource{
			{Source: a, Prefilter: docregion.NewTrivialPrefilter()},
			{Source: b, Prefilter: docregion.NewTrivialPrefilter()},
		},
		trivialMerger,
		negatedScoreEstimator,
		negatedScore,
		false,
		1,
		false,
	)

	if _, ok := sm.Next(); ok {
		t.Fatalf("expected no results: both streams assign field %q", "shared")
	}
}
