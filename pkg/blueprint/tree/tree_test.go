package tree

import (
	"testing"

	"github.com/instabase/blueprint-go/pkg/blueprint/document"
	"github.com/instabase/blueprint-go/pkg/blueprint/entity"
	"github.com/instabase/blueprint-go/pkg/blueprint/extraction"
	"github.com/instabase/blueprint-go/pkg/blueprint/geometry"
	"github.com/instabase/blueprint-go/pkg/blueprint/rule"
)

func box(x0, y0, x1, y1 float64) geometry.BBox {
	return geometry.BBox{IX: geometry.Interval{A: x0, B: x1}, IY: geometry.Interval{A: y0, B: y1}}
}

func testDoc(entities ...entity.Entity) *document.Document {
	return document.FromEntities(entities, "test")
}

func TestExtractInfersFieldTypeFromTypePredicate(t *testing.T) {
	node, err := Extract([]rule.Rule{rule.Apply(rule.IsDate{}, "issued")}, nil)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	p, ok := node.(*PatternNode)
	if !ok {
		t.Fatalf("expected a *PatternNode, got %T", node)
	}
	if p.fields["issued"] != "Date" {
		t.Fatalf("expected issued to be inferred as Date, got %q", p.fields["issued"])
	}
}

func TestExtractRejectsFieldBoundToAllThreeTypePredicates(t *testing.T) {
	_, err := Extract([]rule.Rule{
		rule.Apply(rule.IsDate{}, "x"),
		rule.Apply(rule.IsDollarAmount{}, "x"),
		rule.Apply(rule.IsEntirePhrase{}, "x"),
	}, nil)
	if err == nil {
		t.Fatalf("expected an error for a field bound to all three type predicates")
	}
}

func TestCombineRejectsOverlappingFields(t *testing.T) {
	a := NewLeafNode("shared", "Word")
	b := NewLeafNode("shared", "Word")
	_, err := Combine([]Node{a, b}, false, nil)
	if err == nil {
		t.Fatalf("expected an OverlappingFieldsError")
	}
	if _, ok := err.(OverlappingFieldsError); !ok {
		t.Fatalf("expected OverlappingFieldsError, got %T: %v", err, err)
	}
}

func TestCombineYieldsOnlyDistinctAssignmentsViaAutoDisjointness(t *testing.T) {
	alice := &entity.Word{Bbox: box(0, 0, 1, 1), Text: "Alice"}
	bob := &entity.Word{Bbox: box(5, 5, 6, 6), Text: "Bob"}
	doc := testDoc(alice, bob)

	a := NewLeafNode("a", "Word")
	b := NewLeafNode("b", "Word")
	node, err := Combine([]Node{a, b}, false, nil)
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}

	bound := node.BindTo(doc)
	got, ok := bound.Next()
	if !ok {
		t.Fatalf("expected at least one merged extraction")
	}
	if !got.Extraction.HasField("a") || !got.Extraction.HasField("b") {
		t.Fatalf("expected both fields assigned in the best extraction: %v", got.Extraction)
	}
	ea, _ := got.Extraction.Get("a")
	eb, _ := got.Extraction.Get("b")
	if ea == eb {
		t.Fatalf("expected a and b to be assigned distinct entities, both got %v", ea)
	}
}

func TestPickBestYieldsOneOfTheAlternatives(t *testing.T) {
	poor := &entity.Word{Bbox: box(0, 0, 1, 1), Text: "lowscore"}
	docLow := testDoc(poor)
	docHigh := testDoc(&entity.Word{Bbox: box(0, 0, 1, 1), Text: "x"})

	// Two single-field alternatives on different fields, bound to the same
	// document; the pick-best's first result assigns one of their fields.
	layoutA := NewLeafNode("a", "Word")
	layoutB := NewLeafNode("b", "Word")
	node, err := PickBest([]Node{layoutA, layoutB})
	if err != nil {
		t.Fatalf("PickBest: %v", err)
	}
	_ = docLow
	bound := node.BindTo(docHigh)
	got, ok := bound.Next()
	if !ok {
		t.Fatalf("expected a result")
	}
	if !got.Extraction.HasField("a") && !got.Extraction.HasField("b") {
		t.Fatalf("expected one of the alternatives' fields in the top result: %v", got.Extraction)
	}
}

func TestPatternNodeOrderTreeDistributesDisjointnessRule(t *testing.T) {
	alice := &entity.Word{Bbox: box(0, 0, 1, 1), Text: "Alice"}
	bob := &entity.Word{Bbox: box(5, 5, 6, 6), Text: "Bob"}
	doc := testDoc(alice, bob)

	pattern := NewPatternNode(
		map[extraction.Field]string{"a": "Word", "b": "Word"},
		[]rule.Rule{rule.Apply(rule.AreDisjoint{}, "a", "b")},
	)

	bound := pattern.BindTo(doc)
	got, ok := bound.Next()
	if !ok {
		t.Fatalf("expected a result")
	}
	if !got.Extraction.HasField("a") || !got.Extraction.HasField("b") {
		t.Fatalf("expected both fields present: %v", got.Extraction)
	}
	ea, _ := got.Extraction.Get("a")
	eb, _ := got.Extraction.Get("b")
	if ea == eb {
		t.Fatalf("expected distinct entities for a and b, both got %v", ea)
	}
}

func TestPatternNodeDropsFieldsWithNoConnectingRules(t *testing.T) {
	// A field that no rule mentions never joins any component built from
	// the rule graph, so it is silently absent from the bound tree --
	// a faithfully-ported characteristic of the original algorithm.
	doc := testDoc(&entity.Word{Bbox: box(0, 0, 1, 1), Text: "solo"})
	pattern := NewPatternNode(map[extraction.Field]string{"lonely": "Word"}, nil)

	bound := pattern.BindTo(doc)
	if _, ok := bound.Next(); ok {
		t.Fatalf("expected no extractions for a field with no connecting rules")
	}
}
