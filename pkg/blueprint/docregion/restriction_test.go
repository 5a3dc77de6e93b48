package docregion

import (
	"testing"

	"github.com/instabase/blueprint-go/pkg/blueprint/document"
	"github.com/instabase/blueprint-go/pkg/blueprint/entity"
	"github.com/instabase/blueprint-go/pkg/blueprint/extraction"
	"github.com/instabase/blueprint-go/pkg/blueprint/formula"
	"github.com/instabase/blueprint-go/pkg/blueprint/geometry"
	"github.com/instabase/blueprint-go/pkg/blueprint/scoring"
)

func box(x0, y0, x1, y1 float64) geometry.BBox {
	return geometry.BBox{IX: geometry.Interval{A: x0, B: x1}, IY: geometry.Interval{A: y0, B: y1}}
}

func wordEntity(bbox geometry.BBox, text string) *entity.Word {
	return &entity.Word{Bbox: bbox, Text: text}
}

func feederWith(field extraction.Field, e entity.Entity) *scoring.ScoredExtraction {
	ext := extraction.New([]extraction.Point{{Field: field, Entity: e}})
	return &scoring.ScoredExtraction{Extraction: ext, Score: 1}
}

func testDoc(entities ...entity.Entity) *document.Document {
	return document.FromEntities(entities, "doc")
}

func TestGetDocRegionRestrictionTrivialFormulas(t *testing.T) {
	doc := testDoc()
	feeder := &scoring.ScoredExtraction{Extraction: extraction.Empty()}

	res := GetDocRegionRestriction("target", feeder, formula.True{}, doc)
	if !res.AlwaysTrue {
		t.Fatalf("expected AlwaysTrue for formula.True")
	}

	res = GetDocRegionRestriction("target", feeder, formula.False{}, doc)
	if !res.AlwaysFalse() {
		t.Fatalf("expected AlwaysFalse for formula.False")
	}
}

func TestGetDocRegionRestrictionIntersectYieldsIntersectionSet(t *testing.T) {
	anchorWord := wordEntity(box(0, 0, 10, 10), "Anchor")
	doc := testDoc(anchorWord)
	feeder := feederWith("anchor", anchorWord)

	phi := formula.Intersect{Terms: []formula.DocRegionTerm{
		{FieldName: "target"},
		{FieldName: "anchor"},
	}}

	res := GetDocRegionRestriction("target", feeder, phi, doc)
	if res.AlwaysTrue || res.AlwaysFalse() {
		t.Fatalf("expected a concrete restriction, got AlwaysTrue=%v AlwaysFalse=%v", res.AlwaysTrue, res.AlwaysFalse())
	}
	if len(res.Restriction.Conjunctions) != 1 {
		t.Fatalf("got %d conjunctions, want 1", len(res.Restriction.Conjunctions))
	}
	conj := res.Restriction.Conjunctions[0]
	if conj.Superset != nil {
		t.Fatalf("expected no superset for a pure intersect restriction")
	}
	if len(conj.IntersectionSets) != 1 || conj.IntersectionSets[0].Bbox != box(0, 0, 10, 10) {
		t.Fatalf("expected intersection set to be anchor's bbox, got %+v", conj.IntersectionSets)
	}
}

func TestGetDocRegionRestrictionIntersectShortCircuitsWhenNonFieldTermAbsent(t *testing.T) {
	doc := testDoc()
	feeder := &scoring.ScoredExtraction{Extraction: extraction.Empty()}

	phi := formula.Intersect{Terms: []formula.DocRegionTerm{
		{FieldName: "target"},
		{FieldName: "missing"},
	}}

	res := GetDocRegionRestriction("target", feeder, phi, doc)
	if !res.AlwaysTrue {
		t.Fatalf("expected AlwaysTrue when the only non-field term is unassigned in the feeder")
	}
}

func TestGetDocRegionRestrictionIsContainedYieldsSuperset(t *testing.T) {
	anchorWord := wordEntity(box(0, 0, 20, 20), "Anchor")
	doc := testDoc(anchorWord)
	feeder := feederWith("anchor", anchorWord)

	phi := formula.IsContained{
		LHS: formula.DocRegionTerm{FieldName: "target"},
		RHS: formula.DocRegionTerm{FieldName: "anchor"},
	}

	res := GetDocRegionRestriction("target", feeder, phi, doc)
	if res.AlwaysTrue || res.AlwaysFalse() {
		t.Fatalf("expected a concrete restriction")
	}
	conj := res.Restriction.Conjunctions[0]
	if conj.Superset == nil || conj.Superset.Bbox != box(0, 0, 20, 20) {
		t.Fatalf("expected superset to be anchor's bbox, got %+v", conj.Superset)
	}
	if conj.IntersectionSets != nil {
		t.Fatalf("expected no intersection sets for a pure is-contained restriction")
	}
}

func TestGetDocRegionRestrictionIsContainedShortCircuitsWhenSideUnassigned(t *testing.T) {
	doc := testDoc()
	feeder := &scoring.ScoredExtraction{Extraction: extraction.Empty()}

	phi := formula.IsContained{
		LHS: formula.DocRegionTerm{FieldName: "target"},
		RHS: formula.DocRegionTerm{FieldName: "missing"},
	}

	res := GetDocRegionRestriction("target", feeder, phi, doc)
	if !res.AlwaysTrue {
		t.Fatalf("expected AlwaysTrue when is-contained's non-field side is unassigned")
	}
}

func TestGetDocRegionRestrictionDisjunctionShortCircuitsOnAlwaysTrueClause(t *testing.T) {
	doc := testDoc()
	feeder := &scoring.ScoredExtraction{Extraction: extraction.Empty()}

	phi := formula.Disjunction{Formulas: []formula.Formula{
		formula.False{},
		formula.True{},
	}}

	res := GetDocRegionRestriction("target", feeder, phi, doc)
	if !res.AlwaysTrue {
		t.Fatalf("expected AlwaysTrue when any disjunction clause is always true")
	}
}

func TestGetDocRegionRestrictionDisjunctionDropsAlwaysFalseClauses(t *testing.T) {
	anchorWord := wordEntity(box(0, 0, 10, 10), "Anchor")
	doc := testDoc(anchorWord)
	feeder := feederWith("anchor", anchorWord)

	concreteClause := formula.Intersect{Terms: []formula.DocRegionTerm{
		{FieldName: "target"},
		{FieldName: "anchor"},
	}}

	phi := formula.Disjunction{Formulas: []formula.Formula{
		formula.False{},
		concreteClause,
	}}

	res := GetDocRegionRestriction("target", feeder, phi, doc)
	if res.AlwaysTrue || res.AlwaysFalse() {
		t.Fatalf("expected exactly the one concrete clause to survive")
	}
	if len(res.Restriction.Conjunctions) != 1 {
		t.Fatalf("got %d conjunctions, want 1", len(res.Restriction.Conjunctions))
	}
}
