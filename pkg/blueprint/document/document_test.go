package document

import (
	"testing"

	"github.com/instabase/blueprint-go/pkg/blueprint/entity"
	"github.com/instabase/blueprint-go/pkg/blueprint/geometry"
)

func box(x1, y1, x2, y2 float64) geometry.BBox {
	return geometry.BBox{IX: geometry.Interval{A: x1, B: x2}, IY: geometry.Interval{A: y1, B: y2}}
}

func TestMedianLineHeight(t *testing.T) {
	w1 := entity.Word{Bbox: box(0, 0, 1, 2), Text: "a"}   // height 2
	w2 := entity.Word{Bbox: box(2, 0, 3, 4), Text: "b"}   // height 4
	w3 := entity.Word{Bbox: box(4, 0, 5, 10), Text: "c"}  // height 10
	doc := FromEntities([]entity.Entity{&w1, &w2, &w3}, "doc")
	if got := doc.MedianLineHeight(); got != 4 {
		t.Fatalf("got %v want 4", got)
	}
}

func TestPagesAndPageContainment(t *testing.T) {
	p1 := entity.Page{Bbox: box(0, 0, 10, 10), PageNumber: 1}
	p2 := entity.Page{Bbox: box(0, 10, 10, 20), PageNumber: 2}
	w := entity.Word{Bbox: box(1, 11, 2, 12), Text: "x"}
	doc := FromEntities([]entity.Entity{&p1, &p2, &w}, "doc")

	if len(doc.Pages()) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(doc.Pages()))
	}
	got := GetPageContainingEntity(doc, &w)
	if got != &p2 {
		t.Fatalf("expected page 2 to contain word")
	}
}

func TestEZDocRegionInsertAndQuery(t *testing.T) {
	doc := FromEntities(nil, "doc")
	doc.Bbox = box(0, 0, 100, 100)
	type item struct {
		bbox geometry.BBox
	}
	idx := NewEZDocRegion[item](func(it item) Region { return NewRegion(doc, it.bbox) })
	idx.Insert(item{box(1, 1, 2, 2)})
	idx.Insert(item{box(50, 50, 51, 51)})

	got := idx.TsIntersecting(NewRegion(doc, box(0, 0, 10, 10)))
	if len(got) != 1 {
		t.Fatalf("expected 1 match, got %d", len(got))
	}
}
