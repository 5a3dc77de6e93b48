package geometry

import "testing"

func TestIntervalContainsInterval(t *testing.T) {
	outer := Interval{0, 10}
	inner := Interval{2, 8}
	if !outer.ContainsInterval(inner) {
		t.Fatalf("expected %v to contain %v", outer, inner)
	}
	if inner.ContainsInterval(outer) {
		t.Fatalf("did not expect %v to contain %v", inner, outer)
	}
}

func TestIntervalPercentagesOverlapping(t *testing.T) {
	self := Interval{0, 10}
	other := Interval{5, 15}
	got, ok := self.PercentagesOverlapping(other)
	if !ok {
		t.Fatal("expected overlap")
	}
	if got != (Interval{0.5, 1}) {
		t.Fatalf("got %v", got)
	}
}

func TestBBoxPercentagesOverlapping(t *testing.T) {
	box1 := BBox{Interval{1, 3}, Interval{2, 6}}
	box2 := BBox{Interval{0, 2}, Interval{3, 5}}
	got, ok := box1.PercentagesOverlapping(box2)
	if !ok {
		t.Fatal("expected overlap")
	}
	want := BBox{Interval{0, 0.5}, Interval{0.25, 0.75}}
	if got != want {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestBBoxUnion(t *testing.T) {
	b1 := BBox{Interval{0, 1}, Interval{0, 1}}
	b2 := BBox{Interval{2, 3}, Interval{2, 3}}
	got, ok := BBoxUnion([]BBox{b1, b2})
	if !ok {
		t.Fatal("expected union")
	}
	want := BBox{Interval{0, 3}, Interval{0, 3}}
	if got != want {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestIntervalSpanningPanicsOnEmpty(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic on empty spanning")
		}
	}()
	Spanning(nil)
}

func TestBBoxDistance(t *testing.T) {
	b1 := BBox{Interval{0, 1}, Interval{0, 1}}
	b2 := BBox{Interval{4, 5}, Interval{0, 1}}
	if got := BBoxDistance(b1, b2); got != 3 {
		t.Fatalf("got %v want 3", got)
	}
	// Overlapping boxes have zero gap distance.
	b3 := BBox{Interval{0.5, 1.5}, Interval{0, 1}}
	if got := BBoxDistance(b1, b3); got != 0 {
		t.Fatalf("got %v want 0", got)
	}
}
