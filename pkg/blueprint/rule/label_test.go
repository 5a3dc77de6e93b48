package rule

import "testing"

func TestLeftToRightLabelValuePairIsDegreeTwo(t *testing.T) {
	p := LeftToRightLabelValuePair()
	if p.Degree() != 2 {
		t.Fatalf("expected degree 2, got %d", p.Degree())
	}
}

func TestTopDownLabelValuePairIsDegreeTwo(t *testing.T) {
	p := TopDownLabelValuePair()
	if p.Degree() != 2 {
		t.Fatalf("expected degree 2, got %d", p.Degree())
	}
}

func TestLabelValuePairsApplyAsAtoms(t *testing.T) {
	r := Apply(LeftToRightLabelValuePair(), "label", "value")
	fields := r.Fields()
	if len(fields) != 2 || fields[0] != "label" || fields[1] != "value" {
		t.Fatalf("unexpected fields: %v", fields)
	}
}
