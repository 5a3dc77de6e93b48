package formula

import (
	"reflect"
	"testing"
)

func TestSimplifyFlattensAndDropsTrivial(t *testing.T) {
	f := Conjunction{[]Formula{True{}, Conjunction{[]Formula{Intersect{[]DocRegionTerm{{FieldName: "a"}}}}}}}
	got := Simplify(f)
	lit, ok := got.(Intersect)
	if !ok || lit.Terms[0].FieldName != "a" {
		t.Fatalf("got %#v", got)
	}
}

func TestSimplifyConjunctionWithFalseIsFalse(t *testing.T) {
	f := Conjunction{[]Formula{True{}, False{}}}
	if _, ok := Simplify(f).(False); !ok {
		t.Fatalf("expected False, got %#v", Simplify(f))
	}
}

func TestIsRestrictorNakedTarget(t *testing.T) {
	lit := Intersect{[]DocRegionTerm{{FieldName: "x"}, {FieldName: "y"}}}
	fields := map[Field]bool{"y": true}
	if !IsRestrictor(lit, "x", fields) {
		t.Fatal("expected x to be a restrictor")
	}
	if IsRestrictor(lit, "z", fields) {
		t.Fatal("did not expect z to be a restrictor")
	}
}

func TestWeakenKeepsOnlyRestrictors(t *testing.T) {
	lit1 := Intersect{[]DocRegionTerm{{FieldName: "x"}, {FieldName: "y"}}}
	lit2 := Intersect{[]DocRegionTerm{{FieldName: "z"}, {FieldName: "y"}}}
	f := Conjunction{[]Formula{lit1, lit2}}
	fields := map[Field]bool{"y": true}

	got := Weaken(f, "x", fields)
	if !reflect.DeepEqual(got, Formula(lit1)) {
		t.Fatalf("got %#v", got)
	}
}

func TestRestrictivePowerCountsConjuncts(t *testing.T) {
	fields := map[Field]bool{"y": true}
	lit1 := Intersect{[]DocRegionTerm{{FieldName: "x"}, {FieldName: "y"}}}
	lit2 := Intersect{[]DocRegionTerm{{FieldName: "x"}, {FieldName: "y"}}}
	f := Conjunction{[]Formula{lit1, lit2}}
	if got := RestrictivePower(f, "x", fields); got != 2 {
		t.Fatalf("got %d want 2", got)
	}
}
