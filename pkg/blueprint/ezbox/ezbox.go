// Package ezbox provides a recursive axis-aligned spatial partition used to
// answer "what's contained in / intersecting this region" queries over
// entities placed in document space.
package ezbox

import (
	"fmt"

	"github.com/instabase/blueprint-go/pkg/blueprint/geometry"
)

// straddlerCap bounds the number of items a node holds before it splits.
const straddlerCap = 5

// defaultIdealRatio is the width:height ratio a node tries to approach when
// choosing its split axis.
const defaultIdealRatio = 20

// BBoxGetter extracts the bounding box associated with a T.
type BBoxGetter[T any] func(T) geometry.BBox

// EZBox is a generic recursive spatial partition over items of type T.
// Each node holds items too numerous for its own bucket ("straddlers")
// until it overflows, at which point it splits along whichever axis best
// approaches the ideal width:height ratio.
type EZBox[T any] struct {
	bbox        geometry.BBox
	bboxGetter  BBoxGetter[T]
	idealRatio  float64
	straddlers  []T
	children    [2]*EZBox[T]
	hasChildren bool
}

// New builds an empty EZBox covering bbox.
func New[T any](bbox geometry.BBox, getter BBoxGetter[T]) *EZBox[T] {
	return NewWithRatio(bbox, getter, defaultIdealRatio)
}

// NewWithRatio builds an empty EZBox with a custom ideal width:height ratio.
func NewWithRatio[T any](bbox geometry.BBox, getter BBoxGetter[T], idealRatio float64) *EZBox[T] {
	return &EZBox[T]{
		bbox:       bbox,
		bboxGetter: getter,
		idealRatio: idealRatio,
	}
}

func (e *EZBox[T]) String() string {
	return fmt.Sprintf("EZBox(%v, ratio=%v, straddlers=%d, children=%v)",
		e.bbox, e.idealRatio, len(e.straddlers), e.hasChildren)
}

// Insert adds t to the partition. It panics if t's bbox is not contained
// within the root bbox, mirroring the original's out-of-bounds ValueError.
func (e *EZBox[T]) Insert(t T) {
	b := e.bboxGetter(t)
	if !e.bbox.ContainsBBox(b) {
		panic(fmt.Sprintf("ezbox: attempted to insert out-of-bounds item %v into %v", t, e))
	}

	if e.hasChildren {
		for _, child := range e.children {
			if child.bbox.ContainsBBox(b) {
				child.Insert(t)
				return
			}
		}
		e.addStraddler(t)
		return
	}

	e.addStraddler(t)
	if len(e.straddlers) > straddlerCap {
		e.split()
	}
}

func (e *EZBox[T]) addStraddler(t T) {
	e.straddlers = append(e.straddlers, t)
}

// Ts yields every item stored in the partition.
func (e *EZBox[T]) Ts(yield func(T) bool) bool {
	for _, t := range e.straddlers {
		if !yield(t) {
			return false
		}
	}
	if e.hasChildren {
		for _, child := range e.children {
			if !child.Ts(yield) {
				return false
			}
		}
	}
	return true
}

// All collects every item into a slice (convenience over Ts).
func (e *EZBox[T]) All() []T {
	var out []T
	e.Ts(func(t T) bool { out = append(out, t); return true })
	return out
}

// TsContainedIn yields every item whose bbox is fully contained in bbox.
func (e *EZBox[T]) TsContainedIn(bbox geometry.BBox) []T {
	var out []T
	e.tsContainedIn(bbox, &out)
	return out
}

func (e *EZBox[T]) tsContainedIn(bbox_ geometry.BBox, out *[]T) {
	bbox, ok := geometry.BBoxIntersection([]geometry.BBox{bbox_, e.bbox})
	if !ok {
		return
	}
	for _, straddler := range e.straddlers {
		if bbox.ContainsBBox(e.bboxGetter(straddler)) {
			*out = append(*out, straddler)
		}
	}
	if e.hasChildren {
		for _, child := range e.children {
			child.tsContainedIn(bbox, out)
		}
	}
}

// TsIntersecting yields every item whose bbox intersects bbox.
func (e *EZBox[T]) TsIntersecting(bbox geometry.BBox) []T {
	var out []T
	e.tsIntersecting(bbox, &out)
	return out
}

func (e *EZBox[T]) tsIntersecting(bbox_ geometry.BBox, out *[]T) {
	bbox, ok := geometry.BBoxIntersection([]geometry.BBox{bbox_, e.bbox})
	if !ok {
		return
	}
	for _, straddler := range e.straddlers {
		if bbox.IntersectsBBox(e.bboxGetter(straddler)) {
			*out = append(*out, straddler)
		}
	}
	if e.hasChildren {
		for _, child := range e.children {
			child.tsIntersecting(bbox, out)
		}
	}
}

func (e *EZBox[T]) split() {
	if e.hasChildren {
		panic("ezbox: split called on node that already has children")
	}

	ts := e.straddlers
	e.straddlers = nil

	currentRatio := e.bbox.IX.Length() / e.bbox.IY.Length()
	vRatio := 0.5 * currentRatio
	hRatio := 2 * currentRatio

	vError := abs(1 - vRatio/e.idealRatio)
	hError := abs(1 - hRatio/e.idealRatio)

	if vError < hError {
		l, c, r := e.bbox.IX.A, e.bbox.IX.Center(), e.bbox.IX.B
		left := NewWithRatio(geometry.BBox{IX: geometry.Interval{A: l, B: c}, IY: e.bbox.IY}, e.bboxGetter, e.idealRatio)
		right := NewWithRatio(geometry.BBox{IX: geometry.Interval{A: c, B: r}, IY: e.bbox.IY}, e.bboxGetter, e.idealRatio)
		e.children = [2]*EZBox[T]{left, right}
	} else {
		u, c, l := e.bbox.IY.A, e.bbox.IY.Center(), e.bbox.IY.B
		upper := NewWithRatio(geometry.BBox{IX: e.bbox.IX, IY: geometry.Interval{A: u, B: c}}, e.bboxGetter, e.idealRatio)
		lower := NewWithRatio(geometry.BBox{IX: e.bbox.IX, IY: geometry.Interval{A: c, B: l}}, e.bboxGetter, e.idealRatio)
		e.children = [2]*EZBox[T]{upper, lower}
	}
	e.hasChildren = true

	for _, t := range ts {
		e.Insert(t)
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
