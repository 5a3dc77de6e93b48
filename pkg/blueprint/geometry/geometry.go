// Package geometry provides the closed-interval and bounding-box value
// types that every spatial computation in the engine builds on.
package geometry

import "math"

// Interval is a closed interval [A, B] on the real line.
type Interval struct {
	A, B float64
}

// NewInterval builds an Interval, returning ok=false if a > b.
func NewInterval(a, b float64) (Interval, bool) {
	iv := Interval{a, b}
	return iv, iv.Valid()
}

func (iv Interval) Length() float64 { return iv.B - iv.A }
func (iv Interval) Center() float64 { return (iv.A + iv.B) / 2 }
func (iv Interval) Valid() bool     { return iv.A <= iv.B }
func (iv Interval) NonEmpty() bool  { return iv.Length() > 0 }

// Contains reports whether x falls within the closed interval.
func (iv Interval) Contains(x float64) bool { return iv.A <= x && x <= iv.B }

// ContainsInterval reports whether other lies entirely within iv.
func (iv Interval) ContainsInterval(other Interval) bool {
	return iv.A <= other.A && other.B <= iv.B
}

// IntersectsInterval reports whether iv and other overlap, including at endpoints.
func (iv Interval) IntersectsInterval(other Interval) bool {
	return !(iv.B < other.A || other.B < iv.A)
}

// PercentagesOverlapping returns the percentage range of iv that other
// overlaps, or ok=false if they do not intersect.
func (iv Interval) PercentagesOverlapping(other Interval) (Interval, bool) {
	inter, ok := IntersectionOf(iv, other)
	if !ok {
		return Interval{}, false
	}
	if iv.Length() == 0 {
		return Interval{0, 1}, true
	}
	return Interval{(inter.A - iv.A) / iv.Length(), (inter.B - iv.A) / iv.Length()}, true
}

// ContainsPercentageOf returns the fraction of other that lies within iv.
func (iv Interval) ContainsPercentageOf(other Interval) float64 {
	if other.Length() == 0 {
		if iv.Contains(other.A) {
			return 1
		}
		return 0
	}
	inter, ok := IntersectionOf(iv, other)
	if !ok {
		return 0
	}
	return inter.Length() / other.Length()
}

// Eroded shrinks iv by amount on each side, returning ok=false if the
// result is empty or invalid.
func (iv Interval) Eroded(amount float64) (Interval, bool) {
	result := Interval{iv.A + amount, iv.B - amount}
	return result, result.NonEmpty()
}

// Expanded grows iv by amount on each side.
func (iv Interval) Expanded(amount float64) Interval {
	return Interval{iv.A - amount, iv.B + amount}
}

// Spanning returns the smallest interval containing every value in xs.
// Panics if xs is empty: the spanning interval of no points is undefined.
func Spanning(xs []float64) Interval {
	if len(xs) == 0 {
		panic("geometry: cannot take the spanning interval of no points")
	}
	lo, hi := xs[0], xs[0]
	for _, x := range xs[1:] {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	return Interval{lo, hi}
}

// SpanningIntervals returns the smallest interval containing every endpoint
// of every interval in ivs.
func SpanningIntervals(ivs []Interval) Interval {
	xs := make([]float64, 0, len(ivs)*2)
	for _, iv := range ivs {
		xs = append(xs, iv.A, iv.B)
	}
	return Spanning(xs)
}

// Intersection returns the intersection of all given intervals, or
// ok=false if they don't all overlap. Panics on an empty input.
func Intersection(ivs []Interval) (Interval, bool) {
	if len(ivs) == 0 {
		panic("geometry: cannot take the intersection of no intervals")
	}
	lo, hi := ivs[0].A, ivs[0].B
	for _, iv := range ivs[1:] {
		if iv.A > lo {
			lo = iv.A
		}
		if iv.B < hi {
			hi = iv.B
		}
	}
	return NewInterval(lo, hi)
}

// IntersectionOf is a 2-argument convenience wrapper around Intersection.
func IntersectionOf(a, b Interval) (Interval, bool) {
	return Intersection([]Interval{a, b})
}

// Point is a location in document space.
type Point struct {
	X, Y float64
}

// Distance returns the Euclidean distance between two points.
func Distance(p1, p2 Point) float64 {
	dx, dy := p2.X-p1.X, p2.Y-p1.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// BBox is an axis-aligned bounding box, the product of two closed intervals.
type BBox struct {
	IX, IY Interval
}

func (b BBox) Center() Point  { return Point{b.IX.Center(), b.IY.Center()} }
func (b BBox) Width() float64 { return b.IX.Length() }
func (b BBox) Height() float64 { return b.IY.Length() }
func (b BBox) Area() float64  { return b.Width() * b.Height() }
func (b BBox) Valid() bool    { return b.IX.Valid() && b.IY.Valid() }
func (b BBox) NonEmpty() bool { return b.IX.NonEmpty() && b.IY.NonEmpty() }

// Contains reports whether point p lies within b.
func (b BBox) Contains(p Point) bool {
	return b.IX.Contains(p.X) && b.IY.Contains(p.Y)
}

// Corners returns the four corners of b: top-left, bottom-left,
// bottom-right, top-right (y grows downward).
func (b BBox) Corners() [4]Point {
	return [4]Point{
		{b.IX.A, b.IY.A},
		{b.IX.A, b.IY.B},
		{b.IX.B, b.IY.B},
		{b.IX.B, b.IY.A},
	}
}

func (b BBox) ContainsBBox(other BBox) bool {
	return b.IX.ContainsInterval(other.IX) && b.IY.ContainsInterval(other.IY)
}

func (b BBox) IntersectsBBox(other BBox) bool {
	return b.IX.IntersectsInterval(other.IX) && b.IY.IntersectsInterval(other.IY)
}

// PercentagesOverlapping returns the percentage box of b that other overlaps.
func (b BBox) PercentagesOverlapping(other BBox) (BBox, bool) {
	px, okx := b.IX.PercentagesOverlapping(other.IX)
	py, oky := b.IY.PercentagesOverlapping(other.IY)
	if !okx || !oky {
		return BBox{}, false
	}
	return BBox{px, py}, true
}

// PercentageContainedIn returns the fraction of b's area contained in other.
func (b BBox) PercentageContainedIn(other BBox) float64 {
	inter, ok := BBoxIntersection([]BBox{b, other})
	if !ok {
		return 0
	}
	return inter.Area() / b.Area()
}

// BBoxSpanning returns the smallest BBox containing all the given points.
func BBoxSpanning(ps []Point) (BBox, bool) {
	if len(ps) == 0 {
		return BBox{}, false
	}
	xs := make([]float64, len(ps))
	ys := make([]float64, len(ps))
	for i, p := range ps {
		xs[i], ys[i] = p.X, p.Y
	}
	return BBox{Spanning(xs), Spanning(ys)}, true
}

// BBoxIntersection returns the intersection of all given boxes.
func BBoxIntersection(bs []BBox) (BBox, bool) {
	if len(bs) == 0 {
		return BBox{}, false
	}
	ixs := make([]Interval, len(bs))
	iys := make([]Interval, len(bs))
	for i, b := range bs {
		ixs[i], iys[i] = b.IX, b.IY
	}
	ix, okx := Intersection(ixs)
	iy, oky := Intersection(iys)
	if !okx || !oky {
		return BBox{}, false
	}
	return BBox{ix, iy}, true
}

// BBoxUnion returns the smallest BBox containing all given boxes.
func BBoxUnion(bs []BBox) (BBox, bool) {
	pts := make([]Point, 0, len(bs)*4)
	for _, b := range bs {
		c := b.Corners()
		pts = append(pts, c[:]...)
	}
	return BBoxSpanning(pts)
}

// BBoxDistance returns the gap distance between two boxes (0 if they
// overlap or touch).
func BBoxDistance(b1, b2 BBox) float64 {
	ix := Interval{math.Min(b1.IX.A, b2.IX.A), math.Max(b1.IX.B, b2.IX.B)}
	iy := Interval{math.Min(b1.IY.A, b2.IY.A), math.Max(b1.IY.B, b2.IY.B)}
	innerWidth := math.Max(0, ix.Length()-b1.IX.Length()-b2.IX.Length())
	innerHeight := math.Max(0, iy.Length()-b1.IY.Length()-b2.IY.Length())
	return math.Sqrt(innerWidth*innerWidth + innerHeight*innerHeight)
}
