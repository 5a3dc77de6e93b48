package rule

import (
	"math"

	"github.com/instabase/blueprint-go/pkg/blueprint/document"
	"github.com/instabase/blueprint-go/pkg/blueprint/entity"
	"github.com/instabase/blueprint-go/pkg/blueprint/formula"
	"github.com/instabase/blueprint-go/pkg/blueprint/geometry"
)

func taperError(rawError, tolerance, taper float64) float64 {
	errv := math.Max(0.0, rawError-tolerance)
	if errv == 0.0 {
		return 1.0
	}
	if taper == 0.0 {
		return 0.0
	}
	return math.Abs(1.0 - math.Min(1.0, errv/taper))
}

func lengthInNativeUnits(lengthFromSchema float64, doc *document.Document) float64 {
	return lengthFromSchema * doc.MedianLineHeight()
}

// CountScore linearly interpolates a score for x from a map of known
// (count, score) pairs, clamping to the smallest/largest keys outside the
// map's range. Shared by PageNumberIs, LineCountIs, and WordCountIs.
func CountScore(scoreDict map[int]float64, x int) float64 {
	if len(scoreDict) == 0 {
		return 0
	}
	keys := make([]int, 0, len(scoreDict))
	for k := range scoreDict {
		keys = append(keys, k)
	}
	for i := 0; i < len(keys); i++ {
		for j := i + 1; j < len(keys); j++ {
			if keys[j] < keys[i] {
				keys[i], keys[j] = keys[j], keys[i]
			}
		}
	}
	if x <= keys[0] {
		return scoreDict[keys[0]]
	}
	if x >= keys[len(keys)-1] {
		return scoreDict[keys[len(keys)-1]]
	}
	for i := 0; i+1 < len(keys); i++ {
		lo, hi := keys[i], keys[i+1]
		if x >= lo && x <= hi {
			if lo == hi {
				return scoreDict[lo]
			}
			t := float64(x-lo) / float64(hi-lo)
			return scoreDict[lo] + t*(scoreDict[hi]-scoreDict[lo])
		}
	}
	return 0
}

// Direction describes a relative arrangement of two fields.
type Direction string

const (
	DirectionTopDown      Direction = "TOP_DOWN"
	DirectionLeftToRight  Direction = "LEFT_TO_RIGHT"
	DirectionBottomUp     Direction = "BOTTOM_UP"
	DirectionRightToLeft  Direction = "RIGHT_TO_LEFT"
)

// Reverse returns the opposite direction.
func (d Direction) Reverse() Direction {
	switch d {
	case DirectionLeftToRight:
		return DirectionRightToLeft
	case DirectionRightToLeft:
		return DirectionLeftToRight
	case DirectionTopDown:
		return DirectionBottomUp
	case DirectionBottomUp:
		return DirectionTopDown
	default:
		panic("rule: invalid direction " + string(d))
	}
}

// Orientation is horizontal or vertical.
type Orientation string

const (
	OrientationHorizontal Orientation = "HORIZONTAL"
	OrientationVertical   Orientation = "VERTICAL"
)

// AlignmentLine names which side or midline of a field's box to align.
type AlignmentLine string

const (
	AlignLeftSides          AlignmentLine = "LEFT_SIDES"
	AlignBottoms            AlignmentLine = "BOTTOMS"
	AlignHorizontalMidlines AlignmentLine = "HORIZONTAL_MIDLINES"
	AlignRightSides         AlignmentLine = "RIGHT_SIDES"
	AlignTops               AlignmentLine = "TOPS"
	AlignVerticalMidlines   AlignmentLine = "VERTICAL_MIDLINES"
)

// AreAligned scores how closely two fields line up along the given anchor.
type AreAligned struct {
	BasePredicate
	Anchors   AlignmentLine
	Tolerance float64
	Taper     float64
}

// NewAreAligned builds an AreAligned predicate. A negative taper defaults
// it to tolerance, matching the original's "taper defaults to tolerance".
func NewAreAligned(anchors AlignmentLine, tolerance, taper float64) *AreAligned {
	if taper < 0 {
		taper = tolerance
	}
	return &AreAligned{Anchors: anchors, Tolerance: tolerance, Taper: taper}
}

func (a *AreAligned) Name() string      { return "are_aligned" }
func (a *AreAligned) Degree() int       { return 2 }
func (a *AreAligned) Leniency() float64 { return float64(LenienceLow) }

func anchorValue(b geometry.BBox, anchor AlignmentLine) float64 {
	switch anchor {
	case AlignLeftSides:
		return b.IX.A
	case AlignRightSides:
		return b.IX.B
	case AlignBottoms:
		return b.IY.B
	case AlignTops:
		return b.IY.A
	case AlignHorizontalMidlines:
		return b.IY.Center()
	case AlignVerticalMidlines:
		return b.IX.Center()
	default:
		panic("rule: invalid alignment anchor " + string(anchor))
	}
}

func (a *AreAligned) Score(entities []entity.Entity, doc *document.Document) RuleScore {
	checkScoreDegree(entities, 2)
	b1, b2 := entities[0].BBox(), entities[1].BBox()
	r1, r2 := anchorValue(b1, a.Anchors), anchorValue(b2, a.Anchors)
	score := taperError(math.Abs(r1-r2),
		lengthInNativeUnits(a.Tolerance, doc),
		lengthInNativeUnits(a.Taper, doc))
	return AtomScore{score}
}

func (a *AreAligned) band(r document.Region) document.Region {
	radius := lengthInNativeUnits(a.Tolerance+a.Taper, r.Document)
	switch a.Anchors {
	case AlignLeftSides, AlignRightSides, AlignVerticalMidlines:
		var x0 float64
		switch a.Anchors {
		case AlignLeftSides:
			x0 = r.Bbox.IX.A
		case AlignRightSides:
			x0 = r.Bbox.IX.B
		default:
			x0 = r.Bbox.IX.Center()
		}
		bbox := geometry.BBox{IX: geometry.Interval{A: x0 - radius, B: x0 + radius}, IY: r.Document.Bbox.IY}
		return document.NewRegion(r.Document, bbox)
	default:
		var y0 float64
		switch a.Anchors {
		case AlignTops:
			y0 = r.Bbox.IY.A
		case AlignBottoms:
			y0 = r.Bbox.IY.B
		default:
			y0 = r.Bbox.IY.Center()
		}
		bbox := geometry.BBox{IX: r.Document.Bbox.IX, IY: geometry.Interval{A: y0 - radius, B: y0 + radius}}
		return document.NewRegion(r.Document, bbox)
	}
}

func regionTransform(f func(document.Region) document.Region) formula.Transformation {
	return func(region interface{}) interface{} {
		r, ok := region.(document.Region)
		if !ok {
			return region
		}
		return f(r)
	}
}

func (a *AreAligned) Phi(fields []Field) formula.Formula {
	checkPhiDegree(fields, 2)
	f1, f2 := fields[0], fields[1]
	return formula.Conjunction{Formulas: []formula.Formula{
		formula.Intersect{Terms: []formula.DocRegionTerm{
			{FieldName: f1, Transformation: regionTransform(a.band)},
			{FieldName: f2},
		}},
		formula.Intersect{Terms: []formula.DocRegionTerm{
			{FieldName: f2, Transformation: regionTransform(a.band)},
			{FieldName: f1},
		}},
	}}
}

// AreArranged scores whether two fields are arranged in the given
// direction, within an optional minimum/maximum distance band.
type AreArranged struct {
	BasePredicate
	Direction   Direction
	Taper       float64
	MinDistance float64
	MaxDistance *float64
}

func NewAreArranged(direction Direction, taper, minDistance float64, maxDistance *float64) *AreArranged {
	return &AreArranged{Direction: direction, Taper: taper, MinDistance: minDistance, MaxDistance: maxDistance}
}

func (a *AreArranged) Name() string      { return "are_arranged" }
func (a *AreArranged) Degree() int       { return 2 }
func (a *AreArranged) Leniency() float64 { return float64(LenienceHigh) }

func (a *AreArranged) scoreIntervalPrecedence(i1, i2 geometry.Interval, doc *document.Document) float64 {
	minI2A := i1.B + lengthInNativeUnits(a.MinDistance, doc)
	leftSideError := math.Max(0, minI2A-i2.A)

	rightSideError := 0.0
	if a.MaxDistance != nil {
		maxI2A := i1.B + lengthInNativeUnits(*a.MaxDistance, doc)
		rightSideError = math.Max(0, i2.A-maxI2A)
	}

	return taperError(math.Max(leftSideError, rightSideError), 0, lengthInNativeUnits(a.Taper, doc))
}

func (a *AreArranged) Score(entities []entity.Entity, doc *document.Document) RuleScore {
	checkScoreDegree(entities, 2)
	b1, b2 := entities[0].BBox(), entities[1].BBox()
	var i1, i2 geometry.Interval
	switch a.Direction {
	case DirectionLeftToRight:
		i1, i2 = b1.IX, b2.IX
	case DirectionRightToLeft:
		i1, i2 = b2.IX, b1.IX
	case DirectionTopDown:
		i1, i2 = b1.IY, b2.IY
	case DirectionBottomUp:
		i1, i2 = b2.IY, b1.IY
	}
	return AtomScore{a.scoreIntervalPrecedence(i1, i2, doc)}
}

func intervalOrNil(a, b float64) *geometry.Interval {
	if a > b {
		return nil
	}
	return &geometry.Interval{A: a, B: b}
}

func (a *AreArranged) containmentInterval(i, bounds geometry.Interval, doc *document.Document, reverse bool) *geometry.Interval {
	if reverse {
		return intervalOrNil(bounds.A, i.A-lengthInNativeUnits(a.MinDistance-a.Taper, doc))
	}
	return intervalOrNil(i.B+lengthInNativeUnits(a.MinDistance-a.Taper, doc), bounds.B)
}

func (a *AreArranged) intersectionInterval(i, bounds geometry.Interval, doc *document.Document, reverse bool) *geometry.Interval {
	if a.MaxDistance == nil {
		return nil
	}
	if reverse {
		return intervalOrNil(i.A-lengthInNativeUnits(*a.MaxDistance+a.Taper, doc), bounds.B)
	}
	return intervalOrNil(bounds.A, i.B+lengthInNativeUnits(*a.MaxDistance+a.Taper, doc))
}

func (a *AreArranged) containmentBand(r document.Region, direction Direction) *document.Region {
	d := r.Document
	switch direction {
	case DirectionLeftToRight:
		iv := a.containmentInterval(r.Bbox.IX, d.Bbox.IX, d, false)
		if iv == nil {
			return nil
		}
		out := document.NewRegion(d, geometry.BBox{IX: *iv, IY: d.Bbox.IY})
		return &out
	case DirectionRightToLeft:
		iv := a.containmentInterval(r.Bbox.IX, d.Bbox.IX, d, true)
		if iv == nil {
			return nil
		}
		out := document.NewRegion(d, geometry.BBox{IX: *iv, IY: d.Bbox.IY})
		return &out
	case DirectionTopDown:
		iv := a.containmentInterval(r.Bbox.IY, d.Bbox.IY, d, false)
		if iv == nil {
			return nil
		}
		out := document.NewRegion(d, geometry.BBox{IX: d.Bbox.IX, IY: *iv})
		return &out
	case DirectionBottomUp:
		iv := a.containmentInterval(r.Bbox.IY, d.Bbox.IY, d, true)
		if iv == nil {
			return nil
		}
		out := document.NewRegion(d, geometry.BBox{IX: d.Bbox.IX, IY: *iv})
		return &out
	default:
		panic("rule: invalid direction")
	}
}

func (a *AreArranged) intersectionBand(r document.Region, direction Direction) *document.Region {
	d := r.Document
	switch direction {
	case DirectionLeftToRight:
		iv := a.intersectionInterval(r.Bbox.IX, d.Bbox.IX, d, false)
		if iv == nil {
			return nil
		}
		out := document.NewRegion(d, geometry.BBox{IX: *iv, IY: d.Bbox.IY})
		return &out
	case DirectionRightToLeft:
		iv := a.intersectionInterval(r.Bbox.IX, d.Bbox.IX, d, true)
		if iv == nil {
			return nil
		}
		out := document.NewRegion(d, geometry.BBox{IX: *iv, IY: d.Bbox.IY})
		return &out
	case DirectionTopDown:
		iv := a.intersectionInterval(r.Bbox.IY, d.Bbox.IY, d, false)
		if iv == nil {
			return nil
		}
		out := document.NewRegion(d, geometry.BBox{IX: d.Bbox.IX, IY: *iv})
		return &out
	case DirectionBottomUp:
		iv := a.intersectionInterval(r.Bbox.IY, d.Bbox.IY, d, true)
		if iv == nil {
			return nil
		}
		out := document.NewRegion(d, geometry.BBox{IX: d.Bbox.IX, IY: *iv})
		return &out
	default:
		panic("rule: invalid direction")
	}
}

func optionalRegionTransform(f func(document.Region) *document.Region) formula.Transformation {
	return func(region interface{}) interface{} {
		r, ok := region.(document.Region)
		if !ok {
			return region
		}
		out := f(r)
		if out == nil {
			return nil
		}
		return *out
	}
}

func (a *AreArranged) Phi(fields []Field) formula.Formula {
	checkPhiDegree(fields, 2)
	i1, i2 := fields[0], fields[1]

	minDistanceFormula := formula.Conjunction{Formulas: []formula.Formula{
		formula.IsContained{
			LHS: formula.DocRegionTerm{FieldName: i2},
			RHS: formula.DocRegionTerm{FieldName: i1, Transformation: optionalRegionTransform(func(r document.Region) *document.Region {
				return a.containmentBand(r, a.Direction)
			})},
		},
		formula.IsContained{
			LHS: formula.DocRegionTerm{FieldName: i1},
			RHS: formula.DocRegionTerm{FieldName: i2, Transformation: optionalRegionTransform(func(r document.Region) *document.Region {
				return a.containmentBand(r, a.Direction.Reverse())
			})},
		},
	}}

	var maxDistanceFormula formula.Formula = formula.True{}
	if a.MaxDistance != nil {
		maxDistanceFormula = formula.Conjunction{Formulas: []formula.Formula{
			formula.Intersect{Terms: []formula.DocRegionTerm{
				{FieldName: i2},
				{FieldName: i1, Transformation: optionalRegionTransform(func(r document.Region) *document.Region {
					return a.intersectionBand(r, a.Direction)
				})},
			}},
			formula.Intersect{Terms: []formula.DocRegionTerm{
				{FieldName: i1},
				{FieldName: i2, Transformation: optionalRegionTransform(func(r document.Region) *document.Region {
					return a.intersectionBand(r, a.Direction.Reverse())
				})},
			}},
		}}
	}

	return formula.Simplify(formula.Conjunction{Formulas: []formula.Formula{minDistanceFormula, maxDistanceFormula}})
}

// IsInRegion scores the fraction of a field's bounding box contained in a
// given percentage-of-document (or percentage-of-page) region.
type IsInRegion struct {
	BasePredicate
	XRange      *[2]float64
	YRange      *[2]float64
	LimitToPage bool
}

func NewIsInRegion(xRange, yRange *[2]float64, limitToPage bool) *IsInRegion {
	return &IsInRegion{XRange: xRange, YRange: yRange, LimitToPage: limitToPage}
}

func (r *IsInRegion) Name() string { return "is_in_region" }
func (r *IsInRegion) Degree() int  { return 1 }

func (r *IsInRegion) Score(entities []entity.Entity, doc *document.Document) RuleScore {
	checkScoreDegree(entities, 1)
	e := entities[0]

	var docBbox geometry.BBox
	if r.LimitToPage {
		page := document.GetPageContainingEntity(doc, e)
		if page == nil {
			return AtomScore{0}
		}
		docBbox = page.BBox()
	} else {
		docBbox = doc.Bbox
	}

	xPct, yPct := 1.0, 1.0
	if r.XRange != nil {
		ix := docBbox.IX
		legal := geometry.Interval{
			A: ix.A + r.XRange[0]*ix.Length(),
			B: ix.B - (1-r.XRange[1])*ix.Length(),
		}
		xPct = legal.ContainsPercentageOf(e.BBox().IX)
	}
	if r.YRange != nil {
		iy := docBbox.IY
		legal := geometry.Interval{
			A: iy.A + r.YRange[0]*iy.Length(),
			B: iy.B - (1-r.YRange[1])*iy.Length(),
		}
		yPct = legal.ContainsPercentageOf(e.BBox().IY)
	}

	return AtomScore{xPct * yPct}
}

// IsInDocRegion builds an IsInRegion over the whole document.
func IsInDocRegion(xRange, yRange *[2]float64) Predicate {
	return NewIsInRegion(xRange, yRange, false)
}

// IsInPageRegion builds an IsInRegion limited to the field's page.
func IsInPageRegion(xRange, yRange *[2]float64) Predicate {
	return NewIsInRegion(xRange, yRange, true)
}

// PageNumberIs scores a field by which page number it falls on, linearly
// interpolating between the given scoreDict's known page numbers.
type PageNumberIs struct {
	BasePredicate
	ScoreDict map[int]float64
}

func NewPageNumberIs(scoreDict map[int]float64) *PageNumberIs {
	return &PageNumberIs{ScoreDict: scoreDict}
}

func (p *PageNumberIs) Name() string { return "page_number_is" }
func (p *PageNumberIs) Degree() int  { return 1 }

func (p *PageNumberIs) Score(entities []entity.Entity, doc *document.Document) RuleScore {
	checkScoreDegree(entities, 1)
	pages := document.GetPages(entities[0], doc)
	best := 0.0
	for i, pg := range pages {
		s := CountScore(p.ScoreDict, pg.PageNumber)
		if i == 0 || s > best {
			best = s
		}
	}
	return AtomScore{best}
}

// AreOnSamePage scores how close two fields' pages are, tapering as the
// page distance between them grows past tolerance.
type AreOnSamePage struct {
	BasePredicate
	Tolerance int
	Taper     int
}

func NewAreOnSamePage(tolerance, taper int) *AreOnSamePage {
	return &AreOnSamePage{Tolerance: tolerance, Taper: taper}
}

func (a *AreOnSamePage) Name() string { return "are_on_same_page" }
func (a *AreOnSamePage) Degree() int  { return 2 }

func minMaxPageNumbers(pages []*entity.Page) (min, max int) {
	min, max = pages[0].PageNumber, pages[0].PageNumber
	for _, p := range pages[1:] {
		if p.PageNumber < min {
			min = p.PageNumber
		}
		if p.PageNumber > max {
			max = p.PageNumber
		}
	}
	return
}

func (a *AreOnSamePage) Score(entities []entity.Entity, doc *document.Document) RuleScore {
	checkScoreDegree(entities, 2)
	pages1 := document.GetPages(entities[0], doc)
	pages2 := document.GetPages(entities[1], doc)
	min1, max1 := minMaxPageNumbers(pages1)
	min2, max2 := minMaxPageNumbers(pages2)

	var errv int
	if min1 >= max2 {
		errv = min1 - max2
	} else {
		errv = min2 - max1
	}
	score := taperError(float64(errv), float64(a.Tolerance), float64(a.Taper+1))
	return AtomScore{score}
}

// Convenience constructors matching the original's defaulted subclasses.

func BottomAligned(tolerance, taper float64) *AreAligned {
	return NewAreAligned(AlignBottoms, tolerance, taper)
}

func LeftAligned(tolerance, taper float64) *AreAligned {
	return NewAreAligned(AlignLeftSides, tolerance, taper)
}

func RightAligned(tolerance, taper float64) *AreAligned {
	return NewAreAligned(AlignRightSides, tolerance, taper)
}

func LeftToRight(taper, minDistance float64, maxDistance *float64) *AreArranged {
	return NewAreArranged(DirectionLeftToRight, taper, minDistance, maxDistance)
}

func TopDown(taper, minDistance float64, maxDistance *float64) *AreArranged {
	return NewAreArranged(DirectionTopDown, taper, minDistance, maxDistance)
}

// OneLineAbove says the first field is one logical line above the second.
func OneLineAbove() *AreArranged {
	maxd := 0.5
	return NewAreArranged(DirectionTopDown, 0.5, 0, &maxd)
}

// OneToTwoLinesAbove says the first field is one-to-two logical lines
// above the second.
func OneToTwoLinesAbove() *AreArranged {
	maxd := 1.5
	return NewAreArranged(DirectionTopDown, 0.5, 0, &maxd)
}

// LeftAlignedAll builds a conjunction of pairwise left-alignment across
// three or more fields.
func LeftAlignedAll(fields ...Field) Rule {
	return BuildConjunction(fields, func() Predicate { return LeftAligned(1, 1) })
}

// BottomAlignedAll builds a conjunction of pairwise bottom-alignment.
func BottomAlignedAll(fields ...Field) Rule {
	return BuildConjunction(fields, func() Predicate { return BottomAligned(0.5, 0.5) })
}

// RightAlignedAll builds a conjunction of pairwise right-alignment.
func RightAlignedAll(fields ...Field) Rule {
	return BuildConjunction(fields, func() Predicate { return RightAligned(1, 1) })
}

// TopDownAll builds a conjunction of pairwise top-down arrangement.
func TopDownAll(fields ...Field) Rule {
	return BuildConjunction(fields, func() Predicate { return TopDown(0.5, 0, nil) })
}

// LeftToRightAll builds a conjunction of pairwise left-to-right arrangement.
func LeftToRightAll(fields ...Field) Rule {
	return BuildConjunction(fields, func() Predicate { return LeftToRight(0.5, 0, nil) })
}
