package rule

import (
	"fmt"
	"sync"

	ahocorasick "github.com/coregx/ahocorasick"

	"github.com/instabase/blueprint-go/pkg/blueprint/document"
	"github.com/instabase/blueprint-go/pkg/blueprint/entity"
	"github.com/instabase/blueprint-go/pkg/blueprint/geometry"
)

const (
	impingementSmallInset = 0.25
	impingementLargeInset = 1.0
)

// Impingement tracks how much of a base interval is obstructed, as the
// weighted average of opacity over a set of disjoint subdivisions of the
// interval. Subdivisions start out fully transparent and only ever become
// more opaque as IncorporateSubdivision narrows or splits them.
type Impingement struct {
	base      geometry.Interval
	opacities map[geometry.Interval]float64
}

// NewImpingement builds an Impingement over base, which must be a valid
// non-empty interval.
func NewImpingement(base geometry.Interval) *Impingement {
	if !base.Valid() {
		panic(fmt.Sprintf("rule: impingement interval %v cannot be invalid", base))
	}
	if !base.NonEmpty() {
		panic(fmt.Sprintf("rule: impingement interval %v cannot be empty", base))
	}
	return &Impingement{base: base, opacities: map[geometry.Interval]float64{base: 0}}
}

// TotalImpingement returns the weighted average opacity over the base
// interval.
func (im *Impingement) TotalImpingement() float64 {
	total := 0.0
	for iv, opacity := range im.opacities {
		total += opacity * iv.Length()
	}
	return total / im.base.Length()
}

// IncorporateSubdivision marks iv as having newOpacity, overwriting the
// opacity of any existing subdivision iv intersects only where newOpacity
// exceeds what that subdivision already had.
func (im *Impingement) IncorporateSubdivision(iv geometry.Interval, newOpacity float64) {
	if newOpacity < 0 || newOpacity > 1 {
		panic(fmt.Sprintf("rule: subdivision opacity must be in [0,1], not %v", newOpacity))
	}
	if !iv.Valid() {
		panic(fmt.Sprintf("rule: subdivision %v cannot be invalid", iv))
	}
	if !iv.NonEmpty() {
		return
	}

	var intersecting []geometry.Interval
	for sub := range im.opacities {
		if iv.IntersectsInterval(sub) {
			intersecting = append(intersecting, sub)
		}
	}

	for _, sub := range intersecting {
		oldOpacity := im.opacities[sub]
		if newOpacity <= oldOpacity {
			continue
		}
		delete(im.opacities, sub)

		switch {
		// new: -----
		// old:  ---
		case iv.A <= sub.A && iv.B >= sub.B:
			im.opacities[geometry.Interval{A: sub.A, B: sub.B}] = newOpacity

		// ----
		//   ----
		case iv.A <= sub.A && iv.B < sub.B:
			im.opacities[geometry.Interval{A: sub.A, B: iv.B}] = newOpacity
			im.opacities[geometry.Interval{A: iv.B, B: sub.B}] = oldOpacity

		//   ----
		// ----
		case iv.A > sub.A && iv.B >= sub.B:
			im.opacities[geometry.Interval{A: sub.A, B: iv.A}] = oldOpacity
			im.opacities[geometry.Interval{A: iv.A, B: sub.B}] = newOpacity

		//  ---
		// -----
		default:
			im.opacities[geometry.Interval{A: sub.A, B: iv.A}] = oldOpacity
			im.opacities[geometry.Interval{A: iv.A, B: iv.B}] = newOpacity
			im.opacities[geometry.Interval{A: iv.B, B: sub.B}] = oldOpacity
		}
	}
}

func erodeIfPossible(iv geometry.Interval, amount float64) geometry.Interval {
	eroded, ok := iv.Eroded(amount)
	if !ok {
		return iv
	}
	return eroded
}

func projectionFor(direction Orientation, bbox geometry.BBox) geometry.Interval {
	if direction == OrientationVertical {
		return bbox.IX
	}
	return bbox.IY
}

// BoxUnimpinged says that a particular document region is not impinged
// upon: if direction is Vertical, that the box's column is unobstructed
// top-to-bottom; if Horizontal, that its row is unobstructed left-to-right.
type BoxUnimpinged struct {
	BasePredicate
	NameStr              string
	Direction            Orientation
	Degree_              int
	IllegalCharacters    string
	HasIllegalCharacters bool
	MaximumImpingement   float64
	DocRegionGetter      func(doc *document.Document, entities []entity.Entity) *document.Region

	acOnce sync.Once
	ac     ahocorasick.AhoCorasick
}

// NewBoxUnimpinged builds a BoxUnimpinged. getter defines the document
// region which should be unimpinged, in terms of the bound entities.
func NewBoxUnimpinged(
	name string,
	direction Orientation,
	degree int,
	illegalCharacters string,
	hasIllegalCharacters bool,
	maximumImpingement float64,
	getter func(doc *document.Document, entities []entity.Entity) *document.Region,
) *BoxUnimpinged {
	if degree < 1 {
		panic(fmt.Sprintf("rule: box_unimpinged degree must be at least 1, not %d", degree))
	}
	return &BoxUnimpinged{
		NameStr: name, Direction: direction, Degree_: degree,
		IllegalCharacters: illegalCharacters, HasIllegalCharacters: hasIllegalCharacters,
		MaximumImpingement: maximumImpingement, DocRegionGetter: getter,
	}
}

func (b *BoxUnimpinged) Name() string     { return b.NameStr }
func (b *BoxUnimpinged) Degree() int      { return b.Degree_ }
func (b *BoxUnimpinged) Leniency() float64 { return float64(LenienceLow) }

func (b *BoxUnimpinged) illegalCharsMatcher() ahocorasick.AhoCorasick {
	b.acOnce.Do(func() {
		patterns := make([]string, 0, len(b.IllegalCharacters))
		for _, c := range b.IllegalCharacters {
			patterns = append(patterns, string(c))
		}
		builder := ahocorasick.NewAhoCorasickBuilder(ahocorasick.Opts{
			AsciiCaseInsensitive: false,
			MatchOnlyWholeWords:  false,
			MatchKind:            ahocorasick.LeftMostLongestMatch,
		})
		b.ac = builder.Build(patterns)
	})
	return b.ac
}

func (b *BoxUnimpinged) getOpacity(text string, hasText bool) float64 {
	if !hasText || len(text) == 0 {
		return 0
	}
	if !b.HasIllegalCharacters {
		return 1
	}
	matches := b.illegalCharsMatcher().FindAll(text)
	return float64(len(matches)) / float64(len([]rune(text)))
}

func (b *BoxUnimpinged) Score(entities []entity.Entity, doc *document.Document) RuleScore {
	docRegion := b.DocRegionGetter(doc, entities)

	// An empty or invalid box is considered to be unimpinged.
	if docRegion == nil || !docRegion.Bbox.NonEmpty() {
		return AtomScore{1}
	}

	impingementInterval := NewImpingement(projectionFor(b.Direction, docRegion.Bbox))

	boxDefiningWords := make(map[*entity.Word]bool)
	for _, e := range entities {
		for _, w := range entity.EntityWords(e) {
			boxDefiningWords[w] = true
		}
	}

	for _, E := range doc.WordsIndex().TsIntersecting(docRegion.Bbox) {
		words := entity.EntityWords(E)
		if len(words) != 1 || boxDefiningWords[words[0]] {
			continue
		}
		eRegion := document.NewRegion(doc, E.BBox())
		text, hasText := E.EntityText()
		impingementInterval.IncorporateSubdivision(
			projectionFor(b.Direction, eRegion.Bbox), b.getOpacity(text, hasText))
	}

	total := impingementInterval.TotalImpingement()
	if total > b.MaximumImpingement {
		return AtomScore{0}
	}
	return AtomScore{1 - total}
}

func spaceBetweenVertically(e1, e2 entity.Entity, doc *document.Document, spanning bool) *document.Region {
	var ix geometry.Interval
	if spanning {
		ix = geometry.SpanningIntervals([]geometry.Interval{e1.BBox().IX, e2.BBox().IX})
	} else {
		inter, ok := geometry.IntersectionOf(e1.BBox().IX, e2.BBox().IX)
		if !ok {
			return nil
		}
		ix = inter
	}
	inset := impingementSmallInset * doc.MedianLineHeight()
	iy := geometry.Interval{A: e1.BBox().IY.B, B: e2.BBox().IY.A}
	bbox := geometry.BBox{IX: erodeIfPossible(ix, inset), IY: erodeIfPossible(iy, inset)}
	r := document.NewRegion(doc, bbox)
	return &r
}

func spaceBetweenHorizontally(e1, e2 entity.Entity, doc *document.Document, spanning bool) *document.Region {
	var iy geometry.Interval
	if spanning {
		iy = geometry.SpanningIntervals([]geometry.Interval{e1.BBox().IY, e2.BBox().IY})
	} else {
		inter, ok := geometry.IntersectionOf(e1.BBox().IY, e2.BBox().IY)
		if !ok {
			return nil
		}
		iy = inter
	}
	inset := impingementSmallInset * doc.MedianLineHeight()
	ix := geometry.Interval{A: e1.BBox().IX.B, B: e2.BBox().IX.A}
	bbox := geometry.BBox{IX: erodeIfPossible(ix, inset), IY: erodeIfPossible(iy, inset)}
	r := document.NewRegion(doc, bbox)
	return &r
}

func getPageForEdge(e entity.Entity, doc *document.Document) *entity.Page {
	pages := document.GetPages(e, doc)
	if len(pages) == 0 {
		return nil
	}
	// FIXME: when an entity spans multiple pages, this only checks
	// impingement against the first one.
	return pages[0]
}

func spaceBetweenTopEdge(doc *document.Document, e entity.Entity) *document.Region {
	page := getPageForEdge(e, doc)
	if page == nil {
		return nil
	}
	bbox := geometry.BBox{IX: e.BBox().IX, IY: geometry.Interval{A: page.BBox().IY.A, B: e.BBox().IY.A}}
	r := document.NewRegion(doc, bbox)
	return &r
}

func spaceBetweenBottomEdge(doc *document.Document, e entity.Entity) *document.Region {
	page := getPageForEdge(e, doc)
	if page == nil {
		return nil
	}
	bbox := geometry.BBox{IX: e.BBox().IX, IY: geometry.Interval{A: e.BBox().IY.B, B: page.BBox().IY.B}}
	r := document.NewRegion(doc, bbox)
	return &r
}

func spaceBetweenLeftEdge(doc *document.Document, e entity.Entity) *document.Region {
	page := getPageForEdge(e, doc)
	if page == nil {
		return nil
	}
	inset := impingementSmallInset * doc.MedianLineHeight()
	bbox := geometry.BBox{
		IX: geometry.Interval{A: page.BBox().IX.A, B: e.BBox().IX.A},
		IY: erodeIfPossible(e.BBox().IY, inset),
	}
	r := document.NewRegion(doc, bbox)
	return &r
}

func spaceBetweenRightEdge(doc *document.Document, e entity.Entity) *document.Region {
	page := getPageForEdge(e, doc)
	if page == nil {
		return nil
	}
	inset := impingementSmallInset * doc.MedianLineHeight()
	bbox := geometry.BBox{
		IX: geometry.Interval{A: e.BBox().IX.B, B: page.BBox().Width()},
		IY: erodeIfPossible(e.BBox().IY, inset),
	}
	r := document.NewRegion(doc, bbox)
	return &r
}

// NothingBetweenHorizontally says the horizontal space between two fields
// contains no text at all.
func NothingBetweenHorizontally(spanning bool, illegalCharacters string, hasIllegalCharacters bool, maximumImpingement float64) *BoxUnimpinged {
	return NewBoxUnimpinged(
		"nothing_between_horizontally", OrientationHorizontal, 2,
		illegalCharacters, hasIllegalCharacters, maximumImpingement,
		func(doc *document.Document, es []entity.Entity) *document.Region {
			return spaceBetweenHorizontally(es[0], es[1], doc, spanning)
		})
}

// NothingBetweenVertically says the vertical space between two fields
// contains no text at all.
func NothingBetweenVertically(spanning bool, illegalCharacters string, hasIllegalCharacters bool, maximumImpingement float64) *BoxUnimpinged {
	return NewBoxUnimpinged(
		"nothing_between_vertically", OrientationVertical, 2,
		illegalCharacters, hasIllegalCharacters, maximumImpingement,
		func(doc *document.Document, es []entity.Entity) *document.Region {
			return spaceBetweenVertically(es[0], es[1], doc, spanning)
		})
}

// lettersAlphabet is the illegal-character set used by NoWordsBetween*:
// any letter occupying the gap counts as impingement.
const lettersAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// NoWordsBetweenVertically says there are no words in the vertical space
// between two fields -- useful e.g. for a table column of numeric values
// under a heading, where digits and punctuation in the gap are fine but
// another label word is not.
func NoWordsBetweenVertically(spanning bool) *BoxUnimpinged {
	return NewBoxUnimpinged(
		"no_words_between_vertically", OrientationVertical, 2,
		lettersAlphabet, true, 0.5,
		func(doc *document.Document, es []entity.Entity) *document.Region {
			return spaceBetweenVertically(es[0], es[1], doc, spanning)
		})
}

// NoWordsBetweenHorizontally is NoWordsBetweenVertically's horizontal
// counterpart.
func NoWordsBetweenHorizontally(spanning bool) *BoxUnimpinged {
	return NewBoxUnimpinged(
		"no_words_between_horizontally", OrientationHorizontal, 2,
		lettersAlphabet, true, 0.5,
		func(doc *document.Document, es []entity.Entity) *document.Region {
			return spaceBetweenHorizontally(es[0], es[1], doc, spanning)
		})
}

// NothingBetweenLeftEdge says there is no text between a field and the
// left edge of its page.
func NothingBetweenLeftEdge() *BoxUnimpinged {
	return NewBoxUnimpinged(
		"nothing_between_left_edge", OrientationHorizontal, 1, "", false, 0.5,
		func(doc *document.Document, es []entity.Entity) *document.Region {
			return spaceBetweenLeftEdge(doc, es[0])
		})
}

// NothingBetweenRightEdge says there is no text between a field and the
// right edge of its page.
func NothingBetweenRightEdge() *BoxUnimpinged {
	return NewBoxUnimpinged(
		"nothing_between_right_edge", OrientationHorizontal, 1, "", false, 0.5,
		func(doc *document.Document, es []entity.Entity) *document.Region {
			return spaceBetweenRightEdge(doc, es[0])
		})
}

// NothingBetweenTopEdge says there is no text between a field and the top
// edge of its page.
func NothingBetweenTopEdge() *BoxUnimpinged {
	return NewBoxUnimpinged(
		"nothing_between_top_edge", OrientationVertical, 1, "", false, 0.5,
		func(doc *document.Document, es []entity.Entity) *document.Region {
			return spaceBetweenTopEdge(doc, es[0])
		})
}

// NothingBetweenBottomEdge says there is no text between a field and the
// bottom edge of its page.
func NothingBetweenBottomEdge() *BoxUnimpinged {
	return NewBoxUnimpinged(
		"nothing_between_bottom_edge", OrientationVertical, 1, "", false, 0.5,
		func(doc *document.Document, es []entity.Entity) *document.Region {
			return spaceBetweenBottomEdge(doc, es[0])
		})
}

var (
	NothingBetweenVerticallyDefault   = NothingBetweenVertically(false, "", false, 1.0)
	NothingBetweenHorizontallyDefault = NothingBetweenHorizontally(false, "", false, 1.0)
	NoWordsBetweenVerticallyDefault   = NoWordsBetweenVertically(false)
	NoWordsBetweenHorizontallyDefault = NoWordsBetweenHorizontally(false)

	NothingBetweenLeftEdgeDefault   = NothingBetweenLeftEdge()
	NothingBetweenRightEdgeDefault  = NothingBetweenRightEdge()
	NothingBetweenTopEdgeDefault    = NothingBetweenTopEdge()
	NothingBetweenBottomEdgeDefault = NothingBetweenBottomEdge()
)
