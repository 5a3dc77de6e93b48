// Package document holds a Document -- a bag of entities occupying a
// shared bounding box -- plus lazily-memoized spatial and statistical
// indexes over it (pages, median word height, a word spatial index).
package document

import (
	"sort"
	"sync"

	"github.com/instabase/blueprint-go/pkg/blueprint/entity"
	"github.com/instabase/blueprint-go/pkg/blueprint/ezbox"
	"github.com/instabase/blueprint-go/pkg/blueprint/geometry"
)

// Document is an immutable collection of entities sharing a coordinate
// space. Documents are compared by pointer identity.
type Document struct {
	Bbox     geometry.BBox
	Entities []entity.Entity
	Name     string

	once        sync.Once
	pages       []*entity.Page
	medianLine  float64
	wordIndex   *ezbox.EZBox[entity.Entity]
}

// FromEntities builds a Document whose bbox spans all given entities.
func FromEntities(entities []entity.Entity, name string) *Document {
	boxes := make([]geometry.BBox, len(entities))
	for i, e := range entities {
		boxes[i] = e.BBox()
	}
	bbox, ok := geometry.BBoxUnion(boxes)
	if !ok {
		bbox = geometry.BBox{}
	}
	return &Document{Bbox: bbox, Entities: entities, Name: name}
}

// WithEntities returns a new Document with additional entities added and
// its bbox recomputed to cover them.
func (d *Document) WithEntities(extra []entity.Entity) *Document {
	all := make([]entity.Entity, 0, len(d.Entities)+len(extra))
	all = append(all, d.Entities...)
	all = append(all, extra...)
	return FromEntities(all, d.Name)
}

// FilterEntities returns every entity for which pred returns true.
func (d *Document) FilterEntities(pred func(entity.Entity) bool) []entity.Entity {
	var out []entity.Entity
	for _, e := range d.Entities {
		if pred(e) {
			out = append(out, e)
		}
	}
	return out
}

func (d *Document) ensureDerived() {
	d.once.Do(func() {
		for _, e := range d.Entities {
			if p, ok := e.(*entity.Page); ok {
				d.pages = append(d.pages, p)
			}
		}

		var words []*entity.Word
		for _, e := range d.Entities {
			words = append(words, entity.EntityWords(e)...)
		}
		d.medianLine = medianWordHeight(words)

		buildDocRegion := func(e entity.Entity) geometry.BBox { return e.BBox() }
		idx := ezbox.New[entity.Entity](d.Bbox, buildDocRegion)
		for _, e := range d.Entities {
			if t, ok := e.(*entity.Text); ok && len(t.Words) == 1 {
				idx.Insert(e)
			}
		}
		d.wordIndex = idx
	})
}

// Pages returns every Page entity belonging to the document, in document order.
func (d *Document) Pages() []*entity.Page {
	d.ensureDerived()
	return d.pages
}

// MedianLineHeight returns the median height of the document's words, used
// to convert "native units" (multiples of a line) into document pixels.
func (d *Document) MedianLineHeight() float64 {
	d.ensureDerived()
	return d.medianLine
}

// WordsIndex returns the spatial index over single-word Text entities.
func (d *Document) WordsIndex() *ezbox.EZBox[entity.Entity] {
	d.ensureDerived()
	return d.wordIndex
}

func medianWordHeight(words []*entity.Word) float64 {
	if len(words) == 0 {
		return 0
	}
	heights := make([]float64, len(words))
	for i, w := range words {
		heights[i] = w.Height()
	}
	sort.Float64s(heights)
	n := len(heights)
	if n%2 == 0 {
		return 0.5 * (heights[n/2-1] + heights[n/2])
	}
	return heights[(n-1)/2]
}

// GetPages returns every page of document that e's bbox intersects.
func GetPages(e entity.Entity, doc *Document) []*entity.Page {
	var out []*entity.Page
	for _, p := range doc.Pages() {
		if p.BBox().IntersectsBBox(e.BBox()) {
			out = append(out, p)
		}
	}
	return out
}

// GetPageContainingEntity returns the page of doc that contains the
// greatest percentage of e's area.
func GetPageContainingEntity(doc *Document, e entity.Entity) *entity.Page {
	pages := doc.Pages()
	if len(pages) == 0 {
		return nil
	}
	best := pages[0]
	bestPct := e.BBox().PercentageContainedIn(best.BBox())
	for _, p := range pages[1:] {
		pct := e.BBox().PercentageContainedIn(p.BBox())
		if pct > bestPct {
			best, bestPct = p, pct
		}
	}
	return best
}

// Region is a bounding box on a particular document.
type Region struct {
	Document *Document
	Bbox     geometry.BBox
}

// NewRegion builds a Region. doc must be non-nil.
func NewRegion(doc *Document, bbox geometry.BBox) Region {
	return Region{Document: doc, Bbox: bbox}
}

// Contains reports whether r fully contains other. A nil other is
// vacuously contained.
func (r Region) Contains(other *Region) bool {
	if other == nil {
		return true
	}
	return r.Bbox.ContainsBBox(other.Bbox)
}

// Intersects reports whether r overlaps other. A nil other never intersects.
func (r Region) Intersects(other *Region) bool {
	if other == nil {
		return false
	}
	return r.Bbox.IntersectsBBox(other.Bbox)
}

// IntersectRegions returns the intersection of all given regions (which
// must share the same document), or ok=false if any is nil or they don't
// all overlap.
func IntersectRegions(regions []*Region) (Region, bool) {
	if len(regions) == 0 {
		return Region{}, false
	}
	boxes := make([]geometry.BBox, len(regions))
	for i, r := range regions {
		if r == nil {
			return Region{}, false
		}
		boxes[i] = r.Bbox
	}
	bbox, ok := geometry.BBoxIntersection(boxes)
	if !ok {
		return Region{}, false
	}
	return Region{Document: regions[0].Document, Bbox: bbox}, true
}

// EZDocRegion is a spatial index over items keyed by (Document, BBox) pairs.
type EZDocRegion[T any] struct {
	regionOf func(T) Region
	box      *ezbox.EZBox[T]
}

// NewEZDocRegion builds an empty index using regionOf to locate each item.
func NewEZDocRegion[T any](regionOf func(T) Region) *EZDocRegion[T] {
	return &EZDocRegion[T]{regionOf: regionOf}
}

// Insert adds t to the index, lazily rooting the underlying EZBox at t's
// document's bbox on first use.
func (idx *EZDocRegion[T]) Insert(t T) {
	r := idx.regionOf(t)
	if idx.box == nil {
		idx.box = ezbox.New[T](r.Document.Bbox, func(t T) geometry.BBox { return idx.regionOf(t).Bbox })
	}
	idx.box.Insert(t)
}

func (idx *EZDocRegion[T]) All() []T {
	if idx.box == nil {
		return nil
	}
	return idx.box.All()
}

func (idx *EZDocRegion[T]) TsContainedIn(r Region) []T {
	if idx.box == nil {
		return nil
	}
	return idx.box.TsContainedIn(r.Bbox)
}

func (idx *EZDocRegion[T]) TsIntersecting(r Region) []T {
	if idx.box == nil {
		return nil
	}
	return idx.box.TsIntersecting(r.Bbox)
}
