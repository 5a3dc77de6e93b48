package docregion

import (
	"github.com/instabase/blueprint-go/pkg/blueprint/document"
	"github.com/instabase/blueprint-go/pkg/blueprint/extraction"
	"github.com/instabase/blueprint-go/pkg/blueprint/formula"
	"github.com/instabase/blueprint-go/pkg/blueprint/scoring"
)

// Prefilter accumulates target extractions and, given a feeder extraction,
// yields the targets that could combine with it.
type Prefilter interface {
	Add(target *scoring.ScoredExtraction)
	Get(feeder *scoring.ScoredExtraction) []*scoring.ScoredExtraction
	Best() *scoring.ScoredExtraction
}

// DocRegionPrefilter narrows candidate targets to those whose field's
// doc-region is compatible with phi, using a spatial index over
// already-added targets so narrowing doesn't require scanning every one.
type DocRegionPrefilter struct {
	field    extraction.Field
	phi      formula.Formula
	document *document.Document

	index *document.EZDocRegion[*scoring.ScoredExtraction]
	nones []*scoring.ScoredExtraction
	best  *scoring.ScoredExtraction
}

// NewDocRegionPrefilter builds a prefilter for field, narrowing by phi
// (simplified and converted to DNF up front).
func NewDocRegionPrefilter(field extraction.Field, phi formula.Formula, doc *document.Document) *DocRegionPrefilter {
	p := &DocRegionPrefilter{
		field:    field,
		phi:      formula.DNF(formula.Simplify(phi)),
		document: doc,
	}
	p.index = document.NewEZDocRegion(func(se *scoring.ScoredExtraction) document.Region {
		ent, err := se.Extraction.Get(field)
		if err != nil {
			panic(err)
		}
		return document.NewRegion(doc, ent.BBox())
	})
	return p
}

// Add records target, indexing it by its field assignment's doc-region if
// it has one, or in a fallback list otherwise.
func (p *DocRegionPrefilter) Add(target *scoring.ScoredExtraction) {
	if p.best == nil || target.Less(*p.best) {
		p.best = target
	}
	if !target.Extraction.HasField(p.field) {
		p.nones = append(p.nones, target)
		return
	}
	p.index.Insert(target)
}

// Best returns the highest-scoring target added so far.
func (p *DocRegionPrefilter) Best() *scoring.ScoredExtraction { return p.best }

// Get returns the targets compatible with feeder: those whose field's
// doc-region satisfies phi given feeder's assignments, plus every target
// that never assigned field at all (which phi says nothing about).
func (p *DocRegionPrefilter) Get(feeder *scoring.ScoredExtraction) []*scoring.ScoredExtraction {
	out := p.getFromIndex(feeder)
	out = append(out, p.nones...)
	return out
}

func (p *DocRegionPrefilter) getFromIndex(feeder *scoring.ScoredExtraction) []*scoring.ScoredExtraction {
	result := GetDocRegionRestriction(p.field, feeder, p.phi, p.document)

	if result.AlwaysFalse() {
		return nil
	}
	if result.AlwaysTrue {
		return p.index.All()
	}

	seen := make(map[*scoring.ScoredExtraction]bool)
	var targets []*scoring.ScoredExtraction
	add := func(se *scoring.ScoredExtraction) {
		if !seen[se] {
			seen[se] = true
			targets = append(targets, se)
		}
	}

	for _, conj := range result.Restriction.Conjunctions {
		switch {
		case conj.Superset == nil:
			p.addFromIntersectionSets(conj.IntersectionSets, add)
		case conj.IntersectionSets == nil:
			for _, se := range p.index.TsContainedIn(*conj.Superset) {
				add(se)
			}
		default:
			p.addFromSupersetAndIntersections(*conj.Superset, conj.IntersectionSets, add)
		}
	}
	return targets
}

func (p *DocRegionPrefilter) addFromIntersectionSets(intersectionSets []document.Region, add func(*scoring.ScoredExtraction)) {
	if len(intersectionSets) == 0 {
		return
	}
	sets := make([]map[*scoring.ScoredExtraction]bool, len(intersectionSets))
	for i, is := range intersectionSets {
		m := make(map[*scoring.ScoredExtraction]bool)
		for _, se := range p.index.TsIntersecting(is) {
			m[se] = true
		}
		sets[i] = m
	}
	for se := range sets[0] {
		inAll := true
		for _, m := range sets[1:] {
			if !m[se] {
				inAll = false
				break
			}
		}
		if inAll {
			add(se)
		}
	}
}

func (p *DocRegionPrefilter) addFromSupersetAndIntersections(superset document.Region, intersectionSets []document.Region, add func(*scoring.ScoredExtraction)) {
	for _, se := range p.index.TsContainedIn(superset) {
		ent, err := se.Extraction.Get(p.field)
		if err != nil {
			panic(err)
		}
		candidate := document.NewRegion(p.document, ent.BBox())
		allIntersect := true
		for i := range intersectionSets {
			is := intersectionSets[i]
			if !is.Intersects(&candidate) {
				allIntersect = false
				break
			}
		}
		if allIntersect {
			add(se)
		}
	}
}

// TrivialPrefilter does no spatial narrowing: every target is considered
// compatible with every feeder.
type TrivialPrefilter struct {
	list []*scoring.ScoredExtraction
	best *scoring.ScoredExtraction
}

// NewTrivialPrefilter builds an empty TrivialPrefilter.
func NewTrivialPrefilter() *TrivialPrefilter { return &TrivialPrefilter{} }

func (p *TrivialPrefilter) Add(target *scoring.ScoredExtraction) {
	if p.best == nil || target.Less(*p.best) {
		p.best = target
	}
	p.list = append(p.list, target)
}

func (p *TrivialPrefilter) Best() *scoring.ScoredExtraction { return p.best }

func (p *TrivialPrefilter) Get(_ *scoring.ScoredExtraction) []*scoring.ScoredExtraction {
	return p.list
}

var (
	_ Prefilter = (*DocRegionPrefilter)(nil)
	_ Prefilter = (*TrivialPrefilter)(nil)
)
