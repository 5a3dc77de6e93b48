// Package extraction holds the Extraction data structure: an assignment
// from a set of fields to entities found in a document.
package extraction

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/instabase/blueprint-go/pkg/blueprint/entity"
)

// Field names a thing to be extracted, analogous to a variable name.
type Field = string

// ErrOverlappingFields is returned by Merge when two extractions being
// merged assign the same field.
var ErrOverlappingFields = errors.New("extraction: cannot merge extractions with overlapping fields")

// ErrUnrecognizedField is returned when indexing an extraction by a field
// it has no assignment for.
var ErrUnrecognizedField = errors.New("extraction: field not found")

// Point is a single (field, entity) assignment.
type Point struct {
	Field  Field
	Entity entity.Entity
}

func (p Point) String() string {
	text, _ := p.Entity.EntityText()
	return fmt.Sprintf("%s -> %s", p.Field, text)
}

// Extraction is an immutable set of field-to-entity assignments.
type Extraction struct {
	Assignments []Point

	dict map[Field]entity.Entity
}

// Empty is the extraction with no assignments.
func Empty() Extraction { return Extraction{} }

// New builds an Extraction from the given assignments.
func New(assignments []Point) Extraction {
	return Extraction{Assignments: assignments}
}

func (e *Extraction) ensureDict() map[Field]entity.Entity {
	if e.dict == nil {
		e.dict = make(map[Field]entity.Entity, len(e.Assignments))
		for _, p := range e.Assignments {
			e.dict[p.Field] = p.Entity
		}
	}
	return e.dict
}

// Fields returns the set of fields this extraction assigns.
func (e *Extraction) Fields() map[Field]bool {
	d := e.ensureDict()
	out := make(map[Field]bool, len(d))
	for f := range d {
		out[f] = true
	}
	return out
}

// FieldsSuperset reports whether e's fields are a superset of required.
func (e *Extraction) FieldsSuperset(required map[Field]bool) bool {
	d := e.ensureDict()
	for f := range required {
		if _, ok := d[f]; !ok {
			return false
		}
	}
	return true
}

// HasField reports whether field has an assignment in this extraction.
func (e *Extraction) HasField(field Field) bool {
	_, ok := e.ensureDict()[field]
	return ok
}

// IsEmpty reports whether this extraction has no assignments.
func (e *Extraction) IsEmpty() bool { return len(e.Assignments) == 0 }

// Get returns the entity assigned to field, or an error if absent.
func (e *Extraction) Get(field Field) (entity.Entity, error) {
	ent, ok := e.ensureDict()[field]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnrecognizedField, field)
	}
	return ent, nil
}

// Point returns the (field, entity) pair for field, or nil if unassigned.
func (e *Extraction) Point(field Field) *Point {
	ent, ok := e.ensureDict()[field]
	if !ok {
		return nil
	}
	return &Point{Field: field, Entity: ent}
}

// Points returns the extraction's points sorted by field name.
func (e *Extraction) Points() []Point {
	d := e.ensureDict()
	fields := make([]string, 0, len(d))
	for f := range d {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	out := make([]Point, len(fields))
	for i, f := range fields {
		out[i] = Point{Field: f, Entity: d[f]}
	}
	return out
}

// Merge combines several extractions into one. The inputs must not share
// any fields.
func Merge(extractions []Extraction) (Extraction, error) {
	seen := make(map[Field]bool)
	var all []Point
	for _, ext := range extractions {
		for _, p := range ext.Assignments {
			if seen[p.Field] {
				return Extraction{}, fmt.Errorf("%w: field %q appears twice", ErrOverlappingFields, p.Field)
			}
			seen[p.Field] = true
			all = append(all, p)
		}
	}
	return New(all), nil
}

func (e *Extraction) String() string {
	pts := e.Points()
	strs := make([]string, len(pts))
	for i, p := range pts {
		strs[i] = p.String()
	}
	return "[" + strings.Join(strs, ", ") + "]"
}
