// Package entity defines the tagged hierarchy of document entities --
// words, phrases, dates, tables, and so on -- that extraction rules match
// against. Entities are immutable once constructed and are compared by
// identity, matching the documents they came from.
package entity

import (
	"strconv"

	"github.com/instabase/blueprint-go/pkg/blueprint/geometry"
)

// Entity is implemented by every entity variant. Entities are compared
// and hashed by pointer identity: two structurally-identical entities
// built separately are considered distinct, mirroring the original
// engine's id()-based equality.
type Entity interface {
	BBox() geometry.BBox
	Type() string
	Width() float64
	Height() float64

	// Children yields the entity's direct sub-entities, i.e. the adjacent
	// nodes in a document's entity DAG. Must not call EntityWords.
	Children() []Entity

	// EntityText returns the entity's flattened text, if it has one.
	EntityText() (string, bool)
}

// EntityWords flattens an entity's descendants down to its leaf Words.
// If e is itself a Word, it yields only e.
func EntityWords(e Entity) []*Word {
	if w, ok := e.(*Word); ok {
		return []*Word{w}
	}
	var out []*Word
	for _, child := range e.Children() {
		out = append(out, EntityWords(child)...)
	}
	return out
}

func dims(b geometry.BBox) (w, h float64) { return b.Width(), b.Height() }

// Page is a region representing one page of a document, offset within the
// document's overall coordinate space.
type Page struct {
	Bbox       geometry.BBox
	PageNumber int
}

func (p *Page) BBox() geometry.BBox { return p.Bbox }
func (p *Page) Type() string        { return "Page" }
func (p *Page) Width() float64      { w, _ := dims(p.Bbox); return w }
func (p *Page) Height() float64     { _, h := dims(p.Bbox); return h }
func (p *Page) Children() []Entity  { return nil }
func (p *Page) EntityText() (string, bool) { return "", false }

// Word is a single OCR'd word, the leaf of every entity DAG.
type Word struct {
	Bbox geometry.BBox
	Text string
}

func (w *Word) BBox() geometry.BBox { return w.Bbox }
func (w *Word) Type() string        { return "Word" }
func (w *Word) Width() float64      { x, _ := dims(w.Bbox); return x }
func (w *Word) Height() float64     { _, y := dims(w.Bbox); return y }
func (w *Word) Children() []Entity  { return nil }
func (w *Word) EntityText() (string, bool) { return w.Text, true }

// Text is a sequence of one or more contiguous Words, such as a line.
type Text struct {
	Bbox             geometry.BBox
	TextStr          string
	Words            []Word
	MaximalityScore  *float64
	OCRScore         *float64
}

// TextFromWords builds a Text spanning the given words, joined by spaces.
func TextFromWords(words []Word, maximalityScore, ocrScore *float64) Text {
	boxes := make([]geometry.BBox, len(words))
	texts := make([]string, len(words))
	for i, w := range words {
		boxes[i] = w.Bbox
		texts[i] = w.Text
	}
	bbox, _ := geometry.BBoxUnion(boxes)
	joined := ""
	for i, t := range texts {
		if i > 0 {
			joined += " "
		}
		joined += t
	}
	return Text{Bbox: bbox, TextStr: joined, Words: words, MaximalityScore: maximalityScore, OCRScore: ocrScore}
}

func (t *Text) BBox() geometry.BBox { return t.Bbox }
func (t *Text) Type() string        { return "Text" }
func (t *Text) Width() float64      { x, _ := dims(t.Bbox); return x }
func (t *Text) Height() float64     { _, y := dims(t.Bbox); return y }
func (t *Text) Children() []Entity {
	out := make([]Entity, len(t.Words))
	for i := range t.Words {
		out[i] = &t.Words[i]
	}
	return out
}
func (t *Text) EntityText() (string, bool) { return t.TextStr, true }

// Cluster groups phrases (Texts) that belong together, such as a label
// and its detected value, or the lines of a multi-line field.
type Cluster struct {
	Bbox    geometry.BBox
	TextStr string
	Lines   []Text
	Label   *string
}

func ClusterFromPhrases(phrases []Text) Cluster {
	boxes := make([]geometry.BBox, len(phrases))
	joined := ""
	for i, p := range phrases {
		boxes[i] = p.Bbox
		if i > 0 {
			joined += "\n"
		}
		joined += p.TextStr
	}
	bbox, _ := geometry.BBoxUnion(boxes)
	return Cluster{Bbox: bbox, TextStr: joined, Lines: phrases}
}

func (c *Cluster) BBox() geometry.BBox { return c.Bbox }
func (c *Cluster) Type() string        { return "Cluster" }
func (c *Cluster) Width() float64      { x, _ := dims(c.Bbox); return x }
func (c *Cluster) Height() float64     { _, y := dims(c.Bbox); return y }
func (c *Cluster) Children() []Entity {
	out := make([]Entity, len(c.Lines))
	for i := range c.Lines {
		out[i] = &c.Lines[i]
	}
	return out
}
func (c *Cluster) EntityText() (string, bool) { return c.TextStr, true }

// Date is a recognized date value.
type Date struct {
	Bbox           geometry.BBox
	TextStr        string
	Words          []Word
	LikenessScore  *float64
}

func (d *Date) BBox() geometry.BBox { return d.Bbox }
func (d *Date) Type() string        { return "Date" }
func (d *Date) Width() float64      { x, _ := dims(d.Bbox); return x }
func (d *Date) Height() float64     { _, y := dims(d.Bbox); return y }
func (d *Date) Children() []Entity  { return wordsToEntities(d.Words) }
func (d *Date) EntityText() (string, bool) { return d.TextStr, true }

// DollarAmount is a recognized currency value.
type DollarAmount struct {
	Bbox          geometry.BBox
	TextStr       string
	Words         []Word
	Units         *string
	LikenessScore *float64
}

func (d *DollarAmount) BBox() geometry.BBox { return d.Bbox }
func (d *DollarAmount) Type() string        { return "DollarAmount" }
func (d *DollarAmount) Width() float64      { x, _ := dims(d.Bbox); return x }
func (d *DollarAmount) Height() float64     { _, y := dims(d.Bbox); return y }
func (d *DollarAmount) Children() []Entity  { return wordsToEntities(d.Words) }
func (d *DollarAmount) EntityText() (string, bool) { return d.TextStr, true }

// TableCell is a single cell of a Table, itself containing arbitrary entities.
type TableCell struct {
	Bbox    geometry.BBox
	Content []Entity
}

func (c *TableCell) BBox() geometry.BBox { return c.Bbox }
func (c *TableCell) Type() string        { return "TableCell" }
func (c *TableCell) Width() float64      { x, _ := dims(c.Bbox); return x }
func (c *TableCell) Height() float64     { _, y := dims(c.Bbox); return y }
func (c *TableCell) Children() []Entity  { return c.Content }
func (c *TableCell) EntityText() (string, bool) { return "", false }

// TableRow is a row of TableCells.
type TableRow struct {
	Bbox  geometry.BBox
	Cells []TableCell
}

func (r *TableRow) BBox() geometry.BBox { return r.Bbox }
func (r *TableRow) Type() string        { return "TableRow" }
func (r *TableRow) Width() float64      { x, _ := dims(r.Bbox); return x }
func (r *TableRow) Height() float64     { _, y := dims(r.Bbox); return y }
func (r *TableRow) Children() []Entity {
	out := make([]Entity, len(r.Cells))
	for i := range r.Cells {
		out[i] = &r.Cells[i]
	}
	return out
}
func (r *TableRow) EntityText() (string, bool) { return "", false }

// Table is a grid of TableRows.
type Table struct {
	Bbox geometry.BBox
	Rows []TableRow
}

func (tb *Table) BBox() geometry.BBox { return tb.Bbox }
func (tb *Table) Type() string        { return "Table" }
func (tb *Table) Width() float64      { x, _ := dims(tb.Bbox); return x }
func (tb *Table) Height() float64     { _, y := dims(tb.Bbox); return y }
func (tb *Table) Children() []Entity {
	out := make([]Entity, len(tb.Rows))
	for i := range tb.Rows {
		out[i] = &tb.Rows[i]
	}
	return out
}
func (tb *Table) EntityText() (string, bool) { return "", false }

// Number is a recognized floating-point numeric value.
type Number struct {
	Bbox  geometry.BBox
	Words []Word
	Value *float64
}

func (n *Number) BBox() geometry.BBox { return n.Bbox }
func (n *Number) Type() string        { return "Number" }
func (n *Number) Width() float64      { x, _ := dims(n.Bbox); return x }
func (n *Number) Height() float64     { _, y := dims(n.Bbox); return y }
func (n *Number) Children() []Entity  { return wordsToEntities(n.Words) }
func (n *Number) EntityText() (string, bool) {
	if n.Value == nil || *n.Value == 0 {
		return "", true
	}
	return strconv.FormatFloat(*n.Value, 'g', -1, 64), true
}

// Integer is a recognized integral value.
type Integer struct {
	Bbox  geometry.BBox
	Words []Word
	Value *int64
}

func (n *Integer) BBox() geometry.BBox { return n.Bbox }
func (n *Integer) Type() string        { return "Integer" }
func (n *Integer) Width() float64      { x, _ := dims(n.Bbox); return x }
func (n *Integer) Height() float64     { _, y := dims(n.Bbox); return y }
func (n *Integer) Children() []Entity  { return wordsToEntities(n.Words) }
func (n *Integer) EntityText() (string, bool) {
	if n.Value == nil || *n.Value == 0 {
		return "", true
	}
	return strconv.FormatInt(*n.Value, 10), true
}

// Time is a recognized time-of-day value, stored as seconds since midnight.
type Time struct {
	Bbox          geometry.BBox
	Words         []Word
	Value         *int64
	LikenessScore *float64
}

func (t *Time) BBox() geometry.BBox { return t.Bbox }
func (t *Time) Type() string        { return "Time" }
func (t *Time) Width() float64      { x, _ := dims(t.Bbox); return x }
func (t *Time) Height() float64     { _, y := dims(t.Bbox); return y }
func (t *Time) Children() []Entity  { return wordsToEntities(t.Words) }
func (t *Time) EntityText() (string, bool) {
	if t.Value == nil || *t.Value == 0 {
		return "", true
	}
	return strconv.FormatInt(*t.Value, 10), true
}

// PersonName is a recognized person's name, split into name parts.
type PersonName struct {
	Bbox          geometry.BBox
	TextStr       string
	NameParts     []Text
	LikenessScore *float64
}

func (p *PersonName) BBox() geometry.BBox { return p.Bbox }
func (p *PersonName) Type() string        { return "PersonName" }
func (p *PersonName) Width() float64      { x, _ := dims(p.Bbox); return x }
func (p *PersonName) Height() float64     { _, y := dims(p.Bbox); return y }
func (p *PersonName) Children() []Entity {
	out := make([]Entity, len(p.NameParts))
	for i := range p.NameParts {
		out[i] = &p.NameParts[i]
	}
	return out
}
func (p *PersonName) EntityText() (string, bool) { return p.TextStr, true }

// AddressPart is a (component, value) pair, e.g. ("city", "Springfield").
type AddressPart struct {
	Component string
	Value     string
}

// Address is a recognized mailing address, split into lines and semantic parts.
type Address struct {
	Bbox          geometry.BBox
	TextStr       string
	Lines         []Text
	AddressParts  []AddressPart
	LikenessScore *float64
}

func (a *Address) BBox() geometry.BBox { return a.Bbox }
func (a *Address) Type() string        { return "Address" }
func (a *Address) Width() float64      { x, _ := dims(a.Bbox); return x }
func (a *Address) Height() float64     { _, y := dims(a.Bbox); return y }
func (a *Address) Children() []Entity {
	out := make([]Entity, len(a.Lines))
	for i := range a.Lines {
		out[i] = &a.Lines[i]
	}
	return out
}
func (a *Address) EntityText() (string, bool) { return a.TextStr, true }

// NamedEntity is a generic labeled entity extracted by an external model
// (e.g. an NER system), with an optional normalized value.
type NamedEntity struct {
	Bbox    geometry.BBox
	TextStr string
	Words   []Word
	Value   *string
	Label   *string
}

func (n *NamedEntity) BBox() geometry.BBox { return n.Bbox }
func (n *NamedEntity) Type() string        { return "NamedEntity" }
func (n *NamedEntity) Width() float64      { x, _ := dims(n.Bbox); return x }
func (n *NamedEntity) Height() float64     { _, y := dims(n.Bbox); return y }
func (n *NamedEntity) Children() []Entity  { return wordsToEntities(n.Words) }
func (n *NamedEntity) EntityText() (string, bool) { return n.TextStr, true }

func wordsToEntities(words []Word) []Entity {
	out := make([]Entity, len(words))
	for i := range words {
		out[i] = &words[i]
	}
	return out
}
