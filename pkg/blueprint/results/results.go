// Package results defines the on-disk report a run produces: the top
// scored extractions at every node of a bound tree, plus how long the run
// took.
package results

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/kelindar/binary"

	"github.com/instabase/blueprint-go/pkg/blueprint/boundtree"
	"github.com/instabase/blueprint-go/pkg/blueprint/extraction"
	"github.com/instabase/blueprint-go/pkg/blueprint/geometry"
	"github.com/instabase/blueprint-go/pkg/blueprint/scoring"
)

// topN is how many of a node's returned extractions are kept in its report.
const topN = 20

// ExtractionPoint is a single field assignment, flattened to the data a
// report needs to display it: no live Document reference is kept.
type ExtractionPoint struct {
	Field      extraction.Field `json:"field"`
	EntityType string           `json:"entity_type,omitempty"`
	Text       string           `json:"text,omitempty"`
	Bbox       geometry.BBox    `json:"bbox"`
	Assigned   bool             `json:"assigned"`
}

// ScoredExtraction is a flattened, document-independent view of a
// scoring.ScoredExtraction, suitable for serialization.
type ScoredExtraction struct {
	Points []ExtractionPoint `json:"points"`
	Score  float64           `json:"score"`
	Mass   float64           `json:"mass"`
}

func flattenExtraction(se *scoring.ScoredExtraction, fields map[extraction.Field]bool) ScoredExtraction {
	var names []extraction.Field
	for f := range fields {
		names = append(names, f)
	}
	sort.Strings(names)

	points := make([]ExtractionPoint, len(names))
	for i, f := range names {
		p := se.Extraction.Point(f)
		if p == nil {
			points[i] = ExtractionPoint{Field: f}
			continue
		}
		text, _ := p.Entity.EntityText()
		points[i] = ExtractionPoint{
			Field:      f,
			EntityType: p.Entity.Type(),
			Text:       text,
			Bbox:       p.Entity.BBox(),
			Assigned:   true,
		}
	}
	return ScoredExtraction{Points: points, Score: se.Score, Mass: se.Mass}
}

// ResultsNode is the serialized report for a single bound-tree node.
type ResultsNode struct {
	NodeUUID         string             `json:"node_uuid"`
	Top20Extractions []ScoredExtraction `json:"top_20_extractions"`
	TopScore         float64            `json:"top_score"`
	Fields           []string           `json:"fields"`
	ChildNodes       []*ResultsNode     `json:"child_nodes"`
}

// Step names a phase of a run, for timing purposes.
type Step string

const (
	StepTotal   Step = "total"
	StepBinding Step = "binding"
	StepPumping Step = "pumping"
)

// DocRuntimeInfo reports how long a run spent in each phase.
type DocRuntimeInfo struct {
	BindingMS *int64 `json:"binding_ms"`
	PumpingMS *int64 `json:"pumping_ms"`
	TotalMS   *int64 `json:"total_ms"`
	TimedOut  bool   `json:"timed_out"`
}

// Results is the full report for a run: its extraction tree (nil if the
// run timed out before producing a bound tree at all) plus runtime info.
type Results struct {
	Root        *ResultsNode   `json:"root"`
	RuntimeInfo DocRuntimeInfo `json:"runtime_info"`
}

// Validate checks internal consistency: every node's top score matches the
// score of its own best (first) extraction, recursively.
func Validate(r Results) error {
	if r.Root == nil {
		return nil
	}
	return validateNode(r.Root)
}

func validateNode(n *ResultsNode) error {
	if len(n.Top20Extractions) == 0 {
		return fmt.Errorf("results: node %s has no extractions", n.NodeUUID)
	}
	if n.Top20Extractions[0].Score != n.TopScore {
		return fmt.Errorf("results: node %s top score %v does not match its top extraction's score %v",
			n.NodeUUID, n.TopScore, n.Top20Extractions[0].Score)
	}
	for _, c := range n.ChildNodes {
		if err := validateNode(c); err != nil {
			return err
		}
	}
	return nil
}

// Generate builds a Results report from a bound tree's root (nil if the
// run never produced one, e.g. it timed out during binding) and the
// runtime info collected while running it.
func Generate(root boundtree.Node, runtimeInfo DocRuntimeInfo) (Results, error) {
	if root == nil {
		return Results{RuntimeInfo: runtimeInfo}, nil
	}
	node, err := generateNode(root)
	if err != nil {
		return Results{}, err
	}
	r := Results{Root: node, RuntimeInfo: runtimeInfo}
	if err := Validate(r); err != nil {
		return Results{}, err
	}
	return r, nil
}

func generateNode(n boundtree.Node) (*ResultsNode, error) {
	if n.BestExtraction() == nil {
		return nil, fmt.Errorf("results: node %s was never pumped for an extraction", n.UUID())
	}

	returned := append([]*scoring.ScoredExtraction(nil), n.ReturnedExtractions()...)
	sort.SliceStable(returned, func(i, j int) bool { return returned[i].Less(*returned[j]) })
	if len(returned) > topN {
		returned = returned[:topN]
	}

	legal := n.LegalFields()
	top := make([]ScoredExtraction, len(returned))
	for i, se := range returned {
		top[i] = flattenExtraction(se, legal)
	}

	fields := make([]string, 0, len(legal))
	for f := range legal {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	node := &ResultsNode{
		NodeUUID:         n.UUID(),
		Top20Extractions: top,
		TopScore:         n.BestExtraction().Score,
		Fields:           fields,
	}

	// A PatternNode's children are an internal rewrite artifact (the tree
	// orderTree built for this document); they don't correspond to
	// anything the caller named, so they're left out of the report.
	if _, isPattern := n.(*boundtree.PatternNode); !isPattern {
		for _, c := range n.ChildNodes() {
			child, err := generateNode(c)
			if err != nil {
				return nil, err
			}
			node.ChildNodes = append(node.ChildNodes, child)
		}
	}

	return node, nil
}

// SaveJSON writes r as indented JSON.
func SaveJSON(r Results) ([]byte, error) {
	if err := Validate(r); err != nil {
		return nil, err
	}
	return json.MarshalIndent(r, "", "  ")
}

// LoadJSON reads a Results report previously written by SaveJSON.
func LoadJSON(data []byte) (Results, error) {
	var r Results
	if err := json.Unmarshal(data, &r); err != nil {
		return Results{}, err
	}
	if err := Validate(r); err != nil {
		return Results{}, err
	}
	return r, nil
}

// SaveBinary encodes r in a compact binary form, for out-of-process
// reporting where JSON's size is a concern.
func SaveBinary(r Results) ([]byte, error) {
	if err := Validate(r); err != nil {
		return nil, err
	}
	return binary.Marshal(r)
}

// LoadBinary decodes a Results report previously written by SaveBinary.
func LoadBinary(data []byte) (Results, error) {
	var r Results
	if err := binary.Unmarshal(data, &r); err != nil {
		return Results{}, err
	}
	if err := Validate(r); err != nil {
		return Results{}, err
	}
	return r, nil
}
