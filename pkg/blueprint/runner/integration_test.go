package runner

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/instabase/blueprint-go/pkg/blueprint/config"
	"github.com/instabase/blueprint-go/pkg/blueprint/document"
	"github.com/instabase/blueprint-go/pkg/blueprint/entity"
	"github.com/instabase/blueprint-go/pkg/blueprint/rule"
	"github.com/instabase/blueprint-go/pkg/blueprint/tree"
)

// These tests exercise full document -> tree -> Run -> report pipelines
// for the scenarios laid out for this extraction engine, rather than any
// single component in isolation.

func singleton(x0, y0, x1, y1 float64, text string) *entity.Text {
	t := entity.TextFromWords([]entity.Word{{Bbox: box(x0, y0, x1, y1), Text: text}}, nil, nil)
	return &t
}

func TestIntegrationRowOfThreeWordsLeftToRight(t *testing.T) {
	apple := singleton(0, 0, 40, 10, "Apple")
	orange := singleton(60, 0, 100, 10, "Orange")
	banana := singleton(130, 0, 170, 10, "Banana")
	doc := document.FromEntities([]entity.Entity{apple, orange, banana}, "row")

	maxDist := 10.0
	rules := []rule.Rule{
		rule.Apply(rule.NewAreArranged(rule.DirectionLeftToRight, 1, 0, &maxDist), "apple", "orange"),
		rule.Apply(rule.NewAreArranged(rule.DirectionLeftToRight, 1, 0, &maxDist), "orange", "banana"),
		rule.Apply(rule.TextEqualsOne("Apple", 0, 0, 0), "apple"),
		rule.Apply(rule.TextEqualsOne("Orange", 0, 0, 0), "orange"),
		rule.Apply(rule.TextEqualsOne("Banana", 0, 0, 0), "banana"),
	}
	node := tree.NewPatternNode(map[string]string{"apple": "Text", "orange": "Text", "banana": "Text"}, rules)

	r, err := Run(context.Background(), doc, node, config.Config{NumSamples: 1})
	require.NoError(t, err)
	require.NotNil(t, r.Root)
	require.NotEmpty(t, r.Root.Top20Extractions)

	best := r.Root.Top20Extractions[0]
	got := map[string]string{}
	for _, p := range best.Points {
		if p.Assigned {
			got[p.Field] = p.Text
		}
	}
	assert.Equal(t, map[string]string{"apple": "Apple", "orange": "Orange", "banana": "Banana"}, got)
}

func TestIntegrationRowOfThreeWordsTopDownYieldsEmpty(t *testing.T) {
	apple := singleton(0, 0, 40, 10, "Apple")
	orange := singleton(60, 0, 100, 10, "Orange")
	banana := singleton(130, 0, 170, 10, "Banana")
	doc := document.FromEntities([]entity.Entity{apple, orange, banana}, "row")

	rules := []rule.Rule{
		rule.Apply(rule.NewAreArranged(rule.DirectionTopDown, 1, 0, nil), "apple", "orange"),
		rule.Apply(rule.NewAreArranged(rule.DirectionTopDown, 1, 0, nil), "orange", "banana"),
	}
	node := tree.NewPatternNode(map[string]string{"apple": "Text", "orange": "Text", "banana": "Text"}, rules)

	r, err := Run(context.Background(), doc, node, config.Config{NumSamples: 1})
	require.NoError(t, err)
	require.NotNil(t, r.Root)
	require.NotEmpty(t, r.Root.Top20Extractions)

	best := r.Root.Top20Extractions[0]
	for _, p := range best.Points {
		assert.Falsef(t, p.Assigned, "field %q unexpectedly assigned in a row that can't satisfy top_down", p.Field)
	}
}

func TestIntegrationTable(t *testing.T) {
	// Two rows of three columns, all three columns sharing X ranges across
	// rows so top_down/left_aligned hold trivially between them.
	r1c1 := singleton(0, 0, 40, 10, "Apple")
	r1c2 := singleton(60, 0, 100, 10, "Orange")
	r1c3 := singleton(130, 0, 170, 10, "Banana")
	r2c1 := singleton(0, 20, 40, 30, "Peach")
	r2c2 := singleton(60, 20, 100, 30, "Cherry")
	r2c3 := singleton(130, 20, 170, 30, "Mango")
	doc := document.FromEntities([]entity.Entity{r1c1, r1c2, r1c3, r2c1, r2c2, r2c3}, "table")

	ltr := func(a, b string) rule.Rule { return rule.Apply(rule.NewAreArranged(rule.DirectionLeftToRight, 1, 0, nil), a, b) }
	topDown := func(a, b string) rule.Rule { return rule.Apply(rule.NewAreArranged(rule.DirectionTopDown, 1, 0, nil), a, b) }
	bottomAligned := func(a, b string) rule.Rule { return rule.Apply(rule.NewAreAligned(rule.AlignBottoms, 0.5, 0.5), a, b) }
	leftAligned := func(a, b string) rule.Rule { return rule.Apply(rule.NewAreAligned(rule.AlignLeftSides, 0.5, 0.5), a, b) }
	textIs := func(field, text string) rule.Rule { return rule.Apply(rule.TextEqualsOne(text, 0, 0, 0), field) }

	rules := []rule.Rule{
		// row layout
		ltr("r1c1", "r1c2"), ltr("r1c2", "r1c3"),
		ltr("r2c1", "r2c2"), ltr("r2c2", "r2c3"),
		bottomAligned("r1c1", "r1c2"), bottomAligned("r1c2", "r1c3"),
		bottomAligned("r2c1", "r2c2"), bottomAligned("r2c2", "r2c3"),
		// column layout
		topDown("r1c1", "r2c1"), topDown("r1c2", "r2c2"), topDown("r1c3", "r2c3"),
		leftAligned("r1c1", "r2c1"), leftAligned("r1c2", "r2c2"), leftAligned("r1c3", "r2c3"),
		// cell identity
		textIs("r1c1", "Apple"), textIs("r1c2", "Orange"), textIs("r1c3", "Banana"),
		textIs("r2c1", "Peach"), textIs("r2c2", "Cherry"), textIs("r2c3", "Mango"),
	}
	fields := map[string]string{
		"r1c1": "Text", "r1c2": "Text", "r1c3": "Text",
		"r2c1": "Text", "r2c2": "Text", "r2c3": "Text",
	}
	node := tree.NewPatternNode(fields, rules)

	r, err := Run(context.Background(), doc, node, config.Config{NumSamples: 1})
	require.NoError(t, err)
	require.NotNil(t, r.Root)
	require.NotEmpty(t, r.Root.Top20Extractions)

	best := r.Root.Top20Extractions[0]
	got := map[string]string{}
	for _, p := range best.Points {
		if p.Assigned {
			got[p.Field] = p.Text
		}
	}
	assert.Equal(t, map[string]string{
		"r1c1": "Apple", "r1c2": "Orange", "r1c3": "Banana",
		"r2c1": "Peach", "r2c2": "Cherry", "r2c3": "Mango",
	}, got)
}

func TestIntegrationMultipage(t *testing.T) {
	page2 := &entity.Page{Bbox: box(0, 0, 200, 50), PageNumber: 2}
	page3 := &entity.Page{Bbox: box(0, 100, 200, 150), PageNumber: 3}
	page4 := &entity.Page{Bbox: box(0, 200, 200, 250), PageNumber: 4}

	label2 := singleton(0, 10, 80, 20, "Page number:")
	value2 := singleton(100, 10, 110, 20, "2")
	label3 := singleton(0, 110, 80, 120, "Page number:")
	value3 := singleton(100, 110, 110, 120, "3")
	label4 := singleton(0, 210, 80, 220, "Page number:")
	value4 := singleton(100, 210, 110, 220, "4")

	doc := document.FromEntities([]entity.Entity{
		page2, page3, page4,
		label2, value2, label3, value3, label4, value4,
	}, "multipage")

	ltr := func(a, b string) rule.Rule { return rule.Apply(rule.NewAreArranged(rule.DirectionLeftToRight, 1, 0, nil), a, b) }
	topDown := func(a, b string) rule.Rule { return rule.Apply(rule.NewAreArranged(rule.DirectionTopDown, 1, 0, nil), a, b) }
	bottomAligned := func(a, b string) rule.Rule { return rule.Apply(rule.NewAreAligned(rule.AlignBottoms, 0.5, 0.5), a, b) }
	labelIs := func(field string) rule.Rule { return rule.Apply(rule.TextEqualsOne("Page number:", 0, 0, 0), field) }

	rules := []rule.Rule{
		labelIs("label2"), labelIs("label3"), labelIs("label4"),
		rule.Apply(rule.TextEqualsOne("2", 0, 0, 0), "value2"),
		rule.Apply(rule.TextEqualsOne("3", 0, 0, 0), "value3"),
		rule.Apply(rule.TextEqualsOne("4", 0, 0, 0), "value4"),
		ltr("label2", "value2"), bottomAligned("label2", "value2"),
		ltr("label3", "value3"), bottomAligned("label3", "value3"),
		ltr("label4", "value4"), bottomAligned("label4", "value4"),
		topDown("label2", "label3"),
		rule.Apply(rule.NewPageNumberIs(map[int]float64{2: 0, 3: 1, 4: 0}), "label3"),
	}
	fields := map[string]string{
		"label2": "Text", "value2": "Text",
		"label3": "Text", "value3": "Text",
		"label4": "Text", "value4": "Text",
	}
	node := tree.NewPatternNode(fields, rules)

	r, err := Run(context.Background(), doc, node, config.Config{NumSamples: 1})
	require.NoError(t, err)
	require.NotNil(t, r.Root)
	require.NotEmpty(t, r.Root.Top20Extractions)

	best := r.Root.Top20Extractions[0]
	got := map[string]string{}
	for _, p := range best.Points {
		if p.Assigned {
			got[p.Field] = p.Text
		}
	}
	assert.Equal(t, map[string]string{
		"label2": "Page number:", "value2": "2",
		"label3": "Page number:", "value3": "3",
		"label4": "Page number:", "value4": "4",
	}, got)
}

func TestIntegrationImpingementSpanning(t *testing.T) {
	// pineapple and pear occupy disjoint X columns, so their non-spanning
	// gap is empty (vacuously unimpinged); the indented "Apple" sits in
	// neither column but falls inside their spanning union.
	pineapple := singleton(0, 0, 40, 10, "Pineapple")
	pear := singleton(60, 40, 100, 50, "Pear")
	apple := singleton(55, 20, 75, 30, "Apple")

	rules := []rule.Rule{
		rule.Apply(rule.TextEqualsOne("Apple", 0, 0, 0), "apple"),
		rule.Apply(rule.NewAreArranged(rule.DirectionTopDown, 1, 0, nil), "pineapple", "pear"),
		rule.Apply(rule.NothingBetweenVertically(false, "", false, 0.1), "pineapple", "pear"),
	}
	fields := map[string]string{"pineapple": "Text", "apple": "Text", "pear": "Text"}

	doc := document.FromEntities([]entity.Entity{pineapple, pear, apple}, "impingement")
	node := tree.NewPatternNode(fields, rules)

	r, err := Run(context.Background(), doc, node, config.Config{NumSamples: 1})
	require.NoError(t, err)
	require.NotNil(t, r.Root)
	require.NotEmpty(t, r.Root.Top20Extractions)

	best := r.Root.Top20Extractions[0]
	got := map[string]string{}
	for _, p := range best.Points {
		if p.Assigned {
			got[p.Field] = p.Text
		}
	}
	assert.Equal(t, map[string]string{"pineapple": "Pineapple", "apple": "Apple", "pear": "Pear"}, got)

	// With spanning=true, the gap widens to the union of pineapple's and
	// pear's columns, which now includes the indented "Apple" -- pushing
	// impingement over the 0.1 ceiling and failing the whole extraction.
	spanningRules := []rule.Rule{
		rule.Apply(rule.TextEqualsOne("Apple", 0, 0, 0), "apple"),
		rule.Apply(rule.NewAreArranged(rule.DirectionTopDown, 1, 0, nil), "pineapple", "pear"),
		rule.Apply(rule.NothingBetweenVertically(true, "", false, 0.1), "pineapple", "pear"),
	}
	spanningNode := tree.NewPatternNode(fields, spanningRules)

	r2, err := Run(context.Background(), doc, spanningNode, config.Config{NumSamples: 1})
	require.NoError(t, err)
	require.NotNil(t, r2.Root)
	require.NotEmpty(t, r2.Root.Top20Extractions)

	best2 := r2.Root.Top20Extractions[0]
	for _, p := range best2.Points {
		assert.Falsef(t, p.Assigned, "field %q unexpectedly assigned once the spanning gap is impinged", p.Field)
	}
}

func TestIntegrationPickBestConflict(t *testing.T) {
	apple := singleton(0, 0, 40, 10, "Apple")
	orange := singleton(60, 0, 100, 10, "Orange")
	banana := singleton(130, 0, 170, 10, "Banana")
	doc := document.FromEntities([]entity.Entity{apple, orange, banana}, "pickbest")

	singleField := tree.NewPatternNode(
		map[string]string{"F1": "Text"},
		[]rule.Rule{rule.Apply(rule.TextEqualsOne("Apple", 0, 0, 0), "F1")},
	)
	doubleField := tree.NewPatternNode(
		map[string]string{"F2": "Text", "F3": "Text"},
		[]rule.Rule{
			rule.Apply(rule.TextEqualsOne("Orange", 0, 0, 0), "F2"),
			rule.Apply(rule.TextEqualsOne("Banana", 0, 0, 0), "F3"),
		},
	)

	node, err := tree.PickBest([]tree.Node{singleField, doubleField})
	require.NoError(t, err)

	r, err := Run(context.Background(), doc, node, config.Config{NumSamples: 1})
	require.NoError(t, err)
	require.NotNil(t, r.Root)
	require.NotEmpty(t, r.Root.Top20Extractions)

	best := r.Root.Top20Extractions[0]
	got := map[string]string{}
	for _, p := range best.Points {
		if p.Assigned {
			got[p.Field] = p.Text
		}
	}
	assert.Equal(t, map[string]string{"F2": "Orange", "F3": "Banana"}, got)
}

func TestIntegrationThirtyFieldChainStaysFast(t *testing.T) {
	const n = 30
	entities := make([]entity.Entity, 0, n+1)
	rules := make([]rule.Rule, 0, 2*n)
	fields := make(map[string]string, n+1)

	fieldName := func(i int) string { return fmt.Sprintf("foo%d", i) }

	maxDist := 1.5
	for i := 0; i < n; i++ {
		y0 := float64(i * 20)
		entities = append(entities, singleton(0, y0, 40, y0+10, "Foo"))
		f := fieldName(i)
		fields[f] = "Text"
		rules = append(rules, rule.Apply(rule.TextEqualsOne("Foo", 0, 0, 0), f))
		if i > 0 {
			rules = append(rules, rule.Apply(
				rule.NewAreArranged(rule.DirectionTopDown, 1, 0, &maxDist), fieldName(i-1), f))
		}
	}
	barY := float64(n * 20)
	entities = append(entities, singleton(0, barY, 40, barY+10, "Bar"))
	fields["bar"] = "Text"
	rules = append(rules, rule.Apply(rule.TextEqualsOne("Bar", 0, 0, 0), "bar"))

	doc := document.FromEntities(entities, "chain")
	node := tree.NewPatternNode(fields, rules)

	start := time.Now()
	r, err := Run(context.Background(), doc, node, config.Config{NumSamples: 1, Timeout: 3 * time.Second})
	elapsed := time.Since(start)

	require.NoError(t, err)
	require.Lessf(t, elapsed, 3*time.Second, "extraction over a %d-field chain took %v, expected well under 3s", n+1, elapsed)
	require.NotNil(t, r.Root)
	require.NotEmpty(t, r.Root.Top20Extractions)

	best := r.Root.Top20Extractions[0]
	got := map[string]string{}
	for _, p := range best.Points {
		if p.Assigned {
			got[p.Field] = p.Text
		}
	}
	for i := 0; i < n; i++ {
		assert.Equalf(t, "Foo", got[fieldName(i)], "field %s", fieldName(i))
	}
	assert.Equal(t, "Bar", got["bar"])
}
