// Command blueprintrun loads a document and rule-tree fixture and runs the
// extraction engine against them, printing the resulting report to stdout.
// It exists to exercise the library end to end, not as a full rule-authoring
// tool.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/instabase/blueprint-go/pkg/blueprint/config"
	"github.com/instabase/blueprint-go/pkg/blueprint/document"
	"github.com/instabase/blueprint-go/pkg/blueprint/entity"
	"github.com/instabase/blueprint-go/pkg/blueprint/extraction"
	"github.com/instabase/blueprint-go/pkg/blueprint/geometry"
	"github.com/instabase/blueprint-go/pkg/blueprint/results"
	"github.com/instabase/blueprint-go/pkg/blueprint/rule"
	"github.com/instabase/blueprint-go/pkg/blueprint/runner"
	"github.com/instabase/blueprint-go/pkg/blueprint/tree"
)

func main() {
	docPath := flag.String("doc", "", "path to a document fixture (JSON)")
	treePath := flag.String("tree", "", "path to a rule-tree fixture (JSON or YAML)")
	configPath := flag.String("config", "", "path to a run config fixture (JSON); defaults to one sample, no timeout")
	binaryOut := flag.Bool("binary", false, "write the results report in kelindar/binary form instead of JSON")
	flag.Parse()

	if *docPath == "" || *treePath == "" {
		fmt.Fprintln(os.Stderr, "usage: blueprintrun -doc doc.json -tree tree.json [-config config.json] [-binary]")
		os.Exit(2)
	}

	if err := run(*docPath, *treePath, *configPath, *binaryOut); err != nil {
		fmt.Fprintln(os.Stderr, "blueprintrun:", err)
		os.Exit(1)
	}
}

func run(docPath, treePath, configPath string, binaryOut bool) error {
	doc, err := loadDocument(docPath)
	if err != nil {
		return fmt.Errorf("loading document: %w", err)
	}

	root, err := loadTree(treePath)
	if err != nil {
		return fmt.Errorf("loading rule tree: %w", err)
	}

	cfg := config.Default
	if configPath != "" {
		cfg, err = loadConfig(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
	}

	ctx := context.Background()
	report, runErr := runner.Run(ctx, doc, root, cfg)
	if runErr != nil && runErr != runner.ErrTimedOut {
		return fmt.Errorf("running model: %w", runErr)
	}

	var out []byte
	if binaryOut {
		out, err = results.SaveBinary(report)
	} else {
		out, err = results.SaveJSON(report)
	}
	if err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}
	os.Stdout.Write(out)
	fmt.Println()

	if runErr == runner.ErrTimedOut {
		return runner.ErrTimedOut
	}
	return nil
}

// --- document fixture ---

type wordFixture struct {
	Text string  `json:"text"`
	X0   float64 `json:"x0"`
	Y0   float64 `json:"y0"`
	X1   float64 `json:"x1"`
	Y1   float64 `json:"y1"`
}

type documentFixture struct {
	Name  string        `json:"name"`
	Words []wordFixture `json:"words"`
}

func loadDocument(path string) (*document.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fx documentFixture
	if err := json.Unmarshal(data, &fx); err != nil {
		return nil, err
	}
	entities := make([]entity.Entity, len(fx.Words))
	for i, w := range fx.Words {
		entities[i] = &entity.Word{
			Bbox: geometry.BBox{
				IX: geometry.Interval{A: w.X0, B: w.X1},
				IY: geometry.Interval{A: w.Y0, B: w.Y1},
			},
			Text: w.Text,
		}
	}
	return document.FromEntities(entities, fx.Name), nil
}

// --- rule-tree fixture ---

type atomFixture struct {
	Predicate string   `json:"predicate"`
	Fields    []string `json:"fields"`
	Texts     []string `json:"texts,omitempty"`
}

type treeFixture struct {
	Fields map[string]string `json:"fields"`
	Rules  []atomFixture     `json:"rules"`
}

func loadTree(path string) (tree.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fx treeFixture
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fx)
	default:
		err = json.Unmarshal(data, &fx)
	}
	if err != nil {
		return nil, err
	}

	rules := make([]rule.Rule, len(fx.Rules))
	for i, a := range fx.Rules {
		pred, err := buildPredicate(a)
		if err != nil {
			return nil, err
		}
		rules[i] = rule.Apply(pred, a.Fields...)
	}

	fieldTypes := map[extraction.Field]string(nil)
	if len(fx.Fields) > 0 {
		fieldTypes = fx.Fields
	}
	return tree.Extract(rules, fieldTypes)
}

// buildPredicate supports a small curated subset of the predicate
// catalogue, enough to exercise a realistic rule tree end to end; it isn't
// a substitute for a full rule-authoring tool.
func buildPredicate(a atomFixture) (rule.Predicate, error) {
	switch a.Predicate {
	case "IsDate":
		return rule.IsDate{}, nil
	case "IsDollarAmount":
		return rule.IsDollarAmount{}, nil
	case "IsEntirePhrase":
		return rule.IsEntirePhrase{}, nil
	case "IsAddress":
		return rule.IsAddress{}, nil
	case "IsPersonName":
		return rule.IsPersonName{}, nil
	case "AreDisjoint":
		return rule.AreDisjoint{}, nil
	case "HaveUnequalText":
		return rule.HaveUnequalText{}, nil
	case "TextEquals":
		return rule.NewTextEquals(a.Texts, 0, 0, 0), nil
	default:
		return nil, fmt.Errorf("unsupported predicate %q", a.Predicate)
	}
}

// --- config fixture ---

func loadConfig(path string) (config.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return config.Config{}, err
	}
	var cfg config.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
