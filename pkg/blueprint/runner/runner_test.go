package runner

import (
	"context"
	"testing"
	"time"

	"github.com/instabase/blueprint-go/pkg/blueprint/config"
	"github.com/instabase/blueprint-go/pkg/blueprint/document"
	"github.com/instabase/blueprint-go/pkg/blueprint/entity"
	"github.com/instabase/blueprint-go/pkg/blueprint/geometry"
	"github.com/instabase/blueprint-go/pkg/blueprint/rule"
	"github.com/instabase/blueprint-go/pkg/blueprint/tree"
)

func box(x0, y0, x1, y1 float64) geometry.BBox {
	return geometry.BBox{IX: geometry.Interval{A: x0, B: x1}, IY: geometry.Interval{A: y0, B: y1}}
}

func testPattern() tree.Node {
	return tree.NewPatternNode(
		map[string]string{"a": "Word", "b": "Word"},
		[]rule.Rule{rule.Apply(rule.AreDisjoint{}, "a", "b")},
	)
}

func TestRunProducesResults(t *testing.T) {
	alice := &entity.Word{Bbox: box(0, 0, 1, 1), Text: "Alice"}
	bob := &entity.Word{Bbox: box(5, 5, 6, 6), Text: "Bob"}
	doc := document.FromEntities([]entity.Entity{alice, bob}, "doc")

	r, err := Run(context.Background(), doc, testPattern(), config.Config{NumSamples: 1})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if r.Root == nil {
		t.Fatalf("expected a non-nil results root")
	}
	if r.RuntimeInfo.TimedOut {
		t.Fatalf("did not expect a timeout")
	}
	if r.RuntimeInfo.TotalMS == nil {
		t.Fatalf("expected a total duration to be recorded")
	}
}

func TestRunReportsTimeoutOnAlreadyCancelledContext(t *testing.T) {
	alice := &entity.Word{Bbox: box(0, 0, 1, 1), Text: "Alice"}
	bob := &entity.Word{Bbox: box(5, 5, 6, 6), Text: "Bob"}
	doc := document.FromEntities([]entity.Entity{alice, bob}, "doc")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, doc, testPattern(), config.Config{NumSamples: -1})
	if err != ErrTimedOut {
		t.Fatalf("expected ErrTimedOut, got %v", err)
	}
}

func TestRunHonorsConfigTimeout(t *testing.T) {
	alice := &entity.Word{Bbox: box(0, 0, 1, 1), Text: "Alice"}
	bob := &entity.Word{Bbox: box(5, 5, 6, 6), Text: "Bob"}
	doc := document.FromEntities([]entity.Entity{alice, bob}, "doc")

	_, err := Run(context.Background(), doc, testPattern(), config.Config{NumSamples: -1, Timeout: time.Nanosecond})
	if err != ErrTimedOut {
		t.Fatalf("expected ErrTimedOut from a near-zero timeout, got %v", err)
	}
}
