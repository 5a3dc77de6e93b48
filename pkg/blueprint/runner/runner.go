// Package runner orchestrates a single extraction run: validating and
// binding a tree to a document, pumping it for samples, and assembling the
// results report, all under a cooperative timeout.
package runner

import (
	"context"
	"errors"
	"time"

	"github.com/instabase/blueprint-go/internal/blog"
	"github.com/instabase/blueprint-go/pkg/blueprint/boundtree"
	"github.com/instabase/blueprint-go/pkg/blueprint/config"
	"github.com/instabase/blueprint-go/pkg/blueprint/document"
	"github.com/instabase/blueprint-go/pkg/blueprint/results"
	"github.com/instabase/blueprint-go/pkg/blueprint/tree"
)

// ErrTimedOut is returned, alongside whatever partial Results the run
// managed to produce, when it exceeds its configured timeout.
var ErrTimedOut = errors.New("runner: run timed out")

type timer struct {
	start time.Time
	end   time.Time
	done  bool
}

type tracker struct {
	timers map[results.Step]*timer
}

func newTracker() *tracker { return &tracker{timers: map[results.Step]*timer{}} }

func (t *tracker) start(step results.Step) { t.timers[step] = &timer{start: time.Now()} }

func (t *tracker) end(step results.Step) {
	if tm, ok := t.timers[step]; ok && !tm.done {
		tm.end = time.Now()
		tm.done = true
	}
}

// finish ends any step still running, so a timed-out run still reports
// partial durations.
func (t *tracker) finish() {
	for step, tm := range t.timers {
		if !tm.done {
			t.end(step)
		}
	}
}

func (t *tracker) durationMS(step results.Step) *int64 {
	tm, ok := t.timers[step]
	if !ok {
		return nil
	}
	ms := tm.end.Sub(tm.start).Milliseconds()
	return &ms
}

func (t *tracker) info(timedOut bool) results.DocRuntimeInfo {
	return results.DocRuntimeInfo{
		BindingMS: t.durationMS(results.StepBinding),
		PumpingMS: t.durationMS(results.StepPumping),
		TotalMS:   t.durationMS(results.StepTotal),
		TimedOut:  timedOut,
	}
}

// Run validates root, binds it to doc, pumps cfg.NumSamples extractions out
// of it (or exhausts it, if cfg.NumSamples is negative), and returns the
// resulting report. If ctx is cancelled, or cfg.Timeout elapses, Run
// returns ErrTimedOut alongside whatever partial report it could build from
// the extractions already pumped.
func Run(ctx context.Context, doc *document.Document, root tree.Node, cfg config.Config) (results.Results, error) {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	t := newTracker()
	t.start(results.StepTotal)
	defer t.finish()

	if cfg.NumSamples == 0 {
		blog.Warnf("runner: requested 0 extraction samples; no extractions will be generated")
	}

	blog.Infof("runner: binding extraction tree for %s", doc.Name)
	t.start(results.StepBinding)
	if err := tree.Validate(root); err != nil {
		t.end(results.StepBinding)
		t.end(results.StepTotal)
		return results.Results{}, err
	}
	bound := root.BindTo(doc)
	t.end(results.StepBinding)

	blog.Infof("runner: pumping extraction tree for %s", doc.Name)
	t.start(results.StepPumping)
	generated := 0
	timedOut := false
pump:
	for cfg.NumSamples < 0 || generated < cfg.NumSamples {
		select {
		case <-ctx.Done():
			timedOut = true
			break pump
		default:
		}
		if _, ok := bound.Next(); !ok {
			if cfg.NumSamples > 0 {
				blog.Warnf("runner: ran out of samples before %d were found", cfg.NumSamples)
			}
			break
		}
		generated++
	}
	t.end(results.StepPumping)
	t.end(results.StepTotal)

	if timedOut {
		blog.Infof("runner: extraction timed out for %s", doc.Name)
	}

	if bound.BestExtraction() != nil {
		best := make(map[string]string, len(bound.BestExtraction().Extraction.Assignments))
		for _, p := range bound.BestExtraction().Extraction.Assignments {
			text, _ := p.Entity.EntityText()
			best[p.Field] = text
		}
		blog.Debugf("runner: best extraction for %s: %v", doc.Name, best)
	}

	// A node that was never successfully pumped (e.g. the run timed out
	// before its first extraction) has no best extraction to report; the
	// run still gets a runtime-info-only report rather than an error.
	var reportRoot boundtree.Node
	if bound.BestExtraction() != nil {
		reportRoot = bound
	}

	r, err := results.Generate(reportRoot, t.info(timedOut))
	if err != nil {
		return results.Results{}, err
	}
	if timedOut {
		return r, ErrTimedOut
	}
	return r, nil
}
