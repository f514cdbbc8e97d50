// Package consistency lints N spec documents concurrently. Runs share
// no mutable state, so each document is normalized, linted and scored
// independently across a bounded worker pool and results are merged by
// position.
package consistency

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wudi/specguard/internal/document"
	"github.com/wudi/specguard/internal/logging"
	"github.com/wudi/specguard/internal/normalize"
	"github.com/wudi/specguard/internal/rules"
	"github.com/wudi/specguard/internal/score"
)

// Result is the outcome for one document. Err is set when the document
// failed to load or parse; Violations and Report are valid otherwise.
type Result struct {
	Path       string            `json:"path"`
	Violations []rules.Violation `json:"violations,omitempty"`
	Report     score.Report      `json:"report"`
	Err        error             `json:"-"`
}

// Check lints every document with the given rule set, using at most
// workers goroutines (0 means unbounded). Results come back in input
// order regardless of completion order. A document that fails to parse
// produces a Result with Err set; it does not stop the other runs.
func Check(ctx context.Context, paths []string, rs *rules.RuleSet, workers int) []Result {
	results := make([]Result, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = Result{Path: path, Err: err}
				return nil
			}
			results[i] = checkOne(path, rs)
			return nil
		})
	}
	g.Wait()
	return results
}

func checkOne(path string, rs *rules.RuleSet) Result {
	tree, err := document.Load(path)
	if err != nil {
		return Result{Path: path, Err: err}
	}
	m, err := normalize.Normalize(tree)
	if err != nil {
		logging.Warn("document failed to normalize", zap.String("path", path), zap.Error(err))
		return Result{Path: path, Err: err}
	}

	violations := rs.Lint(m)
	rep := score.Compute(violations)
	logging.Debug("document checked",
		zap.String("path", path),
		zap.Int("violations", len(violations)),
		zap.Int("score", rep.Score),
	)
	return Result{Path: path, Violations: violations, Report: rep}
}
