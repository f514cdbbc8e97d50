// Command specguard detects breaking changes between API schema
// versions and enforces design rules.
//
// Exit codes: 0 clean, 1 blocking findings (breaking changes, error
// violations, score below threshold), 2 unreadable input or malformed
// rule set.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wudi/specguard/internal/consistency"
	"github.com/wudi/specguard/internal/diff"
	"github.com/wudi/specguard/internal/document"
	"github.com/wudi/specguard/internal/logging"
	"github.com/wudi/specguard/internal/model"
	"github.com/wudi/specguard/internal/normalize"
	"github.com/wudi/specguard/internal/report"
	"github.com/wudi/specguard/internal/rules"
	"github.com/wudi/specguard/internal/score"
	"github.com/wudi/specguard/internal/watch"
)

var version = "dev"

const (
	exitBlocked = 1
	exitInput   = 2
)

// exitError carries a process exit code up to main.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return ""
	}
	return e.err.Error()
}

var (
	flagOutput   string
	flagLogLevel string
	flagNoColor  bool
)

func main() {
	root := &cobra.Command{
		Use:           "specguard",
		Short:         "Shield API schemas from breaking changes and enforce design rules",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if flagNoColor {
				color.NoColor = true
			}
			logger, err := logging.New(flagLogLevel)
			if err != nil {
				return err
			}
			logging.SetGlobal(logger)
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&flagOutput, "output", "o", "text", "Output format: text or json")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "error", "Log level: debug, info, warn, error")
	root.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")

	root.AddCommand(newDiffCmd(), newLintCmd(), newScoreCmd(), newCheckCmd())

	if err := root.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			if ee.err != nil {
				fmt.Fprintln(os.Stderr, ee.err)
			}
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitInput)
	}
}

func newDiffCmd() *cobra.Command {
	var block bool
	cmd := &cobra.Command{
		Use:   "diff <old-spec> <new-spec>",
		Short: "Detect breaking changes between two spec versions",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			oldModel, err := loadModel(args[0])
			if err != nil {
				return err
			}
			newModel, err := loadModel(args[1])
			if err != nil {
				return err
			}

			changes := diff.Diff(oldModel, newModel)
			if flagOutput == "json" {
				if err := report.WriteChangesJSON(os.Stdout, changes); err != nil {
					return err
				}
			} else {
				report.WriteChanges(os.Stdout, changes)
			}

			if block && diff.HasBreaking(changes) {
				return &exitError{code: exitBlocked, err: errors.New("blocked: breaking changes detected")}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&block, "block", true, "Exit 1 when breaking changes are found")
	return cmd
}

func newLintCmd() *cobra.Command {
	var rulesPath string
	var watchMode bool
	cmd := &cobra.Command{
		Use:   "lint <spec>",
		Short: "Enforce API design rules against a spec",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rs, err := loadRules(rulesPath)
			if err != nil {
				return err
			}

			run := func() ([]rules.Violation, error) {
				m, err := loadModel(args[0])
				if err != nil {
					return nil, err
				}
				return rs.Lint(m), nil
			}

			violations, err := run()
			if err != nil {
				return err
			}
			writeViolations(violations)

			if watchMode {
				return watchLint(args[0], run)
			}
			if rules.HasErrors(violations) {
				return &exitError{code: exitBlocked, err: nil}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&rulesPath, "rules", "", "Custom rule set file (YAML), appended to the built-in rules")
	cmd.Flags().BoolVar(&watchMode, "watch", false, "Re-run lint when the spec file changes")
	return cmd
}

func newScoreCmd() *cobra.Command {
	var rulesPath string
	var threshold int
	cmd := &cobra.Command{
		Use:   "score <spec>",
		Short: "Calculate the API design consistency score (0-100)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rs, err := loadRules(rulesPath)
			if err != nil {
				return err
			}
			m, err := loadModel(args[0])
			if err != nil {
				return err
			}

			rep := score.Compute(rs.Lint(m))
			if flagOutput == "json" {
				if err := report.WriteScoreJSON(os.Stdout, rep); err != nil {
					return err
				}
			} else {
				report.WriteScore(os.Stdout, rep)
			}

			if rep.Score < threshold {
				return &exitError{code: exitBlocked, err: fmt.Errorf("score %d below threshold %d", rep.Score, threshold)}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&rulesPath, "rules", "", "Custom rule set file (YAML), appended to the built-in rules")
	cmd.Flags().IntVar(&threshold, "threshold", 60, "Exit 1 when the score falls below this value")
	return cmd
}

func newCheckCmd() *cobra.Command {
	var rulesPath string
	var workers int
	cmd := &cobra.Command{
		Use:   "check <spec>...",
		Short: "Lint and score many specs concurrently",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rs, err := loadRules(rulesPath)
			if err != nil {
				return err
			}

			results := consistency.Check(cmd.Context(), args, rs, workers)

			failed := false
			blocked := false
			for _, r := range results {
				if r.Err != nil {
					failed = true
				} else if rules.HasErrors(r.Violations) {
					blocked = true
				}
			}

			if flagOutput == "json" {
				type jsonResult struct {
					consistency.Result
					Error string `json:"error,omitempty"`
				}
				out := make([]jsonResult, len(results))
				for i, r := range results {
					out[i] = jsonResult{Result: r}
					if r.Err != nil {
						out[i].Error = r.Err.Error()
					}
				}
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(out); err != nil {
					return err
				}
			} else {
				report.WriteResults(os.Stdout, results)
			}

			if failed {
				return &exitError{code: exitInput, err: errors.New("some documents could not be read")}
			}
			if blocked {
				return &exitError{code: exitBlocked, err: nil}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&rulesPath, "rules", "", "Custom rule set file (YAML), appended to the built-in rules")
	cmd.Flags().IntVar(&workers, "workers", 4, "Maximum concurrent documents (0 = unbounded)")
	return cmd
}

// loadModel reads and normalizes one document, mapping failures to the
// input exit code.
func loadModel(path string) (*model.SpecModel, error) {
	tree, err := document.Load(path)
	if err != nil {
		return nil, &exitError{code: exitInput, err: err}
	}
	m, err := normalize.Normalize(tree)
	if err != nil {
		return nil, &exitError{code: exitInput, err: fmt.Errorf("%s: %w", path, err)}
	}
	logging.Debug("document normalized", zap.String("path", path), zap.Int("paths", len(m.Paths)))
	return m, nil
}

func loadRules(path string) (*rules.RuleSet, error) {
	if path == "" {
		return rules.Builtin(), nil
	}
	rs, err := rules.Load(path)
	if err != nil {
		return nil, &exitError{code: exitInput, err: err}
	}
	return rs, nil
}

func writeViolations(violations []rules.Violation) {
	if flagOutput == "json" {
		report.WriteViolationsJSON(os.Stdout, violations)
		return
	}
	report.WriteViolations(os.Stdout, violations)
}

// watchLint blocks re-running lint until interrupted. Watch mode never
// exits non-zero on violations; it reports continuously instead.
func watchLint(path string, run func() ([]rules.Violation, error)) error {
	w, err := watch.New(path)
	if err != nil {
		return err
	}
	defer w.Stop()

	w.OnChange(func() {
		violations, err := run()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return
		}
		writeViolations(violations)
	})
	if err := w.Start(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	<-ctx.Done()
	return nil
}
