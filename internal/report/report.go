// Package report renders diff, lint and score results as text or JSON.
// It consumes the core's outputs only; nothing in the core depends on
// it. Exit-code policy lives with the CLI, which uses the Has* helpers
// on the core types to decide whether to block.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/wudi/specguard/internal/consistency"
	"github.com/wudi/specguard/internal/diff"
	"github.com/wudi/specguard/internal/rules"
	"github.com/wudi/specguard/internal/score"
)

var (
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func severityColor(s string) string {
	switch s {
	case string(diff.SeverityBreaking), string(rules.SeverityError):
		return red(s)
	case string(diff.SeverityDeprecation), string(rules.SeverityWarning):
		return yellow(s)
	default:
		return green(s)
	}
}

// WriteChanges renders a diff result as an aligned table with a summary
// line.
func WriteChanges(w io.Writer, changes []diff.ChangeRecord) {
	if len(changes) == 0 {
		fmt.Fprintln(w, green("No changes detected"))
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", bold("SEVERITY"), bold("KIND"), bold("LOCATION"), bold("DETAIL"))
	for _, c := range changes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", severityColor(string(c.Severity)), c.Kind, c.Location, c.Message)
	}
	tw.Flush()

	var breaking, deprecation, compatible int
	for _, c := range changes {
		switch c.Severity {
		case diff.SeverityBreaking:
			breaking++
		case diff.SeverityDeprecation:
			deprecation++
		default:
			compatible++
		}
	}
	fmt.Fprintf(w, "\n  %d breaking | %d deprecation | %d compatible\n", breaking, deprecation, compatible)
}

// WriteChangesJSON renders a diff result as a JSON array.
func WriteChangesJSON(w io.Writer, changes []diff.ChangeRecord) error {
	if changes == nil {
		changes = []diff.ChangeRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(changes)
}

// WriteViolations renders a lint result as an aligned table.
func WriteViolations(w io.Writer, violations []rules.Violation) {
	if len(violations) == 0 {
		fmt.Fprintln(w, green("All design rules pass"))
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", bold("SEVERITY"), bold("RULE"), bold("LOCATION"), bold("DETAIL"))
	for _, v := range violations {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", severityColor(string(v.Severity)), v.RuleID, v.Location, v.Message)
	}
	tw.Flush()
}

// WriteViolationsJSON renders a lint result as a JSON array.
func WriteViolationsJSON(w io.Writer, violations []rules.Violation) error {
	if violations == nil {
		violations = []rules.Violation{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(violations)
}

// WriteResults renders the outcome of a multi-document check: one score
// line per document, followed by that document's violation table.
func WriteResults(w io.Writer, results []consistency.Result) {
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(w, "%s: %s\n", r.Path, red(r.Err.Error()))
			continue
		}
		fmt.Fprintf(w, "%s: %d/100 (%d violations)\n", bold(r.Path), r.Report.Score, len(r.Violations))
		if len(r.Violations) > 0 {
			WriteViolations(w, r.Violations)
		}
	}
}

// WriteScore renders a score report, colored by band: green >= 80,
// yellow >= 60, red below.
func WriteScore(w io.Writer, rep score.Report) {
	c := green
	switch {
	case rep.Score < 60:
		c = red
	case rep.Score < 80:
		c = yellow
	}
	fmt.Fprintf(w, "API design score: %s\n", c(fmt.Sprintf("%d/100", rep.Score)))
	for _, e := range sortedBreakdown(rep.Breakdown) {
		fmt.Fprintf(w, "  -%d %s\n", e.penalty, e.category)
	}
}

// WriteScoreJSON renders a score report as JSON.
func WriteScoreJSON(w io.Writer, rep score.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

type breakdownEntry struct {
	category string
	penalty  int
}

func sortedBreakdown(b map[string]int) []breakdownEntry {
	out := make([]breakdownEntry, 0, len(b))
	for category, penalty := range b {
		out = append(out, breakdownEntry{category, penalty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].category < out[j].category })
	return out
}
