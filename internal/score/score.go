// Package score reduces a violation list to a single 0-100 consistency
// score with a per-category penalty breakdown.
package score

import "github.com/wudi/specguard/internal/rules"

// Penalty weights per violation severity. Error-severity rules mark
// structurally significant problems and cost more than cosmetic naming
// warnings.
const (
	errorPenalty   = 10
	warningPenalty = 3
)

// Report is the scoring result. Score is clamped to [0, 100]; an empty
// violation list scores exactly 100.
type Report struct {
	Score     int            `json:"score"`
	Breakdown map[string]int `json:"breakdown"` // category -> penalty
}

// Compute scores a violation list. Pure and total: it never fails, and
// adding a violation never raises the score.
func Compute(violations []rules.Violation) Report {
	r := Report{Score: 100, Breakdown: make(map[string]int)}

	total := 0
	for _, v := range violations {
		p := warningPenalty
		if v.Severity == rules.SeverityError {
			p = errorPenalty
		}
		total += p
		r.Breakdown[v.Category] += p
	}

	r.Score = 100 - total
	if r.Score < 0 {
		r.Score = 0
	}
	return r
}
