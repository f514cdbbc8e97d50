package score

import (
	"testing"

	"github.com/wudi/specguard/internal/rules"
)

func TestComputeEmptyIsExactly100(t *testing.T) {
	r := Compute(nil)
	if r.Score != 100 {
		t.Fatalf("score = %d, want 100", r.Score)
	}
	if len(r.Breakdown) != 0 {
		t.Fatalf("breakdown should be empty, got %v", r.Breakdown)
	}
}

func TestComputeWeights(t *testing.T) {
	violations := []rules.Violation{
		{RuleID: "a", Severity: rules.SeverityError, Category: "metadata"},
		{RuleID: "b", Severity: rules.SeverityWarning, Category: "naming"},
		{RuleID: "c", Severity: rules.SeverityWarning, Category: "naming"},
	}

	r := Compute(violations)
	if r.Score != 100-10-3-3 {
		t.Fatalf("score = %d, want 84", r.Score)
	}
	if r.Breakdown["metadata"] != 10 || r.Breakdown["naming"] != 6 {
		t.Fatalf("breakdown = %v", r.Breakdown)
	}
}

func TestComputeClampsToZero(t *testing.T) {
	var violations []rules.Violation
	for i := 0; i < 20; i++ {
		violations = append(violations, rules.Violation{Severity: rules.SeverityError, Category: "metadata"})
	}

	r := Compute(violations)
	if r.Score != 0 {
		t.Fatalf("score = %d, want 0", r.Score)
	}
	if r.Breakdown["metadata"] != 200 {
		t.Fatalf("breakdown keeps the unclamped penalty, got %v", r.Breakdown)
	}
}

func TestComputeMonotonicNonIncreasing(t *testing.T) {
	violations := []rules.Violation{
		{Severity: rules.SeverityWarning, Category: "naming"},
		{Severity: rules.SeverityError, Category: "metadata"},
		{Severity: rules.SeverityWarning, Category: "custom"},
		{Severity: rules.SeverityError, Category: "custom"},
	}

	prev := Compute(nil).Score
	for i := 1; i <= len(violations); i++ {
		cur := Compute(violations[:i]).Score
		if cur > prev {
			t.Fatalf("score rose from %d to %d after adding a violation", prev, cur)
		}
		prev = cur
	}
}
