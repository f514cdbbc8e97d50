package rules

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeRuleFile(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAppendsToBuiltins(t *testing.T) {
	path := writeRuleFile(t, `
rules:
  - id: no-v1-paths
    selector: path
    expr: 'template startsWith "/v1"'
    severity: warning
    category: versioning
    message: new endpoints must not target /v1
`)
	rs, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	want := len(BuiltinConfigs()) + 1
	if got := len(rs.Rules()); got != want {
		t.Fatalf("expected %d rules, got %d", want, got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeRuleFile(t, "rules: [unclosed\n")
	_, err := Load(path)
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestLoadEmptyRuleFile(t *testing.T) {
	path := writeRuleFile(t, "rules: []\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for empty rule file")
	}
}

func TestLoadInvalidRuleFailsBeforeEvaluation(t *testing.T) {
	path := writeRuleFile(t, `
rules:
  - id: broken
    selector: path
    severity: warning
    message: has no check
`)
	_, err := Load(path)
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if ce.RuleID != "broken" {
		t.Fatalf("RuleID = %q", ce.RuleID)
	}
}

func TestLoadDuplicateOfBuiltin(t *testing.T) {
	path := writeRuleFile(t, `
rules:
  - id: path-kebab-case
    selector: path
    pattern: '^[a-z]+$'
    severity: warning
    message: duplicate
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected duplicate id to fail")
	}
}
