// Package rules evaluates declarative design rules against one spec
// model. A rule pairs a selector (which model locations to visit) with a
// single check and a fixed severity. Rules are data: a rule set is
// loaded once per invocation and passed in explicitly, so custom rule
// files extend the built-in set without touching the engine.
package rules

import (
	"fmt"
	"regexp"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Severity of a violation, fixed per rule.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Selector names the model locations a rule visits.
type Selector string

const (
	SelectPath      Selector = "path"
	SelectField     Selector = "field"
	SelectOperation Selector = "operation"
	SelectDocument  Selector = "document"
)

// Config is the serialized form of one rule. Exactly one of Pattern,
// OneOf, Require or Expr must be set.
type Config struct {
	ID       string   `yaml:"id" json:"id"`
	Selector string   `yaml:"selector" json:"selector"`
	Pattern  string   `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	OneOf    []string `yaml:"one_of,omitempty" json:"one_of,omitempty"`
	Require  string   `yaml:"require,omitempty" json:"require,omitempty"`
	Expr     string   `yaml:"expr,omitempty" json:"expr,omitempty"`
	Severity string   `yaml:"severity" json:"severity"`
	Category string   `yaml:"category,omitempty" json:"category,omitempty"`
	Message  string   `yaml:"message" json:"message"`
}

// ConfigError reports a malformed rule configuration. It is fatal and
// raised before any evaluation starts.
type ConfigError struct {
	RuleID string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.RuleID == "" {
		return fmt.Sprintf("rule set: %s", e.Reason)
	}
	return fmt.Sprintf("rule %s: %s", e.RuleID, e.Reason)
}

func configErrorf(ruleID, format string, args ...any) *ConfigError {
	return &ConfigError{RuleID: ruleID, Reason: fmt.Sprintf(format, args...)}
}

// Rule is a compiled, evaluation-ready rule.
type Rule struct {
	ID       string
	Selector Selector
	Severity Severity
	Category string
	message  string

	pattern *regexp.Regexp
	oneOf   map[string]bool
	require string
	program *vm.Program
}

// Expr environments, one per selector. A custom rule's expression
// evaluates against the environment of its selector and fires the rule
// when it returns true, e.g. `operation_id == "" && !deprecated`.

// PathEnv is the expr environment for path-selector rules.
type PathEnv struct {
	Template string   `expr:"template"`
	Segments []string `expr:"segments"`
}

// OperationEnv is the expr environment for operation-selector rules.
type OperationEnv struct {
	Method      string `expr:"method"`
	Path        string `expr:"path"`
	OperationID string `expr:"operation_id"`
	Deprecated  bool   `expr:"deprecated"`
}

// FieldEnv is the expr environment for field-selector rules.
type FieldEnv struct {
	Name     string `expr:"name"`
	Location string `expr:"location"`
	Required bool   `expr:"required"`
}

// DocumentEnv is the expr environment for document-selector rules.
type DocumentEnv struct {
	Version   string `expr:"version"`
	PathCount int    `expr:"path_count"`
}

func exprEnvFor(sel Selector) any {
	switch sel {
	case SelectPath:
		return PathEnv{}
	case SelectOperation:
		return OperationEnv{}
	case SelectField:
		return FieldEnv{}
	default:
		return DocumentEnv{}
	}
}

// CompileRule validates and compiles one rule config.
func CompileRule(cfg Config) (*Rule, error) {
	if cfg.ID == "" {
		return nil, configErrorf("", "rule has no id")
	}

	sel := Selector(cfg.Selector)
	switch sel {
	case SelectPath, SelectField, SelectOperation, SelectDocument:
	default:
		return nil, configErrorf(cfg.ID, "unknown selector %q", cfg.Selector)
	}

	sev := Severity(cfg.Severity)
	switch sev {
	case SeverityError, SeverityWarning:
	default:
		return nil, configErrorf(cfg.ID, "unknown severity %q", cfg.Severity)
	}

	checks := 0
	for _, set := range []bool{cfg.Pattern != "", len(cfg.OneOf) > 0, cfg.Require != "", cfg.Expr != ""} {
		if set {
			checks++
		}
	}
	if checks != 1 {
		return nil, configErrorf(cfg.ID, "exactly one of pattern, one_of, require, expr must be set")
	}

	category := cfg.Category
	if category == "" {
		category = "custom"
	}

	r := &Rule{
		ID:       cfg.ID,
		Selector: sel,
		Severity: sev,
		Category: category,
		message:  cfg.Message,
		require:  cfg.Require,
	}

	switch {
	case cfg.Pattern != "":
		re, err := regexp.Compile(cfg.Pattern)
		if err != nil {
			return nil, configErrorf(cfg.ID, "invalid pattern: %v", err)
		}
		r.pattern = re
	case len(cfg.OneOf) > 0:
		r.oneOf = make(map[string]bool, len(cfg.OneOf))
		for _, v := range cfg.OneOf {
			r.oneOf[v] = true
		}
	case cfg.Expr != "":
		program, err := expr.Compile(cfg.Expr, expr.Env(exprEnvFor(sel)), expr.AsBool())
		if err != nil {
			return nil, configErrorf(cfg.ID, "failed to compile expression: %v", err)
		}
		r.program = program
	}
	return r, nil
}

// RuleSet is an immutable collection of compiled rules.
type RuleSet struct {
	rules []*Rule
}

// Compile compiles a set of rule configs. Any malformed rule fails the
// whole set before evaluation.
func Compile(cfgs []Config) (*RuleSet, error) {
	rs := &RuleSet{rules: make([]*Rule, 0, len(cfgs))}
	seen := make(map[string]bool, len(cfgs))
	for _, cfg := range cfgs {
		if seen[cfg.ID] {
			return nil, configErrorf(cfg.ID, "duplicate rule id")
		}
		seen[cfg.ID] = true
		r, err := CompileRule(cfg)
		if err != nil {
			return nil, err
		}
		rs.rules = append(rs.rules, r)
	}
	return rs, nil
}

// Rules returns the compiled rules in declaration order.
func (rs *RuleSet) Rules() []*Rule {
	return rs.rules
}
