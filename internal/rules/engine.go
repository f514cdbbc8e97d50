package rules

import (
	"sort"
	"strings"

	"github.com/expr-lang/expr"

	"github.com/wudi/specguard/internal/model"
)

// Violation is one failed check at one model location.
type Violation struct {
	RuleID   string   `json:"ruleId"`
	Location string   `json:"location"`
	Severity Severity `json:"severity"`
	Category string   `json:"category"`
	Message  string   `json:"message"`
}

// HasErrors reports whether any violation has error severity.
func HasErrors(violations []Violation) bool {
	for _, v := range violations {
		if v.Severity == SeverityError {
			return true
		}
	}
	return false
}

// site is one model location selected for evaluation. values feed
// pattern and one_of checks (one violation per failing value), props
// feed require checks, env feeds expr checks.
type site struct {
	location string
	values   []string
	props    map[string]string
	env      any
}

// Lint evaluates every rule against every location its selector matches.
// It never short-circuits: each failing location produces a violation.
// Output is sorted by location then rule id for stable reporting.
func (rs *RuleSet) Lint(m *model.SpecModel) []Violation {
	sites := collectSites(m)

	var out []Violation
	for _, r := range rs.rules {
		for _, s := range sites[r.Selector] {
			out = append(out, r.apply(s)...)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Location != out[j].Location {
			return out[i].Location < out[j].Location
		}
		return out[i].RuleID < out[j].RuleID
	})
	return out
}

func (r *Rule) apply(s site) []Violation {
	switch {
	case r.pattern != nil:
		var out []Violation
		for _, v := range s.values {
			if !r.pattern.MatchString(v) {
				out = append(out, r.violation(s.location, v))
			}
		}
		return out
	case r.oneOf != nil:
		var out []Violation
		for _, v := range s.values {
			if !r.oneOf[v] {
				out = append(out, r.violation(s.location, v))
			}
		}
		return out
	case r.require != "":
		if s.props[r.require] == "" {
			loc := s.location
			if r.Selector == SelectDocument {
				loc = r.require
			}
			return []Violation{r.violation(loc, r.require)}
		}
		return nil
	case r.program != nil:
		matched, err := r.Evaluate(s.env)
		if err != nil {
			// A predicate can fail at runtime even though it
			// compiled, e.g. segments[0] on a path with no literal
			// segments. Policy: a site where the predicate cannot
			// be judged does not fire the rule.
			return nil
		}
		if !matched {
			return nil
		}
		return []Violation{r.violation(s.location, "")}
	default:
		return nil
	}
}

// Evaluate runs a compiled expr predicate against an environment.
func (r *Rule) Evaluate(env any) (bool, error) {
	if r.program == nil {
		return false, nil
	}
	output, err := expr.Run(r.program, env)
	if err != nil {
		return false, err
	}
	result, _ := output.(bool)
	return result, nil
}

func (r *Rule) violation(location, value string) Violation {
	msg := r.message
	msg = strings.ReplaceAll(msg, "{value}", value)
	msg = strings.ReplaceAll(msg, "{location}", location)
	return Violation{
		RuleID:   r.ID,
		Location: location,
		Severity: r.Severity,
		Category: r.Category,
		Message:  msg,
	}
}

// collectSites walks the model once and groups visitable locations by
// selector. Traversal order follows the model's document order so that
// evaluation is deterministic before the final sort.
func collectSites(m *model.SpecModel) map[Selector][]site {
	sites := map[Selector][]site{
		SelectDocument: {{
			location: "document",
			values:   []string{m.Version},
			props:    map[string]string{"info.version": m.Version},
			env:      DocumentEnv{Version: m.Version, PathCount: len(m.Paths)},
		}},
	}

	for _, pi := range m.Paths {
		segments := model.LiteralSegments(pi.Template)
		sites[SelectPath] = append(sites[SelectPath], site{
			location: pi.Template,
			values:   segments,
			props:    map[string]string{"template": pi.Template},
			env:      PathEnv{Template: pi.Template, Segments: segments},
		})

		for _, op := range pi.Operations {
			opLoc := op.Method + " " + pi.Template
			sites[SelectOperation] = append(sites[SelectOperation], site{
				location: opLoc,
				values:   []string{op.OperationID},
				props: map[string]string{
					"operationId": op.OperationID,
					"method":      op.Method,
					"path":        pi.Template,
				},
				env: OperationEnv{
					Method:      op.Method,
					Path:        pi.Template,
					OperationID: op.OperationID,
					Deprecated:  op.Deprecated,
				},
			})

			if op.RequestBody != nil {
				collectFieldSites(sites, opLoc+".requestBody", op.RequestBody)
			}
			for _, code := range op.ResponseCodes() {
				collectFieldSites(sites, opLoc+".responses."+code, op.Responses[code])
			}
		}
	}
	return sites
}

func collectFieldSites(sites map[Selector][]site, loc string, node *model.SchemaNode) {
	if node == nil {
		return // schemaless response body
	}
	switch node.Kind {
	case model.KindObject:
		for _, f := range node.Fields {
			floc := loc + "." + f.Name
			sites[SelectField] = append(sites[SelectField], site{
				location: floc,
				values:   []string{f.Name},
				props:    map[string]string{"name": f.Name},
				env: FieldEnv{
					Name:     f.Name,
					Location: floc,
					Required: node.IsRequired(f.Name),
				},
			})
			collectFieldSites(sites, floc, f.Schema)
		}
	case model.KindArray:
		if node.Items != nil {
			collectFieldSites(sites, loc+"[]", node.Items)
		}
	}
}
