package rules

// BuiltinConfigs returns the built-in design rules: kebab-case path
// segments, snake_case field names, mandatory operationId, mandatory
// info.version.
func BuiltinConfigs() []Config {
	return []Config{
		{
			ID:       "path-kebab-case",
			Selector: "path",
			Pattern:  `^[a-z0-9]+(-[a-z0-9]+)*$`,
			Severity: "warning",
			Category: "naming",
			Message:  `"{value}" should be kebab-case`,
		},
		{
			ID:       "field-snake-case",
			Selector: "field",
			Pattern:  `^[a-z][a-z0-9_]*$`,
			Severity: "warning",
			Category: "naming",
			Message:  `"{value}" should be snake_case`,
		},
		{
			ID:       "operation-id-required",
			Selector: "operation",
			Require:  "operationId",
			Severity: "error",
			Category: "metadata",
			Message:  "missing operationId",
		},
		{
			ID:       "version-required",
			Selector: "document",
			Require:  "info.version",
			Severity: "error",
			Category: "metadata",
			Message:  "API version required",
		},
	}
}

// Builtin returns the compiled built-in rule set.
func Builtin() *RuleSet {
	rs, err := Compile(BuiltinConfigs())
	if err != nil {
		panic("builtin rules failed to compile: " + err.Error())
	}
	return rs
}
