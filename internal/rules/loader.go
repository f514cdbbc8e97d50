package rules

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// ruleFile is the on-disk shape of a custom rule set.
type ruleFile struct {
	Rules []Config `yaml:"rules"`
}

// LoadConfigs reads custom rule configs from a YAML file. The result is
// raw configs; Compile validates them.
func LoadConfigs(path string) ([]Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Reason: fmt.Sprintf("failed to read rule file: %v", err)}
	}

	var f ruleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, &ConfigError{Reason: fmt.Sprintf("failed to parse rule file: %v", err)}
	}
	if len(f.Rules) == 0 {
		return nil, &ConfigError{Reason: "rule file declares no rules"}
	}
	return f.Rules, nil
}

// Load reads and compiles a custom rule file, appended to the built-in
// set.
func Load(path string) (*RuleSet, error) {
	custom, err := LoadConfigs(path)
	if err != nil {
		return nil, err
	}
	return Compile(append(BuiltinConfigs(), custom...))
}
