package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"lorekeeper-backend/application/detectors"
)

var rulesValidator = validator.New()

// LoadRules reads the detector keyword rules from a YAML file and merges them
// over the compiled-in defaults. An empty path returns the defaults.
func LoadRules(path string) (detectors.Rules, error) {
	if path == "" {
		return detectors.DefaultRules(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return detectors.Rules{}, fmt.Errorf("failed to read rules file: %w", err)
	}
	return parseRules(data)
}

func parseRules(data []byte) (detectors.Rules, error) {
	var rules detectors.Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return detectors.Rules{}, fmt.Errorf("failed to parse rules YAML: %w", err)
	}
	if err := rulesValidator.Struct(rules); err != nil {
		return detectors.Rules{}, fmt.Errorf("invalid rules file: %w", err)
	}
	return rules.Merged(), nil
}
