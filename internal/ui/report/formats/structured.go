package formats

import (
	"codeinspector/internal/core/ports"
	"encoding/json"

	"gopkg.in/yaml.v2"
)

func GenerateJSON(report ports.Report) ([]byte, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// GenerateYAML marshals the report with the yaml struct tags, which use
// snake_case keys.
func GenerateYAML(report ports.Report) ([]byte, error) {
	return yaml.Marshal(report)
}
