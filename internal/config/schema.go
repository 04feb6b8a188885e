package config

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// TrainingConfigSchema returns the JSON Schema describing TrainingConfig.
func TrainingConfigSchema() (string, error) {
	schema := jsonschema.Reflect(&TrainingConfig{})
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
