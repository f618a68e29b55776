package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/fulmenhq/ocsetup/internal/assets"
)

// ErrInvalidConfig marks configuration that cannot be read or does not match
// the embedded schema.
var ErrInvalidConfig = errors.New("invalid configuration")

// Validate checks the loaded configuration against the embedded schema.
func Validate(c *Config) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return ValidateData(data)
}

// ValidateData validates raw JSON configuration against the embedded schema.
func ValidateData(configData []byte) error {
	schema, err := assets.ConfigSchema()
	if err != nil {
		return fmt.Errorf("failed to load config schema: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schema),
		gojsonschema.NewBytesLoader(configData),
	)
	if err != nil {
		return fmt.Errorf("%w: schema validation error: %w", ErrInvalidConfig, err)
	}

	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return fmt.Errorf("%w:\n%s", ErrInvalidConfig, strings.Join(problems, "\n"))
	}
	return nil
}
