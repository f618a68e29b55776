package assets

import (
	"embed"
	"io/fs"
)

// Onboarding templates, keyed by kind directory (readme, contributing, github).

//go:embed embedded_templates
var Templates embed.FS

//go:embed embedded_schemas
var Schemas embed.FS

// ConfigSchemaPath is the config schema path inside GetSchemasFS.
const ConfigSchemaPath = "config/ocsetup-config.schema.json"

func GetTemplatesFS() fs.FS {
	if sub, err := fs.Sub(Templates, "embedded_templates"); err == nil {
		return sub
	}
	return Templates
}

func GetSchemasFS() fs.FS {
	if sub, err := fs.Sub(Schemas, "embedded_schemas"); err == nil {
		return sub
	}
	return Schemas
}

// ConfigSchema returns the embedded configuration JSON schema.
func ConfigSchema() ([]byte, error) {
	return fs.ReadFile(GetSchemasFS(), ConfigSchemaPath)
}
