package assets

import (
	"encoding/json"
	"io/fs"
	"testing"
)

func TestGetTemplatesFS(t *testing.T) {
	fsys := GetTemplatesFS()
	if fsys == nil {
		t.Fatal("GetTemplatesFS returned nil")
	}

	data, err := fs.ReadFile(fsys, "readme/README.md")
	if err != nil {
		t.Fatalf("Failed to read README template: %v", err)
	}
	if len(data) == 0 {
		t.Error("README template is empty")
	}
}

func TestRegistryEntriesExist(t *testing.T) {
	for _, a := range Registry {
		if _, err := fs.Stat(GetTemplatesFS(), a.Path); err != nil {
			t.Errorf("registry entry %s (%s) missing: %v", a.Kind, a.Path, err)
		}
	}
}

func TestLookup(t *testing.T) {
	a, ok := Lookup(".github/ISSUE_TEMPLATE.md")
	if !ok || a.Kind != "issue_template" {
		t.Fatalf("Lookup(.github/ISSUE_TEMPLATE.md) = %+v, %v", a, ok)
	}
	if _, ok := Lookup("NOPE.md"); ok {
		t.Error("Lookup should miss unknown targets")
	}
}

func TestConfigSchemaIsJSON(t *testing.T) {
	data, err := ConfigSchema()
	if err != nil {
		t.Fatalf("ConfigSchema() failed: %v", err)
	}
	var v map[string]interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("config schema is not valid JSON: %v", err)
	}
}
