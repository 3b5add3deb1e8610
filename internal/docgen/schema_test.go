package docgen

import (
	"encoding/json"
	"testing"
)

func schemaJSON(t *testing.T, withComments bool) map[string]any {
	t.Helper()
	s, err := GenerateConfigSchema(withComments)
	if err != nil {
		t.Fatalf("GenerateConfigSchema: %v", err)
	}
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return raw
}

func defProperties(t *testing.T, raw map[string]any, name string) map[string]any {
	t.Helper()
	defs, ok := raw["$defs"].(map[string]any)
	if !ok {
		t.Fatal("no $defs")
	}
	def, ok := defs[name].(map[string]any)
	if !ok {
		t.Fatalf("no %s definition", name)
	}
	props, ok := def["properties"].(map[string]any)
	if !ok {
		t.Fatalf("%s has no properties", name)
	}
	return props
}

func TestConfigSchemaUsesTOMLNames(t *testing.T) {
	raw := schemaJSON(t, false)
	if raw["title"] != "mpfs configuration" {
		t.Errorf("title = %v", raw["title"])
	}
	props := defProperties(t, raw, "Config")
	for _, want := range []string{"device", "sync", "state"} {
		if _, ok := props[want]; !ok {
			t.Errorf("missing Config property %q", want)
		}
	}
	for _, bad := range []string{"Device", "Root"} {
		if _, ok := props[bad]; ok {
			t.Errorf("unexpected property %q", bad)
		}
	}
	sync := defProperties(t, raw, "Sync")
	for _, want := range []string{"source", "ignore_file", "watch_debounce"} {
		if _, ok := sync[want]; !ok {
			t.Errorf("missing Sync property %q", want)
		}
	}
	src := sync["source"].(map[string]any)
	if src["default"] != "src" {
		t.Errorf("source default = %v", src["default"])
	}
}

func TestConfigSchemaDescriptions(t *testing.T) {
	raw := schemaJSON(t, true)
	dev := defProperties(t, raw, "Device")
	tool, ok := dev["tool"].(map[string]any)
	if !ok {
		t.Fatal("Device.tool missing")
	}
	if desc, _ := tool["description"].(string); desc == "" {
		t.Error("Device.tool has no description from doc comments")
	}
}
