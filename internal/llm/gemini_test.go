package llm

import (
	"testing"
)

func TestGeminiModelAliases(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"gemini-flash", "gemini-2.5-flash"},
		{"gemini-pro", "gemini-2.5-pro"},
		{"gemini-2.0-flash", "gemini-2.0-flash"}, // Pass-through
	}
	for _, tt := range tests {
		got := resolveModel(tt.input, geminiModels)
		if got != tt.expected {
			t.Errorf("resolveModel(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestBuildGeminiSchema(t *testing.T) {
	def := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"skill": map[string]any{"type": "string"},
			"score": map[string]any{"type": "number"},
			"band":  map[string]any{"type": "string", "enum": []any{"novice", "working", "strong"}},
			"saliences": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "number"},
			},
		},
		"required": []any{"skill", "score"},
	}

	schema := buildGeminiSchema(def)

	if schema.Type != "OBJECT" {
		t.Fatalf("expected OBJECT type, got %s", schema.Type)
	}
	if len(schema.Properties) != 4 {
		t.Fatalf("expected 4 properties, got %d", len(schema.Properties))
	}
	if schema.Properties["skill"].Type != "STRING" {
		t.Fatalf("expected STRING for skill, got %s", schema.Properties["skill"].Type)
	}
	if schema.Properties["score"].Type != "NUMBER" {
		t.Fatalf("expected NUMBER for score, got %s", schema.Properties["score"].Type)
	}
	if len(schema.Properties["band"].Enum) != 3 {
		t.Fatalf("expected 3 enum values, got %d", len(schema.Properties["band"].Enum))
	}
	if schema.Properties["saliences"].Type != "ARRAY" {
		t.Fatalf("expected ARRAY for saliences, got %s", schema.Properties["saliences"].Type)
	}
	if schema.Properties["saliences"].Items.Type != "NUMBER" {
		t.Fatalf("expected NUMBER for saliences items, got %s", schema.Properties["saliences"].Items.Type)
	}
	if len(schema.Required) != 2 {
		t.Fatalf("expected 2 required fields, got %d", len(schema.Required))
	}
}
