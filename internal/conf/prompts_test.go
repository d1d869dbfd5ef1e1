package conf

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFormatHeader(t *testing.T) {
	prompts := DefaultPromptsConfig()
	header := prompts.FormatHeader("ALPH", "!aa11", "DM")

	for _, want := range []string{"ALPH", "!aa11", "DM"} {
		if !strings.Contains(header, want) {
			t.Errorf("header %q missing %q", header, want)
		}
	}
	if strings.Contains(header, "{{") {
		t.Errorf("header %q has unexpanded placeholders", header)
	}
}

func TestFormatLengthHint(t *testing.T) {
	prompts := DefaultPromptsConfig()
	hint := prompts.FormatLengthHint(200)
	if !strings.Contains(hint, "200") {
		t.Errorf("length hint %q does not carry the limit", hint)
	}
}

func TestLoadPromptsConfigFillsMissingFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prompts.yaml")
	partial := "persona:\n  system_prompt: \"Custom persona.\"\n"
	if err := os.WriteFile(path, []byte(partial), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}

	prompts, err := LoadPromptsConfig(path)
	if err != nil {
		t.Fatalf("LoadPromptsConfig() error: %v", err)
	}
	if prompts.Persona.SystemPrompt != "Custom persona." {
		t.Errorf("SystemPrompt = %q, file value lost", prompts.Persona.SystemPrompt)
	}
	if prompts.Persona.HeaderTemplate == "" || prompts.Reply.Apology == "" {
		t.Error("missing fields were not filled from defaults")
	}
}

func TestLoadPromptsConfigRejectsBadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prompts.yaml")
	if err := os.WriteFile(path, []byte("persona: [not: valid"), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}

	if _, err := LoadPromptsConfig(path); err == nil {
		t.Fatal("LoadPromptsConfig() accepted malformed yaml")
	}
}
