package conf

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// PromptsConfig contains all prompt configurations loaded from YAML
type PromptsConfig struct {
	Persona PersonaPrompts `yaml:"persona"`
	Reply   ReplyPrompts   `yaml:"reply"`
}

// PersonaPrompts contains model-facing prompt text
type PersonaPrompts struct {
	SystemPrompt   string `yaml:"system_prompt"`
	HeaderTemplate string `yaml:"header_template"`
	LengthHint     string `yaml:"length_hint"`
}

// ReplyPrompts contains user-facing canned replies
type ReplyPrompts struct {
	Apology string `yaml:"apology"`
}

// LoadPromptsConfig loads prompts configuration from YAML file
func LoadPromptsConfig(configPath string) (*PromptsConfig, error) {
	// Try multiple paths
	paths := []string{configPath}
	if configPath == "" {
		paths = []string{
			"configs/prompts.yaml",
			"./configs/prompts.yaml",
			"/etc/meshtastic-llm-bridge/prompts.yaml",
		}
		if execPath, err := os.Executable(); err == nil {
			paths = append(paths, filepath.Join(filepath.Dir(execPath), "configs", "prompts.yaml"))
		}
	}

	var data []byte
	var loadedPath string

	for _, p := range paths {
		if p == "" {
			continue
		}
		if b, err := os.ReadFile(p); err == nil {
			data = b
			loadedPath = p
			break
		}
	}

	if data == nil {
		// Return default config if no file found
		log.Println("[Config] No prompts.yaml found, using defaults")
		return DefaultPromptsConfig(), nil
	}

	log.Printf("[Config] Loading prompts from: %s", loadedPath)

	var config PromptsConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse prompts.yaml: %w", err)
	}

	config.fillDefaults()

	return &config, nil
}

// fillDefaults fills in default values for empty fields
func (c *PromptsConfig) fillDefaults() {
	defaults := DefaultPromptsConfig()

	if c.Persona.SystemPrompt == "" {
		c.Persona.SystemPrompt = defaults.Persona.SystemPrompt
	}
	if c.Persona.HeaderTemplate == "" {
		c.Persona.HeaderTemplate = defaults.Persona.HeaderTemplate
	}
	if c.Persona.LengthHint == "" {
		c.Persona.LengthHint = defaults.Persona.LengthHint
	}
	if c.Reply.Apology == "" {
		c.Reply.Apology = defaults.Reply.Apology
	}
}

// FormatHeader formats the prompt header with sender and channel context
func (c *PromptsConfig) FormatHeader(senderName, senderID, channelLabel string) string {
	result := c.Persona.HeaderTemplate
	result = strings.ReplaceAll(result, "{{sender_name}}", senderName)
	result = strings.ReplaceAll(result, "{{sender_id}}", senderID)
	result = strings.ReplaceAll(result, "{{channel}}", channelLabel)
	return strings.TrimSpace(result)
}

// FormatLengthHint formats the reply-length instruction
func (c *PromptsConfig) FormatLengthHint(maxChars int) string {
	return strings.ReplaceAll(c.Persona.LengthHint, "{{max_chars}}", fmt.Sprintf("%d", maxChars))
}

// DefaultPromptsConfig returns the default prompts configuration
func DefaultPromptsConfig() *PromptsConfig {
	return &PromptsConfig{
		Persona: PersonaPrompts{
			// Mesh packets are tiny; the persona exists to keep the model
			// terse before the hard length cap does it the ugly way.
			SystemPrompt: "You are a helpful assistant reachable over a low-bandwidth mesh radio. Reply briefly, in 10 words or less when possible. Plain text only, no markdown.",
			HeaderTemplate: `Sender: {{sender_name}}
Sender ID: {{sender_id}}
Channel: {{channel}}`,
			LengthHint: "Reply in {{max_chars}} characters or less.",
		},
		Reply: ReplyPrompts{
			Apology: "Sorry, I couldn't generate a reply right now.",
		},
	}
}
