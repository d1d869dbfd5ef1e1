package conf

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration
type Config struct {
	// Mesh transport configuration
	Mesh MeshConfig

	// Ollama configuration
	Ollama OllamaConfig

	// Admission policy configuration
	Admission AdmissionConfig

	// Duplicate suppression window (0 disables)
	DedupWindow time.Duration

	// Conversation memory configuration
	Conversation ConversationConfig

	// Reply configuration
	Reply ReplyConfig

	// Data directory for the sqlite store
	DataDir string

	// Prompts configuration (loaded from YAML)
	Prompts *PromptsConfig

	// Debug mode
	Debug bool
}

// MeshConfig contains mesh daemon connection settings
type MeshConfig struct {
	Host string // host:port of the mesh daemon socket
}

// OllamaConfig contains model endpoint settings
type OllamaConfig struct {
	Host           string // base URL, e.g. http://localhost:11434
	Model          string
	MaxAttempts    int
	AttemptTimeout time.Duration
}

// AdmissionConfig contains the static accept/reject policy values
type AdmissionConfig struct {
	TriggerPrefix   string
	DMOnly          bool
	AllowedChannels []int
	AllowedSenders  []string
}

// ConversationConfig contains memory window and retention settings
type ConversationConfig struct {
	MemoryTurns    int // turn pairs included as model context
	RetentionTurns int // stored turns kept per sender
}

// ReplyConfig contains outbound reply settings
type ReplyConfig struct {
	MaxChars       int  // completion length cap before composing
	TransportLimit int  // single mesh message payload limit
	ReplyOnFailure bool // send a short apology instead of silence
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Mesh: MeshConfig{
			Host: getEnv("MESH_HOST", "localhost:4403"),
		},
		Ollama: OllamaConfig{
			Host:           getEnv("OLLAMA_HOST", "http://localhost:11434"),
			Model:          getEnv("OLLAMA_MODEL", "mistral"),
			MaxAttempts:    getEnvInt("MAX_ATTEMPTS", 3),
			AttemptTimeout: time.Duration(getEnvInt("ATTEMPT_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		Admission: AdmissionConfig{
			TriggerPrefix:  getEnv("TRIGGER_PREFIX", "!ai "),
			DMOnly:         os.Getenv("RESPOND_TO_DMS_ONLY") == "true",
			AllowedSenders: parseCSV(os.Getenv("ALLOWED_SENDERS")),
		},
		DedupWindow: time.Duration(getEnvInt("DEDUP_WINDOW_SECONDS", 60)) * time.Second,
		Conversation: ConversationConfig{
			MemoryTurns:    getEnvInt("MEMORY_TURNS", 6),
			RetentionTurns: getEnvInt("RETENTION_TURNS", 200),
		},
		Reply: ReplyConfig{
			MaxChars:       getEnvInt("MAX_REPLY_CHARS", 200),
			TransportLimit: getEnvInt("TRANSPORT_LIMIT", 200),
			ReplyOnFailure: os.Getenv("REPLY_ON_FAILURE") == "true",
		},
		DataDir: getEnv("DATA_DIR", "./data"),
		Debug:   os.Getenv("DEBUG") == "true",
	}

	channels, err := parseChannels(os.Getenv("ALLOWED_CHANNELS"))
	if err != nil {
		return nil, err
	}
	cfg.Admission.AllowedChannels = channels

	if cfg.Reply.MaxChars <= 0 {
		return nil, fmt.Errorf("MAX_REPLY_CHARS must be > 0, got %d", cfg.Reply.MaxChars)
	}
	if cfg.Reply.TransportLimit <= 0 {
		return nil, fmt.Errorf("TRANSPORT_LIMIT must be > 0, got %d", cfg.Reply.TransportLimit)
	}
	if cfg.Conversation.MemoryTurns <= 0 {
		return nil, fmt.Errorf("MEMORY_TURNS must be > 0, got %d", cfg.Conversation.MemoryTurns)
	}
	if cfg.Ollama.MaxAttempts <= 0 {
		return nil, fmt.Errorf("MAX_ATTEMPTS must be > 0, got %d", cfg.Ollama.MaxAttempts)
	}

	// Load prompts from YAML (falls back to built-in defaults)
	prompts, err := LoadPromptsConfig(os.Getenv("PROMPTS_CONFIG"))
	if err != nil {
		return nil, fmt.Errorf("load prompts config: %w", err)
	}
	cfg.Prompts = prompts

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

// parseCSV splits a comma-separated value, trimming entries and dropping
// empties
func parseCSV(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

func parseChannels(value string) ([]int, error) {
	var channels []int
	for _, item := range parseCSV(value) {
		ch, err := strconv.Atoi(item)
		if err != nil {
			return nil, fmt.Errorf("invalid channel value %q in ALLOWED_CHANNELS", item)
		}
		channels = append(channels, ch)
	}
	return channels, nil
}
