package config

import (
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv   = "STILL_CONFIG"
	forumAPIURLEnv  = "STILL_FORUM_API_URL"
	forumAPIKeyEnv  = "STILL_FORUM_API_KEY"
	groqKeyEnv      = "GROQ_API_KEY"
	anthropicKeyEnv = "ANTHROPIC_API_KEY"
)

// Config holds all still configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Forum     ForumConfig     `yaml:"forum"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	LLM       LLMConfig       `yaml:"llm"`
}

type ServerConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

// ForumConfig selects the content store. When APIURL is set the remote
// Foru.ms-style API is used; otherwise the local sqlite store at Path.
type ForumConfig struct {
	APIURL         string `yaml:"apiUrl"`
	APIKey         string `yaml:"apiKey"`
	Path           string `yaml:"path"`           // resolved at runtime via store.DefaultDBPath()
	TimeoutSeconds int    `yaml:"timeoutSeconds"` // per-call bound on remote API requests
}

type SchedulerConfig struct {
	Enabled         bool `yaml:"enabled"`
	IntervalMinutes int  `yaml:"intervalMinutes"`
}

type LLMConfig struct {
	Provider     string `yaml:"provider"` // "groq", "anthropic", "ollama"
	Model        string `yaml:"model"`
	GroqKey      string `yaml:"groqKey"`
	AnthropicKey string `yaml:"anthropicKey"`
	OllamaURL    string `yaml:"ollamaUrl"`
	OllamaModel  string `yaml:"ollamaModel"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 8484,
		},
		Forum: ForumConfig{
			TimeoutSeconds: 30,
		},
		Scheduler: SchedulerConfig{
			Enabled:         true,
			IntervalMinutes: 60,
		},
		LLM: LLMConfig{
			Provider: "groq",
		},
	}
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := Default()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else if err := yaml.Unmarshal(raw, &cfg); err != nil {
			log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			cfg = Default()
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(forumAPIURLEnv); v != "" {
		c.Forum.APIURL = v
	}
	if v := os.Getenv(forumAPIKeyEnv); v != "" {
		c.Forum.APIKey = v
	}
	if v := os.Getenv(groqKeyEnv); v != "" {
		c.LLM.Provider = "groq"
		c.LLM.GroqKey = v
	} else if v := os.Getenv(anthropicKeyEnv); v != "" {
		c.LLM.Provider = "anthropic"
		c.LLM.AnthropicKey = v
	}
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}
