// Package config handles TaskPilot configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./taskpilot.yaml, ~/.config/taskpilot/taskpilot.yaml,
// /etc/taskpilot/taskpilot.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"taskpilot.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "taskpilot", "taskpilot.yaml"))
	}

	paths = append(paths, "/etc/taskpilot/taskpilot.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
// Returns the path found, or an error if nothing was found.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config holds all TaskPilot configuration.
type Config struct {
	Listen   ListenConfig  `yaml:"listen"`
	Gateway  GatewayConfig `yaml:"gateway"`
	Agent    AgentConfig   `yaml:"agent"`
	DataDir  string        `yaml:"data_dir"`
	LogLevel string        `yaml:"log_level"`
}

// ListenConfig defines the API server settings.
type ListenConfig struct {
	Address string `yaml:"address"` // Bind address (default: "" = all interfaces)
	Port    int    `yaml:"port"`
}

// GatewayConfig defines the language-model gateway connection.
type GatewayConfig struct {
	// APIKey authenticates against the chat-completions API. Usually
	// supplied as ${OPENAI_API_KEY} and expanded from the environment.
	APIKey string `yaml:"api_key"`
	// BaseURL overrides the API endpoint (for proxies or compatible
	// local servers). Empty means the official OpenAI endpoint.
	BaseURL string `yaml:"base_url"`
	// Model is the chat model used for every task decision round.
	Model string `yaml:"model"`
}

// AgentConfig tunes the task state machine.
type AgentConfig struct {
	// MaxIterations caps the number of decide/execute round-trips per
	// task. A model that keeps requesting tools past this bound fails
	// the task instead of looping forever. Zero means the default (10).
	MaxIterations int `yaml:"max_iterations"`
}

// DatabasePath returns the task history database location under DataDir.
func (c *Config) DatabasePath() string {
	dir := c.DataDir
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, "tasks.db")
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns a default configuration.
func Default() *Config {
	return &Config{
		Listen: ListenConfig{Port: 8000},
		Gateway: GatewayConfig{
			Model: "gpt-4o-mini",
		},
		Agent: AgentConfig{MaxIterations: 10},
	}
}
