// Package config defines the flowmind configuration and its JSON loader.
package config

import (
	"encoding/json"
	"fmt"
)

// Config represents the main flowmind configuration
type Config struct {
	// HTTP server
	Server ServerConfig `json:"server" mapstructure:"server"`

	// Atom catalog directory
	AtomsDir string `json:"atoms_dir" mapstructure:"atoms_dir"`

	// Watch the atom catalog for changes
	WatchAtoms bool `json:"watch_atoms" mapstructure:"watch_atoms"`

	// Run history
	History HistoryConfig `json:"history" mapstructure:"history"`

	// Plan generation
	Planner PlannerConfig `json:"planner" mapstructure:"planner"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// Data directory
	DataDir string `json:"data_dir" mapstructure:"data_dir"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `json:"host" mapstructure:"host"`
	Port int    `json:"port" mapstructure:"port"`
}

// HistoryConfig holds run history configuration
type HistoryConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Path    string `json:"path" mapstructure:"path"`
}

// PlannerConfig holds plan generation configuration. Provider may be empty,
// in which case the canned fallback plan is used.
type PlannerConfig struct {
	Provider string `json:"provider" mapstructure:"provider"` // openai, anthropic, or empty
	Model    string `json:"model" mapstructure:"model"`
	APIKey   string `json:"api_key" mapstructure:"api_key"`
	BaseURL  string `json:"base_url" mapstructure:"base_url"` // OpenAI-compatible endpoints only
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `json:"level" mapstructure:"level"`
	File   string `json:"file" mapstructure:"file"`
	Pretty bool   `json:"pretty" mapstructure:"pretty"`
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		AtomsDir:   "atoms",
		WatchAtoms: true,
		History: HistoryConfig{
			Enabled: true,
		},
		Planner: PlannerConfig{
			Provider: "",
			Model:    "gpt-4o-mini",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Pretty: true,
		},
	}
}

// String returns a JSON representation of the config
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Planner.Provider {
	case "", "openai", "anthropic":
	default:
		return fmt.Errorf("invalid planner provider %q (must be: openai, anthropic, or empty)", c.Planner.Provider)
	}
	if c.Planner.Provider != "" && c.Planner.APIKey == "" {
		return fmt.Errorf("planner provider %s requires an api_key", c.Planner.Provider)
	}

	return nil
}
