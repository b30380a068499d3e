// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigDir is the directory name for soulfra configuration.
	DefaultConfigDir = ".soulfra"
	// DefaultConfigFile is the default config file name.
	DefaultConfigFile = "config.yaml"
	// DefaultDBFile is the default database file name.
	DefaultDBFile = "accountability.db"
)

// Config holds static infrastructure configuration (read-only after init).
type Config struct {
	SQLite      SQLiteConfig      `yaml:"sqlite,omitempty"`
	Endorsement EndorsementConfig `yaml:"endorsement,omitempty"`
	Judges      JudgesConfig      `yaml:"judges,omitempty"`
}

// SQLiteConfig holds configuration for the SQLite store.
type SQLiteConfig struct {
	Path string `yaml:"path,omitempty"`
}

// EndorsementConfig holds configuration for the external endorsement
// platform and its cache.
type EndorsementConfig struct {
	// Namespace is the endorsement target, e.g. "Soulfra/soulfra".
	Namespace string `yaml:"namespace,omitempty"`
	// Token authenticates platform API calls (optional for public data,
	// but raises rate limits).
	Token string `yaml:"token,omitempty"`
	// TTLMinutes is how long a platform answer is reused.
	TTLMinutes int `yaml:"ttl_minutes,omitempty"`
	// StaleCeilingHours is the hard limit on serving cached answers when
	// the platform is unreachable.
	StaleCeilingHours int `yaml:"stale_ceiling_hours,omitempty"`
	// TimeoutSeconds bounds one platform call.
	TimeoutSeconds int `yaml:"timeout_seconds,omitempty"`
}

// JudgesConfig holds configuration for the consensus judging personas.
type JudgesConfig struct {
	APIKey string `yaml:"api_key,omitempty"`
	// Model is the default model for personas that don't set one.
	Model string `yaml:"model,omitempty"`
	// TimeoutSeconds bounds each persona call.
	TimeoutSeconds int `yaml:"timeout_seconds,omitempty"`
	// Personas are the independent judges consulted per adjudication.
	Personas []PersonaConfig `yaml:"personas,omitempty"`
}

// PersonaConfig describes one judging persona.
type PersonaConfig struct {
	ID string `yaml:"id"`
	// Prompt is the persona's judging stance, prepended to the shared
	// adjudication instructions.
	Prompt string `yaml:"prompt,omitempty"`
	// Model overrides the default model for this persona.
	Model string `yaml:"model,omitempty"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Endorsement: EndorsementConfig{
			Namespace:         "Soulfra/soulfra",
			TTLMinutes:        5,
			StaleCeilingHours: 24,
			TimeoutSeconds:    10,
		},
		Judges: JudgesConfig{
			Model:          "gpt-4o-mini",
			TimeoutSeconds: 30,
			Personas: []PersonaConfig{
				{ID: "strict-historian", Prompt: "You weigh only the shape of the edit history: frequency, timing, and how much each edit changed."},
				{ID: "good-faith-reader", Prompt: "You assume edits are honest corrections unless the history itself shows otherwise."},
				{ID: "pattern-skeptic", Prompt: "You look for edit patterns typical of retroactive rewording after a dispute."},
			},
		},
	}
}

// Load loads configuration from the .soulfra directory in the given path.
func Load(basePath string) (*Config, error) {
	configFile := ConfigFilePath(basePath)

	data, err := os.ReadFile(configFile)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s (run 'soulfra init' first)", configFile)
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Start with defaults
	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnvOverrides()

	if cfg.SQLite.Path == "" {
		cfg.SQLite.Path = DBPath(basePath)
	}

	return cfg, nil
}

// Write persists the config to the .soulfra directory in the given path.
func (c *Config) Write(basePath string) error {
	if err := os.MkdirAll(ConfigDir(basePath), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(ConfigFilePath(basePath), data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" && c.Judges.APIKey == "" {
		c.Judges.APIKey = key
	}
	if token := os.Getenv("GITHUB_TOKEN"); token != "" && c.Endorsement.Token == "" {
		c.Endorsement.Token = token
	}
}

// ConfigDir returns the path to the .soulfra config directory.
func ConfigDir(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir)
}

// ConfigFilePath returns the path to the config file.
func ConfigFilePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile)
}

// DBPath returns the default database path.
func DBPath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultDBFile)
}

// Exists checks if a soulfra config exists in the given path.
func Exists(basePath string) bool {
	_, err := os.Stat(ConfigFilePath(basePath))
	return err == nil
}
