// Package config provides YAML-based configuration loading for slidegen.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML configs can use duration strings
// like "10m" or "24h".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q", raw)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the top-level slidegen configuration, loaded from slidegen.yaml.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Engine   EngineConfig   `yaml:"engine"`
	LLM      LLMConfig      `yaml:"llm"`
	Janitor  JanitorConfig  `yaml:"janitor"`
	Notify   NotifyConfig   `yaml:"notify"`
}

// DatabaseConfig selects and configures the storage backend. The sqlite
// driver needs only a path; mysql needs host/name credentials.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// ServerConfig holds HTTP gateway settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// EngineConfig sizes the generation engine.
type EngineConfig struct {
	Workers   int `yaml:"workers"`
	QueueSize int `yaml:"queue_size"`
}

// LLMConfig points the generation pipeline at an OpenAI-compatible
// chat-completions endpoint.
type LLMConfig struct {
	BaseURL  string   `yaml:"base_url"`
	APIKey   string   `yaml:"api_key"`
	Model    string   `yaml:"model"`
	Timeout  Duration `yaml:"timeout"`
	MaxTurns int      `yaml:"max_turns"`
}

// JanitorConfig controls crash recovery and retention.
type JanitorConfig struct {
	StaleAfter        Duration `yaml:"stale_after"`
	ReconcileInterval Duration `yaml:"reconcile_interval"`
	SweepSchedule     string   `yaml:"sweep_schedule"`
	Retention         Duration `yaml:"retention"`
}

// NotifyConfig configures operator notifications. Empty fields disable the
// corresponding channel.
type NotifyConfig struct {
	Command      string `yaml:"command"`
	SlackToken   string `yaml:"slack_token"`
	SlackChannel string `yaml:"slack_channel"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default is the configuration a missing file would produce: sqlite in the
// working directory, one worker, hourly sweeps.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// applyDefaults fills in default values for everything left unset.
func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Driver == "sqlite" && c.Database.Path == "" {
		c.Database.Path = "slidegen.db"
	}
	if c.Database.Driver == "mysql" {
		if c.Database.Host == "" {
			c.Database.Host = "127.0.0.1"
		}
		if c.Database.Port == 0 {
			c.Database.Port = 3306
		}
		if c.Database.User == "" {
			c.Database.User = "root"
		}
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Engine.Workers == 0 {
		c.Engine.Workers = 1
	}
	if c.Engine.QueueSize == 0 {
		c.Engine.QueueSize = 32
	}
	if c.LLM.Timeout == 0 {
		c.LLM.Timeout = Duration(60 * time.Second)
	}
	if c.LLM.MaxTurns == 0 {
		c.LLM.MaxTurns = 16
	}
	if c.Janitor.StaleAfter == 0 {
		c.Janitor.StaleAfter = Duration(10 * time.Minute)
	}
	if c.Janitor.ReconcileInterval == 0 {
		c.Janitor.ReconcileInterval = Duration(5 * time.Minute)
	}
	if c.Janitor.SweepSchedule == "" {
		c.Janitor.SweepSchedule = "0 * * * *"
	}
	if c.Janitor.Retention == 0 {
		c.Janitor.Retention = Duration(24 * time.Hour)
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			errs = append(errs, "database.path is required for sqlite")
		}
	case "mysql":
		if c.Database.Name == "" {
			errs = append(errs, "database.name is required for mysql")
		}
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q is not supported (sqlite, mysql)", c.Database.Driver))
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	if c.Engine.Workers < 1 {
		errs = append(errs, "engine.workers must be at least 1")
	}
	if c.Engine.QueueSize < 1 {
		errs = append(errs, "engine.queue_size must be at least 1")
	}
	if c.Janitor.StaleAfter < 0 {
		errs = append(errs, "janitor.stale_after must be positive")
	}
	if c.Janitor.ReconcileInterval < 0 {
		errs = append(errs, "janitor.reconcile_interval must be positive")
	}
	if c.Janitor.Retention < 0 {
		errs = append(errs, "janitor.retention must be positive")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
