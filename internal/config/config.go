// Package config loads budgetbook.yaml, applies environment overrides and
// validates the result once at startup.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/budgetbook/internal/id"
)

// FileName is the config file name inside the data directory.
const FileName = "budgetbook.yaml"

// Mapping store backends.
const (
	BackendCSV    = "csv"
	BackendSQLite = "sqlite"
)

const minSecretLen = 16

// Config represents the top-level budgetbook.yaml configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Users    []string       `yaml:"users"`
	Banks    []Bank         `yaml:"banks,omitempty"`
	Mappings MappingsConfig `yaml:"mappings"`
	Workflow WorkflowConfig `yaml:"workflow"`
	Events   EventsConfig   `yaml:"events"`
	Git      GitConfig      `yaml:"git"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig controls logging output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Bank is a statement source: a display name and the normalizer for its
// export format.
type Bank struct {
	Name   string `yaml:"name"`
	Format string `yaml:"format"`
}

// MappingsConfig selects the mapping store backend.
type MappingsConfig struct {
	Backend    string `yaml:"backend"`
	SQLitePath string `yaml:"sqlite_path,omitempty"`
}

// WorkflowConfig holds the resume token secret.
type WorkflowConfig struct {
	TokenSecret string `yaml:"token_secret"`
}

// EventsConfig configures event publishing. An empty URL disables it.
type EventsConfig struct {
	AMQPURL  string `yaml:"amqp_url,omitempty"`
	Exchange string `yaml:"exchange"`
}

// GitConfig controls git integration.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Path returns the config file location for a data directory.
func Path(dataDir string) string {
	return filepath.Join(dataDir, FileName)
}

// Load reads a budgetbook.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config for a new data directory with a fresh token
// secret.
func Default(users ...string) *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080"},
		Log:    LogConfig{Level: "info"},
		Users:  users,
		Banks: []Bank{
			{Name: "Normalized CSV", Format: "lines"},
			{Name: "Chase", Format: "chase"},
		},
		Mappings: MappingsConfig{Backend: BackendCSV},
		Workflow: WorkflowConfig{TokenSecret: strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")},
		Events:   EventsConfig{Exchange: "budgetbook"},
		Git: GitConfig{
			AutoCommit:  true,
			AuthorName:  "Budget Book",
			AuthorEmail: "books@budgetbook.local",
		},
	}
}

// env overrides, applied after the file is read.
var envOverrides = []struct {
	key   string
	apply func(*Config, string)
}{
	{"BUDGETBOOK_ADDR", func(c *Config, v string) { c.Server.Addr = v }},
	{"BUDGETBOOK_LOG_LEVEL", func(c *Config, v string) { c.Log.Level = v }},
	{"BUDGETBOOK_TOKEN_SECRET", func(c *Config, v string) { c.Workflow.TokenSecret = v }},
	{"BUDGETBOOK_AMQP_URL", func(c *Config, v string) { c.Events.AMQPURL = v }},
	{"BUDGETBOOK_MAPPINGS_BACKEND", func(c *Config, v string) { c.Mappings.Backend = v }},
}

// ApplyEnv overrides file values with the non-empty BUDGETBOOK_* variables
// returned by getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	for _, o := range envOverrides {
		if v := getenv(o.key); v != "" {
			o.apply(c, v)
		}
	}
}

// HasUser reports whether name is a configured participant.
func (c *Config) HasUser(name string) bool {
	for _, u := range c.Users {
		if u == name {
			return true
		}
	}
	return false
}

// Bank returns the bank with the given name.
func (c *Config) Bank(name string) (Bank, bool) {
	for _, b := range c.Banks {
		if b.Name == name {
			return b, true
		}
	}
	return Bank{}, false
}

// SQLitePath resolves the mapping database path against dataDir.
func (c *Config) SQLitePath(dataDir string) string {
	p := c.Mappings.SQLitePath
	if p == "" {
		p = filepath.Join("mappings", "mappings.db")
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dataDir, p)
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Addr == "" {
		problems = append(problems, "server address cannot be empty")
	}

	if len(c.Users) == 0 {
		problems = append(problems, "at least one user is required")
	}
	seen := make(map[string]bool)
	for _, u := range c.Users {
		if err := id.ValidateName("user", u); err != nil {
			problems = append(problems, err.Error())
		}
		if seen[u] {
			problems = append(problems, fmt.Sprintf("duplicate user %q", u))
		}
		seen[u] = true
	}

	banks := make(map[string]bool)
	for _, b := range c.Banks {
		if b.Name == "" || b.Format == "" {
			problems = append(problems, fmt.Sprintf("bank %q needs a name and a format", b.Name))
		}
		if banks[b.Name] {
			problems = append(problems, fmt.Sprintf("duplicate bank %q", b.Name))
		}
		banks[b.Name] = true
	}

	switch c.Mappings.Backend {
	case BackendCSV, BackendSQLite:
	default:
		problems = append(problems, fmt.Sprintf("invalid mappings backend %q: must be %q or %q",
			c.Mappings.Backend, BackendCSV, BackendSQLite))
	}

	if len(c.Workflow.TokenSecret) < minSecretLen {
		problems = append(problems, fmt.Sprintf("token secret must be at least %d characters", minSecretLen))
	}

	if c.Events.AMQPURL != "" {
		if u, err := url.Parse(c.Events.AMQPURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL: %v", err))
		} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme %q: must be amqp or amqps", u.Scheme))
		}
		if c.Events.Exchange == "" {
			problems = append(problems, "AMQP exchange cannot be empty when an AMQP URL is set")
		}
	}

	if c.Git.AutoCommit && (c.Git.AuthorName == "" || c.Git.AuthorEmail == "") {
		problems = append(problems, "git author name and email are required for auto commit")
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}
