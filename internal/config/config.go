// ABOUTME: Configuration loading and parsing for automation-console
// ABOUTME: Supports YAML or TOML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Hub server types. Galaxy servers expose the hub API under a different prefix.
const (
	HubTypeHub    = "hub"
	HubTypeGalaxy = "galaxy"
)

// Config represents the complete automation-console configuration
type Config struct {
	Servers  ServersConfig  `yaml:"servers" toml:"servers"`
	Auth     AuthConfig     `yaml:"auth" toml:"auth"`
	Views    ViewsConfig    `yaml:"views" toml:"views"`
	Tasks    TasksConfig    `yaml:"tasks" toml:"tasks"`
	Database DatabaseConfig `yaml:"database" toml:"database"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
}

// ServersConfig holds the base location of every backend the console talks to
type ServersConfig struct {
	Controller ServerConfig `yaml:"controller" toml:"controller"`
	EDA        ServerConfig `yaml:"eda" toml:"eda"`
	Hub        ServerConfig `yaml:"hub" toml:"hub"`
}

// ServerConfig holds one backend's URL and API prefix
type ServerConfig struct {
	URL       string `yaml:"url" toml:"url"`
	APIPrefix string `yaml:"api_prefix" toml:"api_prefix"`
	Type      string `yaml:"type" toml:"type"` // hub only: "hub" or "galaxy"
}

// AuthConfig holds request authentication settings
type AuthConfig struct {
	Token      string `yaml:"token" toml:"token"`
	CSRFCookie string `yaml:"csrf_cookie" toml:"csrf_cookie"`
	CSRFHeader string `yaml:"csrf_header" toml:"csrf_header"`
}

// ViewsConfig holds list view defaults
type ViewsConfig struct {
	PerPage            int           `yaml:"per_page" toml:"per_page"`
	DisableQuerySync   bool          `yaml:"disable_query_sync" toml:"disable_query_sync"`
	RevalidateInterval time.Duration `yaml:"-" toml:"-"`

	RevalidateIntervalRaw string `yaml:"revalidate_interval" toml:"revalidate_interval"`
}

// TasksConfig holds task polling settings
type TasksConfig struct {
	PollDelay         time.Duration `yaml:"-" toml:"-"`
	MaxRetries        int           `yaml:"max_retries" toml:"max_retries"`
	MaxNetworkRetries int           `yaml:"max_network_retries" toml:"max_network_retries"`

	PollDelayRaw string `yaml:"poll_delay" toml:"poll_delay"`
}

// DatabaseConfig holds the local SQLite database location
type DatabaseConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// Default returns a configuration with every optional field set.
// Server URLs are left empty and must come from the file.
func Default() *Config {
	return &Config{
		Servers: ServersConfig{
			Controller: ServerConfig{APIPrefix: "/api/v2"},
			EDA:        ServerConfig{APIPrefix: "/api/eda/v1"},
			Hub:        ServerConfig{Type: HubTypeHub},
		},
		Auth: AuthConfig{
			CSRFCookie: "csrftoken",
			CSRFHeader: "X-CSRFToken",
		},
		Views: ViewsConfig{
			PerPage:            10,
			RevalidateInterval: 30 * time.Second,
		},
		Tasks: TasksConfig{
			PollDelay:         100 * time.Millisecond,
			MaxRetries:        10,
			MaxNetworkRetries: 3,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Files ending in .toml are decoded as TOML, everything else as YAML.
// Environment variables in the format ${VAR_NAME} are expanded.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := expandEnvVars(string(data))

	cfg := Default()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(expanded, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.Database.Path = expandHome(cfg.Database.Path)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// expandHome turns a leading ~/ into the user's home directory
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	servers := []struct {
		name string
		cfg  ServerConfig
	}{
		{"servers.controller", c.Servers.Controller},
		{"servers.eda", c.Servers.EDA},
		{"servers.hub", c.Servers.Hub},
	}

	configured := 0
	for _, s := range servers {
		if s.cfg.URL == "" {
			continue
		}
		configured++
		u, err := url.Parse(s.cfg.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%s.url must be an absolute http(s) URL, got %q", s.name, s.cfg.URL)
		}
	}
	if configured == 0 {
		return fmt.Errorf("at least one of servers.controller, servers.eda, servers.hub is required")
	}

	if c.Servers.Hub.Type != HubTypeHub && c.Servers.Hub.Type != HubTypeGalaxy {
		return fmt.Errorf("servers.hub.type must be %q or %q, got %q", HubTypeHub, HubTypeGalaxy, c.Servers.Hub.Type)
	}

	if c.Views.PerPage < 1 {
		return fmt.Errorf("views.per_page must be at least 1")
	}
	if c.Views.RevalidateInterval <= 0 {
		return fmt.Errorf("views.revalidate_interval must be positive")
	}

	if c.Tasks.MaxRetries < 1 {
		return fmt.Errorf("tasks.max_retries must be at least 1")
	}
	if c.Tasks.MaxNetworkRetries < 0 {
		return fmt.Errorf("tasks.max_network_retries must not be negative")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Views.RevalidateIntervalRaw != "" {
		cfg.Views.RevalidateInterval, err = time.ParseDuration(cfg.Views.RevalidateIntervalRaw)
		if err != nil {
			return fmt.Errorf("parsing revalidate_interval %q: %w", cfg.Views.RevalidateIntervalRaw, err)
		}
	}

	if cfg.Tasks.PollDelayRaw != "" {
		cfg.Tasks.PollDelay, err = time.ParseDuration(cfg.Tasks.PollDelayRaw)
		if err != nil {
			return fmt.Errorf("parsing poll_delay %q: %w", cfg.Tasks.PollDelayRaw, err)
		}
	}

	return nil
}
