package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for slackhook.
type Config struct {
	General  GeneralConfig  `json:"general" yaml:"general"`
	Adapters AdaptersConfig `json:"adapters" yaml:"adapters"`
	Metrics  MetricsConfig  `json:"metrics" yaml:"metrics"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
}

type GeneralConfig struct {
	Name     string `json:"name" yaml:"name"`         // robot name
	Adapter  string `json:"adapter" yaml:"adapter"`   // registered adapter key
	LogLevel string `json:"log_level" yaml:"log_level"`
	LogFile  string `json:"log_file" yaml:"log_file,omitempty"` // optional log file path
}

type AdaptersConfig struct {
	Slack SlackConfig `json:"slack" yaml:"slack"`
}

// SlackConfig configures the Slack incoming-webhook adapter.
type SlackConfig struct {
	IncomingURL   string `json:"incoming_url" yaml:"incoming_url,omitempty"` // default derived from team_domain
	IncomingToken string `json:"incoming_token" yaml:"incoming_token"`
	TeamDomain    string `json:"team_domain" yaml:"team_domain"`
	Username      string `json:"username" yaml:"username,omitempty"` // default display name
	AddMention    bool   `json:"add_mention" yaml:"add_mention"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Listen  string `json:"listen" yaml:"listen"`
}

// JournalConfig configures the optional SQLite delivery journal.
type JournalConfig struct {
	Enabled       bool   `json:"enabled" yaml:"enabled"`
	DBPath        string `json:"db_path" yaml:"db_path"`
	RetentionDays int    `json:"retention_days" yaml:"retention_days"`
}

// DefaultConfigDir returns the default config directory (~/.slackhook).
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".slackhook"
	}
	return filepath.Join(home, ".slackhook")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func Load(path string) (*Config, error) {
	path = ExpandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	// Substitute environment variables: ${VAR} and ${VAR:-default}
	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	cfg.General.LogFile = ExpandPath(cfg.General.LogFile)
	cfg.Journal.DBPath = ExpandPath(cfg.Journal.DBPath)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// ${VAR:-default} uses "default" when VAR is unset or empty; an unresolved
// ${VAR} without default is left as is.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		hasDefault := len(groups) >= 3 && groups[2] != ""

		val, exists := os.LookupEnv(groups[1])
		if !exists || val == "" {
			if hasDefault {
				return groups[2]
			}
			return match
		}
		return val
	})
}

func Save(path string, cfg *Config) error {
	path = ExpandPath(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}

	// The file holds the webhook token.
	return os.WriteFile(path, data, 0o600)
}

// Validate checks that the config has valid values.
func Validate(cfg *Config) error {
	var errs []string

	switch strings.ToLower(cfg.General.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, "general.log_level must be one of: debug, info, warn, error")
	}
	if cfg.General.Adapter == "" {
		errs = append(errs, "general.adapter is required")
	}

	if cfg.General.Adapter == "slack" {
		sc := cfg.Adapters.Slack
		unresolved := make(map[string]bool)
		for _, f := range []struct{ key, val string }{
			{"incoming_token", sc.IncomingToken},
			{"team_domain", sc.TeamDomain},
			{"incoming_url", sc.IncomingURL},
		} {
			if name := unresolvedVar(f.val); name != "" {
				errs = append(errs, fmt.Sprintf("adapters.slack.%s references unset environment variable %s", f.key, name))
				unresolved[f.key] = true
			}
		}
		if sc.IncomingToken == "" {
			errs = append(errs, "adapters.slack.incoming_token is required")
		}
		if sc.TeamDomain == "" {
			errs = append(errs, "adapters.slack.team_domain is required")
		}
		if sc.IncomingURL != "" && !unresolved["incoming_url"] {
			u, err := url.Parse(sc.IncomingURL)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				errs = append(errs, "adapters.slack.incoming_url must be an absolute http(s) URL")
			}
		}
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Listen == "" {
		errs = append(errs, "metrics.listen is required when metrics are enabled")
	}
	if cfg.Journal.Enabled {
		if cfg.Journal.DBPath == "" {
			errs = append(errs, "journal.db_path is required when the journal is enabled")
		}
		if cfg.Journal.RetentionDays < 1 {
			errs = append(errs, "journal.retention_days must be >= 1")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// unresolvedVar returns the name of the first ${VAR} left in s by
// ExpandEnvVars, or "" when there is none.
func unresolvedVar(s string) string {
	if m := envVarPattern.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return ""
}

// ExpandPath resolves ~/ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
