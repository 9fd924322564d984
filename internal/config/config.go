// Package config provides YAML configuration loading with environment
// variable overrides for the email gateway, plus the startup validation
// that refuses to serve with an incomplete provider or routing setup.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the complete application configuration. It is loaded
// once at process start and treated as immutable afterwards.
type Config struct {
	Listen      string                `yaml:"listen"`
	DefaultFrom string                `yaml:"default_from"`
	Logging     LoggingConfig         `yaml:"logging"`
	Providers   map[string]Credential `yaml:"providers"`
	Routes      map[string]Route      `yaml:"routes"`
}

// Credential is the account identity for one provider nickname.
type Credential struct {
	User string `yaml:"user"`
	Key  string `yaml:"key"`
}

// Route is one named routing policy: ordered regex rules plus the
// mandatory default provider list.
type Route struct {
	Rules   []RouteRule `yaml:"rules"`
	Default []string    `yaml:"default"`
}

// RouteRule pairs a regex (Go regexp syntax, matched anywhere in the
// joined to-recipient addresses, case-sensitive) with the providers to
// try, in order, when it matches.
type RouteRule struct {
	Regex     string   `yaml:"regex"`
	Providers []string `yaml:"providers"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load loads configuration from environment variables with sensible
// defaults. Environment variables always take precedence.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.applyEnvVars()
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file as the base layer,
// then overrides with environment variables. Returns an error if the
// specified file path does not exist or does not parse.
func LoadFromFile(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Environment variables always override YAML values
	cfg.applyEnvVars()

	return cfg, nil
}

// Validate checks that every registered provider nickname has a
// complete credential entry and that every nickname referenced by the
// routing table is registered. Violations are fatal at startup: the
// process must not serve a single request with a partial setup.
func (c *Config) Validate(registered []string) error {
	for _, nickname := range registered {
		cred, ok := c.Providers[nickname]
		if !ok || cred.User == "" || cred.Key == "" {
			return fmt.Errorf(
				"provider %q not found or improperly configured: a providers.%s entry with user and key is required",
				nickname, nickname,
			)
		}
	}

	known := make(map[string]bool, len(registered))
	for _, nickname := range registered {
		known[nickname] = true
	}

	for name, route := range c.Routes {
		if len(route.Default) == 0 {
			return fmt.Errorf("route %q: default provider list is required", name)
		}
		for _, nickname := range route.Default {
			if !known[nickname] {
				return fmt.Errorf("route %q: default references unregistered provider %q", name, nickname)
			}
		}
		for i, rule := range route.Rules {
			for _, nickname := range rule.Providers {
				if !known[nickname] {
					return fmt.Errorf("route %q: rule %d references unregistered provider %q", name, i, nickname)
				}
			}
		}
	}

	return nil
}

// applyDefaults sets sensible default values for all configuration fields.
func (c *Config) applyDefaults() {
	c.Listen = ":8080"
	c.Logging.Level = "info"
}

// applyEnvVars overrides configuration with environment variable values.
// Only non-empty environment variables override existing values.
// Provider credentials use PROVIDER_<NICKNAME>_USER and
// PROVIDER_<NICKNAME>_KEY; they create the provider entry when the YAML
// layer has none, so a gateway can be configured from the environment
// alone.
func (c *Config) applyEnvVars() {
	if v := os.Getenv("LISTEN"); v != "" {
		c.Listen = v
	}
	if v := os.Getenv("DEFAULT_FROM"); v != "" {
		c.DefaultFrom = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}

	for _, entry := range os.Environ() {
		key, value, _ := strings.Cut(entry, "=")
		if value == "" || !strings.HasPrefix(key, "PROVIDER_") {
			continue
		}

		rest := strings.TrimPrefix(key, "PROVIDER_")
		var nickname string
		isUser := false
		switch {
		case strings.HasSuffix(rest, "_USER"):
			nickname = strings.TrimSuffix(rest, "_USER")
			isUser = true
		case strings.HasSuffix(rest, "_KEY"):
			nickname = strings.TrimSuffix(rest, "_KEY")
		default:
			continue
		}
		if nickname == "" {
			continue
		}

		if c.Providers == nil {
			c.Providers = make(map[string]Credential)
		}
		nick := strings.ToLower(nickname)
		cred := c.Providers[nick]
		if isUser {
			cred.User = value
		} else {
			cred.Key = value
		}
		c.Providers[nick] = cred
	}
}
