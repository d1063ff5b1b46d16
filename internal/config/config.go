// Package config provides configuration types for busdesk.
package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config is the top-level configuration for busdesk.
type Config struct {
	// Auth selects and configures the authenticator backend.
	Auth AuthConfig `yaml:"auth" mapstructure:"auth"`

	// API configures the remote auth service (auth.mode=remote).
	API APIConfig `yaml:"api" mapstructure:"api"`

	// State configures where the session blob store lives.
	State StateConfig `yaml:"state" mapstructure:"state"`

	// Audit configures where auth events are written.
	Audit AuditConfig `yaml:"audit" mapstructure:"audit"`

	// Metrics configures the optional Prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`

	// LogLevel sets the minimum log level.
	// Valid values: "debug", "info", "warn", "error".
	// Defaults to "info" if empty.
	LogLevel string `yaml:"log_level" mapstructure:"log_level" validate:"omitempty,oneof=debug info warn warning error"`
}

// AuthConfig selects the authenticator backend.
type AuthConfig struct {
	// Mode selects the backend: "local" (SQLite account directory with
	// seeded fixtures) or "remote" (Xetiic auth service over HTTP).
	// Defaults to "local".
	Mode string `yaml:"mode" mapstructure:"mode" validate:"omitempty,oneof=local remote"`

	// AccountsPath is the SQLite database file for local mode.
	// Defaults to "~/.busdesk/accounts.db". The special value ":memory:"
	// keeps the directory in process memory.
	AccountsPath string `yaml:"accounts_path" mapstructure:"accounts_path"`

	// SeedPath is an optional YAML file of fixture accounts loaded into the
	// local directory on startup. When empty, built-in demo fixtures are used.
	SeedPath string `yaml:"seed_path" mapstructure:"seed_path"`

	// LoginLatency is the artificial delay for local-mode auth calls
	// (e.g. "150ms"). "0" disables the delay. Defaults to "150ms".
	LoginLatency string `yaml:"login_latency" mapstructure:"login_latency" validate:"omitempty,duration"`
}

// APIConfig configures the remote auth service client.
type APIConfig struct {
	// BaseURL is the auth service root (e.g. "https://api.xetiic.com").
	// Required when auth.mode is "remote".
	BaseURL string `yaml:"base_url" mapstructure:"base_url" validate:"omitempty,url"`

	// Timeout is the per-call timeout (e.g. "10s"). Defaults to "10s".
	Timeout string `yaml:"timeout" mapstructure:"timeout" validate:"omitempty,duration"`
}

// StateConfig configures session persistence.
type StateConfig struct {
	// Path is the JSON blob store file holding the persisted session.
	// Defaults to "~/.busdesk/state.json". Empty after defaults means
	// the path could not be resolved and in-memory storage is used.
	Path string `yaml:"path" mapstructure:"path"`
}

// AuditConfig configures where auth events are written.
type AuditConfig struct {
	// Output is "stdout" or "file://<absolute-path>".
	// Defaults to "file://~/.busdesk/events.log" (expanded).
	Output string `yaml:"output" mapstructure:"output" validate:"omitempty,audit_output"`
}

// MetricsConfig configures the Prometheus endpoint exposed by `busdesk watch`.
type MetricsConfig struct {
	// Addr is the listen address (e.g. "127.0.0.1:9090").
	// Empty disables the endpoint.
	Addr string `yaml:"addr" mapstructure:"addr" validate:"omitempty,hostname_port"`
}

// SetDefaults applies default values for optional fields.
func (c *Config) SetDefaults() {
	home := configDir()

	if c.Auth.Mode == "" {
		c.Auth.Mode = "local"
	}
	if c.Auth.AccountsPath == "" && home != "" {
		c.Auth.AccountsPath = filepath.Join(home, "accounts.db")
	}
	if c.Auth.LoginLatency == "" {
		c.Auth.LoginLatency = "150ms"
	}
	if c.API.Timeout == "" {
		c.API.Timeout = "10s"
	}
	if c.State.Path == "" && home != "" {
		c.State.Path = filepath.Join(home, "state.json")
	}
	if c.Audit.Output == "" {
		if home != "" {
			c.Audit.Output = "file://" + filepath.Join(home, "events.log")
		} else {
			c.Audit.Output = "stdout"
		}
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// LoginLatencyDuration returns the parsed login latency.
// Call after Validate; the duration tag guarantees parseability.
func (c *Config) LoginLatencyDuration() time.Duration {
	d, _ := time.ParseDuration(c.Auth.LoginLatency)
	return d
}

// APITimeoutDuration returns the parsed API timeout.
func (c *Config) APITimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.API.Timeout)
	return d
}

// configDir returns the per-user busdesk directory, creating it if needed.
// Returns empty string when the home directory cannot be resolved.
func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	dir := filepath.Join(home, ".busdesk")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return ""
	}
	return dir
}
