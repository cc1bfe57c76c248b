package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/relaykit/relayctl/internal/paths"
	"github.com/spf13/viper"
)

// Config represents the complete relayctl configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Keys      KeysConfig      `mapstructure:"keys" yaml:"keys"`
	Paths     PathsConfig     `mapstructure:"paths" yaml:"paths"`
	Health    HealthConfig    `mapstructure:"health" yaml:"health"`
	PortGuard PortGuardConfig `mapstructure:"portguard" yaml:"portguard"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
}

// ServerConfig controls the materialized sidecar configuration
type ServerConfig struct {
	// Host is the bind address handed to the sidecar
	Host string `mapstructure:"host" yaml:"host"`
	// Port is the TCP port the sidecar listens on
	Port int `mapstructure:"port" yaml:"port"`
	// Region is the default upstream region for credentials without one
	Region string `mapstructure:"region" yaml:"region"`
	// RuntimeVersion is the client version string reported upstream
	RuntimeVersion string `mapstructure:"runtime_version" yaml:"runtime_version"`
	// ProxyURL routes sidecar traffic through an HTTP proxy when set
	ProxyURL string `mapstructure:"proxy_url" yaml:"proxy_url"`
	// LoadBalancingMode selects how the sidecar rotates credentials
	// Options: "priority", "round_robin"
	LoadBalancingMode string `mapstructure:"load_balancing_mode" yaml:"load_balancing_mode"`
	// TLSBackend selects the sidecar's TLS implementation
	TLSBackend string `mapstructure:"tls_backend" yaml:"tls_backend"`
}

// KeysConfig holds default API keys for the sidecar. Empty values mean
// a fresh key is generated per start and reported in the status output.
type KeysConfig struct {
	APIKey   string `mapstructure:"api_key" yaml:"api_key"`
	AdminKey string `mapstructure:"admin_key" yaml:"admin_key"`
}

// PathsConfig overrides default filesystem locations
type PathsConfig struct {
	// DataDir is the sidecar data directory (default: platform data root)
	DataDir string `mapstructure:"data_dir" yaml:"data_dir"`
	// AccountStore overrides the shared account store location
	AccountStore string `mapstructure:"account_store" yaml:"account_store"`
	// RuntimePath is a fixed runtime executable or project directory,
	// equivalent to passing --path on every start
	RuntimePath string `mapstructure:"runtime_path" yaml:"runtime_path"`
}

// HealthConfig controls the liveness probe against the running sidecar.
// The endpoint and header are configuration points: the sidecar's probe
// contract has varied across runtime versions.
type HealthConfig struct {
	// Path is the liveness endpoint probed on the sidecar
	Path string `mapstructure:"path" yaml:"path"`
	// Header is the request header carrying the API key
	Header string `mapstructure:"header" yaml:"header"`
	// TimeoutMs bounds a single probe in milliseconds
	TimeoutMs int `mapstructure:"timeout_ms" yaml:"timeout_ms"`
}

// PortGuardConfig controls port arbitration behavior
type PortGuardConfig struct {
	// Signatures are glob patterns matched against the lowercased command
	// line of a listener; a match classifies it as a prior relay instance
	Signatures []string `mapstructure:"signatures" yaml:"signatures"`
	// TermGraceMs is the wait after SIGTERM before re-checking listeners
	TermGraceMs int `mapstructure:"term_grace_ms" yaml:"term_grace_ms"`
	// KillGraceMs is the wait after SIGKILL before the final check
	KillGraceMs int `mapstructure:"kill_grace_ms" yaml:"kill_grace_ms"`
}

// LoggingConfig controls relayctl's own structured log
type LoggingConfig struct {
	// Level is the minimum level written: debug, info, warn, error
	Level string `mapstructure:"level" yaml:"level"`
}

// HealthTimeout returns the probe timeout as a time.Duration
func (h *HealthConfig) HealthTimeout() time.Duration {
	return time.Duration(h.TimeoutMs) * time.Millisecond
}

// TermGrace returns the post-SIGTERM grace period as a time.Duration
func (p *PortGuardConfig) TermGrace() time.Duration {
	return time.Duration(p.TermGraceMs) * time.Millisecond
}

// KillGrace returns the post-SIGKILL grace period as a time.Duration
func (p *PortGuardConfig) KillGrace() time.Duration {
	return time.Duration(p.KillGraceMs) * time.Millisecond
}

// Default returns a Config with all default values
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              "127.0.0.1",
			Port:              8080,
			Region:            "us-east-1",
			RuntimeVersion:    "0.9.2",
			ProxyURL:          "",
			LoadBalancingMode: "priority",
			TLSBackend:        "rustls",
		},
		Keys: KeysConfig{
			APIKey:   "",
			AdminKey: "",
		},
		Paths: PathsConfig{
			DataDir:      paths.DefaultRuntimeDataDir(),
			AccountStore: paths.AccountStore(),
			RuntimePath:  "",
		},
		Health: HealthConfig{
			Path:      "/v1/models",
			Header:    "x-api-key",
			TimeoutMs: 3000,
		},
		PortGuard: PortGuardConfig{
			Signatures: []string{
				"*relay-rs*",
				"*relay2api*",
				"*node*src/index.js*",
			},
			TermGraceMs: 400,
			KillGraceMs: 200,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("server.host", defaults.Server.Host)
	viper.SetDefault("server.port", defaults.Server.Port)
	viper.SetDefault("server.region", defaults.Server.Region)
	viper.SetDefault("server.runtime_version", defaults.Server.RuntimeVersion)
	viper.SetDefault("server.proxy_url", defaults.Server.ProxyURL)
	viper.SetDefault("server.load_balancing_mode", defaults.Server.LoadBalancingMode)
	viper.SetDefault("server.tls_backend", defaults.Server.TLSBackend)

	viper.SetDefault("keys.api_key", defaults.Keys.APIKey)
	viper.SetDefault("keys.admin_key", defaults.Keys.AdminKey)

	viper.SetDefault("paths.data_dir", defaults.Paths.DataDir)
	viper.SetDefault("paths.account_store", defaults.Paths.AccountStore)
	viper.SetDefault("paths.runtime_path", defaults.Paths.RuntimePath)

	viper.SetDefault("health.path", defaults.Health.Path)
	viper.SetDefault("health.header", defaults.Health.Header)
	viper.SetDefault("health.timeout_ms", defaults.Health.TimeoutMs)

	viper.SetDefault("portguard.signatures", defaults.PortGuard.Signatures)
	viper.SetDefault("portguard.term_grace_ms", defaults.PortGuard.TermGraceMs)
	viper.SetDefault("portguard.kill_grace_ms", defaults.PortGuard.KillGraceMs)

	viper.SetDefault("logging.level", defaults.Logging.Level)
}

// Load reads the configuration from viper into a Config struct and
// validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "relayctl")
	}
	// Fall back to ~/.config/relayctl
	home, err := os.UserHomeDir()
	if err != nil {
		return ".relayctl"
	}
	return filepath.Join(home, ".config", "relayctl")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// ValidLoadBalancingModes returns the list of valid load balancing modes
func ValidLoadBalancingModes() []string {
	return []string{"priority", "round_robin"}
}

// IsValidLoadBalancingMode checks if the given mode is valid
func IsValidLoadBalancingMode(mode string) bool {
	for _, valid := range ValidLoadBalancingModes() {
		if mode == valid {
			return true
		}
	}
	return false
}
