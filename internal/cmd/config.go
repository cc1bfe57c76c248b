package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/relaykit/relayctl/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify relayctl configuration",
	Long: `View or modify relayctl configuration.

Without arguments, displays the current configuration.
Use subcommands to modify settings or create a config file.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the user's config file.

Keys use dot notation, e.g.:
  relayctl config set server.port 9090
  relayctl config set server.region eu-west-1
  relayctl config set logging.level debug

Valid keys:
  server.host             - Bind address for the sidecar
  server.port             - Listen port
  server.region           - Default credential region
  server.runtime_version  - Runtime version reported to the sidecar
  server.proxy_url        - Upstream proxy URL
  server.load_balancing_mode - Credential selection mode (priority/round_robin)
  keys.api_key            - Fixed API key (generated per start when empty)
  keys.admin_key          - Fixed admin key (generated per start when empty)
  paths.data_dir          - Sidecar data directory
  paths.account_store     - Shared account store file
  paths.runtime_path      - Runtime executable or project directory
  health.timeout_ms       - Health probe timeout in milliseconds
  logging.level           - relayctl log level (debug/info/warn/error)`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long:  `Create a default config file at ~/.config/relayctl/config.yaml with all available options.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	out := cmd.OutOrStdout()

	// Show where config is being read from
	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "# Config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "# Config file: (none - using defaults)\n")
	}

	rendered, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to render configuration: %w", err)
	}
	fmt.Fprint(out, string(rendered))

	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	value := args[1]

	validKeys := map[string]string{
		"server.host":                "string",
		"server.port":                "int",
		"server.region":              "string",
		"server.runtime_version":     "string",
		"server.proxy_url":           "string",
		"server.load_balancing_mode": "string",
		"server.tls_backend":         "string",
		"keys.api_key":               "string",
		"keys.admin_key":             "string",
		"paths.data_dir":             "string",
		"paths.account_store":        "string",
		"paths.runtime_path":         "string",
		"health.path":                "string",
		"health.header":              "string",
		"health.timeout_ms":          "int",
		"portguard.term_grace_ms":    "int",
		"portguard.kill_grace_ms":    "int",
		"logging.level":              "string",
	}

	keyType, ok := validKeys[key]
	if !ok {
		return fmt.Errorf("unknown configuration key: %s\nRun 'relayctl config set --help' to see valid keys", key)
	}

	var typedValue interface{}
	switch keyType {
	case "string":
		if key == "logging.level" {
			valid := false
			for _, lvl := range []string{"debug", "info", "warn", "error"} {
				if strings.EqualFold(value, lvl) {
					valid = true
					break
				}
			}
			if !valid {
				return fmt.Errorf("invalid value for %s: %s\nValid options: debug, info, warn, error", key, value)
			}
		}
		typedValue = value
	case "int":
		intVal, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: expected integer", key)
		}
		if intVal < 0 {
			return fmt.Errorf("invalid value for %s: must be non-negative", key)
		}
		typedValue = intVal
	}

	// Ensure config directory exists
	configDir := config.ConfigDir()
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	viper.Set(key, typedValue)

	configFile := config.ConfigFile()
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %v\n", key, typedValue)
	fmt.Fprintf(cmd.OutOrStdout(), "Config saved to %s\n", configFile)

	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configDir := config.ConfigDir()
	configFile := config.ConfigFile()

	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists at %s\nUse 'relayctl config set' to modify values", configFile)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	defaults := config.Default()
	configContent := fmt.Sprintf(`# Relayctl Configuration

# Sidecar server settings
server:
  host: %s
  port: %d
  # Default region for credentials that carry none
  region: %s
  runtime_version: %s
  # Upstream proxy URL (empty for direct connections)
  proxy_url: ""
  # Credential selection mode: priority or round_robin
  load_balancing_mode: %s
  tls_backend: %s

# API keys (generated per start when empty)
keys:
  api_key: ""
  admin_key: ""

# Filesystem locations
paths:
  data_dir: %s
  account_store: %s
  # Runtime executable or project directory (resolved automatically when empty)
  runtime_path: ""

# Health probe settings
health:
  path: %s
  header: %s
  timeout_ms: %d

# Port reclamation (advanced)
portguard:
  term_grace_ms: %d
  kill_grace_ms: %d

logging:
  level: %s
`,
		defaults.Server.Host, defaults.Server.Port, defaults.Server.Region,
		defaults.Server.RuntimeVersion, defaults.Server.LoadBalancingMode, defaults.Server.TLSBackend,
		defaults.Paths.DataDir, defaults.Paths.AccountStore,
		defaults.Health.Path, defaults.Health.Header, defaults.Health.TimeoutMs,
		defaults.PortGuard.TermGraceMs, defaults.PortGuard.KillGraceMs,
		defaults.Logging.Level)

	if err := os.WriteFile(configFile, []byte(configContent), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created config file at %s\n", configFile)
	fmt.Fprintln(cmd.OutOrStdout(), "Edit this file to customize relayctl's behavior.")

	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	configFile := config.ConfigFile()
	out := cmd.OutOrStdout()

	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Active config: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Default path: %s (not created)\n", configFile)
	}

	fmt.Fprintln(out, "\nSearch paths:")
	fmt.Fprintf(out, "  1. %s\n", configFile)
	fmt.Fprintln(out, "  2. $HOME/.config/relayctl/config.yaml")
	fmt.Fprintln(out, "  3. ./config.yaml (current directory)")
	fmt.Fprintln(out, "\nEnvironment variables: RELAYCTL_* (e.g., RELAYCTL_SERVER_PORT)")

	return nil
}
