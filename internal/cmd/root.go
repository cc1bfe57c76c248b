package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/relaykit/relayctl/internal/config"
	"github.com/relaykit/relayctl/internal/logging"
	"github.com/relaykit/relayctl/internal/supervisor"
)

var rootCmd = &cobra.Command{
	Use:   "relayctl",
	Short: "Supervisor for the relay-rs sidecar runtime",
	Long: `Relayctl resolves, launches, and supervises the relay-rs sidecar: an
HTTP relay that serves OpenAI-compatible requests backed by a pool of
upstream accounts. Relayctl materializes credentials from the shared
account store, arbitrates the listen port, and tracks the running
instance across invocations.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/relayctl/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug/info/warn/error)")
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("$HOME/.config/relayctl")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("RELAYCTL")
	// Replace dots with underscores for nested keys in env vars
	// e.g., RELAYCTL_SERVER_PORT for server.port
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}

// newSupervisor loads validated configuration and builds the supervisor
// plus its logger. The caller owns logger.Close.
func newSupervisor() (*supervisor.Supervisor, *config.Config, *logging.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}

	logger, err := logging.NewLogger(cfg.Paths.DataDir, cfg.Logging.Level)
	if err != nil {
		logger = logging.NopLogger()
	}

	sup, err := supervisor.New(cfg, logger)
	if err != nil {
		logger.Close()
		return nil, nil, nil, err
	}
	return sup, cfg, logger, nil
}
