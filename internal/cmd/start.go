package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/relaykit/relayctl/internal/supervisor"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the relay sidecar",
	Long: `Start the relay-rs sidecar in the background.

The runtime binary is resolved from --path, the configured runtime path,
the bundled resources next to relayctl, or PATH, in that order.
Credentials are materialized from the shared account store before launch,
and the listen port is reclaimed from stale relay processes if needed.`,
	RunE: runStart,
}

var startParams supervisor.Params

func init() {
	rootCmd.AddCommand(startCmd)

	startCmd.Flags().StringVar(&startParams.Path, "path", "", "Runtime executable or project directory")
	startCmd.Flags().IntVarP(&startParams.Port, "port", "p", 0, "Listen port (default from config)")
	startCmd.Flags().StringVar(&startParams.APIKey, "api-key", "", "API key for the sidecar (generated when empty)")
	startCmd.Flags().StringVar(&startParams.AdminKey, "admin-key", "", "Admin API key for the sidecar (generated when empty)")
	startCmd.Flags().StringVar(&startParams.DataDir, "data-dir", "", "Sidecar data directory")
	startCmd.Flags().StringVar(&startParams.Region, "region", "", "Default region for credentials without one")
	startCmd.Flags().StringVar(&startParams.RuntimeVersion, "runtime-version", "", "Runtime version reported to the sidecar")
	startCmd.Flags().StringVar(&startParams.ProxyURL, "proxy-url", "", "Upstream proxy URL")
}

func runStart(cmd *cobra.Command, args []string) error {
	sup, cfg, logger, err := newSupervisor()
	if err != nil {
		return err
	}
	defer logger.Close()

	st, err := sup.Start(cmd.Context(), startParams)
	if err != nil {
		return err
	}

	printStatus(cmd, st)

	// Surface a generated key once so callers can reach the API; a key
	// from flags or config is already known to them.
	if startParams.APIKey == "" && cfg.Keys.APIKey == "" {
		fmt.Fprintf(cmd.OutOrStdout(), "\nGenerated API key: %s\n", st.APIKey)
	}

	return nil
}
