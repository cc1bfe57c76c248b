package cmd

import (
	"github.com/spf13/cobra"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the relay sidecar",
	Long: `Stop the running relay-rs sidecar.

The recorded instance is terminated gracefully, then the listen port is
swept for recognized relay processes that survived a lost record.
Stopping when nothing runs is a no-op.`,
	RunE: runStop,
}

var (
	stopPort    int
	stopDataDir string
)

func init() {
	rootCmd.AddCommand(stopCmd)
	stopCmd.Flags().IntVarP(&stopPort, "port", "p", 0, "Port to sweep (default from config)")
	stopCmd.Flags().StringVar(&stopDataDir, "data-dir", "", "Data directory the instance was started with (default from config)")
}

func runStop(cmd *cobra.Command, args []string) error {
	sup, _, logger, err := newSupervisor()
	if err != nil {
		return err
	}
	defer logger.Close()

	st, err := sup.Stop(cmd.Context(), stopPort, stopDataDir)
	if err != nil {
		return err
	}

	printStatus(cmd, st)
	return nil
}
