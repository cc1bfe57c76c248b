package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/relaykit/relayctl/internal/errors"
	"github.com/relaykit/relayctl/internal/supervisor"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the relay sidecar in the foreground",
	Long: `Run the relay-rs sidecar supervised in the foreground.

The sidecar is started (or adopted, when one is already running) and the
shared account store is watched: when accounts change, the sidecar is
restarted with freshly materialized credentials. Interrupting relayctl
stops the sidecar.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&startParams.Path, "path", "", "Runtime executable or project directory")
	runCmd.Flags().IntVarP(&startParams.Port, "port", "p", 0, "Listen port (default from config)")
	runCmd.Flags().StringVar(&startParams.APIKey, "api-key", "", "API key for the sidecar (generated when empty)")
	runCmd.Flags().StringVar(&startParams.AdminKey, "admin-key", "", "Admin API key for the sidecar (generated when empty)")
	runCmd.Flags().StringVar(&startParams.DataDir, "data-dir", "", "Sidecar data directory")
	runCmd.Flags().StringVar(&startParams.Region, "region", "", "Default region for credentials without one")
	runCmd.Flags().StringVar(&startParams.ProxyURL, "proxy-url", "", "Upstream proxy URL")
}

func runRun(cmd *cobra.Command, args []string) error {
	sup, cfg, logger, err := newSupervisor()
	if err != nil {
		return err
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := sup.Start(ctx, startParams)
	if errors.Is(err, errors.ErrAlreadyRunning) {
		st, err = sup.Status(ctx, startParams.DataDir)
	}
	if err != nil {
		return err
	}
	printStatus(cmd, st)

	// Restart requests are funneled through a channel so the restart runs
	// on this goroutine, not the watcher's.
	restart := make(chan struct{}, 1)
	watcher, err := supervisor.NewStoreWatcher(cfg.Paths.AccountStore, func() {
		select {
		case restart <- struct{}{}:
		default:
		}
	}, logger)
	if err != nil {
		logger.Warn("account store watch unavailable", "error", err)
	} else {
		watcher.Start()
		defer watcher.Stop()
		fmt.Fprintf(cmd.OutOrStdout(), "\nWatching %s for account changes. Ctrl+C to stop.\n", cfg.Paths.AccountStore)
	}

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(cmd.OutOrStdout(), "\nStopping relay sidecar...")
			// The signal context is spent; teardown uses a fresh one.
			if _, err := sup.Stop(context.Background(), startParams.Port, startParams.DataDir); err != nil {
				return err
			}
			return nil

		case <-restart:
			fmt.Fprintln(cmd.OutOrStdout(), "Account store changed, restarting sidecar...")
			if _, err := sup.Stop(ctx, startParams.Port, startParams.DataDir); err != nil {
				logger.Error("restart: stop failed", "error", err)
				continue
			}
			st, err := sup.Start(ctx, startParams)
			if err != nil {
				logger.Error("restart: start failed", "error", err)
				fmt.Fprintf(cmd.ErrOrStderr(), "restart failed: %v\n", err)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sidecar restarted (pid %d)\n", st.PID)
		}
	}
}
