package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/relaykit/relayctl/internal/supervisor"
	"github.com/relaykit/relayctl/internal/util"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the relay sidecar status",
	Long:  `Display whether the relay sidecar is running and healthy, along with its pid, port, and paths.`,
	RunE:  runStatus,
}

var (
	statusJSON    bool
	statusDataDir string
)

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output status as JSON")
	statusCmd.Flags().StringVar(&statusDataDir, "data-dir", "", "Data directory the instance was started with (default from config)")
}

var (
	styleRunning = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	styleStopped = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	styleDegrade = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	styleLabel   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func runStatus(cmd *cobra.Command, args []string) error {
	sup, _, logger, err := newSupervisor()
	if err != nil {
		return err
	}
	defer logger.Close()

	st, err := sup.Status(cmd.Context(), statusDataDir)
	if err != nil {
		return err
	}

	if statusJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}

	printStatus(cmd, st)
	return nil
}

// printStatus renders the human-readable status view. Styling is dropped
// when stdout is not a terminal.
func printStatus(cmd *cobra.Command, st *supervisor.Status) {
	styled := term.IsTerminal(int(os.Stdout.Fd()))
	paint := func(s lipgloss.Style, text string) string {
		if !styled {
			return text
		}
		return s.Render(text)
	}

	// Long paths are truncated to the terminal width so rows stay on one
	// line.
	valueWidth := 0
	if styled {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 16 {
			valueWidth = w - 14
		}
	}

	out := cmd.OutOrStdout()

	switch {
	case !st.Running:
		fmt.Fprintln(out, paint(styleStopped, "● relay-rs stopped"))
		return
	case st.Healthy:
		fmt.Fprintln(out, paint(styleRunning, "● relay-rs running (healthy)"))
	default:
		fmt.Fprintln(out, paint(styleDegrade, "● relay-rs running (unhealthy)"))
	}

	row := func(label, value string) {
		if value == "" {
			return
		}
		if valueWidth > 0 {
			value = util.TruncateANSI(value, valueWidth)
		}
		fmt.Fprintf(out, "  %s %s\n", paint(styleLabel, fmt.Sprintf("%-10s", label+":")), value)
	}

	row("PID", fmt.Sprintf("%d", st.PID))
	row("Port", fmt.Sprintf("%d", st.Port))
	row("URL", st.URL)
	row("Runtime", st.ExecutablePath)
	row("Data dir", st.DataDir)
	row("Log file", st.LogPath)
	row("Accounts", st.SharedAccountsFile)
}
