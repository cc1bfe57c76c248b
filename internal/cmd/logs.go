package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/relaykit/relayctl/internal/config"
	"github.com/relaykit/relayctl/internal/logging"
	"github.com/relaykit/relayctl/internal/paths"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View relay sidecar logs",
	Long: `View and filter the relay sidecar's log output.

By default, shows the sidecar's own log. Use --supervisor for relayctl's
structured log instead.

Examples:
  # Show last 50 lines of sidecar output
  relayctl logs

  # Follow logs in real-time
  relayctl logs -f

  # Search for specific patterns
  relayctl logs --grep "error|refused"

  # Show relayctl's own log, warnings and up
  relayctl logs --supervisor --level warn`,
	RunE: runLogs,
}

var (
	logsTail       int
	logsFollow     bool
	logsGrep       string
	logsSupervisor bool
	logsLevel      string
)

func init() {
	rootCmd.AddCommand(logsCmd)

	logsCmd.Flags().IntVarP(&logsTail, "tail", "n", 50, "Number of lines to show (0 for all)")
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "Follow log output (like tail -f)")
	logsCmd.Flags().StringVar(&logsGrep, "grep", "", "Filter lines matching pattern (regex)")
	logsCmd.Flags().BoolVar(&logsSupervisor, "supervisor", false, "Show relayctl's structured log instead of the sidecar's")
	logsCmd.Flags().StringVar(&logsLevel, "level", "", "Minimum level for --supervisor logs (debug/info/warn/error)")
}

// logEntry represents a parsed JSON log line from relayctl's own log
type logEntry struct {
	Time      time.Time      `json:"time"`
	Level     string         `json:"level"`
	Msg       string         `json:"msg"`
	Component string         `json:"component,omitempty"`
	Extra     map[string]any `json:"-"` // Captures additional fields
}

// UnmarshalJSON implements custom unmarshaling to capture extra fields
func (e *logEntry) UnmarshalJSON(data []byte) error {
	// First, unmarshal known fields using a type alias to avoid recursion
	type Alias logEntry
	aux := &struct {
		*Alias
	}{
		Alias: (*Alias)(e),
	}
	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}

	// Then unmarshal all fields to capture extras
	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}

	delete(all, "time")
	delete(all, "level")
	delete(all, "msg")
	delete(all, "component")

	if len(all) > 0 {
		e.Extra = all
	}

	return nil
}

// ANSI color codes for terminal output
const (
	colorReset  = "\033[0m"
	colorGray   = "\033[90m"
	colorBlue   = "\033[34m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorCyan   = "\033[36m"
)

// levelColor returns the ANSI color code for a log level
func levelColor(level string) string {
	switch strings.ToUpper(level) {
	case logging.LevelDebug:
		return colorGray
	case logging.LevelInfo:
		return colorBlue
	case logging.LevelWarn:
		return colorYellow
	case logging.LevelError:
		return colorRed
	default:
		return colorReset
	}
}

// levelPriority returns the priority of a log level for filtering
func levelPriority(level string) int {
	switch strings.ToUpper(level) {
	case logging.LevelDebug:
		return 0
	case logging.LevelInfo:
		return 1
	case logging.LevelWarn:
		return 2
	case logging.LevelError:
		return 3
	default:
		return -1
	}
}

// formatLogEntry formats a structured log entry for terminal output
func formatLogEntry(entry *logEntry) string {
	var sb strings.Builder

	sb.WriteString(colorGray)
	sb.WriteString("[")
	sb.WriteString(entry.Time.Format("15:04:05.000"))
	sb.WriteString("]")
	sb.WriteString(colorReset)

	sb.WriteString(" ")
	sb.WriteString(levelColor(entry.Level))
	sb.WriteString("[")
	sb.WriteString(strings.ToUpper(entry.Level))
	sb.WriteString("]")
	sb.WriteString(colorReset)

	sb.WriteString(" ")
	sb.WriteString(entry.Msg)

	if entry.Component != "" {
		sb.WriteString(" ")
		sb.WriteString(colorCyan)
		sb.WriteString("component=")
		sb.WriteString(entry.Component)
		sb.WriteString(colorReset)
	}

	for key, value := range entry.Extra {
		sb.WriteString(" ")
		sb.WriteString(colorCyan)
		sb.WriteString(key)
		sb.WriteString("=")
		sb.WriteString(colorReset)
		sb.WriteString(fmt.Sprintf("%v", value))
	}

	return sb.String()
}

func runLogs(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logPath := paths.SidecarLog(cfg.Paths.DataDir)
	if logsSupervisor {
		logPath = paths.SupervisorLog(cfg.Paths.DataDir)
	}

	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		fmt.Fprintf(cmd.OutOrStdout(), "No logs found at %s\n", logPath)
		return nil
	}

	var minLevel = -1
	if logsLevel != "" {
		minLevel = levelPriority(logging.ParseLevel(logsLevel))
	}

	var grepRegex *regexp.Regexp
	if logsGrep != "" {
		grepRegex, err = regexp.Compile(logsGrep)
		if err != nil {
			return fmt.Errorf("invalid grep pattern: %w", err)
		}
	}

	if logsFollow {
		return followLogs(cmd, logPath, minLevel, grepRegex)
	}
	return displayLogs(cmd, logPath, logsTail, minLevel, grepRegex)
}

// displayLogs reads the log file and displays filtered lines
func displayLogs(cmd *cobra.Command, logPath string, tail int, minLevel int, grepRegex *regexp.Regexp) error {
	file, err := os.Open(logPath)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)

	// Increase buffer size for potentially long log lines
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		formatted, ok := renderLine(line, minLevel, grepRegex)
		if !ok {
			continue
		}
		lines = append(lines, formatted)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading log file: %w", err)
	}

	if tail > 0 && len(lines) > tail {
		lines = lines[len(lines)-tail:]
	}

	out := cmd.OutOrStdout()
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}
	if len(lines) == 0 {
		fmt.Fprintln(out, "No matching log lines found.")
	}

	return nil
}

// followLogs implements tail -f behavior for the log file
func followLogs(cmd *cobra.Command, logPath string, minLevel int, grepRegex *regexp.Regexp) error {
	file, err := os.Open(logPath)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("failed to seek to end: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Following logs... (Ctrl+C to stop)\n\n")

	reader := bufio.NewReader(file)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				// No new data, wait briefly and try again
				time.Sleep(100 * time.Millisecond)
				continue
			}
			return fmt.Errorf("error reading log file: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if formatted, ok := renderLine(line, minLevel, grepRegex); ok {
			fmt.Fprintln(out, formatted)
		}
	}
}

// renderLine filters and formats a single log line. Structured JSON
// lines get level filtering and colored formatting; the sidecar's raw
// lines pass through unchanged.
func renderLine(line string, minLevel int, grepRegex *regexp.Regexp) (string, bool) {
	var entry logEntry
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		if grepRegex != nil && !grepRegex.MatchString(line) {
			return "", false
		}
		return line, true
	}

	if minLevel >= 0 && levelPriority(entry.Level) < minLevel {
		return "", false
	}
	if grepRegex != nil {
		searchText := entry.Msg
		for _, v := range entry.Extra {
			searchText += " " + fmt.Sprintf("%v", v)
		}
		if !grepRegex.MatchString(searchText) {
			return "", false
		}
	}

	return formatLogEntry(&entry), true
}
