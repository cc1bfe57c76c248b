//go:build unix

package portguard

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// systemInspector shells out to lsof, ps, and kill. These are present on
// macOS and effectively every Linux distribution relayctl targets.
type systemInspector struct{}

// NewSystemInspector returns the platform Inspector.
func NewSystemInspector() Inspector {
	return systemInspector{}
}

func (systemInspector) Supported() bool { return true }

func (systemInspector) ListListeners(port int) ([]int, error) {
	cmd := exec.Command("lsof", "-nP", fmt.Sprintf("-iTCP:%d", port), "-sTCP:LISTEN", "-t")
	output, err := cmd.Output()
	if err != nil {
		// lsof exits 1 when nothing matches.
		if exitErr, ok := err.(*exec.ExitError); ok {
			if exitErr.ExitCode() == 1 {
				return nil, nil
			}
			stderr := strings.TrimSpace(string(exitErr.Stderr))
			return nil, fmt.Errorf("failed to query listeners on port %d: %s", port, stderr)
		}
		return nil, fmt.Errorf("failed to query listeners on port %d: %w", port, err)
	}

	var pids []int
	for _, line := range strings.Split(string(output), "\n") {
		if pid, err := strconv.Atoi(strings.TrimSpace(line)); err == nil {
			pids = append(pids, pid)
		}
	}
	return pids, nil
}

func (systemInspector) Cmdline(pid int) (string, bool) {
	cmd := exec.Command("ps", "-p", strconv.Itoa(pid), "-o", "command=")
	output, err := cmd.Output()
	if err != nil {
		return "", false
	}
	line := strings.TrimSpace(string(output))
	if line == "" {
		return "", false
	}
	return line, true
}

func (systemInspector) Terminate(pid int, forceful bool) error {
	signal := "-TERM"
	if forceful {
		signal = "-KILL"
	}
	return exec.Command("kill", signal, strconv.Itoa(pid)).Run()
}
