package portguard

import (
	"strings"
	"time"

	"github.com/gobwas/glob"
	"github.com/relaykit/relayctl/internal/config"
	"github.com/relaykit/relayctl/internal/errors"
	"github.com/relaykit/relayctl/internal/logging"
)

// Result reports the outcome of a successful reclaim.
type Result struct {
	// Skipped is true when the platform cannot enumerate listeners and
	// the check did not run.
	Skipped bool
	// Terminated lists the recognized PIDs that were signaled.
	Terminated []int
}

// Guard reclaims the sidecar's TCP port from prior relay instances.
type Guard struct {
	inspector  Inspector
	signatures []glob.Glob
	termGrace  time.Duration
	killGrace  time.Duration
	sleep      func(time.Duration)
	logger     *logging.Logger
}

// New creates a Guard with the platform inspector.
func New(cfg config.PortGuardConfig, logger *logging.Logger) (*Guard, error) {
	return NewWithInspector(cfg, NewSystemInspector(), logger)
}

// NewWithInspector creates a Guard with an injected Inspector, for tests
// and embedding environments with native process discovery.
func NewWithInspector(cfg config.PortGuardConfig, inspector Inspector, logger *logging.Logger) (*Guard, error) {
	signatures := make([]glob.Glob, 0, len(cfg.Signatures))
	for _, pattern := range cfg.Signatures {
		g, err := glob.Compile(strings.ToLower(pattern))
		if err != nil {
			return nil, errors.Wrapf(err, "invalid process signature %q", pattern)
		}
		signatures = append(signatures, g)
	}

	if logger == nil {
		logger = logging.NopLogger()
	}

	return &Guard{
		inspector:  inspector,
		signatures: signatures,
		termGrace:  cfg.TermGrace(),
		killGrace:  cfg.KillGrace(),
		sleep:      time.Sleep,
		logger:     logger.WithComponent("portguard"),
	}, nil
}

// Reclaim ensures the target port is free for a new instance.
//
// Listeners are classified against markers (the resolved executable path
// and data directory of the instance being started) and the configured
// process-name signatures. Any foreign listener fails arbitration
// immediately and is never signaled. Recognized listeners get a graceful
// termination, a grace period, then a forceful kill for stragglers; if
// anything still holds the port after the second grace period, reclaim
// fails naming the surviving PIDs.
func (g *Guard) Reclaim(port int, markers []string) (Result, error) {
	if !g.inspector.Supported() {
		g.logger.Warn("listener enumeration unsupported on this platform, skipping port check")
		return Result{Skipped: true}, nil
	}

	pids, err := g.inspector.ListListeners(port)
	if err != nil {
		return Result{}, err
	}
	if len(pids) == 0 {
		return Result{}, nil
	}

	var recognized, foreign []int
	for _, pid := range pids {
		if g.isRelayProcess(pid, markers) {
			recognized = append(recognized, pid)
		} else {
			foreign = append(foreign, pid)
		}
	}

	if len(foreign) > 0 {
		return Result{}, errors.NewPortInUseError(port, foreign)
	}

	g.logger.Info("terminating stale relay instances", "port", port, "pids", recognized)
	for _, pid := range recognized {
		if err := g.inspector.Terminate(pid, false); err != nil {
			g.logger.Warn("graceful terminate failed", "pid", pid, "error", err)
		}
	}
	g.sleep(g.termGrace)

	stillListening, err := g.inspector.ListListeners(port)
	if err != nil {
		return Result{}, err
	}
	for _, pid := range stillListening {
		if g.isRelayProcess(pid, markers) {
			g.logger.Warn("stale instance survived graceful terminate, killing", "pid", pid)
			if err := g.inspector.Terminate(pid, true); err != nil {
				g.logger.Warn("forceful kill failed", "pid", pid, "error", err)
			}
		}
	}
	g.sleep(g.killGrace)

	finalPids, err := g.inspector.ListListeners(port)
	if err != nil {
		return Result{}, err
	}
	if len(finalPids) > 0 {
		return Result{}, errors.NewPortReleaseError(port, finalPids)
	}

	return Result{Terminated: recognized}, nil
}

// Recognizes reports whether pid's command line identifies it as a relay
// process for the given markers. It is the classification Reclaim applies
// to listeners, exposed for callers that must vet a recorded pid before
// trusting it: a pid recycled by the OS can belong to an unrelated
// process, which must never be treated as ours.
func (g *Guard) Recognizes(pid int, markers []string) bool {
	return g.isRelayProcess(pid, markers)
}

// isRelayProcess classifies a listener as a prior relay instance: its
// command line contains one of the launch markers, or it structurally
// matches a known runtime signature even without a marker.
func (g *Guard) isRelayProcess(pid int, markers []string) bool {
	cmdline, ok := g.inspector.Cmdline(pid)
	if !ok {
		return false
	}
	cmdline = strings.ToLower(cmdline)

	for _, marker := range markers {
		if marker == "" {
			continue
		}
		if strings.Contains(cmdline, strings.ToLower(marker)) {
			return true
		}
	}

	for _, signature := range g.signatures {
		if signature.Match(cmdline) {
			return true
		}
	}

	return false
}
