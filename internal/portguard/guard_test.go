package portguard

import (
	"testing"
	"time"

	"github.com/relaykit/relayctl/internal/config"
	"github.com/relaykit/relayctl/internal/errors"
	"github.com/relaykit/relayctl/internal/logging"
)

// fakeInspector scripts listener enumeration: each call to ListListeners
// pops the next PID set. Signals are recorded, never delivered.
type fakeInspector struct {
	listings  [][]int
	listCalls int
	cmdlines  map[int]string
	signals   []signal
}

type signal struct {
	pid      int
	forceful bool
}

func (f *fakeInspector) Supported() bool { return true }

func (f *fakeInspector) ListListeners(port int) ([]int, error) {
	if f.listCalls >= len(f.listings) {
		return nil, nil
	}
	pids := f.listings[f.listCalls]
	f.listCalls++
	return pids, nil
}

func (f *fakeInspector) Cmdline(pid int) (string, bool) {
	cmd, ok := f.cmdlines[pid]
	return cmd, ok
}

func (f *fakeInspector) Terminate(pid int, forceful bool) error {
	f.signals = append(f.signals, signal{pid: pid, forceful: forceful})
	return nil
}

func newTestGuard(t *testing.T, inspector Inspector) *Guard {
	t.Helper()
	guard, err := NewWithInspector(config.Default().PortGuard, inspector, logging.NopLogger())
	if err != nil {
		t.Fatalf("NewWithInspector failed: %v", err)
	}
	guard.sleep = func(time.Duration) {}
	return guard
}

func TestReclaimEmptyPort(t *testing.T) {
	inspector := &fakeInspector{listings: [][]int{nil}}
	guard := newTestGuard(t, inspector)

	result, err := guard.Reclaim(8080, nil)
	if err != nil {
		t.Fatalf("Reclaim failed: %v", err)
	}
	if result.Skipped {
		t.Error("supported platform should not skip")
	}
	if len(inspector.signals) != 0 {
		t.Error("no signal should be sent for an empty port")
	}
}

func TestReclaimForeignProcessUntouched(t *testing.T) {
	inspector := &fakeInspector{
		listings: [][]int{{4242}},
		cmdlines: map[int]string{4242: "/usr/bin/postgres -D /var/lib/pg"},
	}
	guard := newTestGuard(t, inspector)

	_, err := guard.Reclaim(8080, []string{"/data/relay-rs"})
	if !errors.Is(err, errors.ErrPortInUse) {
		t.Fatalf("expected ErrPortInUse, got %v", err)
	}

	var portErr *errors.PortError
	if !errors.As(err, &portErr) {
		t.Fatalf("expected PortError, got %T", err)
	}
	if len(portErr.PIDs) != 1 || portErr.PIDs[0] != 4242 {
		t.Errorf("PortError should name PID 4242, got %v", portErr.PIDs)
	}
	if len(inspector.signals) != 0 {
		t.Errorf("foreign process must never be signaled, got %v", inspector.signals)
	}
}

func TestReclaimRecognizedByMarker(t *testing.T) {
	inspector := &fakeInspector{
		listings: [][]int{{101}, nil, nil},
		cmdlines: map[int]string{101: "/some/bin --config /Data/Relay-RS/config.json"},
	}
	guard := newTestGuard(t, inspector)

	result, err := guard.Reclaim(8080, []string{"/data/relay-rs"})
	if err != nil {
		t.Fatalf("Reclaim failed: %v", err)
	}
	if len(result.Terminated) != 1 || result.Terminated[0] != 101 {
		t.Errorf("Terminated = %v, want [101]", result.Terminated)
	}
	if len(inspector.signals) != 1 || inspector.signals[0].forceful {
		t.Errorf("want one graceful signal, got %v", inspector.signals)
	}
}

func TestReclaimRecognizedBySignature(t *testing.T) {
	// Structural match without any marker: a prior instance from a lost
	// state file.
	inspector := &fakeInspector{
		listings: [][]int{{202}, nil, nil},
		cmdlines: map[int]string{202: "/opt/homebrew/bin/relay-rs --config /tmp/c.json"},
	}
	guard := newTestGuard(t, inspector)

	if _, err := guard.Reclaim(8080, nil); err != nil {
		t.Fatalf("Reclaim failed: %v", err)
	}
	if len(inspector.signals) != 1 || inspector.signals[0].pid != 202 {
		t.Errorf("signature match should be terminated, got %v", inspector.signals)
	}
}

func TestRecognizesClassifiesByMarkerAndSignature(t *testing.T) {
	inspector := &fakeInspector{
		cmdlines: map[int]string{
			501: "/opt/homebrew/bin/relay-rs --config /tmp/c.json",
			502: "/usr/bin/postgres -D /var/lib/pg",
			503: "/some/bin --data-dir /Data/Relay-RS",
		},
	}
	guard := newTestGuard(t, inspector)

	if !guard.Recognizes(501, nil) {
		t.Error("signature match should be recognized without markers")
	}
	if guard.Recognizes(502, []string{"/data/relay-rs"}) {
		t.Error("foreign command line must not be recognized")
	}
	if !guard.Recognizes(503, []string{"/data/relay-rs"}) {
		t.Error("marker match should be recognized")
	}
	if guard.Recognizes(999, []string{"/data/relay-rs"}) {
		t.Error("a pid with no command line must not be recognized")
	}
}

func TestReclaimLegacyNodeSignature(t *testing.T) {
	inspector := &fakeInspector{
		listings: [][]int{{303}, nil, nil},
		cmdlines: map[int]string{303: "node /home/u/proj/src/index.js --port 8080"},
	}
	guard := newTestGuard(t, inspector)

	if _, err := guard.Reclaim(8080, nil); err != nil {
		t.Fatalf("Reclaim failed: %v", err)
	}
	if len(inspector.signals) != 1 {
		t.Errorf("legacy node instance should be recognized, got %v", inspector.signals)
	}
}

func TestReclaimEscalatesToKill(t *testing.T) {
	inspector := &fakeInspector{
		// Survives the graceful pass, gone after the kill.
		listings: [][]int{{101}, {101}, nil},
		cmdlines: map[int]string{101: "relay-rs --config /tmp/c.json"},
	}
	guard := newTestGuard(t, inspector)

	if _, err := guard.Reclaim(8080, nil); err != nil {
		t.Fatalf("Reclaim failed: %v", err)
	}
	if len(inspector.signals) != 2 {
		t.Fatalf("want TERM then KILL, got %v", inspector.signals)
	}
	if inspector.signals[0].forceful || !inspector.signals[1].forceful {
		t.Errorf("signal order wrong: %v", inspector.signals)
	}
}

func TestReclaimReleaseFailed(t *testing.T) {
	inspector := &fakeInspector{
		listings: [][]int{{101}, {101}, {101}},
		cmdlines: map[int]string{101: "relay-rs --config /tmp/c.json"},
	}
	guard := newTestGuard(t, inspector)

	_, err := guard.Reclaim(8080, nil)
	if !errors.Is(err, errors.ErrPortReleaseFailed) {
		t.Fatalf("expected ErrPortReleaseFailed, got %v", err)
	}
	var portErr *errors.PortError
	if !errors.As(err, &portErr) || len(portErr.PIDs) != 1 {
		t.Errorf("error should name the surviving PID, got %v", err)
	}
}

type unsupported struct{ fakeInspector }

func (unsupported) Supported() bool { return false }

func TestReclaimSkippedOnUnsupportedPlatform(t *testing.T) {
	guard := newTestGuard(t, &unsupported{})

	result, err := guard.Reclaim(8080, nil)
	if err != nil {
		t.Fatalf("Reclaim failed: %v", err)
	}
	if !result.Skipped {
		t.Error("unsupported platform must report Skipped so callers know the check did not run")
	}
}

func TestNewWithInspectorRejectsBadSignature(t *testing.T) {
	cfg := config.Default().PortGuard
	cfg.Signatures = []string{"[bad"}
	if _, err := NewWithInspector(cfg, &fakeInspector{}, logging.NopLogger()); err == nil {
		t.Error("invalid glob signature should be rejected")
	}
}
