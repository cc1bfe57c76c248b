//go:build !unix

package portguard

// unsupportedInspector is used on platforms without listener enumeration
// utilities. Arbitration is skipped, not silently wrong: Reclaim reports
// Skipped=true so callers know the check did not run.
type unsupportedInspector struct{}

// NewSystemInspector returns the platform Inspector.
func NewSystemInspector() Inspector {
	return unsupportedInspector{}
}

func (unsupportedInspector) Supported() bool { return false }

func (unsupportedInspector) ListListeners(port int) ([]int, error) { return nil, nil }

func (unsupportedInspector) Cmdline(pid int) (string, bool) { return "", false }

func (unsupportedInspector) Terminate(pid int, forceful bool) error { return nil }
