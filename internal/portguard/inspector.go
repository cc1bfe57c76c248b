// Package portguard arbitrates ownership of the relay sidecar's TCP port.
// Before a new instance is spawned, listeners on the target port are
// enumerated and classified as prior relay instances or foreign processes.
// Prior instances are terminated gracefully, then forcefully; a foreign
// listener is never touched and fails arbitration instead.
package portguard

// Inspector is the platform capability surface for process discovery and
// signaling. Platforms without the required utilities supply an
// unsupported implementation; arbitration logic never changes per
// platform.
type Inspector interface {
	// ListListeners returns the PIDs currently listening on the TCP port.
	// No listeners is success, not an error.
	ListListeners(port int) ([]int, error)

	// Cmdline returns the full command line of pid. ok is false when the
	// process is gone or its command line cannot be read.
	Cmdline(pid int) (cmdline string, ok bool)

	// Terminate delivers a graceful termination signal, or a forceful
	// kill when forceful is true.
	Terminate(pid int, forceful bool) error

	// Supported reports whether this platform can enumerate listeners.
	// When false, arbitration is skipped and the caller is told so.
	Supported() bool
}
