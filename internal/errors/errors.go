// Package errors provides centralized error definitions and error handling
// utilities for the relayctl codebase. It defines sentinel errors for every
// failure mode of the supervisor pipeline, domain-specific error types that
// carry diagnostic context (checked paths, offending PIDs), and re-exports
// the standard library helpers so callers only need this import.
//
// None of the errors here are retryable: every step of the start sequence
// is single-attempt and surfaced verbatim to the caller with enough detail
// to self-diagnose.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Runtime resolution sentinel errors
var (
	// ErrRuntimeNotFound indicates no usable sidecar executable was found
	// in any candidate location.
	ErrRuntimeNotFound = New("relay runtime executable not found")
)

// Credential materialization sentinel errors
var (
	// ErrConfigMissing indicates the shared account store file does not exist.
	ErrConfigMissing = New("shared account store not found")
	// ErrConfigInvalid indicates the shared account store could not be parsed.
	ErrConfigInvalid = New("shared account store is invalid")
	// ErrNoUsableCredentials indicates no account record had a usable secret.
	ErrNoUsableCredentials = New("no usable credentials in account store")
)

// Port arbitration sentinel errors
var (
	// ErrPortInUse indicates the target port is held by a process this
	// supervisor does not recognize as its own. Never auto-resolved.
	ErrPortInUse = New("port in use by foreign process")
	// ErrPortReleaseFailed indicates a recognized prior instance would not
	// release the port even after a forceful kill.
	ErrPortReleaseFailed = New("failed to release port")
)

// Supervisor sentinel errors
var (
	// ErrAlreadyRunning indicates an instance is recorded and its process
	// is still alive.
	ErrAlreadyRunning = New("relay service is already running")
	// ErrSpawnFailed indicates the sidecar process could not be started.
	ErrSpawnFailed = New("failed to spawn relay process")
	// ErrLockUnavailable indicates the supervisor's state guard could not
	// be acquired.
	ErrLockUnavailable = New("supervisor state is locked")
)

// ResolveError reports a failed runtime resolution. It records every path
// that was checked, plus the failure message specific to an explicit
// override path when one was given.
type ResolveError struct {
	// Checked lists every candidate path probed, in probe order.
	Checked []string
	// ExplicitPathMessage is the failure specific to the caller-supplied
	// override path, or empty when no override was given.
	ExplicitPathMessage string
}

// NewResolveError creates a ResolveError for the given checked paths.
func NewResolveError(checked []string) *ResolveError {
	return &ResolveError{Checked: checked}
}

// WithExplicitPathMessage attaches the override-path failure message.
func (e *ResolveError) WithExplicitPathMessage(msg string) *ResolveError {
	e.ExplicitPathMessage = msg
	return e
}

// Error formats the aggregate resolution failure. The explicit-path
// message, when present, is prefixed so the caller's own input is the
// first thing they read.
func (e *ResolveError) Error() string {
	var b strings.Builder
	if e.ExplicitPathMessage != "" {
		b.WriteString(e.ExplicitPathMessage)
		b.WriteString("; ")
	}
	b.WriteString("relay runtime executable not found. ")
	b.WriteString("Install the bundled runtime or set a custom runtime path. Checked: ")
	b.WriteString(strings.Join(e.Checked, ", "))
	return b.String()
}

// Is reports this error as ErrRuntimeNotFound.
func (e *ResolveError) Is(target error) bool {
	return target == ErrRuntimeNotFound
}

// PortError reports a failed port arbitration, naming the PIDs that hold
// the port so the user can inspect them.
type PortError struct {
	Port int
	PIDs []int
	kind error
}

// NewPortInUseError creates a PortError for foreign listeners.
func NewPortInUseError(port int, pids []int) *PortError {
	return &PortError{Port: port, PIDs: pids, kind: ErrPortInUse}
}

// NewPortReleaseError creates a PortError for recognized listeners that
// survived termination.
func NewPortReleaseError(port int, pids []int) *PortError {
	return &PortError{Port: port, PIDs: pids, kind: ErrPortReleaseFailed}
}

// Error formats the arbitration failure with the offending PIDs.
func (e *PortError) Error() string {
	if e.kind == ErrPortInUse {
		return fmt.Sprintf("port %d is already in use by non-relay process(es): %v", e.Port, e.PIDs)
	}
	return fmt.Sprintf("failed to release port %d after terminating stale relay process(es): %v", e.Port, e.PIDs)
}

// Is matches the underlying sentinel.
func (e *PortError) Is(target error) bool {
	return target == e.kind
}

// Wrap annotates err with a message, preserving the chain for Is/As.
// Returns nil if err is nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf annotates err with a formatted message, preserving the chain.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
