// Package paths centralizes filesystem locations used by relayctl: the
// shared account store maintained by the external account manager, the
// per-run data directory for the relay sidecar, and the file names of the
// materialized snapshots inside it.
package paths

import (
	"os"
	"path/filepath"
)

const (
	// managerDirName is the directory under the platform data root shared
	// with the external account manager.
	managerDirName = "relay-manager"

	// accountStoreName is the shared account store file written by the
	// external account manager and read (only) by relayctl.
	accountStoreName = "accounts.json"

	// runtimeDirName is the default data directory for the relay sidecar.
	runtimeDirName = "relay-rs"

	// ConfigSnapshotName is the materialized sidecar configuration file.
	ConfigSnapshotName = "config.json"
	// CredentialSnapshotName is the materialized credential list file.
	CredentialSnapshotName = "credentials.json"
	// SidecarLogName is the append-only combined stdout/stderr log of the
	// sidecar process.
	SidecarLogName = "relay.log"
	// StateFileName records the supervised instance across CLI invocations.
	StateFileName = "instance.json"
	// SupervisorLogName is relayctl's own structured log.
	SupervisorLogName = "relayctl.log"
)

// DataRoot returns the per-platform application data root, falling back to
// the user's home directory, then the current directory, when the platform
// convention cannot be resolved.
func DataRoot() string {
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return dir
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return home
	}
	return "."
}

// AccountStore returns the path of the shared account store.
func AccountStore() string {
	return filepath.Join(DataRoot(), managerDirName, accountStoreName)
}

// DefaultRuntimeDataDir returns the default data directory for a relay
// sidecar run when the caller does not supply one.
func DefaultRuntimeDataDir() string {
	return filepath.Join(DataRoot(), managerDirName, runtimeDirName)
}

// ConfigSnapshot returns the sidecar config path inside dataDir.
func ConfigSnapshot(dataDir string) string {
	return filepath.Join(dataDir, ConfigSnapshotName)
}

// CredentialSnapshot returns the credential list path inside dataDir.
func CredentialSnapshot(dataDir string) string {
	return filepath.Join(dataDir, CredentialSnapshotName)
}

// SidecarLog returns the sidecar log path inside dataDir.
func SidecarLog(dataDir string) string {
	return filepath.Join(dataDir, SidecarLogName)
}

// SupervisorLog returns relayctl's own log path inside dataDir.
func SupervisorLog(dataDir string) string {
	return filepath.Join(dataDir, SupervisorLogName)
}

// StateFile returns the persisted instance record path inside dataDir.
func StateFile(dataDir string) string {
	return filepath.Join(dataDir, StateFileName)
}
