package supervisor

import (
	"encoding/json"
	"os"
	"time"

	"github.com/relaykit/relayctl/internal/errors"
	"github.com/relaykit/relayctl/internal/paths"
)

// stateRecord persists the supervised instance across CLI invocations.
// It is the on-disk form of Instance minus the process handle; a relayctl
// process that did not spawn the child re-validates the pid before
// trusting the record.
type stateRecord struct {
	PID                  int       `json:"pid"`
	Port                 int       `json:"port"`
	ExecutablePath       string    `json:"executablePath"`
	DataDir              string    `json:"dataDir"`
	LogPath              string    `json:"logPath"`
	CredentialSourcePath string    `json:"sharedAccountsFile"`
	APIKey               string    `json:"apiKey"`
	StartedAt            time.Time `json:"startedAt"`
}

// writeState records inst in the data directory.
func writeState(inst *Instance) error {
	record := stateRecord{
		PID:                  inst.PID,
		Port:                 inst.Port,
		ExecutablePath:       inst.ExecutablePath,
		DataDir:              inst.DataDir,
		LogPath:              inst.LogPath,
		CredentialSourcePath: inst.CredentialSourcePath,
		APIKey:               inst.APIKey,
		StartedAt:            inst.StartedAt,
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return errors.Wrap(err, "serialize instance state failed")
	}
	if err := os.WriteFile(paths.StateFile(inst.DataDir), data, 0600); err != nil {
		return errors.Wrap(errors.ErrLockUnavailable, err.Error())
	}
	return nil
}

// readState loads a persisted instance record from dataDir. A missing
// file yields (nil, nil); a corrupt file is treated as stale and removed.
func readState(dataDir string) (*Instance, error) {
	data, err := os.ReadFile(paths.StateFile(dataDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(errors.ErrLockUnavailable, err.Error())
	}

	var record stateRecord
	if err := json.Unmarshal(data, &record); err != nil {
		removeState(dataDir)
		return nil, nil
	}
	if record.PID <= 0 {
		removeState(dataDir)
		return nil, nil
	}

	return &Instance{
		PID:                  record.PID,
		Port:                 record.Port,
		ExecutablePath:       record.ExecutablePath,
		DataDir:              record.DataDir,
		LogPath:              record.LogPath,
		CredentialSourcePath: record.CredentialSourcePath,
		APIKey:               record.APIKey,
		StartedAt:            record.StartedAt,
	}, nil
}

// removeState deletes the persisted record. Missing files are fine.
func removeState(dataDir string) {
	os.Remove(paths.StateFile(dataDir))
}
