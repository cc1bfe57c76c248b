package accounts

import (
	"encoding/json"
	"os"

	"github.com/relaykit/relayctl/internal/errors"
	"github.com/relaykit/relayctl/internal/paths"
)

// BuildCredentials reads the shared account store and converts every
// record with a usable secret, in original order. Fails when the store is
// missing, unparseable, or yields zero credentials.
func BuildCredentials(storePath, defaultRegion string) ([]Credential, error) {
	records, err := LoadAccounts(storePath)
	if err != nil {
		return nil, err
	}

	var credentials []Credential
	for idx, account := range records {
		if cred, ok := credentialFromAccount(account, idx, defaultRegion); ok {
			credentials = append(credentials, cred)
		}
	}

	if len(credentials) == 0 {
		return nil, errors.Wrapf(errors.ErrNoUsableCredentials,
			"no account with a refresh token in %s", storePath)
	}

	return credentials, nil
}

// WriteSnapshot serializes the launch config and credential list as two
// human-readable documents into dataDir, overwriting any prior snapshot.
// The two writes are not atomic as a pair.
func WriteSnapshot(dataDir string, cfg *LaunchConfig, credentials []Credential) (configPath, credentialsPath string, err error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", "", errors.Wrap(err, "create data dir failed")
	}

	configPath = paths.ConfigSnapshot(dataDir)
	credentialsPath = paths.CredentialSnapshot(dataDir)

	configJSON, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", "", errors.Wrap(err, "serialize config failed")
	}
	if err := os.WriteFile(configPath, configJSON, 0600); err != nil {
		return "", "", errors.Wrap(err, "write config failed")
	}

	credentialsJSON, err := json.MarshalIndent(credentials, "", "  ")
	if err != nil {
		return "", "", errors.Wrap(err, "serialize credentials failed")
	}
	if err := os.WriteFile(credentialsPath, credentialsJSON, 0600); err != nil {
		return "", "", errors.Wrap(err, "write credentials failed")
	}

	return configPath, credentialsPath, nil
}
