// Package accounts transforms the shared account store maintained by the
// external account manager into a runtime-consumable snapshot: a launch
// configuration plus an ordered credential list, both written into the
// sidecar's data directory.
//
// The store is read-only from this package's perspective. No file locking
// is performed against the concurrent external writer; a read racing an
// external write may observe a transient parse failure, which is reported
// as an invalid store, never retried silently.
package accounts

import (
	"encoding/json"
	"os"

	"github.com/relaykit/relayctl/internal/errors"
)

// Account mirrors one record of the shared account store. Fields beyond
// the secret are best effort: absent, empty, or malformed values degrade
// to absent in the derived credential instead of failing conversion.
type Account struct {
	Email        string         `json:"email"`
	Status       string         `json:"status"`
	Provider     string         `json:"provider,omitempty"`
	RefreshToken string         `json:"refreshToken,omitempty"`
	AccessToken  string         `json:"accessToken,omitempty"`
	ClientID     string         `json:"clientId,omitempty"`
	ClientSecret string         `json:"clientSecret,omitempty"`
	ProfileARN   string         `json:"profileArn,omitempty"`
	Region       string         `json:"region,omitempty"`
	ExpiresAt    string         `json:"expiresAt,omitempty"`
	UsageData    map[string]any `json:"usageData,omitempty"`
}

// LoadAccounts reads and parses the shared account store at path.
func LoadAccounts(path string) ([]Account, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(errors.ErrConfigMissing, "shared accounts file not found: %s", path)
		}
		return nil, errors.Wrapf(err, "read shared accounts failed (%s)", path)
	}

	var accounts []Account
	if err := json.Unmarshal(content, &accounts); err != nil {
		return nil, errors.Wrapf(errors.ErrConfigInvalid, "parse shared accounts failed: %v", err)
	}
	return accounts, nil
}
