package accounts

import (
	"strings"
	"time"
)

// Auth methods understood by the relay sidecar.
const (
	// AuthMethodIDC is the enterprise identity-center method, used when
	// the account carries an app client identifier pair or its provider
	// is labeled as a builder/enterprise account.
	AuthMethodIDC = "idc"
	// AuthMethodSocial is the default consumer login method.
	AuthMethodSocial = "social"
)

// localExpiryLayout is the fixed local-time pattern some account manager
// versions wrote instead of RFC 3339.
const localExpiryLayout = "2006/01/02 15:04:05"

// Credential is one entry of the materialized credential list handed to
// the sidecar. IDs are 1-based and priorities 0-based, both assigned by
// enumeration order of the source account list.
type Credential struct {
	ID                int64  `json:"id"`
	RefreshToken      string `json:"refreshToken"`
	AuthMethod        string `json:"authMethod"`
	Priority          int    `json:"priority"`
	Disabled          bool   `json:"disabled"`
	AccessToken       string `json:"accessToken,omitempty"`
	ProfileARN        string `json:"profileArn,omitempty"`
	ExpiresAt         string `json:"expiresAt,omitempty"`
	ClientID          string `json:"clientId,omitempty"`
	ClientSecret      string `json:"clientSecret,omitempty"`
	Region            string `json:"region,omitempty"`
	Email             string `json:"email,omitempty"`
	SubscriptionTitle string `json:"subscriptionTitle,omitempty"`
}

// LaunchConfig is the sidecar configuration document, generated fresh per
// start and written alongside the credential list.
type LaunchConfig struct {
	Host              string `json:"host"`
	Port              int    `json:"port"`
	Region            string `json:"region"`
	RuntimeVersion    string `json:"runtimeVersion"`
	APIKey            string `json:"apiKey"`
	AdminAPIKey       string `json:"adminApiKey"`
	ProxyURL          string `json:"proxyUrl,omitempty"`
	LoadBalancingMode string `json:"loadBalancingMode"`
	TLSBackend        string `json:"tlsBackend"`
}

// credentialFromAccount converts one account record. Records without a
// non-empty secret are skipped (ok=false), which is not an error. All
// other fields are trimmed and empty-normalized to absent.
func credentialFromAccount(account Account, ordinal int, defaultRegion string) (Credential, bool) {
	refreshToken := strings.TrimSpace(account.RefreshToken)
	if refreshToken == "" {
		return Credential{}, false
	}

	region := strings.TrimSpace(account.Region)
	if region == "" {
		region = defaultRegion
	}

	return Credential{
		ID:                int64(ordinal) + 1,
		RefreshToken:      refreshToken,
		AuthMethod:        authMethodFor(account),
		Priority:          ordinal,
		Disabled:          isDisabledStatus(account.Status),
		AccessToken:       strings.TrimSpace(account.AccessToken),
		ProfileARN:        strings.TrimSpace(account.ProfileARN),
		ExpiresAt:         normalizeExpiry(account.ExpiresAt),
		ClientID:          strings.TrimSpace(account.ClientID),
		ClientSecret:      strings.TrimSpace(account.ClientSecret),
		Region:            region,
		Email:             strings.TrimSpace(account.Email),
		SubscriptionTitle: subscriptionTitle(account.UsageData),
	}, true
}

// authMethodFor classifies the account's login method. Enterprise/IDC
// when the provider label carries a builder or enterprise marker, or when
// both halves of the app client pair are present.
func authMethodFor(account Account) string {
	provider := strings.ToLower(account.Provider)
	if provider == "" {
		provider = AuthMethodSocial
	}
	hasIDCFields := strings.TrimSpace(account.ClientID) != "" && strings.TrimSpace(account.ClientSecret) != ""
	if strings.Contains(provider, "builder") || strings.Contains(provider, "enterprise") || hasIDCFields {
		return AuthMethodIDC
	}
	return AuthMethodSocial
}

// isDisabledStatus reports whether the account status label marks the
// account as banned or suspended. The match is a lowercased substring
// check so it holds across the account manager's locale variants,
// including the CJK 封禁 marker.
func isDisabledStatus(status string) bool {
	s := strings.ToLower(status)
	return strings.Contains(s, "封禁") || strings.Contains(s, "banned") || strings.Contains(s, "suspend")
}

// normalizeExpiry accepts an RFC 3339 timestamp or the fixed local
// "YYYY/MM/DD HH:MM:SS" pattern, returning RFC 3339. Anything else drops
// the field rather than failing the conversion.
func normalizeExpiry(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.Format(time.RFC3339)
	}

	if t, err := time.ParseInLocation(localExpiryLayout, raw, time.Local); err == nil {
		return t.Format(time.RFC3339)
	}

	return ""
}

// subscriptionTitle digs the subscription label out of the account's
// nested usage payload. The account manager has renamed this field twice;
// all known spellings are accepted.
func subscriptionTitle(usage map[string]any) string {
	info, ok := usage["subscriptionInfo"].(map[string]any)
	if !ok {
		return ""
	}
	for _, key := range []string{"subscriptionTitle", "subscriptionName", "subscriptionType"} {
		if v, ok := info[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
