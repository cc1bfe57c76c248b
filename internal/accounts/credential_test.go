package accounts

import (
	"testing"
	"time"
)

func TestAuthMethodClassification(t *testing.T) {
	tests := []struct {
		name    string
		account Account
		want    string
	}{
		{"default consumer", Account{Provider: "social"}, AuthMethodSocial},
		{"empty provider", Account{}, AuthMethodSocial},
		{"builder provider", Account{Provider: "BuilderID"}, AuthMethodIDC},
		{"enterprise provider", Account{Provider: "acme-enterprise"}, AuthMethodIDC},
		{"idc client pair", Account{Provider: "social", ClientID: "id", ClientSecret: "secret"}, AuthMethodIDC},
		{"client id alone stays social", Account{Provider: "social", ClientID: "id"}, AuthMethodSocial},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := authMethodFor(tt.account); got != tt.want {
				t.Errorf("authMethodFor = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsDisabledStatus(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{"active", false},
		{"正常", false},
		{"BANNED", true},
		{"account suspended", true},
		{"Suspend pending review", true},
		{"已封禁", true},
		{"", false},
	}

	for _, tt := range tests {
		if got := isDisabledStatus(tt.status); got != tt.want {
			t.Errorf("isDisabledStatus(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestNormalizeExpiryRFC3339(t *testing.T) {
	in := "2024-06-01T12:00:00Z"
	got := normalizeExpiry(in)
	if got == "" {
		t.Fatal("RFC 3339 input should be accepted")
	}
	if _, err := time.Parse(time.RFC3339, got); err != nil {
		t.Errorf("output %q is not RFC 3339: %v", got, err)
	}
}

func TestNormalizeExpiryLocalPattern(t *testing.T) {
	got := normalizeExpiry("2024/01/15 10:30:00")
	if got == "" {
		t.Fatal("local pattern should be accepted")
	}
	parsed, err := time.Parse(time.RFC3339, got)
	if err != nil {
		t.Fatalf("output %q is not RFC 3339: %v", got, err)
	}
	want := time.Date(2024, 1, 15, 10, 30, 0, 0, time.Local)
	if !parsed.Equal(want) {
		t.Errorf("parsed %v, want %v (host local zone)", parsed, want)
	}
}

func TestNormalizeExpiryUnparseable(t *testing.T) {
	for _, in := range []string{"someday", "2024-13-45", "   ", ""} {
		if got := normalizeExpiry(in); got != "" {
			t.Errorf("normalizeExpiry(%q) = %q, want absent", in, got)
		}
	}
}

func TestCredentialFromAccountSkipsEmptySecret(t *testing.T) {
	_, ok := credentialFromAccount(Account{Email: "a@b.c", RefreshToken: "   "}, 0, "us-east-1")
	if ok {
		t.Error("record without a secret should be skipped")
	}
}

func TestCredentialFromAccountFields(t *testing.T) {
	account := Account{
		Email:        " user@example.com ",
		Status:       "active",
		Provider:     "builder",
		RefreshToken: " token-1 ",
		AccessToken:  "",
		Region:       "",
		UsageData: map[string]any{
			"subscriptionInfo": map[string]any{
				"subscriptionName": "Pro",
			},
		},
	}

	cred, ok := credentialFromAccount(account, 2, "eu-west-1")
	if !ok {
		t.Fatal("conversion should succeed")
	}
	if cred.ID != 3 {
		t.Errorf("ID = %d, want 3 (1-based ordinal)", cred.ID)
	}
	if cred.Priority != 2 {
		t.Errorf("Priority = %d, want 2", cred.Priority)
	}
	if cred.RefreshToken != "token-1" {
		t.Errorf("RefreshToken = %q, want trimmed token", cred.RefreshToken)
	}
	if cred.AuthMethod != AuthMethodIDC {
		t.Errorf("AuthMethod = %q, want idc", cred.AuthMethod)
	}
	if cred.Region != "eu-west-1" {
		t.Errorf("Region = %q, want launch default", cred.Region)
	}
	if cred.Email != "user@example.com" {
		t.Errorf("Email = %q, want trimmed email", cred.Email)
	}
	if cred.SubscriptionTitle != "Pro" {
		t.Errorf("SubscriptionTitle = %q, want Pro", cred.SubscriptionTitle)
	}
	if cred.Disabled {
		t.Error("active account should not be disabled")
	}
}

func TestSubscriptionTitleSpellings(t *testing.T) {
	for _, key := range []string{"subscriptionTitle", "subscriptionName", "subscriptionType"} {
		usage := map[string]any{"subscriptionInfo": map[string]any{key: "Plan"}}
		if got := subscriptionTitle(usage); got != "Plan" {
			t.Errorf("key %q: subscriptionTitle = %q, want Plan", key, got)
		}
	}
	if got := subscriptionTitle(nil); got != "" {
		t.Errorf("nil usage should yield absent, got %q", got)
	}
	if got := subscriptionTitle(map[string]any{"subscriptionInfo": "oops"}); got != "" {
		t.Errorf("malformed usage should yield absent, got %q", got)
	}
}
