// Package testutil provides testing utilities for relayctl tests.
package testutil

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/relaykit/relayctl/internal/runtime"
)

// WriteAccountStore writes an account store file with the given raw JSON
// content and returns its path.
func WriteAccountStore(t *testing.T, dir, content string) string {
	t.Helper()

	path := filepath.Join(dir, "accounts.json")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write account store: %v", err)
	}
	return path
}

// SampleAccountStore writes a store with a single usable social account.
func SampleAccountStore(t *testing.T, dir string) string {
	t.Helper()

	accounts := []map[string]any{
		{
			"email":        "a@example.com",
			"provider":     "social",
			"refreshToken": "rt-1",
			"status":       "active",
		},
	}
	raw, err := json.Marshal(accounts)
	if err != nil {
		t.Fatalf("failed to marshal accounts: %v", err)
	}
	return WriteAccountStore(t, dir, string(raw))
}

// WriteRuntimeScript writes a shell script named like the relay runtime
// binary, for use as a spawn target in tests. Unix only.
func WriteRuntimeScript(t *testing.T, dir, body string) string {
	t.Helper()

	path := filepath.Join(dir, runtime.BinaryName)
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("failed to write runtime script: %v", err)
	}
	return path
}

// SkipIfNoLsof skips the test if lsof is not installed.
func SkipIfNoLsof(t *testing.T) {
	t.Helper()

	if _, err := exec.LookPath("lsof"); err != nil {
		t.Skip("lsof not found in PATH, skipping test")
	}
}
