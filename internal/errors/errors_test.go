package errors

import (
	"strings"
	"testing"
)

func TestResolveErrorIs(t *testing.T) {
	err := NewResolveError([]string{"/a/relay-rs", "/b/relay-rs"})
	if !Is(err, ErrRuntimeNotFound) {
		t.Error("ResolveError should match ErrRuntimeNotFound")
	}
	if Is(err, ErrPortInUse) {
		t.Error("ResolveError should not match ErrPortInUse")
	}
}

func TestResolveErrorMessage(t *testing.T) {
	err := NewResolveError([]string{"/a/relay-rs", "/b/relay-rs"})
	msg := err.Error()
	if !strings.Contains(msg, "/a/relay-rs") || !strings.Contains(msg, "/b/relay-rs") {
		t.Errorf("error message should enumerate checked paths, got %q", msg)
	}
	if strings.HasPrefix(msg, ";") {
		t.Errorf("no explicit-path prefix expected, got %q", msg)
	}
}

func TestResolveErrorExplicitPathPrefix(t *testing.T) {
	err := NewResolveError([]string{"/custom"}).
		WithExplicitPathMessage("runtime path not found or invalid: /custom")
	msg := err.Error()
	if !strings.HasPrefix(msg, "runtime path not found or invalid: /custom; ") {
		t.Errorf("explicit-path message should be prefixed, got %q", msg)
	}
}

func TestPortErrorIs(t *testing.T) {
	inUse := NewPortInUseError(8080, []int{123})
	if !Is(inUse, ErrPortInUse) {
		t.Error("PortError(in use) should match ErrPortInUse")
	}
	if Is(inUse, ErrPortReleaseFailed) {
		t.Error("PortError(in use) should not match ErrPortReleaseFailed")
	}
	release := NewPortReleaseError(8080, []int{456})
	if !Is(release, ErrPortReleaseFailed) {
		t.Error("PortError(release) should match ErrPortReleaseFailed")
	}
}

func TestPortErrorNamesPIDs(t *testing.T) {
	err := NewPortInUseError(9000, []int{101, 202})
	msg := err.Error()
	if !strings.Contains(msg, "101") || !strings.Contains(msg, "202") {
		t.Errorf("error message should name offending PIDs, got %q", msg)
	}
	if !strings.Contains(msg, "9000") {
		t.Errorf("error message should name the port, got %q", msg)
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, "context") != nil {
		t.Error("Wrap(nil) should return nil")
	}
	if Wrapf(nil, "context %d", 1) != nil {
		t.Error("Wrapf(nil) should return nil")
	}
}

func TestWrapPreservesChain(t *testing.T) {
	err := Wrap(ErrConfigMissing, "materialize credentials")
	if !Is(err, ErrConfigMissing) {
		t.Error("wrapped error should still match its sentinel")
	}
	if !strings.Contains(err.Error(), "materialize credentials") {
		t.Errorf("wrapped error should carry the annotation, got %q", err.Error())
	}
}
