package config

import (
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want 127.0.0.1", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.Region != "us-east-1" {
		t.Errorf("Server.Region = %q, want us-east-1", cfg.Server.Region)
	}
	if cfg.Server.LoadBalancingMode != "priority" {
		t.Errorf("Server.LoadBalancingMode = %q, want priority", cfg.Server.LoadBalancingMode)
	}
	if cfg.Server.TLSBackend != "rustls" {
		t.Errorf("Server.TLSBackend = %q, want rustls", cfg.Server.TLSBackend)
	}

	if cfg.Health.Path != "/v1/models" {
		t.Errorf("Health.Path = %q, want /v1/models", cfg.Health.Path)
	}
	if cfg.Health.Header != "x-api-key" {
		t.Errorf("Health.Header = %q, want x-api-key", cfg.Health.Header)
	}

	if len(cfg.PortGuard.Signatures) == 0 {
		t.Error("PortGuard.Signatures should have defaults")
	}
	if cfg.PortGuard.TermGraceMs != 400 {
		t.Errorf("PortGuard.TermGraceMs = %d, want 400", cfg.PortGuard.TermGraceMs)
	}
	if cfg.PortGuard.KillGraceMs != 200 {
		t.Errorf("PortGuard.KillGraceMs = %d, want 200", cfg.PortGuard.KillGraceMs)
	}

	if cfg.Paths.DataDir == "" {
		t.Error("Paths.DataDir should default to the platform data dir")
	}
	if cfg.Paths.AccountStore == "" {
		t.Error("Paths.AccountStore should have a default")
	}
}

func TestDefaultValidates(t *testing.T) {
	if errs := Default().Validate(); len(errs) > 0 {
		t.Errorf("Default() should validate cleanly, got %v", ValidationErrors(errs))
	}
}

func TestValidatePort(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = 0
	errs := cfg.Validate()
	if !hasField(errs, "server.port") {
		t.Error("expected validation error for server.port = 0")
	}

	cfg.Server.Port = 70000
	errs = cfg.Validate()
	if !hasField(errs, "server.port") {
		t.Error("expected validation error for server.port = 70000")
	}
}

func TestValidateLoadBalancingMode(t *testing.T) {
	cfg := Default()
	cfg.Server.LoadBalancingMode = "random"
	errs := cfg.Validate()
	if !hasField(errs, "server.load_balancing_mode") {
		t.Error("expected validation error for unknown load balancing mode")
	}
}

func TestValidateHealthPath(t *testing.T) {
	cfg := Default()
	cfg.Health.Path = "v1/models"
	errs := cfg.Validate()
	if !hasField(errs, "health.path") {
		t.Error("expected validation error for health path without leading slash")
	}
}

func TestValidateSignatureGlobs(t *testing.T) {
	cfg := Default()
	cfg.PortGuard.Signatures = []string{"[unclosed"}
	errs := cfg.Validate()
	if !hasField(errs, "portguard.signatures[0]") {
		t.Error("expected validation error for invalid glob pattern")
	}
}

func TestValidateLogLevel(t *testing.T) {
	cfg := Default()
	cfg.Logging.Level = "verbose"
	errs := cfg.Validate()
	if !hasField(errs, "logging.level") {
		t.Error("expected validation error for unknown log level")
	}

	cfg.Logging.Level = "WARN"
	if errs := cfg.Validate(); hasField(errs, "logging.level") {
		t.Error("log level comparison should be case-insensitive")
	}
}

func TestValidationErrorsMessage(t *testing.T) {
	errs := ValidationErrors{
		{Field: "server.port", Value: 0, Message: "must be between 1 and 65535"},
		{Field: "logging.level", Value: "loud", Message: "must be one of: debug, info, warn, error"},
	}
	msg := errs.Error()
	if !strings.Contains(msg, "2 validation errors") {
		t.Errorf("multi-error message should count errors, got %q", msg)
	}
	if !strings.Contains(msg, "server.port") || !strings.Contains(msg, "logging.level") {
		t.Errorf("message should include all failing fields, got %q", msg)
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg := Default()
	if cfg.Health.HealthTimeout().Milliseconds() != int64(cfg.Health.TimeoutMs) {
		t.Error("HealthTimeout() should mirror TimeoutMs")
	}
	if cfg.PortGuard.TermGrace().Milliseconds() != int64(cfg.PortGuard.TermGraceMs) {
		t.Error("TermGrace() should mirror TermGraceMs")
	}
	if cfg.PortGuard.KillGrace().Milliseconds() != int64(cfg.PortGuard.KillGraceMs) {
		t.Error("KillGrace() should mirror KillGraceMs")
	}
}

func hasField(errs []ValidationError, field string) bool {
	for _, e := range errs {
		if e.Field == field {
			return true
		}
	}
	return false
}
