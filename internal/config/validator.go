package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/gobwas/glob"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "server.port")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation
// errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateServer()...)
	errors = append(errors, c.validateHealth()...)
	errors = append(errors, c.validatePortGuard()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

func (c *Config) validateServer() []ValidationError {
	var errors []ValidationError

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "server.port",
			Value:   c.Server.Port,
			Message: "must be between 1 and 65535",
		})
	}

	if c.Server.Host == "" {
		errors = append(errors, ValidationError{
			Field:   "server.host",
			Value:   c.Server.Host,
			Message: "must not be empty",
		})
	}

	if !IsValidLoadBalancingMode(c.Server.LoadBalancingMode) {
		errors = append(errors, ValidationError{
			Field:   "server.load_balancing_mode",
			Value:   c.Server.LoadBalancingMode,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLoadBalancingModes(), ", ")),
		})
	}

	if c.Server.ProxyURL != "" {
		if _, err := url.Parse(c.Server.ProxyURL); err != nil {
			errors = append(errors, ValidationError{
				Field:   "server.proxy_url",
				Value:   c.Server.ProxyURL,
				Message: "must be a valid URL",
			})
		}
	}

	return errors
}

func (c *Config) validateHealth() []ValidationError {
	var errors []ValidationError

	if !strings.HasPrefix(c.Health.Path, "/") {
		errors = append(errors, ValidationError{
			Field:   "health.path",
			Value:   c.Health.Path,
			Message: "must start with /",
		})
	}

	if c.Health.TimeoutMs <= 0 {
		errors = append(errors, ValidationError{
			Field:   "health.timeout_ms",
			Value:   c.Health.TimeoutMs,
			Message: "must be positive",
		})
	}

	return errors
}

func (c *Config) validatePortGuard() []ValidationError {
	var errors []ValidationError

	for i, pattern := range c.PortGuard.Signatures {
		if _, err := glob.Compile(pattern); err != nil {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("portguard.signatures[%d]", i),
				Value:   pattern,
				Message: "must be a valid glob pattern",
			})
		}
	}

	if c.PortGuard.TermGraceMs < 0 {
		errors = append(errors, ValidationError{
			Field:   "portguard.term_grace_ms",
			Value:   c.PortGuard.TermGraceMs,
			Message: "must not be negative",
		})
	}

	if c.PortGuard.KillGraceMs < 0 {
		errors = append(errors, ValidationError{
			Field:   "portguard.kill_grace_ms",
			Value:   c.PortGuard.KillGraceMs,
			Message: "must not be negative",
		})
	}

	return errors
}

func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	return errors
}
