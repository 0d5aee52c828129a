package config

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation: %s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects multiple validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Providers lists the accepted oracle.provider values.
var Providers = []string{"openai", "gemini", "offline"}

// Validator validates configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate validates the entire configuration.
func (v *Validator) Validate(cfg *Config) error {
	v.validateLog(&cfg.Log)
	v.validateOracle(&cfg.Oracle)
	v.validateWorkflow(&cfg.Workflow)
	v.validateSessions(&cfg.Sessions)
	v.validateServer(&cfg.Server)

	if len(v.errors) > 0 {
		return v.errors
	}
	return nil
}

// Errors returns the collected validation errors.
func (v *Validator) Errors() ValidationErrors {
	return v.errors
}

func (v *Validator) addError(field string, value interface{}, msg string) {
	v.errors = append(v.errors, ValidationError{Field: field, Value: value, Message: msg})
}

func (v *Validator) validateLog(cfg *LogConfig) {
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, cfg.Level) {
		v.addError("log.level", cfg.Level, "must be one of: debug, info, warn, error")
	}
	if !slices.Contains([]string{"auto", "text", "json"}, cfg.Format) {
		v.addError("log.format", cfg.Format, "must be one of: auto, text, json")
	}
}

func (v *Validator) validateOracle(cfg *OracleConfig) {
	if !slices.Contains(Providers, cfg.Provider) {
		v.addError("oracle.provider", cfg.Provider, "must be one of: "+strings.Join(Providers, ", "))
	}
	if cfg.Provider != "offline" && strings.TrimSpace(cfg.Model) == "" {
		v.addError("oracle.model", cfg.Model, "model required")
	}
	if cfg.Timeout <= 0 || cfg.Timeout > 5*time.Minute {
		v.addError("oracle.timeout", cfg.Timeout, "must be between 0 and 5m")
	}
	if cfg.MaxAttempts < 1 || cfg.MaxAttempts > 10 {
		v.addError("oracle.max_attempts", cfg.MaxAttempts, "must be between 1 and 10")
	}
	if cfg.RatePerSecond < 0 {
		v.addError("oracle.rate_per_second", cfg.RatePerSecond, "must be non-negative")
	}
	if cfg.RatePerSecond > 0 && cfg.Burst < 1 {
		v.addError("oracle.burst", cfg.Burst, "must be positive when rate limiting")
	}
}

func (v *Validator) validateWorkflow(cfg *WorkflowConfig) {
	if cfg.AdvanceDebounce < 0 {
		v.addError("workflow.advance_debounce", cfg.AdvanceDebounce, "must be non-negative")
	}
}

func (v *Validator) validateSessions(cfg *SessionsConfig) {
	if cfg.IdleTTL < 0 {
		v.addError("sessions.idle_ttl", cfg.IdleTTL, "must be non-negative")
	}
	if cfg.Max < 1 {
		v.addError("sessions.max", cfg.Max, "must be positive")
	}
}

func (v *Validator) validateServer(cfg *ServerConfig) {
	if cfg.Port < 1 || cfg.Port > 65535 {
		v.addError("server.port", cfg.Port, "must be between 1 and 65535")
	}
}

// ValidateConfig is a convenience function that creates a validator and validates config.
func ValidateConfig(cfg *Config) error {
	return NewValidator().Validate(cfg)
}
