package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCategory classifies errors for handling decisions.
type ErrorCategory string

const (
	ErrCatValidation   ErrorCategory = "validation"   // Invalid input
	ErrCatPrerequisite ErrorCategory = "prerequisite" // Stage invoked before its inputs exist
	ErrCatConflict     ErrorCategory = "conflict"     // Concurrent access to a workflow
	ErrCatTransition   ErrorCategory = "transition"   // Advance outside the linear sequence
	ErrCatProvider     ErrorCategory = "provider"     // Oracle unavailable or malformed
	ErrCatStage        ErrorCategory = "stage"        // Unexpected stage failure
	ErrCatNotFound     ErrorCategory = "not_found"    // Resource not found
	ErrCatInternal     ErrorCategory = "internal"     // Unexpected internal error
)

// DomainError represents a structured error from the domain layer.
type DomainError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Retryable bool
	Cause     error
	Details   map[string]interface{}
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches a target.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Category == t.Category && e.Code == t.Code
}

// WithCause wraps an underlying error.
func (e *DomainError) WithCause(cause error) *DomainError {
	e.Cause = cause
	return e
}

// WithDetail adds contextual information.
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ErrValidation creates a validation error.
func ErrValidation(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatValidation,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// ErrPrerequisite reports that a stage was invoked before the entities it
// consumes were produced. This is a caller bug and never retryable.
func ErrPrerequisite(stage Stage, missing ...string) *DomainError {
	return &DomainError{
		Category:  ErrCatPrerequisite,
		Code:      CodePrerequisiteMissing,
		Message:   fmt.Sprintf("stage %s requires %s", stage, strings.Join(missing, ", ")),
		Retryable: false,
		Details: map[string]interface{}{
			"stage":   string(stage),
			"missing": missing,
		},
	}
}

// ErrConcurrentAccess reports a re-entrant call on a busy workflow. Callers
// may retry later.
func ErrConcurrentAccess(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatConflict,
		Code:      code,
		Message:   message,
		Retryable: true,
	}
}

// ErrInvalidTransition reports an advance outside the linear stage sequence.
func ErrInvalidTransition(from, to Stage) *DomainError {
	msg := fmt.Sprintf("cannot advance from %s to %s", from, to)
	if to == "" {
		msg = fmt.Sprintf("stage %s has no successor", from)
	}
	return &DomainError{
		Category:  ErrCatTransition,
		Code:      CodeInvalidTransition,
		Message:   msg,
		Retryable: false,
		Details: map[string]interface{}{
			"from": string(from),
			"to":   string(to),
		},
	}
}

// ErrProvider creates an oracle failure. Stage processors always recover from
// these locally by switching to fallback data.
func ErrProvider(provider, code, message string) *DomainError {
	retryable := false
	switch code {
	case CodeProviderTimeout, CodeProviderRateLimited, CodeProviderNetwork, CodeProviderUnavailable:
		retryable = true
	}
	return &DomainError{
		Category:  ErrCatProvider,
		Code:      code,
		Message:   fmt.Sprintf("%s: %s", provider, message),
		Retryable: retryable,
		Details: map[string]interface{}{
			"provider": provider,
		},
	}
}

// ErrStageProcessing wraps an unexpected failure inside a stage that the
// fallback logic does not cover.
func ErrStageProcessing(stage Stage, cause error) *DomainError {
	return &DomainError{
		Category:  ErrCatStage,
		Code:      CodeStageFailed,
		Message:   fmt.Sprintf("stage %s failed", stage),
		Retryable: false,
		Cause:     cause,
		Details: map[string]interface{}{
			"stage": string(stage),
		},
	}
}

// ErrNotFound creates a not found error.
func ErrNotFound(resource, id string) *DomainError {
	return &DomainError{
		Category:  ErrCatNotFound,
		Code:      "NOT_FOUND",
		Message:   fmt.Sprintf("%s not found: %s", resource, id),
		Retryable: false,
	}
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Retryable
	}
	return false
}

// GetCategory extracts the error category.
func GetCategory(err error) ErrorCategory {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Category
	}
	return ErrCatInternal
}

// GetCode extracts the error code, or empty string for non-domain errors.
func GetCode(err error) string {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Code
	}
	return ""
}

// IsCategory checks if an error belongs to a category.
func IsCategory(err error, cat ErrorCategory) bool {
	return err != nil && GetCategory(err) == cat
}

// IsPrerequisite reports whether err is a PrerequisiteError.
func IsPrerequisite(err error) bool { return IsCategory(err, ErrCatPrerequisite) }

// IsConcurrentAccess reports whether err is a ConcurrentAccessError.
func IsConcurrentAccess(err error) bool { return IsCategory(err, ErrCatConflict) }

// IsInvalidTransition reports whether err is an InvalidTransitionError.
func IsInvalidTransition(err error) bool { return IsCategory(err, ErrCatTransition) }

// IsProviderError reports whether err is a ProviderError.
func IsProviderError(err error) bool { return IsCategory(err, ErrCatProvider) }

// IsStageProcessing reports whether err is a StageProcessingError.
func IsStageProcessing(err error) bool { return IsCategory(err, ErrCatStage) }

// Predefined error codes
const (
	CodePrerequisiteMissing = "PREREQUISITE_MISSING"
	CodeStageInProgress     = "STAGE_IN_PROGRESS"
	CodeWorkflowReset       = "WORKFLOW_RESET"
	CodeSessionLimit        = "SESSION_LIMIT"
	CodeInvalidTransition   = "INVALID_TRANSITION"
	CodeStageFailed         = "STAGE_FAILED"

	// Validation error codes
	CodeEmptyBrief    = "EMPTY_BRIEF"
	CodeBriefTooLong  = "BRIEF_TOO_LONG"
	CodeInvalidConfig = "INVALID_CONFIG"
	CodeInvalidStage  = "INVALID_STAGE"
	CodeInvalidID     = "INVALID_ID"

	// Provider error codes
	CodeProviderTimeout     = "PROVIDER_TIMEOUT"
	CodeProviderAuth        = "PROVIDER_AUTH"
	CodeProviderQuota       = "PROVIDER_QUOTA"
	CodeProviderRateLimited = "PROVIDER_RATE_LIMITED"
	CodeProviderUnavailable = "PROVIDER_UNAVAILABLE"
	CodeProviderMalformed   = "PROVIDER_MALFORMED"
	CodeProviderNetwork     = "PROVIDER_NETWORK"
)

// MaxBriefLength is the maximum allowed campaign brief length.
const MaxBriefLength = 20000
