// Package errors provides standardized error handling for the ghostwriter workers
// and their conversion to BPMN errors.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ErrorCode is a stable, machine-readable failure code.
type ErrorCode string

const (
	ErrCodeInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrCodeInvalidPrompt ErrorCode = "INVALID_PROMPT"
	ErrCodeRateLimited   ErrorCode = "RATE_LIMITED"

	ErrCodeGenerationFailed  ErrorCode = "GENERATION_FAILED"
	ErrCodeGenerationTimeout ErrorCode = "GENERATION_TIMEOUT"
	ErrCodeRewriteFailed     ErrorCode = "REWRITE_FAILED"

	ErrCodeSessionNotFound    ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeSessionStoreFailed ErrorCode = "SESSION_STORE_FAILED"
	ErrCodeNoContent          ErrorCode = "NO_CONTENT"

	ErrCodeUnsupportedExportFormat ErrorCode = "UNSUPPORTED_EXPORT_FORMAT"
	ErrCodeExportFailed            ErrorCode = "EXPORT_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError is a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// WithMetadata returns e with key set in its metadata.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// BPMNError is what gets reported to the workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns the process variables set alongside a failed or thrown job.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Job variables failed validation", details, false)
}

func NewInvalidPromptError(details string) *StandardError {
	return newError(ErrCodeInvalidPrompt, "Please enter a valid prompt", details, false)
}

// NewRateLimitedError carries the wait time in metadata as whole seconds.
func NewRateLimitedError(sessionID string, retryAfter time.Duration) *StandardError {
	return newError(ErrCodeRateLimited, "Generation limit reached, try again later",
		fmt.Sprintf("sessionId: %s, retryAfter: %s", sessionID, retryAfter.Round(time.Second)), false).
		WithMetadata("retryAfterSeconds", int64(retryAfter.Round(time.Second)/time.Second))
}

func NewGenerationFailedError(err error) *StandardError {
	return newError(ErrCodeGenerationFailed, "Error generating content", err.Error(), true)
}

func NewGenerationTimeoutError(err error) *StandardError {
	return newError(ErrCodeGenerationTimeout, "Content generation timed out", err.Error(), true)
}

func NewRewriteFailedError(err error) *StandardError {
	return newError(ErrCodeRewriteFailed, "Error regenerating content", err.Error(), true)
}

func NewSessionNotFoundError(sessionID string) *StandardError {
	return newError(ErrCodeSessionNotFound, "Session not found", fmt.Sprintf("sessionId: %s", sessionID), false)
}

func NewSessionStoreFailedError(err error) *StandardError {
	return newError(ErrCodeSessionStoreFailed, "Session store error", err.Error(), true)
}

func NewNoContentError(details string) *StandardError {
	return newError(ErrCodeNoContent, "No content available", details, false)
}

func NewUnsupportedExportFormatError(format string) *StandardError {
	return newError(ErrCodeUnsupportedExportFormat, "Unsupported export format", fmt.Sprintf("format: %s", format), false)
}

func NewExportFailedError(err error) *StandardError {
	return newError(ErrCodeExportFailed, "Export failed", err.Error(), false)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false)
}

// GetRetryCount returns how many times the engine should retry a job failing with code.
// External calls already retry once internally, so job-level retries stay small.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeSessionStoreFailed:
		return 3
	case ErrCodeGenerationFailed,
		ErrCodeRewriteFailed:
		return 2
	case ErrCodeGenerationTimeout:
		return 1
	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError for the workflow engine.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"errorCategory":     GetErrorCategory(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           string(stdErr.Code),
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory groups codes for dashboards and log filters.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "UNSUPPORTED"):
		return "VALIDATION"
	case strings.Contains(codeStr, "RATE_LIMIT"):
		return "RATE_LIMIT"
	case strings.Contains(codeStr, "GENERATION") || strings.Contains(codeStr, "REWRITE"):
		return "AI"
	case strings.Contains(codeStr, "SESSION") || codeStr == string(ErrCodeNoContent):
		return "SESSION"
	case strings.Contains(codeStr, "EXPORT"):
		return "EXPORT"
	default:
		return "OTHER"
	}
}
