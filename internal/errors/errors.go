// Package errors provides structured error handling for segmenta operations.
// It defines error codes, typed errors for validation, scan execution and
// export failures, and utilities for classifying errors as retryable.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents different types of errors that can occur.
type ErrorCode string

const (
	// General errors.
	CodeUnknown       ErrorCode = "UNKNOWN"
	CodeValidation    ErrorCode = "VALIDATION"
	CodeConfiguration ErrorCode = "CONFIGURATION"
	CodeTimeout       ErrorCode = "TIMEOUT"
	CodeCanceled      ErrorCode = "CANCELED"

	// Scan execution errors.
	CodeScanFailed      ErrorCode = "SCAN_FAILED"
	CodeRetryable       ErrorCode = "RETRYABLE"
	CodeArtifactInvalid ErrorCode = "ARTIFACT_INVALID"
	CodeToolMissing     ErrorCode = "TOOL_MISSING"

	// Result processing errors.
	CodeParseFailed  ErrorCode = "PARSE_FAILED"
	CodeMergeFailed  ErrorCode = "MERGE_FAILED"
	CodeExportFailed ErrorCode = "EXPORT_FAILED"

	// File system errors.
	CodeFileNotFound ErrorCode = "FILE_NOT_FOUND"
)

// ValidationError represents a malformed or oversized network specification.
// Validation errors are user input problems and are never retried.
type ValidationError struct {
	Code    ErrorCode
	Message string
	Spec    string
	Cause   error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Spec != "" {
		return fmt.Sprintf("[%s] %s (spec: %s)", e.Code, e.Message, e.Spec)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a validation error for a network spec.
func NewValidationError(message, spec string) *ValidationError {
	return &ValidationError{
		Code:    CodeValidation,
		Message: message,
		Spec:    spec,
	}
}

// WrapValidationError wraps an existing error as a validation error.
func WrapValidationError(message, spec string, err error) *ValidationError {
	return &ValidationError{
		Code:    CodeValidation,
		Message: message,
		Spec:    spec,
		Cause:   err,
	}
}

// ScanError represents an error that occurred while executing or
// post-processing an external tool invocation.
type ScanError struct {
	Code    ErrorCode
	Message string
	Target  string
	Cause   error
}

// Error implements the error interface.
func (e *ScanError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("[%s] %s (target: %s)", e.Code, e.Message, e.Target)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *ScanError) Unwrap() error {
	return e.Cause
}

// NewScanError creates a new scan error with the specified code and message.
func NewScanError(code ErrorCode, message string) *ScanError {
	return &ScanError{Code: code, Message: message}
}

// NewScanErrorWithTarget creates a scan error for a specific target.
func NewScanErrorWithTarget(code ErrorCode, message, target string) *ScanError {
	return &ScanError{Code: code, Message: message, Target: target}
}

// WrapScanError wraps an existing error as a scan error.
func WrapScanError(code ErrorCode, message string, err error) *ScanError {
	return &ScanError{Code: code, Message: message, Cause: err}
}

// WrapScanErrorWithTarget wraps an error with target information.
func WrapScanErrorWithTarget(code ErrorCode, message, target string, err error) *ScanError {
	return &ScanError{Code: code, Message: message, Target: target, Cause: err}
}

// ExportError represents a reporting collaborator failure. Export errors
// never corrupt the canonical model; they only abort the offending export.
type ExportError struct {
	Code    ErrorCode
	Message string
	Format  string
	Cause   error
}

// Error implements the error interface.
func (e *ExportError) Error() string {
	if e.Format != "" {
		return fmt.Sprintf("[%s] %s (format: %s)", e.Code, e.Message, e.Format)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *ExportError) Unwrap() error {
	return e.Cause
}

// WrapExportError wraps an existing error as an export error.
func WrapExportError(message, format string, err error) *ExportError {
	return &ExportError{
		Code:    CodeExportFailed,
		Message: message,
		Format:  format,
		Cause:   err,
	}
}

// GetCode extracts the error code from an error if it has one. Wrapped
// errors are unwrapped until a coded error is found.
func GetCode(err error) ErrorCode {
	for err != nil {
		switch e := err.(type) {
		case *ValidationError:
			return e.Code
		case *ScanError:
			return e.Code
		case *ExportError:
			return e.Code
		}
		err = errors.Unwrap(err)
	}
	return CodeUnknown
}

// IsCode checks if an error has a specific error code.
func IsCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// IsRetryable determines if an error indicates a retryable condition.
// The retry helper inspects codes rather than concrete error types, so a
// retryable classification survives wrapping.
func IsRetryable(err error) bool {
	switch GetCode(err) {
	case CodeRetryable, CodeTimeout, CodeArtifactInvalid:
		return true
	default:
		return false
	}
}

// IsValidation reports whether the error is a network spec validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Retryable marks an error as retryable for the backoff loop. It is the
// internal signal used by the executor and probe; it never escapes them.
func Retryable(message string, err error) *ScanError {
	return WrapScanError(CodeRetryable, message, err)
}

// ErrScanTimeout creates an error for scan timeouts.
func ErrScanTimeout(target string) *ScanError {
	return NewScanErrorWithTarget(CodeTimeout, "scan operation timed out", target)
}

// ErrToolMissing creates an error for a missing external tool binary.
func ErrToolMissing(tool string) *ScanError {
	return NewScanError(CodeToolMissing, fmt.Sprintf("%s is not installed or not executable", tool))
}
