// Package errors provides coded errors for portsweep. Fatal run conditions
// (missing nmap, unreadable target file, bad configuration) carry an
// operator-facing remediation hint; per-target failures carry the target.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents different types of errors that can occur.
type ErrorCode string

const (
	// General errors.
	CodeUnknown       ErrorCode = "UNKNOWN"
	CodeValidation    ErrorCode = "VALIDATION"
	CodeConfiguration ErrorCode = "CONFIGURATION"
	CodeCanceled      ErrorCode = "CANCELED"

	// External tool errors.
	CodeToolNotFound     ErrorCode = "TOOL_NOT_FOUND"
	CodeToolUnresponsive ErrorCode = "TOOL_UNRESPONSIVE"

	// Scanning errors.
	CodeScanFailed  ErrorCode = "SCAN_FAILED"
	CodeParseFailed ErrorCode = "PARSE_FAILED"

	// File system errors.
	CodeFileNotFound   ErrorCode = "FILE_NOT_FOUND"
	CodeFileUnreadable ErrorCode = "FILE_UNREADABLE"
	CodeReportWrite    ErrorCode = "REPORT_WRITE"
)

// ScanError represents an error that occurred during scanning operations.
type ScanError struct {
	Code    ErrorCode
	Message string
	Target  string
	Hint    string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *ScanError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Target != "" {
		msg = fmt.Sprintf("%s (target: %s)", msg, e.Target)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ScanError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error.
func (e *ScanError) WithContext(key string, value interface{}) *ScanError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithHint attaches a remediation hint shown to the operator.
func (e *ScanError) WithHint(hint string) *ScanError {
	e.Hint = hint
	return e
}

// NewScanError creates a new scan error with the specified code and message.
func NewScanError(code ErrorCode, message string) *ScanError {
	return &ScanError{
		Code:    code,
		Message: message,
		Context: make(map[string]interface{}),
	}
}

// NewScanErrorWithTarget creates a scan error for a specific target.
func NewScanErrorWithTarget(code ErrorCode, message, target string) *ScanError {
	return &ScanError{
		Code:    code,
		Message: message,
		Target:  target,
		Context: make(map[string]interface{}),
	}
}

// WrapScanError wraps an existing error as a scan error.
func WrapScanError(code ErrorCode, message string, err error) *ScanError {
	return &ScanError{
		Code:    code,
		Message: message,
		Cause:   err,
		Context: make(map[string]interface{}),
	}
}

// WrapScanErrorWithTarget wraps an error with target information.
func WrapScanErrorWithTarget(code ErrorCode, message, target string, err error) *ScanError {
	return &ScanError{
		Code:    code,
		Message: message,
		Target:  target,
		Cause:   err,
		Context: make(map[string]interface{}),
	}
}

// ConfigError represents configuration-related errors.
type ConfigError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// WrapConfigError wraps an existing error as a configuration error.
func WrapConfigError(code ErrorCode, message string, err error) *ConfigError {
	return &ConfigError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// IsCode checks if an error, or any error it wraps, has a specific error code.
func IsCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// GetCode extracts the error code from an error chain if it has one.
func GetCode(err error) ErrorCode {
	var scanErr *ScanError
	if stderrors.As(err, &scanErr) {
		return scanErr.Code
	}
	var cfgErr *ConfigError
	if stderrors.As(err, &cfgErr) {
		return cfgErr.Code
	}
	return CodeUnknown
}

// IsFatal reports whether an error must stop the run before any target is scanned.
func IsFatal(err error) bool {
	switch GetCode(err) {
	case CodeToolNotFound, CodeToolUnresponsive, CodeFileNotFound, CodeFileUnreadable,
		CodeConfiguration, CodeValidation:
		return true
	default:
		return false
	}
}

// Hint returns the remediation hint attached anywhere in err's chain.
func Hint(err error) string {
	var scanErr *ScanError
	for stderrors.As(err, &scanErr) {
		if scanErr.Hint != "" {
			return scanErr.Hint
		}
		err = scanErr.Cause
	}
	return ""
}

// ErrTargetFileNotFound creates the fatal error for a missing target file.
func ErrTargetFileNotFound(path string, err error) *ScanError {
	return WrapScanError(CodeFileNotFound, "target file not found", err).
		WithContext("path", path).
		WithHint("check the path given with -f/--file")
}

// ErrTargetFileUnreadable creates the fatal error for a target file that cannot be read.
func ErrTargetFileUnreadable(path string, err error) *ScanError {
	return WrapScanError(CodeFileUnreadable, "target file unreadable", err).
		WithContext("path", path).
		WithHint("make sure the file is readable by the current user")
}

// ErrCanceled creates the error returned when the run is interrupted.
func ErrCanceled(err error) *ScanError {
	return WrapScanError(CodeCanceled, "scan interrupted", err)
}
