package errors

import (
	"fmt"
	"strings"
	"time"
)

// Error types for the text search system
type ErrorType string

const (
	// Search errors
	ErrorTypeSearch ErrorType = "search"
	ErrorTypeResult ErrorType = "invalid_result"

	// File errors
	ErrorTypeFileNotFound ErrorType = "file_not_found"
	ErrorTypePermission   ErrorType = "permission"

	// Configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// SearchErrorCode classifies why a search failed
type SearchErrorCode int

const (
	CodeUnknownEncoding SearchErrorCode = iota + 1
	CodeRegexParseError
	CodeGlobParseError
	CodeInvalidLiteral
	CodeProviderError
	CodeOther
	CodeCanceled
)

func (c SearchErrorCode) String() string {
	switch c {
	case CodeUnknownEncoding:
		return "unknown_encoding"
	case CodeRegexParseError:
		return "regex_parse_error"
	case CodeGlobParseError:
		return "glob_parse_error"
	case CodeInvalidLiteral:
		return "invalid_literal"
	case CodeProviderError:
		return "provider_error"
	case CodeCanceled:
		return "canceled"
	default:
		return "other"
	}
}

// SearchError represents a search operation error
type SearchError struct {
	Type       ErrorType
	Code       SearchErrorCode
	Pattern    string
	Underlying error
	Timestamp  time.Time
}

// NewSearchError creates a new search error
func NewSearchError(code SearchErrorCode, pattern string, err error) *SearchError {
	return &SearchError{
		Type:       ErrorTypeSearch,
		Code:       code,
		Pattern:    pattern,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *SearchError) Error() string {
	if e.Pattern == "" {
		return fmt.Sprintf("search failed (%s): %v", e.Code, e.Underlying)
	}
	return fmt.Sprintf("search failed for pattern %q (%s): %v", e.Pattern, e.Code, e.Underlying)
}

// Unwrap returns the underlying error
func (e *SearchError) Unwrap() error {
	return e.Underlying
}

// InvalidResultError describes a provider result whose ranges and preview
// matches disagree in shape or length
type InvalidResultError struct {
	Type   ErrorType
	Path   string
	Reason string
}

// NewInvalidResultError creates a new invalid result error
func NewInvalidResultError(path, reason string) *InvalidResultError {
	return &InvalidResultError{
		Type:   ErrorTypeResult,
		Path:   path,
		Reason: reason,
	}
}

// Error implements the error interface
func (e *InvalidResultError) Error() string {
	return fmt.Sprintf("invalid provider result for %s: %s", e.Path, e.Reason)
}

// FileError represents a file-related error
type FileError struct {
	Type       ErrorType
	Path       string
	Operation  string
	Underlying error
	Timestamp  time.Time
}

// NewFileError creates a new file error
func NewFileError(op, path string, err error) *FileError {
	errorType := ErrorTypeFileNotFound
	if isPermissionError(err) {
		errorType = ErrorTypePermission
	}

	return &FileError{
		Type:       errorType,
		Path:       path,
		Operation:  op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// isPermissionError checks if the error is a permission error
func isPermissionError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return errStr == "permission denied" || errStr == "access denied"
}

// Error implements the error interface
func (e *FileError) Error() string {
	return fmt.Sprintf("file %s failed for %s: %v", e.Operation, e.Path, e.Underlying)
}

// Unwrap returns the underlying error
func (e *FileError) Unwrap() error {
	return e.Underlying
}

// ConfigError represents a configuration error
type ConfigError struct {
	Type       ErrorType
	Field      string
	Value      string
	Underlying error
	Timestamp  time.Time
}

// NewConfigError creates a new config error
func NewConfigError(field, value string, err error) *ConfigError {
	return &ConfigError{
		Type:       ErrorTypeConfig,
		Field:      field,
		Value:      value,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error for field %s (value %s): %v", e.Field, e.Value, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ConfigError) Unwrap() error {
	return e.Underlying
}

// MultiError accumulates independent failures so a caller can report
// all of them at once. The zero value is ready to use.
type MultiError struct {
	Errors []error
}

// Append records err; nil is ignored
func (e *MultiError) Append(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// Len reports how many errors were recorded
func (e *MultiError) Len() int {
	return len(e.Errors)
}

// ErrOrNil returns nil when nothing was recorded, otherwise e
func (e *MultiError) ErrOrNil() error {
	if e == nil || len(e.Errors) == 0 {
		return nil
	}
	return e
}

// Error joins the recorded messages, one per failure
func (e *MultiError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "no errors"
	case 1:
		return e.Errors[0].Error()
	}
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d errors: %s", len(e.Errors), strings.Join(msgs, "; "))
}

// Unwrap exposes every recorded error to errors.Is and errors.As
func (e *MultiError) Unwrap() []error {
	return e.Errors
}
