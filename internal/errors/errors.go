// Package errors provides a structured error type hierarchy for mentat.
//
// This package defines base error types for common error conditions, wrapped
// error types that add contextual information, and helper functions for error
// wrapping and type checking.
//
// # Error Types
//
// Base errors (sentinel errors):
//   - ErrCommandNotRecognized - no known workflow keyword in the input
//   - ErrContentNotExtracted - a post-type command had no extractable payload
//   - ErrDuplicateWorkflow - a workflow name was registered twice
//   - ErrWorkflowNotFound - dispatch targeted an unknown workflow
//   - ErrEnvironmentNotConfigured - workflow preconditions not currently met
//   - ErrWorkflowExecutionFailed - workflow execution failed after retry
//   - ErrLLMUnavailable - LLM not configured or the completion call failed
//   - ErrUnauthenticated - the external service rejected the credentials
//   - ErrForbidden - the external service denied the required scope
//
// Wrapped error types (add context):
//   - WorkflowError{Op, Err, Name} - workflow operation errors
//   - ParseError{Input, Err} - command parsing errors
//   - ConfigError{Path, Err} - configuration errors
//
// # Usage
//
//	// Use sentinel errors directly
//	return errors.ErrWorkflowNotFound
//
//	// Wrap with context using Wrap
//	return errors.Wrap(err, "postTweet")
//
//	// Use structured error types
//	return &errors.WorkflowError{Op: "register", Err: errors.ErrDuplicateWorkflow, Name: "twitter"}
//
//	// Check error types
//	if errors.IsEnvironmentNotConfigured(err) {
//	    // show configuration hint
//	}
package errors

import (
	"errors"
	"fmt"
)

// Base error types (sentinel errors).
var (
	// ErrCommandNotRecognized indicates no known workflow keyword was found.
	ErrCommandNotRecognized = baseError("command not recognized")

	// ErrContentNotExtracted indicates a post-type command had no quoted or
	// phrase-delimited payload.
	ErrContentNotExtracted = baseError("could not extract content from command")

	// ErrDuplicateWorkflow indicates a workflow name was registered twice.
	ErrDuplicateWorkflow = baseError("workflow already registered")

	// ErrWorkflowNotFound indicates dispatch targeted an unknown workflow.
	ErrWorkflowNotFound = baseError("workflow not found")

	// ErrEnvironmentNotConfigured indicates a workflow's required
	// configuration is not currently present.
	ErrEnvironmentNotConfigured = baseError("environment not configured")

	// ErrWorkflowExecutionFailed indicates execution failed even after the
	// single reconfigure-and-retry attempt.
	ErrWorkflowExecutionFailed = baseError("workflow execution failed")

	// ErrLLMUnavailable indicates the LLM is not configured or the
	// completion call failed. Callers degrade gracefully; never fatal.
	ErrLLMUnavailable = baseError("LLM unavailable")

	// ErrUnauthenticated indicates the external service rejected the
	// credentials.
	ErrUnauthenticated = baseError("unauthenticated")

	// ErrForbidden indicates the external service denied the required
	// permission or scope.
	ErrForbidden = baseError("forbidden")
)

// baseError is a string that implements error.
type baseError string

func (e baseError) Error() string { return string(e) }

// WorkflowError represents an error that occurred during a workflow operation.
type WorkflowError struct {
	// Op is the operation being performed (e.g., "register", "execute").
	Op string
	// Err is the underlying error.
	Err error
	// Name is the workflow name (optional).
	Name string
}

func (e *WorkflowError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("workflow %s %q: %s", e.Op, e.Name, e.Err)
	}
	return fmt.Sprintf("workflow %s: %s", e.Op, e.Err)
}

func (e *WorkflowError) Unwrap() error { return e.Err }

// ParseError represents an error parsing a natural-language command.
type ParseError struct {
	// Input is the raw command string (optional).
	Input string
	// Err is the underlying error.
	Err error
}

func (e *ParseError) Error() string {
	if e.Input != "" {
		return fmt.Sprintf("parse %q: %s", e.Input, e.Err)
	}
	return fmt.Sprintf("parse: %s", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ConfigError represents an error related to configuration.
type ConfigError struct {
	// Path is the configuration file path (optional).
	Path string
	// Err is the underlying error.
	Err error
}

func (e *ConfigError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("config %s: %s", e.Path, e.Err)
	}
	return fmt.Sprintf("config: %s", e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Wrap adds context to an error by wrapping it with an operation name.
// The returned error implements Unwrap() allowing errors.Is and errors.As
// to work with the wrapped error.
func Wrap(err error, op string) error {
	return &wrappedError{op: op, err: err}
}

// wrappedError is an error with an operation context.
type wrappedError struct {
	op  string
	err error
}

func (e *wrappedError) Error() string { return fmt.Sprintf("%s: %s", e.op, e.err) }
func (e *wrappedError) Unwrap() error { return e.err }

// IsCommandNotRecognized reports whether err is or wraps ErrCommandNotRecognized.
func IsCommandNotRecognized(err error) bool {
	return errors.Is(err, ErrCommandNotRecognized)
}

// IsContentNotExtracted reports whether err is or wraps ErrContentNotExtracted.
func IsContentNotExtracted(err error) bool {
	return errors.Is(err, ErrContentNotExtracted)
}

// IsParseError reports whether err is a user-correctable parsing failure.
func IsParseError(err error) bool {
	return IsCommandNotRecognized(err) || IsContentNotExtracted(err)
}

// IsDuplicateWorkflow reports whether err is or wraps ErrDuplicateWorkflow.
func IsDuplicateWorkflow(err error) bool {
	return errors.Is(err, ErrDuplicateWorkflow)
}

// IsWorkflowNotFound reports whether err is or wraps ErrWorkflowNotFound.
func IsWorkflowNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}

// IsEnvironmentNotConfigured reports whether err is or wraps ErrEnvironmentNotConfigured.
func IsEnvironmentNotConfigured(err error) bool {
	return errors.Is(err, ErrEnvironmentNotConfigured)
}

// IsWorkflowExecutionFailed reports whether err is or wraps ErrWorkflowExecutionFailed.
func IsWorkflowExecutionFailed(err error) bool {
	return errors.Is(err, ErrWorkflowExecutionFailed)
}

// IsLLMUnavailable reports whether err is or wraps ErrLLMUnavailable.
func IsLLMUnavailable(err error) bool {
	return errors.Is(err, ErrLLMUnavailable)
}

// IsUnauthenticated reports whether err is or wraps ErrUnauthenticated.
func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrUnauthenticated)
}

// IsForbidden reports whether err is or wraps ErrForbidden.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// AsWorkflowError reports whether err can be typed as a *WorkflowError.
func AsWorkflowError(err error) (*WorkflowError, bool) {
	var we *WorkflowError
	if errors.As(err, &we) {
		return we, true
	}
	return nil, false
}

// AsParseError reports whether err can be typed as a *ParseError.
func AsParseError(err error) (*ParseError, bool) {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// AsConfigError reports whether err can be typed as a *ConfigError.
func AsConfigError(err error) (*ConfigError, bool) {
	var ce *ConfigError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
