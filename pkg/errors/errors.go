// SPDX-License-Identifier: Apache-2.0
// Package errors provides typed error handling with rich context for Claimforge.
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrorCode classifies Claimforge errors for monitoring and recovery.
type ErrorCode string

const (
	// CodeInternal indicates an internal system error.
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// CodeInvalidInput indicates the input was invalid.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeDuplicateSchema indicates a schema name was registered twice.
	CodeDuplicateSchema ErrorCode = "DUPLICATE_SCHEMA"

	// CodeUnknownSchema indicates a schema name is not registered.
	CodeUnknownSchema ErrorCode = "UNKNOWN_SCHEMA"

	// CodeSchemaCycle indicates a schema references itself, directly or transitively.
	CodeSchemaCycle ErrorCode = "SCHEMA_CYCLE"

	// CodeConstraintUnsatisfiable indicates a field's constraints admit no value.
	CodeConstraintUnsatisfiable ErrorCode = "CONSTRAINT_UNSATISFIABLE"

	// CodeTransport indicates a transport failure talking to the adjudicator.
	CodeTransport ErrorCode = "TRANSPORT_ERROR"

	// CodeValidation indicates a value does not conform to its schema.
	CodeValidation ErrorCode = "VALIDATION_ERROR"

	// CodeCodec indicates a wire format parse or serialize failure.
	CodeCodec ErrorCode = "CODEC_ERROR"

	// CodeTimeout indicates an operation exceeded its time limit.
	CodeTimeout ErrorCode = "TIMEOUT"
)

// ForgeError is a typed error with rich context for observability.
// It implements the error interface and can be unwrapped with errors.As().
type ForgeError struct {
	Code        ErrorCode
	Message     string
	Err         error
	Context     map[string]interface{}
	Attributes  map[string]string
	Recoverable bool
}

// Error implements the error interface.
func (e *ForgeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements errors.Unwrap for error chain traversal.
func (e *ForgeError) Unwrap() error {
	return e.Err
}

// MarshalJSON implements json.Marshaler for structured logging.
func (e *ForgeError) MarshalJSON() ([]byte, error) {
	type Alias ForgeError
	return json.Marshal(&struct {
		Message     string `json:"message"`
		Code        string `json:"code"`
		Err         string `json:"error,omitempty"`
		Recoverable bool   `json:"recoverable"`
		*Alias
	}{
		Message:     e.Error(),
		Code:        string(e.Code),
		Err:         fmt.Sprintf("%v", e.Err),
		Recoverable: e.Recoverable,
		Alias:       (*Alias)(e),
	})
}

// New creates a new ForgeError with the given code, message, and cause.
func New(code ErrorCode, msg string, cause error) *ForgeError {
	return &ForgeError{
		Code:       code,
		Message:    msg,
		Err:        cause,
		Context:    make(map[string]interface{}),
		Attributes: make(map[string]string),
		// Transport faults are environmental; everything else is a
		// programmer or schema-authoring error and must not be retried.
		Recoverable: code == CodeTransport || code == CodeTimeout,
	}
}

// WithContext adds a key-value pair to the error context.
// Returns the error for method chaining.
func (e *ForgeError) WithContext(key string, value interface{}) *ForgeError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithAttribute adds a string attribute for OTEL traces.
// Returns the error for method chaining.
func (e *ForgeError) WithAttribute(key, value string) *ForgeError {
	if e.Attributes == nil {
		e.Attributes = make(map[string]string)
	}
	e.Attributes[key] = value
	return e
}

// WithRecoverable sets whether the error can be recovered from.
// Returns the error for method chaining.
func (e *ForgeError) WithRecoverable(recoverable bool) *ForgeError {
	e.Recoverable = recoverable
	return e
}

// AsForgeError attempts to convert an error to a ForgeError.
// Returns the error as ForgeError if it is one, or wraps it otherwise.
func AsForgeError(err error) *ForgeError {
	if err == nil {
		return nil
	}
	var fe *ForgeError
	if errors.As(err, &fe) {
		return fe
	}
	// Wrap unknown error as internal
	return New(CodeInternal, "wrapped error", err)
}

// HasCode reports whether err (or anything it wraps) is a ForgeError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var fe *ForgeError
	if !errors.As(err, &fe) {
		return false
	}
	return fe.Code == code
}

// RecoverableString returns "true" or "false" as a string for observability.
func (e *ForgeError) RecoverableString() string {
	if e.Recoverable {
		return "true"
	}
	return "false"
}
