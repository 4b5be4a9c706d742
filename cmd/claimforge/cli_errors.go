// Copyright 2026 © The Claimforge Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/zebrarx/claimforge/pkg/errors"
)

// CLIError wraps ForgeError with CLI-specific formatting and hints.
type CLIError struct {
	*errors.ForgeError
	Hint string
}

// NewCLIError creates a new CLI error.
func NewCLIError(fe *errors.ForgeError, hint string) *CLIError {
	return &CLIError{
		ForgeError: fe,
		Hint:       hint,
	}
}

// Error returns the formatted error message with hints.
func (e *CLIError) Error() string {
	if e.ForgeError == nil {
		return "unknown error"
	}

	msg := e.ForgeError.Error()
	if e.Hint != "" {
		msg += "\n  Hint: " + e.Hint
	}
	return msg
}

// PrintError prints the error with appropriate formatting.
func (e *CLIError) PrintError(json bool) {
	if json {
		fmt.Fprintf(os.Stderr, `{"error":{"code":"%s","message":"%s","hint":"%s"}}%s`,
			e.ForgeError.Code,
			e.ForgeError.Message,
			e.Hint,
			"\n")
		return
	}

	fmt.Fprintf(os.Stderr, "Error [%s]: %s\n", e.ForgeError.Code, e.ForgeError.Message)
	if e.Hint != "" {
		fmt.Fprintf(os.Stderr, "  Hint: %s\n", e.Hint)
	}
}

// WrapConnectionError wraps a transport error with CLI hints.
func WrapConnectionError(err error, baseURL string) *CLIError {
	fe := errors.New(errors.CodeTransport, "exchange failed", err).
		WithContext("base_url", baseURL)
	return NewCLIError(fe, fmt.Sprintf("check that the adjudicator is running at %s", baseURL))
}

// WrapTimeoutError wraps a timeout error with CLI hints.
func WrapTimeoutError(err error, operation string) *CLIError {
	fe := errors.New(errors.CodeTimeout, operation+" timed out", err).
		WithContext("operation", operation)
	return NewCLIError(fe, "try increasing timeout with --timeout or check adjudicator health")
}

// NewInvalidArgumentError creates an invalid argument error with CLI hints.
func NewInvalidArgumentError(arg, reason string) *CLIError {
	fe := errors.New(errors.CodeInvalidInput, fmt.Sprintf("invalid argument: %s", reason), nil).
		WithContext("argument", arg)
	return NewCLIError(fe, "run 'claimforge help' for usage information")
}

// NewConfigError creates a configuration error with CLI hints.
func NewConfigError(err error, configPath string) *CLIError {
	fe := errors.New(errors.CodeInvalidInput, "configuration error", err).
		WithContext("config_path", configPath)

	hint := "check your configuration file syntax"
	if configPath != "" {
		hint = fmt.Sprintf("check %s for syntax errors", configPath)
	}
	return NewCLIError(fe, hint)
}

// NewRegistryError wraps a schema registry build failure with CLI hints.
func NewRegistryError(err error) *CLIError {
	return NewCLIError(errors.AsForgeError(err), "check schemas.paths in your config")
}

// WrapCodecError wraps a wire format error with CLI hints.
func WrapCodecError(err error, source string) *CLIError {
	fe := errors.New(errors.CodeCodec, "cannot decode transaction", err).
		WithContext("source", source)
	return NewCLIError(fe, "the input must be raw NCPDP telecom records, one claim per line")
}

// FormatErrorCode returns a user-friendly name for error codes.
func FormatErrorCode(code errors.ErrorCode) string {
	switch code {
	case errors.CodeInternal:
		return "Internal Error"
	case errors.CodeInvalidInput:
		return "Invalid Input"
	case errors.CodeDuplicateSchema:
		return "Duplicate Schema"
	case errors.CodeUnknownSchema:
		return "Unknown Schema"
	case errors.CodeSchemaCycle:
		return "Schema Cycle"
	case errors.CodeConstraintUnsatisfiable:
		return "Constraint Unsatisfiable"
	case errors.CodeTransport:
		return "Transport Error"
	case errors.CodeValidation:
		return "Validation Error"
	case errors.CodeCodec:
		return "Codec Error"
	case errors.CodeTimeout:
		return "Timeout"
	default:
		return string(code)
	}
}
