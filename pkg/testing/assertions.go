// Copyright 2026 © The Claimforge Authors
// SPDX-License-Identifier: Apache-2.0

// Package testing provides utilities for testing claim generation and
// exchange flows: a scripted adjudicator stub and assertion helpers for
// submission results and generated instances.
package testing

import (
	"strings"
	"testing"

	"github.com/zebrarx/claimforge/pkg/errors"
	"github.com/zebrarx/claimforge/pkg/exchange"
	"github.com/zebrarx/claimforge/pkg/schema"
)

// Assertions provides assertion helpers for testing.
type Assertions struct {
	t      *testing.T
	failed bool
}

// NewAssertions creates a new assertions helper.
func NewAssertions(t *testing.T) *Assertions {
	return &Assertions{t: t}
}

// Failed returns true if any assertion has failed.
func (a *Assertions) Failed() bool {
	return a.failed
}

// AssertEqual asserts that two values are equal.
func (a *Assertions) AssertEqual(expected, actual any, msg string) {
	a.t.Helper()
	if expected != actual {
		a.t.Errorf("%s: expected %v, got %v", msg, expected, actual)
		a.failed = true
	}
}

// AssertTrue asserts that the value is true.
func (a *Assertions) AssertTrue(value bool, msg string) {
	a.t.Helper()
	if !value {
		a.t.Errorf("%s: expected true", msg)
		a.failed = true
	}
}

// AssertContains asserts that the string contains the substring.
func (a *Assertions) AssertContains(s, substr, msg string) {
	a.t.Helper()
	if !strings.Contains(s, substr) {
		a.t.Errorf("%s: %q does not contain %q", msg, s, substr)
		a.failed = true
	}
}

// AssertError asserts that the error is not nil.
func (a *Assertions) AssertError(err error, msg string) {
	a.t.Helper()
	if err == nil {
		a.t.Errorf("%s: expected error, got nil", msg)
		a.failed = true
	}
}

// AssertNoError asserts that the error is nil.
func (a *Assertions) AssertNoError(err error, msg string) {
	a.t.Helper()
	if err != nil {
		a.t.Errorf("%s: unexpected error: %v", msg, err)
		a.failed = true
	}
}

// AssertErrorCode asserts that the error carries the given code.
func (a *Assertions) AssertErrorCode(err error, code errors.ErrorCode, msg string) {
	a.t.Helper()
	if !errors.HasCode(err, code) {
		a.t.Errorf("%s: expected error code %s, got %v", msg, code, err)
		a.failed = true
	}
}

// AssertConforms asserts that the instance validates against the schema.
func (a *Assertions) AssertConforms(reg *schema.Registry, schemaName string, instance map[string]any, msg string) {
	a.t.Helper()
	if err := schema.Validate(reg, schemaName, instance); err != nil {
		a.t.Errorf("%s: instance does not conform to %s: %v", msg, schemaName, err)
		a.failed = true
	}
}

// ResultAssertions provides assertion helpers for submission results.
type ResultAssertions struct {
	*Assertions
	result *exchange.Result
}

// AssertResult creates result assertions for the given result.
func (a *Assertions) AssertResult(result *exchange.Result) *ResultAssertions {
	a.t.Helper()
	if result == nil {
		a.t.Error("result is nil")
		a.failed = true
		return &ResultAssertions{Assertions: a, result: &exchange.Result{}}
	}
	return &ResultAssertions{Assertions: a, result: result}
}

// InState asserts the result landed in the given state.
func (r *ResultAssertions) InState(state exchange.State) *ResultAssertions {
	r.t.Helper()
	if r.result.State != state {
		r.t.Errorf("expected state %s, got %s", state, r.result.State)
		r.failed = true
	}
	return r
}

// HasStatusCode asserts the HTTP status the adjudicator returned.
func (r *ResultAssertions) HasStatusCode(code int) *ResultAssertions {
	r.t.Helper()
	if r.result.StatusCode != code {
		r.t.Errorf("expected status %d, got %d", code, r.result.StatusCode)
		r.failed = true
	}
	return r
}

// HasValidationError asserts a captured validation error with the code.
func (r *ResultAssertions) HasValidationError(code errors.ErrorCode) *ResultAssertions {
	r.t.Helper()
	if !errors.HasCode(r.result.ValidationErr, code) {
		r.t.Errorf("expected captured %s, got %v", code, r.result.ValidationErr)
		r.failed = true
	}
	return r
}

// Validated asserts the result reached VALIDATED with no captured error.
func (r *ResultAssertions) Validated() *ResultAssertions {
	r.t.Helper()
	if r.result.State != exchange.StateValidated {
		r.t.Errorf("expected VALIDATED, got %s (validation error: %v)", r.result.State, r.result.ValidationErr)
		r.failed = true
	}
	return r
}

// RequireNoError fails the test immediately if err is not nil.
func RequireNoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", msg, err)
	}
}

// RequireEqual fails the test immediately if values are not equal.
func RequireEqual(t *testing.T, expected, actual any, msg string) {
	t.Helper()
	if expected != actual {
		t.Fatalf("%s: expected %v, got %v", msg, expected, actual)
	}
}
