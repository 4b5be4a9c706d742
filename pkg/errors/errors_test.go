// SPDX-License-Identifier: Apache-2.0
package errors

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	cause := errors.New("connection refused")
	fe := New(CodeTransport, "claim submission failed", cause)

	if fe.Code != CodeTransport {
		t.Errorf("expected CodeTransport, got %v", fe.Code)
	}
	if fe.Message != "claim submission failed" {
		t.Errorf("expected message 'claim submission failed', got %q", fe.Message)
	}
	if fe.Err != cause {
		t.Errorf("expected cause to be preserved")
	}
	if !errors.Is(fe, cause) {
		t.Errorf("expected errors.Is to work with wrapped error")
	}
}

func TestRecoverableDefaults(t *testing.T) {
	if !New(CodeTransport, "transport", nil).Recoverable {
		t.Errorf("expected transport errors to default to recoverable")
	}
	if !New(CodeTimeout, "timeout", nil).Recoverable {
		t.Errorf("expected timeouts to default to recoverable")
	}
	for _, code := range []ErrorCode{
		CodeDuplicateSchema,
		CodeUnknownSchema,
		CodeSchemaCycle,
		CodeConstraintUnsatisfiable,
		CodeValidation,
		CodeCodec,
	} {
		if New(code, "x", nil).Recoverable {
			t.Errorf("expected %s to default to non-recoverable", code)
		}
	}
}

func TestWithContext(t *testing.T) {
	fe := New(CodeUnknownSchema, "schema not registered", nil)
	fe.WithContext("schema", "ncpdp.claim").
		WithContext("registered", []string{"ncpdp.header"})

	if fe.Context["schema"] != "ncpdp.claim" {
		t.Errorf("expected context schema to be 'ncpdp.claim'")
	}
	if fe.Context["registered"] == nil {
		t.Errorf("expected context registered to be set")
	}
}

func TestWithAttribute(t *testing.T) {
	fe := New(CodeValidation, "response did not conform", nil)
	fe.WithAttribute("field", "rxbin").
		WithAttribute("schema", "ncpdp.response")

	if fe.Attributes["field"] != "rxbin" {
		t.Errorf("expected attribute field")
	}
	if fe.Attributes["schema"] != "ncpdp.response" {
		t.Errorf("expected attribute schema")
	}
}

func TestError(t *testing.T) {
	tests := []struct {
		name     string
		fe       *ForgeError
		expected string
	}{
		{
			name:     "with cause",
			fe:       New(CodeTimeout, "operation timed out", errors.New("deadline exceeded")),
			expected: "[TIMEOUT] operation timed out: deadline exceeded",
		},
		{
			name:     "without cause",
			fe:       New(CodeDuplicateSchema, "schema already registered", nil),
			expected: "[DUPLICATE_SCHEMA] schema already registered",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fe.Error(); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestHasCode(t *testing.T) {
	inner := New(CodeConstraintUnsatisfiable, "min > max", nil)
	wrapped := New(CodeInternal, "generation failed", inner)

	if !HasCode(wrapped, CodeInternal) {
		t.Errorf("expected outermost code to match")
	}
	if HasCode(errors.New("plain"), CodeInternal) {
		t.Errorf("expected plain error not to match")
	}
	if HasCode(nil, CodeInternal) {
		t.Errorf("expected nil not to match")
	}
}

func TestAsForgeError(t *testing.T) {
	fe := New(CodeSchemaCycle, "cycle detected", nil)
	if AsForgeError(fe) != fe {
		t.Errorf("expected same error back")
	}

	plain := errors.New("boom")
	wrapped := AsForgeError(plain)
	if wrapped.Code != CodeInternal {
		t.Errorf("expected plain error to wrap as internal, got %v", wrapped.Code)
	}
	if AsForgeError(nil) != nil {
		t.Errorf("expected nil for nil error")
	}
}

func TestMarshalJSON(t *testing.T) {
	fe := New(CodeValidation, "field out of range", nil).
		WithAttribute("field", "id")

	raw, err := json.Marshal(fe)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded["code"] != string(CodeValidation) {
		t.Errorf("expected code in JSON, got %v", decoded["code"])
	}
	if decoded["recoverable"] != false {
		t.Errorf("expected recoverable=false in JSON")
	}
}
