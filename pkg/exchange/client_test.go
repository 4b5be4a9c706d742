// Copyright 2026 © The Claimforge Authors
// SPDX-License-Identifier: Apache-2.0

package exchange

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/zebrarx/claimforge/pkg/errors"
	"github.com/zebrarx/claimforge/pkg/ncpdp"
	"github.com/zebrarx/claimforge/pkg/resilience"
	"github.com/zebrarx/claimforge/pkg/schema"
)

func testRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	reg := schema.NewRegistry()
	if err := ncpdp.RegisterSchemas(reg); err != nil {
		t.Fatalf("register claim schemas: %v", err)
	}
	if err := RegisterSchemas(reg); err != nil {
		t.Fatalf("register exchange schemas: %v", err)
	}
	return reg
}

func testSubmission(t *testing.T) *Submission {
	t.Helper()
	reg := testRegistry(t)
	claim, err := ncpdp.NewFactory(reg).Claim(context.Background(), 42)
	if err != nil {
		t.Fatalf("draw claim: %v", err)
	}
	sub, err := NewSubmission(claim, WithDebug())
	if err != nil {
		t.Fatalf("build submission: %v", err)
	}
	return sub
}

func validResponseBody(t *testing.T, messageID string, rejects []Reject) []byte {
	t.Helper()
	if rejects == nil {
		rejects = []Reject{}
	}
	raw, err := json.Marshal(&ClaimResponse{
		MessageID:   messageID,
		Transaction: "QjE=",
		TransactionContext: &TransactionContext{
			AuthorizationNumber: "AUTH001",
			TransactionID:       uuid.NewString(),
			ClaimID:             uuid.NewString(),
			TransactionStatus:   "P",
			Rejects:             rejects,
		},
	})
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}
	return raw
}

func TestSendValidatedResponse(t *testing.T) {
	sub := testSubmission(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/claims" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var got Submission
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode submission: %v", err)
		}
		if got.MessageID != sub.MessageID {
			t.Errorf("message id drifted: %q != %q", got.MessageID, sub.MessageID)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(validResponseBody(t, got.MessageID, nil))
	}))
	defer server.Close()

	client := New(server.URL, testRegistry(t))
	result, err := client.Send(context.Background(), sub)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if result.State != StateValidated {
		t.Errorf("state = %s, want %s", result.State, StateValidated)
	}
	if result.SchemaName != SchemaResponse {
		t.Errorf("schema = %q, want %q", result.SchemaName, SchemaResponse)
	}
	if result.ValidationErr != nil {
		t.Errorf("unexpected validation error: %v", result.ValidationErr)
	}
	if result.StatusCode != http.StatusOK {
		t.Errorf("status = %d", result.StatusCode)
	}
	if result.SentAt.IsZero() || result.CompletedAt.IsZero() {
		t.Errorf("expected timestamps to be recorded")
	}

	resp, err := ParseResponse(result.Response)
	if err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if resp.Rejected() {
		t.Errorf("expected clean adjudication")
	}
}

func TestSendRejectedClaimStillValidates(t *testing.T) {
	// An adjudication reject is a valid response; only schema violations
	// land in VALIDATION_FAILED.
	sub := testSubmission(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(validResponseBody(t, sub.MessageID, []Reject{{Code: "70", Message: "Product/Service Not Covered"}}))
	}))
	defer server.Close()

	result, err := New(server.URL, testRegistry(t)).Send(context.Background(), sub)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if result.State != StateValidated {
		t.Fatalf("state = %s, want %s", result.State, StateValidated)
	}
	resp, err := ParseResponse(result.Response)
	if err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if !resp.Rejected() {
		t.Errorf("expected rejects to surface on the typed model")
	}
}

func TestSendSchemaHeaderOverride(t *testing.T) {
	// The adjudicator can name another registered schema; here it echoes
	// the submission envelope back.
	sub := testSubmission(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(SchemaHeaderName, SchemaSubmission)
		raw, _ := json.Marshal(sub)
		w.Write(raw)
	}))
	defer server.Close()

	result, err := New(server.URL, testRegistry(t)).Send(context.Background(), sub)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if result.State != StateValidated {
		t.Errorf("state = %s, want %s (validation error: %v)", result.State, StateValidated, result.ValidationErr)
	}
	if result.SchemaName != SchemaSubmission {
		t.Errorf("schema = %q, want %q", result.SchemaName, SchemaSubmission)
	}
}

func TestSendNonconformingResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message_id": "not-a-uuid", "transaction": "", "transaction_context": null}`))
	}))
	defer server.Close()

	result, err := New(server.URL, testRegistry(t)).Send(context.Background(), testSubmission(t))
	if err != nil {
		t.Fatalf("expected validation failure to be captured, not returned: %v", err)
	}
	if result.State != StateValidationFailed {
		t.Errorf("state = %s, want %s", result.State, StateValidationFailed)
	}
	if !errors.HasCode(result.ValidationErr, errors.CodeValidation) {
		t.Errorf("expected captured VALIDATION_ERROR, got %v", result.ValidationErr)
	}
}

func TestSendMalformedResponseBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	result, err := New(server.URL, testRegistry(t)).Send(context.Background(), testSubmission(t))
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if result.State != StateValidationFailed {
		t.Errorf("state = %s, want %s", result.State, StateValidationFailed)
	}
	if !errors.HasCode(result.ValidationErr, errors.CodeCodec) {
		t.Errorf("expected captured CODEC_ERROR, got %v", result.ValidationErr)
	}
}

func TestSendServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	result, err := New(server.URL, testRegistry(t)).Send(context.Background(), testSubmission(t))
	if !errors.HasCode(err, errors.CodeTransport) {
		t.Fatalf("expected TRANSPORT_ERROR, got %v", err)
	}
	if result.State != StateTransportFailed {
		t.Errorf("state = %s, want %s", result.State, StateTransportFailed)
	}
	if result.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d", result.StatusCode)
	}
}

func TestSendDeadServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	result, err := New(server.URL, testRegistry(t)).Send(context.Background(), testSubmission(t))
	if !errors.HasCode(err, errors.CodeTransport) {
		t.Fatalf("expected TRANSPORT_ERROR, got %v", err)
	}
	if result.State != StateTransportFailed {
		t.Errorf("state = %s, want %s", result.State, StateTransportFailed)
	}
}

func TestSendRetriesServerErrors(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			http.Error(w, "warming up", http.StatusServiceUnavailable)
			return
		}
		w.Write(validResponseBody(t, uuid.NewString(), nil))
	}))
	defer server.Close()

	retry := resilience.DefaultRetryConfig().
		WithInitialDelay(time.Millisecond).
		WithMaxDelay(time.Millisecond)
	result, err := New(server.URL, testRegistry(t), WithRetry(retry)).Send(context.Background(), testSubmission(t))
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if result.State != StateValidated {
		t.Errorf("state = %s, want %s", result.State, StateValidated)
	}
	if result.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", result.Attempts)
	}
}

func TestSendDoesNotRetryClientErrors(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "bad payload", http.StatusBadRequest)
	}))
	defer server.Close()

	retry := resilience.DefaultRetryConfig().WithInitialDelay(time.Millisecond)
	_, err := New(server.URL, testRegistry(t), WithRetry(retry)).Send(context.Background(), testSubmission(t))
	if !errors.HasCode(err, errors.CodeTransport) {
		t.Fatalf("expected TRANSPORT_ERROR, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected a single attempt for a 4xx, got %d", calls)
	}
}

// Callers must never observe a PENDING or SENT result: whatever happens on
// the wire, Send hands back a result that finished its lifecycle.
func TestSendResultsAreTerminal(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(validResponseBody(t, uuid.NewString(), nil))
	}))
	defer ok.Close()
	nonconforming := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer nonconforming.Close()
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	dead.Close()

	for _, url := range []string{ok.URL, nonconforming.URL, dead.URL} {
		result, _ := New(url, testRegistry(t)).Send(context.Background(), testSubmission(t))
		if result == nil {
			t.Fatalf("send against %s returned no result", url)
		}
		if !result.State.Terminal() {
			t.Errorf("send against %s left result in non-terminal state %s", url, result.State)
		}
	}
}

func TestSendNilSubmission(t *testing.T) {
	if _, err := New("http://localhost", testRegistry(t)).Send(context.Background(), nil); !errors.HasCode(err, errors.CodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func TestStateTransitions(t *testing.T) {
	legal := []struct{ from, to State }{
		{StatePending, StateSent},
		{StatePending, StateTransportFailed},
		{StateSent, StateValidated},
		{StateSent, StateValidationFailed},
		{StateSent, StateTransportFailed},
	}
	for _, tt := range legal {
		if !tt.from.CanTransitionTo(tt.to) {
			t.Errorf("expected %s -> %s to be legal", tt.from, tt.to)
		}
	}

	illegal := []struct{ from, to State }{
		{StatePending, StateValidated},
		{StatePending, StateValidationFailed},
		{StateValidated, StateSent},
		{StateValidationFailed, StateValidated},
		{StateTransportFailed, StateSent},
	}
	for _, tt := range illegal {
		if tt.from.CanTransitionTo(tt.to) {
			t.Errorf("expected %s -> %s to be illegal", tt.from, tt.to)
		}
	}

	for _, s := range []State{StateValidated, StateValidationFailed, StateTransportFailed} {
		if !s.Terminal() {
			t.Errorf("expected %s to be terminal", s)
		}
	}
}

func TestSubmissionRoundTrip(t *testing.T) {
	reg := testRegistry(t)
	claim, err := ncpdp.NewFactory(reg).Claim(context.Background(), 7)
	if err != nil {
		t.Fatalf("draw claim: %v", err)
	}
	sub, err := NewSubmission(claim, WithWebPricing(), WithRulesRange(0, 12))
	if err != nil {
		t.Fatalf("build submission: %v", err)
	}
	if sub.RulesExecutionRange.Stop != 12 {
		t.Errorf("rules range stop = %d", sub.RulesExecutionRange.Stop)
	}

	decoded, err := sub.DecodeTransaction()
	if err != nil {
		t.Fatalf("decode transaction: %v", err)
	}
	original, _ := claim.Serialize()
	roundTripped, err := decoded.Serialize()
	if err != nil {
		t.Fatalf("serialize decoded claim: %v", err)
	}
	if roundTripped != original {
		t.Errorf("claim drifted through the submission envelope")
	}
}
