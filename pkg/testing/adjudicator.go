// Copyright 2026 © The Claimforge Authors
// SPDX-License-Identifier: Apache-2.0

package testing

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/zebrarx/claimforge/pkg/exchange"
)

// StubAdjudicator is a scripted HTTP adjudicator for testing exchange
// flows. It returns queued responses in order and captures every
// submission it receives. When the script is exhausted it echoes the
// submission back, announcing the submission schema in the response
// header, so happy-path tests need no scripting at all.
type StubAdjudicator struct {
	mu          sync.Mutex
	server      *httptest.Server
	responses   []ScriptedResponse
	submissions []exchange.Submission
}

// ScriptedResponse defines one response for the stub adjudicator.
type ScriptedResponse struct {
	StatusCode int
	Body       any    // marshaled to JSON; []byte and string pass through raw
	SchemaName string // emitted via the schema response header when set
}

// NewStubAdjudicator starts a stub adjudicator. Callers own Close.
func NewStubAdjudicator() *StubAdjudicator {
	stub := &StubAdjudicator{}
	stub.server = httptest.NewServer(http.HandlerFunc(stub.handle))
	return stub
}

// URL returns the stub's base URL.
func (s *StubAdjudicator) URL() string {
	return s.server.URL
}

// Close shuts the stub down.
func (s *StubAdjudicator) Close() {
	s.server.Close()
}

// Script queues a response.
func (s *StubAdjudicator) Script(resp ScriptedResponse) *StubAdjudicator {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses = append(s.responses, resp)
	return s
}

// ScriptStatus queues a bare status-code response.
func (s *StubAdjudicator) ScriptStatus(code int) *StubAdjudicator {
	return s.Script(ScriptedResponse{StatusCode: code})
}

// Submissions returns the submissions received so far.
func (s *StubAdjudicator) Submissions() []exchange.Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]exchange.Submission, len(s.submissions))
	copy(out, s.submissions)
	return out
}

func (s *StubAdjudicator) handle(w http.ResponseWriter, r *http.Request) {
	var sub exchange.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		http.Error(w, "malformed submission", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.submissions = append(s.submissions, sub)
	var next *ScriptedResponse
	if len(s.responses) > 0 {
		next = &s.responses[0]
		s.responses = s.responses[1:]
	}
	s.mu.Unlock()

	if next == nil {
		// Echo mode.
		w.Header().Set(exchange.SchemaHeaderName, exchange.SchemaSubmission)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(sub)
		return
	}

	if next.SchemaName != "" {
		w.Header().Set(exchange.SchemaHeaderName, next.SchemaName)
	}
	status := next.StatusCode
	if status == 0 {
		status = http.StatusOK
	}

	switch body := next.Body.(type) {
	case nil:
		w.WriteHeader(status)
	case []byte:
		w.WriteHeader(status)
		w.Write(body)
	case string:
		w.WriteHeader(status)
		w.Write([]byte(body))
	default:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}
}
