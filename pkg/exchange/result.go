// Copyright 2026 © The Claimforge Authors
// SPDX-License-Identifier: Apache-2.0

package exchange

import (
	"fmt"
	"time"

	"github.com/zebrarx/claimforge/pkg/errors"
)

// State is the lifecycle stage of a submission.
type State string

const (
	// StatePending means the wire exchange has not completed.
	StatePending State = "PENDING"

	// StateSent means the adjudicator accepted the request; validation of
	// the response is still outstanding.
	StateSent State = "SENT"

	// StateValidated means the response conforms to its schema.
	StateValidated State = "VALIDATED"

	// StateValidationFailed means the response arrived but does not
	// conform. The violation is captured on the Result, not returned.
	StateValidationFailed State = "VALIDATION_FAILED"

	// StateTransportFailed means the exchange itself failed.
	StateTransportFailed State = "TRANSPORT_FAILED"
)

var stateTransitions = map[State][]State{
	StatePending: {StateSent, StateTransportFailed},
	StateSent:    {StateValidated, StateValidationFailed, StateTransportFailed},
}

// CanTransitionTo reports whether moving from s to next is legal.
func (s State) CanTransitionTo(next State) bool {
	for _, allowed := range stateTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether the state has no outgoing transitions.
func (s State) Terminal() bool {
	return len(stateTransitions[s]) == 0
}

// Result is the outcome of one submission. Transport failures surface as
// errors from Send; validation failures live in ValidationErr so callers
// can inspect the nonconforming response.
type Result struct {
	MessageID     string
	State         State
	SchemaName    string
	StatusCode    int
	Response      map[string]any
	ValidationErr error
	SentAt        time.Time
	CompletedAt   time.Time
	Attempts      int
}

func newResult(messageID, schemaName string) *Result {
	return &Result{
		MessageID:  messageID,
		State:      StatePending,
		SchemaName: schemaName,
	}
}

func (r *Result) transition(next State) error {
	if !r.State.CanTransitionTo(next) {
		return errors.New(errors.CodeInternal,
			fmt.Sprintf("illegal state transition %s -> %s", r.State, next), nil).
			WithAttribute("message_id", r.MessageID)
	}
	r.State = next
	return nil
}
