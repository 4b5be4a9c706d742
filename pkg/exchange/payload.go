// Copyright 2026 © The Claimforge Authors
// SPDX-License-Identifier: Apache-2.0

// Package exchange submits claim transactions to a remote adjudicator and
// validates what comes back. A submission moves through a small state
// machine: PENDING until the wire exchange completes, SENT once the
// adjudicator accepted the request, then VALIDATED or VALIDATION_FAILED
// depending on whether the response conforms to its schema. Transport
// faults end in TRANSPORT_FAILED.
package exchange

import (
	"encoding/base64"

	"github.com/google/uuid"

	"github.com/zebrarx/claimforge/pkg/errors"
	"github.com/zebrarx/claimforge/pkg/ncpdp"
)

// Rules execution defaults; the adjudicator runs rule stages start..stop.
const (
	DefaultRulesStart = 0
	DefaultRulesStop  = 29
)

// RulesRange selects which adjudication rule stages run server-side.
type RulesRange struct {
	Start int `json:"start"`
	Stop  int `json:"stop"`
}

// Submission is the JSON envelope a claim travels in. The raw transaction
// is base64-encoded so its control characters survive JSON transport.
type Submission struct {
	MessageID           string     `json:"message_id"`
	Transaction         string     `json:"transaction"`
	IsDebug             bool       `json:"is_debug"`
	IgnoreSAS           bool       `json:"ignore_sas"`
	WebPricing          bool       `json:"web_pricing"`
	RulesExecutionRange RulesRange `json:"rules_execution_range"`
}

// SubmissionOption configures a Submission.
type SubmissionOption func(*Submission)

// WithDebug marks the submission for verbose server-side processing.
func WithDebug() SubmissionOption {
	return func(s *Submission) { s.IsDebug = true }
}

// WithIgnoreSAS skips supplemental adjudication services.
func WithIgnoreSAS() SubmissionOption {
	return func(s *Submission) { s.IgnoreSAS = true }
}

// WithWebPricing requests web pricing on the response.
func WithWebPricing() SubmissionOption {
	return func(s *Submission) { s.WebPricing = true }
}

// WithRulesRange overrides the default rule stage range.
func WithRulesRange(start, stop int) SubmissionOption {
	return func(s *Submission) {
		s.RulesExecutionRange = RulesRange{Start: start, Stop: stop}
	}
}

// NewSubmission wraps a claim in a submission envelope with a fresh
// message id.
func NewSubmission(claim *ncpdp.Claim, opts ...SubmissionOption) (*Submission, error) {
	raw, err := claim.Serialize()
	if err != nil {
		return nil, err
	}
	s := &Submission{
		MessageID:           uuid.NewString(),
		Transaction:         base64.StdEncoding.EncodeToString([]byte(raw)),
		RulesExecutionRange: RulesRange{Start: DefaultRulesStart, Stop: DefaultRulesStop},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// DecodeTransaction recovers the typed claim from the envelope.
func (s *Submission) DecodeTransaction() (*ncpdp.Claim, error) {
	raw, err := base64.StdEncoding.DecodeString(s.Transaction)
	if err != nil {
		return nil, errors.New(errors.CodeCodec, "transaction is not valid base64", err)
	}
	return ncpdp.ParseClaim(string(raw))
}
