// Copyright 2026 © The Claimforge Authors
// SPDX-License-Identifier: Apache-2.0

// Package telemetry provides OpenTelemetry integration for claim
// generation and exchange observability.
package telemetry

import (
	"go.opentelemetry.io/otel/attribute"

	"github.com/zebrarx/claimforge/pkg/errors"
)

// Semantic conventions for Claimforge telemetry.
const (
	// Schema attributes
	AttrSchemaName  = "claimforge.schema.name"
	AttrSchemaCount = "claimforge.schema.count"

	// Generation attributes
	AttrGenerationSeed  = "claimforge.generation.seed"
	AttrGenerationCount = "claimforge.generation.count"

	// Claim attributes
	AttrClaimRxBIN           = "claimforge.claim.rxbin"
	AttrClaimTransactionCode = "claimforge.claim.transaction_code"
	AttrClaimServiceDate     = "claimforge.claim.service_date"

	// Submission attributes
	AttrSubmissionMessageID = "claimforge.submission.message_id"
	AttrSubmissionState     = "claimforge.submission.state"
	AttrSubmissionStatus    = "claimforge.submission.status_code"
	AttrSubmissionAttempts  = "claimforge.submission.attempts"

	// Error attributes
	AttrErrorCode        = "claimforge.error.code"
	AttrErrorRecoverable = "claimforge.error.recoverable"
)

// GenerationAttributes returns attributes for generation spans.
func GenerationAttributes(schemaName string, seed int64, count int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrSchemaName, schemaName),
		attribute.Int64(AttrGenerationSeed, seed),
		attribute.Int(AttrGenerationCount, count),
	}
}

// SubmissionAttributes returns attributes for submission spans.
func SubmissionAttributes(messageID, state string, statusCode, attempts int) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(AttrSubmissionMessageID, messageID),
		attribute.String(AttrSubmissionState, state),
	}
	if statusCode > 0 {
		attrs = append(attrs, attribute.Int(AttrSubmissionStatus, statusCode))
	}
	if attempts > 0 {
		attrs = append(attrs, attribute.Int(AttrSubmissionAttempts, attempts))
	}
	return attrs
}

// ErrorAttributes returns attributes describing a typed error, including
// any attributes the error itself carries.
func ErrorAttributes(err error) []attribute.KeyValue {
	if err == nil {
		return nil
	}
	fe := errors.AsForgeError(err)
	attrs := []attribute.KeyValue{
		attribute.String(AttrErrorCode, string(fe.Code)),
		attribute.Bool(AttrErrorRecoverable, fe.Recoverable),
	}
	for key, value := range fe.Attributes {
		attrs = append(attrs, attribute.String("claimforge.error."+key, value))
	}
	return attrs
}
