// Copyright 2026 © The Claimforge Authors
// SPDX-License-Identifier: Apache-2.0

// Package ncpdp implements the NCPDP telecommunication wire format used by
// pharmacy claim adjudicators: a fixed-width transaction header followed by
// separator-delimited segments whose fields carry two-character identifiers.
package ncpdp

// Control characters separating the parts of a transaction.
const (
	FieldSeparator   = "\x1c" // FS
	GroupSeparator   = "\x1d" // GS
	SegmentSeparator = "\x1e" // RS
)

// Version is the claim billing version code.
type Version string

const (
	VersionModern Version = "D0"
	VersionLegacy Version = "51"
)

// TransactionCode identifies the transaction type.
type TransactionCode string

const (
	TransactionSubmission TransactionCode = "B1"
	TransactionReversal   TransactionCode = "B2"
)

// Gender codes used in the patient segment.
type Gender string

const (
	GenderUnknown Gender = "0"
	GenderMale    Gender = "1"
	GenderFemale  Gender = "2"
)

// Segment identifiers.
const (
	SegmentIDPatient          = "AM01"
	SegmentIDPrescriber       = "AM03"
	SegmentIDInsurance        = "AM04"
	SegmentIDPharmacyProvider = "AM06"
	SegmentIDClaim            = "AM07"
	SegmentIDClinical         = "AM08"
	SegmentIDPricing          = "AM11"
)
