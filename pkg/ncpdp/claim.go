// Copyright 2026 © The Claimforge Authors
// SPDX-License-Identifier: Apache-2.0

package ncpdp

import (
	"fmt"
	"strings"

	"github.com/zebrarx/claimforge/pkg/errors"
)

// Claim is a complete billing transaction: the fixed-width header plus its
// segments. Insurance, patient, claim and pricing segments are mandatory;
// prescriber, pharmacy provider and clinical segments are optional.
type Claim struct {
	Header           Header
	Insurance        *InsuranceSegment
	Patient          *PatientSegment
	Claim            *ClaimSegment
	Pricing          *PricingSegment
	Prescriber       *PrescriberSegment
	PharmacyProvider *PharmacyProviderSegment
	Clinical         *ClinicalSegment
}

// Validate checks the header and the presence of all mandatory segments.
func (c *Claim) Validate() error {
	if err := c.Header.Validate(); err != nil {
		return err
	}
	for _, part := range []struct {
		name    string
		present bool
	}{
		{"insurance", c.Insurance != nil},
		{"patient", c.Patient != nil},
		{"claim", c.Claim != nil},
		{"pricing", c.Pricing != nil},
	} {
		if !part.present {
			return errors.New(errors.CodeValidation,
				fmt.Sprintf("claim is missing mandatory %s segment", part.name), nil).
				WithAttribute("segment", part.name)
		}
	}
	return nil
}

// Serialize renders the full transaction. Segments are RS-delimited; a GS
// follows the patient segment, closing the transaction's group prefix.
func (c *Claim) Serialize() (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	header, err := c.Header.Serialize()
	if err != nil {
		return "", err
	}

	parts := []string{
		header,
		serializeSegment(c.Insurance),
		serializeSegment(c.Patient) + GroupSeparator,
		serializeSegment(c.Claim),
		serializeSegment(c.Pricing),
	}
	if c.Prescriber != nil {
		parts = append(parts, serializeSegment(c.Prescriber))
	}
	if c.PharmacyProvider != nil {
		parts = append(parts, serializeSegment(c.PharmacyProvider))
	}
	if c.Clinical != nil {
		parts = append(parts, serializeSegment(c.Clinical))
	}
	return strings.Join(parts, SegmentSeparator), nil
}

// ParseClaim decodes a raw transaction back into a Claim.
func ParseClaim(raw string) (*Claim, error) {
	records := strings.Split(raw, SegmentSeparator)
	if len(records) < 2 {
		return nil, errors.New(errors.CodeCodec,
			"transaction has no segments after the header", nil)
	}

	header, err := ParseHeader(records[0])
	if err != nil {
		return nil, err
	}
	c := &Claim{Header: *header}

	for _, record := range records[1:] {
		seg, err := ParseSegment(record)
		if err != nil {
			return nil, err
		}
		switch s := seg.(type) {
		case nil:
		case *InsuranceSegment:
			c.Insurance = s
		case *PatientSegment:
			c.Patient = s
		case *ClaimSegment:
			c.Claim = s
		case *PricingSegment:
			c.Pricing = s
		case *PrescriberSegment:
			c.Prescriber = s
		case *PharmacyProviderSegment:
			c.PharmacyProvider = s
		case *ClinicalSegment:
			c.Clinical = s
		}
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
