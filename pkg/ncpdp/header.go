// Copyright 2026 © The Claimforge Authors
// SPDX-License-Identifier: Apache-2.0

package ncpdp

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/zebrarx/claimforge/pkg/errors"
)

// The transaction header is a fixed 56-character record. Each field occupies
// a start offset and width; shorter values are space-padded on the right.
type headerPosition struct {
	start int
	width int
}

func (p headerPosition) extract(raw string) string {
	return strings.TrimRight(raw[p.start:p.start+p.width], " ")
}

func (p headerPosition) render(value string) (string, error) {
	if len(value) > p.width {
		return "", errors.New(errors.CodeCodec,
			fmt.Sprintf("value %q exceeds header field width %d", value, p.width), nil)
	}
	return value + strings.Repeat(" ", p.width-len(value)), nil
}

const headerWidth = 56

var (
	posRxBIN                 = headerPosition{0, 6}
	posVersion               = headerPosition{6, 2}
	posTransactionCode       = headerPosition{8, 2}
	posPCN                   = headerPosition{10, 10}
	posTransactionCount      = headerPosition{20, 1}
	posServiceProviderIDQual = headerPosition{21, 2}
	posServiceProviderID     = headerPosition{23, 15}
	posServiceDate           = headerPosition{38, 8}
	posCertificationID       = headerPosition{46, 10}
)

var (
	rxBINPattern = regexp.MustCompile(`^\d{6}$`)
	countPattern = regexp.MustCompile(`^[1-9]$`)
	qualPattern  = regexp.MustCompile(`^[0-9][0-9]?$`)
	datePattern  = regexp.MustCompile(`^\d{4}(0[1-9]|1[0-2])(0[1-9]|[12]\d|3[01])$`)
)

// Header is the fixed-width transaction header leading every claim.
// PCN, ServiceProviderID and CertificationID may be empty; on the wire an
// empty field is all spaces.
type Header struct {
	RxBIN                 string
	Version               Version
	TransactionCode       TransactionCode
	PCN                   string
	TransactionCount      string
	ServiceProviderIDQual string
	ServiceProviderID     string
	ServiceDate           string
	CertificationID       string
}

// ParseHeader decodes a raw fixed-width header record.
func ParseHeader(raw string) (*Header, error) {
	if len(raw) < headerWidth {
		return nil, errors.New(errors.CodeCodec,
			fmt.Sprintf("header record is %d characters, need %d", len(raw), headerWidth), nil)
	}
	h := &Header{
		RxBIN:                 posRxBIN.extract(raw),
		Version:               Version(posVersion.extract(raw)),
		TransactionCode:       TransactionCode(posTransactionCode.extract(raw)),
		PCN:                   posPCN.extract(raw),
		TransactionCount:      posTransactionCount.extract(raw),
		ServiceProviderIDQual: posServiceProviderIDQual.extract(raw),
		ServiceProviderID:     posServiceProviderID.extract(raw),
		ServiceDate:           posServiceDate.extract(raw),
		CertificationID:       posCertificationID.extract(raw),
	}
	if err := h.Validate(); err != nil {
		return nil, err
	}
	return h, nil
}

// Validate checks the header fields against their wire constraints.
func (h *Header) Validate() error {
	bad := func(field, detail string) error {
		return errors.New(errors.CodeValidation,
			fmt.Sprintf("header field %s: %s", field, detail), nil).
			WithAttribute("field", field)
	}

	if !rxBINPattern.MatchString(h.RxBIN) {
		return bad("rxbin", fmt.Sprintf("%q is not a six-digit BIN", h.RxBIN))
	}
	switch h.Version {
	case VersionModern, VersionLegacy:
	default:
		return bad("version", fmt.Sprintf("unsupported version %q", h.Version))
	}
	switch h.TransactionCode {
	case TransactionSubmission, TransactionReversal:
	default:
		return bad("transaction_code", fmt.Sprintf("unsupported code %q", h.TransactionCode))
	}
	if len(h.PCN) > posPCN.width {
		return bad("pcn", fmt.Sprintf("%q exceeds %d characters", h.PCN, posPCN.width))
	}
	if !countPattern.MatchString(h.TransactionCount) {
		return bad("transaction_count", fmt.Sprintf("%q is not in 1..9", h.TransactionCount))
	}
	if !qualPattern.MatchString(h.ServiceProviderIDQual) {
		return bad("service_provider_id_qual", fmt.Sprintf("invalid qualifier %q", h.ServiceProviderIDQual))
	}
	if len(h.ServiceProviderID) > posServiceProviderID.width {
		return bad("service_provider_id", fmt.Sprintf("%q exceeds %d characters", h.ServiceProviderID, posServiceProviderID.width))
	}
	if !datePattern.MatchString(h.ServiceDate) {
		return bad("service_date", fmt.Sprintf("%q is not a YYYYMMDD date", h.ServiceDate))
	}
	if len(h.CertificationID) > posCertificationID.width {
		return bad("certification_id", fmt.Sprintf("%q exceeds %d characters", h.CertificationID, posCertificationID.width))
	}
	return nil
}

// Serialize renders the header back to its fixed-width wire form.
func (h *Header) Serialize() (string, error) {
	if err := h.Validate(); err != nil {
		return "", err
	}
	var b strings.Builder
	b.Grow(headerWidth)
	for _, part := range []struct {
		pos   headerPosition
		value string
	}{
		{posRxBIN, h.RxBIN},
		{posVersion, string(h.Version)},
		{posTransactionCode, string(h.TransactionCode)},
		{posPCN, h.PCN},
		{posTransactionCount, h.TransactionCount},
		{posServiceProviderIDQual, h.ServiceProviderIDQual},
		{posServiceProviderID, h.ServiceProviderID},
		{posServiceDate, h.ServiceDate},
		{posCertificationID, h.CertificationID},
	} {
		rendered, err := part.pos.render(part.value)
		if err != nil {
			return "", err
		}
		b.WriteString(rendered)
	}
	return b.String(), nil
}
