// Copyright 2026 © The Claimforge Authors
// SPDX-License-Identifier: Apache-2.0

package ncpdp

import (
	"strings"
)

// Segment is one FS-delimited record of a transaction. Fields within a
// segment are ordered and keyed by a two-character identifier; empty fields
// are omitted from the wire entirely.
type Segment interface {
	SegmentID() string
	fields() []fieldRef
}

// fieldRef binds a wire field identifier to the struct field holding its
// value. Serialization walks the refs in order; parsing assigns by id.
type fieldRef struct {
	id  string
	val *string
}

func serializeSegment(s Segment) string {
	parts := []string{s.SegmentID()}
	for _, f := range s.fields() {
		if *f.val == "" {
			continue
		}
		parts = append(parts, f.id+*f.val)
	}
	return strings.Join(parts, FieldSeparator)
}

// parseInto assigns FS-delimited field values onto the segment's refs.
// Identifiers with no matching ref are skipped.
func parseInto(s Segment, rawFields []string) {
	refs := s.fields()
	for _, raw := range rawFields {
		if len(raw) < 2 {
			continue
		}
		id, value := raw[:2], raw[2:]
		for _, f := range refs {
			if f.id == id {
				*f.val = value
				break
			}
		}
	}
}

// ParseSegment decodes one raw segment record. Unrecognized segment
// identifiers yield (nil, nil) so callers can skip segments they do not
// model, matching how adjudicators treat optional segments.
func ParseSegment(raw string) (Segment, error) {
	raw = strings.Trim(raw, FieldSeparator+GroupSeparator+SegmentSeparator+" \r\n")
	if raw == "" {
		return nil, nil
	}
	values := strings.Split(raw, FieldSeparator)
	id := strings.TrimSpace(values[0])

	var seg Segment
	switch id {
	case SegmentIDPatient:
		seg = &PatientSegment{}
	case SegmentIDPrescriber:
		seg = &PrescriberSegment{}
	case SegmentIDInsurance:
		seg = &InsuranceSegment{}
	case SegmentIDPharmacyProvider:
		seg = &PharmacyProviderSegment{}
	case SegmentIDClaim:
		seg = &ClaimSegment{}
	case SegmentIDClinical:
		seg = &ClinicalSegment{}
	case SegmentIDPricing:
		seg = &PricingSegment{}
	default:
		return nil, nil
	}
	parseInto(seg, values[1:])
	return seg, nil
}

// PatientSegment (AM01) identifies the person the prescription is for.
type PatientSegment struct {
	DOB       string // YYYYMMDD
	Gender    Gender
	LastName  string
	FirstName string
	Zip       string
}

func (s *PatientSegment) SegmentID() string { return SegmentIDPatient }

func (s *PatientSegment) fields() []fieldRef {
	return []fieldRef{
		{"C4", &s.DOB},
		{"C5", (*string)(&s.Gender)},
		{"CA", &s.LastName},
		{"CB", &s.FirstName},
		{"CP", &s.Zip},
	}
}

// PrescriberSegment (AM03) carries the prescriber's identifier.
type PrescriberSegment struct {
	IDQualifier string
	ID          string
}

func (s *PrescriberSegment) SegmentID() string { return SegmentIDPrescriber }

func (s *PrescriberSegment) fields() []fieldRef {
	return []fieldRef{
		{"EZ", &s.IDQualifier},
		{"DB", &s.ID},
	}
}

// InsuranceSegment (AM04) carries the cardholder's coverage details.
type InsuranceSegment struct {
	InternalControlNumber string
	FirstName             string
	PersonCode            string
	CardholderID          string
	LastName              string
}

func (s *InsuranceSegment) SegmentID() string { return SegmentIDInsurance }

func (s *InsuranceSegment) fields() []fieldRef {
	return []fieldRef{
		{"C2", &s.InternalControlNumber},
		{"C1", &s.FirstName},
		{"C3", &s.PersonCode},
		{"A6", &s.CardholderID},
		{"A7", &s.LastName},
	}
}

// PharmacyProviderSegment (AM06) carries the dispensing provider's id.
type PharmacyProviderSegment struct {
	ProviderID string
}

func (s *PharmacyProviderSegment) SegmentID() string { return SegmentIDPharmacyProvider }

func (s *PharmacyProviderSegment) fields() []fieldRef {
	return []fieldRef{
		{"DZ", &s.ProviderID},
	}
}

// ClaimSegment (AM07) describes the dispensed prescription itself.
type ClaimSegment struct {
	RxServiceReferenceQual   string
	RxServiceReferenceNumber string
	ProductServiceIDQual     string
	ProductServiceID         string
	ProcedureModifierCode    string
	QuantityDispensed        string
	FillNumber               string
	DaysSupply               string
	CompoundCode             string
	DAWCode                  string
	DateWritten              string // YYYYMMDD
	RefillsAuthorized        string
	OriginCode               string
	SpecialPackagingInd      string
	OtherCoverageCode        string
}

func (s *ClaimSegment) SegmentID() string { return SegmentIDClaim }

func (s *ClaimSegment) fields() []fieldRef {
	return []fieldRef{
		{"EM", &s.RxServiceReferenceQual},
		{"D2", &s.RxServiceReferenceNumber},
		{"E1", &s.ProductServiceIDQual},
		{"D7", &s.ProductServiceID},
		{"SE", &s.ProcedureModifierCode},
		{"E7", &s.QuantityDispensed},
		{"D3", &s.FillNumber},
		{"D5", &s.DaysSupply},
		{"D6", &s.CompoundCode},
		{"D8", &s.DAWCode},
		{"DE", &s.DateWritten},
		{"DF", &s.RefillsAuthorized},
		{"DJ", &s.OriginCode},
		{"DT", &s.SpecialPackagingInd},
		{"EB", &s.OtherCoverageCode},
	}
}

// ClinicalSegment (AM08) carries diagnosis information.
type ClinicalSegment struct {
	DiagnosisCodeQual string
	DiagnosisCode     string
}

func (s *ClinicalSegment) SegmentID() string { return SegmentIDClinical }

func (s *ClinicalSegment) fields() []fieldRef {
	return []fieldRef{
		{"7E", &s.DiagnosisCodeQual},
		{"E5", &s.DiagnosisCode},
	}
}

// PricingSegment (AM11) carries submitted amounts in signed overpunch.
type PricingSegment struct {
	IngredientCost    string
	DispensingFee     string
	PatientPaidAmount string
	UsualAndCustomary string
	GrossAmountDue    string
}

func (s *PricingSegment) SegmentID() string { return SegmentIDPricing }

func (s *PricingSegment) fields() []fieldRef {
	return []fieldRef{
		{"D9", &s.IngredientCost},
		{"DC", &s.DispensingFee},
		{"E3", &s.PatientPaidAmount},
		{"DQ", &s.UsualAndCustomary},
		{"DU", &s.GrossAmountDue},
	}
}

// Amounts is the pricing segment decoded into signed cents.
type Amounts struct {
	IngredientCost    int64
	DispensingFee     int64
	PatientPaidAmount int64
	UsualAndCustomary int64
	GrossAmountDue    int64
}

// Decode converts the overpunch-encoded pricing fields into cents. Empty
// fields decode to zero.
func (s *PricingSegment) Decode() (*Amounts, error) {
	a := &Amounts{}
	for _, part := range []struct {
		raw string
		out *int64
	}{
		{s.IngredientCost, &a.IngredientCost},
		{s.DispensingFee, &a.DispensingFee},
		{s.PatientPaidAmount, &a.PatientPaidAmount},
		{s.UsualAndCustomary, &a.UsualAndCustomary},
		{s.GrossAmountDue, &a.GrossAmountDue},
	} {
		if part.raw == "" {
			continue
		}
		v, err := DecodeOverpunch(part.raw)
		if err != nil {
			return nil, err
		}
		*part.out = v
	}
	return a, nil
}

// Encode fills the pricing fields from signed cents.
func (a *Amounts) Encode() *PricingSegment {
	return &PricingSegment{
		IngredientCost:    EncodeOverpunch(a.IngredientCost),
		DispensingFee:     EncodeOverpunch(a.DispensingFee),
		PatientPaidAmount: EncodeOverpunch(a.PatientPaidAmount),
		UsualAndCustomary: EncodeOverpunch(a.UsualAndCustomary),
		GrossAmountDue:    EncodeOverpunch(a.GrossAmountDue),
	}
}
