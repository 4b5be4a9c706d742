// Copyright 2026 © The Claimforge Authors
// SPDX-License-Identifier: Apache-2.0

package ncpdp

import (
	"github.com/zebrarx/claimforge/pkg/schema"
)

// Schema names installed by RegisterSchemas.
const (
	SchemaHeader           = "ncpdp.header"
	SchemaPatient          = "ncpdp.segment.patient"
	SchemaPrescriber       = "ncpdp.segment.prescriber"
	SchemaInsurance        = "ncpdp.segment.insurance"
	SchemaPharmacyProvider = "ncpdp.segment.pharmacy_provider"
	SchemaClaimSegment     = "ncpdp.segment.claim"
	SchemaClinical         = "ncpdp.segment.clinical"
	SchemaPricing          = "ncpdp.segment.pricing"
	SchemaClaim            = "ncpdp.claim"
)

const (
	wireDatePattern = `^\d{4}(0[1-9]|1[0-2])(0[1-9]|[12]\d|3[01])$`
	// Positive overpunch only; reversals encode credits but synthetic
	// submissions always bill positive amounts.
	overpunchPattern = `^\d{1,6}[A-I{]$`
	namePattern      = `^[A-Z]{2,12}$`
)

func strField(name, pattern string) schema.Field {
	return schema.Field{
		Name:        name,
		Type:        schema.TypeString,
		Constraints: schema.Constraints{Pattern: pattern},
	}
}

func optStrField(name, pattern string) schema.Field {
	f := strField(name, pattern)
	f.Constraints.Nullable = true
	return f
}

func refField(name, target string) schema.Field {
	return schema.Field{Name: name, Type: schema.TypeRef, Ref: target}
}

func optRefField(name, target string) schema.Field {
	f := refField(name, target)
	f.Constraints.Nullable = true
	return f
}

// RegisterSchemas installs the claim domain schemas into the registry, so
// the generic factory can draw wire-conformant claim instances. Patterns
// mirror the wire constraints each codec enforces.
func RegisterSchemas(reg *schema.Registry) error {
	defs := []*schema.Schema{
		{
			Name: SchemaHeader,
			Fields: []schema.Field{
				strField("rxbin", `^\d{6}$`),
				strField("version", `^(D0|51)$`),
				strField("transaction_code", `^(B1|B2)$`),
				optStrField("pcn", `^[A-Z0-9]{1,10}$`),
				strField("transaction_count", `^1$`),
				strField("service_provider_id_qual", `^0[0-9]$`),
				optStrField("service_provider_id", `^\d{10,15}$`),
				strField("service_date", wireDatePattern),
				optStrField("certification_id", `^[A-Z0-9]{1,10}$`),
			},
		},
		{
			Name: SchemaPatient,
			Fields: []schema.Field{
				strField("dob", wireDatePattern),
				strField("gender", `^[0-2]$`),
				strField("last_name", namePattern),
				strField("first_name", namePattern),
				strField("zip", `^\d{5}$`),
			},
		},
		{
			Name: SchemaPrescriber,
			Fields: []schema.Field{
				strField("id_qualifier", `^01$`),
				strField("id", `^\d{10}$`),
			},
		},
		{
			Name: SchemaInsurance,
			Fields: []schema.Field{
				optStrField("internal_control_number", `^[A-Z0-9]{1,15}$`),
				strField("first_name", namePattern),
				optStrField("person_code", `^\d{2,3}$`),
				strField("cardholder_id", `^[A-Z0-9]{5,20}$`),
				strField("last_name", namePattern),
			},
		},
		{
			Name: SchemaPharmacyProvider,
			Fields: []schema.Field{
				strField("provider_id", `^\d{10}$`),
			},
		},
		{
			Name: SchemaClaimSegment,
			Fields: []schema.Field{
				strField("rx_service_reference_qual", `^1$`),
				strField("rx_service_reference_number", `^\d{7,12}$`),
				strField("product_service_id_qual", `^03$`),
				strField("product_service_id", `^\d{11}$`),
				optStrField("procedure_modifier_code", `^\d{2}$`),
				strField("quantity_dispensed", `^\d{4,10}$`),
				strField("fill_number", `^\d{1,2}$`),
				strField("days_supply", `^\d{1,3}$`),
				strField("compound_code", `^[012]$`),
				strField("daw_code", `^[0-9]$`),
				strField("date_written", wireDatePattern),
				strField("refills_authorized", `^\d{1,2}$`),
				strField("origin_code", `^[0-5]$`),
				optStrField("special_packaging_ind", `^[0-9]$`),
				optStrField("other_coverage_code", `^0[0-8]$`),
			},
		},
		{
			Name: SchemaClinical,
			Fields: []schema.Field{
				strField("diagnosis_code_qual", `^0[12]$`),
				strField("diagnosis_code", `^[A-Z]\d{2}\.\d{1,2}$`),
			},
		},
		{
			Name: SchemaPricing,
			Fields: []schema.Field{
				strField("ingredient_cost", overpunchPattern),
				strField("dispensing_fee", overpunchPattern),
				strField("patient_paid_amount", overpunchPattern),
				strField("usual_and_customary", overpunchPattern),
				strField("gross_amount_due", overpunchPattern),
			},
		},
		{
			Name: SchemaClaim,
			Fields: []schema.Field{
				refField("header", SchemaHeader),
				refField("insurance", SchemaInsurance),
				refField("patient", SchemaPatient),
				refField("claim", SchemaClaimSegment),
				refField("pricing", SchemaPricing),
				optRefField("prescriber", SchemaPrescriber),
				optRefField("pharmacy_provider", SchemaPharmacyProvider),
				optRefField("clinical", SchemaClinical),
			},
		},
	}

	for _, def := range defs {
		if err := reg.Register(def); err != nil {
			return err
		}
	}
	return nil
}
