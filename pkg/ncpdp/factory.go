// Copyright 2026 © The Claimforge Authors
// SPDX-License-Identifier: Apache-2.0

package ncpdp

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/zebrarx/claimforge/pkg/factory"
	"github.com/zebrarx/claimforge/pkg/schema"
	"github.com/zebrarx/claimforge/pkg/telemetry"
)

// Factory draws fully typed synthetic claims by generating instances of the
// claim schema graph and binding them onto the wire codec structs. The same
// (seed, count) pair always yields the same claims.
type Factory struct {
	gen     *factory.Generator
	metrics *telemetry.GenerationMetrics
}

// NewFactory builds a claim factory over a registry that already holds the
// claim schemas; see RegisterSchemas.
func NewFactory(reg *schema.Registry, opts ...factory.Option) *Factory {
	return &Factory{gen: factory.New(reg, opts...)}
}

// WithMetrics attaches generation metrics; every run and failure is
// recorded against the claim schema.
func (f *Factory) WithMetrics(m *telemetry.GenerationMetrics) *Factory {
	f.metrics = m
	return f
}

// Claims draws count synthetic claims from the given seed.
func (f *Factory) Claims(ctx context.Context, seed int64, count int) ([]*Claim, error) {
	ctx, span := otel.Tracer("claimforge/factory").Start(ctx, "factory.claims",
		trace.WithAttributes(telemetry.GenerationAttributes(SchemaClaim, seed, count)...))
	defer span.End()

	start := time.Now()
	seq, err := f.gen.Generate(SchemaClaim, seed, count)
	if err != nil {
		span.RecordError(err)
		f.metrics.RecordError(ctx, err, "factory")
		return nil, err
	}
	claims := make([]*Claim, 0, count)
	for {
		inst, ok := seq.Next()
		if !ok {
			f.metrics.RecordGeneration(ctx, SchemaClaim, len(claims), time.Since(start))
			return claims, nil
		}
		claims = append(claims, claimFromInstance(inst))
	}
}

// Claim draws a single synthetic claim.
func (f *Factory) Claim(ctx context.Context, seed int64) (*Claim, error) {
	claims, err := f.Claims(ctx, seed, 1)
	if err != nil {
		return nil, err
	}
	return claims[0], nil
}

func claimFromInstance(inst map[string]any) *Claim {
	c := &Claim{Header: headerFromInstance(sub(inst, "header"))}

	if m := sub(inst, "insurance"); m != nil {
		c.Insurance = &InsuranceSegment{
			InternalControlNumber: str(m, "internal_control_number"),
			FirstName:             str(m, "first_name"),
			PersonCode:            str(m, "person_code"),
			CardholderID:          str(m, "cardholder_id"),
			LastName:              str(m, "last_name"),
		}
	}
	if m := sub(inst, "patient"); m != nil {
		c.Patient = &PatientSegment{
			DOB:       str(m, "dob"),
			Gender:    Gender(str(m, "gender")),
			LastName:  str(m, "last_name"),
			FirstName: str(m, "first_name"),
			Zip:       str(m, "zip"),
		}
	}
	if m := sub(inst, "claim"); m != nil {
		c.Claim = &ClaimSegment{
			RxServiceReferenceQual:   str(m, "rx_service_reference_qual"),
			RxServiceReferenceNumber: str(m, "rx_service_reference_number"),
			ProductServiceIDQual:     str(m, "product_service_id_qual"),
			ProductServiceID:         str(m, "product_service_id"),
			ProcedureModifierCode:    str(m, "procedure_modifier_code"),
			QuantityDispensed:        str(m, "quantity_dispensed"),
			FillNumber:               str(m, "fill_number"),
			DaysSupply:               str(m, "days_supply"),
			CompoundCode:             str(m, "compound_code"),
			DAWCode:                  str(m, "daw_code"),
			DateWritten:              str(m, "date_written"),
			RefillsAuthorized:        str(m, "refills_authorized"),
			OriginCode:               str(m, "origin_code"),
			SpecialPackagingInd:      str(m, "special_packaging_ind"),
			OtherCoverageCode:        str(m, "other_coverage_code"),
		}
	}
	if m := sub(inst, "pricing"); m != nil {
		c.Pricing = &PricingSegment{
			IngredientCost:    str(m, "ingredient_cost"),
			DispensingFee:     str(m, "dispensing_fee"),
			PatientPaidAmount: str(m, "patient_paid_amount"),
			UsualAndCustomary: str(m, "usual_and_customary"),
			GrossAmountDue:    str(m, "gross_amount_due"),
		}
	}
	if m := sub(inst, "prescriber"); m != nil {
		c.Prescriber = &PrescriberSegment{
			IDQualifier: str(m, "id_qualifier"),
			ID:          str(m, "id"),
		}
	}
	if m := sub(inst, "pharmacy_provider"); m != nil {
		c.PharmacyProvider = &PharmacyProviderSegment{
			ProviderID: str(m, "provider_id"),
		}
	}
	if m := sub(inst, "clinical"); m != nil {
		c.Clinical = &ClinicalSegment{
			DiagnosisCodeQual: str(m, "diagnosis_code_qual"),
			DiagnosisCode:     str(m, "diagnosis_code"),
		}
	}
	return c
}

func headerFromInstance(m map[string]any) Header {
	return Header{
		RxBIN:                 str(m, "rxbin"),
		Version:               Version(str(m, "version")),
		TransactionCode:       TransactionCode(str(m, "transaction_code")),
		PCN:                   str(m, "pcn"),
		TransactionCount:      str(m, "transaction_count"),
		ServiceProviderIDQual: str(m, "service_provider_id_qual"),
		ServiceProviderID:     str(m, "service_provider_id"),
		ServiceDate:           str(m, "service_date"),
		CertificationID:       str(m, "certification_id"),
	}
}

func sub(m map[string]any, key string) map[string]any {
	v, _ := m[key].(map[string]any)
	return v
}

func str(m map[string]any, key string) string {
	v, _ := m[key].(string)
	return v
}
