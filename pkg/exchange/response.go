// Copyright 2026 © The Claimforge Authors
// SPDX-License-Identifier: Apache-2.0

package exchange

import (
	"encoding/json"

	"github.com/zebrarx/claimforge/pkg/errors"
	"github.com/zebrarx/claimforge/pkg/schema"
)

// Schema names installed by RegisterSchemas. The client validates response
// bodies against SchemaResponse unless the adjudicator names another
// registered schema in the X-Claimforge-Schema response header.
const (
	SchemaSubmission         = "exchange.submission"
	SchemaRulesRange         = "exchange.rules_range"
	SchemaResponse           = "exchange.response"
	SchemaTransactionContext = "exchange.transaction_context"
	SchemaReject             = "exchange.reject"
	SchemaPharmacy           = "exchange.pharmacy"
)

const uuidPattern = `^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`

// ClaimResponse is the adjudicator's answer to a submission.
type ClaimResponse struct {
	MessageID          string              `json:"message_id"`
	Transaction        string              `json:"transaction"`
	TransactionContext *TransactionContext `json:"transaction_context"`
}

// TransactionContext carries the adjudication outcome for one transaction.
type TransactionContext struct {
	AuthorizationNumber string        `json:"authorization_number"`
	TransactionID       string        `json:"transaction_id"`
	ClaimID             string        `json:"claim_id"`
	TransactionStatus   string        `json:"transaction_status"`
	Rejects             []Reject      `json:"rejects"`
	Pharmacy            *PharmacyInfo `json:"pharmacy"`
}

// Reject is one adjudication reject code with its explanation.
type Reject struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PharmacyInfo identifies the pharmacy the adjudicator resolved.
type PharmacyInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	NPI     string `json:"npi"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
}

// ParseResponse binds a validated response instance onto the typed model.
func ParseResponse(instance map[string]any) (*ClaimResponse, error) {
	raw, err := json.Marshal(instance)
	if err != nil {
		return nil, errors.New(errors.CodeCodec, "encoding response instance failed", err)
	}
	var resp ClaimResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, errors.New(errors.CodeCodec, "response does not bind to the claim response model", err)
	}
	return &resp, nil
}

// Rejected reports whether the adjudicator rejected the transaction.
func (r *ClaimResponse) Rejected() bool {
	return r.TransactionContext != nil && len(r.TransactionContext.Rejects) > 0
}

// RegisterSchemas installs the exchange envelope schemas, letting response
// bodies be validated with the same machinery as generated claims.
func RegisterSchemas(reg *schema.Registry) error {
	nullable := schema.Constraints{Nullable: true}

	defs := []*schema.Schema{
		{
			Name: SchemaRulesRange,
			Fields: []schema.Field{
				{Name: "start", Type: schema.TypeInt, Constraints: schema.Constraints{Min: schema.IntPtr(0)}},
				{Name: "stop", Type: schema.TypeInt, Constraints: schema.Constraints{Min: schema.IntPtr(0)}},
			},
		},
		{
			Name: SchemaSubmission,
			Fields: []schema.Field{
				{Name: "message_id", Type: schema.TypeString, Constraints: schema.Constraints{Pattern: uuidPattern}},
				{Name: "transaction", Type: schema.TypeString, Constraints: schema.Constraints{MinLength: schema.LenPtr(1)}},
				{Name: "is_debug", Type: schema.TypeBool},
				{Name: "ignore_sas", Type: schema.TypeBool},
				{Name: "web_pricing", Type: schema.TypeBool},
				{Name: "rules_execution_range", Type: schema.TypeRef, Ref: SchemaRulesRange},
			},
		},
		{
			Name: SchemaReject,
			Fields: []schema.Field{
				{Name: "code", Type: schema.TypeString, Constraints: schema.Constraints{MinLength: schema.LenPtr(1)}},
				{Name: "message", Type: schema.TypeString},
			},
		},
		{
			Name: SchemaPharmacy,
			Fields: []schema.Field{
				{Name: "id", Type: schema.TypeString, Constraints: schema.Constraints{Pattern: uuidPattern}},
				{Name: "name", Type: schema.TypeString},
				{Name: "npi", Type: schema.TypeString, Constraints: schema.Constraints{Pattern: `^\d{10}$`}},
				{Name: "state", Type: schema.TypeString, Constraints: schema.Constraints{Pattern: `^[A-Z]{2}$`}},
				{Name: "zip_code", Type: schema.TypeString, Constraints: schema.Constraints{Pattern: `^\d{5}$`}},
			},
		},
		{
			Name: SchemaTransactionContext,
			Fields: []schema.Field{
				{Name: "authorization_number", Type: schema.TypeString},
				{Name: "transaction_id", Type: schema.TypeString, Constraints: schema.Constraints{Pattern: uuidPattern}},
				{Name: "claim_id", Type: schema.TypeString, Constraints: schema.Constraints{Pattern: uuidPattern}},
				{Name: "transaction_status", Type: schema.TypeString, Constraints: schema.Constraints{MinLength: schema.LenPtr(1)}},
				{Name: "rejects", Type: schema.TypeSeq, Elem: &schema.Field{Name: "rejects", Type: schema.TypeRef, Ref: SchemaReject}},
				{Name: "pharmacy", Type: schema.TypeRef, Ref: SchemaPharmacy, Constraints: nullable},
			},
		},
		{
			Name: SchemaResponse,
			Fields: []schema.Field{
				{Name: "message_id", Type: schema.TypeString, Constraints: schema.Constraints{Pattern: uuidPattern}},
				{Name: "transaction", Type: schema.TypeString, Constraints: schema.Constraints{MinLength: schema.LenPtr(1)}},
				{Name: "transaction_context", Type: schema.TypeRef, Ref: SchemaTransactionContext, Constraints: nullable},
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
