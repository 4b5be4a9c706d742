// Copyright 2026 © The Claimforge Authors
// SPDX-License-Identifier: Apache-2.0

package exchange

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/zebrarx/claimforge/pkg/errors"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store, err := NewStore(db)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func TestStoreRecordAndList(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	results := []*Result{
		{
			MessageID:   "msg-1",
			State:       StateValidated,
			SchemaName:  SchemaResponse,
			StatusCode:  200,
			Response:    map[string]any{"message_id": "msg-1"},
			SentAt:      now,
			CompletedAt: now.Add(time.Second),
			Attempts:    1,
		},
		{
			MessageID:     "msg-2",
			State:         StateValidationFailed,
			SchemaName:    SchemaResponse,
			StatusCode:    200,
			ValidationErr: errors.New(errors.CodeValidation, "field transaction: value is too short", nil),
			SentAt:        now.Add(2 * time.Second),
			CompletedAt:   now.Add(3 * time.Second),
			Attempts:      1,
		},
		{
			MessageID:   "msg-3",
			State:       StateTransportFailed,
			SchemaName:  SchemaResponse,
			StatusCode:  503,
			CompletedAt: now.Add(4 * time.Second),
			Attempts:    3,
		},
	}
	for _, result := range results {
		if err := store.Record(ctx, result); err != nil {
			t.Fatalf("record %s: %v", result.MessageID, err)
		}
	}

	all, err := store.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 results, got %d", len(all))
	}
	if all[0].MessageID != "msg-1" || all[2].MessageID != "msg-3" {
		t.Errorf("unexpected ordering: %s .. %s", all[0].MessageID, all[2].MessageID)
	}
	if all[0].Response["message_id"] != "msg-1" {
		t.Errorf("response JSON did not round trip: %#v", all[0].Response)
	}
	if all[1].ValidationErr == nil {
		t.Errorf("expected validation error to round trip")
	}
	if all[2].Attempts != 3 {
		t.Errorf("attempts = %d, want 3", all[2].Attempts)
	}
}

func TestStoreListFilters(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	for _, result := range []*Result{
		{MessageID: "a", State: StateValidated, CompletedAt: time.Now().UTC()},
		{MessageID: "b", State: StateTransportFailed, CompletedAt: time.Now().UTC()},
		{MessageID: "c", State: StateValidated, CompletedAt: time.Now().UTC()},
	} {
		if err := store.Record(ctx, result); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	validated, err := store.List(ctx, Filter{State: StateValidated})
	if err != nil {
		t.Fatalf("list by state: %v", err)
	}
	if len(validated) != 2 {
		t.Errorf("expected 2 validated results, got %d", len(validated))
	}

	byID, err := store.List(ctx, Filter{MessageID: "b"})
	if err != nil {
		t.Fatalf("list by message id: %v", err)
	}
	if len(byID) != 1 || byID[0].State != StateTransportFailed {
		t.Errorf("unexpected result for message id filter: %#v", byID)
	}

	limited, err := store.List(ctx, Filter{Limit: 1})
	if err != nil {
		t.Fatalf("list with limit: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("expected 1 result with limit, got %d", len(limited))
	}
}

func TestSendPersistsResult(t *testing.T) {
	store := testStore(t)
	sub := testSubmission(t)

	// Dead server: even transport failures are recorded.
	client := New("http://127.0.0.1:0", testRegistry(t), WithStore(store))
	if _, err := client.Send(context.Background(), sub); err == nil {
		t.Fatalf("expected transport failure")
	}

	recorded, err := store.List(context.Background(), Filter{MessageID: sub.MessageID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recorded) != 1 {
		t.Fatalf("expected 1 recorded result, got %d", len(recorded))
	}
	if recorded[0].State != StateTransportFailed {
		t.Errorf("state = %s, want %s", recorded[0].State, StateTransportFailed)
	}
}
