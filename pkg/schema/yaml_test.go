// Copyright 2026 © The Claimforge Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/zebrarx/claimforge/pkg/errors"
)

const sampleDefs = `
schemas:
  address:
    fields:
      zip: {type: str, pattern: '^\d{5}$'}
      street: str
  user:
    fields:
      id:    {type: int, min: 1, max: 1000}
      name:  {type: str, min_length: 1, max_length: 20}
      tags:  {type: seq, elem: str, max_length: 5}
      home:  {type: ref, ref: address, nullable: true}
      score: float
      vip:   bool
`

func TestLoadBytes(t *testing.T) {
	reg := NewRegistry()
	if err := LoadBytes(reg, []byte(sampleDefs)); err != nil {
		t.Fatalf("LoadBytes failed: %v", err)
	}

	user, err := reg.Resolve("user")
	if err != nil {
		t.Fatalf("resolve user: %v", err)
	}
	if len(user.Fields) != 6 {
		t.Fatalf("expected 6 user fields, got %d", len(user.Fields))
	}
	// Fields come back in sorted name order for load determinism.
	wantOrder := []string{"home", "id", "name", "score", "tags", "vip"}
	for i, want := range wantOrder {
		if user.Fields[i].Name != want {
			t.Errorf("expected field %d to be %s, got %s", i, want, user.Fields[i].Name)
		}
	}

	byName := map[string]Field{}
	for _, f := range user.Fields {
		byName[f.Name] = f
	}
	if byName["id"].Type != TypeInt || *byName["id"].Constraints.Min != 1 || *byName["id"].Constraints.Max != 1000 {
		t.Errorf("id constraints wrong: %+v", byName["id"])
	}
	if byName["tags"].Type != TypeSeq || byName["tags"].Elem == nil || byName["tags"].Elem.Type != TypeString {
		t.Errorf("tags descriptor wrong: %+v", byName["tags"])
	}
	if byName["home"].Type != TypeRef || byName["home"].Ref != "address" || !byName["home"].Constraints.Nullable {
		t.Errorf("home descriptor wrong: %+v", byName["home"])
	}
}

func TestLoadBytesShorthandTokens(t *testing.T) {
	reg := NewRegistry()
	defs := `
schemas:
  bag:
    fields:
      items: seq:int
      owner: ref:user
  user:
    fields:
      id: int
`
	if err := LoadBytes(reg, []byte(defs)); err != nil {
		t.Fatalf("LoadBytes failed: %v", err)
	}
	bag, err := reg.Resolve("bag")
	if err != nil {
		t.Fatalf("resolve bag: %v", err)
	}
	for _, f := range bag.Fields {
		switch f.Name {
		case "items":
			if f.Type != TypeSeq || f.Elem == nil || f.Elem.Type != TypeInt {
				t.Errorf("items descriptor wrong: %+v", f)
			}
		case "owner":
			if f.Type != TypeRef || f.Ref != "user" {
				t.Errorf("owner descriptor wrong: %+v", f)
			}
		}
	}
}

func TestLoadBytesErrors(t *testing.T) {
	tests := []struct {
		name string
		defs string
		code errors.ErrorCode
	}{
		{"malformed yaml", "schemas: [", errors.CodeInvalidInput},
		{"no schemas", "schemas: {}", errors.CodeInvalidInput},
		{"bad token", "schemas:\n  x:\n    fields:\n      f: decimal\n", errors.CodeInvalidInput},
		{"cycle", "schemas:\n  x:\n    fields:\n      self: ref:x\n", errors.CodeSchemaCycle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry()
			err := LoadBytes(reg, []byte(tt.defs))
			if err == nil {
				t.Fatalf("expected load to fail")
			}
			if !errors.HasCode(err, tt.code) {
				t.Errorf("expected %s, got %v", tt.code, err)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schemas.yaml")
	if err := os.WriteFile(path, []byte(sampleDefs), 0o644); err != nil {
		t.Fatalf("write defs: %v", err)
	}

	reg := NewRegistry()
	if err := LoadFile(reg, path); err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if reg.Len() != 2 {
		t.Errorf("expected 2 schemas, got %d", reg.Len())
	}

	if err := LoadFile(reg, filepath.Join(dir, "missing.yaml")); err == nil {
		t.Errorf("expected missing file to fail")
	}
}
