// Copyright 2026 © The Claimforge Authors
// SPDX-License-Identifier: Apache-2.0

// Package schema holds declarative data-shape definitions used to both
// generate synthetic instances and validate values against them.
package schema

import (
	"fmt"

	"github.com/zebrarx/claimforge/pkg/errors"
)

// FieldType is the fixed enumeration of semantic field types.
type FieldType string

const (
	TypeInt    FieldType = "int"
	TypeFloat  FieldType = "float"
	TypeString FieldType = "str"
	TypeBool   FieldType = "bool"
	// TypeRef references another schema by name, resolved through the Registry.
	TypeRef FieldType = "ref"
	// TypeSeq is a sequence whose element descriptor is Field.Elem.
	TypeSeq FieldType = "seq"
)

// Constraints restricts the values a field admits. Nil pointers mean
// "unconstrained"; Nullable fields additionally admit nil.
type Constraints struct {
	Min       *int64
	Max       *int64
	MinLength *int
	MaxLength *int
	Nullable  bool
	Pattern   string
}

// Field describes one named slot of a schema.
type Field struct {
	Name        string
	Type        FieldType
	Ref         string // schema name, TypeRef only
	Elem        *Field // element descriptor, TypeSeq only
	Constraints Constraints
}

// Schema is a named, ordered collection of field descriptors. Field order
// is significant: the generator draws fields in declaration order so a
// fixed (schema, seed) pair always yields the same instance bytes.
type Schema struct {
	Name   string
	Fields []Field
}

// Validate checks the structural invariants of a schema: non-empty name,
// unique field names, known type tokens, refs naming a target and seqs
// carrying an element descriptor.
func (s *Schema) Validate() error {
	if s == nil {
		return errors.New(errors.CodeInvalidInput, "schema is nil", nil)
	}
	if s.Name == "" {
		return errors.New(errors.CodeInvalidInput, "schema name is required", nil)
	}
	seen := make(map[string]struct{}, len(s.Fields))
	for i := range s.Fields {
		f := &s.Fields[i]
		if f.Name == "" {
			return errors.New(errors.CodeInvalidInput,
				fmt.Sprintf("schema %q: field %d has no name", s.Name, i), nil)
		}
		if _, dup := seen[f.Name]; dup {
			return errors.New(errors.CodeInvalidInput,
				fmt.Sprintf("schema %q: duplicate field %q", s.Name, f.Name), nil)
		}
		seen[f.Name] = struct{}{}
		if err := validateField(s.Name, f); err != nil {
			return err
		}
	}
	return nil
}

func validateField(schemaName string, f *Field) error {
	switch f.Type {
	case TypeInt, TypeFloat, TypeString, TypeBool:
		return nil
	case TypeRef:
		if f.Ref == "" {
			return errors.New(errors.CodeInvalidInput,
				fmt.Sprintf("schema %q: field %q is a ref without a target", schemaName, f.Name), nil)
		}
		return nil
	case TypeSeq:
		if f.Elem == nil {
			return errors.New(errors.CodeInvalidInput,
				fmt.Sprintf("schema %q: field %q is a seq without an element type", schemaName, f.Name), nil)
		}
		return validateField(schemaName, f.Elem)
	default:
		return errors.New(errors.CodeInvalidInput,
			fmt.Sprintf("schema %q: field %q has unknown type %q", schemaName, f.Name, f.Type), nil)
	}
}

// refs returns every schema name this schema references, including refs
// nested inside sequence element descriptors.
func (s *Schema) refs() []string {
	var out []string
	var walk func(f *Field)
	walk = func(f *Field) {
		switch f.Type {
		case TypeRef:
			out = append(out, f.Ref)
		case TypeSeq:
			if f.Elem != nil {
				walk(f.Elem)
			}
		}
	}
	for i := range s.Fields {
		walk(&s.Fields[i])
	}
	return out
}

// IntPtr returns a pointer for range constraints in literal schema declarations.
func IntPtr(v int64) *int64 { return &v }

// LenPtr returns a pointer for length constraints.
func LenPtr(v int) *int { return &v }
