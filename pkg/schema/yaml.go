// Copyright 2026 © The Claimforge Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zebrarx/claimforge/pkg/errors"
)

// Schema definition files map field names to type tokens:
//
//	schemas:
//	  user:
//	    fields:
//	      id:   {type: int, min: 1, max: 1000}
//	      name: {type: str, min_length: 1, max_length: 20}
//	      tags: {type: seq, elem: str, max_length: 5}
//	      home: {type: ref, ref: address, nullable: true}
//	      note: str
//
// Scalar shorthand accepts the bare tokens int, float, str, bool plus
// ref:<schema> and seq:<token>.

type defFile struct {
	Schemas map[string]schemaDef `yaml:"schemas"`
}

type schemaDef struct {
	Fields map[string]fieldDef `yaml:"fields"`
}

type fieldDef struct {
	Type      string    `yaml:"type"`
	Ref       string    `yaml:"ref"`
	Elem      *fieldDef `yaml:"elem"`
	Min       *int64    `yaml:"min"`
	Max       *int64    `yaml:"max"`
	MinLength *int      `yaml:"min_length"`
	MaxLength *int      `yaml:"max_length"`
	Nullable  bool      `yaml:"nullable"`
	Pattern   string    `yaml:"pattern"`
}

// UnmarshalYAML accepts either a bare type token or a full mapping.
func (d *fieldDef) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		return d.parseToken(node.Value)
	}
	type plain fieldDef
	return node.Decode((*plain)(d))
}

func (d *fieldDef) parseToken(token string) error {
	token = strings.TrimSpace(token)
	switch {
	case token == "int", token == "float", token == "str", token == "bool":
		d.Type = token
	case strings.HasPrefix(token, "ref:"):
		d.Type = "ref"
		d.Ref = strings.TrimPrefix(token, "ref:")
	case strings.HasPrefix(token, "seq:"):
		d.Type = "seq"
		elem := &fieldDef{}
		if err := elem.parseToken(strings.TrimPrefix(token, "seq:")); err != nil {
			return err
		}
		d.Elem = elem
	default:
		return fmt.Errorf("unknown type token %q", token)
	}
	return nil
}

func (d *fieldDef) toField(name string) (Field, error) {
	f := Field{
		Name: name,
		Type: FieldType(d.Type),
		Ref:  d.Ref,
		Constraints: Constraints{
			Min:       d.Min,
			Max:       d.Max,
			MinLength: d.MinLength,
			MaxLength: d.MaxLength,
			Nullable:  d.Nullable,
			Pattern:   d.Pattern,
		},
	}
	if d.Elem != nil {
		// Outer length constraints bound the sequence itself; the element
		// descriptor carries its own constraints.
		elem, err := d.Elem.toField(name)
		if err != nil {
			return Field{}, err
		}
		f.Elem = &elem
	}
	return f, nil
}

// LoadBytes parses a YAML schema definition document and registers every
// schema it declares. YAML mappings carry no reliable order, so fields are
// registered in sorted name order to keep generation deterministic across
// loads of the same document.
func LoadBytes(reg *Registry, data []byte) error {
	var doc defFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return errors.New(errors.CodeInvalidInput, "malformed schema definition", err)
	}
	if len(doc.Schemas) == 0 {
		return errors.New(errors.CodeInvalidInput, "definition declares no schemas", nil)
	}

	names := make([]string, 0, len(doc.Schemas))
	for name := range doc.Schemas {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		def := doc.Schemas[name]
		fieldNames := make([]string, 0, len(def.Fields))
		for fname := range def.Fields {
			fieldNames = append(fieldNames, fname)
		}
		sort.Strings(fieldNames)

		s := &Schema{Name: name, Fields: make([]Field, 0, len(fieldNames))}
		for _, fname := range fieldNames {
			fd := def.Fields[fname]
			field, err := fd.toField(fname)
			if err != nil {
				return errors.New(errors.CodeInvalidInput,
					fmt.Sprintf("schema %q field %q", name, fname), err)
			}
			s.Fields = append(s.Fields, field)
		}
		if err := reg.Register(s); err != nil {
			return err
		}
	}
	return nil
}

// LoadFile reads a schema definition file and registers its schemas.
func LoadFile(reg *Registry, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.New(errors.CodeInvalidInput,
			fmt.Sprintf("read schema definition %s", path), err)
	}
	return LoadBytes(reg, data)
}
