// Copyright 2026 © The Claimforge Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/zebrarx/claimforge/pkg/errors"
)

var (
	patternMu    sync.RWMutex
	patternCache = map[string]*regexp.Regexp{}
)

func compilePattern(pattern string) (*regexp.Regexp, error) {
	patternMu.RLock()
	re, ok := patternCache[pattern]
	patternMu.RUnlock()
	if ok {
		return re, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	patternMu.Lock()
	patternCache[pattern] = re
	patternMu.Unlock()
	return re, nil
}

// Validate checks that value conforms to the named schema. The value uses
// the canonical instance representation: map[string]any with int64, float64,
// string, bool, nil, []any and nested map[string]any. Returns a
// VALIDATION_ERROR naming the first violating field, or UNKNOWN_SCHEMA.
func Validate(reg *Registry, schemaName string, value map[string]any) error {
	s, err := reg.Resolve(schemaName)
	if err != nil {
		return err
	}
	return validateInstance(reg, s, value, schemaName)
}

func validateInstance(reg *Registry, s *Schema, value map[string]any, path string) error {
	for i := range s.Fields {
		f := &s.Fields[i]
		fieldPath := path + "." + f.Name
		v, present := value[f.Name]
		if !present {
			return violation(fieldPath, "field missing")
		}
		if err := validateValue(reg, f, v, fieldPath); err != nil {
			return err
		}
	}
	for name := range value {
		if !hasField(s, name) {
			return violation(path+"."+name, "field not declared in schema")
		}
	}
	return nil
}

func hasField(s *Schema, name string) bool {
	for i := range s.Fields {
		if s.Fields[i].Name == name {
			return true
		}
	}
	return false
}

func validateValue(reg *Registry, f *Field, v any, path string) error {
	if v == nil {
		if f.Constraints.Nullable {
			return nil
		}
		return violation(path, "null not allowed")
	}

	switch f.Type {
	case TypeInt:
		n, ok := asInt64(v)
		if !ok {
			return violation(path, fmt.Sprintf("expected int, got %T", v))
		}
		if f.Constraints.Min != nil && n < *f.Constraints.Min {
			return violation(path, fmt.Sprintf("%d below minimum %d", n, *f.Constraints.Min))
		}
		if f.Constraints.Max != nil && n > *f.Constraints.Max {
			return violation(path, fmt.Sprintf("%d above maximum %d", n, *f.Constraints.Max))
		}

	case TypeFloat:
		x, ok := asFloat64(v)
		if !ok {
			return violation(path, fmt.Sprintf("expected float, got %T", v))
		}
		if f.Constraints.Min != nil && x < float64(*f.Constraints.Min) {
			return violation(path, fmt.Sprintf("%g below minimum %d", x, *f.Constraints.Min))
		}
		if f.Constraints.Max != nil && x > float64(*f.Constraints.Max) {
			return violation(path, fmt.Sprintf("%g above maximum %d", x, *f.Constraints.Max))
		}

	case TypeString:
		s, ok := v.(string)
		if !ok {
			return violation(path, fmt.Sprintf("expected str, got %T", v))
		}
		if f.Constraints.MinLength != nil && len(s) < *f.Constraints.MinLength {
			return violation(path, fmt.Sprintf("length %d below min_length %d", len(s), *f.Constraints.MinLength))
		}
		if f.Constraints.MaxLength != nil && len(s) > *f.Constraints.MaxLength {
			return violation(path, fmt.Sprintf("length %d above max_length %d", len(s), *f.Constraints.MaxLength))
		}
		if f.Constraints.Pattern != "" {
			re, err := compilePattern(f.Constraints.Pattern)
			if err != nil {
				return errors.New(errors.CodeInvalidInput,
					fmt.Sprintf("field %s: bad pattern %q", path, f.Constraints.Pattern), err)
			}
			if !re.MatchString(s) {
				return violation(path, fmt.Sprintf("%q does not match pattern %q", s, f.Constraints.Pattern))
			}
		}

	case TypeBool:
		if _, ok := v.(bool); !ok {
			return violation(path, fmt.Sprintf("expected bool, got %T", v))
		}

	case TypeRef:
		nested, ok := v.(map[string]any)
		if !ok {
			return violation(path, fmt.Sprintf("expected object, got %T", v))
		}
		target, err := reg.Resolve(f.Ref)
		if err != nil {
			return err
		}
		return validateInstance(reg, target, nested, path)

	case TypeSeq:
		items, ok := v.([]any)
		if !ok {
			return violation(path, fmt.Sprintf("expected sequence, got %T", v))
		}
		if f.Constraints.MinLength != nil && len(items) < *f.Constraints.MinLength {
			return violation(path, fmt.Sprintf("length %d below min_length %d", len(items), *f.Constraints.MinLength))
		}
		if f.Constraints.MaxLength != nil && len(items) > *f.Constraints.MaxLength {
			return violation(path, fmt.Sprintf("length %d above max_length %d", len(items), *f.Constraints.MaxLength))
		}
		for i, item := range items {
			if err := validateValue(reg, f.Elem, item, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}

	default:
		return violation(path, fmt.Sprintf("unknown type %q", f.Type))
	}
	return nil
}

func violation(path, detail string) error {
	return errors.New(errors.CodeValidation,
		fmt.Sprintf("field %s: %s", path, detail), nil).
		WithAttribute("field", path)
}

// asInt64 accepts the integer widths JSON decoding and generation produce.
func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		// JSON numbers decode as float64; accept exact integers.
		if n == float64(int64(n)) {
			return int64(n), true
		}
	}
	return 0, false
}

func asFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int64:
		return float64(x), true
	case int:
		return float64(x), true
	}
	return 0, false
}
