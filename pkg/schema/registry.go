// Copyright 2026 © The Claimforge Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"fmt"
	"sort"
	"sync"

	"github.com/zebrarx/claimforge/pkg/errors"
)

// Registry holds schemas keyed by name. It is an explicit instance passed
// to callers; there is no package-level registry. Reads are lock-shared,
// writes serialized. Forward references are allowed at registration and
// resolved lazily, but any reference cycle is rejected as soon as the
// schema that closes it arrives.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]*Schema
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{schemas: make(map[string]*Schema)}
}

// Register adds a schema under its name. It fails with DUPLICATE_SCHEMA if
// the name is taken, INVALID_INPUT if the schema is malformed, and
// SCHEMA_CYCLE if adding it would let any schema reach itself through its
// references.
func (r *Registry) Register(s *Schema) error {
	if err := s.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.schemas[s.Name]; exists {
		return errors.New(errors.CodeDuplicateSchema,
			fmt.Sprintf("schema %q already registered", s.Name), nil).
			WithAttribute("schema", s.Name)
	}

	if cycle := r.findCycleLocked(s); len(cycle) > 0 {
		return errors.New(errors.CodeSchemaCycle,
			fmt.Sprintf("schema %q closes reference cycle %v", s.Name, cycle), nil).
			WithContext("cycle", cycle).
			WithAttribute("schema", s.Name)
	}

	r.schemas[s.Name] = s
	return nil
}

// Resolve returns the schema registered under name or UNKNOWN_SCHEMA.
func (r *Registry) Resolve(name string) (*Schema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.schemas[name]
	if !ok {
		return nil, errors.New(errors.CodeUnknownSchema,
			fmt.Sprintf("schema %q not registered", name), nil).
			WithAttribute("schema", name)
	}
	return s, nil
}

// Names returns the registered schema names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of registered schemas.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.schemas)
}

// Clear removes every schema. Tests use it for isolation; production code
// populates a registry once and treats it as read-only afterwards.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schemas = make(map[string]*Schema)
}

// findCycleLocked runs a depth-first walk over the reference graph formed
// by the registered schemas plus the candidate. Unregistered targets are
// leaves: they cannot close a cycle until they register, at which point
// this check runs again for them.
func (r *Registry) findCycleLocked(candidate *Schema) []string {
	graph := make(map[string][]string, len(r.schemas)+1)
	for name, s := range r.schemas {
		graph[name] = s.refs()
	}
	graph[candidate.Name] = candidate.refs()

	const (
		unvisited = 0
		inStack   = 1
		done      = 2
	)
	state := make(map[string]int, len(graph))
	var stack []string

	var visit func(name string) []string
	visit = func(name string) []string {
		targets, known := graph[name]
		if !known {
			return nil
		}
		state[name] = inStack
		stack = append(stack, name)
		for _, target := range targets {
			switch state[target] {
			case inStack:
				// Slice the stack from the first occurrence to report
				// the actual loop, not the lead-in path.
				for i, n := range stack {
					if n == target {
						return append(append([]string{}, stack[i:]...), target)
					}
				}
			case unvisited:
				if cycle := visit(target); cycle != nil {
					return cycle
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[name] = done
		return nil
	}

	return visit(candidate.Name)
}
