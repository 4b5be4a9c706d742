// Copyright 2026 © The Claimforge Authors
// SPDX-License-Identifier: Apache-2.0

// Package factory produces synthetic instances conforming to registered
// schemas, using seeded pseudo-randomness so fixtures are reproducible:
// a fixed (schema, seed) pair always yields byte-identical sequences.
package factory

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/zebrarx/claimforge/pkg/errors"
	"github.com/zebrarx/claimforge/pkg/schema"
)

const (
	defaultIntSpan   = 999999
	defaultStrMinLen = 1
	defaultStrMaxLen = 16
	defaultSeqMinLen = 0
	defaultSeqMaxLen = 5
	defaultNullProb  = 0.25
)

var strAlphabet = []rune("abcdefghijklmnopqrstuvwxyz0123456789")

// Generator draws schema-conformant values. It holds no per-call state;
// all randomness lives in the Sequence, so one Generator serves concurrent
// callers over a read-only registry.
type Generator struct {
	reg      *schema.Registry
	seqMin   int
	seqMax   int
	nullProb float64
}

// Option configures a Generator.
type Option func(*Generator)

// WithSequenceBounds overrides the default 0..5 element count for seq fields.
func WithSequenceBounds(min, max int) Option {
	return func(g *Generator) {
		if min >= 0 && max >= min {
			g.seqMin, g.seqMax = min, max
		}
	}
}

// WithNullProbability sets how often nullable fields draw nil.
func WithNullProbability(p float64) Option {
	return func(g *Generator) {
		if p >= 0 && p <= 1 {
			g.nullProb = p
		}
	}
}

// New creates a Generator over the given registry.
func New(reg *schema.Registry, opts ...Option) *Generator {
	g := &Generator{
		reg:      reg,
		seqMin:   defaultSeqMinLen,
		seqMax:   defaultSeqMaxLen,
		nullProb: defaultNullProb,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// Sequence is a lazy, finite, restartable stream of generated instances.
type Sequence struct {
	gen    *Generator
	schema *schema.Schema
	seed   int64
	count  int
	index  int
	rng    *rand.Rand
}

// Generate returns a sequence of count instances of the named schema. The
// schema graph is resolved and its constraints checked eagerly, so Next
// never fails: unknown schemas surface as UNKNOWN_SCHEMA and impossible
// constraints as CONSTRAINT_UNSATISFIABLE before any instance is drawn.
// count zero is valid and yields an empty sequence.
func (g *Generator) Generate(schemaName string, seed int64, count int) (*Sequence, error) {
	if count < 0 {
		return nil, errors.New(errors.CodeInvalidInput,
			fmt.Sprintf("count must be >= 0, got %d", count), nil)
	}
	s, err := g.reg.Resolve(schemaName)
	if err != nil {
		return nil, err
	}
	if err := g.checkSatisfiable(s, map[string]bool{}); err != nil {
		return nil, err
	}
	return &Sequence{
		gen:    g,
		schema: s,
		seed:   seed,
		count:  count,
		rng:    rand.New(rand.NewSource(seed)),
	}, nil
}

// Next returns the next instance, or ok=false once the sequence is spent.
func (s *Sequence) Next() (map[string]any, bool) {
	if s.index >= s.count {
		return nil, false
	}
	s.index++
	return s.gen.drawInstance(s.rng, s.schema), true
}

// Restart rewinds the sequence to its start; the same seed reproduces the
// exact draws.
func (s *Sequence) Restart() {
	s.index = 0
	s.rng = rand.New(rand.NewSource(s.seed))
}

// All drains the sequence into a slice.
func (s *Sequence) All() []map[string]any {
	out := make([]map[string]any, 0, s.count-s.index)
	for {
		inst, ok := s.Next()
		if !ok {
			return out
		}
		out = append(out, inst)
	}
}

// checkSatisfiable walks the schema graph reachable from s and rejects any
// field whose constraints admit no value. The registry guarantees the graph
// is acyclic; visited guards against re-walking shared references.
func (g *Generator) checkSatisfiable(s *schema.Schema, visited map[string]bool) error {
	if visited[s.Name] {
		return nil
	}
	visited[s.Name] = true
	for i := range s.Fields {
		if err := g.checkField(s.Name, &s.Fields[i], visited); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) checkField(schemaName string, f *schema.Field, visited map[string]bool) error {
	c := f.Constraints
	unsat := func(detail string) error {
		return errors.New(errors.CodeConstraintUnsatisfiable,
			fmt.Sprintf("schema %q field %q: %s", schemaName, f.Name, detail), nil).
			WithAttribute("field", f.Name)
	}

	switch f.Type {
	case schema.TypeInt, schema.TypeFloat:
		if c.Min != nil && c.Max != nil && *c.Min > *c.Max {
			return unsat(fmt.Sprintf("min %d greater than max %d", *c.Min, *c.Max))
		}
	case schema.TypeString:
		if c.MinLength != nil && c.MaxLength != nil && *c.MinLength > *c.MaxLength {
			return unsat(fmt.Sprintf("min_length %d greater than max_length %d", *c.MinLength, *c.MaxLength))
		}
		if lo, hi := strLenRange(c); lo > hi {
			return unsat(fmt.Sprintf("string length range [%d,%d] is empty", lo, hi))
		}
		if c.Pattern != "" {
			prog, err := compileGenPattern(c.Pattern)
			if err != nil {
				return unsat(fmt.Sprintf("pattern %q: %v", c.Pattern, err))
			}
			if c.MinLength != nil || c.MaxLength != nil {
				lo, hi := 0, math.MaxInt
				if c.MinLength != nil {
					lo = *c.MinLength
				}
				if c.MaxLength != nil {
					hi = *c.MaxLength
				}
				if !prog.lengthFits(lo, hi) {
					return unsat(fmt.Sprintf("pattern %q cannot emit a length within [%d,%d]", c.Pattern, lo, hi))
				}
			}
		}
	case schema.TypeSeq:
		lo, hi := g.seqLenRange(c)
		if lo > hi {
			return unsat(fmt.Sprintf("sequence length range [%d,%d] is empty", lo, hi))
		}
		return g.checkField(schemaName, f.Elem, visited)
	case schema.TypeRef:
		target, err := g.reg.Resolve(f.Ref)
		if err != nil {
			return err
		}
		return g.checkSatisfiable(target, visited)
	}
	return nil
}

func (g *Generator) seqLenRange(c schema.Constraints) (int, int) {
	lo, hi := g.seqMin, g.seqMax
	if c.MinLength != nil {
		lo = *c.MinLength
	}
	if c.MaxLength != nil {
		hi = *c.MaxLength
	} else if lo > hi {
		// Constraint floor above the configured ceiling with no explicit
		// cap: honor the constraint.
		hi = lo
	}
	return lo, hi
}

func (g *Generator) drawInstance(rng *rand.Rand, s *schema.Schema) map[string]any {
	inst := make(map[string]any, len(s.Fields))
	for i := range s.Fields {
		f := &s.Fields[i]
		inst[f.Name] = g.drawValue(rng, f)
	}
	return inst
}

func (g *Generator) drawValue(rng *rand.Rand, f *schema.Field) any {
	if f.Constraints.Nullable && rng.Float64() < g.nullProb {
		return nil
	}

	switch f.Type {
	case schema.TypeInt:
		lo, hi := intRange(f.Constraints)
		return lo + rng.Int63n(hi-lo+1)

	case schema.TypeFloat:
		lo, hi := intRange(f.Constraints)
		return float64(lo) + rng.Float64()*float64(hi-lo)

	case schema.TypeString:
		if f.Constraints.Pattern != "" {
			// Checked during Generate; the compiled form is cached.
			prog, _ := compileGenPattern(f.Constraints.Pattern)
			return drawPattern(rng, prog, f.Constraints)
		}
		return g.drawString(rng, f.Constraints)

	case schema.TypeBool:
		return rng.Intn(2) == 1

	case schema.TypeRef:
		target, err := g.reg.Resolve(f.Ref)
		if err != nil {
			// Generate resolved the full graph up front; a miss here means
			// the registry was mutated mid-draw, which the read-only
			// population contract forbids.
			panic(err)
		}
		return g.drawInstance(rng, target)

	case schema.TypeSeq:
		lo, hi := g.seqLenRange(f.Constraints)
		n := lo + rng.Intn(hi-lo+1)
		items := make([]any, n)
		for i := range items {
			items[i] = g.drawValue(rng, f.Elem)
		}
		return items
	}
	return nil
}

// strLenRange mirrors seqLenRange for string fields. The default floor
// yields to an explicit cap below it; an explicit floor was already checked
// against the cap during Generate.
func strLenRange(c schema.Constraints) (int, int) {
	lo, hi := defaultStrMinLen, defaultStrMaxLen
	if c.MinLength != nil {
		lo = *c.MinLength
	}
	if c.MaxLength != nil {
		hi = *c.MaxLength
		if c.MinLength == nil && hi < lo {
			lo = hi
		}
	} else if lo > hi {
		hi = lo
	}
	if lo < 0 {
		lo = 0
	}
	return lo, hi
}

func (g *Generator) drawString(rng *rand.Rand, c schema.Constraints) string {
	lo, hi := strLenRange(c)
	n := lo + rng.Intn(hi-lo+1)
	out := make([]rune, n)
	for i := range out {
		out[i] = strAlphabet[rng.Intn(len(strAlphabet))]
	}
	return string(out)
}

// drawPattern draws from the pattern, re-drawing while explicit length
// bounds exclude the draw. Generate verified a conforming length is
// reachable, so the loop terminates.
func drawPattern(rng *rand.Rand, prog *genPattern, c schema.Constraints) string {
	for {
		s := prog.generate(rng)
		if c.MinLength != nil && len(s) < *c.MinLength {
			continue
		}
		if c.MaxLength != nil && len(s) > *c.MaxLength {
			continue
		}
		return s
	}
}

func intRange(c schema.Constraints) (int64, int64) {
	switch {
	case c.Min != nil && c.Max != nil:
		return *c.Min, *c.Max
	case c.Min != nil:
		return *c.Min, *c.Min + defaultIntSpan
	case c.Max != nil:
		return *c.Max - defaultIntSpan, *c.Max
	default:
		return 0, defaultIntSpan
	}
}
