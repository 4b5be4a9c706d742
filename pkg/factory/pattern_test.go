// Copyright 2026 © The Claimforge Authors
// SPDX-License-Identifier: Apache-2.0

package factory

import (
	"math/rand"
	"regexp"
	"testing"
)

// The claim schemas lean on a handful of pattern shapes; every one of them
// must generate strings its own pattern accepts.
func TestPatternGenerationMatchesOwnPattern(t *testing.T) {
	patterns := []string{
		`^\d{6}$`,
		`^\d{10}$`,
		`^[1-9]$`,
		`^[0-9][0-9]?$`,
		`^\d{4}(0[1-9]|1[0-2])(0[1-9]|[12]\d|3[01])$`,
		`^\d+[A-IJ-R{}]$`,
		`^(?:0\d{2}|[1-9]\d{2})$`,
		`^[A-Z]{2}-\d{3,5}$`,
		`^a(b|c)*d?$`,
	}

	for _, pattern := range patterns {
		t.Run(pattern, func(t *testing.T) {
			prog, err := compileGenPattern(pattern)
			if err != nil {
				t.Fatalf("compile failed: %v", err)
			}
			re := regexp.MustCompile(pattern)
			rng := rand.New(rand.NewSource(42))
			for i := 0; i < 100; i++ {
				s := prog.generate(rng)
				if !re.MatchString(s) {
					t.Fatalf("draw %d: %q does not match %s", i, s, pattern)
				}
			}
		})
	}
}

func TestPatternGenerationDeterminism(t *testing.T) {
	prog, err := compileGenPattern(`^\d{4}(0[1-9]|1[0-2])(0[1-9]|[12]\d|3[01])$`)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	a := rand.New(rand.NewSource(7))
	b := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		if x, y := prog.generate(a), prog.generate(b); x != y {
			t.Fatalf("draw %d: %q != %q for identical seeds", i, x, y)
		}
	}
}

func TestPatternCompileErrors(t *testing.T) {
	if _, err := compileGenPattern(`a[b`); err == nil {
		t.Errorf("expected malformed pattern to fail")
	}
	if _, err := compileGenPattern(`\bword\b`); err == nil {
		t.Errorf("expected word boundary pattern to be rejected")
	}
}

func TestPatternLengthFits(t *testing.T) {
	tests := []struct {
		pattern string
		lo, hi  int
		want    bool
	}{
		{`^a$`, 1, 1, true},
		{`^a$`, 5, 10, false},
		{`^\d{1,6}$`, 3, 4, true},
		{`^\d{5}$`, 0, 2, false},
		{`^(a|aaa)$`, 2, 2, false},
		{`^(a|aaa)$`, 2, 3, true},
		{`^x+$`, 0, unboundedRepeatCap, true},
		{`^x+$`, unboundedRepeatCap + 1, 100, false},
	}
	for _, tt := range tests {
		prog, err := compileGenPattern(tt.pattern)
		if err != nil {
			t.Fatalf("compile %s: %v", tt.pattern, err)
		}
		if got := prog.lengthFits(tt.lo, tt.hi); got != tt.want {
			t.Errorf("lengthFits(%s, %d, %d) = %t, want %t", tt.pattern, tt.lo, tt.hi, got, tt.want)
		}
	}
}

func TestPatternUnboundedRepeatTerminates(t *testing.T) {
	prog, err := compileGenPattern(`^x+y*$`)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 50; i++ {
		s := prog.generate(rng)
		if len(s) == 0 || len(s) > 2*(unboundedRepeatCap+1) {
			t.Fatalf("draw %d: unexpected length %d for %q", i, len(s), s)
		}
	}
}
