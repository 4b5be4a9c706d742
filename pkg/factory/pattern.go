// Copyright 2026 © The Claimforge Authors
// SPDX-License-Identifier: Apache-2.0

package factory

import (
	"fmt"
	"math/rand"
	"regexp/syntax"
	"strings"
	"sync"
	"unicode/utf8"
)

// Pattern constraints are satisfied generatively: the pattern is parsed
// with regexp/syntax and a matching string is drawn from its AST. Unbounded
// quantifiers are capped so generation always terminates.
const unboundedRepeatCap = 5

type genPattern struct {
	re *syntax.Regexp
	// lengths holds every byte length generate can emit, given the same
	// repeat caps emit applies.
	lengths map[int]struct{}
}

var (
	genPatternMu    sync.RWMutex
	genPatternCache = map[string]*genPattern{}
)

func compileGenPattern(pattern string) (*genPattern, error) {
	genPatternMu.RLock()
	p, ok := genPatternCache[pattern]
	genPatternMu.RUnlock()
	if ok {
		return p, nil
	}

	re, err := syntax.Parse(pattern, syntax.Perl)
	if err != nil {
		return nil, err
	}
	re = re.Simplify()
	if err := checkGeneratable(re); err != nil {
		return nil, err
	}
	p = &genPattern{re: re, lengths: lengthsOf(re)}

	genPatternMu.Lock()
	genPatternCache[pattern] = p
	genPatternMu.Unlock()
	return p, nil
}

func checkGeneratable(re *syntax.Regexp) error {
	switch re.Op {
	case syntax.OpNoMatch:
		return fmt.Errorf("pattern matches nothing")
	case syntax.OpCharClass:
		if len(re.Rune) == 0 {
			return fmt.Errorf("empty character class")
		}
	case syntax.OpWordBoundary, syntax.OpNoWordBoundary:
		return fmt.Errorf("word boundaries are not generatable")
	}
	for _, sub := range re.Sub {
		if err := checkGeneratable(sub); err != nil {
			return err
		}
	}
	return nil
}

func (p *genPattern) generate(rng *rand.Rand) string {
	var b strings.Builder
	emit(rng, p.re, &b)
	return b.String()
}

func emit(rng *rand.Rand, re *syntax.Regexp, b *strings.Builder) {
	switch re.Op {
	case syntax.OpEmptyMatch, syntax.OpBeginText, syntax.OpEndText,
		syntax.OpBeginLine, syntax.OpEndLine:
		// Zero width.

	case syntax.OpLiteral:
		for _, r := range re.Rune {
			b.WriteRune(r)
		}

	case syntax.OpCharClass:
		b.WriteRune(pickFromClass(rng, re.Rune))

	case syntax.OpAnyChar, syntax.OpAnyCharNotNL:
		b.WriteRune(strAlphabet[rng.Intn(len(strAlphabet))])

	case syntax.OpCapture:
		emit(rng, re.Sub[0], b)

	case syntax.OpConcat:
		for _, sub := range re.Sub {
			emit(rng, sub, b)
		}

	case syntax.OpAlternate:
		emit(rng, re.Sub[rng.Intn(len(re.Sub))], b)

	case syntax.OpQuest:
		if rng.Intn(2) == 1 {
			emit(rng, re.Sub[0], b)
		}

	case syntax.OpStar:
		for n := rng.Intn(unboundedRepeatCap + 1); n > 0; n-- {
			emit(rng, re.Sub[0], b)
		}

	case syntax.OpPlus:
		for n := 1 + rng.Intn(unboundedRepeatCap); n > 0; n-- {
			emit(rng, re.Sub[0], b)
		}

	case syntax.OpRepeat:
		max := re.Max
		if max < 0 {
			max = re.Min + unboundedRepeatCap
		}
		for n := re.Min + rng.Intn(max-re.Min+1); n > 0; n-- {
			emit(rng, re.Sub[0], b)
		}
	}
}

// lengthFits reports whether generate can emit a string whose byte length
// falls within [lo, hi].
func (p *genPattern) lengthFits(lo, hi int) bool {
	for l := range p.lengths {
		if l >= lo && l <= hi {
			return true
		}
	}
	return false
}

// lengthsOf computes the byte lengths emit can produce for re.
func lengthsOf(re *syntax.Regexp) map[int]struct{} {
	switch re.Op {
	case syntax.OpLiteral:
		return lengthSet(len(string(re.Rune)))

	case syntax.OpCharClass:
		out := map[int]struct{}{}
		for w := utf8.RuneLen(re.Rune[0]); w <= utf8.RuneLen(re.Rune[len(re.Rune)-1]); w++ {
			out[w] = struct{}{}
		}
		return out

	case syntax.OpAnyChar, syntax.OpAnyCharNotNL:
		return lengthSet(1)

	case syntax.OpCapture:
		return lengthsOf(re.Sub[0])

	case syntax.OpConcat:
		out := lengthSet(0)
		for _, sub := range re.Sub {
			out = sumLengths(out, lengthsOf(sub))
		}
		return out

	case syntax.OpAlternate:
		out := map[int]struct{}{}
		for _, sub := range re.Sub {
			for l := range lengthsOf(sub) {
				out[l] = struct{}{}
			}
		}
		return out

	case syntax.OpQuest:
		return repeatLengths(lengthsOf(re.Sub[0]), 0, 1)

	case syntax.OpStar:
		return repeatLengths(lengthsOf(re.Sub[0]), 0, unboundedRepeatCap)

	case syntax.OpPlus:
		return repeatLengths(lengthsOf(re.Sub[0]), 1, unboundedRepeatCap)

	case syntax.OpRepeat:
		max := re.Max
		if max < 0 {
			max = re.Min + unboundedRepeatCap
		}
		return repeatLengths(lengthsOf(re.Sub[0]), re.Min, max)
	}
	// Zero-width ops.
	return lengthSet(0)
}

func lengthSet(ls ...int) map[int]struct{} {
	out := make(map[int]struct{}, len(ls))
	for _, l := range ls {
		out[l] = struct{}{}
	}
	return out
}

func sumLengths(a, b map[int]struct{}) map[int]struct{} {
	out := make(map[int]struct{}, len(a)*len(b))
	for x := range a {
		for y := range b {
			out[x+y] = struct{}{}
		}
	}
	return out
}

// repeatLengths folds the length set of a sub-expression repeated between
// min and max times.
func repeatLengths(s map[int]struct{}, min, max int) map[int]struct{} {
	kfold := lengthSet(0)
	out := map[int]struct{}{}
	for k := 0; k <= max; k++ {
		if k >= min {
			for l := range kfold {
				out[l] = struct{}{}
			}
		}
		if k < max {
			kfold = sumLengths(kfold, s)
		}
	}
	return out
}

// pickFromClass draws a rune uniformly from the [lo,hi] pairs of a
// simplified character class.
func pickFromClass(rng *rand.Rand, pairs []rune) rune {
	var total int64
	for i := 0; i < len(pairs); i += 2 {
		total += int64(pairs[i+1]-pairs[i]) + 1
	}
	n := rng.Int63n(total)
	for i := 0; i < len(pairs); i += 2 {
		span := int64(pairs[i+1]-pairs[i]) + 1
		if n < span {
			return pairs[i] + rune(n)
		}
		n -= span
	}
	return pairs[0]
}
