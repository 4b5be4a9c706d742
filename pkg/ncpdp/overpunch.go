// Copyright 2026 © The Claimforge Authors
// SPDX-License-Identifier: Apache-2.0

package ncpdp

import (
	"fmt"
	"strconv"

	"github.com/zebrarx/claimforge/pkg/errors"
)

// Monetary amounts travel in signed overpunch: the trailing digit is folded
// together with the sign into one character. Positive 0..9 map to '{' and
// 'A'..'I', negative 0..9 to '}' and 'J'..'R'. A plain trailing digit is
// accepted on decode and reads as positive, since some senders skip the
// fold for unsigned amounts. Amounts carry an implied two-digit decimal,
// so 150 on the wire means $1.50.

var overpunchPositive = [10]byte{'{', 'A', 'B', 'C', 'D', 'E', 'F', 'G', 'H', 'I'}
var overpunchNegative = [10]byte{'}', 'J', 'K', 'L', 'M', 'N', 'O', 'P', 'Q', 'R'}

// EncodeOverpunch renders a signed amount in cents as an overpunch string.
func EncodeOverpunch(cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	last := cents % 10
	head := cents / 10
	table := overpunchPositive
	if neg {
		table = overpunchNegative
	}
	if head == 0 {
		return string(table[last])
	}
	return strconv.FormatInt(head, 10) + string(table[last])
}

// DecodeOverpunch parses an overpunch string back into signed cents.
func DecodeOverpunch(s string) (int64, error) {
	if s == "" {
		return 0, errors.New(errors.CodeCodec, "empty overpunch value", nil)
	}
	last := s[len(s)-1]
	head := s[:len(s)-1]

	digit, neg, ok := overpunchDigit(last)
	if !ok {
		return 0, errors.New(errors.CodeCodec,
			fmt.Sprintf("invalid overpunch terminator %q in %q", last, s), nil)
	}

	var value int64
	if head != "" {
		n, err := strconv.ParseInt(head, 10, 64)
		if err != nil || n < 0 {
			return 0, errors.New(errors.CodeCodec,
				fmt.Sprintf("invalid overpunch body %q in %q", head, s), err)
		}
		value = n
	}
	value = value*10 + digit
	if neg {
		value = -value
	}
	return value, nil
}

func overpunchDigit(c byte) (digit int64, neg, ok bool) {
	switch {
	case c == '{':
		return 0, false, true
	case c == '}':
		return 0, true, true
	case c >= 'A' && c <= 'I':
		return int64(c-'A') + 1, false, true
	case c >= 'J' && c <= 'R':
		return int64(c-'J') + 1, true, true
	case c >= '0' && c <= '9':
		return int64(c - '0'), false, true
	}
	return 0, false, false
}
