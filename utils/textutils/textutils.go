// Copyright 2025 The ProjectMap Authors
// SPDX-License-Identifier: Apache-2.0

// Package textutils provides helpers for normalizing and formatting text.
package textutils

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// LowerASCIIFolding normalizes a string by removing accents, lowercasing, and trimming spaces.
func LowerASCIIFolding(s string) string {
	s, _, _ = transform.String(
		transform.Chain(
			norm.NFD,
			runes.Remove(runes.In(unicode.Mn)),
			norm.NFC,
		),
		strings.TrimSpace(strings.ToLower(s)),
	)

	return s
}

// FoldSearch folds s like LowerASCIIFolding and collapses runs of
// whitespace into a single space.
func FoldSearch(s string) string {
	return strings.Join(strings.Fields(LowerASCIIFolding(s)), " ")
}

// SearchKey folds and joins the given fields into a single string suitable
// for substring matching against a folded needle.
func SearchKey(fields ...string) string {
	folded := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = FoldSearch(f); f != "" {
			folded = append(folded, f)
		}
	}

	return strings.Join(folded, "\x1f")
}

// Truncate shortens s to at most n runes, appending an ellipsis when cut.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}

	if n <= 1 {
		return string(r[:n])
	}

	return string(r[:n-1]) + "…"
}

// FormatInt formats an integer with thousands separators.
func FormatInt(n int64) string {
	in := strconv.FormatInt(n, 10)

	numOfDigits := len(in)
	if n < 0 {
		numOfDigits-- // First character is the - sign (not a digit)
	}

	numOfCommas := (numOfDigits - 1) / 3

	out := make([]byte, len(in)+numOfCommas)
	if n < 0 {
		in, out[0] = in[1:], '-'
	}

	for i, j, k := len(in)-1, len(out)-1, 0; ; i, j = i-1, j-1 {
		out[j] = in[i]
		if i == 0 {
			return string(out)
		}

		if k++; k == 3 {
			j, k = j-1, 0
			out[j] = ','
		}
	}
}
