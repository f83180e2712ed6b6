// Package idnorm canonicalizes customer and order identifiers so that joins
// across independently sourced tables land on the same key.
package idnorm

import (
	"strings"
)

// Order references embed the customer id at a fixed position.
const (
	refCustomerStart = 2
	refCustomerEnd   = 12
)

// Normalize converts a raw identifier to its fixed-width, zero-padded form.
// A trailing ".0" artifact of numeric serialization is stripped first, so
// "123" and "123.0" normalize identically. Unparseable or missing input
// degrades to the all-zero sentinel instead of failing the pipeline; the
// second return value is false in that case so callers can tally how many
// records collapsed onto the sentinel key. Normalize is idempotent.
func Normalize(raw string, width int) (string, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(s, ".0")
	if s == "" {
		return strings.Repeat("0", width), false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return strings.Repeat("0", width), false
		}
	}
	if len(s) < width {
		s = strings.Repeat("0", width-len(s)) + s
	}
	return s, true
}

// FromOrderReference slices the customer id out of an order reference
// (positions [2,12)) and normalizes it. Short references degrade to the
// sentinel like any other malformed input.
func FromOrderReference(ref string, width int) (string, bool) {
	s := strings.TrimSpace(ref)
	if len(s) <= refCustomerStart {
		return Normalize("", width)
	}
	if len(s) > refCustomerEnd {
		s = s[:refCustomerEnd]
	}
	return Normalize(s[refCustomerStart:], width)
}
