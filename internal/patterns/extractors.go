// Package patterns provides extraction functions for manifest field parsing.
package patterns

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotPieces is returned when a field is not a piece count.
	ErrNotPieces = errors.New("not a piece count")
	// ErrNotWeight is returned when a field is not a weight.
	ErrNotWeight = errors.New("not a weight")
)

// ParsePieces parses a piece field such as "4" or "4/10".
// Only the leading count is kept.
func ParsePieces(field string) (int, error) {
	field = strings.TrimSpace(field)
	m := Lines.ParseFormat(FormatPieces, field)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrNotPieces, field)
	}
	n, err := strconv.Atoi(m.Captures["pieces"])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNotPieces, field)
	}
	return n, nil
}

// ParseWeight parses a weight field into a decimal value.
//
// Manifests mix separators: "120,5" and "120.5" are both 120.5 kg, "1.234,5" and
// "1,234.5" are 1234.5 kg. When both separators appear the last one is the
// decimal mark. A lone separator followed by exactly three digits is grouping,
// unless the integer part starts with 0: "0,500" is half a kilo.
func ParseWeight(field string) (decimal.Decimal, error) {
	field = strings.TrimSpace(field)
	if Lines.ParseFormat(FormatWeight, field) == nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrNotWeight, field)
	}

	normalised, ok := normaliseDecimal(field)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrNotWeight, field)
	}
	d, err := decimal.NewFromString(normalised)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrNotWeight, field)
	}
	return d, nil
}

// normaliseDecimal rewrites a grouped, comma or dot separated number to plain
// dot-decimal form.
func normaliseDecimal(s string) (string, bool) {
	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	switch {
	case lastComma < 0 && lastDot < 0:
		return s, true

	case lastComma >= 0 && lastDot >= 0:
		mark, group := ",", "."
		if lastDot > lastComma {
			mark, group = ".", ","
		}
		if strings.Count(s, mark) != 1 {
			return "", false
		}
		intPart, frac, _ := strings.Cut(s, mark)
		intPart, ok := ungroup(intPart, group)
		if !ok || frac == "" {
			return "", false
		}
		return intPart + "." + frac, true

	default:
		sep := ","
		if lastDot >= 0 {
			sep = "."
		}
		parts := strings.Split(s, sep)
		if len(parts) == 2 && (len(parts[1]) != 3 || strings.HasPrefix(parts[0], "0")) {
			if parts[1] == "" {
				return "", false
			}
			return parts[0] + "." + parts[1], true
		}
		return ungroup(s, sep)
	}
}

// ungroup removes thousands separators, checking that every group after the
// first has exactly three digits and that a grouped number has no leading zero.
func ungroup(s, sep string) (string, bool) {
	parts := strings.Split(s, sep)
	if parts[0] == "" || (len(parts) > 1 && parts[0][0] == '0') {
		return "", false
	}
	for _, p := range parts[1:] {
		if len(p) != 3 {
			return "", false
		}
	}
	return strings.Join(parts, ""), true
}
