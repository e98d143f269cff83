package oven

import (
	"fmt"
	"log/slog"
	"strings"
)

// CounterStyle names one of the counter rendering styles supported by
// counter()/target-counter() (§4.4).
type CounterStyle string

const (
	StyleDecimal            CounterStyle = "decimal"
	StyleDecimalLeadingZero CounterStyle = "decimal-leading-zero"
	StyleLowerRoman         CounterStyle = "lower-roman"
	StyleUpperRoman         CounterStyle = "upper-roman"
	StyleLowerLatin         CounterStyle = "lower-latin"
	StyleLowerAlpha         CounterStyle = "lower-alpha"
	StyleUpperLatin         CounterStyle = "upper-latin"
	StyleUpperAlpha         CounterStyle = "upper-alpha"
)

// parseCounterStyle resolves a style identifier, logging and falling back
// to decimal for anything unrecognized (§4.4, §7).
func parseCounterStyle(logger *slog.Logger, name string) CounterStyle {
	switch CounterStyle(name) {
	case StyleDecimal, StyleDecimalLeadingZero, StyleLowerRoman, StyleUpperRoman,
		StyleLowerLatin, StyleLowerAlpha, StyleUpperLatin, StyleUpperAlpha:
		return CounterStyle(name)
	default:
		logger.Warn("unknown counter style, falling back to decimal", slog.String("style", name))
		return StyleDecimal
	}
}

// formatCounter renders n in the given style, degrading to decimal when the
// style's valid range doesn't cover n. No warning is logged for that
// fallback.
func formatCounter(n int, style CounterStyle) string {
	switch style {
	case StyleDecimalLeadingZero:
		if n < 10 && n >= 0 {
			return fmt.Sprintf("0%d", n)
		}
		return fmt.Sprintf("%d", n)
	case StyleLowerRoman:
		if s, ok := toRoman(n); ok {
			return strings.ToLower(s)
		}
		return fmt.Sprintf("%d", n)
	case StyleUpperRoman:
		if s, ok := toRoman(n); ok {
			return s
		}
		return fmt.Sprintf("%d", n)
	case StyleLowerLatin, StyleLowerAlpha:
		if s, ok := toAlpha(n); ok {
			return strings.ToLower(s)
		}
		return fmt.Sprintf("%d", n)
	case StyleUpperLatin, StyleUpperAlpha:
		if s, ok := toAlpha(n); ok {
			return s
		}
		return fmt.Sprintf("%d", n)
	default:
		return fmt.Sprintf("%d", n)
	}
}

var romanTable = []struct {
	value  int
	symbol string
}{
	{1000, "M"}, {900, "CM"}, {500, "D"}, {400, "CD"},
	{100, "C"}, {90, "XC"}, {50, "L"}, {40, "XL"},
	{10, "X"}, {9, "IX"}, {5, "V"}, {4, "IV"}, {1, "I"},
}

// toRoman converts 1..4999 to upper-case Roman numerals; out of range is
// rejected so the caller can fall back to decimal (§4.4).
func toRoman(n int) (string, bool) {
	if n < 1 || n > 4999 {
		return "", false
	}
	var b strings.Builder
	for _, r := range romanTable {
		for n >= r.value {
			b.WriteString(r.symbol)
			n -= r.value
		}
	}
	return b.String(), true
}

// toAlpha converts 1..26 to a single upper-case letter (§4.4).
func toAlpha(n int) (string, bool) {
	if n < 1 || n > 26 {
		return "", false
	}
	return string(rune('A' + n - 1)), true
}
