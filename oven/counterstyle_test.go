package oven

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatCounter(t *testing.T) {
	cases := []struct {
		name  string
		n     int
		style CounterStyle
		want  string
	}{
		{"decimal", 42, StyleDecimal, "42"},
		{"decimal-leading-zero single digit", 7, StyleDecimalLeadingZero, "07"},
		{"decimal-leading-zero double digit", 42, StyleDecimalLeadingZero, "42"},
		{"lower-roman", 14, StyleLowerRoman, "xiv"},
		{"upper-roman", 1994, StyleUpperRoman, "MCMXCIV"},
		{"upper-roman out of range falls back to decimal", 5000, StyleUpperRoman, "5000"},
		{"lower-alpha", 1, StyleLowerAlpha, "a"},
		{"upper-latin", 26, StyleUpperLatin, "Z"},
		{"upper-alpha out of range falls back to decimal", 27, StyleUpperAlpha, "27"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, formatCounter(tc.n, tc.style))
		})
	}
}

func TestParseCounterStyle(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	got := parseCounterStyle(logger, "upper-roman")
	require.Equal(t, StyleUpperRoman, got)

	got = parseCounterStyle(logger, "not-a-real-style")
	require.Equal(t, StyleDecimal, got)
}
