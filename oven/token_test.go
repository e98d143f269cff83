package oven

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// TestTokenizeProducesExpectedStream diffs the full token stream with
// go-cmp (as the teacher's own chtml/render_test.go and
// chtml/scope_test.go do for their parsed trees) rather than asserting
// field-by-field, since a tokenizer regression is usually a shift in the
// whole stream rather than a single token's value.
func TestTokenizeProducesExpectedStream(t *testing.T) {
	got := tokenize(`div.note[title] { color: "red" }`)
	want := []token{
		{kind: tokIdent, value: "div", span: Span{1, 1}},
		{kind: tokDelim, value: ".", span: Span{1, 4}},
		{kind: tokIdent, value: "note", span: Span{1, 5}},
		{kind: tokDelim, value: "[", span: Span{1, 9}},
		{kind: tokIdent, value: "title", span: Span{1, 10}},
		{kind: tokDelim, value: "]", span: Span{1, 15}},
		{kind: tokWhitespace, value: " ", span: Span{1, 16}},
		{kind: tokDelim, value: "{", span: Span{1, 17}},
		{kind: tokWhitespace, value: " ", span: Span{1, 18}},
		{kind: tokIdent, value: "color", span: Span{1, 19}},
		{kind: tokDelim, value: ":", span: Span{1, 24}},
		{kind: tokWhitespace, value: " ", span: Span{1, 25}},
		{kind: tokString, value: "red", span: Span{1, 26}},
		{kind: tokWhitespace, value: " ", span: Span{1, 31}},
		{kind: tokDelim, value: "}", span: Span{1, 32}},
		{kind: tokEOF, span: Span{1, 33}},
	}
	if diff := cmp.Diff(want, got, cmp.AllowUnexported(token{})); diff != "" {
		t.Errorf("tokenize() mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenizeFunctionAndHash(t *testing.T) {
	got := tokenize(`attr(data-id) #frag`)
	want := []token{
		{kind: tokFunction, value: "attr", span: Span{1, 1}},
		{kind: tokIdent, value: "data-id", span: Span{1, 6}},
		{kind: tokDelim, value: ")", span: Span{1, 13}},
		{kind: tokWhitespace, value: " ", span: Span{1, 14}},
		{kind: tokHash, value: "frag", span: Span{1, 15}},
		{kind: tokEOF, span: Span{1, 20}},
	}
	if diff := cmp.Diff(want, got, cmp.AllowUnexported(token{})); diff != "" {
		t.Errorf("tokenize() mismatch (-want +got):\n%s", diff)
	}
}
