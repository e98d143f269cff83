package oven

import "fmt"

// ParseError reports a syntax problem together with its source position.
// The selector, @namespace at-rule and declaration-value parsers produce
// it. The stylesheet loader logs these and skips the offending rule or
// at-rule instead of returning them, and trailing text that never reaches
// a '{' is ignored, so New does not fail on malformed stylesheet syntax.
type ParseError struct {
	Span    Span
	Message string
}

func (e *ParseError) Error() string {
	if e.Span.IsZero() {
		return e.Message
	}
	return fmt.Sprintf("%d:%d: %s", e.Span.Line, e.Span.Column, e.Message)
}

func newParseError(span Span, format string, args ...any) *ParseError {
	return &ParseError{Span: span, Message: fmt.Sprintf(format, args...)}
}
