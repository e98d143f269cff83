package oven

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEvalValueAttrAndString(t *testing.T) {
	el := mustParseDoc(t, `<a href="/foo">link</a>`)
	ctx := &evalCtx{
		oven:       &Oven{state: newState(), logger: discardTestLogger()},
		elem:       el,
		pass:       "default",
		namespaces: map[string]string{},
		logger:     discardTestLogger(),
	}

	v, err := evalValue(ctx, tokenize(`attr(href)`))
	require.NoError(t, err)
	require.True(t, v.IsImmediate())
	require.Equal(t, "/foo", v.Text)

	v, err = evalValue(ctx, tokenize(`"prefix: " attr(href)`))
	require.NoError(t, err)
	require.True(t, v.IsImmediate())
	require.Equal(t, "prefix: /foo", v.Text)
}

func TestEvalValueAttrDefault(t *testing.T) {
	el := mustParseDoc(t, `<a>link</a>`)
	ctx := &evalCtx{
		oven:       &Oven{state: newState(), logger: discardTestLogger()},
		elem:       el,
		pass:       "default",
		namespaces: map[string]string{},
		logger:     discardTestLogger(),
	}
	v, err := evalValue(ctx, tokenize(`attr(href, "none")`))
	require.NoError(t, err)
	require.Equal(t, "none", v.Text)
}

func TestEvalValueCounter(t *testing.T) {
	o := &Oven{state: newState(), logger: discardTestLogger()}
	ps := o.state.pass("default")
	ps.counters["section"] = 3

	el := mustParseDoc(t, `<h1></h1>`)
	ctx := &evalCtx{oven: o, elem: el, pass: "default", namespaces: map[string]string{}, logger: discardTestLogger()}

	v, err := evalValue(ctx, tokenize(`counter(section, upper-roman)`))
	require.NoError(t, err)
	require.Equal(t, "III", v.Text)
}

func TestEvalValueUUIDProducesNonEmptyImmediateString(t *testing.T) {
	el := mustParseDoc(t, `<div></div>`)
	ctx := &evalCtx{oven: &Oven{state: newState(), logger: discardTestLogger()}, elem: el, pass: "default", namespaces: map[string]string{}, logger: discardTestLogger()}

	v, err := evalValue(ctx, tokenize(`uuid()`))
	require.NoError(t, err)
	require.True(t, v.IsImmediate())
	require.NotEmpty(t, v.Text)
}
