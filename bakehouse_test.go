package bakehouse

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dpotapov/bakehouse/oven"
)

func TestBakeStringAppliesRecipe(t *testing.T) {
	out, err := BakeString(
		`div.note { class: "callout"; content: "Note: " content(); }`,
		`<div class="note">hello</div>`,
	)
	require.NoError(t, err)
	require.Contains(t, out, `class="callout"`)
	require.Contains(t, out, "Note: hello")
}

func TestBakeWritesToProvidedWriter(t *testing.T) {
	var buf bytes.Buffer
	err := Bake(
		[]byte(`h1 { counter-increment: n; content: counter(n) ". " content(); }`),
		strings.NewReader(`<h1>First</h1>`),
		&buf,
	)
	require.NoError(t, err)
	require.Contains(t, buf.String(), "1. First")
}

func TestBakeToleratesMalformedStylesheet(t *testing.T) {
	// An unterminated block is not an error: the rule is kept with an
	// empty declaration list, so Bake still succeeds and renders the
	// document unchanged.
	var buf bytes.Buffer
	err := Bake([]byte(`div { `), strings.NewReader(`<div>hi</div>`), &buf)
	require.NoError(t, err)
	require.Contains(t, buf.String(), "hi")
}

func TestBakeForwardsOptions(t *testing.T) {
	var buf bytes.Buffer
	err := Bake([]byte(``), strings.NewReader(`<div></div>`), &buf, oven.WithRepeatableIDs(true))
	require.NoError(t, err)
}
