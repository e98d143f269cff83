package doc

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseFragmentAndRenderRoundTrip(t *testing.T) {
	root, err := ParseFragment(strings.NewReader(`<div class="note">Hello <b>world</b>!</div>`))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, root))
	require.Equal(t, `<div class="note">Hello <b>world</b>!</div>`, buf.String())
}

func TestRenderEscapesText(t *testing.T) {
	root, err := ParseFragment(strings.NewReader(`<p>a &lt; b &amp; c</p>`))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, root))
	require.Equal(t, `<p>a &lt; b &amp; c</p>`, buf.String())
}

func TestRenderVoidElement(t *testing.T) {
	root, err := ParseFragment(strings.NewReader(`<p>line<br>break</p>`))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, root))
	require.Equal(t, `<p>line<br/>break</p>`, buf.String())
}

func TestParseFullDocumentKeepsBodyContent(t *testing.T) {
	root, err := Parse(strings.NewReader(`<html><head><title>T</title></head><body><p>hi</p></body></html>`))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, root))
	require.Contains(t, buf.String(), "<p>hi</p>")
}
