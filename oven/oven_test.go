package oven

import (
	"bytes"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/require"

	"github.com/dpotapov/bakehouse/oven/doc"
)

func bakeString(t *testing.T, stylesheet, html string, opts ...Option) string {
	t.Helper()
	o, err := New([]byte(stylesheet), opts...)
	require.NoError(t, err)

	root, err := doc.ParseFragment(bytes.NewReader([]byte(html)))
	require.NoError(t, err)

	require.NoError(t, o.Bake(root))

	var buf bytes.Buffer
	require.NoError(t, doc.Render(&buf, root))
	return buf.String()
}

func TestBakeContentAndClass(t *testing.T) {
	out := bakeString(t,
		`div.note { class: "callout"; content: "Note: " content(); }`,
		`<div class="note">hello</div>`,
	)
	require.Contains(t, out, `class="callout"`)
	require.Contains(t, out, "Note: hello")
}

func TestBakeCounterAcrossElements(t *testing.T) {
	out := bakeString(t,
		`h1 { counter-increment: sec; content: counter(sec) ". " content(); }`,
		`<body><h1>First</h1><h1>Second</h1></body>`,
	)
	require.Contains(t, out, "1. First")
	require.Contains(t, out, "2. Second")
}

func TestBakeMultiplePassesOrdered(t *testing.T) {
	out := bakeString(t,
		`
		div:pass("1") { attr-data-first: "yes"; }
		div:pass("2") { attr-data-second: "yes"; }
		`,
		`<div>content</div>`,
	)
	require.Contains(t, out, `data-first="yes"`)
	require.Contains(t, out, `data-second="yes"`)
}

func TestUpdateInvalidatesState(t *testing.T) {
	o, err := New([]byte(`div { counter-increment: c; content: counter(c); }`))
	require.NoError(t, err)

	root, err := doc.ParseFragment(bytes.NewReader([]byte(`<div></div>`)))
	require.NoError(t, err)
	require.NoError(t, o.Bake(root))

	var before bytes.Buffer
	require.NoError(t, doc.Render(&before, root))

	require.NoError(t, o.Update([]byte(`div { counter-increment: c; content: counter(c); }`)))

	root2, err := doc.ParseFragment(bytes.NewReader([]byte(`<div></div>`)))
	require.NoError(t, err)
	require.NoError(t, o.Bake(root2))

	var after bytes.Buffer
	require.NoError(t, doc.Render(&after, root2))

	// After Update the recompiled stylesheet bakes from fresh state, so the
	// counter restarts at 1.
	require.Contains(t, before.String(), "1")
	require.Contains(t, after.String(), "1")
}

func TestBakeTwiceWithoutUpdateRestartsCounters(t *testing.T) {
	o, err := New([]byte(`h1 { counter-increment: chap; content: counter(chap); }`))
	require.NoError(t, err)

	root1, err := doc.ParseFragment(bytes.NewReader([]byte(`<h1></h1>`)))
	require.NoError(t, err)
	require.NoError(t, o.Bake(root1))

	var first bytes.Buffer
	require.NoError(t, doc.Render(&first, root1))
	require.Equal(t, "<h1>1</h1>", first.String())

	// Baking a second, fresh document on the same Oven with no Update in
	// between must not carry over the first document's counter value.
	root2, err := doc.ParseFragment(bytes.NewReader([]byte(`<h1></h1>`)))
	require.NoError(t, err)
	require.NoError(t, o.Bake(root2))

	var second bytes.Buffer
	require.NoError(t, doc.Render(&second, root2))
	require.Equal(t, "<h1>1</h1>", second.String())
}

func TestGenerateIDRepeatable(t *testing.T) {
	o, err := New([]byte(``), WithRepeatableIDs(true))
	require.NoError(t, err)
	require.Equal(t, "genid-1", o.GenerateID())
	require.Equal(t, "genid-2", o.GenerateID())
}

func TestCoverageReportMarksHitSelectors(t *testing.T) {
	o, err := New([]byte("div { class: \"x\"; }\nspan { class: \"y\"; }\n"))
	require.NoError(t, err)
	root, err := doc.ParseFragment(bytes.NewReader([]byte(`<div>hi</div>`)))
	require.NoError(t, err)
	require.NoError(t, o.Bake(root))

	report := o.CoverageReport()
	require.Contains(t, report, "DA:1,1")
	require.Contains(t, report, "DA:2,0")
}

func TestCloseVoidlessElements(t *testing.T) {
	el := etree.NewElement("div")
	closeVoidlessElements(el)
	require.NotEmpty(t, el.Child, "a non-void empty element must get an explicit empty text node")

	img := etree.NewElement("img")
	closeVoidlessElements(img)
	require.Empty(t, img.Child, "a void element must not get a synthetic text node")
}
