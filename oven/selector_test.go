package oven

import (
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/require"
)

func mustParseDoc(t *testing.T, xml string) *etree.Element {
	t.Helper()
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(xml))
	return doc.Root()
}

func TestCompileSelectorAndMatch(t *testing.T) {
	root := mustParseDoc(t, `<body>
		<div class="note warning" id="n1">
			<p>first</p>
			<p class="lead">second</p>
		</div>
	</body>`)
	div := root.SelectElement("div")
	ps := div.SelectElements("p")

	cases := []struct {
		name string
		src  string
		el   *etree.Element
		want bool
	}{
		{"type", "div", div, true},
		{"type mismatch", "span", div, false},
		{"id", "#n1", div, true},
		{"id mismatch", "#other", div, false},
		{"class", "div.warning", div, true},
		{"class missing", "div.missing", div, false},
		{"universal", "*", div, true},
		{"descendant", "body p", ps[0], true},
		{"child", "div > p", ps[0], true},
		{"child mismatch", "body > p", ps[0], false},
		{"adjacent", "p + p", ps[1], true},
		{"adjacent mismatch", "p + p", ps[0], false},
		{"attr exists", "div[id]", div, true},
		{"attr equals", `div[id="n1"]`, div, true},
		{"attr prefix", `div[id^="n"]`, div, true},
		{"attr suffix", `div[id$="1"]`, div, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sel, err := compileSelector(tc.src, Span{})
			require.NoError(t, err)
			require.Equal(t, tc.want, sel.Matches(tc.el))
		})
	}
}

func TestCompileSelectorPseudoElementAndPass(t *testing.T) {
	sel, err := compileSelector(`div::before_deferred:pass("numbering")`, Span{})
	require.NoError(t, err)
	require.Equal(t, "before", sel.Label)
	require.True(t, sel.Deferred)
	require.Equal(t, []string{"numbering"}, sel.Passes)
}

func TestSplitPseudoElement(t *testing.T) {
	label, deferred := splitPseudoElement("inside_deferred")
	require.Equal(t, "inside", label)
	require.True(t, deferred)

	label, deferred = splitPseudoElement("after")
	require.Equal(t, "after", label)
	require.False(t, deferred)
}
