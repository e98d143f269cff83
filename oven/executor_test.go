package oven

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dpotapov/bakehouse/oven/doc"
)

// sort-by/group-by are set on the element that RECEIVES inserted content
// (cnxeasybake's do_sort_by/do_group_by install the key func on the
// currently active target, not on the elements being sorted), so these
// tests build a collector div fed by copy-to, matching that usage.

func TestBakeSortByOrdersChildren(t *testing.T) {
	out := bakeString(t,
		`
		li { copy-to: items; }
		div.toc { content: pending(items); sort-by: attr(data-key); }
		`,
		`<body><ul><li data-key="c">C</li><li data-key="a">A</li><li data-key="b">B</li></ul><div class="toc"></div></body>`,
	)
	// the unsorted originals stay in the <ul>; look only at the collector.
	toc := out[indexOf(out, `class="toc"`):]
	ia, ib, ic := indexOf(toc, "A"), indexOf(toc, "B"), indexOf(toc, "C")
	require.Less(t, ia, ib)
	require.Less(t, ib, ic)
}

func TestBakeGroupByBucketsAndSorts(t *testing.T) {
	out := bakeString(t,
		`
		li { copy-to: items; }
		div.toc {
			content: pending(items);
			group-by: attr(data-group), attr(data-group);
			sort-by: attr(data-key);
		}
		`,
		`<body><ul>
			<li data-group="x" data-key="2">x2</li>
			<li data-group="y" data-key="1">y1</li>
			<li data-group="x" data-key="1">x1</li>
		</ul><div class="toc"></div></body>`,
	)
	require.Contains(t, out, `class="group-by"`)
	toc := out[indexOf(out, `class="toc"`):]
	ix1, ix2 := indexOf(toc, "x1"), indexOf(toc, "x2")
	require.Less(t, ix1, ix2)
}

func TestBakeBeforeWrapsWithLeadingText(t *testing.T) {
	out := bakeString(t,
		`p::before { content: "» "; }`,
		`<p>hello</p>`,
	)
	require.Contains(t, out, "» ")
	require.True(t, indexOf(out, "»") < indexOf(out, "hello"))
}

func TestBakeOutsideWrapsElement(t *testing.T) {
	out := bakeString(t,
		`p::outside { container: div; attr-class: "wrap"; }`,
		`<p>hi</p>`,
	)
	require.Contains(t, out, `<div class="wrap">`)
	require.Contains(t, out, "<p>hi</p>")
}

// When a pseudo-element's content is entirely drained by clear() (all
// drops, nothing left to show), the block must leave no empty wrapper
// behind in the tree — only the actual cleared nodes are removed.
func TestBakeClearInPseudoBlockLeavesNoWrapperResidue(t *testing.T) {
	out := bakeString(t,
		`
		li { move-to: junk; }
		div.scratch::after { content: clear(junk); }
		`,
		`<body><ul><li>a</li><li>b</li></ul><div class="scratch">keep</div></body>`,
	)
	require.NotContains(t, out, ">a<")
	require.NotContains(t, out, ">b<")
	require.Contains(t, out, "keep")
	require.Contains(t, out, "<ul></ul>")
	// No leftover empty <div></div> wrapper from the ::after block.
	require.NotContains(t, out, "<div></div>")
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

func TestDetachTailMovesFirstChildTailToParentText(t *testing.T) {
	root, err := doc.ParseFragment(bytes.NewReader([]byte(`<div><a>x</a>tail<b>y</b></div>`)))
	require.NoError(t, err)
	b := root.SelectElement("div").SelectElements("b")[0]
	require.Equal(t, "", b.Tail())

	a := root.SelectElement("div").SelectElements("a")[0]
	require.Equal(t, "tail", a.Tail())

	detachTail(a)
	require.Equal(t, "", a.Tail())
	require.Equal(t, "tail", root.SelectElement("div").Text())
	// detachTail with no tail is a no-op; re-run to confirm idempotence.
	detachTail(a)
	require.Equal(t, "", a.Tail())
}
