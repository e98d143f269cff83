package oven

import (
	"strings"

	"github.com/beevik/etree"
)

// ValueKind distinguishes the two CSS value types declarations can evaluate
// to: plain text, or a document fragment to be spliced into the tree.
type ValueKind int

const (
	// KindString is a (possibly still-delayed) piece of text.
	KindString ValueKind = iota
	// KindFragment is an ordered list of fragment ops: content destined to
	// be inserted, moved, copied, or dropped.
	KindFragment
)

// FragmentOpKind tags a single element of a DocumentFragment value.
type FragmentOpKind int

const (
	OpString FragmentOpKind = iota
	OpMove
	OpCopy
	OpNodeset
	OpDrop
	OpDelayed
)

// FragmentOp is one entry of a DocumentFragment value: either literal text,
// a reference to a live tree node tagged with how it should be spliced in,
// or a delayed value awaiting resolution at execution time.
type FragmentOp struct {
	Kind    FragmentOpKind
	Text    string
	Node    *etree.Element
	Delayed Delayed
}

// Value is a typed, possibly-delayed CSS value: the result of evaluating a
// declaration's right-hand side or a single function call within one.
type Value struct {
	Kind ValueKind

	// Text/Delayed apply when Kind == KindString. A String Value is
	// "immediate" iff Delayed is nil.
	Text    string
	Delayed Delayed

	// Ops applies when Kind == KindFragment.
	Ops []FragmentOp

	// Elem is set only by content() (§4.1): the raw current element,
	// carried through uninterpreted so the content declaration handler can
	// compare it by identity against its target root before deciding
	// whether to splice text+children in (§4.7).
	Elem *etree.Element
}

// ElementValue wraps el as content()'s raw-element Value (§4.1).
func ElementValue(el *etree.Element) Value {
	return Value{Kind: KindFragment, Elem: el}
}

// IsImmediate reports whether the value can be used without an oven/target
// context, per the guarantee in the design notes (§4.1): immediate string
// values resolve identically with or without context.
func (v Value) IsImmediate() bool {
	return v.Kind == KindString && v.Delayed == nil
}

// DefaultString is the nil String value: "".
func DefaultString() Value { return Value{Kind: KindString, Text: ""} }

// DefaultFragment is the nil DocumentFragment value: no ops.
func DefaultFragment() Value { return Value{Kind: KindFragment} }

// StringFrom lifts a native value into a String Value, per the String.from
// contract (§4.1): text, an element's text content, a list of strings
// (joined), or a Delayed value carried through unresolved.
func StringFrom(x any) Value {
	switch t := x.(type) {
	case nil:
		return DefaultString()
	case string:
		return Value{Kind: KindString, Text: t}
	case Delayed:
		return Value{Kind: KindString, Delayed: t}
	case *etree.Element:
		return Value{Kind: KindString, Text: elementText(t)}
	case []string:
		return Value{Kind: KindString, Text: strings.Join(t, "")}
	case []Value:
		var b strings.Builder
		for _, v := range t {
			if v.IsImmediate() {
				b.WriteString(v.Text)
			}
		}
		return Value{Kind: KindString, Text: b.String()}
	default:
		return DefaultString()
	}
}

// FragmentFrom concatenates a sequence of already-evaluated term Values into
// one DocumentFragment Value (§4.1's "content has several terms" case):
// each term's own ops pass through as-is, and a bare string term becomes an
// OpString (or OpDelayed, if it hasn't resolved yet).
func FragmentFrom(terms []Value) Value {
	var ops []FragmentOp
	for _, v := range terms {
		switch v.Kind {
		case KindFragment:
			if v.Elem != nil {
				ops = append(ops, FragmentOp{Kind: OpCopy, Node: v.Elem})
			}
			ops = append(ops, v.Ops...)
		case KindString:
			if v.Delayed != nil {
				ops = append(ops, FragmentOp{Kind: OpDelayed, Delayed: v.Delayed})
			} else {
				ops = append(ops, FragmentOp{Kind: OpString, Text: v.Text})
			}
		}
	}
	return Value{Kind: KindFragment, Ops: ops}
}

// liftContentTerm turns one evaluated content-value term into fragment ops,
// applying the pseudo-element-dependent copy/move/drop rules content's bare
// element and nodeset payloads need (§4.7): needsCopy clones element
// payloads before they're spliced in (true for ::before/::after, which
// don't consume the original), action picks the op kind a raw element
// becomes (move for ::outside, copy elsewhere), and includeNodes false
// turns the payload into a drop instead (content() with label "" "none",
// where the element's children were already cleared and nothing should be
// reinserted).
func liftContentTerm(v Value, needsCopy bool, action FragmentOpKind, includeNodes bool) Value {
	lift := func(el *etree.Element) FragmentOp {
		if !includeNodes {
			return FragmentOp{Kind: OpDrop, Node: el}
		}
		node := el
		if needsCopy {
			node = CopyWithIDSuffix(el, "_copy")
		}
		return FragmentOp{Kind: action, Node: node}
	}
	switch {
	case v.Kind == KindFragment && v.Elem != nil:
		return Value{Kind: KindFragment, Ops: []FragmentOp{lift(v.Elem)}}
	case v.Kind == KindFragment:
		return v
	case v.Delayed != nil:
		return Value{Kind: KindFragment, Ops: []FragmentOp{{Kind: OpDelayed, Delayed: v.Delayed}}}
	default:
		return Value{Kind: KindFragment, Ops: []FragmentOp{{Kind: OpString, Text: v.Text}}}
	}
}

func elementText(el *etree.Element) string {
	if el == nil {
		return ""
	}
	return el.Text()
}
