package oven

import (
	"strings"

	"github.com/beevik/etree"
)

// combinator names how one compound selector relates to the next one in a
// chain (§2, §4.2 "Rule store"). No pack example wires a selector-matching
// library (none of _examples/*/go.mod import cascadia/goquery/any CSS
// selector engine), and cascadia itself only matches against
// golang.org/x/net/html.Node, not the beevik/etree tree this engine builds
// its document model on; this file is the local stand-in for the "CSS
// selector compilation" external collaborator the design notes describe.
type combinator byte

const (
	combNone       combinator = 0
	combDescendant combinator = ' '
	combChild      combinator = '>'
	combAdjacent   combinator = '+'
	combSibling    combinator = '~'
)

type attrSelector struct {
	name, op, value string
}

// simpleSelector is one compound: a type/universal test plus id/class/attr
// filters, all of which must hold for a match.
type simpleSelector struct {
	typ     string // "" means no type constraint (implies "*")
	id      string
	classes []string
	attrs   []attrSelector
}

type compoundStep struct {
	sel  simpleSelector
	comb combinator // how this step relates to the PREVIOUS (leftward) step
}

// Selector is a fully compiled selector: the compound-selector chain plus
// the pseudo-element label and the pass-set/deferred flag parsed off its
// trailing pseudo-classes (§4.2).
type Selector struct {
	Steps    []compoundStep
	Label    string // "", "before", "after", "inside", "outside"
	Deferred bool
	Passes   []string // empty means "default"
	Source   string
	Span     Span
}

// compileSelector parses one comma-free selector (the caller splits a
// selector list on top-level commas before calling this).
func compileSelector(src string, span Span) (*Selector, error) {
	toks := tokenize(src)
	p := newParser(toks)
	sel := &Selector{Source: strings.TrimSpace(src), Span: span}

	var cur simpleSelector
	haveCur := false
	pendingComb := combNone

	flush := func() {
		if haveCur {
			sel.Steps = append(sel.Steps, compoundStep{sel: cur, comb: pendingComb})
			cur = simpleSelector{}
			haveCur = false
			pendingComb = combNone
		}
	}

	for !p.isDone() {
		t := p.cur()
		switch {
		case t.kind == tokWhitespace:
			p.pos++
			if !p.isDone() {
				nt := p.cur()
				if nt.kind == tokDelim && (nt.value == ">" || nt.value == "+" || nt.value == "~") {
					continue // the explicit combinator token below takes precedence
				}
			}
			if haveCur {
				flush()
				pendingComb = combDescendant
			}

		case t.kind == tokDelim && (t.value == ">" || t.value == "+" || t.value == "~"):
			flush()
			pendingComb = combinator(t.value[0])
			p.pos++
			p.skipSpace()

		case t.kind == tokIdent:
			haveCur = true
			cur.typ = t.value
			p.pos++

		case t.kind == tokDelim && t.value == "*":
			haveCur = true
			cur.typ = ""
			p.pos++

		case t.kind == tokHash:
			haveCur = true
			cur.id = t.value
			p.pos++

		case t.kind == tokDelim && t.value == ".":
			p.pos++
			name, err := p.ident()
			if err != nil {
				return nil, err
			}
			haveCur = true
			cur.classes = append(cur.classes, name)

		case t.kind == tokDelim && t.value == "[":
			p.pos++
			attr, err := parseAttrSelector(p)
			if err != nil {
				return nil, err
			}
			haveCur = true
			cur.attrs = append(cur.attrs, attr)

		case t.kind == tokDelim && t.value == ":":
			p.pos++
			if !p.isDone() && p.cur().kind == tokDelim && p.cur().value == ":" {
				p.pos++
				name, err := p.ident()
				if err != nil {
					return nil, err
				}
				label, deferred := splitPseudoElement(name)
				sel.Label = label
				sel.Deferred = sel.Deferred || deferred
				haveCur = true
				continue
			}
			if err := parsePseudoClass(p, sel); err != nil {
				return nil, err
			}
			haveCur = true

		default:
			return nil, newParseError(t.span, "unexpected token in selector: %q", t.value)
		}
	}
	flush()
	if len(sel.Steps) == 0 {
		return nil, newParseError(span, "empty selector")
	}
	return sel, nil
}

// splitPseudoElement separates a trailing "_deferred" marker from a
// pseudo-element name, per the label convention used throughout the action
// log and builder (§3, §4.6): "before_deferred" etc.
func splitPseudoElement(name string) (label string, deferred bool) {
	if strings.HasSuffix(name, "_deferred") {
		return strings.TrimSuffix(name, "_deferred"), true
	}
	return name, false
}

func parseAttrSelector(p *parser) (attrSelector, error) {
	p.skipSpace()
	name, err := p.ident()
	if err != nil {
		return attrSelector{}, err
	}
	p.skipSpace()
	if p.eat(tokDelim, "]") {
		return attrSelector{name: name}, nil
	}
	op := ""
	if t := p.cur(); t.kind == tokDelim {
		switch t.value {
		case "=":
			op = "="
			p.pos++
		case "~", "|", "^", "$", "*":
			p.pos++
			if !p.eat(tokDelim, "=") {
				return attrSelector{}, newParseError(t.span, "malformed attribute operator")
			}
			op = t.value + "="
		default:
			return attrSelector{}, newParseError(t.span, "unexpected attribute operator %q", t.value)
		}
	}
	p.skipSpace()
	valTok, err := p.next()
	if err != nil {
		return attrSelector{}, err
	}
	var val string
	switch valTok.kind {
	case tokString, tokIdent:
		val = valTok.value
	default:
		return attrSelector{}, newParseError(valTok.span, "expected attribute value")
	}
	p.skipSpace()
	if !p.eat(tokDelim, "]") {
		return attrSelector{}, newParseError(p.cur().span, "expected ']'")
	}
	return attrSelector{name: name, op: op, value: val}, nil
}

// parsePseudoClass handles :pass("name") and :deferred, the only two
// pseudo-classes the stylesheet dialect supports (§4.2).
func parsePseudoClass(p *parser, sel *Selector) error {
	// `pass(` tokenizes as a single function token, whose '(' is already
	// consumed.
	var name string
	isFunc := false
	if t := p.cur(); t.kind == tokFunction {
		name, isFunc = t.value, true
		p.pos++
	} else {
		n, err := p.ident()
		if err != nil {
			return err
		}
		name = n
	}
	switch name {
	case "deferred":
		sel.Deferred = true
		return nil
	case "pass":
		if !isFunc && !p.eat(tokDelim, "(") {
			return newParseError(p.cur().span, "expected '(' after :pass")
		}
		p.skipSpace()
		t, err := p.next()
		if err != nil {
			return err
		}
		var passName string
		switch t.kind {
		case tokString, tokIdent, tokNumber:
			passName = t.value
		default:
			return newParseError(t.span, "expected pass name")
		}
		p.skipSpace()
		if !p.eat(tokDelim, ")") {
			return newParseError(p.cur().span, "expected ')' after pass name")
		}
		sel.Passes = append(sel.Passes, passName)
		return nil
	default:
		return newParseError(p.cur().span, "unsupported pseudo-class %q", name)
	}
}

// Matches reports whether el satisfies the selector's compound chain,
// working backward through combinators from the rightmost compound (§4.2).
func (s *Selector) Matches(el *etree.Element) bool {
	if len(s.Steps) == 0 {
		return false
	}
	last := len(s.Steps) - 1
	if !matchesSimple(s.Steps[last].sel, el) {
		return false
	}
	return matchChain(s.Steps, last, el)
}

func matchChain(steps []compoundStep, idx int, el *etree.Element) bool {
	if idx == 0 {
		return true
	}
	comb := steps[idx].comb
	prevSel := steps[idx-1].sel
	switch comb {
	case combChild:
		parent := el.Parent()
		if parent == nil || !matchesSimple(prevSel, parent) {
			return false
		}
		return matchChain(steps, idx-1, parent)
	case combDescendant:
		for anc := el.Parent(); anc != nil; anc = anc.Parent() {
			if matchesSimple(prevSel, anc) && matchChain(steps, idx-1, anc) {
				return true
			}
		}
		return false
	case combAdjacent:
		prev := prevSibling(el)
		if prev == nil || !matchesSimple(prevSel, prev) {
			return false
		}
		return matchChain(steps, idx-1, prev)
	case combSibling:
		for prev := prevSibling(el); prev != nil; prev = prevSibling(prev) {
			if matchesSimple(prevSel, prev) && matchChain(steps, idx-1, prev) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func prevSibling(el *etree.Element) *etree.Element {
	parent := el.Parent()
	if parent == nil {
		return nil
	}
	children := parent.ChildElements()
	for i, c := range children {
		if c == el {
			if i == 0 {
				return nil
			}
			return children[i-1]
		}
	}
	return nil
}

func matchesSimple(sel simpleSelector, el *etree.Element) bool {
	if sel.typ != "" && !strings.EqualFold(sel.typ, el.Tag) {
		return false
	}
	if sel.id != "" && el.SelectAttrValue("id", "") != sel.id {
		return false
	}
	for _, class := range sel.classes {
		if !hasClass(el, class) {
			return false
		}
	}
	for _, attr := range sel.attrs {
		if !matchAttr(attr, el) {
			return false
		}
	}
	return true
}

func hasClass(el *etree.Element, class string) bool {
	val := el.SelectAttrValue("class", "")
	for _, c := range strings.Fields(val) {
		if c == class {
			return true
		}
	}
	return false
}

func matchAttr(a attrSelector, el *etree.Element) bool {
	attr := el.SelectAttr(a.name)
	if attr == nil {
		return false
	}
	if a.op == "" {
		return true
	}
	val := attr.Value
	switch a.op {
	case "=":
		return val == a.value
	case "~=":
		for _, part := range strings.Fields(val) {
			if part == a.value {
				return true
			}
		}
		return false
	case "|=":
		return val == a.value || strings.HasPrefix(val, a.value+"-")
	case "^=":
		return strings.HasPrefix(val, a.value)
	case "$=":
		return strings.HasSuffix(val, a.value)
	case "*=":
		return strings.Contains(val, a.value)
	default:
		return false
	}
}
