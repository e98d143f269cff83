package oven

import (
	"sort"
	"strconv"

	"github.com/beevik/etree"
)

// declaration is one property:value pair from a rule's block, still in raw
// token form — handlers.go evaluates it each time the rule matches,
// mirroring the original's on-demand declaration dispatch.
type declaration struct {
	property string
	value    []token
	span     Span
}

// rule is one compiled selector plus its declaration block, as recorded by
// the rule store (§4.2): "(selector, source-line, pass-set, label,
// declaration list)".
type rule struct {
	selector *Selector
	decls    []declaration
	passes   []string // resolved, always non-empty ("default" when unset)
	label    string
	deferred bool
	line     int
}

// ruleStore indexes compiled rules by pass, in stylesheet source order
// within a pass (matching order is specificity-then-source from the
// selector engine; this engine keeps source order only, documented as an
// Open-Question call in the design notes).
type ruleStore struct {
	byPass map[string][]*rule
	order  []string // pass execution order, computed once by resolvePassOrder
	lines  map[int]bool
}

func newRuleStore() *ruleStore {
	return &ruleStore{byPass: make(map[string][]*rule), lines: make(map[int]bool)}
}

func (rs *ruleStore) add(r *rule) {
	rs.lines[r.line] = false
	for _, pass := range r.passes {
		rs.byPass[pass] = append(rs.byPass[pass], r)
	}
}

// resolvePassOrder implements §4.3's "Pass order" redesign rule: numeric
// passes sort numerically, non-numeric passes sort alphabetically after
// them, and when both "default"/"0" and numeric passes are present the
// default pass always runs first (renamed "0").
func (rs *ruleStore) resolvePassOrder() {
	var numeric []int
	var alpha []string
	hasDefault := false

	for name := range rs.byPass {
		if name == "default" {
			hasDefault = true
			continue
		}
		if n, err := strconv.Atoi(name); err == nil {
			numeric = append(numeric, n)
			continue
		}
		alpha = append(alpha, name)
	}

	sort.Ints(numeric)
	sort.Strings(alpha)

	order := make([]string, 0, len(numeric)+len(alpha)+1)
	if hasDefault {
		if len(numeric) > 0 {
			rs.renamePass("default", "0")
			order = append(order, "0")
		} else {
			order = append(order, "default")
		}
	}
	for _, n := range numeric {
		order = append(order, strconv.Itoa(n))
	}
	order = append(order, alpha...)
	rs.order = order
}

func (rs *ruleStore) renamePass(from, to string) {
	rules := rs.byPass[from]
	delete(rs.byPass, from)
	rs.byPass[to] = append(rs.byPass[to], rules...)
	for _, r := range rules {
		for i, p := range r.passes {
			if p == from {
				r.passes[i] = to
			}
		}
	}
}

// match returns every rule in pass whose selector matches el, in source
// order, bucketed by label as the builder (§4.6) needs.
func (rs *ruleStore) match(pass string, el *etree.Element) []*rule {
	var out []*rule
	for _, r := range rs.byPass[pass] {
		if r.selector.Matches(el) {
			out = append(out, r)
			rs.lines[r.line] = true
		}
	}
	return out
}
