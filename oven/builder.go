package oven

import "github.com/beevik/etree"

// pseudoLabels is the fixed processing order within one element's match
// set (§4.6 steps a, c, e, f, g): none first, then the four wrapper
// pseudo-elements in this exact order.
var pseudoLabels = []string{"", "before", "after", "outside", "inside"}

// buildPass performs one pass's depth-first recipe walk (§4.6), appending
// every action it produces to oven.state.pass(passName).actions.
func buildPass(oven *Oven, rs *ruleStore, namespaces map[string]string, passName string, root *etree.Element) {
	ps := oven.state.pass(passName)
	if ps.recipeBuilt {
		return
	}
	walkElement(oven, rs, namespaces, passName, ps, root)
	ps.recipeBuilt = true
}

func walkElement(oven *Oven, rs *ruleStore, namespaces map[string]string, passName string, ps *passState, el *etree.Element) {
	matches := rs.match(passName, el)

	byLabel := make(map[string][]*rule)
	var deferredByLabel = make(map[string][]*rule)
	for _, r := range matches {
		if r.deferred {
			deferredByLabel[r.label] = append(deferredByLabel[r.label], r)
		} else {
			byLabel[r.label] = append(byLabel[r.label], r)
		}
	}

	// step a: label none
	runLabelBlock(oven, namespaces, passName, ps, el, "", byLabel[""])

	// step b: snapshot, if el carries an id
	if id := el.SelectAttrValue("id", ""); id != "" {
		oven.state.snapshot(id, passName)
	}

	// step c: before
	runLabelBlock(oven, namespaces, passName, ps, el, "before", byLabel["before"])

	// step d: recurse into children, in document order, over a stable
	// snapshot since declarations may append/move elements during
	// execution but the recipe walk itself never mutates the tree.
	for _, child := range append([]*etree.Element{}, el.ChildElements()...) {
		walkElement(oven, rs, namespaces, passName, ps, child)
	}

	// steps e-g: after, outside, inside
	runLabelBlock(oven, namespaces, passName, ps, el, "after", byLabel["after"])
	runLabelBlock(oven, namespaces, passName, ps, el, "outside", byLabel["outside"])
	runLabelBlock(oven, namespaces, passName, ps, el, "inside", byLabel["inside"])

	// step h: deferred variants, same order, then overwrite snapshot deltas
	hasDeferred := false
	for _, label := range pseudoLabels {
		if len(deferredByLabel[label]) > 0 {
			hasDeferred = true
			runLabelBlock(oven, namespaces, passName, ps, el, label, deferredByLabel[label])
		}
	}
	if hasDeferred {
		if id := el.SelectAttrValue("id", ""); id != "" {
			oven.state.overwriteSnapshotDeltas(id, passName)
		}
	}
}

// runLabelBlock runs every matched rule for one (element, label) pair. For
// label == "" it targets the element itself directly; for a pseudo label it
// pushes a fresh wrapper div, runs the declarations against it, and either
// emits the action that places the wrapper into the tree or discards the
// whole block when nothing landed in it (§4.6 step 3).
func runLabelBlock(oven *Oven, namespaces map[string]string, passName string, ps *passState, el *etree.Element, label string, rules []*rule) {
	if label == "" {
		if len(rules) == 0 {
			return
		}
		target := &Target{Tree: el, Root: el, Loc: LocNone}
		ps.actions = append(ps.actions, Action{Kind: ActTarget, Target: target})
		runDeclarations(oven, namespaces, passName, ps, el, target, label, rules)
		return
	}
	if len(rules) == 0 {
		return
	}
	wrapper := etree.NewElement("div")
	var loc Location
	switch label {
	case "before":
		loc = LocBefore
	case "after":
		loc = LocAfter
	case "inside":
		loc = LocInside
	case "outside":
		loc = LocOutside
	}
	target := &Target{Tree: el, Root: wrapper, Loc: loc}

	mark := len(ps.actions)
	ps.actions = append(ps.actions, Action{Kind: ActTarget, Target: target})
	runDeclarations(oven, namespaces, passName, ps, el, target, label, rules)

	if len(ps.actions) == mark+1 {
		// Nothing but the push happened: pop it, the wrapper is discarded
		// unused (§4.6 step 3).
		ps.actions = ps.actions[:mark]
		return
	}
	if last := ps.actions[len(ps.actions)-1]; last.Kind == ActDrop && last.Node == wrapper {
		// content evaluated to nothing but drops (e.g. a clear() whose
		// bucket held the only material): handleContent already appended
		// its own trailing drop of the still-unattached wrapper, a no-op
		// once executed since the wrapper has no parent yet. Drop that
		// trailing no-op and skip inserting the now-empty wrapper, but
		// keep every action before it — in particular the per-node drops
		// that actually remove the cleared bucket's nodes from wherever
		// they currently live in the tree (§4.6 step 3, §8's "Clear"
		// scenario: no residue, but the clear itself must still happen).
		ps.actions = ps.actions[:len(ps.actions)-1]
		return
	}
	ps.actions = append(ps.actions, Action{Kind: ActMove, Node: wrapper})
}

func runDeclarations(oven *Oven, namespaces map[string]string, passName string, ps *passState, el *etree.Element, target *Target, label string, rules []*rule) {
	bc := &buildCtx{
		oven:       oven,
		pass:       passName,
		ps:         ps,
		namespaces: namespaces,
		logger:     oven.logger,
		elem:       el,
		target:     target,
		label:      label,
	}
	for _, r := range rules {
		for _, decl := range r.decls {
			if err := dispatchDeclaration(bc, decl); err != nil {
				oven.logger.Warn("declaration failed", "property", decl.property, "error", err.Error())
			}
		}
	}
}
