package oven

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// buildCtx is the recipe builder's working state while visiting one
// element (§4.5, §4.6): the pass being built, its mutable store, the
// current target stack frame, and everything declaration handlers need to
// evaluate expressions and emit actions.
type buildCtx struct {
	oven       *Oven
	pass       string
	ps         *passState
	namespaces map[string]string
	logger     *slog.Logger
	elem       *etree.Element
	target     *Target
	label      string // "", "before", "after", "inside", "outside"
}

func (bc *buildCtx) emit(a Action) {
	bc.ps.actions = append(bc.ps.actions, a)
}

func (bc *buildCtx) evalCtx() *evalCtx {
	return &evalCtx{oven: bc.oven, elem: bc.elem, pass: bc.pass, namespaces: bc.namespaces, logger: bc.logger}
}

// dispatchDeclaration routes one declaration to its handler by its
// hyphenated property name, falling back to the two
// generic attr-*/data-* handlers (§4.6).
func dispatchDeclaration(bc *buildCtx, decl declaration) error {
	switch decl.property {
	case "string-set":
		return handleStringSet(bc, decl)
	case "counter-reset":
		return handleCounterTokens(bc, decl, false)
	case "counter-increment":
		return handleCounterTokens(bc, decl, true)
	case "node-set":
		return handleNodeSet(bc, decl)
	case "copy-to":
		return handleCopyTo(bc, decl)
	case "move-to":
		return handleMoveTo(bc, decl)
	case "container":
		return handleContainer(bc, decl)
	case "class":
		return handleAttrLike(bc, decl, "class")
	case "content":
		return handleContent(bc, decl)
	case "group-by":
		return handleSortGroupBy(bc, decl, true)
	case "sort-by":
		return handleSortGroupBy(bc, decl, false)
	case "pass":
		return nil
	default:
		switch {
		case strings.HasPrefix(decl.property, "attr-"):
			return handleAttrLike(bc, decl, strings.TrimPrefix(decl.property, "attr-"))
		case strings.HasPrefix(decl.property, "data-"):
			return handleAttrLike(bc, decl, decl.property)
		default:
			bc.logger.Warn("unknown declaration, skipping", slog.String("property", decl.property))
			return nil
		}
	}
}

func handleStringSet(bc *buildCtx, decl declaration) error {
	p := newParser(decl.value)
	for _, sub := range p.separated(tokDelim, ",") {
		sub.skipSpace()
		if sub.isDone() {
			continue
		}
		name, err := sub.ident()
		if err != nil {
			bc.logger.Warn("invalid string-set clause", slog.String("error", err.Error()))
			continue
		}
		v, err := evalValue(bc.evalCtx(), sub.toks[sub.pos:])
		if err != nil {
			return err
		}
		bc.ps.strings[name] = v.Text
	}
	return nil
}

// handleCounterTokens implements both counter-reset and counter-increment
// (§4.7): the literal ident "none" is a no-op, otherwise every (ident
// [number]?) pair resets/increments that counter.
func handleCounterTokens(bc *buildCtx, decl declaration, increment bool) error {
	p := newParser(decl.value)
	for !p.isDone() {
		p.skipSpace()
		if p.isDone() {
			break
		}
		t := p.cur()
		if t.kind != tokIdent {
			bc.logger.Warn("unrecognized counter term", slog.String("property", decl.property))
			p.pos++
			continue
		}
		p.pos++
		if t.value == "none" {
			continue
		}
		name := t.value
		p.skipSpace()
		amount := 1
		if !increment {
			amount = 0
		}
		if !p.isDone() && p.cur().kind == tokNumber {
			if n, err := strconv.Atoi(p.cur().value); err == nil {
				amount = n
			}
			p.pos++
		}
		if increment {
			cur, _ := bc.oven.state.lookupCounter(bc.pass, name)
			bc.ps.counters[name] = cur + amount
		} else {
			bc.ps.counters[name] = amount
		}
	}
	return nil
}

func bucketName(decl declaration) string {
	p := newParser(decl.value)
	p.skipSpace()
	if !p.isDone() && (p.cur().kind == tokIdent || p.cur().kind == tokString) {
		return p.cur().value
	}
	return ""
}

func handleNodeSet(bc *buildCtx, decl declaration) error {
	name := bucketName(decl)
	if name == "" {
		return nil
	}
	bc.ps.pending[name] = []FragmentOp{{Kind: OpNodeset, Node: bc.target.Tree}}
	return nil
}

func handleCopyTo(bc *buildCtx, decl declaration) error {
	name := bucketName(decl)
	if name == "" {
		return nil
	}
	ps := bc.ownerPassFor(name)
	ps.pending[name] = append(ps.pending[name], FragmentOp{Kind: OpCopy, Node: bc.target.Tree})
	return nil
}

func handleMoveTo(bc *buildCtx, decl declaration) error {
	name := bucketName(decl)
	if name == "" {
		return nil
	}
	node := bc.target.Tree
	for i := len(bc.ps.actions) - 1; i >= 0; i-- {
		if bc.ps.actions[i].Kind == ActMove && bc.ps.actions[i].Node == node {
			bc.ps.actions = append(bc.ps.actions[:i], bc.ps.actions[i+1:]...)
			break
		}
	}
	ps := bc.ownerPassFor(name)
	ps.pending[name] = append(ps.pending[name], FragmentOp{Kind: OpMove, Node: node})
	return nil
}

// ownerPassFor returns the passState already holding bucket name, if any,
// else the current pass's (§4.7 "in the pass where X already lives, else
// current").
func (bc *buildCtx) ownerPassFor(name string) *passState {
	if _, pass, ok := bc.oven.state.lookupPending(bc.pass, name); ok {
		return bc.oven.state.pass(pass)
	}
	return bc.ps
}

func handleContainer(bc *buildCtx, decl declaration) error {
	p := newParser(decl.value)
	p.skipSpace()
	name, err := p.ident()
	if err != nil {
		bc.logger.Warn("invalid container value", slog.String("error", err.Error()))
		return nil
	}
	bc.emit(Action{Kind: ActTag, Tag: name})
	return nil
}

func handleAttrLike(bc *buildCtx, decl declaration, attrName string) error {
	v, err := evalValue(bc.evalCtx(), decl.value)
	if err != nil {
		return err
	}
	bc.emit(Action{Kind: ActAttrib, AttribName: attrName, AttribVals: []Value{v}})
	return nil
}

// handleContent implements the content declaration contract verbatim
// (§4.7): a leading clear when targeting the element itself or an ::inside
// wrapper, then a DocumentFragment evaluation with pseudo-dependent
// copy/action/include-nodes flags, and a trailing drop if the result
// turned out to be an empty wrapper.
func handleContent(bc *buildCtx, decl declaration) error {
	root := bc.target.Root
	if root == bc.elem || bc.label == "inside" {
		bc.emit(Action{Kind: ActContent, ContentElem: root, ContentIsRestore: true})
	}

	needsCopy := bc.label == "before" || bc.label == "after"
	action := OpCopy
	if bc.label == "outside" {
		action = OpMove
	}
	includeNodes := bc.label != ""

	v, err := evalValue(bc.evalCtx(), decl.value)
	if err != nil {
		return err
	}
	frag := liftContentTerm(v, needsCopy, action, includeNodes)

	allDrop := len(frag.Ops) > 0
	for _, op := range frag.Ops {
		switch op.Kind {
		case OpDrop:
			bc.emit(Action{Kind: ActDrop, Node: op.Node})
		case OpDelayed:
			bc.emit(Action{Kind: ActDelayed, DelayedVal: op.Delayed})
			allDrop = false
		case OpString:
			bc.emit(Action{Kind: ActString, StringVal: Value{Kind: KindString, Text: op.Text}})
			allDrop = false
		case OpMove:
			bc.emit(Action{Kind: ActMove, Node: op.Node})
			allDrop = false
		case OpCopy:
			bc.emit(Action{Kind: ActCopy, Node: op.Node})
			allDrop = false
		case OpNodeset:
			bc.emit(Action{Kind: ActNodeset, Node: op.Node})
			allDrop = false
		}
	}
	if frag.Elem != nil && frag.Elem != root {
		bc.emit(Action{Kind: ActContent, ContentElem: frag.Elem})
		allDrop = false
	}

	if bc.label != "" && allDrop {
		bc.emit(Action{Kind: ActDrop, Node: root})
	}
	return nil
}

// handleSortGroupBy compiles group-by/sort-by's key-extractor expressions
// and installs them directly on the shared Target struct already present
// in the action log (it's a pointer, so this mutates the earlier `target`
// action in place without a separate rewrite pass) (§4.7).
func handleSortGroupBy(bc *buildCtx, decl declaration, isGroup bool) error {
	p := newParser(decl.value)
	args := p.separated(tokDelim, ",")
	if len(args) == 0 {
		return nil
	}
	nocase := false
	exprCount := 1
	if isGroup {
		exprCount = 2
	}
	if len(args) > exprCount {
		for _, f := range args[exprCount:] {
			f.skipSpace()
			if !f.isDone() && f.cur().value == "nocase" {
				nocase = true
			}
		}
	}
	sortFn := compileKeyFunc(bc, args[0].toks, nocase)
	bc.target.Sort = sortFn
	if isGroup && len(args) > 1 {
		bc.target.GroupBy = compileKeyFunc(bc, args[1].toks, nocase)
		bc.target.IsGroup = true
	}
	return nil
}

// compileKeyFunc closes over the declaration's key expression and evaluates
// it against a candidate node at insertion time (§4.9), by substituting that
// node as the evalCtx's current element.
func compileKeyFunc(bc *buildCtx, toks []token, nocase bool) KeyFunc {
	oven := bc.oven
	pass := bc.pass
	namespaces := bc.namespaces
	logger := bc.logger
	return func(n *etree.Element) (string, bool) {
		v, err := evalValue(&evalCtx{oven: oven, elem: n, pass: pass, namespaces: namespaces, logger: logger}, toks)
		if err != nil || !v.IsImmediate() {
			return "", false
		}
		key := v.Text
		if key == "" {
			return "", false
		}
		if nocase {
			key = strings.ToUpper(key)
		}
		return key, true
	}
}
