package oven

import (
	"log/slog"
	"strings"

	"github.com/beevik/etree"
	"github.com/google/uuid"
)

// evalCtx is the environment a declaration value is evaluated against: the
// element currently being visited, the pass it's being visited in, and the
// oven that owns State/namespaces/id generation (§4.1, §4.4).
type evalCtx struct {
	oven       *Oven
	elem       *etree.Element
	pass       string
	namespaces map[string]string
	logger     *slog.Logger
}

// evalValue parses and evaluates a full declaration value (possibly a
// space-separated sequence of terms, as `content` values commonly are) and
// lifts the combined result into a String or DocumentFragment Value
// depending on what the terms themselves produced (§4.1).
func evalValue(ctx *evalCtx, toks []token) (Value, error) {
	p := newParser(toks)
	var terms []Value
	for {
		p.skipSpace()
		if p.isDone() {
			break
		}
		v, err := evalTerm(ctx, p)
		if err != nil {
			return Value{}, err
		}
		terms = append(terms, v)
	}
	if len(terms) == 0 {
		return DefaultString(), nil
	}
	if len(terms) == 1 {
		return terms[0], nil
	}
	anyFragment := false
	for _, t := range terms {
		if t.Kind == KindFragment {
			anyFragment = true
		}
	}
	if anyFragment {
		return FragmentFrom(terms), nil
	}
	return StringFrom(terms), nil
}

func evalTerm(ctx *evalCtx, p *parser) (Value, error) {
	t := p.cur()
	switch t.kind {
	case tokString:
		p.pos++
		return Value{Kind: KindString, Text: t.value}, nil
	case tokNumber:
		p.pos++
		return Value{Kind: KindString, Text: t.value}, nil
	case tokIdent:
		p.pos++
		return Value{Kind: KindString, Text: t.value}, nil
	case tokFunction:
		p.pos++
		return evalFunction(ctx, t, p)
	default:
		return Value{}, newParseError(t.span, "unexpected token in declaration value: %q", t.value)
	}
}

// evalArgs splits the function-call body up to the matching ')' into
// comma-separated argument sub-parsers (§4.1, grounded on css.Parser's
// separated()).
func evalArgs(p *parser) ([]*parser, error) {
	depth := 1
	start := p.pos
	for !p.isDone() && depth > 0 {
		switch {
		case p.cur().kind == tokDelim && p.cur().value == "(":
			depth++
		case p.cur().kind == tokDelim && p.cur().value == ")":
			depth--
			if depth == 0 {
				goto done
			}
		case p.cur().kind == tokFunction:
			depth++
		}
		p.pos++
	}
done:
	end := p.pos
	if p.isDone() && !(end > start) {
		return nil, newParseError(p.cur().span, "unterminated function call")
	}
	body := newParser(p.toks[start:end])
	if !p.isDone() {
		p.pos++ // consume ')'
	}
	return body.separated(tokDelim, ","), nil
}

func evalFunction(ctx *evalCtx, fn token, p *parser) (Value, error) {
	args, err := evalArgs(p)
	if err != nil {
		return Value{}, err
	}
	name := fn.value
	switch name {
	case "attr":
		return fnAttr(ctx, args)
	case "string":
		return fnString(ctx, args)
	case "content":
		return ElementValue(ctx.elem), nil
	case "pending":
		return fnPending(ctx, args)
	case "nodes":
		return fnNodes(ctx, args)
	case "clear":
		return fnClear(ctx, args)
	case "counter":
		return fnCounter(ctx, args)
	case "target-counter":
		return fnTargetCounter(ctx, args)
	case "target-text":
		return fnTargetText(ctx, args)
	case "first-letter":
		return fnFirstLetter(ctx, args)
	case "uuid":
		return Value{Kind: KindString, Text: uuid.NewString()}, nil
	default:
		return Value{}, newParseError(fn.span, "unknown function %q", name)
	}
}

func argIdent(args []*parser, i int) (string, bool) {
	if i >= len(args) {
		return "", false
	}
	args[i].skipSpace()
	if args[i].isDone() {
		return "", false
	}
	t := args[i].cur()
	if t.kind == tokIdent || t.kind == tokString {
		return t.value, true
	}
	return "", false
}

func evalArg(ctx *evalCtx, args []*parser, i int) (Value, bool, error) {
	if i >= len(args) {
		return Value{}, false, nil
	}
	v, err := evalValue(ctx, args[i].toks[args[i].pos:])
	if err != nil {
		return Value{}, false, err
	}
	return v, true, nil
}

// fnAttr resolves attr(qname[, default]) against the current element
// (§4.1). The namespace portion of qname is accepted syntactically (via
// the shared qname() parser) but matched against the attribute's local
// name only, since the document tree this engine builds (beevik/etree)
// does not track attribute namespaces separately from their serialized
// prefix.
func fnAttr(ctx *evalCtx, args []*parser) (Value, error) {
	if len(args) == 0 {
		return DefaultString(), nil
	}
	args[0].skipSpace()
	_, local, err := args[0].qname(ctx.namespaces)
	if err != nil {
		return Value{}, err
	}
	if attr := ctx.elem.SelectAttr(local); attr != nil {
		return Value{Kind: KindString, Text: attr.Value}, nil
	}
	if v, ok, err := evalArg(ctx, args, 1); err != nil {
		return Value{}, err
	} else if ok {
		return v, nil
	}
	return DefaultString(), nil
}

func fnString(ctx *evalCtx, args []*parser) (Value, error) {
	name, ok := argIdent(args, 0)
	if !ok {
		return DefaultString(), nil
	}
	if s, ok := ctx.oven.state.lookupString(ctx.pass, name); ok && s != "" {
		return Value{Kind: KindString, Text: s}, nil
	}
	if v, ok, err := evalArg(ctx, args, 1); err != nil {
		return Value{}, err
	} else if ok {
		return v, nil
	}
	return DefaultString(), nil
}

// fnPending drains the named bucket (§3, §4.1): its ops are removed from
// the pending store and returned as a fresh DocumentFragment.
func fnPending(ctx *evalCtx, args []*parser) (Value, error) {
	name, ok := argIdent(args, 0)
	if !ok {
		return DefaultFragment(), nil
	}
	ops, pass, ok := ctx.oven.state.lookupPending(ctx.pass, name)
	if !ok || len(ops) == 0 {
		ctx.logger.Info("pending() bucket empty", slog.String("bucket", name))
		return DefaultFragment(), nil
	}
	delete(ctx.oven.state.pass(pass).pending, name)
	return Value{Kind: KindFragment, Ops: ops}, nil
}

// fnNodes is a non-destructive read of the named bucket: the bucket stays
// intact, but every move op in the returned copy is rewritten to nodeset
// (§3, §4.1), since the same nodes are now also destined for this second
// location and can no longer be simply relocated.
func fnNodes(ctx *evalCtx, args []*parser) (Value, error) {
	name, ok := argIdent(args, 0)
	if !ok {
		return DefaultFragment(), nil
	}
	ops, _, ok := ctx.oven.state.lookupPending(ctx.pass, name)
	if !ok || len(ops) == 0 {
		ctx.logger.Info("nodes() bucket empty", slog.String("bucket", name))
		return DefaultFragment(), nil
	}
	out := make([]FragmentOp, len(ops))
	for i, op := range ops {
		if op.Kind == OpMove {
			op.Kind = OpNodeset
		}
		out[i] = op
	}
	return Value{Kind: KindFragment, Ops: out}, nil
}

// fnClear drains the named bucket and emits drop ops for its nodes (§4.1,
// §4.7's `clear(name)` row), removing them from the tree entirely.
func fnClear(ctx *evalCtx, args []*parser) (Value, error) {
	name, ok := argIdent(args, 0)
	if !ok {
		return DefaultFragment(), nil
	}
	ops, pass, ok := ctx.oven.state.lookupPending(ctx.pass, name)
	if !ok || len(ops) == 0 {
		ctx.logger.Info("clear() bucket empty", slog.String("bucket", name))
		return DefaultFragment(), nil
	}
	delete(ctx.oven.state.pass(pass).pending, name)
	out := make([]FragmentOp, len(ops))
	for i, op := range ops {
		out[i] = FragmentOp{Kind: OpDrop, Node: op.Node}
	}
	return Value{Kind: KindFragment, Ops: out}, nil
}

func fnCounter(ctx *evalCtx, args []*parser) (Value, error) {
	name, ok := argIdent(args, 0)
	if !ok {
		return DefaultString(), nil
	}
	style := StyleDecimal
	if s, ok := argIdent(args, 1); ok {
		style = parseCounterStyle(ctx.logger, s)
	}
	n, _ := ctx.oven.state.lookupCounter(ctx.pass, name)
	return Value{Kind: KindString, Text: formatCounter(n, style)}, nil
}

// targetElemID resolves the #id argument, which may itself be the result
// of an attr()/string() expression (e.g. target-counter(attr(href), c))
// rather than a literal hash token (§4.1 examples).
func targetElemID(ctx *evalCtx, args []*parser, i int) (string, bool, error) {
	if i >= len(args) {
		return "", false, nil
	}
	args[i].skipSpace()
	if !args[i].isDone() && args[i].cur().kind == tokHash {
		id := args[i].cur().value
		args[i].pos++
		return id, true, nil
	}
	v, ok, err := evalArg(ctx, args, i)
	if err != nil || !ok {
		return "", false, err
	}
	if !v.IsImmediate() {
		return "", false, nil
	}
	id := strings.TrimPrefix(v.Text, "#")
	return id, id != "", nil
}

func fnTargetCounter(ctx *evalCtx, args []*parser) (Value, error) {
	id, ok, err := targetElemID(ctx, args, 0)
	if err != nil {
		return Value{}, err
	}
	name, _ := argIdent(args, 1)
	style := StyleDecimal
	if s, ok := argIdent(args, 2); ok {
		style = parseCounterStyle(ctx.logger, s)
	}
	return Value{Kind: KindString, Delayed: &TargetDelayed{
		Kind: "counter", ElemID: id, Name: name, Style: style, HasElem: ok,
	}}, nil
}

func fnTargetText(ctx *evalCtx, args []*parser) (Value, error) {
	id, ok, err := targetElemID(ctx, args, 0)
	if err != nil {
		return Value{}, err
	}
	name, _ := argIdent(args, 1)
	return Value{Kind: KindString, Delayed: &TargetDelayed{
		Kind: "string", ElemID: id, Name: name, HasElem: ok,
	}}, nil
}

// fnFirstLetter takes the first rune of its evaluated sub-expression,
// chaining via ChainDelayed when that sub-expression is itself delayed
// (e.g. first-letter(target-text(...))) rather than forcing eager
// resolution (§4.1).
func fnFirstLetter(ctx *evalCtx, args []*parser) (Value, error) {
	v, ok, err := evalArg(ctx, args, 0)
	if err != nil {
		return Value{}, err
	}
	if !ok {
		return DefaultString(), nil
	}
	if v.Kind != KindString {
		return DefaultString(), nil
	}
	if v.Delayed == nil {
		return Value{Kind: KindString, Text: firstRune(v.Text)}, nil
	}
	base := v.Delayed
	return Value{Kind: KindString, Delayed: &ChainDelayed{
		Base: base,
		Fn: func(native any) (any, error) {
			s, _ := native.(string)
			return firstRune(s), nil
		},
	}}, nil
}

func firstRune(s string) string {
	for _, r := range s {
		return string(r)
	}
	return ""
}
