// Package oven implements the baking engine: a CSS-like stylesheet is
// compiled into passes of selector-matched rules, which a recipe builder
// walks against an HTML document tree to produce a flat action log, which
// an executor then replays to mutate the tree (§1-§4 of the design notes).
package oven

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync/atomic"

	"github.com/beevik/etree"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Option configures an Oven at construction time, mirroring the
// functional-options style the teacher package uses for its own
// constructors (e.g. chtml.NewComponent's Option values).
type Option func(*Oven)

// WithLogger overrides the default discard logger. Every warning the
// engine emits (invalid selector, unknown function, unknown counter
// style, ...) goes through this logger rather than being
// surfaced as an error, since degrade-and-log is this engine's contract
// for recoverable conditions (§7).
func WithLogger(logger *slog.Logger) Option {
	return func(o *Oven) { o.logger = logger }
}

// WithRepeatableIDs makes GenerateID produce deterministic, sequential
// ids instead of random ones — needed for reproducible golden-file tests
// and for the CLI's `--use-repeatable-ids` flag (§6).
func WithRepeatableIDs(repeatable bool) Option {
	return func(o *Oven) { o.repeatableIDs = repeatable }
}

// Oven is the engine's entry point: it owns the compiled stylesheet, the
// per-bake State, and identifier/collation infrastructure shared across
// passes.
type Oven struct {
	logger        *slog.Logger
	repeatableIDs bool
	idSeq         int64

	store      *ruleStore
	namespaces map[string]string

	state    *State
	collator *collatorCache
}

// New compiles stylesheet and returns a ready-to-bake Oven (§6 "new").
func New(stylesheet []byte, opts ...Option) (*Oven, error) {
	o := &Oven{
		logger:   discardLogger(),
		collator: newCollatorCache(),
		state:    newState(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if err := o.load(stylesheet); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *Oven) load(stylesheet []byte) error {
	store, namespaces, err := parseStylesheet(o.logger, string(stylesheet))
	if err != nil {
		return err
	}
	o.store = store
	o.namespaces = namespaces
	o.state = newState()
	o.state.order = store.order
	return nil
}

// Update recompiles the stylesheet and invalidates every pass's cached
// recipe, not merely the ones whose rules changed — counters, strings and
// pending buckets all read across passes (§4.5's scope stack), so a
// partial invalidation could silently serve stale cross-pass state.
func (o *Oven) Update(stylesheet []byte) error {
	return o.load(stylesheet)
}

// resetBakeState discards every pass's action log, counters, strings and
// pending buckets, plus the cross-pass id snapshot table, so each Bake (or
// BuildPassOnly) call starts from the compiled stylesheet's rules with no
// state left over from a previous document — without this, a second Bake
// on the same Oven would keep counting counter-increment from whatever
// value the previous document's bake left it at, instead of restarting.
func (o *Oven) resetBakeState() {
	o.state = newState()
	o.state.order = o.store.order
}

// Bake runs every pass in execution order against root, building each
// pass's recipe against the tree as mutated by every earlier pass, then
// executing that recipe's action log (§1 overview, §4.6-§4.9).
func (o *Oven) Bake(root *etree.Element) error {
	o.resetBakeState()
	for _, passName := range o.store.order {
		buildPass(o, o.store, o.namespaces, passName, root)
		es := newExecState(o)
		es.pass = passName
		if err := es.run(o.state.pass(passName).actions); err != nil {
			return fmt.Errorf("oven: pass %q: %w", passName, err)
		}
	}
	closeVoidlessElements(root)
	return nil
}

// BuildPassOnly runs every pass up to and including passName, executing
// each completed pass's action log as Bake does, but stops after building
// (without executing) passName's own recipe — for the CLI's `-s/--stop-at`
// debugging flag (§6), which inspects a recipe before it mutates anything.
func (o *Oven) BuildPassOnly(root *etree.Element, passName string) error {
	o.resetBakeState()
	for _, name := range o.store.order {
		if name == passName {
			buildPass(o, o.store, o.namespaces, name, root)
			return nil
		}
		buildPass(o, o.store, o.namespaces, name, root)
		es := newExecState(o)
		es.pass = name
		if err := es.run(o.state.pass(name).actions); err != nil {
			return fmt.Errorf("oven: pass %q: %w", name, err)
		}
	}
	return fmt.Errorf("oven: unknown pass %q", passName)
}

// voidElements mirrors the HTML5 self-closing tag set (§4.8's closing
// pass); it is a separate copy of the table in doc's serializer, which
// oven does not import.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// closeVoidlessElements ensures every non-void element with no text and no
// children gets an explicit empty text node, so the HTML5 serializer never
// collapses e.g. `<div></div>` into a self-closing form (§4.8 final step).
func closeVoidlessElements(el *etree.Element) {
	if !voidElements[el.Tag] && el.Text() == "" && len(el.ChildElements()) == 0 {
		el.SetText("")
	}
	for _, c := range el.ChildElements() {
		closeVoidlessElements(c)
	}
}

// CoverageReport renders an LCOV DA: fragment, one line per selector seen
// at load, hit=1 once any of its rules matched an element (§6).
func (o *Oven) CoverageReport() string {
	lines := make([]int, 0, len(o.store.lines))
	for line := range o.store.lines {
		lines = append(lines, line)
	}
	for i := 0; i < len(lines); i++ {
		for j := i + 1; j < len(lines); j++ {
			if lines[j] < lines[i] {
				lines[i], lines[j] = lines[j], lines[i]
			}
		}
	}
	out := ""
	for _, line := range lines {
		hit := 0
		if o.store.lines[line] {
			hit = 1
		}
		out += fmt.Sprintf("DA:%d,%d\n", line, hit)
	}
	return out
}

// GenerateID returns a fresh, non-colliding identifier: sequential when
// repeatable ids were requested (golden-file-stable test runs, or the CLI's
// `--use-repeatable-ids` flag), otherwise a random hex string (§6).
func (o *Oven) GenerateID() string {
	if o.repeatableIDs {
		n := atomic.AddInt64(&o.idSeq, 1)
		return "genid-" + strconv.FormatInt(n, 10)
	}
	var buf [8]byte
	_, _ = io.ReadFull(rand.Reader, buf[:])
	return "genid-" + hex.EncodeToString(buf[:])
}

func (o *Oven) lookupSnapshotCounter(pass, id, name string) (int, bool) {
	return o.state.snapshotCounterAnyPass(id, pass, name)
}

func (o *Oven) lookupSnapshotString(pass, id, name string) (string, bool) {
	return o.state.snapshotStringAnyPass(id, pass, name)
}
