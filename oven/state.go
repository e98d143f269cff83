package oven

import "github.com/beevik/etree"

// Location is the destination kind recorded on a Target descriptor (§3).
type Location int

const (
	LocNone Location = iota
	LocBefore
	LocAfter
	LocInside
	LocOutside
)

// KeyFunc extracts a sort/group key from a node. The second return value is
// false when the key doesn't apply ("none" in the design notes' sense),
// e.g. the underlying xpath-derived expression matched nothing.
type KeyFunc func(*etree.Element) (string, bool)

// Target is a destination descriptor for an append/move (§3). Tree is the
// anchor used by the grouped/sorted insertion algorithm (§4.9) to decide
// *where* a node lands; Root is the element that declarations in this
// block actually mutate (tag/attrib/content/string) — for a `none` label
// these are the same element, for a pseudo-element label Root is the
// freshly created wrapper and Tree remains the original anchor element.
type Target struct {
	Tree    *etree.Element
	Root    *etree.Element
	Loc     Location
	Sort    KeyFunc
	IsGroup bool
	GroupBy KeyFunc
	Lang    string
}

// ActionKind enumerates the action log's record kinds (§3, §4.6).
type ActionKind int

const (
	ActTarget ActionKind = iota
	ActTag
	ActClear
	ActContent
	ActAttrib
	ActString
	ActMove
	ActCopy
	ActNodeset
	ActDrop
	ActDelayed
)

// Action is one record of the recipe builder's flat action log, consumed in
// order by the executor (§3, §4.8).
type Action struct {
	Kind ActionKind

	// ActTarget
	Target *Target

	// ActTag
	Tag string

	// ActContent: ContentElem set and ContentIsRestore false means "splice
	// this element's text+children in"; ContentIsRestore true means
	// "restore whatever was cleared earlier for this target".
	ContentElem      *etree.Element
	ContentIsRestore bool

	// ActAttrib
	AttribName string
	AttribVals []Value

	// ActString
	StringVal Value

	// ActMove, ActCopy, ActNodeset, ActDrop
	Node *etree.Element

	// ActDelayed
	DelayedVal Delayed
}

// pendingEntry is one bucket's contents plus the pass it lives in, so a
// later pending()/clear() can be told exactly where to delete from even
// when two passes happen to share a bucket name (§9).
type pendingEntry struct {
	ops  []FragmentOp
	pass string
}

// passState is per-pass mutable state: pending buckets, the in-progress (or
// final) action log, and the counter/string stores (§4.5).
type passState struct {
	name        string
	pending     map[string][]FragmentOp
	actions     []Action
	counters    map[string]int
	strings     map[string]string
	recipeBuilt bool
}

func newPassState(name string) *passState {
	return &passState{
		name:     name,
		pending:  make(map[string][]FragmentOp),
		counters: make(map[string]int),
		strings:  make(map[string]string),
	}
}

// elementSnapshot is the per-id, per-pass copy of counters/strings taken
// when the builder first enters an element carrying an id (§4.5).
type elementSnapshot struct {
	counters map[string]int
	strings  map[string]string
}

// State holds every pass's mutable store plus the cross-pass snapshot
// tables consulted by target-counter()/target-text() (§3, §4.5).
type State struct {
	order  []string // pass execution order, outermost-first
	passes map[string]*passState

	// snapshots[id][pass] is the counters/strings captured when element id
	// was entered while building pass's recipe.
	snapshots map[string]map[string]*elementSnapshot
}

func newState() *State {
	return &State{
		passes:    make(map[string]*passState),
		snapshots: make(map[string]map[string]*elementSnapshot),
	}
}

func (s *State) pass(name string) *passState {
	p, ok := s.passes[name]
	if !ok {
		p = newPassState(name)
		s.passes[name] = p
	}
	return p
}

// scopeFrom returns the lookup order for variable resolution while pass
// currentPass is active: itself first, then every earlier-executed pass,
// outward (§3 "Scope stack").
func (s *State) scopeFrom(currentPass string) []string {
	idx := -1
	for i, name := range s.order {
		if name == currentPass {
			idx = i
			break
		}
	}
	if idx < 0 {
		return []string{currentPass}
	}
	scope := make([]string, 0, idx+1)
	for i := idx; i >= 0; i-- {
		scope = append(scope, s.order[i])
	}
	return scope
}

// lookupCounter walks the scope outward from currentPass, returning the
// first pass that has the named counter. Absent ⇒ (0, false): callers treat
// false as "use the type's nil value", per §4.5/§7.
func (s *State) lookupCounter(currentPass, name string) (int, bool) {
	for _, pass := range s.scopeFrom(currentPass) {
		if p, ok := s.passes[pass]; ok {
			if v, ok := p.counters[name]; ok {
				return v, true
			}
		}
	}
	return 0, false
}

func (s *State) lookupString(currentPass, name string) (string, bool) {
	for _, pass := range s.scopeFrom(currentPass) {
		if p, ok := s.passes[pass]; ok {
			if v, ok := p.strings[name]; ok {
				return v, true
			}
		}
	}
	return "", false
}

// lookupPending returns the bucket's ops and the pass it resides in, so the
// caller (pending()/clear()) can delete from the exact pass (§4.5, §9).
func (s *State) lookupPending(currentPass, name string) ([]FragmentOp, string, bool) {
	for _, pass := range s.scopeFrom(currentPass) {
		if p, ok := s.passes[pass]; ok {
			if v, ok := p.pending[name]; ok {
				return v, pass, true
			}
		}
	}
	return nil, "", false
}

// snapshot captures counters/strings for every pass in scope, under elem id.
func (s *State) snapshot(id, currentPass string) {
	if id == "" {
		return
	}
	byPass, ok := s.snapshots[id]
	if !ok {
		byPass = make(map[string]*elementSnapshot)
		s.snapshots[id] = byPass
	}
	for _, pass := range s.scopeFrom(currentPass) {
		p := s.pass(pass)
		byPass[pass] = &elementSnapshot{
			counters: cloneIntMap(p.counters),
			strings:  cloneStringMap(p.strings),
		}
	}
}

// overwriteSnapshotDeltas re-captures counters/strings for currentPass only,
// after a :deferred block has run, and overwrites that pass's snapshot
// entry if anything changed (§4.6 step h).
func (s *State) overwriteSnapshotDeltas(id, currentPass string) {
	if id == "" {
		return
	}
	byPass, ok := s.snapshots[id]
	if !ok {
		return
	}
	p := s.pass(currentPass)
	byPass[currentPass] = &elementSnapshot{
		counters: cloneIntMap(p.counters),
		strings:  cloneStringMap(p.strings),
	}
}

func (s *State) snapshotCounter(id, pass, name string) (int, bool) {
	byPass, ok := s.snapshots[id]
	if !ok {
		return 0, false
	}
	snap, ok := byPass[pass]
	if !ok {
		return 0, false
	}
	v, ok := snap.counters[name]
	return v, ok
}

func (s *State) snapshotString(id, pass, name string) (string, bool) {
	byPass, ok := s.snapshots[id]
	if !ok {
		return "", false
	}
	snap, ok := byPass[pass]
	if !ok {
		return "", false
	}
	v, ok := snap.strings[name]
	return v, ok
}

// snapshotCounterAnyPass searches every pass recorded under id, outward
// from the pass currently executing, mirroring scopeFrom's priority order.
func (s *State) snapshotCounterAnyPass(id, currentPass, name string) (int, bool) {
	for _, pass := range s.scopeFrom(currentPass) {
		if v, ok := s.snapshotCounter(id, pass, name); ok {
			return v, true
		}
	}
	return 0, false
}

func (s *State) snapshotStringAnyPass(id, currentPass, name string) (string, bool) {
	for _, pass := range s.scopeFrom(currentPass) {
		if v, ok := s.snapshotString(id, pass, name); ok {
			return v, true
		}
	}
	return "", false
}

func cloneIntMap(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneStringMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
