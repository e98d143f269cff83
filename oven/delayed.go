package oven

import "fmt"

// ResolveContext is the context a Delayed value is resolved against: the
// oven owning the snapshot stores, and the pass whose scope the reference
// was written in — target-counter()/target-text() resolve relative to the
// scope of the rule that referenced them, not the target's own pass
// (§4.5 "Lookup").
type ResolveContext struct {
	Oven *Oven
	Pass string
}

// Delayed is a value whose resolution must wait until the referenced
// target (and, transitively, any function chained over it) has actually
// been processed. Two shapes exist (§4.1, §9): a Target referencing a
// snapshot by element id, and a Chain mapping a function over another
// Delayed.
type Delayed interface {
	// Resolve produces the native Go value (string, for every delayed kind
	// this engine defines) once the oven context is available.
	Resolve(ctx *ResolveContext) (any, error)
}

// TargetDelayed resolves a snapshot lookup against an element id, as
// produced by target-counter()/target-text(). It never touches live state:
// only the snapshot taken when that element was first walked.
type TargetDelayed struct {
	Kind    string // "counter" or "string"
	ElemID  string
	Name    string
	Style   CounterStyle // only meaningful when Kind == "counter"
	HasElem bool         // false when the #id reference failed to parse (§7)
}

func (t *TargetDelayed) Resolve(ctx *ResolveContext) (any, error) {
	if !t.HasElem {
		if t.Kind == "counter" {
			return "", nil
		}
		return "", nil
	}
	switch t.Kind {
	case "counter":
		n, ok := ctx.Oven.lookupSnapshotCounter(ctx.Pass, t.ElemID, t.Name)
		if !ok {
			return "", nil
		}
		return formatCounter(n, t.Style), nil
	case "string":
		s, ok := ctx.Oven.lookupSnapshotString(ctx.Pass, t.ElemID, t.Name)
		if !ok {
			return "", nil
		}
		return s, nil
	default:
		return "", fmt.Errorf("oven: unknown target-delayed kind %q", t.Kind)
	}
}

// ChainDelayed maps a function over the native result of resolving a base
// Delayed value. Used by first-letter(target-text(...)) style composition.
type ChainDelayed struct {
	Base Delayed
	Fn   func(native any) (any, error)
}

func (c *ChainDelayed) Resolve(ctx *ResolveContext) (any, error) {
	base, err := c.Base.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	return c.Fn(base)
}
