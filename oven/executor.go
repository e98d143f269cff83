package oven

import (
	"strconv"

	"github.com/beevik/etree"
)

// execState is the executor's single mutable cursor (§4.8): one active
// target, plus the text/children it stashed the last time `clear` ran on
// it, reset every time `target` switches to a new Target.
type execState struct {
	oven        *Oven
	current     *Target
	oldText     string
	oldChildren []*etree.Element
	hasOld      bool
	nodesetSeq  map[*etree.Element]int
	sortKeys    map[*etree.Element]string
	pass        string
}

func newExecState(oven *Oven) *execState {
	return &execState{
		oven:       oven,
		nodesetSeq: make(map[*etree.Element]int),
		sortKeys:   make(map[*etree.Element]string),
	}
}

// run executes one pass's action log in order (§4.8). A `delayed` action is
// resolved when it is reached and its text is appended to the current
// target in place.
func (es *execState) run(actions []Action) error {
	for _, a := range actions {
		if err := es.step(a); err != nil {
			return err
		}
	}
	return nil
}

func (es *execState) step(a Action) error {
	switch a.Kind {
	case ActTarget:
		es.current = a.Target
		es.hasOld = false
		es.oldText = ""
		es.oldChildren = nil

	case ActTag:
		if es.current != nil && es.current.Root != nil {
			es.current.Root.Tag = a.Tag
		}

	case ActContent:
		return es.stepContent(a)

	case ActAttrib:
		return es.stepAttrib(a)

	case ActString:
		return es.stepString(a.StringVal)

	case ActMove:
		es.insert(a.Node)

	case ActCopy:
		cp := CopyWithIDSuffix(a.Node, "_copy")
		cp.SetTail("")
		es.insert(cp)

	case ActNodeset:
		es.nodesetSeq[a.Node]++
		n := es.nodesetSeq[a.Node]
		cp := CopyWithIDSuffix(a.Node, suffixForNodeset(n))
		cp.SetTail("")
		es.insert(cp)

	case ActDrop:
		if a.Node != nil {
			if parent := a.Node.Parent(); parent != nil {
				parent.RemoveChild(a.Node)
			}
		}

	case ActDelayed:
		return es.stepDelayed(a.DelayedVal)
	}
	return nil
}

func suffixForNodeset(n int) string {
	return "_copy_" + strconv.Itoa(n)
}

func (es *execState) stepContent(a Action) error {
	if es.current == nil || es.current.Root == nil {
		return nil
	}
	root := es.current.Root
	if a.ContentIsRestore {
		es.oldText = root.Text()
		es.oldChildren = root.ChildElements()
		es.hasOld = true
		root.SetText("")
		for _, c := range root.ChildElements() {
			root.RemoveChild(c)
		}
		return nil
	}
	if a.ContentElem != nil && a.ContentElem != root {
		root.SetText(root.Text() + a.ContentElem.Text())
		for _, c := range a.ContentElem.ChildElements() {
			root.AddChild(c)
		}
		return nil
	}
	if a.ContentElem == nil && es.hasOld {
		root.SetText(es.oldText)
		for _, c := range es.oldChildren {
			root.AddChild(c)
		}
	}
	return nil
}

func (es *execState) stepAttrib(a Action) error {
	if es.current == nil || es.current.Root == nil {
		return nil
	}
	var b string
	for _, v := range a.AttribVals {
		s, err := es.resolveString(v)
		if err != nil {
			return err
		}
		b += s
	}
	setAttr(es.current.Root, a.AttribName, b)
	return nil
}

func (es *execState) stepString(v Value) error {
	if es.current == nil || es.current.Root == nil {
		return nil
	}
	s, err := es.resolveString(v)
	if err != nil {
		return err
	}
	return es.appendText(s)
}

func (es *execState) stepDelayed(d Delayed) error {
	native, err := d.Resolve(&ResolveContext{Oven: es.oven, Pass: es.pass})
	if err != nil {
		return err
	}
	s, _ := native.(string)
	return es.appendText(s)
}

// appendText appends s to the current target's root text, or prepends
// when the target's location is `before` (§4.8 "string(v)" row).
func (es *execState) appendText(s string) error {
	root := es.current.Root
	if es.current.Loc == LocBefore {
		root.SetText(s + root.Text())
	} else {
		root.SetText(root.Text() + s)
	}
	return nil
}

func (es *execState) resolveString(v Value) (string, error) {
	if v.Delayed != nil {
		native, err := v.Delayed.Resolve(&ResolveContext{Oven: es.oven, Pass: es.pass})
		if err != nil {
			return "", err
		}
		s, _ := native.(string)
		return s, nil
	}
	return v.Text, nil
}

// insert implements the grouped/sorted insertion algorithm (§4.9): detach
// n's tail, then route by the active target's grouping/sort/location
// configuration. Tree is the anchor: the container that gains n as a
// child for the append/sort/group/before cases, or the element being
// wrapped/replaced for the inside/outside cases.
func (es *execState) insert(n *etree.Element) {
	t := es.current
	if t == nil || t.Tree == nil || n == nil {
		return
	}
	detachTail(n)

	if t.IsGroup && t.Sort != nil {
		if key, ok := t.Sort(n); ok {
			es.insertGrouped(t, n, key)
			return
		}
	}
	if t.Sort != nil && !t.IsGroup {
		if key, ok := t.Sort(n); ok {
			es.insertSorted(t.Tree, t.Lang, n, key)
			return
		}
	}

	switch t.Loc {
	case LocInside:
		for _, c := range t.Tree.ChildElements() {
			n.AddChild(c)
		}
		t.Tree.AddChild(n)
	case LocOutside:
		parent := t.Tree.Parent()
		if parent != nil {
			parent.InsertChild(t.Tree, n)
			parent.RemoveChild(t.Tree)
		}
		n.AddChild(t.Tree)
	case LocBefore:
		head := t.Tree.Text()
		t.Tree.SetText("")
		n.SetTail(head)
		children := t.Tree.ChildElements()
		if len(children) > 0 {
			t.Tree.InsertChild(children[0], n)
		} else {
			t.Tree.AddChild(n)
		}
	default:
		t.Tree.AddChild(n)
	}
}

func detachTail(n *etree.Element) {
	tail := n.Tail()
	if tail == "" {
		return
	}
	n.SetTail("")
	parent := n.Parent()
	if parent == nil {
		return
	}
	if prev := prevSibling(n); prev != nil {
		prev.SetTail(prev.Tail() + tail)
	} else {
		parent.SetText(parent.Text() + tail)
	}
}

func (es *execState) insertGrouped(t *Target, n *etree.Element, key string) {
	groupKey, _ := t.GroupBy(n)
	for _, child := range t.Tree.ChildElements() {
		if child.Tag != "div" || !hasClass(child, "group-by") {
			continue
		}
		label := groupLabelText(child)
		cmp := es.oven.collator.compareKeys(t.Lang, groupKey, label)
		if cmp == 0 {
			es.insertSorted(child, t.Lang, n, key)
			return
		}
		if cmp < 0 {
			group := newGroupElement(groupKey)
			t.Tree.InsertChild(child, group)
			group.AddChild(n)
			es.sortKeys[n] = key
			return
		}
	}
	group := newGroupElement(groupKey)
	t.Tree.AddChild(group)
	group.AddChild(n)
	es.sortKeys[n] = key
}

func newGroupElement(label string) *etree.Element {
	group := etree.NewElement("div")
	setAttr(group, "class", "group-by")
	span := etree.NewElement("span")
	setAttr(span, "class", "group-label")
	span.SetText(label)
	group.AddChild(span)
	return group
}

func groupLabelText(group *etree.Element) string {
	for _, c := range group.ChildElements() {
		if c.Tag == "span" && hasClass(c, "group-label") {
			return c.Text()
		}
	}
	return ""
}

func (es *execState) insertSorted(container *etree.Element, lang string, n *etree.Element, key string) {
	for _, c := range container.ChildElements() {
		if c.Tag == "span" && hasClass(c, "group-label") {
			continue
		}
		ck, ok := es.sortKeys[c]
		if !ok {
			continue
		}
		if es.oven.collator.compareKeys(lang, key, ck) < 0 {
			container.InsertChild(c, n)
			es.sortKeys[n] = key
			return
		}
	}
	container.AddChild(n)
	es.sortKeys[n] = key
}
