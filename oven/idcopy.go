package oven

import "github.com/beevik/etree"

// CopyWithIDSuffix deep-copies elem and appends suffix to the id attribute
// of every element in the copy that carries one, including elem itself.
// This is how copy-to and nodeset() avoid emitting duplicate ids
// when a subtree is spliced into more than one place (§4.1, §6), grounded
// on cnxeasybake's util.copy_w_id_suffix (deepcopy + xpath('//*[@id]')
// rewrite).
func CopyWithIDSuffix(elem *etree.Element, suffix string) *etree.Element {
	cp := elem.Copy()
	suffixIDs(cp, suffix)
	return cp
}

func suffixIDs(el *etree.Element, suffix string) {
	if id := el.SelectAttrValue("id", ""); id != "" {
		setAttr(el, "id", id+suffix)
	}
	for _, child := range el.ChildElements() {
		suffixIDs(child, suffix)
	}
}

// setAttr overwrites an existing attribute in place or creates a new one,
// since etree.Element.CreateAttr always appends a new Attr rather than
// updating one that's already present.
func setAttr(el *etree.Element, name, value string) {
	if a := el.SelectAttr(name); a != nil {
		a.Value = value
		return
	}
	el.CreateAttr(name, value)
}
