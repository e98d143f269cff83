// Package doc adapts the oven package's beevik/etree document tree to
// HTML5 text, using golang.org/x/net/html purely as the parse/serialize
// boundary (§6 "HTML parsing and serialization" external interface). The
// engine's own tree walks, selector matching and mutation all operate on
// *etree.Element; this package exists only so the engine never has to
// speak the wire format itself.
package doc

import (
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Parse reads a full HTML document from r and returns it (the html element
// with its head and body) as an etree tree under a synthetic "c:root"
// element, mirroring the
// teacher's own chtmlComponent.parse convention of parsing into a
// synthetic root instead of assuming a single top-level element.
func Parse(r io.Reader) (*etree.Element, error) {
	node, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("doc: parse: %w", err)
	}
	root := etree.NewElement("c:root")
	for c := node.FirstChild; c != nil; c = c.NextSibling {
		appendConverted(root, c)
	}
	return root, nil
}

// ParseFragment reads an HTML fragment (not a full document) from r, for
// use when a declaration or CLI input is already known to be body content.
func ParseFragment(r io.Reader) (*etree.Element, error) {
	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(r, context)
	if err != nil {
		return nil, fmt.Errorf("doc: parse fragment: %w", err)
	}
	root := etree.NewElement("c:root")
	for _, n := range nodes {
		appendConverted(root, n)
	}
	return root, nil
}

func appendConverted(parent *etree.Element, n *html.Node) {
	switch n.Type {
	case html.ElementNode:
		el := parent.CreateElement(n.Data)
		for _, a := range n.Attr {
			name := a.Key
			if a.Namespace != "" {
				name = a.Namespace + ":" + a.Key
			}
			el.CreateAttr(name, a.Val)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			appendConverted(el, c)
		}
	case html.TextNode:
		appendText(parent, n.Data)
	case html.CommentNode, html.DoctypeNode, html.DocumentNode:
		// Comments and doctypes have no place in the engine's selector/
		// action model (§6 non-goals); dropped rather than carried as
		// inert tree nodes that every walk would need to skip.
	}
}

// appendText adds text either as the parent's leading Text or as the
// previous sibling's Tail, matching etree's interleaved-CharData model.
func appendText(parent *etree.Element, text string) {
	children := parent.ChildElements()
	if len(children) == 0 {
		parent.SetText(parent.Text() + text)
		return
	}
	last := children[len(children)-1]
	last.SetTail(last.Tail() + text)
}

// voidElements is the HTML5 set of elements that never have a closing tag
// or content (§4.8's final closing pass relies on the same set via oven's
// own copy, kept independent since doc must not import oven).
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// Render serializes root's children (skipping the synthetic "c:root"
// wrapper Parse introduces) as HTML5 text.
func Render(w io.Writer, root *etree.Element) error {
	for _, tok := range root.Child {
		if err := renderToken(w, tok); err != nil {
			return err
		}
	}
	return nil
}

func renderToken(w io.Writer, tok etree.Token) error {
	switch t := tok.(type) {
	case *etree.Element:
		return renderElement(w, t)
	case *etree.CharData:
		_, err := io.WriteString(w, html.EscapeString(t.Data))
		return err
	}
	return nil
}

func renderElement(w io.Writer, el *etree.Element) error {
	if _, err := fmt.Fprintf(w, "<%s", el.Tag); err != nil {
		return err
	}
	for _, attr := range el.Attr {
		if _, err := fmt.Fprintf(w, ` %s="%s"`, attr.Key, html.EscapeString(attr.Value)); err != nil {
			return err
		}
	}
	if voidElements[strings.ToLower(el.Tag)] {
		_, err := io.WriteString(w, "/>")
		return err
	}
	if _, err := io.WriteString(w, ">"); err != nil {
		return err
	}
	if _, err := io.WriteString(w, html.EscapeString(el.Text())); err != nil {
		return err
	}
	for _, child := range el.ChildElements() {
		if err := renderElement(w, child); err != nil {
			return err
		}
		if _, err := io.WriteString(w, html.EscapeString(child.Tail())); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "</%s>", el.Tag)
	return err
}
