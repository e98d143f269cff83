// Package bakehouse is a convenience façade over oven and oven/doc: bake
// parses HTML, runs a compiled stylesheet's recipe against it and
// serializes the result, for callers that don't need the tree in between.
package bakehouse

import (
	"bytes"
	"io"

	"github.com/dpotapov/bakehouse/oven"
	"github.com/dpotapov/bakehouse/oven/doc"
)

// Bake reads HTML from in, bakes it against stylesheet, and writes the
// resulting HTML to out. opts are forwarded to oven.New.
func Bake(stylesheet []byte, in io.Reader, out io.Writer, opts ...oven.Option) error {
	o, err := oven.New(stylesheet, opts...)
	if err != nil {
		return err
	}
	root, err := doc.Parse(in)
	if err != nil {
		return err
	}
	if err := o.Bake(root); err != nil {
		return err
	}
	return doc.Render(out, root)
}

// BakeString is Bake for callers already holding the document as a string,
// returning the cooked result as a string.
func BakeString(stylesheet, html string, opts ...oven.Option) (string, error) {
	var buf bytes.Buffer
	if err := Bake([]byte(stylesheet), bytes.NewReader([]byte(html)), &buf, opts...); err != nil {
		return "", err
	}
	return buf.String(), nil
}
