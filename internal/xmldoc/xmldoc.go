// Package xmldoc holds the parsed element tree consumed by the decoder.
//
// It is a minimal DOM: elements with namespace-stripped local names,
// attributes, ordered children, a parent link and direct text. Decoders
// never see encoding/xml tokens.
package xmldoc

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
)

// ErrEmptyDocument is returned when the input holds no root element.
var ErrEmptyDocument = errors.New("xmldoc: no root element")

// Attr is a single attribute. Namespaced attributes keep their local name.
type Attr struct {
	Space string
	Name  string
	Value string
}

// Element is a node of the parsed input tree.
type Element struct {
	Space    string
	Name     string
	Attrs    []Attr
	Children []*Element
	Text     string

	parent *Element
	index  int // 1-based position among same-named siblings
}

// Parent returns the enclosing element, nil for the root.
func (e *Element) Parent() *Element {
	return e.parent
}

// Attr returns the value of the named attribute, or "" when absent.
func (e *Element) Attr(name string) string {
	v, _ := e.LookupAttr(name)
	return v
}

// LookupAttr returns the named attribute and whether it exists.
func (e *Element) LookupAttr(name string) (string, bool) {
	if e == nil {
		return "", false
	}
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Child returns the first direct child with the given local name.
func (e *Element) Child(name string) *Element {
	if e == nil {
		return nil
	}
	for _, c := range e.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ChildrenNamed returns the direct children with the given local name.
func (e *Element) ChildrenNamed(name string) []*Element {
	if e == nil {
		return nil
	}
	var out []*Element
	for _, c := range e.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Descend follows a chain of local names through first matches. It returns
// nil as soon as a step is missing.
func (e *Element) Descend(names ...string) *Element {
	cur := e
	for _, n := range names {
		cur = cur.Child(n)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// FindAll returns every descendant (depth-first, document order) whose
// local name matches and for which keep returns true. keep may be nil.
func (e *Element) FindAll(name string, keep func(*Element) bool) []*Element {
	if e == nil {
		return nil
	}
	var out []*Element
	var walk func(*Element)
	walk = func(el *Element) {
		for _, c := range el.Children {
			if c.Name == name && (keep == nil || keep(c)) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(e)
	return out
}

// FindFirst returns the first descendant matching name and keep.
func (e *Element) FindFirst(name string, keep func(*Element) bool) *Element {
	all := e.FindAll(name, keep)
	if len(all) == 0 {
		return nil
	}
	return all[0]
}

// WithAttr builds a FindAll predicate matching an attribute value.
func WithAttr(name, value string) func(*Element) bool {
	return func(el *Element) bool {
		v, ok := el.LookupAttr(name)
		return ok && v == value
	}
}

// Path returns the document location of e, e.g.
// /ClinicalDocument/component[1]/structuredBody[1]/component[2]/section[1].
func (e *Element) Path() string {
	if e == nil {
		return ""
	}
	var steps []string
	for cur := e; cur != nil; cur = cur.parent {
		if cur.parent == nil {
			steps = append(steps, cur.Name)
			continue
		}
		steps = append(steps, cur.Name+"["+strconv.Itoa(cur.index)+"]")
	}
	var b strings.Builder
	for i := len(steps) - 1; i >= 0; i-- {
		b.WriteByte('/')
		b.WriteString(steps[i])
	}
	return b.String()
}

// open is an element whose end tag has not been read yet.
type open struct {
	el *Element

	// seen counts the children read so far by local name.
	seen map[string]int
}

// adopt appends child to the open element and assigns its 1-based
// position among same-named siblings.
func (o *open) adopt(child *Element) {
	if o.seen == nil {
		o.seen = make(map[string]int)
	}
	o.seen[child.Name]++
	child.index = o.seen[child.Name]
	child.parent = o.el
	o.el.Children = append(o.el.Children, child)
}

// Parse builds the element tree from XML input. Any tokenizer error is
// returned unchanged so callers can report it as a fatal decode failure.
func Parse(r io.Reader) (*Element, error) {
	decoder := xml.NewDecoder(r)

	var stack []*open
	var root *Element
	rootClosed := false

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if rootClosed {
				return nil, fmt.Errorf("unexpected element %s after document end", t.Name.Local)
			}
			el := &Element{
				Space: t.Name.Space,
				Name:  t.Name.Local,
				Attrs: convertAttrs(t.Attr),
			}
			if len(stack) > 0 {
				stack[len(stack)-1].adopt(el)
			} else {
				root = el
			}
			stack = append(stack, &open{el: el})

		case xml.EndElement:
			if len(stack) > 0 {
				top := stack[len(stack)-1].el
				top.Text = strings.TrimSpace(top.Text)
				stack = stack[:len(stack)-1]
				if len(stack) == 0 {
					rootClosed = true
				}
			}

		case xml.CharData:
			if len(stack) == 0 {
				if !isBlank(string(t)) {
					return nil, fmt.Errorf("unexpected character data outside root element")
				}
				continue
			}
			stack[len(stack)-1].el.Text += string(t)
		}
	}

	if root == nil {
		return nil, ErrEmptyDocument
	}
	if !rootClosed {
		return nil, io.ErrUnexpectedEOF
	}
	return root, nil
}

// ParseString is a convenience wrapper for tests and fixtures.
func ParseString(s string) (*Element, error) {
	return Parse(strings.NewReader(s))
}

func convertAttrs(in []xml.Attr) []Attr {
	if len(in) == 0 {
		return nil
	}
	out := make([]Attr, 0, len(in))
	for _, a := range in {
		// Namespace declarations are not data.
		if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
			continue
		}
		out = append(out, Attr{Space: a.Name.Space, Name: a.Name.Local, Value: a.Value})
	}
	return out
}

func isBlank(s string) bool {
	for _, r := range s {
		if r == '\uFEFF' {
			continue
		}
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
