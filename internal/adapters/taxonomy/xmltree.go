package taxonomy

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// element is a minimal DOM node. encoding/xml resolves prefixes, so
// name.Space holds the namespace URI rather than the prefix.
type element struct {
	name     xml.Name
	attrs    []xml.Attr
	children []*element
	text     strings.Builder
}

func parseXML(data []byte) (*element, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var root *element
	var stack []*element
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("xml token: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &element{name: t.Name, attrs: t.Attr}
			if len(stack) == 0 {
				if root != nil {
					return nil, errors.New("xml: multiple root elements")
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, el)
			}
			stack = append(stack, el)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		}
	}

	if root == nil {
		return nil, errors.New("xml: no root element")
	}
	return root, nil
}

// attr returns the value of the attribute with the given local name.
func (e *element) attr(local string) string {
	for _, a := range e.attrs {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// walk visits the descendants of e in document order, excluding e.
func (e *element) walk(fn func(*element)) {
	for _, c := range e.children {
		fn(c)
		c.walk(fn)
	}
}

// findAll returns descendants named {space}local. An empty space matches
// elements in any namespace.
func (e *element) findAll(space, local string) []*element {
	var out []*element
	e.walk(func(c *element) {
		if c.name.Local == local && (space == "" || c.name.Space == space) {
			out = append(out, c)
		}
	})
	return out
}

// findTolerant searches qualified by ns first and falls back to an
// unqualified search when that yields nothing.
func (e *element) findTolerant(ns, local string) []*element {
	if ns != "" {
		if found := e.findAll(ns, local); len(found) > 0 {
			return found
		}
	}
	return e.findAll("", local)
}

// child returns the first direct child with the given local name.
func (e *element) child(local string) *element {
	for _, c := range e.children {
		if c.name.Local == local {
			return c
		}
	}
	return nil
}

// namespace is the URI of the document's root element, if any.
func (e *element) namespace() string {
	return e.name.Space
}
