package soap

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// element is one node of a parsed response, kept in document order.
// Names keep their namespace prefix ("soap:Body") since the backend's
// answers are matched on prefixed names.
type element struct {
	name     string
	attrs    []xml.Attr
	children []*element
	text     strings.Builder
}

// local returns the name without its prefix.
func (e *element) local() string {
	if i := strings.IndexByte(e.name, ':'); i >= 0 {
		return e.name[i+1:]
	}
	return e.name
}

// child returns the first direct child named exactly name.
func (e *element) child(name string) *element {
	for _, c := range e.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// value converts the subtree into plain Go values:
// an element with neither attributes nor children becomes its trimmed text
// (nil when empty); otherwise a map with "@attr" keys, one key per child name
// (a []any when the name repeats) and "#text" for any trimmed text.
func (e *element) value() any {
	text := strings.TrimSpace(e.text.String())
	if len(e.attrs) == 0 && len(e.children) == 0 {
		if text == "" {
			return nil
		}
		return text
	}

	m := make(map[string]any, len(e.attrs)+len(e.children)+1)
	for _, a := range e.attrs {
		m["@"+qualified(a.Name)] = a.Value
	}
	repeated := make(map[string]bool)
	for _, c := range e.children {
		v := c.value()
		existing, ok := m[c.name]
		switch {
		case !ok:
			m[c.name] = v
		case repeated[c.name]:
			m[c.name] = append(existing.([]any), v)
		default:
			m[c.name] = []any{existing, v}
			repeated[c.name] = true
		}
	}
	if text != "" {
		m["#text"] = text
	}
	return m
}

// document returns the whole tree keyed by the root element name.
func (e *element) document() map[string]any {
	return map[string]any{e.name: e.value()}
}

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

// parseDocument reads a single-rooted XML document. RawToken keeps the
// prefixes as written, so element matching is checked here.
func parseDocument(s string) (*element, error) {
	dec := xml.NewDecoder(strings.NewReader(s))

	var root *element
	var stack []*element
	for {
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &element{name: qualified(t.Name), attrs: append([]xml.Attr(nil), t.Attr...)}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("second root element <%s>", el.name)
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, el)
			}
			stack = append(stack, el)

		case xml.EndElement:
			name := qualified(t.Name)
			if len(stack) == 0 {
				return nil, fmt.Errorf("unexpected end element </%s>", name)
			}
			if top := stack[len(stack)-1]; top.name != name {
				return nil, fmt.Errorf("element <%s> closed by </%s>", top.name, name)
			}
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if len(stack) == 0 {
				if len(bytes.TrimSpace(t)) > 0 {
					return nil, errors.New("text outside the root element")
				}
				continue
			}
			stack[len(stack)-1].text.Write(t)
		}
	}

	if len(stack) > 0 {
		return nil, fmt.Errorf("unclosed element <%s>", stack[len(stack)-1].name)
	}
	if root == nil {
		return nil, errors.New("no root element")
	}
	return root, nil
}
