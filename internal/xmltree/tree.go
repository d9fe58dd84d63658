package xmltree

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// Node is a single XML element.
//
// Text holds the character data directly inside the element, excluding the
// text of child elements. Names are local names; namespaces are dropped.
type Node struct {
	Name     string
	Attrs    map[string]string
	Text     string
	Children []*Node
}

// Parse reads a complete XML document and returns its root element.
//
// Documents declaring a non-UTF-8 encoding (ISO-8859-1, windows-1252, ...)
// are transcoded. Returns an error for empty input, malformed markup, or
// content after the root element.
func Parse(data []byte) (*Node, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel

	var (
		root  *Node
		stack []*Node
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse document: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if root != nil && len(stack) == 0 {
				return nil, errors.New("xml: junk after document element")
			}
			n := &Node{Name: t.Name.Local}
			if len(t.Attr) > 0 {
				n.Attrs = make(map[string]string, len(t.Attr))
				for _, a := range t.Attr {
					n.Attrs[a.Name.Local] = a.Value
				}
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			} else {
				root = n
			}
			stack = append(stack, n)

		case xml.EndElement:
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if len(stack) > 0 {
				cur := stack[len(stack)-1]
				cur.Text += string(t)
			} else if len(bytes.TrimSpace(t)) > 0 {
				return nil, errors.New("xml: text outside document element")
			}
		}
	}

	if root == nil {
		return nil, errors.New("xml: no element found")
	}
	if len(stack) > 0 {
		return nil, errors.New("xml: unexpected end of document")
	}
	return root, nil
}

// Find returns the first element matching the relative path, or nil.
//
// Paths are slash separated child names, optionally prefixed with "./".
// An empty path or "." matches the node itself.
func (n *Node) Find(path string) *Node {
	matches := n.FindAll(path)
	if len(matches) == 0 {
		return nil
	}
	return matches[0]
}

// FindAll returns every element matching the relative path in document order.
func (n *Node) FindAll(path string) []*Node {
	if n == nil {
		return nil
	}

	current := []*Node{n}
	for _, part := range splitPath(path) {
		var next []*Node
		for _, c := range current {
			for _, child := range c.Children {
				if part == "*" || child.Name == part {
					next = append(next, child)
				}
			}
		}
		if len(next) == 0 {
			return nil
		}
		current = next
	}
	return current
}

// FindText returns the text of the first element matching path.
// The boolean is false when no element matches.
func (n *Node) FindText(path string) (string, bool) {
	found := n.Find(path)
	if found == nil {
		return "", false
	}
	return found.Text, true
}

func splitPath(path string) []string {
	path = strings.TrimPrefix(strings.TrimSpace(path), "./")
	if path == "" || path == "." {
		return nil
	}

	var parts []string
	for _, p := range strings.Split(path, "/") {
		if p == "" || p == "." {
			continue
		}
		parts = append(parts, p)
	}
	return parts
}
