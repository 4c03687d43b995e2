// Package xmltree parses one XML byte stream into a generic element tree that
// can be probed by element path without knowing the document's schema, tag
// casing or namespaces up front. Municipal NFS-e emitters disagree on all
// three, so lookups match on lowercased local names only.
package xmltree

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// Node is one element of a parsed document, holding its children in document
// order and the concatenated character data directly under it.
type Node struct {
	Name     string // local name, original casing
	Text     string
	Children []*Node
}

// Parse decodes a whole XML document into its root node. It tolerates the
// legacy single-byte encodings some municipal systems still emit.
func Parse(data []byte) (*Node, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charsetReader
	dec.Strict = false

	var root *Node
	var stack []*Node

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed document: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Name: t.Name.Local}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("malformed document: multiple root elements")
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("malformed document: unbalanced end element %q", t.Name.Local)
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].Text += string(t)
			}
		}
	}

	if root == nil {
		return nil, fmt.Errorf("malformed document: no root element")
	}
	if len(stack) != 0 {
		return nil, fmt.Errorf("malformed document: unclosed element %q", stack[len(stack)-1].Name)
	}
	return root, nil
}

func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(charset) {
	case "", "utf-8", "utf8":
		return input, nil
	case "iso-8859-1", "latin1", "latin-1":
		return charmap.ISO8859_1.NewDecoder().Reader(input), nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder().Reader(input), nil
	default:
		return nil, fmt.Errorf("unsupported charset %q", charset)
	}
}

// Find resolves a slash-separated path of local element names, e.g.
// "InfNfse/PrestadorServico/Cnpj". The first segment is located anywhere
// below the receiver; each following segment must be a descendant of the
// previous match. The first match in document order wins. Matching is
// case-insensitive and namespace-agnostic.
func (n *Node) Find(path string) (*Node, bool) {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		return nil, false
	}
	return n.findSegments(segments)
}

func (n *Node) findSegments(segments []string) (*Node, bool) {
	matches := n.descendants(segments[0])
	for _, m := range matches {
		if len(segments) == 1 {
			return m, true
		}
		if found, ok := m.findSegments(segments[1:]); ok {
			return found, true
		}
	}
	return nil, false
}

// descendants collects every descendant (not the receiver) whose local name
// matches, in document order.
func (n *Node) descendants(name string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if strings.EqualFold(c.Name, name) {
			out = append(out, c)
		}
		out = append(out, c.descendants(name)...)
	}
	return out
}

// FindText resolves a path and returns its trimmed character data. Empty text
// counts as absent: callers treat a present-but-blank element the same as a
// missing one.
func (n *Node) FindText(path string) (string, bool) {
	found, ok := n.Find(path)
	if !ok {
		return "", false
	}
	text := strings.TrimSpace(found.Text)
	if text == "" {
		return "", false
	}
	return text, true
}
