package filings

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"
)

var (
	ErrMalformedDocument = errors.New("malformed document")
	ErrFieldCollision    = errors.New("field collision")
)

const (
	rootPrimary  = "edgarsubmission"
	rootHoldings = "informationtable"
	elemHolding  = "infotable"
)

// canonicalName strips any namespace prefix ("ns1:infoTable") and lowercases
// the rest, so that prefixed and plain documents share one vocabulary.
func canonicalName(name string) string {
	if i := strings.LastIndexByte(name, ':'); i >= 0 {
		name = name[i+1:]
	}
	return strings.ToLower(name)
}

// Document is a parsed filing whose element names are all canonical.
type Document struct {
	root *xmlquery.Node
}

// Parse reads an XML filing and canonicalizes every element name in it.
func Parse(body []byte) (Document, error) {
	top, err := xmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return Document{}, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}
	canonicalize(top)

	root := firstElement(top)
	if root == nil {
		return Document{}, fmt.Errorf("%w: no root element", ErrMalformedDocument)
	}
	return Document{root: root}, nil
}

func canonicalize(n *xmlquery.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != xmlquery.ElementNode {
			continue
		}
		c.Data = canonicalName(c.Data)
		c.Prefix = ""
		c.NamespaceURI = ""
		canonicalize(c)
	}
}

// Root is the document's top level element.
func (d Document) Root() *xmlquery.Node {
	return d.root
}

func (d Document) IsPrimary() bool {
	return d.root.Data == rootPrimary
}

func (d Document) IsHoldings() bool {
	return d.root.Data == rootHoldings
}

// Holdings returns every per-security block of the document in order.
func (d Document) Holdings() []*xmlquery.Node {
	return findAll(d.root, elemHolding)
}

// RootElement returns the canonical name of the first element in an XML body
// without building a tree, ok is false if the body is not XML.
func RootElement(body []byte) (name string, ok bool) {
	decoder := xml.NewDecoder(bytes.NewReader(body))
	decoder.Strict = false
	for {
		tok, err := decoder.RawToken()
		if err != nil {
			return "", false
		}
		switch t := tok.(type) {
		case xml.StartElement:
			full := t.Name.Local
			if t.Name.Space != "" {
				full = t.Name.Space + ":" + full
			}
			return canonicalName(full), true
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return "", false
			}
		}
	}
}

func elementChildren(n *xmlquery.Node) []*xmlquery.Node {
	var out []*xmlquery.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

func firstElement(n *xmlquery.Node) *xmlquery.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			return c
		}
	}
	return nil
}

// find returns the first descendant of n named name in document order.
func find(n *xmlquery.Node, name string) *xmlquery.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != xmlquery.ElementNode {
			continue
		}
		if c.Data == name {
			return c
		}
		if found := find(c, name); found != nil {
			return found
		}
	}
	return nil
}

// findAll returns every descendant of n named name in document order, it
// does not descend into matches.
func findAll(n *xmlquery.Node, name string) []*xmlquery.Node {
	var out []*xmlquery.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != xmlquery.ElementNode {
			continue
		}
		if c.Data == name {
			out = append(out, c)
			continue
		}
		out = append(out, findAll(c, name)...)
	}
	return out
}

func text(n *xmlquery.Node) string {
	return strings.TrimSpace(n.InnerText())
}
