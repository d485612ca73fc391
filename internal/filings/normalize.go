package filings

import (
	"strings"

	"github.com/antchfx/xmlquery"
)

// flatField pulls the value found by following path (each step a descendant
// lookup) out of a block and renames it.
type flatField struct {
	path []string
	name string
}

// blockRewrite replaces every element named block with a wrapper holding only
// uniquely named leaves.
type blockRewrite struct {
	block  string
	fields []flatField
}

func field(name string, path ...string) flatField {
	return flatField{path: path, name: name}
}

var rewrites = []blockRewrite{
	{
		block: "votingauthority",
		fields: []flatField{
			field("votingauthority_sole", "sole"),
			field("votingauthority_shared", "shared"),
			field("votingauthority_none", "none"),
		},
	},
	{
		block: "filer",
		fields: []flatField{
			field("filer_cik", "credentials", "cik"),
			field("filer_ccc", "credentials", "ccc"),
		},
	},
	{
		block: "filingmanager",
		fields: []flatField{
			field("filingmanager_name", "name"),
			field("filingmanager_address_street1", "address", "street1"),
			field("filingmanager_address_street2", "address", "street2"),
			field("filingmanager_address_city", "address", "city"),
			field("filingmanager_address_stateorcountry", "address", "stateorcountry"),
			field("filingmanager_address_zipcode", "address", "zipcode"),
		},
	},
	{
		block: "signatureblock",
		fields: []flatField{
			field("signatureblock_name", "name"),
			field("signatureblock_title", "title"),
			field("signatureblock_phone", "phone"),
			field("signatureblock_signature", "signature"),
			field("signatureblock_city", "city"),
			field("signatureblock_stateorcountry", "stateorcountry"),
			field("signatureblock_signaturedate", "signaturedate"),
		},
	},
}

// Normalize rewrites the repeating substructures of a document in place so
// that every value in them gets a unique leaf name. Sub-values missing from
// the source are left out.
func Normalize(doc Document) {
	for _, rw := range rewrites {
		for _, block := range findAll(doc.root, rw.block) {
			if rw.done(block) {
				continue
			}
			replaceNode(block, rw.build(block))
		}
	}
}

// done reports whether a block already holds only rewritten leaves.
func (rw blockRewrite) done(block *xmlquery.Node) bool {
	children := elementChildren(block)
	if len(children) == 0 {
		return false
	}
	for _, c := range children {
		if !strings.HasPrefix(c.Data, rw.block+"_") {
			return false
		}
	}
	return true
}

func (rw blockRewrite) build(block *xmlquery.Node) *xmlquery.Node {
	wrapper := &xmlquery.Node{Type: xmlquery.ElementNode, Data: rw.block}
	for _, f := range rw.fields {
		current := block
		for _, seg := range f.path {
			current = find(current, seg)
			if current == nil {
				break
			}
		}
		if current == nil {
			continue
		}
		value := text(current)
		if value == "" {
			continue
		}
		leaf := &xmlquery.Node{Type: xmlquery.ElementNode, Data: f.name}
		appendChild(leaf, &xmlquery.Node{Type: xmlquery.TextNode, Data: value})
		appendChild(wrapper, leaf)
	}
	return wrapper
}

func appendChild(parent, child *xmlquery.Node) {
	child.Parent = parent
	child.NextSibling = nil
	child.PrevSibling = parent.LastChild
	if parent.LastChild != nil {
		parent.LastChild.NextSibling = child
	} else {
		parent.FirstChild = child
	}
	parent.LastChild = child
}

func replaceNode(old, replacement *xmlquery.Node) {
	replacement.Parent = old.Parent
	replacement.PrevSibling = old.PrevSibling
	replacement.NextSibling = old.NextSibling

	if old.PrevSibling != nil {
		old.PrevSibling.NextSibling = replacement
	} else if old.Parent != nil {
		old.Parent.FirstChild = replacement
	}
	if old.NextSibling != nil {
		old.NextSibling.PrevSibling = replacement
	} else if old.Parent != nil {
		old.Parent.LastChild = replacement
	}

	old.Parent = nil
	old.PrevSibling = nil
	old.NextSibling = nil
}
