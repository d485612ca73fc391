package filings

import (
	"fmt"

	"edgar13f/internal/tabular"

	"github.com/antchfx/xmlquery"
)

// Flattener turns normalized documents into flat records. A field is emitted
// for every element with non-empty trimmed text and no child elements.
type Flattener struct {
	// Strict makes two leaves with the same name in one record an
	// ErrFieldCollision instead of keeping the last value.
	Strict bool
}

// Record flattens every leaf under n into a single record.
func (f Flattener) Record(n *xmlquery.Node) (tabular.Record, error) {
	record := tabular.Record{}
	err := f.collect(n, &record)
	if err != nil {
		return tabular.Record{}, err
	}
	return record, nil
}

func (f Flattener) collect(n *xmlquery.Node, record *tabular.Record) error {
	children := elementChildren(n)
	if len(children) == 0 {
		if n.Type != xmlquery.ElementNode {
			return nil
		}
		value := text(n)
		if value == "" {
			return nil
		}
		name := canonicalName(n.Data)
		if record.Set(name, value) && f.Strict {
			return fmt.Errorf("%w: %s", ErrFieldCollision, name)
		}
		return nil
	}
	for _, c := range children {
		err := f.collect(c, record)
		if err != nil {
			return err
		}
	}
	return nil
}

// Holdings returns one record per infotable block of a holdings document.
func (f Flattener) Holdings(doc Document) ([]tabular.Record, error) {
	if !doc.IsHoldings() {
		return nil, fmt.Errorf(
			"%w: expected <%s> root, got <%s>",
			ErrMalformedDocument, rootHoldings, doc.root.Data,
		)
	}
	blocks := doc.Holdings()
	if len(blocks) == 0 {
		return nil, fmt.Errorf("%w: no %s elements", ErrMalformedDocument, elemHolding)
	}
	records := make([]tabular.Record, 0, len(blocks))
	for i, b := range blocks {
		r, err := f.Record(b)
		if err != nil {
			return nil, fmt.Errorf("%s %d: %w", elemHolding, i, err)
		}
		records = append(records, r)
	}
	return records, nil
}

// Primary returns the single record of a primary document.
func (f Flattener) Primary(doc Document) (tabular.Record, error) {
	if !doc.IsPrimary() {
		return tabular.Record{}, fmt.Errorf(
			"%w: expected <%s> root, got <%s>",
			ErrMalformedDocument, rootPrimary, doc.root.Data,
		)
	}
	return f.Record(doc.root)
}
