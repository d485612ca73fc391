package tabular

import (
	"sort"

	"github.com/samber/lo"
)

// Dataset is an ordered header list plus the records written under it.
type Dataset struct {
	Headers []string
	Records []Record
}

// NewAppendOnly builds a dataset from records whose headers are the union of
// every record's keys in first-seen order.
func NewAppendOnly(records []Record) Dataset {
	d := Dataset{}
	for _, r := range records {
		d.Append(r)
	}
	return d
}

func (d *Dataset) addHeaders(keys []string) {
	d.Headers = lo.Uniq(append(d.Headers, keys...))
}

// Append adds a record at the end of the dataset.
func (d *Dataset) Append(r Record) {
	d.addHeaders(r.Keys())
	d.Records = append(d.Records, r)
}

// Upsert replaces the first record with the same identity key in place, or
// appends the record if there is none. The headers become the sorted union
// of every header ever seen.
func (d *Dataset) Upsert(r Record, key KeyFunc) (replaced bool) {
	target := key(r)
	_, idx, found := lo.FindIndexOf(d.Records, func(existing Record) bool {
		return target != "" && key(existing) == target
	})

	d.addHeaders(r.Keys())
	sort.Strings(d.Headers)

	if found {
		d.Records[idx] = r
		return true
	}
	d.Records = append(d.Records, r)
	return false
}

func (d Dataset) Len() int {
	return len(d.Records)
}

// Rows returns the header row followed by one row per record, every row has
// exactly len(Headers) cells.
func (d Dataset) Rows() [][]string {
	rows := make([][]string, 0, len(d.Records)+1)
	rows = append(rows, append([]string{}, d.Headers...))
	for _, r := range d.Records {
		row := make([]string, len(d.Headers))
		for i, h := range d.Headers {
			row[i] = r.Cell(h)
		}
		rows = append(rows, row)
	}
	return rows
}
