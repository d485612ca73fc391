package tabular

import "strings"

// Placeholder fills every cell whose record does not have the column.
const Placeholder = "N/A"

type Field struct {
	Name  string
	Value string
}

// Record is a flat field name -> value mapping that remembers the order in
// which its fields were first set. The order only matters to datasets that
// keep first-seen header order.
type Record struct {
	fields []Field
	index  map[string]int
}

func NewRecord(fields ...Field) Record {
	r := Record{}
	for _, f := range fields {
		r.Set(f.Name, f.Value)
	}
	return r
}

// RecordFromMap builds a record with its fields in map iteration order, use
// it only where field order does not matter.
func RecordFromMap(m map[string]string) Record {
	r := Record{}
	for k, v := range m {
		r.Set(k, v)
	}
	return r
}

// Set assigns a value, an existing field keeps its position and reports true.
func (r *Record) Set(name, value string) (replaced bool) {
	if r.index == nil {
		r.index = map[string]int{}
	}
	if i, ok := r.index[name]; ok {
		r.fields[i].Value = value
		return true
	}
	r.index[name] = len(r.fields)
	r.fields = append(r.fields, Field{Name: name, Value: value})
	return false
}

func (r Record) Get(name string) (string, bool) {
	i, ok := r.index[name]
	if !ok {
		return "", false
	}
	return r.fields[i].Value, true
}

// Cell is the value written under the given column.
func (r Record) Cell(name string) string {
	v, ok := r.Get(name)
	if !ok {
		return Placeholder
	}
	return v
}

func (r Record) Len() int {
	return len(r.fields)
}

// Keys returns the field names in the order they were first set.
func (r Record) Keys() []string {
	keys := make([]string, len(r.fields))
	for i, f := range r.fields {
		keys[i] = f.Name
	}
	return keys
}

func (r Record) Map() map[string]string {
	out := make(map[string]string, len(r.fields))
	for _, f := range r.fields {
		out[f.Name] = f.Value
	}
	return out
}

func (r Record) String() string {
	parts := make([]string, len(r.fields))
	for i, f := range r.fields {
		parts[i] = f.Name + "=" + f.Value
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// KeyFunc derives the identity key of a record, two records with equal keys
// are the same logical entry. An empty key means the record has no identity.
type KeyFunc func(r Record) string

const (
	FieldFilingManagerName = "filingmanager_name"
	FieldReportPeriod      = "reportcalendarorquarter"
)

// SummaryKey identifies a summary record by its filing manager name and
// reporting period. Records missing either field have no identity and are
// never replaced.
func SummaryKey(r Record) string {
	name, ok := r.Get(FieldFilingManagerName)
	if !ok {
		return ""
	}
	period, ok := r.Get(FieldReportPeriod)
	if !ok {
		return ""
	}
	return name + "\x00" + period
}
