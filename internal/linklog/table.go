// Package linklog maintains the durable link between real-world DICOM
// identifiers and their assigned pseudonymous values.
//
// Each of the five identifier fields (mrn, accession, studyID, seriesID,
// sopID) has its own Table; the master CaseLog counts how often each fully
// resolved identity has been seen, so a record is emitted at most once.
//
// Nothing in this package locks: the batch coordinator is the only writer
// and serializes all access.
package linklog

import "strings"

// Field names one of the five identifier fields being pseudonymized.
type Field string

const (
	FieldMRN       Field = "mrn"
	FieldAccession Field = "accession"
	FieldStudy     Field = "studyID"
	FieldSeries    Field = "seriesID"
	FieldSOP       Field = "sopID"
)

// Fields returns the identifier fields in resolution order. The order is
// fixed: it determines the composition of the identity tuple.
func Fields() [5]Field {
	return [5]Field{FieldMRN, FieldAccession, FieldStudy, FieldSeries, FieldSOP}
}

// Table maps normalized identifier values to assigned pseudonymous IDs.
// IDs are positive, strictly increasing in first-seen order, and never
// reused or reassigned.
type Table struct {
	values        map[string]int64
	max           int64
	caseSensitive bool
}

// NewTable creates an empty table with case-folded matching.
func NewTable() *Table {
	return NewTableFrom(nil, false)
}

// NewTableFrom creates a table over previously persisted values. The
// running maximum is recovered by scanning the values, so the on-disk
// format is just the mapping itself. caseSensitive preserves exact legacy
// matching for old link logs; the default behavior folds to uppercase.
func NewTableFrom(values map[string]int64, caseSensitive bool) *Table {
	t := &Table{
		values:        make(map[string]int64, len(values)),
		caseSensitive: caseSensitive,
	}
	for k, v := range values {
		t.values[k] = v
		if v > t.max {
			t.max = v
		}
	}
	return t
}

func (t *Table) normalize(raw string) string {
	v := strings.TrimSpace(raw)
	if !t.caseSensitive {
		v = strings.ToUpper(v)
	}
	return v
}

// Resolve returns the pseudonymous ID linked to raw, assigning the next ID
// when the value has never been seen. Any string is a valid key; the same
// value always resolves to the same ID for the lifetime of the table.
func (t *Table) Resolve(raw string) (id int64, isNew bool) {
	key := t.normalize(raw)
	if id, ok := t.values[key]; ok {
		return id, false
	}
	t.max++
	t.values[key] = t.max
	return t.max, true
}

// Max returns the highest ID assigned so far, 0 for an empty table.
func (t *Table) Max() int64 {
	return t.max
}

// Len returns the number of linked values.
func (t *Table) Len() int {
	return len(t.values)
}

// Values returns a copy of the mapping for persistence.
func (t *Table) Values() map[string]int64 {
	out := make(map[string]int64, len(t.values))
	for k, v := range t.values {
		out[k] = v
	}
	return out
}
