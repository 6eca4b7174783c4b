package linklog

import (
	"errors"
	"fmt"
	"io/fs"

	"dicom-batch-anonymizer/internal/store"
)

// Snapshot basenames, one flat JSON object per table. The names match the
// historical link log files so existing state directories keep working.
var snapshotNames = map[Field]string{
	FieldMRN:       "link_mrn_log",
	FieldAccession: "link_accession_log",
	FieldStudy:     "link_study_log",
	FieldSeries:    "link_series_log",
	FieldSOP:       "link_sop_log",
}

const masterSnapshotName = "link_master_log"

// CaseValues holds the raw identifier strings extracted from one record,
// before normalization.
type CaseValues struct {
	MRN       string
	Accession string
	Study     string
	Series    string
	SOP       string
}

// Set bundles the five link tables and the master case log.
type Set struct {
	tables map[Field]*Table
	master *CaseLog
}

// NewSet creates an empty set.
func NewSet(caseSensitive bool) *Set {
	s := &Set{tables: make(map[Field]*Table, len(snapshotNames)), master: NewCaseLog()}
	for _, f := range Fields() {
		s.tables[f] = NewTableFrom(nil, caseSensitive)
	}
	return s
}

// LoadSet restores a set from snapshots in st. Tables with no snapshot
// start empty; any other read or decode failure is fatal for the run.
func LoadSet(st *store.Manager, caseSensitive bool) (*Set, error) {
	s := &Set{tables: make(map[Field]*Table, len(snapshotNames))}
	for _, f := range Fields() {
		values, err := loadMapping(st, snapshotNames[f])
		if err != nil {
			return nil, err
		}
		s.tables[f] = NewTableFrom(values, caseSensitive)
	}
	counts, err := loadMapping(st, masterSnapshotName)
	if err != nil {
		return nil, err
	}
	s.master = NewCaseLogFrom(counts)
	return s, nil
}

func loadMapping(st *store.Manager, name string) (map[string]int64, error) {
	var m map[string]int64
	err := st.Load(name, &m)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not load link log %s: %w", name, err)
	}
	return m, nil
}

// Snapshot persists every table and the master log to st.
func (s *Set) Snapshot(st *store.Manager) error {
	for _, f := range Fields() {
		if err := st.Save(snapshotNames[f], s.tables[f].Values()); err != nil {
			return err
		}
	}
	return st.Save(masterSnapshotName, s.master.Counts())
}

// Table returns the link table for one identifier field.
func (s *Set) Table(f Field) *Table {
	return s.tables[f]
}

// Master returns the deduplication case log.
func (s *Set) Master() *CaseLog {
	return s.master
}

// ResolveCase resolves all five identifier values and registers the
// resulting identity with the master log. This is the single logical
// operation the coordinator serializes: resolving and deduplicating one
// record leaves no window for a lost update.
func (s *Set) ResolveCase(v CaseValues) (Identity, Decision) {
	var id Identity
	id.MRN, _ = s.tables[FieldMRN].Resolve(v.MRN)
	id.Accession, _ = s.tables[FieldAccession].Resolve(v.Accession)
	id.Study, _ = s.tables[FieldStudy].Resolve(v.Study)
	id.Series, _ = s.tables[FieldSeries].Resolve(v.Series)
	id.SOP, _ = s.tables[FieldSOP].Resolve(v.SOP)
	return id, s.master.RegisterOrSkip(id)
}
