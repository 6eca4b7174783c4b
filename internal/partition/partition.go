// Package partition tracks the remaining per-directory work of a batch run.
//
// A Partition maps every scanned directory to the queue of record files it
// still owes and their cumulative byte size. Entries are removed only when
// a directory has been fully processed; the shrinking snapshot is what
// makes an interrupted run resumable.
package partition

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"dicom-batch-anonymizer/internal/store"
)

// SnapshotName is the basename of the partition snapshot.
const SnapshotName = "partition"

// Entry is the pending work for one directory.
type Entry struct {
	Queue []string `json:"queue"`
	Size  int64    `json:"size"`
}

// Partition maps directory paths to their pending entries.
type Partition map[string]*Entry

// New creates an empty partition.
func New() Partition {
	return make(Partition)
}

// Dirs returns the directory keys in sorted order.
func (p Partition) Dirs() []string {
	dirs := make([]string, 0, len(p))
	for d := range p {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	return dirs
}

// Remove deletes a completed directory from the partition.
func (p Partition) Remove(dir string) {
	delete(p, dir)
}

// TotalFiles returns the number of queued files across all directories.
func (p Partition) TotalFiles() int {
	n := 0
	for _, e := range p {
		n += len(e.Queue)
	}
	return n
}

// TotalSize returns the cumulative byte size across all directories.
func (p Partition) TotalSize() int64 {
	var n int64
	for _, e := range p {
		n += e.Size
	}
	return n
}

// Load restores the partition snapshot from st. ok is false when no
// snapshot exists yet.
func Load(st *store.Manager) (p Partition, ok bool, err error) {
	err = st.Load(SnapshotName, &p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("could not load partition: %w", err)
	}
	if p == nil {
		p = New()
	}
	return p, true, nil
}

// Snapshot persists the partition to st.
func (p Partition) Snapshot(st *store.Manager) error {
	return st.Save(SnapshotName, p)
}
