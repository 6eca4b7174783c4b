package linklog

import "fmt"

// Decision is the outcome of registering a resolved identity.
type Decision int

const (
	// Emit means the identity has not been anonymized before; the caller
	// proceeds to produce output.
	Emit Decision = iota
	// Skip means the identity was already anonymized in this or a prior
	// run; the caller must not write output again.
	Skip
)

// Identity is the resolved pseudonymous identity of one record: the five
// assigned IDs in field order. It is ephemeral; only the CaseLog persists
// its key.
type Identity struct {
	MRN       int64
	Accession int64
	Study     int64
	Series    int64
	SOP       int64
}

// Key returns the composite string key for the identity tuple.
func (id Identity) Key() string {
	return fmt.Sprintf("%d-%d-%d-%d-%d", id.MRN, id.Accession, id.Study, id.Series, id.SOP)
}

// CaseLog counts how many times each resolved identity has been
// encountered. An identity present in the log has been (or is being)
// emitted; seeing it again suppresses a duplicate output file.
type CaseLog struct {
	counts map[string]int64
}

// NewCaseLog creates an empty case log.
func NewCaseLog() *CaseLog {
	return NewCaseLogFrom(nil)
}

// NewCaseLogFrom creates a case log over previously persisted counts.
func NewCaseLogFrom(counts map[string]int64) *CaseLog {
	l := &CaseLog{counts: make(map[string]int64, len(counts))}
	for k, v := range counts {
		l.counts[k] = v
	}
	return l
}

// RegisterOrSkip records one occurrence of the identity. The first
// occurrence returns Emit; every later one increments the count and
// returns Skip.
func (l *CaseLog) RegisterOrSkip(id Identity) Decision {
	key := id.Key()
	if _, ok := l.counts[key]; ok {
		l.counts[key]++
		return Skip
	}
	l.counts[key] = 1
	return Emit
}

// Count returns how many times the identity has been seen.
func (l *CaseLog) Count(id Identity) int64 {
	return l.counts[id.Key()]
}

// Len returns the number of distinct identities logged.
func (l *CaseLog) Len() int {
	return len(l.counts)
}

// Counts returns a copy of the mapping for persistence.
func (l *CaseLog) Counts() map[string]int64 {
	out := make(map[string]int64, len(l.counts))
	for k, v := range l.counts {
		out[k] = v
	}
	return out
}
