package linklog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dicom-batch-anonymizer/internal/store"
)

func testValues(mrn, acc, study, series, sop string) CaseValues {
	return CaseValues{MRN: mrn, Accession: acc, Study: study, Series: series, SOP: sop}
}

func TestSetResolveCase(t *testing.T) {
	s := NewSet(false)

	id, decision := s.ResolveCase(testValues("P1", "A1", "S1", "SE1", "I1"))
	require.Equal(t, Emit, decision)
	assert.Equal(t, Identity{MRN: 1, Accession: 1, Study: 1, Series: 1, SOP: 1}, id)

	// Per-field counters are independent.
	id, decision = s.ResolveCase(testValues("P1", "A1", "S1", "SE1", "I2"))
	require.Equal(t, Emit, decision)
	assert.Equal(t, Identity{MRN: 1, Accession: 1, Study: 1, Series: 1, SOP: 2}, id)

	// Exact duplicate record: same identity, skipped.
	id, decision = s.ResolveCase(testValues("p1", "a1", "s1", "se1", "i1"))
	assert.Equal(t, Skip, decision)
	assert.Equal(t, Identity{MRN: 1, Accession: 1, Study: 1, Series: 1, SOP: 1}, id)
	assert.Equal(t, int64(2), s.Master().Count(id))
}

func TestSetSnapshotRoundTrip(t *testing.T) {
	st, err := store.New(t.TempDir())
	require.NoError(t, err)

	s := NewSet(false)
	first, decision := s.ResolveCase(testValues("P1", "A1", "S1", "SE1", "I1"))
	require.Equal(t, Emit, decision)
	require.NoError(t, s.Snapshot(st))

	reloaded, err := LoadSet(st, false)
	require.NoError(t, err)

	// Mappings persist across restarts.
	id, decision := reloaded.ResolveCase(testValues("P1", "A1", "S1", "SE1", "I1"))
	assert.Equal(t, Skip, decision)
	assert.Equal(t, first, id)

	// New values continue the per-field sequences.
	id, decision = reloaded.ResolveCase(testValues("P2", "A2", "S2", "SE2", "I2"))
	assert.Equal(t, Emit, decision)
	assert.Equal(t, Identity{MRN: 2, Accession: 2, Study: 2, Series: 2, SOP: 2}, id)
}

func TestLoadSetEmptyStateDir(t *testing.T) {
	st, err := store.New(t.TempDir())
	require.NoError(t, err)

	s, err := LoadSet(st, false)
	require.NoError(t, err)
	for _, f := range Fields() {
		assert.Equal(t, 0, s.Table(f).Len())
	}
	assert.Equal(t, 0, s.Master().Len())
}
