package progress

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dicom-batch-anonymizer/internal/linklog"
)

func TestErrorLogRecordsAndCounts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "errors.log")
	l, err := NewErrorLog(path)
	require.NoError(t, err)

	assert.Equal(t, "No errors", l.Summary())

	l.Record("/data/a/1.dcm", "could not parse DICOM")
	l.RecordIdentity("/data/a/2.dcm", linklog.Identity{MRN: 1, Accession: 2, Study: 3, Series: 4, SOP: 5}, "disk full")
	require.NoError(t, l.Close())

	assert.Equal(t, 2, l.Count())
	assert.Contains(t, l.Summary(), "2 errors")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "/data/a/1.dcm | could not parse DICOM")
	assert.Contains(t, string(data), "identity 1-2-3-4-5 | disk full")
}

func TestErrorLogAppendsAcrossRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "errors.log")

	l1, err := NewErrorLog(path)
	require.NoError(t, err)
	l1.Record("/data/a/1.dcm", "first run")
	require.NoError(t, l1.Close())

	l2, err := NewErrorLog(path)
	require.NoError(t, err)
	l2.Record("/data/b/1.dcm", "second run")
	// The count covers this run only.
	assert.Equal(t, 1, l2.Count())
	require.NoError(t, l2.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "first run")
	assert.Contains(t, string(data), "second run")
}
