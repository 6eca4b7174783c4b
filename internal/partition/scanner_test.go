package partition

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0644))
}

func TestScanBuildsPartition(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "study1", "a.dcm"), 100)
	writeFile(t, filepath.Join(root, "study1", "b.DCM"), 50)
	writeFile(t, filepath.Join(root, "study1", "notes.txt"), 10)
	writeFile(t, filepath.Join(root, "study2", "c.dicom"), 25)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty"), 0755))

	p, err := Scan(root, nil, discardLogger())
	require.NoError(t, err)

	// One entry per visited directory, empty ones included.
	assert.Len(t, p, 4)

	s1 := p[filepath.Join(root, "study1")]
	require.NotNil(t, s1)
	assert.Len(t, s1.Queue, 2)
	assert.Equal(t, int64(150), s1.Size)

	s2 := p[filepath.Join(root, "study2")]
	require.NotNil(t, s2)
	assert.Equal(t, []string{filepath.Join(root, "study2", "c.dicom")}, s2.Queue)
	assert.Equal(t, int64(25), s2.Size)

	empty := p[filepath.Join(root, "empty")]
	require.NotNil(t, empty)
	assert.Empty(t, empty.Queue)
}

func TestScanProbeFallback(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "IM000001"), 80)
	writeFile(t, filepath.Join(root, "README"), 5)

	probe := func(path string) bool {
		return strings.HasPrefix(filepath.Base(path), "IM")
	}

	p, err := Scan(root, probe, discardLogger())
	require.NoError(t, err)

	entry := p[root]
	require.NotNil(t, entry)
	assert.Equal(t, []string{filepath.Join(root, "IM000001")}, entry.Queue)
	assert.Equal(t, int64(80), entry.Size)
}

func TestScanMissingRoot(t *testing.T) {
	p, err := Scan(filepath.Join(t.TempDir(), "nope"), nil, discardLogger())
	assert.ErrorIs(t, err, ErrNotDirectory)
	assert.Empty(t, p)
}
