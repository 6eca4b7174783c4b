package anonymizer

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dcm "dicom-batch-anonymizer/internal/dicom"
	"dicom-batch-anonymizer/internal/linklog"
)

func TestParseGrouping(t *testing.T) {
	for _, s := range []string{"s", "m", "n"} {
		g, err := ParseGrouping(s)
		require.NoError(t, err)
		assert.Equal(t, Grouping(s), g)
	}

	_, err := ParseGrouping("x")
	assert.Error(t, err)
	_, err = ParseGrouping("")
	assert.Error(t, err)
}

func TestCleanString(t *testing.T) {
	assert.Equal(t, "1_2_3_4_CR_AP.dcm", cleanString("1_2_3_4_CR_AP.dcm"))
	assert.Equal(t, "DOESMITH", cleanString("DOE^SMITH"))
	assert.Equal(t, "a-b", cleanString("a b"))
	assert.Equal(t, "xy", cleanString("x/(y);:[]"))
}

func TestCalculateAge(t *testing.T) {
	assert.Equal(t, "037Y", calculateAge("20200615", "19830102"))
	assert.Equal(t, "000Y", calculateAge("20200615", "20200101"))

	// Dates the wrong way round still yield a usable magnitude.
	assert.Equal(t, "037Y", calculateAge("19830102", "20200615"))

	assert.Equal(t, "", calculateAge("", "19830102"))
	assert.Equal(t, "", calculateAge("20200615", ""))
	assert.Equal(t, "", calculateAge("not-a-date", "19830102"))
	assert.Equal(t, "", calculateAge("20200615", "1983"))
}

func TestOutputPathGrouping(t *testing.T) {
	ds := &dcm.Dataset{}
	id := linklog.Identity{MRN: 7, Accession: 3, Study: 9, Series: 4, SOP: 12}
	filename := "7_9____.dcm"

	w := NewWriter("/out", GroupStudy)
	assert.Equal(t, filepath.Join("/out", "9", filename), w.outputPath(ds, id))

	w.Grouping = GroupMRN
	assert.Equal(t, filepath.Join("/out", "7", filename), w.outputPath(ds, id))

	w.Grouping = GroupNone
	assert.Equal(t, filepath.Join("/out", filename), w.outputPath(ds, id))
}

func TestIDValueCoversEveryField(t *testing.T) {
	id := linklog.Identity{MRN: 1, Accession: 2, Study: 3, Series: 4, SOP: 5}
	assert.Equal(t, "1", idValue(id, idMRN))
	assert.Equal(t, "2", idValue(id, idAccession))
	assert.Equal(t, "3", idValue(id, idStudy))
	assert.Equal(t, "4", idValue(id, idSeries))
	assert.Equal(t, "5", idValue(id, idSOP))
}
