package anonymizer

import "github.com/suyashkumar/dicom/pkg/tag"

// idField selects one component of the resolved identity.
type idField int

const (
	idMRN idField = iota
	idAccession
	idStudy
	idSeries
	idSOP
)

// substitutions is the single declarative table of identifier rewrites:
// each listed tag takes the resolved pseudonymous ID of its field. Tags
// absent from the source record are left absent.
var substitutions = []struct {
	Tag   tag.Tag
	Field idField
}{
	{tag.PatientID, idMRN},
	{tag.PatientName, idMRN},
	{tag.AccessionNumber, idAccession},
	{tag.StudyInstanceUID, idStudy},
	{tag.StudyID, idStudy},
	{tag.SeriesInstanceUID, idSeries},
	{tag.SOPInstanceUID, idSOP},
	{tag.MediaStorageSOPInstanceUID, idSOP},
}

// blanked tags get a fixed placeholder on every output record. Birth date
// keeps its DICOM DA/TM shape so downstream parsers stay happy; the real
// age is preserved separately via PatientAge.
var blanked = []struct {
	Tag   tag.Tag
	Value string
}{
	{tag.PatientBirthDate, "00000000"},
	{tag.PatientBirthTime, "000000.000000"},
	{tag.ReferringPhysicianName, ""},
	{tag.BurnedInAnnotation, ""},
}
