package dicom

import (
	"fmt"
	"os"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"dicom-batch-anonymizer/internal/linklog"
)

// identifierTags are the DICOM tags feeding the link tables, in resolution
// order: PatientID, AccessionNumber, StudyInstanceUID, SeriesInstanceUID,
// SOPInstanceUID.
var identifierTags = []tag.Tag{
	tag.PatientID,
	tag.AccessionNumber,
	tag.StudyInstanceUID,
	tag.SeriesInstanceUID,
	tag.SOPInstanceUID,
}

var identifierTagNames = []string{
	"PatientID",
	"AccessionNumber",
	"StudyInstanceUID",
	"SeriesInstanceUID",
	"SOPInstanceUID",
}

// Dataset wraps a parsed DICOM dataset for easier access.
type Dataset struct {
	Data     dicom.Dataset
	FilePath string
}

// ReadDicom reads and parses a DICOM file, pixel data included: the
// dataset passes through to the writer untouched apart from identifier
// substitution.
func ReadDicom(path string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("could not stat file: %w", err)
	}

	ds, err := dicom.Parse(file, info.Size(), nil)
	if err != nil {
		return nil, fmt.Errorf("could not parse DICOM: %w", err)
	}

	return &Dataset{
		Data:     ds,
		FilePath: path,
	}, nil
}

// GetString returns a string value for a tag, or empty string if not found.
func (d *Dataset) GetString(t tag.Tag) string {
	elem, err := d.Data.FindElementByTag(t)
	if err != nil {
		return ""
	}

	if elem.Value == nil {
		return ""
	}

	value := elem.Value.GetValue()
	if value == nil {
		return ""
	}

	switch v := value.(type) {
	case []string:
		if len(v) > 0 {
			return v[0]
		}
		return ""
	case string:
		return v
	}

	return fmt.Sprintf("%v", value)
}

// Has reports whether the dataset carries the tag at all. An empty value
// still counts as present.
func (d *Dataset) Has(t tag.Tag) bool {
	_, err := d.Data.FindElementByTag(t)
	return err == nil
}

// Identifiers extracts the five identifier values. missing lists the names
// of required tags absent from the dataset; a record with any missing tag
// is invalid and must be skipped entirely.
func (d *Dataset) Identifiers() (linklog.CaseValues, []string) {
	var missing []string
	values := make([]string, len(identifierTags))
	for i, t := range identifierTags {
		if !d.Has(t) {
			missing = append(missing, identifierTagNames[i])
			continue
		}
		values[i] = d.GetString(t)
	}
	return linklog.CaseValues{
		MRN:       values[0],
		Accession: values[1],
		Study:     values[2],
		Series:    values[3],
		SOP:       values[4],
	}, missing
}
