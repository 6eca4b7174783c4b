// Package anonymizer writes the anonymized copy of a decoded record.
//
// The decoded dataset passes through unchanged except for the identifier
// substitutions and placeholder blanks declared in tags.go. Output files
// are grouped into subfolders by study or MRN, or not at all.
package anonymizer

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/suyashkumar/dicom/pkg/tag"

	dcm "dicom-batch-anonymizer/internal/dicom"
	"dicom-batch-anonymizer/internal/linklog"
)

// Grouping selects the output directory layout.
type Grouping string

const (
	// GroupStudy groups output files into one subfolder per anonymized study.
	GroupStudy Grouping = "s"
	// GroupMRN groups output files into one subfolder per anonymized MRN.
	GroupMRN Grouping = "m"
	// GroupNone writes all output files directly under the output root.
	GroupNone Grouping = "n"
)

// ParseGrouping validates a grouping selector.
func ParseGrouping(s string) (Grouping, error) {
	switch Grouping(s) {
	case GroupStudy, GroupMRN, GroupNone:
		return Grouping(s), nil
	}
	return "", fmt.Errorf("invalid grouping %q (want s, m or n)", s)
}

// Writer produces anonymized output records under one output root.
type Writer struct {
	OutputRoot string
	Grouping   Grouping
}

// NewWriter creates a writer for the output root and grouping policy.
func NewWriter(outputRoot string, grouping Grouping) *Writer {
	return &Writer{OutputRoot: outputRoot, Grouping: grouping}
}

// Write substitutes the resolved identity into the dataset and saves the
// anonymized record. The dedup guard upstream guarantees at most one call
// per resolved identity; any failure is returned, never swallowed.
func (w *Writer) Write(ds *dcm.Dataset, id linklog.Identity) error {
	// Derive the age before the birth date placeholder lands.
	age := calculateAge(ds.GetString(tag.StudyDate), ds.GetString(tag.PatientBirthDate))

	for _, s := range substitutions {
		if err := ds.SetString(s.Tag, idValue(id, s.Field)); err != nil {
			return fmt.Errorf("could not substitute tag %v: %w", s.Tag, err)
		}
	}
	if age != "" {
		if err := ds.SetString(tag.PatientAge, age); err != nil {
			return fmt.Errorf("could not set patient age: %w", err)
		}
	}
	for _, b := range blanked {
		if err := ds.SetString(b.Tag, b.Value); err != nil {
			return fmt.Errorf("could not blank tag %v: %w", b.Tag, err)
		}
	}

	return ds.Save(w.outputPath(ds, id))
}

func idValue(id linklog.Identity, f idField) string {
	switch f {
	case idMRN:
		return strconv.FormatInt(id.MRN, 10)
	case idAccession:
		return strconv.FormatInt(id.Accession, 10)
	case idStudy:
		return strconv.FormatInt(id.Study, 10)
	case idSeries:
		return strconv.FormatInt(id.Series, 10)
	default:
		return strconv.FormatInt(id.SOP, 10)
	}
}

// outputPath builds the grouped output location:
// {root}/[{study}|{mrn}/]{mrn}_{study}_{series#}_{instance#}_{modality}_{view}.dcm
func (w *Writer) outputPath(ds *dcm.Dataset, id linklog.Identity) string {
	filename := cleanString(fmt.Sprintf("%d_%d_%s_%s_%s_%s.dcm",
		id.MRN,
		id.Study,
		ds.GetString(tag.SeriesNumber),
		ds.GetString(tag.InstanceNumber),
		ds.GetString(tag.Modality),
		ds.GetString(tag.ViewPosition),
	))

	switch w.Grouping {
	case GroupStudy:
		return filepath.Join(w.OutputRoot, strconv.FormatInt(id.Study, 10), filename)
	case GroupMRN:
		return filepath.Join(w.OutputRoot, strconv.FormatInt(id.MRN, 10), filename)
	default:
		return filepath.Join(w.OutputRoot, filename)
	}
}

var filenameCleaner = strings.NewReplacer(
	"/", "", "(", "", ")", "", "^", "", "[", "", "]", "", ";", "", ":", "",
	" ", "-",
)

// cleanString strips filesystem-hostile characters from a filename and
// replaces spaces with dashes.
func cleanString(s string) string {
	return filenameCleaner.Replace(s)
}

const dicomDateLayout = "20060102"

// calculateAge derives a DICOM AS value ("037Y") from the study date and
// birth date, empty when either is missing or malformed.
func calculateAge(studyDate, birthDate string) string {
	if studyDate == "" || birthDate == "" {
		return ""
	}
	d1, err := time.Parse(dicomDateLayout, studyDate)
	if err != nil {
		return ""
	}
	d2, err := time.Parse(dicomDateLayout, birthDate)
	if err != nil {
		return ""
	}
	days := int(d1.Sub(d2).Hours() / 24)
	if days < 0 {
		days = -days
	}
	return fmt.Sprintf("%03dY", days/365)
}
