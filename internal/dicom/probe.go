package dicom

import (
	"io"
	"os"

	"github.com/suyashkumar/dicom"
)

// HasMagicBytes checks for the DICOM magic bytes ("DICM" at offset 128).
func HasMagicBytes(path string) bool {
	file, err := os.Open(path)
	if err != nil {
		return false
	}
	defer file.Close()

	header := make([]byte, 132)
	if _, err := io.ReadFull(file, header); err != nil {
		return false
	}
	return string(header[128:132]) == "DICM"
}

// IsDicomFile reports whether a file without a recognized extension is a
// parseable DICOM record. Used as the scanner's structural probe; a parse
// failure here is expected signal, not an error.
func IsDicomFile(path string) bool {
	if !HasMagicBytes(path) {
		return false
	}

	file, err := os.Open(path)
	if err != nil {
		return false
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return false
	}

	_, err = dicom.Parse(file, info.Size(), nil, dicom.SkipPixelData())
	return err == nil
}
