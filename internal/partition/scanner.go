package partition

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotDirectory reports that the scan root does not denote an existing
// directory. Callers treat it as "nothing to do", not a crash.
var ErrNotDirectory = errors.New("input directory does not exist")

// recordExtensions are the extensions accepted without probing.
var recordExtensions = map[string]bool{
	".dcm":   true,
	".dicom": true,
}

// Probe reports whether a file with an inconclusive extension is a record.
// A probe failure is expected signal, never an error.
type Probe func(path string) bool

// Scan walks the tree rooted at root exactly once and builds a fresh
// partition: one entry per visited directory (empty queues included),
// recording the queue of record file paths and their summed size. Files
// whose extension is not on the allow-list are classified by probe.
func Scan(root string, probe Probe, log *slog.Logger) (Partition, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		log.Error("input directory does not exist - check the path", "path", root)
		return New(), ErrNotDirectory
	}

	log.Info("scanning for record files", "path", root)

	p := New()
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped, not fatal.
			log.Warn("skipping unreadable entry", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			p[path] = &Entry{}
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		isRecord := recordExtensions[ext]
		if !isRecord && probe != nil {
			isRecord = probe(path)
		}
		if !isRecord {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			log.Warn("could not stat record file", "path", path, "error", err)
			return nil
		}
		entry := p[filepath.Dir(path)]
		if entry == nil {
			entry = &Entry{}
			p[filepath.Dir(path)] = entry
		}
		entry.Queue = append(entry.Queue, path)
		entry.Size += fi.Size()
		return nil
	})
	if walkErr != nil {
		return p, walkErr
	}
	return p, nil
}
