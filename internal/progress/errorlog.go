// Package progress records per-file failures for later review.
package progress

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"dicom-batch-anonymizer/internal/linklog"
)

// ErrorLog appends per-file failure lines to a log file in the state
// directory. Failures here never abort the batch; the log is the audit
// trail for files that need another pass.
type ErrorLog struct {
	mu    sync.Mutex
	path  string
	file  *os.File
	count int
}

// NewErrorLog opens (or creates) the error log for appending.
func NewErrorLog(path string) (*ErrorLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("could not create log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("could not open error log: %w", err)
	}
	return &ErrorLog{path: path, file: file}, nil
}

// Record appends one failure line for a file.
func (l *ErrorLog) Record(filePath, msg string) {
	l.append(fmt.Sprintf("%s | %s | %s\n", time.Now().Format(time.RFC3339), filePath, msg))
}

// RecordIdentity appends a failure line carrying the resolved identity, so
// a failed write can be retried against the same pseudonymous IDs.
func (l *ErrorLog) RecordIdentity(filePath string, id linklog.Identity, msg string) {
	l.append(fmt.Sprintf("%s | %s | identity %s | %s\n",
		time.Now().Format(time.RFC3339), filePath, id.Key(), msg))
}

func (l *ErrorLog) append(line string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.count++
	if l.file != nil {
		l.file.WriteString(line)
	}
}

// Count returns the number of failures recorded this run.
func (l *ErrorLog) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

// Summary describes the failures recorded this run.
func (l *ErrorLog) Summary() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.count == 0 {
		return "No errors"
	}
	return fmt.Sprintf("%d errors logged to %s", l.count, l.path)
}

// Close flushes and closes the underlying file.
func (l *ErrorLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
