// Package space enforces the safe-to-use output capacity for one run.
package space

import (
	"fmt"
	"sync"

	"github.com/shirou/gopsutil/v4/disk"
)

// Reserve is the fixed safety margin kept free on the output filesystem.
const Reserve = 50 * 1000 * 1000

// Budget tracks the remaining safe-to-use output capacity. The remaining
// quantity is derived from the user-declared ceiling and the live
// filesystem free space at startup, minus the reserve; it is never
// persisted and is recomputed for every run.
type Budget struct {
	mu        sync.Mutex
	remaining int64
	outDir    string
	free      func(path string) (uint64, error)
}

func diskFree(path string) (uint64, error) {
	usage, err := disk.Usage(path)
	if err != nil {
		return 0, err
	}
	return usage.Free, nil
}

// New derives a budget for the output directory. A ceiling of 0 or less
// means "whatever the filesystem has".
func New(ceiling int64, outDir string) (*Budget, error) {
	b := &Budget{outDir: outDir, free: diskFree}
	free, err := b.free(outDir)
	if err != nil {
		return nil, fmt.Errorf("could not determine free space for %s: %w", outDir, err)
	}
	remaining := int64(free)
	if ceiling > 0 && ceiling < remaining {
		remaining = ceiling
	}
	remaining -= Reserve
	if remaining < 0 {
		remaining = 0
	}
	b.remaining = remaining
	return b, nil
}

// Remaining returns the bytes still safe to commit.
func (b *Budget) Remaining() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.remaining
}

// Admit reserves size bytes for one directory if the budget and the live
// filesystem free space still allow it. A false return is the soft-stop
// signal: no further directories may be scheduled this run.
//
// Reserving at admission rather than at completion keeps concurrent
// directories from overcommitting the same bytes; for a single worker the
// two are equivalent.
func (b *Budget) Admit(size int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if size > b.remaining {
		return false
	}
	if free, err := b.free(b.outDir); err == nil && free < Reserve {
		return false
	}
	b.remaining -= size
	return true
}
