// Package cli wires the batch components together for one command run.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"

	"dicom-batch-anonymizer/internal/anonymizer"
	"dicom-batch-anonymizer/internal/batch"
	"dicom-batch-anonymizer/internal/config"
	dcm "dicom-batch-anonymizer/internal/dicom"
	"dicom-batch-anonymizer/internal/linklog"
	"dicom-batch-anonymizer/internal/partition"
	"dicom-batch-anonymizer/internal/progress"
	"dicom-batch-anonymizer/internal/space"
	"dicom-batch-anonymizer/internal/store"
)

// Run executes one anonymization run segment. A missing input directory
// and space exhaustion are non-fatal early exits; only unusable durable
// state aborts before any processing.
func Run(ctx context.Context, opts config.Options, log *slog.Logger) error {
	grouping, err := anonymizer.ParseGrouping(opts.Grouping)
	if err != nil {
		return err
	}

	st, err := store.New(opts.StateDir)
	if err != nil {
		return err
	}
	set, err := linklog.LoadSet(st, opts.CaseSensitive)
	if err != nil {
		return err
	}

	part, resumed, err := partition.Load(st)
	if err != nil {
		return err
	}
	if resumed {
		log.Info("resuming from existing partition",
			"directories", len(part), "files", part.TotalFiles(),
			"pending", humanize.Bytes(uint64(part.TotalSize())))
	} else {
		part, err = partition.Scan(opts.InputDir, dcm.IsDicomFile, log)
		if errors.Is(err, partition.ErrNotDirectory) {
			return nil // nothing to do; already logged
		}
		if err != nil {
			return err
		}
		// Persist the fresh partition before any processing, so even a
		// run killed mid-directory resumes from a complete inventory.
		if err := part.Snapshot(st); err != nil {
			return err
		}
		log.Info("scan complete",
			"directories", len(part), "files", part.TotalFiles(),
			"size", humanize.Bytes(uint64(part.TotalSize())))
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return fmt.Errorf("could not create output directory: %w", err)
	}
	budget, err := space.New(int64(opts.SpaceGB*1e9), opts.OutputDir)
	if err != nil {
		return err
	}

	errLog, err := progress.NewErrorLog(filepath.Join(st.Dir(), "errors.log"))
	if err != nil {
		return err
	}
	defer errLog.Close()

	pb := newProgressBar(50)
	sched := &batch.Scheduler{
		Set:       set,
		Partition: part,
		Budget:    budget,
		Store:     st,
		Decoder:   dicomDecoder{},
		Writer:    recordWriter{w: anonymizer.NewWriter(opts.OutputDir, grouping)},
		Errors:    errLog,
		Log:       log,
		Workers:   opts.Workers,
		OnDirDone: pb.update,
	}

	stats, runErr := sched.Run(ctx)
	if stats.DirsCompleted > 0 {
		fmt.Println()
	}
	printSummary(stats, opts, errLog)
	return runErr
}

// dicomDecoder adapts the DICOM reader to the scheduler's Decoder.
type dicomDecoder struct{}

func (dicomDecoder) Decode(path string) (batch.Record, error) {
	ds, err := dcm.ReadDicom(path)
	if err != nil {
		return nil, err
	}
	return ds, nil
}

// recordWriter adapts the anonymizer to the scheduler's Writer.
type recordWriter struct {
	w *anonymizer.Writer
}

func (rw recordWriter) Write(rec batch.Record, id linklog.Identity) error {
	ds, ok := rec.(*dcm.Dataset)
	if !ok {
		return fmt.Errorf("unexpected record type %T", rec)
	}
	return rw.w.Write(ds, id)
}

func printSummary(stats batch.Stats, opts config.Options, errLog *progress.ErrorLog) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendRows([]table.Row{
		{"Directories", fmt.Sprintf("%d / %d", stats.DirsCompleted, stats.DirsTotal)},
		{"Files seen", stats.FilesSeen},
		{"Anonymized", stats.Emitted},
		{"Duplicates skipped", stats.Duplicates},
		{"Invalid records", stats.Invalid},
		{"Decode failures", stats.DecodeFailures},
		{"Write failures", stats.WriteFailures},
		{"Data committed", humanize.Bytes(uint64(stats.BytesCommitted))},
	})
	t.Render()

	fmt.Printf("Errors:  %s\n", errLog.Summary())
	fmt.Printf("Output:  %s\n", opts.OutputDir)
	fmt.Printf("State:   %s\n", opts.StateDir)
	if stats.SoftStop {
		fmt.Println("Ran out of space to write files. All progress is saved;")
		fmt.Println("re-run with more space to continue where this run stopped.")
	}
}
