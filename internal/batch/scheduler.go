// Package batch drives the resumable anonymization pass over a work
// partition.
//
// Directories are the unit of both parallelism and resumability: a worker
// owns one directory at a time, and a directory is either fully processed
// (and removed from the partition) or fully untouched. All shared mutable
// state lives behind a single coordinator goroutine; workers reach it only
// through channels, so resolving and deduplicating one record is one
// serialized operation.
package batch

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"dicom-batch-anonymizer/internal/linklog"
	"dicom-batch-anonymizer/internal/partition"
	"dicom-batch-anonymizer/internal/progress"
	"dicom-batch-anonymizer/internal/space"
	"dicom-batch-anonymizer/internal/store"
)

// Record is a decoded input record. The scheduler only needs the five
// identifier values; the rest of the record passes through to the writer.
type Record interface {
	Identifiers() (linklog.CaseValues, []string)
}

// Decoder parses one input file into a Record.
type Decoder interface {
	Decode(path string) (Record, error)
}

// Writer emits the anonymized output for a record. The dedup guard ensures
// it is called at most once per resolved identity.
type Writer interface {
	Write(rec Record, id linklog.Identity) error
}

// Stats summarizes one run segment.
type Stats struct {
	DirsCompleted  int
	DirsTotal      int
	FilesSeen      int
	Emitted        int
	Duplicates     int
	Invalid        int
	DecodeFailures int
	WriteFailures  int
	BytesCommitted int64
	SoftStop       bool
}

// Scheduler iterates the partition, applying the space budget, link
// tables and dedup guard per record, and checkpointing durable state
// after every completed directory.
type Scheduler struct {
	Set       *linklog.Set
	Partition partition.Partition
	Budget    *space.Budget
	Store     *store.Manager
	Decoder   Decoder
	Writer    Writer
	Errors    *progress.ErrorLog // optional
	Log       *slog.Logger
	Workers   int

	// OnDirDone, when set, is called after each directory completes.
	OnDirDone func(done, total int)
}

type dirJob struct {
	dir   string
	entry *partition.Entry
}

type resolveReq struct {
	values linklog.CaseValues
	reply  chan resolveResp
}

type resolveResp struct {
	id       linklog.Identity
	decision linklog.Decision
}

type completion struct {
	dir  string
	size int64
}

type counters struct {
	filesSeen      atomic.Int64
	emitted        atomic.Int64
	duplicates     atomic.Int64
	invalid        atomic.Int64
	decodeFailures atomic.Int64
	writeFailures  atomic.Int64
}

// Run executes one run segment: it admits directories in partition-key
// order until the space budget says stop, processes each admitted
// directory's queue, and persists all link tables and the shrunken
// partition after every completed directory and once more on exit.
//
// Only a failed final checkpoint is returned as an error; everything at
// file granularity is absorbed and surfaced through logs and Stats.
func (s *Scheduler) Run(ctx context.Context) (Stats, error) {
	log := s.Log
	if log == nil {
		log = slog.Default()
	}
	workers := s.Workers
	if workers < 1 {
		workers = 1
	}

	dirs := s.Partition.Dirs()
	jobs := make([]dirJob, 0, len(dirs))
	for _, d := range dirs {
		jobs = append(jobs, dirJob{dir: d, entry: s.Partition[d]})
	}

	stats := Stats{DirsTotal: len(jobs)}
	var c counters

	resolveCh := make(chan resolveReq)
	completeCh := make(chan completion)
	coordDone := make(chan error, 1)

	// Coordinator: sole owner of the link tables, the partition and the
	// checkpoint cadence.
	go func() {
		var checkpointErr error
		resolves, completions := resolveCh, completeCh
		for resolves != nil || completions != nil {
			select {
			case req, ok := <-resolves:
				if !ok {
					resolves = nil
					continue
				}
				id, decision := s.Set.ResolveCase(req.values)
				req.reply <- resolveResp{id: id, decision: decision}
			case done, ok := <-completions:
				if !ok {
					completions = nil
					continue
				}
				s.Partition.Remove(done.dir)
				stats.DirsCompleted++
				stats.BytesCommitted += done.size
				if err := s.checkpoint(); err != nil {
					log.Warn("checkpoint failed; progress since last checkpoint may repeat", "error", err)
				}
				if s.OnDirDone != nil {
					s.OnDirDone(stats.DirsCompleted, stats.DirsTotal)
				}
			}
		}
		checkpointErr = s.checkpoint()
		coordDone <- checkpointErr
	}()

	jobCh := make(chan dirJob)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobCh {
				s.processDir(job, resolveCh, &c, log)
				completeCh <- completion{dir: job.dir, size: job.entry.Size}
			}
		}()
	}

	// Dispatcher: the admission check runs here, so no worker starts a
	// new directory once the budget is exhausted.
dispatch:
	for _, job := range jobs {
		if ctx.Err() != nil {
			stats.SoftStop = true
			log.Warn("run cancelled; remaining directories stay in the partition")
			break dispatch
		}
		if !s.Budget.Admit(job.entry.Size) {
			stats.SoftStop = true
			log.Warn("ran out of space to write files",
				"directory", job.dir, "size", job.entry.Size, "remaining", s.Budget.Remaining())
			break dispatch
		}
		jobCh <- job
	}
	close(jobCh)
	wg.Wait()
	close(resolveCh)
	close(completeCh)
	err := <-coordDone

	stats.FilesSeen = int(c.filesSeen.Load())
	stats.Emitted = int(c.emitted.Load())
	stats.Duplicates = int(c.duplicates.Load())
	stats.Invalid = int(c.invalid.Load())
	stats.DecodeFailures = int(c.decodeFailures.Load())
	stats.WriteFailures = int(c.writeFailures.Load())
	return stats, err
}

// processDir works through one directory's queue in scan order. Every
// per-file condition is absorbed here: decode failures, missing
// identifier tags and write failures are logged and skipped, never
// propagated.
func (s *Scheduler) processDir(job dirJob, resolveCh chan<- resolveReq, c *counters, log *slog.Logger) {
	reply := make(chan resolveResp, 1)
	for _, path := range job.entry.Queue {
		c.filesSeen.Add(1)

		rec, err := s.Decoder.Decode(path)
		if err != nil {
			c.decodeFailures.Add(1)
			log.Warn("could not decode record", "file", path, "error", err)
			if s.Errors != nil {
				s.Errors.Record(path, err.Error())
			}
			continue
		}

		values, missing := rec.Identifiers()
		if len(missing) > 0 {
			c.invalid.Add(1)
			for _, field := range missing {
				log.Warn("required identifier tag missing", "file", path, "tag", field)
			}
			continue
		}

		resolveCh <- resolveReq{values: values, reply: reply}
		resp := <-reply
		if resp.decision == linklog.Skip {
			c.duplicates.Add(1)
			log.Info("identity tuple has already been anonymized", "file", path, "identity", resp.id.Key())
			continue
		}

		if err := s.Writer.Write(rec, resp.id); err != nil {
			c.writeFailures.Add(1)
			log.Warn("could not write anonymized record",
				"file", path, "identity", resp.id.Key(), "error", err)
			if s.Errors != nil {
				s.Errors.RecordIdentity(path, resp.id, err.Error())
			}
			continue
		}
		c.emitted.Add(1)
	}
}

// checkpoint persists the five link tables, the master case log and the
// partition. Called by the coordinator only.
func (s *Scheduler) checkpoint() error {
	if err := s.Set.Snapshot(s.Store); err != nil {
		return err
	}
	return s.Partition.Snapshot(s.Store)
}
