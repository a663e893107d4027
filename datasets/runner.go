// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package datasets

import (
	"context"
	"strings"
	"sync"

	"github.com/molecula/disclosure"
	"github.com/molecula/disclosure/errors"
	"github.com/molecula/disclosure/logger"
	"github.com/molecula/disclosure/pipeline"
	"github.com/molecula/disclosure/source"
	"github.com/molecula/disclosure/tracing"
	"golang.org/x/sync/errgroup"
)

// Runner runs the jobs of a dataset into a sink.
type Runner struct {
	Sink disclosure.Sink
	// Columns are tried before each job's default column rules.
	Columns     disclosure.ColumnMap
	Reporter    pipeline.Reporter
	Progress    *pipeline.ProgressTracker
	Concurrency int
	// Interval overrides the jobs' progress intervals when positive.
	Interval int64
	// Prefix, when set, restricts the run to jobs whose label starts
	// with it.
	Prefix string
	Log    logger.Logger
}

// Summary is the outcome of a Runner.Run.
type Summary struct {
	Stats []pipeline.Stats
	// Failed maps the labels of the jobs which could not be read to the
	// error which stopped them.
	Failed map[string]error
}

// Rows returns the number of rows read over all jobs.
func (s Summary) Rows() int64 {
	var n int64
	for _, st := range s.Stats {
		n += st.Rows
	}
	return n
}

// Complete reports whether every job drained its source.
func (s Summary) Complete() bool {
	if len(s.Failed) > 0 {
		return false
	}
	for _, st := range s.Stats {
		if !st.Complete {
			return false
		}
	}
	return true
}

// Run plans d over path and runs the jobs, Concurrency at a time. A job
// whose source cannot be opened or read is logged and recorded in the
// summary; the other jobs still run. The error reports failed jobs. A job
// failing to open with ErrUnknownVariant is a table the dataset does not
// know how to read: it is skipped with a warning.
func (r *Runner) Run(ctx context.Context, d Dataset, path string) (Summary, error) {
	log := r.Log
	if log == nil {
		log = logger.NopLogger
	}
	log = log.WithPrefix("[" + d.Name() + "] ")

	span, ctx := tracing.StartSpanFromContext(ctx, "datasets.Run")
	defer span.Finish()
	span.LogKV("dataset", d.Name(), "path", path)

	jobs, err := d.Plan(path)
	if err != nil {
		return Summary{}, errors.Wrapf(err, "planning %s", d.Name())
	}
	if len(jobs) == 0 {
		log.Warnf("no input found at %s", path)
	}

	var mu sync.Mutex
	sum := Summary{Failed: make(map[string]error)}
	eg, ctx := errgroup.WithContext(ctx)
	n := r.Concurrency
	if n < 1 {
		n = 1
	}
	eg.SetLimit(n)
	planned := 0
	for _, job := range jobs {
		if !strings.HasPrefix(job.Label, r.Prefix) {
			log.Debugf("skipping %s", job.Label)
			continue
		}
		planned++
		job := job.WithColumns(r.Columns)
		eg.Go(func() error {
			stats, err := r.runJob(ctx, d, job, log)
			mu.Lock()
			defer mu.Unlock()
			if errors.Is(err, errors.ErrUnknownVariant) {
				log.Warnf("%s: %v", job.Label, err)
				return nil
			}
			if err != nil {
				log.Errorf("%s: %v", job.Label, err)
				sum.Failed[job.Label] = err
				return nil
			}
			sum.Stats = append(sum.Stats, stats)
			return nil
		})
	}
	_ = eg.Wait()

	if len(sum.Failed) > 0 {
		return sum, errors.Errorf("%d of %d sources failed", len(sum.Failed), planned)
	}
	return sum, nil
}

func (r *Runner) runJob(ctx context.Context, d Dataset, job Job, log logger.Logger) (pipeline.Stats, error) {
	span, ctx := tracing.StartSpanFromContext(ctx, "datasets.runJob")
	defer span.Finish()
	span.LogKV("label", job.Label)

	log.Infof("Opening: %s", job.Label)
	src, err := job.Open(ctx)
	if err != nil {
		return pipeline.Stats{}, err
	}
	defer src.Close()
	if l, ok := src.(source.Logged); ok {
		l.SetLogger(log)
	}

	interval := job.Interval
	if r.Interval > 0 {
		interval = r.Interval
	}
	p := &pipeline.Pipeline{
		Source:   src,
		Schema:   job.Schema,
		Handler:  job.Handler,
		Emitter:  disclosure.NewEmitter(d.Name(), r.Sink, log),
		Reporter: r.Reporter,
		Interval: interval,
		Label:    job.Label,
		KeyField: job.KeyField,
		Progress: r.Progress,
		Log:      log,
	}
	stats, err := p.Run(ctx)
	if err != nil {
		return stats, err
	}
	log.Infof("Parsed %d records of %s (%d failed, %d entities).", stats.Rows, job.Label, stats.Failed, p.Emitter.Total())
	return stats, nil
}

func decodeError(err error, label string) error {
	return errors.Wrap(errors.New(errors.ErrSourceDecode, err.Error()), label)
}
