// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

// Package pipeline drives one source through row normalization, entity
// building and emission. A failed row is logged and counted; only an
// unreadable source stops the run.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"runtime/debug"
	"strings"
	"sync/atomic"
	"time"

	"github.com/molecula/disclosure"
	"github.com/molecula/disclosure/errors"
	"github.com/molecula/disclosure/logger"
	"github.com/molecula/disclosure/source"
	"github.com/molecula/disclosure/tracing"
)

// DefaultInterval is the number of rows between progress notifications.
const DefaultInterval = 10000

// State is the position of a Pipeline in its run.
type State int32

const (
	Idle State = iota
	Reading
	ProcessingRow
	RowError
	Drained
	Fatal
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Reading:
		return "reading"
	case ProcessingRow:
		return "processing"
	case RowError:
		return "row-error"
	case Drained:
		return "drained"
	case Fatal:
		return "fatal"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// Handler builds and emits the entities and relationships of one row,
// entities before the relationships referencing them.
type Handler func(ctx context.Context, em *disclosure.Emitter, row disclosure.Row) error

// Stats summarizes a run.
type Stats struct {
	Label  string
	Rows   int64
	Failed int64
	// Errors counts failed rows by error code.
	Errors   map[errors.Code]int64
	Emitted  map[string]int
	Skipped  int
	Complete bool
	Duration time.Duration
}

// Pipeline reads Source one record at a time. Each record is normalized
// with Schema and handed to Handler, which emits through Emitter.
type Pipeline struct {
	Source   source.Source
	Schema   *disclosure.RowSchema
	Handler  Handler
	Emitter  *disclosure.Emitter
	Reporter Reporter
	// Interval is the number of rows between progress notifications,
	// DefaultInterval when zero.
	Interval int64
	// Label names the source in logs and progress; the source label is
	// used when empty.
	Label string
	// KeyField, if set, names the row field identifying the row in error
	// logs.
	KeyField string
	// Progress, if set, counts the records read from Source.
	Progress *ProgressTracker
	Log      logger.Logger

	state int32
}

// State returns the current state of the pipeline.
func (p *Pipeline) State() State {
	return State(atomic.LoadInt32(&p.state))
}

func (p *Pipeline) setState(s State) {
	atomic.StoreInt32(&p.state, int32(s))
}

// Run processes the source until it is drained, unreadable, or ctx is
// done. Cancellation is not an error: the entities emitted so far stand
// and Stats.Complete stays false. Run does not close the source.
func (p *Pipeline) Run(ctx context.Context) (stats Stats, err error) {
	if p.Log == nil {
		p.Log = logger.NopLogger
	}
	if p.Schema == nil {
		p.Schema = &disclosure.RowSchema{}
	}
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	label := p.Label
	if label == "" {
		label = p.Source.Label()
	}
	src := p.Source
	if p.Progress != nil {
		src = p.Progress.Track(src)
	}

	span, ctx := tracing.StartSpanFromContext(ctx, "pipeline.Run")
	defer span.Finish()

	dataset := p.Emitter.Dataset
	prev := p.Emitter.OnEmit
	p.Emitter.OnEmit = func(e *disclosure.Entity) {
		CounterEntities.WithLabelValues(dataset, e.Schema.Name).Inc()
		if prev != nil {
			prev(e)
		}
	}
	defer func() { p.Emitter.OnEmit = prev }()

	start := time.Now()
	stats = Stats{Label: label, Errors: make(map[errors.Code]int64)}
	defer func() {
		stats.Duration = time.Since(start)
		stats.Emitted = p.Emitter.Emitted()
		stats.Skipped = p.Emitter.Skipped()
		span.LogKV("rows", stats.Rows, "failed", stats.Failed, "complete", stats.Complete)
		outcome := "complete"
		if err != nil {
			outcome = "failed"
		} else if !stats.Complete {
			outcome = "cancelled"
		}
		CounterSources.WithLabelValues(dataset, outcome).Inc()
	}()

	for {
		if cerr := ctx.Err(); cerr != nil {
			p.Log.Warnf("stopping %s after %d rows: %v", label, stats.Rows, cerr)
			return stats, nil
		}

		p.setState(Reading)
		rec, rerr := src.Record()
		if rerr == io.EOF {
			break
		} else if rerr != nil {
			p.setState(Fatal)
			if !errors.Is(rerr, errors.ErrSourceDecode) {
				rerr = errors.Wrap(errors.New(errors.ErrSourceDecode, rerr.Error()), "reading record")
			}
			return stats, errors.Wrapf(rerr, "%s after %d rows", label, stats.Rows)
		}

		p.setState(ProcessingRow)
		stats.Rows++
		CounterRows.WithLabelValues(dataset).Inc()
		if perr := p.process(ctx, rec); perr != nil {
			p.setState(RowError)
			code := errors.CodeOf(perr)
			stats.Failed++
			stats.Errors[code]++
			CounterRowErrors.WithLabelValues(dataset, string(code)).Inc()
			p.logRowError(label, rec, perr)
		}

		if stats.Rows%interval == 0 {
			p.notify(stats.Rows, label)
		}
	}

	p.setState(Drained)
	stats.Complete = true
	p.notify(stats.Rows, label)
	return stats, nil
}

// process handles one record. Panics are returned as errors.
func (p *Pipeline) process(ctx context.Context, rec *source.Record) (err error) {
	defer func() {
		if r := recover(); r != nil {
			p.Log.Debugf("panic processing row %d: %v\n%s", rec.Ordinal, r, debug.Stack())
			err = errors.Errorf("panic: %v", r)
		}
	}()
	row, err := p.Schema.Normalize(rec.Header, rec.Values)
	if err != nil {
		return err
	}
	return p.Handler(ctx, p.Emitter, row)
}

func (p *Pipeline) logRowError(label string, rec *source.Record, err error) {
	slug := ""
	if p.KeyField != "" {
		for i, h := range rec.Header {
			if p.Schema.Columns.Rename(h) != p.KeyField || i >= len(rec.Values) {
				continue
			}
			if v := strings.TrimSpace(rec.Values[i]); v != "" {
				slug = " [" + v + "]"
			}
			break
		}
	}
	switch errors.CodeOf(err) {
	case errors.ErrUnknownVariant:
		p.Log.Warnf("%s row %d%s: %v", label, rec.Ordinal, slug, err)
	case errors.ErrUnresolvableIdentity:
		p.Log.Debugf("%s row %d%s: %v", label, rec.Ordinal, slug, err)
	default:
		p.Log.Errorf("%s row %d%s: %v", label, rec.Ordinal, slug, err)
	}
}

func (p *Pipeline) notify(count int64, label string) {
	if p.Reporter == nil {
		return
	}
	safeNotify(p.Reporter, count, label, p.Log)
}
