// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package pipeline

import (
	"sync/atomic"

	"github.com/molecula/disclosure/source"
)

// ProgressTracker tracks the progress of record sourcing. One tracker may
// be shared by pipelines running concurrently.
type ProgressTracker struct {
	progress uint64
}

// proceed is called after a record is sourced.
func (t *ProgressTracker) proceed() {
	atomic.AddUint64(&t.progress, 1)
}

// Check the number of records that have been sourced so far.
func (t *ProgressTracker) Check() uint64 {
	return atomic.LoadUint64(&t.progress)
}

type trackedSource struct {
	source.Source
	t *ProgressTracker
}

func (ts *trackedSource) Record() (*source.Record, error) {
	r, err := ts.Source.Record()
	if err == nil {
		ts.t.proceed()
	}
	return r, err
}

// Track wraps src so that every record it returns is counted.
func (t *ProgressTracker) Track(src source.Source) source.Source {
	return &trackedSource{src, t}
}
