// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package pipeline

import (
	"github.com/molecula/disclosure/logger"
)

// Reporter is told how many rows of a source have been processed, every
// Interval rows and once when the source is drained.
type Reporter interface {
	Notify(count int64, label string)
}

// ReporterFunc adapts a function to a Reporter.
type ReporterFunc func(count int64, label string)

// Notify calls f.
func (f ReporterFunc) Notify(count int64, label string) { f(count, label) }

// LogReporter logs progress at info level.
type LogReporter struct {
	Log logger.Logger
}

// Notify implements Reporter.
func (r LogReporter) Notify(count int64, label string) {
	r.Log.Infof("Parse record %d of %s ...", count, label)
}

// MultiReporter notifies each reporter in turn. A panicking reporter does
// not keep the others from being notified.
type MultiReporter []Reporter

// Notify implements Reporter.
func (m MultiReporter) Notify(count int64, label string) {
	for _, r := range m {
		safeNotify(r, count, label, logger.NopLogger)
	}
}

func safeNotify(r Reporter, count int64, label string, log logger.Logger) {
	defer func() {
		if v := recover(); v != nil {
			log.Warnf("progress reporter failed: %v", v)
		}
	}()
	r.Notify(count, label)
}
