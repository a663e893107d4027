// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package pipeline

import "github.com/prometheus/client_golang/prometheus"

const (
	MetricRows     = "rows_total"
	MetricRowErrs  = "row_errors_total"
	MetricEntities = "entities_emitted_total"
	MetricSources  = "sources_total"
)

var CounterRows = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "disclosure",
		Name:      MetricRows,
		Help:      "Rows read, failed ones included.",
	},
	[]string{"dataset"},
)

var CounterRowErrors = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "disclosure",
		Name:      MetricRowErrs,
		Help:      "Rows skipped because of an error, by error code.",
	},
	[]string{"dataset", "code"},
)

var CounterEntities = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "disclosure",
		Name:      MetricEntities,
		Help:      "Entities and relationships accepted by the sink.",
	},
	[]string{"dataset", "schema"},
)

var CounterSources = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "disclosure",
		Name:      MetricSources,
		Help:      "Sources processed, by outcome.",
	},
	[]string{"dataset", "outcome"},
)

func init() {
	prometheus.MustRegister(CounterRows)
	prometheus.MustRegister(CounterRowErrors)
	prometheus.MustRegister(CounterEntities)
	prometheus.MustRegister(CounterSources)
}
