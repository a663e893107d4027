// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package ctl

import (
	"time"

	"github.com/spf13/cobra"
)

// BuildParseFlags attaches the configuration flags of a parse run to the
// command. Flag names are the TOML keys of Config.
func BuildParseFlags(cmd *cobra.Command, pc *ParseCommand) {
	c := pc.Config
	flags := cmd.Flags()
	flags.StringVarP(&c.Dataset, "dataset", "d", c.Dataset, "Dataset to parse; see the datasets command.")
	flags.StringVarP(&c.Input, "input", "i", c.Input, "Input file or directory, http(s) URL or s3://bucket/key.")
	flags.StringVar(&c.Prefix, "prefix", c.Prefix, "Only parse the tables whose label starts with this prefix.")
	flags.StringVar(&c.Columns, "columns", c.Columns, "YAML file of column rules keyed by dataset, tried before the default ones.")
	flags.IntVar(&c.Concurrency, "concurrency", c.Concurrency, "Number of tables parsed at once.")
	flags.Int64Var(&c.ProgressInterval, "progress-interval", c.ProgressInterval, "Log progress every this many rows; the dataset default when 0.")
	flags.BoolVar(&c.Verbose, "verbose", c.Verbose, "Enable verbose logging.")
	flags.StringVar(&c.LogPath, "log-path", c.LogPath, "Log to this file instead of stderr; reopened on SIGHUP.")

	// Output
	flags.StringSliceVar(&c.Output.Types, "output.types", c.Output.Types, "Outputs to write: jsonl, bolt, sql or kafka.")
	flags.StringVarP(&c.Output.Path, "output.path", "o", c.Output.Path, "Output file of the jsonl and bolt outputs; - is stdout.")
	flags.StringVar(&c.Output.Driver, "output.driver", c.Output.Driver, "SQL driver of the sql output: sqlite or postgres.")
	flags.StringVar(&c.Output.DSN, "output.dsn", c.Output.DSN, "Data source name of the sql output.")

	// Kafka
	flags.StringSliceVar(&c.Kafka.Hosts, "kafka.hosts", c.Kafka.Hosts, "Kafka brokers.")
	flags.StringVar(&c.Kafka.Topic, "kafka.topic", c.Kafka.Topic, "Kafka topic receiving entities.")
	flags.IntVar(&c.Kafka.BatchSize, "kafka.batch-size", c.Kafka.BatchSize, "Number of entities published at once.")
	flags.DurationVar((*time.Duration)(&c.Kafka.Timeout), "kafka.timeout", time.Duration(c.Kafka.Timeout), "Time allowed to publish a batch.")
	flags.BoolVar(&c.Kafka.CreateTopic, "kafka.create-topic", c.Kafka.CreateTopic, "Create the topic, log compacted, before publishing.")
	flags.IntVar(&c.Kafka.Partitions, "kafka.partitions", c.Kafka.Partitions, "Partitions of a created topic.")

	// Fetching
	flags.IntVar(&c.HTTP.Retries, "http.retries", c.HTTP.Retries, "Retries of a failed download.")
	flags.StringVar(&c.S3.Region, "s3.region", c.S3.Region, "AWS region of s3 inputs.")

	// Metrics
	flags.StringVar(&c.Metrics.Bind, "metrics.bind", c.Metrics.Bind, "Address serving prometheus metrics at /metrics; off when empty.")

	// Tracing
	flags.StringVar(&c.Tracing.AgentHostPort, "tracing.agent-host-port", c.Tracing.AgentHostPort, "Jaeger agent host:port; tracing is off when empty.")
	flags.StringVar(&c.Tracing.SamplerType, "tracing.sampler-type", c.Tracing.SamplerType, "Jaeger sampler type (remote, const, probabilistic, ratelimiting).")
	flags.Float64Var(&c.Tracing.SamplerParam, "tracing.sampler-param", c.Tracing.SamplerParam, "Jaeger sampler parameter.")
}
