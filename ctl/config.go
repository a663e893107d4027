// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package ctl

import (
	"time"

	"github.com/molecula/disclosure/kafka"
	"github.com/molecula/disclosure/sqlstore"
	"github.com/molecula/disclosure/toml"
)

// Output types.
const (
	OutputJSONL = "jsonl"
	OutputBolt  = "bolt"
	OutputSQL   = "sql"
	OutputKafka = "kafka"
)

// Config is the configuration of a parse run. Its TOML keys are the names
// of the command line flags.
type Config struct {
	Dataset string `toml:"dataset"`
	// Input is a local file or directory, an http(s) URL or an s3 URL.
	Input string `toml:"input"`
	// Prefix restricts the run to the tables whose label starts with it.
	Prefix string `toml:"prefix"`
	// Columns is a YAML file of column maps keyed by dataset name.
	Columns     string `toml:"columns"`
	Concurrency int    `toml:"concurrency"`
	// ProgressInterval overrides the datasets' progress intervals when
	// positive.
	ProgressInterval int64  `toml:"progress-interval"`
	Verbose          bool   `toml:"verbose"`
	LogPath          string `toml:"log-path"`

	Output struct {
		// Types lists the sinks written to: jsonl, bolt, sql or kafka.
		Types  []string `toml:"types"`
		Path   string   `toml:"path"`
		Driver string   `toml:"driver"`
		DSN    string   `toml:"dsn"`
	} `toml:"output"`

	Kafka struct {
		Hosts       []string      `toml:"hosts"`
		Topic       string        `toml:"topic"`
		BatchSize   int           `toml:"batch-size"`
		Timeout     toml.Duration `toml:"timeout"`
		CreateTopic bool          `toml:"create-topic"`
		Partitions  int           `toml:"partitions"`
	} `toml:"kafka"`

	HTTP struct {
		Retries int `toml:"retries"`
	} `toml:"http"`

	S3 struct {
		Region string `toml:"region"`
	} `toml:"s3"`

	Metrics struct {
		// Bind is the address serving /metrics; metrics are not served
		// when empty.
		Bind string `toml:"bind"`
	} `toml:"metrics"`

	Tracing struct {
		// AgentHostPort is the jaeger agent receiving spans; tracing is
		// off when empty.
		AgentHostPort string  `toml:"agent-host-port"`
		SamplerType   string  `toml:"sampler-type"`
		SamplerParam  float64 `toml:"sampler-param"`
	} `toml:"tracing"`
}

// NewConfig returns a Config with default values.
func NewConfig() *Config {
	c := &Config{
		Concurrency: 1,
	}
	c.Output.Types = []string{OutputJSONL}
	c.Output.Path = "-"
	c.Output.Driver = sqlstore.DriverSQLite
	k := kafka.NewSink()
	c.Kafka.Hosts = k.Hosts
	c.Kafka.Topic = "disclosure"
	c.Kafka.BatchSize = k.BatchSize
	c.Kafka.Timeout = toml.Duration(k.Timeout)
	c.Kafka.Partitions = 1
	c.HTTP.Retries = 4
	c.S3.Region = "us-east-1"
	c.Tracing.SamplerType = "remote"
	c.Tracing.SamplerParam = 0.001
	return c
}

// kafkaTimeout returns the configured timeout, or the default one.
func (c *Config) kafkaTimeout() time.Duration {
	if c.Kafka.Timeout <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Kafka.Timeout)
}
