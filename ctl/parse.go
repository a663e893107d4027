// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package ctl

import (
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/molecula/disclosure"
	"github.com/molecula/disclosure/boltdb"
	"github.com/molecula/disclosure/datasets"
	"github.com/molecula/disclosure/errors"
	"github.com/molecula/disclosure/jsonl"
	"github.com/molecula/disclosure/kafka"
	"github.com/molecula/disclosure/logger"
	"github.com/molecula/disclosure/pipeline"
	"github.com/molecula/disclosure/source"
	"github.com/molecula/disclosure/sqlstore"
	"github.com/molecula/disclosure/tracing"
	"github.com/molecula/disclosure/tracing/opentracing"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	jaegercfg "github.com/uber/jaeger-client-go/config"
)

// ParseCommand reads a dataset into the configured sinks.
type ParseCommand struct {
	*CmdIO

	Config *Config

	// Sink, when set, replaces the configured outputs.
	Sink disclosure.Sink

	// Summary is the outcome of the last run.
	Summary datasets.Summary

	log logger.Logger
}

// NewParseCommand returns a new instance of ParseCommand.
func NewParseCommand(stdin io.Reader, stdout, stderr io.Writer) *ParseCommand {
	return &ParseCommand{
		CmdIO:  NewCmdIO(stdin, stdout, stderr),
		Config: NewConfig(),
	}
}

// Run parses the configured input. Sources which fail are reported in the
// returned error once every other source has been read.
func (cmd *ParseCommand) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	c := cmd.Config

	var w io.Writer = cmd.Stderr
	if c.LogPath != "" {
		fw, err := logger.NewFileWriter(c.LogPath)
		if err != nil {
			return errors.Wrap(err, "opening log file")
		}
		defer fw.Close()
		fw.ReopenOnSIGHUP(ctx, func(err error) {
			cmd.Logger().Errorf("reopening log file: %v", err)
		})
		w = fw
	}
	cmd.log = logger.New(w, c.Verbose)

	d, ok := datasets.Lookup(c.Dataset)
	if !ok {
		return errors.Errorf("unknown dataset %q, expected one of: %s", c.Dataset, strings.Join(datasets.Names(), ", "))
	}
	if c.Input == "" {
		return errors.Errorf("no input given; %s is published at %s", d.Title(), d.URL())
	}

	runID := uuid.New().String()
	cmd.log.Infof("run %s: %s from %s", runID, d.Name(), c.Input)

	if c.Tracing.AgentHostPort != "" {
		closer, err := cmd.setupTracing()
		if err != nil {
			return err
		}
		defer closer.Close()
	}
	span, ctx := tracing.StartSpanFromContext(ctx, "ctl.Parse")
	defer span.Finish()
	span.LogKV("run", runID, "dataset", d.Name())

	if c.Metrics.Bind != "" {
		srv, addr, err := serveMetrics(c.Metrics.Bind, cmd.log)
		if err != nil {
			return err
		}
		cmd.log.Infof("serving metrics on http://%s/metrics", addr)
		defer func() {
			sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer scancel()
			_ = srv.Shutdown(sctx)
		}()
	}

	columns, err := cmd.columns(d.Name())
	if err != nil {
		return err
	}

	opener := source.NewOpener(cmd.log)
	opener.HTTPRetries = c.HTTP.Retries
	opener.S3Region = c.S3.Region
	path, local, err := opener.Fetch(ctx, c.Input)
	if err != nil {
		return err
	}
	if !local {
		defer os.Remove(path)
	}

	sink := cmd.Sink
	if sink == nil {
		if sink, err = cmd.openSinks(ctx); err != nil {
			return err
		}
	}
	defer func() {
		if cerr := sink.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "closing output")
		}
	}()

	r := &datasets.Runner{
		Sink:        sink,
		Columns:     columns,
		Reporter:    pipeline.LogReporter{Log: cmd.log},
		Progress:    &pipeline.ProgressTracker{},
		Concurrency: c.Concurrency,
		Interval:    c.ProgressInterval,
		Prefix:      c.Prefix,
		Log:         cmd.log,
	}
	start := time.Now()
	cmd.Summary, err = r.Run(ctx, d, path)
	cmd.log.Infof("run %s: %d rows read in %s", runID, r.Progress.Check(), time.Since(start).Round(time.Millisecond))
	return err
}

// columns loads the column rules of the named dataset from the configured
// file.
func (cmd *ParseCommand) columns(dataset string) (disclosure.ColumnMap, error) {
	if cmd.Config.Columns == "" {
		return nil, nil
	}
	f, err := os.Open(cmd.Config.Columns)
	if err != nil {
		return nil, errors.Wrap(err, "opening column maps")
	}
	defer f.Close()
	maps, err := disclosure.LoadColumnMaps(f)
	if err != nil {
		return nil, err
	}
	return maps[dataset], nil
}

// openSinks opens the configured outputs. Several outputs are written
// through a MultiSink.
func (cmd *ParseCommand) openSinks(ctx context.Context) (disclosure.Sink, error) {
	var sinks disclosure.MultiSink
	for _, typ := range cmd.Config.Output.Types {
		s, err := cmd.openSink(ctx, strings.TrimSpace(typ))
		if err != nil {
			_ = sinks.Close()
			return nil, err
		}
		sinks = append(sinks, s)
	}
	switch len(sinks) {
	case 0:
		return nil, errors.New(errors.ErrUncoded, "no output configured")
	case 1:
		return sinks[0], nil
	}
	return sinks, nil
}

func (cmd *ParseCommand) openSink(ctx context.Context, typ string) (disclosure.Sink, error) {
	c := cmd.Config
	switch typ {
	case OutputJSONL:
		if c.Output.Path == "" || c.Output.Path == "-" {
			return jsonl.New(cmd.Stdout), nil
		}
		return jsonl.Create(c.Output.Path)
	case OutputBolt:
		if c.Output.Path == "" || c.Output.Path == "-" {
			return nil, errors.New(errors.ErrUncoded, "bolt output needs output.path")
		}
		s := boltdb.NewStore(c.Output.Path)
		if err := s.Open(); err != nil {
			return nil, err
		}
		return s, nil
	case OutputSQL:
		return sqlstore.Open(ctx, c.Output.Driver, c.Output.DSN)
	case OutputKafka:
		if c.Kafka.CreateTopic {
			if len(c.Kafka.Hosts) == 0 {
				return nil, errors.New(errors.ErrUncoded, "kafka output needs kafka.hosts")
			}
			if err := kafka.CreateTopic(c.Kafka.Hosts[0], c.Kafka.Topic, c.Kafka.Partitions); err != nil {
				return nil, err
			}
		}
		s := kafka.NewSink()
		s.Hosts = c.Kafka.Hosts
		s.Topic = c.Kafka.Topic
		if c.Kafka.BatchSize > 0 {
			s.BatchSize = c.Kafka.BatchSize
		}
		s.Timeout = c.kafkaTimeout()
		s.Log = cmd.log
		if err := s.Open(); err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, errors.Errorf("unknown output type %q", typ)
}

// setupTracing installs a jaeger tracer as the global tracer.
func (cmd *ParseCommand) setupTracing() (io.Closer, error) {
	c := cmd.Config.Tracing
	cfg := jaegercfg.Configuration{
		ServiceName: "disclosure",
		Sampler: &jaegercfg.SamplerConfig{
			Type:  c.SamplerType,
			Param: c.SamplerParam,
		},
		Reporter: &jaegercfg.ReporterConfig{
			LocalAgentHostPort: c.AgentHostPort,
		},
	}
	tracer, closer, err := cfg.NewTracer(jaegercfg.Logger(jaegerLogger{cmd.log}))
	if err != nil {
		return nil, errors.Wrap(err, "initializing jaeger tracer")
	}
	tracing.GlobalTracer = opentracing.NewTracer(tracer, cmd.log)
	return closer, nil
}

// jaegerLogger adapts a Logger to the jaeger client.
type jaegerLogger struct {
	log logger.Logger
}

func (l jaegerLogger) Error(msg string) { l.log.Errorf("%s", msg) }

func (l jaegerLogger) Infof(msg string, args ...interface{}) { l.log.Debugf(msg, args...) }

// serveMetrics serves the prometheus registry on bind until the returned
// server is shut down.
func serveMetrics(bind string, log logger.Logger) (*http.Server, net.Addr, error) {
	ln, err := net.Listen("tcp", bind)
	if err != nil {
		return nil, nil, errors.Wrap(err, "listening for metrics")
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Errorf("metrics server: %v", err)
		}
	}()
	return srv, ln.Addr(), nil
}
