// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

// Package kafka is a Sink publishing entities to a Kafka topic. Messages
// are keyed by entity id and always hold everything known about the id so
// far, so the last message of a key on a log-compacted topic is the merged
// entity.
package kafka

import (
	"context"
	"encoding/json"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/molecula/disclosure"
	"github.com/molecula/disclosure/errors"
	"github.com/molecula/disclosure/inmem"
	"github.com/molecula/disclosure/logger"
	segmentio "github.com/segmentio/kafka-go"
)

// Ensure Sink implements interface.
var _ disclosure.Sink = &Sink{}

// messageWriter is the part of *segmentio.Writer used by Sink.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...segmentio.Message) error
	Close() error
}

// Sink merges entities per id and publishes the merged entities in
// batches. An emission adding nothing new is not published.
type Sink struct {
	Hosts       []string
	Topic       string
	BatchSize   int
	Timeout     time.Duration
	MaxInterval time.Duration
	Log         logger.Logger

	mu      sync.Mutex
	writer  messageWriter
	pending []segmentio.Message
	merged  *inmem.Store
}

// NewSink returns a Sink with default settings. Set Hosts and Topic, then
// call Open.
func NewSink() *Sink {
	return &Sink{
		Hosts:       []string{"localhost:9092"},
		BatchSize:   1000,
		Timeout:     10 * time.Second,
		MaxInterval: 5 * time.Second,
		Log:         logger.NopLogger,
		merged:      inmem.NewStore(),
	}
}

// Open creates the writer.
func (s *Sink) Open() error {
	if s.Topic == "" {
		return errors.New(errors.ErrUncoded, "kafka sink needs a topic")
	}
	if len(s.Hosts) == 0 {
		return errors.New(errors.ErrUncoded, "kafka sink needs at least one host")
	}
	s.writer = &segmentio.Writer{
		Addr:         segmentio.TCP(s.Hosts...),
		Topic:        s.Topic,
		Balancer:     &segmentio.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: s.Timeout,
		RequiredAcks: segmentio.RequireAll,
		Logger:       segmentio.LoggerFunc(s.Log.Debugf),
		ErrorLogger:  segmentio.LoggerFunc(s.Log.Errorf),
	}
	return nil
}

// Emit merges e with what was emitted before under its id and queues the
// result, publishing the queue once it holds BatchSize messages.
func (s *Sink) Emit(ctx context.Context, e *disclosure.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	merged, changed, err := s.merged.Upsert(e)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	value, err := json.Marshal(merged)
	if err != nil {
		return errors.Wrap(err, "encoding entity")
	}
	s.pending = append(s.pending, segmentio.Message{Key: []byte(e.ID), Value: value})
	if len(s.pending) < s.BatchSize {
		return nil
	}
	return s.flush(ctx)
}

// Flush publishes all queued messages.
func (s *Sink) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flush(ctx)
}

func (s *Sink) flush(ctx context.Context) error {
	if len(s.pending) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()
	err := writeWithBackoff(ctx, s.writer, s.Log.Warnf, 100*time.Millisecond, s.MaxInterval, s.pending...)
	s.pending = s.pending[:0]
	return err
}

// Close publishes the queued messages and closes the writer.
func (s *Sink) Close() error {
	if s.writer == nil {
		return nil
	}
	err := s.Flush(context.Background())
	if cerr := s.writer.Close(); cerr != nil && err == nil {
		err = errors.Wrap(cerr, "closing kafka writer")
	}
	return err
}

// writeWithBackoff writes messages, retrying temporary failures with
// exponential backoff until ctx is done.
func writeWithBackoff(ctx context.Context, writer messageWriter, log func(string, ...interface{}), interval, maxInterval time.Duration, messages ...segmentio.Message) error {
	var berr error
	tries := 0
retry:
	for {
		tries++
		err := writer.WriteMessages(ctx, messages...)
		switch err := err.(type) {
		case nil:
			return nil

		case segmentio.Error:
			berr = err
			if !err.Temporary() {
				break retry
			}

		case segmentio.WriteErrors:
			var remaining []segmentio.Message
			for i, m := range messages {
				switch err := err[i].(type) {
				case nil:
					continue

				case segmentio.Error:
					if err.Temporary() {
						remaining = append(remaining, m)
						continue
					}
				}

				return errors.Wrap(err, "failed to deliver messages")
			}

			messages = remaining
			berr = err

		default:
			if berr == nil || err != context.DeadlineExceeded {
				berr = err
			}
			break retry
		}

		log("temporary write error: %v", err)

		interval *= 2
		if interval > maxInterval {
			interval = maxInterval
		}
		timer := time.NewTimer(interval)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			break retry
		}
	}

	return errors.Wrapf(berr, "failed to deliver messages after %d tries", tries)
}

// CreateTopic creates a log-compacted topic on the cluster at host.
func CreateTopic(host, topic string, partitions int) (err error) {
	conn, err := segmentio.Dial("tcp", host)
	if err != nil {
		return errors.Wrap(err, "dialing kafka")
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "closing kafka connection")
		}
	}()

	controller, err := conn.Controller()
	if err != nil {
		return errors.Wrap(err, "finding kafka controller")
	}
	controllerConn, err := segmentio.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return errors.Wrap(err, "connecting to kafka controller")
	}
	defer func() {
		if cerr := controllerConn.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "closing kafka controller connection")
		}
	}()

	return controllerConn.CreateTopics(segmentio.TopicConfig{
		Topic:             topic,
		NumPartitions:     partitions,
		ReplicationFactor: 1,
		ConfigEntries: []segmentio.ConfigEntry{
			{ConfigName: "cleanup.policy", ConfigValue: "compact"},
		},
	})
}
