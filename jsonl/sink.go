// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

// Package jsonl is a Sink writing the merged graph as line-delimited JSON,
// one entity per line, sorted by id.
package jsonl

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/molecula/disclosure"
	"github.com/molecula/disclosure/errors"
	"github.com/molecula/disclosure/inmem"
)

// Ensure Sink implements interface.
var _ disclosure.Sink = &Sink{}

// Sink merges entities in memory and writes them out on Close, so that
// every id appears on exactly one line.
type Sink struct {
	store *inmem.Store
	w     io.Writer
	close func() error
}

// New returns a Sink writing to w when closed.
func New(w io.Writer) *Sink {
	return &Sink{store: inmem.NewStore(), w: w}
}

// Create returns a Sink writing to the named file, or to stdout for "-".
func Create(path string) (*Sink, error) {
	if path == "" || path == "-" {
		return New(os.Stdout), nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, "creating output file")
	}
	s := New(f)
	s.close = f.Close
	return s, nil
}

// Emit merges e into the pending graph.
func (s *Sink) Emit(ctx context.Context, e *disclosure.Entity) error {
	return s.store.Emit(ctx, e)
}

// Len returns the number of distinct entities pending.
func (s *Sink) Len() int { return s.store.Len() }

// Close writes the graph.
func (s *Sink) Close() error {
	err := s.write()
	if s.close != nil {
		if cerr := s.close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "closing output")
		}
		s.close = nil
	}
	return err
}

func (s *Sink) write() error {
	bw := bufio.NewWriter(s.w)
	enc := json.NewEncoder(bw)
	for _, e := range s.store.Entities() {
		if err := enc.Encode(e); err != nil {
			return errors.Wrapf(err, "writing %s", e)
		}
	}
	return errors.Wrap(bw.Flush(), "flushing output")
}

// Read decodes line-delimited entities from r.
func Read(r io.Reader) ([]*disclosure.Entity, error) {
	var out []*disclosure.Entity
	dec := json.NewDecoder(r)
	for {
		e := &disclosure.Entity{}
		if err := dec.Decode(e); err == io.EOF {
			return out, nil
		} else if err != nil {
			return nil, errors.Wrapf(err, "decoding entity %d", len(out)+1)
		}
		out = append(out, e)
	}
}
