// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package source

import (
	"archive/zip"
	"compress/gzip"
	"io"
	"path"
	"strings"

	"github.com/molecula/disclosure/errors"
)

// IsZip reports whether name looks like a zip archive.
func IsZip(name string) bool {
	return strings.EqualFold(path.Ext(name), ".zip")
}

// Members returns the names of the files in the zip archive at p, in
// archive order. Directories and macOS resource forks are left out.
func Members(p string) ([]string, error) {
	zr, err := zip.OpenReader(p)
	if err != nil {
		return nil, decodeError(err, "opening archive "+p)
	}
	defer zr.Close()
	var out []string
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || strings.HasPrefix(f.Name, "__MACOSX") {
			continue
		}
		out = append(out, f.Name)
	}
	return out, nil
}

// OpenMember opens one file of the zip archive at p. Members ending in .gz
// are decompressed.
func OpenMember(p, member string) (io.ReadCloser, error) {
	zr, err := zip.OpenReader(p)
	if err != nil {
		return nil, decodeError(err, "opening archive "+p)
	}
	f, err := zr.Open(member)
	if err != nil {
		zr.Close()
		return nil, decodeError(err, "opening "+member+" in "+p)
	}
	rc, err := Decompress(member, &multiCloser{Reader: f, closers: []io.Closer{f, zr}})
	if err != nil {
		return nil, err
	}
	return rc, nil
}

// Decompress wraps rc in a gzip reader when name ends in .gz. Closing the
// result closes rc.
func Decompress(name string, rc io.ReadCloser) (io.ReadCloser, error) {
	if !strings.EqualFold(path.Ext(name), ".gz") {
		return rc, nil
	}
	gz, err := gzip.NewReader(rc)
	if err != nil {
		rc.Close()
		return nil, decodeError(err, "decompressing "+name)
	}
	return &multiCloser{Reader: gz, closers: []io.Closer{gz, rc}}, nil
}

type multiCloser struct {
	io.Reader
	closers []io.Closer
}

func (m *multiCloser) Close() error {
	var first error
	for _, c := range m.closers {
		if err := c.Close(); err != nil && first == nil {
			first = errors.WithStack(err)
		}
	}
	return first
}
