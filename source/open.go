// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package source

import (
	"context"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/molecula/disclosure/errors"
	"github.com/molecula/disclosure/logger"
	"github.com/molecula/disclosure/tracing"
)

// Opener resolves resource names to readable files. Names are local paths,
// http(s) URLs or s3://bucket/key URLs.
type Opener struct {
	HTTPRetries int
	S3Region    string
	// TempDir receives downloads; the system default when empty.
	TempDir string
	Log     logger.Logger

	client *retryablehttp.Client
}

// NewOpener returns an Opener with default settings.
func NewOpener(log logger.Logger) *Opener {
	if log == nil {
		log = logger.NopLogger
	}
	return &Opener{HTTPRetries: 4, Log: log}
}

// IsRemote reports whether name is fetched over the network.
func IsRemote(name string) bool {
	return strings.HasPrefix(name, "http://") ||
		strings.HasPrefix(name, "https://") ||
		strings.HasPrefix(name, "s3://")
}

func (o *Opener) httpClient() *retryablehttp.Client {
	if o.client == nil {
		o.client = retryablehttp.NewClient()
		o.client.RetryMax = o.HTTPRetries
		o.client.Logger = o.Log
	}
	return o.client
}

// Fetch returns a local path for name, downloading remote resources into
// a temporary file. The caller removes downloaded files once done; local
// reports whether path is name itself.
func (o *Opener) Fetch(ctx context.Context, name string) (p string, local bool, err error) {
	if !IsRemote(name) {
		if _, err := os.Stat(name); err != nil {
			return "", true, errors.Wrap(err, "opening file")
		}
		return name, true, nil
	}
	span, ctx := tracing.StartSpanFromContext(ctx, "source.Fetch")
	defer span.Finish()
	span.LogKV("name", name)

	body, err := o.openRemote(ctx, name)
	if err != nil {
		return "", false, err
	}
	defer body.Close()

	u, _ := url.Parse(name)
	f, err := os.CreateTemp(o.TempDir, "disclosure-*-"+path.Base(u.Path))
	if err != nil {
		return "", false, errors.Wrap(err, "creating download file")
	}
	n, err := io.Copy(f, body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(f.Name())
		return "", false, errors.Wrapf(err, "downloading %s", name)
	}
	span.LogKV("bytes", n)
	o.Log.Printf("read %d bytes from %s", n, name)
	return f.Name(), false, nil
}

// Open returns the content of name, decompressing .gz files.
func (o *Opener) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	var rc io.ReadCloser
	var err error
	if IsRemote(name) {
		rc, err = o.openRemote(ctx, name)
	} else {
		rc, err = os.Open(name)
		err = errors.Wrap(err, "opening file")
	}
	if err != nil {
		return nil, err
	}
	return Decompress(name, rc)
}

func (o *Opener) openRemote(ctx context.Context, name string) (io.ReadCloser, error) {
	if strings.HasPrefix(name, "s3://") {
		return o.openS3(ctx, name)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, "GET", name, nil)
	if err != nil {
		return nil, errors.Wrap(err, "creating request")
	}
	tracing.GlobalTracer.InjectHTTPHeaders(req.Request)
	resp, err := o.httpClient().Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "getting via http")
	}
	if resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, errors.Errorf("got status %d via http.Get", resp.StatusCode)
	}
	return resp.Body, nil
}

func (o *Opener) openS3(ctx context.Context, name string) (io.ReadCloser, error) {
	u, err := url.Parse(name)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing S3 URL %v", name)
	}
	bucket := u.Host
	key := strings.TrimPrefix(u.Path, "/")

	config := &aws.Config{}
	if o.S3Region != "" {
		config.Region = aws.String(o.S3Region)
		// else, NewSession will use the default region.
	}
	sess, err := session.NewSession(config)
	if err != nil {
		return nil, errors.Wrap(err, "creating S3 session")
	}

	result, err := s3.New(sess).GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "fetching S3 object %v", name)
	}
	return result.Body, nil
}

// Glob returns the files in dir whose names match one of the patterns,
// ignoring case, sorted by name. If dir is a file it is returned alone.
func Glob(dir string, patterns ...string) ([]string, error) {
	fi, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrap(err, "reading input")
	}
	if !fi.IsDir() {
		return []string{dir}, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "listing input directory")
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := strings.ToLower(e.Name())
		for _, p := range patterns {
			if ok, _ := filepath.Match(strings.ToLower(p), name); ok {
				out = append(out, filepath.Join(dir, e.Name()))
				break
			}
		}
	}
	return out, nil
}
