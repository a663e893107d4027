package opentracing_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/molecula/disclosure/logger"
	"github.com/molecula/disclosure/tracing"
	tracingot "github.com/molecula/disclosure/tracing/opentracing"
	"github.com/opentracing/opentracing-go/mocktracer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracer(t *testing.T) {
	mt := mocktracer.New()
	tr := tracingot.NewTracer(mt, logger.NewLogfLogger(t))

	prev := tracing.GlobalTracer
	tracing.GlobalTracer = tr
	defer func() { tracing.GlobalTracer = prev }()

	span, ctx := tracing.StartSpanFromContext(context.Background(), "run")
	child, ctx := tracing.StartSpanFromContext(ctx, "file")
	child.LogKV("rows", 3)

	req, err := http.NewRequestWithContext(ctx, "GET", "http://example.org/a.csv", nil)
	require.NoError(t, err)
	tracing.GlobalTracer.InjectHTTPHeaders(req)
	assert.NotEmpty(t, req.Header.Get("Mockpfx-Ids-Traceid"))

	child.Finish()
	span.Finish()

	finished := mt.FinishedSpans()
	require.Len(t, finished, 2)
	assert.Equal(t, "file", finished[0].OperationName)
	assert.Equal(t, "run", finished[1].OperationName)
	assert.Equal(t, finished[1].SpanContext.SpanID, finished[0].ParentID)
}
