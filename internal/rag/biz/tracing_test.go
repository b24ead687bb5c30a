package biz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestServiceSpans(t *testing.T) {
	prev := otel.GetTracerProvider()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})

	ctx := context.Background()
	env := newTestEnv(t, loaderOf(prosePages...))
	_, err := env.svc.Ingest(ctx, writeSource(t, "a.txt", "a"), &IngestOptions{KBName: "traced"})
	require.NoError(t, err)
	_, err = env.svc.Answer(ctx, "traced", "什么是聚类", &QueryOptions{TopK: 2})
	require.NoError(t, err)
	_, err = env.svc.Query(ctx, "missing", "问题", nil)
	require.Error(t, err)

	byName := map[string][]sdktrace.ReadOnlySpan{}
	for _, s := range recorder.Ended() {
		byName[s.Name()] = append(byName[s.Name()], s)
	}

	require.Len(t, byName["kb.ingest"], 1)
	ingest := byName["kb.ingest"][0]
	assert.Contains(t, ingest.Attributes(), attribute.String("kb.name", "traced"))
	assert.Contains(t, ingest.Attributes(), attribute.Int("kb.pages", 3))

	require.Len(t, byName["kb.answer"], 1)
	answer := byName["kb.answer"][0]

	require.Len(t, byName["kb.query"], 2)
	nested := byName["kb.query"][0]
	assert.Equal(t, answer.SpanContext().SpanID(), nested.Parent().SpanID())
	assert.Contains(t, nested.Attributes(), attribute.Int("kb.hits", 2))

	failed := byName["kb.query"][1]
	assert.Equal(t, codes.Error, failed.Status().Code)
}
