package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.trai.ch/assetpipe/internal/adapters/telemetry"
	"go.trai.ch/assetpipe/internal/core/ports"
	"go.trai.ch/assetpipe/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestInterfaceSatisfaction(_ *testing.T) {
	var _ ports.Tracer = (*telemetry.OTelTracer)(nil)
	var _ ports.Span = (*telemetry.OTelSpan)(nil)
	var _ ports.Tracer = (*telemetry.NoOpTracer)(nil)
	var _ ports.Span = (*telemetry.NoOpSpan)(nil)
	var _ sdktrace.SpanProcessor = (*telemetry.LogBridge)(nil)
}

func TestOTelTracer_RecordsAttributesAndErrors(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	tracer := telemetry.NewOTelTracerFrom(tp, "test")

	ctx, span := tracer.Start(context.Background(), "asset.load",
		ports.WithAttribute("asset.id", "hero"),
		ports.WithAttribute("asset.priority", 90),
	)
	tracer.EmitPlan(ctx, []string{"skin", "hero"})
	span.SetAttribute("asset.tier", "high")
	span.RecordError(errors.New("decode failed"))
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	got := ended[0]
	assert.Equal(t, "asset.load", got.Name())
	assert.Equal(t, codes.Error, got.Status().Code)
	assert.Contains(t, got.Attributes(), attribute.String("asset.id", "hero"))
	assert.Contains(t, got.Attributes(), attribute.Int("asset.priority", 90))
	assert.Contains(t, got.Attributes(), attribute.String("asset.tier", "high"))

	var events []string
	for _, e := range got.Events() {
		events = append(events, e.Name)
	}
	assert.Contains(t, events, "plan_emitted")
}

func TestLogBridge_WarnsOnFailedSpans(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(telemetry.NewLogBridge(log)))
	tracer := telemetry.NewOTelTracerFrom(tp, "test")

	_, span := tracer.Start(context.Background(), "asset.stream")
	span.End()

	log.EXPECT().Warn("span failed", "span", "asset.load", "duration", gomock.Any(), "status", "boom").Times(1)
	_, failed := tracer.Start(context.Background(), "asset.load")
	failed.RecordError(errors.New("boom"))
	failed.End()
}

func TestNoOpTracer_Start(t *testing.T) {
	tracer := telemetry.NewNoOpTracer()

	ctx := context.Background()
	got, span := tracer.Start(ctx, "test-span")
	assert.Equal(t, ctx, got)

	span.SetAttribute("key", "value")
	span.RecordError(errors.New("ignored"))
	span.End()
}
