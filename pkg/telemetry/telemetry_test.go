package telemetry

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"rostering/pkg/config"
	"rostering/pkg/logger"
)

func resetGlobal(t *testing.T) {
	t.Helper()
	mu.Lock()
	globalProvider = nil
	mu.Unlock()
}

func TestFromConfig(t *testing.T) {
	cfg := &config.Config{
		App:     config.AppConfig{Name: "scheduler", Version: "1.2.3", Environment: "test"},
		Tracing: config.TracingConfig{Enabled: true, Endpoint: "otel:4317", SampleRate: 0.25},
	}

	got := FromConfig(cfg)
	assert.Equal(t, Config{
		Enabled:     true,
		Endpoint:    "otel:4317",
		ServiceName: "scheduler",
		Version:     "1.2.3",
		Environment: "test",
		SampleRate:  0.25,
	}, got)

	cfg.Tracing.ServiceName = "override"
	assert.Equal(t, "override", FromConfig(cfg).ServiceName)
}

func TestInit_Disabled(t *testing.T) {
	resetGlobal(t)

	p, err := Init(context.Background(), Config{ServiceName: "test"})
	require.NoError(t, err)
	assert.NotNil(t, p.Tracer())
	assert.NoError(t, p.Shutdown(context.Background()))

	// disabled init does not replace the global provider
	assert.NotSame(t, p, Get())
}

func TestInit_Enabled(t *testing.T) {
	resetGlobal(t)
	t.Cleanup(func() { resetGlobal(t) })

	p, err := Init(context.Background(), Config{
		Enabled:     true,
		Endpoint:    "127.0.0.1:4317",
		ServiceName: "scheduler",
		Version:     "1.0.0",
		Environment: "test",
		SampleRate:  1,
	})
	require.NoError(t, err)
	assert.Same(t, p, Get())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = p.Shutdown(ctx) //nolint:errcheck // коллектора нет, экспорт пустой
}

func TestInitWithExporter_RecordsSpans(t *testing.T) {
	resetGlobal(t)
	t.Cleanup(func() { resetGlobal(t) })

	exp := tracetest.NewInMemoryExporter()
	p, err := InitWithExporter(Config{ServiceName: "test", SampleRate: 1}, exp)
	require.NoError(t, err)
	assert.Same(t, p, Get())

	ctx, span := StartSpan(context.Background(), "roster.Allocate")
	assert.NotEmpty(t, TraceID(ctx))
	AddEvent(ctx, "network_built", attribute.Int("nodes", 7))
	SetAttributes(ctx, ProblemAttributes(2, 2, 1, 2, 1)...)
	SetError(ctx, errors.New("boom"))
	span.End()

	require.NoError(t, p.tp.ForceFlush(context.Background()))
	spans := exp.GetSpans()
	require.Len(t, spans, 1)

	s := spans[0]
	assert.Equal(t, "roster.Allocate", s.Name)
	assert.Equal(t, otelcodes.Error, s.Status.Code)
	require.NotEmpty(t, s.Events)
	assert.Equal(t, "network_built", s.Events[0].Name)
	assert.Contains(t, s.Attributes, attribute.Int(AttrPeriods, 2))

	name, ok := s.Resource.Set().Value(attribute.Key("service.name"))
	require.True(t, ok)
	assert.Equal(t, "test", name.AsString())

	require.NoError(t, p.Shutdown(context.Background()))
}

func TestSampler(t *testing.T) {
	assert.Contains(t, sampler(1).Description(), "AlwaysOnSampler")
	assert.Equal(t, "AlwaysOffSampler", sampler(0).Description())
	assert.Contains(t, sampler(0.5).Description(), "TraceIDRatioBased")
}

func TestTraceID_NoSpan(t *testing.T) {
	assert.Empty(t, TraceID(context.Background()))
}

func TestUnaryServerInterceptor(t *testing.T) {
	resetGlobal(t)
	t.Cleanup(func() { resetGlobal(t) })

	exp := tracetest.NewInMemoryExporter()
	p, err := InitWithExporter(Config{ServiceName: "test", SampleRate: 1}, exp)
	require.NoError(t, err)

	interceptor := UnaryServerInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/rostering.scheduler.v1.SchedulerService/Allocate"}

	resp, err := interceptor(context.Background(), "req", info, func(ctx context.Context, req any) (any, error) {
		assert.NotEmpty(t, TraceID(ctx))
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)

	_, err = interceptor(context.Background(), "req", info, func(context.Context, any) (any, error) {
		return nil, status.Error(codes.InvalidArgument, "bad")
	})
	require.Error(t, err)

	require.NoError(t, p.tp.ForceFlush(context.Background()))
	spans := exp.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, otelcodes.Ok, spans[0].Status.Code)
	assert.Equal(t, otelcodes.Error, spans[1].Status.Code)
	assert.Contains(t, spans[1].Attributes, attribute.String("rpc.grpc.status_code", "InvalidArgument"))
}

func TestInitWithExporter_RoutesErrorsToLogger(t *testing.T) {
	resetGlobal(t)
	t.Cleanup(func() { resetGlobal(t) })

	var buf bytes.Buffer
	prev := logger.Log
	logger.Log = slog.New(slog.NewJSONHandler(&buf, nil))
	t.Cleanup(func() { logger.Log = prev })

	_, err := InitWithExporter(Config{ServiceName: "test"}, tracetest.NewInMemoryExporter())
	require.NoError(t, err)

	otel.Handle(errors.New("export failed"))
	assert.Contains(t, buf.String(), "OpenTelemetry error")
	assert.Contains(t, buf.String(), "export failed")
}
