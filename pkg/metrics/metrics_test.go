package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestMetrics(t *testing.T, subsystem string) (*Metrics, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return InitMetricsWith(reg, "test", subsystem), reg
}

func TestInitMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = reg
	prometheus.DefaultGatherer = reg

	m := InitMetrics("test", "service")
	if m == nil {
		t.Fatal("InitMetrics returned nil")
	}
	if m.GRPCRequestsTotal == nil || m.AllocationsTotal == nil || m.CacheLookups == nil {
		t.Error("metric vectors should be initialised")
	}
	if Get() != m {
		t.Error("Get() should return the last initialised metrics")
	}
}

func TestGet_LazyInit(t *testing.T) {
	reg := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = reg
	prometheus.DefaultGatherer = reg
	defaultMetrics = nil

	m := Get()
	if m == nil {
		t.Fatal("Get() should not return nil")
	}
	if Get() != m {
		t.Error("Get() should return same instance")
	}
}

func TestRecordGRPCRequest(t *testing.T) {
	m, _ := newTestMetrics(t, "grpc")

	m.RecordGRPCRequest("/rostering.scheduler.v1.SchedulerService/Allocate", "OK", 100*time.Millisecond)
	m.RecordGRPCRequest("/rostering.scheduler.v1.SchedulerService/Allocate", "InvalidArgument", 5*time.Millisecond)

	got := testutil.ToFloat64(m.GRPCRequestsTotal.WithLabelValues("/rostering.scheduler.v1.SchedulerService/Allocate", "OK"))
	if got != 1 {
		t.Errorf("OK requests = %v, want 1", got)
	}
}

func TestRecordAllocation(t *testing.T) {
	m, _ := newTestMetrics(t, "alloc")

	m.RecordAllocation("feasible", 2*time.Millisecond, 60, 60, 12)
	m.RecordAllocation("infeasible_flow", time.Millisecond, 60, 58, 11)

	if got := testutil.ToFloat64(m.AllocationsTotal.WithLabelValues("feasible")); got != 1 {
		t.Errorf("feasible allocations = %v", got)
	}
	if got := testutil.ToFloat64(m.FlowValue.WithLabelValues("achieved")); got != 58 {
		t.Errorf("achieved flow gauge = %v, want last value 58", got)
	}
	if got := testutil.CollectAndCount(m.AugmentingPaths); got != 1 {
		t.Errorf("augmenting path histogram series = %d", got)
	}
}

func TestRecordCacheLookup(t *testing.T) {
	m, _ := newTestMetrics(t, "cache")

	m.RecordCacheLookup(true)
	m.RecordCacheLookup(false)
	m.RecordCacheLookup(false)

	if got := testutil.ToFloat64(m.CacheLookups.WithLabelValues("miss")); got != 2 {
		t.Errorf("misses = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.CacheLookups.WithLabelValues("hit")); got != 1 {
		t.Errorf("hits = %v, want 1", got)
	}
}

func TestRecordGraphSizeAndInfo(t *testing.T) {
	m, reg := newTestMetrics(t, "graph")

	m.RecordGraphSize("allocate", 67, 1010)
	m.RecordHTTPRequest("/rostering.scheduler.v1.SchedulerService/Allocate", "ok")
	m.SetServiceInfo("1.0.0", "production")

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	if len(families) < 4 {
		t.Errorf("expected several metric families, got %d", len(families))
	}
}

func TestCacheCollector(t *testing.T) {
	snap := CacheSnapshot{Keys: 3, Hits: 7, Misses: 2, Evictions: 1, Backend: "memory"}
	collector := NewCacheCollector("test", "cache", func(context.Context) (CacheSnapshot, error) {
		return snap, nil
	})

	if n := testutil.CollectAndCount(collector); n != 5 {
		t.Errorf("expected 5 metrics, got %d", n)
	}

	expected := `
# HELP test_cache_cache_keys Allocations currently cached
# TYPE test_cache_cache_keys gauge
test_cache_cache_keys{backend="memory"} 3
`
	if err := testutil.CollectAndCompare(collector, strings.NewReader(expected), "test_cache_cache_keys"); err != nil {
		t.Error(err)
	}
}

func TestCacheCollector_SourceError(t *testing.T) {
	collector := NewCacheCollector("test", "cache", func(context.Context) (CacheSnapshot, error) {
		return CacheSnapshot{}, errors.New("redis down")
	})

	expected := `
# HELP test_cache_cache_up Whether the last stats read succeeded
# TYPE test_cache_cache_up gauge
test_cache_cache_up 0
`
	if err := testutil.CollectAndCompare(collector, strings.NewReader(expected)); err != nil {
		t.Error(err)
	}
}

func TestRegisterCacheCollector_Idempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	source := func(context.Context) (CacheSnapshot, error) { return CacheSnapshot{Backend: "memory"}, nil }
	if err := RegisterCacheCollector(reg, "test", "rt", source); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if err := RegisterCacheCollector(reg, "test", "rt", source); err != nil {
		t.Errorf("second registration should be tolerated: %v", err)
	}
}

func TestRequestTracker(t *testing.T) {
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: "test_in_flight"})
	tracker := NewRequestTracker(gauge)

	tracker.Start("/allocate")
	tracker.Start("/allocate")
	tracker.Start("/info")

	if tracker.Active("/allocate") != 2 {
		t.Errorf("Active(/allocate) = %d, want 2", tracker.Active("/allocate"))
	}
	if testutil.ToFloat64(gauge) != 3 {
		t.Errorf("in-flight gauge = %v, want 3", testutil.ToFloat64(gauge))
	}

	tracker.End("/allocate")
	tracker.End("/allocate")
	tracker.End("/allocate")
	if tracker.Active("/allocate") != 0 {
		t.Error("active count should not go negative")
	}
	if testutil.ToFloat64(gauge) != 1 {
		t.Errorf("in-flight gauge = %v, want 1", testutil.ToFloat64(gauge))
	}
}

func TestTimer(t *testing.T) {
	histogram := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "test_duration", Buckets: []float64{.01, .1, 1}},
		[]string{"status"},
	)

	timer := NewTimer(histogram)
	time.Sleep(10 * time.Millisecond)

	if timer.Elapsed() < 10*time.Millisecond {
		t.Error("Elapsed() should be at least the sleep")
	}
	if d := timer.ObserveDuration("feasible"); d < 10*time.Millisecond {
		t.Errorf("duration = %v, expected >= 10ms", d)
	}
	if testutil.CollectAndCount(histogram) != 1 {
		t.Error("expected one observed series")
	}
}

func TestMetricsServerRoutes(t *testing.T) {
	srv := NewMetricsServer(0, "")

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("/health = %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("/metrics = %d", rec.Code)
	}
}
