package metrics

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CacheSnapshot снимок состояния кэша результатов
type CacheSnapshot struct {
	Keys      int64
	Hits      int64
	Misses    int64
	Evictions int64
	Backend   string
}

// CacheStatsFunc читает состояние кэша на момент scrape.
type CacheStatsFunc func(ctx context.Context) (CacheSnapshot, error)

// CacheCollector экспортирует статистику кэша распределений. Values are read
// at scrape time, so a Redis cache reports keys shared by all replicas.
type CacheCollector struct {
	source  CacheStatsFunc
	timeout time.Duration

	keys      *prometheus.Desc
	hits      *prometheus.Desc
	misses    *prometheus.Desc
	evictions *prometheus.Desc
	up        *prometheus.Desc
}

// NewCacheCollector создаёт коллектор поверх source
func NewCacheCollector(namespace, subsystem string, source CacheStatsFunc) *CacheCollector {
	name := func(n string) string { return prometheus.BuildFQName(namespace, subsystem, n) }
	backend := []string{"backend"}
	return &CacheCollector{
		source:    source,
		timeout:   time.Second,
		keys:      prometheus.NewDesc(name("cache_keys"), "Allocations currently cached", backend, nil),
		hits:      prometheus.NewDesc(name("cache_hits_total"), "Cache hits reported by the backend", backend, nil),
		misses:    prometheus.NewDesc(name("cache_misses_total"), "Cache misses reported by the backend", backend, nil),
		evictions: prometheus.NewDesc(name("cache_evictions_total"), "Entries evicted by the LRU policy", backend, nil),
		up:        prometheus.NewDesc(name("cache_up"), "Whether the last stats read succeeded", nil, nil),
	}
}

// RegisterCacheCollector регистрирует CacheCollector; повторная
// регистрация в том же реестре не считается ошибкой
func RegisterCacheCollector(reg prometheus.Registerer, namespace, subsystem string, source CacheStatsFunc) error {
	err := reg.Register(NewCacheCollector(namespace, subsystem, source))
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		return nil
	}
	return err
}

// Describe implements prometheus.Collector
func (c *CacheCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{c.keys, c.hits, c.misses, c.evictions, c.up} {
		ch <- d
	}
}

// Collect implements prometheus.Collector
func (c *CacheCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	snap, err := c.source(ctx)
	if err != nil {
		ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, 0)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, 1)
	ch <- prometheus.MustNewConstMetric(c.keys, prometheus.GaugeValue, float64(snap.Keys), snap.Backend)
	ch <- prometheus.MustNewConstMetric(c.hits, prometheus.CounterValue, float64(snap.Hits), snap.Backend)
	ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue, float64(snap.Misses), snap.Backend)
	ch <- prometheus.MustNewConstMetric(c.evictions, prometheus.CounterValue, float64(snap.Evictions), snap.Backend)
}

// RequestTracker отслеживает активные запросы по методам
type RequestTracker struct {
	mu       sync.Mutex
	active   map[string]int
	inFlight prometheus.Gauge
}

// NewRequestTracker создаёт новый трекер запросов
func NewRequestTracker(inFlight prometheus.Gauge) *RequestTracker {
	return &RequestTracker{
		active:   make(map[string]int),
		inFlight: inFlight,
	}
}

// Start отмечает начало запроса
func (t *RequestTracker) Start(method string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.active[method]++
	t.inFlight.Inc()
}

// End отмечает завершение запроса
func (t *RequestTracker) End(method string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active[method] > 0 {
		t.active[method]--
		t.inFlight.Dec()
	}
}

// Active возвращает число активных запросов метода
func (t *RequestTracker) Active(method string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active[method]
}

// Timer меряет длительность; метку (например, исход расчёта)
// можно выбрать в момент остановки
type Timer struct {
	start     time.Time
	histogram *prometheus.HistogramVec
}

// NewTimer создаёт новый таймер
func NewTimer(histogram *prometheus.HistogramVec) *Timer {
	return &Timer{
		start:     time.Now(),
		histogram: histogram,
	}
}

// Elapsed возвращает прошедшее время без записи
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}

// ObserveDuration записывает длительность с метками labels
func (t *Timer) ObserveDuration(labels ...string) time.Duration {
	duration := time.Since(t.start)
	t.histogram.WithLabelValues(labels...).Observe(duration.Seconds())
	return duration
}
