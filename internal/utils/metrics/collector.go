// internal/utils/metrics/collector.go
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricType представляет тип метрики
type MetricType string

const (
	NotificationCounterType MetricType = "notifications"
	EventCounterType        MetricType = "events_stored"
	EnrichFailureType       MetricType = "enrich_failures"
	SubscriberDropType      MetricType = "subscriber_drops"
	RPCLatencyType          MetricType = "rpc_latency"
	HTTPLatencyType         MetricType = "http_client_latency"
	ActiveWatchersType      MetricType = "active_watchers"
	StoreSizeType           MetricType = "store_size"
	APIRequestType          MetricType = "api_requests"
	StreamClientsType       MetricType = "stream_clients"
)

const namespace = "mintwatch"

// Collector управляет набором метрик. Each collector owns its registry so
// several instances (tests, multiple apps in one process) never collide.
type Collector struct {
	metrics  sync.Map
	registry *prometheus.Registry
}

// NewCollector создает новый экземпляр коллектора метрик
func NewCollector() *Collector {
	c := &Collector{registry: prometheus.NewRegistry()}
	c.initializeMetrics()
	return c
}

func (c *Collector) initializeMetrics() {
	metricsMap := map[MetricType]prometheus.Collector{
		NotificationCounterType: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "log_notifications_total",
				Help:      "Program log notifications received, by watcher and outcome",
			},
			[]string{"watcher", "outcome"},
		),
		EventCounterType: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mint_events_total",
				Help:      "Mint events pushed to the store",
			},
			[]string{"source", "stage"},
		),
		EnrichFailureType: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "enrich_failures_total",
				Help:      "Enrichment steps that returned no data because of an error",
			},
			[]string{"step"},
		),
		SubscriberDropType: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "subscriber_drops_total",
				Help:      "Events dropped for slow store subscribers",
			},
		),
		RPCLatencyType: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "rpc_latency_seconds",
				Help:      "RPC request latency in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
			},
			[]string{"method", "status"},
		),
		HTTPLatencyType: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "market_request_seconds",
				Help:      "Market data request latency in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
			},
			[]string{"provider", "status"},
		),
		ActiveWatchersType: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_watchers",
				Help:      "Number of running program log watchers",
			},
		),
		StoreSizeType: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "store_events",
				Help:      "Events currently buffered in the store",
			},
		),
		APIRequestType: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "api_request_seconds",
				Help:      "HTTP API request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "code"},
		),
		StreamClientsType: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "stream_clients",
				Help:      "Connected SSE and websocket clients",
			},
		),
	}

	for metricType, metric := range metricsMap {
		c.metrics.Store(metricType, metric)
		c.registry.MustRegister(metric)
	}
	c.registry.MustRegister(collectors.NewGoCollector())
}

// Registry exposes the underlying registry (used by tests and the handler).
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns the /metrics HTTP handler.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Reset сбрасывает все метрики (полезно для тестирования)
func (c *Collector) Reset() {
	c.metrics.Range(func(_, value interface{}) bool {
		switch m := value.(type) {
		case *prometheus.CounterVec:
			m.Reset()
		case *prometheus.GaugeVec:
			m.Reset()
		case *prometheus.HistogramVec:
			m.Reset()
		}
		return true
	})
}

func (c *Collector) counterVec(t MetricType) *prometheus.CounterVec {
	if c == nil {
		return nil
	}
	if m, ok := c.metrics.Load(t); ok {
		if v, ok := m.(*prometheus.CounterVec); ok {
			return v
		}
	}
	return nil
}

func (c *Collector) histogramVec(t MetricType) *prometheus.HistogramVec {
	if c == nil {
		return nil
	}
	if m, ok := c.metrics.Load(t); ok {
		if v, ok := m.(*prometheus.HistogramVec); ok {
			return v
		}
	}
	return nil
}

func (c *Collector) gauge(t MetricType) prometheus.Gauge {
	if c == nil {
		return nil
	}
	if m, ok := c.metrics.Load(t); ok {
		if v, ok := m.(prometheus.Gauge); ok {
			return v
		}
	}
	return nil
}
