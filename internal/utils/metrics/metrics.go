// internal/utils/metrics/metrics.go
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// All recorders are nil-safe so components can run without a collector.

// RecordNotification считает уведомления логов по watcher и результату
func (c *Collector) RecordNotification(watcher, outcome string) {
	if v := c.counterVec(NotificationCounterType); v != nil {
		v.WithLabelValues(watcher, outcome).Inc()
	}
}

// RecordEvent считает события, попавшие в store
func (c *Collector) RecordEvent(source, stage string) {
	if stage == "" {
		stage = "undefined"
	}
	if v := c.counterVec(EventCounterType); v != nil {
		v.WithLabelValues(source, stage).Inc()
	}
}

// RecordEnrichFailure считает неудачные шаги обогащения
func (c *Collector) RecordEnrichFailure(step string) {
	if v := c.counterVec(EnrichFailureType); v != nil {
		v.WithLabelValues(step).Inc()
	}
}

// RecordSubscriberDrop считает события, потерянные медленными подписчиками
func (c *Collector) RecordSubscriberDrop() {
	if c == nil {
		return
	}
	if m, ok := c.metrics.Load(SubscriberDropType); ok {
		if counter, ok := m.(prometheus.Counter); ok {
			counter.Inc()
		}
	}
}

// RecordRPCLatency записывает метрики RPC-запроса
func (c *Collector) RecordRPCLatency(method string, duration time.Duration, err error) {
	if v := c.histogramVec(RPCLatencyType); v != nil {
		v.WithLabelValues(method, status(err)).Observe(duration.Seconds())
	}
}

// RecordMarketLatency записывает задержку запросов к market data провайдерам
func (c *Collector) RecordMarketLatency(provider string, duration time.Duration, err error) {
	if v := c.histogramVec(HTTPLatencyType); v != nil {
		v.WithLabelValues(provider, status(err)).Observe(duration.Seconds())
	}
}

// AddActiveWatchers сдвигает gauge активных watchers
func (c *Collector) AddActiveWatchers(delta int) {
	if g := c.gauge(ActiveWatchersType); g != nil {
		g.Add(float64(delta))
	}
}

// SetStoreSize обновляет размер буфера событий
func (c *Collector) SetStoreSize(n int) {
	if g := c.gauge(StoreSizeType); g != nil {
		g.Set(float64(n))
	}
}

// RecordAPIRequest записывает длительность запроса к HTTP API
func (c *Collector) RecordAPIRequest(route string, code int, duration time.Duration) {
	if v := c.histogramVec(APIRequestType); v != nil {
		v.WithLabelValues(route, strconv.Itoa(code)).Observe(duration.Seconds())
	}
}

// AddStreamClients сдвигает gauge подключенных stream клиентов
func (c *Collector) AddStreamClients(delta int) {
	if g := c.gauge(StreamClientsType); g != nil {
		g.Add(float64(delta))
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
