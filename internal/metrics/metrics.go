// Package metrics exposes the engine's Prometheus collectors. A nil *Metrics
// is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "equiphouse"

type Metrics struct {
	registry           *prometheus.Registry
	cacheRequests      *prometheus.CounterVec
	cacheInvalidations *prometheus.CounterVec
	operationFailures  *prometheus.CounterVec
	migrationGroups    *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		cacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_requests_total",
			Help:      "Cache lookups by cache name and result (hit, miss, bypass).",
		}, []string{"cache", "result"}),
		cacheInvalidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_invalidations_total",
			Help:      "Cache invalidations by cache name.",
		}, []string{"cache"}),
		operationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inventory_operation_failures_total",
			Help:      "Inventory operations that ended with a negative result because of a store error.",
		}, []string{"operation"}),
		migrationGroups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "restructure_groups_total",
			Help:      "Legacy asset groups processed by the restructure job, by outcome.",
		}, []string{"outcome"}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.cacheRequests,
		m.cacheInvalidations,
		m.operationFailures,
		m.migrationGroups,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) CacheHit(cache string) {
	if m == nil {
		return
	}
	m.cacheRequests.WithLabelValues(cache, "hit").Inc()
}

func (m *Metrics) CacheMiss(cache string) {
	if m == nil {
		return
	}
	m.cacheRequests.WithLabelValues(cache, "miss").Inc()
}

func (m *Metrics) CacheBypass(cache string) {
	if m == nil {
		return
	}
	m.cacheRequests.WithLabelValues(cache, "bypass").Inc()
}

func (m *Metrics) CacheInvalidated(cache string) {
	if m == nil {
		return
	}
	m.cacheInvalidations.WithLabelValues(cache).Inc()
}

func (m *Metrics) OperationFailed(operation string) {
	if m == nil {
		return
	}
	m.operationFailures.WithLabelValues(operation).Inc()
}

func (m *Metrics) MigrationGroup(outcome string) {
	if m == nil {
		return
	}
	m.migrationGroups.WithLabelValues(outcome).Inc()
}
