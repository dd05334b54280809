// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the collectors recorded by the HTTP layer and services
type Metrics struct {
	Registry        *prometheus.Registry
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RecipeWrites    *prometheus.CounterVec
	BookmarkChanges *prometheus.CounterVec
}

// New registers every collector on a fresh registry, so tests can build as
// many instances as they need
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		Registry: registry,
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "foodgram",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "foodgram",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		RecipeWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "foodgram",
			Name:      "recipe_writes_total",
			Help:      "Successful recipe writes by operation.",
		}, []string{"operation"}),
		BookmarkChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "foodgram",
			Name:      "bookmark_changes_total",
			Help:      "Favorite, shopping cart and subscription changes by list and action.",
		}, []string{"list", "action"}),
	}
}
