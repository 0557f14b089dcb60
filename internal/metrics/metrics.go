// Package metrics exports analysis counters and timings to Prometheus.
package metrics

import (
	"context"
	"net/http"

	"github.com/aretw0/branchflow/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns the branchflow metric families.
type Collector struct {
	registry *prometheus.Registry

	validations *prometheus.CounterVec
	issues      *prometheus.CounterVec
	connections prometheus.Counter
	duration    *prometheus.HistogramVec
}

// New creates a Collector with its own registry.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		validations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "branchflow_validations_total",
				Help: "Total number of flow validations",
			},
			[]string{"result"},
		),
		issues: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "branchflow_issues_total",
				Help: "Validation issues reported, by kind",
			},
			[]string{"kind"},
		),
		connections: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "branchflow_connections_routed_total",
				Help: "Total number of connections routed",
			},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "branchflow_analysis_duration_seconds",
				Help:    "Duration of validation and routing passes",
				Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
			[]string{"operation"},
		),
	}
	c.registry.MustRegister(c.validations, c.issues, c.connections, c.duration)
	return c
}

// Hooks returns analysis hooks that record into the collector.
func (c *Collector) Hooks() domain.AnalysisHooks {
	return domain.AnalysisHooks{
		OnValidate: func(_ context.Context, e *domain.ValidateEvent) {
			result := "valid"
			if len(e.Issues) > 0 {
				result = "invalid"
			}
			c.validations.WithLabelValues(result).Inc()
			for _, issue := range e.Issues {
				c.issues.WithLabelValues(string(issue.Kind)).Inc()
			}
			c.duration.WithLabelValues(string(domain.EventValidate)).Observe(e.Duration.Seconds())
		},
		OnRoute: func(_ context.Context, e *domain.RouteEvent) {
			c.connections.Add(float64(e.ConnectionCount))
			c.duration.WithLabelValues(string(domain.EventRoute)).Observe(e.Duration.Seconds())
		},
	}
}

// Registry exposes the underlying registry, e.g. for tests.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the collector's metrics in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Combine merges hooks so several observers see every event.
func Combine(hooks ...domain.AnalysisHooks) domain.AnalysisHooks {
	return domain.AnalysisHooks{
		OnValidate: func(ctx context.Context, e *domain.ValidateEvent) {
			for _, h := range hooks {
				if h.OnValidate != nil {
					h.OnValidate(ctx, e)
				}
			}
		},
		OnRoute: func(ctx context.Context, e *domain.RouteEvent) {
			for _, h := range hooks {
				if h.OnRoute != nil {
					h.OnRoute(ctx, e)
				}
			}
		},
	}
}
