// Package metrics holds the Prometheus collectors for the detour service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "detour"

// Outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeEmpty    = "empty"
	OutcomeRejected = "rejected"
)

// Recorder owns a private registry so tests can build as many as they need.
type Recorder struct {
	registry *prometheus.Registry

	providerDuration *prometheus.HistogramVec
	providerOptions  *prometheus.CounterVec
	pipelineRuns     *prometheus.CounterVec
	pipelineDuration prometheus.Histogram
	webhooks         *prometheus.CounterVec
	inFlight         prometheus.Gauge
}

func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		providerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_search_duration_seconds",
			Help:      "Time spent in one provider search, retries included.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider", "outcome"}),
		providerOptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_options_total",
			Help:      "Transit options returned by each provider.",
		}, []string{"provider"}),
		pipelineRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Travel requests processed, by outcome.",
		}, []string{"outcome"}),
		pipelineDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_duration_seconds",
			Help:      "End-to-end processing time of one travel request.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		}),
		webhooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhooks_total",
			Help:      "Webhook deliveries, by form provider and outcome.",
		}, []string{"source", "outcome"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_in_flight",
			Help:      "Travel requests currently being processed.",
		}),
	}
	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.providerDuration,
		r.providerOptions,
		r.pipelineRuns,
		r.pipelineDuration,
		r.webhooks,
		r.inFlight,
	)
	return r
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveProviderSearch records one provider call made by the Collector.
func (r *Recorder) ObserveProviderSearch(provider string, took time.Duration, options int, err error) {
	outcome := OutcomeOK
	switch {
	case err != nil:
		outcome = OutcomeError
	case options == 0:
		outcome = OutcomeEmpty
	}
	r.providerDuration.WithLabelValues(provider, outcome).Observe(took.Seconds())
	r.providerOptions.WithLabelValues(provider).Add(float64(options))
}

// PipelineStarted marks a travel request as in flight and returns the func
// that records its outcome.
func (r *Recorder) PipelineStarted() func(outcome string) {
	start := time.Now()
	r.inFlight.Inc()
	return func(outcome string) {
		r.inFlight.Dec()
		r.pipelineRuns.WithLabelValues(outcome).Inc()
		r.pipelineDuration.Observe(time.Since(start).Seconds())
	}
}

// WebhookReceived counts one webhook delivery.
func (r *Recorder) WebhookReceived(source, outcome string) {
	r.webhooks.WithLabelValues(source, outcome).Inc()
}
