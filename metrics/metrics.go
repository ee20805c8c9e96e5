// Package metrics exposes check-in workflow counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/ariebrainware/patient-checkin/workflow"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "checkin"

// Outcome labels for detections.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Collector holds the workflow metrics on its own registry.
type Collector struct {
	registry *prometheus.Registry

	Transitions     *prometheus.CounterVec
	Detections      *prometheus.CounterVec
	DetectDuration  prometheus.Histogram
	ReportsExported prometheus.Counter
	State           *prometheus.GaugeVec
}

// New registers the workflow collectors plus the Go runtime and process
// collectors on a fresh registry.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Applied workflow events by event and target state.",
		}, []string{"event", "to"}),
		Detections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detections_total",
			Help:      "Completed patient detections by outcome.",
		}, []string{"outcome"}),
		DetectDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "detect_duration_seconds",
			Help:      "Time from detect request to applied outcome.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 2.5, 3, 5, 10},
		}),
		ReportsExported: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_exported_total",
			Help:      "Medical report PDFs served.",
		}),
		State: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "state",
			Help:      "1 for the current workflow state, 0 otherwise.",
		}, []string{"state"}),
	}

	c.registry.MustRegister(
		c.Transitions,
		c.Detections,
		c.DetectDuration,
		c.ReportsExported,
		c.State,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	c.setState(workflow.Idle)
	return c
}

// Observe records one workflow change. It has the workflow.Listener
// signature.
func (c *Collector) Observe(ch workflow.Change) {
	c.Transitions.WithLabelValues(ch.Event.String(), ch.To.String()).Inc()
	switch ch.Event {
	case workflow.EventDetectSucceeded:
		c.Detections.WithLabelValues(OutcomeSuccess).Inc()
		c.DetectDuration.Observe(ch.Duration.Seconds())
	case workflow.EventDetectFailed:
		c.Detections.WithLabelValues(OutcomeFailure).Inc()
		c.DetectDuration.Observe(ch.Duration.Seconds())
	}
	c.setState(ch.To)
}

// ReportExported counts one served report.
func (c *Collector) ReportExported() {
	c.ReportsExported.Inc()
}

// Registry returns the registry backing Handler.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collector) setState(current workflow.State) {
	for _, s := range []workflow.State{workflow.Idle, workflow.Scanning, workflow.Detecting, workflow.Displaying} {
		v := 0.0
		if s == current {
			v = 1
		}
		c.State.WithLabelValues(s.String()).Set(v)
	}
}
