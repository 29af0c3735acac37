package restserver

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	analyses *prometheus.CounterVec
	years    prometheus.Histogram
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flowstats",
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by route, method and status code.",
		}, []string{"route", "method", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "flowstats",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flowstats",
			Name:      "analyses_total",
			Help:      "Station analyses run, by outcome.",
		}, []string{"outcome"}),
		years: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "flowstats",
			Name:      "analysis_years",
			Help:      "Number of years retained per successful analysis.",
			Buckets:   []float64{1, 5, 10, 20, 30, 50, 75, 100, 150},
		}),
	}
	m.registry.MustRegister(
		m.requests,
		m.duration,
		m.analyses,
		m.years,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *metrics) observeRequest(route, method string, status int, elapsed time.Duration) {
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func (m *metrics) observeAnalysis(outcome string, years int) {
	m.analyses.WithLabelValues(outcome).Inc()
	if outcome == outcomeOK {
		m.years.Observe(float64(years))
	}
}
