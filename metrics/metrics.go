// Package metrics creates the Prometheus collectors used by the instrumenting middleware and
// exposes them over HTTP.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	methodField = "method"
	routeField  = "route"
	codeField   = "code"
)

// NewFactory returns a Factory whose metrics are created under namespace in a fresh registry.
// Process and Go runtime collectors are registered as well.
func NewFactory(namespace string) Factory {
	r := prometheus.NewRegistry()
	r.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	r.MustRegister(collectors.NewGoCollector())

	return Factory{namespace: CanonicalLabel(namespace), Registry: r}
}

// A Factory creates and registers Prometheus metrics in its own Registry.
type Factory struct {
	namespace string
	Registry  *prometheus.Registry
}

// HTTPHandlerFor returns the handler that serves this Factory's registry.
func (f Factory) HTTPHandlerFor() http.Handler {
	return promhttp.InstrumentMetricHandler(f.Registry, promhttp.HandlerFor(f.Registry, promhttp.HandlerOpts{}))
}

// NewServiceStatistics creates request count, error count and latency metrics for subsystem,
// broken out by method.
func (f Factory) NewServiceStatistics(subsystem string) ServiceStatistics {
	labels := []string{methodField}
	requestCount := f.newCounter(subsystem, "request_count", "Number of requests received", labels)
	errorCount := f.newCounter(subsystem, "error_count", "Number of errors encountered", labels)
	requestLatency := f.newSummary(subsystem, "request_latency_milliseconds", "Total duration of requests in milliseconds", labels)

	return NewServiceStatistics(requestCount, errorCount, requestLatency)
}

// NewHTTPStatistics creates response count and latency metrics for subsystem, broken out by
// route name and status code.
func (f Factory) NewHTTPStatistics(subsystem string) HTTPStatistics {
	return &httpStats{
		responses: f.newCounter(subsystem, "response_count", "Number of responses written", []string{routeField, codeField}),
		latency:   f.newSummary(subsystem, "response_latency_milliseconds", "Time to write responses in milliseconds", []string{routeField}),
	}
}

func (f Factory) newSummary(subsystem, name, help string, labelNames []string) *summary {
	sv := prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Namespace: f.namespace,
		Subsystem: CanonicalLabel(subsystem),
		Name:      CanonicalLabel(name),
		Help:      help,
		// quantile -> allowed error, e.g. 0.95±0.01 lands between the 94th and 96th percentile
		Objectives: map[float64]float64{0.5: 0.01, 0.75: 0.01, 0.95: 0.01, 0.99: 0.001, 0.999: 0.0001},
	}, CanonicalLabels(labelNames))
	f.Registry.MustRegister(sv)
	return newSummary(sv)
}

func (f Factory) newCounter(subsystem, name, help string, labelNames []string) *prometheusBasedCounter {
	cv := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: f.namespace,
		Subsystem: CanonicalLabel(subsystem),
		Name:      CanonicalLabel(name),
		Help:      help,
	}, CanonicalLabels(labelNames))
	f.Registry.MustRegister(cv)
	return newPrometheusBasedCounter(cv)
}

// ServiceStatistics measure service-level calls by method: request count, error count and
// latency.
type ServiceStatistics interface {
	Update(methodName string, begin time.Time, err error)
}

// NewServiceStatistics returns a ServiceStatistics over the given collectors.
func NewServiceStatistics(requestCount, errorCount counter, requestLatency histogram) ServiceStatistics {
	return &serviceStats{requestCount, errorCount, requestLatency}
}

type serviceStats struct {
	requestCount   counter
	errorCount     counter
	requestLatency histogram
}

func (s *serviceStats) Update(methodName string, begin time.Time, err error) {
	s.requestCount.With(methodField, methodName).Add(1)
	s.requestLatency.With(methodField, methodName).Observe(computeDuration(begin))
	if err != nil {
		s.errorCount.With(methodField, methodName).Add(1)
	}
}

// HTTPStatistics measure responses written by the HTTP server.
type HTTPStatistics interface {
	Observe(route string, code int, begin time.Time)
}

type httpStats struct {
	responses counter
	latency   histogram
}

func (h *httpStats) Observe(route string, code int, begin time.Time) {
	h.responses.With(routeField, route, codeField, statusClass(code)).Add(1)
	h.latency.With(routeField, route).Observe(computeDuration(begin))
}

// statusClass collapses a status code to 2xx, 4xx, ... to bound label cardinality.
func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	case code >= 200:
		return "2xx"
	}
	return "1xx"
}

func computeDuration(begin time.Time) float64 {
	d := float64(time.Since(begin).Nanoseconds()) / float64(time.Millisecond)
	if d < 0 {
		d = 0
	}
	return d
}
