package metrics

import "github.com/prometheus/client_golang/prometheus"

// counter accumulates values monotonically, e.g. the number of received requests.
type counter interface {
	With(labelValues ...string) counter
	Add(delta float64)
}

// histogram takes repeated observations of the same kind of thing, e.g. request latencies.
type histogram interface {
	With(labelValues ...string) histogram
	Observe(value float64)
}

func newPrometheusBasedCounter(cv *prometheus.CounterVec) *prometheusBasedCounter {
	return &prometheusBasedCounter{cv: cv}
}

type prometheusBasedCounter struct {
	cv  *prometheus.CounterVec
	lvs labelValues
}

func (c *prometheusBasedCounter) With(labelValues ...string) counter {
	return &prometheusBasedCounter{
		cv:  c.cv,
		lvs: c.lvs.with(labelValues...),
	}
}

func (c *prometheusBasedCounter) Add(delta float64) {
	c.cv.With(makeLabels(c.lvs...)).Add(delta)
}

func newSummary(sv *prometheus.SummaryVec) *summary {
	return &summary{sv: sv}
}

// summary implements histogram with a SummaryVec: no predefined buckets, but the quantiles
// cannot be aggregated across instances.
type summary struct {
	sv  *prometheus.SummaryVec
	lvs labelValues
}

func (s *summary) With(labelValues ...string) histogram {
	return &summary{
		sv:  s.sv,
		lvs: s.lvs.with(labelValues...),
	}
}

func (s *summary) Observe(value float64) {
	s.sv.With(makeLabels(s.lvs...)).Observe(value)
}

func makeLabels(labelValues ...string) prometheus.Labels {
	labels := prometheus.Labels{}
	for i := 0; i < len(labelValues); i += 2 {
		labels[labelValues[i]] = labelValues[i+1]
	}
	return labels
}

// labelValues is a flat list of name/value pairs.
type labelValues []string

// with appends pairs, padding an odd list with "unknown".
func (lvs labelValues) with(pairs ...string) labelValues {
	if len(pairs)%2 != 0 {
		pairs = append(pairs, "unknown")
	}
	out := make(labelValues, 0, len(lvs)+len(pairs))
	out = append(out, lvs...)
	return append(out, pairs...)
}
