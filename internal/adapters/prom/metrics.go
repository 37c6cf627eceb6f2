// Package prom exports the progress of an evaluation run as Prometheus
// metrics.
//
// Every run registers its collectors with a variant const label, so several
// runs (the compare command) can share one registry. The metrics are written
// to a node_exporter textfile at the end of a run; there is no HTTP endpoint.
//
// All metric operations are thread-safe via Prometheus's internal locking.
package prom

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/diegomarron/ElasticSwapRandomForest/internal/domain/controller"
)

// Namespace for all metrics
const metricsNamespace = "elasticswap"

// Snapshot is the evaluation state pushed after each reporting interval.
type Snapshot struct {
	Instances      uint64
	Correct        uint64
	Accuracy       float64
	WindowAccuracy float64
	Malformed      uint64
	Stats          controller.Stats
}

// RunMetrics holds the collectors of one run.
type RunMetrics struct {
	InstancesTotal prometheus.Counter
	CorrectTotal   prometheus.Counter
	MalformedTotal prometheus.Counter
	GrowsTotal     *prometheus.CounterVec // result: accepted, rejected
	ShrinksTotal   prometheus.Counter
	SwapsTotal     prometheus.Counter
	DriftsTotal    prometheus.Counter

	Accuracy       prometheus.Gauge
	WindowAccuracy prometheus.Gauge
	GroupSize      *prometheus.GaugeVec // group: front, candidate, grow
	GroupAccuracy  *prometheus.GaugeVec // group, stat: mean, min, max

	last Snapshot
}

// NewRunMetrics registers the collectors of one run with reg.
// Panics if the variant was already registered with reg.
func NewRunMetrics(reg prometheus.Registerer, variant string) *RunMetrics {
	f := promauto.With(reg)
	labels := prometheus.Labels{"variant": variant}
	counter := func(name, help string) prometheus.Counter {
		return f.NewCounter(prometheus.CounterOpts{
			Namespace:   metricsNamespace,
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return f.NewGauge(prometheus.GaugeOpts{
			Namespace:   metricsNamespace,
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		})
	}

	return &RunMetrics{
		InstancesTotal: counter("instances_total", "Instances evaluated"),
		CorrectTotal:   counter("correct_total", "Instances predicted correctly before training"),
		MalformedTotal: counter("malformed_total", "Stream lines skipped because they could not be decoded"),
		GrowsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace:   metricsNamespace,
			Name:        "grows_total",
			Help:        "Front grow decisions by result",
			ConstLabels: labels,
		}, []string{"result"}),
		ShrinksTotal: counter("shrinks_total", "Front shrink operations"),
		SwapsTotal:   counter("swaps_total", "Front/candidate swaps"),
		DriftsTotal:  counter("drifts_total", "Learner resets triggered by drift detection"),

		Accuracy:       gauge("accuracy", "Cumulative prequential accuracy"),
		WindowAccuracy: gauge("window_accuracy", "Prequential accuracy over the sliding window"),
		GroupSize: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   metricsNamespace,
			Name:        "group_size",
			Help:        "Active learners per ensemble group",
			ConstLabels: labels,
		}, []string{"group"}),
		GroupAccuracy: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   metricsNamespace,
			Name:        "group_accuracy",
			Help:        "Learner accuracy statistics per ensemble group",
			ConstLabels: labels,
		}, []string{"group", "stat"}),
	}
}

// Observe brings the collectors up to date with s. Counters advance by the
// difference to the previous snapshot.
func (m *RunMetrics) Observe(s Snapshot) {
	st, prev := s.Stats, m.last.Stats
	m.InstancesTotal.Add(delta(s.Instances, m.last.Instances))
	m.CorrectTotal.Add(delta(s.Correct, m.last.Correct))
	m.MalformedTotal.Add(delta(s.Malformed, m.last.Malformed))
	m.GrowsTotal.WithLabelValues("accepted").Add(delta(st.Grows, prev.Grows))
	m.GrowsTotal.WithLabelValues("rejected").Add(delta(st.GrowsRejected, prev.GrowsRejected))
	m.ShrinksTotal.Add(delta(st.Shrinks, prev.Shrinks))
	m.SwapsTotal.Add(delta(st.Swaps, prev.Swaps))
	m.DriftsTotal.Add(delta(st.Drifts, prev.Drifts))

	m.Accuracy.Set(s.Accuracy)
	m.WindowAccuracy.Set(s.WindowAccuracy)
	m.GroupSize.WithLabelValues("front").Set(float64(st.FrontSize))
	m.GroupSize.WithLabelValues("candidate").Set(float64(st.CandidateSize))
	m.GroupSize.WithLabelValues("grow").Set(float64(st.GrowSize))
	for group, gs := range map[string]struct{ mean, min, max float64 }{
		"front":     {st.Front.Mean, st.Front.Min, st.Front.Max},
		"candidate": {st.Candidate.Mean, st.Candidate.Min, st.Candidate.Max},
	} {
		m.GroupAccuracy.WithLabelValues(group, "mean").Set(gs.mean)
		m.GroupAccuracy.WithLabelValues(group, "min").Set(gs.min)
		m.GroupAccuracy.WithLabelValues(group, "max").Set(gs.max)
	}
	m.last = s
}

func delta(now, before uint64) float64 {
	if now < before {
		return 0
	}
	return float64(now - before)
}

// WriteTextfile writes everything gathered by g in the text exposition
// format, atomically replacing path.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
