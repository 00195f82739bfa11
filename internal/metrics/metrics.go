package metrics

import "github.com/prometheus/client_golang/prometheus"

// FormMetrics counts form submissions and availability lookups.
// A nil *FormMetrics is valid and records nothing.
type FormMetrics struct {
	submissions    *prometheus.CounterVec
	fallbacks      *prometheus.CounterVec
	lookupFailures prometheus.Counter
}

func NewFormMetrics(reg prometheus.Registerer) *FormMetrics {
	m := &FormMetrics{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "consultation",
			Subsystem: "forms",
			Name:      "submissions_total",
			Help:      "Form submissions by form and outcome",
		}, []string{"form", "outcome"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "consultation",
			Subsystem: "forms",
			Name:      "fallback_total",
			Help:      "Submissions routed to the fallback form endpoint",
		}, []string{"form", "result"}),
		lookupFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "consultation",
			Subsystem: "availability",
			Name:      "lookup_failures_total",
			Help:      "Booked-time lookups that failed and were served as empty",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissions, m.fallbacks, m.lookupFailures)
	return m
}

func (m *FormMetrics) ObserveSubmission(form, outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(form, outcome).Inc()
}

func (m *FormMetrics) ObserveFallback(form string, ok bool) {
	if m == nil {
		return
	}
	result := "failed"
	if ok {
		result = "accepted"
	}
	m.fallbacks.WithLabelValues(form, result).Inc()
}

func (m *FormMetrics) ObserveLookupFailure() {
	if m == nil {
		return
	}
	m.lookupFailures.Inc()
}
