package collector

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"primeload/internal/core"
)

// PromReporter mirrors every event into Prometheus metrics and forwards it to next.
type PromReporter struct {
	next     core.Reporter
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	tasks    *prometheus.CounterVec
}

// NewPromReporter registers the load generator's metrics on reg.
func NewPromReporter(next core.Reporter, reg prometheus.Registerer) (*PromReporter, error) {
	p := &PromReporter{
		next: next,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "primeload",
			Name:      "requests_total",
			Help:      "Requests issued by actors, by request name and status code.",
		}, []string{"request", "code", "success"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "primeload",
			Name:      "request_duration_seconds",
			Help:      "Request latency as observed by actors.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"request"}),
		tasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "primeload",
			Name:      "task_executions_total",
			Help:      "Scheduling task executions, by task name.",
		}, []string{"task"}),
	}

	for _, c := range []prometheus.Collector{p.requests, p.latency, p.tasks} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *PromReporter) Report(e core.Event) {
	if e.Protocol == ProtocolTask {
		p.tasks.WithLabelValues(e.Step).Inc()
	} else {
		p.requests.WithLabelValues(e.Step, strconv.Itoa(e.StatusCode), strconv.FormatBool(e.Success)).Inc()
		p.latency.WithLabelValues(e.Step).Observe(e.Duration.Seconds())
	}
	if p.next != nil {
		p.next.Report(e)
	}
}
